package logger

import (
	"os"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/huynhanx03/go-batching/pkg/settings"
)

// New builds a JSON zap logger from the logger settings. When FileLogName
// is set the output goes through a size-rotated log file; otherwise it goes
// to stderr. Unknown or empty log levels fall back to info.
func New(cfg settings.Logger) *zap.Logger {
	level := zapcore.InfoLevel
	if cfg.LogLevel != "" {
		if parsed, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
			level = parsed
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var sink zapcore.WriteSyncer
	if cfg.FileLogName != "" {
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.FileLogName,
			MaxSize:    cfg.MaxSize, // Megabytes
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge, // Days
			Compress:   cfg.Compress,
		})
	} else {
		sink = zapcore.AddSync(os.Stderr)
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), sink, level)
	return zap.New(core, zap.AddCaller())
}
