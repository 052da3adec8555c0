package settings

type Config struct {
	Batch         Batch         `mapstructure:"batch"`
	Logger        Logger        `mapstructure:"logger"`
	Kafka         Kafka         `mapstructure:"kafka"`
	Redis         Redis         `mapstructure:"redis"`
	MongoDB       MongoDB       `mapstructure:"mongodb"`
	Elasticsearch Elasticsearch `mapstructure:"elasticsearch"`
}

// Batch is the configuration for the batching core. Zero values disable the
// corresponding limit; Overflow accepts "raise", "skip" or empty (raise).
type Batch struct {
	MaxBatchLen   int    `mapstructure:"max_batch_len" validate:"gte=0"`
	MaxRecordSize int    `mapstructure:"max_record_size" validate:"gte=0"`
	MaxBatchSize  int    `mapstructure:"max_batch_size" validate:"gte=0"`
	Overflow      string `mapstructure:"overflow" validate:"omitempty,oneof=raise skip"`
}

// Logger is the configuration for the logger
type Logger struct {
	LogLevel    string `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
	FileLogName string `mapstructure:"file_log_name"`
	MaxBackups  int    `mapstructure:"max_backups"`
	MaxAge      int    `mapstructure:"max_age"`
	MaxSize     int    `mapstructure:"max_size"`
	Compress    bool   `mapstructure:"compress"`
}

// Kafka is the configuration for the Kafka batch producer
type Kafka struct {
	Brokers         []string `mapstructure:"brokers" validate:"required,min=1"`
	FlushMessages   int      `mapstructure:"flush_messages"`    // Max messages per produce batch
	FlushBytes      int      `mapstructure:"flush_bytes"`       // Max cumulative bytes per produce batch
	MaxMessageBytes int      `mapstructure:"max_message_bytes"` // Bytes
	Timeout         int      `mapstructure:"timeout"`           // Seconds
	MaxRetries      int      `mapstructure:"max_retries"`       // Number of retries
	RetryBackoff    int      `mapstructure:"retry_backoff"`     // Milliseconds
	Overflow        string   `mapstructure:"overflow" validate:"omitempty,oneof=raise skip"`
}

// Redis is the configuration for Redis
type Redis struct {
	Addrs           []string `mapstructure:"addrs" validate:"required,min=1"`
	MasterName      string   `mapstructure:"master_name"`
	Password        string   `mapstructure:"password"`
	Database        int      `mapstructure:"database"`
	PoolSize        int      `mapstructure:"pool_size"`
	MinIdleConns    int      `mapstructure:"min_idle_conns"`
	PoolTimeout     int      `mapstructure:"pool_timeout"`
	DialTimeout     int      `mapstructure:"dial_timeout"`
	ReadTimeout     int      `mapstructure:"read_timeout"`
	WriteTimeout    int      `mapstructure:"write_timeout"`
	MaxRetries      int      `mapstructure:"max_retries"`
	MaxRetryBackoff int      `mapstructure:"max_retry_backoff"`
	MinRetryBackoff int      `mapstructure:"min_retry_backoff"`
}

// MongoDB is the configuration for MongoDB
type MongoDB struct {
	Host            string `mapstructure:"host" validate:"required"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database" validate:"required"`
	MaxPoolSize     uint64 `mapstructure:"max_pool_size"`
	MinPoolSize     uint64 `mapstructure:"min_pool_size"`
	MaxConnIdleTime uint64 `mapstructure:"max_conn_idle_time"`
	Port            int    `mapstructure:"port" validate:"gte=0,lte=65535"`
	Timeout         int    `mapstructure:"timeout"`
}

// Elasticsearch is the configuration for Elasticsearch
type Elasticsearch struct {
	Addresses []string `mapstructure:"addresses" validate:"required,min=1"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}
