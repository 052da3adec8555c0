package redis

import (
	"context"
	"fmt"
	"iter"
	"time"

	redisV9 "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/huynhanx03/go-batching/pkg/batcher"
	"github.com/huynhanx03/go-batching/pkg/settings"
)

// Entry is a single key/value pair destined for Redis.
type Entry struct {
	Key   string
	Value []byte
}

// EntrySize reports the payload size of an entry: key bytes plus value bytes.
func EntrySize(e Entry) int {
	return len(e.Key) + len(e.Value)
}

// Writer loads entry streams into Redis, one pipeline per batch. Batch
// limits bound both the number of commands and the payload bytes buffered
// in a single round trip.
type Writer struct {
	engine *RedisEngine
	cfg    batcher.Config[Entry]
	ttl    time.Duration
	log    *zap.Logger
}

// NewWriter builds a Writer over an established engine. ttl applies to every
// written key; zero means no expiry.
func NewWriter(engine *RedisEngine, batch settings.Batch, ttl time.Duration, log *zap.Logger) (*Writer, error) {
	cfg, err := settings.BatchConfig(batch, EntrySize)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Writer{
		engine: engine,
		cfg:    cfg,
		ttl:    ttl,
		log:    log,
	}, nil
}

// WriteAll pipelines every entry from records into Redis and returns the
// number of keys written. Writing stops at the first failed pipeline; keys
// from pipelines already executed stay written.
func (w *Writer) WriteAll(ctx context.Context, records iter.Seq[Entry]) (int, error) {
	written := 0

	err := batcher.Each(records, w.cfg, func(batch []Entry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		_, err := w.engine.Client().Pipelined(ctx, func(pipe redisV9.Pipeliner) error {
			for _, e := range batch {
				pipe.Set(ctx, e.Key, e.Value, w.ttl)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrWriteFailed, err)
		}

		written += len(batch)
		w.log.Debug("redis batch written", zap.Int("keys", len(batch)))
		return nil
	})

	return written, err
}
