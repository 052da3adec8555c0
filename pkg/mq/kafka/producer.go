package kafka

import (
	"context"
	"fmt"
	"iter"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/huynhanx03/go-batching/pkg/batcher"
	"github.com/huynhanx03/go-batching/pkg/settings"
	"github.com/huynhanx03/go-batching/pkg/utils"
)

const (
	defaultFlushMessages = 512
	defaultTimeout       = 10 // seconds
	defaultMaxRetries    = 3
	defaultRetryBackoff  = 100 // millis
)

// Producer publishes record streams to Kafka in bounded batches.
//
// Behavior:
//   - Messages are grouped by batcher before each SendMessages call, so a
//     single slow stream never accumulates an unbounded request.
//   - FlushMessages caps the message count per request, FlushBytes caps
//     the cumulative payload bytes.
//   - A message above MaxMessageBytes is skipped or fails the whole stream,
//     depending on the configured overflow policy.
type Producer struct {
	producer sarama.SyncProducer
	cfg      batcher.Config[*sarama.ProducerMessage]
	log      *zap.Logger
}

// NewProducer connects a synchronous producer to the configured brokers.
func NewProducer(cfg *settings.Kafka, log *zap.Logger) (*Producer, error) {
	if err := settings.Validate(cfg); err != nil {
		return nil, err
	}
	setDefaultConfig(cfg)

	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.Retry.Max = cfg.MaxRetries
	saramaCfg.Producer.Retry.Backoff = utils.ToDurationMs(cfg.RetryBackoff)
	saramaCfg.Producer.Timeout = utils.ToDuration(cfg.Timeout)
	if cfg.MaxMessageBytes > 0 {
		saramaCfg.Producer.MaxMessageBytes = cfg.MaxMessageBytes
	}

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	return newProducer(producer, cfg, log)
}

// FromSyncProducer wraps an existing sync producer. It is the entry point
// for tests and for callers that manage the sarama client themselves.
func FromSyncProducer(producer sarama.SyncProducer, cfg *settings.Kafka, log *zap.Logger) (*Producer, error) {
	setDefaultConfig(cfg)
	return newProducer(producer, cfg, log)
}

func newProducer(producer sarama.SyncProducer, cfg *settings.Kafka, log *zap.Logger) (*Producer, error) {
	if log == nil {
		log = zap.NewNop()
	}

	policy, err := batcher.ParseOverflowPolicy(cfg.Overflow)
	if err != nil {
		return nil, err
	}

	batchCfg := batcher.Config[*sarama.ProducerMessage]{
		MaxBatchLen:   cfg.FlushMessages,
		MaxRecordSize: cfg.MaxMessageBytes,
		MaxBatchSize:  cfg.FlushBytes,
		Overflow:      policy,
	}
	if batchCfg.MaxRecordSize > 0 || batchCfg.MaxBatchSize > 0 {
		batchCfg.SizeOf = MessageSize
	}

	return &Producer{
		producer: producer,
		cfg:      batchCfg,
		log:      log,
	}, nil
}

// setDefaultConfig sets default values for Kafka configuration
func setDefaultConfig(cfg *settings.Kafka) {
	if cfg.FlushMessages == 0 {
		cfg.FlushMessages = defaultFlushMessages
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
}

// MessageSize reports the payload size of a producer message: key, value
// and record headers. Broker-side framing overhead is not counted.
func MessageSize(msg *sarama.ProducerMessage) int {
	size := 0
	if msg.Key != nil {
		size += msg.Key.Length()
	}
	if msg.Value != nil {
		size += msg.Value.Length()
	}
	for _, h := range msg.Headers {
		size += len(h.Key) + len(h.Value)
	}
	return size
}

// ProduceAll publishes every message from records and returns the number of
// messages delivered. Delivery stops at the first failed batch; messages from
// batches already sent stay sent.
func (p *Producer) ProduceAll(ctx context.Context, records iter.Seq[*sarama.ProducerMessage]) (int, error) {
	sent := 0

	err := batcher.Each(records, p.cfg, func(batch []*sarama.ProducerMessage) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		if err := p.producer.SendMessages(batch); err != nil {
			return fmt.Errorf("%w: %v", ErrProduceFailed, err)
		}

		sent += len(batch)
		p.log.Debug("kafka batch produced", zap.Int("messages", len(batch)))
		return nil
	})

	return sent, err
}

// ProduceValues publishes raw payloads to a single topic.
func (p *Producer) ProduceValues(ctx context.Context, topic string, values iter.Seq[[]byte]) (int, error) {
	messages := func(yield func(*sarama.ProducerMessage) bool) {
		for value := range values {
			msg := &sarama.ProducerMessage{
				Topic: topic,
				Value: sarama.ByteEncoder(value),
			}
			if !yield(msg) {
				return
			}
		}
	}
	return p.ProduceAll(ctx, messages)
}

// Close shuts down the underlying sync producer.
func (p *Producer) Close() error {
	return p.producer.Close()
}
