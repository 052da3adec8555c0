package mongodb

import (
	"context"
	"fmt"
	"iter"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/huynhanx03/go-batching/pkg/batcher"
	"github.com/huynhanx03/go-batching/pkg/settings"
)

// BSONLen reports the size of a document as marshaled BSON. Documents that
// cannot be marshaled report zero and are caught again, with a real error,
// when the batch is inserted.
func BSONLen[T any](doc T) int {
	b, err := bson.Marshal(doc)
	if err != nil {
		return 0
	}
	return len(b)
}

// Inserter loads document streams into a collection with InsertMany, one
// call per batch.
//
// The server caps a single insert at 100000 documents and one message at
// 16 MB; keep MaxBatchLen and MaxBatchSize under those bounds.
type Inserter[T any] struct {
	col *mongo.Collection
	cfg batcher.Config[T]
	log *zap.Logger
}

// NewInserter builds an Inserter writing to col. sizeOf is only required
// when batch carries a size limit; BSONLen is the usual choice.
func NewInserter[T any](col *mongo.Collection, batch settings.Batch, sizeOf func(T) int, log *zap.Logger) (*Inserter[T], error) {
	cfg, err := settings.BatchConfig(batch, sizeOf)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Inserter[T]{
		col: col,
		cfg: cfg,
		log: log,
	}, nil
}

// InsertAll inserts every document from records and returns the number of
// documents written. Insertion stops at the first failed batch; documents
// from batches already inserted stay inserted.
func (ins *Inserter[T]) InsertAll(ctx context.Context, records iter.Seq[T]) (int, error) {
	inserted := 0

	err := batcher.Each(records, ins.cfg, func(batch []T) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		docs := make([]interface{}, len(batch))
		for i, d := range batch {
			docs[i] = d
		}

		if _, err := ins.col.InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("%w: %v", ErrInsertFailed, err)
		}

		inserted += len(batch)
		ins.log.Debug("mongodb batch inserted", zap.Int("documents", len(batch)))
		return nil
	})

	return inserted, err
}
