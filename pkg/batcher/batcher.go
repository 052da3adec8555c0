package batcher

import (
	"errors"
	"fmt"
	"iter"
)

// Batcher groups a sequence of records into bounded batches under three
// independent limits: record count per batch, size of a single record, and
// cumulative size per batch. It is pull-based and lazy: each call to Next
// advances the source just far enough to assemble one batch, so unbounded
// streams never have to be materialized.
//
// Behavior:
//   - Records appear in batches in source order; nothing is reordered,
//     duplicated, or lost (except records dropped under OverflowSkip).
//   - A record that triggers a split is parked in a carry-over slot and
//     seeds the next batch; the slot is consumed and cleared exactly once.
//   - An empty source produces exactly one empty batch, then ErrExhausted.
//   - With no limits configured, the whole input becomes a single batch.
//
// A Batcher is single-consumer: Next mutates iteration state without
// synchronization, so calls must be externally serialized.
type Batcher[T any] struct {
	cfg    Config[T]
	source iter.Seq[T]

	look      *Lookahead[T]
	carry     T
	carrySize int
	hasCarry  bool
	exhausted bool
	poisoned  error
}

// New validates cfg and builds a Batcher over records. The source is not
// touched yet; pulling starts with the first call to Next. A size limit
// without SizeOf, a negative limit, or an unknown overflow policy fails
// with an error wrapping ErrInvalidConfig.
func New[T any](records iter.Seq[T], cfg Config[T]) (*Batcher[T], error) {
	if records == nil {
		return nil, fmt.Errorf("%w: nil record sequence", ErrInvalidConfig)
	}
	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}
	return &Batcher[T]{cfg: cfg, source: records}, nil
}

// Next assembles and returns the next batch. Once the source is exhausted
// and every record has been flushed it returns ErrExhausted. Under
// OverflowRaise an oversized record returns a *RecordTooLargeError and
// poisons the Batcher: the source position is ambiguous at that point, so
// every later call returns the same error.
func (b *Batcher[T]) Next() ([]T, error) {
	if b.poisoned != nil {
		return nil, b.poisoned
	}
	if b.exhausted {
		return nil, ErrExhausted
	}
	if b.look == nil {
		b.look = NewLookahead(b.source)
	}

	batch := []T{}
	size := 0
	if b.hasCarry {
		batch = append(batch, b.carry)
		size = b.carrySize
		b.clearCarry()
	}

	for {
		rec, ok := b.look.Next()
		if !ok {
			// Source drained: flush whatever has accumulated, even an
			// empty batch on an empty source.
			b.exhausted = true
			b.look = nil
			return batch, nil
		}

		recSize := 0
		if b.cfg.sizeLimited() {
			recSize = b.cfg.SizeOf(rec)
		}

		if b.cfg.MaxRecordSize > 0 && recSize > b.cfg.MaxRecordSize {
			if b.cfg.Overflow == OverflowSkip {
				continue
			}
			err := &RecordTooLargeError[T]{Record: rec, Size: recSize, Limit: b.cfg.MaxRecordSize}
			b.poisoned = err
			return nil, err
		}

		if b.cfg.MaxBatchLen > 0 && len(batch) >= b.cfg.MaxBatchLen {
			b.park(rec, recSize)
			return batch, nil
		}

		if b.cfg.MaxBatchSize > 0 {
			candidate := size + recSize
			// Splitting an empty batch would emit nothing and stall the
			// size accounting, so an over-budget record on an empty batch
			// is committed alone. Reachable only when MaxRecordSize is
			// explicitly raised above MaxBatchSize.
			if candidate > b.cfg.MaxBatchSize && len(batch) > 0 {
				b.park(rec, recSize)
				return batch, nil
			}
			size = candidate
		}

		batch = append(batch, rec)
	}
}

// All drains the Batcher into memory: it starts a fresh pass over the
// source and collects every batch until ErrExhausted. Batches produced
// before a failure are returned alongside the error. When batching big
// sequences, prefer iterating with Next or Batches instead.
func (b *Batcher[T]) All() ([][]T, error) {
	if b.poisoned != nil {
		return nil, b.poisoned
	}
	b.reset()

	var batches [][]T
	for {
		batch, err := b.Next()
		if errors.Is(err, ErrExhausted) {
			return batches, nil
		}
		if err != nil {
			return batches, err
		}
		batches = append(batches, batch)
	}
}

// Batches starts a fresh pass and returns the batch sequence as a
// range-over-func iterator. The range ends silently at exhaustion; a
// RecordTooLarge failure under OverflowRaise is yielded once with a nil
// batch. Breaking out of the range releases the underlying pull iterator.
func (b *Batcher[T]) Batches() iter.Seq2[[]T, error] {
	return func(yield func([]T, error) bool) {
		if b.poisoned == nil {
			b.reset()
		}
		for {
			batch, err := b.Next()
			if errors.Is(err, ErrExhausted) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(batch, nil) {
				b.Stop()
				return
			}
		}
	}
}

// Stop abandons the current pass and releases its pull iterator, discarding
// any parked carry-over record. The next call to Next starts a fresh pass.
// Safe to call multiple times. Stop never touches the caller's source
// beyond the iterator: upstream resources stay the caller's responsibility.
func (b *Batcher[T]) Stop() {
	if b.look != nil {
		b.look.Stop()
		b.look = nil
	}
	b.clearCarry()
}

// reset begins a fresh pass: a new Lookahead over the source from its
// current position, cleared carry-over, cleared exhaustion. Poisoning is
// permanent and survives resets.
func (b *Batcher[T]) reset() {
	if b.look != nil {
		b.look.Stop()
	}
	b.look = NewLookahead(b.source)
	b.clearCarry()
	b.exhausted = false
}

// park defers a record that triggered a split into the next batch.
func (b *Batcher[T]) park(rec T, size int) {
	b.carry = rec
	b.carrySize = size
	b.hasCarry = true
}

func (b *Batcher[T]) clearCarry() {
	var zero T
	b.carry = zero
	b.carrySize = 0
	b.hasCarry = false
}

// Each builds a Batcher over records and hands every batch to fn in order,
// stopping at the first error. It is the bridge between the pull-based core
// and push-style consumers such as bulk writers.
func Each[T any](records iter.Seq[T], cfg Config[T], fn func([]T) error) error {
	b, err := New(records, cfg)
	if err != nil {
		return err
	}
	defer b.Stop()

	for {
		batch, err := b.Next()
		if errors.Is(err, ErrExhausted) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(batch); err != nil {
			return err
		}
	}
}
