package batcher

import "fmt"

// OverflowPolicy selects what happens to a record whose measured size
// exceeds MaxRecordSize.
type OverflowPolicy int

const (
	// OverflowRaise stops the batcher with a *RecordTooLargeError. This is
	// the default.
	OverflowRaise OverflowPolicy = iota
	// OverflowSkip silently drops the oversized record and keeps going.
	OverflowSkip
)

func (p OverflowPolicy) String() string {
	switch p {
	case OverflowRaise:
		return "raise"
	case OverflowSkip:
		return "skip"
	default:
		return fmt.Sprintf("OverflowPolicy(%d)", int(p))
	}
}

// ParseOverflowPolicy converts a configuration string into an
// OverflowPolicy. The empty string selects the default, OverflowRaise.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch s {
	case "", "raise":
		return OverflowRaise, nil
	case "skip":
		return OverflowSkip, nil
	default:
		return 0, fmt.Errorf("%w: unrecognized overflow policy %q", ErrInvalidConfig, s)
	}
}

// Config holds the splitting limits for a Batcher. Every limit is optional;
// a zero value disables it. With no limits active the whole input becomes a
// single batch.
type Config[T any] struct {
	// MaxBatchLen caps the number of records per batch. Active when > 0.
	MaxBatchLen int

	// MaxRecordSize caps the measured size of a single record. Active when
	// > 0. When only MaxBatchSize is set, MaxRecordSize defaults to it: a
	// record larger than the batch cap could never fit in any batch.
	MaxRecordSize int

	// MaxBatchSize caps the cumulative measured size of a batch. Active
	// when > 0.
	MaxBatchSize int

	// SizeOf measures one record. Required exactly when MaxRecordSize or
	// MaxBatchSize is active. Must be pure: the accounting assumes a record
	// measures the same every time.
	SizeOf func(T) int

	// Overflow is the reaction to a record larger than MaxRecordSize.
	Overflow OverflowPolicy
}

// normalize validates the limits and applies the implicit MaxRecordSize
// default. It operates on a copy; the caller's Config stays untouched.
func (c Config[T]) normalize() (Config[T], error) {
	if c.MaxBatchLen < 0 {
		return c, fmt.Errorf("%w: MaxBatchLen must not be negative, got %d", ErrInvalidConfig, c.MaxBatchLen)
	}
	if c.MaxRecordSize < 0 {
		return c, fmt.Errorf("%w: MaxRecordSize must not be negative, got %d", ErrInvalidConfig, c.MaxRecordSize)
	}
	if c.MaxBatchSize < 0 {
		return c, fmt.Errorf("%w: MaxBatchSize must not be negative, got %d", ErrInvalidConfig, c.MaxBatchSize)
	}

	switch c.Overflow {
	case OverflowRaise, OverflowSkip:
	default:
		return c, fmt.Errorf("%w: unrecognized overflow policy %v", ErrInvalidConfig, c.Overflow)
	}

	if c.MaxBatchSize > 0 && c.MaxRecordSize == 0 {
		c.MaxRecordSize = c.MaxBatchSize
	}
	if c.sizeLimited() && c.SizeOf == nil {
		return c, fmt.Errorf("%w: SizeOf is required when MaxRecordSize or MaxBatchSize is set", ErrInvalidConfig)
	}
	return c, nil
}

// sizeLimited reports whether any size-based limit is active.
func (c Config[T]) sizeLimited() bool {
	return c.MaxRecordSize > 0 || c.MaxBatchSize > 0
}
