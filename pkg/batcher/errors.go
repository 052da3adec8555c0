package batcher

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned by New when the configured limits are
	// inconsistent. The returned error carries the concrete reason.
	ErrInvalidConfig = errors.New("invalid batcher configuration")

	// ErrRecordTooLarge matches any *RecordTooLargeError via errors.Is.
	ErrRecordTooLarge = errors.New("record exceeds max record size")

	// ErrExhausted signals the normal end of the batch sequence. It is not
	// a failure: every record has been delivered (or skipped) already.
	ErrExhausted = errors.New("record source exhausted")
)

// RecordTooLargeError reports a record whose measured size exceeds
// MaxRecordSize while the overflow policy is OverflowRaise. The offending
// record is kept for diagnostics; it is never part of any batch.
type RecordTooLargeError[T any] struct {
	Record T
	Size   int
	Limit  int
}

func (e *RecordTooLargeError[T]) Error() string {
	return fmt.Sprintf("record of size %d exceeds max record size %d", e.Size, e.Limit)
}

// Is reports ErrRecordTooLarge as a match so callers can test the error
// kind without knowing the record type.
func (e *RecordTooLargeError[T]) Is(target error) bool {
	return target == ErrRecordTooLarge
}
