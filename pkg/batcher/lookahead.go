package batcher

import "iter"

// Lookahead wraps a pull-based record sequence and keeps the most recently
// produced record available as a side channel. The splitting logic decides
// about record N only after pulling it; when the decision is "close the
// batch before N", Previous gives access to N without a full peekable
// abstraction over the source.
//
// Single-consumer; not safe for concurrent pulls. Exhaustion is sticky.
type Lookahead[T any] struct {
	next func() (T, bool)
	stop func()

	prev T
	has  bool
	done bool
}

// NewLookahead starts pulling from seq. The caller must release the
// underlying iterator with Stop when abandoning the sequence early.
func NewLookahead[T any](seq iter.Seq[T]) *Lookahead[T] {
	next, stop := iter.Pull(seq)
	return &Lookahead[T]{next: next, stop: stop}
}

// Next pulls the next record and records it as the previous value. Once the
// source is exhausted it keeps reporting false.
func (l *Lookahead[T]) Next() (T, bool) {
	var zero T
	if l.done {
		return zero, false
	}
	rec, ok := l.next()
	if !ok {
		l.done = true
		l.stop()
		return zero, false
	}
	l.prev = rec
	l.has = true
	return rec, true
}

// Previous returns the record produced by the most recent successful Next.
// It reports false before the first pull; exhaustion does not clear it.
func (l *Lookahead[T]) Previous() (T, bool) {
	return l.prev, l.has
}

// Stop releases the underlying pull iterator. Safe to call multiple times.
func (l *Lookahead[T]) Stop() {
	l.stop()
}
