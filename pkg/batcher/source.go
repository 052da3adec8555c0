package batcher

import (
	"bufio"
	"bytes"
	"io"
	"iter"
)

// FromChan adapts a channel into a record sequence. The sequence is
// one-shot: it ends when the channel is closed, and a second pass yields
// nothing. Closing the channel stays the sender's responsibility.
func FromChan[T any](ch <-chan T) iter.Seq[T] {
	return func(yield func(T) bool) {
		for rec := range ch {
			if !yield(rec) {
				return
			}
		}
	}
}

// Lines yields the newline-delimited lines of r, each as an owned copy with
// the trailing newline (and a preceding carriage return) stripped. Lines
// have no length cap. A read error ends the sequence early; wrap the reader
// when that distinction matters.
func Lines(r io.Reader) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		br := bufio.NewReader(r)
		for {
			line, err := br.ReadBytes('\n')
			if len(line) > 0 {
				line = bytes.TrimSuffix(line, []byte("\n"))
				line = bytes.TrimSuffix(line, []byte("\r"))
				if !yield(line) {
					return
				}
			}
			if err != nil {
				return
			}
		}
	}
}
