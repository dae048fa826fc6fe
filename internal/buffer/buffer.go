// Package buffer holds a bounded, single-owner per-file line accumulator.
// It does no I/O and needs no locking: exactly one FlushScheduler goroutine
// touches a given Buffer.
package buffer

import (
	"errors"

	"github.com/dhoenisch/flicker/pkg/models"
)

// ErrClosed is returned by Append once the owning task has begun shutdown.
var ErrClosed = errors.New("buffer: closed for append")

// Buffer accumulates LineRecords for one file until drained.
type Buffer struct {
	capacity int
	lines    []models.LineRecord
	closed   bool
}

// New returns an empty Buffer with room for capacity records before a
// size-triggered flush is required.
func New(capacity int) *Buffer {
	return &Buffer{
		capacity: capacity,
		lines:    make([]models.LineRecord, 0, capacity),
	}
}

// Append adds record to the buffer. It only fails once Close has been
// called, i.e. while the owning task is shutting down.
func (b *Buffer) Append(record models.LineRecord) error {
	if b.closed {
		return ErrClosed
	}
	b.lines = append(b.lines, record)
	return nil
}

// Len reports the current number of buffered records.
func (b *Buffer) Len() int {
	return len(b.lines)
}

// Capacity returns the size-trigger threshold.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// Drain removes and returns every currently buffered record in insertion
// order, leaving the buffer empty.
func (b *Buffer) Drain() []models.LineRecord {
	if len(b.lines) == 0 {
		return nil
	}
	drained := b.lines
	b.lines = make([]models.LineRecord, 0, b.capacity)
	return drained
}

// Close marks the buffer closed; subsequent Append calls fail. Drain still
// works so a final flush can collect whatever remains.
func (b *Buffer) Close() {
	b.closed = true
}
