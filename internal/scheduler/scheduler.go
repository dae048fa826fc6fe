// Package scheduler implements the dual-trigger flush policy: a buffer is
// drained and shipped when it reaches capacity OR when its flush deadline
// elapses, whichever comes first.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/dhoenisch/flicker/internal/buffer"
	"github.com/dhoenisch/flicker/internal/filter"
	"github.com/dhoenisch/flicker/internal/sink"
	"github.com/dhoenisch/flicker/internal/tailer"
	"github.com/dhoenisch/flicker/pkg/models"
)

// State is the per-task lifecycle value exposed for observability.
type State string

const (
	StateOpening    State = "opening"
	StateTailing    State = "tailing"
	StateFlushing   State = "flushing"
	StateDraining   State = "draining"
	StateTerminated State = "terminated"
)

// Tailer is the subset of *tailer.Tailer the scheduler depends on, kept as
// an interface so tests can substitute a fake tail source.
type Tailer interface {
	Poll(ctx context.Context) ([]models.LineRecord, error)
	Wake() <-chan struct{}
	Close()
}

// FlushScheduler drives one file's tailer -> filter -> buffer -> sink
// pipeline. One instance per configured file; nothing is shared across
// instances.
type FlushScheduler struct {
	Path          string
	PollInterval  time.Duration
	FlushInterval time.Duration
	ShutdownGrace time.Duration

	tailer Tailer
	filter *filter.Filter
	buffer *buffer.Buffer
	sink   sink.Driver

	deadline *time.Timer
	state    State

	// LinesShipped and LastFlush are updated after every successful flush
	// and read by the status feed; both are only ever touched from the
	// scheduler's own goroutine, so no lock is needed.
	LinesShipped int
	LastFlush    time.Time
	LastError    error
}

// New builds a FlushScheduler for one file. capacity and flushInterval
// come from FileConfig; shutdownGrace bounds the final flush on shutdown.
func New(path string, pollInterval, flushInterval, shutdownGrace time.Duration, capacity int, f *filter.Filter, d sink.Driver) *FlushScheduler {
	return NewWithTailer(path, tailer.New(path), pollInterval, flushInterval, shutdownGrace, capacity, f, d)
}

// NewWithTailer builds a FlushScheduler against a caller-supplied Tailer,
// letting tests substitute a fake tail source.
func NewWithTailer(path string, t Tailer, pollInterval, flushInterval, shutdownGrace time.Duration, capacity int, f *filter.Filter, d sink.Driver) *FlushScheduler {
	return &FlushScheduler{
		Path:          path,
		PollInterval:  pollInterval,
		FlushInterval: flushInterval,
		ShutdownGrace: shutdownGrace,
		tailer:        t,
		filter:        f,
		buffer:        buffer.New(capacity),
		sink:          d,
		state:         StateOpening,
	}
}

// State reports the current lifecycle value.
func (s *FlushScheduler) State() State {
	return s.state
}

// Run drives the scheduler loop until ctx is cancelled. It always leaves
// the scheduler in StateTerminated before returning.
func (s *FlushScheduler) Run(ctx context.Context) {
	defer s.tailer.Close()

	pollTicker := time.NewTicker(s.PollInterval)
	defer pollTicker.Stop()

	s.deadline = time.NewTimer(s.FlushInterval)
	defer s.deadline.Stop()

	s.state = StateTailing
	for {
		select {
		case <-ctx.Done():
			s.drainAndTerminate()
			return

		case <-s.tailer.Wake():
			s.poll(ctx)

		case <-pollTicker.C:
			s.poll(ctx)

		case <-s.deadline.C:
			if s.buffer.Len() > 0 {
				s.flush(ctx, "time")
			}
			resetTimer(s.deadline, s.FlushInterval)
		}
	}
}

// poll pulls the next batch of lines from the tailer, runs them through
// the filter, appends kept lines to the buffer, and triggers a
// size-triggered flush if capacity has been reached.
func (s *FlushScheduler) poll(ctx context.Context) {
	records, err := s.tailer.Poll(ctx)
	if err != nil {
		s.LastError = err
		log.Printf("scheduler: path=%s poll error: %v", s.Path, err)
		return
	}
	for _, r := range records {
		if !s.filter.Keep(r.Line) {
			continue
		}
		if err := s.buffer.Append(r); err != nil {
			// Only happens while shutting down; the final drain picks up
			// whatever was appended before Close.
			return
		}
		if s.buffer.Len() >= s.buffer.Capacity() {
			s.flush(ctx, "size")
			// A size-triggered drain resets the deadline too, so a
			// high-volume file doesn't also take a spurious time-triggered
			// flush moments later on a buffer that just emptied.
			resetTimer(s.deadline, s.FlushInterval)
		}
	}
}

func (s *FlushScheduler) flush(ctx context.Context, trigger string) {
	batch := s.buffer.Drain()
	if len(batch) == 0 {
		return
	}
	s.state = StateFlushing
	if err := s.sink.Send(ctx, batch); err != nil {
		s.LastError = err
		log.Printf("scheduler: path=%s sink send failed (%s trigger, %d lines): %v", s.Path, trigger, len(batch), err)
	} else {
		s.LinesShipped += len(batch)
		s.LastFlush = time.Now()
	}
	s.state = StateTailing
}

// drainAndTerminate attempts one final flush with a bounded timeout, then
// marks the scheduler Terminated regardless of outcome.
func (s *FlushScheduler) drainAndTerminate() {
	s.state = StateDraining
	s.buffer.Close()

	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.ShutdownGrace)
		defer cancel()
		s.flush(ctx, "shutdown")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(s.ShutdownGrace):
		log.Printf("scheduler: path=%s shutdown flush exceeded grace period, dropping remaining batch", s.Path)
	}
	s.state = StateTerminated
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
