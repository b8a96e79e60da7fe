// Package debounce coalesces bursts of triggers into a single execution.
package debounce

import (
	"sync"
	"time"
)

// DefaultDelay is the quiet window used when none is configured.
const DefaultDelay = 300 * time.Millisecond

// Timer is a pending execution that can be cancelled.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run after d.
type AfterFunc func(d time.Duration, f func()) Timer

// SystemAfterFunc schedules f on the runtime timer.
func SystemAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithAfterFunc replaces the timer primitive.
func WithAfterFunc(af AfterFunc) Option {
	return func(s *Scheduler) {
		s.after = af
	}
}

// Scheduler runs fn after a quiet window has elapsed since the last call to
// Schedule. Each Schedule supersedes the previous pending run. Fire runs fn
// immediately and cancels whatever was pending.
type Scheduler struct {
	delay time.Duration
	fn    func()
	after AfterFunc

	mu      sync.Mutex
	pending Timer
	gen     uint64
	stopped bool
}

// New returns a Scheduler that calls fn. A non-positive delay means
// DefaultDelay.
func New(delay time.Duration, fn func(), opts ...Option) *Scheduler {
	if delay <= 0 {
		delay = DefaultDelay
	}
	s := &Scheduler{
		delay: delay,
		fn:    fn,
		after: SystemAfterFunc,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule arms the quiet window, replacing any pending run.
func (s *Scheduler) Schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.cancelLocked()
	gen := s.gen
	s.pending = s.after(s.delay, func() { s.expire(gen) })
}

// Fire cancels any pending run and calls fn synchronously.
func (s *Scheduler) Fire() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.cancelLocked()
	s.mu.Unlock()
	s.fn()
}

// Pending reports whether a run is waiting for its quiet window.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Stop cancels any pending run. Later calls to Schedule and Fire do nothing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.stopped = true
}

// cancelLocked stops the pending timer and invalidates its callback, which
// may already be running when Stop loses the race.
func (s *Scheduler) cancelLocked() {
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	s.gen++
}

func (s *Scheduler) expire(gen uint64) {
	s.mu.Lock()
	if s.stopped || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.pending = nil
	s.gen++
	s.mu.Unlock()
	s.fn()
}
