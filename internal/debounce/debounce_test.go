package debounce

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// manualClock collects scheduled callbacks so tests decide when time passes.
type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

// elapse runs every timer that has not been stopped.
func (c *manualClock) elapse() {
	c.mu.Lock()
	timers := c.timers
	c.timers = nil
	c.mu.Unlock()
	for _, t := range timers {
		if !t.stopped {
			t.f()
		}
	}
}

func newTestScheduler(t *testing.T) (*Scheduler, *manualClock, *atomic.Int32) {
	t.Helper()
	clock := &manualClock{}
	var runs atomic.Int32
	s := New(300*time.Millisecond, func() { runs.Add(1) }, WithAfterFunc(clock.AfterFunc))
	return s, clock, &runs
}

func TestSchedule_CoalescesBurst(t *testing.T) {
	s, clock, runs := newTestScheduler(t)

	for i := 0; i < 5; i++ {
		s.Schedule()
	}
	if runs.Load() != 0 {
		t.Fatalf("runs before quiet window = %d, want 0", runs.Load())
	}
	if !s.Pending() {
		t.Fatal("expected a pending run")
	}

	clock.elapse()
	if runs.Load() != 1 {
		t.Errorf("runs = %d, want 1", runs.Load())
	}
	if s.Pending() {
		t.Error("nothing should be pending after the run")
	}
}

func TestSchedule_UsesConfiguredDelay(t *testing.T) {
	s, clock, _ := newTestScheduler(t)
	s.Schedule()
	if len(clock.timers) != 1 || clock.timers[0].d != 300*time.Millisecond {
		t.Fatalf("timers = %+v", clock.timers)
	}
}

func TestFire_BypassesAndCancelsPending(t *testing.T) {
	s, clock, runs := newTestScheduler(t)

	s.Schedule()
	s.Fire()
	if runs.Load() != 1 {
		t.Fatalf("runs after Fire = %d, want 1", runs.Load())
	}

	clock.elapse()
	if runs.Load() != 1 {
		t.Errorf("superseded run executed: runs = %d, want 1", runs.Load())
	}
}

func TestStaleCallbackIgnored(t *testing.T) {
	clock := &manualClock{}
	var runs atomic.Int32
	s := New(time.Second, func() { runs.Add(1) }, WithAfterFunc(clock.AfterFunc))

	s.Schedule()
	stale := clock.timers[0]
	s.Schedule()

	// A timer whose Stop lost the race still calls back.
	stale.f()
	if runs.Load() != 0 {
		t.Errorf("stale callback ran: runs = %d", runs.Load())
	}
}

func TestStop(t *testing.T) {
	s, clock, runs := newTestScheduler(t)
	s.Schedule()
	s.Stop()
	clock.elapse()
	s.Schedule()
	s.Fire()
	clock.elapse()
	if runs.Load() != 0 {
		t.Errorf("runs after Stop = %d, want 0", runs.Load())
	}
}

func TestSystemTimer(t *testing.T) {
	done := make(chan struct{}, 1)
	s := New(10*time.Millisecond, func() { done <- struct{}{} })
	s.Schedule()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for debounced run")
	}
}

func TestNew_DefaultDelay(t *testing.T) {
	s := New(0, func() {})
	if s.delay != DefaultDelay {
		t.Errorf("delay = %v, want %v", s.delay, DefaultDelay)
	}
}
