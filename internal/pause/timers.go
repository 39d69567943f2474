package pause

import (
	"sync"
	"time"
)

// Timer is a single live delayed-timer deadline (e.g. a TON/TOF/TP
// function-block's elapsed-time tracking), tracked by absolute deadline so a pause can shift it without
// needing to know anything about what the timer is counting toward.
type Timer struct {
	Deadline time.Time
}

// TimerSet is the registry of every timer live across a pause, so Shift
// can walk all of them in one call from the engine's resume path (spec
// §4.8/§9 "every live timer stores its absolute deadline, and on resume
// each is shifted by the pause duration").
type TimerSet struct {
	mu     sync.Mutex
	timers map[*Timer]struct{}
}

// NewTimerSet creates an empty registry.
func NewTimerSet() *TimerSet {
	return &TimerSet{timers: make(map[*Timer]struct{})}
}

// Register adds t to the set; the returned func removes it again, for
// the owning timer function block to call once it completes or resets.
func (ts *TimerSet) Register(t *Timer) (unregister func()) {
	ts.mu.Lock()
	ts.timers[t] = struct{}{}
	ts.mu.Unlock()
	return func() {
		ts.mu.Lock()
		delete(ts.timers, t)
		ts.mu.Unlock()
	}
}

// Shift pushes every registered timer's deadline forward by elapsed,
// called once per resume with the duration the engine was parked.
func (ts *TimerSet) Shift(elapsed time.Duration) {
	if elapsed <= 0 {
		return
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	for t := range ts.timers {
		t.Deadline = t.Deadline.Add(elapsed)
	}
}
