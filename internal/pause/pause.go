// Package pause implements the cooperative pause/resume protocol between
// the engine thread and the host controller (spec §4.8 "Pause protocol",
// §9 "Coroutine-like pause"): a shared atomic cell the host writes and
// the engine parks on, plus the delayed-timer deadline bookkeeping a
// pause must shift forward on resume.
//
// Grounded on the teacher's internal/concurrency/concurrency.go, which
// reaches for sync/atomic counters plus a context/channel pair for every
// cross-goroutine coordination point; this package is the same shape
// scaled down to the single cross-thread object spec §4.8 calls out
// ("the pause wait primitive is the sole cross-thread object"). Stdlib
// only (sync/atomic + sync.Cond), per spec §9's explicit prescription —
// no example in the pack reaches for a richer primitive for a single
// int32 park/wake flag.
package pause

import (
	"sync"
	"sync/atomic"
	"time"

	"plcsim/internal/perror"
)

const (
	stateRun int32 = iota
	statePaused
)

// Channel is the shared pause primitive (spec §4.8 "a 32-bit atomic cell
// whose value 1 = paused, 0 = run. Writers: host. Readers: engine").
type Channel struct {
	state int32
	stop  int32

	mu   sync.Mutex
	cond *sync.Cond

	pausedAt time.Time
}

// New creates a Channel in the running state.
func New() *Channel {
	c := &Channel{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Pause requests the engine park at its next suspension point (spec
// §4.8 "parks the calling thread on a shared wait primitive").
func (c *Channel) Pause() {
	c.mu.Lock()
	atomic.StoreInt32(&c.state, statePaused)
	c.pausedAt = time.Now()
	c.mu.Unlock()
}

// Resume releases a parked engine, returning the duration it was
// parked so the caller can shift every live timer's deadline forward by
// it (spec §4.8 "records Instant::now so that each currently-running
// delayed timer is shifted forward by the pause duration when it
// resumes").
func (c *Channel) Resume() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	var elapsed time.Duration
	if atomic.LoadInt32(&c.state) == statePaused {
		elapsed = time.Since(c.pausedAt)
	}
	atomic.StoreInt32(&c.state, stateRun)
	c.cond.Broadcast()
	return elapsed
}

// RequestStop flags a pending manual stop and wakes any parked engine so
// it can observe it immediately (spec §4.8 "any Stop command queued
// while paused results in Err(ManualStop) being returned from the pause
// call").
func (c *Channel) RequestStop() {
	c.mu.Lock()
	atomic.StoreInt32(&c.stop, 1)
	c.cond.Broadcast()
	c.mu.Unlock()
}

// StopRequested reports whether a manual stop is pending, checked by
// the engine "at every pause and between cycles" (spec §4.8
// "Cancellation").
func (c *Channel) StopRequested() bool {
	return atomic.LoadInt32(&c.stop) == 1
}

// IsPaused reports the current pause state without blocking.
func (c *Channel) IsPaused() bool {
	return atomic.LoadInt32(&c.state) == statePaused
}

// Wait parks the calling (engine) goroutine while the channel is paused,
// returning perror.ManualStop if a stop was requested either before or
// while parked (spec §4.8's pause-call contract). A non-paused, non-stop
// channel returns immediately.
func (c *Channel) Wait() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for atomic.LoadInt32(&c.state) == statePaused && atomic.LoadInt32(&c.stop) == 0 {
		c.cond.Wait()
	}
	if atomic.LoadInt32(&c.stop) == 1 {
		return perror.New(perror.ManualStop, "manual stop requested during pause")
	}
	return nil
}
