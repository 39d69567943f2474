// Package engine implements the per-cycle execution loop (spec §4.8
// "Execution engine & pause"): it drives the root Organization Block's
// operation list once per scan cycle, resets every block's Temp
// section, evaluates the stop condition, and wires the pause/breakpoint
// protocol into every operation's Run call via operation.Context.
//
// Grounded on the teacher's internal/debugger/vm_hook.go (the VM/
// debugger hook boundary that lets a running program be paused,
// inspected, and resumed from outside its own goroutine), generalized
// from a single step-debugger hook to the scan-cycle loop spec §4.8
// describes. Run identity uses github.com/google/uuid per the DOMAIN
// STACK wiring (SPEC_FULL §11) — every run gets a stable id for
// correlating persisted snapshots/history (internal/persistence) and
// monitor-stream events (internal/monitorstream) back to one another.
package engine

import (
	"time"

	"github.com/google/uuid"

	"plcsim/internal/broadcast"
	"plcsim/internal/builder"
	"plcsim/internal/decl"
	"plcsim/internal/ident"
	"plcsim/internal/operation"
	"plcsim/internal/pause"
	"plcsim/internal/perror"
	"plcsim/internal/registry"
	"plcsim/internal/section"
)

// StopCondition is the engine's outer-loop termination policy (spec
// §4.8 "Stop conditions").
type StopCondition int

const (
	Infinite StopCondition = iota
	UnitTestsPassed
)

// Engine drives one root OB's scan-cycle loop.
type Engine struct {
	Reg       *registry.Registry
	Broadcast *broadcast.Broadcast
	Pause     *pause.Channel
	Timers    *pause.TimerSet
	RunID     uuid.UUID

	rootName ident.ID
	body     []*operation.Operation
	iface    *section.Interface
	resetAll func()

	stopAfter   int64 // milliseconds of non-paused wall-clock time (spec §6 "stopAfter: milliseconds"); 0 = no deadline
	stopOn      StopCondition
	cycle       int64
	startedAt   time.Time
	pausedTotal time.Duration

	// OnCycle, if set, is called after every successfully completed
	// cycle with the now-current cycle count. A host wires this to
	// internal/persistence and/or internal/monitorstream to capture or
	// republish each cycle's broadcast state without either package
	// needing to know anything about the engine itself.
	OnCycle func(cycle int64)
}

// New builds an Engine bound to rootOBName (an Ob already solved by b),
// configured from the decoded simulation parameters (spec §6
// "Simulation parameters").
func New(reg *registry.Registry, bc *broadcast.Broadcast, b *builder.Builder, rootOBName string, params decl.Params) (*Engine, error) {
	name := reg.Interner.Intern(rootOBName)
	body, iface, err := b.RootBody(name)
	if err != nil {
		return nil, err
	}
	stopOn := Infinite
	if params.StopOn == 1 {
		stopOn = UnitTestsPassed
	}
	return &Engine{
		Reg:       reg,
		Broadcast: bc,
		Pause:     pause.New(),
		Timers:    pause.NewTimerSet(),
		RunID:     uuid.New(),
		rootName:  name,
		body:      body,
		iface:     iface,
		resetAll:  func() { b.ResetAllTemp(bc) },
		stopAfter: params.StopAfter,
		stopOn:    stopOn,
	}, nil
}

// Run drives the scan-cycle loop until a stop condition is reached, a
// fatal error occurs, or an external stop is requested (spec §4.8 "The
// outer loop repeats until stop, a fatal error, or an external stop
// request").
func (e *Engine) Run() error {
	e.startedAt = time.Now()
	e.Broadcast.SetStatus(broadcast.Running)
	for {
		if e.Pause.StopRequested() {
			e.Broadcast.SetStatus(broadcast.Stopped)
			return perror.New(perror.ManualStop, "manual stop requested")
		}
		if err := e.runCycle(); err != nil {
			e.Broadcast.SetStatus(broadcast.Stopped)
			e.Broadcast.RecordError(err)
			return err
		}
		e.cycle++
		if e.OnCycle != nil {
			e.OnCycle(e.cycle)
		}
		if e.stopAfter > 0 && e.elapsedRunning() >= time.Duration(e.stopAfter)*time.Millisecond {
			break
		}
		if e.stopOn == UnitTestsPassed && e.Broadcast.AllUnitTestsReached() {
			break
		}
	}
	e.Broadcast.SetStatus(broadcast.Stopped)
	return nil
}

// elapsedRunning is the wall-clock time spent actually running since Run
// started, excluding any time parked on a pause — mirroring how
// Timers.Shift keeps delayed-timer deadlines from counting paused time
// (spec §4.8's pause protocol shifts every live timer forward by however
// long the engine was parked; stopAfter gets the same treatment so
// pausing a run never brings its deadline closer).
func (e *Engine) elapsedRunning() time.Duration {
	return time.Since(e.startedAt) - e.pausedTotal
}

// runCycle executes the five-step cycle body (spec §4.8 steps 1-5): reset
// cycle stack, open the entry OB's section, run its body short-circuiting
// on early-return, reset every block's Temp section, append the
// end-of-cycle marker.
func (e *Engine) runCycle() error {
	e.Broadcast.ResetCycle()
	closeSection := e.Broadcast.OpenSection(e.Reg.Interner.MustResolve(e.rootName))
	defer closeSection()

	ctx := &operation.Context{Registry: e.Reg, Broadcast: e.Broadcast, Pause: e.handlePause}
	if _, err := operation.Sequence(e.body)(ctx); err != nil {
		return err
	}
	e.resetAll()
	e.Broadcast.EndOfCycle()
	return nil
}

// handlePause implements the pause protocol's engine side (spec §4.8
// "Pause protocol"): publish status, park on the shared wait primitive,
// shift every live timer forward by however long it was parked, and on
// a clean resume log the transition back to Running.
func (e *Engine) handlePause(opID uint64) error {
	e.Broadcast.SetStatus(broadcast.Paused)
	e.Pause.Pause()

	start := time.Now()
	err := e.Pause.Wait()
	paused := time.Since(start)
	e.Timers.Shift(paused)
	e.pausedTotal += paused
	if err != nil {
		return err
	}

	e.Broadcast.SetStatus(broadcast.Running)
	e.Broadcast.Log("Resumed")
	return nil
}

// Stop requests a manual stop, waking a parked pause immediately (spec
// §4.8 "any Stop command queued while paused results in Err(ManualStop)
// being returned from the pause call").
func (e *Engine) Stop() {
	e.Pause.RequestStop()
}

// CycleCount reports how many cycles have completed so far.
func (e *Engine) CycleCount() int64 {
	return e.cycle
}
