// Package broadcast implements the simulator's event collector (spec §3
// "Broadcast/channel"): the cycle-stack log, monitor events keyed by
// cell id, warnings, the breakpoint set, unit-test outcomes, and the
// current simulation status. It is the sole sink operations write
// through and the sole source the host reads from.
//
// Grounded on internal/debugger/debugger.go's breakpoint bookkeeping and
// internal/testing/framework.go's TestStats/TestResult shape.
package broadcast

import (
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"

	"plcsim/internal/perror"
)

// Status is the simulation state machine (spec §4.8).
type Status int

const (
	Stopped Status = iota
	Running
	Paused
)

func (s Status) String() string {
	switch s {
	case Running:
		return "Running"
	case Paused:
		return "Paused"
	default:
		return "Stopped"
	}
}

// MonitorEvent is one (cell id, formatted display) pair (spec §6
// "Monitor event").
type MonitorEvent struct {
	CellID  uint32
	Display string
}

// UnitTestState is the per-test lifecycle (spec §4.8 scenario 5,
// "Unreached").
type UnitTestState int

const (
	Unreached UnitTestState = iota
	Passed
	Failed
)

func (s UnitTestState) String() string {
	switch s {
	case Passed:
		return "Passed"
	case Failed:
		return "Failed"
	default:
		return "Unreached"
	}
}

// UnitTestOutcome records one unit-test operation's result for a cycle,
// generalizing the teacher's testing.TestResult.
type UnitTestOutcome struct {
	OpID    uint64
	Label   string
	State   UnitTestState
	Message string
}

// LogSection is one named scope in the cycle-stack log (spec §3
// "cycle-stack sections"): an OB header, an FB-instance call, a
// unit-block wrapper.
type LogSection struct {
	Name  string
	Lines []string
	Subs  []*LogSection
}

// Broadcast is the process-bound event collector. All engine state
// touches it from a single thread (spec §5); its exported methods are
// safe to call concurrently only because the host may read its state
// (Monitors, RenderLog, UnitTests, StatusNow) while the engine is
// parked on a pause.
type Broadcast struct {
	mu sync.Mutex

	colorize bool

	stack    []*LogSection
	root     []*LogSection
	monitors []MonitorEvent
	warnings []string
	breakpoints map[uint64]breakpointMode
	unitTests   map[uint64]*UnitTestOutcome
	status      Status
	errs        []perror.Payload
}

type breakpointMode int

const (
	BreakpointSticky breakpointMode = iota
	BreakpointOneShot
)

// New creates an empty broadcast. colorize controls whether log lines
// are wrapped in ANSI color codes (spec §6 "Log entries are colorized
// ANSI strings"); callers typically pass isatty.IsTerminal(fd) — see
// NewAuto.
func New(colorize bool) *Broadcast {
	return &Broadcast{
		colorize:    colorize,
		breakpoints: make(map[uint64]breakpointMode),
		unitTests:   make(map[uint64]*UnitTestOutcome),
		status:      Stopped,
	}
}

// ResetCycle clears per-cycle state (log stack, monitor events,
// warnings) at the start of each cycle (spec §3 "Lifecycles").
func (b *Broadcast) ResetCycle() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stack = nil
	b.root = nil
	b.monitors = nil
	b.warnings = nil
	b.errs = nil
}

// OpenSection pushes a named log scope (an OB header, instance call, or
// unit-block), returning a closer to pop it.
func (b *Broadcast) OpenSection(name string) func() {
	b.mu.Lock()
	sec := &LogSection{Name: name}
	if len(b.stack) == 0 {
		b.root = append(b.root, sec)
	} else {
		top := b.stack[len(b.stack)-1]
		top.Subs = append(top.Subs, sec)
	}
	b.stack = append(b.stack, sec)
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		if len(b.stack) > 0 {
			b.stack = b.stack[:len(b.stack)-1]
		}
		b.mu.Unlock()
	}
}

// Log appends a line to the currently open section, colorizing it if
// enabled.
func (b *Broadcast) Log(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.colorize {
		line = colorizeLog(line)
	}
	if len(b.stack) == 0 {
		sec := &LogSection{Name: ""}
		b.root = append(b.root, sec)
		b.stack = append(b.stack, sec)
	}
	top := b.stack[len(b.stack)-1]
	top.Lines = append(top.Lines, line)
}

// EndOfCycle appends the fixed end-of-cycle marker (spec §4.8 step 5).
func (b *Broadcast) EndOfCycle() {
	b.Log("--- End of Cycle ---")
}

// Publish implements types.MonitorSink (spec §6 "Monitor event").
func (b *Broadcast) Publish(cellID uint32, display string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.monitors = append(b.monitors, MonitorEvent{CellID: cellID, Display: display})
}

// Monitors returns the monitor events observed this cycle, in emission
// order.
func (b *Broadcast) Monitors() []MonitorEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]MonitorEvent, len(b.monitors))
	copy(out, b.monitors)
	return out
}

// Warn records a non-fatal warning.
func (b *Broadcast) Warn(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.warnings = append(b.warnings, msg)
}

// Warnings returns the warnings observed this cycle.
func (b *Broadcast) Warnings() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.warnings))
	copy(out, b.warnings)
	return out
}

// RecordError appends a structured error payload (spec §7 "the
// structured error is emitted through the broadcast").
func (b *Broadcast) RecordError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errs = append(b.errs, perror.ToPayload(err))
}

// Errors returns every error payload recorded this cycle.
func (b *Broadcast) Errors() []perror.Payload {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]perror.Payload, len(b.errs))
	copy(out, b.errs)
	return out
}

// SetBreakpoint arms a breakpoint on an operation id; sticky breakpoints
// stay armed across cycles, one-shot ones disarm after the next hit
// (spec §4.8 "Breakpoints").
func (b *Broadcast) SetBreakpoint(opID uint64, sticky bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	mode := BreakpointOneShot
	if sticky {
		mode = BreakpointSticky
	}
	b.breakpoints[opID] = mode
}

// ClearBreakpoint disarms a breakpoint.
func (b *Broadcast) ClearBreakpoint(opID uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.breakpoints, opID)
}

// ShouldBreak reports whether opID is currently armed, disarming it
// first if it was one-shot.
func (b *Broadcast) ShouldBreak(opID uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	mode, armed := b.breakpoints[opID]
	if !armed {
		return false
	}
	if mode == BreakpointOneShot {
		delete(b.breakpoints, opID)
	}
	return true
}

// SetStatus updates the simulation status (spec §4.8 state machine).
func (b *Broadcast) SetStatus(s Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = s
}

// StatusNow returns the current simulation status.
func (b *Broadcast) StatusNow() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// RegisterUnitTest seeds a unit test as Unreached, so that the
// UnitTestsPassed stop condition can see tests that have not yet run
// this cycle (spec §4.8 "stops when no unit test remains in state
// Unreached").
func (b *Broadcast) RegisterUnitTest(opID uint64, label string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.unitTests[opID]; !ok {
		b.unitTests[opID] = &UnitTestOutcome{OpID: opID, Label: label, State: Unreached}
	}
}

// RecordUnitTest sets a unit test's outcome for this run.
func (b *Broadcast) RecordUnitTest(opID uint64, passed bool, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.unitTests[opID]
	if !ok {
		o = &UnitTestOutcome{OpID: opID}
		b.unitTests[opID] = o
	}
	if passed {
		o.State = Passed
	} else {
		o.State = Failed
	}
	o.Message = message
}

// UnitTestReport summarizes every registered unit test, grounded on the
// teacher's TestStats.
type UnitTestReport struct {
	Total, Passed, Failed, Unreached int
	Outcomes                         []UnitTestOutcome
}

// UnitTests returns a snapshot report of every registered unit test.
func (b *Broadcast) UnitTests() UnitTestReport {
	b.mu.Lock()
	defer b.mu.Unlock()
	r := UnitTestReport{}
	for _, o := range b.unitTests {
		r.Total++
		switch o.State {
		case Passed:
			r.Passed++
		case Failed:
			r.Failed++
		default:
			r.Unreached++
		}
		r.Outcomes = append(r.Outcomes, *o)
	}
	return r
}

// AllUnitTestsReached reports whether at least one unit test is
// registered and none remains Unreached (spec §4.8 stop condition
// UnitTestsPassed); with no registered tests it returns false.
func (b *Broadcast) AllUnitTestsReached() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, o := range b.unitTests {
		if o.State == Unreached {
			return false
		}
	}
	return len(b.unitTests) > 0
}

// RenderLog flattens the cycle's log-section tree into plain lines,
// indented by nesting depth.
func (b *Broadcast) RenderLog() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	var walk func(sec *LogSection, depth int)
	walk = func(sec *LogSection, depth int) {
		indent := ""
		for i := 0; i < depth; i++ {
			indent += "  "
		}
		if sec.Name != "" {
			out = append(out, fmt.Sprintf("%s[%s]", indent, sec.Name))
		}
		for _, line := range sec.Lines {
			out = append(out, indent+"  "+line)
		}
		for _, sub := range sec.Subs {
			walk(sub, depth+1)
		}
	}
	for _, sec := range b.root {
		walk(sec, 0)
	}
	return out
}

// CycleHeader renders a humanized cycle-count header line, e.g.
// "=== Cycle 1,234 ===" — grounded on the DOMAIN STACK's go-humanize
// wiring (SPEC_FULL §11).
func CycleHeader(cycle int64) string {
	return fmt.Sprintf("=== Cycle %s ===", humanize.Comma(cycle))
}
