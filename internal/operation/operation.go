// Package operation implements the resolved operation tree (spec §4.6
// "Operation tree"): the closure bundle a JsonTarget resolves to, every
// control-flow node, call synthesis for Fb/Fc instances, and the
// intrinsics layered on top of internal/dispatch's kernels.
//
// Grounded on the teacher's "operations are executed, not interpreted
// from a tag" style in internal/vm/vm.go's instruction dispatch, turned
// into Go-native closures per spec §9 "Closures as operations" — Go has
// first-class function values, so there is no tagged-struct fallback to
// build here, just a func field on every node.
package operation

import (
	"time"

	"plcsim/internal/broadcast"
	"plcsim/internal/perror"
	"plcsim/internal/registry"
	"plcsim/internal/types"
)

// Context is the shared execution environment threaded through every
// Operation's Run call: the registry (for nested lookups a call might
// still need at runtime), the broadcast sink (log/monitor/breakpoints),
// and the pause hook the engine installs (spec §4.8 "Pause protocol").
type Context struct {
	Registry  *registry.Registry
	Broadcast *broadcast.Broadcast

	// Pause is invoked before any operation whose id is armed as a
	// breakpoint, and by the #pause intrinsic. nil means pausing is a
	// no-op (used by unit tests that exercise operations in isolation).
	Pause func(opID uint64) error
}

// checkBreak consults the broadcast's breakpoint set and, if armed,
// calls ctx.Pause before letting the operation proceed (spec §4.8
// "Before executing an operation whose id is in the set, the engine
// invokes pause with that id").
func (ctx *Context) checkBreak(opID uint64) error {
	if ctx.Broadcast == nil || !ctx.Broadcast.ShouldBreak(opID) {
		return nil
	}
	if ctx.Pause == nil {
		return nil
	}
	return ctx.Pause(opID)
}

// Result is what running an Operation produces: whether an enclosing
// loop/block must stop due to Return (spec §4.6 "Return sets the
// operation's early-return flag; enclosing block loops must break
// out"). An operation's own output value is not carried here; it is
// the cell in Operation.Result.
type Result struct {
	EarlyReturn bool
}

// Operation is one resolved node of the tree (spec §4.6's
// RuntimeOperation). Label is a human-readable name used only for log
// sections and error traces — never for dispatch.
type Operation struct {
	ID     uint64
	Label  string
	Result *types.Cell // non-nil when this node yields a readable value
	run    func(ctx *Context) (Result, error)
}

// Run executes the operation, honoring its breakpoint if one is armed.
func (op *Operation) Run(ctx *Context) (Result, error) {
	if err := ctx.checkBreak(op.ID); err != nil {
		return Result{}, err
	}
	res, err := op.run(ctx)
	if err != nil {
		return res, perror.Decorate(err, op.ID, op.Label)
	}
	return res, nil
}

// New wraps a plain closure as a leaf Operation.
func New(id uint64, label string, result *types.Cell, fn func(ctx *Context) error) *Operation {
	return &Operation{
		ID: id, Label: label, Result: result,
		run: func(ctx *Context) (Result, error) {
			return Result{}, fn(ctx)
		},
	}
}

// Sequence runs ops in order, short-circuiting on the first early
// return or error (spec §5 "body operations execute strictly in source
// order").
func Sequence(ops []*Operation) func(ctx *Context) (Result, error) {
	return func(ctx *Context) (Result, error) {
		for _, op := range ops {
			res, err := op.Run(ctx)
			if err != nil {
				return res, err
			}
			if res.EarlyReturn {
				return res, nil
			}
		}
		return Result{}, nil
	}
}

// UnitBlock wraps a sequence, opening a named log section around its
// execution and propagating early-return (spec §4.6 "Unit-block wraps a
// sequence, opens a log section in the cycle stack around execution").
func UnitBlock(id uint64, label string, body []*Operation) *Operation {
	run := Sequence(body)
	return &Operation{
		ID: id, Label: label,
		run: func(ctx *Context) (Result, error) {
			var closeSection func()
			if ctx.Broadcast != nil {
				closeSection = ctx.Broadcast.OpenSection(label)
				defer closeSection()
			}
			return run(ctx)
		},
	}
}

// Return builds the operation that sets the early-return flag (spec
// §4.6 "Return sets the operation's early-return flag").
func Return(id uint64) *Operation {
	return &Operation{
		ID: id, Label: "return",
		run: func(ctx *Context) (Result, error) {
			return Result{EarlyReturn: true}, nil
		},
	}
}

// watchdogDeadline is the bounded-loop wall-clock ceiling (spec §4.6,
// §4.8 "bounded loops abort via Stop(WatchdogTimeout) if wall-clock time
// since loop entry exceeds 1000 ms").
const watchdogDeadline = 1000 * time.Millisecond

func watchdogExceeded(start time.Time) bool {
	return time.Since(start) > watchdogDeadline
}
