package operation

import (
	"fmt"

	"plcsim/internal/dispatch"
	"plcsim/internal/pointer"
	"plcsim/internal/registry"
	"plcsim/internal/types"
)

// sinkFor adapts a Context's broadcast to types.MonitorSink, tolerating
// a nil broadcast (operations exercised outside a full engine, e.g.
// package tests).
func sinkFor(ctx *Context) types.MonitorSink {
	if ctx.Broadcast == nil {
		return nil
	}
	return ctx.Broadcast
}

// Assign builds the `set` leaf operation: `to := assign` in the body
// JSON's own field names (spec §4.7, resolved against
// original_source/.../basics/assign.rs — see DESIGN.md). dst/src may be
// any pointer.Pointer, primitive or complex; structural recursion is
// dispatch.Set's job.
func Assign(id uint64, reg *registry.Registry, dst, src pointer.Pointer) *Operation {
	return New(id, "set", nil, func(ctx *Context) error {
		return dispatch.Set(reg, dst, src, sinkFor(ctx))
	})
}

// Calc builds an in-place accumulate leaf: `dst := dst OP with` (spec
// §4.7, resolved against .../basics/calc.rs). Its Result is dst itself,
// so a calc node may also feed directly into an enclosing cmp/if as an
// operand pointer.
func Calc(id uint64, reg *registry.Registry, dst, with *types.Cell, op dispatch.ArithOp) *Operation {
	o := New(id, "calc:"+string(op), dst, func(ctx *Context) error {
		return dispatch.Calc(reg, dst, with, op, sinkFor(ctx))
	})
	return o
}

// Shift builds a shl/shr/rotate-left/rotate-right/swap-bytes leaf.
// amount is nil for SwapBytes. Every call site always carries a trace
// via the operation id/label regardless of which Rust shift operator
// happened to track one (DESIGN.md's Open Question resolution).
func Shift(id uint64, reg *registry.Registry, dst, amount *types.Cell, op dispatch.ShiftOp) *Operation {
	return New(id, "shift:"+string(op), dst, func(ctx *Context) error {
		return dispatch.Shift(reg, dst, amount, op)
	})
}

// Compare builds a `cmp` leaf. Its Result is a scratch Bool cell owned
// by the operation itself (not part of any section interface) that an
// enclosing If/While/Case condition reads via evalBool.
func Compare(id uint64, reg *registry.Registry, lhs, rhs *types.Cell, op dispatch.CmpOp) *Operation {
	result, err := types.NewCell(types.Bool, false, false, 0)
	if err != nil {
		panic(err) // Bool/false always constructs; only a programmer error could fail here
	}
	return New(id, "cmp:"+string(op), result, func(ctx *Context) error {
		v, err := dispatch.Compare(reg, lhs, rhs, op)
		if err != nil {
			return err
		}
		return result.Set(v, sinkFor(ctx))
	})
}

// Math builds a unary math leaf (spec §4.7's math unaries), mutating
// dst in place; Result is dst.
func Math(id uint64, dst *types.Cell, op dispatch.MathOp) *Operation {
	return New(id, "math:"+string(op), dst, func(ctx *Context) error {
		return dispatch.Math(dst, op, sinkFor(ctx))
	})
}

// Const builds the trivial leaf for a JsonTarget constant or a resolved
// local pointer reference: it performs no mutation, just exposes target
// as its Result so an enclosing node can read it (spec §4.6 "a local
// pointer (by path)").
func Const(id uint64, target *types.Cell) *Operation {
	return New(id, "const", target, func(ctx *Context) error { return nil })
}

// Reset builds the `#reset` intrinsic: restores target (and, for a
// complex value, every nested cell) to its default (spec §4.2 "Reset
// semantics", SPEC_FULL §12.4).
func Reset(id uint64, target pointer.Pointer) *Operation {
	return New(id, "#reset", nil, func(ctx *Context) error {
		target.ResetValue(sinkFor(ctx))
		return nil
	})
}

// Pause builds the explicit `#pause` intrinsic (spec §4.8 "when a pause
// intrinsic fires (either explicit instruction or hit breakpoint)").
func Pause(id uint64) *Operation {
	return New(id, "#pause", nil, func(ctx *Context) error {
		if ctx.Pause == nil {
			return nil
		}
		return ctx.Pause(id)
	})
}

// RTrig builds the `#r_trig` rising-edge intrinsic (SPEC_FULL §12.3):
// q := clk AND NOT prev; prev := clk. prev is the declared Bool cell
// the builder resolves from the operation's `prev` target.
func RTrig(id uint64, clk, q, prev *types.Cell) *Operation {
	return New(id, "#r_trig", q, func(ctx *Context) error {
		cur, _ := clk.Get().(bool)
		old, _ := prev.Get().(bool)
		sink := sinkFor(ctx)
		if err := q.Set(cur && !old, sink); err != nil {
			return err
		}
		return prev.Set(cur, sink)
	})
}

// FTrig builds the `#f_trig` falling-edge intrinsic (SPEC_FULL §12.3):
// q := NOT clk AND prev; prev := clk.
func FTrig(id uint64, clk, q, prev *types.Cell) *Operation {
	return New(id, "#f_trig", q, func(ctx *Context) error {
		cur, _ := clk.Get().(bool)
		old, _ := prev.Get().(bool)
		sink := sinkFor(ctx)
		if err := q.Set(!cur && old, sink); err != nil {
			return err
		}
		return prev.Set(cur, sink)
	})
}

// UnitTest builds a unit-test assertion node: evaluates cond, records
// the outcome on the broadcast, and never itself fails the enclosing
// sequence — a failed assertion is a recorded outcome, not a propagated
// error (spec §4.8's UnitTestsPassed stop condition needs every test to
// reach a terminal state, pass or fail, to progress).
func UnitTest(id uint64, label string, cond *Operation) *Operation {
	return New(id, "test:"+label, nil, func(ctx *Context) error {
		truthy, err := evalBool(ctx, cond)
		if err != nil {
			if ctx.Broadcast != nil {
				ctx.Broadcast.RecordUnitTest(id, false, err.Error())
			}
			return nil
		}
		detail := ""
		if !truthy {
			detail = fmt.Sprintf("assertion %q failed", label)
		}
		if ctx.Broadcast != nil {
			ctx.Broadcast.RecordUnitTest(id, truthy, detail)
		}
		return nil
	})
}

