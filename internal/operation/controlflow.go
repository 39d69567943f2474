package operation

import (
	"time"

	"plcsim/internal/perror"
	"plcsim/internal/types"
)

// evalBool runs a condition operation and reads its Bool result cell
// (spec §4.6 "evaluates the first truthy branch" / "loops while cond
// evaluates truthy"). Every condition node (cmp, a Bool local pointer,
// a Bool constant) resolves with a non-nil Result cell of family Bool.
func evalBool(ctx *Context, cond *Operation) (bool, error) {
	if _, err := cond.Run(ctx); err != nil {
		return false, err
	}
	if cond.Result == nil || cond.Result.Family() != types.Bool {
		return false, perror.New(perror.TypeMismatch, "condition does not resolve to a Bool")
	}
	v, _ := cond.Result.Get().(bool)
	return v, nil
}

// Branch is one arm of an If/ElseIf/Else chain: cond is nil for the
// trailing Else arm.
type Branch struct {
	Cond *Operation
	Body []*Operation
}

// If evaluates branches in order, running the first whose condition is
// truthy (or the else arm, cond == nil), spec §4.6 "If/ElseIf/Else
// evaluates the first truthy branch".
func If(id uint64, branches []Branch) *Operation {
	return &Operation{
		ID: id, Label: "if",
		run: func(ctx *Context) (Result, error) {
			for _, b := range branches {
				if b.Cond != nil {
					truthy, err := evalBool(ctx, b.Cond)
					if err != nil {
						return Result{}, err
					}
					if !truthy {
						continue
					}
				}
				return Sequence(b.Body)(ctx)
			}
			return Result{}, nil
		},
	}
}

// While loops while cond is truthy, guarded by the per-iteration
// watchdog (spec §4.6, §4.8 "guarded by a per-iteration watchdog that
// fails with WatchdogTimeout if elapsed wall-time exceeds 1000 ms").
func While(id uint64, cond *Operation, body []*Operation) *Operation {
	run := Sequence(body)
	return &Operation{
		ID: id, Label: "while",
		run: func(ctx *Context) (Result, error) {
			start := time.Now()
			for {
				truthy, err := evalBool(ctx, cond)
				if err != nil {
					return Result{}, err
				}
				if !truthy {
					return Result{}, nil
				}
				if watchdogExceeded(start) {
					return Result{}, perror.New(perror.WatchdogTimeout, "while loop exceeded 1000ms")
				}
				res, err := run(ctx)
				if err != nil {
					return Result{}, err
				}
				if res.EarlyReturn {
					return res, nil
				}
			}
		},
	}
}

// For initializes counter via a type-compatible assignment from start,
// then loops while counter is within [start, end] stepping by step each
// iteration (spec §4.6 "For(counter, start, end, step, body) initializes
// the counter cell via type-compatible assignment, loops with the same
// watchdog, and honors early-return from the body"). initCounter,
// advance, and withinRange are supplied by the builder, which already
// knows the counter's concrete family and can call dispatch directly.
func For(id uint64, initCounter func() error, withinRange func() (bool, error), advance func() error, body []*Operation) *Operation {
	run := Sequence(body)
	return &Operation{
		ID: id, Label: "for",
		run: func(ctx *Context) (Result, error) {
			if err := initCounter(); err != nil {
				return Result{}, err
			}
			start := time.Now()
			for {
				ok, err := withinRange()
				if err != nil {
					return Result{}, err
				}
				if !ok {
					return Result{}, nil
				}
				if watchdogExceeded(start) {
					return Result{}, perror.New(perror.WatchdogTimeout, "for loop exceeded 1000ms")
				}
				res, err := run(ctx)
				if err != nil {
					return Result{}, err
				}
				if res.EarlyReturn {
					return res, nil
				}
				if err := advance(); err != nil {
					return Result{}, err
				}
			}
		},
	}
}

// CaseArm is one arm of a Case: Match reports whether the scrutinee
// (already evaluated by the caller into scrutineeVal) selects this arm —
// a literal equality or an inclusive range, folded by the builder into
// this single predicate so Case itself stays shape-agnostic.
type CaseArm struct {
	Match func(scrutineeVal any) bool
	Body  []*Operation
}

// Case evaluates scrutinee then runs the first matching arm's body, or
// nothing if no arm matches (spec §4.6 "Case evaluates the scrutinee
// then selects the first matching literal/range arm").
func Case(id uint64, scrutinee *Operation, arms []CaseArm) *Operation {
	return &Operation{
		ID: id, Label: "case",
		run: func(ctx *Context) (Result, error) {
			if _, err := scrutinee.Run(ctx); err != nil {
				return Result{}, err
			}
			if scrutinee.Result == nil {
				return Result{}, perror.New(perror.TypeMismatch, "case scrutinee has no value")
			}
			val := scrutinee.Result.Get()
			for _, arm := range arms {
				if arm.Match(val) {
					return Sequence(arm.Body)(ctx)
				}
			}
			return Result{}, nil
		},
	}
}
