package builder

import (
	"encoding/json"
	"sort"

	"plcsim/internal/dispatch"
	"plcsim/internal/ident"
	"plcsim/internal/operation"
	"plcsim/internal/perror"
	"plcsim/internal/registry"
	"plcsim/internal/section"
	"plcsim/internal/types"
)

// bodyTranslator turns one block's decoded body ([]json.RawMessage, the
// raw `body` array of an Ob/Fb/Fc, spec §6) into its operation.Operation
// tree (spec §4.6), resolving every JsonTarget against iface (the
// block's own interface) or, failing that, the registry's global nested
// lookup.
type bodyTranslator struct {
	builder   *Builder
	iface     *section.Interface
	blockName ident.ID
}

type opEnvelope struct {
	Ty string `json:"ty"`
	ID uint64 `json:"id"`
}

func parseEnvelope(raw json.RawMessage) (opEnvelope, error) {
	var env opEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, perror.Wrap(perror.ParseError, err, "decoding body operation")
	}
	return env, nil
}

// translateBody translates every element of raw in order, in its own
// slice (spec §5 "body operations execute strictly in source order").
func (tb *bodyTranslator) translateBody(raw []json.RawMessage) ([]*operation.Operation, error) {
	out := make([]*operation.Operation, 0, len(raw))
	for _, r := range raw {
		op, err := tb.translateOp(r)
		if err != nil {
			return nil, err
		}
		out = append(out, op)
	}
	return out, nil
}

// translateCond resolves a condition position (an If branch's cond, a
// While's cond, a unit test's assertion): a cmp node, a bare
// Bool local/const reference, or any other operand whose Result happens
// to be a Bool cell.
func (tb *bodyTranslator) translateCond(raw json.RawMessage) (*operation.Operation, error) {
	env, err := parseEnvelope(raw)
	if err != nil {
		return nil, err
	}
	switch env.Ty {
	case "cmp":
		var s cmpSpec
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, perror.Wrap(perror.ParseError, err, "decoding cmp")
		}
		lhs, err := tb.resolveCell(s.Lhs)
		if err != nil {
			return nil, err
		}
		rhs, err := tb.resolveCell(s.Rhs)
		if err != nil {
			return nil, err
		}
		return operation.Compare(s.ID, tb.builder.Reg, lhs, rhs, dispatch.CmpOp(s.Operator)), nil
	case "const", "local":
		cell, err := tb.resolveCell(raw)
		if err != nil {
			return nil, err
		}
		if cell.Family() != types.Bool {
			return nil, perror.New(perror.TypeMismatch, "condition does not resolve to Bool")
		}
		return operation.Const(env.ID, cell), nil
	}
	op, err := tb.translateOp(raw)
	if err != nil {
		return nil, err
	}
	if op.Result == nil || op.Result.Family() != types.Bool {
		return nil, perror.New(perror.TypeMismatch, "condition operand does not resolve to Bool")
	}
	return op, nil
}

type cmpSpec struct {
	ID       uint64          `json:"id"`
	Lhs      json.RawMessage `json:"lhs"`
	Rhs      json.RawMessage `json:"rhs"`
	Operator string          `json:"operator"`
}

type setSpec struct {
	ID     uint64          `json:"id"`
	Assign json.RawMessage `json:"assign"`
	To     json.RawMessage `json:"to"`
}

type calcSpec struct {
	ID       uint64          `json:"id"`
	Calc     json.RawMessage `json:"calc"`
	With     json.RawMessage `json:"with"`
	Operator string          `json:"operator"`
}

type shiftSpec struct {
	ID       uint64          `json:"id"`
	Dst      json.RawMessage `json:"dst"`
	Amount   json.RawMessage `json:"amount,omitempty"`
	Operator string          `json:"operator"`
}

type mathSpec struct {
	ID       uint64          `json:"id"`
	Dst      json.RawMessage `json:"dst"`
	Operator string          `json:"operator"`
}

type ifBranchSpec struct {
	Cond json.RawMessage   `json:"cond,omitempty"`
	Body []json.RawMessage `json:"body"`
}

type ifSpec struct {
	ID       uint64         `json:"id"`
	Branches []ifBranchSpec `json:"branches"`
}

type whileSpec struct {
	ID   uint64            `json:"id"`
	Cond json.RawMessage   `json:"cond"`
	Body []json.RawMessage `json:"body"`
}

type forSpec struct {
	ID      uint64            `json:"id"`
	Counter json.RawMessage   `json:"counter"`
	Start   json.RawMessage   `json:"start"`
	End     json.RawMessage   `json:"end"`
	Step    json.RawMessage   `json:"step,omitempty"`
	Body    []json.RawMessage `json:"body"`
}

type caseArmSpec struct {
	Match []int64           `json:"match"`
	Body  []json.RawMessage `json:"body"`
}

type caseSpec struct {
	ID        uint64            `json:"id"`
	Scrutinee json.RawMessage   `json:"scrutinee"`
	Arms      []caseArmSpec     `json:"arms"`
	Default   []json.RawMessage `json:"default,omitempty"`
}

type callSpec struct {
	ID       uint64                     `json:"id"`
	Instance []string                   `json:"instance"`
	Inputs   map[string]json.RawMessage `json:"inputs"`
	Outputs  map[string]json.RawMessage `json:"outputs"`
}

type resetSpec struct {
	ID     uint64          `json:"id"`
	Target json.RawMessage `json:"target"`
}

type trigSpec struct {
	ID   uint64          `json:"id"`
	Clk  json.RawMessage `json:"clk"`
	Q    json.RawMessage `json:"q"`
	Prev json.RawMessage `json:"prev"`
}

type unitTestSpec struct {
	ID    uint64          `json:"id"`
	Label string          `json:"label"`
	Cond  json.RawMessage `json:"cond"`
}

type unitBlockSpec struct {
	ID    uint64            `json:"id"`
	Label string            `json:"label"`
	Body  []json.RawMessage `json:"body"`
}

type templateSpec struct {
	ID uint64 `json:"id"`
	Of string `json:"of"`
}

// translateOp translates a single body operation tag to its runtime
// Operation (spec §4.6).
func (tb *bodyTranslator) translateOp(raw json.RawMessage) (*operation.Operation, error) {
	env, err := parseEnvelope(raw)
	if err != nil {
		return nil, err
	}
	reg := tb.builder.Reg

	switch env.Ty {
	case "set":
		var s setSpec
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, perror.Wrap(perror.ParseError, err, "decoding set")
		}
		dst, err := tb.resolvePointer(s.To)
		if err != nil {
			return nil, err
		}
		src, err := tb.resolvePointer(s.Assign)
		if err != nil {
			return nil, err
		}
		return operation.Assign(s.ID, reg, dst, src), nil

	case "calc":
		var s calcSpec
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, perror.Wrap(perror.ParseError, err, "decoding calc")
		}
		dst, err := tb.resolveCell(s.Calc)
		if err != nil {
			return nil, err
		}
		with, err := tb.resolveCell(s.With)
		if err != nil {
			return nil, err
		}
		return operation.Calc(s.ID, reg, dst, with, dispatch.ArithOp(s.Operator)), nil

	case "shift":
		var s shiftSpec
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, perror.Wrap(perror.ParseError, err, "decoding shift")
		}
		dst, err := tb.resolveCell(s.Dst)
		if err != nil {
			return nil, err
		}
		var amount *types.Cell
		if len(s.Amount) > 0 && string(s.Amount) != "null" {
			amount, err = tb.resolveCell(s.Amount)
			if err != nil {
				return nil, err
			}
		}
		return operation.Shift(s.ID, reg, dst, amount, dispatch.ShiftOp(s.Operator)), nil

	case "math":
		var s mathSpec
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, perror.Wrap(perror.ParseError, err, "decoding math")
		}
		dst, err := tb.resolveCell(s.Dst)
		if err != nil {
			return nil, err
		}
		return operation.Math(s.ID, dst, dispatch.MathOp(s.Operator)), nil

	case "cmp":
		return tb.translateCond(raw)

	case "if":
		var s ifSpec
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, perror.Wrap(perror.ParseError, err, "decoding if")
		}
		branches := make([]operation.Branch, 0, len(s.Branches))
		for _, bs := range s.Branches {
			var cond *operation.Operation
			if len(bs.Cond) > 0 && string(bs.Cond) != "null" {
				cond, err = tb.translateCond(bs.Cond)
				if err != nil {
					return nil, err
				}
			}
			body, err := tb.translateBody(bs.Body)
			if err != nil {
				return nil, err
			}
			branches = append(branches, operation.Branch{Cond: cond, Body: body})
		}
		return operation.If(s.ID, branches), nil

	case "while":
		var s whileSpec
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, perror.Wrap(perror.ParseError, err, "decoding while")
		}
		cond, err := tb.translateCond(s.Cond)
		if err != nil {
			return nil, err
		}
		body, err := tb.translateBody(s.Body)
		if err != nil {
			return nil, err
		}
		return operation.While(s.ID, cond, body), nil

	case "for":
		return tb.translateFor(raw)

	case "case":
		return tb.translateCase(raw)

	case "return":
		return operation.Return(env.ID), nil

	case "call":
		return tb.translateCall(raw)

	case "reset":
		var s resetSpec
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, perror.Wrap(perror.ParseError, err, "decoding reset")
		}
		target, err := tb.resolvePointer(s.Target)
		if err != nil {
			return nil, err
		}
		return operation.Reset(s.ID, target), nil

	case "pause":
		return operation.Pause(env.ID), nil

	case "r_trig":
		clk, q, prev, err := tb.resolveTrig(raw)
		if err != nil {
			return nil, err
		}
		return operation.RTrig(env.ID, clk, q, prev), nil

	case "f_trig":
		clk, q, prev, err := tb.resolveTrig(raw)
		if err != nil {
			return nil, err
		}
		return operation.FTrig(env.ID, clk, q, prev), nil

	case "unit_test":
		var s unitTestSpec
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, perror.Wrap(perror.ParseError, err, "decoding unit_test")
		}
		cond, err := tb.translateCond(s.Cond)
		if err != nil {
			return nil, err
		}
		reg.RegisterUnitTest(registry.UnitTestRef{BlockName: tb.blockName, OpID: s.ID, Label: s.Label})
		return operation.UnitTest(s.ID, s.Label, cond), nil

	case "unit_block":
		var s unitBlockSpec
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, perror.Wrap(perror.ParseError, err, "decoding unit_block")
		}
		body, err := tb.translateBody(s.Body)
		if err != nil {
			return nil, err
		}
		return operation.UnitBlock(s.ID, s.Label, body), nil

	case "template":
		return tb.translateTemplate(raw)
	}
	return nil, perror.Newf(perror.ParseError, "unknown body operation tag %q", env.Ty)
}

func (tb *bodyTranslator) resolveTrig(raw json.RawMessage) (clk, q, prev *types.Cell, err error) {
	var s trigSpec
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, nil, nil, perror.Wrap(perror.ParseError, err, "decoding edge trigger")
	}
	if clk, err = tb.resolveCell(s.Clk); err != nil {
		return nil, nil, nil, err
	}
	if q, err = tb.resolveCell(s.Q); err != nil {
		return nil, nil, nil, err
	}
	if prev, err = tb.resolveCell(s.Prev); err != nil {
		return nil, nil, nil, err
	}
	return clk, q, prev, nil
}

// translateFor builds the For loop, synthesizing initCounter/
// withinRange/advance from the counter's own family so the operation
// tree node stays type-agnostic (spec §4.6). A missing step defaults to
// a unit step of the counter's family; the loop runs while
// counter <= end, so only ascending loops terminate on their range.
// A negative step does not reverse the comparison.
func (tb *bodyTranslator) translateFor(raw json.RawMessage) (*operation.Operation, error) {
	var s forSpec
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, perror.Wrap(perror.ParseError, err, "decoding for")
	}
	counterPtr, err := tb.resolvePointer(s.Counter)
	if err != nil {
		return nil, err
	}
	counter, ok := counterPtr.(*types.Cell)
	if !ok {
		return nil, perror.New(perror.TypeMismatch, "for counter must be a scalar")
	}
	start, err := tb.resolveCell(s.Start)
	if err != nil {
		return nil, err
	}
	end, err := tb.resolveCell(s.End)
	if err != nil {
		return nil, err
	}
	var step *types.Cell
	if len(s.Step) > 0 && string(s.Step) != "null" {
		step, err = tb.resolveCell(s.Step)
		if err != nil {
			return nil, err
		}
	} else {
		step, err = unitStep(counter.Family())
		if err != nil {
			return nil, err
		}
	}
	body, err := tb.translateBody(s.Body)
	if err != nil {
		return nil, err
	}

	reg := tb.builder.Reg
	initCounter := func() error { return dispatch.Set(reg, counter, start, nil) }
	withinRange := func() (bool, error) { return dispatch.Compare(reg, counter, end, dispatch.Le) }
	advance := func() error { return dispatch.Calc(reg, counter, step, dispatch.Add, nil) }
	return operation.For(s.ID, initCounter, withinRange, advance, body), nil
}

// unitStep builds a read-only constant cell holding 1 in family's native
// representation, for a For loop whose declaration omits an explicit
// step.
func unitStep(family types.Family) (*types.Cell, error) {
	var native any
	switch {
	case types.IsSigned(family):
		native = types.MakeSigned(family, 1)
	case types.IsUnsigned(family) || types.IsBinary(family):
		native = types.MakeUnsigned(family, 1)
	default:
		return nil, perror.Newf(perror.TypeMismatch, "%s is not a valid for-loop counter family", family)
	}
	return types.NewCell(family, native, true, 0)
}

// translateCase builds the Case node, folding each arm's literal match
// list into an equality predicate over the scrutinee's native integer
// value (spec §4.6 "selects the first matching literal/range arm" —
// ranges are expressed as an enumerated match list by the loader, which
// already expands any contiguous range before emitting this tag).
func (tb *bodyTranslator) translateCase(raw json.RawMessage) (*operation.Operation, error) {
	var s caseSpec
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, perror.Wrap(perror.ParseError, err, "decoding case")
	}
	scrutCell, err := tb.resolveCell(s.Scrutinee)
	if err != nil {
		return nil, err
	}
	scrutinee := operation.Const(tb.builder.nextID(), scrutCell)

	arms := make([]operation.CaseArm, 0, len(s.Arms)+1)
	for _, as := range s.Arms {
		matches := append([]int64(nil), as.Match...)
		body, err := tb.translateBody(as.Body)
		if err != nil {
			return nil, err
		}
		arms = append(arms, operation.CaseArm{
			Match: func(v any) bool {
				iv, ok := toInt64(v)
				if !ok {
					return false
				}
				for _, m := range matches {
					if iv == m {
						return true
					}
				}
				return false
			},
			Body: body,
		})
	}
	if s.Default != nil {
		defBody, err := tb.translateBody(s.Default)
		if err != nil {
			return nil, err
		}
		arms = append(arms, operation.CaseArm{Match: func(any) bool { return true }, Body: defBody})
	}
	return operation.Case(s.ID, scrutinee, arms), nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	}
	return 0, false
}

// translateCall builds an Fb/Fc invocation: resolves the instance
// reference, then one Assign per declared input/output member, visited
// in sorted-name order for determinism (spec §4.6 "execution order is
// Input-assign -> body -> Output-assign").
func (tb *bodyTranslator) translateCall(raw json.RawMessage) (*operation.Operation, error) {
	var s callSpec
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, perror.Wrap(perror.ParseError, err, "decoding call")
	}
	instPtr, err := tb.resolveLocalPath(s.Instance)
	if err != nil {
		return nil, err
	}
	inst, ok := instPtr.(*operation.Instance)
	if !ok {
		return nil, perror.Newf(perror.TypeMismatch, "%v does not name a function-block instance", s.Instance)
	}
	inputAssigns, err := tb.buildMemberAssigns(inst, s.Inputs, true)
	if err != nil {
		return nil, err
	}
	outputAssigns, err := tb.buildMemberAssigns(inst, s.Outputs, false)
	if err != nil {
		return nil, err
	}
	return operation.Call(s.ID, inst, inputAssigns, outputAssigns), nil
}

// buildMemberAssigns builds one Assign per (member name -> JsonTarget)
// pair. For inputs the instance member is the destination (the caller's
// expression flows in); for outputs the caller's target is the
// destination (the instance's output flows out).
func (tb *bodyTranslator) buildMemberAssigns(inst *operation.Instance, members map[string]json.RawMessage, isInput bool) ([]*operation.Operation, error) {
	names := make([]string, 0, len(members))
	for name := range members {
		names = append(names, name)
	}
	sort.Strings(names)

	reg := tb.builder.Reg
	out := make([]*operation.Operation, 0, len(names))
	for _, name := range names {
		memberID := reg.Interner.Intern(name)
		memberPtr, err := inst.MemberAt(memberID)
		if err != nil {
			return nil, err
		}
		exprPtr, err := tb.resolvePointer(members[name])
		if err != nil {
			return nil, err
		}
		id := tb.builder.nextID()
		if isInput {
			out = append(out, operation.Assign(id, reg, memberPtr, exprPtr))
		} else {
			out = append(out, operation.Assign(id, reg, exprPtr, memberPtr))
		}
	}
	return out, nil
}

// translateTemplate splices a provider Template's body inline, wrapped
// in a named unit block so its log section reads like any other nested
// invocation (SPEC_FULL §12.5).
func (tb *bodyTranslator) translateTemplate(raw json.RawMessage) (*operation.Operation, error) {
	var s templateSpec
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, perror.Wrap(perror.ParseError, err, "decoding template reference")
	}
	name := tb.builder.Reg.Interner.Intern(s.Of)
	bd, _, err := tb.builder.lookupDecl(name)
	if err != nil {
		return nil, err
	}
	body, err := tb.builder.templates.bodyOf(bd.Src)
	if err != nil {
		return nil, err
	}
	ops, err := tb.translateBody(body)
	if err != nil {
		return nil, err
	}
	return operation.UnitBlock(s.ID, "template:"+s.Of, ops), nil
}
