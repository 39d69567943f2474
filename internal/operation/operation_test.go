package operation

import (
	"testing"

	"plcsim/internal/broadcast"
	"plcsim/internal/dispatch"
	"plcsim/internal/ident"
	"plcsim/internal/perror"
	"plcsim/internal/registry"
	"plcsim/internal/section"
	"plcsim/internal/types"
)

func newCtx(t *testing.T) (*Context, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	dispatch.PopulateAllowList(reg)
	return &Context{Registry: reg, Broadcast: broadcast.New(false)}, reg
}

func cell(t *testing.T, f types.Family, v any) *types.Cell {
	t.Helper()
	c, err := types.NewCell(f, v, false, 0)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestSequenceShortCircuitsOnEarlyReturn(t *testing.T) {
	ctx, _ := newCtx(t)
	ran := false
	mark := New(1, "mark", nil, func(ctx *Context) error { ran = true; return nil })
	seq := Sequence([]*Operation{Return(2), mark})
	res, err := seq(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !res.EarlyReturn {
		t.Fatal("expected early return to propagate")
	}
	if ran {
		t.Fatal("operation after return must not run")
	}
}

func TestIfPicksFirstTruthyBranch(t *testing.T) {
	ctx, reg := newCtx(t)
	cond := cell(t, types.Bool, true)
	condOp := Const(10, cond)
	hit := false
	ifOp := If(11, []Branch{
		{Cond: condOp, Body: []*Operation{New(12, "hit", nil, func(ctx *Context) error { hit = true; return nil })}},
	})
	if _, err := ifOp.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Fatal("expected truthy branch body to run")
	}
	_ = reg
}

func TestWhileLoopsUntilFalse(t *testing.T) {
	ctx, reg := newCtx(t)
	counter := cell(t, types.DInt, int32(0))
	limit := cell(t, types.DInt, int32(3))
	condOp := Compare(20, reg, counter, limit, dispatch.Lt)
	body := []*Operation{
		Calc(21, reg, counter, onef(t, reg), dispatch.Add),
	}
	loop := While(22, condOp, body)
	if _, err := loop.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if counter.Get().(int32) != 3 {
		t.Fatalf("counter = %v, want 3", counter.Get())
	}
}

func onef(t *testing.T, reg *registry.Registry) *types.Cell {
	return cell(t, types.DInt, int32(1))
}

func TestCallRunsInputBodyOutputInOrder(t *testing.T) {
	ctx, reg := newCtx(t)
	var order []string

	iface := section.NewInterface()
	in := ident.New()
	inputSlot := cell(t, types.DInt, int32(0))
	outputSlot := cell(t, types.DInt, int32(0))
	if err := iface.Add(section.Input, in.Intern("in"), inputSlot); err != nil {
		t.Fatal(err)
	}
	if err := iface.Add(section.Output, in.Intern("out"), outputSlot); err != nil {
		t.Fatal(err)
	}

	body := []*Operation{New(30, "body", nil, func(ctx *Context) error {
		order = append(order, "body")
		return outputSlot.Set(int32(99), nil)
	})}
	instance := NewInstance("Motor1", iface, body, false)

	inputAssign := New(31, "in-assign", nil, func(ctx *Context) error {
		order = append(order, "input")
		return nil
	})
	outputAssign := New(32, "out-assign", nil, func(ctx *Context) error {
		order = append(order, "output")
		return nil
	})

	call := Call(33, instance, []*Operation{inputAssign}, []*Operation{outputAssign})
	if _, err := call.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if len(order) != 3 || order[0] != "input" || order[1] != "body" || order[2] != "output" {
		t.Fatalf("order = %v", order)
	}
	if outputSlot.Get().(int32) != 99 {
		t.Fatalf("outputSlot = %v", outputSlot.Get())
	}
	_ = reg
}

func TestRTrigRisingEdge(t *testing.T) {
	ctx, _ := newCtx(t)
	clk := cell(t, types.Bool, false)
	q := cell(t, types.Bool, false)
	prev := cell(t, types.Bool, false)
	op := RTrig(40, clk, q, prev)

	if _, err := op.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if q.Get().(bool) {
		t.Fatal("no edge yet, Q must stay false")
	}

	if err := clk.Set(true, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := op.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !q.Get().(bool) {
		t.Fatal("rising edge must set Q true")
	}

	if _, err := op.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if q.Get().(bool) {
		t.Fatal("Q must fall back false once clk has stayed high")
	}
}

func TestUnitTestRecordsFailureWithoutPropagatingError(t *testing.T) {
	ctx, reg := newCtx(t)
	a := cell(t, types.DInt, int32(1))
	b := cell(t, types.DInt, int32(2))
	cond := Compare(50, reg, a, b, dispatch.Eq)
	test := UnitTest(51, "one equals two", cond)

	if _, err := test.Run(ctx); err != nil {
		t.Fatal(err)
	}
	report := ctx.Broadcast.UnitTests()
	if report.Total != 1 || report.Failed != 1 {
		t.Fatalf("report = %+v", report)
	}
}

func TestCalcDivByZeroDecoratesFrame(t *testing.T) {
	ctx, reg := newCtx(t)
	dst := cell(t, types.DInt, int32(10))
	zero := cell(t, types.DInt, int32(0))
	op := Calc(60, reg, dst, zero, dispatch.Div)
	_, err := op.Run(ctx)
	if !perror.Is(err, perror.DivByZero) {
		t.Fatalf("expected DivByZero, got %v", err)
	}
	pe, ok := err.(*perror.PlcError)
	if !ok {
		t.Fatalf("expected *PlcError, got %T", err)
	}
	if len(pe.IDStack) == 0 || pe.IDStack[0] != 60 {
		t.Fatalf("id stack = %v", pe.IDStack)
	}
}
