package dispatch

import (
	"fmt"
	"math"

	"plcsim/internal/perror"
	"plcsim/internal/registry"
	"plcsim/internal/types"
)

// ArithOp names the five accumulate-in-place operators (spec §4.7's
// "add, sub, mul, div, mod"). The destination cell doubles as the first
// operand — `calc OP with` mutates `calc` in place, mirroring the
// original loader's JsonTarget reuse of the same field for source and
// destination.
type ArithOp string

const (
	Add ArithOp = "add"
	Sub ArithOp = "sub"
	Mul ArithOp = "mul"
	Div ArithOp = "div"
	Mod ArithOp = "mod"
)

// Calc performs `dst := dst OP with` (spec §4.7), picking an integer or
// float kernel by dst's family. dst and with must share a family — the
// builder is responsible for having already solved `with` to match
// `dst`'s type (spec §4.6 "o2 solved to match o1's type").
func Calc(reg *registry.Registry, dst, with *types.Cell, op ArithOp, sink types.MonitorSink) error {
	if err := reg.CheckFilteredOperation(string(op), dst.Family(), with.Family()); err != nil {
		return err
	}
	if dst.Family() != with.Family() {
		return mismatch(dst.Family(), with.Family())
	}
	switch {
	case types.IsFloat(dst.Family()):
		return calcFloat(dst, with, op, sink)
	case types.IsSigned(dst.Family()):
		return calcSigned(dst, with, op, sink)
	case types.IsUnsigned(dst.Family()) || types.IsBinary(dst.Family()):
		return calcUnsigned(dst, with, op, sink)
	}
	return perror.New(perror.TypeMismatch, fmt.Sprintf("%s is not an arithmetic family", dst.Family()))
}

func calcFloat(dst, with *types.Cell, op ArithOp, sink types.MonitorSink) error {
	a, _ := types.FloatValue(dst)
	b, _ := types.FloatValue(with)
	var r float64
	switch op {
	case Add:
		r = a + b
	case Sub:
		r = a - b
	case Mul:
		r = a * b
	case Div:
		r = a / b
	case Mod:
		r = math.Mod(a, b)
	default:
		return perror.New(perror.Internal, "unknown arithmetic operator "+string(op))
	}
	return dst.Set(types.MakeFloat(dst.Family(), r), sink)
}

func calcSigned(dst, with *types.Cell, op ArithOp, sink types.MonitorSink) error {
	a, _ := types.IntValue(dst)
	b, _ := types.IntValue(with)
	f := dst.Family()

	switch op {
	case Add:
		r := a + b
		if addOverflows(a, b, r) || !types.FitsSigned(f, r) {
			return overflow(f, r)
		}
		return dst.Set(types.MakeSigned(f, r), sink)
	case Sub:
		r := a - b
		if subOverflows(a, b, r) || !types.FitsSigned(f, r) {
			return overflow(f, r)
		}
		return dst.Set(types.MakeSigned(f, r), sink)
	case Mul:
		r := a * b
		if mulOverflows(a, b, r) || !types.FitsSigned(f, r) {
			return overflow(f, r)
		}
		return dst.Set(types.MakeSigned(f, r), sink)
	case Div:
		if b == 0 {
			return perror.New(perror.DivByZero, "integer division by zero")
		}
		return dst.Set(types.MakeSigned(f, a/b), sink)
	case Mod:
		if b == 0 {
			return perror.New(perror.DivByZero, "integer modulo by zero")
		}
		return dst.Set(types.MakeSigned(f, a%b), sink)
	}
	return perror.New(perror.Internal, "unknown arithmetic operator "+string(op))
}

func calcUnsigned(dst, with *types.Cell, op ArithOp, sink types.MonitorSink) error {
	a, _ := types.UintValue(dst)
	b, _ := types.UintValue(with)
	f := dst.Family()
	mask := uintMaskFor(f)

	switch op {
	case Add:
		return dst.Set(types.MakeUnsigned(f, (a+b)&mask), sink)
	case Sub:
		return dst.Set(types.MakeUnsigned(f, (a-b)&mask), sink)
	case Mul:
		return dst.Set(types.MakeUnsigned(f, (a*b)&mask), sink)
	case Div:
		if b == 0 {
			return perror.New(perror.DivByZero, "integer division by zero")
		}
		return dst.Set(types.MakeUnsigned(f, a/b), sink)
	case Mod:
		if b == 0 {
			return perror.New(perror.DivByZero, "integer modulo by zero")
		}
		return dst.Set(types.MakeUnsigned(f, a%b), sink)
	}
	return perror.New(perror.Internal, "unknown arithmetic operator "+string(op))
}

func uintMaskFor(f types.Family) uint64 {
	switch types.BitWidth(f) {
	case 8:
		return 0xFF
	case 16:
		return 0xFFFF
	case 32:
		return 0xFFFFFFFF
	default:
		return 0xFFFFFFFFFFFFFFFF
	}
}
