package dispatch

import (
	"math"

	"plcsim/internal/perror"
	"plcsim/internal/types"
)

// MathOp names the unary float kernels (spec §4.7's math unaries). All
// sixteen operate in place on a Real/LReal cell — integers do not
// implicitly become floats (spec §4.2), so callers that want `abs` of
// an integer must cast first; this mirrors the assignment rule rather
// than widening the math table to cover integer families too.
type MathOp string

const (
	Abs   MathOp = "abs"
	Sqr   MathOp = "sqr"
	Sqrt  MathOp = "sqrt"
	Ln    MathOp = "ln"
	Exp   MathOp = "exp"
	Sin   MathOp = "sin"
	Cos   MathOp = "cos"
	Tan   MathOp = "tan"
	Asin  MathOp = "asin"
	Acos  MathOp = "acos"
	Atan  MathOp = "atan"
	Ceil  MathOp = "ceil"
	Floor MathOp = "floor"
	Round MathOp = "round"
	Trunc MathOp = "trunc"
	Fract MathOp = "fract"
)

// Math evaluates a unary math operator in place on dst.
func Math(dst *types.Cell, op MathOp, sink types.MonitorSink) error {
	if !types.IsFloat(dst.Family()) {
		return perror.New(perror.TypeMismatch, dst.Family().String()+" does not support math operators")
	}
	v, _ := types.FloatValue(dst)

	var r float64
	switch op {
	case Abs:
		r = math.Abs(v)
	case Sqr:
		r = v * v
	case Sqrt:
		if v < 0 {
			return perror.New(perror.DomainError, "sqrt of negative value")
		}
		r = math.Sqrt(v)
	case Ln:
		if v <= 0 {
			return perror.New(perror.DomainError, "ln of non-positive value")
		}
		r = math.Log(v)
	case Exp:
		r = math.Exp(v)
	case Sin:
		r = math.Sin(v)
	case Cos:
		r = math.Cos(v)
	case Tan:
		r = math.Tan(v)
	case Asin:
		if v < -1 || v > 1 {
			return perror.New(perror.DomainError, "asin outside [-1, 1]")
		}
		r = math.Asin(v)
	case Acos:
		if v < -1 || v > 1 {
			return perror.New(perror.DomainError, "acos outside [-1, 1]")
		}
		r = math.Acos(v)
	case Atan:
		r = math.Atan(v)
	case Ceil:
		r = math.Ceil(v)
	case Floor:
		r = math.Floor(v)
	case Round:
		r = math.Round(v)
	case Trunc:
		r = math.Trunc(v)
	case Fract:
		r = v - math.Trunc(v)
	default:
		return perror.New(perror.Internal, "unknown math operator "+string(op))
	}
	return dst.Set(types.MakeFloat(dst.Family(), r), sink)
}
