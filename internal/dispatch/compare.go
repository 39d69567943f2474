package dispatch

import (
	"fmt"

	"plcsim/internal/perror"
	"plcsim/internal/registry"
	"plcsim/internal/types"
)

// CmpOp names the six comparison operators folded under the single
// `cmp` dispatch entry (spec §4.7).
type CmpOp string

const (
	Eq CmpOp = "eq"
	Ne CmpOp = "ne"
	Lt CmpOp = "lt"
	Le CmpOp = "le"
	Gt CmpOp = "gt"
	Ge CmpOp = "ge"
)

// Compare evaluates `lhs CMP rhs` and returns the boolean result. Both
// operands must share a comparable family; mixed signed/unsigned/binary
// comparison widens to int64/uint64 the same way scalarSet does.
func Compare(reg *registry.Registry, lhs, rhs *types.Cell, op CmpOp) (bool, error) {
	if err := reg.CheckFilteredOperation(string(OpCmp), lhs.Family(), rhs.Family()); err != nil {
		return false, err
	}

	var ord int
	switch {
	case lhs.Family() == types.Bool:
		a, _ := lhs.Get().(bool)
		b, ok := rhs.Get().(bool)
		if !ok {
			return false, mismatch(lhs.Family(), rhs.Family())
		}
		if a == b {
			ord = 0
		} else if !a {
			ord = -1
		} else {
			ord = 1
		}

	case types.IsFloat(lhs.Family()):
		a, _ := types.FloatValue(lhs)
		b, ok := types.FloatValue(rhs)
		if !ok {
			return false, mismatch(lhs.Family(), rhs.Family())
		}
		if a != a || b != b {
			// IEEE: a NaN operand is unordered, so only Ne holds.
			return op == Ne, nil
		}
		ord = compareFloat(a, b)

	case types.IsSigned(lhs.Family()) || types.IsUnsigned(lhs.Family()) || types.IsBinary(lhs.Family()):
		ord = compareInteger(lhs, rhs)

	case lhs.Family() == types.Char, lhs.Family() == types.WChar, lhs.Family() == types.String, lhs.Family() == types.WString:
		a := fmt.Sprintf("%v", lhs.Get())
		b := fmt.Sprintf("%v", rhs.Get())
		ord = compareString(a, b)

	case types.IsTime(lhs.Family()):
		ord = compareTime(lhs, rhs)

	default:
		return false, perror.New(perror.TypeMismatch, fmt.Sprintf("%s is not comparable", lhs.Family()))
	}

	switch op {
	case Eq:
		return ord == 0, nil
	case Ne:
		return ord != 0, nil
	case Lt:
		return ord < 0, nil
	case Le:
		return ord <= 0, nil
	case Gt:
		return ord > 0, nil
	case Ge:
		return ord >= 0, nil
	}
	return false, perror.New(perror.Internal, "unknown comparison operator "+string(op))
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareInteger(lhs, rhs *types.Cell) int {
	if types.IsSigned(lhs.Family()) && types.IsSigned(rhs.Family()) {
		a, _ := types.IntValue(lhs)
		b, _ := types.IntValue(rhs)
		return compareInt64(a, b)
	}
	if types.IsSigned(lhs.Family()) {
		a, _ := types.IntValue(lhs)
		b, _ := types.UintValue(rhs)
		if a < 0 {
			return -1
		}
		return compareUint64(uint64(a), b)
	}
	if types.IsSigned(rhs.Family()) {
		b, _ := types.IntValue(rhs)
		a, _ := types.UintValue(lhs)
		if b < 0 {
			return 1
		}
		return compareUint64(a, uint64(b))
	}
	a, _ := types.UintValue(lhs)
	b, _ := types.UintValue(rhs)
	return compareUint64(a, b)
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareTime orders duration/clock families by their underlying scalar
// magnitude; both operands have already been checked to share a family.
func compareTime(lhs, rhs *types.Cell) int {
	switch v := lhs.Get().(type) {
	case types.Duration:
		other, _ := rhs.Get().(types.Duration)
		return compareInt64(int64(v), int64(other))
	case types.LDuration:
		other, _ := rhs.Get().(types.LDuration)
		return compareInt64(int64(v), int64(other))
	case types.TimeOfDay:
		other, _ := rhs.Get().(types.TimeOfDay)
		return compareUint64(uint64(v), uint64(other))
	case types.LTimeOfDay:
		other, _ := rhs.Get().(types.LTimeOfDay)
		return compareUint64(uint64(v), uint64(other))
	}
	return 0
}
