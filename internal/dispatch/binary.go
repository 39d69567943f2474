package dispatch

import (
	"fmt"

	"plcsim/internal/perror"
	"plcsim/internal/registry"
	"plcsim/internal/types"
)

// ShiftOp names the bit-pattern operators restricted to the binary
// families Byte/Word/DWord/LWord (spec §4.7, SPEC_FULL §12.2).
type ShiftOp string

const (
	Shl         ShiftOp = "shl"
	Shr         ShiftOp = "shr"
	RotateLeft  ShiftOp = "rotate-left"
	RotateRight ShiftOp = "rotate-right"
	SwapBytes   ShiftOp = "swap-bytes"
)

// Shift performs a shift, rotate, or byte-swap on dst in place. amount
// is ignored for SwapBytes (pass nil). Every call here always carries a
// trace at the operation-tree level, regardless of the inconsistency
// noted in the field source for individual shift operators — see
// DESIGN.md's Open Question decision.
func Shift(reg *registry.Registry, dst *types.Cell, amount *types.Cell, op ShiftOp) error {
	if !types.IsBinary(dst.Family()) {
		return perror.New(perror.TypeMismatch, fmt.Sprintf("%s does not support %s", dst.Family(), op))
	}
	width := types.BitWidth(dst.Family())
	mask := uintMaskFor(dst.Family())

	if op == SwapBytes {
		v, _ := types.UintValue(dst)
		return dst.Set(types.MakeUnsigned(dst.Family(), swapBytes(v, width)&mask), nil)
	}

	if amount == nil {
		return perror.New(perror.Internal, string(op)+" requires a shift amount")
	}
	if err := reg.CheckFilteredOperation(string(op), dst.Family(), amount.Family()); err != nil {
		return err
	}
	n, ok := shiftCount(amount)
	if !ok {
		return perror.New(perror.TypeMismatch, "shift amount must be an integer family")
	}
	n %= uint64(width)

	v, _ := types.UintValue(dst)
	var r uint64
	switch op {
	case Shl:
		r = (v << n) & mask
	case Shr:
		r = (v & mask) >> n
	case RotateLeft:
		r = ((v << n) | (v >> (uint64(width) - n))) & mask
	case RotateRight:
		r = ((v >> n) | (v << (uint64(width) - n))) & mask
	default:
		return perror.New(perror.Internal, "unknown shift operator "+string(op))
	}
	return dst.Set(types.MakeUnsigned(dst.Family(), r), nil)
}

func shiftCount(c *types.Cell) (uint64, bool) {
	if v, ok := types.UintValue(c); ok {
		return v, true
	}
	if v, ok := types.IntValue(c); ok && v >= 0 {
		return uint64(v), true
	}
	return 0, false
}

func swapBytes(v uint64, width int) uint64 {
	n := width / 8
	var r uint64
	for i := 0; i < n; i++ {
		b := (v >> (uint(i) * 8)) & 0xFF
		r |= b << uint(((n-1)-i)*8)
	}
	return r
}
