package dispatch

import (
	"fmt"

	"plcsim/internal/perror"
	"plcsim/internal/types"
)

// scalarSet performs the family-compatibility-checked native assignment
// underlying the `set` operator once both operands have resolved to
// primitive cells (spec §4.2's allow-list). reg's allow-list gate has
// already run by the time this is called from Set.
func scalarSet(dst, src *types.Cell, sink types.MonitorSink) error {
	df, sf := dst.Family(), src.Family()

	switch {
	case df == types.Bool:
		v, ok := src.Get().(bool)
		if !ok || sf != types.Bool {
			return mismatch(df, sf)
		}
		return dst.Set(v, sink)

	case types.IsFloat(df):
		return setFloat(dst, src, sink)

	case types.IsSigned(df) || types.IsUnsigned(df) || types.IsBinary(df):
		return setInteger(dst, src, sink)

	case df == types.Char:
		v, ok := src.Get().(byte)
		if !ok || sf != types.Char {
			return mismatch(df, sf)
		}
		return dst.Set(v, sink)

	case df == types.WChar:
		v, ok := src.Get().(rune)
		if !ok || sf != types.WChar {
			return mismatch(df, sf)
		}
		return dst.Set(v, sink)

	case df == types.String:
		v, ok := src.Get().(string)
		if !ok || sf != types.String {
			return mismatch(df, sf)
		}
		return dst.Set(v, sink)

	case df == types.WString:
		v, ok := src.Get().(string)
		if !ok || sf != types.WString {
			return mismatch(df, sf)
		}
		return dst.Set(v, sink)

	case types.IsTime(df):
		if df != sf {
			return mismatch(df, sf)
		}
		return dst.Set(src.Get(), sink)
	}
	return perror.New(perror.Internal, "unhandled destination family in scalarSet")
}

// setFloat implements "Real accepts Real only; LReal accepts Real and
// LReal. Integers do not implicitly become floats" (spec §4.2).
func setFloat(dst, src *types.Cell, sink types.MonitorSink) error {
	df, sf := dst.Family(), src.Family()
	if !types.IsFloat(sf) {
		return mismatch(df, sf)
	}
	if df == types.Real && sf != types.Real {
		return mismatch(df, sf)
	}
	v, _ := types.FloatValue(src)
	return dst.Set(types.MakeFloat(df, v), sink)
}

// setInteger implements the signed/unsigned/binary cross-assignment
// rule: "cross-assign iff the source value fits the destination's range
// at runtime (fails with Overflow otherwise); both may assign to wider
// binaries of equal width" (spec §4.2).
func setInteger(dst, src *types.Cell, sink types.MonitorSink) error {
	df, sf := dst.Family(), src.Family()
	if !(types.IsSigned(sf) || types.IsUnsigned(sf) || types.IsBinary(sf)) {
		return mismatch(df, sf)
	}

	if types.IsBinary(df) && types.BitWidth(df) == types.BitWidth(sf) {
		bits, ok := types.RawBits(src)
		if !ok {
			return mismatch(df, sf)
		}
		return dst.Set(types.MakeUnsigned(df, bits), sink)
	}

	if types.IsSigned(sf) {
		v, _ := types.IntValue(src)
		if types.IsSigned(df) {
			if !types.FitsSigned(df, v) {
				return overflow(df, v)
			}
			return dst.Set(types.MakeSigned(df, v), sink)
		}
		if !types.SignedAsUnsignedFits(df, v) {
			return overflow(df, v)
		}
		return dst.Set(types.MakeUnsigned(df, uint64(v)), sink)
	}

	// src is unsigned or binary.
	v, _ := types.UintValue(src)
	if types.IsSigned(df) {
		if !types.UnsignedAsSignedFits(df, v) {
			return overflowU(df, v)
		}
		return dst.Set(types.MakeSigned(df, int64(v)), sink)
	}
	if !types.FitsUnsigned(df, v) {
		return overflowU(df, v)
	}
	return dst.Set(types.MakeUnsigned(df, v), sink)
}

func mismatch(df, sf types.Family) error {
	return perror.New(perror.TypeMismatch, fmt.Sprintf("cannot assign %s into %s", sf, df))
}

func overflow(df types.Family, v int64) error {
	return perror.New(perror.Overflow, fmt.Sprintf("value %d does not fit %s", v, df))
}

func overflowU(df types.Family, v uint64) error {
	return perror.New(perror.Overflow, fmt.Sprintf("value %d does not fit %s", v, df))
}
