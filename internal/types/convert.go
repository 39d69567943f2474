package types

import "math"

// IntValue extracts a signed 64-bit view of c's native value, for any
// signed integer family. ok is false for non-signed families.
func IntValue(c *Cell) (int64, bool) {
	switch v := c.value.(type) {
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	}
	return 0, false
}

// UintValue extracts an unsigned 64-bit view of c's native value, for
// any unsigned-integer or binary family.
func UintValue(c *Cell) (uint64, bool) {
	switch v := c.value.(type) {
	case uint8:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint32:
		return uint64(v), true
	case uint64:
		return v, true
	}
	return 0, false
}

// FloatValue extracts a float64 view of c's native value, for Real or
// LReal.
func FloatValue(c *Cell) (float64, bool) {
	switch v := c.value.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// intRange returns [min, max] representable by a signed family.
func intRange(f Family) (int64, int64) {
	switch f {
	case SInt:
		return math.MinInt8, math.MaxInt8
	case Int:
		return math.MinInt16, math.MaxInt16
	case DInt:
		return math.MinInt32, math.MaxInt32
	case LInt:
		return math.MinInt64, math.MaxInt64
	}
	return 0, 0
}

// uintMax returns the maximum representable by an unsigned/binary
// family.
func uintMax(f Family) uint64 {
	switch f {
	case USInt, Byte:
		return math.MaxUint8
	case UInt, Word:
		return math.MaxUint16
	case UDInt, DWord:
		return math.MaxUint32
	case ULInt, LWord:
		return math.MaxUint64
	}
	return 0
}

// FitsSigned reports whether v is representable in the signed family f.
func FitsSigned(f Family, v int64) bool {
	lo, hi := intRange(f)
	return v >= lo && v <= hi
}

// FitsUnsigned reports whether v is representable in the unsigned/
// binary family f.
func FitsUnsigned(f Family, v uint64) bool {
	return v <= uintMax(f)
}

// SignedAsUnsignedFits reports whether a non-negative signed value v
// fits the unsigned/binary family f (used when an unsigned or binary
// destination receives a signed source, spec §4.2's cross-assign rule —
// negative values never fit an unsigned destination).
func SignedAsUnsignedFits(f Family, v int64) bool {
	return v >= 0 && FitsUnsigned(f, uint64(v))
}

// UnsignedAsSignedFits reports whether an unsigned value v fits the
// signed family f.
func UnsignedAsSignedFits(f Family, v uint64) bool {
	_, hi := intRange(f)
	return v <= uint64(hi)
}

// MakeSigned constructs the native Go value for a signed family from an
// int64 already known to fit (callers must range-check first).
func MakeSigned(f Family, v int64) any {
	switch f {
	case SInt:
		return int8(v)
	case Int:
		return int16(v)
	case DInt:
		return int32(v)
	case LInt:
		return v
	}
	return nil
}

// MakeUnsigned constructs the native Go value for an unsigned/binary
// family from a uint64 already known to fit.
func MakeUnsigned(f Family, v uint64) any {
	switch f {
	case USInt, Byte:
		return uint8(v)
	case UInt, Word:
		return uint16(v)
	case UDInt, DWord:
		return uint32(v)
	case ULInt, LWord:
		return v
	}
	return nil
}

// RawBits returns the destination-width truncated bit pattern of a
// signed or unsigned/binary cell's value, used for same-width
// reinterpreting assignment into a binary family ("both may assign to
// wider binaries of equal width", spec §4.2).
func RawBits(c *Cell) (uint64, bool) {
	if v, ok := UintValue(c); ok {
		return v, true
	}
	if v, ok := IntValue(c); ok {
		switch c.family {
		case SInt:
			return uint64(uint8(v)), true
		case Int:
			return uint64(uint16(v)), true
		case DInt:
			return uint64(uint32(v)), true
		case LInt:
			return uint64(v), true
		}
	}
	return 0, false
}

// MakeFloat constructs the native Go value for Real or LReal.
func MakeFloat(f Family, v float64) any {
	if f == Real {
		return float32(v)
	}
	return v
}
