package types

import (
	"fmt"
	"math"

	"plcsim/internal/perror"
)

// MonitorSink receives a (cell id, formatted value) pair on every
// successful Set/Reset (spec §3 "Monitor", §8 "Monitor" property).
// internal/broadcast.Broadcast implements this; defined here (rather than
// imported) to keep internal/types leaf-level and dependency-free of the
// broadcast package.
type MonitorSink interface {
	Publish(cellID uint32, display string)
}

// nextCellID hands out process-wide stable 32-bit cell ids. Declared as a
// package-level counter rather than threaded through every constructor,
// mirroring the teacher's package-level id counters in
// internal/bytecode (chunk constant indices) and internal/vm (object ids).
var nextCellID uint32

func newCellID() uint32 {
	nextCellID++
	return nextCellID
}

// Cell is a single PLC scalar: family tag, current/default value, id,
// read-only flag, optional alias (the named type it was declared through),
// and the interned path it lives at (spec §3 "Primitive cell").
type Cell struct {
	family   Family
	value    any
	deflt    any
	id       uint32
	readOnly bool
	aliasID  uint32 // 0 = none
	pathID   uint32
}

// NewCell constructs a cell from a native Go value for the given family.
// The native value must already be the family's canonical Go
// representation (bool, int8/16/32/64, uint8/16/32/64, float32/64,
// string, rune, or a types.Duration/TimeOfDay wrapper — see format.go).
func NewCell(family Family, native any, readOnly bool, pathID uint32) (*Cell, error) {
	if err := checkNative(family, native); err != nil {
		return nil, err
	}
	c := &Cell{
		family:   family,
		value:    native,
		deflt:    native,
		id:       newCellID(),
		readOnly: readOnly,
		pathID:   pathID,
	}
	return c, nil
}

// ID returns the cell's stable 32-bit id (spec §3, used for monitor
// events and the error payload's id_stack is operation ids, not this —
// cell ids appear only in monitor events per spec §6).
func (c *Cell) ID() uint32 { return c.id }

// Family reports the cell's family tag.
func (c *Cell) Family() Family { return c.family }

// ReadOnly reports whether mutation is rejected (spec §4.2).
func (c *Cell) ReadOnly() bool { return c.readOnly }

// SetAlias records the named type id this cell was declared through
// (spec §3 "optional alias id").
func (c *Cell) SetAlias(id uint32) { c.aliasID = id }

// AliasID returns the alias id, or 0 if none.
func (c *Cell) AliasID() uint32 { return c.aliasID }

// PathID returns the interned path id of this cell's declaration site.
func (c *Cell) PathID() uint32 { return c.pathID }

// Get returns the current native value.
func (c *Cell) Get() any { return c.value }

// Default returns the default native value (never mutated after init).
func (c *Cell) Default() any { return c.deflt }

// Set writes a new native value of this cell's own family, publishing a
// monitor event on success (spec §4.2, §8 "Set-get", "Monitor"). Cross-
// family assignment compatibility is enforced one layer up, by
// internal/dispatch's set kernels, before they ever call Set; Set itself
// only guards read-only and the family's own native representation.
func (c *Cell) Set(native any, sink MonitorSink) error {
	if c.readOnly {
		return perror.New(perror.ReadOnly, fmt.Sprintf("cell %d is read-only", c.id))
	}
	if err := checkNative(c.family, native); err != nil {
		return err
	}
	c.value = native
	if sink != nil {
		sink.Publish(c.id, c.Display())
	}
	return nil
}

// SetDefault overwrites both the current and default value. Used only
// during the build phase, before the engine's first cycle — spec §4.2
// says the default "never changes after initialization", which this
// method's caller (the builder) respects by never calling it again once
// a block is Solved.
func (c *Cell) SetDefault(native any) error {
	if err := checkNative(c.family, native); err != nil {
		return err
	}
	c.deflt = native
	c.value = native
	return nil
}

// Reset copies default back into value and emits a monitor event (spec
// §4.2 "Reset semantics", §8 "Reset idempotence"). Read-only cells may
// still be reset — reset is not mutation-by-client, it restores the
// declared default.
func (c *Cell) Reset(sink MonitorSink) {
	c.value = c.deflt
	if sink != nil {
		sink.Publish(c.id, c.Display())
	}
}

// ResetValue implements pointer.Pointer, delegating to Reset so that
// bulk Temp-section reset can treat every slot uniformly regardless of
// whether it holds a scalar or a complex value.
func (c *Cell) ResetValue(sink MonitorSink) { c.Reset(sink) }

// checkNative verifies that native is the canonical Go representation
// for family, independent of range — range/overflow checks belong to
// internal/dispatch's cross-family assignment kernels, which call this
// only as a final sanity check after converting into the destination's
// native type.
func checkNative(family Family, native any) error {
	switch family {
	case Bool:
		_, ok := native.(bool)
		return mismatchUnless(ok, family, native)
	case SInt:
		_, ok := native.(int8)
		return mismatchUnless(ok, family, native)
	case Int:
		_, ok := native.(int16)
		return mismatchUnless(ok, family, native)
	case DInt:
		_, ok := native.(int32)
		return mismatchUnless(ok, family, native)
	case LInt:
		_, ok := native.(int64)
		return mismatchUnless(ok, family, native)
	case USInt, Byte:
		_, ok := native.(uint8)
		return mismatchUnless(ok, family, native)
	case UInt, Word:
		_, ok := native.(uint16)
		return mismatchUnless(ok, family, native)
	case UDInt, DWord:
		_, ok := native.(uint32)
		return mismatchUnless(ok, family, native)
	case ULInt, LWord:
		_, ok := native.(uint64)
		return mismatchUnless(ok, family, native)
	case Real:
		v, ok := native.(float32)
		if ok && math.IsNaN(float64(v)) {
			return nil
		}
		return mismatchUnless(ok, family, native)
	case LReal:
		_, ok := native.(float64)
		return mismatchUnless(ok, family, native)
	case Char:
		_, ok := native.(byte)
		return mismatchUnless(ok, family, native)
	case WChar:
		_, ok := native.(rune)
		return mismatchUnless(ok, family, native)
	case String:
		s, ok := native.(string)
		if ok && len(s) > 256 {
			return perror.New(perror.Overflow, "String exceeds max length 256")
		}
		return mismatchUnless(ok, family, native)
	case WString:
		_, ok := native.(string)
		return mismatchUnless(ok, family, native)
	case Time:
		_, ok := native.(Duration)
		return mismatchUnless(ok, family, native)
	case LTime:
		_, ok := native.(LDuration)
		return mismatchUnless(ok, family, native)
	case Tod:
		_, ok := native.(TimeOfDay)
		return mismatchUnless(ok, family, native)
	case LTod:
		_, ok := native.(LTimeOfDay)
		return mismatchUnless(ok, family, native)
	}
	return perror.New(perror.Internal, "unknown family")
}

func mismatchUnless(ok bool, family Family, native any) error {
	if ok {
		return nil
	}
	return perror.New(perror.TypeMismatch, fmt.Sprintf("value %#v is not a valid %s", native, family))
}
