// Package dispatch implements the (operator × lhs_family × rhs_family)
// kernel cross-product (spec §4.7 "Arithmetic/assign/compare dispatch").
// Every exported entry point here is a monomorphic kernel, or the
// structural recursion that picks one: no operation tree node calls into
// internal/types or internal/complexval directly for a cross-family
// native operation, it calls here instead.
package dispatch

import (
	"plcsim/internal/complexval"
	"plcsim/internal/ident"
	"plcsim/internal/perror"
	"plcsim/internal/pointer"
	"plcsim/internal/registry"
	"plcsim/internal/types"
)

// Op names the operator tag as it appears in body JSON and in the
// registry's allow-list (spec §4.7's operator list, plus "cmp").
type Op string

const (
	OpSet         Op = "set"
	OpAdd         Op = "add"
	OpSub         Op = "sub"
	OpMul         Op = "mul"
	OpDiv         Op = "div"
	OpMod         Op = "mod"
	OpShl         Op = "shl"
	OpShr         Op = "shr"
	OpRotateLeft  Op = "rotate-left"
	OpRotateRight Op = "rotate-right"
	OpSwapBytes   Op = "swap-bytes"
	OpCmp         Op = "cmp"
)

// Set performs a `set` operation: structural recursion for complex
// destinations (array element-by-element, struct member-by-member by
// id, spec §4.7 step 2), a cross-family scalar assignment otherwise.
// reg's allow-list is consulted only at the scalar leaves — structural
// recursion itself is always permitted once the shapes agree.
func Set(reg *registry.Registry, dst, src pointer.Pointer, sink types.MonitorSink) error {
	switch d := dst.(type) {
	case *complexval.Array:
		s, ok := src.(*complexval.Array)
		if !ok {
			return perror.New(perror.TypeMismatch, "cannot assign a non-array into an array")
		}
		if d.Len() != s.Len() {
			return perror.New(perror.TypeMismatch, "array length mismatch in structural assignment")
		}
		for i := int64(0); i < int64(d.Len()); i++ {
			dEl, err := d.At(d.Lo + i)
			if err != nil {
				return err
			}
			sEl, err := s.At(s.Lo + i)
			if err != nil {
				return err
			}
			if err := Set(reg, dEl, sEl, sink); err != nil {
				return err
			}
		}
		return nil
	case *complexval.Struct:
		s, ok := src.(*complexval.Struct)
		if !ok {
			return perror.New(perror.TypeMismatch, "cannot assign a non-struct into a struct")
		}
		return s.Each(func(name ident.ID, sEl pointer.Pointer) error {
			dEl, err := d.Get(name)
			if err != nil {
				return err
			}
			return Set(reg, dEl, sEl, sink)
		})
	case *types.Cell:
		s, ok := src.(*types.Cell)
		if !ok {
			return perror.New(perror.TypeMismatch, "cannot assign a complex value into a primitive cell")
		}
		if err := reg.CheckFilteredOperation(string(OpSet), d.Family(), s.Family()); err != nil {
			return err
		}
		return scalarSet(d, s, sink)
	}
	return perror.New(perror.Internal, "unrecognized pointer kind in Set")
}
