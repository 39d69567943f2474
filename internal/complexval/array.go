// Package complexval implements the non-scalar value kinds (spec §3
// "Complex value", §4.3): fixed-length arrays over an inclusive index
// range and insertion-ordered structs. Function-block/function
// instances are implemented in internal/operation (operation.Instance).
//
// Grounded on the teacher's container/array + map handling in
// internal/vm/vm.go (OpArray/OpMap/OpIndex families) and
// internal/dataframe/array.go's ordered-column iteration.
package complexval

import (
	"plcsim/internal/perror"
	"plcsim/internal/pointer"
	"plcsim/internal/types"
)

// Array is a fixed-length ordered sequence of homogeneous cells over an
// inclusive integer index range [Lo, Hi], frozen at build time (spec
// §4.3).
type Array struct {
	Lo, Hi int64
	cells  []pointer.Pointer
}

// NewArray allocates an array over [lo, hi] using factory to construct
// each element cell. lo/hi are frozen for the array's lifetime.
func NewArray(lo, hi int64, factory func(index int64) (pointer.Pointer, error)) (*Array, error) {
	if hi < lo {
		return nil, perror.Newf(perror.Internal, "array range [%d..%d] is empty/inverted", lo, hi)
	}
	n := hi - lo + 1
	cells := make([]pointer.Pointer, 0, n)
	for i := lo; i <= hi; i++ {
		p, err := factory(i)
		if err != nil {
			return nil, err
		}
		cells = append(cells, p)
	}
	return &Array{Lo: lo, Hi: hi, cells: cells}, nil
}

// Len reports the number of elements.
func (a *Array) Len() int { return len(a.cells) }

// At returns the pointer at the given logical index, failing with
// IndexOutOfBounds when outside [Lo, Hi] (spec §4.3).
func (a *Array) At(index int64) (pointer.Pointer, error) {
	if index < a.Lo || index > a.Hi {
		return nil, perror.Newf(perror.IndexOutOfBounds, "index %d out of bounds [%d..%d]", index, a.Lo, a.Hi)
	}
	return a.cells[index-a.Lo], nil
}

// Each iterates elements in ascending index order (spec §4.3 "iteration
// is in ascending index order"), stopping early if fn returns an error.
func (a *Array) Each(fn func(index int64, p pointer.Pointer) error) error {
	for i, p := range a.cells {
		if err := fn(a.Lo+int64(i), p); err != nil {
			return err
		}
	}
	return nil
}

// Clone deep-copies the array structurally, cloning every element
// pointer via elemClone (used when instancing an Fb template's Static
// section, or copying a Udt-typed member).
func (a *Array) Clone(elemClone func(pointer.Pointer) (pointer.Pointer, error)) (*Array, error) {
	cloned := make([]pointer.Pointer, 0, len(a.cells))
	for _, p := range a.cells {
		np, err := elemClone(p)
		if err != nil {
			return nil, err
		}
		cloned = append(cloned, np)
	}
	return &Array{Lo: a.Lo, Hi: a.Hi, cells: cloned}, nil
}

// ElementAt implements pointer.Indexable.
func (a *Array) ElementAt(index int64) (pointer.Pointer, error) { return a.At(index) }

// ResetValue implements pointer.Pointer by resetting every element.
func (a *Array) ResetValue(sink types.MonitorSink) {
	for _, p := range a.cells {
		p.ResetValue(sink)
	}
}
