// Package pointer defines the shared interior-mutable handle abstraction
// (spec §3 "Pointer"): a handle to a cell or a complex value that may be
// aliased freely but never cycles (the builder rejects recursive types
// and templates before any pointer is ever constructed).
//
// It is intentionally tiny and leaf-level so that internal/types and
// internal/complexval can both depend on it without depending on each
// other.
package pointer

import (
	"plcsim/internal/ident"
	"plcsim/internal/types"
)

// Pointer is anything a section slot, array element, or struct member
// can hold: a *types.Cell, a *complexval.Array, a *complexval.Struct, or
// an *operation.Instance. All four implement ResetValue so that bulk
// Temp-section reset (spec §5 "Resource lifetime") and the #reset
// intrinsic (SPEC_FULL §12.4) can operate uniformly without a type
// switch at every call site.
type Pointer interface {
	// ResetValue restores this value (recursively, for complex values)
	// to its build-time default, publishing monitor events through sink.
	ResetValue(sink types.MonitorSink)
}

// Indexable is implemented by complex values addressable by integer
// index (Array). Small and separate from Keyed so that a nested-path
// walk (spec §4.4 "try_get_nested") can descend into arrays and structs
// uniformly without either internal/complexval or internal/operation
// (which defines Instance) needing to import each other or a shared
// "nested walk" package.
type Indexable interface {
	Pointer
	ElementAt(index int64) (Pointer, error)
}

// Keyed is implemented by complex values addressable by member id
// (Struct, Instance).
type Keyed interface {
	Pointer
	MemberAt(name ident.ID) (Pointer, error)
}
