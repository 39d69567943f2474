// Package section implements the named, typed slot memory shared by
// every PLC unit (spec §4.4 "Section interface"): a mapping from
// Section to an ordered mapping from member-id to pointer, with the
// invariant that no member id appears in more than one section of the
// same interface.
package section

import (
	"plcsim/internal/ident"
	"plcsim/internal/perror"
	"plcsim/internal/pointer"
	"plcsim/internal/types"
)

// Kind is one of the named compartments of a PLC unit's memory (spec
// §3 "Section interface").
type Kind int

const (
	Input Kind = iota
	Output
	InOut
	Static
	Temp
	Constant
	Return
	None
)

var kindNames = map[Kind]string{
	Input: "input", Output: "output", InOut: "inout", Static: "static",
	Temp: "temp", Constant: "constant", Return: "return", None: "none",
}

func (k Kind) String() string { return kindNames[k] }

// orderedKinds fixes the serialization order spec §4.4 requires
// ("Serialization emits sections in a fixed order for deterministic
// output").
var orderedKinds = []Kind{Input, Output, InOut, Static, Temp, Constant, Return}

// slot is one named member of a section, keeping insertion order.
type slot struct {
	name ident.ID
	ptr  pointer.Pointer
}

// Interface is the full per-unit memory: every section, each holding
// its own ordered member list.
type Interface struct {
	sections map[Kind][]slot
	index    map[ident.ID]Kind // every member id, for the no-duplicate-across-sections check
}

// NewInterface creates an empty section interface.
func NewInterface() *Interface {
	return &Interface{
		sections: make(map[Kind][]slot),
		index:    make(map[ident.ID]Kind),
	}
}

// Add registers a new member of the given section. Fails with Duplicate
// if the member id already appears in any section of this interface
// (spec §4.4 constraint).
func (in *Interface) Add(kind Kind, name ident.ID, p pointer.Pointer) error {
	if existing, ok := in.index[name]; ok {
		return perror.Newf(perror.Duplicate, "member %d already declared in section %s", name, existing)
	}
	in.sections[kind] = append(in.sections[kind], slot{name: name, ptr: p})
	in.index[name] = kind
	return nil
}

// Get looks up a member by (section, name).
func (in *Interface) Get(kind Kind, name ident.ID) (pointer.Pointer, error) {
	for _, s := range in.sections[kind] {
		if s.name == name {
			return s.ptr, nil
		}
	}
	return nil, perror.Newf(perror.MemberNotFound, "member %d not found in section %s", name, kind)
}

// GetAny looks up a member in any section, returning which section it
// was found in.
func (in *Interface) GetAny(name ident.ID) (pointer.Pointer, Kind, error) {
	kind, ok := in.index[name]
	if !ok {
		return nil, None, perror.Newf(perror.MemberNotFound, "member %d not found", name)
	}
	p, err := in.Get(kind, name)
	return p, kind, err
}

// Each iterates members of one section in insertion order.
func (in *Interface) Each(kind Kind, fn func(name ident.ID, p pointer.Pointer) error) error {
	for _, s := range in.sections[kind] {
		if err := fn(s.name, s.ptr); err != nil {
			return err
		}
	}
	return nil
}

// Names returns the member ids of a section in declaration order.
func (in *Interface) Names(kind Kind) []ident.ID {
	s := in.sections[kind]
	out := make([]ident.ID, len(s))
	for i, x := range s {
		out[i] = x.name
	}
	return out
}

// ResetSection restores every member of kind to its default (spec §4.2
// "Bulk reset exists per section; the engine uses it to clear Temp
// between cycles").
func (in *Interface) ResetSection(kind Kind, sink types.MonitorSink) {
	_ = in.Each(kind, func(_ ident.ID, p pointer.Pointer) error {
		p.ResetValue(sink)
		return nil
	})
}

// Segment is one step of a nested path: either a named member (struct,
// instance) or an integer index (array).
type Segment struct {
	Name    ident.ID
	Index   int64
	IsIndex bool
}

// NamedSegment builds a member-name path step.
func NamedSegment(name ident.ID) Segment { return Segment{Name: name} }

// IndexSegment builds an array-index path step.
func IndexSegment(index int64) Segment { return Segment{Index: index, IsIndex: true} }

// NestedPath is a sequence of Segments, the first naming a direct member
// of an Interface, the rest descending into whatever complex value that
// member holds (spec §4.4 "try_get_nested").
type NestedPath []Segment

// TryGetNested walks path starting from the interface's own members,
// descending into nested structs/arrays/instances via the small
// pointer.Keyed/pointer.Indexable interfaces so this package never needs
// to import internal/complexval or internal/operation.
func (in *Interface) TryGetNested(path NestedPath) (pointer.Pointer, error) {
	if len(path) == 0 {
		return nil, perror.New(perror.InvalidReference, "empty nested path")
	}
	if path[0].IsIndex {
		return nil, perror.New(perror.InvalidReference, "nested path must start with a named member")
	}
	cur, _, err := in.GetAny(path[0].Name)
	if err != nil {
		return nil, err
	}
	for _, seg := range path[1:] {
		if seg.IsIndex {
			idx, ok := cur.(pointer.Indexable)
			if !ok {
				return nil, perror.New(perror.InvalidReference, "value is not indexable")
			}
			cur, err = idx.ElementAt(seg.Index)
		} else {
			keyed, ok := cur.(pointer.Keyed)
			if !ok {
				return nil, perror.New(perror.InvalidReference, "value has no members")
			}
			cur, err = keyed.MemberAt(seg.Name)
		}
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// EachOrdered walks every section in the fixed serialization order
// (spec §4.4), calling fn per member.
func (in *Interface) EachOrdered(fn func(kind Kind, name ident.ID, p pointer.Pointer) error) error {
	for _, kind := range orderedKinds {
		if err := in.Each(kind, func(name ident.ID, p pointer.Pointer) error {
			return fn(kind, name, p)
		}); err != nil {
			return err
		}
	}
	return nil
}
