package complexval

import (
	"plcsim/internal/ident"
	"plcsim/internal/perror"
	"plcsim/internal/pointer"
	"plcsim/internal/types"
)

// Struct is an insertion-ordered mapping from member id to a pointer
// (spec §3 "Struct", §4.3). Ordering is preserved for deterministic
// iteration/serialization.
type Struct struct {
	order   []ident.ID
	members map[ident.ID]pointer.Pointer
}

// NewStruct creates an empty struct.
func NewStruct() *Struct {
	return &Struct{members: make(map[ident.ID]pointer.Pointer)}
}

// Add appends a new member, preserving insertion order. Adding the same
// id twice replaces the pointer but keeps its original position.
func (s *Struct) Add(name ident.ID, p pointer.Pointer) {
	if _, exists := s.members[name]; !exists {
		s.order = append(s.order, name)
	}
	s.members[name] = p
}

// Get looks up a member by id, failing with MemberNotFound otherwise
// (spec §4.3).
func (s *Struct) Get(name ident.ID) (pointer.Pointer, error) {
	p, ok := s.members[name]
	if !ok {
		return nil, perror.Newf(perror.MemberNotFound, "member %d not found", name)
	}
	return p, nil
}

// Each iterates members in insertion order.
func (s *Struct) Each(fn func(name ident.ID, p pointer.Pointer) error) error {
	for _, name := range s.order {
		if err := fn(name, s.members[name]); err != nil {
			return err
		}
	}
	return nil
}

// Len reports the member count.
func (s *Struct) Len() int { return len(s.order) }

// Clone deep-copies the struct, cloning every member via memberClone
// (used when materializing a Udt-typed member or an Fb's Static section
// at instance-db construction, spec §4.3).
func (s *Struct) Clone(memberClone func(pointer.Pointer) (pointer.Pointer, error)) (*Struct, error) {
	out := NewStruct()
	for _, name := range s.order {
		np, err := memberClone(s.members[name])
		if err != nil {
			return nil, err
		}
		out.Add(name, np)
	}
	return out, nil
}

// MemberAt implements pointer.Keyed.
func (s *Struct) MemberAt(name ident.ID) (pointer.Pointer, error) { return s.Get(name) }

// ResetValue implements pointer.Pointer by resetting every member.
func (s *Struct) ResetValue(sink types.MonitorSink) {
	for _, name := range s.order {
		s.members[name].ResetValue(sink)
	}
}
