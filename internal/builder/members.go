package builder

import (
	"plcsim/internal/complexval"
	"plcsim/internal/decl"
	"plcsim/internal/perror"
	"plcsim/internal/pointer"
	"plcsim/internal/registry"
	"plcsim/internal/types"
)

// familyOfMember reports the family an excluded-type check should key
// on: a primitive cell's own family, or a sentinel that never matches
// any entry in the exclusion tables for anything complex (spec §4.1's
// check applies to primitive families only).
func familyOfMember(p pointer.Pointer) types.Family {
	if c, ok := p.(*types.Cell); ok {
		return c.Family()
	}
	return types.Family(-1)
}

// buildMember constructs the pointer.Pointer a section slot holds from
// its declaration: a primitive cell, an array, an inline struct, or a
// reference to a previously-built Udt prototype (spec §4.3, §6).
func (b *Builder) buildMember(md decl.MemberDecl) (pointer.Pointer, error) {
	switch md.Ty {
	case "array":
		return b.buildArray(md.Src)
	case "struct":
		return b.buildInlineStruct(md.Src.Members)
	case "udt":
		return b.buildUdtReference(md.Src.Of)
	default:
		return b.buildPrimitive(md.Ty, md.Src)
	}
}

func (b *Builder) buildPrimitive(tyTag string, src decl.MemberSrc) (pointer.Pointer, error) {
	family, ok := types.ParseFamily(tyTag)
	if !ok {
		return nil, perror.Newf(perror.ParseError, "unknown primitive family %q", tyTag)
	}
	native, err := decodeNative(family, src)
	if err != nil {
		return nil, err
	}
	pathID := b.nextID() // reused as a stand-in stable path id; the interner owns true path ids
	return types.NewCell(family, native, false, uint32(pathID))
}

func (b *Builder) buildArray(src decl.MemberSrc) (pointer.Pointer, error) {
	if src.Lo == nil || src.Hi == nil {
		return nil, perror.New(perror.ParseError, "array declaration missing lo/hi")
	}
	elemMember, ok := src.Members["element"]
	if !ok {
		return nil, perror.New(perror.ParseError, "array declaration missing element spec")
	}
	return complexval.NewArray(*src.Lo, *src.Hi, func(index int64) (pointer.Pointer, error) {
		return b.buildMember(elemMember)
	})
}

func (b *Builder) buildInlineStruct(members map[string]decl.MemberDecl) (pointer.Pointer, error) {
	out := complexval.NewStruct()
	for name, md := range members {
		p, err := b.buildMember(md)
		if err != nil {
			return nil, err
		}
		out.Add(b.Reg.Interner.Intern(name), p)
	}
	return out, nil
}

// buildUdtReference clones the named Udt's prototype, built once in
// buildInterface and reused for every reference (spec §4.3's Struct is
// "ordered member list" — a fresh clone per use keeps references from
// aliasing each other's cells).
func (b *Builder) buildUdtReference(udtName string) (pointer.Pointer, error) {
	name := b.Reg.Interner.Intern(udtName)
	st, ok := b.states[name]
	if !ok || st.kind != registry.Udt {
		return nil, perror.Newf(perror.NotFound, "udt %q not declared", udtName)
	}
	if st.ifaceStatus != Solved {
		if err := b.buildInterface(name); err != nil {
			return nil, err
		}
	}
	return st.udtProto.Clone(func(p pointer.Pointer) (pointer.Pointer, error) {
		return cloneValue(p)
	})
}

// cloneValue deep-copies any pointer.Pointer value for Udt/instance
// materialization, recursing through Array/Struct and re-constructing a
// fresh Cell for primitives (cells are not safely shareable — distinct
// Udt references must not alias the same cell).
func cloneValue(p pointer.Pointer) (pointer.Pointer, error) {
	switch v := p.(type) {
	case *types.Cell:
		return types.NewCell(v.Family(), v.Get(), v.ReadOnly(), v.PathID())
	case *complexval.Array:
		return v.Clone(cloneValue)
	case *complexval.Struct:
		return v.Clone(cloneValue)
	}
	return nil, perror.New(perror.Internal, "unrecognized value kind in cloneValue")
}

// buildUdtPrototype decodes a Udt's flat member list into a Struct
// prototype (spec §4.3 "Struct").
func (b *Builder) buildUdtPrototype(raw []byte) (*complexval.Struct, error) {
	var src decl.UdtSrc
	if err := decl.ParseSrc(raw, &src); err != nil {
		return nil, err
	}
	out := complexval.NewStruct()
	for name, md := range src.Members {
		p, err := b.buildMember(md)
		if err != nil {
			return nil, err
		}
		out.Add(b.Reg.Interner.Intern(name), p)
	}
	return out, nil
}

func decodeNative(family types.Family, src decl.MemberSrc) (any, error) {
	if len(src.Value) == 0 {
		return defaultNative(family), nil
	}
	return unmarshalNative(family, src.Value)
}
