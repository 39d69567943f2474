package builder

import (
	"encoding/json"

	"plcsim/internal/perror"
	"plcsim/internal/pointer"
	"plcsim/internal/registry"
	"plcsim/internal/section"
	"plcsim/internal/types"
)

// targetSpec is the JsonTarget shape every operand/destination reference
// decodes through (spec §4.6 "a JsonTarget is either a constant or a
// local pointer, resolved once at build time"): a literal constant, or a
// dotted path resolved first against the owning block's own interface,
// falling back to a global (Db-qualified) reference via the registry.
type targetSpec struct {
	Ty     string          `json:"ty"`
	Family string          `json:"family,omitempty"`
	Value  json.RawMessage `json:"value,omitempty"`
	Path   []string        `json:"path,omitempty"`
}

// resolvePointer resolves any JsonTarget to the pointer.Pointer it
// names, building a fresh read-only cell for a constant or walking the
// interface/registry for a local reference.
func (tb *bodyTranslator) resolvePointer(raw json.RawMessage) (pointer.Pointer, error) {
	var ts targetSpec
	if err := json.Unmarshal(raw, &ts); err != nil {
		return nil, perror.Wrap(perror.ParseError, err, "decoding target")
	}
	switch ts.Ty {
	case "const":
		return tb.resolveConst(ts)
	case "local":
		return tb.resolveLocalPath(ts.Path)
	}
	return nil, perror.Newf(perror.ParseError, "unsupported target kind %q", ts.Ty)
}

func (tb *bodyTranslator) resolveConst(ts targetSpec) (pointer.Pointer, error) {
	family, ok := types.ParseFamily(ts.Family)
	if !ok {
		return nil, perror.Newf(perror.ParseError, "unknown constant family %q", ts.Family)
	}
	var native any
	var err error
	if len(ts.Value) == 0 {
		native = defaultNative(family)
	} else {
		native, err = unmarshalNative(family, ts.Value)
		if err != nil {
			return nil, err
		}
	}
	return types.NewCell(family, native, true, 0)
}

// resolveLocalPath walks path against the owning block's own interface
// first; if that fails (the path names a Db-qualified global instead),
// it falls back to the registry's nested lookup (spec §4.1 find_nested).
func (tb *bodyTranslator) resolveLocalPath(path []string) (pointer.Pointer, error) {
	if len(path) == 0 {
		return nil, perror.New(perror.ParseError, "local reference missing a path")
	}
	interner := tb.builder.Reg.Interner
	segs := make(section.NestedPath, len(path))
	for i, seg := range path {
		segs[i] = section.NamedSegment(interner.Intern(seg))
	}
	if p, err := tb.iface.TryGetNested(segs); err == nil {
		return p, nil
	}

	ipath := interner.InternPath(path)
	kind, val, err := tb.builder.Reg.FindNested(ipath)
	if err != nil {
		return nil, err
	}
	switch kind {
	case registry.NestedLocal:
		p, ok := val.(pointer.Pointer)
		if !ok {
			return nil, perror.Newf(perror.InvalidReference, "reference %v did not resolve to a value", path)
		}
		return p, nil
	case registry.NestedGlobal:
		// A bare reference to an instance_db resolves to the instance
		// itself (spec §4.6 "call"); any other bare block reference
		// (Ob/Fb/Fc/Udt/global Db) is not a value.
		if p, ok := val.(pointer.Pointer); ok {
			return p, nil
		}
		return nil, perror.Newf(perror.InvalidReference, "reference %v names a block, not a value", path)
	}
	return nil, perror.Newf(perror.InvalidReference, "unresolved reference %v", path)
}

// resolveCell resolves a JsonTarget and requires it to be a scalar.
func (tb *bodyTranslator) resolveCell(raw json.RawMessage) (*types.Cell, error) {
	p, err := tb.resolvePointer(raw)
	if err != nil {
		return nil, err
	}
	c, ok := p.(*types.Cell)
	if !ok {
		return nil, perror.New(perror.TypeMismatch, "expected a scalar reference")
	}
	return c, nil
}
