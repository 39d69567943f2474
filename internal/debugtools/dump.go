// Package debugtools formats a paused cycle's live state for a human at
// a breakpoint (spec §4.8 "Breakpoints": "the host may inspect cell
// values while the engine is parked"). It never mutates anything it
// walks; it is purely a read side used by whatever host reacts to a
// paused Broadcast status.
//
// Grounded on the teacher's internal/debugger/debugger.go
// ShowCurrentLocation/ShowWatches (printing the paused program's
// current location and watched values), generalized from source-line
// text + an unevaluated watch list to a recursive dump of section
// interfaces built from the same pointer.Keyed/pointer.Indexable
// descent internal/section.TryGetNested uses.
package debugtools

import (
	"fmt"
	"strings"

	"github.com/kr/pretty"

	"plcsim/internal/complexval"
	"plcsim/internal/ident"
	"plcsim/internal/operation"
	"plcsim/internal/pointer"
	"plcsim/internal/section"
	"plcsim/internal/types"
)

// Dump renders every section of iface, in spec §4.4's fixed
// serialization order, as indented text suitable for a paused-at-
// breakpoint console dump.
func Dump(interner *ident.Interner, iface *section.Interface) string {
	var b strings.Builder
	_ = iface.EachOrdered(func(kind section.Kind, name ident.ID, p pointer.Pointer) error {
		fmt.Fprintf(&b, "%s.%s = %s\n", kind, interner.MustResolve(name), describe(interner, p, 1))
		return nil
	})
	return b.String()
}

// describe renders one pointer's value, recursing into structs, arrays,
// and instances at increasing indent depth; a plain Cell is formatted
// with kr/pretty so its native Go value (bool/int32/float64/string/...)
// prints in a consistent, diffable form.
func describe(interner *ident.Interner, p pointer.Pointer, depth int) string {
	indent := strings.Repeat("  ", depth)
	switch v := p.(type) {
	case *types.Cell:
		return fmt.Sprintf("%s (%s)", pretty.Sprint(v.Get()), v.Family())
	case *complexval.Struct:
		var b strings.Builder
		b.WriteString("{\n")
		_ = v.Each(func(name ident.ID, member pointer.Pointer) error {
			fmt.Fprintf(&b, "%s%s = %s\n", indent, interner.MustResolve(name), describe(interner, member, depth+1))
			return nil
		})
		fmt.Fprintf(&b, "%s}", strings.Repeat("  ", depth-1))
		return b.String()
	case *complexval.Array:
		var b strings.Builder
		b.WriteString("[\n")
		_ = v.Each(func(index int64, elem pointer.Pointer) error {
			fmt.Fprintf(&b, "%s[%d] = %s\n", indent, index, describe(interner, elem, depth+1))
			return nil
		})
		fmt.Fprintf(&b, "%s]", strings.Repeat("  ", depth-1))
		return b.String()
	case *operation.Instance:
		var b strings.Builder
		fmt.Fprintf(&b, "instance %s {\n", v.Name)
		_ = v.Interface.EachOrdered(func(kind section.Kind, name ident.ID, member pointer.Pointer) error {
			fmt.Fprintf(&b, "%s%s.%s = %s\n", indent, kind, interner.MustResolve(name), describe(interner, member, depth+1))
			return nil
		})
		fmt.Fprintf(&b, "%s}", strings.Repeat("  ", depth-1))
		return b.String()
	default:
		return pretty.Sprint(v)
	}
}

// Watch is one path the host wants re-evaluated on every pause, named
// by its dotted path (spec §4.4 nested path), generalizing the
// teacher's AddWatch/ShowWatches from an unevaluated expression string
// to an eagerly-resolvable one.
type Watch struct {
	Label string
	Path  section.NestedPath
}

// EvalWatches resolves every watch against iface, rendering whatever it
// finds (or the lookup error, so a stale watch never aborts the whole
// dump).
func EvalWatches(interner *ident.Interner, iface *section.Interface, watches []Watch) string {
	var b strings.Builder
	for _, w := range watches {
		p, err := iface.TryGetNested(w.Path)
		if err != nil {
			fmt.Fprintf(&b, "%s = <error: %v>\n", w.Label, err)
			continue
		}
		fmt.Fprintf(&b, "%s = %s\n", w.Label, describe(interner, p, 1))
	}
	return b.String()
}
