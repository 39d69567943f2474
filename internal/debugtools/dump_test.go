package debugtools

import (
	"strings"
	"testing"

	"plcsim/internal/complexval"
	"plcsim/internal/ident"
	"plcsim/internal/pointer"
	"plcsim/internal/section"
	"plcsim/internal/types"
)

func mustCell(t *testing.T, family types.Family, native any) *types.Cell {
	t.Helper()
	c, err := types.NewCell(family, native, false, 0)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestDumpRendersScalarAndStructMembers(t *testing.T) {
	interner := ident.New()
	iface := section.NewInterface()

	counter := mustCell(t, types.DInt, int32(42))
	if err := iface.Add(section.Static, interner.Intern("counter"), counter); err != nil {
		t.Fatal(err)
	}

	st := complexval.NewStruct()
	st.Add(interner.Intern("x"), mustCell(t, types.Real, float32(1.5)))
	if err := iface.Add(section.Static, interner.Intern("point"), st); err != nil {
		t.Fatal(err)
	}

	out := Dump(interner, iface)
	if !strings.Contains(out, "static.counter = int32(42) (DInt)") {
		t.Fatalf("dump missing counter line:\n%s", out)
	}
	if !strings.Contains(out, "static.point = {") || !strings.Contains(out, "x = float32(1.5) (Real)") {
		t.Fatalf("dump missing struct member line:\n%s", out)
	}
}

func TestEvalWatchesReportsMissingPath(t *testing.T) {
	interner := ident.New()
	iface := section.NewInterface()

	watches := []Watch{
		{Label: "missing", Path: section.NestedPath{section.NamedSegment(interner.Intern("nope"))}},
	}
	out := EvalWatches(interner, iface, watches)
	if !strings.Contains(out, "missing = <error:") {
		t.Fatalf("expected a reported lookup error, got:\n%s", out)
	}
}

var _ pointer.Pointer = (*types.Cell)(nil)
