package complexval

import (
	"testing"

	"plcsim/internal/ident"
	"plcsim/internal/perror"
	"plcsim/internal/pointer"
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

func TestArrayBoundsAndIteration(t *testing.T) {
	arr, err := NewArray(1, 3, func(i int64) (pointer.Pointer, error) {
		return mustCell(t, types.DInt, int32(i*10)), nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if arr.Len() != 3 {
		t.Fatalf("Len() = %d", arr.Len())
	}
	if _, err := arr.At(0); !perror.Is(err, perror.IndexOutOfBounds) {
		t.Fatalf("expected IndexOutOfBounds, got %v", err)
	}
	if _, err := arr.At(4); !perror.Is(err, perror.IndexOutOfBounds) {
		t.Fatalf("expected IndexOutOfBounds, got %v", err)
	}

	var seen []int64
	_ = arr.Each(func(index int64, p pointer.Pointer) error {
		seen = append(seen, index)
		return nil
	})
	if len(seen) != 3 || seen[0] != 1 || seen[2] != 3 {
		t.Fatalf("ascending iteration order violated: %v", seen)
	}
}

func TestStructMemberNotFound(t *testing.T) {
	in := ident.New()
	s := NewStruct()
	s.Add(in.Intern("speed"), mustCell(t, types.Real, float32(1.5)))

	if _, err := s.Get(in.Intern("missing")); !perror.Is(err, perror.MemberNotFound) {
		t.Fatalf("expected MemberNotFound, got %v", err)
	}

	var order []ident.ID
	_ = s.Each(func(name ident.ID, p pointer.Pointer) error {
		order = append(order, name)
		return nil
	})
	if len(order) != 1 {
		t.Fatalf("insertion order not preserved: %v", order)
	}
}
