package section

import (
	"testing"

	"plcsim/internal/ident"
	"plcsim/internal/perror"
	"plcsim/internal/pointer"
	"plcsim/internal/types"
)

func TestNoDuplicateMemberAcrossSections(t *testing.T) {
	in := ident.New()
	iface := NewInterface()
	speed := in.Intern("speed")
	c, _ := types.NewCell(types.Real, float32(0), false, 0)

	if err := iface.Add(Input, speed, c); err != nil {
		t.Fatal(err)
	}
	c2, _ := types.NewCell(types.Real, float32(0), false, 0)
	if err := iface.Add(Output, speed, c2); !perror.Is(err, perror.Duplicate) {
		t.Fatalf("expected Duplicate, got %v", err)
	}
}

func TestResetSectionRestoresDefaults(t *testing.T) {
	in := ident.New()
	iface := NewInterface()
	counter := in.Intern("counter")
	c, _ := types.NewCell(types.DInt, int32(0), false, 0)
	iface.Add(Temp, counter, c)

	c.Set(int32(42), nil)
	iface.ResetSection(Temp, nil)

	got, _ := iface.Get(Temp, counter)
	if got.(*types.Cell).Get().(int32) != 0 {
		t.Fatal("ResetSection should restore default")
	}
}

func TestEachOrderedFixedOrder(t *testing.T) {
	in := ident.New()
	iface := NewInterface()
	c1, _ := types.NewCell(types.Bool, false, false, 0)
	c2, _ := types.NewCell(types.Bool, false, false, 0)
	iface.Add(Temp, in.Intern("t"), c1)
	iface.Add(Input, in.Intern("i"), c2)

	var kinds []Kind
	_ = iface.EachOrdered(func(kind Kind, name ident.ID, p pointer.Pointer) error {
		kinds = append(kinds, kind)
		return nil
	})
	if len(kinds) != 2 || kinds[0] != Input || kinds[1] != Temp {
		t.Fatalf("EachOrdered did not follow fixed order: %v", kinds)
	}
}
