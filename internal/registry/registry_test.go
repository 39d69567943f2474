package registry

import (
	"testing"

	"plcsim/internal/ident"
	"plcsim/internal/perror"
	"plcsim/internal/section"
	"plcsim/internal/types"
)

func TestRegisterGlobalDuplicate(t *testing.T) {
	r := New()
	name := r.Interner.Intern("Motor_OB")
	if err := r.RegisterGlobal(Program, name, &Block{Kind: Ob, Name: name, Namespace: Program}); err != nil {
		t.Fatal(err)
	}
	if err := r.RegisterGlobal(Program, name, &Block{Kind: Ob, Name: name, Namespace: Program}); !perror.Is(err, perror.Duplicate) {
		t.Fatalf("expected Duplicate, got %v", err)
	}
}

func TestFindNestedIntoDbOnly(t *testing.T) {
	r := New()
	dbName := r.Interner.Intern("Motor_DB")
	member := r.Interner.Intern("speed")

	iface := section.NewInterface()
	c, _ := types.NewCell(types.Real, float32(1), false, 0)
	iface.Add(section.Static, member, c)

	r.RegisterGlobal(Program, dbName, &Block{Kind: GlobalDb, Name: dbName, Namespace: Program, Interface: iface})

	kind, val, err := r.FindNested(ident.Path{dbName, member})
	if err != nil {
		t.Fatal(err)
	}
	if kind != NestedLocal {
		t.Fatalf("expected NestedLocal, got %v", kind)
	}
	if val.(*types.Cell).Get().(float32) != 1 {
		t.Fatal("expected to resolve to the speed cell")
	}
}

func TestFindNestedNonDbIsLeaf(t *testing.T) {
	r := New()
	name := r.Interner.Intern("MyFc")
	r.RegisterGlobal(Program, name, &Block{Kind: Fc, Name: name, Namespace: Program})

	kind, _, err := r.FindNested(ident.Path{name})
	if err != nil {
		t.Fatal(err)
	}
	if kind != NestedGlobal {
		t.Fatalf("expected NestedGlobal for a leaf block, got %v", kind)
	}
}

func TestFilteredOperationAllowList(t *testing.T) {
	r := New()
	r.AllowOperation("add", types.DInt, types.DInt)

	if err := r.CheckFilteredOperation("add", types.DInt, types.DInt); err != nil {
		t.Fatal(err)
	}
	if err := r.CheckFilteredOperation("add", types.DInt, types.Real); !perror.Is(err, perror.TypeMismatch) {
		t.Fatalf("expected TypeMismatch, got %v", err)
	}
}
