package builder

import (
	"testing"

	"plcsim/internal/broadcast"
	"plcsim/internal/complexval"
	"plcsim/internal/decl"
	"plcsim/internal/dispatch"
	"plcsim/internal/operation"
	"plcsim/internal/registry"
	"plcsim/internal/types"
)

func loadDoc(t *testing.T, raw string) *decl.Document {
	t.Helper()
	doc, err := decl.Load([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func newTestBuilder(t *testing.T) (*Builder, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	dispatch.PopulateAllowList(reg)
	return New(reg), reg
}

const counterProgram = `{
  "file:program/Main": {
    "ty": "ob",
    "src": {
      "static": {
        "counter": {"ty": "DInt", "src": {"value": 0}}
      },
      "body": [
        {
          "ty": "calc", "id": 1,
          "calc": {"ty": "local", "path": ["counter"]},
          "with": {"ty": "const", "family": "DInt", "value": 1},
          "operator": "add"
        }
      ]
    }
  }
}`

func TestBuildAllSolvesInterfaceAndBody(t *testing.T) {
	b, reg := newTestBuilder(t)
	if err := b.LoadDocument(registry.Program, loadDoc(t, counterProgram)); err != nil {
		t.Fatal(err)
	}
	if err := b.BuildAll(); err != nil {
		t.Fatal(err)
	}

	name := reg.Interner.Intern("Main")
	st := b.states[name]
	if st.ifaceStatus != Solved || st.bodyStatus != Solved {
		t.Fatalf("expected both statuses Solved, got iface=%v body=%v", st.ifaceStatus, st.bodyStatus)
	}
	if len(st.body) != 1 {
		t.Fatalf("expected one translated operation, got %d", len(st.body))
	}

	ctx := &operation.Context{Registry: reg, Broadcast: broadcast.New(false)}
	if _, err := st.body[0].Run(ctx); err != nil {
		t.Fatal(err)
	}
	counterPtr, err := st.iface.Get(sectionKindOf("static"), reg.Interner.Intern("counter"))
	if err != nil {
		t.Fatal(err)
	}
	counter := counterPtr.(*types.Cell)
	if counter.Get().(int32) != 1 {
		t.Fatalf("counter = %v, want 1", counter.Get())
	}
}

const forProgram = `{
  "file:program/Main": {
    "ty": "ob",
    "src": {
      "static": {
        "i": {"ty": "DInt", "src": {"value": 0}},
        "sum": {"ty": "DInt", "src": {"value": 0}}
      },
      "body": [
        {
          "ty": "for", "id": 1,
          "counter": {"ty": "local", "path": ["i"]},
          "start": {"ty": "const", "family": "DInt", "value": 1},
          "end": {"ty": "const", "family": "DInt", "value": 3},
          "body": [
            {
              "ty": "calc", "id": 2,
              "calc": {"ty": "local", "path": ["sum"]},
              "with": {"ty": "local", "path": ["i"]},
              "operator": "add"
            }
          ]
        }
      ]
    }
  }
}`

func TestForLoopDefaultsUnitStepAndSumsRange(t *testing.T) {
	b, reg := newTestBuilder(t)
	if err := b.LoadDocument(registry.Program, loadDoc(t, forProgram)); err != nil {
		t.Fatal(err)
	}
	if err := b.BuildAll(); err != nil {
		t.Fatal(err)
	}

	name := reg.Interner.Intern("Main")
	st := b.states[name]
	ctx := &operation.Context{Registry: reg, Broadcast: broadcast.New(false)}
	for _, op := range st.body {
		if _, err := op.Run(ctx); err != nil {
			t.Fatal(err)
		}
	}

	sumPtr, err := st.iface.Get(sectionKindOf("static"), reg.Interner.Intern("sum"))
	if err != nil {
		t.Fatal(err)
	}
	sum := sumPtr.(*types.Cell)
	if sum.Get().(int32) != 6 {
		t.Fatalf("sum = %v, want 6 (1+2+3)", sum.Get())
	}
}

const udtProgram = `{
  "file:program/Point": {
    "ty": "udt",
    "src": {
      "members": {
        "x": {"ty": "DInt", "src": {"value": 0}},
        "y": {"ty": "DInt", "src": {"value": 0}}
      }
    }
  },
  "file:program/Main": {
    "ty": "ob",
    "src": {
      "static": {
        "origin": {"ty": "udt", "src": {"of": "Point"}}
      },
      "body": []
    }
  }
}`

func TestUdtReferenceClonesPrototype(t *testing.T) {
	b, reg := newTestBuilder(t)
	if err := b.LoadDocument(registry.Program, loadDoc(t, udtProgram)); err != nil {
		t.Fatal(err)
	}
	if err := b.BuildAll(); err != nil {
		t.Fatal(err)
	}

	name := reg.Interner.Intern("Main")
	st := b.states[name]
	originPtr, err := st.iface.Get(sectionKindOf("static"), reg.Interner.Intern("origin"))
	if err != nil {
		t.Fatal(err)
	}
	origin, ok := originPtr.(*complexval.Struct)
	if !ok {
		t.Fatalf("expected origin to be a Struct, got %T", originPtr)
	}
	xPtr, err := origin.Get(reg.Interner.Intern("x"))
	if err != nil {
		t.Fatal(err)
	}
	if xPtr.(*types.Cell).Get().(int32) != 0 {
		t.Fatalf("x = %v, want 0", xPtr.(*types.Cell).Get())
	}

	udtName := reg.Interner.Intern("Point")
	protoSt := b.states[udtName]
	if protoSt.kind != registry.Udt {
		t.Fatalf("expected Point to be registered as a Udt, got %v", protoSt.kind)
	}
	if protoSt.udtProto == nil {
		t.Fatal("expected Point's prototype to be built")
	}
}

const recursiveUdtProgram = `{
  "file:program/A": {
    "ty": "udt",
    "src": {"members": {"b": {"ty": "udt", "src": {"of": "B"}}}}
  },
  "file:program/B": {
    "ty": "udt",
    "src": {"members": {"a": {"ty": "udt", "src": {"of": "A"}}}}
  }
}`

func TestRecursiveUdtReferenceFailsWithCycle(t *testing.T) {
	b, _ := newTestBuilder(t)
	if err := b.LoadDocument(registry.Program, loadDoc(t, recursiveUdtProgram)); err != nil {
		t.Fatal(err)
	}
	if err := b.BuildAll(); err == nil {
		t.Fatal("expected a cyclic udt reference to fail")
	}
}

func TestBlockKindOfAcceptsWireSpellingsOnly(t *testing.T) {
	cases := []struct {
		ty string
		ok bool
	}{
		{"ob", true},
		{"fb", true},
		{"fc", true},
		{"global_db", true},
		{"instance_db", true},
		{"udt", true},
		{"template", true},
		{"db", false}, // not a recognized wire spelling, spec §6
		{"bogus", false},
	}
	for _, c := range cases {
		_, ok := blockKindOf(c.ty)
		if ok != c.ok {
			t.Errorf("blockKindOf(%q) ok = %v, want %v", c.ty, ok, c.ok)
		}
	}
}

const globalDbProgram = `{
  "file:program/Shared": {
    "ty": "global_db",
    "src": {
      "static": {"total": {"ty": "DInt", "src": {"value": 7}}}
    }
  },
  "file:program/Main": {
    "ty": "ob",
    "src": {
      "static": {},
      "body": [
        {
          "ty": "calc", "id": 1,
          "calc": {"ty": "local", "path": ["Shared", "total"]},
          "with": {"ty": "const", "family": "DInt", "value": 1},
          "operator": "add"
        }
      ]
    }
  }
}`

func TestGlobalDbBlockBuildsAndIsAddressableFromAnotherBlock(t *testing.T) {
	b, reg := newTestBuilder(t)
	if err := b.LoadDocument(registry.Program, loadDoc(t, globalDbProgram)); err != nil {
		t.Fatal(err)
	}
	if err := b.BuildAll(); err != nil {
		t.Fatal(err)
	}

	dbName := reg.Interner.Intern("Shared")
	dbSt := b.states[dbName]
	if dbSt.kind != registry.GlobalDb {
		t.Fatalf("expected Shared to be registered as a GlobalDb, got %v", dbSt.kind)
	}

	mainName := reg.Interner.Intern("Main")
	mainSt := b.states[mainName]
	ctx := &operation.Context{Registry: reg, Broadcast: broadcast.New(false)}
	if _, err := mainSt.body[0].Run(ctx); err != nil {
		t.Fatal(err)
	}

	totalPtr, err := dbSt.iface.Get(sectionKindOf("static"), reg.Interner.Intern("total"))
	if err != nil {
		t.Fatal(err)
	}
	if total := totalPtr.(*types.Cell).Get().(int32); total != 8 {
		t.Fatalf("Shared.total = %v, want 8", total)
	}
}

const instanceCallProgram = `{
  "file:program/Counter": {
    "ty": "fb",
    "src": {
      "static": {"count": {"ty": "DInt", "src": {"value": 0}}},
      "body": [
        {
          "ty": "calc", "id": 1,
          "calc": {"ty": "local", "path": ["count"]},
          "with": {"ty": "const", "family": "DInt", "value": 1},
          "operator": "add"
        }
      ]
    }
  },
  "file:program/MyCounter": {
    "ty": "instance_db",
    "src": {"instance_of": "Counter"}
  },
  "file:program/Main": {
    "ty": "ob",
    "src": {
      "static": {},
      "body": [
        {"ty": "call", "id": 2, "instance": ["MyCounter"], "inputs": {}, "outputs": {}}
      ]
    }
  }
}`

func TestInstanceDbCallPersistsStaticAcrossCycles(t *testing.T) {
	b, reg := newTestBuilder(t)
	if err := b.LoadDocument(registry.Program, loadDoc(t, instanceCallProgram)); err != nil {
		t.Fatal(err)
	}
	if err := b.BuildAll(); err != nil {
		t.Fatal(err)
	}

	mainName := reg.Interner.Intern("Main")
	mainSt := b.states[mainName]
	if len(mainSt.body) != 1 {
		t.Fatalf("expected one translated call operation, got %d", len(mainSt.body))
	}

	ctx := &operation.Context{Registry: reg, Broadcast: broadcast.New(false)}
	for i := 0; i < 2; i++ {
		if _, err := mainSt.body[0].Run(ctx); err != nil {
			t.Fatalf("cycle %d: %v", i+1, err)
		}
	}

	instName := reg.Interner.Intern("MyCounter")
	block, ok := reg.LookupIn(registry.Program, instName)
	if !ok {
		t.Fatal("expected MyCounter to be registered")
	}
	inst, ok := block.Instance.(*operation.Instance)
	if !ok {
		t.Fatalf("expected block.Instance to be an *operation.Instance, got %T", block.Instance)
	}
	countPtr, err := inst.Interface.Get(sectionKindOf("static"), reg.Interner.Intern("count"))
	if err != nil {
		t.Fatal(err)
	}
	if count := countPtr.(*types.Cell).Get().(int32); count != 2 {
		t.Fatalf("MyCounter.count = %v, want 2 (persisted across two calls)", count)
	}
}

func TestInstanceDbMissingInstanceOfFails(t *testing.T) {
	const doc = `{
	  "file:program/Orphan": {
	    "ty": "instance_db",
	    "src": {}
	  }
	}`
	b, _ := newTestBuilder(t)
	if err := b.LoadDocument(registry.Program, loadDoc(t, doc)); err != nil {
		t.Fatal(err)
	}
	if err := b.BuildAll(); err == nil {
		t.Fatal("expected a missing instance_of to fail")
	}
}
