package ident

import "testing"

func TestInternRoundTrip(t *testing.T) {
	in := New()
	ids := map[string]ID{}
	for _, s := range []string{"test", "counter", "test", "Motor1"} {
		ids[s] = in.Intern(s)
	}

	for s, id := range ids {
		got, ok := in.Resolve(id)
		if !ok || got != s {
			t.Fatalf("Resolve(%d) = %q, %v; want %q, true", id, got, ok, s)
		}
		if again := in.Intern(s); again != id {
			t.Fatalf("Intern(%q) = %d on second call; want %d", s, again, id)
		}
	}
}

func TestResolveUnknown(t *testing.T) {
	in := New()
	in.Intern("a")
	if _, ok := in.Resolve(999); ok {
		t.Fatal("Resolve of unknown id should fail")
	}
}

func TestInternPath(t *testing.T) {
	in := New()
	p := in.InternPath([]string{"Motor_DB", "Static", "speed"})
	if got := p.Resolve(in); got != "Motor_DB.Static.speed" {
		t.Fatalf("Resolve = %q", got)
	}
}
