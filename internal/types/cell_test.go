package types

import (
	"testing"

	"plcsim/internal/perror"
)

type fakeSink struct {
	calls []struct {
		id      uint32
		display string
	}
}

func (f *fakeSink) Publish(id uint32, display string) {
	f.calls = append(f.calls, struct {
		id      uint32
		display string
	}{id, display})
}

func TestSetGet(t *testing.T) {
	c, err := NewCell(Bool, false, false, 0)
	if err != nil {
		t.Fatal(err)
	}
	sink := &fakeSink{}
	if err := c.Set(true, sink); err != nil {
		t.Fatal(err)
	}
	if got := c.Get().(bool); !got {
		t.Fatal("expected true after Set")
	}
	if len(sink.calls) != 1 || sink.calls[0].display != "true" {
		t.Fatalf("monitor not published correctly: %+v", sink.calls)
	}
}

func TestReadOnlyRejectsSet(t *testing.T) {
	c, _ := NewCell(DInt, int32(5), true, 0)
	if err := c.Set(int32(6), nil); !perror.Is(err, perror.ReadOnly) {
		t.Fatalf("expected ReadOnly, got %v", err)
	}
	if c.Get().(int32) != 5 {
		t.Fatal("value must be unchanged after rejected set")
	}
}

func TestResetIdempotence(t *testing.T) {
	c, _ := NewCell(DInt, int32(0), false, 0)
	sink := &fakeSink{}
	c.Set(int32(99), sink)
	c.Reset(sink)
	if c.Get().(int32) != 0 {
		t.Fatal("reset should restore default")
	}
	c.Reset(sink)
	if c.Get().(int32) != 0 {
		t.Fatal("second reset should be a no-op on value")
	}
	if len(sink.calls) != 3 {
		t.Fatalf("expected 3 monitor events (set + 2 resets), got %d", len(sink.calls))
	}
}

func TestStringMaxLength(t *testing.T) {
	long := make([]byte, 257)
	for i := range long {
		long[i] = 'a'
	}
	_, err := NewCell(String, string(long), false, 0)
	if !perror.Is(err, perror.Overflow) {
		t.Fatalf("expected Overflow for oversized string, got %v", err)
	}
}

func TestFloatDisplayScale(t *testing.T) {
	c, _ := NewCell(Real, float32(3.14159265), false, 0)
	if got := c.Display(); got != "3.1415927" {
		t.Fatalf("Display() = %q", got)
	}
	c2, _ := NewCell(Real, float32(314159.265), false, 0)
	if got := c2.Display(); got != "314159.25" {
		t.Fatalf("Display() = %q", got)
	}
}
