package perror

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestAddFrameAccumulates(t *testing.T) {
	err := New(DivByZero, "divide by zero")
	err.AddFrame(7, "calc#7").AddFrame(3, "OB1")

	if len(err.IDStack) != 2 || err.IDStack[0] != 7 || err.IDStack[1] != 3 {
		t.Fatalf("IDStack = %v", err.IDStack)
	}
	if len(err.SimStack) != 2 || err.SimStack[0] != "calc#7" {
		t.Fatalf("SimStack = %v", err.SimStack)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	wrapped := Wrap(ParseError, cause, "decoding provider")

	if wrapped.Cause() == nil {
		t.Fatal("expected a wrapped cause")
	}
}

func TestPayloadSerializes(t *testing.T) {
	err := New(Overflow, "value out of range").AddFrame(42, "assign#42")
	payload := ToPayload(err)

	b, marshalErr := json.Marshal(payload)
	if marshalErr != nil {
		t.Fatal(marshalErr)
	}
	var decoded Payload
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded.IDStack) != 1 || decoded.IDStack[0] != 42 {
		t.Fatalf("id_stack round trip failed: %v", decoded.IDStack)
	}
}

func TestIsKind(t *testing.T) {
	err := New(WatchdogTimeout, "loop exceeded 1000ms")
	if !Is(err, WatchdogTimeout) {
		t.Fatal("Is should match kind")
	}
	if Is(err, DivByZero) {
		t.Fatal("Is should not match a different kind")
	}
}
