package broadcast

import "testing"

func TestMonitorPublishOnce(t *testing.T) {
	b := New(false)
	b.ResetCycle()
	b.Publish(7, "true")

	events := b.Monitors()
	if len(events) != 1 || events[0].CellID != 7 || events[0].Display != "true" {
		t.Fatalf("events = %+v", events)
	}
}

func TestBreakpointOneShotDisarms(t *testing.T) {
	b := New(false)
	b.SetBreakpoint(5, false)

	if !b.ShouldBreak(5) {
		t.Fatal("expected break on first hit")
	}
	if b.ShouldBreak(5) {
		t.Fatal("one-shot breakpoint should disarm after firing")
	}
}

func TestBreakpointStickyStaysArmed(t *testing.T) {
	b := New(false)
	b.SetBreakpoint(5, true)

	if !b.ShouldBreak(5) || !b.ShouldBreak(5) {
		t.Fatal("sticky breakpoint should remain armed across hits")
	}
}

func TestUnitTestsPassedStopCondition(t *testing.T) {
	b := New(false)
	b.RegisterUnitTest(1, "assert true")
	b.RegisterUnitTest(2, "assert false")

	if b.AllUnitTestsReached() {
		t.Fatal("should not be reached before any test runs")
	}

	b.RecordUnitTest(1, true, "")
	if b.AllUnitTestsReached() {
		t.Fatal("still one Unreached test")
	}

	b.RecordUnitTest(2, false, "expected true, got false")
	if !b.AllUnitTestsReached() {
		t.Fatal("both tests reached (one failed) should satisfy the stop condition")
	}

	report := b.UnitTests()
	if report.Total != 2 || report.Passed != 1 || report.Failed != 1 {
		t.Fatalf("report = %+v", report)
	}
}

func TestLogSectionNesting(t *testing.T) {
	b := New(false)
	b.ResetCycle()
	closeOB := b.OpenSection("OB1")
	b.Log("asg ok")
	closeInst := b.OpenSection("Motor1")
	b.Log("input assign")
	closeInst()
	closeOB()

	lines := b.RenderLog()
	if len(lines) < 3 {
		t.Fatalf("expected nested log lines, got %v", lines)
	}
}
