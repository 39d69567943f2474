package pause

import (
	"testing"
	"time"

	"plcsim/internal/perror"
)

func TestWaitReturnsImmediatelyWhenRunning(t *testing.T) {
	c := New()
	if err := c.Wait(); err != nil {
		t.Fatalf("expected no error on a running channel, got %v", err)
	}
}

func TestPauseParksUntilResume(t *testing.T) {
	c := New()
	c.Pause()

	done := make(chan error, 1)
	go func() { done <- c.Wait() }()

	select {
	case <-done:
		t.Fatal("Wait returned before Resume was called")
	case <-time.After(20 * time.Millisecond):
	}

	c.Resume()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error after resume: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait never returned after Resume")
	}
}

func TestStopDuringPauseReturnsManualStop(t *testing.T) {
	c := New()
	c.Pause()

	done := make(chan error, 1)
	go func() { done <- c.Wait() }()

	time.Sleep(10 * time.Millisecond)
	c.RequestStop()

	select {
	case err := <-done:
		if !perror.Is(err, perror.ManualStop) {
			t.Fatalf("expected ManualStop, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait never returned after RequestStop")
	}
}

func TestResumeReportsElapsedDuration(t *testing.T) {
	c := New()
	c.Pause()
	time.Sleep(15 * time.Millisecond)
	elapsed := c.Resume()
	if elapsed < 10*time.Millisecond {
		t.Fatalf("elapsed = %v, want at least ~15ms", elapsed)
	}
}

func TestTimerSetShiftsRegisteredDeadlines(t *testing.T) {
	ts := NewTimerSet()
	base := time.Now()
	timer := &Timer{Deadline: base}
	unregister := ts.Register(timer)
	defer unregister()

	ts.Shift(100 * time.Millisecond)
	if !timer.Deadline.Equal(base.Add(100 * time.Millisecond)) {
		t.Fatalf("deadline = %v, want %v", timer.Deadline, base.Add(100*time.Millisecond))
	}
}

func TestTimerSetUnregisterStopsShifting(t *testing.T) {
	ts := NewTimerSet()
	base := time.Now()
	timer := &Timer{Deadline: base}
	unregister := ts.Register(timer)
	unregister()

	ts.Shift(100 * time.Millisecond)
	if !timer.Deadline.Equal(base) {
		t.Fatalf("deadline = %v, want unchanged %v", timer.Deadline, base)
	}
}
