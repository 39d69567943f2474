package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(SQLite, "file::memory:?cache=shared")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestParseDialectAcceptsTeacherAliases(t *testing.T) {
	cases := map[string]Dialect{
		"sqlite3":    SQLite,
		"":           SQLite,
		"mysql":      MySQL,
		"postgresql": Postgres,
		"mssql":      SQLServer,
	}
	for name, want := range cases {
		got, err := ParseDialect(name)
		if err != nil {
			t.Fatalf("ParseDialect(%q): %v", name, err)
		}
		if got != want {
			t.Fatalf("ParseDialect(%q) = %v, want %v", name, got, want)
		}
	}
	if _, err := ParseDialect("oracle"); err == nil {
		t.Fatal("expected an error for an unsupported dialect")
	}
}

func TestOpenMigratesSchema(t *testing.T) {
	s := openTestStore(t)
	runID := uuid.New()
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.insertSnapshot(ctx, tx, SnapshotRecord{RunID: runID, Cycle: 1, Status: "Running", LoggedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	hist, err := s.History(ctx, runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist.Snapshots) != 1 || hist.Snapshots[0].Cycle != 1 {
		t.Fatalf("snapshots = %+v, want one row at cycle 1", hist.Snapshots)
	}
}

func TestFlusherWritesQueuedRecords(t *testing.T) {
	s := openTestStore(t)
	f := NewFlusher(s, 16)
	runID := uuid.New()

	if !f.QueueSnapshot(SnapshotRecord{RunID: runID, Cycle: 1, Status: "Running", LoggedAt: time.Now()}) {
		t.Fatal("expected snapshot to be accepted")
	}
	if !f.QueueUnitTest(UnitTestRecord{RunID: runID, OpID: 7, Label: "edge case", State: "Passed", LoggedAt: time.Now()}) {
		t.Fatal("expected unit test outcome to be accepted")
	}
	if !f.QueueMonitor(MonitorRecord{RunID: runID, Cycle: 1, CellID: 42, Display: "DInt#3", LoggedAt: time.Now()}) {
		t.Fatal("expected monitor event to be accepted")
	}

	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	hist, err := s.History(context.Background(), runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist.Snapshots) != 1 {
		t.Fatalf("snapshots = %d, want 1", len(hist.Snapshots))
	}
	if len(hist.UnitTests) != 1 || hist.UnitTests[0].Label != "edge case" {
		t.Fatalf("unit tests = %+v, want one row", hist.UnitTests)
	}
	if len(hist.Monitors) != 1 || hist.Monitors[0].Display != "DInt#3" {
		t.Fatalf("monitors = %+v, want one row", hist.Monitors)
	}
}
