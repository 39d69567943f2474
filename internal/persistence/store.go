package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store owns the open database connection and the table schema for one
// dialect (spec §11 DOMAIN STACK: "pluggable snapshot/history store —
// default sqlite3, swappable dialect").
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects to dsn under dialect and ensures the schema exists.
// Generalizes the teacher's Connect (dial, then sql.Open+Ping) from a
// single ad hoc probe connection to a long-lived store opened once per
// simulation run.
func Open(dialect Dialect, dsn string) (*Store, error) {
	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("persistence: open %s: %w", dialect, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("persistence: ping %s: %w", dialect, err)
	}
	s := &Store{db: db, dialect: dialect}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the three history tables if they don't already exist:
// cycle snapshots, unit-test outcomes, and monitor events, each keyed by
// run id (spec §11 "cycle counters, unit-test run history, monitor
// history").
func (s *Store) migrate() error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS cycle_snapshots (
			id %s,
			run_id VARCHAR(36) NOT NULL,
			cycle BIGINT NOT NULL,
			status VARCHAR(16) NOT NULL,
			logged_at TIMESTAMP NOT NULL
		)`, s.dialect.autoIncrement()),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS unit_test_history (
			id %s,
			run_id VARCHAR(36) NOT NULL,
			op_id BIGINT NOT NULL,
			label VARCHAR(255) NOT NULL,
			state VARCHAR(16) NOT NULL,
			message VARCHAR(1024) NOT NULL,
			logged_at TIMESTAMP NOT NULL
		)`, s.dialect.autoIncrement()),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS monitor_history (
			id %s,
			run_id VARCHAR(36) NOT NULL,
			cycle BIGINT NOT NULL,
			cell_id BIGINT NOT NULL,
			display VARCHAR(1024) NOT NULL,
			logged_at TIMESTAMP NOT NULL
		)`, s.dialect.autoIncrement()),
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("persistence: migrate: %w", err)
		}
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// SnapshotRecord is one run's cycle/status sample (spec §4.8 status
// machine).
type SnapshotRecord struct {
	RunID    uuid.UUID
	Cycle    int64
	Status   string
	LoggedAt time.Time
}

// UnitTestRecord is one unit test's outcome for a run (spec §4.8
// scenario 5, generalizing broadcast.UnitTestOutcome).
type UnitTestRecord struct {
	RunID    uuid.UUID
	OpID     uint64
	Label    string
	State    string
	Message  string
	LoggedAt time.Time
}

// MonitorRecord is one monitor event for a run (spec §6 "Monitor
// event").
type MonitorRecord struct {
	RunID    uuid.UUID
	Cycle    int64
	CellID   uint32
	Display  string
	LoggedAt time.Time
}

func (s *Store) insertSnapshot(ctx context.Context, tx *sql.Tx, r SnapshotRecord) error {
	q := fmt.Sprintf("INSERT INTO cycle_snapshots (run_id, cycle, status, logged_at) VALUES (%s, %s, %s, %s)",
		s.dialect.placeholder(1), s.dialect.placeholder(2), s.dialect.placeholder(3), s.dialect.placeholder(4))
	_, err := tx.ExecContext(ctx, q, r.RunID.String(), r.Cycle, r.Status, r.LoggedAt)
	return err
}

func (s *Store) insertUnitTest(ctx context.Context, tx *sql.Tx, r UnitTestRecord) error {
	q := fmt.Sprintf("INSERT INTO unit_test_history (run_id, op_id, label, state, message, logged_at) VALUES (%s, %s, %s, %s, %s, %s)",
		s.dialect.placeholder(1), s.dialect.placeholder(2), s.dialect.placeholder(3),
		s.dialect.placeholder(4), s.dialect.placeholder(5), s.dialect.placeholder(6))
	_, err := tx.ExecContext(ctx, q, r.RunID.String(), r.OpID, r.Label, r.State, r.Message, r.LoggedAt)
	return err
}

func (s *Store) insertMonitor(ctx context.Context, tx *sql.Tx, r MonitorRecord) error {
	q := fmt.Sprintf("INSERT INTO monitor_history (run_id, cycle, cell_id, display, logged_at) VALUES (%s, %s, %s, %s, %s)",
		s.dialect.placeholder(1), s.dialect.placeholder(2), s.dialect.placeholder(3),
		s.dialect.placeholder(4), s.dialect.placeholder(5))
	_, err := tx.ExecContext(ctx, q, r.RunID.String(), r.Cycle, r.CellID, r.Display, r.LoggedAt)
	return err
}

// RunHistory is the full recorded history for one run, for the host to
// review after a simulation stops.
type RunHistory struct {
	Snapshots []SnapshotRecord
	UnitTests []UnitTestRecord
	Monitors  []MonitorRecord
}

// History loads every record persisted for runID, across all three
// tables, ordered by logged_at.
func (s *Store) History(ctx context.Context, runID uuid.UUID) (RunHistory, error) {
	var h RunHistory

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT cycle, status, logged_at FROM cycle_snapshots WHERE run_id = %s ORDER BY logged_at", s.dialect.placeholder(1)),
		runID.String())
	if err != nil {
		return h, fmt.Errorf("persistence: query snapshots: %w", err)
	}
	for rows.Next() {
		var r SnapshotRecord
		r.RunID = runID
		if err := rows.Scan(&r.Cycle, &r.Status, &r.LoggedAt); err != nil {
			rows.Close()
			return h, err
		}
		h.Snapshots = append(h.Snapshots, r)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT op_id, label, state, message, logged_at FROM unit_test_history WHERE run_id = %s ORDER BY logged_at", s.dialect.placeholder(1)),
		runID.String())
	if err != nil {
		return h, fmt.Errorf("persistence: query unit tests: %w", err)
	}
	for rows.Next() {
		var r UnitTestRecord
		r.RunID = runID
		if err := rows.Scan(&r.OpID, &r.Label, &r.State, &r.Message, &r.LoggedAt); err != nil {
			rows.Close()
			return h, err
		}
		h.UnitTests = append(h.UnitTests, r)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT cycle, cell_id, display, logged_at FROM monitor_history WHERE run_id = %s ORDER BY logged_at", s.dialect.placeholder(1)),
		runID.String())
	if err != nil {
		return h, fmt.Errorf("persistence: query monitors: %w", err)
	}
	for rows.Next() {
		var r MonitorRecord
		r.RunID = runID
		if err := rows.Scan(&r.Cycle, &r.CellID, &r.Display, &r.LoggedAt); err != nil {
			rows.Close()
			return h, err
		}
		h.Monitors = append(h.Monitors, r)
	}
	rows.Close()

	return h, nil
}
