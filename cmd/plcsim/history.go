package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"plcsim/internal/persistence"
)

// openStoreFlag splits a "--db" flag value of the form "dialect:dsn"
// (e.g. "sqlite3:run.db", "postgres:host=... dbname=...") and opens the
// corresponding store.
func openStoreFlag(flagVal string) (*persistence.Store, func(), error) {
	name, dsn, ok := strings.Cut(flagVal, ":")
	if !ok {
		return nil, nil, fmt.Errorf("--db must be of the form dialect:dsn, got %q", flagVal)
	}
	dialect, err := persistence.ParseDialect(name)
	if err != nil {
		return nil, nil, err
	}
	store, err := persistence.Open(dialect, dsn)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { store.Close() }, nil
}

func historyCommand(args []string) error {
	flags := flagArgs(args)

	dbFlag := flags["db"]
	if dbFlag == "" {
		return fmt.Errorf("history requires --db=<dialect:dsn>")
	}
	runFlag := flags["run"]
	if runFlag == "" {
		return fmt.Errorf("history requires --run=<uuid>")
	}
	runID, err := uuid.Parse(runFlag)
	if err != nil {
		return fmt.Errorf("invalid --run value: %w", err)
	}

	store, closeFn, err := openStoreFlag(dbFlag)
	if err != nil {
		return err
	}
	defer closeFn()

	hist, err := store.History(context.Background(), runID)
	if err != nil {
		return err
	}

	fmt.Printf("run %s: %d snapshot(s), %d unit test outcome(s), %d monitor event(s)\n",
		runID, len(hist.Snapshots), len(hist.UnitTests), len(hist.Monitors))
	for _, s := range hist.Snapshots {
		fmt.Printf("  cycle %d: %s (%s)\n", s.Cycle, s.Status, s.LoggedAt.Format("15:04:05.000"))
	}
	for _, u := range hist.UnitTests {
		fmt.Printf("  unit test %q: %s %s\n", u.Label, u.State, u.Message)
	}
	for _, m := range hist.Monitors {
		fmt.Printf("  cycle %d monitor %d: %s\n", m.Cycle, m.CellID, m.Display)
	}
	return nil
}
