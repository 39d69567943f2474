// Package persistence implements the simulator's cycle-snapshot,
// unit-test-history, and monitor-history store (spec §6 "External
// interfaces" — the host may want durable history of what a run did).
// It is pluggable across SQL dialects the way the teacher's
// internal/database/database.go registers its drivers, and flushes in
// the background so writing history never blocks the single-threaded
// engine (spec §5).
package persistence

import (
	"fmt"
	"strings"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect names one of the registered database/sql drivers and knows
// how to build both its driver name and its DSN, generalizing the
// teacher's Connect method's dbType switch from a single ad hoc
// connection to a reusable store opened once per run.
type Dialect int

const (
	SQLite Dialect = iota
	MySQL
	Postgres
	SQLServer
)

func (d Dialect) String() string {
	switch d {
	case MySQL:
		return "mysql"
	case Postgres:
		return "postgres"
	case SQLServer:
		return "sqlserver"
	default:
		return "sqlite3"
	}
}

// ParseDialect maps a configuration string (spec §10.3 configuration
// surface) to a Dialect, accepting the teacher's same aliases
// ("postgresql", "mssql").
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "sqlite3", "sqlite", "":
		return SQLite, nil
	case "mysql":
		return MySQL, nil
	case "postgres", "postgresql":
		return Postgres, nil
	case "sqlserver", "mssql":
		return SQLServer, nil
	}
	return 0, fmt.Errorf("persistence: unsupported dialect %q", name)
}

// driverName is the name each driver registers itself under via
// database/sql's Register, which is what must be passed to sql.Open.
func (d Dialect) driverName() string {
	switch d {
	case MySQL:
		return "mysql"
	case Postgres:
		return "postgres"
	case SQLServer:
		return "sqlserver"
	default:
		return "sqlite3"
	}
}

// placeholder returns the positional-parameter marker this dialect's
// driver expects in a prepared statement, since only lib/pq and
// go-mssqldb use numbered markers.
func (d Dialect) placeholder(n int) string {
	switch d {
	case Postgres:
		return fmt.Sprintf("$%d", n)
	case SQLServer:
		return fmt.Sprintf("@p%d", n)
	default:
		return "?"
	}
}

// autoIncrement returns this dialect's spelling of an auto-incrementing
// primary key column, since every driver here disagrees about it.
func (d Dialect) autoIncrement() string {
	switch d {
	case Postgres:
		return "SERIAL PRIMARY KEY"
	case SQLServer:
		return "INT IDENTITY(1,1) PRIMARY KEY"
	case MySQL:
		return "INTEGER PRIMARY KEY AUTO_INCREMENT"
	default:
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
}
