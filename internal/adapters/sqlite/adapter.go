// Package sqlite provides the SQLite store adapter used in dev mode and tests.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/canonica-labs/identlab/internal/adapters"
	labsql "github.com/canonica-labs/identlab/internal/sql"

	_ "modernc.org/sqlite" // SQLite driver
)

// DriverName is the database/sql driver name.
const DriverName = "sqlite"

// AdapterConfig configures the SQLite adapter.
type AdapterConfig struct {
	// DatabasePath is a file path or ":memory:".
	DatabasePath string

	// Binding selects native or emulated argument binding.
	Binding labsql.Binding
}

// NewAdapter creates an in-memory SQLite adapter.
func NewAdapter() (*adapters.SQLAdapter, error) {
	return NewAdapterWithConfig(AdapterConfig{DatabasePath: ":memory:"})
}

// NewAdapterWithConfig creates a SQLite adapter with the given configuration.
func NewAdapterWithConfig(config AdapterConfig) (*adapters.SQLAdapter, error) {
	path := config.DatabasePath
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("SQLite adapter: open %q: %w", path, err)
	}

	// Every new connection to ":memory:" is a fresh empty database, so the
	// pool is pinned to the one connection that holds the seed data.
	if isMemory(path) {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}

	return adapters.NewSQLAdapter(DriverName, db, config.Binding), nil
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}
