// Package duckdb provides the DuckDB store adapter.
// DuckDB is an alternative embedded engine for dev mode.
package duckdb

import (
	"database/sql"
	"fmt"

	"github.com/canonica-labs/identlab/internal/adapters"
	labsql "github.com/canonica-labs/identlab/internal/sql"

	_ "github.com/marcboeker/go-duckdb" // DuckDB driver
)

// DriverName is the database/sql driver name.
const DriverName = "duckdb"

// AdapterConfig configures the DuckDB adapter.
type AdapterConfig struct {
	// DatabasePath is the path to the DuckDB database file.
	// Use ":memory:" for in-memory database.
	DatabasePath string

	// Binding selects native or emulated argument binding.
	Binding labsql.Binding
}

// NewAdapter creates a DuckDB adapter with an in-memory database.
func NewAdapter() (*adapters.SQLAdapter, error) {
	return NewAdapterWithConfig(AdapterConfig{DatabasePath: ":memory:"})
}

// NewAdapterWithConfig creates a DuckDB adapter with the given configuration.
func NewAdapterWithConfig(config AdapterConfig) (*adapters.SQLAdapter, error) {
	path := config.DatabasePath
	if path == ":memory:" {
		path = ""
	}

	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("DuckDB adapter: open %q: %w", config.DatabasePath, err)
	}

	return adapters.NewSQLAdapter(DriverName, db, config.Binding), nil
}
