package duckdb

import (
	"context"
	"testing"

	"github.com/canonica-labs/identlab/internal/identifier"
	labsql "github.com/canonica-labs/identlab/internal/sql"
	"github.com/canonica-labs/identlab/internal/storage"
)

// TestDuckDB_SeedAndProject verifies the dev engine runs the lab statements.
//
// Green-Flag: Seeded rows are projected through the shared in-memory database.
func TestDuckDB_SeedAndProject(t *testing.T) {
	adapter, err := NewAdapter()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer adapter.Close()

	ctx := context.Background()
	if _, err := storage.NewMigrationRunner(adapter.DB(), adapter.Dialect()).Run(ctx); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	stmt := labsql.NewBuilder(adapter.Dialect()).Build("fruit", "price", identifier.DoubleQuote, "grape")
	result, err := adapter.Execute(ctx, stmt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RowCount != 1 || *result.Rows[0] != "15" {
		t.Errorf("expected [15], got %v", result.Values())
	}
}

// TestDuckDB_UnknownColumn verifies a bad identifier reaches the engine.
//
// Red-Flag: DuckDB rejects the column and the error is classified.
func TestDuckDB_UnknownColumn(t *testing.T) {
	adapter, err := NewAdapter()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer adapter.Close()

	ctx := context.Background()
	if _, err := storage.NewMigrationRunner(adapter.DB(), adapter.Dialect(), storage.TableFruit).Run(ctx); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	stmt := labsql.NewBuilder(adapter.Dialect()).Build("fruit", "nope", identifier.DoubleQuote, "apple")
	if _, err := adapter.Execute(ctx, stmt); err == nil {
		t.Fatal("expected error for unknown column")
	}
}
