package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	labsql "github.com/canonica-labs/identlab/internal/sql"
	"github.com/canonica-labs/identlab/internal/storage"
)

// TestSQLite_MemoryPoolIsPinned verifies seed data survives across calls.
//
// Green-Flag: Every statement sees the tables created by the migration.
func TestSQLite_MemoryPoolIsPinned(t *testing.T) {
	adapter, err := NewAdapter()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer adapter.Close()

	ctx := context.Background()
	if _, err := storage.NewMigrationRunner(adapter.DB(), adapter.Dialect()).Run(ctx); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := adapter.CheckHealth(ctx); err != nil {
			t.Fatalf("health check %d: %v", i, err)
		}
		n, err := storage.NewSQLRepository(adapter.DB()).Count(ctx, storage.TableUsers)
		if err != nil || n != 3 {
			t.Fatalf("expected 3 users, got %d (%v)", n, err)
		}
	}
	if adapter.DB().Stats().MaxOpenConnections != 1 {
		t.Errorf("expected a single pinned connection")
	}
}

// TestSQLite_FileDatabase verifies file paths are not pinned.
func TestSQLite_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lab.db")
	adapter, err := NewAdapterWithConfig(AdapterConfig{DatabasePath: path, Binding: labsql.BindingEmulated})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer adapter.Close()

	if adapter.Binding() != labsql.BindingEmulated {
		t.Errorf("expected emulated binding")
	}
	if adapter.DB().Stats().MaxOpenConnections != 0 {
		t.Errorf("expected an unbounded pool for a file database")
	}
	if err := adapter.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}
