// Package bootstrap opens the configured stores and prepares them for the
// gateway.
package bootstrap

import (
	"context"
	"fmt"
	"log"

	"github.com/canonica-labs/identlab/internal/adapters"
	"github.com/canonica-labs/identlab/internal/adapters/duckdb"
	"github.com/canonica-labs/identlab/internal/adapters/mysql"
	"github.com/canonica-labs/identlab/internal/adapters/postgres"
	"github.com/canonica-labs/identlab/internal/adapters/sqlite"
	"github.com/canonica-labs/identlab/internal/config"
	"github.com/canonica-labs/identlab/internal/storage"
)

// OpenStores builds the adapter registry described by cfg.
//
// In dev mode one embedded store serves both tables. Otherwise fruit lives
// in MySQL and users in PostgreSQL.
func OpenStores(cfg *config.Config) (*adapters.AdapterRegistry, error) {
	registry := adapters.NewAdapterRegistry()
	binding := cfg.BindingMode()

	if cfg.Dev.Enabled {
		var (
			store *adapters.SQLAdapter
			err   error
		)
		switch cfg.Dev.Engine {
		case config.EngineDuckDB:
			store, err = duckdb.NewAdapterWithConfig(duckdb.AdapterConfig{DatabasePath: cfg.Dev.Database, Binding: binding})
		default:
			store, err = sqlite.NewAdapterWithConfig(sqlite.AdapterConfig{DatabasePath: cfg.Dev.Database, Binding: binding})
		}
		if err != nil {
			return nil, err
		}
		for _, table := range storage.Tables() {
			registry.Register(table, store)
		}
		return registry, nil
	}

	my, err := mysql.NewAdapter(mysql.AdapterConfig{
		Host:              cfg.MySQL.Host,
		Port:              cfg.MySQL.Port,
		User:              cfg.MySQL.User,
		Password:          cfg.MySQL.Password,
		Database:          cfg.MySQL.Name,
		InterpolateParams: cfg.MySQL.InterpolateParams,
		Binding:           binding,
	})
	if err != nil {
		return nil, err
	}
	registry.Register(storage.TableFruit, my)

	pg, err := postgres.NewAdapter(postgres.AdapterConfig{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		Database: cfg.Postgres.Name,
		SSLMode:  cfg.Postgres.SSLMode,
		Binding:  binding,
	})
	if err != nil {
		my.Close()
		return nil, err
	}
	registry.Register(storage.TableUsers, pg)

	return registry, nil
}

// Seed applies the seed scripts to every store, each receiving only the
// tables it serves. It returns the applied migrations per store.
func Seed(ctx context.Context, registry *adapters.AdapterRegistry) (map[string][]string, error) {
	tablesOf := make(map[adapters.Adapter][]string)
	var order []adapters.Adapter
	for _, role := range registry.Roles() {
		a, _ := registry.Get(role)
		if _, seen := tablesOf[a]; !seen {
			order = append(order, a)
		}
		tablesOf[a] = append(tablesOf[a], role)
	}

	applied := make(map[string][]string)
	for _, a := range order {
		runner := storage.NewMigrationRunner(a.DB(), a.Dialect(), tablesOf[a]...)
		done, err := runner.Run(ctx)
		if err != nil {
			return applied, fmt.Errorf("%s: %w", a.Name(), err)
		}
		applied[a.Name()] = append(applied[a.Name()], done...)
	}
	return applied, nil
}

// Prepare waits for the stores to accept connections and, when seed is set
// or dev mode is on, applies the seed scripts.
func Prepare(ctx context.Context, registry *adapters.AdapterRegistry, cfg *config.Config, retry adapters.RetryConfig, seed bool) error {
	if err := adapters.WaitForStores(ctx, registry, retry); err != nil {
		return err
	}

	if !seed && !cfg.Dev.Enabled {
		return nil
	}

	applied, err := Seed(ctx, registry)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	for store, names := range applied {
		for _, name := range names {
			log.Printf("Applied migration %s on %s", name, store)
		}
	}
	return nil
}
