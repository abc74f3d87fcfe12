// Package storage creates and seeds the lab tables and reads them back.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	cerrors "github.com/canonica-labs/identlab/internal/errors"
	labsql "github.com/canonica-labs/identlab/internal/sql"
	"github.com/canonica-labs/identlab/migrations"
)

// MigrationRunner applies the embedded seed scripts to one store.
// A store only receives the scripts for the tables it hosts.
type MigrationRunner struct {
	db      *sql.DB
	dialect labsql.Dialect
	tables  map[string]bool
	source  fs.FS
}

// NewMigrationRunner creates a runner for db. With no tables given, every
// script is applied.
func NewMigrationRunner(db *sql.DB, dialect labsql.Dialect, tables ...string) *MigrationRunner {
	r := &MigrationRunner{
		db:      db,
		dialect: dialect,
		source:  migrations.FS,
	}
	if len(tables) > 0 {
		r.tables = make(map[string]bool, len(tables))
		for _, t := range tables {
			r.tables[t] = true
		}
	}
	return r
}

// WithSource replaces the embedded scripts.
func (r *MigrationRunner) WithSource(source fs.FS) *MigrationRunner {
	r.source = source
	return r
}

// Run executes all pending migrations and returns the versions it applied.
func (r *MigrationRunner) Run(ctx context.Context) ([]string, error) {
	if err := r.ensureMigrationsTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := r.getAppliedMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	pending, err := r.getMigrationFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to read migration files: %w", err)
	}

	var done []string
	for _, m := range pending {
		if applied[m.version] {
			continue
		}
		if err := r.applyMigration(ctx, m); err != nil {
			return done, cerrors.NewMigrationFailed(m.name, err)
		}
		done = append(done, m.name)
	}

	return done, nil
}

type migration struct {
	version  string
	name     string
	table    string
	filename string
	content  []byte
}

func (r *MigrationRunner) ensureMigrationsTable(ctx context.Context) error {
	// applied_at is text so the same DDL works on every engine.
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at VARCHAR(64) NOT NULL
		)
	`
	_, err := r.db.ExecContext(ctx, query)
	return err
}

func (r *MigrationRunner) getAppliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func (r *MigrationRunner) getMigrationFiles() ([]migration, error) {
	var migrationList []migration

	entries, err := fs.ReadDir(r.source, ".")
	if err != nil {
		return migrationList, nil
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".up.sql") {
			continue
		}

		// 000001_fruit.up.sql -> version 000001, table fruit
		baseName := strings.TrimSuffix(name, ".up.sql")
		parts := strings.SplitN(baseName, "_", 2)
		if len(parts) < 2 {
			continue
		}
		table := strings.SplitN(parts[1], "_", 2)[0]
		if r.tables != nil && !r.tables[table] {
			continue
		}

		content, err := fs.ReadFile(r.source, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		migrationList = append(migrationList, migration{
			version:  parts[0],
			name:     baseName,
			table:    table,
			filename: name,
			content:  content,
		})
	}

	sort.Slice(migrationList, func(i, j int) bool {
		return migrationList[i].version < migrationList[j].version
	})

	return migrationList, nil
}

func (r *MigrationRunner) applyMigration(ctx context.Context, m migration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range SplitStatements(string(m.content)) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	record := fmt.Sprintf(
		"INSERT INTO schema_migrations (version, applied_at) VALUES (%s, %s)",
		r.dialect.Placeholder(1), r.dialect.Placeholder(2),
	)
	if _, err := tx.ExecContext(ctx, record, m.version, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}

	return nil
}

// SplitStatements splits a script on semicolons outside single-quoted
// literals and drops empty statements and "--" line comments.
func SplitStatements(script string) []string {
	var (
		out     []string
		current strings.Builder
		inQuote bool
	)

	lines := strings.Split(script, "\n")
	for _, line := range lines {
		if !inQuote && strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		for i := 0; i < len(line); i++ {
			c := line[i]
			switch {
			case c == '\'':
				inQuote = !inQuote
				current.WriteByte(c)
			case c == ';' && !inQuote:
				if s := strings.TrimSpace(current.String()); s != "" {
					out = append(out, s)
				}
				current.Reset()
			default:
				current.WriteByte(c)
			}
		}
		current.WriteByte('\n')
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		out = append(out, s)
	}
	return out
}
