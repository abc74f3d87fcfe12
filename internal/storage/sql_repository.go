package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/canonica-labs/identlab/pkg/models"
)

// SQLRepository implements SeedRepository over a database/sql handle.
type SQLRepository struct {
	db *sql.DB
}

// NewSQLRepository creates a repository reading from db.
func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

// Fruit returns every fruit row ordered by id.
func (r *SQLRepository) Fruit(ctx context.Context) ([]models.Fruit, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, color, price FROM fruit ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query fruit: %w", err)
	}
	defer rows.Close()

	out := make([]models.Fruit, 0)
	for rows.Next() {
		var (
			f     models.Fruit
			color sql.NullString
		)
		if err := rows.Scan(&f.ID, &f.Name, &color, &f.Price); err != nil {
			return nil, fmt.Errorf("failed to scan fruit: %w", err)
		}
		if color.Valid {
			c := color.String
			f.Color = &c
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Users returns every user row ordered by id.
func (r *SQLRepository) Users(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, email, role FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	out := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Count returns the number of rows in table. Only the lab tables are accepted.
func (r *SQLRepository) Count(ctx context.Context, table string) (int, error) {
	if table != TableFruit && table != TableUsers {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}
