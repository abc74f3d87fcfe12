package storage

import (
	"context"
	"fmt"

	"github.com/canonica-labs/identlab/pkg/models"
)

// FixtureRepository serves the rows the seed scripts insert, without a store.
// Tests compare a migrated store against it.
type FixtureRepository struct{}

// NewFixtureRepository returns the seed fixture.
func NewFixtureRepository() *FixtureRepository {
	return &FixtureRepository{}
}

func color(s string) *string { return &s }

// Fruit returns the seeded fruit rows.
func (FixtureRepository) Fruit(ctx context.Context) ([]models.Fruit, error) {
	return []models.Fruit{
		{ID: 1, Name: "apple", Color: color("red"), Price: 10},
		{ID: 2, Name: "banana", Color: color("yellow"), Price: 5},
		{ID: 3, Name: "cherry", Color: color("red"), Price: 20},
		{ID: 4, Name: "grape", Color: color("purple"), Price: 15},
		{ID: 5, Name: "lemon", Color: nil, Price: 7},
	}, nil
}

// Users returns the seeded user rows.
func (FixtureRepository) Users(ctx context.Context) ([]models.User, error) {
	return []models.User{
		{ID: 1, Name: "alice", Email: "alice@example.com", Role: "admin"},
		{ID: 2, Name: "bob", Email: "bob@example.com", Role: "user"},
		{ID: 3, Name: "carol", Email: "carol@example.com", Role: "user"},
	}, nil
}

// Count returns the seeded row count of table.
func (f FixtureRepository) Count(ctx context.Context, table string) (int, error) {
	switch table {
	case TableFruit:
		rows, _ := f.Fruit(ctx)
		return len(rows), nil
	case TableUsers:
		rows, _ := f.Users(ctx)
		return len(rows), nil
	}
	return 0, fmt.Errorf("unknown table %q", table)
}
