package storage

import (
	"context"

	"github.com/canonica-labs/identlab/pkg/models"
)

// SeedRepository reads the lab tables back.
// Implementations must return empty slices, not nil, for empty tables.
type SeedRepository interface {
	// Fruit returns every fruit row ordered by id.
	Fruit(ctx context.Context) ([]models.Fruit, error)

	// Users returns every user row ordered by id.
	Users(ctx context.Context) ([]models.User, error)

	// Count returns the number of rows in one of the lab tables.
	Count(ctx context.Context, table string) (int, error)
}

// Lab table names.
const (
	TableFruit = "fruit"
	TableUsers = "users"
)

// Tables lists the lab tables in migration order.
func Tables() []string {
	return []string{TableFruit, TableUsers}
}
