package cli

import (
	"context"
	"sort"

	"github.com/spf13/cobra"

	"github.com/canonica-labs/identlab/internal/adapters"
	"github.com/canonica-labs/identlab/internal/bootstrap"
)

func (c *CLI) newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create and seed the lab tables",
		Long: `Apply the embedded seed scripts. fruit is created on the MySQL store and
users on the PostgreSQL store (or both on the dev store). Scripts already
recorded in schema_migrations are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runMigrate(cmd.Context())
		},
	}
}

func (c *CLI) runMigrate(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	registry, err := bootstrap.OpenStores(c.cfg)
	if err != nil {
		return err
	}
	defer registry.CloseAll()

	if err := adapters.WaitForStores(ctx, registry, adapters.DefaultRetryConfig()); err != nil {
		return err
	}

	applied, err := bootstrap.Seed(ctx, registry)
	if err != nil {
		return err
	}

	if c.jsonOutput {
		return c.outputJSON(map[string]interface{}{
			"applied": applied,
		})
	}

	stores := make([]string, 0, len(applied))
	for store := range applied {
		stores = append(stores, store)
	}
	sort.Strings(stores)

	total := 0
	for _, store := range stores {
		for _, name := range applied[store] {
			c.printf("✓ %s: %s\n", store, name)
			total++
		}
	}
	if total == 0 {
		c.println("Nothing to apply - stores are up to date")
	}
	return nil
}
