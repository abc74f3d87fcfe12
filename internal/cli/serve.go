package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/canonica-labs/identlab/internal/bootstrap"
	cerrors "github.com/canonica-labs/identlab/internal/errors"
	labsql "github.com/canonica-labs/identlab/internal/sql"
)

func (c *CLI) newServeCmd() *cobra.Command {
	var (
		addr    string
		binding string
		seed    bool
		dev     bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the lab gateway",
		Long: `Run the lab gateway in the foreground.

The gateway waits for its stores, optionally applies the seed scripts, and
serves /health, /safe, /vuln and /vuln-pg until interrupted. On shutdown it
prints a summary of rejected columns and suspicious statements.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				c.cfg.Server.Addr = addr
			}
			if binding != "" {
				if _, err := labsql.ParseBinding(binding); err != nil {
					return cerrors.NewInvalidConfig("binding", err.Error())
				}
				c.cfg.Binding = binding
			}
			if dev {
				c.cfg.Dev.Enabled = true
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c.debugf("serve: addr=%s binding=%s dev=%v\n", c.cfg.Server.Addr, c.cfg.Binding, c.cfg.Dev.Enabled)
			return bootstrap.Serve(ctx, c.cfg, bootstrap.ServeOptions{
				Version:   Version,
				Seed:      seed,
				LogOutput: c.stderr,
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().StringVar(&binding, "binding", "", "native or emulated (overrides binding)")
	cmd.Flags().BoolVar(&seed, "seed", false, "apply seed migrations before serving")
	cmd.Flags().BoolVar(&dev, "dev", false, "serve both tables from one embedded store")

	return cmd
}
