// Package main is the entrypoint for the identlab gateway container.
// It serves the lab endpoints with configuration from config.yaml and the
// environment, the same way 'identlab serve' does.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/canonica-labs/identlab/internal/bootstrap"
	"github.com/canonica-labs/identlab/internal/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gateway: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "config file (default: ./config.yaml)")
		addr       = flag.String("addr", "", "HTTP listen address (overrides server.addr)")
		binding    = flag.String("binding", "", "native or emulated (overrides binding)")
		seed       = flag.Bool("seed", true, "apply seed migrations on startup")
		devMode    = flag.Bool("dev", false, "serve both tables from one embedded store")
		showVer    = flag.Bool("version", false, "Show version")
	)
	flag.Parse()

	if *showVer {
		fmt.Printf("identlab-gateway %s (commit: %s, built: %s)\n", version, commit, date)
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *binding != "" {
		cfg.Binding = *binding
	}
	if *devMode {
		cfg.Dev.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return bootstrap.Serve(ctx, cfg, bootstrap.ServeOptions{
		Version: version,
		Seed:    *seed,
	})
}
