package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/canonica-labs/identlab/internal/adapters"
	"github.com/canonica-labs/identlab/internal/config"
	"github.com/canonica-labs/identlab/internal/gateway"
	"github.com/canonica-labs/identlab/internal/observability"
)

// ServeOptions controls Serve.
type ServeOptions struct {
	// Version is reported by the gateway.
	Version string

	// Seed applies the seed scripts before serving.
	Seed bool

	// Retry bounds the wait for the stores. Zero means DefaultRetryConfig.
	Retry adapters.RetryConfig

	// LogOutput receives the request log. Defaults to log.Writer().
	LogOutput io.Writer

	// Ready, when set, receives the bound listener address once the
	// server accepts connections.
	Ready chan<- string
}

// Serve opens the stores, prepares them and serves the gateway on
// cfg.Server.Addr until ctx is cancelled. On shutdown it logs the audit
// summary and closes the stores.
func Serve(ctx context.Context, cfg *config.Config, opts ServeOptions) error {
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = adapters.DefaultRetryConfig()
	}
	if opts.LogOutput == nil {
		opts.LogOutput = log.Writer()
	}

	registry, err := OpenStores(cfg)
	if err != nil {
		return fmt.Errorf("failed to open stores: %w", err)
	}
	defer registry.CloseAll()

	if err := Prepare(ctx, registry, cfg, opts.Retry, opts.Seed); err != nil {
		return err
	}

	logger := observability.NewLogger(opts.LogOutput, cfg.Logging.Level, cfg.Logging.Format)
	gw, err := gateway.NewGateway(registry, gateway.Config{
		Version: opts.Version,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create gateway: %w", err)
	}

	listener, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.Addr, err)
	}

	server := &http.Server{
		Handler:      gw,
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()

	log.Printf("identlab gateway listening on %s (binding=%s)", listener.Addr(), cfg.BindingMode())
	if opts.Ready != nil {
		opts.Ready <- listener.Addr().String()
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		log.Println("Shutting down gateway...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}

	log.Printf("Audit summary: %s", gw.AuditSummary())
	return nil
}
