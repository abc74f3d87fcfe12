package gateway

import (
	"context"
	"testing"

	"github.com/canonica-labs/identlab/internal/adapters"
	"github.com/canonica-labs/identlab/internal/adapters/sqlite"
	"github.com/canonica-labs/identlab/internal/observability"
	labsql "github.com/canonica-labs/identlab/internal/sql"
	"github.com/canonica-labs/identlab/internal/storage"
)

// TestOption customizes NewTestGateway.
type TestOption func(*testOptions)

type testOptions struct {
	binding labsql.Binding
	logger  observability.QueryLogger
	wrap    func(adapters.Adapter) adapters.Adapter
}

// WithBinding selects the adapter's binding mode.
func WithBinding(b labsql.Binding) TestOption {
	return func(o *testOptions) { o.binding = b }
}

// WithLogger replaces the NoopLogger.
func WithLogger(l observability.QueryLogger) TestOption {
	return func(o *testOptions) { o.logger = l }
}

// WithAdapterWrapper wraps the seeded adapter before it is registered.
func WithAdapterWrapper(wrap func(adapters.Adapter) adapters.Adapter) TestOption {
	return func(o *testOptions) { o.wrap = wrap }
}

// NewTestStore opens an in-memory SQLite store seeded with both lab tables.
func NewTestStore(t testing.TB, binding labsql.Binding) *adapters.SQLAdapter {
	t.Helper()

	adapter, err := sqlite.NewAdapterWithConfig(sqlite.AdapterConfig{
		DatabasePath: ":memory:",
		Binding:      binding,
	})
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { adapter.Close() })

	if _, err := storage.NewMigrationRunner(adapter.DB(), adapter.Dialect()).Run(context.Background()); err != nil {
		t.Fatalf("failed to seed test store: %v", err)
	}
	return adapter
}

// NewTestGateway creates a gateway over a seeded in-memory SQLite store that
// serves both the fruit and users roles.
func NewTestGateway(t testing.TB, opts ...TestOption) *Gateway {
	t.Helper()

	o := testOptions{binding: labsql.BindingNative}
	for _, opt := range opts {
		opt(&o)
	}

	var adapter adapters.Adapter = NewTestStore(t, o.binding)
	if o.wrap != nil {
		adapter = o.wrap(adapter)
	}

	registry := adapters.NewAdapterRegistry()
	for _, table := range storage.Tables() {
		registry.Register(table, adapter)
	}

	gw, err := NewGateway(registry, Config{Version: "test", Logger: o.logger})
	if err != nil {
		t.Fatalf("failed to create test gateway: %v", err)
	}
	return gw
}
