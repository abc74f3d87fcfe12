package adapters_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonica-labs/identlab/internal/adapters"
	"github.com/canonica-labs/identlab/internal/adapters/sqlite"
	cerrors "github.com/canonica-labs/identlab/internal/errors"
	"github.com/canonica-labs/identlab/internal/identifier"
	labsql "github.com/canonica-labs/identlab/internal/sql"
	"github.com/canonica-labs/identlab/internal/storage"
)

func seeded(t *testing.T, binding labsql.Binding) *adapters.SQLAdapter {
	t.Helper()
	a, err := sqlite.NewAdapterWithConfig(sqlite.AdapterConfig{DatabasePath: ":memory:", Binding: binding})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	_, err = storage.NewMigrationRunner(a.DB(), a.Dialect()).Run(context.Background())
	require.NoError(t, err)
	return a
}

func build(a adapters.Adapter, table, col string, q identifier.Quote, name string) labsql.Statement {
	return labsql.NewBuilder(a.Dialect()).Build(table, string(identifier.Escape(col, q)), q, name)
}

// TestSQLAdapter_Execute verifies a projection through a scoped connection.
//
// Green-Flag: Rows come back in order with NULL preserved.
func TestSQLAdapter_Execute(t *testing.T) {
	a := seeded(t, labsql.BindingNative)

	res, err := a.Execute(context.Background(), build(a, "fruit", "color", identifier.DoubleQuote, "lemon"))
	require.NoError(t, err)
	require.Equal(t, 1, res.RowCount)
	assert.Nil(t, res.Rows[0])
	assert.Equal(t, []string{""}, res.Values())

	res, err = a.Execute(context.Background(), build(a, "fruit", "price", identifier.Backtick, "cherry"))
	require.NoError(t, err)
	assert.Equal(t, []string{"20"}, res.Values())
	assert.Equal(t, "SELECT `price` AS val FROM fruit WHERE name = ?", res.Executed)
}

// TestSQLAdapter_NoMatchIsEmpty verifies an empty result is not nil.
func TestSQLAdapter_NoMatchIsEmpty(t *testing.T) {
	a := seeded(t, labsql.BindingNative)

	res, err := a.Execute(context.Background(), build(a, "fruit", "name", identifier.Backtick, "durian"))
	require.NoError(t, err)
	assert.NotNil(t, res.Rows)
	assert.Empty(t, res.Rows)
}

// TestSQLAdapter_EmulatedRendersText verifies emulated binding.
//
// Red-Flag: The executed text carries the value and the marker inside the
// identifier is bound.
func TestSQLAdapter_EmulatedRendersText(t *testing.T) {
	a := seeded(t, labsql.BindingEmulated)

	res, err := a.Execute(context.Background(), build(a, "fruit", "name", identifier.Backtick, "apple"))
	require.NoError(t, err)
	assert.Equal(t, "SELECT `name` AS val FROM fruit WHERE name = 'apple'", res.Executed)
	assert.Equal(t, []string{"apple"}, res.Values())

	_, err = a.Execute(context.Background(), build(a, "fruit", "??", identifier.Backtick, "apple"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, labsql.ErrPlaceholderMismatch))
	assert.Equal(t, adapters.CodeBindMismatch, adapters.DriverCode(err))
}

// TestSQLAdapter_ExecutionError verifies driver errors are typed.
//
// Red-Flag: An unknown column fails with ErrExecutionFailed carrying the query.
func TestSQLAdapter_ExecutionError(t *testing.T) {
	a := seeded(t, labsql.BindingNative)

	stmt := build(a, "fruit", "email", identifier.Backtick, "apple")
	_, err := a.Execute(context.Background(), stmt)
	require.Error(t, err)

	var ef *cerrors.ErrExecutionFailed
	require.True(t, errors.As(err, &ef))
	assert.Equal(t, stmt.Template, ef.Query)
	assert.Equal(t, adapters.CodeUndefinedColumn, adapters.DriverCode(ef.Cause))
	assert.Contains(t, cerrors.PublicMessage(err), "email")
}

// TestSQLAdapter_Closed verifies a closed adapter refuses work.
//
// Red-Flag: Execute after Close is a connection failure, and Close is idempotent.
func TestSQLAdapter_Closed(t *testing.T) {
	a, err := sqlite.NewAdapter()
	require.NoError(t, err)
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())

	_, err = a.Execute(context.Background(), labsql.Statement{Template: "SELECT 1"})
	var cf *cerrors.ErrConnectionFailed
	assert.True(t, errors.As(err, &cf))
	assert.Error(t, a.Ping(context.Background()))
	assert.Error(t, a.CheckHealth(context.Background()))
}

// TestSQLAdapter_CancelledContext verifies no statement runs after cancel.
func TestSQLAdapter_CancelledContext(t *testing.T) {
	a := seeded(t, labsql.BindingNative)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Execute(ctx, build(a, "fruit", "name", identifier.Backtick, "apple"))
	assert.Equal(t, cerrors.CodeConnection, cerrors.CodeOf(err))
}

// TestAdapterRegistry verifies role lookup and health aggregation.
func TestAdapterRegistry(t *testing.T) {
	r := adapters.NewAdapterRegistry()
	assert.True(t, r.IsEmpty())

	shared := seeded(t, labsql.BindingNative)
	r.Register(storage.TableUsers, shared)
	r.Register(storage.TableFruit, shared)

	assert.Equal(t, []string{"fruit", "users"}, r.Roles())
	got, ok := r.Get("users")
	assert.True(t, ok)
	assert.Same(t, shared, got)
	_, ok = r.Get("orders")
	assert.False(t, ok)

	for role, err := range r.CheckAllHealth(context.Background()) {
		assert.NoError(t, err, role)
	}
	assert.NoError(t, r.FirstUnhealthy(context.Background()))
	assert.NoError(t, adapters.WaitForStores(context.Background(), r, adapters.DefaultRetryConfig()))

	require.NoError(t, r.CloseAll())
	assert.Error(t, r.FirstUnhealthy(context.Background()))
}
