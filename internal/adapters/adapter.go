// Package adapters defines the store adapters that execute lab statements.
// Each adapter wraps one database/sql handle and acquires a scoped
// connection per statement.
//
// Adapters are thin and explicit: no silent retries, no hidden fallbacks,
// no partial results.
package adapters

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	cerrors "github.com/canonica-labs/identlab/internal/errors"
	labsql "github.com/canonica-labs/identlab/internal/sql"
)

// QueryResult is the outcome of a successful statement.
type QueryResult struct {
	// Rows holds the single projected column of each row, in order.
	// A nil entry is a SQL NULL.
	Rows []*string

	// RowCount is len(Rows).
	RowCount int

	// Executed is the SQL text sent to the store. It differs from the
	// statement template only under emulated binding.
	Executed string
}

// Values returns the rows as strings, rendering NULL as "".
func (r *QueryResult) Values() []string {
	out := make([]string, len(r.Rows))
	for i, v := range r.Rows {
		if v != nil {
			out[i] = *v
		}
	}
	return out
}

// Adapter is the interface every store adapter implements.
type Adapter interface {
	// Name returns the driver name of this store.
	Name() string

	// Dialect returns the placeholder dialect statements must use.
	Dialect() labsql.Dialect

	// Execute runs stmt on a connection acquired for this call only and
	// collects the first column of each row.
	// Connection failures return *errors.ErrConnectionFailed; statement
	// failures return *errors.ErrExecutionFailed.
	Execute(ctx context.Context, stmt labsql.Statement) (*QueryResult, error)

	// DB exposes the underlying handle for migrations.
	DB() *sql.DB

	// Ping checks if the store is reachable.
	Ping(ctx context.Context) error

	// CheckHealth runs a trivial query on a scoped connection.
	CheckHealth(ctx context.Context) error

	// Close releases any resources held by the adapter.
	Close() error
}

// SQLAdapter implements Adapter over any database/sql driver.
type SQLAdapter struct {
	mu      sync.RWMutex
	db      *sql.DB
	name    string
	dialect labsql.Dialect
	binding labsql.Binding
	closed  bool
}

// NewSQLAdapter wraps db. binding selects native or emulated argument binding.
func NewSQLAdapter(name string, db *sql.DB, binding labsql.Binding) *SQLAdapter {
	if binding == "" {
		binding = labsql.BindingNative
	}
	return &SQLAdapter{
		db:      db,
		name:    name,
		dialect: labsql.NewDialect(name),
		binding: binding,
	}
}

// Name returns the driver name.
func (a *SQLAdapter) Name() string {
	return a.name
}

// Dialect returns the placeholder dialect of the driver.
func (a *SQLAdapter) Dialect() labsql.Dialect {
	return a.dialect
}

// Binding returns the argument binding mode.
func (a *SQLAdapter) Binding() labsql.Binding {
	return a.binding
}

// DB returns the underlying handle.
func (a *SQLAdapter) DB() *sql.DB {
	return a.db
}

func (a *SQLAdapter) handle() (*sql.DB, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed || a.db == nil {
		return nil, cerrors.NewConnectionFailed(a.name, fmt.Errorf("%s adapter: connection is closed", a.name))
	}
	return a.db, nil
}

// Execute runs stmt. Under emulated binding the arguments are rendered into
// the SQL text first and nothing is bound.
func (a *SQLAdapter) Execute(ctx context.Context, stmt labsql.Statement) (*QueryResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, cerrors.NewConnectionFailed(a.name, err)
	}

	db, err := a.handle()
	if err != nil {
		return nil, err
	}

	query, args := stmt.Template, stmt.Args
	if a.binding == labsql.BindingEmulated {
		query, err = a.dialect.Interpolate(stmt.Template, stmt.Args)
		if err != nil {
			return nil, cerrors.NewExecutionFailed(stmt.Template, err)
		}
		args = nil
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, cerrors.NewConnectionFailed(a.name, err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, cerrors.NewExecutionFailed(query, err)
	}
	defer rows.Close()

	out := make([]*string, 0)
	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return nil, cerrors.NewExecutionFailed(query, err)
		}
		if v.Valid {
			s := v.String
			out = append(out, &s)
		} else {
			out = append(out, nil)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, cerrors.NewExecutionFailed(query, err)
	}

	return &QueryResult{
		Rows:     out,
		RowCount: len(out),
		Executed: query,
	}, nil
}

// Ping checks if the store is reachable.
func (a *SQLAdapter) Ping(ctx context.Context) error {
	db, err := a.handle()
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		return cerrors.NewConnectionFailed(a.name, err)
	}
	return nil
}

// CheckHealth acquires a connection and runs SELECT 1 on it.
func (a *SQLAdapter) CheckHealth(ctx context.Context) error {
	db, err := a.handle()
	if err != nil {
		return err
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		return cerrors.NewConnectionFailed(a.name, err)
	}
	defer conn.Close()

	var one int
	if err := conn.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return cerrors.NewExecutionFailed("SELECT 1", err)
	}
	return nil
}

// Close releases the handle. Close is idempotent.
func (a *SQLAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true

	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// AdapterRegistry maps a table role ("fruit", "users") to the adapter that
// stores it. One adapter may serve several roles.
type AdapterRegistry struct {
	adapters map[string]Adapter
}

// NewAdapterRegistry creates a new adapter registry.
func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{
		adapters: make(map[string]Adapter),
	}
}

// Register binds role to adapter.
func (r *AdapterRegistry) Register(role string, adapter Adapter) {
	r.adapters[role] = adapter
}

// Get returns the adapter for role.
func (r *AdapterRegistry) Get(role string) (Adapter, bool) {
	adapter, ok := r.adapters[role]
	return adapter, ok
}

// Roles returns the registered roles in sorted order.
func (r *AdapterRegistry) Roles() []string {
	roles := make([]string, 0, len(r.adapters))
	for role := range r.adapters {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

// unique returns each distinct adapter once, in role order.
func (r *AdapterRegistry) unique() []Adapter {
	seen := make(map[Adapter]bool)
	out := make([]Adapter, 0, len(r.adapters))
	for _, role := range r.Roles() {
		a := r.adapters[role]
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}

// CloseAll closes every distinct adapter and returns the last error.
func (r *AdapterRegistry) CloseAll() error {
	var lastErr error
	for _, adapter := range r.unique() {
		if err := adapter.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// CheckAllHealth checks every role. A nil value means the role is healthy.
func (r *AdapterRegistry) CheckAllHealth(ctx context.Context) map[string]error {
	results := make(map[string]error)
	for _, role := range r.Roles() {
		results[role] = r.adapters[role].CheckHealth(ctx)
	}
	return results
}

// FirstUnhealthy returns the first failing role in sorted order, or nil.
func (r *AdapterRegistry) FirstUnhealthy(ctx context.Context) error {
	health := r.CheckAllHealth(ctx)
	for _, role := range r.Roles() {
		if err := health[role]; err != nil {
			return err
		}
	}
	return nil
}

// IsEmpty returns true if no adapters are registered.
func (r *AdapterRegistry) IsEmpty() bool {
	return len(r.adapters) == 0
}
