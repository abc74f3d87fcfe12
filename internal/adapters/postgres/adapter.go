// Package postgres provides the PostgreSQL store adapter that backs /vuln-pg.
package postgres

import (
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/lib/pq"

	"github.com/canonica-labs/identlab/internal/adapters"
	labsql "github.com/canonica-labs/identlab/internal/sql"
)

// DriverName is the database/sql driver name.
const DriverName = "postgres"

// AdapterConfig configures the PostgreSQL adapter.
type AdapterConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	// Binding selects native or emulated argument binding.
	Binding labsql.Binding
}

// DSN renders the connection URL.
func DSN(config AdapterConfig) string {
	port := config.Port
	if port == 0 {
		port = 5432
	}
	sslmode := config.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(config.User, config.Password),
		Host:     net.JoinHostPort(config.Host, strconv.Itoa(port)),
		Path:     "/" + config.Database,
		RawQuery: url.Values{"sslmode": {sslmode}, "connect_timeout": {"5"}}.Encode(),
	}
	return u.String()
}

// NewAdapter opens a PostgreSQL handle through a pq connector so that a
// malformed DSN is reported here instead of on first use.
func NewAdapter(config AdapterConfig) (*adapters.SQLAdapter, error) {
	if config.Host == "" {
		return nil, fmt.Errorf("PostgreSQL adapter: host is required")
	}

	connector, err := pq.NewConnector(DSN(config))
	if err != nil {
		return nil, fmt.Errorf("PostgreSQL adapter: %w", err)
	}

	return adapters.NewSQLAdapter(DriverName, sql.OpenDB(connector), config.Binding), nil
}
