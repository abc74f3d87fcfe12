// Package mysql provides the MySQL store adapter that backs /safe and /vuln.
package mysql

import (
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	driver "github.com/go-sql-driver/mysql"

	"github.com/canonica-labs/identlab/internal/adapters"
	labsql "github.com/canonica-labs/identlab/internal/sql"
)

// DriverName is the database/sql driver name.
const DriverName = "mysql"

// AdapterConfig configures the MySQL adapter.
type AdapterConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string

	// InterpolateParams lets the driver render arguments client-side
	// instead of preparing the statement on the server.
	InterpolateParams bool

	// Binding selects native or emulated argument binding.
	Binding labsql.Binding

	// Timeout bounds the dial. Default: 5s.
	Timeout time.Duration
}

// DSN renders the driver connection string.
func DSN(config AdapterConfig) string {
	port := config.Port
	if port == 0 {
		port = 3306
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	c := driver.NewConfig()
	c.User = config.User
	c.Passwd = config.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(config.Host, strconv.Itoa(port))
	c.DBName = config.Database
	c.InterpolateParams = config.InterpolateParams
	c.Timeout = timeout
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

// NewAdapter opens a MySQL handle. No connection is made until first use.
func NewAdapter(config AdapterConfig) (*adapters.SQLAdapter, error) {
	if config.Host == "" {
		return nil, fmt.Errorf("MySQL adapter: host is required")
	}

	db, err := sql.Open(DriverName, DSN(config))
	if err != nil {
		return nil, fmt.Errorf("MySQL adapter: open: %w", err)
	}
	db.SetConnMaxLifetime(3 * time.Minute)

	return adapters.NewSQLAdapter(DriverName, db, config.Binding), nil
}
