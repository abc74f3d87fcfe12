// Package sql builds and inspects the statements the lab executes.
//
// The builder places an identifier fragment into a fixed SELECT template and
// always passes the caller's value as a bound argument. The interpolator
// reproduces client-side ("emulated") prepared statements. The inspector
// parses executed SQL text to describe its structure.
package sql

import (
	"strconv"
	"strings"
)

// DialectName is the normalized name of a SQL dialect.
type DialectName string

const (
	DialectMySQL    DialectName = "mysql"
	DialectPostgres DialectName = "postgres"
	DialectSQLite   DialectName = "sqlite"
	DialectDuckDB   DialectName = "duckdb"
	DialectUnknown  DialectName = ""
)

// Dialect captures the placeholder style of a store. Identifier quoting is
// chosen per endpoint, not per store, so it is not part of Dialect.
type Dialect struct {
	name DialectName
}

// NewDialect builds a Dialect from a driver or engine name (case-insensitive).
func NewDialect(name string) Dialect {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mysql":
		return Dialect{name: DialectMySQL}
	case "postgres", "postgresql", "pgsql":
		return Dialect{name: DialectPostgres}
	case "sqlite", "sqlite3":
		return Dialect{name: DialectSQLite}
	case "duckdb":
		return Dialect{name: DialectDuckDB}
	default:
		return Dialect{name: DialectUnknown}
	}
}

// Name returns the normalized dialect name.
func (d Dialect) Name() DialectName {
	return d.name
}

// Placeholder returns the bind marker for the n-th argument (1-based).
func (d Dialect) Placeholder(n int) string {
	if d.name == DialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// NormalizePlaceholders rewrites numbered $n markers to '?'. It scans bytes
// and does not skip string literals.
func NormalizePlaceholders(query string) string {
	if !strings.Contains(query, "$") {
		return query
	}
	var sb strings.Builder
	sb.Grow(len(query))
	for i := 0; i < len(query); i++ {
		ch := query[i]
		if ch == '$' && i+1 < len(query) && isDigit(query[i+1]) {
			sb.WriteByte('?')
			for i+1 < len(query) && isDigit(query[i+1]) {
				i++
			}
			continue
		}
		sb.WriteByte(ch)
	}
	return sb.String()
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
