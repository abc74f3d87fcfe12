package sql

import (
	"fmt"

	"github.com/canonica-labs/identlab/internal/identifier"
)

// Statement is a SQL template plus the arguments bound to its placeholders.
// The bound value never appears inside Template; the only caller-influenced
// text in Template is the identifier fragment.
type Statement struct {
	Template string
	Args     []any
}

// Builder assembles the lab's projection query for one dialect.
type Builder struct {
	dialect Dialect
}

// NewBuilder creates a Builder that uses the placeholder style of d.
func NewBuilder(d Dialect) *Builder {
	return &Builder{dialect: d}
}

// Dialect returns the dialect the builder emits placeholders for.
func (b *Builder) Dialect() Dialect {
	return b.dialect
}

// Build produces
//
//	SELECT <quote><fragment><quote> AS val FROM <table> WHERE name = <placeholder>
//
// with name as the single bound argument. table must come from code, never
// from a request. fragment is inserted verbatim: it is either an allow-listed
// column or the output of identifier.Escape.
func (b *Builder) Build(table, fragment string, quote identifier.Quote, name string) Statement {
	template := fmt.Sprintf("SELECT %s AS val FROM %s WHERE name = %s",
		quote.Wrap(fragment), table, b.dialect.Placeholder(1))
	return Statement{
		Template: template,
		Args:     []any{name},
	}
}
