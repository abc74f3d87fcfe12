package sql

import (
	"fmt"
	"strings"

	"github.com/xwb1989/sqlparser"
)

// Statement kinds reported by Inspect.
const (
	KindSelect      = "select"
	KindUnion       = "union"
	KindOther       = "other"
	KindUnparseable = "unparseable"
)

// Shape describes the structure of an executed statement.
type Shape struct {
	// Parsed is false when the text could not be parsed as a single statement.
	Parsed bool

	// Kind is one of the Kind* constants.
	Kind string

	// Columns is the number of projected expressions of the outermost SELECT.
	Columns int

	// Tables are the table names referenced anywhere in the statement, in
	// order of first appearance.
	Tables []string

	// Suspicious is true unless the statement is a one-column SELECT that
	// reads only the expected table.
	Suspicious bool

	// ParseError holds the parser message when Parsed is false.
	ParseError string
}

// Inspect parses query with a MySQL-grammar parser and reports its shape
// relative to expectedTable. Numbered $n markers are normalized to '?' first
// so PostgreSQL text can be read too; double-quoted identifiers then parse
// as strings, which does not change the shape.
func Inspect(query, expectedTable string) (shape Shape) {
	defer func() {
		if r := recover(); r != nil {
			shape = Shape{Kind: KindUnparseable, Suspicious: true, ParseError: fmt.Sprint(r)}
		}
	}()

	stmt, err := sqlparser.Parse(NormalizePlaceholders(query))
	if err != nil {
		return Shape{
			Kind:       KindUnparseable,
			Suspicious: true,
			ParseError: err.Error(),
		}
	}

	shape = Shape{Parsed: true, Tables: collectTables(stmt)}
	switch s := stmt.(type) {
	case *sqlparser.Select:
		shape.Kind = KindSelect
		shape.Columns = len(s.SelectExprs)
	case *sqlparser.Union:
		shape.Kind = KindUnion
		if left, ok := s.Left.(*sqlparser.Select); ok {
			shape.Columns = len(left.SelectExprs)
		}
	default:
		shape.Kind = KindOther
	}

	shape.Suspicious = shape.Kind != KindSelect ||
		shape.Columns != 1 ||
		len(shape.Tables) != 1 ||
		!strings.EqualFold(shape.Tables[0], expectedTable)
	return shape
}

func collectTables(stmt sqlparser.Statement) []string {
	seen := make(map[string]bool)
	tables := []string{}
	_ = sqlparser.Walk(func(node sqlparser.SQLNode) (bool, error) {
		if tn, ok := node.(sqlparser.TableName); ok && !tn.IsEmpty() {
			name := tn.Name.String()
			if !seen[name] {
				seen[name] = true
				tables = append(tables, name)
			}
		}
		return true, nil
	}, stmt)
	return tables
}
