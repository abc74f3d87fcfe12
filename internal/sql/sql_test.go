package sql

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/canonica-labs/identlab/internal/identifier"
)

// TestBuild_Template verifies the projection template per dialect.
//
// Green-Flag: The name value is never part of the template.
func TestBuild_Template(t *testing.T) {
	tests := []struct {
		dialect string
		quote   identifier.Quote
		want    string
	}{
		{"mysql", identifier.Backtick, "SELECT `price` AS val FROM fruit WHERE name = ?"},
		{"postgres", identifier.DoubleQuote, `SELECT "price" AS val FROM fruit WHERE name = $1`},
		{"sqlite", identifier.DoubleQuote, `SELECT "price" AS val FROM fruit WHERE name = ?`},
	}

	for _, tt := range tests {
		stmt := NewBuilder(NewDialect(tt.dialect)).Build("fruit", "price", tt.quote, "x' OR '1'='1")
		if stmt.Template != tt.want {
			t.Errorf("%s: got %q, want %q", tt.dialect, stmt.Template, tt.want)
		}
		if len(stmt.Args) != 1 || stmt.Args[0] != "x' OR '1'='1" {
			t.Errorf("%s: unexpected args %v", tt.dialect, stmt.Args)
		}
		if strings.Contains(stmt.Template, "OR") {
			t.Errorf("%s: name leaked into template", tt.dialect)
		}
	}
}

// TestNewDialect_Aliases verifies dialect name normalization.
func TestNewDialect_Aliases(t *testing.T) {
	tests := map[string]DialectName{
		"MySQL":      DialectMySQL,
		"postgresql": DialectPostgres,
		"pgsql":      DialectPostgres,
		"sqlite3":    DialectSQLite,
		" duckdb ":   DialectDuckDB,
		"oracle":     DialectUnknown,
	}
	for in, want := range tests {
		if got := NewDialect(in).Name(); got != want {
			t.Errorf("NewDialect(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestNormalizePlaceholders rewrites numbered markers.
func TestNormalizePlaceholders(t *testing.T) {
	got := NormalizePlaceholders("SELECT a FROM t WHERE x = $1 AND y = $12 AND z = '$'")
	want := "SELECT a FROM t WHERE x = ? AND y = ? AND z = '$'"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

// TestInterpolate_Literals verifies client-side rendering of arguments.
//
// Green-Flag: String arguments are quoted; quotes in them are doubled.
func TestInterpolate_Literals(t *testing.T) {
	mysql := NewDialect("mysql")

	got, err := mysql.Interpolate("SELECT `name` AS val FROM fruit WHERE name = ?", []any{`o'k\`})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "SELECT `name` AS val FROM fruit WHERE name = 'o''k\\\\'"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	pg := NewDialect("postgres")
	got, err = pg.Interpolate(`SELECT "name" AS val FROM users WHERE name = $1`, []any{`a\b`})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := `SELECT "name" AS val FROM users WHERE name = 'a\b'`; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

// TestInterpolate_SkipsLiteralsAndComments verifies the scanner's lexical model.
func TestInterpolate_SkipsLiteralsAndComments(t *testing.T) {
	d := NewDialect("sqlite")
	query := "SELECT '?' /* ? */ , 'it''s ?' FROM t # ?\nWHERE a = ? -- ?"

	got, err := d.Interpolate(query, []any{"v"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "SELECT '?' /* ? */ , 'it''s ?' FROM t # ?\nWHERE a = 'v' -- ?"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

// TestInterpolate_BindsInsideIdentifier shows the emulated-binding gap.
//
// Red-Flag: A '?' inside a quoted identifier consumes the argument, and a
// '#' after it comments out the real placeholder.
func TestInterpolate_BindsInsideIdentifier(t *testing.T) {
	d := NewDialect("sqlite")
	template := `SELECT "?#" AS val FROM users WHERE name = ?`

	got, err := d.Interpolate(template, []any{`x" || email FROM users--`})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `SELECT "'x" || email FROM users--'#" AS val FROM users WHERE name = ?`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

// TestInterpolate_Mismatch verifies placeholder counting.
//
// Red-Flag: Too many or too few markers fail with ErrPlaceholderMismatch.
func TestInterpolate_Mismatch(t *testing.T) {
	d := NewDialect("mysql")

	if _, err := d.Interpolate("SELECT `??` FROM t WHERE a = ?", []any{"x"}); !errors.Is(err, ErrPlaceholderMismatch) {
		t.Errorf("expected mismatch for extra markers, got %v", err)
	}
	if _, err := d.Interpolate("SELECT 1", []any{"x"}); !errors.Is(err, ErrPlaceholderMismatch) {
		t.Errorf("expected mismatch for unused argument, got %v", err)
	}
	if _, err := NewDialect("postgres").Interpolate("SELECT $2", []any{"x"}); !errors.Is(err, ErrPlaceholderMismatch) {
		t.Errorf("expected mismatch for out-of-range $2, got %v", err)
	}
}

// TestLiteral_Types covers non-string arguments.
func TestLiteral_Types(t *testing.T) {
	d := NewDialect("postgres")
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		in   any
		want string
	}{
		{nil, "NULL"},
		{true, "TRUE"},
		{false, "FALSE"},
		{42, "42"},
		{int64(-7), "-7"},
		{1.5, "1.5"},
		{[]byte("b'y"), "'b''y'"},
		{ts, "'2024-01-02 03:04:05'"},
	}
	for _, tt := range tests {
		if got := d.Literal(tt.in); got != tt.want {
			t.Errorf("Literal(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestParseBinding covers the binding modes.
func TestParseBinding(t *testing.T) {
	for in, want := range map[string]Binding{"": BindingNative, "native": BindingNative, " Emulated ": BindingEmulated} {
		got, err := ParseBinding(in)
		if err != nil || got != want {
			t.Errorf("ParseBinding(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseBinding("pdo"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

// TestInspect_Shapes verifies statement classification.
//
// Green-Flag: The lab's own template is a plain one-column select.
// Red-Flag: UNION, extra tables and unparseable text are suspicious.
func TestInspect_Shapes(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		table      string
		kind       string
		suspicious bool
	}{
		{"template", "SELECT `price` AS val FROM fruit WHERE name = ?", "fruit", KindSelect, false},
		{"pg template", `SELECT "email" AS val FROM users WHERE name = $1`, "users", KindSelect, false},
		{"union", "SELECT `name` FROM fruit UNION SELECT email FROM users -- ` AS val FROM fruit WHERE name = ?", "fruit", KindUnion, true},
		{"wrong table", "SELECT `name` AS val FROM users WHERE name = ?", "fruit", KindSelect, true},
		{"two columns", "SELECT `name`, price AS val FROM fruit WHERE name = ?", "fruit", KindSelect, true},
		{"garbage", "SELECT `name``` FROM", "fruit", KindUnparseable, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shape := Inspect(tt.query, tt.table)
			if shape.Kind != tt.kind {
				t.Errorf("kind: got %q, want %q (%s)", shape.Kind, tt.kind, shape.ParseError)
			}
			if shape.Suspicious != tt.suspicious {
				t.Errorf("suspicious: got %v, want %v", shape.Suspicious, tt.suspicious)
			}
		})
	}
}

// TestInspect_UnionTables verifies table collection.
func TestInspect_UnionTables(t *testing.T) {
	shape := Inspect("SELECT name FROM fruit UNION SELECT email FROM users", "fruit")
	if !shape.Parsed {
		t.Fatalf("expected parse, got %s", shape.ParseError)
	}
	if strings.Join(shape.Tables, ",") != "fruit,users" {
		t.Errorf("unexpected tables %v", shape.Tables)
	}
	if shape.Columns != 1 {
		t.Errorf("expected 1 column, got %d", shape.Columns)
	}
}
