package sql

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Binding selects how statement arguments reach the store.
type Binding string

const (
	// BindingNative hands arguments to the driver alongside the template.
	BindingNative Binding = "native"
	// BindingEmulated renders arguments into the SQL text client-side, the
	// way emulated prepared statements do, and sends the result unbound.
	BindingEmulated Binding = "emulated"
)

// ParseBinding validates a configured binding mode.
func ParseBinding(s string) (Binding, error) {
	switch Binding(strings.ToLower(strings.TrimSpace(s))) {
	case "", BindingNative:
		return BindingNative, nil
	case BindingEmulated:
		return BindingEmulated, nil
	default:
		return "", fmt.Errorf("unknown binding mode %q (want native or emulated)", s)
	}
}

// ErrPlaceholderMismatch is returned when the scanner finds a different number
// of placeholders than there are arguments.
var ErrPlaceholderMismatch = errors.New("wrong number of bind variables")

// Interpolate renders args into query. The scanner recognises single-quoted
// string literals and '#', '-- ' and '/* */' comments. It has no notion of
// quoted identifiers, so a '?' inside `...` or "..." is treated as a
// placeholder. That gap is what emulated prepared statements get wrong.
//
// Both '?' (sequential) and '$n' (numbered) markers are replaced.
func (d Dialect) Interpolate(query string, args []any) (string, error) {
	s := scanner{src: query, dialect: d, args: args}
	if err := s.run(); err != nil {
		return "", err
	}
	if s.used != len(args) {
		return "", fmt.Errorf("%w: query has %d placeholders, %d arguments supplied",
			ErrPlaceholderMismatch, s.used, len(args))
	}
	return s.out.String(), nil
}

type scanner struct {
	src     string
	i       int
	dialect Dialect
	args    []any
	next    int // next sequential argument
	used    int // placeholders seen
	out     strings.Builder
}

func (s *scanner) run() error {
	n := len(s.src)
	s.out.Grow(n + 16)
	for s.i < n {
		c := s.src[s.i]
		switch {
		case c == '\'':
			s.copySingleQuoted()
		case c == '#':
			s.copyToEOL()
		case c == '-' && s.peek(1) == '-' && isSpaceOrEnd(s.peek(2)):
			s.copyToEOL()
		case c == '/' && s.peek(1) == '*':
			s.copyBlockComment()
		case c == '?':
			if err := s.bind(s.next); err != nil {
				return err
			}
			s.next++
			s.i++
		case c == '$' && isDigit(s.peek(1)):
			start := s.i + 1
			end := start
			for end < n && isDigit(s.src[end]) {
				end++
			}
			idx, _ := strconv.Atoi(s.src[start:end])
			if err := s.bind(idx - 1); err != nil {
				return err
			}
			s.i = end
		default:
			s.out.WriteByte(c)
			s.i++
		}
	}
	return nil
}

func (s *scanner) peek(k int) byte {
	if s.i+k < len(s.src) {
		return s.src[s.i+k]
	}
	return 0
}

func (s *scanner) bind(idx int) error {
	s.used++
	if idx < 0 || idx >= len(s.args) {
		return fmt.Errorf("%w: placeholder %d has no argument (%d supplied)",
			ErrPlaceholderMismatch, idx+1, len(s.args))
	}
	s.out.WriteString(s.dialect.Literal(s.args[idx]))
	return nil
}

func (s *scanner) copySingleQuoted() {
	n := len(s.src)
	s.out.WriteByte(s.src[s.i])
	s.i++
	for s.i < n {
		c := s.src[s.i]
		s.out.WriteByte(c)
		s.i++
		if c == '\\' && s.i < n {
			s.out.WriteByte(s.src[s.i])
			s.i++
			continue
		}
		if c == '\'' {
			if s.i < n && s.src[s.i] == '\'' {
				s.out.WriteByte('\'')
				s.i++
				continue
			}
			return
		}
	}
}

func (s *scanner) copyToEOL() {
	n := len(s.src)
	for s.i < n && s.src[s.i] != '\n' {
		s.out.WriteByte(s.src[s.i])
		s.i++
	}
}

func (s *scanner) copyBlockComment() {
	n := len(s.src)
	end := strings.Index(s.src[s.i+2:], "*/")
	if end < 0 {
		s.out.WriteString(s.src[s.i:])
		s.i = n
		return
	}
	stop := s.i + 2 + end + 2
	s.out.WriteString(s.src[s.i:stop])
	s.i = stop
}

func isSpaceOrEnd(c byte) bool {
	return c == 0 || c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// Literal renders v as a SQL literal for the dialect. Strings are wrapped in
// single quotes with embedded quotes doubled; MySQL also doubles backslashes.
func (d Dialect) Literal(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return d.quoteString(val)
	case []byte:
		return d.quoteString(string(val))
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case time.Time:
		return d.quoteString(val.UTC().Format("2006-01-02 15:04:05.999999"))
	default:
		return d.quoteString(fmt.Sprint(val))
	}
}

func (d Dialect) quoteString(s string) string {
	if d.name == DialectMySQL {
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
