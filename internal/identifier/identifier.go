// Package identifier decides how a caller-supplied column name may enter SQL
// text. Validate is the safe path: membership in a closed allow-list. Escape
// is the vulnerable path, kept naive on purpose so that it can be studied.
package identifier

import (
	"sort"
	"strings"
)

// Quote is the character a dialect uses to delimit identifiers.
type Quote byte

const (
	// Backtick quotes identifiers in MySQL.
	Backtick Quote = '`'
	// DoubleQuote quotes identifiers in PostgreSQL and standard SQL.
	DoubleQuote Quote = '"'
)

// String returns the quote as a one-character string.
func (q Quote) String() string {
	return string(rune(q))
}

// Wrap delimits fragment with q on both sides. It does not escape anything.
func (q Quote) Wrap(fragment string) string {
	return q.String() + fragment + q.String()
}

// AllowList is an immutable set of accepted column names.
type AllowList struct {
	members map[string]struct{}
}

// NewAllowList builds an AllowList from names. The input slice is copied.
func NewAllowList(names ...string) AllowList {
	members := make(map[string]struct{}, len(names))
	for _, n := range names {
		members[n] = struct{}{}
	}
	return AllowList{members: members}
}

// FruitColumns is the allow-list used by the safe endpoint.
func FruitColumns() AllowList {
	return NewAllowList("id", "name", "color", "price")
}

// Contains reports exact membership. No trimming or case folding is applied.
func (a AllowList) Contains(col string) bool {
	_, ok := a.members[col]
	return ok
}

// Names returns the members in sorted order.
func (a AllowList) Names() []string {
	names := make([]string, 0, len(a.members))
	for n := range a.members {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of members.
func (a AllowList) Len() int {
	return len(a.members)
}

// RejectReason is the reason carried by every rejected Outcome.
const RejectReason = "invalid column"

// Outcome is the result of Validate: either Allowed or Rejected.
type Outcome struct {
	allowed bool
	col     string
	reason  string
}

// Allowed reports whether the column was accepted.
func (o Outcome) Allowed() bool { return o.allowed }

// Column returns the accepted column. It is empty for a rejection.
func (o Outcome) Column() string { return o.col }

// Reason returns why the column was rejected. It is empty when allowed.
func (o Outcome) Reason() string { return o.reason }

// Validate returns Allowed(col) iff col is an exact member of allow.
// The accepted name is used verbatim: its safety comes from the set being
// closed and developer-controlled, not from character filtering.
func Validate(col string, allow AllowList) Outcome {
	if !allow.Contains(col) {
		return Outcome{reason: RejectReason}
	}
	return Outcome{allowed: true, col: col}
}

// EscapedIdentifier is the output of Escape, ready to be wrapped in quotes.
type EscapedIdentifier string

// Escape doubles every occurrence of q in col and returns the result. It
// never rejects input and it is not a security boundary:
//
//   - it places no bound on length;
//   - keywords, whitespace, comment sequences and UNION-style syntax pass
//     through untouched;
//   - NUL and other control bytes pass through untouched;
//   - a placeholder character such as '?' passes through, so a client-side
//     interpolator that rescans the final SQL text will bind a value inside
//     the identifier, and that value can then close the quotes and append
//     arbitrary clauses.
//
// Any statement that concatenates this fragment into SQL text inherits
// those gaps. Use Validate instead.
func Escape(col string, q Quote) EscapedIdentifier {
	quote := q.String()
	return EscapedIdentifier(strings.ReplaceAll(col, quote, quote+quote))
}
