package identifier

import (
	"strings"
	"testing"
)

// TestValidate_ExactMembership verifies the safe path.
//
// Green-Flag: Every allow-listed column is accepted verbatim.
// Red-Flag: Case, whitespace and injection variants are rejected.
func TestValidate_ExactMembership(t *testing.T) {
	allow := FruitColumns()

	for _, col := range []string{"id", "name", "color", "price"} {
		out := Validate(col, allow)
		if !out.Allowed() || out.Column() != col || out.Reason() != "" {
			t.Errorf("Validate(%q) = %+v, expected allowed", col, out)
		}
	}

	for _, col := range []string{"", "Name", " name", "name ", "name`", "email", "name\x00", "price; DROP TABLE fruit"} {
		out := Validate(col, allow)
		if out.Allowed() {
			t.Errorf("Validate(%q) accepted", col)
		}
		if out.Reason() != RejectReason {
			t.Errorf("Validate(%q) reason = %q", col, out.Reason())
		}
		if out.Column() != "" {
			t.Errorf("Validate(%q) leaked column %q", col, out.Column())
		}
	}
}

// TestAllowList_Names verifies the allow-list accessors.
func TestAllowList_Names(t *testing.T) {
	names := FruitColumns().Names()
	if strings.Join(names, ",") != "color,id,name,price" {
		t.Errorf("unexpected names: %v", names)
	}
	if FruitColumns().Len() != 4 {
		t.Errorf("expected 4 members")
	}
}

// TestEscape_DoublesQuoteOnly verifies the naive escaper.
//
// Red-Flag: Only the quote character changes; everything else passes through.
func TestEscape_DoublesQuoteOnly(t *testing.T) {
	tests := []struct {
		col  string
		q    Quote
		want string
	}{
		{"name", Backtick, "name"},
		{"na`me", Backtick, "na``me"},
		{"``", Backtick, "````"},
		{`na"me`, Backtick, `na"me`},
		{`na"me`, DoubleQuote, `na""me`},
		{"na`me", DoubleQuote, "na`me"},
		{"?#\x00-- /*", Backtick, "?#\x00-- /*"},
		{"", DoubleQuote, ""},
	}

	for _, tt := range tests {
		if got := Escape(tt.col, tt.q); string(got) != tt.want {
			t.Errorf("Escape(%q, %s) = %q, want %q", tt.col, tt.q, got, tt.want)
		}
	}
}

// TestEscape_WrappedIdentifierBalanced verifies that quotes stay balanced
// after wrapping, so the escaped text cannot close the identifier by itself.
func TestEscape_WrappedIdentifierBalanced(t *testing.T) {
	for _, col := range []string{"a`b", "```", "x` UNION SELECT 1 -- "} {
		wrapped := Backtick.Wrap(string(Escape(col, Backtick)))
		if strings.Count(wrapped, "`")%2 != 0 {
			t.Errorf("unbalanced quotes in %q", wrapped)
		}
	}
}
