package request

import "testing"

// TestParse_Decoding verifies form decoding of the raw query.
//
// Green-Flag: Percent escapes and '+' decode; the last repeated key wins.
func TestParse_Decoding(t *testing.T) {
	v := Parse("name=red+apple&col=%60x%60&col=price&empty=")

	if got := v.Get("name", "?"); got != "red apple" {
		t.Errorf("name: expected %q, got %q", "red apple", got)
	}
	if got := v.Get("col", "?"); got != "price" {
		t.Errorf("col: expected last value %q, got %q", "price", got)
	}
	if got := v.Get("empty", "?"); got != "" {
		t.Errorf("empty: expected present-but-empty value, got %q", got)
	}
	if got := v.Get("missing", "dflt"); got != "dflt" {
		t.Errorf("missing: expected default, got %q", got)
	}
}

// TestParse_MalformedEscapeKeepsRaw verifies the parser never fails.
//
// Red-Flag: An invalid escape is kept verbatim instead of dropping the pair.
func TestParse_MalformedEscapeKeepsRaw(t *testing.T) {
	v := Parse("col=%zz&&name=%00")

	if got := v.Get("col", ""); got != "%zz" {
		t.Errorf("expected raw %q, got %q", "%zz", got)
	}
	if got := v.Get("name", ""); got != "\x00" {
		t.Errorf("expected NUL byte, got %q", got)
	}
}

// TestFromRawQuery_Defaults verifies parameter defaults.
func TestFromRawQuery_Defaults(t *testing.T) {
	tests := []struct {
		raw  string
		want Request
	}{
		{"", Request{Name: "", Col: "name"}},
		{"name=apple", Request{Name: "apple", Col: "name"}},
		{"col=", Request{Name: "", Col: ""}},
		{"col=price&name=cherry", Request{Name: "cherry", Col: "price"}},
	}

	for _, tt := range tests {
		if got := FromRawQuery(tt.raw); got != tt.want {
			t.Errorf("FromRawQuery(%q) = %+v, want %+v", tt.raw, got, tt.want)
		}
	}
}
