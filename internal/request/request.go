// Package request turns a raw query string into the parameters the lab
// endpoints consume.
package request

import (
	"net/url"
	"strings"
)

// Default parameter values applied when a key is absent.
const (
	DefaultName = ""
	DefaultCol  = "name"
)

// Values maps a decoded key to its decoded value. When a key repeats, the
// last occurrence wins.
type Values map[string]string

// Request holds the two parameters every query endpoint reads.
type Request struct {
	Name string
	Col  string
}

// Parse decodes rawQuery. It never fails: a pair whose percent-encoding is
// malformed keeps its raw text, and empty segments are skipped.
func Parse(rawQuery string) Values {
	values := make(Values)
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		values[decode(key)] = decode(value)
	}
	return values
}

// decode applies form decoding ('+' is a space) and falls back to the raw
// text when the escape sequence is invalid.
func decode(s string) string {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

// Get returns the value for key, or def when the key is absent. A key that
// is present with an empty value returns "".
func (v Values) Get(key, def string) string {
	if value, ok := v[key]; ok {
		return value
	}
	return def
}

// FromValues builds a Request, applying the defaults.
func FromValues(v Values) Request {
	return Request{
		Name: v.Get("name", DefaultName),
		Col:  v.Get("col", DefaultCol),
	}
}

// FromRawQuery is Parse followed by FromValues.
func FromRawQuery(rawQuery string) Request {
	return FromValues(Parse(rawQuery))
}
