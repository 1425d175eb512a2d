// Package search provides text normalization for case-insensitive
// substring matching over book metadata.
package search

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// Normalize prepares free text for comparison: unicode-normalized,
// case-folded, with surrounding and repeated whitespace collapsed.
// Both the indexed columns and the incoming query go through this so
// "Großstadt" matches "GROSSSTADT".
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = folder.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// LikePattern turns a normalized query into a SQL LIKE pattern with
// the metacharacters escaped, for use with `ESCAPE '\'`. An empty
// query yields an empty pattern, which callers treat as "no filter".
func LikePattern(s string) string {
	s = Normalize(s)
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.WriteByte('%')
	for _, r := range s {
		switch r {
		case '%', '_', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('%')
	return b.String()
}
