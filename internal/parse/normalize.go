// Package parse holds the deterministic, pattern-based invoice field extraction.
package parse

import "strings"

// Normalize collapses every whitespace run, newlines included, into one space.
// Runs are split on unicode.IsSpace, so the ideographic space, NBSP and the
// other Unicode spaces that PDF text layers emit collapse too. It is
// idempotent and must run before Extract.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
