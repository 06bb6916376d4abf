// Package slug derives URL-safe identifiers from display names.
package slug

import (
	"strconv"
	"strings"
	"unicode"
)

// Make normalizes name into a lowercase hyphen-separated slug: characters
// other than letters, digits, whitespace and hyphens are dropped, runs of
// whitespace and hyphens collapse to a single hyphen, and leading or
// trailing hyphens are trimmed.
func Make(name string) string {
	lowered := strings.ToLower(name)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '-' {
			b.WriteRune(r)
		}
	}

	fields := strings.FieldsFunc(b.String(), func(r rune) bool {
		return unicode.IsSpace(r) || r == '-'
	})

	return strings.Join(fields, "-")
}

// Candidate returns the nth uniqueness candidate for base: the base slug
// itself for n == 0, then base-1, base-2, and so on. Actual uniqueness is
// enforced by the store's unique constraint; callers retry with successive
// candidates on conflict.
func Candidate(base string, n int) string {
	if n == 0 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}
