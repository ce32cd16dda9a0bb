// Package strings holds the small string helpers shared by the registry
// packages: list cleanup and IRI fragment handling.
package strings

import (
	"strings"
)

// DedupeAndTrim trims each value and drops empties and repeats, keeping the
// first occurrence's position.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}
	return result
}

// StripFragment returns iri without its "#fragment" part.
func StripFragment(iri string) string {
	if i := strings.IndexByte(iri, '#'); i >= 0 {
		return iri[:i]
	}
	return iri
}

// Documents maps IRIs to the distinct documents they live in, in first-seen
// order. Blank entries are dropped.
func Documents(iris []string) []string {
	docs := make([]string, 0, len(iris))
	for _, iri := range iris {
		docs = append(docs, StripFragment(iri))
	}
	return DedupeAndTrim(docs)
}
