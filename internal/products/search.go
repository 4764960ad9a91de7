package products

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases and strips diacritics so "Pão" matches "pao". Portuguese
// product names are full of accents; search must not care.
func Fold(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// MatchesQuery reports whether the product matches a free-text query against
// name, description and category, accent and case insensitively.
func MatchesQuery(p *Product, query string) bool {
	q := Fold(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, field := range []string{p.Name, p.Description, p.CategoryName} {
		if strings.Contains(Fold(field), q) {
			return true
		}
	}
	return false
}

// Filter returns the products matching the query and safe for every
// required restriction.
func Filter(items []Product, query string, required []uuid.UUID) []Product {
	out := make([]Product, 0, len(items))
	for i := range items {
		p := &items[i]
		if !MatchesQuery(p, query) {
			continue
		}
		if !p.SafeForAll(required) {
			continue
		}
		out = append(out, *p)
	}
	return out
}
