// Package textutil provides text normalization for search and display.
//
// Client names, observations, and registration numbers arrive with mixed
// casing and Spanish diacritics; search must treat "Láminas" and "laminas"
// as the same word. Folding lowercases, strips combining marks, and
// collapses whitespace.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Fold lowercases text and removes diacritics for accent-insensitive
// comparison. Falls back to plain lowercasing if the transform fails on
// malformed input.
func Fold(text string) string {
	folded, _, err := transform.String(foldTransformer, text)
	if err != nil {
		folded = text
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// ContainsFold reports whether haystack contains needle, ignoring case and
// diacritics. An empty needle always matches.
func ContainsFold(haystack, needle string) bool {
	needle = Fold(needle)
	if needle == "" {
		return true
	}
	return strings.Contains(Fold(haystack), needle)
}

// CollapseSpaces trims and squeezes internal whitespace runs to one space.
func CollapseSpaces(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
