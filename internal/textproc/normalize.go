// Package textproc turns raw text into index terms: accent folding and
// character cleanup, stop-word removal and stemming, in that order.
package textproc

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// disallowed matches every character the index does not keep. Newlines
// survive so line-oriented input still splits into lines.
var disallowed = regexp.MustCompile(`[^a-z0-9_\-\n]`)

// Normalize lowercases text, strips diacritics and replaces every
// character outside [a-z0-9_-] and newline with a space.
func Normalize(text string) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn))),
		text,
	)
	if err != nil {
		folded = text
	}
	return disallowed.ReplaceAllString(strings.ToLower(folded), " ")
}

// Tokenize normalizes text and splits it on whitespace. A bare "-" left
// over from punctuation is not a token.
func Tokenize(text string) []string {
	fields := strings.Fields(Normalize(text))
	tokens := fields[:0]
	for _, f := range fields {
		if f == "-" {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}
