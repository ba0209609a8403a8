// Package document holds the per-document data kept next to the inverted
// index: the raw and normalized sentences used for result snippets and the
// document's own term-frequency list used for query expansion.
package document

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/ranker"
)

// ID identifies a document in both the term index and the record store.
type ID string

// Analyzer turns text into normalized, stemmed terms.
type Analyzer interface {
	Terms(text string) []string
}

// Record is built once when a document is read and is not modified
// afterwards. Fields are exported for the index codec only.
type Record struct {
	ID    ID     `json:"id"`
	Title string `json:"title"`
	// Sentences[0] is the title; the rest are the body split on '.'.
	Sentences []string `json:"sentences"`
	// NormalizedSentences[i] is Sentences[i] after analysis, terms joined
	// by single spaces. Entries may be empty.
	NormalizedSentences []string `json:"normalized_sentences"`
	// TopTerms lists every distinct term of the document with its raw
	// count, highest count first.
	TopTerms []ranker.Pair[string] `json:"top_terms"`
}

// NewRecord splits body on every '.' (no abbreviation or decimal
// handling), analyzes each sentence independently and ranks terms, the
// full term list of the document, by frequency. Empty sentences are kept
// except at the end of the body.
func NewRecord(id ID, title, body string, analyzer Analyzer, terms []string) *Record {
	parts := strings.Split(body, ".")
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	sentences := make([]string, 0, len(parts)+1)
	sentences = append(sentences, title)
	sentences = append(sentences, parts...)

	normalized := make([]string, len(sentences))
	for i, s := range sentences {
		normalized[i] = strings.Join(analyzer.Terms(s), " ")
	}

	return &Record{
		ID:                  id,
		Title:               title,
		Sentences:           sentences,
		NormalizedSentences: normalized,
		TopTerms:            ranker.FromCounts(CountTerms(terms)),
	}
}

// CountTerms tallies raw occurrences of each term.
func CountTerms(terms []string) map[string]int {
	counts := make(map[string]int, len(terms))
	for _, t := range terms {
		counts[t]++
	}
	return counts
}

// Top returns up to n (term, raw frequency) pairs. n <= 0 yields an empty
// slice.
func (r *Record) Top(n int) []ranker.Pair[string] {
	return ranker.Top(r.TopTerms, n)
}

// FirstMatchingSentence returns the raw sentence at the first index whose
// normalized form contains any of queryTerms as a whole token.
func (r *Record) FirstMatchingSentence(queryTerms []string) (string, bool) {
	if len(queryTerms) == 0 {
		return "", false
	}
	wanted := make(map[string]struct{}, len(queryTerms))
	for _, q := range queryTerms {
		wanted[q] = struct{}{}
	}
	for i, s := range r.NormalizedSentences {
		for _, tok := range strings.Fields(s) {
			if _, ok := wanted[tok]; ok {
				return r.Sentences[i], true
			}
		}
	}
	return "", false
}
