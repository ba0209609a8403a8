package index

import (
	"fmt"
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/document"
	apperrors "github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/errors"
)

// TermEntry holds a term's idf and its final per-document weights.
type TermEntry struct {
	IDF      float64                 `cbor:"idf" json:"idf"`
	Postings map[document.ID]float64 `cbor:"postings" json:"postings"`
}

// DocumentLength pairs a document with its analyzed token count.
type DocumentLength struct {
	ID     document.ID `json:"id"`
	Tokens int         `json:"tokens"`
}

// Stats is the indexing report: corpus counts plus the documents with the
// most and fewest tokens.
type Stats struct {
	Documents int            `json:"documents"`
	Terms     int            `json:"terms"`
	Longest   DocumentLength `json:"longest"`
	Shortest  DocumentLength `json:"shortest"`
}

// Index is the weighted, read-only index. It is safe for concurrent reads.
type Index struct {
	terms  map[string]TermEntry
	docs   map[document.ID]*document.Record
	tokens map[document.ID]int
	ids    []document.ID
}

func newIndex(terms map[string]TermEntry, docs map[document.ID]*document.Record, tokens map[document.ID]int) *Index {
	ids := make([]document.ID, 0, len(tokens))
	for id := range tokens {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return &Index{terms: terms, docs: docs, tokens: tokens, ids: ids}
}

// Lookup returns the entry for term, or false for unknown terms.
func (x *Index) Lookup(term string) (TermEntry, bool) {
	e, ok := x.terms[term]
	return e, ok
}

// Document returns the record of id, or false when it is not indexed.
func (x *Index) Document(id document.ID) (*document.Record, bool) {
	rec, ok := x.docs[id]
	return rec, ok
}

// DocumentIDs returns every indexed document in ascending order. The
// slice must not be modified.
func (x *Index) DocumentIDs() []document.ID {
	return x.ids
}

// DocumentCount returns the number of indexed documents.
func (x *Index) DocumentCount() int {
	return len(x.ids)
}

// TermCount returns the number of distinct terms.
func (x *Index) TermCount() int {
	return len(x.terms)
}

// TokenCount returns the number of analyzed tokens of id.
func (x *Index) TokenCount(id document.ID) int {
	return x.tokens[id]
}

// Stats reports corpus counts and the token-count extremes. Ties go to
// the lowest document ID.
func (x *Index) Stats() Stats {
	s := Stats{Documents: len(x.ids), Terms: len(x.terms)}
	for i, id := range x.ids {
		n := x.tokens[id]
		if i == 0 {
			s.Longest = DocumentLength{ID: id, Tokens: n}
			s.Shortest = s.Longest
			continue
		}
		if n > s.Longest.Tokens {
			s.Longest = DocumentLength{ID: id, Tokens: n}
		}
		if n < s.Shortest.Tokens {
			s.Shortest = DocumentLength{ID: id, Tokens: n}
		}
	}
	return s
}

// Snapshot is the full logical content of an Index, used for
// persistence.
type Snapshot struct {
	Terms     map[string]TermEntry `cbor:"terms"`
	Documents []*document.Record   `cbor:"documents"`
	Tokens    map[document.ID]int  `cbor:"tokens"`
}

// Snapshot exposes the index content. Maps and records are shared with the
// index and must be treated as read-only.
func (x *Index) Snapshot() Snapshot {
	docs := make([]*document.Record, 0, len(x.docs))
	for _, rec := range x.docs {
		docs = append(docs, rec)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return Snapshot{Terms: x.terms, Documents: docs, Tokens: x.tokens}
}

// FromSnapshot rebuilds an Index from persisted content. Snapshots
// carrying the empty term, a non-finite weight or a posting for an unknown
// document are rejected as corrupt.
func FromSnapshot(s Snapshot) (*Index, error) {
	tokens := s.Tokens
	if tokens == nil {
		tokens = make(map[document.ID]int)
	}
	terms := s.Terms
	if terms == nil {
		terms = make(map[string]TermEntry)
	}
	for term, entry := range terms {
		if term == "" {
			return nil, fmt.Errorf("%w: empty term", apperrors.ErrCorruptIndex)
		}
		if math.IsNaN(entry.IDF) || math.IsInf(entry.IDF, 0) {
			return nil, fmt.Errorf("%w: idf of %q is not finite", apperrors.ErrCorruptIndex, term)
		}
		for id, w := range entry.Postings {
			if _, ok := tokens[id]; !ok {
				return nil, fmt.Errorf("%w: term %q posts to unknown document %q", apperrors.ErrCorruptIndex, term, id)
			}
			if math.IsNaN(w) || math.IsInf(w, 0) {
				return nil, fmt.Errorf("%w: weight of %q in %q is not finite", apperrors.ErrCorruptIndex, term, id)
			}
		}
	}

	docs := make(map[document.ID]*document.Record, len(s.Documents))
	for _, rec := range s.Documents {
		if rec == nil {
			return nil, fmt.Errorf("%w: nil document record", apperrors.ErrCorruptIndex)
		}
		if len(rec.Sentences) != len(rec.NormalizedSentences) {
			return nil, fmt.Errorf("%w: document %q has misaligned sentences", apperrors.ErrCorruptIndex, rec.ID)
		}
		docs[rec.ID] = rec
	}
	return newIndex(terms, docs, tokens), nil
}
