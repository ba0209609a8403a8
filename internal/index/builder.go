// Package index implements the TF-IDF inverted index. A Builder collects
// raw term counts while documents are ingested; CalculateWeights turns the
// counts into an immutable Index whose postings hold final weights.
package index

import (
	"math"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/document"
)

// Builder is safe for concurrent use.
type Builder struct {
	mu      sync.Mutex
	counts  map[string]map[document.ID]int
	maxFreq map[document.ID]int
	tokens  map[document.ID]int
	docs    map[document.ID]*document.Record
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		counts:  make(map[string]map[document.ID]int),
		maxFreq: make(map[document.ID]int),
		tokens:  make(map[document.ID]int),
		docs:    make(map[document.ID]*document.Record),
	}
}

// AddOccurrence increments the raw count of term in document id.
func (b *Builder) AddOccurrence(term string, id document.ID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.addOccurrence(term, id)
}

func (b *Builder) addOccurrence(term string, id document.ID) {
	postings, ok := b.counts[term]
	if !ok {
		postings = make(map[document.ID]int)
		b.counts[term] = postings
	}
	postings[id]++
}

// RecordMaxFrequency stores the highest count in counts for document id,
// along with the document's token total. It must be called once per
// document before CalculateWeights.
func (b *Builder) RecordMaxFrequency(id document.ID, counts map[string]int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recordMaxFrequency(id, counts)
}

func (b *Builder) recordMaxFrequency(id document.ID, counts map[string]int) {
	maxCount, total := 0, 0
	for _, c := range counts {
		total += c
		if c > maxCount {
			maxCount = c
		}
	}
	b.maxFreq[id] = maxCount
	b.tokens[id] = total
}

// AddDocument stores rec for snippets and query expansion.
func (b *Builder) AddDocument(rec *document.Record) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.docs[rec.ID] = rec
}

// Ingest registers rec, records its maximum term frequency and adds one
// occurrence per element of terms, all under a single lock.
func (b *Builder) Ingest(rec *document.Record, terms []string) {
	counts := document.CountTerms(terms)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.docs[rec.ID] = rec
	b.recordMaxFrequency(rec.ID, counts)
	for _, term := range terms {
		b.addOccurrence(term, rec.ID)
	}
}

// DocumentCount returns the number of documents with a recorded maximum
// frequency.
func (b *Builder) DocumentCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.maxFreq)
}

// CalculateWeights computes the final weights in one corpus-wide pass and
// returns them as a new Index. The builder itself is left untouched, so
// calling it twice yields two equal indexes rather than double-weighted
// postings.
//
// For each term t over the documents D_t that contain it:
//
//	idf  = log10(N / |D_t|)
//	tf   = count(t, d) / maxFreq(d)
//	wij  = idf * tf
//	w    = wij / sqrt(sum over D_t of wij^2), or 0 when that norm is 0
//
// The normalization runs down each term's column, not across a document.
func (b *Builder) CalculateWeights() *Index {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := float64(len(b.maxFreq))
	terms := make(map[string]TermEntry, len(b.counts))
	for term, postings := range b.counts {
		if term == "" {
			continue
		}
		idf := math.Log10(total / float64(len(postings)))

		raw := make(map[document.ID]float64, len(postings))
		var sumSquares float64
		for id, count := range postings {
			// A document without a recorded maximum contributes nothing.
			var wij float64
			if maxCount := b.maxFreq[id]; maxCount > 0 {
				tf := float64(count) / float64(maxCount)
				wij = idf * tf
			}
			raw[id] = wij
			sumSquares += wij * wij
		}

		norm := math.Sqrt(sumSquares)
		weights := make(map[document.ID]float64, len(raw))
		for id, wij := range raw {
			if norm == 0 {
				weights[id] = 0
				continue
			}
			weights[id] = wij / norm
		}
		terms[term] = TermEntry{IDF: idf, Postings: weights}
	}

	docs := make(map[document.ID]*document.Record, len(b.docs))
	for id, rec := range b.docs {
		docs[id] = rec
	}
	tokens := make(map[document.ID]int, len(b.tokens))
	for id, n := range b.tokens {
		tokens[id] = n
	}
	return newIndex(terms, docs, tokens)
}
