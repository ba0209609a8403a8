// Package query builds weighted query vectors and scores them against the
// index with a partial cosine similarity.
package query

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/document"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/index"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/ranker"
)

type component struct {
	term    string
	weight  float64
	indexed bool
	entry   index.TermEntry
}

// Vector is a query's term weights. Terms unknown to the index are kept
// with weight zero.
type Vector struct {
	raw        string
	components []component
	norm       float64
}

// Build analyzes raw and weights its unique terms: raw count, divided by
// the query's highest count, multiplied by idf, then L2-normalized over
// the terms present in idx. When that norm is zero every weight is zero.
func Build(raw string, analyzer document.Analyzer, idx *index.Index) *Vector {
	terms := analyzer.Terms(raw)

	counts := make(map[string]int, len(terms))
	order := make([]string, 0, len(terms))
	maxCount := 0
	for _, t := range terms {
		if counts[t] == 0 {
			order = append(order, t)
		}
		counts[t]++
		if counts[t] > maxCount {
			maxCount = counts[t]
		}
	}

	v := &Vector{raw: raw, components: make([]component, len(order))}
	var sumSquares float64
	for i, t := range order {
		c := component{term: t}
		if entry, ok := idx.Lookup(t); ok {
			tf := float64(counts[t]) / float64(maxCount)
			c.weight = tf * entry.IDF
			c.indexed = true
			c.entry = entry
			sumSquares += c.weight * c.weight
		}
		v.components[i] = c
	}

	norm := math.Sqrt(sumSquares)
	for i := range v.components {
		if norm == 0 {
			v.components[i].weight = 0
			continue
		}
		v.components[i].weight /= norm
	}

	for _, c := range v.components {
		if c.indexed {
			v.norm += c.weight * c.weight
		}
	}
	v.norm = math.Sqrt(v.norm)
	return v
}

// Raw returns the text the vector was built from.
func (v *Vector) Raw() string {
	return v.raw
}

// Terms returns every analyzed query term, including those unknown to the
// index.
func (v *Vector) Terms() []string {
	out := make([]string, len(v.components))
	for i, c := range v.components {
		out[i] = c.term
	}
	return out
}

// Weights returns the (term, weight) pairs of the vector.
func (v *Vector) Weights() []ranker.Pair[string] {
	out := make([]ranker.Pair[string], len(v.components))
	for i, c := range v.components {
		out[i] = ranker.Pair[string]{Key: c.term, Score: c.weight}
	}
	return out
}

// Norm is the L2 norm of the weights of indexed terms: 1, or 0 when no
// query term carries weight.
func (v *Vector) Norm() float64 {
	return v.norm
}

// Empty reports whether no query term carries weight.
func (v *Vector) Empty() bool {
	return v.norm == 0
}
