package query

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/document"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/index"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/ranker"
)

type accumulator struct {
	dot     float64
	squares float64
}

// Similarities scores every document sharing a weighted term with v and
// returns them highest first. The document side is normalized only over
// the query's terms:
//
//	score(d) = sum(wq * wd) / (|q| * sqrt(sum(wd^2)))
//
// where both sums run over query terms with a nonzero posting in d.
// Documents whose numerator is zero are left out.
func Similarities(v *Vector, idx *index.Index) []ranker.Pair[document.ID] {
	if v.norm == 0 {
		return []ranker.Pair[document.ID]{}
	}

	acc := make(map[document.ID]*accumulator)
	for _, c := range v.components {
		if !c.indexed {
			continue
		}
		for id, w := range c.entry.Postings {
			if w == 0 {
				continue
			}
			a, ok := acc[id]
			if !ok {
				a = &accumulator{}
				acc[id] = a
			}
			a.dot += c.weight * w
			a.squares += w * w
		}
	}

	results := make([]ranker.Pair[document.ID], 0, len(acc))
	for _, id := range idx.DocumentIDs() {
		a, ok := acc[id]
		if !ok || a.dot == 0 {
			continue
		}
		score := a.dot / (v.norm * math.Sqrt(a.squares))
		results = append(results, ranker.Pair[document.ID]{Key: id, Score: score})
	}
	ranker.SortDescending(results)
	return results
}
