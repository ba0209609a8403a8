// Package feedback implements pseudo-relevance feedback: the top results
// of a query contribute their most frequent terms to a second, expanded
// query.
package feedback

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/document"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/index"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/query"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/ranker"
)

// Outcome carries both passes. Expanded and ExpandedResults are empty
// when the primary pass found nothing.
type Outcome struct {
	Primary         *query.Vector
	PrimaryResults  []ranker.Pair[document.ID]
	ExpandedQuery   string
	Expanded        *query.Vector
	ExpandedResults []ranker.Pair[document.ID]
}

type Controller struct {
	analyzer document.Analyzer
	index    *index.Index
}

func NewController(analyzer document.Analyzer, idx *index.Index) *Controller {
	return &Controller{analyzer: analyzer, index: idx}
}

// Run scores raw, then re-scores it expanded with up to topTerms terms
// from each of the topDocs best documents.
func (c *Controller) Run(raw string, topDocs, topTerms int) Outcome {
	primary := query.Build(raw, c.analyzer, c.index)
	out := Outcome{
		Primary:         primary,
		PrimaryResults:  query.Similarities(primary, c.index),
		ExpandedResults: []ranker.Pair[document.ID]{},
	}
	if len(out.PrimaryResults) == 0 {
		return out
	}

	out.ExpandedQuery = Expand(raw, out.PrimaryResults, c.index, topDocs, topTerms)
	out.Expanded = query.Build(out.ExpandedQuery, c.analyzer, c.index)
	out.ExpandedResults = query.Similarities(out.Expanded, c.index)
	return out
}

// Expand appends to raw, separated by spaces, the top terms of the first
// topDocs results. A term harvested from an earlier document is not added
// again.
func Expand(raw string, results []ranker.Pair[document.ID], idx *index.Index, topDocs, topTerms int) string {
	var b strings.Builder
	b.WriteString(raw)

	seen := make(map[string]struct{})
	for _, r := range ranker.Top(results, topDocs) {
		rec, ok := idx.Document(r.Key)
		if !ok {
			continue
		}
		for _, t := range rec.Top(topTerms) {
			if _, dup := seen[t.Key]; dup {
				continue
			}
			seen[t.Key] = struct{}{}
			b.WriteByte(' ')
			b.WriteString(t.Key)
		}
	}
	return b.String()
}
