package indexer

import (
	"sync"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/document"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/index"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/ranker"
)

const (
	StageTokenized = "tokenizer"
	StageStopped   = "stop-word filter"
	StageStemmed   = "stemmer"
)

// StageStats summarizes the collection after one analysis step.
type StageStats struct {
	Name     string                `json:"name"`
	Tokens   int                   `json:"tokens"`
	Average  float64               `json:"average"`
	Longest  index.DocumentLength  `json:"longest"`
	Shortest index.DocumentLength  `json:"shortest"`
	TopWords []ranker.Pair[string] `json:"top_words"`
}

// stageCounter accumulates one stage across concurrently ingested
// documents.
type stageCounter struct {
	name string

	mu       sync.Mutex
	docs     int
	tokens   int
	longest  index.DocumentLength
	shortest index.DocumentLength
	counts   map[string]int
}

func newStageCounter(name string) *stageCounter {
	return &stageCounter{name: name, counts: make(map[string]int)}
}

func (s *stageCounter) add(id document.ID, words []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(words)
	doc := index.DocumentLength{ID: id, Tokens: n}
	if s.docs == 0 {
		s.longest, s.shortest = doc, doc
	} else {
		// Ties go to the lowest ID so the result does not depend on
		// worker scheduling.
		if n > s.longest.Tokens || (n == s.longest.Tokens && id < s.longest.ID) {
			s.longest = doc
		}
		if n < s.shortest.Tokens || (n == s.shortest.Tokens && id < s.shortest.ID) {
			s.shortest = doc
		}
	}
	s.docs++
	s.tokens += n
	for _, w := range words {
		s.counts[w]++
	}
}

func (s *stageCounter) stats(topWords int) StageStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := StageStats{
		Name:     s.name,
		Tokens:   s.tokens,
		Longest:  s.longest,
		Shortest: s.shortest,
		TopWords: ranker.Top(ranker.FromCounts(s.counts), topWords),
	}
	if s.docs > 0 {
		st.Average = float64(s.tokens) / float64(s.docs)
	}
	return st
}
