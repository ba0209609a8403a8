package textproc

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/config"
)

// Analyzer runs the full pipeline: normalize, tokenize, drop stop words,
// stem. The same analyzer must be used for documents and queries.
type Analyzer struct {
	stopWords StopWords
	stemmer   Stemmer
}

// NewAnalyzer builds an Analyzer. A nil stemmer means Identity.
func NewAnalyzer(stopWords StopWords, stemmer Stemmer) *Analyzer {
	if stopWords == nil {
		stopWords = StopWords{}
	}
	if stemmer == nil {
		stemmer = Identity{}
	}
	return &Analyzer{stopWords: stopWords, stemmer: stemmer}
}

// Terms returns the stemmed, non-stop tokens of text in order.
func (a *Analyzer) Terms(text string) []string {
	tokens := a.stopWords.Filter(Tokenize(text))
	for i, t := range tokens {
		tokens[i] = a.stemmer.Stem(t)
	}
	return tokens
}

// Stages holds the tokens of one text after each pipeline step.
type Stages struct {
	Tokens   []string // normalized, stop words included
	Filtered []string // stop words removed
	Terms    []string // stemmed
}

// Stages runs the pipeline on text and keeps every intermediate result.
// Terms equals what Terms(text) returns.
func (a *Analyzer) Stages(text string) Stages {
	tokens := Tokenize(text)
	filtered := a.stopWords.Filter(tokens)
	terms := make([]string, len(filtered))
	for i, t := range filtered {
		terms[i] = a.stemmer.Stem(t)
	}
	return Stages{Tokens: tokens, Filtered: filtered, Terms: terms}
}

// Sentence returns the terms of text joined by single spaces. The result
// may be empty.
func (a *Analyzer) Sentence(text string) string {
	return strings.Join(a.Terms(text), " ")
}

// FromConfig loads the stop-word list and picks the stemmer for the
// collection language. Language "none" disables stemming.
func FromConfig(cfg config.CollectionConfig) (*Analyzer, error) {
	stopWords, err := LoadStopWords(cfg.StopWordsPath)
	if err != nil {
		return nil, err
	}
	var stemmer Stemmer = Identity{}
	if cfg.Language != "none" {
		s, err := NewSnowball(cfg.Language)
		if err != nil {
			return nil, err
		}
		stemmer = s
	}
	return NewAnalyzer(stopWords, stemmer), nil
}
