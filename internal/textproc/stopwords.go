package textproc

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/errors"
)

// StopWords is a set of words removed before stemming.
type StopWords map[string]struct{}

// NewStopWords builds a set from the given words.
func NewStopWords(words ...string) StopWords {
	s := make(StopWords, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

// LoadStopWords reads a word list with one word per line. Blank lines are
// skipped. A missing file is reported as ErrStopWordsMissing.
func LoadStopWords(path string) (StopWords, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrStopWordsMissing, path)
		}
		return nil, fmt.Errorf("opening stop-word list: %w", err)
	}
	defer f.Close()

	s := make(StopWords)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		w := strings.TrimSpace(scanner.Text())
		if w == "" {
			continue
		}
		s[w] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading stop-word list %s: %w", path, err)
	}
	return s, nil
}

// Contains reports whether word is a stop word.
func (s StopWords) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

// Filter returns the tokens that are not stop words, preserving order.
func (s StopWords) Filter(tokens []string) []string {
	kept := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if s.Contains(t) {
			continue
		}
		kept = append(kept, t)
	}
	return kept
}
