package document

import (
	"reflect"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/ranker"
)

type lowerAnalyzer struct{}

func (lowerAnalyzer) Terms(text string) []string {
	var out []string
	for _, f := range strings.Fields(strings.ToLower(text)) {
		if f == "the" {
			continue
		}
		out = append(out, f)
	}
	return out
}

func TestNewRecordSentences(t *testing.T) {
	body := "The cat sat. Pi is 3.14.. The end..."
	rec := NewRecord("doc.html", "Title Here", body, lowerAnalyzer{}, nil)

	wantSentences := []string{"Title Here", "The cat sat", " Pi is 3", "14", "", " The end"}
	if !reflect.DeepEqual(rec.Sentences, wantSentences) {
		t.Errorf("Sentences = %q, want %q", rec.Sentences, wantSentences)
	}
	wantNormalized := []string{"title here", "cat sat", "pi is 3", "14", "", "end"}
	if !reflect.DeepEqual(rec.NormalizedSentences, wantNormalized) {
		t.Errorf("NormalizedSentences = %q, want %q", rec.NormalizedSentences, wantNormalized)
	}
	if len(rec.Sentences) != len(rec.NormalizedSentences) {
		t.Error("sentences are not aligned")
	}
}

func TestTop(t *testing.T) {
	terms := []string{"sat", "cat", "sat", "mat", "sat", "cat"}
	rec := NewRecord("a", "", "", lowerAnalyzer{}, terms)

	got := rec.Top(2)
	want := []ranker.Pair[string]{{Key: "sat", Score: 3}, {Key: "cat", Score: 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Top(2) = %v, want %v", got, want)
	}
	if n := len(rec.Top(10)); n != 3 {
		t.Errorf("len(Top(10)) = %d, want 3", n)
	}
	if n := len(rec.Top(0)); n != 0 {
		t.Errorf("len(Top(0)) = %d, want 0", n)
	}
	if n := len(rec.Top(-1)); n != 0 {
		t.Errorf("len(Top(-1)) = %d, want 0", n)
	}
}

func TestFirstMatchingSentence(t *testing.T) {
	rec := NewRecord("a", "Cats", "The dog ran. A cat sat. Another cat.", lowerAnalyzer{}, nil)

	tests := []struct {
		name  string
		terms []string
		want  string
		found bool
	}{
		{"title matches first", []string{"cats"}, "Cats", true},
		{"first body sentence", []string{"cat"}, " A cat sat", true},
		{"any term", []string{"zebra", "ran"}, "The dog ran", true},
		{"whole token only", []string{"ca"}, "", false},
		{"no terms", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := rec.FirstMatchingSentence(tt.terms)
			if ok != tt.found || got != tt.want {
				t.Errorf("FirstMatchingSentence(%v) = %q, %v; want %q, %v", tt.terms, got, ok, tt.want, tt.found)
			}
		})
	}
}
