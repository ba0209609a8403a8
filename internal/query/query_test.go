package query

import (
	"math"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/document"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/index"
)

type stopAnalyzer map[string]bool

func (s stopAnalyzer) Terms(text string) []string {
	var out []string
	for _, f := range strings.Fields(strings.ToLower(text)) {
		if s[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

var analyzer = stopAnalyzer{"the": true, "a": true}

func buildIndex(docs map[string]string) *index.Index {
	b := index.NewBuilder()
	for id, body := range docs {
		terms := analyzer.Terms(body)
		b.Ingest(document.NewRecord(document.ID(id), id, body, analyzer, terms), terms)
	}
	return b.CalculateWeights()
}

func TestBuildVector(t *testing.T) {
	idx := buildIndex(map[string]string{
		"a": "the cat sat",
		"b": "the dog ran",
	})

	v := Build("cat cat zebra", analyzer, idx)
	terms := v.Terms()
	sort.Strings(terms)
	if !reflect.DeepEqual(terms, []string{"cat", "zebra"}) {
		t.Errorf("Terms = %v", terms)
	}
	for _, p := range v.Weights() {
		switch p.Key {
		case "cat":
			if math.Abs(p.Score-1) > 1e-12 {
				t.Errorf("weight(cat) = %v, want 1", p.Score)
			}
		case "zebra":
			if p.Score != 0 {
				t.Errorf("weight(zebra) = %v, want 0", p.Score)
			}
		}
	}
	if math.Abs(v.Norm()-1) > 1e-12 {
		t.Errorf("Norm = %v, want 1", v.Norm())
	}
}

func TestBuildVectorRelativeWeights(t *testing.T) {
	idx := buildIndex(map[string]string{
		"a": "cat sat",
		"b": "dog ran",
		"c": "cat dog",
		"d": "bird",
	})
	// cat and dog share idf; cat occurs twice so tf(cat)=1, tf(dog)=0.5.
	v := Build("cat cat dog", analyzer, idx)
	w := map[string]float64{}
	for _, p := range v.Weights() {
		w[p.Key] = p.Score
	}
	if math.Abs(w["cat"]/w["dog"]-2) > 1e-9 {
		t.Errorf("cat/dog = %v, want 2", w["cat"]/w["dog"])
	}
	if math.Abs(w["cat"]*w["cat"]+w["dog"]*w["dog"]-1) > 1e-9 {
		t.Errorf("weights are not unit length: %v", w)
	}
}

func TestSimilaritiesTwoDocuments(t *testing.T) {
	idx := buildIndex(map[string]string{
		"a": "the cat sat",
		"b": "the dog ran",
	})

	results := Similarities(Build("cat", analyzer, idx), idx)
	if len(results) != 1 {
		t.Fatalf("results = %v, want only a", results)
	}
	if results[0].Key != "a" {
		t.Errorf("top = %s, want a", results[0].Key)
	}
	if math.Abs(results[0].Score-1) > 1e-12 {
		t.Errorf("similarity = %v, want 1", results[0].Score)
	}
}

func TestSimilaritiesRanking(t *testing.T) {
	idx := buildIndex(map[string]string{
		"a": "cat cat cat dog",
		"b": "cat dog dog dog",
		"c": "bird fish",
		"d": "bird cow",
	})
	results := Similarities(Build("cat", analyzer, idx), idx)
	if len(results) != 2 {
		t.Fatalf("results = %v, want 2 documents", results)
	}
	// Single-term queries normalize the document side over that term only.
	for _, r := range results {
		if math.Abs(r.Score-1) > 1e-12 {
			t.Errorf("score(%s) = %v, want 1", r.Key, r.Score)
		}
	}

	results = Similarities(Build("cat dog dog", analyzer, idx), idx)
	if len(results) != 2 {
		t.Fatalf("results = %v, want 2 documents", results)
	}
	if results[0].Key != "b" {
		t.Errorf("top = %s, want b", results[0].Key)
	}
	if results[0].Score < results[1].Score {
		t.Error("results are not descending")
	}
	for _, r := range results {
		if r.Score <= 0 || r.Score > 1+1e-12 {
			t.Errorf("score(%s) = %v out of range", r.Key, r.Score)
		}
	}
}

func TestSimilaritiesDegenerateQueries(t *testing.T) {
	idx := buildIndex(map[string]string{
		"a": "the cat sat",
		"b": "the cat ran",
	})
	tests := []struct {
		name  string
		query string
	}{
		{"stop words only", "the a the"},
		{"empty", ""},
		{"unknown terms", "zebra"},
		{"zero idf", "cat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Build(tt.query, analyzer, idx)
			if v.Norm() != 0 || !v.Empty() {
				t.Errorf("Norm = %v, want 0", v.Norm())
			}
			for _, p := range v.Weights() {
				if p.Score != 0 {
					t.Errorf("weight(%s) = %v, want 0", p.Key, p.Score)
				}
			}
			if got := Similarities(v, idx); len(got) != 0 {
				t.Errorf("Similarities = %v, want empty", got)
			}
		})
	}
}
