package index

import (
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/document"
	apperrors "github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/errors"
)

type fieldsAnalyzer struct{}

func (fieldsAnalyzer) Terms(text string) []string {
	var out []string
	for _, f := range strings.Fields(strings.ToLower(text)) {
		if f == "the" {
			continue
		}
		out = append(out, f)
	}
	return out
}

func ingest(b *Builder, id, body string) {
	terms := fieldsAnalyzer{}.Terms(body)
	rec := document.NewRecord(document.ID(id), id, body, fieldsAnalyzer{}, terms)
	b.Ingest(rec, terms)
}

func TestCalculateWeightsTwoDocuments(t *testing.T) {
	b := NewBuilder()
	ingest(b, "a", "the cat sat")
	ingest(b, "b", "the dog ran")
	idx := b.CalculateWeights()

	if idx.DocumentCount() != 2 {
		t.Fatalf("DocumentCount = %d, want 2", idx.DocumentCount())
	}
	if idx.TermCount() != 4 {
		t.Fatalf("TermCount = %d, want 4", idx.TermCount())
	}
	want := math.Log10(2)
	for _, term := range []string{"cat", "sat", "dog", "ran"} {
		e, ok := idx.Lookup(term)
		if !ok {
			t.Fatalf("term %q missing", term)
		}
		if e.IDF != want {
			t.Errorf("idf(%q) = %v, want %v", term, e.IDF, want)
		}
		if len(e.Postings) != 1 {
			t.Errorf("postings(%q) = %v, want one document", term, e.Postings)
		}
		for _, w := range e.Postings {
			if math.Abs(w-1) > 1e-12 {
				t.Errorf("weight(%q) = %v, want 1", term, w)
			}
		}
	}
	if _, ok := idx.Lookup("the"); ok {
		t.Error("stop word indexed")
	}
}

func TestCalculateWeightsTermInEveryDocument(t *testing.T) {
	b := NewBuilder()
	ingest(b, "a", "cat sat")
	ingest(b, "b", "cat ran")
	idx := b.CalculateWeights()

	e, ok := idx.Lookup("cat")
	if !ok {
		t.Fatal("cat missing")
	}
	if e.IDF != 0 {
		t.Errorf("idf = %v, want 0", e.IDF)
	}
	for id, w := range e.Postings {
		if w != 0 {
			t.Errorf("weight in %s = %v, want 0", id, w)
		}
	}
}

func TestCalculateWeightsColumnNorm(t *testing.T) {
	b := NewBuilder()
	ingest(b, "a", "apple apple banana cherry")
	ingest(b, "b", "apple banana banana banana")
	ingest(b, "c", "cherry date")
	ingest(b, "d", "date date elder")
	idx := b.CalculateWeights()

	for _, term := range []string{"apple", "banana", "cherry", "date", "elder"} {
		e, ok := idx.Lookup(term)
		if !ok {
			t.Fatalf("term %q missing", term)
		}
		if e.IDF <= 0 {
			t.Errorf("idf(%q) = %v, want > 0", term, e.IDF)
		}
		var sum float64
		for _, w := range e.Postings {
			sum += w * w
		}
		norm := math.Sqrt(sum)
		if norm != 0 && math.Abs(norm-1) > 1e-9 {
			t.Errorf("column norm of %q = %v, want 0 or 1", term, norm)
		}
	}

	// apple: tf(a) = 2/2, tf(b) = 1/3, so the weights are proportional.
	e, _ := idx.Lookup("apple")
	ratio := e.Postings["a"] / e.Postings["b"]
	if math.Abs(ratio-3) > 1e-9 {
		t.Errorf("apple weight ratio = %v, want 3", ratio)
	}
}

func TestCalculateWeightsDropsEmptyTerm(t *testing.T) {
	b := NewBuilder()
	b.AddOccurrence("", "a")
	b.AddOccurrence("x", "a")
	b.RecordMaxFrequency("a", map[string]int{"": 1, "x": 1})
	idx := b.CalculateWeights()
	if _, ok := idx.Lookup(""); ok {
		t.Error("empty term must not be indexed")
	}
	if idx.TermCount() != 1 {
		t.Errorf("TermCount = %d, want 1", idx.TermCount())
	}
}

func TestCalculateWeightsIsPure(t *testing.T) {
	b := NewBuilder()
	ingest(b, "a", "cat sat sat")
	ingest(b, "b", "dog ran")
	first := b.CalculateWeights()
	second := b.CalculateWeights()

	for _, term := range []string{"cat", "sat", "dog", "ran"} {
		e1, _ := first.Lookup(term)
		e2, _ := second.Lookup(term)
		if e1.IDF != e2.IDF {
			t.Errorf("idf(%q) changed between passes", term)
		}
		for id, w := range e1.Postings {
			if e2.Postings[id] != w {
				t.Errorf("weight(%q, %s) changed between passes", term, id)
			}
		}
	}
}

func TestBuilderConcurrentIngest(t *testing.T) {
	b := NewBuilder()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ingest(b, string(rune('A'+i)), "shared word")
		}(i)
	}
	wg.Wait()
	if b.DocumentCount() != 50 {
		t.Fatalf("DocumentCount = %d, want 50", b.DocumentCount())
	}
	idx := b.CalculateWeights()
	e, _ := idx.Lookup("shared")
	if len(e.Postings) != 50 {
		t.Errorf("postings = %d, want 50", len(e.Postings))
	}
}

func TestStats(t *testing.T) {
	b := NewBuilder()
	ingest(b, "short", "one")
	ingest(b, "long", "one two three four")
	ingest(b, "mid", "one two")
	s := b.CalculateWeights().Stats()

	if s.Documents != 3 || s.Terms != 4 {
		t.Errorf("counts = %d docs, %d terms", s.Documents, s.Terms)
	}
	if s.Longest != (DocumentLength{ID: "long", Tokens: 4}) {
		t.Errorf("Longest = %+v", s.Longest)
	}
	if s.Shortest != (DocumentLength{ID: "short", Tokens: 1}) {
		t.Errorf("Shortest = %+v", s.Shortest)
	}
}

func TestDocumentLookup(t *testing.T) {
	b := NewBuilder()
	ingest(b, "a", "cat")
	idx := b.CalculateWeights()
	if rec, ok := idx.Document("a"); !ok || rec.ID != "a" {
		t.Errorf("Document(a) = %v, %v", rec, ok)
	}
	if _, ok := idx.Document("missing"); ok {
		t.Error("Document(missing) found")
	}
}

func TestFromSnapshot(t *testing.T) {
	b := NewBuilder()
	ingest(b, "a", "cat sat. dog")
	ingest(b, "b", "dog ran")
	idx := b.CalculateWeights()

	restored, err := FromSnapshot(idx.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	if restored.DocumentCount() != idx.DocumentCount() || restored.TermCount() != idx.TermCount() {
		t.Fatal("counts differ after restore")
	}
	if restored.Stats() != idx.Stats() {
		t.Errorf("Stats = %+v, want %+v", restored.Stats(), idx.Stats())
	}

	bad := idx.Snapshot()
	bad.Terms = map[string]TermEntry{"x": {IDF: 1, Postings: map[document.ID]float64{"ghost": 1}}}
	if _, err := FromSnapshot(bad); !errors.Is(err, apperrors.ErrCorruptIndex) {
		t.Errorf("err = %v, want ErrCorruptIndex", err)
	}

	bad = idx.Snapshot()
	bad.Terms = map[string]TermEntry{"x": {IDF: math.NaN()}}
	if _, err := FromSnapshot(bad); !errors.Is(err, apperrors.ErrCorruptIndex) {
		t.Errorf("err = %v, want ErrCorruptIndex", err)
	}
}
