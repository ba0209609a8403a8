package store

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/document"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/index"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/textproc"
	apperrors "github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/errors"
)

func sampleIndex() *index.Index {
	analyzer := textproc.NewAnalyzer(textproc.NewStopWords("the"), textproc.Identity{})
	b := index.NewBuilder()
	for _, d := range []struct{ id, title, body string }{
		{"a.html", "Cats", "The cat sat. Pi is 3.14. The cat sat again"},
		{"b.html", "Dogs", "The dog ran.. A dog barked"},
		{"c.html", "", "Mixed cat dog bird"},
	} {
		terms := analyzer.Terms(d.title + " " + d.body)
		b.Ingest(document.NewRecord(document.ID(d.id), d.title, d.body, analyzer, terms), terms)
	}
	return b.CalculateWeights()
}

func assertSameIndex(t *testing.T, want, got *index.Index) {
	t.Helper()
	ws, gs := want.Snapshot(), got.Snapshot()
	if len(ws.Terms) != len(gs.Terms) {
		t.Fatalf("terms = %d, want %d", len(gs.Terms), len(ws.Terms))
	}
	for term, we := range ws.Terms {
		ge, ok := gs.Terms[term]
		if !ok {
			t.Fatalf("term %q lost", term)
		}
		if ge.IDF != we.IDF {
			t.Errorf("idf(%q) = %v, want %v", term, ge.IDF, we.IDF)
		}
		if len(ge.Postings) != len(we.Postings) {
			t.Errorf("postings(%q) = %d, want %d", term, len(ge.Postings), len(we.Postings))
		}
		for id, w := range we.Postings {
			if ge.Postings[id] != w {
				t.Errorf("w(%q, %s) = %v, want %v", term, id, ge.Postings[id], w)
			}
		}
	}
	if !reflect.DeepEqual(ws.Tokens, gs.Tokens) {
		t.Errorf("tokens = %v, want %v", gs.Tokens, ws.Tokens)
	}
	if len(gs.Documents) != len(ws.Documents) {
		t.Fatalf("documents = %d, want %d", len(gs.Documents), len(ws.Documents))
	}
	for i, wd := range ws.Documents {
		gd := gs.Documents[i]
		if gd.ID != wd.ID || gd.Title != wd.Title {
			t.Errorf("document %d = %s %q, want %s %q", i, gd.ID, gd.Title, wd.ID, wd.Title)
		}
		if !reflect.DeepEqual(gd.Sentences, wd.Sentences) {
			t.Errorf("%s sentences = %q, want %q", wd.ID, gd.Sentences, wd.Sentences)
		}
		if !reflect.DeepEqual(gd.NormalizedSentences, wd.NormalizedSentences) {
			t.Errorf("%s normalized = %q, want %q", wd.ID, gd.NormalizedSentences, wd.NormalizedSentences)
		}
		if !reflect.DeepEqual(gd.TopTerms, wd.TopTerms) {
			t.Errorf("%s top terms = %v, want %v", wd.ID, gd.TopTerms, wd.TopTerms)
		}
	}
	if got.Stats() != want.Stats() {
		t.Errorf("stats = %+v, want %+v", got.Stats(), want.Stats())
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	idx := sampleIndex()
	blob, err := Encode(idx)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(blob[:4], magic) {
		t.Errorf("magic = %q", blob[:4])
	}
	got, err := Decode(blob)
	if err != nil {
		t.Fatal(err)
	}
	assertSameIndex(t, idx, got)
}

func TestEncodeIsDeterministic(t *testing.T) {
	idx := sampleIndex()
	a, err := Encode(idx)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Encode(sampleIndex())
	if err != nil {
		t.Fatal(err)
	}
	if Checksum(a) != Checksum(b) {
		t.Error("equal indexes produced different checksums")
	}
	if len(Checksum(a)) != 2*ChecksumSize {
		t.Errorf("checksum %q has wrong length", Checksum(a))
	}
}

func TestEncodeEmptyIndex(t *testing.T) {
	empty := index.NewBuilder().CalculateWeights()
	blob, err := Encode(empty)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(blob)
	if err != nil {
		t.Fatal(err)
	}
	if got.DocumentCount() != 0 || got.TermCount() != 0 {
		t.Errorf("decoded %d docs, %d terms", got.DocumentCount(), got.TermCount())
	}
}

func TestDecodeDetectsCorruption(t *testing.T) {
	blob, err := Encode(sampleIndex())
	if err != nil {
		t.Fatal(err)
	}
	corrupt := func(mutate func([]byte) []byte) []byte {
		c := append([]byte(nil), blob...)
		return mutate(c)
	}

	tests := []struct {
		name string
		blob []byte
	}{
		{"empty", nil},
		{"short", blob[:HeaderSize]},
		{"bad magic", corrupt(func(b []byte) []byte { b[0] = 'X'; return b })},
		{"bad version", corrupt(func(b []byte) []byte { b[4] = 9; return b })},
		{"payload bit flip", corrupt(func(b []byte) []byte { b[HeaderSize+3] ^= 0x01; return b })},
		{"checksum bit flip", corrupt(func(b []byte) []byte { b[len(b)-1] ^= 0x80; return b })},
		{"truncated", blob[:len(blob)-1]},
		{"trailing garbage", append(append([]byte(nil), blob...), 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.blob); !errors.Is(err, apperrors.ErrCorruptIndex) {
				t.Errorf("err = %v, want ErrCorruptIndex", err)
			}
		})
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "index.vsmx")
	s := NewFileStore(path)

	if _, _, err := LoadIndex(ctx, s, "default"); !errors.Is(err, apperrors.ErrIndexNotFound) {
		t.Fatalf("missing file err = %v, want ErrIndexNotFound", err)
	}

	idx := sampleIndex()
	sum, err := SaveIndex(ctx, s, "default", idx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}

	got, loadedSum, err := LoadIndex(ctx, s, "default")
	if err != nil {
		t.Fatal(err)
	}
	if loadedSum != sum {
		t.Errorf("checksum = %s, want %s", loadedSum, sum)
	}
	assertSameIndex(t, idx, got)

	// Overwrite with a smaller index.
	small := index.NewBuilder()
	small.Ingest(document.NewRecord("x", "X", "x", textproc.NewAnalyzer(nil, nil), []string{"x"}), []string{"x"})
	if _, err := SaveIndex(ctx, s, "default", small.CalculateWeights()); err != nil {
		t.Fatal(err)
	}
	got, _, err = LoadIndex(ctx, s, "default")
	if err != nil {
		t.Fatal(err)
	}
	if got.DocumentCount() != 1 {
		t.Errorf("DocumentCount = %d, want 1", got.DocumentCount())
	}
}

func TestLoadIndexCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.vsmx")
	if err := os.WriteFile(path, []byte("definitely not an index, but long enough to have a header and trailer"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := LoadIndex(context.Background(), NewFileStore(path), "")
	if !errors.Is(err, apperrors.ErrCorruptIndex) {
		t.Errorf("err = %v, want ErrCorruptIndex", err)
	}
}
