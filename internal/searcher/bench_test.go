package searcher

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/document"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/index"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/config"
)

var benchWords = strings.Fields("cat dog bird fish horse sat ran flew swam jumped quick lazy brown green small large garden river forest field")

func benchIndex(docs int) *index.Index {
	b := index.NewBuilder()
	for i := 0; i < docs; i++ {
		words := make([]string, 0, 30)
		for j := 0; j < 30; j++ {
			words = append(words, benchWords[(i*5+j*j)%len(benchWords)])
		}
		body := strings.Join(words, " ") + ". " + strings.Join(words[:10], " ")
		title := benchWords[i%len(benchWords)]
		terms := testAnalyzer.Terms(title + " " + body)
		id := document.ID(fmt.Sprintf("doc-%d.html", i))
		b.Ingest(document.NewRecord(id, title, body, testAnalyzer, terms), terms)
	}
	return b.CalculateWeights()
}

func BenchmarkSearch(b *testing.B) {
	queries := []struct{ name, query string }{
		{"single", "cat"},
		{"pair", "quick fox"},
		{"long", "lazy brown dog jumped over the green garden river"},
	}
	for _, docs := range []int{100, 1000} {
		svc := NewService(benchIndex(docs), testAnalyzer, config.Default().Search)
		for _, q := range queries {
			b.Run(fmt.Sprintf("docs_%d/%s", docs, q.name), func(b *testing.B) {
				ctx := context.Background()
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					if _, err := svc.Search(ctx, Request{Query: q.query}); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkSearchParallel(b *testing.B) {
	svc := NewService(benchIndex(1000), testAnalyzer, config.Default().Search)
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := svc.Search(ctx, Request{Query: "small horse ran"}); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
