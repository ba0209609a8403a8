// Package indexer builds a weighted index from a directory of HTML
// documents.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/document"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/extract"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/index"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/textproc"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/metrics"
)

// Result is the outcome of one indexing run plus its report. Stages holds
// the tokenizer, stop-word filter and stemmer statistics in that order.
type Result struct {
	Index       *index.Index
	Stats       index.Stats
	TotalTokens int
	Stages      []StageStats
	Elapsed     time.Duration
}

// AverageTokens returns the mean number of analyzed tokens per document.
func (r *Result) AverageTokens() float64 {
	if r.Stats.Documents == 0 {
		return 0
	}
	return float64(r.TotalTokens) / float64(r.Stats.Documents)
}

type Engine struct {
	cfg      config.CollectionConfig
	analyzer *textproc.Analyzer
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewEngine builds an engine; m may be nil.
func NewEngine(cfg config.CollectionConfig, analyzer *textproc.Analyzer, m *metrics.Metrics) *Engine {
	return &Engine{
		cfg:      cfg,
		analyzer: analyzer,
		metrics:  m,
		logger:   slog.Default().With("component", "indexer"),
	}
}

// Build indexes every matching file in dir. Documents are extracted and
// analyzed on a bounded worker pool; weights are calculated once, after
// all of them are in. Any document failure aborts the run.
func (e *Engine) Build(ctx context.Context, dir string) (*Result, error) {
	start := time.Now()
	files, err := e.listFiles(dir)
	if err != nil {
		return nil, err
	}
	e.logger.Info("indexing collection", "dir", dir, "files", len(files), "workers", e.cfg.Workers)

	builder := index.NewBuilder()
	counters := []*stageCounter{
		newStageCounter(StageTokenized),
		newStageCounter(StageStopped),
		newStageCounter(StageStemmed),
	}
	var totalTokens atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(e.cfg.Workers, 1))
	for _, path := range files {
		path := path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			n, err := e.ingestFile(builder, counters, path)
			if err != nil {
				return err
			}
			totalTokens.Add(int64(n))
			if e.metrics != nil {
				e.metrics.DocsIndexedTotal.Inc()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("indexing collection %s: %w", dir, err)
	}

	idx := builder.CalculateWeights()
	stages := make([]StageStats, len(counters))
	for i, c := range counters {
		stages[i] = c.stats(e.cfg.TopWords)
	}
	res := &Result{
		Index:       idx,
		Stats:       idx.Stats(),
		TotalTokens: int(totalTokens.Load()),
		Stages:      stages,
		Elapsed:     time.Since(start),
	}
	if e.metrics != nil {
		e.metrics.IndexBuildDuration.Observe(res.Elapsed.Seconds())
		e.metrics.IndexDocuments.Set(float64(res.Stats.Documents))
		e.metrics.IndexTerms.Set(float64(res.Stats.Terms))
	}
	e.logger.Info("collection indexed",
		"documents", res.Stats.Documents,
		"terms", res.Stats.Terms,
		"tokens", res.TotalTokens,
		"elapsed", res.Elapsed.Round(time.Millisecond),
	)
	return res, nil
}

// ingestFile adds one document to builder and counts its tokens at every
// analysis stage. counters follow the order of Result.Stages.
func (e *Engine) ingestFile(builder *index.Builder, counters []*stageCounter, path string) (int, error) {
	page, err := extract.File(path)
	if err != nil {
		return 0, err
	}
	st := e.analyzer.Stages(page.Text())
	terms := st.Terms
	id := document.ID(filepath.Base(path))
	rec := document.NewRecord(id, page.Title, page.Body, e.analyzer, terms)
	builder.Ingest(rec, terms)

	counters[0].add(id, st.Tokens)
	counters[1].add(id, st.Filtered)
	counters[2].add(id, st.Terms)

	e.logger.Debug("document ingested",
		"doc_id", id,
		"token_count", len(terms),
		"sentences", len(rec.Sentences),
	)
	return len(terms), nil
}

func (e *Engine) listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading collection directory %s: %w", dir, err)
	}
	allowed := make(map[string]bool, len(e.cfg.Extensions))
	for _, ext := range e.cfg.Extensions {
		allowed[strings.ToLower(ext)] = true
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if !allowed[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no %s files in %s", apperrors.ErrCollectionEmpty, strings.Join(e.cfg.Extensions, "/"), dir)
	}
	sort.Strings(files)
	return files, nil
}
