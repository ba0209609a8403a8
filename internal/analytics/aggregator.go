package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/ranker"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/kafka"
)

const latencyWindow = 10000

type Stats struct {
	TotalSearches     int64                 `json:"total_searches"`
	ZeroResults       int64                 `json:"zero_results"`
	CacheHits         int64                 `json:"cache_hits"`
	CacheMisses       int64                 `json:"cache_misses"`
	FeedbackRuns      int64                 `json:"feedback_runs"`
	AvgPrimary        float64               `json:"avg_primary_results"`
	AvgExpanded       float64               `json:"avg_expanded_results"`
	AvgLatencyMs      float64               `json:"avg_latency_ms"`
	P50LatencyMs      int64                 `json:"p50_latency_ms"`
	P95LatencyMs      int64                 `json:"p95_latency_ms"`
	P99LatencyMs      int64                 `json:"p99_latency_ms"`
	QueriesPerMinute  float64               `json:"queries_per_minute"`
	TopQueries        []ranker.Pair[string] `json:"top_queries"`
	ZeroResultQueries []ranker.Pair[string] `json:"zero_result_queries"`
	IndexBuilds       int64                 `json:"index_builds"`
	LastIndexBuild    *IndexEvent           `json:"last_index_build,omitempty"`
}

// Aggregator folds search and index events into running totals. Latency
// percentiles cover the most recent events only.
type Aggregator struct {
	mu          sync.RWMutex
	stats       Stats
	primarySum  int64
	expandedSum int64
	latencies   []int64
	next        int
	queryCounts map[string]int
	zeroCounts  map[string]int
	topN        int
	started     time.Time
	logger      *slog.Logger
}

func NewAggregator(topN int) *Aggregator {
	if topN <= 0 {
		topN = 10
	}
	return &Aggregator{
		latencies:   make([]int64, 0, latencyWindow),
		queryCounts: make(map[string]int),
		zeroCounts:  make(map[string]int),
		topN:        topN,
		started:     time.Now(),
		logger:      slog.Default().With("component", "analytics-aggregator"),
	}
}

// HandleMessage is the kafka.Handler for both event topics. Unknown event
// types are skipped so a newer producer cannot stall the consumer.
func (a *Aggregator) HandleMessage(_ context.Context, msg kafka.Message) error {
	switch EventType(msg.Type) {
	case EventSearch, EventZeroResult:
		e, err := kafka.DecodeJSON[SearchEvent](msg.Value)
		if err != nil {
			return fmt.Errorf("search event: %w", err)
		}
		a.RecordSearch(e)
	case EventIndexBuild:
		e, err := kafka.DecodeJSON[IndexEvent](msg.Value)
		if err != nil {
			return fmt.Errorf("index event: %w", err)
		}
		a.RecordIndex(e)
	default:
		a.logger.Warn("skipping unknown event type", "type", msg.Type, "topic", msg.Topic)
	}
	return nil
}

func (a *Aggregator) RecordSearch(e SearchEvent) {
	query := strings.Join(strings.Fields(strings.ToLower(e.Query)), " ")

	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats.TotalSearches++
	if e.CacheHit {
		a.stats.CacheHits++
	} else {
		a.stats.CacheMisses++
	}
	if e.TotalPrimary == 0 {
		a.stats.ZeroResults++
		a.zeroCounts[query]++
	} else {
		a.stats.FeedbackRuns++
	}
	a.primarySum += int64(e.TotalPrimary)
	a.expandedSum += int64(e.TotalExpanded)
	a.queryCounts[query]++

	if len(a.latencies) < latencyWindow {
		a.latencies = append(a.latencies, e.LatencyMs)
	} else {
		a.latencies[a.next] = e.LatencyMs
		a.next = (a.next + 1) % latencyWindow
	}
}

func (a *Aggregator) RecordIndex(e IndexEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats.IndexBuilds++
	if a.stats.LastIndexBuild == nil || !e.Timestamp.Before(a.stats.LastIndexBuild.Timestamp) {
		a.stats.LastIndexBuild = &e
	}
}

func (a *Aggregator) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	s := a.stats
	if s.TotalSearches > 0 {
		s.AvgPrimary = float64(a.primarySum) / float64(s.TotalSearches)
	}
	if s.FeedbackRuns > 0 {
		s.AvgExpanded = float64(a.expandedSum) / float64(s.FeedbackRuns)
	}
	if len(a.latencies) > 0 {
		sorted := append([]int64(nil), a.latencies...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		var sum int64
		for _, l := range sorted {
			sum += l
		}
		s.AvgLatencyMs = float64(sum) / float64(len(sorted))
		s.P50LatencyMs = percentile(sorted, 50)
		s.P95LatencyMs = percentile(sorted, 95)
		s.P99LatencyMs = percentile(sorted, 99)
	}
	if minutes := time.Since(a.started).Minutes(); minutes > 0 {
		s.QueriesPerMinute = float64(s.TotalSearches) / minutes
	}
	s.TopQueries = ranker.Top(ranker.FromCounts(a.queryCounts), a.topN)
	s.ZeroResultQueries = ranker.Top(ranker.FromCounts(a.zeroCounts), a.topN)
	if s.LastIndexBuild != nil {
		last := *s.LastIndexBuild
		s.LastIndexBuild = &last
	}
	return s
}

func percentile(sorted []int64, pct int) int64 {
	i := pct * len(sorted) / 100
	if i >= len(sorted) {
		i = len(sorted) - 1
	}
	return sorted[i]
}
