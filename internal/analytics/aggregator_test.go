package analytics

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/kafka"
)

func message(t *testing.T, typ EventType, v any) kafka.Message {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return kafka.Message{Topic: "events", Type: string(typ), Value: data}
}

func TestAggregatorHandleMessage(t *testing.T) {
	agg := NewAggregator(2)
	ctx := context.Background()

	msgs := []kafka.Message{
		message(t, EventSearch, SearchEvent{Query: "Cat  Sat", TotalPrimary: 2, TotalExpanded: 4, LatencyMs: 10}),
		message(t, EventSearch, SearchEvent{Query: "cat sat", TotalPrimary: 2, TotalExpanded: 2, LatencyMs: 20, CacheHit: true}),
		message(t, EventSearch, SearchEvent{Query: "dog", TotalPrimary: 1, TotalExpanded: 3, LatencyMs: 30}),
		message(t, EventZeroResult, SearchEvent{Query: "zebra", LatencyMs: 40}),
		message(t, EventIndexBuild, IndexEvent{Documents: 3, Checksum: "abc", Timestamp: time.Unix(100, 0)}),
		message(t, EventIndexBuild, IndexEvent{Documents: 5, Checksum: "def", Timestamp: time.Unix(50, 0)}),
		{Topic: "events", Type: "something_new", Value: []byte(`{}`)},
	}
	for _, m := range msgs {
		if err := agg.HandleMessage(ctx, m); err != nil {
			t.Fatalf("HandleMessage(%s): %v", m.Type, err)
		}
	}

	s := agg.Stats()
	if s.TotalSearches != 4 {
		t.Errorf("TotalSearches = %d, want 4", s.TotalSearches)
	}
	if s.ZeroResults != 1 || s.FeedbackRuns != 3 {
		t.Errorf("ZeroResults, FeedbackRuns = %d, %d, want 1, 3", s.ZeroResults, s.FeedbackRuns)
	}
	if s.CacheHits != 1 || s.CacheMisses != 3 {
		t.Errorf("CacheHits, CacheMisses = %d, %d, want 1, 3", s.CacheHits, s.CacheMisses)
	}
	if s.AvgPrimary != 5.0/4 {
		t.Errorf("AvgPrimary = %v, want 1.25", s.AvgPrimary)
	}
	if s.AvgExpanded != 3 {
		t.Errorf("AvgExpanded = %v, want 3", s.AvgExpanded)
	}
	if s.AvgLatencyMs != 25 {
		t.Errorf("AvgLatencyMs = %v, want 25", s.AvgLatencyMs)
	}
	if s.P50LatencyMs != 30 || s.P99LatencyMs != 40 {
		t.Errorf("P50, P99 = %d, %d, want 30, 40", s.P50LatencyMs, s.P99LatencyMs)
	}

	if len(s.TopQueries) != 2 {
		t.Fatalf("TopQueries = %v, want 2 entries", s.TopQueries)
	}
	if s.TopQueries[0].Key != "cat sat" || s.TopQueries[0].Score != 2 {
		t.Errorf("TopQueries[0] = %+v, want cat sat x2", s.TopQueries[0])
	}
	if len(s.ZeroResultQueries) != 1 || s.ZeroResultQueries[0].Key != "zebra" {
		t.Errorf("ZeroResultQueries = %v", s.ZeroResultQueries)
	}

	if s.IndexBuilds != 2 {
		t.Errorf("IndexBuilds = %d, want 2", s.IndexBuilds)
	}
	if s.LastIndexBuild == nil || s.LastIndexBuild.Checksum != "abc" {
		t.Errorf("LastIndexBuild = %+v, want the newest build", s.LastIndexBuild)
	}
}

func TestAggregatorRejectsMalformedEvent(t *testing.T) {
	agg := NewAggregator(0)
	err := agg.HandleMessage(context.Background(), kafka.Message{Type: string(EventSearch), Value: []byte("{")})
	if err == nil {
		t.Fatal("expected decode error")
	}
	if agg.Stats().TotalSearches != 0 {
		t.Error("malformed event was counted")
	}
}

func TestAggregatorLatencyWindow(t *testing.T) {
	agg := NewAggregator(1)
	for i := 0; i < latencyWindow; i++ {
		agg.RecordSearch(SearchEvent{Query: "q", TotalPrimary: 1, LatencyMs: 1000})
	}
	for i := 0; i < latencyWindow; i++ {
		agg.RecordSearch(SearchEvent{Query: "q", TotalPrimary: 1, LatencyMs: 1})
	}
	s := agg.Stats()
	if s.TotalSearches != 2*latencyWindow {
		t.Errorf("TotalSearches = %d", s.TotalSearches)
	}
	if s.P99LatencyMs != 1 || s.AvgLatencyMs != 1 {
		t.Errorf("window kept old samples: p99=%d avg=%v", s.P99LatencyMs, s.AvgLatencyMs)
	}
}

func TestStatsHandler(t *testing.T) {
	agg := NewAggregator(5)
	agg.RecordSearch(SearchEvent{Query: "cat", TotalPrimary: 1, LatencyMs: 5})

	rec := httptest.NewRecorder()
	StatsHandler(agg)(rec, httptest.NewRequest("GET", "/api/v1/analytics", nil))

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var got Stats
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.TotalSearches != 1 || len(got.TopQueries) != 1 || got.TopQueries[0].Key != "cat" {
		t.Errorf("response = %+v", got)
	}
}
