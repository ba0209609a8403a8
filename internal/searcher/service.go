// Package searcher answers queries against a loaded index: a primary ranked
// pass, a pseudo-relevance feedback pass, and a snippet per hit.
package searcher

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/document"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/feedback"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/index"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/query"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/ranker"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/metrics"
)

// Request carries the query text and feedback tuning. Non-positive values
// fall back to the configured defaults.
type Request struct {
	Query         string `json:"query"`
	MaxResults    int    `json:"max_results"`
	FeedbackDocs  int    `json:"feedback_docs"`
	FeedbackTerms int    `json:"feedback_terms"`
}

type Hit struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	Similarity float64 `json:"similarity"`
	Snippet    string  `json:"snippet"`
}

// Response holds the first MaxResults hits of each pass. TotalPrimary and
// TotalExpanded count every document with a nonzero score.
type Response struct {
	Query         string `json:"query"`
	ExpandedQuery string `json:"expanded_query,omitempty"`
	Primary       []Hit  `json:"primary"`
	Expanded      []Hit  `json:"expanded"`
	TotalPrimary  int    `json:"total_primary"`
	TotalExpanded int    `json:"total_expanded"`
	LatencyMs     int64  `json:"latency_ms"`
	CacheHit      bool   `json:"cache_hit"`
}

// ResultCache memoizes responses. It is satisfied by *cache.QueryCache.
type ResultCache interface {
	GetOrCompute(ctx context.Context, req Request, compute func() (*Response, error)) (*Response, bool, error)
}

// EventTracker receives one event per answered query. It is satisfied by
// *analytics.Collector.
type EventTracker interface {
	TrackSearch(e analytics.SearchEvent)
}

type Service struct {
	index      *index.Index
	analyzer   document.Analyzer
	controller *feedback.Controller
	cfg        config.SearchConfig
	cache      ResultCache
	metrics    *metrics.Metrics
	tracker    EventTracker
}

// Option configures optional collaborators of a Service.
type Option func(*Service)

func WithCache(c ResultCache) Option { return func(s *Service) { s.cache = c } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

func WithTracker(t EventTracker) Option { return func(s *Service) { s.tracker = t } }

func NewService(idx *index.Index, analyzer document.Analyzer, cfg config.SearchConfig, opts ...Option) *Service {
	s := &Service{
		index:      idx,
		analyzer:   analyzer,
		controller: feedback.NewController(analyzer, idx),
		cfg:        cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Index returns the index the service answers from.
func (s *Service) Index() *index.Index {
	return s.index
}

// Search validates req, fills defaults and runs both passes, going through
// the cache when one is configured.
func (s *Service) Search(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	req, err := s.normalize(req)
	if err != nil {
		s.observe("error", "none", start, nil)
		return nil, err
	}

	var resp *Response
	var cacheHit bool
	if s.cache != nil {
		resp, cacheHit, err = s.cache.GetOrCompute(ctx, req, func() (*Response, error) {
			return s.execute(req), nil
		})
		if err != nil {
			s.observe("error", "miss", start, nil)
			return nil, fmt.Errorf("searching %q: %w", req.Query, err)
		}
		// The cached value may be shared with concurrent callers.
		cp := *resp
		resp = &cp
	} else {
		resp = s.execute(req)
	}
	resp.CacheHit = cacheHit
	resp.LatencyMs = time.Since(start).Milliseconds()

	resultType := "hit"
	if resp.TotalPrimary == 0 {
		resultType = "zero_result"
	}
	cacheStatus := "none"
	if s.cache != nil {
		cacheStatus = "miss"
		if cacheHit {
			cacheStatus = "hit"
		}
	}
	s.observe(resultType, cacheStatus, start, resp)
	s.track(ctx, resp)

	logger.FromContext(ctx).Debug("search completed",
		"query", req.Query,
		"expanded_query", resp.ExpandedQuery,
		"primary", resp.TotalPrimary,
		"expanded", resp.TotalExpanded,
		"cache_hit", cacheHit,
		"latency_ms", resp.LatencyMs,
	)
	return resp, nil
}

func (s *Service) normalize(req Request) (Request, error) {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return req, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query must not be empty")
	}
	if req.MaxResults <= 0 {
		req.MaxResults = s.cfg.DefaultLimit
	}
	if s.cfg.MaxResults > 0 && req.MaxResults > s.cfg.MaxResults {
		req.MaxResults = s.cfg.MaxResults
	}
	if req.FeedbackDocs <= 0 {
		req.FeedbackDocs = s.cfg.FeedbackDocs
	}
	if req.FeedbackTerms <= 0 {
		req.FeedbackTerms = s.cfg.FeedbackTerms
	}
	return req, nil
}

func (s *Service) execute(req Request) *Response {
	out := s.controller.Run(req.Query, req.FeedbackDocs, req.FeedbackTerms)
	resp := &Response{
		Query:         req.Query,
		ExpandedQuery: out.ExpandedQuery,
		Primary:       s.hits(out.PrimaryResults, out.Primary, req.MaxResults),
		Expanded:      []Hit{},
		TotalPrimary:  len(out.PrimaryResults),
		TotalExpanded: len(out.ExpandedResults),
	}
	if out.Expanded != nil {
		resp.Expanded = s.hits(out.ExpandedResults, out.Expanded, req.MaxResults)
	}
	return resp
}

func (s *Service) hits(results []ranker.Pair[document.ID], v *query.Vector, limit int) []Hit {
	top := ranker.Top(results, limit)
	terms := v.Terms()
	hits := make([]Hit, 0, len(top))
	for _, r := range top {
		h := Hit{DocumentID: string(r.Key), Similarity: r.Score}
		if rec, ok := s.index.Document(r.Key); ok {
			h.Title = rec.Title
			h.Snippet, _ = rec.FirstMatchingSentence(terms)
			h.Snippet = strings.TrimSpace(h.Snippet)
		}
		hits = append(hits, h)
	}
	return hits
}

// Document returns the stored record of id.
func (s *Service) Document(id string) (*document.Record, error) {
	rec, ok := s.index.Document(document.ID(id))
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrDocumentNotFound, id)
	}
	return rec, nil
}

func (s *Service) observe(resultType, cacheStatus string, start time.Time, resp *Response) {
	if s.metrics == nil {
		return
	}
	s.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	s.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
	if resp != nil {
		s.metrics.SearchResultsCount.WithLabelValues("primary").Observe(float64(resp.TotalPrimary))
		s.metrics.SearchResultsCount.WithLabelValues("expanded").Observe(float64(resp.TotalExpanded))
	}
}

func (s *Service) track(ctx context.Context, resp *Response) {
	if s.tracker == nil {
		return
	}
	eventType := analytics.EventSearch
	if resp.TotalPrimary == 0 {
		eventType = analytics.EventZeroResult
	}
	s.tracker.TrackSearch(analytics.SearchEvent{
		Type:          eventType,
		Query:         resp.Query,
		Terms:         s.analyzer.Terms(resp.Query),
		ExpandedQuery: resp.ExpandedQuery,
		TotalPrimary:  resp.TotalPrimary,
		TotalExpanded: resp.TotalExpanded,
		Returned:      len(resp.Primary) + len(resp.Expanded),
		LatencyMs:     resp.LatencyMs,
		CacheHit:      resp.CacheHit,
		RequestID:     logger.RequestID(ctx),
	})
}
