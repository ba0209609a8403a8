// Package handler exposes the search service over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/ranker"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher"
	apperrors "github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/middleware"
)

// CacheAdmin is the management side of the query cache.
type CacheAdmin interface {
	Stats() (hits, misses int64)
	Invalidate(ctx context.Context) error
}

type Handler struct {
	service *searcher.Service
	cache   CacheAdmin
	logger  *slog.Logger
}

// New builds a Handler. cache may be nil when caching is disabled.
func New(service *searcher.Service, cache CacheAdmin) *Handler {
	return &Handler{
		service: service,
		cache:   cache,
		logger:  slog.Default().With("component", "search-handler"),
	}
}

// RouterConfig carries the optional pieces of the HTTP surface.
type RouterConfig struct {
	Checker  *health.Checker
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Limiter  *middleware.Limiter
	Timeout  time.Duration
}

// NewRouter mounts the API, health and metrics routes behind the request
// ID and metrics middleware. API routes are also rate limited when a
// Limiter is set, and bounded by Timeout.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	r.Group(func(r chi.Router) {
		if cfg.Limiter != nil {
			r.Use(middleware.RateLimit(cfg.Limiter))
		}
		r.Use(middleware.Timeout(cfg.Timeout))
		r.Get("/api/v1/search", h.Search)
		r.Get("/api/v1/stats", h.Stats)
		r.Get("/api/v1/documents/{id}", h.Document)
		r.Get("/api/v1/cache/stats", h.CacheStats)
		r.Post("/api/v1/cache/invalidate", h.CacheInvalidate)
	})

	if cfg.Checker != nil {
		r.Get("/health/live", cfg.Checker.LiveHandler())
		r.Get("/health/ready", cfg.Checker.ReadyHandler())
	}
	if cfg.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(cfg.Gatherer))
	}
	return r
}

// Search handles GET /api/v1/search?q=&limit=&psr_docs=&psr_terms=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := searcher.Request{Query: q.Get("q")}

	var err error
	if req.MaxResults, err = positiveParam(q.Get("limit"), "limit"); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.FeedbackDocs, err = positiveParam(q.Get("psr_docs"), "psr_docs"); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.FeedbackTerms, err = positiveParam(q.Get("psr_terms"), "psr_terms"); err != nil {
		h.writeError(w, r, err)
		return
	}

	resp, err := h.service.Search(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// positiveParam parses an optional positive integer; empty means zero.
func positiveParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "%s must be a positive integer", name)
	}
	return n, nil
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.Index().Stats())
}

type documentResponse struct {
	ID        string                `json:"id"`
	Title     string                `json:"title"`
	Tokens    int                   `json:"tokens"`
	Sentences int                   `json:"sentences"`
	TopTerms  []ranker.Pair[string] `json:"top_terms"`
}

// Document handles GET /api/v1/documents/{id}. top bounds the term list,
// 10 by default.
func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	top, err := positiveParam(r.URL.Query().Get("top"), "top")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if top == 0 {
		top = 10
	}
	rec, err := h.service.Document(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, documentResponse{
		ID:        string(rec.ID),
		Title:     rec.Title,
		Tokens:    h.service.Index().TokenCount(rec.ID),
		Sentences: len(rec.Sentences),
		TopTerms:  rec.Top(top),
	})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "caching is disabled"})
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("writing response failed", "error", err)
	}
}

// writeError maps err onto a status code. Server-side failures are logged
// and reported without detail.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatusCode(err)
	msg := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
		msg = http.StatusText(status)
	}
	h.writeJSON(w, status, map[string]string{"error": msg})
}
