// Package cache memoizes search responses in Redis. Keys include the index
// fingerprint, so loading a different index never serves stale results.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/resilience"
)

const keyPrefix = "vsm:search:"

// Backend is the subset of *redis.Client the cache needs.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) (int64, error)
}

type QueryCache struct {
	backend     Backend
	isMiss      func(error) bool
	ttl         time.Duration
	fingerprint string
	breaker     *resilience.CircuitBreaker
	group       singleflight.Group
	metrics     *metrics.Metrics
	logger      *slog.Logger
	hits        atomic.Int64
	misses      atomic.Int64
}

// New builds a cache over backend. isMiss reports whether a Get error
// means the key is absent; fingerprint identifies the loaded index. m may
// be nil.
func New(backend Backend, isMiss func(error) bool, ttl time.Duration, fingerprint string, m *metrics.Metrics) *QueryCache {
	c := &QueryCache{
		backend:     backend,
		isMiss:      isMiss,
		ttl:         ttl,
		fingerprint: fingerprint,
		metrics:     m,
		logger:      slog.Default().With("component", "query-cache"),
	}
	c.breaker = resilience.NewCircuitBreaker("redis-cache", resilience.CircuitBreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
		OnStateChange: func(name string, _, to resilience.State) {
			if m != nil {
				m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			}
		},
	})
	return c
}

func (c *QueryCache) get(ctx context.Context, key string) (*searcher.Response, bool) {
	var data []byte
	err := c.call(ctx, func(ctx context.Context) error {
		var err error
		data, err = c.backend.Get(ctx, key)
		if err != nil && c.isMiss(err) {
			return errMiss
		}
		return err
	})
	if err != nil {
		if !errors.Is(err, errMiss) && !errors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.recordMiss()
		return nil, false
	}
	var resp searcher.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.recordMiss()
		return nil, false
	}
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
	return &resp, true
}

func (c *QueryCache) set(ctx context.Context, key string, resp *searcher.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.call(ctx, func(ctx context.Context) error {
		return c.backend.Set(ctx, key, data, c.ttl)
	})
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

var errMiss = errors.New("cache miss")

// call runs fn through the circuit breaker with a short deadline so a slow
// Redis degrades to uncached search. Misses do not count as failures.
func (c *QueryCache) call(ctx context.Context, fn func(ctx context.Context) error) error {
	var miss bool
	err := c.breaker.Execute(func() error {
		err := resilience.WithTimeout(ctx, 250*time.Millisecond, "redis", fn)
		if errors.Is(err, errMiss) {
			miss = true
			return nil
		}
		return err
	})
	if miss {
		return errMiss
	}
	return err
}

func (c *QueryCache) recordMiss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// GetOrCompute returns the cached response for req, or runs compute once
// per key across concurrent callers and caches its result.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	req searcher.Request,
	compute func() (*searcher.Response, error),
) (*searcher.Response, bool, error) {
	key := c.buildKey(req)
	if resp, ok := c.get(ctx, key); ok {
		return resp, true, nil
	}
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		resp, err := compute()
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, resp)
		return resp, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*searcher.Response), false, nil
}

// Invalidate removes every cached response.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.backend.DeleteByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// buildKey hashes the trimmed query text as given. Case, spacing and word
// order all stay in the key since a cached response echoes the query and
// its expansion verbatim.
func (c *QueryCache) buildKey(req searcher.Request) string {
	raw := fmt.Sprintf("%s|%s|n=%d|d=%d|t=%d",
		c.fingerprint,
		strings.TrimSpace(req.Query),
		req.MaxResults,
		req.FeedbackDocs,
		req.FeedbackTerms,
	)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
