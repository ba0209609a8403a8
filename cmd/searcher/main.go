package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/store"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/textproc"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/redis"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "searcher: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("searcher", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "", "path to YAML config file")
	port := flags.IntP("port", "p", 0, "HTTP port (overrides server.port)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	analyzer, err := textproc.FromConfig(cfg.Collection)
	if err != nil {
		return err
	}

	s, closeStore, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	idx, checksum, err := store.LoadIndex(ctx, s, cfg.Index.Name)
	if err != nil {
		return err
	}
	slog.Info("index loaded",
		"backend", cfg.Index.Backend,
		"documents", idx.DocumentCount(),
		"terms", idx.TermCount(),
		"checksum", checksum,
	)

	m := metrics.New(prometheus.DefaultRegisterer)
	m.IndexDocuments.Set(float64(idx.DocumentCount()))
	m.IndexTerms.Set(float64(idx.TermCount()))

	checker := health.NewChecker()
	checker.Register("index", health.IndexCheck(idx.DocumentCount))

	opts := []searcher.Option{searcher.WithMetrics(m)}

	var queryCache *cache.QueryCache
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			queryCache = cache.New(redisClient, pkgredis.IsNilError, cfg.Redis.CacheTTL, checksum, m)
			opts = append(opts, searcher.WithCache(queryCache))
			checker.Register("redis", health.PingCheck(redisClient.Ping, true))
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	if cfg.Analytics.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents)
		defer producer.Close()
		collector := analytics.NewCollector(producer, cfg.Analytics, m.AnalyticsDropped.Inc)
		collector.Start(ctx)
		defer collector.Close()
		opts = append(opts, searcher.WithTracker(collector))
	}

	svc := searcher.NewService(idx, analyzer, cfg.Search, opts...)

	// A nil *QueryCache must not become a non-nil interface.
	var admin handler.CacheAdmin
	if queryCache != nil {
		admin = queryCache
	}
	var limiter *middleware.Limiter
	if cfg.Server.RateLimit > 0 {
		limiter = middleware.NewLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst)
		go sweepLimiter(ctx, limiter)
		slog.Info("rate limiting enabled", "per_second", cfg.Server.RateLimit, "burst", cfg.Server.RateBurst)
	}

	router := handler.NewRouter(handler.New(svc, admin), handler.RouterConfig{
		Checker:  checker,
		Metrics:  m,
		Gatherer: prometheus.DefaultGatherer,
		Limiter:  limiter,
		Timeout:  cfg.Search.Timeout,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("search service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serving http: %w", err)
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	slog.Info("search service stopped")
	return nil
}

func sweepLimiter(ctx context.Context, l *middleware.Limiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			slog.Debug("rate limiter swept", "clients", l.Sweep(now))
		case <-ctx.Done():
			return
		}
	}
}
