// Command analytics consumes search and index events from Kafka, keeps a
// running aggregate in memory and serves it at GET /api/v1/analytics.
//
// Usage:
//
//	analytics [--config configs/development.yaml] [--port 8082]
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

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "analytics: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("analytics", pflag.ContinueOnError)
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
	if len(cfg.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers must be set for the analytics service")
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agg := analytics.NewAggregator(cfg.Analytics.TopQueries)

	checker := health.NewChecker()
	g, gctx := errgroup.WithContext(ctx)

	if cfg.Analytics.SnapshotInterval > 0 {
		db, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		defer db.Close()
		snapshots := analytics.NewSnapshotStore(db)
		if err := snapshots.EnsureSchema(ctx); err != nil {
			return err
		}
		if last, ok, err := snapshots.Latest(ctx); err != nil {
			slog.Warn("reading previous snapshot failed", "error", err)
		} else if ok {
			slog.Info("previous snapshot found",
				"total_searches", last.TotalSearches,
				"index_builds", last.IndexBuilds,
			)
		}
		checker.Register("postgres", health.PingCheck(db.Ping, false))
		g.Go(func() error {
			analytics.RunSnapshots(gctx, snapshots, agg, cfg.Analytics.SnapshotInterval)
			return nil
		})
		slog.Info("analytics snapshots enabled", "interval", cfg.Analytics.SnapshotInterval)
	}

	consumer := kafka.NewConsumer(cfg.Kafka,
		[]string{cfg.Kafka.Topics.SearchEvents, cfg.Kafka.Topics.IndexEvents},
		agg.HandleMessage,
	)
	g.Go(func() error { return consumer.Run(gctx) })

	m := metrics.New(prometheus.DefaultRegisterer)
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Metrics(m))
	r.Get("/api/v1/analytics", analytics.StatsHandler(agg))
	r.Get("/health/live", checker.LiveHandler())
	r.Get("/health/ready", checker.ReadyHandler())
	r.Handle("/metrics", metrics.Handler(prometheus.DefaultGatherer))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	g.Go(func() error {
		slog.Info("analytics service listening", "addr", server.Addr,
			"topics", []string{cfg.Kafka.Topics.SearchEvents, cfg.Kafka.Topics.IndexEvents})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("analytics service stopped")
	return nil
}
