package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/store"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/textproc"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "indexer: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("indexer", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "", "path to YAML config file")
	dir := flags.StringP("dir", "d", "", "collection directory (overrides collection.dir)")
	stopWords := flags.String("stopwords", "", "stop-word list (overrides collection.stopWordsPath)")
	language := flags.String("language", "", "stemmer language, or none (overrides collection.language)")
	workers := flags.IntP("workers", "w", 0, "parallel document workers (overrides collection.workers)")
	output := flags.StringP("output", "o", "", "index file path (overrides index.path)")
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
	if *dir != "" {
		cfg.Collection.Dir = *dir
	}
	if *stopWords != "" {
		cfg.Collection.StopWordsPath = *stopWords
	}
	if *language != "" {
		cfg.Collection.Language = *language
	}
	if *workers > 0 {
		cfg.Collection.Workers = *workers
	}
	if *output != "" {
		cfg.Index.Path = *output
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.Metrics.Enabled {
		shutdown, err := metrics.StartServer(cfg.Metrics.Port, prometheus.DefaultGatherer)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdown(shutdownCtx)
		}()
	}

	analyzer, err := textproc.FromConfig(cfg.Collection)
	if err != nil {
		return err
	}

	res, err := indexer.NewEngine(cfg.Collection, analyzer, m).Build(ctx, cfg.Collection.Dir)
	if err != nil {
		return err
	}
	if err := indexer.WriteReport(os.Stdout, res); err != nil {
		return err
	}

	s, closeStore, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	checksum, err := store.SaveIndex(ctx, s, cfg.Index.Name, res.Index)
	if err != nil {
		return err
	}
	fmt.Printf("\nIndex saved (%s backend, checksum %s).\n", cfg.Index.Backend, checksum[:16])

	if cfg.Analytics.Enabled {
		publishIndexEvent(ctx, cfg, m, res, checksum)
	}
	return nil
}

// publishIndexEvent reports the finished run. Failures are logged only;
// the index is already saved.
func publishIndexEvent(ctx context.Context, cfg *config.Config, m *metrics.Metrics, res *indexer.Result, checksum string) {
	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexEvents)
	defer producer.Close()

	collector := analytics.NewCollector(producer, cfg.Analytics, m.AnalyticsDropped.Inc)
	collector.Start(ctx)
	collector.TrackIndex(analytics.IndexEvent{
		Type:        analytics.EventIndexBuild,
		Documents:   res.Stats.Documents,
		Terms:       res.Stats.Terms,
		TotalTokens: res.TotalTokens,
		Checksum:    checksum,
		ElapsedMs:   res.Elapsed.Milliseconds(),
	})
	collector.Close()
	slog.Info("index event flushed", "topic", cfg.Kafka.Topics.IndexEvents)
}
