// Command query answers queries typed on standard input against a
// persisted index until it reads "exit".
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/store"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/internal/textproc"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/logger"
)

const rule = "-------------------------------------------------------------------"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "query: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("query", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "", "path to YAML config file")
	index := flags.StringP("index", "i", "", "index file path (overrides index.path)")
	limit := flags.IntP("limit", "n", 0, "results shown per pass (overrides search.defaultLimit)")
	psrDocs := flags.Int("psr-docs", 0, "documents harvested for feedback (overrides search.feedbackDocs)")
	psrTerms := flags.Int("psr-terms", 0, "terms harvested per document (overrides search.feedbackTerms)")
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
	if *index != "" {
		cfg.Index.Backend = config.BackendFile
		cfg.Index.Path = *index
	}
	// Diagnostics go to stderr and must not interleave with results.
	if cfg.Logging.Level == "info" {
		cfg.Logging.Level = "warn"
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	ctx := context.Background()

	analyzer, err := textproc.FromConfig(cfg.Collection)
	if err != nil {
		return err
	}

	fmt.Println("Loading index...")
	s, closeStore, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	idx, _, err := store.LoadIndex(ctx, s, cfg.Index.Name)
	if err != nil {
		return err
	}
	fmt.Printf("Done. %d documents, %d terms.\n\n", idx.DocumentCount(), idx.TermCount())

	svc := searcher.NewService(idx, analyzer, cfg.Search)
	req := searcher.Request{MaxResults: *limit, FeedbackDocs: *psrDocs, FeedbackTerms: *psrTerms}
	return loop(ctx, os.Stdin, os.Stdout, svc, req)
}

// loop reads one query per line and prints both passes for each until it
// reads "exit" or reaches end of input.
func loop(ctx context.Context, in io.Reader, out io.Writer, svc *searcher.Service, base searcher.Request) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintln(out, "Enter your query:")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "exit" {
			return nil
		}

		req := base
		req.Query = line
		resp, err := svc.Search(ctx, req)
		if errors.Is(err, apperrors.ErrInvalidInput) {
			continue
		}
		if err != nil {
			return err
		}
		printResponse(out, resp)
	}
}

func printResponse(w io.Writer, resp *searcher.Response) {
	printHits(w, resp.Primary)
	if resp.TotalPrimary == 0 {
		return
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "Relevant documents after applying PSR:")
	fmt.Fprintf(w, "Expanded query: %s\n", resp.ExpandedQuery)
	fmt.Fprintln(w, rule)
	printHits(w, resp.Expanded)
}

func printHits(w io.Writer, hits []searcher.Hit) {
	fmt.Fprintln(w)
	if len(hits) == 0 {
		fmt.Fprintln(w, "No relevant documents found.")
		fmt.Fprintln(w)
		return
	}
	for i, h := range hits {
		fmt.Fprintf(w, "Number: %d.\n", i+1)
		fmt.Fprintf(w, "Name: '%s'.\n", h.DocumentID)
		fmt.Fprintf(w, "Similarity: %v.\n", h.Similarity)
		fmt.Fprintf(w, "Title: %s.\n", h.Title)
		fmt.Fprintf(w, "Text: %s.\n", h.Snippet)
		fmt.Fprintln(w)
	}
}
