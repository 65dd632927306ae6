package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"tmsearch/browser"
	"tmsearch/challenge"
	"tmsearch/config"
	"tmsearch/details"
	"tmsearch/extract"
	"tmsearch/format"
	"tmsearch/relevance"
	"tmsearch/search"
	"tmsearch/storage"
	"tmsearch/trademark"
	"tmsearch/workflow"
)

var (
	query        string
	searchType   string
	country      string
	niceClass    string
	limit        int
	headless     bool
	outputFormat string
	historyLimit int
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "tmsearch",
		Short:        "Search a public trademark database through a real browser",
		SilenceUsage: true,
	}

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Run a trademark search",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, query, searchType, country, niceClass, limit)
		},
	}
	searchCmd.Flags().StringVarP(&query, "query", "q", "", "search query (required)")
	searchCmd.Flags().StringVarP(&searchType, "type", "t", "brand", "search type (brand, owner, number)")
	searchCmd.Flags().StringVarP(&country, "country", "c", "", "country code filter")
	searchCmd.Flags().StringVarP(&niceClass, "nice-class", "n", "", "Nice classification filter")
	searchCmd.Flags().IntVarP(&limit, "limit", "l", 10, "maximum results (1-100)")
	searchCmd.Flags().BoolVar(&headless, "headless", true, "run the browser headless")
	searchCmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "output format (text, json)")
	searchCmd.MarkFlagRequired("query")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg.Redacted())
			if err != nil {
				return err
			}
			fmt.Print(string(data))
			fmt.Printf("assisted_formatting: %v\n", cfg.AssistedFormatting())
			return nil
		},
	}

	testCmd := &cobra.Command{
		Use:   "test",
		Short: "Run a fixed sample search",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, "NIKE", "brand", "", "", 5)
		},
	}
	testCmd.Flags().BoolVar(&headless, "headless", true, "run the browser headless")
	testCmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "output format (text, json)")

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show stored search outcomes, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(historyLimit)
		},
	}
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 10, "number of outcomes to show")

	rootCmd.AddCommand(searchCmd, configCmd, testCmd, historyCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSearch(cmd *cobra.Command, query, searchType, country, niceClass string, limit int) error {
	// =========
	// Config
	// =========
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("headless") {
		cfg.Headless = headless
	}

	// =========
	// Logging
	// =========
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	params, err := trademark.NewParameters(query, searchType, country, niceClass, limit)
	if err != nil {
		return err
	}

	// =========
	// Workflow wiring
	// =========
	solver := challenge.NewSolver(logger)
	wf := workflow.New(
		browser.NewOpener(cfg, logger),
		solver,
		search.NewSubmitter(logger, solver, cfg.BaseURL, cfg.BrowserTimeout),
		extract.NewExtractor(logger, params.Query),
		format.New(cfg, logger),
		cfg.MaxRetries,
		logger,
	)
	wf.Scorer = relevance.NewScorer(params.Query)
	wf.ScreenshotDir = cfg.ScreenshotDir
	if cfg.FetchDetails {
		wf.Enricher = details.NewEnricher(logger, cfg.UserAgent, cfg.BaseURL, cfg.BrowserTimeout)
	}

	store := storage.NewHistoryStore(cfg.HistoryDBPath)
	if err := store.Init(); err != nil {
		logger.Warn("history store unavailable", zap.Error(err))
	} else {
		wf.History = store
		defer store.Close()
	}

	// =========
	// Run
	// =========
	outcome, err := wf.Run(context.Background(), params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		return err
	}
	if len(outcome.Records) == 0 {
		fmt.Println("No results found.")
		return errors.New("search returned no results")
	}

	return printOutcome(outcome, outputFormat)
}

func runHistory(limit int) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store := storage.NewHistoryStore(cfg.HistoryDBPath)
	if err := store.Init(); err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer store.Close()

	outcomes, err := store.ListOutcomes(limit)
	if err != nil {
		return err
	}
	if len(outcomes) == 0 {
		fmt.Println("No stored searches.")
		return nil
	}

	for _, outcome := range outcomes {
		fmt.Printf("%s  %-20q  %d result(s)  %dms\n",
			outcome.CompletedAt.Format("2006-01-02 15:04:05"),
			outcome.Query, outcome.TotalResults, outcome.ElapsedMs)
	}
	return nil
}

func printOutcome(outcome *trademark.Outcome, outputFormat string) error {
	if outputFormat == "json" {
		data, err := json.MarshalIndent(outcome, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Query: %s (%d result(s), showing %d, %dms)\n\n",
		outcome.Query, outcome.TotalResults, len(outcome.Records), outcome.ElapsedMs)
	for i, rec := range outcome.Records {
		fmt.Printf("%2d. %s\n", i+1, rec.Mark)
		fmt.Printf("    Owner:   %s\n", orDash(rec.Owner))
		fmt.Printf("    Number:  %s\n", orDash(rec.ApplicationNumber))
		fmt.Printf("    Country: %s\n", orDash(rec.Country))
		fmt.Printf("    Status:  %s", rec.Status)
		if rec.RegistrationDate != "" {
			fmt.Printf(" (%s)", rec.RegistrationDate)
		}
		fmt.Println()
		if len(rec.NiceClasses) > 0 {
			fmt.Printf("    Nice:    %s\n", joinInts(rec.NiceClasses))
		}
		if rec.Relevance > 0 {
			fmt.Printf("    Match:   %.0f%%\n", rec.Relevance*100)
		}
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ", ")
}

func newLogger(level string) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		parsed = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(parsed)
	return zapCfg.Build()
}
