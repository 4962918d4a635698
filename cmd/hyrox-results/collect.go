package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aluiziolira/go-scrape-hyrox/config"
	"github.com/aluiziolira/go-scrape-hyrox/models"
	"github.com/aluiziolira/go-scrape-hyrox/pipeline"
	"github.com/aluiziolira/go-scrape-hyrox/scraper"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect rankings for every configured season",
	Long:  "Discovers event groups and event codes per season and appends every (event code, gender) ranking to the results store. Keys already present in the store are skipped, so an interrupted run can be restarted.",
	RunE:  runCollect,
}

var collectFlags struct {
	seasons       string
	genders       []string
	category      string
	allDays       bool
	pageSize      int
	maxPages      int
	delay         time.Duration
	timeout       time.Duration
	output        string
	format        string
	metricsAddr   string
	dedupeMaxSize int
}

func init() {
	registerCollectFlags(collectCmd.Flags())
	rootCmd.AddCommand(collectCmd)
}

func registerCollectFlags(flags *pflag.FlagSet) {
	defaults := config.DefaultConfig()
	flags.StringVar(&collectFlags.seasons, "seasons", "", "Seasons as Label=URL pairs, comma separated (default: Season 1..8)")
	flags.StringSliceVar(&collectFlags.genders, "genders", defaults.Genders, "Genders to collect")
	flags.StringVar(&collectFlags.category, "category", defaults.TargetCategory, "Target category; empty collects every category")
	flags.BoolVar(&collectFlags.allDays, "all-days", false, "Collect per-day codes alongside overall codes")
	flags.IntVar(&collectFlags.pageSize, "page-size", defaults.PageSize, "Rows per results page")
	flags.IntVar(&collectFlags.maxPages, "pages", defaults.MaxPages, "Maximum results pages per key")
	flags.DurationVar(&collectFlags.delay, "delay", defaults.Delay, "Pause before every request")
	flags.DurationVar(&collectFlags.timeout, "timeout", defaults.Timeout, "Per-request timeout")
	flags.StringVarP(&collectFlags.output, "output", "o", defaults.OutputFile, "Results store path")
	flags.StringVar(&collectFlags.format, "format", defaults.OutputFormat, "Output format: csv or dual")
	flags.StringVar(&collectFlags.metricsAddr, "metrics-addr", defaults.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	flags.IntVar(&collectFlags.dedupeMaxSize, "dedupe-max-size", defaults.DedupeMaxSize, "Rows remembered for duplicate detection")
}

// buildConfig layers defaults, HYROX_* environment and explicitly set flags.
func buildConfig(flags *pflag.FlagSet) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Verbose = verbose
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}

	if flags.Changed("seasons") {
		seasons, err := config.ParseSeasons(collectFlags.seasons)
		if err != nil {
			return nil, fmt.Errorf("--seasons: %w", err)
		}
		cfg.Seasons = seasons
	}
	if flags.Changed("genders") {
		cfg.Genders = collectFlags.genders
	}
	if flags.Changed("category") {
		cfg.TargetCategory = strings.TrimSpace(collectFlags.category)
	}
	if flags.Changed("all-days") {
		cfg.PreferOverall = !collectFlags.allDays
	}
	if flags.Changed("page-size") {
		cfg.PageSize = collectFlags.pageSize
	}
	if flags.Changed("pages") {
		cfg.MaxPages = collectFlags.maxPages
	}
	if flags.Changed("delay") {
		cfg.Delay = collectFlags.delay
	}
	if flags.Changed("timeout") {
		cfg.Timeout = collectFlags.timeout
	}
	if flags.Changed("output") {
		cfg.OutputFile = collectFlags.output
	}
	if flags.Changed("format") {
		cfg.OutputFormat = strings.ToLower(collectFlags.format)
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = collectFlags.metricsAddr
	}
	if flags.Changed("dedupe-max-size") {
		cfg.DedupeMaxSize = collectFlags.dedupeMaxSize
	}
	return cfg, cfg.Validate()
}

func runCollect(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd.Flags())
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	done, err := pipeline.LoadDoneSet(cfg.OutputFile)
	if err != nil {
		return err
	}

	slog.Info("starting collection",
		slog.Int("seasons", len(cfg.Seasons)),
		slog.Any("genders", cfg.Genders),
		slog.String("category", cfg.TargetCategory),
		slog.Int("max_pages", cfg.MaxPages),
		slog.String("output", cfg.OutputFile),
	)

	s, err := scraper.NewScraper(cfg, done)
	if err != nil {
		return fmt.Errorf("initialising scraper: %w", err)
	}

	writer, err := createWriter(cfg.OutputFormat, cfg.OutputFile)
	if err != nil {
		return fmt.Errorf("creating writer: %w", err)
	}

	p, err := pipeline.NewPipeline(writer, cfg)
	if err != nil {
		writer.Close()
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsServer := startMetricsServer(cfg.MetricsAddr, s.Metrics)

	startTime := time.Now()
	result, runErr := s.Run(ctx, p)

	if err := p.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("pipeline shutdown failed: %w", err)
	}
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}
	if runErr != nil {
		return runErr
	}
	if err := writer.Validate(); err != nil {
		return fmt.Errorf("output validation failed: %w", err)
	}

	printSummary(cmd.OutOrStdout(), result, time.Since(startTime), cfg.OutputFile, p.GetMetrics())
	return nil
}

func startMetricsServer(addr string, metrics *scraper.Metrics) *http.Server {
	if addr == "" || metrics == nil {
		return nil
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	slog.Info("metrics server enabled", slog.String("addr", addr))
	return server
}

func createWriter(format, filename string) (pipeline.OutputWriter, error) {
	switch format {
	case "csv":
		return pipeline.NewCSVWriter(filename)
	case "dual":
		return pipeline.NewDualWriter(filename, mirrorFilename(filename))
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func mirrorFilename(filename string) string {
	return strings.TrimSuffix(filename, ".csv") + ".jsonl"
}

func printSummary(w io.Writer, result *models.RunResult, duration time.Duration, outputFile string, metrics map[string]interface{}) {
	separator := "--------------------------------------------------"
	fmt.Fprintln(w, "\n"+separator)
	if result.Interrupted {
		fmt.Fprintln(w, "Collection interrupted, rerun to resume")
	} else {
		fmt.Fprintln(w, "Collection complete")
	}

	fmt.Fprintf(w, "  Run ID:        %s\n", result.RunID)
	fmt.Fprintf(w, "  Seasons:       %d (%d event groups)\n", result.Seasons, result.EventGroups)
	fmt.Fprintf(w, "  Keys:          %d done, %d skipped, %d empty, %d failed, %d interrupted\n",
		result.KeysDone, result.KeysSkipped, result.KeysEmpty, result.KeysFailed, result.KeysInterrupted)
	fmt.Fprintf(w, "  Pages:         %d\n", result.PageCount)
	fmt.Fprintf(w, "  Rows written:  %d\n", result.RowCount)
	successRate := 0.0
	if result.RequestCount > 0 {
		successRate = float64(result.RequestCount-result.ErrorCount) / float64(result.RequestCount) * 100
	}
	fmt.Fprintf(w, "  Requests:      %d (%.2f%% ok)\n", result.RequestCount, successRate)
	fmt.Fprintf(w, "  Errors:        %d\n", result.ErrorCount)
	fmt.Fprintf(w, "  Failed URLs:   %d\n", len(result.FailedURLs))
	if len(result.ErrorsByType) > 0 {
		fmt.Fprintf(w, "  Error types:   %v\n", result.ErrorsByType)
	}
	if valErrors, ok := metrics["validation_errors"].(map[string]int); ok && len(valErrors) > 0 {
		fmt.Fprintf(w, "  Validation:    %v\n", valErrors)
	}
	fmt.Fprintf(w, "  Duration:      %v\n", duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  Output file:   %s\n", outputFile)
	fmt.Fprintln(w, separator)
}
