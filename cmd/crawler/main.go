package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aluiziolira/go-crawl-parking/browser"
	"github.com/aluiziolira/go-crawl-parking/config"
	"github.com/aluiziolira/go-crawl-parking/crawler"
	"github.com/aluiziolira/go-crawl-parking/finalize"
	"github.com/aluiziolira/go-crawl-parking/ledger"
	"github.com/aluiziolira/go-crawl-parking/models"
	"github.com/aluiziolira/go-crawl-parking/targets"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := config.LoadDotenv(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	defaultCfg := config.DefaultConfig()
	targetsDefault := defaultCfg.TargetsFile
	if value, ok := config.EnvString("PARKCRAWL_TARGETS"); ok {
		targetsDefault = value
	}
	settleDefault := defaultCfg.SettleWait
	if value, ok, err := config.EnvDuration("PARKCRAWL_SETTLE_WAIT"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid PARKCRAWL_SETTLE_WAIT: %v\n", err)
		os.Exit(1)
	} else if ok {
		settleDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("PARKCRAWL_METRICS_ADDR"); ok {
		metricsDefault = value
	}

	targetsFile := flag.String("targets", targetsDefault, "Target list file")
	includedFile := flag.String("included", defaultCfg.IncludedFile, "Included-airports YAML filter")
	seedURL := flag.String("seed-url", defaultCfg.SeedURL, "Seed page for target list generation")
	ledgerFile := flag.String("ledger", defaultCfg.LedgerFile, "Progress ledger file")
	snapshotDir := flag.String("snapshots", defaultCfg.SnapshotDir, "Snapshot store directory")
	screenshotDir := flag.String("screenshots", defaultCfg.ScreenshotDir, "Diagnostic screenshot directory")
	settleWait := flag.Duration("settle", settleDefault, "Wait for results to render after a search")
	elementWait := flag.Duration("element-wait", defaultCfg.ElementWait, "Wait for page controls to become clickable")
	maxPages := flag.Int("max-pages", defaultCfg.MaxPages, "Hard cap on result pages per unit")
	fromDays := flag.Int("from-days", defaultCfg.FromDays, "Number of start-date offsets to crawl")
	durations := flag.Int("durations", defaultCfg.Durations, "Number of stay lengths per start date")
	headless := flag.Bool("headless", true, "Run Chrome headless")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := defaultCfg
	cfg.TargetsFile = *targetsFile
	cfg.IncludedFile = *includedFile
	cfg.SeedURL = *seedURL
	cfg.LedgerFile = *ledgerFile
	cfg.SnapshotDir = *snapshotDir
	cfg.ScreenshotDir = *screenshotDir
	cfg.SettleWait = *settleWait
	cfg.ElementWait = *elementWait
	cfg.MaxPages = *maxPages
	cfg.FromDays = *fromDays
	cfg.Durations = *durations
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	if targets.Empty(cfg.TargetsFile) {
		slog.Info("target list empty or missing, generating a new one")
		if _, err := targets.Generate(cfg.SeedURL, cfg.IncludedFile, cfg.TargetsFile); err != nil {
			slog.Error("target list generation failed", slog.Any("error", err))
			os.Exit(1)
		}
	}

	urls, err := targets.Load(cfg.TargetsFile)
	if err != nil {
		slog.Error("loading target list", slog.Any("error", err))
		os.Exit(1)
	}
	if len(urls) == 0 {
		slog.Info("all targets processed, nothing to do")
		return
	}

	led, err := ledger.Open(cfg.LedgerFile)
	if err != nil {
		slog.Error("loading ledger", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("starting crawl",
		slog.Int("targets", len(urls)),
		slog.Int("completed_units", led.Len()),
		slog.Duration("settle_wait", cfg.SettleWait),
	)

	session, err := browser.NewSession(*headless)
	if err != nil {
		slog.Error("launching renderer", slog.Any("error", err))
		os.Exit(1)
	}
	// The session must be released on every exit path below.
	defer func() {
		if err := session.Quit(); err != nil {
			slog.Error("renderer shutdown failed", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, finishing the unit in flight")
	}()

	orch := crawler.NewOrchestrator(cfg, crawler.NewFetcher(session, cfg), led)

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(orch.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	start := time.Now()
	result := orch.Run(ctx, urls, time.Now())

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(result, time.Since(start))

	if ctx.Err() != nil {
		return
	}
	extractRes, ran, err := finalize.Run(cfg)
	if err != nil {
		slog.Error("finalize failed", slog.Any("error", err))
		return
	}
	if ran {
		slog.Info("extraction complete",
			slog.Int("files", extractRes.FilesProcessed),
			slog.Int("records", extractRes.Records),
			slog.String("output", extractRes.OutputPath),
		)
	}
}

func printSummary(result *models.CrawlResult, duration time.Duration) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Crawl complete")
	fmt.Printf("  Units completed: %d\n", result.UnitsCompleted)
	fmt.Printf("  Units skipped:   %d\n", result.UnitsSkipped)
	fmt.Printf("  Units failed:    %d\n", result.UnitsFailed)
	fmt.Printf("  Pages saved:     %d\n", result.PagesSaved)
	fmt.Printf("  Targets done:    %d\n", result.TargetsDone)
	if len(result.FailedUnits) > 0 {
		fmt.Printf("  Failed units:    %v\n", result.FailedUnits)
	}
	fmt.Printf("  Duration:        %v\n", duration)
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = tint.NewHandler(os.Stdout, &tint.Options{Level: level, TimeFormat: time.Kitchen})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
