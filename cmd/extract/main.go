package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aluiziolira/go-crawl-parking/config"
	"github.com/aluiziolira/go-crawl-parking/extractor"
	"github.com/aluiziolira/go-crawl-parking/models"
	"github.com/lmittmann/tint"
)

func main() {
	if err := config.LoadDotenv(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	defaultCfg := config.DefaultConfig()
	workersDefault := defaultCfg.Workers
	if value, ok, err := config.EnvInt("PARKCRAWL_WORKERS"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid PARKCRAWL_WORKERS: %v\n", err)
		os.Exit(1)
	} else if ok {
		workersDefault = value
	}

	targetsFile := flag.String("targets", defaultCfg.TargetsFile, "Target list file used for link resolution")
	snapshotDir := flag.String("snapshots", defaultCfg.SnapshotDir, "Snapshot store directory")
	archiveDir := flag.String("archive", defaultCfg.ArchiveDir, "Archive directory for processed snapshots")
	outputFile := flag.String("output", defaultCfg.OutputFile, "Canonical dataset output file")
	offerLog := flag.String("offer-log", defaultCfg.OfferLogFile, "Flat per-offer log file")
	workers := flag.Int("workers", workersDefault, "Number of concurrent snapshot workers")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger := newLogger(*verbose)
	slog.SetDefault(logger)

	cfg := defaultCfg
	cfg.TargetsFile = *targetsFile
	cfg.SnapshotDir = *snapshotDir
	cfg.ArchiveDir = *archiveDir
	cfg.OutputFile = *outputFile
	cfg.OfferLogFile = *offerLog
	cfg.Workers = *workers
	cfg.Verbose = *verbose
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	start := time.Now()
	result, err := extractor.Run(cfg)
	if err != nil {
		slog.Error("extraction failed", slog.Any("error", err))
		os.Exit(1)
	}

	printSummary(result, time.Since(start))
}

func printSummary(result *models.ExtractResult, duration time.Duration) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Extraction complete")
	fmt.Printf("  Files processed: %d\n", result.FilesProcessed)
	fmt.Printf("  Files failed:    %d\n", result.FilesFailed)
	fmt.Printf("  Records:         %d\n", result.Records)
	fmt.Printf("  Files archived:  %d\n", result.FilesArchived)
	fmt.Printf("  Offers exported: %d\n", result.OffersExported)
	fmt.Printf("  Duration:        %v\n", duration)
	fmt.Printf("  Output file:     %s\n", result.OutputPath)
	fmt.Printf("  Offer log:       %s\n", result.OfferLogPath)
	fmt.Println(separator)
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if info, err := os.Stdout.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
		handler = tint.NewHandler(os.Stdout, &tint.Options{Level: level, TimeFormat: time.Kitchen})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler)
}
