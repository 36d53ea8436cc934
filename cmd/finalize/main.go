package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aluiziolira/go-crawl-parking/config"
	"github.com/aluiziolira/go-crawl-parking/finalize"
	"github.com/lmittmann/tint"
)

func main() {
	if err := config.LoadDotenv(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	defaultCfg := config.DefaultConfig()

	targetsFile := flag.String("targets", defaultCfg.TargetsFile, "Target list file")
	ledgerFile := flag.String("ledger", defaultCfg.LedgerFile, "Progress ledger file")
	snapshotDir := flag.String("snapshots", defaultCfg.SnapshotDir, "Snapshot store directory")
	archiveDir := flag.String("archive", defaultCfg.ArchiveDir, "Archive directory for processed snapshots")
	outputFile := flag.String("output", defaultCfg.OutputFile, "Canonical dataset output file")
	offerLog := flag.String("offer-log", defaultCfg.OfferLogFile, "Flat per-offer log file")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	slog.SetDefault(newLogger(*verbose))

	cfg := defaultCfg
	cfg.TargetsFile = *targetsFile
	cfg.LedgerFile = *ledgerFile
	cfg.SnapshotDir = *snapshotDir
	cfg.ArchiveDir = *archiveDir
	cfg.OutputFile = *outputFile
	cfg.OfferLogFile = *offerLog
	cfg.Verbose = *verbose
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	result, ran, err := finalize.Run(cfg)
	if err != nil {
		slog.Error("finalize failed", slog.Any("error", err))
		os.Exit(1)
	}
	if !ran {
		return
	}
	slog.Info("finalize complete",
		slog.Int("files", result.FilesProcessed),
		slog.Int("records", result.Records),
		slog.Int("offers", result.OffersExported),
		slog.String("output", result.OutputPath),
	)
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
