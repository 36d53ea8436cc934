// Package finalize closes the crawl loop: once the target backlog is
// exhausted it resets the progress ledger and hands the snapshot store to the
// extraction pipeline.
package finalize

import (
	"log/slog"

	"github.com/aluiziolira/go-crawl-parking/config"
	"github.com/aluiziolira/go-crawl-parking/extractor"
	"github.com/aluiziolira/go-crawl-parking/ledger"
	"github.com/aluiziolira/go-crawl-parking/models"
	"github.com/aluiziolira/go-crawl-parking/targets"
)

// Run applies the exhaustion rule: extraction happens only when the target
// list is missing or empty AND the ledger still holds completed units. While
// targets remain, the ledger is left untouched. Returns whether extraction
// ran.
func Run(cfg *config.Config) (*models.ExtractResult, bool, error) {
	if !targets.Empty(cfg.TargetsFile) {
		slog.Info("targets still remain, ledger not cleared")
		return nil, false, nil
	}

	led, err := ledger.Open(cfg.LedgerFile)
	if err != nil {
		return nil, false, err
	}
	if led.Len() == 0 {
		slog.Info("ledger already empty, nothing to finalize")
		return nil, false, nil
	}

	slog.Info("all targets processed, clearing ledger and extracting")
	if err := led.Clear(); err != nil {
		return nil, false, err
	}

	result, err := extractor.Run(cfg)
	if err != nil {
		return nil, true, err
	}
	return result, true, nil
}
