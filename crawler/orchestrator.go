// Package crawler enumerates the (target × date-range) workload and drives a
// single renderer session through it, persisting snapshots and durable
// progress so an interrupted run resumes where it stopped.
package crawler

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aluiziolira/go-crawl-parking/config"
	"github.com/aluiziolira/go-crawl-parking/ledger"
	"github.com/aluiziolira/go-crawl-parking/models"
	"github.com/aluiziolira/go-crawl-parking/targets"
)

// Orchestrator composes the enumerator, ledger, fetcher, and snapshot store.
// It owns the renderer session for the run and processes exactly one unit at
// a time; the renderer is stateful and must never be driven concurrently.
type Orchestrator struct {
	cfg     *config.Config
	fetcher *Fetcher
	ledger  *ledger.Ledger
	store   *SnapshotStore
	Metrics *Metrics
}

// NewOrchestrator wires the crawl components together.
func NewOrchestrator(cfg *config.Config, fetcher *Fetcher, led *ledger.Ledger) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg,
		fetcher: fetcher,
		ledger:  led,
		store:   NewSnapshotStore(cfg.SnapshotDir),
		Metrics: NewMetrics(),
	}
}

// Run crawls every pending unit for every target in list order. Per-unit
// failures leave the unit pending and the run continues; a target is removed
// from the backlog only when all of its units are complete.
func (o *Orchestrator) Run(ctx context.Context, targetURLs []string, today time.Time) *models.CrawlResult {
	result := &models.CrawlResult{StartTime: today}
	defer func() { result.EndTime = time.Now() }()

	if len(targetURLs) == 0 {
		slog.Info("all targets processed, nothing to do")
		return result
	}

	ranges := DateRanges(today, o.cfg.FromDays, o.cfg.Durations)

	slog.Info("initializing session", slog.String("url", targetURLs[0]))
	if err := o.fetcher.renderer.Navigate(targetURLs[0]); err != nil {
		slog.Error("session init navigation failed", slog.Any("error", err))
	}
	o.fetcher.InitSession()

	for _, targetURL := range targetURLs {
		if ctx.Err() != nil {
			slog.Warn("run interrupted, progress is preserved in the ledger")
			return result
		}
		slog.Info("starting target", slog.String("url", targetURL))
		completed := 0

		for _, r := range ranges {
			if ctx.Err() != nil {
				slog.Warn("run interrupted, progress is preserved in the ledger")
				return result
			}

			unit := models.WorkUnit{TargetURL: targetURL, Range: r}
			key := unit.Key()

			if o.ledger.Contains(key) {
				slog.Debug("skipping completed unit", slog.String("unit", key))
				completed++
				result.UnitsSkipped++
				o.Metrics.IncUnit("skipped")
				continue
			}

			slog.Info("processing unit",
				slog.String("from", r.FromDisplay()),
				slog.String("to", r.ToDisplay()),
			)

			fetchStart := time.Now()
			pages, usedURL := o.fetcher.Fetch(unit)
			o.Metrics.ObserveFetch(time.Since(fetchStart))

			if len(pages) == 0 {
				slog.Warn("no results for unit", slog.String("unit", key))
				result.UnitsFailed++
				result.FailedUnits = append(result.FailedUnits, key)
				o.Metrics.IncUnit("failed")
				continue
			}

			name := targetName(usedURL)
			if err := o.store.SaveUnit(name, r, pages); err != nil {
				slog.Error("snapshot persistence failed, unit stays pending",
					slog.String("unit", key),
					slog.Any("error", err),
				)
				result.UnitsFailed++
				result.FailedUnits = append(result.FailedUnits, key)
				o.Metrics.IncUnit("failed")
				continue
			}

			// The ledger entry is written only after every page landed on
			// disk. A failed append leaves the unit pending too.
			if err := o.ledger.Append(key); err != nil {
				slog.Error("ledger append failed, unit stays pending",
					slog.String("unit", key),
					slog.Any("error", err),
				)
				result.UnitsFailed++
				result.FailedUnits = append(result.FailedUnits, key)
				o.Metrics.IncUnit("failed")
				continue
			}

			completed++
			result.UnitsCompleted++
			result.PagesSaved += len(pages)
			o.Metrics.IncUnit("completed")
			o.Metrics.AddPages(len(pages))
			slog.Info("unit saved", slog.String("unit", key), slog.Int("pages", len(pages)))
		}

		if completed == len(ranges) {
			if err := targets.Remove(o.cfg.TargetsFile, targetURL); err != nil {
				slog.Error("target list rewrite failed", slog.Any("error", err))
				continue
			}
			result.TargetsDone++
			o.Metrics.IncTargetDone()
			slog.Info("all units done for target", slog.String("url", targetURL))
		} else {
			slog.Info("partial progress saved for target",
				slog.String("url", targetURL),
				slog.Int("completed", completed),
				slog.Int("total", len(ranges)),
			)
		}
	}

	return result
}

// targetName is the final path segment of the resolved target URL, used as the
// snapshot filename prefix.
func targetName(url string) string {
	if idx := strings.LastIndex(url, "/"); idx >= 0 {
		return url[idx+1:]
	}
	return url
}
