package crawler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aluiziolira/go-crawl-parking/config"
	"github.com/aluiziolira/go-crawl-parking/ledger"
	"github.com/aluiziolira/go-crawl-parking/targets"
	"github.com/stretchr/testify/require"
)

const targetURL = "https://example.de/flughafen-parken/parken-flughafen-dresden"

func openLedger(t *testing.T, cfg *config.Config) *ledger.Ledger {
	t.Helper()
	led, err := ledger.Open(cfg.LedgerFile)
	require.NoError(t, err)
	return led
}

func TestRunCompletesTarget(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, targets.Save(cfg.TargetsFile, []string{targetURL}))

	r := newFakeRenderer("<results>")
	led := openLedger(t, cfg)
	orch := NewOrchestrator(cfg, newTestFetcher(r, cfg), led)

	today := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	result := orch.Run(context.Background(), []string{targetURL}, today)

	// One from-date with two durations: two units, one page each.
	require.Equal(t, 2, result.UnitsCompleted)
	require.Equal(t, 0, result.UnitsSkipped)
	require.Equal(t, 0, result.UnitsFailed)
	require.Equal(t, 2, result.PagesSaved)
	require.Equal(t, 1, result.TargetsDone)

	entries, err := os.ReadDir(cfg.SnapshotDir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.FileExists(t, filepath.Join(cfg.SnapshotDir, "parken-flughafen-dresden_2025-06-02→2025-06-03.html"))
	require.FileExists(t, filepath.Join(cfg.SnapshotDir, "parken-flughafen-dresden_2025-06-02→2025-06-04.html"))

	require.Equal(t, 2, led.Len())

	// The fully crawled target is gone from the backlog.
	remaining, err := targets.Load(cfg.TargetsFile)
	require.NoError(t, err)
	require.Empty(t, remaining)
}

func TestRunResumesIdempotently(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, targets.Save(cfg.TargetsFile, []string{targetURL}))
	today := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	first := newFakeRenderer("<results>")
	orch := NewOrchestrator(cfg, newTestFetcher(first, cfg), openLedger(t, cfg))
	orch.Run(context.Background(), []string{targetURL}, today)

	// Fresh process: ledger reconstructed from the log, new renderer session.
	second := newFakeRenderer("<results>")
	orch = NewOrchestrator(cfg, newTestFetcher(second, cfg), openLedger(t, cfg))
	result := orch.Run(context.Background(), []string{targetURL}, today)

	require.Equal(t, 2, result.UnitsSkipped)
	require.Equal(t, 0, result.UnitsCompleted)
	// Only the session-init navigation happened: completed units never touch
	// the renderer again.
	require.Len(t, second.navigations, 1)
}

func TestRunFailedUnitsLeaveNoLedgerEntry(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, targets.Save(cfg.TargetsFile, []string{targetURL}))

	r := newFakeRenderer("<p1>", "<p2>")
	r.contentErrOn = 2 // every unit dies mid-pagination
	led := openLedger(t, cfg)
	orch := NewOrchestrator(cfg, newTestFetcher(r, cfg), led)

	today := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	result := orch.Run(context.Background(), []string{targetURL}, today)

	require.Equal(t, 2, result.UnitsFailed)
	require.Equal(t, 0, result.UnitsCompleted)
	require.Len(t, result.FailedUnits, 2)

	// No ledger entry and no snapshot files for failed units.
	require.Equal(t, 0, led.Len())
	require.NoDirExists(t, cfg.SnapshotDir)

	// The target stays in the backlog for the next run.
	remaining, err := targets.Load(cfg.TargetsFile)
	require.NoError(t, err)
	require.Equal(t, []string{targetURL}, remaining)
}

func TestRunSnapshotWriteFailureLeavesUnitPending(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, targets.Save(cfg.TargetsFile, []string{targetURL}))
	// Occupy the snapshot dir path with a file so persistence must fail.
	require.NoError(t, os.WriteFile(cfg.SnapshotDir, []byte("in the way"), 0o644))

	r := newFakeRenderer("<results>")
	led := openLedger(t, cfg)
	orch := NewOrchestrator(cfg, newTestFetcher(r, cfg), led)

	today := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	result := orch.Run(context.Background(), []string{targetURL}, today)

	require.Equal(t, 2, result.UnitsFailed)
	require.Equal(t, 0, led.Len())
}

func TestRunNoTargets(t *testing.T) {
	cfg := testConfig(t)
	r := newFakeRenderer()
	orch := NewOrchestrator(cfg, newTestFetcher(r, cfg), openLedger(t, cfg))

	result := orch.Run(context.Background(), nil, time.Now())
	require.Equal(t, 0, result.UnitsCompleted)
	require.Empty(t, r.navigations)
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, targets.Save(cfg.TargetsFile, []string{targetURL}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newFakeRenderer("<results>")
	led := openLedger(t, cfg)
	orch := NewOrchestrator(cfg, newTestFetcher(r, cfg), led)

	result := orch.Run(ctx, []string{targetURL}, time.Now())
	require.Equal(t, 0, result.UnitsCompleted)
	require.Equal(t, 0, led.Len())
}
