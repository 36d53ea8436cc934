// Package extractor turns captured result pages into the canonical priced
// dataset. Snapshot files are parsed by a bounded worker pool; results are
// merged by a single collector and written once, in full, at the end of the
// run. Two outputs are produced: the grouped dataset document and a flat
// per-offer log for line-oriented ingestion.
package extractor

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/aluiziolira/go-crawl-parking/config"
	"github.com/aluiziolira/go-crawl-parking/models"
	"github.com/aluiziolira/go-crawl-parking/targets"
)

// fileResult carries one worker's output for one snapshot file.
type fileResult struct {
	file    string
	label   string
	records []models.PriceRecord
	flat    []models.FlatOffer
	err     error
}

// Run processes every snapshot in the store and writes the canonical dataset.
// A single file's failure is logged and excluded; missing inputs abort the
// run before any output is written.
func Run(cfg *config.Config) (*models.ExtractResult, error) {
	if _, err := os.Stat(cfg.SnapshotDir); err != nil {
		return nil, fmt.Errorf("snapshot dir %q is missing: %w", cfg.SnapshotDir, err)
	}
	if _, err := os.Stat(cfg.TargetsFile); err != nil {
		return nil, fmt.Errorf("target list %q is missing: %w", cfg.TargetsFile, err)
	}

	links, err := targets.Load(cfg.TargetsFile)
	if err != nil {
		return nil, err
	}

	files, err := filepath.Glob(filepath.Join(cfg.SnapshotDir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("no snapshot files in %q", cfg.SnapshotDir)
	}

	resolver := newLinkResolver(links)

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	jobs := make(chan string)
	results := make(chan fileResult, len(files))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				name := filepath.Base(path)
				label, records, err := parseSnapshot(path, resolver.resolve(name))
				results <- fileResult{
					file:    name,
					label:   label,
					records: records,
					flat:    flattenOffers(name, records),
					err:     err,
				}
			}
		}()
	}

	go func() {
		for _, path := range files {
			jobs <- path
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	// Single-collector merge: only this loop touches the dataset map.
	dataset := make(map[string][]models.PriceRecord)
	flatByFile := make(map[string][]models.FlatOffer)
	result := &models.ExtractResult{OutputPath: cfg.OutputFile, OfferLogPath: cfg.OfferLogFile}
	for res := range results {
		if res.err != nil {
			slog.Error("snapshot parse failed, excluding file",
				slog.String("file", res.file),
				slog.Any("error", res.err),
			)
			result.FilesFailed++
			continue
		}
		dataset[res.label] = append(dataset[res.label], res.records...)
		flatByFile[res.file] = res.flat
		result.FilesProcessed++
		result.Records += len(res.records)
	}

	sortDataset(dataset)

	if err := writeDataset(cfg.OutputFile, dataset); err != nil {
		return nil, err
	}
	slog.Info("dataset written",
		slog.String("path", cfg.OutputFile),
		slog.Int("targets", len(dataset)),
		slog.Int("records", result.Records),
	)

	offerLog, err := NewOfferLogWriter(cfg.OfferLogFile)
	if err != nil {
		return nil, err
	}
	// Lines land in sorted file order regardless of worker completion order.
	for _, path := range files {
		if err := offerLog.Write(flatByFile[filepath.Base(path)]); err != nil {
			offerLog.Close()
			return nil, err
		}
	}
	result.OffersExported = offerLog.Lines()
	if err := offerLog.Close(); err != nil {
		return nil, fmt.Errorf("close offer log: %w", err)
	}
	slog.Info("offer log written",
		slog.String("path", cfg.OfferLogFile),
		slog.Int("offers", result.OffersExported),
	)

	result.FilesArchived = archive(files, cfg.ArchiveDir)
	return result, nil
}

// sortDataset re-establishes the presentation order: longest stays first. The
// stable sort keeps same-duration records in insertion order.
func sortDataset(dataset map[string][]models.PriceRecord) {
	for label := range dataset {
		records := dataset[label]
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].DurationDays > records[j].DurationDays
		})
	}
}

// archive moves processed snapshots into a timestamped subdirectory. Per-file
// failures are logged and do not abort the batch.
func archive(files []string, archiveDir string) int {
	stamp := time.Now().Format("2006-01-02_15-04-05")
	dest := filepath.Join(archiveDir, stamp)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		slog.Error("archive dir creation failed", slog.Any("error", err))
		return 0
	}

	moved := 0
	for _, path := range files {
		target := filepath.Join(dest, filepath.Base(path))
		if err := os.Rename(path, target); err != nil {
			slog.Error("archive move failed",
				slog.String("file", filepath.Base(path)),
				slog.Any("error", err),
			)
			continue
		}
		moved++
	}
	slog.Info("snapshots archived", slog.Int("files", moved), slog.String("dir", dest))
	return moved
}
