package extractor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aluiziolira/go-crawl-parking/config"
	"github.com/aluiziolira/go-crawl-parking/models"
	"github.com/aluiziolira/go-crawl-parking/targets"
	"github.com/stretchr/testify/require"
)

const dresdenLink = "https://example.de/flughafen-parken/parken-flughafen-dresden"

const offerPage = `<!DOCTYPE html>
<html><head><title>Parken am Flughafen Dresden</title></head><body>
<h2>Flughafen Dresden</h2>
<div class="airport_search">
  <div class="logoIcon"><img alt="lot-alpha" src="a.png"></div>
  <div class="iconDiv"><p data-bg="img/icon-shuttle.svg"></p><p data-bg="img/icon-valet.svg"></p></div>
  <div class="kjll">ab 45,00 &euro;</div>
  <div>Stellplatz überdacht und bewacht</div>
  <div><span>Adresse:</span><span>Musterstraße 1, 01067 Dresden</span></div>
  <div class="air_desript"><ul><li>Shuttle inklusive</li><li>24h Zufahrt</li></ul></div>
  <a href="https://booking.example/lot-alpha">Jetzt buchen</a>
</div>
<div class="airport_search">
  <div class="kjll">Preis auf Anfrage</div>
</div>
<div class="airport_search">
  <div class="not_available">Ausgebucht</div>
  <div class="kjll">89,00 &euro;</div>
</div>
</body></html>`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.TargetsFile = filepath.Join(dir, "airports.txt")
	cfg.SnapshotDir = filepath.Join(dir, "saved_pages")
	cfg.ArchiveDir = filepath.Join(dir, "old_saved_pages")
	cfg.OutputFile = filepath.Join(dir, "json_out", "parking_data.json")
	cfg.OfferLogFile = filepath.Join(dir, "text_out", "parkinglist_saved_pages.log")
	cfg.Workers = 4
	require.NoError(t, os.MkdirAll(cfg.SnapshotDir, 0o755))
	require.NoError(t, targets.Save(cfg.TargetsFile, []string{dresdenLink}))
	return cfg
}

func writeSnapshot(t *testing.T, cfg *config.Config, name, html string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(cfg.SnapshotDir, name), []byte(html), 0o644))
}

func TestParseSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "parken-flughafen-dresden_2025-06-01→2025-06-05.html")
	require.NoError(t, os.WriteFile(path, []byte(offerPage), 0o644))

	label, records, err := parseSnapshot(path, dresdenLink)
	require.NoError(t, err)
	require.Equal(t, "Dresden", label)
	// The priceless offer is filtered; the unavailable one still has a price.
	require.Len(t, records, 2)

	rec := records[0]
	require.Equal(t, "Parken am Flughafen Dresden", rec.Title)
	require.Equal(t, "Flughafen Dresden", rec.Place)
	require.Equal(t, "2025-06-01 07:00:00", rec.ParkingFromDt)
	require.Equal(t, "2025-06-05 21:00:00", rec.ParkingToDt)
	require.Equal(t, 4, rec.DurationDays)
	require.Equal(t, 110, rec.DurationHours)
	require.Equal(t, "4500", rec.Price)
	require.Equal(t, "EURO", rec.Currency)
	require.Equal(t, 1125.0, rec.PricePerDay)
	require.Equal(t, 40.91, rec.PricePerHour)
	require.Equal(t, "shuttle | valet", rec.ParkingType)
	require.Equal(t, "covered", rec.ParkingDetailType)
	require.Equal(t, "lot-alpha", rec.ParkingSlug)
	require.Equal(t, "Musterstraße 1, 01067 Dresden", rec.Address)
	require.Equal(t, []string{"Shuttle inklusive", "24h Zufahrt"}, rec.IncludedServices)
	require.Equal(t, "https://booking.example/lot-alpha", rec.BookingLink)
	require.Equal(t, dresdenLink, rec.ScrapeLink)
	require.Equal(t, "available", rec.Availability)

	unavailable := records[1]
	require.Equal(t, "unavailable", unavailable.Availability)
	require.Equal(t, "8900", unavailable.Price)
	require.Equal(t, "unknown", unavailable.ParkingSlug)
	require.Equal(t, "unknown", unavailable.ParkingType)
	require.Equal(t, "open", unavailable.ParkingDetailType)
	require.Equal(t, "unknown", unavailable.Address)
	// Without its own anchor the offer inherits the snapshot's target link.
	require.Equal(t, dresdenLink, unavailable.BookingLink)
}

func TestRunBuildsDataset(t *testing.T) {
	cfg := testConfig(t)
	writeSnapshot(t, cfg, "parken-flughafen-dresden_2025-06-01→2025-06-02.html", offerPage)
	writeSnapshot(t, cfg, "parken-flughafen-dresden_2025-06-01→2025-06-05.html", offerPage)

	result, err := Run(cfg)
	require.NoError(t, err)
	require.Equal(t, 2, result.FilesProcessed)
	require.Equal(t, 0, result.FilesFailed)
	require.Equal(t, 4, result.Records)
	require.Equal(t, 4, result.OffersExported)
	require.Equal(t, 2, result.FilesArchived)

	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	var dataset map[string][]models.PriceRecord
	require.NoError(t, json.Unmarshal(data, &dataset))

	records := dataset["Dresden"]
	require.Len(t, records, 4)
	// Longest stay first.
	require.Equal(t, 4, records[0].DurationDays)
	require.Equal(t, 4, records[1].DurationDays)
	require.Equal(t, 1, records[2].DurationDays)
	require.Equal(t, 1, records[3].DurationDays)

	// One offer log line per priced offer, files in sorted order.
	logData, err := os.ReadFile(cfg.OfferLogFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(logData)), "\n")
	require.Len(t, lines, 4)

	var first models.FlatOffer
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.Equal(t, "parkinglist", first.ScrapeSource)
	require.Equal(t, "dresden", first.AirportSlug)
	require.Equal(t, "DRESDEN", first.IATA)
	require.Equal(t, "4500", first.Price)
	require.Equal(t, "EURO", first.Currency)
	require.Equal(t, "2025-06-01 07:00", first.ParkingFromDt)
	require.Equal(t, "2025-06-02 21:00", first.ParkingToDt)
	require.Equal(t, dresdenLink, first.ScrapeLink)

	var last models.FlatOffer
	require.NoError(t, json.Unmarshal([]byte(lines[3]), &last))
	require.Equal(t, "2025-06-05 21:00", last.ParkingToDt)

	// Processed files were moved out of the live store into the archive.
	remaining, err := os.ReadDir(cfg.SnapshotDir)
	require.NoError(t, err)
	require.Empty(t, remaining)

	runs, err := os.ReadDir(cfg.ArchiveDir)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	archived, err := os.ReadDir(filepath.Join(cfg.ArchiveDir, runs[0].Name()))
	require.NoError(t, err)
	require.Len(t, archived, 2)
}

func TestRunUnmatchedFileFallsBackToPlaceholder(t *testing.T) {
	cfg := testConfig(t)
	name := "parken-flughafen-unknownville_2025-06-01→2025-06-02.html"
	writeSnapshot(t, cfg, name, offerPage)

	result, err := Run(cfg)
	require.NoError(t, err)
	require.Equal(t, 1, result.FilesProcessed)

	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	var dataset map[string][]models.PriceRecord
	require.NoError(t, json.Unmarshal(data, &dataset))

	var found bool
	for _, records := range dataset {
		for _, rec := range records {
			require.Equal(t, "https://dummy-link/"+name, rec.ScrapeLink)
			found = true
		}
	}
	require.True(t, found)
}

func TestRunMalformedFileIsExcluded(t *testing.T) {
	cfg := testConfig(t)
	writeSnapshot(t, cfg, "parken-flughafen-dresden_2025-06-01→2025-06-02.html", offerPage)

	// A directory with an .html suffix makes the open fail for that entry.
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.SnapshotDir, "broken_2025-06-01→2025-06-02.html"), 0o755))

	result, err := Run(cfg)
	require.NoError(t, err)
	require.Equal(t, 1, result.FilesProcessed)
	require.Equal(t, 1, result.FilesFailed)
}

func TestRunMissingInputsAborts(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.RemoveAll(cfg.SnapshotDir))

	_, err := Run(cfg)
	require.Error(t, err)
	require.NoFileExists(t, cfg.OutputFile)
}

func TestSortDatasetStable(t *testing.T) {
	rec := func(days int, slug string) models.PriceRecord {
		return models.PriceRecord{DurationDays: days, ParkingSlug: slug}
	}
	dataset := map[string][]models.PriceRecord{
		"Dresden": {rec(3, "a"), rec(10, "b"), rec(10, "c"), rec(1, "d")},
	}

	sortDataset(dataset)

	got := dataset["Dresden"]
	require.Equal(t, []int{10, 10, 3, 1}, []int{got[0].DurationDays, got[1].DurationDays, got[2].DurationDays, got[3].DurationDays})
	// The two ten-day records keep their relative input order.
	require.Equal(t, "b", got[0].ParkingSlug)
	require.Equal(t, "c", got[1].ParkingSlug)
}

func TestResolveLinkCaching(t *testing.T) {
	r := newLinkResolver([]string{dresdenLink})

	link := r.resolve("parken-flughafen-dresden_2025-06-01→2025-06-02.html")
	require.Equal(t, dresdenLink, link)

	// Second page of the same target hits the cache.
	link = r.resolve("parken-flughafen-dresden_2025-06-01→2025-06-02_page2.html")
	require.Equal(t, dresdenLink, link)

	link = r.resolve("something-else_2025-06-01→2025-06-02.html")
	require.Equal(t, "https://dummy-link/something-else_2025-06-01→2025-06-02.html", link)
}
