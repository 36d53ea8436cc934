package extractor

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aluiziolira/go-crawl-parking/models"
	"github.com/aluiziolira/go-crawl-parking/parser"
)

// OfferLogWriter writes the flat offer log: one JSON object per line, each a
// single offer stripped down to its ingestion fields.
type OfferLogWriter struct {
	file    *os.File
	writer  *bufio.Writer
	encoder *json.Encoder
	mu      sync.Mutex
	lines   int
}

// NewOfferLogWriter creates the log file, truncating any previous run's output.
func NewOfferLogWriter(filename string) (*OfferLogWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create offer log: %w", err)
	}

	buffer := bufio.NewWriter(f)
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	return &OfferLogWriter{
		file:    f,
		writer:  buffer,
		encoder: encoder,
	}, nil
}

// Write appends offers, one line each.
func (w *OfferLogWriter) Write(offers []models.FlatOffer) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, offer := range offers {
		if err := w.encoder.Encode(offer); err != nil {
			return fmt.Errorf("encode offer line: %w", err)
		}
		w.lines++
	}

	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("flush offer log: %w", err)
	}
	return nil
}

// Lines reports how many offers have been written.
func (w *OfferLogWriter) Lines() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lines
}

// Close flushes buffers and closes the underlying file.
func (w *OfferLogWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("flush offer log: %w", err)
	}
	return w.file.Close()
}

// flattenOffers projects a file's records onto the offer log's line format.
// The airport code comes from the snapshot filename; its uppercase form
// doubles as the IATA field, as downstream ingestion expects.
func flattenOffers(filename string, records []models.PriceRecord) []models.FlatOffer {
	if len(records) == 0 {
		return nil
	}

	code := parser.AirportSlug(filename)
	start, end, _ := parser.UnitDates(filename)

	offers := make([]models.FlatOffer, 0, len(records))
	for _, rec := range records {
		offers = append(offers, models.FlatOffer{
			ScrapeSource:  "parkinglist",
			AirportSlug:   code,
			IATA:          strings.ToUpper(code),
			ParkingSlug:   rec.ParkingSlug,
			ParkingType:   rec.ParkingType,
			ParkingFromDt: start.Format(models.MinuteLayout),
			ParkingToDt:   end.Format(models.MinuteLayout),
			Price:         rec.Price,
			Currency:      rec.Currency,
			ScrapeLink:    rec.ScrapeLink,
		})
	}
	return offers
}

// writeDataset serializes the full grouped dataset in one overwrite.
func writeDataset(path string, dataset map[string][]models.PriceRecord) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dataset file: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dataset); err != nil {
		f.Close()
		return fmt.Errorf("encode dataset: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close dataset file: %w", err)
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
