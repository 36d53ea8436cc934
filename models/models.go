// Package models defines data structures shared by the crawler and the extractor.
package models

import (
	"fmt"
	"time"
)

const (
	// DisplayDateLayout is the format the search form expects.
	DisplayDateLayout = "02/01/2006"
	// RawDateLayout is the format used in unit keys and snapshot filenames.
	RawDateLayout = "2006-01-02"
	// TimestampLayout is the format used for datetime fields in the dataset.
	TimestampLayout = "2006-01-02 15:04:05"
	// MinuteLayout is the format used for datetime fields in the flat offer log.
	MinuteLayout = "2006-01-02 15:04"
)

// DateRange is one (from, to) parking window. Ranges are recomputed each run,
// never persisted.
type DateRange struct {
	From time.Time
	To   time.Time
}

// FromDisplay renders the start date the way the site's date input expects.
func (r DateRange) FromDisplay() string { return r.From.Format(DisplayDateLayout) }

// ToDisplay renders the end date the way the site's date input expects.
func (r DateRange) ToDisplay() string { return r.To.Format(DisplayDateLayout) }

// FromRaw renders the start date in ISO form.
func (r DateRange) FromRaw() string { return r.From.Format(RawDateLayout) }

// ToRaw renders the end date in ISO form.
func (r DateRange) ToRaw() string { return r.To.Format(RawDateLayout) }

// WorkUnit is the atomic granule of crawl progress: one target crossed with one
// date range. A unit is either fully captured and logged, or pending.
type WorkUnit struct {
	TargetURL string
	Range     DateRange
}

// Key returns the stable identity used in the progress ledger.
func (u WorkUnit) Key() string {
	return fmt.Sprintf("%s|%s|%s", u.TargetURL, u.Range.FromRaw(), u.Range.ToRaw())
}

// Snapshot is one captured result page for a work unit. Page ordinals are
// 1-based.
type Snapshot struct {
	Page int
	HTML string
}

// SnapshotFilename builds the on-disk name for one captured page. The page
// suffix is omitted for the first page, matching the historical layout of the
// snapshot store.
func SnapshotFilename(targetName string, r DateRange, page int) string {
	suffix := ""
	if page > 1 {
		suffix = fmt.Sprintf("_page%d", page)
	}
	return fmt.Sprintf("%s_%s→%s%s.html", targetName, r.FromRaw(), r.ToRaw(), suffix)
}

// PriceRecord is one normalized parking offer derived from a snapshot.
type PriceRecord struct {
	Title             string   `json:"Title"`
	Place             string   `json:"Place"`
	ParkingFromDt     string   `json:"ParkingFromDt"`
	ParkingToDt       string   `json:"ParkingToDt"`
	DurationDays      int      `json:"DurationDays"`
	DurationHours     int      `json:"DurationHours"`
	Price             string   `json:"Price"`
	Currency          string   `json:"Currency"`
	PricePerDay       float64  `json:"PricePerDay"`
	PricePerHour      float64  `json:"PricePerHour"`
	ParkingType       string   `json:"ParkingType"`
	ParkingDetailType string   `json:"ParkingDetailType"`
	ParkingSlug       string   `json:"ParkingSlug"`
	Address           string   `json:"Address"`
	IncludedServices  []string `json:"IncludedServices"`
	BookingLink       string   `json:"BookingLink"`
	ScrapeLink        string   `json:"ScrapeLink"`
	ScrapedAt         string   `json:"ScrapedAt"`
	Availability      string   `json:"Availability"`
}

// FlatOffer is the line format of the flat offer log, one JSON object per
// offer, consumed by downstream ingestion alongside the grouped dataset.
type FlatOffer struct {
	ScrapeSource  string `json:"ScrapeSource"`
	AirportSlug   string `json:"AirportSlug"`
	IATA          string `json:"IATA"`
	ParkingSlug   string `json:"ParkingSlug"`
	ParkingType   string `json:"ParkingType"`
	ParkingFromDt string `json:"ParkingFromDt"`
	ParkingToDt   string `json:"ParkingToDt"`
	Price         string `json:"Price"`
	Currency      string `json:"Currency"`
	ScrapeLink    string `json:"ScrapeLink"`
}

// CrawlResult summarizes one crawl run.
type CrawlResult struct {
	StartTime      time.Time
	EndTime        time.Time
	UnitsCompleted int
	UnitsSkipped   int
	UnitsFailed    int
	PagesSaved     int
	TargetsDone    int
	FailedUnits    []string
}

// ExtractResult summarizes one extraction run.
type ExtractResult struct {
	FilesProcessed int
	FilesFailed    int
	Records        int
	FilesArchived  int
	OffersExported int
	OutputPath     string
	OfferLogPath   string
}
