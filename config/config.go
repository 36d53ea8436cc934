package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds settings for the crawl, extraction, and finalize runs.
type Config struct {
	SeedURL       string
	TargetsFile   string
	IncludedFile  string
	LedgerFile    string
	SnapshotDir   string
	ArchiveDir    string
	OutputFile    string
	OfferLogFile  string
	ScreenshotDir string

	SettleWait  time.Duration
	ElementWait time.Duration
	ConsentWait time.Duration
	MaxPages    int

	FromDays  int
	Durations int

	Workers     int
	MetricsAddr string
	Verbose     bool
}

// DefaultConfig returns the defaults tuned for the parking comparison site.
func DefaultConfig() *Config {
	return &Config{
		SeedURL:       "https://www.parkinglist.de/flughafen-parken/parken-flughafen-dresden",
		TargetsFile:   "data/airports.txt",
		IncludedFile:  "data/included_airports.yaml",
		LedgerFile:    "progress.log",
		SnapshotDir:   "saved_pages",
		ArchiveDir:    "old_saved_pages",
		OutputFile:    "json_out/parking_data.json",
		OfferLogFile:  "text_out/parkinglist_saved_pages.log",
		ScreenshotDir: "screenshots",
		SettleWait:    22 * time.Second,
		ElementWait:   22 * time.Second,
		ConsentWait:   5 * time.Second,
		MaxPages:      50,
		FromDays:      5,
		Durations:     14,
		Workers:       10,
		MetricsAddr:   "",
		Verbose:       false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.SeedURL == "" {
		return fmt.Errorf("seed URL cannot be empty")
	}
	parsed, err := url.Parse(c.SeedURL)
	if err != nil {
		return fmt.Errorf("invalid seed URL: %w", err)
	}
	if parsed.Host == "" {
		return fmt.Errorf("seed URL must include a host")
	}

	if c.TargetsFile == "" {
		return fmt.Errorf("targets file cannot be empty")
	}
	if c.LedgerFile == "" {
		return fmt.Errorf("ledger file cannot be empty")
	}
	if c.SnapshotDir == "" {
		return fmt.Errorf("snapshot dir cannot be empty")
	}
	if c.ArchiveDir == "" {
		return fmt.Errorf("archive dir cannot be empty")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.OfferLogFile == "" {
		return fmt.Errorf("offer log file cannot be empty")
	}
	if c.SettleWait <= 0 {
		return fmt.Errorf("settle wait must be positive")
	}
	if c.ElementWait <= 0 {
		return fmt.Errorf("element wait must be positive")
	}
	if c.ConsentWait <= 0 {
		return fmt.Errorf("consent wait must be positive")
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive")
	}
	if c.FromDays <= 0 {
		return fmt.Errorf("from days must be positive")
	}
	if c.Durations <= 0 {
		return fmt.Errorf("durations must be positive")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	return nil
}

// LoadDotenv loads a .env file when present. A missing file is not an error.
func LoadDotenv() error {
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load()
}

// EnvString reads a string environment override.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// EnvInt reads an integer environment override.
func EnvInt(key string) (int, bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, true, nil
}

// EnvDuration reads a duration environment override.
func EnvDuration(key string) (time.Duration, bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return 0, false, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, true, nil
}
