package targets

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/gocolly/colly/v2"
	"gopkg.in/yaml.v3"
)

// includedAirports is the shape of the filter file: only targets whose URL
// contains one of these keywords make it into the backlog.
type includedAirports struct {
	IncludedAirports []string `yaml:"included_airports"`
}

// LoadIncluded reads the airport filter keywords.
func LoadIncluded(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read included airports: %w", err)
	}
	var parsed includedAirports
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse included airports: %w", err)
	}
	return parsed.IncludedAirports, nil
}

// Generator scrapes the airport dropdown on the seed page to build the target
// list.
type Generator struct {
	collector *colly.Collector
}

// NewGenerator builds a generator with its own collector.
func NewGenerator() *Generator {
	return &Generator{collector: colly.NewCollector()}
}

// WithTransport swaps the underlying HTTP transport, used by tests.
func (g *Generator) WithTransport(rt http.RoundTripper) {
	g.collector.WithTransport(rt)
}

// Run visits the seed page, collects every dropdown option whose value is a
// parking search URL, filters by the included keywords, and returns the
// deduplicated, sorted list.
func (g *Generator) Run(seedURL string, included []string) ([]string, error) {
	found := make(map[string]struct{})

	g.collector.OnHTML("select#abflughafen option", func(e *colly.HTMLElement) {
		value := strings.TrimSpace(e.Attr("value"))
		if value == "" || !strings.Contains(value, "parken-flughafen") {
			return
		}
		if !matchesAny(value, included) {
			return
		}
		found[value] = struct{}{}
	})

	if err := g.collector.Visit(seedURL); err != nil {
		return nil, fmt.Errorf("visit seed page: %w", err)
	}
	g.collector.Wait()

	urls := make([]string, 0, len(found))
	for u := range found {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls, nil
}

// Generate rebuilds the target list file from the seed page when the backlog
// is missing or empty.
func Generate(seedURL, includedPath, outPath string) (int, error) {
	included, err := LoadIncluded(includedPath)
	if err != nil {
		return 0, err
	}
	if len(included) == 0 {
		return 0, fmt.Errorf("no airports to include, check %s", includedPath)
	}

	urls, err := NewGenerator().Run(seedURL, included)
	if err != nil {
		return 0, err
	}
	if err := Save(outPath, urls); err != nil {
		return 0, err
	}
	slog.Info("target list generated", slog.Int("targets", len(urls)), slog.String("path", outPath))
	return len(urls), nil
}

func matchesAny(url string, keywords []string) bool {
	lower := strings.ToLower(url)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
