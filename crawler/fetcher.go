package crawler

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aluiziolira/go-crawl-parking/browser"
	"github.com/aluiziolira/go-crawl-parking/config"
	"github.com/aluiziolira/go-crawl-parking/models"
)

// Locators on the parking comparison site. The search results render
// client-side, so date injection goes straight into the input elements and
// pagination follows the "Next" control until it disappears or is disabled.
const (
	startDateField = "startDay_input"
	endDateField   = "endDay_input"
	searchButton   = `//span[text()="Search"]/..`
	nextButton     = `//div[@class="pag_text" and not(contains(@class, "disabled")) and text()="Next"]`
	cookieButton   = "#CybotCookiebotDialogBodyLevelButtonLevelOptinAllowAll"
	popupClose     = `button[aria-label="Close"]`
)

// pause between scrolling the Next control into view and activating it; the
// results list re-renders while scrolling settles.
const nextClickPause = 2 * time.Second

// Fetcher drives the renderer through one unit's paged result set.
type Fetcher struct {
	renderer browser.Renderer
	cfg      *config.Config

	// injectable for tests
	sleep func(time.Duration)
	now   func() time.Time
}

// NewFetcher wraps a renderer session.
func NewFetcher(r browser.Renderer, cfg *config.Config) *Fetcher {
	return &Fetcher{
		renderer: r,
		cfg:      cfg,
		sleep:    time.Sleep,
		now:      time.Now,
	}
}

// InitSession accepts the consent dialog and dismisses the interstitial popup
// once at the start of a run. Both steps are best-effort: their absence is the
// common case, not a failure.
func (f *Fetcher) InitSession() {
	if el, err := f.renderer.WaitForClickable(cookieButton, f.cfg.ConsentWait); err == nil {
		if err := f.renderer.Click(el); err != nil {
			slog.Debug("cookie consent click failed", slog.Any("error", err))
		} else {
			slog.Info("cookie consent accepted")
		}
	} else {
		slog.Debug("no cookie prompt")
	}

	if el, ok := f.renderer.FindElement(popupClose); ok {
		if err := f.renderer.Click(el); err != nil {
			slog.Debug("popup close failed", slog.Any("error", err))
		} else {
			slog.Info("interstitial popup closed")
		}
	} else {
		slog.Debug("no interstitial popup")
	}
}

// Fetch captures the full paged result set for one unit. An empty slice means
// the unit produced nothing and stays pending; the unit will be retried from
// scratch on a future run. Pages already captured are discarded on a
// mid-pagination failure so a unit is only ever persisted whole.
func (f *Fetcher) Fetch(unit models.WorkUnit) ([]models.Snapshot, string) {
	url := unit.TargetURL

	if err := f.renderer.Navigate(url); err != nil {
		slog.Error("navigation failed", slog.String("url", url), slog.Any("error", err))
		f.captureDiagnostic()
		return nil, url
	}
	slog.Debug("page loaded", slog.String("url", url))

	if err := f.renderer.SetFieldValue(startDateField, unit.Range.FromDisplay()); err != nil {
		slog.Error("set start date failed", slog.Any("error", err))
		f.captureDiagnostic()
		return nil, url
	}
	if err := f.renderer.SetFieldValue(endDateField, unit.Range.ToDisplay()); err != nil {
		slog.Error("set end date failed", slog.Any("error", err))
		f.captureDiagnostic()
		return nil, url
	}
	slog.Debug("dates set",
		slog.String("from", unit.Range.FromDisplay()),
		slog.String("to", unit.Range.ToDisplay()),
	)

	search, err := f.renderer.WaitForClickable(searchButton, f.cfg.ElementWait)
	if err != nil {
		slog.Warn("search control not found, skipping unit",
			slog.String("unit", unit.Key()),
			slog.Any("error", err),
		)
		return nil, url
	}
	if err := f.renderer.Click(search); err != nil {
		slog.Warn("search click failed, skipping unit",
			slog.String("unit", unit.Key()),
			slog.Any("error", err),
		)
		return nil, url
	}

	var pages []models.Snapshot
	for page := 1; ; page++ {
		f.sleep(f.cfg.SettleWait)

		html, err := f.renderer.PageContent()
		if err != nil {
			slog.Error("page capture failed mid-pagination",
				slog.String("unit", unit.Key()),
				slog.Int("page", page),
				slog.Any("error", err),
			)
			f.captureDiagnostic()
			return nil, url
		}
		pages = append(pages, models.Snapshot{Page: page, HTML: html})
		slog.Debug("page collected", slog.Int("page", page))

		// Hard cap guards against the site's disabled-state detection
		// breaking and looping forever.
		if page >= f.cfg.MaxPages {
			slog.Warn("pagination cap reached", slog.String("unit", unit.Key()), slog.Int("pages", page))
			break
		}

		next, ok := f.renderer.FindElement(nextButton)
		if !ok {
			slog.Debug("no next control, ending pagination", slog.Int("pages", page))
			break
		}
		f.sleep(nextClickPause)
		if err := f.renderer.Click(next); err != nil {
			slog.Debug("next click failed, ending pagination", slog.Any("error", err))
			break
		}
	}

	return pages, url
}

func (f *Fetcher) captureDiagnostic() {
	path := filepath.Join(f.cfg.ScreenshotDir, fmt.Sprintf("error_%d.png", f.now().Unix()))
	if err := f.renderer.Screenshot(path); err != nil {
		slog.Error("diagnostic screenshot failed", slog.Any("error", err))
		return
	}
	slog.Info("diagnostic screenshot saved", slog.String("path", path))
}
