package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Session is a Renderer backed by a locally launched Chrome via go-rod. One
// page is reused for the whole run; navigation replaces its content.
type Session struct {
	browser *rod.Browser
	page    *rod.Page
}

// NewSession launches Chrome and opens the single page the run will use.
func NewSession(headless bool) (*Session, error) {
	l := launcher.New().
		Headless(headless).
		Set("disable-gpu").
		Set("no-sandbox").
		Set("disable-dev-shm-usage").
		Set("window-size", "1920,1080").
		Set("disable-blink-features", "AutomationControlled")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}

	return &Session{browser: b, page: page}, nil
}

// Navigate loads a URL and waits for the load event.
func (s *Session) Navigate(url string) error {
	if err := s.page.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := s.page.WaitLoad(); err != nil {
		return fmt.Errorf("wait load %s: %w", url, err)
	}
	return nil
}

// SetFieldValue writes directly into an input element by id, bypassing any
// date-picker widget attached to it.
func (s *Session) SetFieldValue(fieldID, value string) error {
	js := `(id, value) => { document.getElementById(id).value = value }`
	if _, err := s.page.Eval(js, fieldID, value); err != nil {
		return fmt.Errorf("set field %s: %w", fieldID, err)
	}
	return nil
}

// WaitForClickable locates an element and waits until it is visible and
// enabled, bounded by timeout.
func (s *Session) WaitForClickable(selector string, timeout time.Duration) (Element, error) {
	el, err := s.find(s.page.Timeout(timeout), selector)
	if err != nil {
		return nil, fmt.Errorf("locate %q: %w", selector, err)
	}
	if err := el.WaitVisible(); err != nil {
		return nil, fmt.Errorf("wait visible %q: %w", selector, err)
	}
	if err := el.WaitEnabled(); err != nil {
		return nil, fmt.Errorf("wait enabled %q: %w", selector, err)
	}
	return el, nil
}

// Click scrolls the element into view and activates it.
func (s *Session) Click(el Element) error {
	target, ok := el.(*rod.Element)
	if !ok {
		return fmt.Errorf("click: element is not a rod element")
	}
	if err := target.ScrollIntoView(); err != nil {
		return fmt.Errorf("scroll into view: %w", err)
	}
	if err := target.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click: %w", err)
	}
	return nil
}

// PageContent returns the full rendered HTML of the current page.
func (s *Session) PageContent() (string, error) {
	html, err := s.page.HTML()
	if err != nil {
		return "", fmt.Errorf("page content: %w", err)
	}
	return html, nil
}

// FindElement does a single immediate lookup without waiting.
func (s *Session) FindElement(selector string) (Element, bool) {
	el, err := s.find(s.page.Timeout(time.Second), selector)
	if err != nil {
		return nil, false
	}
	return el, true
}

// Screenshot captures the viewport into path, creating parent directories.
func (s *Session) Screenshot(path string) error {
	data, err := s.page.Screenshot(false, nil)
	if err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("screenshot dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	return nil
}

// Quit closes the browser and releases the underlying Chrome process.
func (s *Session) Quit() error {
	return s.browser.Close()
}

func (s *Session) find(page *rod.Page, selector string) (*rod.Element, error) {
	if strings.HasPrefix(selector, "/") {
		return page.ElementX(selector)
	}
	return page.Element(selector)
}
