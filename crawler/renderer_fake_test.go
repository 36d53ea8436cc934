package crawler

import (
	"errors"
	"time"

	"github.com/aluiziolira/go-crawl-parking/browser"
)

type fakeElement string

// fakeRenderer scripts a result set of n pages: PageContent serves the page
// at the current index, the next control is present while pages remain, and
// clicking it advances the index. Navigate rewinds to page one.
type fakeRenderer struct {
	pages   []string
	current int

	navigations []string
	fields      map[string]string
	screenshots []string
	quitCalled  bool

	failNav      bool
	failSearch   bool
	contentErrOn int // 1-based page whose capture fails; 0 disables
}

func newFakeRenderer(pages ...string) *fakeRenderer {
	return &fakeRenderer{pages: pages, fields: make(map[string]string)}
}

func (f *fakeRenderer) Navigate(url string) error {
	f.navigations = append(f.navigations, url)
	f.current = 0
	if f.failNav {
		return errors.New("navigation refused")
	}
	return nil
}

func (f *fakeRenderer) SetFieldValue(fieldID, value string) error {
	f.fields[fieldID] = value
	return nil
}

func (f *fakeRenderer) WaitForClickable(selector string, _ time.Duration) (browser.Element, error) {
	if selector == searchButton && f.failSearch {
		return nil, errors.New("search control never became clickable")
	}
	if selector == cookieButton {
		return nil, errors.New("no cookie prompt")
	}
	return fakeElement(selector), nil
}

func (f *fakeRenderer) Click(el browser.Element) error {
	if el == fakeElement(nextButton) {
		f.current++
	}
	return nil
}

func (f *fakeRenderer) PageContent() (string, error) {
	page := f.current + 1
	if f.contentErrOn > 0 && page >= f.contentErrOn {
		return "", errors.New("renderer crashed")
	}
	if f.current >= len(f.pages) {
		return "", errors.New("no page loaded")
	}
	return f.pages[f.current], nil
}

func (f *fakeRenderer) FindElement(selector string) (browser.Element, bool) {
	if selector == nextButton && f.current+1 < len(f.pages) {
		return fakeElement(nextButton), true
	}
	return nil, false
}

func (f *fakeRenderer) Screenshot(path string) error {
	f.screenshots = append(f.screenshots, path)
	return nil
}

func (f *fakeRenderer) Quit() error {
	f.quitCalled = true
	return nil
}
