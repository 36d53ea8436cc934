// Package browser defines the rendering session the crawler drives and its
// Chrome-backed implementation.
package browser

import "time"

// Element is an opaque handle to a located page element.
type Element interface{}

// Renderer is the capability surface the crawler needs from a rendering
// session. The session is a serially-owned, stateful resource: exactly one
// goroutine drives it, and implementations are not required to be safe for
// concurrent use.
//
// Selectors starting with "/" are XPath expressions, anything else is CSS.
type Renderer interface {
	Navigate(url string) error
	SetFieldValue(fieldID, value string) error
	WaitForClickable(selector string, timeout time.Duration) (Element, error)
	Click(el Element) error
	PageContent() (string, error)
	FindElement(selector string) (Element, bool)
	Screenshot(path string) error
	Quit() error
}
