// Package ledger persists crawl progress as an append-only log of completed
// work-unit keys.
package ledger

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Ledger is the durable set of completed unit keys. The file is the source of
// truth: the in-memory set is rebuilt from it on every Open, so a crash
// between an append and anything else loses nothing.
type Ledger struct {
	path string
	keys map[string]struct{}
}

// Open loads the ledger at path. A missing file yields an empty ledger, not an
// error.
func Open(path string) (*Ledger, error) {
	l := &Ledger{path: path, keys: make(map[string]struct{})}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		l.keys[line] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	return l, nil
}

// Contains reports whether a unit key is already complete.
func (l *Ledger) Contains(key string) bool {
	_, ok := l.keys[key]
	return ok
}

// Append durably records a completed unit. The key joins the in-memory set
// only after the write succeeded: a failed append must leave the unit pending.
// Appending a key twice is harmless since membership is set-based.
func (l *Ledger) Append(key string) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger for append: %w", err)
	}
	if _, err := f.WriteString(key + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("append ledger entry: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync ledger: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close ledger: %w", err)
	}

	l.keys[key] = struct{}{}
	return nil
}

// Clear truncates the ledger file and empties the set. Only the finalize step
// calls this, and only once every target is exhausted.
func (l *Ledger) Clear() error {
	if err := os.Truncate(l.path, 0); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("truncate ledger: %w", err)
	}
	l.keys = make(map[string]struct{})
	return nil
}

// Len returns the number of completed units.
func (l *Ledger) Len() int { return len(l.keys) }
