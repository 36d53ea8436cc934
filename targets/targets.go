// Package targets manages the persisted backlog of airport search pages.
//
// The list file is the sole source of truth for remaining crawl work: a target
// is removed only once every one of its date-range units has completed.
package targets

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Load reads the target list, one URL per line. A missing file yields an
// empty list.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open target list: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read target list: %w", err)
	}
	return urls, nil
}

// Save rewrites the target list wholesale.
func Save(path string, urls []string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create target list dir: %w", err)
		}
	}

	var b strings.Builder
	for _, u := range urls {
		b.WriteString(u)
		b.WriteString("\n")
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write target list: %w", err)
	}
	return nil
}

// Remove rewrites the list excluding one completed target.
func Remove(path, completed string) error {
	urls, err := Load(path)
	if err != nil {
		return err
	}
	remaining := urls[:0]
	for _, u := range urls {
		if u != completed {
			remaining = append(remaining, u)
		}
	}
	return Save(path, remaining)
}

// Empty reports whether the backlog is exhausted: list file missing or empty.
func Empty(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return true
	}
	return info.Size() == 0
}
