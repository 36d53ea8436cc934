package crawler

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aluiziolira/go-crawl-parking/models"
)

// SnapshotStore persists captured pages for completed units. Files for one
// unit are written before the unit's ledger entry; a failure here leaves the
// unit pending and a future run overwrites any partial files.
type SnapshotStore struct {
	dir string
}

// NewSnapshotStore returns a store rooted at dir.
func NewSnapshotStore(dir string) *SnapshotStore {
	return &SnapshotStore{dir: dir}
}

// SaveUnit writes every captured page of one unit using the deterministic
// filename scheme. Any write failure aborts the unit.
func (s *SnapshotStore) SaveUnit(targetName string, r models.DateRange, snaps []models.Snapshot) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	for _, snap := range snaps {
		path := filepath.Join(s.dir, models.SnapshotFilename(targetName, r, snap.Page))
		if err := os.WriteFile(path, []byte(snap.HTML), 0o644); err != nil {
			return fmt.Errorf("save page %d: %w", snap.Page, err)
		}
	}
	return nil
}
