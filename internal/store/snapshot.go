package store

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sales-dashboard/internal/models"
)

const snapshotVersion = "v1"

type snapshot struct {
	Source  string
	SavedAt time.Time
	Rows    []models.SalesRecord
}

// Snapshots caches parsed seed files on disk as gob, keyed by source path.
type Snapshots struct {
	dir string
}

func NewSnapshots(dir string) *Snapshots {
	return &Snapshots{dir: dir}
}

func (s *Snapshots) filename(source string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(source)
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.gob", name, snapshotVersion))
}

// Load returns the cached rows for source when the snapshot is newer than
// the source file.
func (s *Snapshots) Load(source string) ([]*models.SalesRecord, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(s.filename(source))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var snap snapshot
	if err := gob.NewDecoder(file).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Source != source || !info.ModTime().Before(snap.SavedAt) {
		return nil, fmt.Errorf("snapshot for %s is stale", source)
	}

	rows := make([]*models.SalesRecord, len(snap.Rows))
	for i := range snap.Rows {
		rows[i] = &snap.Rows[i]
	}
	return rows, nil
}

// Save writes the snapshot to a temporary file and renames it into place, so
// a failed write never leaves a truncated snapshot behind.
func (s *Snapshots) Save(source string, rows []*models.SalesRecord) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}

	snap := snapshot{
		Source:  source,
		SavedAt: time.Now(),
		Rows:    make([]models.SalesRecord, 0, len(rows)),
	}
	for _, row := range rows {
		if row != nil {
			snap.Rows = append(snap.Rows, *row)
		}
	}

	file, err := os.CreateTemp(s.dir, ".snapshot-*.tmp")
	if err != nil {
		return err
	}
	tmp := file.Name()

	if err := gob.NewEncoder(file).Encode(&snap); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.filename(source)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
