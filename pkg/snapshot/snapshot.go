// Package snapshot persists the original versions: the state of the tree
// as it was after the last completed synchronization.
package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/sdejongh/drivesync/pkg/logging"
	"github.com/sdejongh/drivesync/pkg/models"
)

// FormatVersion is the snapshot format written by this version
const FormatVersion = 1

// Snapshot is a recorded set of directory versions with their files
type Snapshot struct {
	Version     int                      `json:"version"`
	Root        string                   `json:"root"`
	RecordedAt  time.Time                `json:"recorded_at"`
	Directories []models.DirectoryRecord `json:"directories"`
}

// New creates an empty snapshot
func New(root string) *Snapshot {
	return &Snapshot{Version: FormatVersion, Root: root}
}

// IsEmpty returns true if nothing was ever recorded
func (s *Snapshot) IsEmpty() bool {
	return s.RecordedAt.IsZero() && len(s.Directories) == 0
}

// DirectoryVersions returns the recorded directory versions in order
func (s *Snapshot) DirectoryVersions() []models.DirectoryVersion {
	versions := make([]models.DirectoryVersion, 0, len(s.Directories))
	for _, d := range s.Directories {
		versions = append(versions, d.Version())
	}
	return versions
}

// Directory returns the record stored under exactly this path
func (s *Snapshot) Directory(path string) (models.DirectoryRecord, bool) {
	for _, d := range s.Directories {
		if d.Path == path {
			return d, true
		}
	}
	return models.DirectoryRecord{}, false
}

// Store loads and saves snapshots
type Store interface {
	// Load returns the stored snapshot, or an empty one if none was saved
	Load(ctx context.Context) (*Snapshot, error)

	// Save replaces the stored snapshot
	Save(ctx context.Context, s *Snapshot) error

	// Close releases the store
	Close() error
}

// Open opens the store for the given backend
func Open(backend models.SnapshotBackend, path string, logger logging.Logger) (Store, error) {
	switch backend {
	case models.SnapshotJSON:
		return NewFileStore(path), nil
	case models.SnapshotSQLite:
		return NewSQLStore(path, logger)
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", backend)
	}
}
