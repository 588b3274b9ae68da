package models

import (
	"time"
)

// SnapshotBackend selects where original versions are persisted
type SnapshotBackend string

const (
	// SnapshotJSON stores the snapshot in a JSON file
	SnapshotJSON SnapshotBackend = "json"
	// SnapshotSQLite stores the snapshot in an SQLite database
	SnapshotSQLite SnapshotBackend = "sqlite"
)

// Operation describes a single reconciliation run
type Operation struct {
	ID              string
	Root            string // server-side directory tree
	ClientManifest  string // path of the client manifest, empty = client reports nothing
	SnapshotPath    string
	SnapshotBackend SnapshotBackend
	ExcludePatterns []string
	MaxWorkers      int
	BufferSize      int
	BandwidthLimit  int64 // bytes per second read while hashing, 0 = unlimited
	CreatedAt       time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
}

// Validate checks if the operation configuration is valid
func (op *Operation) Validate() error {
	if op.Root == "" {
		return &ValidationError{Field: "Root", Message: "server root is required"}
	}
	if op.SnapshotPath == "" {
		return &ValidationError{Field: "SnapshotPath", Message: "snapshot path is required"}
	}
	switch op.SnapshotBackend {
	case SnapshotJSON, SnapshotSQLite:
	default:
		return &ValidationError{Field: "SnapshotBackend", Message: "must be 'json' or 'sqlite'"}
	}
	if op.MaxWorkers < 1 {
		return &ValidationError{Field: "MaxWorkers", Message: "max workers must be at least 1"}
	}
	if op.BufferSize < 1024 {
		return &ValidationError{Field: "BufferSize", Message: "buffer size must be at least 1024 bytes"}
	}
	if op.BandwidthLimit < 0 {
		return &ValidationError{Field: "BandwidthLimit", Message: "bandwidth limit cannot be negative"}
	}
	return nil
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
