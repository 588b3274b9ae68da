package models

import (
	"time"
)

// EntryKind tells whether a report entry is about a file or a directory
type EntryKind string

const (
	EntryFile      EntryKind = "file"
	EntryDirectory EntryKind = "directory"
)

// Entry is the outcome of one three-way comparison
type Entry struct {
	Kind         EntryKind `json:"kind"`
	Directory    string    `json:"directory,omitempty"` // parent directory of a file entry
	Key          string    `json:"key"`
	Original     string    `json:"original,omitempty"`
	Client       string    `json:"client,omitempty"`
	Server       string    `json:"server,omitempty"`
	ClientChange Change    `json:"client_change"`
	ServerChange Change    `json:"server_change"`
	Conflicting  bool      `json:"conflicting"`
}

// Report represents the results of a reconciliation run
type Report struct {
	// Operation details
	OperationID string `json:"operation_id"`
	Root        string `json:"root"`

	// Timing
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`

	Stats Statistics `json:"stats"`

	// Entries holds directory and file comparisons that carry a change,
	// in key order with each directory followed by its files
	Entries []Entry `json:"entries"`

	// Problems lists versions left out of the mapping
	Problems []Problem `json:"problems"`

	// Errors encountered
	Errors []ReportError `json:"errors,omitempty"`

	Status Status `json:"status"`
}

// Statistics holds reconciliation metrics
type Statistics struct {
	DirectoriesCompared int `json:"directories_compared"`
	FilesCompared       int `json:"files_compared"`
	ClientChanges       int `json:"client_changes"`
	ServerChanges       int `json:"server_changes"`
	Conflicts           int `json:"conflicts"`
	Problems            int `json:"problems"`
}

// Status represents the overall result
type Status string

const (
	// StatusInSync indicates client, server and original agree
	StatusInSync Status = "in-sync"
	// StatusChanged indicates changes were found
	StatusChanged Status = "changed"
	// StatusPartial indicates some directories could not be compared
	StatusPartial Status = "partial"
	// StatusFailed indicates the run failed
	StatusFailed Status = "failed"
)

// ReportError represents an error affecting part of a run
type ReportError struct {
	Path      string    `json:"path"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// ExitCode returns the appropriate exit code for the status
func (s Status) ExitCode() int {
	switch s {
	case StatusInSync:
		return 0
	case StatusChanged:
		return 1
	case StatusPartial:
		return 2
	default:
		return 3
	}
}
