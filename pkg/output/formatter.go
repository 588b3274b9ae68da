// Package output renders reconciliation reports and scan progress.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/sdejongh/drivesync/pkg/models"
)

// Formatter defines the interface for report rendering
// Implementations include human-readable and JSON formatters
type Formatter interface {
	// Complete renders the final report
	Complete(w io.Writer, report *models.Report) error

	// Error renders a fatal error
	Error(w io.Writer, err error) error

	// Name returns the formatter name
	Name() string
}

// NewFormatter returns the formatter registered under name
func NewFormatter(name string) (Formatter, error) {
	switch name {
	case "human", "":
		return NewHumanFormatter(), nil
	case "json":
		return NewJSONFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", name)
	}
}

// WriteReport writes the report to a file in the given format
func WriteReport(report *models.Report, path string, format string) error {
	formatter, err := NewFormatter(format)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	if err := formatter.Complete(file, report); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}
