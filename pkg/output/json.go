package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/sdejongh/drivesync/pkg/models"
)

// JSONFormatter formats output as JSON for automation and scripting
type JSONFormatter struct{}

// JSONReportData represents the final report data
type JSONReportData struct {
	OperationID string               `json:"operation_id"`
	Root        string               `json:"root"`
	Status      string               `json:"status"`
	ExitCode    int                  `json:"exit_code"`
	StartTime   string               `json:"start_time"`
	Duration    string               `json:"duration"`
	DurationMs  int64                `json:"duration_ms"`
	Stats       models.Statistics    `json:"stats"`
	Entries     []models.Entry       `json:"entries"`
	Problems    []models.Problem     `json:"problems"`
	Errors      []models.ReportError `json:"errors,omitempty"`
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Complete writes the report as a single indented JSON document
func (f *JSONFormatter) Complete(w io.Writer, report *models.Report) error {
	data := JSONReportData{
		OperationID: report.OperationID,
		Root:        report.Root,
		Status:      string(report.Status),
		ExitCode:    report.Status.ExitCode(),
		StartTime:   report.StartTime.Format(time.RFC3339),
		Duration:    report.Duration.Round(time.Millisecond).String(),
		DurationMs:  report.Duration.Milliseconds(),
		Stats:       report.Stats,
		Entries:     report.Entries,
		Problems:    report.Problems,
		Errors:      report.Errors,
	}
	if data.Entries == nil {
		data.Entries = []models.Entry{}
	}
	if data.Problems == nil {
		data.Problems = []models.Problem{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Error writes the error as a JSON object
func (f *JSONFormatter) Error(w io.Writer, err error) error {
	return json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}
