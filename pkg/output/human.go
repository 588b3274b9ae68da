package output

import (
	"fmt"
	"io"
	"time"

	"github.com/sdejongh/drivesync/pkg/models"
)

// HumanFormatter formats output in human-readable format
type HumanFormatter struct{}

// NewHumanFormatter creates a new human-readable formatter
func NewHumanFormatter() *HumanFormatter {
	return &HumanFormatter{}
}

// Complete renders changed entries grouped per directory, then problems
// and a summary
func (f *HumanFormatter) Complete(w io.Writer, report *models.Report) error {
	fmt.Fprintf(w, "Reconciliation %s completed in %s\n", report.OperationID, report.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Root: %s\n", report.Root)

	if len(report.Entries) > 0 {
		fmt.Fprintf(w, "\nChanges:\n")
		for _, e := range report.Entries {
			indent := "  "
			if e.Kind == models.EntryFile {
				indent = "      "
			}
			marker := ""
			if e.Conflicting {
				marker = "  CONFLICT"
			}
			fmt.Fprintf(w, "%s%s %s  client: %s, server: %s%s\n",
				indent, changeSymbol(e.ClientChange, e.ServerChange), e.Key,
				e.ClientChange, e.ServerChange, marker)
		}
	}

	if len(report.Problems) > 0 {
		fmt.Fprintf(w, "\nProblems:\n")
		for _, p := range report.Problems {
			where := p.Directory
			if where == "" {
				where = "(directories)"
			}
			fmt.Fprintf(w, "  %-16s %-6s %s: %s\n", p.Kind, p.Side, where, p.Version)
		}
	}

	fmt.Fprintf(w, "\nSummary:\n")
	fmt.Fprintf(w, "  Directories compared: %d\n", report.Stats.DirectoriesCompared)
	fmt.Fprintf(w, "  Files compared:       %d\n", report.Stats.FilesCompared)
	fmt.Fprintf(w, "  Client changes:       %d\n", report.Stats.ClientChanges)
	fmt.Fprintf(w, "  Server changes:       %d\n", report.Stats.ServerChanges)
	fmt.Fprintf(w, "  Conflicts:            %d\n", report.Stats.Conflicts)
	fmt.Fprintf(w, "  Problems:             %d\n", report.Stats.Problems)

	if len(report.Errors) > 0 {
		fmt.Fprintf(w, "\nErrors:\n")
		for _, e := range report.Errors {
			fmt.Fprintf(w, "  %s: %s\n", e.Path, e.Error)
		}
	}

	fmt.Fprintf(w, "\nStatus: %s\n", report.Status)
	return nil
}

// changeSymbol summarizes both sides in two columns: + new, - deleted,
// ~ modified, . unchanged
func changeSymbol(client, server models.Change) string {
	symbol := func(c models.Change) string {
		switch c {
		case models.ChangeNew:
			return "+"
		case models.ChangeDeleted:
			return "-"
		case models.ChangeModified:
			return "~"
		default:
			return "."
		}
	}
	return symbol(client) + symbol(server)
}

// Error reports an error
func (f *HumanFormatter) Error(w io.Writer, err error) error {
	_, werr := fmt.Fprintf(w, "Error: %v\n", err)
	return werr
}

// Name returns the formatter name
func (f *HumanFormatter) Name() string {
	return "human"
}
