package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sdejongh/drivesync/pkg/output"
)

type diffFlags struct {
	runFlags
	Client       string
	Output       string
	Report       string
	ReportFormat string
}

// NewDiffCommand creates the diff command
func NewDiffCommand() *cobra.Command {
	f := &diffFlags{}

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare client and server state against the last snapshot",
		Long: `Compute, per directory and file, what changed on the client and on the
server since the last recorded snapshot. Nothing is modified.

Exit codes: 0 in sync, 1 changes found, 2 partial (some directories could
not be compared), 3 failure.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, f)
		},
	}

	addRunFlags(cmd, &f.runFlags)
	cmd.Flags().StringVarP(&f.Client, "client", "c", "", "client manifest (YAML or JSON); omit when the client reports nothing")
	cmd.Flags().StringVarP(&f.Output, "output", "o", "", "output format: human, json")
	cmd.Flags().StringVar(&f.Report, "report", "", "also write the report to file")
	cmd.Flags().StringVar(&f.ReportFormat, "report-format", "json", "report file format: human, json")

	return cmd
}

func runDiff(cmd *cobra.Command, f *diffFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := newSession(cmd, &f.runFlags, f.Client)
	if err != nil {
		return err
	}
	defer s.Close()

	format := s.cfg.Output.Format
	if f.Output != "" {
		format = f.Output
	}
	formatter, err := output.NewFormatter(format)
	if err != nil {
		return err
	}

	report, runErr := s.engine().Run(ctx)

	if f.Report != "" {
		if err := output.WriteReport(report, f.Report, f.ReportFormat); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	if runErr != nil {
		runErr = fmt.Errorf("reconciliation failed: %w", runErr)
		if formatter.Name() == "json" {
			formatter.Error(cmd.OutOrStdout(), runErr)
		}
		return &ExitError{Code: report.Status.ExitCode(), Err: runErr}
	}

	if !s.cfg.Output.Quiet || formatter.Name() == "json" {
		if err := formatter.Complete(cmd.OutOrStdout(), report); err != nil {
			return err
		}
	}

	if code := report.Status.ExitCode(); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}
