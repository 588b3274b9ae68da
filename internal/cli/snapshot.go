package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewSnapshotCommand creates the snapshot command
func NewSnapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage the recorded original state",
		Long: `The snapshot holds the directory and file checksums of the server tree as
they were after the last synchronization. diff compares against it.`,
	}

	cmd.AddCommand(newSnapshotRecordCommand())
	cmd.AddCommand(newSnapshotShowCommand())

	return cmd
}

func newSnapshotRecordCommand() *cobra.Command {
	f := &runFlags{}

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record the current server tree as the new snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			s, err := newSession(cmd, f, "")
			if err != nil {
				return err
			}
			defer s.Close()

			snap, err := s.engine().Record(ctx)
			if err != nil {
				return err
			}

			if !s.cfg.Output.Quiet {
				files := 0
				for _, d := range snap.Directories {
					files += len(d.Files)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Snapshot recorded at %s: %d directories, %d files\n",
					s.operation.SnapshotPath, len(snap.Directories), files)
			}
			return nil
		},
	}

	addRunFlags(cmd, f)
	return cmd
}

func newSnapshotShowCommand() *cobra.Command {
	f := &runFlags{}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the recorded snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			s, err := newSession(cmd, f, "")
			if err != nil {
				return err
			}
			defer s.Close()

			snap, err := s.snapshots.Load(ctx)
			if err != nil {
				return fmt.Errorf("failed to load snapshot: %w", err)
			}

			w := cmd.OutOrStdout()
			if snap.IsEmpty() {
				fmt.Fprintf(w, "No snapshot recorded at %s\n", s.operation.SnapshotPath)
				return nil
			}

			fmt.Fprintf(w, "Snapshot: %s\n", s.operation.SnapshotPath)
			fmt.Fprintf(w, "Root:     %s\n", snap.Root)
			fmt.Fprintf(w, "Recorded: %s\n", snap.RecordedAt.Format(time.RFC3339))
			fmt.Fprintf(w, "\n")
			for _, d := range snap.Directories {
				fmt.Fprintf(w, "%s  %s (%d files)\n", d.Checksum, d.Path, len(d.Files))
			}
			return nil
		},
	}

	addRunFlags(cmd, f)
	return cmd
}
