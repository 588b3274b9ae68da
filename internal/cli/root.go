package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the drivesync command tree
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "drivesync",
		Short: "Three-way reconciliation of client and server file trees",
		Long: `drivesync computes what changed on a client and on a server since the
last synchronization, directory by directory and file by file. It detects
conflicting edits and keys that collide by case or Unicode normalization.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	AddGlobalFlags(rootCmd)

	rootCmd.AddCommand(NewDiffCommand())
	rootCmd.AddCommand(NewSnapshotCommand())
	rootCmd.AddCommand(NewManifestCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}
