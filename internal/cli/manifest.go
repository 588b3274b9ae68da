package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sdejongh/drivesync/pkg/manifest"
)

// NewManifestCommand creates the manifest command
func NewManifestCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Work with client manifests",
	}

	cmd.AddCommand(newManifestGenerateCommand())
	cmd.AddCommand(newManifestValidateCommand())

	return cmd
}

func newManifestGenerateCommand() *cobra.Command {
	f := &runFlags{}
	var outputPath, client string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Describe a local directory tree as a client manifest",
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

			records, err := s.engine().Records(ctx)
			if err != nil {
				return err
			}

			m := &manifest.Manifest{Client: client, Directories: records}
			if err := m.Save(outputPath); err != nil {
				return err
			}

			if !s.cfg.Output.Quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Manifest written to %s: %d directories\n", outputPath, len(records))
			}
			return nil
		},
	}

	addRunFlags(cmd, f)
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "manifest file to write (required)")
	cmd.MarkFlagRequired("output")
	cmd.Flags().StringVar(&client, "client-name", "", "client name stored in the manifest")

	return cmd
}

func newManifestValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a client manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.Load(args[0])
			if err != nil {
				return err
			}
			files := 0
			for _, d := range m.Directories {
				files += len(d.Files)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid, %d directories, %d files\n", args[0], len(m.Directories), files)
			return nil
		},
	}
}
