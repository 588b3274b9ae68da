package cli

import (
	"github.com/spf13/cobra"
)

// GlobalFlags holds global flag values
type GlobalFlags struct {
	ConfigFile string
	EnvFile    string
	Verbose    bool
	Quiet      bool
}

var globalFlags GlobalFlags

// AddGlobalFlags adds global flags to the root command
func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(
		&globalFlags.ConfigFile,
		"config",
		"",
		"config file (default is $XDG_CONFIG_HOME/drivesync/config.yaml)",
	)
	cmd.PersistentFlags().StringVar(
		&globalFlags.EnvFile,
		"env-file",
		"",
		"read DRIVESYNC_* variables from this file (default is ./.env if present)",
	)
	cmd.PersistentFlags().BoolVarP(
		&globalFlags.Verbose,
		"verbose",
		"v",
		false,
		"log debug messages to stderr",
	)
	cmd.PersistentFlags().BoolVarP(
		&globalFlags.Quiet,
		"quiet",
		"q",
		false,
		"suppress non-error output",
	)
}

// GetGlobalFlags returns the global flags
func GetGlobalFlags() *GlobalFlags {
	return &globalFlags
}

// runFlags holds the flags shared by commands that scan a server tree
type runFlags struct {
	Root      string
	Snapshot  string
	Backend   string
	Parallel  int
	Bandwidth string
	Exclude   []string
	LogFile   string
	LogFormat string
	LogLevel  string
}

func addRunFlags(cmd *cobra.Command, f *runFlags) {
	cmd.Flags().StringVarP(&f.Root, "root", "r", "", "server directory tree (required)")
	cmd.MarkFlagRequired("root")

	cmd.Flags().StringVar(&f.Snapshot, "snapshot", "", "snapshot location (default derived from --root)")
	cmd.Flags().StringVar(&f.Backend, "backend", "", "snapshot backend: json, sqlite")
	cmd.Flags().IntVarP(&f.Parallel, "parallel", "p", 0, "number of parallel hashing workers (default: 5)")
	cmd.Flags().StringVarP(&f.Bandwidth, "bandwidth", "b", "", "read bandwidth limit while hashing (e.g., \"10M\", \"1G\")")
	cmd.Flags().StringSliceVar(&f.Exclude, "exclude", []string{}, "glob patterns to exclude")

	cmd.Flags().StringVar(&f.LogFile, "log-file", "", "write logs to file (enables logging)")
	cmd.Flags().StringVar(&f.LogFormat, "log-format", "", "log format: text, json")
	cmd.Flags().StringVar(&f.LogLevel, "log-level", "", "log level: debug, info, warn, error")
}
