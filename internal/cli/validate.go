package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/sdejongh/drivesync/pkg/config"
	"github.com/sdejongh/drivesync/pkg/logging"
	"github.com/sdejongh/drivesync/pkg/models"
	"github.com/sdejongh/drivesync/pkg/ratelimit"
	"github.com/sdejongh/drivesync/pkg/snapshot"
)

// ExitError ends the program with a specific exit code. Err, when set, is
// reported before exiting.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// validateRoot checks that the server root is an existing directory
func validateRoot(root string) (string, error) {
	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("root path does not exist: %s", root)
	}
	if err != nil {
		return "", fmt.Errorf("failed to access root path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("root path is not a directory: %s", root)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve root path: %w", err)
	}
	return abs, nil
}

// loadConfig loads configuration from file or returns default, then applies
// environment overrides
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if globalFlags.ConfigFile != "" {
		cfg, err = config.LoadFromFile(globalFlags.ConfigFile)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}

	var envFiles []string
	if globalFlags.EnvFile != "" {
		if _, err := os.Stat(globalFlags.EnvFile); err != nil {
			return nil, fmt.Errorf("failed to read env file: %w", err)
		}
		envFiles = append(envFiles, globalFlags.EnvFile)
	}
	if err := config.LoadDotEnv(envFiles...); err != nil {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlagsToConfig overrides config values with command-line flags
func applyFlagsToConfig(cfg *config.Config, f *runFlags) {
	if f.Snapshot != "" {
		cfg.Snapshot.Path = f.Snapshot
	}
	if f.Backend != "" {
		cfg.Snapshot.Backend = models.SnapshotBackend(f.Backend)
	}
	if f.Parallel > 0 {
		cfg.Checksum.Workers = f.Parallel
	}
	if f.Bandwidth != "" {
		cfg.Checksum.Bandwidth = f.Bandwidth
	}
	if len(f.Exclude) > 0 {
		cfg.Exclude = f.Exclude
	}

	if f.LogFile != "" {
		cfg.Logging.Enabled = true
		cfg.Logging.File = f.LogFile
	}
	if f.LogFormat != "" {
		cfg.Logging.Format = f.LogFormat
	}
	if f.LogLevel != "" {
		cfg.Logging.Level = f.LogLevel
	}

	if globalFlags.Quiet {
		cfg.Output.Progress = false
		cfg.Output.Quiet = true
	}
	if globalFlags.Verbose {
		cfg.Logging.Enabled = true
		cfg.Logging.Level = "debug"
	}
}

// createOperation builds and validates the operation for a run
func createOperation(cfg *config.Config, root, clientManifest string) (*models.Operation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	snapshotPath := cfg.Snapshot.Path
	if snapshotPath == "" {
		var err error
		if snapshotPath, err = config.DefaultSnapshotPath(root, cfg.Snapshot.Backend); err != nil {
			return nil, err
		}
	}

	bandwidth, err := ratelimit.ParseBandwidth(cfg.Checksum.Bandwidth)
	if err != nil {
		return nil, err
	}

	operation := &models.Operation{
		ID:              uuid.New().String(),
		Root:            root,
		ClientManifest:  clientManifest,
		SnapshotPath:    snapshotPath,
		SnapshotBackend: cfg.Snapshot.Backend,
		ExcludePatterns: cfg.Exclude,
		MaxWorkers:      cfg.Checksum.Workers,
		BufferSize:      cfg.Checksum.BufferSize,
		BandwidthLimit:  bandwidth,
		CreatedAt:       time.Now(),
	}

	if err := operation.Validate(); err != nil {
		return nil, err
	}
	return operation, nil
}

// createLogger creates a logger based on configuration. Without a log file
// enabled logging goes to stderr.
func createLogger(cfg config.LoggingConfig, stderr io.Writer) (logging.Logger, error) {
	if !cfg.Enabled {
		return logging.NewNullLogger(), nil
	}

	format := logging.FormatText
	if cfg.Format == "json" {
		format = logging.FormatJSON
	}
	level := logging.ParseLevel(cfg.Level)

	if cfg.File == "" {
		return logging.NewStreamLogger(stderr, format, level), nil
	}

	return logging.NewFileLogger(logging.FileLoggerConfig{
		Path:       cfg.File,
		Format:     format,
		Level:      level,
		MaxSize:    10, // MB
		MaxBackups: 5,
	})
}

// openSnapshots opens the snapshot store of an operation
func openSnapshots(op *models.Operation, logger logging.Logger) (snapshot.Store, error) {
	store, err := snapshot.Open(op.SnapshotBackend, op.SnapshotPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}
	return store, nil
}
