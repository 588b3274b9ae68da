package config

import (
	"github.com/sdejongh/drivesync/pkg/models"
	"github.com/sdejongh/drivesync/pkg/ratelimit"
)

// Config represents the application configuration
type Config struct {
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Checksum ChecksumConfig `yaml:"checksum"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
	Exclude  []string       `yaml:"exclude"`
}

// SnapshotConfig selects where original versions are stored
type SnapshotConfig struct {
	Backend models.SnapshotBackend `yaml:"backend"`
	Path    string                 `yaml:"path"` // empty = derived from the root
}

// ChecksumConfig holds hashing settings
type ChecksumConfig struct {
	Workers    int `yaml:"workers"`
	BufferSize int    `yaml:"buffer_size"`
	Bandwidth  string `yaml:"bandwidth"` // e.g. "10M", empty = unlimited
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Format   string `yaml:"format"`   // "human" or "json"
	Progress bool   `yaml:"progress"` // Show progress bars on terminals
	Quiet    bool   `yaml:"quiet"`    // Suppress non-error output
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Format  string `yaml:"format"` // "json" or "text"
	Level   string `yaml:"level"`  // "debug", "info", "warn", "error"
	File    string `yaml:"file"`   // Log file path (empty = stderr)
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Snapshot: SnapshotConfig{
			Backend: models.SnapshotJSON,
		},
		Checksum: ChecksumConfig{
			Workers:    5,
			BufferSize: 65536,
		},
		Output: OutputConfig{
			Format:   "human",
			Progress: true,
			Quiet:    false,
		},
		Logging: LoggingConfig{
			Enabled: false,
			Format:  "text",
			Level:   "info",
			File:    "",
		},
		Exclude: []string{
			"*.tmp",
			".git/",
			".DS_Store",
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Snapshot.Backend {
	case models.SnapshotJSON, models.SnapshotSQLite:
	default:
		return &models.ValidationError{
			Field:   "snapshot.backend",
			Message: "must be 'json' or 'sqlite'",
		}
	}

	if c.Checksum.Workers < 1 {
		return &models.ValidationError{
			Field:   "checksum.workers",
			Message: "must be at least 1",
		}
	}

	if c.Checksum.BufferSize < 1024 {
		return &models.ValidationError{
			Field:   "checksum.buffer_size",
			Message: "must be at least 1024 bytes",
		}
	}

	if _, err := ratelimit.ParseBandwidth(c.Checksum.Bandwidth); err != nil {
		return &models.ValidationError{
			Field:   "checksum.bandwidth",
			Message: "must be a size such as '512K', '10M' or '1G'",
		}
	}

	validFormats := map[string]bool{"human": true, "json": true}
	if !validFormats[c.Output.Format] {
		return &models.ValidationError{
			Field:   "output.format",
			Message: "must be 'human' or 'json'",
		}
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return &models.ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'text'",
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return &models.ValidationError{
			Field:   "logging.level",
			Message: "must be 'debug', 'info', 'warn', or 'error'",
		}
	}

	return nil
}
