package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/sdejongh/drivesync/pkg/models"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "DRIVESYNC_"

// LoadDotEnv loads variables from .env files into the environment without
// overriding variables that are already set. Missing files are ignored.
// With no arguments ".env" in the working directory is read.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ApplyEnv overrides settings from DRIVESYNC_* environment variables
func (c *Config) ApplyEnv() error {
	if v, ok := lookup("SNAPSHOT_BACKEND"); ok {
		c.Snapshot.Backend = models.SnapshotBackend(v)
	}
	if v, ok := lookup("SNAPSHOT_PATH"); ok {
		c.Snapshot.Path = v
	}
	if err := envInt("WORKERS", &c.Checksum.Workers); err != nil {
		return err
	}
	if err := envInt("BUFFER_SIZE", &c.Checksum.BufferSize); err != nil {
		return err
	}
	if v, ok := lookup("BANDWIDTH"); ok {
		c.Checksum.Bandwidth = v
	}
	if v, ok := lookup("OUTPUT_FORMAT"); ok {
		c.Output.Format = v
	}
	if err := envBool("PROGRESS", &c.Output.Progress); err != nil {
		return err
	}
	if err := envBool("LOG_ENABLED", &c.Logging.Enabled); err != nil {
		return err
	}
	if v, ok := lookup("LOG_FORMAT"); ok {
		c.Logging.Format = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		c.Logging.Level = strings.ToLower(v)
	}
	if v, ok := lookup("LOG_FILE"); ok {
		c.Logging.File = v
	}
	if v, ok := lookup("EXCLUDE"); ok {
		c.Exclude = nil
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				c.Exclude = append(c.Exclude, p)
			}
		}
	}
	return nil
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func envInt(name string, dst *int) error {
	v, ok := lookup(name)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return &models.ValidationError{Field: EnvPrefix + name, Message: "must be an integer"}
	}
	*dst = n
	return nil
}

func envBool(name string, dst *bool) error {
	v, ok := lookup(name)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return &models.ValidationError{Field: EnvPrefix + name, Message: "must be a boolean"}
	}
	*dst = b
	return nil
}
