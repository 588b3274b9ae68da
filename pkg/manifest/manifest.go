// Package manifest reads and writes client manifests: the directories and
// files a client reports, with their checksums.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/sdejongh/drivesync/pkg/models"
	"github.com/sdejongh/drivesync/pkg/storage"
)

// Manifest is the client state
type Manifest struct {
	Client      string                   `yaml:"client,omitempty" json:"client,omitempty"`
	Directories []models.DirectoryRecord `yaml:"directories" json:"directories" validate:"dive"`
}

var validate = validator.New()

// Load reads a manifest in YAML or JSON and validates it. Directory paths
// are made absolute ("docs" becomes "/docs"); names are kept as written.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates manifest data. JSON is accepted since it is
// valid YAML.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	for i := range m.Directories {
		m.Directories[i].Path = storage.ToDrivePath(m.Directories[i].Path)
	}
	return &m, nil
}

// Validate checks that every directory and file carries a name and a
// hexadecimal checksum
func (m *Manifest) Validate() error {
	err := validate.Struct(m)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &models.ValidationError{
			Field:   fe.Namespace(),
			Message: fmt.Sprintf("failed on '%s' validation", fe.Tag()),
		}
	}
	return fmt.Errorf("failed to validate manifest: %w", err)
}

// Save writes the manifest as YAML
func (m *Manifest) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// DirectoryVersions returns the reported directory versions in order
func (m *Manifest) DirectoryVersions() []models.DirectoryVersion {
	versions := make([]models.DirectoryVersion, 0, len(m.Directories))
	for _, d := range m.Directories {
		versions = append(versions, d.Version())
	}
	return versions
}

// Directory returns the record reported under exactly this path
func (m *Manifest) Directory(path string) (models.DirectoryRecord, bool) {
	for _, d := range m.Directories {
		if d.Path == path {
			return d, true
		}
	}
	return models.DirectoryRecord{}, false
}
