package models

import (
	"fmt"
)

// Version is anything carrying a checksum that takes part in a three-way
// comparison. Checksums are compared case-insensitively.
type Version interface {
	// Checksum returns the content checksum. Implementations backed by a
	// storage layer may fail to produce one.
	Checksum() (string, error)
}

// FileVersion is a version of a single file, identified by its name
// within the parent directory
type FileVersion interface {
	Version
	Name() string
}

// DirectoryVersion is a version of a directory, identified by its path
// relative to the sync root
type DirectoryVersion interface {
	Version
	Path() string
}

type fileVersion struct {
	name     string
	checksum string
}

// NewFileVersion creates an in-memory file version
func NewFileVersion(name, checksum string) FileVersion {
	return fileVersion{name: name, checksum: checksum}
}

func (v fileVersion) Name() string              { return v.name }
func (v fileVersion) Checksum() (string, error) { return v.checksum, nil }
func (v fileVersion) String() string            { return v.name + " | " + v.checksum }

type directoryVersion struct {
	path     string
	checksum string
}

// NewDirectoryVersion creates an in-memory directory version
func NewDirectoryVersion(path, checksum string) DirectoryVersion {
	return directoryVersion{path: path, checksum: checksum}
}

func (v directoryVersion) Path() string              { return v.path }
func (v directoryVersion) Checksum() (string, error) { return v.checksum, nil }
func (v directoryVersion) String() string            { return v.path + " | " + v.checksum }

// FileRecord is the serialized form of a file version, as found in client
// manifests and snapshots
type FileRecord struct {
	Name     string `json:"name" yaml:"name" validate:"required"`
	Checksum string `json:"checksum" yaml:"checksum" validate:"required,hexadecimal"`
}

// Version converts the record into a file version
func (r FileRecord) Version() FileVersion {
	return NewFileVersion(r.Name, r.Checksum)
}

// DirectoryRecord is the serialized form of a directory version together
// with the files it directly contains
type DirectoryRecord struct {
	Path     string       `json:"path" yaml:"path" validate:"required"`
	Checksum string       `json:"checksum" yaml:"checksum" validate:"required,hexadecimal"`
	Files    []FileRecord `json:"files,omitempty" yaml:"files,omitempty" validate:"dive"`
}

// Version converts the record into a directory version
func (r DirectoryRecord) Version() DirectoryVersion {
	return NewDirectoryVersion(r.Path, r.Checksum)
}

// FileVersions converts the contained file records into file versions
func (r DirectoryRecord) FileVersions() []FileVersion {
	versions := make([]FileVersion, 0, len(r.Files))
	for _, f := range r.Files {
		versions = append(versions, f.Version())
	}
	return versions
}

// Describe renders a version for logs and reports
func Describe(v Version) string {
	if v == nil {
		return "<none>"
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	checksum, err := v.Checksum()
	if err != nil {
		checksum = "?"
	}
	switch t := v.(type) {
	case FileVersion:
		return t.Name() + " | " + checksum
	case DirectoryVersion:
		return t.Path() + " | " + checksum
	default:
		return fmt.Sprintf("%v | %s", v, checksum)
	}
}
