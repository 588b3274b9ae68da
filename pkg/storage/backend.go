// Package storage gives read access to the server-side file tree that is
// reconciled against client and original state.
package storage

import (
	"context"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// FileInfo is a handle on a file or folder of the server tree
type FileInfo struct {
	// Path is the location understood by the backend
	Path string

	// DrivePath is the slash-separated path relative to the root, always
	// starting with "/". The root folder is "/".
	DrivePath string

	Size    int64
	ModTime time.Time
	IsDir   bool
}

// Name returns the last element of the drive path
func (f FileInfo) Name() string {
	if f.DrivePath == "/" {
		return ""
	}
	return path.Base(f.DrivePath)
}

// Parent returns the drive path of the containing folder
func (f FileInfo) Parent() string {
	return path.Dir(f.DrivePath)
}

// Backend defines the read operations drivesync needs on a server tree.
// Implementations include the local filesystem.
type Backend interface {
	// List returns every file and folder below the given drive path,
	// the folder itself included
	List(ctx context.Context, drivePath string) ([]FileInfo, error)

	// Read opens a file for reading
	Read(ctx context.Context, drivePath string) (io.ReadCloser, error)

	// Stat returns file metadata
	Stat(ctx context.Context, drivePath string) (*FileInfo, error)

	// Exists checks if a file or folder exists
	Exists(ctx context.Context, drivePath string) (bool, error)

	// Close releases any resources held by the backend
	Close() error
}

// ToDrivePath converts an OS-specific relative path into a drive path
func ToDrivePath(relativePath string) string {
	p := filepath.ToSlash(relativePath)
	if p == "." || p == "" {
		return "/"
	}
	return path.Clean("/" + strings.TrimPrefix(p, "/"))
}
