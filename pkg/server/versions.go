// Package server adapts server-side files and folders, together with their
// checksums, to the version types used in three-way comparisons.
package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sdejongh/drivesync/pkg/checksum"
	"github.com/sdejongh/drivesync/pkg/models"
	"github.com/sdejongh/drivesync/pkg/storage"
)

// ErrIllegalState wraps checksum failures that surface where a checksum
// was expected to be available
var ErrIllegalState = errors.New("illegal state")

// FileVersion is a server file with its precomputed checksum
type FileVersion struct {
	file     storage.FileInfo
	checksum checksum.FileChecksum
}

// NewFileVersion wraps a server file and its checksum
func NewFileVersion(file storage.FileInfo, fileChecksum checksum.FileChecksum) *FileVersion {
	return &FileVersion{file: file, checksum: fileChecksum}
}

func (v *FileVersion) Name() string                        { return v.file.Name() }
func (v *FileVersion) Checksum() (string, error)           { return v.checksum.Checksum, nil }
func (v *FileVersion) File() storage.FileInfo              { return v.file }
func (v *FileVersion) FileChecksum() checksum.FileChecksum { return v.checksum }
func (v *FileVersion) String() string                      { return v.Name() + " | " + v.checksum.Checksum }

// DirectoryVersion is a server folder with its precomputed checksum
type DirectoryVersion struct {
	folder   storage.FileInfo
	checksum checksum.DirectoryChecksum
}

// NewDirectoryVersion wraps a server folder and its checksum
func NewDirectoryVersion(folder storage.FileInfo, directoryChecksum checksum.DirectoryChecksum) *DirectoryVersion {
	return &DirectoryVersion{folder: folder, checksum: directoryChecksum}
}

func (v *DirectoryVersion) Path() string                                  { return v.folder.DrivePath }
func (v *DirectoryVersion) Checksum() (string, error)                     { return v.checksum.Checksum, nil }
func (v *DirectoryVersion) Folder() storage.FileInfo                      { return v.folder }
func (v *DirectoryVersion) DirectoryChecksum() checksum.DirectoryChecksum { return v.checksum }
func (v *DirectoryVersion) String() string                                { return v.Path() + " | " + v.checksum.Checksum }

// LazyDirectoryVersion is a server folder whose checksum is only computed
// when first needed. The result is kept for the lifetime of the version;
// concurrent first accesses compute it once.
type LazyDirectoryVersion struct {
	// ctx is captured at scan time: Checksum takes no context.
	ctx      context.Context
	folder   storage.FileInfo
	supplier checksum.Supplier

	mu    sync.Mutex
	known *checksum.DirectoryChecksum
}

// NewLazyDirectoryVersion wraps a server folder whose checksum will be
// requested from supplier. ctx bounds the deferred computation.
func NewLazyDirectoryVersion(ctx context.Context, folder storage.FileInfo, supplier checksum.Supplier) *LazyDirectoryVersion {
	return &LazyDirectoryVersion{ctx: ctx, folder: folder, supplier: supplier}
}

func (v *LazyDirectoryVersion) Path() string             { return v.folder.DrivePath }
func (v *LazyDirectoryVersion) Folder() storage.FileInfo { return v.folder }

// Checksum returns the folder checksum, computing it on first access.
// Supplier failures are returned wrapped in ErrIllegalState.
func (v *LazyDirectoryVersion) Checksum() (string, error) {
	c, err := v.DirectoryChecksum()
	if err != nil {
		return "", err
	}
	return c.Checksum, nil
}

// DirectoryChecksum returns the full checksum record, computing it on
// first access
func (v *LazyDirectoryVersion) DirectoryChecksum() (checksum.DirectoryChecksum, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.known != nil {
		return *v.known, nil
	}

	c, err := v.supplier.Checksum(v.ctx, v.folder.DrivePath)
	if err != nil {
		return checksum.DirectoryChecksum{}, fmt.Errorf("%w: checksum of %s unavailable: %w", ErrIllegalState, v.folder.DrivePath, err)
	}
	v.known = &c
	return c, nil
}

// OptChecksum returns the folder checksum if it is available without
// computation, either memoized here or already known to the supplier
func (v *LazyDirectoryVersion) OptChecksum() (checksum.DirectoryChecksum, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.known != nil {
		return *v.known, true
	}
	c, ok := v.supplier.OptChecksum(v.folder.DrivePath)
	if ok {
		v.known = &c
	}
	return c, ok
}

func (v *LazyDirectoryVersion) String() string {
	if c, ok := v.OptChecksum(); ok {
		return v.Path() + " | " + c.Checksum
	}
	return v.Path() + " | <pending>"
}

var (
	_ models.FileVersion      = (*FileVersion)(nil)
	_ models.DirectoryVersion = (*DirectoryVersion)(nil)
	_ models.DirectoryVersion = (*LazyDirectoryVersion)(nil)
)
