package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Local is a filesystem-based storage backend
type Local struct {
	rootPath string
}

// NewLocal creates a new local filesystem backend
func NewLocal(rootPath string) (*Local, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access path: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", absPath)
	}

	return &Local{rootPath: absPath}, nil
}

// Root returns the absolute root directory
func (l *Local) Root() string {
	return l.rootPath
}

// List returns all files and folders below drivePath recursively
func (l *Local) List(ctx context.Context, drivePath string) ([]FileInfo, error) {
	var files []FileInfo

	err := filepath.WalkDir(l.fullPath(drivePath), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Symlinks are not followed and not reported
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		fileInfo, err := l.toFileInfo(p, info)
		if err != nil {
			return err
		}
		files = append(files, *fileInfo)
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return files, nil
}

// Read opens a file for reading
func (l *Local) Read(ctx context.Context, drivePath string) (io.ReadCloser, error) {
	file, err := os.Open(l.fullPath(drivePath))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Stat returns file metadata
func (l *Local) Stat(ctx context.Context, drivePath string) (*FileInfo, error) {
	fullPath := l.fullPath(drivePath)

	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return l.toFileInfo(fullPath, info)
}

// Exists checks if a file or folder exists
func (l *Local) Exists(ctx context.Context, drivePath string) (bool, error) {
	_, err := os.Stat(l.fullPath(drivePath))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check existence: %w", err)
}

// Close is a no-op for the local filesystem
func (l *Local) Close() error {
	return nil
}

func (l *Local) fullPath(drivePath string) string {
	return filepath.Join(l.rootPath, filepath.FromSlash(drivePath))
}

func (l *Local) toFileInfo(fullPath string, info fs.FileInfo) (*FileInfo, error) {
	relPath, err := filepath.Rel(l.rootPath, fullPath)
	if err != nil {
		return nil, err
	}

	return &FileInfo{
		Path:      fullPath,
		DrivePath: ToDrivePath(relPath),
		Size:      info.Size(),
		ModTime:   info.ModTime(),
		IsDir:     info.IsDir(),
	}, nil
}
