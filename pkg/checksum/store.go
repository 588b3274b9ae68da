package checksum

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/sdejongh/drivesync/pkg/models"
	"github.com/sdejongh/drivesync/pkg/storage"
)

// ErrUnknownFolder is returned for folders that were never registered
var ErrUnknownFolder = errors.New("unknown folder")

// Supplier provides directory checksums by folder ID
type Supplier interface {
	// Checksum returns the folder's checksum, computing it if needed
	Checksum(ctx context.Context, folderID string) (DirectoryChecksum, error)

	// OptChecksum returns the folder's checksum only if it is known
	// without further computation
	OptChecksum(folderID string) (DirectoryChecksum, bool)
}

// Store computes and memoizes file and directory checksums of a backend.
// Folders and their direct files are registered up front; checksums are
// computed on first request. A Store is safe for concurrent use.
type Store struct {
	backend    storage.Backend
	calculator *Calculator
	workers    int

	// OnFileHashed is called after each computed file checksum. It may be
	// called from several goroutines at once.
	OnFileHashed func(file storage.FileInfo)

	mu      sync.RWMutex
	folders map[string][]storage.FileInfo
	files   map[string]FileChecksum
	dirs    map[string]DirectoryChecksum
	group   singleflight.Group
}

// NewStore creates a store hashing files with up to workers goroutines
func NewStore(backend storage.Backend, calculator *Calculator, workers int) *Store {
	if workers < 1 {
		workers = 1
	}
	return &Store{
		backend:    backend,
		calculator: calculator,
		workers:    workers,
		folders:    make(map[string][]storage.FileInfo),
		files:      make(map[string]FileChecksum),
		dirs:       make(map[string]DirectoryChecksum),
	}
}

// Register declares a folder and the files directly inside it. Registering
// a folder again replaces its files and forgets its checksum.
func (s *Store) Register(folderID string, files []storage.FileInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.folders[folderID] = files
	delete(s.dirs, folderID)
}

// Preload seeds known checksums, e.g. from an earlier run. A seeded file
// checksum is only used while the file's size and modification time match.
func (s *Store) Preload(files []FileChecksum) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range files {
		s.files[f.FileID] = f
	}
}

// Checksum returns the directory checksum of a registered folder.
// Concurrent callers share one computation; a caller whose shared
// computation was cancelled by another caller's context starts over.
func (s *Store) Checksum(ctx context.Context, folderID string) (DirectoryChecksum, error) {
	for {
		if known, ok := s.OptChecksum(folderID); ok {
			return known, nil
		}

		ch := s.group.DoChan(folderID, func() (interface{}, error) {
			return s.computeDirectory(ctx, folderID)
		})

		select {
		case <-ctx.Done():
			return DirectoryChecksum{}, ctx.Err()
		case res := <-ch:
			if res.Err == nil {
				return res.Val.(DirectoryChecksum), nil
			}
			if ctx.Err() == nil && isContextError(res.Err) {
				continue
			}
			return DirectoryChecksum{}, res.Err
		}
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// OptChecksum returns the directory checksum if it was already computed
func (s *Store) OptChecksum(folderID string) (DirectoryChecksum, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.dirs[folderID]
	return c, ok
}

// FileChecksums returns the checksums of the files directly inside a
// registered folder, in registration order
func (s *Store) FileChecksums(ctx context.Context, folderID string) ([]FileChecksum, error) {
	files, err := s.folderFiles(folderID)
	if err != nil {
		return nil, err
	}
	return s.hashFiles(ctx, files)
}

func (s *Store) folderFiles(folderID string) ([]storage.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	files, ok := s.folders[folderID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFolder, folderID)
	}
	return files, nil
}

func (s *Store) hashFiles(ctx context.Context, files []storage.FileInfo) ([]FileChecksum, error) {
	results := make([]FileChecksum, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, f := range files {
		g.Go(func() error {
			c, err := s.fileChecksum(gctx, f)
			if err != nil {
				return err
			}
			results[i] = c
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Store) fileChecksum(ctx context.Context, f storage.FileInfo) (FileChecksum, error) {
	s.mu.RLock()
	known, ok := s.files[f.DrivePath]
	s.mu.RUnlock()
	if ok && known.matches(f) {
		return known, nil
	}

	sum, err := s.calculator.FileChecksum(ctx, s.backend, f.DrivePath)
	if err != nil {
		return FileChecksum{}, fmt.Errorf("failed to checksum %s: %w", f.DrivePath, err)
	}

	c := FileChecksum{FileID: f.DrivePath, Size: f.Size, ModTime: f.ModTime, Checksum: sum}
	s.mu.Lock()
	s.files[f.DrivePath] = c
	s.mu.Unlock()

	if s.OnFileHashed != nil {
		s.OnFileHashed(f)
	}
	return c, nil
}

func (s *Store) computeDirectory(ctx context.Context, folderID string) (DirectoryChecksum, error) {
	files, err := s.folderFiles(folderID)
	if err != nil {
		return DirectoryChecksum{}, err
	}

	checksums, err := s.hashFiles(ctx, files)
	if err != nil {
		return DirectoryChecksum{}, err
	}

	versions := make([]models.FileVersion, len(files))
	for i, f := range files {
		versions[i] = models.NewFileVersion(f.Name(), checksums[i].Checksum)
	}
	sum, err := DirectoryChecksumOf(versions)
	if err != nil {
		return DirectoryChecksum{}, err
	}

	c := DirectoryChecksum{FolderID: folderID, Checksum: sum, FileCount: len(files)}
	s.mu.Lock()
	s.dirs[folderID] = c
	s.mu.Unlock()
	return c, nil
}
