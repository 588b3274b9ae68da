// Package scan lists the server tree and turns it into file and directory
// versions for reconciliation.
package scan

import (
	"context"
	"fmt"
	"path"
	"sort"

	"github.com/sdejongh/drivesync/pkg/checksum"
	"github.com/sdejongh/drivesync/pkg/models"
	"github.com/sdejongh/drivesync/pkg/pathnorm"
	"github.com/sdejongh/drivesync/pkg/server"
	"github.com/sdejongh/drivesync/pkg/storage"
)

// Scanner lists a backend and registers its folders with a checksum store
type Scanner struct {
	backend storage.Backend
	store   *checksum.Store
	matcher *Matcher
}

// NewScanner creates a scanner. Paths matching an exclude pattern, and
// everything below excluded folders, are skipped.
func NewScanner(backend storage.Backend, store *checksum.Store, exclude []string) *Scanner {
	return &Scanner{
		backend: backend,
		store:   store,
		matcher: NewMatcher(exclude),
	}
}

// Tree is the result of a scan
type Tree struct {
	folders map[string]storage.FileInfo
	files   map[string][]storage.FileInfo // by parent folder
}

// Scan lists the whole backend. Folder checksums are not computed here;
// they are computed on demand through the checksum store.
func (s *Scanner) Scan(ctx context.Context) (*Tree, error) {
	entries, err := s.backend.List(ctx, "/")
	if err != nil {
		return nil, fmt.Errorf("failed to scan server tree: %w", err)
	}

	tree := &Tree{
		folders: make(map[string]storage.FileInfo),
		files:   make(map[string][]storage.FileInfo),
	}
	for _, e := range entries {
		if s.matcher.Excluded(e.DrivePath) {
			continue
		}
		if e.IsDir {
			tree.folders[e.DrivePath] = e
			continue
		}
		tree.files[e.Parent()] = append(tree.files[e.Parent()], e)
	}

	for id := range tree.folders {
		s.store.Register(id, tree.files[id])
	}
	return tree, nil
}

// FolderCount returns the number of folders found
func (t *Tree) FolderCount() int {
	return len(t.folders)
}

// FileCount returns the number of files found
func (t *Tree) FileCount() int {
	n := 0
	for id, files := range t.files {
		if _, ok := t.folders[id]; ok {
			n += len(files)
		}
	}
	return n
}

// DirectoryVersions returns one lazy version per folder, ordered by path.
// ctx bounds the deferred checksum computations.
func (s *Scanner) DirectoryVersions(ctx context.Context, t *Tree) []models.DirectoryVersion {
	ids := make([]string, 0, len(t.folders))
	for id := range t.folders {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return pathnorm.CompareKeys(ids[i], ids[j]) < 0 })

	versions := make([]models.DirectoryVersion, 0, len(ids))
	for _, id := range ids {
		versions = append(versions, server.NewLazyDirectoryVersion(ctx, t.folders[id], s.store))
	}
	return versions
}

// FileVersions returns the versions of the files directly inside a folder.
// An unknown folder has no files.
func (s *Scanner) FileVersions(ctx context.Context, t *Tree, folderID string) ([]models.FileVersion, error) {
	if _, ok := t.folders[folderID]; !ok {
		return nil, nil
	}

	checksums, err := s.store.FileChecksums(ctx, folderID)
	if err != nil {
		return nil, err
	}

	files := t.files[folderID]
	versions := make([]models.FileVersion, len(files))
	for i, f := range files {
		versions[i] = server.NewFileVersion(f, checksums[i])
	}
	return versions, nil
}

// Records computes every checksum and returns the tree in serialized form,
// as stored in snapshots
func (s *Scanner) Records(ctx context.Context, t *Tree) ([]models.DirectoryRecord, error) {
	var records []models.DirectoryRecord
	for _, v := range s.DirectoryVersions(ctx, t) {
		dirChecksum, err := v.Checksum()
		if err != nil {
			return nil, err
		}
		files, err := s.FileVersions(ctx, t, v.Path())
		if err != nil {
			return nil, err
		}

		record := models.DirectoryRecord{Path: v.Path(), Checksum: dirChecksum}
		for _, f := range files {
			sum, err := f.Checksum()
			if err != nil {
				return nil, fmt.Errorf("failed to read checksum of %s: %w", path.Join(v.Path(), f.Name()), err)
			}
			record.Files = append(record.Files, models.FileRecord{Name: f.Name(), Checksum: sum})
		}
		records = append(records, record)
	}
	return records, nil
}
