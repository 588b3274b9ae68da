package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sdejongh/drivesync/pkg/checksum"
	"github.com/sdejongh/drivesync/pkg/server"
	"github.com/sdejongh/drivesync/pkg/storage"
)

const md5Hello = "5d41402abc4b2a76b9719d911017c592"

func newTestScanner(t *testing.T, files map[string]string, exclude []string) *Scanner {
	t.Helper()

	rootDir, err := os.MkdirTemp("", "drivesync-scan-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(rootDir) })

	for name, content := range files {
		path := filepath.Join(rootDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create parent dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}
	}

	backend, err := storage.NewLocal(rootDir)
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	store := checksum.NewStore(backend, checksum.NewCalculator(0, nil), 2)
	return NewScanner(backend, store, exclude)
}

func TestMatcher(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		path     string
		want     bool
	}{
		{"NameGlob", []string{"*.tmp"}, "/docs/a.tmp", true},
		{"NameGlobMiss", []string{"*.tmp"}, "/docs/a.txt", false},
		{"ExactName", []string{".DS_Store"}, "/a/.DS_Store", true},
		{"DirectoryPattern", []string{".git/"}, "/.git/config", true},
		{"DirectoryPatternFolder", []string{".git/"}, "/.git", true},
		{"DirectoryPatternNested", []string{"node_modules/"}, "/web/node_modules/x/y.js", true},
		{"PathGlob", []string{"build/*"}, "/build/out.bin", true},
		{"PathGlobOtherDir", []string{"build/*"}, "/src/out.bin", false},
		{"PathGlobSuffix", []string{"cache/*.db"}, "/app/cache/x.db", true},
		{"PathGlobSuffixDeeper", []string{"cache/*.db"}, "/a/b/cache/x.db", true},
		{"PathGlobSuffixWrongParent", []string{"cache/*.db"}, "/app/store/x.db", false},
		{"PathLiteralSuffix", []string{"docs/notes.md"}, "/proj/docs/notes.md", true},
		{"AnchoredPathGlob", []string{"/build/*"}, "/build/out.bin", true},
		{"AnchoredPathGlobNested", []string{"/build/*"}, "/src/build/out.bin", false},
		{"DeepPattern", []string{"**/tmp"}, "/a/b/tmp", true},
		{"RootNeverExcluded", []string{"*"}, "/", false},
		{"NoPatterns", nil, "/a.txt", false},
		{"BlankPattern", []string{"  "}, "/a.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewMatcher(tt.patterns).Excluded(tt.path); got != tt.want {
				t.Errorf("Excluded(%q) with %v = %v, want %v", tt.path, tt.patterns, got, tt.want)
			}
		})
	}
}

func TestScanner(t *testing.T) {
	ctx := context.Background()

	t.Run("GroupsFilesPerFolder", func(t *testing.T) {
		s := newTestScanner(t, map[string]string{
			"root.txt":       "hello",
			"docs/a.txt":     "hello",
			"docs/b.txt":     "world",
			"docs/sub/c.txt": "x",
		}, nil)

		tree, err := s.Scan(ctx)
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if tree.FolderCount() != 3 {
			t.Errorf("FolderCount() = %d, want 3", tree.FolderCount())
		}
		if tree.FileCount() != 4 {
			t.Errorf("FileCount() = %d, want 4", tree.FileCount())
		}

		dirs := s.DirectoryVersions(ctx, tree)
		var paths []string
		for _, d := range dirs {
			paths = append(paths, d.Path())
		}
		want := []string{"/", "/docs", "/docs/sub"}
		if len(paths) != len(want) {
			t.Fatalf("paths = %v, want %v", paths, want)
		}
		for i := range want {
			if paths[i] != want[i] {
				t.Errorf("paths[%d] = %s, want %s", i, paths[i], want[i])
			}
		}

		files, err := s.FileVersions(ctx, tree, "/")
		if err != nil {
			t.Fatalf("FileVersions() error = %v", err)
		}
		if len(files) != 1 || files[0].Name() != "root.txt" {
			t.Fatalf("root files = %v", files)
		}
		if sum, _ := files[0].Checksum(); sum != md5Hello {
			t.Errorf("Checksum() = %s, want %s", sum, md5Hello)
		}
	})

	t.Run("Excludes", func(t *testing.T) {
		s := newTestScanner(t, map[string]string{
			"keep.txt":       "a",
			"skip.tmp":       "b",
			".git/config":    "c",
			".git/objects/x": "d",
		}, []string{"*.tmp", ".git/"})

		tree, err := s.Scan(ctx)
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if tree.FolderCount() != 1 {
			t.Errorf("FolderCount() = %d, want 1", tree.FolderCount())
		}
		if tree.FileCount() != 1 {
			t.Errorf("FileCount() = %d, want 1", tree.FileCount())
		}
	})

	t.Run("UnknownFolderHasNoFiles", func(t *testing.T) {
		s := newTestScanner(t, map[string]string{"a.txt": "a"}, nil)
		tree, err := s.Scan(ctx)
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		files, err := s.FileVersions(ctx, tree, "/missing")
		if err != nil || len(files) != 0 {
			t.Errorf("FileVersions() = %v, %v; want empty, nil", files, err)
		}
	})

	t.Run("DirectoryChecksumIsLazy", func(t *testing.T) {
		s := newTestScanner(t, map[string]string{"docs/a.txt": "hello"}, nil)
		tree, err := s.Scan(ctx)
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}

		dirs := s.DirectoryVersions(ctx, tree)
		docs := dirs[1]
		lazy, ok := docs.(*server.LazyDirectoryVersion)
		if !ok {
			t.Fatalf("DirectoryVersions() returned %T", docs)
		}
		if _, known := lazy.OptChecksum(); known {
			t.Error("checksum should not be known before first access")
		}
		sum, err := docs.Checksum()
		if err != nil || sum == "" {
			t.Fatalf("Checksum() = %q, %v", sum, err)
		}
	})

	t.Run("Records", func(t *testing.T) {
		s := newTestScanner(t, map[string]string{
			"docs/a.txt": "hello",
			"empty.txt":  "",
		}, nil)
		tree, err := s.Scan(ctx)
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}

		records, err := s.Records(ctx, tree)
		if err != nil {
			t.Fatalf("Records() error = %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("len(records) = %d, want 2", len(records))
		}
		docs := records[1]
		if docs.Path != "/docs" || len(docs.Files) != 1 || docs.Files[0].Checksum != md5Hello {
			t.Errorf("docs record = %+v", docs)
		}
		if docs.Checksum == "" {
			t.Error("directory checksum should be set")
		}
	})
}
