package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// newTestTree creates a temp directory holding the given files
func newTestTree(t *testing.T, files map[string]string) (string, *Local) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "drivesync-storage-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	for name, content := range files {
		path := filepath.Join(tempDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create parent dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}
	}

	local, err := NewLocal(tempDir)
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	return tempDir, local
}

func TestNewLocal(t *testing.T) {
	t.Run("ValidDirectory", func(t *testing.T) {
		tempDir, local := newTestTree(t, nil)
		defer local.Close()

		abs, _ := filepath.Abs(tempDir)
		if local.Root() != abs {
			t.Errorf("Root() = %s, want %s", local.Root(), abs)
		}
	})

	t.Run("NonExistentPath", func(t *testing.T) {
		_, err := NewLocal("/nonexistent/path/that/does/not/exist")
		if err == nil {
			t.Error("NewLocal() should fail for non-existent path")
		}
	})

	t.Run("FileNotDirectory", func(t *testing.T) {
		tempFile, err := os.CreateTemp("", "drivesync-file-*")
		if err != nil {
			t.Fatalf("failed to create temp file: %v", err)
		}
		tempFile.Close()
		defer os.Remove(tempFile.Name())

		_, err = NewLocal(tempFile.Name())
		if err == nil {
			t.Error("NewLocal() should fail for file path (not directory)")
		}
	})
}

func TestLocalList(t *testing.T) {
	_, local := newTestTree(t, map[string]string{
		"a.txt":          "a",
		"docs/b.txt":     "bb",
		"docs/sub/c.txt": "ccc",
	})

	files, err := local.List(context.Background(), "/")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	var paths []string
	for _, f := range files {
		paths = append(paths, f.DrivePath)
	}
	sort.Strings(paths)

	want := []string{"/", "/a.txt", "/docs", "/docs/b.txt", "/docs/sub", "/docs/sub/c.txt"}
	if len(paths) != len(want) {
		t.Fatalf("List() paths = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %s, want %s", i, paths[i], want[i])
		}
	}

	t.Run("Subfolder", func(t *testing.T) {
		files, err := local.List(context.Background(), "/docs/sub")
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(files) != 2 {
			t.Errorf("List(/docs/sub) returned %d entries, want 2", len(files))
		}
	})

	t.Run("Cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := local.List(ctx, "/"); err == nil {
			t.Error("List() should fail with a cancelled context")
		}
	})
}

func TestLocalRead(t *testing.T) {
	_, local := newTestTree(t, map[string]string{"docs/b.txt": "hello"})

	reader, err := local.Read(context.Background(), "/docs/b.txt")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("content = %q, want hello", data)
	}

	if _, err := local.Read(context.Background(), "/missing.txt"); err == nil {
		t.Error("Read() should fail for a missing file")
	}
}

func TestLocalExists(t *testing.T) {
	_, local := newTestTree(t, map[string]string{"a.txt": "a"})
	ctx := context.Background()

	tests := []struct {
		path string
		want bool
	}{
		{"/a.txt", true},
		{"/", true},
		{"/b.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := local.Exists(ctx, tt.path)
			if err != nil {
				t.Fatalf("Exists() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Exists(%s) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestLocalStat(t *testing.T) {
	_, local := newTestTree(t, map[string]string{"docs/b.txt": "12345"})

	info, err := local.Stat(context.Background(), "/docs/b.txt")
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Size != 5 {
		t.Errorf("Size = %d, want 5", info.Size)
	}
	if info.IsDir {
		t.Error("IsDir should be false")
	}
	if info.DrivePath != "/docs/b.txt" {
		t.Errorf("DrivePath = %s, want /docs/b.txt", info.DrivePath)
	}
	if info.Name() != "b.txt" || info.Parent() != "/docs" {
		t.Errorf("Name()/Parent() = %s/%s, want b.txt and /docs", info.Name(), info.Parent())
	}

	root, err := local.Stat(context.Background(), "/")
	if err != nil {
		t.Fatalf("Stat(/) error = %v", err)
	}
	if !root.IsDir || root.DrivePath != "/" || root.Name() != "" {
		t.Errorf("root = %+v", root)
	}
}

func TestToDrivePath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{".", "/"},
		{"", "/"},
		{"a.txt", "/a.txt"},
		{filepath.Join("docs", "b.txt"), "/docs/b.txt"},
		{"/already/rooted", "/already/rooted"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ToDrivePath(tt.input); got != tt.want {
				t.Errorf("ToDrivePath(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestBackendInterface(t *testing.T) {
	var _ Backend = (*Local)(nil)
}
