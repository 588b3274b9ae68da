package checksum

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sdejongh/drivesync/pkg/models"
	"github.com/sdejongh/drivesync/pkg/ratelimit"
	"github.com/sdejongh/drivesync/pkg/storage"
)

const (
	md5Empty = "d41d8cd98f00b204e9800998ecf8427e"
	md5Hello = "5d41402abc4b2a76b9719d911017c592"
)

// TestHelper provides a temp tree and a store over it
type TestHelper struct {
	t       *testing.T
	rootDir string
	backend *storage.Local
}

func NewTestHelper(t *testing.T) *TestHelper {
	t.Helper()

	rootDir, err := os.MkdirTemp("", "drivesync-checksum-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(rootDir) })

	backend, err := storage.NewLocal(rootDir)
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}

	return &TestHelper{t: t, rootDir: rootDir, backend: backend}
}

func (h *TestHelper) CreateFile(name, content string) storage.FileInfo {
	h.t.Helper()
	path := filepath.Join(h.rootDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		h.t.Fatalf("failed to create parent dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		h.t.Fatalf("failed to create file: %v", err)
	}
	info, err := h.backend.Stat(context.Background(), "/"+name)
	if err != nil {
		h.t.Fatalf("failed to stat file: %v", err)
	}
	return *info
}

func TestCalculator(t *testing.T) {
	c := NewCalculator(0, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"Empty", "", md5Empty},
		{"Hello", "hello", md5Hello},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Sum(ctx, strings.NewReader(tt.content))
			if err != nil {
				t.Fatalf("Sum() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Sum() = %s, want %s", got, tt.want)
			}
		})
	}

	t.Run("LargerThanBuffer", func(t *testing.T) {
		content := strings.Repeat("x", 3*4096+17)
		a, _ := c.Sum(ctx, strings.NewReader(content))
		b, _ := NewCalculator(1<<20, nil).Sum(ctx, strings.NewReader(content))
		if a != b {
			t.Errorf("checksum depends on buffer size: %s != %s", a, b)
		}
	})

	t.Run("Cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := c.Sum(cctx, strings.NewReader("hello")); !errors.Is(err, context.Canceled) {
			t.Errorf("Sum() error = %v, want context.Canceled", err)
		}
	})

	t.Run("FromBackend", func(t *testing.T) {
		h := NewTestHelper(t)
		h.CreateFile("a.txt", "hello")
		got, err := c.FileChecksum(ctx, h.backend, "/a.txt")
		if err != nil {
			t.Fatalf("FileChecksum() error = %v", err)
		}
		if got != md5Hello {
			t.Errorf("FileChecksum() = %s, want %s", got, md5Hello)
		}
	})

	t.Run("RateLimited", func(t *testing.T) {
		h := NewTestHelper(t)
		h.CreateFile("a.txt", "hello")
		limited := NewCalculator(4096, ratelimit.NewLimiter(1<<20))
		got, err := limited.FileChecksum(ctx, h.backend, "/a.txt")
		if err != nil {
			t.Fatalf("FileChecksum() error = %v", err)
		}
		if got != md5Hello {
			t.Errorf("FileChecksum() = %s, want %s", got, md5Hello)
		}
	})
}

func TestDirectoryChecksumOf(t *testing.T) {
	a := models.NewFileVersion("a.txt", "AAAA")
	b := models.NewFileVersion("B.txt", "bbbb")

	first, err := DirectoryChecksumOf([]models.FileVersion{a, b})
	if err != nil {
		t.Fatalf("DirectoryChecksumOf() error = %v", err)
	}
	second, _ := DirectoryChecksumOf([]models.FileVersion{b, a})
	if first != second {
		t.Error("directory checksum should not depend on file order")
	}

	lower, _ := DirectoryChecksumOf([]models.FileVersion{models.NewFileVersion("a.txt", "aaaa"), b})
	if first != lower {
		t.Error("directory checksum should ignore checksum case")
	}

	renamed, _ := DirectoryChecksumOf([]models.FileVersion{models.NewFileVersion("c.txt", "aaaa"), b})
	if first == renamed {
		t.Error("renaming a file should change the directory checksum")
	}

	empty, _ := DirectoryChecksumOf(nil)
	if empty != md5Empty {
		t.Errorf("empty directory checksum = %s, want %s", empty, md5Empty)
	}
}

func TestStore(t *testing.T) {
	h := NewTestHelper(t)
	ctx := context.Background()

	a := h.CreateFile("docs/a.txt", "hello")
	b := h.CreateFile("docs/b.txt", "")

	store := NewStore(h.backend, NewCalculator(4096, nil), 2)
	var hashed atomic.Int32
	store.OnFileHashed = func(storage.FileInfo) { hashed.Add(1) }
	store.Register("/docs", []storage.FileInfo{a, b})

	if _, ok := store.OptChecksum("/docs"); ok {
		t.Error("OptChecksum() should not know an uncomputed folder")
	}

	dc, err := store.Checksum(ctx, "/docs")
	if err != nil {
		t.Fatalf("Checksum() error = %v", err)
	}
	want, _ := DirectoryChecksumOf([]models.FileVersion{
		models.NewFileVersion("a.txt", md5Hello),
		models.NewFileVersion("b.txt", md5Empty),
	})
	if dc.Checksum != want || dc.FileCount != 2 || dc.FolderID != "/docs" {
		t.Errorf("Checksum() = %+v, want checksum %s", dc, want)
	}

	known, ok := store.OptChecksum("/docs")
	if !ok || known != dc {
		t.Errorf("OptChecksum() = %+v, %v; want memoized value", known, ok)
	}

	files, err := store.FileChecksums(ctx, "/docs")
	if err != nil {
		t.Fatalf("FileChecksums() error = %v", err)
	}
	if files[0].Checksum != md5Hello || files[1].Checksum != md5Empty {
		t.Errorf("FileChecksums() = %+v", files)
	}
	if hashed.Load() != 2 {
		t.Errorf("files hashed %d times, want 2 (memoized)", hashed.Load())
	}

	t.Run("UnknownFolder", func(t *testing.T) {
		if _, err := store.Checksum(ctx, "/nope"); !errors.Is(err, ErrUnknownFolder) {
			t.Errorf("Checksum() error = %v, want ErrUnknownFolder", err)
		}
	})

	t.Run("RegisterForgetsChecksum", func(t *testing.T) {
		store.Register("/docs", []storage.FileInfo{a})
		if _, ok := store.OptChecksum("/docs"); ok {
			t.Error("re-registering should forget the directory checksum")
		}
	})
}

func TestStore_Preload(t *testing.T) {
	h := NewTestHelper(t)
	a := h.CreateFile("a.txt", "hello")

	store := NewStore(h.backend, NewCalculator(4096, nil), 1)
	var hashed atomic.Int32
	store.OnFileHashed = func(storage.FileInfo) { hashed.Add(1) }
	store.Preload([]FileChecksum{{FileID: "/a.txt", Size: a.Size, ModTime: a.ModTime, Checksum: "cached"}})
	store.Register("/", []storage.FileInfo{a})

	files, err := store.FileChecksums(context.Background(), "/")
	if err != nil {
		t.Fatalf("FileChecksums() error = %v", err)
	}
	if files[0].Checksum != "cached" || hashed.Load() != 0 {
		t.Errorf("preloaded checksum not used: %+v, hashed %d", files[0], hashed.Load())
	}

	// A stale entry is recomputed
	store.Preload([]FileChecksum{{FileID: "/a.txt", Size: a.Size + 1, ModTime: a.ModTime, Checksum: "stale"}})
	files, _ = store.FileChecksums(context.Background(), "/")
	if files[0].Checksum != md5Hello {
		t.Errorf("stale checksum used: %s", files[0].Checksum)
	}
}

// stallingBackend blocks the first Read until its context ends
type stallingBackend struct {
	storage.Backend
	reads   atomic.Int32
	stalled chan struct{}
}

func (b *stallingBackend) Read(ctx context.Context, drivePath string) (io.ReadCloser, error) {
	if b.reads.Add(1) == 1 {
		close(b.stalled)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return b.Backend.Read(ctx, drivePath)
}

func TestStore_CancelledCallerDoesNotFailOthers(t *testing.T) {
	h := NewTestHelper(t)
	a := h.CreateFile("docs/a.txt", "hello")

	backend := &stallingBackend{Backend: h.backend, stalled: make(chan struct{})}
	store := NewStore(backend, NewCalculator(4096, nil), 1)
	store.Register("/docs", []storage.FileInfo{a})

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := store.Checksum(firstCtx, "/docs")
		firstErr <- err
	}()
	<-backend.stalled

	type result struct {
		c   DirectoryChecksum
		err error
	}
	second := make(chan result, 1)
	go func() {
		c, err := store.Checksum(context.Background(), "/docs")
		second <- result{c, err}
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Errorf("first caller error = %v, want context.Canceled", err)
	}

	select {
	case r := <-second:
		if r.err != nil {
			t.Fatalf("second caller error = %v", r.err)
		}
		want, _ := DirectoryChecksumOf([]models.FileVersion{models.NewFileVersion("a.txt", md5Hello)})
		if r.c.Checksum != want {
			t.Errorf("second caller checksum = %s, want %s", r.c.Checksum, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("second caller did not return")
	}
}

func TestStoreImplementsSupplier(t *testing.T) {
	var _ Supplier = (*Store)(nil)
}
