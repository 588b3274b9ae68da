package checksum

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sdejongh/drivesync/pkg/models"
	"github.com/sdejongh/drivesync/pkg/pathnorm"
	"github.com/sdejongh/drivesync/pkg/storage"
)

// FileChecksum is the checksum of one server file together with the file
// state it was computed from
type FileChecksum struct {
	FileID   string // drive path of the file
	Size     int64
	ModTime  time.Time
	Checksum string
}

// matches reports whether the checksum still describes the file
func (c FileChecksum) matches(f storage.FileInfo) bool {
	return c.FileID == f.DrivePath && c.Size == f.Size && c.ModTime.Equal(f.ModTime)
}

// DirectoryChecksum is the checksum of one server folder
type DirectoryChecksum struct {
	FolderID  string // drive path of the folder
	Checksum  string
	FileCount int
}

// DirectoryChecksumOf derives a directory checksum from the versions of the
// files directly inside it. Files are taken in case-insensitive name order;
// each contributes its normalized name and lowercase checksum. The result
// does not depend on the order of files.
func DirectoryChecksumOf(files []models.FileVersion) (string, error) {
	type entry struct{ name, checksum string }

	entries := make([]entry, 0, len(files))
	for _, f := range files {
		checksum, err := f.Checksum()
		if err != nil {
			return "", fmt.Errorf("failed to get checksum of %s: %w", f.Name(), err)
		}
		entries = append(entries, entry{pathnorm.Normalize(f.Name()), strings.ToLower(checksum)})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		if c := pathnorm.CompareKeys(a.name, b.name); c != 0 {
			return c
		}
		return strings.Compare(a.checksum, b.checksum)
	})

	hasher := md5.New()
	for _, e := range entries {
		hasher.Write([]byte(e.name))
		hasher.Write([]byte{0})
		hasher.Write([]byte(e.checksum))
		hasher.Write([]byte{'\n'})
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
