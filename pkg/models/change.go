package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sdejongh/drivesync/pkg/pathnorm"
)

// Change classifies how a version evolved compared to the original one
type Change string

const (
	// ChangeNone indicates no change, or no version on either side
	ChangeNone Change = "none"
	// ChangeNew indicates the version did not exist originally
	ChangeNew Change = "new"
	// ChangeDeleted indicates the original version no longer exists
	ChangeDeleted Change = "deleted"
	// ChangeModified indicates a different checksum or a renamed entity
	ChangeModified Change = "modified"
)

// IsChanged returns true for any change other than ChangeNone
func (c Change) IsChanged() bool {
	return c != ChangeNone
}

func (c Change) String() string {
	return string(c)
}

// Side identifies one of the two observed states being reconciled
type Side string

const (
	// SideClient is the state reported by the client
	SideClient Side = "client"
	// SideServer is the state found on the server
	SideServer Side = "server"
)

// GetChange determines the change between an original and a current
// version. A nil version denotes absence.
//
// Both versions must be of the same kind; comparing a file version with
// a directory version returns an error wrapping errors.ErrUnsupported.
func GetChange(original, current Version) (Change, error) {
	if original == nil {
		if current == nil {
			return ChangeNone, nil
		}
		return ChangeNew, nil
	}
	if current == nil {
		return ChangeDeleted, nil
	}

	equal, err := Equivalent(original, current)
	if err != nil {
		return "", err
	}
	if equal {
		return ChangeNone, nil
	}
	return ChangeModified, nil
}

// Equivalent reports whether two versions of the same kind have equal
// checksums (case-insensitive) and equal normalized names or paths
func Equivalent(a, b Version) (bool, error) {
	sameName, err := sameIdentity(a, b)
	if err != nil {
		return false, err
	}

	checksumA, err := a.Checksum()
	if err != nil {
		return false, fmt.Errorf("failed to get checksum of %s: %w", Describe(a), err)
	}
	checksumB, err := b.Checksum()
	if err != nil {
		return false, fmt.Errorf("failed to get checksum of %s: %w", Describe(b), err)
	}

	return sameName && strings.EqualFold(checksumA, checksumB), nil
}

func sameIdentity(a, b Version) (bool, error) {
	switch x := a.(type) {
	case FileVersion:
		if y, ok := b.(FileVersion); ok {
			return pathnorm.Equal(x.Name(), y.Name()), nil
		}
	case DirectoryVersion:
		if y, ok := b.(DirectoryVersion); ok {
			return pathnorm.Equal(x.Path(), y.Path()), nil
		}
	}
	return false, fmt.Errorf("cannot compare %T with %T: %w", a, b, errors.ErrUnsupported)
}
