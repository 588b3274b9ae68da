// Package pathnorm canonicalizes file names and directory paths so that
// visually identical names produced by different platforms map to the same
// key.
package pathnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalizer maps names and paths to a canonical Unicode form
type Normalizer interface {
	// Normalize returns the canonical form of s. Normalize is idempotent.
	Normalize(s string) string

	// IsNormalized reports whether s is already in canonical form,
	// i.e. Normalize(s) == s
	IsNormalized(s string) bool

	// Equal compares the canonical forms of a and b
	Equal(a, b string) bool
}

// NFC normalizes to Unicode Normalization Form C (composed characters),
// the form used for keys throughout drivesync
var NFC Normalizer = nfc{}

type nfc struct{}

func (nfc) Normalize(s string) string {
	return norm.NFC.String(s)
}

func (nfc) IsNormalized(s string) bool {
	return norm.NFC.IsNormalString(s)
}

func (n nfc) Equal(a, b string) bool {
	if a == b {
		return true
	}
	return n.Normalize(a) == n.Normalize(b)
}

// Normalize normalizes s with the default normalizer
func Normalize(s string) string {
	return NFC.Normalize(s)
}

// IsNormalized reports whether s is in the default canonical form
func IsNormalized(s string) bool {
	return NFC.IsNormalized(s)
}

// Equal compares a and b after default normalization. The comparison is
// case-sensitive: "Foo.txt" and "foo.txt" are different names.
func Equal(a, b string) bool {
	return NFC.Equal(a, b)
}

// FoldKey returns the case-folded form of an already normalized key.
// Two keys with the same fold identify the same logical entity. Folding is
// rune by rune, so only case variants collide: "straße" and "strasse" stay
// distinct.
func FoldKey(key string) string {
	return strings.Map(foldRune, key)
}

func foldRune(r rune) rune {
	return unicode.ToLower(unicode.ToUpper(r))
}

// CompareKeys orders keys case-insensitively. Keys that fold to the same
// value are ordered by their raw bytes so the result is total.
func CompareKeys(a, b string) int {
	if c := strings.Compare(FoldKey(a), FoldKey(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}
