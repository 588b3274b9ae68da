package pathnorm

import (
	"sort"
	"testing"
)

const (
	cafeNFC = "caf\u00e9"
	cafeNFD = "cafe\u0301"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"ASCII", "report.txt", "report.txt"},
		{"AlreadyComposed", cafeNFC, cafeNFC},
		{"Decomposed", cafeNFD, cafeNFC},
		{"Empty", "", ""},
		{"Path", "docs/" + cafeNFD + "/notes.md", "docs/" + cafeNFC + "/notes.md"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := Normalize(got); again != got {
				t.Errorf("Normalize is not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestIsNormalized(t *testing.T) {
	if !IsNormalized(cafeNFC) {
		t.Error("NFC string should be normalized")
	}
	if IsNormalized(cafeNFD) {
		t.Error("NFD string should not be normalized")
	}
	if !IsNormalized("Foo.txt") {
		t.Error("ASCII string should be normalized")
	}
}

func TestEqual(t *testing.T) {
	if !Equal(cafeNFC, cafeNFD) {
		t.Error("NFC and NFD forms should be equal")
	}
	if Equal("Foo.txt", "foo.txt") {
		t.Error("Equal should be case-sensitive")
	}
	if Equal("a.txt", "b.txt") {
		t.Error("different names should not be equal")
	}
}

func TestFoldKey(t *testing.T) {
	if FoldKey("Foo.TXT") != FoldKey("foo.txt") {
		t.Error("keys differing only in case should fold to the same value")
	}
	if FoldKey("foo.txt") == FoldKey("bar.txt") {
		t.Error("different keys should not fold to the same value")
	}

	tests := []struct {
		name string
		a, b string
		same bool
	}{
		{"Greek", "\u03a3\u03bf\u03c6\u03af\u03b1", "\u03c3\u03bf\u03c6\u03af\u03b1", true},
		{"FinalSigma", "\u03c2", "\u03c3", true},
		{"Accented", "CAF\u00c9", cafeNFC, true},
		{"SharpS", "stra\u00dfe.txt", "strasse.txt", false},
		{"Ligature", "\ufb01le.txt", "file.txt", false},
		{"SharpSCapital", "STRASSE.TXT", "strasse.txt", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FoldKey(tt.a) == FoldKey(tt.b); got != tt.same {
				t.Errorf("FoldKey(%q) == FoldKey(%q) is %v, want %v", tt.a, tt.b, got, tt.same)
			}
		})
	}
}

func TestCompareKeys(t *testing.T) {
	keys := []string{"beta", "Alpha", "alpha", "Gamma", "delta"}
	sort.Slice(keys, func(i, j int) bool { return CompareKeys(keys[i], keys[j]) < 0 })

	want := []string{"Alpha", "alpha", "beta", "delta", "Gamma"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("sorted keys = %v, want %v", keys, want)
		}
	}

	if CompareKeys("same", "same") != 0 {
		t.Error("identical keys should compare equal")
	}
}
