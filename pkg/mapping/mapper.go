package mapping

import (
	"iter"
	"slices"

	"github.com/sdejongh/drivesync/pkg/models"
	"github.com/sdejongh/drivesync/pkg/pathnorm"
)

// KeyFunc extracts the raw mapping key of a version, e.g. a file name
type KeyFunc[T models.Version] func(v T) string

// FileKey is the mapping key of file versions
func FileKey(v models.FileVersion) string { return v.Name() }

// DirectoryKey is the mapping key of directory versions
func DirectoryKey(v models.DirectoryVersion) string { return v.Path() }

// Mapper maps normalized keys to the three-way comparison of the versions
// sharing that key. Keys are matched case-insensitively and iterated in
// case-insensitive order.
//
// A Mapper is built once by NewMapper and is read-only afterwards.
type Mapper[T models.Version] struct {
	key        KeyFunc[T]
	normalizer pathnorm.Normalizer

	entries map[string]*mapEntry[T] // by folded key
	order   []*mapEntry[T]

	original []T
	client   []T
	server   []T
	problems *Problems[T]
}

type mapEntry[T models.Version] struct {
	key        string
	comparison *ThreeWayComparison[T]
}

// NewMapper builds the mapping of the given versions. Any collection may
// be nil. A nil normalizer selects pathnorm.NFC.
//
// Original versions are expected to be free of collisions; when two share
// a key the first one is kept. Client and server collisions are resolved
// deterministically and recorded in Problems.
func NewMapper[T models.Version](key KeyFunc[T], normalizer pathnorm.Normalizer, original, client, server []T) *Mapper[T] {
	if normalizer == nil {
		normalizer = pathnorm.NFC
	}

	m := &Mapper[T]{
		key:        key,
		normalizer: normalizer,
		entries:    make(map[string]*mapEntry[T]),
		original:   original,
		client:     client,
		server:     server,
	}
	problems := newProblemsBuilder[T]()

	for _, v := range original {
		comparison := m.comparisonFor(v)
		if _, ok := comparison.Original(); !ok {
			comparison.SetOriginal(v)
		}
	}
	for _, v := range client {
		comparison := m.comparisonFor(v)
		if stored, ok := comparison.Client(); ok {
			v = m.choose(models.SideClient, stored, v, problems)
		}
		comparison.SetClient(v)
	}
	for _, v := range server {
		comparison := m.comparisonFor(v)
		if stored, ok := comparison.Server(); ok {
			v = m.choose(models.SideServer, stored, v, problems)
		}
		comparison.SetServer(v)
	}

	slices.SortFunc(m.order, func(a, b *mapEntry[T]) int {
		return pathnorm.CompareKeys(a.key, b.key)
	})
	m.problems = problems.build()
	return m
}

// NewFileMapper maps file versions by name
func NewFileMapper(original, client, server []models.FileVersion) *Mapper[models.FileVersion] {
	return NewMapper(FileKey, pathnorm.NFC, original, client, server)
}

// NewDirectoryMapper maps directory versions by path
func NewDirectoryMapper(original, client, server []models.DirectoryVersion) *Mapper[models.DirectoryVersion] {
	return NewMapper(DirectoryKey, pathnorm.NFC, original, client, server)
}

// comparisonFor returns the comparison for the version's normalized key,
// creating it on first use
func (m *Mapper[T]) comparisonFor(v T) *ThreeWayComparison[T] {
	normalized := m.normalizer.Normalize(m.key(v))
	folded := pathnorm.FoldKey(normalized)
	if e, ok := m.entries[folded]; ok {
		return e.comparison
	}
	e := &mapEntry[T]{key: normalized, comparison: NewThreeWayComparison[T]()}
	m.entries[folded] = e
	m.order = append(m.order, e)
	return e.comparison
}

// choose resolves a collision between the version already stored for one
// side and an incoming one whose key maps to the same entry. The loser is
// recorded; the winner is returned.
//
// When both raw keys are normalized the stored version wins and the
// incoming one is a duplicate (identical keys) or a case conflict.
// Otherwise a normalized key beats a non-normalized one; if neither is
// normalized the stored version wins.
func (m *Mapper[T]) choose(side models.Side, stored, incoming T, problems *problemsBuilder[T]) T {
	storedKey, incomingKey := m.key(stored), m.key(incoming)
	storedNormalized := m.normalizer.IsNormalized(storedKey)
	incomingNormalized := m.normalizer.IsNormalized(incomingKey)

	if storedNormalized && incomingNormalized {
		if storedKey == incomingKey {
			problems.add(side, models.ProblemDuplicate, incoming)
		} else {
			problems.add(side, models.ProblemCaseConflict, incoming)
		}
		return stored
	}
	if incomingNormalized {
		problems.add(side, models.ProblemUnicodeConflict, stored)
		return incoming
	}
	problems.add(side, models.ProblemUnicodeConflict, incoming)
	return stored
}

// Get returns the comparison mapped to key. The lookup normalizes key and
// ignores case.
func (m *Mapper[T]) Get(key string) (*ThreeWayComparison[T], bool) {
	e, ok := m.entries[pathnorm.FoldKey(m.normalizer.Normalize(key))]
	if !ok {
		return nil, false
	}
	return e.comparison, true
}

// Keys returns the normalized keys in case-insensitive order
func (m *Mapper[T]) Keys() []string {
	keys := make([]string, 0, len(m.order))
	for _, e := range m.order {
		keys = append(keys, e.key)
	}
	return keys
}

// All iterates over keys and comparisons in case-insensitive key order
func (m *Mapper[T]) All() iter.Seq2[string, *ThreeWayComparison[T]] {
	return func(yield func(string, *ThreeWayComparison[T]) bool) {
		for _, e := range m.order {
			if !yield(e.key, e.comparison) {
				return
			}
		}
	}
}

// Len returns the number of mapped keys
func (m *Mapper[T]) Len() int {
	return len(m.order)
}

// OriginalVersions returns the original collection as passed in
func (m *Mapper[T]) OriginalVersions() []T { return m.original }

// ClientVersions returns the client collection as passed in
func (m *Mapper[T]) ClientVersions() []T { return m.client }

// ServerVersions returns the server collection as passed in
func (m *Mapper[T]) ServerVersions() []T { return m.server }

// Problems returns the collisions recorded while mapping
func (m *Mapper[T]) Problems() *Problems[T] {
	return m.problems
}
