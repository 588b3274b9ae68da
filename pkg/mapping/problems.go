package mapping

import (
	"slices"
	"strings"

	"github.com/sdejongh/drivesync/pkg/models"
)

// Problems records the versions that lost a naming collision while a
// mapping was built. It is read-only once the mapping is complete.
type Problems[T models.Version] struct {
	caseConflicts    map[models.Side][]T
	unicodeConflicts map[models.Side][]T
	duplicates       map[models.Side][]T
}

// CaseConflicts returns versions whose name equals another one apart from
// letter case
func (p *Problems[T]) CaseConflicts(side models.Side) []T {
	return slices.Clone(p.caseConflicts[side])
}

// UnicodeConflicts returns versions that collided with another one after
// Unicode normalization
func (p *Problems[T]) UnicodeConflicts(side models.Side) []T {
	return slices.Clone(p.unicodeConflicts[side])
}

// Duplicates returns versions whose name was reported more than once
func (p *Problems[T]) Duplicates(side models.Side) []T {
	return slices.Clone(p.duplicates[side])
}

// IsEmpty returns true if no collision was recorded on either side
func (p *Problems[T]) IsEmpty() bool {
	return p.Count() == 0
}

// Count returns the total number of recorded versions
func (p *Problems[T]) Count() int {
	n := 0
	for _, side := range sides {
		n += len(p.caseConflicts[side]) + len(p.unicodeConflicts[side]) + len(p.duplicates[side])
	}
	return n
}

// Records flattens the problems for reporting. directory is attached to
// every record and may be empty.
func (p *Problems[T]) Records(directory string) []models.Problem {
	var records []models.Problem
	for _, group := range p.groups() {
		for _, v := range group.versions {
			records = append(records, models.Problem{
				Directory: directory,
				Side:      group.side,
				Kind:      group.kind,
				Version:   models.Describe(v),
			})
		}
	}
	return records
}

// String renders a diagnostic report, one version per line, grouped by
// category. It is meant for logs, not for parsing.
func (p *Problems[T]) String() string {
	var sb strings.Builder
	for _, group := range p.groups() {
		if len(group.versions) == 0 {
			continue
		}
		sb.WriteString(group.title)
		sb.WriteString(":\n")
		for _, v := range group.versions {
			sb.WriteString("  ")
			sb.WriteString(models.Describe(v))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

var sides = []models.Side{models.SideClient, models.SideServer}

type problemGroup[T models.Version] struct {
	side     models.Side
	kind     models.ProblemKind
	title    string
	versions []T
}

func (p *Problems[T]) groups() []problemGroup[T] {
	var groups []problemGroup[T]
	for _, side := range sides {
		groups = append(groups,
			problemGroup[T]{side, models.ProblemCaseConflict, "Case conflicting " + string(side) + " versions", p.caseConflicts[side]},
			problemGroup[T]{side, models.ProblemUnicodeConflict, "Unicode conflicting " + string(side) + " versions", p.unicodeConflicts[side]},
			problemGroup[T]{side, models.ProblemDuplicate, "Duplicate " + string(side) + " versions", p.duplicates[side]},
		)
	}
	return groups
}

// problemsBuilder accumulates collisions during mapping construction
type problemsBuilder[T models.Version] struct {
	lists map[models.ProblemKind]map[models.Side][]T
}

func newProblemsBuilder[T models.Version]() *problemsBuilder[T] {
	return &problemsBuilder[T]{lists: make(map[models.ProblemKind]map[models.Side][]T)}
}

func (b *problemsBuilder[T]) add(side models.Side, kind models.ProblemKind, v T) {
	if b.lists[kind] == nil {
		b.lists[kind] = make(map[models.Side][]T)
	}
	b.lists[kind][side] = append(b.lists[kind][side], v)
}

// build returns the immutable record; every list is non-nil
func (b *problemsBuilder[T]) build() *Problems[T] {
	collect := func(kind models.ProblemKind) map[models.Side][]T {
		m := make(map[models.Side][]T, len(sides))
		for _, side := range sides {
			m[side] = append([]T{}, b.lists[kind][side]...)
		}
		return m
	}
	return &Problems[T]{
		caseConflicts:    collect(models.ProblemCaseConflict),
		unicodeConflicts: collect(models.ProblemUnicodeConflict),
		duplicates:       collect(models.ProblemDuplicate),
	}
}
