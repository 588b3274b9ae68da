package models

// ProblemKind categorizes a naming collision found while mapping versions
type ProblemKind string

const (
	// ProblemCaseConflict indicates two names differing only in case
	ProblemCaseConflict ProblemKind = "case-conflict"
	// ProblemUnicodeConflict indicates a name not in normalized form
	// colliding with another one
	ProblemUnicodeConflict ProblemKind = "unicode-conflict"
	// ProblemDuplicate indicates the exact same name reported twice
	ProblemDuplicate ProblemKind = "duplicate"
)

// Problem is a version that lost a naming collision. The version was
// left out of the mapping.
type Problem struct {
	// Directory is the parent directory path for file problems, empty
	// for directory problems
	Directory string `json:"directory,omitempty"`

	// Side is where the losing version was reported
	Side Side `json:"side"`

	// Kind categorizes the collision
	Kind ProblemKind `json:"kind"`

	// Version describes the losing version
	Version string `json:"version"`
}
