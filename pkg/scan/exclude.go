package scan

import (
	"path"
	"strings"
)

// Matcher decides which drive paths are left out of a scan.
//
// Supported patterns:
//   - name globs matched against the last path element: *.tmp, .DS_Store
//   - directory patterns ending in "/": .git/, node_modules/
//   - path globs containing "/": build/*, docs/*.bak, matched against the
//     trailing elements of the path; a leading "/" anchors them at the root
//   - "**/" prefixes matching at any depth: **/cache
type Matcher struct {
	names    []string
	dirs     []string
	paths    []string
	anchored []string
	deep     []string
}

// NewMatcher compiles exclude patterns
func NewMatcher(patterns []string) *Matcher {
	m := &Matcher{}
	for _, p := range patterns {
		p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
		switch {
		case p == "":
		case strings.HasSuffix(p, "/"):
			m.dirs = append(m.dirs, strings.Trim(p, "/"))
		case strings.HasPrefix(p, "**/"):
			m.deep = append(m.deep, strings.TrimPrefix(p, "**/"))
		case strings.HasPrefix(p, "/"):
			m.anchored = append(m.anchored, strings.TrimPrefix(p, "/"))
		case strings.Contains(p, "/"):
			m.paths = append(m.paths, p)
		default:
			m.names = append(m.names, p)
		}
	}
	return m
}

// Excluded reports whether a drive path matches any pattern
func (m *Matcher) Excluded(drivePath string) bool {
	rel := strings.TrimPrefix(drivePath, "/")
	if rel == "" {
		return false
	}
	elems := strings.Split(rel, "/")
	base := elems[len(elems)-1]

	for _, p := range m.names {
		if glob(p, base) {
			return true
		}
	}
	for _, dir := range m.dirs {
		for _, e := range elems {
			if glob(dir, e) {
				return true
			}
		}
	}
	for _, p := range m.anchored {
		if glob(p, rel) {
			return true
		}
	}
	for _, p := range m.paths {
		if globSuffix(p, elems) {
			return true
		}
	}
	for _, p := range m.deep {
		if globSuffix(p, elems) {
			return true
		}
	}
	return false
}

// globSuffix matches pattern against every run of trailing path elements
func globSuffix(pattern string, elems []string) bool {
	for i := range elems {
		if glob(pattern, strings.Join(elems[i:], "/")) {
			return true
		}
	}
	return false
}

func glob(pattern, name string) bool {
	matched, _ := path.Match(pattern, name)
	return matched
}
