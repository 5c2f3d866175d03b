package asset

import (
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Path is a slash-separated path relative to the repository root.
// Paths are compared by their cleaned string form.
type Path string

// NewPath normalizes p into a Path. Separators are converted to slashes,
// redundant elements and trailing slashes are removed.
func NewPath(p string) Path {
	return Path(path.Clean(filepath.ToSlash(p)))
}

// String returns the path as a string
func (p Path) String() string {
	return string(p)
}

// Base returns the last element of the path
func (p Path) Base() string {
	return path.Base(string(p))
}

// Dir returns all but the last element of the path
func (p Path) Dir() Path {
	return Path(path.Dir(string(p)))
}

// Ext returns the file name extension of the last element
func (p Path) Ext() string {
	return path.Ext(string(p))
}

// Parts splits the path into its elements.
func (p Path) Parts() []string {
	if p == "." || p == "" {
		return nil
	}
	return strings.Split(string(p), "/")
}

// Within reports whether p lies strictly below root.
func (p Path) Within(root Path) bool {
	if p == root {
		return false
	}
	if root == "." || root == "" {
		return p != "." && p != ".." && !strings.HasPrefix(string(p), "../")
	}
	return strings.HasPrefix(string(p), string(root)+"/")
}

// Ancestors returns the proper ancestors of p that lie strictly below root,
// nearest first.
func (p Path) Ancestors(root Path) []Path {
	var out []Path
	for d := p.Dir(); d.Within(root); d = d.Dir() {
		out = append(out, d)
	}
	return out
}

// Set is an unordered collection of paths.
type Set map[Path]struct{}

// NewSet returns a set holding the given paths
func NewSet(paths ...Path) Set {
	s := make(Set, len(paths))
	for _, p := range paths {
		s.Add(p)
	}
	return s
}

// Add inserts p into the set
func (s Set) Add(p Path) {
	s[p] = struct{}{}
}

// Has reports whether p is in the set. A nil set holds nothing.
func (s Set) Has(p Path) bool {
	_, ok := s[p]
	return ok
}

// Len returns the number of paths in the set
func (s Set) Len() int {
	return len(s)
}

// Sorted returns the paths in lexical order.
func (s Set) Sorted() []Path {
	out := make([]Path, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
