package asset

import (
	"fmt"
	"sort"
)

// Change is a staged change to a single path. It is one of Added, Deleted
// or Renamed.
type Change interface {
	isChange()
	fmt.Stringer
}

// Added records a path that is new in the index
type Added struct {
	Path Path
}

// Deleted records a path that is removed in the index
type Deleted struct {
	Path Path
}

// Renamed records a path moved from one location to another, as detected
// by git's rename detection.
type Renamed struct {
	From Path
	To   Path
}

func (Added) isChange()   {}
func (Deleted) isChange() {}
func (Renamed) isChange() {}

func (c Added) String() string   { return "A " + string(c.Path) }
func (c Deleted) String() string { return "D " + string(c.Path) }
func (c Renamed) String() string { return "R " + string(c.From) + " -> " + string(c.To) }

// ChangeSet groups staged changes by kind. Duplicate records collapse.
type ChangeSet struct {
	Added   Set
	Deleted Set
	Renamed map[Renamed]struct{}
}

// NewChangeSet builds a ChangeSet from individual changes
func NewChangeSet(changes ...Change) ChangeSet {
	cs := ChangeSet{
		Added:   make(Set),
		Deleted: make(Set),
		Renamed: make(map[Renamed]struct{}),
	}
	for _, c := range changes {
		cs.Add(c)
	}
	return cs
}

// Add records a change in the set.
func (cs *ChangeSet) Add(c Change) {
	switch c := c.(type) {
	case Added:
		if cs.Added == nil {
			cs.Added = make(Set)
		}
		cs.Added.Add(c.Path)
	case Deleted:
		if cs.Deleted == nil {
			cs.Deleted = make(Set)
		}
		cs.Deleted.Add(c.Path)
	case Renamed:
		if cs.Renamed == nil {
			cs.Renamed = make(map[Renamed]struct{})
		}
		cs.Renamed[c] = struct{}{}
	}
}

// HasRename reports whether from was renamed to to
func (cs ChangeSet) HasRename(from, to Path) bool {
	_, ok := cs.Renamed[Renamed{From: from, To: to}]
	return ok
}

// Renames returns the rename records ordered by source then target.
func (cs ChangeSet) Renames() []Renamed {
	out := make([]Renamed, 0, len(cs.Renamed))
	for r := range cs.Renamed {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// Len returns the total number of records
func (cs ChangeSet) Len() int {
	return len(cs.Added) + len(cs.Deleted) + len(cs.Renamed)
}
