package verify

import (
	"fmt"
	"sort"

	"github.com/schaermu/metapair/internal/asset"
)

// ViolationKind names a broken pairing rule
type ViolationKind string

const (
	// Tracked-state violations
	DirectoryWithoutDescriptor ViolationKind = "directory asset missing descriptor"
	DescriptorWithoutAsset     ViolationKind = "descriptor present without asset"
	AssetWithoutDescriptor     ViolationKind = "asset present without descriptor"

	// Staged-delta violations
	UnpairedAddition      ViolationKind = "unpaired addition"
	UnpairedDirectory     ViolationKind = "unpaired directory addition"
	UnpairedDeletion      ViolationKind = "unpaired deletion"
	UnpairedDirectoryGone ViolationKind = "unpaired directory removal"
	UnpairedRename        ViolationKind = "unpaired rename"
)

// Violation describes one broken pairing. Path is the offending path and
// Pair the partner it is missing. Renames also carry the destinations in
// Target and PairTarget.
type Violation struct {
	Kind       ViolationKind
	Path       asset.Path
	Target     asset.Path
	Pair       asset.Path
	PairTarget asset.Path
}

// Message renders the violation as a single human-readable line
func (v Violation) Message() string {
	switch v.Kind {
	case DirectoryWithoutDescriptor, DescriptorWithoutAsset, AssetWithoutDescriptor:
		return fmt.Sprintf("%s: %s (expected %s)", v.Kind, v.Path, v.Pair)
	case UnpairedAddition:
		return fmt.Sprintf("added %s without adding its pair %s", v.Path, v.Pair)
	case UnpairedDirectory:
		return fmt.Sprintf("added directory %s without adding its descriptor %s", v.Path, v.Pair)
	case UnpairedDeletion:
		return fmt.Sprintf("removed %s without removing %s", v.Path, v.Pair)
	case UnpairedDirectoryGone:
		return fmt.Sprintf("removed directory %s without removing %s", v.Path, v.Pair)
	case UnpairedRename:
		return fmt.Sprintf("renamed %s to %s without renaming paired %s to %s", v.Path, v.Target, v.Pair, v.PairTarget)
	default:
		return fmt.Sprintf("%s: %s", v.Kind, v.Path)
	}
}

func (v Violation) String() string {
	return v.Message()
}

// Verdict is the outcome of one or more verification passes
type Verdict struct {
	violations []Violation
}

// OK reports whether no violation was found
func (v Verdict) OK() bool {
	return len(v.violations) == 0
}

// Violations returns the violations ordered by path
func (v Verdict) Violations() []Violation {
	return v.violations
}

// Messages returns one rendered line per violation
func (v Verdict) Messages() []string {
	out := make([]string, len(v.violations))
	for i, violation := range v.violations {
		out[i] = violation.Message()
	}
	return out
}

// Merge combines verdicts. Duplicate violations are reported once and the
// result is ordered so repeated runs print identically.
func Merge(verdicts ...Verdict) Verdict {
	var c collector
	for _, v := range verdicts {
		for _, violation := range v.violations {
			c.add(violation)
		}
	}
	return c.verdict()
}

// collector accumulates violations in discovery order
type collector struct {
	seen map[Violation]struct{}
	list []Violation
}

func (c *collector) add(v Violation) {
	if c.seen == nil {
		c.seen = make(map[Violation]struct{})
	}
	if _, ok := c.seen[v]; ok {
		return
	}
	c.seen[v] = struct{}{}
	c.list = append(c.list, v)
}

func (c *collector) verdict() Verdict {
	list := append([]Violation(nil), c.list...)
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Target < b.Target
	})
	return Verdict{violations: list}
}
