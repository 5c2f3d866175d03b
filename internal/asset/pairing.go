package asset

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultDescriptorSuffix is the suffix Unity appends to an asset name to
// name its descriptor.
const DefaultDescriptorSuffix = ".meta"

// Pairing holds the naming rules that tie assets to their descriptors and
// the rules that exempt paths from pairing altogether.
type Pairing struct {
	suffix string
	ignore []string
}

// NewPairing creates pairing rules for the given descriptor suffix. Ignore
// patterns are doublestar globs matched against repository-relative paths;
// a path is also ignored when any of its ancestors matches.
func NewPairing(suffix string, ignore ...string) (*Pairing, error) {
	if len(suffix) < 2 || !strings.HasPrefix(suffix, ".") {
		return nil, fmt.Errorf("invalid descriptor suffix %q: must start with '.' followed by a name", suffix)
	}
	if strings.Contains(suffix, "/") {
		return nil, fmt.Errorf("invalid descriptor suffix %q: must not contain '/'", suffix)
	}
	for _, pattern := range ignore {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid ignore pattern %q", pattern)
		}
	}
	return &Pairing{suffix: suffix, ignore: ignore}, nil
}

// DefaultPairing returns the Unity pairing rules with no extra ignore patterns.
func DefaultPairing() *Pairing {
	return &Pairing{suffix: DefaultDescriptorSuffix}
}

// Suffix returns the descriptor suffix
func (r *Pairing) Suffix() string {
	return r.suffix
}

// IsDescriptor reports whether p names a descriptor file.
func (r *Pairing) IsDescriptor(p Path) bool {
	base := p.Base()
	return len(base) > len(r.suffix) && strings.HasSuffix(base, r.suffix)
}

// DescriptorOf returns the descriptor path for an asset file or directory.
func (r *Pairing) DescriptorOf(p Path) Path {
	return p + Path(r.suffix)
}

// AssetOf returns the asset path a descriptor belongs to. Paths that are
// not descriptors are returned unchanged.
func (r *Pairing) AssetOf(p Path) Path {
	if !r.IsDescriptor(p) {
		return p
	}
	return Path(strings.TrimSuffix(string(p), r.suffix))
}

// PairOf returns the partner of p: the asset for a descriptor, the
// descriptor for anything else.
func (r *Pairing) PairOf(p Path) Path {
	if r.IsDescriptor(p) {
		return r.AssetOf(p)
	}
	return r.DescriptorOf(p)
}

// IsIgnored reports whether p is exempt from pairing. Hidden paths (any
// element starting with a period) are always ignored, as is anything
// matching an ignore pattern.
func (r *Pairing) IsIgnored(p Path) bool {
	if IsHidden(p) {
		return true
	}
	if len(r.ignore) == 0 {
		return false
	}
	for candidate := p; candidate != "." && candidate != "/" && candidate != ""; candidate = candidate.Dir() {
		for _, pattern := range r.ignore {
			if ok, err := doublestar.Match(pattern, string(candidate)); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// IsHidden reports whether any element of p starts with a period.
func IsHidden(p Path) bool {
	for _, part := range p.Parts() {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
