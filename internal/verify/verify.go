// Package verify applies the asset/descriptor pairing rules to a tracked
// snapshot and to a staged change set.
//
// The verifier never touches git or the filesystem directly: the tracked set
// and change set are plain values and the working-tree lookup needed for
// file/directory distinction is an injected Classifier.
package verify

import (
	"github.com/schaermu/metapair/internal/asset"
)

// Verifier checks pairing consistency below an asset root
type Verifier struct {
	root     asset.Path
	pairing  *asset.Pairing
	classify Classifier
}

// New creates a verifier for paths below root
func New(root asset.Path, pairing *asset.Pairing, classify Classifier) *Verifier {
	if pairing == nil {
		pairing = asset.DefaultPairing()
	}
	return &Verifier{
		root:     root,
		pairing:  pairing,
		classify: classify,
	}
}

// VerifyTracked checks that every tracked asset has its descriptor and every
// tracked descriptor has its asset. Paths missing from the working tree are
// skipped.
func (v *Verifier) VerifyTracked(tracked asset.Set) Verdict {
	var c collector

	for _, p := range tracked.Sorted() {
		if v.pairing.IsIgnored(p) {
			continue
		}

		kind := v.classify(p)
		switch {
		case kind == Dir:
			desc := v.pairing.DescriptorOf(p)
			if !v.exempt(desc) && !tracked.Has(desc) {
				c.add(Violation{Kind: DirectoryWithoutDescriptor, Path: p, Pair: desc})
			}
		case kind == File && v.pairing.IsDescriptor(p):
			owner := v.pairing.AssetOf(p)
			if !v.exempt(owner) && !tracked.Has(owner) {
				c.add(Violation{Kind: DescriptorWithoutAsset, Path: p, Pair: owner})
			}
		case kind == File:
			desc := v.pairing.DescriptorOf(p)
			if !v.exempt(desc) && !tracked.Has(desc) {
				c.add(Violation{Kind: AssetWithoutDescriptor, Path: p, Pair: desc})
			}
		}
	}

	return c.verdict()
}

// delta is a change set with ignored paths removed and renames with exactly
// one ignored side folded into additions or deletions.
type delta struct {
	added   asset.Set
	deleted asset.Set
	renames []asset.Renamed
	renamed map[asset.Renamed]struct{}
	sources asset.Set
	targets asset.Set
}

func (v *Verifier) normalize(changes asset.ChangeSet) delta {
	d := delta{
		added:   make(asset.Set),
		deleted: make(asset.Set),
		renamed: make(map[asset.Renamed]struct{}),
		sources: make(asset.Set),
		targets: make(asset.Set),
	}

	for p := range changes.Added {
		if !v.pairing.IsIgnored(p) {
			d.added.Add(p)
		}
	}
	for p := range changes.Deleted {
		if !v.pairing.IsIgnored(p) {
			d.deleted.Add(p)
		}
	}
	for _, r := range changes.Renames() {
		fromIgnored, toIgnored := v.pairing.IsIgnored(r.From), v.pairing.IsIgnored(r.To)
		switch {
		case fromIgnored && toIgnored:
		case fromIgnored:
			d.added.Add(r.To)
		case toIgnored:
			d.deleted.Add(r.From)
		default:
			d.renames = append(d.renames, r)
			d.renamed[r] = struct{}{}
			d.sources.Add(r.From)
			d.targets.Add(r.To)
		}
	}
	return d
}

// VerifyChanges checks that staged additions, deletions and renames keep
// assets and descriptors together. tracked is the pre-commit snapshot.
func (v *Verifier) VerifyChanges(tracked asset.Set, changes asset.ChangeSet) Verdict {
	var c collector
	d := v.normalize(changes)
	created := v.createdDirs(tracked, d)
	dirs := v.dirsAfter(tracked, d)

	v.checkAdditions(&c, tracked, d, created)
	v.checkCreatedDirs(&c, tracked, d, created)
	v.checkDeletions(&c, tracked, d, dirs)
	v.checkEmptiedDirs(&c, tracked, d, dirs)
	v.checkRenames(&c, tracked, d, created)

	return c.verdict()
}

// checkAdditions requires the partner of every added path to be added too,
// renamed into place or already tracked. A directory created by the same
// commit counts as added.
func (v *Verifier) checkAdditions(c *collector, tracked asset.Set, d delta, created asset.Set) {
	for _, p := range d.added.Sorted() {
		pair := v.pairing.PairOf(p)
		if v.exempt(pair) {
			continue
		}
		if d.added.Has(pair) || d.targets.Has(pair) || tracked.Has(pair) || created.Has(pair) {
			continue
		}
		c.add(Violation{Kind: UnpairedAddition, Path: p, Pair: pair})
	}
}

// createdDirs returns the directories below root that the staged additions
// and rename targets bring into existence.
func (v *Verifier) createdDirs(tracked asset.Set, d delta) asset.Set {
	created := make(asset.Set)
	for _, set := range []asset.Set{d.added, d.targets} {
		for p := range set {
			for _, dir := range p.Ancestors(v.root) {
				if tracked.Has(dir) {
					break
				}
				created.Add(dir)
			}
		}
	}
	return created
}

// checkCreatedDirs requires every new directory to come with a descriptor.
func (v *Verifier) checkCreatedDirs(c *collector, tracked asset.Set, d delta, created asset.Set) {
	for _, dir := range created.Sorted() {
		desc := v.pairing.DescriptorOf(dir)
		if v.exempt(dir) || v.exempt(desc) {
			continue
		}
		if d.added.Has(desc) || d.targets.Has(desc) || tracked.Has(desc) {
			continue
		}
		c.add(Violation{Kind: UnpairedDirectory, Path: dir, Pair: desc})
	}
}

// checkDeletions flags a deleted path whose partner remains: still tracked
// and neither deleted nor renamed away in the same batch. A tracked directory
// partner is removed once none of its files survive.
func (v *Verifier) checkDeletions(c *collector, tracked asset.Set, d delta, dirs trackedDirs) {
	for _, p := range d.deleted.Sorted() {
		pair := v.pairing.PairOf(p)
		if v.exempt(pair) {
			continue
		}
		if !tracked.Has(pair) || d.deleted.Has(pair) || d.sources.Has(pair) || dirs.emptied(pair) {
			continue
		}
		c.add(Violation{Kind: UnpairedDeletion, Path: p, Pair: pair})
	}
}

// trackedDirs holds the tracked directories below root and those of them
// that still contain a file once the staged changes apply.
type trackedDirs struct {
	all   asset.Set
	alive asset.Set
}

// emptied reports whether p is a tracked directory left without files
func (t trackedDirs) emptied(p asset.Path) bool {
	return t.all.Has(p) && !t.alive.Has(p)
}

func (v *Verifier) dirsAfter(tracked asset.Set, d delta) trackedDirs {
	t := trackedDirs{all: make(asset.Set), alive: make(asset.Set)}
	for p := range tracked {
		if parent := p.Dir(); parent.Within(v.root) {
			t.all.Add(parent)
		}
	}

	keep := func(p asset.Path) {
		for _, dir := range p.Ancestors(v.root) {
			if t.alive.Has(dir) {
				break
			}
			t.alive.Add(dir)
		}
	}
	for p := range tracked {
		if !t.all.Has(p) && !d.deleted.Has(p) && !d.sources.Has(p) {
			keep(p)
		}
	}
	for p := range d.added {
		keep(p)
	}
	for p := range d.targets {
		keep(p)
	}
	return t
}

// checkEmptiedDirs flags tracked directories whose every file is deleted or
// moved away while their descriptor stays behind.
func (v *Verifier) checkEmptiedDirs(c *collector, tracked asset.Set, d delta, dirs trackedDirs) {
	for _, dir := range dirs.all.Sorted() {
		if !dirs.emptied(dir) || v.exempt(dir) {
			continue
		}
		desc := v.pairing.DescriptorOf(dir)
		if v.exempt(desc) || !tracked.Has(desc) {
			continue
		}
		if d.deleted.Has(desc) || d.sources.Has(desc) {
			continue
		}
		c.add(Violation{Kind: UnpairedDirectoryGone, Path: dir, Pair: desc})
	}
}

// checkRenames requires descriptor renames to follow asset renames and vice
// versa, unless the partner was deleted and re-added under the new name.
// Renames changing whether a path is a descriptor are not paired.
func (v *Verifier) checkRenames(c *collector, tracked asset.Set, d delta, created asset.Set) {
	for _, r := range d.renames {
		fromDesc, toDesc := v.pairing.IsDescriptor(r.From), v.pairing.IsDescriptor(r.To)
		if fromDesc != toDesc {
			continue
		}

		var pairFrom, pairTo asset.Path
		if fromDesc {
			pairFrom, pairTo = v.pairing.AssetOf(r.From), v.pairing.AssetOf(r.To)
		} else {
			pairFrom, pairTo = v.pairing.DescriptorOf(r.From), v.pairing.DescriptorOf(r.To)
		}
		if v.exempt(pairFrom) || v.exempt(pairTo) {
			continue
		}

		if _, ok := d.renamed[asset.Renamed{From: pairFrom, To: pairTo}]; ok {
			continue
		}
		if tracked.Has(pairTo) {
			continue
		}
		// Partner replaced: old one gone, new one added
		if d.added.Has(pairTo) && (!tracked.Has(pairFrom) || d.deleted.Has(pairFrom)) {
			continue
		}
		// Directories move implicitly with their contents
		if fromDesc && created.Has(pairTo) {
			continue
		}

		c.add(Violation{
			Kind:       UnpairedRename,
			Path:       r.From,
			Target:     r.To,
			Pair:       pairFrom,
			PairTarget: pairTo,
		})
	}
}

// exempt reports whether p is excluded from pairing, either as a subject or
// as the partner another path refers to.
func (v *Verifier) exempt(p asset.Path) bool {
	return v.pairing.IsIgnored(p)
}
