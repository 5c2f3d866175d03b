// Package snapshot derives the two inputs of the pairing check from git: the
// tracked set as of the last commit and the staged change set.
package snapshot

import (
	"context"
	"fmt"

	"github.com/schaermu/metapair/internal/asset"
	"github.com/schaermu/metapair/internal/git"
)

// ReadTracked returns every file recorded in HEAD under root, plus every
// ancestor directory of those files below root. On failure no partial set is
// returned.
func ReadTracked(ctx context.Context, client git.Client, root asset.Path) (asset.Set, error) {
	files, err := client.ListTracked(ctx, string(root))
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked files under %s: %w", root, err)
	}

	tracked := make(asset.Set, len(files))
	for _, f := range files {
		p := asset.NewPath(f)
		if !p.Within(root) {
			continue
		}
		tracked.Add(p)
		for _, dir := range p.Ancestors(root) {
			if tracked.Has(dir) {
				// Ancestors further up were added with it
				break
			}
			tracked.Add(dir)
		}
	}
	return tracked, nil
}

// ReadStagedChanges returns the additions, deletions and renames staged
// under root. Other status codes are dropped since pairing only depends on
// which paths exist. Renames crossing the root boundary count as a deletion
// or an addition on the side that lies inside root.
func ReadStagedChanges(ctx context.Context, client git.Client, root asset.Path) (asset.ChangeSet, error) {
	entries, err := client.ListStagedChanges(ctx, string(root))
	if err != nil {
		return asset.ChangeSet{}, fmt.Errorf("failed to list staged changes under %s: %w", root, err)
	}

	changes := asset.NewChangeSet()
	for _, e := range entries {
		p := asset.NewPath(e.Path)
		switch e.Code {
		case git.StatusAdded:
			if p.Within(root) {
				changes.Add(asset.Added{Path: p})
			}
		case git.StatusDeleted:
			if p.Within(root) {
				changes.Add(asset.Deleted{Path: p})
			}
		case git.StatusRenamed:
			from := asset.NewPath(e.OrigPath)
			switch {
			case from.Within(root) && p.Within(root):
				changes.Add(asset.Renamed{From: from, To: p})
			case from.Within(root):
				changes.Add(asset.Deleted{Path: from})
			case p.Within(root):
				changes.Add(asset.Added{Path: p})
			}
		}
	}
	return changes, nil
}
