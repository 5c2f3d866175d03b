package verify

import (
	"os"
	"path/filepath"

	"github.com/schaermu/metapair/internal/asset"
)

// Kind is what a path currently is in the working tree
type Kind int

const (
	Missing Kind = iota
	File
	Dir
)

func (k Kind) String() string {
	switch k {
	case File:
		return "file"
	case Dir:
		return "dir"
	default:
		return "missing"
	}
}

// Classifier reports what a repository-relative path is on disk
type Classifier func(asset.Path) Kind

// DiskClassifier stats paths relative to the working tree at root.
func DiskClassifier(root string) Classifier {
	return func(p asset.Path) Kind {
		info, err := os.Stat(filepath.Join(root, filepath.FromSlash(string(p))))
		if err != nil {
			return Missing
		}
		if info.IsDir() {
			return Dir
		}
		return File
	}
}

// StaticClassifier classifies from fixed sets of paths; anything else is
// Missing.
func StaticClassifier(files, dirs asset.Set) Classifier {
	return func(p asset.Path) Kind {
		switch {
		case dirs.Has(p):
			return Dir
		case files.Has(p):
			return File
		default:
			return Missing
		}
	}
}
