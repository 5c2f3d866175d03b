// Package check runs the pairing verification for a repository: it gathers
// the tracked snapshot and the staged changes from git, applies the enabled
// verification passes and reports the aggregated verdict.
package check

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/schaermu/metapair/internal/asset"
	"github.com/schaermu/metapair/internal/config"
	"github.com/schaermu/metapair/internal/git"
	"github.com/schaermu/metapair/internal/snapshot"
	"github.com/schaermu/metapair/internal/verify"
)

// Engine orchestrates one pairing check
type Engine struct {
	cfg      *config.Config
	git      git.Client
	classify verify.Classifier
	logger   *slog.Logger
}

// NewEngine creates a new check engine. Paths are classified against the
// working tree reported by the git client unless a classifier is set with
// WithClassifier.
func NewEngine(cfg *config.Config, gitClient git.Client, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		git:    gitClient,
		logger: logger,
	}
}

// WithClassifier overrides the working-tree classifier
func (e *Engine) WithClassifier(classify verify.Classifier) *Engine {
	e.classify = classify
	return e
}

// inputs is what the verification passes consume
type inputs struct {
	tracked asset.Set
	changes asset.ChangeSet
}

// Run gathers the repository state and runs the enabled passes. An error
// means the state could not be read and no pass ran.
func (e *Engine) Run(ctx context.Context) (verify.Verdict, error) {
	root := e.cfg.Root()
	e.logger.Info("starting check",
		"root", root,
		"tracked", e.cfg.TrackedEnabled(),
		"staged", e.cfg.StagedEnabled(),
		"parallel", e.cfg.ParallelEnabled())

	pairing, err := e.cfg.Pairing()
	if err != nil {
		return verify.Verdict{}, fmt.Errorf("failed to build pairing rules: %w", err)
	}

	classify := e.classify
	if classify == nil {
		top, err := e.git.Toplevel(ctx)
		if err != nil {
			return verify.Verdict{}, fmt.Errorf("failed to resolve repository root: %w", err)
		}
		e.logger.Debug("resolved repository root", "toplevel", top)
		classify = verify.DiskClassifier(top)
	}

	in, err := e.gather(ctx, root)
	if err != nil {
		return verify.Verdict{}, err
	}
	e.logger.Debug("repository state gathered",
		"tracked", in.tracked.Len(),
		"added", len(in.changes.Added),
		"deleted", len(in.changes.Deleted),
		"renamed", len(in.changes.Renamed))

	verifier := verify.New(root, pairing, classify)

	var verdicts []verify.Verdict
	if e.cfg.TrackedEnabled() {
		v := verifier.VerifyTracked(in.tracked)
		e.logger.Debug("tracked pass complete", "violations", len(v.Violations()))
		verdicts = append(verdicts, v)
	}
	if e.cfg.StagedEnabled() {
		v := verifier.VerifyChanges(in.tracked, in.changes)
		e.logger.Debug("staged pass complete", "violations", len(v.Violations()))
		verdicts = append(verdicts, v)
	}

	verdict := verify.Merge(verdicts...)
	if !verdict.OK() {
		e.logger.Info("check found violations", "count", len(verdict.Violations()))
	} else {
		e.logger.Info("check passed")
	}
	return verdict, nil
}

// gather reads the tracked snapshot and, if the staged pass is enabled, the
// staged change set. Either failure aborts the whole check.
func (e *Engine) gather(ctx context.Context, root asset.Path) (inputs, error) {
	var in inputs

	readTracked := func(ctx context.Context) error {
		tracked, err := snapshot.ReadTracked(ctx, e.git, root)
		if err != nil {
			return fmt.Errorf("failed to read tracked files: %w", err)
		}
		in.tracked = tracked
		return nil
	}
	readStaged := func(ctx context.Context) error {
		if !e.cfg.StagedEnabled() {
			in.changes = asset.NewChangeSet()
			return nil
		}
		changes, err := snapshot.ReadStagedChanges(ctx, e.git, root)
		if err != nil {
			return fmt.Errorf("failed to read staged changes: %w", err)
		}
		in.changes = changes
		return nil
	}

	if !e.cfg.ParallelEnabled() {
		if err := readTracked(ctx); err != nil {
			return inputs{}, err
		}
		if err := readStaged(ctx); err != nil {
			return inputs{}, err
		}
		return in, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return readTracked(gctx) })
	g.Go(func() error { return readStaged(gctx) })
	if err := g.Wait(); err != nil {
		return inputs{}, err
	}
	return in, nil
}
