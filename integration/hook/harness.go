//go:build integration

package hook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/schaermu/metapair/internal/testutil"
)

const defaultTimeout = 2 * time.Minute

// Harness wires a freshly built metapair binary into a fixture repository as
// its pre-commit hook
type Harness struct {
	*testutil.Repo
	t      *testing.T
	binary string
}

// CommitResult captures one git commit attempt
type CommitResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// NewHarness installs binary as the pre-commit hook of a new repository
func NewHarness(t *testing.T, binary string, hookArgs ...string) *Harness {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell hooks are not supported on windows")
	}

	h := &Harness{Repo: testutil.InitRepo(t), t: t, binary: binary}
	h.installHook(hookArgs...)
	return h
}

func (h *Harness) installHook(args ...string) {
	h.t.Helper()
	hookPath := filepath.Join(h.Dir, ".git", "hooks", "pre-commit")
	if err := os.MkdirAll(filepath.Dir(hookPath), 0755); err != nil {
		h.t.Fatalf("create hooks dir: %v", err)
	}

	script := fmt.Sprintf("#!/bin/sh\nexec %q --no-color", h.binary)
	for _, a := range args {
		script += fmt.Sprintf(" %q", a)
	}
	script += "\n"

	if err := os.WriteFile(hookPath, []byte(script), 0755); err != nil {
		h.t.Fatalf("write pre-commit hook: %v", err)
	}
}

// TryCommit runs git commit with hooks enabled and reports the outcome
// instead of failing the test.
func (h *Harness) TryCommit(msg string) CommitResult {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", "-C", h.Dir, "commit", "-q", "-m", msg)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	res := CommitResult{}
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			h.t.Fatalf("run git commit: %v", err)
		}
		res.ExitCode = exitErr.ExitCode()
	}
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	return res
}

// Run executes the binary directly in dir
func (h *Harness) Run(args ...string) CommitResult {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, h.binary, append([]string{"--no-color"}, args...)...)
	cmd.Dir = h.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	res := CommitResult{}
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			h.t.Fatalf("run metapair: %v", err)
		}
		res.ExitCode = exitErr.ExitCode()
	}
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	return res
}
