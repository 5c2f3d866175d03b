package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Client provides the read-only git queries the checker depends on
type Client interface {
	// Toplevel returns the absolute path of the working tree root
	Toplevel(ctx context.Context) (string, error)
	// ListTracked lists files recorded in HEAD under root, relative to the
	// repository root. A repository without commits has no tracked files.
	ListTracked(ctx context.Context, root string) ([]string, error)
	// ListStagedChanges lists index changes relative to HEAD under root,
	// with rename detection enabled.
	ListStagedChanges(ctx context.Context, root string) ([]StatusEntry, error)
}

// QueryError reports a git invocation that could not run or exited non-zero.
type QueryError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *QueryError) Error() string {
	msg := fmt.Sprintf("git %s", strings.Join(e.Args, " "))
	if e.ExitCode > 0 {
		msg += fmt.Sprintf(" exited with status %d", e.ExitCode)
	} else {
		msg += " failed"
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// ShellClient implements Client by shelling out to the git command
type ShellClient struct {
	binary string
	dir    string
}

// NewShellClient creates a git client that runs binary (default "git")
// against the working tree at dir. An empty dir uses the process working
// directory.
func NewShellClient(binary, dir string) *ShellClient {
	if binary == "" {
		binary = "git"
	}
	return &ShellClient{
		binary: binary,
		dir:    dir,
	}
}

// Toplevel returns the absolute path of the working tree root
func (c *ShellClient) Toplevel(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// HasHead reports whether HEAD points at a commit. It is false in a freshly
// initialized repository.
func (c *ShellClient) HasHead(ctx context.Context) (bool, error) {
	_, err := c.run(ctx, "rev-parse", "--verify", "--quiet", "HEAD^{commit}")
	if err == nil {
		return true, nil
	}

	// --verify --quiet exits 1 without output for an unborn branch; anything
	// else (e.g. 128 outside a repository) is a real failure
	var qe *QueryError
	if errors.As(err, &qe) && qe.ExitCode == 1 && qe.Stderr == "" {
		return false, nil
	}
	return false, err
}

// ListTracked lists every file in HEAD under root, recursively
func (c *ShellClient) ListTracked(ctx context.Context, root string) ([]string, error) {
	head, err := c.HasHead(ctx)
	if err != nil {
		return nil, err
	}
	if !head {
		return nil, nil
	}

	// --full-tree makes both the pathspec and the output relative to the
	// repository root regardless of the working directory
	args := []string{"ls-tree", "--name-only", "--full-tree", "-r", "-z", "HEAD"}
	if root != "" && root != "." {
		args = append(args, "--", root)
	}

	out, err := c.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	return splitNUL(out), nil
}

// ListStagedChanges compares the index with HEAD (or the empty tree when
// there is no commit yet) and returns the name-status records.
func (c *ShellClient) ListStagedChanges(ctx context.Context, root string) ([]StatusEntry, error) {
	head, err := c.HasHead(ctx)
	if err != nil {
		return nil, err
	}

	args := []string{"diff", "--cached", "--name-status", "--find-renames", "-z"}
	if head {
		args = append(args, "HEAD")
	}
	if root != "" && root != "." {
		args = append(args, "--", ":(top,literal)"+root)
	}

	out, err := c.run(ctx, args...)
	if err != nil {
		return nil, err
	}

	entries, err := ParseNameStatus(out)
	if err != nil {
		return nil, fmt.Errorf("failed to parse git diff output: %w", err)
	}
	return entries, nil
}

// run executes git with the given arguments and returns stdout. Failures to
// spawn and non-zero exits are reported as *QueryError.
func (c *ShellClient) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.binary, args...)
	if c.dir != "" {
		cmd.Args = insertGitFlags(cmd.Args, "-C", c.dir)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		qe := &QueryError{
			Args:   args,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			qe.ExitCode = exitErr.ExitCode()
		}
		return nil, qe
	}
	return stdout.Bytes(), nil
}

// insertGitFlags inserts flags immediately after the "git" command name,
// before the subcommand (e.g. "ls-tree", "diff").
func insertGitFlags(args []string, flags ...string) []string {
	if len(args) == 0 {
		return flags
	}
	result := make([]string, 0, len(args)+len(flags))
	result = append(result, args[0])
	result = append(result, flags...)
	result = append(result, args[1:]...)
	return result
}

// splitNUL splits NUL-terminated records, dropping empty ones.
func splitNUL(data []byte) []string {
	var out []string
	for _, field := range strings.Split(string(data), "\x00") {
		if field != "" {
			out = append(out, field)
		}
	}
	return out
}
