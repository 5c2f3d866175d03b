package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// Repo is a throwaway git repository for tests
type Repo struct {
	t   *testing.T
	Dir string
}

// InitRepo creates an empty repository with an Assets directory in a fresh
// temporary directory. Commit identity is configured locally so commits work
// on machines without a global git config.
func InitRepo(t *testing.T) *Repo {
	t.Helper()
	r := &Repo{t: t, Dir: t.TempDir()}
	r.Git("init", "-q")
	r.Git("config", "user.email", "test@test.com")
	r.Git("config", "user.name", "Test")
	r.Git("config", "commit.gpgsign", "false")
	if err := os.MkdirAll(filepath.Join(r.Dir, "Assets"), 0755); err != nil {
		t.Fatal(err)
	}
	return r
}

// Git runs git in the repository and returns trimmed stdout. The test fails
// on a non-zero exit.
func (r *Repo) Git(args ...string) string {
	r.t.Helper()
	cmd := exec.Command("git", append([]string{"-C", r.Dir}, args...)...)
	out, err := cmd.Output()
	if err != nil {
		stderr := ""
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr = string(exitErr.Stderr)
		}
		r.t.Fatalf("git %v: %v: %s", args, err, stderr)
	}
	return strings.TrimSpace(string(out))
}

// WriteFile creates or overwrites a file, creating parent directories.
// Content defaults to the file's own path so that files never share content
// and rename detection stays unambiguous.
func (r *Repo) WriteFile(rel string, content ...string) {
	r.t.Helper()
	path := filepath.Join(r.Dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		r.t.Fatal(err)
	}
	data := rel + "\n"
	if len(content) > 0 {
		data = strings.Join(content, "")
	}
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		r.t.Fatal(err)
	}
}

// Add writes the given files and stages them
func (r *Repo) Add(rels ...string) {
	r.t.Helper()
	for _, rel := range rels {
		r.WriteFile(rel)
	}
	r.Git(append([]string{"add", "--"}, rels...)...)
}

// Commit records the index with the given message
func (r *Repo) Commit(msg string) {
	r.t.Helper()
	r.Git("commit", "-q", "--no-verify", "-m", msg)
}

// CommitFiles adds and commits the given files in one step
func (r *Repo) CommitFiles(rels ...string) {
	r.t.Helper()
	r.Add(rels...)
	r.Commit("add " + strings.Join(rels, ", "))
}

// Remove deletes files from the working tree and the index
func (r *Repo) Remove(rels ...string) {
	r.t.Helper()
	r.Git(append([]string{"rm", "-q", "--"}, rels...)...)
}

// Move renames a tracked file and stages the rename
func (r *Repo) Move(from, to string) {
	r.t.Helper()
	if err := os.MkdirAll(filepath.Dir(filepath.Join(r.Dir, filepath.FromSlash(to))), 0755); err != nil {
		r.t.Fatal(err)
	}
	r.Git("mv", from, to)
}
