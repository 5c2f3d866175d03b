package git

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/schaermu/metapair/internal/testutil"
)

func TestListTracked(t *testing.T) {
	ctx := context.Background()
	repo := testutil.InitRepo(t)
	repo.CommitFiles(
		"Assets/a.png",
		"Assets/a.png.meta",
		"Assets/dir/b.png",
		"ProjectSettings/settings.asset",
	)

	client := NewShellClient("", repo.Dir)

	got, err := client.ListTracked(ctx, "Assets")
	if err != nil {
		t.Fatalf("ListTracked: %v", err)
	}
	sort.Strings(got)

	want := []string{"Assets/a.png", "Assets/a.png.meta", "Assets/dir/b.png"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ListTracked() mismatch (-want +got):\n%s", diff)
	}

	all, err := client.ListTracked(ctx, ".")
	if err != nil {
		t.Fatalf("ListTracked(.): %v", err)
	}
	if len(all) != 4 {
		t.Errorf("expected 4 tracked files at repository root, got %v", all)
	}
}

func TestListTracked_FromSubdirectory(t *testing.T) {
	ctx := context.Background()
	repo := testutil.InitRepo(t)
	repo.CommitFiles("Assets/dir/a.png", "Assets/dir/a.png.meta")

	// Paths stay relative to the repository root
	client := NewShellClient("", filepath.Join(repo.Dir, "Assets", "dir"))
	got, err := client.ListTracked(ctx, "Assets")
	if err != nil {
		t.Fatalf("ListTracked: %v", err)
	}
	sort.Strings(got)

	want := []string{"Assets/dir/a.png", "Assets/dir/a.png.meta"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ListTracked() mismatch (-want +got):\n%s", diff)
	}
}

func TestListTracked_UnbornHead(t *testing.T) {
	repo := testutil.InitRepo(t)
	repo.Add("Assets/a.png")

	got, err := NewShellClient("", repo.Dir).ListTracked(context.Background(), "Assets")
	if err != nil {
		t.Fatalf("ListTracked on repository without commits: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no tracked files, got %v", got)
	}
}

func TestListTracked_NotARepository(t *testing.T) {
	client := NewShellClient("", t.TempDir())

	_, err := client.ListTracked(context.Background(), "Assets")
	if err == nil {
		t.Fatal("expected error outside a repository")
	}

	var qe *QueryError
	if !errors.As(err, &qe) {
		t.Fatalf("expected *QueryError, got %T: %v", err, err)
	}
	if qe.ExitCode == 0 {
		t.Errorf("expected non-zero exit code, got %d", qe.ExitCode)
	}
}

func TestListTracked_MissingBinary(t *testing.T) {
	client := NewShellClient("git-does-not-exist-"+t.Name(), t.TempDir())

	_, err := client.ListTracked(context.Background(), "Assets")
	var qe *QueryError
	if !errors.As(err, &qe) {
		t.Fatalf("expected *QueryError, got %T: %v", err, err)
	}
}

func TestListStagedChanges(t *testing.T) {
	ctx := context.Background()
	repo := testutil.InitRepo(t)
	repo.CommitFiles(
		"Assets/keep.png",
		"Assets/gone.png",
		"Assets/old.png",
		"Assets/edit.png",
		"Other/outside.txt",
	)

	repo.Add("Assets/new.png", "Other/new.txt")
	repo.Remove("Assets/gone.png")
	repo.Move("Assets/old.png", "Assets/moved/renamed.png")
	repo.WriteFile("Assets/edit.png", "changed\n")
	repo.Git("add", "Assets/edit.png")

	got, err := NewShellClient("", repo.Dir).ListStagedChanges(ctx, "Assets")
	if err != nil {
		t.Fatalf("ListStagedChanges: %v", err)
	}
	sort.Slice(got, func(i, j int) bool { return got[i].Path < got[j].Path })

	want := []StatusEntry{
		{Code: StatusDeleted, Path: "Assets/gone.png"},
		{Code: StatusModified, Path: "Assets/edit.png"},
		{Code: StatusRenamed, Score: 100, OrigPath: "Assets/old.png", Path: "Assets/moved/renamed.png"},
		{Code: StatusAdded, Path: "Assets/new.png"},
	}
	sort.Slice(want, func(i, j int) bool { return want[i].Path < want[j].Path })

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ListStagedChanges() mismatch (-want +got):\n%s", diff)
	}
}

func TestListStagedChanges_UnbornHead(t *testing.T) {
	repo := testutil.InitRepo(t)
	repo.Add("Assets/a.png", "Assets/a.png.meta")

	got, err := NewShellClient("", repo.Dir).ListStagedChanges(context.Background(), "Assets")
	if err != nil {
		t.Fatalf("ListStagedChanges: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 additions, got %v", got)
	}
	for _, e := range got {
		if e.Code != StatusAdded {
			t.Errorf("expected addition, got %c for %s", e.Code, e.Path)
		}
	}
}

func TestListStagedChanges_RootWithGlobCharacters(t *testing.T) {
	repo := testutil.InitRepo(t)
	repo.CommitFiles("Assets/base.png")

	// "Art[12]" must not match the sibling "Art1"
	repo.Add("Art[12]/a.png", "Art1/b.png")

	got, err := NewShellClient("", repo.Dir).ListStagedChanges(context.Background(), "Art[12]")
	if err != nil {
		t.Fatalf("ListStagedChanges: %v", err)
	}
	want := []StatusEntry{{Code: StatusAdded, Path: "Art[12]/a.png"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ListStagedChanges() mismatch (-want +got):\n%s", diff)
	}
}

func TestListStagedChanges_PathWithNewline(t *testing.T) {
	repo := testutil.InitRepo(t)
	repo.CommitFiles("Assets/base.png")

	name := "Assets/odd\nname.png"
	repo.Add(name)

	got, err := NewShellClient("", repo.Dir).ListStagedChanges(context.Background(), "Assets")
	if err != nil {
		t.Fatalf("ListStagedChanges: %v", err)
	}
	if len(got) != 1 || got[0].Path != name {
		t.Errorf("expected single addition of %q, got %q", name, got)
	}
}

func TestToplevel(t *testing.T) {
	repo := testutil.InitRepo(t)

	top, err := NewShellClient("", filepath.Join(repo.Dir, "Assets")).Toplevel(context.Background())
	if err != nil {
		t.Fatalf("Toplevel: %v", err)
	}

	want, err := filepath.EvalSymlinks(repo.Dir)
	if err != nil {
		t.Fatal(err)
	}
	got, err := filepath.EvalSymlinks(top)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("Toplevel() = %s, want %s", got, want)
	}
}

func TestQueryError(t *testing.T) {
	inner := errors.New("exit status 128")
	err := &QueryError{
		Args:     []string{"ls-tree", "HEAD"},
		ExitCode: 128,
		Stderr:   "fatal: not a git repository",
		Err:      inner,
	}

	want := "git ls-tree HEAD exited with status 128: fatal: not a git repository"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, inner) {
		t.Error("QueryError must unwrap to the underlying error")
	}
}

func TestInsertGitFlags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		flags []string
		want  []string
	}{
		{
			name:  "insert before subcommand",
			args:  []string{"git", "ls-tree", "-r", "HEAD"},
			flags: []string{"-C", "/repo"},
			want:  []string{"git", "-C", "/repo", "ls-tree", "-r", "HEAD"},
		},
		{
			name:  "insert before diff",
			args:  []string{"git", "diff", "--cached"},
			flags: []string{"-C", "/dir"},
			want:  []string{"git", "-C", "/dir", "diff", "--cached"},
		},
		{
			name:  "empty args",
			args:  []string{},
			flags: []string{"-C", "/dir"},
			want:  []string{"-C", "/dir"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := insertGitFlags(tt.args, tt.flags...)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("insertGitFlags() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
