package git

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseNameStatus(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []StatusEntry
		wantErr bool
	}{
		{
			name:  "empty output",
			input: "",
			want:  nil,
		},
		{
			name:  "add and delete",
			input: "A\x00Assets/a.png\x00D\x00Assets/b.png\x00",
			want: []StatusEntry{
				{Code: StatusAdded, Path: "Assets/a.png"},
				{Code: StatusDeleted, Path: "Assets/b.png"},
			},
		},
		{
			name:  "rename with score",
			input: "R087\x00Assets/old.png\x00Assets/new.png\x00",
			want: []StatusEntry{
				{Code: StatusRenamed, Score: 87, OrigPath: "Assets/old.png", Path: "Assets/new.png"},
			},
		},
		{
			name:  "copy consumes two paths",
			input: "C100\x00Assets/a.png\x00Assets/copy.png\x00A\x00Assets/c.png\x00",
			want: []StatusEntry{
				{Code: StatusCopied, Score: 100, OrigPath: "Assets/a.png", Path: "Assets/copy.png"},
				{Code: StatusAdded, Path: "Assets/c.png"},
			},
		},
		{
			name:  "modified and type change",
			input: "M\x00Assets/a.png\x00T\x00Assets/link\x00",
			want: []StatusEntry{
				{Code: StatusModified, Path: "Assets/a.png"},
				{Code: StatusType, Path: "Assets/link"},
			},
		},
		{
			name:  "paths with newlines and spaces",
			input: "A\x00Assets/line\nbreak.png\x00A\x00Assets/with space.png\x00",
			want: []StatusEntry{
				{Code: StatusAdded, Path: "Assets/line\nbreak.png"},
				{Code: StatusAdded, Path: "Assets/with space.png"},
			},
		},
		{
			name:  "path that looks like a status",
			input: "A\x00A\x00D\x00R100\x00",
			want: []StatusEntry{
				{Code: StatusAdded, Path: "A"},
				{Code: StatusDeleted, Path: "R100"},
			},
		},
		{
			name:  "missing trailing terminator",
			input: "A\x00Assets/a.png",
			want: []StatusEntry{
				{Code: StatusAdded, Path: "Assets/a.png"},
			},
		},
		{
			name:    "truncated rename",
			input:   "R100\x00Assets/old.png\x00",
			wantErr: true,
		},
		{
			name:    "truncated add",
			input:   "A",
			wantErr: true,
		},
		{
			name:    "invalid score",
			input:   "Rxx\x00a\x00b\x00",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseNameStatus([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseNameStatus() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseNameStatus() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
