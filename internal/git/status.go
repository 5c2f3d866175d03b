package git

import (
	"fmt"
	"strconv"
	"strings"
)

// Status codes emitted by git diff --name-status
const (
	StatusAdded    = 'A'
	StatusCopied   = 'C'
	StatusDeleted  = 'D'
	StatusModified = 'M'
	StatusRenamed  = 'R'
	StatusType     = 'T'
	StatusUnmerged = 'U'
	StatusUnknown  = 'X'
)

// StatusEntry is one record of git diff --name-status output. For renames
// and copies OrigPath holds the source and Path the destination.
type StatusEntry struct {
	Code     byte
	Score    int
	Path     string
	OrigPath string
}

// ParseNameStatus parses the NUL-delimited output of
// git diff --name-status -z. Every record is a status field followed by one
// path, or two paths for renames and copies.
func ParseNameStatus(data []byte) ([]StatusEntry, error) {
	fields := strings.Split(string(data), "\x00")

	var entries []StatusEntry
	for i := 0; i < len(fields); {
		status := fields[i]
		if status == "" {
			// Trailing terminator
			i++
			continue
		}

		entry := StatusEntry{Code: status[0]}
		if len(status) > 1 {
			score, err := strconv.Atoi(status[1:])
			if err != nil {
				return nil, fmt.Errorf("invalid status %q at field %d", status, i)
			}
			entry.Score = score
		}

		paths := 1
		if entry.Code == StatusRenamed || entry.Code == StatusCopied {
			paths = 2
		}
		if i+paths >= len(fields) || fields[i+paths] == "" {
			return nil, fmt.Errorf("truncated %c record at field %d", entry.Code, i)
		}
		if paths == 2 {
			entry.OrigPath = fields[i+1]
		}
		entry.Path = fields[i+paths]
		i += paths + 1

		entries = append(entries, entry)
	}

	return entries, nil
}
