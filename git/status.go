package git

import (
	"context"
	"strconv"
	"strings"
)

// Status runs a single porcelain=v2 status query and parses branch headers
// and file entries. The result is the sole input for tip resolution: the Tip
// value transitions only through a full reload of this query.
func (c *Client) Status(ctx context.Context, repoPath string) (*StatusResult, error) {
	result, err := c.run(ctx, repoPath, "status",
		"status", "--porcelain=v2", "--branch", "-z")
	if err != nil {
		return nil, err
	}

	return parseStatusV2(result.Stdout), nil
}

// parseStatusV2 parses NUL-terminated `git status --porcelain=v2 --branch`
// output. Rename/copy entries carry two NUL-separated paths.
func parseStatusV2(output string) *StatusResult {
	status := &StatusResult{}

	tokens := strings.Split(output, "\x00")
	for i := 0; i < len(tokens); i++ {
		line := tokens[i]
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "# ") {
			parseStatusHeader(status, line)
			continue
		}

		switch line[0] {
		case '1':
			if fc, ok := parseOrdinaryEntry(line); ok {
				status.Files = append(status.Files, fc)
			}
		case '2':
			// The original path follows as its own NUL token.
			var origPath string
			if i+1 < len(tokens) {
				origPath = tokens[i+1]
				i++
			}
			if fc, ok := parseRenameEntry(line, origPath); ok {
				status.Files = append(status.Files, fc)
			}
		case 'u':
			if fc, ok := parseUnmergedEntry(line); ok {
				status.Files = append(status.Files, fc)
			}
		case '?':
			status.Files = append(status.Files, FileChange{
				Path:               strings.TrimPrefix(line, "? "),
				Status:             StatusUntracked,
				HasUnstagedChanges: true,
			})
		}
	}

	return status
}

func parseStatusHeader(status *StatusResult, line string) {
	parts := strings.Fields(line)
	if len(parts) < 3 {
		return
	}

	switch parts[1] {
	case "branch.oid":
		if parts[2] == "(initial)" {
			status.Unborn = true
		} else {
			status.CurrentSHA = parts[2]
		}
	case "branch.head":
		if parts[2] == "(detached)" {
			status.Detached = true
		} else {
			status.CurrentBranch = parts[2]
		}
	case "branch.upstream":
		status.Upstream = parts[2]
	case "branch.ab":
		if len(parts) > 2 {
			status.AheadBehind.Ahead, _ = strconv.Atoi(strings.TrimPrefix(parts[2], "+"))
		}
		if len(parts) > 3 {
			status.AheadBehind.Behind, _ = strconv.Atoi(strings.TrimPrefix(parts[3], "-"))
		}
	}
}

// parseOrdinaryEntry parses a "1 XY sub mH mI mW hH hI path" line.
func parseOrdinaryEntry(line string) (FileChange, bool) {
	parts := strings.SplitN(line, " ", 9)
	if len(parts) < 9 {
		return FileChange{}, false
	}

	xy := parts[1]
	fc := FileChange{
		Path:               parts[8],
		Status:             statusFromXY(xy),
		HasStagedChanges:   xy[0] != '.',
		HasUnstagedChanges: xy[1] != '.',
	}
	return fc, true
}

// parseRenameEntry parses a "2 XY sub mH mI mW hH hI X<score> path" line;
// origPath is the separate NUL token holding the pre-rename path.
func parseRenameEntry(line, origPath string) (FileChange, bool) {
	parts := strings.SplitN(line, " ", 10)
	if len(parts) < 10 {
		return FileChange{}, false
	}

	xy := parts[1]
	status := StatusRenamed
	if strings.HasPrefix(parts[8], "C") {
		status = StatusCopied
	}

	return FileChange{
		Path:               parts[9],
		OldPath:            origPath,
		Status:             status,
		HasStagedChanges:   xy[0] != '.',
		HasUnstagedChanges: xy[1] != '.',
	}, true
}

func parseUnmergedEntry(line string) (FileChange, bool) {
	parts := strings.SplitN(line, " ", 11)
	if len(parts) < 11 {
		return FileChange{}, false
	}

	return FileChange{
		Path:               parts[10],
		Status:             StatusConflicted,
		HasStagedChanges:   true,
		HasUnstagedChanges: true,
	}, true
}

func statusFromXY(xy string) FileStatus {
	staged, unstaged := xy[0], xy[1]
	switch {
	case staged == 'A':
		return StatusNew
	case staged == 'D' || unstaged == 'D':
		return StatusDeleted
	case staged == 'R':
		return StatusRenamed
	case staged == 'C':
		return StatusCopied
	default:
		return StatusModified
	}
}
