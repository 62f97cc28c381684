package git

import (
	"context"
	"regexp"
	"strings"

	"github.com/grovetools/reposync/errors"
)

// DiffLineKind classifies one line of a unified diff.
type DiffLineKind int

const (
	DiffLineContext DiffLineKind = iota
	DiffLineAdded
	DiffLineDeleted
)

// DiffLine is one line of a hunk. Added and deleted lines are the selectable
// units for partial commits; context lines are not.
type DiffLine struct {
	Kind    DiffLineKind `json:"kind"`
	Content string       `json:"content"`
}

// Selectable reports whether the line participates in diff selection.
func (l DiffLine) Selectable() bool {
	return l.Kind != DiffLineContext
}

// DiffHunk is a contiguous hunk of a file diff.
type DiffHunk struct {
	Header string     `json:"header"`
	Lines  []DiffLine `json:"lines"`
}

// FileDiff is the parsed diff of one file against HEAD.
type FileDiff struct {
	Path   string     `json:"path"`
	Hunks  []DiffHunk `json:"hunks"`
	Binary bool       `json:"binary"`
}

// SelectableLineCount returns the number of added/deleted lines across hunks.
func (d FileDiff) SelectableLineCount() int {
	count := 0
	for _, h := range d.Hunks {
		for _, l := range h.Lines {
			if l.Selectable() {
				count++
			}
		}
	}
	return count
}

var hunkHeaderRegex = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// DiffFile returns the working-directory diff of one file against HEAD,
// staged and unstaged changes combined. Untracked files have no diff in git;
// use SynthesizeUntrackedDiff for those.
func (c *Client) DiffFile(ctx context.Context, repoPath, path string) (*FileDiff, error) {
	if err := c.builder.Validate("pathspec", path); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid pathspec")
	}

	result, err := c.run(ctx, repoPath, "diff",
		"diff", "HEAD", "--no-color", "--", path)
	if err != nil {
		return nil, err
	}

	diff := parseFileDiff(result.Stdout)
	diff.Path = path
	return diff, nil
}

func parseFileDiff(output string) *FileDiff {
	diff := &FileDiff{}
	var current *DiffHunk

	for _, line := range strings.Split(output, "\n") {
		switch {
		case strings.HasPrefix(line, "Binary files "):
			diff.Binary = true
		case strings.HasPrefix(line, "@@"):
			if m := hunkHeaderRegex.FindStringSubmatch(line); m != nil {
				diff.Hunks = append(diff.Hunks, DiffHunk{Header: line})
				current = &diff.Hunks[len(diff.Hunks)-1]
			}
		case current == nil:
			// File header lines before the first hunk.
			continue
		case strings.HasPrefix(line, "+"):
			current.Lines = append(current.Lines, DiffLine{Kind: DiffLineAdded, Content: line[1:]})
		case strings.HasPrefix(line, "-"):
			current.Lines = append(current.Lines, DiffLine{Kind: DiffLineDeleted, Content: line[1:]})
		case strings.HasPrefix(line, " "):
			current.Lines = append(current.Lines, DiffLine{Kind: DiffLineContext, Content: line[1:]})
		case strings.HasPrefix(line, `\`):
			// "\ No newline at end of file"
			continue
		}
	}

	return diff
}
