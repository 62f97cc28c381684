package git

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// SynthesizeUntrackedDiff builds a FileDiff for an untracked file, which has
// no diff in git. The content is line-diffed against the empty string so the
// selection model sees the same per-line records as tracked files.
func SynthesizeUntrackedDiff(path, content string) *FileDiff {
	if content == "" {
		return &FileDiff{Path: path}
	}

	dmp := diffmatchpatch.New()
	chars1, chars2, lineArray := dmp.DiffLinesToChars("", content)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(chars1, chars2, false), lineArray)

	hunk := DiffHunk{Header: "@@ -0,0 +1 @@"}
	for _, d := range diffs {
		if d.Type != diffmatchpatch.DiffInsert {
			continue
		}
		for _, line := range strings.Split(strings.TrimRight(d.Text, "\n"), "\n") {
			hunk.Lines = append(hunk.Lines, DiffLine{Kind: DiffLineAdded, Content: line})
		}
	}

	return &FileDiff{Path: path, Hunks: []DiffHunk{hunk}}
}
