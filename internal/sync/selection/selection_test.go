package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/grovetools/reposync/git"
)

func TestKindDerivation(t *testing.T) {
	tests := []struct {
		name string
		sel  DiffSelection
		want Kind
	}{
		{"all lines included", New(4, true), All},
		{"no lines included", New(4, false), None},
		{"mixed", New(4, true).SetRange(1, 2, false), Partial},
		{"zero selectable lines", New(0, false), All},
		{"single line off", New(1, false), None},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sel.Kind())
		})
	}
}

func TestSetRangeIsImmutable(t *testing.T) {
	base := New(5, true)
	modified := base.SetRange(0, 3, false)

	assert.Equal(t, All, base.Kind())
	assert.Equal(t, Partial, modified.Kind())
	assert.Equal(t, 2, modified.SelectedCount())
}

func TestSetRangeClampsOutOfRange(t *testing.T) {
	sel := New(3, false).SetRange(-2, 10, true)
	assert.Equal(t, All, sel.Kind())

	sel = New(3, true).SetRange(5, 4, false)
	assert.Equal(t, All, sel.Kind())
}

func TestSelectAllSelectNone(t *testing.T) {
	sel := New(6, false).SetRange(2, 2, true)
	assert.Equal(t, Partial, sel.Kind())
	assert.Equal(t, All, sel.SelectAll().Kind())
	assert.Equal(t, None, sel.SelectNone().Kind())
}

func TestAggregateEmptySet(t *testing.T) {
	assert.Equal(t, All, Aggregate(nil))
}

func TestAggregate(t *testing.T) {
	all := New(3, true)
	none := New(3, false)
	partial := New(3, true).SetRange(0, 1, false)

	assert.Equal(t, All, Aggregate([]DiffSelection{all, all}))
	assert.Equal(t, None, Aggregate([]DiffSelection{none, none}))
	assert.Equal(t, Partial, Aggregate([]DiffSelection{all, none}))
	assert.Equal(t, Partial, Aggregate([]DiffSelection{all, partial}))
	assert.Equal(t, Partial, Aggregate([]DiffSelection{none, partial}))
}

// The aggregate must agree with flattening every file into one selection,
// except that a zero-line file counts as fully selected on its own.
func TestAggregateMatchesFlattened(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		fileCount := rapid.IntRange(1, 8).Draw(t, "fileCount")
		files := make([]DiffSelection, fileCount)
		totalLines := 0
		totalSelected := 0

		for i := range files {
			n := rapid.IntRange(1, 20).Draw(t, "lines")
			sel := New(n, false)
			for j := 0; j < n; j++ {
				if rapid.Bool().Draw(t, "included") {
					sel = sel.SetRange(j, 1, true)
				}
			}
			files[i] = sel
			totalLines += n
			totalSelected += sel.SelectedCount()
		}

		got := Aggregate(files)
		switch {
		case totalSelected == totalLines:
			assert.Equal(t, All, got)
		case totalSelected == 0:
			assert.Equal(t, None, got)
		default:
			assert.Equal(t, Partial, got)
		}
	})
}

func TestPlanDiscard(t *testing.T) {
	files := []git.FileChange{
		{Path: "untracked.txt", Status: git.StatusUntracked},
		{Path: "staged-new.txt", Status: git.StatusNew, HasStagedChanges: true},
		{Path: "modified.txt", Status: git.StatusModified, HasStagedChanges: true, HasUnstagedChanges: true},
		{Path: "unstaged.txt", Status: git.StatusModified, HasUnstagedChanges: true},
		{Path: "new-name.txt", OldPath: "old-name.txt", Status: git.StatusRenamed, HasStagedChanges: true},
		{Path: "gone.txt", Status: git.StatusDeleted, HasStagedChanges: true},
	}

	plan := PlanDiscard(files)

	assert.ElementsMatch(t, []string{"staged-new.txt", "modified.txt", "new-name.txt", "old-name.txt", "gone.txt"}, plan.ResetPaths)
	assert.ElementsMatch(t, []string{"modified.txt", "unstaged.txt", "old-name.txt", "gone.txt"}, plan.CheckoutPaths)
	assert.ElementsMatch(t, []string{"untracked.txt", "staged-new.txt", "new-name.txt"}, plan.TrashPaths)
}
