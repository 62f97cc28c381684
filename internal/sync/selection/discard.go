package selection

import (
	"github.com/grovetools/reposync/git"
)

// DiscardPlan describes how to throw away a set of working-directory
// changes. Tracked content is restored from the index in two steps (unstage,
// then checkout), while net-new files have no index entry to restore from and
// are moved to the trash instead of deleted outright.
type DiscardPlan struct {
	// ResetPaths are unstaged from the index before restoring.
	ResetPaths []string
	// CheckoutPaths are restored from the index into the working directory.
	CheckoutPaths []string
	// TrashPaths are moved to the trash; git has no previous content for them.
	TrashPaths []string
}

// PlanDiscard builds a discard plan for the given changes. Renamed files are
// handled on both sides: the rename is unstaged under both paths, the
// original path is restored from the index, and the renamed copy is trashed.
func PlanDiscard(files []git.FileChange) DiscardPlan {
	var plan DiscardPlan

	for _, f := range files {
		switch f.Status {
		case git.StatusUntracked:
			plan.TrashPaths = append(plan.TrashPaths, f.Path)
		case git.StatusNew:
			if f.HasStagedChanges {
				plan.ResetPaths = append(plan.ResetPaths, f.Path)
			}
			plan.TrashPaths = append(plan.TrashPaths, f.Path)
		case git.StatusRenamed, git.StatusCopied:
			plan.ResetPaths = append(plan.ResetPaths, f.Path, f.OldPath)
			plan.CheckoutPaths = append(plan.CheckoutPaths, f.OldPath)
			plan.TrashPaths = append(plan.TrashPaths, f.Path)
		default:
			if f.HasStagedChanges {
				plan.ResetPaths = append(plan.ResetPaths, f.Path)
			}
			plan.CheckoutPaths = append(plan.CheckoutPaths, f.Path)
		}
	}
	return plan
}
