// Package resolver turns raw status and ref listings into the resolved view
// of a repository: the HEAD tip, the merged branch list, and the default
// branch.
package resolver

import (
	"context"
	"sort"
	"strings"

	"github.com/grovetools/reposync/git"
)

// CommitLookup resolves a SHA to a commit, typically through a cache backed
// by git cat-file. A valid tip requires the tip commit itself, so resolution
// blocks on this lookup.
type CommitLookup func(ctx context.Context, sha string) (*git.Commit, error)

// ResolveTip classifies HEAD from a status result. The valid variant is only
// produced when the tip commit can actually be resolved; if the lookup fails
// the tip degrades to unknown rather than guessing.
func ResolveTip(ctx context.Context, status *git.StatusResult, branches []git.Branch, lookup CommitLookup) git.Tip {
	switch {
	case status == nil:
		return git.UnknownTip()
	case status.Unborn:
		return git.Tip{Kind: git.TipUnborn, Ref: status.CurrentBranch}
	case status.Detached:
		return git.Tip{Kind: git.TipDetached, SHA: status.CurrentSHA}
	case status.CurrentBranch == "":
		return git.UnknownTip()
	}

	branch := findBranch(branches, status.CurrentBranch, git.BranchLocal)
	if branch == nil {
		branch = &git.Branch{
			Name:     status.CurrentBranch,
			Upstream: status.Upstream,
			TipSHA:   status.CurrentSHA,
			Type:     git.BranchLocal,
		}
	}

	if _, err := lookup(ctx, branch.TipSHA); err != nil {
		return git.UnknownTip()
	}
	return git.Tip{Kind: git.TipValid, Branch: branch}
}

// MergeBranches combines local and remote-tracking branches into one list,
// dropping remote entries already represented by a local branch that tracks
// them. Local branches sort before remote ones, then by name.
func MergeBranches(branches []git.Branch) []git.Branch {
	tracked := make(map[string]struct{})
	for _, b := range branches {
		if b.Type == git.BranchLocal && b.Upstream != "" {
			tracked[b.Upstream] = struct{}{}
		}
	}

	merged := make([]git.Branch, 0, len(branches))
	for _, b := range branches {
		if b.Type == git.BranchRemote {
			if _, ok := tracked[b.Name]; ok {
				continue
			}
		}
		merged = append(merged, b)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Type != merged[j].Type {
			return merged[i].Type < merged[j].Type
		}
		return merged[i].Name < merged[j].Name
	})
	return merged
}

// DefaultBranch picks the repository's default branch. The name configured on
// the remote wins over the historical fallback, and a local branch of that
// name wins over the remote-tracking one.
func DefaultBranch(branches []git.Branch, remoteDefaultName string) *git.Branch {
	name := remoteDefaultName
	if name == "" {
		name = "master"
	}

	if b := findBranch(branches, name, git.BranchLocal); b != nil {
		return b
	}
	for i := range branches {
		b := &branches[i]
		if b.Type != git.BranchRemote {
			continue
		}
		if shortRemoteName(b.Name) == name {
			return b
		}
	}
	return nil
}

// RecentBranches filters a recorded checkout history down to branches that
// still exist. Deleted branches are dropped silently.
func RecentBranches(recentNames []string, branches []git.Branch) []git.Branch {
	var recent []git.Branch
	for _, name := range recentNames {
		if b := findBranch(branches, name, git.BranchLocal); b != nil {
			recent = append(recent, *b)
		}
	}
	return recent
}

func findBranch(branches []git.Branch, name string, kind git.BranchType) *git.Branch {
	for i := range branches {
		if branches[i].Type == kind && branches[i].Name == name {
			return &branches[i]
		}
	}
	return nil
}

// shortRemoteName strips the remote prefix from a remote-tracking branch
// name, e.g. "origin/main" -> "main".
func shortRemoteName(name string) string {
	if idx := strings.Index(name, "/"); idx >= 0 {
		return name[idx+1:]
	}
	return name
}
