package git

import "time"

// TipKind discriminates the resolved state of HEAD.
type TipKind int

const (
	// TipUnknown means the repository state could not be determined.
	TipUnknown TipKind = iota
	// TipUnborn means HEAD points at a ref with no commits yet.
	TipUnborn
	// TipDetached means HEAD points directly at a commit.
	TipDetached
	// TipValid means HEAD points at a branch with a resolvable tip commit.
	TipValid
)

func (k TipKind) String() string {
	switch k {
	case TipUnborn:
		return "unborn"
	case TipDetached:
		return "detached"
	case TipValid:
		return "valid"
	default:
		return "unknown"
	}
}

// Tip is the resolved state of HEAD. Exactly one variant is active at a time:
// Ref is set only for TipUnborn, SHA only for TipDetached, Branch only for
// TipValid. A Tip transitions only through a full status reload, never partial
// mutation.
type Tip struct {
	Kind   TipKind `json:"kind"`
	Ref    string  `json:"ref,omitempty"`
	SHA    string  `json:"sha,omitempty"`
	Branch *Branch `json:"branch,omitempty"`
}

// UnknownTip returns the degraded tip used when status loading fails.
func UnknownTip() Tip { return Tip{Kind: TipUnknown} }

// BranchType distinguishes local branches from remote-tracking ones.
type BranchType int

const (
	// BranchLocal sorts before BranchRemote so local branches win tie-breaks.
	BranchLocal BranchType = iota
	BranchRemote
)

// Branch is a git branch. Upstream is the configured remote-tracking name
// derived from git's tracking ref, not guessed from naming convention; it is
// empty when no upstream is configured.
type Branch struct {
	Name     string     `json:"name"`
	Upstream string     `json:"upstream,omitempty"`
	TipSHA   string     `json:"tip_sha"`
	Type     BranchType `json:"type"`
}

// NeedsPublish reports whether the branch has no upstream to push to.
func (b Branch) NeedsPublish() bool {
	return b.Type == BranchLocal && b.Upstream == ""
}

// CommitIdentity is an author or committer signature.
type CommitIdentity struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Date  time.Time `json:"date"`
}

// Trailer is a commit message trailer line (e.g. "Co-Authored-By: a <a@b>").
type Trailer struct {
	Token string `json:"token"`
	Value string `json:"value"`
}

// Commit is content-addressed by its 40-hex-char SHA. Once cached under a SHA
// the object is never mutated.
type Commit struct {
	SHA        string           `json:"sha"`
	Summary    string           `json:"summary"`
	Body       string           `json:"body"`
	Author     CommitIdentity   `json:"author"`
	Committer  CommitIdentity   `json:"committer"`
	ParentSHAs []string         `json:"parent_shas"`
	Trailers   []Trailer        `json:"trailers,omitempty"`
	CoAuthors  []CommitIdentity `json:"co_authors,omitempty"`
}

// AheadBehind counts commits reachable from one ref but not the other, in
// both directions relative to an upstream.
type AheadBehind struct {
	Ahead  int `json:"ahead"`
	Behind int `json:"behind"`
}

// FileStatus classifies a working-directory change.
type FileStatus int

const (
	StatusNew FileStatus = iota
	StatusModified
	StatusDeleted
	StatusRenamed
	StatusCopied
	StatusConflicted
	StatusUntracked
)

func (s FileStatus) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusModified:
		return "modified"
	case StatusDeleted:
		return "deleted"
	case StatusRenamed:
		return "renamed"
	case StatusCopied:
		return "copied"
	case StatusConflicted:
		return "conflicted"
	case StatusUntracked:
		return "untracked"
	default:
		return "unknown"
	}
}

// FileChange is one entry in the working-directory status. OldPath is set
// only for renames and copies; discarding or committing a rename operates on
// Path for content and OldPath for restoring pre-rename state.
type FileChange struct {
	Path    string     `json:"path"`
	OldPath string     `json:"old_path,omitempty"`
	Status  FileStatus `json:"status"`

	// HasStagedChanges reports whether the index differs from HEAD for this
	// path. Files without index changes skip the reset step during discard.
	HasStagedChanges bool `json:"has_staged_changes"`

	// HasUnstagedChanges reports whether the working tree differs from the
	// index for this path.
	HasUnstagedChanges bool `json:"has_unstaged_changes"`
}

// StatusResult is the parsed output of a single status query.
type StatusResult struct {
	// CurrentBranch is empty when HEAD is detached.
	CurrentBranch string `json:"current_branch"`

	// CurrentSHA is empty for an unborn branch.
	CurrentSHA string `json:"current_sha"`

	// Upstream is the remote-tracking name of the current branch, if any.
	Upstream string `json:"upstream,omitempty"`

	// AheadBehind is only meaningful when Upstream is set.
	AheadBehind AheadBehind `json:"ahead_behind"`

	Detached bool `json:"detached"`
	Unborn   bool `json:"unborn"`

	Files []FileChange `json:"files"`
}
