// Package netops coordinates the network operations of a repository. Each
// repository runs at most one network operation at a time; an operation
// requested while another is in flight is dropped, not queued.
package netops

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/reposync/config"
	"github.com/grovetools/reposync/errors"
	"github.com/grovetools/reposync/git"
	"github.com/grovetools/reposync/logging"
)

// GitService is the slice of git operations the coordinator needs.
// *git.Client satisfies it; tests substitute a fake.
type GitService interface {
	Fetch(ctx context.Context, repoPath, remote string) error
	Push(ctx context.Context, repoPath, remote, branch string, setUpstream bool) error
	Pull(ctx context.Context, repoPath, remote string) error
	MergeBase(ctx context.Context, repoPath, refA, refB string) (string, error)
	Branches(ctx context.Context, repoPath string) ([]git.Branch, error)
	AheadBehind(ctx context.Context, repoPath, from, to string) (*git.AheadBehind, error)
	FastForwardRef(ctx context.Context, repoPath, branch, newSHA, oldSHA string) error
	Remotes(ctx context.Context, repoPath string) ([]string, error)
}

// ProgressFunc receives monotonic progress for an operation. fraction is in
// [0, 1] and never decreases within one operation.
type ProgressFunc func(operation, phase string, fraction float64)

// RefreshFunc reloads the repository's cached state after an operation
// touched refs.
type RefreshFunc func(ctx context.Context) error

// ReconcileFunc repairs cached history after a pull, given the merge base
// captured before it.
type ReconcileFunc func(ctx context.Context, mergeBase string) error

// Outcome reports how an operation was handled.
type Outcome struct {
	// Dropped means another operation held the repository (or a background
	// fetch was inside the minimum spacing window) and nothing ran.
	Dropped bool

	// NeedsPublish means a push found no configured remote; the branch must
	// be published instead.
	NeedsPublish bool
}

// Coordinator serializes network operations per repository and tracks fetch
// recency for background throttling.
type Coordinator struct {
	mu          sync.Mutex
	busy        map[string]bool
	lastFetched map[string]time.Time

	git    GitService
	cfg    *config.Config
	logger *logrus.Entry
	now    func() time.Time
}

func NewCoordinator(gitSvc GitService, cfg *config.Config) *Coordinator {
	return &Coordinator{
		busy:        make(map[string]bool),
		lastFetched: make(map[string]time.Time),
		git:         gitSvc,
		cfg:         cfg,
		logger:      logging.NewLogger("netops"),
		now:         time.Now,
	}
}

func (c *Coordinator) tryAcquire(repoPath string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy[repoPath] {
		return false
	}
	c.busy[repoPath] = true
	return true
}

func (c *Coordinator) release(repoPath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.busy, repoPath)
}

// InProgress reports whether a network operation currently holds the
// repository.
func (c *Coordinator) InProgress(repoPath string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy[repoPath]
}

// LastFetched returns when the repository was last fetched by this process.
func (c *Coordinator) LastFetched(repoPath string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.lastFetched[repoPath]
	return t, ok
}

func (c *Coordinator) recordFetch(repoPath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastFetched[repoPath] = c.now()
}

// progressTracker clamps reported fractions to be non-decreasing within one
// operation.
type progressTracker struct {
	operation string
	emit      ProgressFunc
	last      float64
}

func (p *progressTracker) report(phase string, fraction float64) {
	if p.emit == nil {
		return
	}
	if fraction < p.last {
		fraction = p.last
	}
	if fraction > 1 {
		fraction = 1
	}
	p.last = fraction
	p.emit(p.operation, phase, fraction)
}

// Push pushes the branch to its remote, then fetches and refreshes. A branch
// in a repository with no remotes at all cannot be pushed; the outcome
// signals that a publish flow is needed instead.
func (c *Coordinator) Push(ctx context.Context, repoPath string, branch git.Branch, refresh RefreshFunc, progress ProgressFunc) (Outcome, error) {
	if !c.tryAcquire(repoPath) {
		c.logger.WithField("repo", repoPath).Debug("Push dropped, operation in progress")
		return Outcome{Dropped: true}, nil
	}
	defer c.release(repoPath)

	remotes, err := c.git.Remotes(ctx, repoPath)
	if err != nil {
		return Outcome{}, err
	}
	if len(remotes) == 0 {
		return Outcome{NeedsPublish: true}, nil
	}

	remote := branchRemote(branch, remotes)
	setUpstream := branch.Upstream == ""

	w := c.cfg.PushWeights
	p := &progressTracker{operation: "push", emit: progress}
	p.report("push", 0)

	if err := c.git.Push(ctx, repoPath, remote, branch.Name, setUpstream); err != nil {
		return Outcome{}, err
	}
	p.report("push", w.Operation)

	if err := c.git.Fetch(ctx, repoPath, remote); err != nil {
		return Outcome{}, err
	}
	c.recordFetch(repoPath)
	p.report("fetch", w.Operation+w.Fetch)

	if err := refresh(ctx); err != nil {
		return Outcome{}, err
	}
	c.fastForwardAll(ctx, repoPath, branch.Name)
	p.report("refresh", 1)
	return Outcome{}, nil
}

// Pull integrates upstream commits into the current branch. The merge base
// with the upstream is captured before the pull so cached history can be
// reconciled afterward instead of reloaded from scratch.
func (c *Coordinator) Pull(ctx context.Context, repoPath string, branch git.Branch, reconcile ReconcileFunc, refresh RefreshFunc, progress ProgressFunc) (Outcome, error) {
	if !c.tryAcquire(repoPath) {
		c.logger.WithField("repo", repoPath).Debug("Pull dropped, operation in progress")
		return Outcome{Dropped: true}, nil
	}
	defer c.release(repoPath)

	mergeBase := ""
	if branch.Upstream != "" {
		base, err := c.git.MergeBase(ctx, repoPath, "HEAD", branch.Upstream)
		if err != nil {
			return Outcome{}, err
		}
		mergeBase = base
	}

	remotes, err := c.git.Remotes(ctx, repoPath)
	if err != nil {
		return Outcome{}, err
	}
	remote := branchRemote(branch, remotes)

	w := c.cfg.PullWeights
	p := &progressTracker{operation: "pull", emit: progress}
	p.report("pull", 0)

	if err := c.git.Pull(ctx, repoPath, remote); err != nil {
		return Outcome{}, err
	}
	p.report("pull", w.Operation)

	if err := c.git.Fetch(ctx, repoPath, remote); err != nil {
		return Outcome{}, err
	}
	c.recordFetch(repoPath)
	p.report("fetch", w.Operation+w.Fetch)

	if reconcile != nil {
		if err := reconcile(ctx, mergeBase); err != nil {
			return Outcome{}, err
		}
	}
	if err := refresh(ctx); err != nil {
		return Outcome{}, err
	}
	c.fastForwardAll(ctx, repoPath, branch.Name)
	p.report("refresh", 1)
	return Outcome{}, nil
}

// FetchOptions select the fetch variant and its remotes.
type FetchOptions struct {
	// Remotes are the candidate remotes, in priority order (current branch's
	// upstream first, then the default remote, then a fork's upstream).
	// Duplicates are fetched once.
	Remotes []string

	// Background marks machine-initiated fetches: they are throttled by the
	// minimum spacing window and their errors are tagged as background.
	Background bool

	// CurrentBranch is excluded from the fast-forward pass.
	CurrentBranch string
}

// Fetch downloads from each candidate remote, refreshes, and fast-forwards
// eligible local branches.
func (c *Coordinator) Fetch(ctx context.Context, repoPath string, opts FetchOptions, refresh RefreshFunc, progress ProgressFunc) (Outcome, error) {
	if opts.Background {
		if last, ok := c.LastFetched(repoPath); ok {
			if c.now().Sub(last) < c.cfg.FetchMinimumSpacing.Std() {
				return Outcome{Dropped: true}, nil
			}
		}
	}

	if !c.tryAcquire(repoPath) {
		c.logger.WithField("repo", repoPath).Debug("Fetch dropped, operation in progress")
		return Outcome{Dropped: true}, nil
	}
	defer c.release(repoPath)

	remotes := dedupe(opts.Remotes)
	if len(remotes) == 0 {
		return Outcome{}, nil
	}

	w := c.cfg.FetchWeights
	p := &progressTracker{operation: "fetch", emit: progress}
	p.report("fetch", 0)

	for i, remote := range remotes {
		if err := c.git.Fetch(ctx, repoPath, remote); err != nil {
			if opts.Background {
				var serr *errors.SyncError
				if stderrors.As(err, &serr) {
					serr.AsBackground()
				}
			}
			return Outcome{}, err
		}
		p.report("fetch", w.Operation*float64(i+1)/float64(len(remotes)))
	}
	c.recordFetch(repoPath)

	if err := refresh(ctx); err != nil {
		return Outcome{}, err
	}
	c.fastForwardAll(ctx, repoPath, opts.CurrentBranch)
	p.report("refresh", 1)
	return Outcome{}, nil
}

// fastForwardAll advances local branches that are strictly behind their
// upstream. The ref update carries the expected old SHA, so a branch moved by
// another process is left alone. Failures here are logged, never fatal.
func (c *Coordinator) fastForwardAll(ctx context.Context, repoPath, currentBranch string) {
	branches, err := c.git.Branches(ctx, repoPath)
	if err != nil {
		c.logger.WithError(err).Debug("Skipping fast-forward pass")
		return
	}

	remoteTips := make(map[string]string)
	for _, b := range branches {
		if b.Type == git.BranchRemote {
			remoteTips[b.Name] = b.TipSHA
		}
	}

	type candidate struct {
		branch      git.Branch
		upstreamSHA string
	}
	var eligible []candidate
	for _, b := range branches {
		if b.Type != git.BranchLocal || b.Name == currentBranch || b.Upstream == "" {
			continue
		}
		upstreamSHA, ok := remoteTips[b.Upstream]
		if !ok || upstreamSHA == b.TipSHA {
			continue
		}
		counts, err := c.git.AheadBehind(ctx, repoPath, b.TipSHA, upstreamSHA)
		if err != nil {
			continue
		}
		if counts.Ahead == 0 && counts.Behind > 0 {
			eligible = append(eligible, candidate{branch: b, upstreamSHA: upstreamSHA})
		}
	}

	if len(eligible) > c.cfg.FastForwardSkipThreshold {
		c.logger.WithField("eligible", len(eligible)).Debug("Too many fast-forward candidates, default branch only")
		def := defaultBranchName(branches)
		var kept []candidate
		for _, cand := range eligible {
			if cand.branch.Name == def {
				kept = append(kept, cand)
			}
		}
		eligible = kept
	}

	for _, cand := range eligible {
		err := c.git.FastForwardRef(ctx, repoPath, cand.branch.Name, cand.upstreamSHA, cand.branch.TipSHA)
		if err != nil {
			c.logger.WithError(err).WithField("branch", cand.branch.Name).Debug("Fast-forward failed")
		}
	}
}

// branchRemote derives the remote to contact from the branch's upstream,
// falling back to origin (or the only remote) for unpublished branches.
func branchRemote(branch git.Branch, remotes []string) string {
	if branch.Upstream != "" {
		if idx := strings.Index(branch.Upstream, "/"); idx > 0 {
			return branch.Upstream[:idx]
		}
	}
	for _, r := range remotes {
		if r == "origin" {
			return r
		}
	}
	if len(remotes) > 0 {
		return remotes[0]
	}
	return "origin"
}

func defaultBranchName(branches []git.Branch) string {
	for _, fallback := range []string{"master", "main"} {
		for _, b := range branches {
			if b.Type == git.BranchLocal && b.Name == fallback {
				return fallback
			}
		}
	}
	return ""
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
