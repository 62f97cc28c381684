// Package sync maintains the live state of each tracked repository: a
// snapshot of tip, branches, history, and working-directory changes, rebuilt
// wholesale after every operation and published to subscribers.
package sync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	stdsync "sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/reposync/config"
	"github.com/grovetools/reposync/errors"
	"github.com/grovetools/reposync/git"
	"github.com/grovetools/reposync/internal/sync/compare"
	"github.com/grovetools/reposync/internal/sync/history"
	"github.com/grovetools/reposync/internal/sync/netops"
	"github.com/grovetools/reposync/internal/sync/resolver"
	"github.com/grovetools/reposync/internal/sync/selection"
	"github.com/grovetools/reposync/internal/sync/store"
	"github.com/grovetools/reposync/logging"
	"github.com/grovetools/reposync/state"
)

// recentBranchLimit caps the recorded checkout history per repository.
const recentBranchLimit = 5

// GitService is the slice of git operations the synchronizer needs beyond
// what the network coordinator already covers. *git.Client satisfies both.
type GitService interface {
	Status(ctx context.Context, repoPath string) (*git.StatusResult, error)
	Branches(ctx context.Context, repoPath string) ([]git.Branch, error)
	Remotes(ctx context.Context, repoPath string) ([]string, error)
	CurrentUpstreamRemote(ctx context.Context, repoPath string) (string, error)
	CommitSHAs(ctx context.Context, repoPath, revisionRange string, limit int) ([]string, error)
	LookupCommit(ctx context.Context, repoPath, sha string) (*git.Commit, error)
	AheadBehind(ctx context.Context, repoPath, from, to string) (*git.AheadBehind, error)
	DiffFile(ctx context.Context, repoPath, path string) (*git.FileDiff, error)
	StagePaths(ctx context.Context, repoPath string, paths []string) error
	UnstagePaths(ctx context.Context, repoPath string, paths []string) error
	CheckoutPathsFromIndex(ctx context.Context, repoPath string, paths []string) error
	CreateCommit(ctx context.Context, repoPath, summary, body string, coAuthors []git.CommitIdentity) (string, error)
	Checkout(ctx context.Context, repoPath, branch string) error
}

// ErrorHandler receives operation failures for routing to a surface. The
// Background flag distinguishes timer-triggered failures from user-initiated
// ones.
type ErrorHandler func(err *errors.SyncError)

// Synchronizer owns the cached state of one repository. All mutations go
// through a full snapshot rebuild; subscribers never observe partial state.
type Synchronizer struct {
	repoPath string
	gitc     GitService
	coord    *netops.Coordinator
	cfg      *config.Config
	store    *store.Store
	settings *state.Store
	history  *history.Cache
	compare  *compare.Cache
	logger   *logrus.Entry

	mu            stdsync.Mutex
	commits       map[string]git.Commit
	remoteDefault string
	handlers      []ErrorHandler
	progressFns   []netops.ProgressFunc
}

func New(repoPath string, gitc GitService, coord *netops.Coordinator, cfg *config.Config, st *store.Store, settings *state.Store) *Synchronizer {
	return &Synchronizer{
		repoPath: repoPath,
		gitc:     gitc,
		coord:    coord,
		cfg:      cfg,
		store:    st,
		settings: settings,
		history:  history.NewCache(),
		compare:  compare.New(),
		logger:   logging.NewLogger("sync").WithField("repo", filepath.Base(repoPath)),
		commits:  make(map[string]git.Commit),
	}
}

// Path returns the repository's working-directory path.
func (s *Synchronizer) Path() string { return s.repoPath }

// OnError registers a handler for operation failures.
func (s *Synchronizer) OnError(h ErrorHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, h)
}

func (s *Synchronizer) emitError(err error) {
	if err == nil {
		return
	}
	serr, ok := err.(*errors.SyncError)
	if !ok {
		serr = errors.Wrap(err, errors.ErrCodeCommandFailed, err.Error())
	}
	s.mu.Lock()
	handlers := make([]ErrorHandler, len(s.handlers))
	copy(handlers, s.handlers)
	s.mu.Unlock()
	for _, h := range handlers {
		h(serr)
	}
}

// SetRemoteDefaultBranch records the default branch name reported by the
// hosting service. It takes effect on the next refresh.
func (s *Synchronizer) SetRemoteDefaultBranch(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remoteDefault = name
}

// publish rebuilds the snapshot from the current one under the synchronizer
// lock and applies it to the store as a whole-object replacement.
func (s *Synchronizer) publish(mutate func(snap *store.Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishLocked(mutate)
}

func (s *Synchronizer) publishLocked(mutate func(snap *store.Snapshot)) {
	snap := s.store.Get(s.repoPath)
	if snap == nil {
		snap = &store.Snapshot{Tip: git.UnknownTip()}
	}
	selections := make(map[string]selection.DiffSelection, len(snap.WorkingDirectory.Selections))
	for k, v := range snap.WorkingDirectory.Selections {
		selections[k] = v
	}
	snap.WorkingDirectory.Selections = selections
	mutate(snap)
	s.store.Apply(s.repoPath, snap)
}

// Commit returns the cached commit for a SHA, consulting git on a miss.
// Commits are content-addressed, so cached objects are never refreshed.
func (s *Synchronizer) Commit(ctx context.Context, sha string) (*git.Commit, error) {
	s.mu.Lock()
	if c, ok := s.commits[sha]; ok {
		s.mu.Unlock()
		return &c, nil
	}
	s.mu.Unlock()

	c, err := s.gitc.LookupCommit(ctx, s.repoPath, sha)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.commits[c.SHA] = *c
	s.mu.Unlock()
	return c, nil
}

// RefreshStatus reloads status and branches and rebuilds the snapshot. On
// failure the tip degrades to unknown rather than keeping stale state.
func (s *Synchronizer) RefreshStatus(ctx context.Context) error {
	status, err := s.gitc.Status(ctx, s.repoPath)
	if err != nil {
		s.publish(func(snap *store.Snapshot) {
			snap.Tip = git.UnknownTip()
		})
		s.emitError(err)
		return err
	}

	rawBranches, err := s.gitc.Branches(ctx, s.repoPath)
	if err != nil {
		s.publish(func(snap *store.Snapshot) {
			snap.Tip = git.UnknownTip()
		})
		s.emitError(err)
		return err
	}
	branches := resolver.MergeBranches(rawBranches)

	tip := resolver.ResolveTip(ctx, status, branches, func(ctx context.Context, sha string) (*git.Commit, error) {
		return s.Commit(ctx, sha)
	})

	s.mu.Lock()
	remoteDefault := s.remoteDefault
	s.mu.Unlock()
	defaultBranch := resolver.DefaultBranch(branches, remoteDefault)

	var recent []git.Branch
	if s.settings != nil {
		if rs, err := s.settings.Get(s.repoPath); err == nil {
			recent = resolver.RecentBranches(rs.RecentBranches, branches)
		}
	}

	var aheadBehind *git.AheadBehind
	if status.Upstream != "" {
		counts := status.AheadBehind
		aheadBehind = &counts
	}

	s.publish(func(snap *store.Snapshot) {
		snap.Tip = tip
		snap.Branches = branches
		snap.DefaultBranch = defaultBranch
		snap.RecentBranches = recent
		snap.AheadBehind = aheadBehind
		snap.WorkingDirectory.Files = status.Files

		// Drop selections and the loaded diff for files that are gone.
		present := make(map[string]struct{}, len(status.Files))
		for _, f := range status.Files {
			present[f.Path] = struct{}{}
		}
		for path := range snap.WorkingDirectory.Selections {
			if _, ok := present[path]; !ok {
				delete(snap.WorkingDirectory.Selections, path)
			}
		}
		if snap.WorkingDirectory.SelectedPath != "" {
			if _, ok := present[snap.WorkingDirectory.SelectedPath]; !ok {
				snap.WorkingDirectory.SelectedPath = ""
				snap.WorkingDirectory.Diff = nil
			}
		}
	})
	return nil
}

// LoadHistory loads the newest batch of commits and splices it into the
// cached ordering.
func (s *Synchronizer) LoadHistory(ctx context.Context) error {
	changed, err := s.history.Load(ctx, s.gitc, s.repoPath, s.cfg.HistoryBatchSize)
	if err != nil {
		s.emitError(err)
		return err
	}
	if changed {
		s.publishHistory()
	}
	return nil
}

// LoadNextHistoryBatch pages the history cache past its oldest known commit.
func (s *Synchronizer) LoadNextHistoryBatch(ctx context.Context) error {
	changed, err := s.history.LoadNextBatch(ctx, s.gitc, s.repoPath, s.cfg.HistoryBatchSize)
	if err != nil {
		s.emitError(err)
		return err
	}
	if changed {
		s.publishHistory()
	}
	return nil
}

func (s *Synchronizer) publishHistory() {
	shas := s.history.SHAs()
	s.publish(func(snap *store.Snapshot) {
		snap.History = shas
	})
}

// CompareBranches returns memoized ahead/behind counts between two commits.
func (s *Synchronizer) CompareBranches(ctx context.Context, fromSHA, toSHA string) (*git.AheadBehind, error) {
	return s.compare.GetOrCompute(ctx, fromSHA, toSHA, func(ctx context.Context) (*git.AheadBehind, error) {
		return s.gitc.AheadBehind(ctx, s.repoPath, fromSHA, toSHA)
	})
}

// SelectFile marks the file whose diff should be displayed. Any diff already
// loaded for another file is cleared immediately.
func (s *Synchronizer) SelectFile(path string) {
	s.publish(func(snap *store.Snapshot) {
		if snap.WorkingDirectory.SelectedPath == path {
			return
		}
		snap.WorkingDirectory.SelectedPath = path
		snap.WorkingDirectory.Diff = nil
	})
}

// LoadDiff loads the diff for the given file and applies it to the snapshot,
// unless the selection moved on while the load was in flight. The returned
// diff is nil when the result was discarded as stale.
func (s *Synchronizer) LoadDiff(ctx context.Context, path string) (*git.FileDiff, error) {
	diff, err := s.loadDiff(ctx, path)
	if err != nil {
		s.emitError(err)
		return nil, err
	}
	if !s.applyLoadedDiff(path, diff) {
		s.logger.WithField("path", path).Debug("Discarding stale diff result")
		return nil, nil
	}
	return diff, nil
}

func (s *Synchronizer) loadDiff(ctx context.Context, path string) (*git.FileDiff, error) {
	if f := s.findFile(path); f != nil && f.Status == git.StatusUntracked {
		content, err := os.ReadFile(filepath.Join(s.repoPath, path))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeCommandFailed, fmt.Sprintf("failed to read untracked file %s", path))
		}
		return git.SynthesizeUntrackedDiff(path, string(content)), nil
	}
	return s.gitc.DiffFile(ctx, s.repoPath, path)
}

// applyLoadedDiff installs a loaded diff if the file is still selected,
// initializing its selection to fully included when it has none (or when the
// diff's shape changed underneath it).
func (s *Synchronizer) applyLoadedDiff(path string, diff *git.FileDiff) bool {
	applied := false
	s.publish(func(snap *store.Snapshot) {
		if snap.WorkingDirectory.SelectedPath != path {
			return
		}
		snap.WorkingDirectory.Diff = diff
		count := diff.SelectableLineCount()
		if sel, ok := snap.WorkingDirectory.Selections[path]; !ok || sel.LineCount() != count {
			snap.WorkingDirectory.Selections[path] = selection.New(count, true)
		}
		applied = true
	})
	return applied
}

func (s *Synchronizer) findFile(path string) *git.FileChange {
	snap := s.store.Get(s.repoPath)
	if snap == nil {
		return nil
	}
	for i := range snap.WorkingDirectory.Files {
		if snap.WorkingDirectory.Files[i].Path == path {
			return &snap.WorkingDirectory.Files[i]
		}
	}
	return nil
}

// SelectAllLines includes every line of the file in the next commit.
func (s *Synchronizer) SelectAllLines(path string) {
	s.updateSelection(path, func(sel selection.DiffSelection) selection.DiffSelection {
		return sel.SelectAll()
	})
}

// SelectNoLines excludes the file from the next commit.
func (s *Synchronizer) SelectNoLines(path string) {
	s.updateSelection(path, func(sel selection.DiffSelection) selection.DiffSelection {
		return sel.SelectNone()
	})
}

// SetLineRange sets the inclusion of a contiguous line range.
func (s *Synchronizer) SetLineRange(path string, start, count int, included bool) {
	s.updateSelection(path, func(sel selection.DiffSelection) selection.DiffSelection {
		return sel.SetRange(start, count, included)
	})
}

func (s *Synchronizer) updateSelection(path string, f func(selection.DiffSelection) selection.DiffSelection) {
	s.publish(func(snap *store.Snapshot) {
		sel, ok := snap.WorkingDirectory.Selections[path]
		if !ok {
			return
		}
		snap.WorkingDirectory.Selections[path] = f(sel)
	})
}

// CreateCommit commits the currently selected files. Files whose selection is
// none are unstaged first so they stay out of the commit; everything else is
// staged whole. Returns the new commit SHA.
func (s *Synchronizer) CreateCommit(ctx context.Context, summary, body string, coAuthors []git.CommitIdentity) (string, error) {
	snap := s.store.Get(s.repoPath)
	if snap == nil {
		return "", errors.Invariant("repository not loaded")
	}

	var included, excluded []string
	for _, f := range snap.WorkingDirectory.Files {
		sel, ok := snap.WorkingDirectory.Selections[f.Path]
		if ok && sel.Kind() == selection.None {
			if f.HasStagedChanges {
				excluded = append(excluded, f.Path)
			}
			continue
		}
		included = append(included, f.Path)
		if f.OldPath != "" {
			included = append(included, f.OldPath)
		}
	}
	if len(included) == 0 {
		return "", errors.Invariant("no changes selected for commit")
	}

	if len(excluded) > 0 {
		if err := s.gitc.UnstagePaths(ctx, s.repoPath, excluded); err != nil {
			s.emitError(err)
			return "", err
		}
	}
	if err := s.gitc.StagePaths(ctx, s.repoPath, included); err != nil {
		s.emitError(err)
		return "", err
	}

	if s.settings != nil {
		if rs, err := s.settings.Get(s.repoPath); err == nil && !rs.ShowCoAuthoredBy {
			coAuthors = nil
		}
	}

	sha, err := s.gitc.CreateCommit(ctx, s.repoPath, summary, body, coAuthors)
	if err != nil {
		s.emitError(err)
		return "", err
	}
	s.logger.WithField("sha", sha).Info("Created commit")

	if err := s.RefreshStatus(ctx); err != nil {
		return sha, err
	}
	return sha, s.LoadHistory(ctx)
}

// DiscardChanges throws away the working-directory changes for the given
// paths. Tracked content is restored from the index; net-new files are moved
// into a trash directory under .git rather than deleted.
func (s *Synchronizer) DiscardChanges(ctx context.Context, paths []string) error {
	snap := s.store.Get(s.repoPath)
	if snap == nil {
		return errors.Invariant("repository not loaded")
	}

	wanted := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		wanted[p] = struct{}{}
	}
	var files []git.FileChange
	for _, f := range snap.WorkingDirectory.Files {
		if _, ok := wanted[f.Path]; ok {
			files = append(files, f)
		}
	}

	plan := selection.PlanDiscard(files)
	if len(plan.ResetPaths) > 0 {
		if err := s.gitc.UnstagePaths(ctx, s.repoPath, plan.ResetPaths); err != nil {
			s.emitError(err)
			return err
		}
	}
	if len(plan.CheckoutPaths) > 0 {
		if err := s.gitc.CheckoutPathsFromIndex(ctx, s.repoPath, plan.CheckoutPaths); err != nil {
			s.emitError(err)
			return err
		}
	}
	if err := s.trashPaths(plan.TrashPaths); err != nil {
		s.emitError(err)
		return err
	}
	return s.RefreshStatus(ctx)
}

// trashPaths moves files into .git/reposync-trash/<timestamp>/ so a discard
// of a net-new file remains recoverable.
func (s *Synchronizer) trashPaths(paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	trashDir := filepath.Join(s.repoPath, ".git", "reposync-trash", strconv.FormatInt(time.Now().UnixNano(), 10))
	for _, p := range paths {
		dest := filepath.Join(trashDir, p)
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return errors.Wrap(err, errors.ErrCodeCommandFailed, "failed to create trash directory")
		}
		if err := os.Rename(filepath.Join(s.repoPath, p), dest); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return errors.Wrap(err, errors.ErrCodeCommandFailed, fmt.Sprintf("failed to trash %s", p))
		}
	}
	return nil
}

// Checkout switches branches, records the checkout for the recent-branches
// list, and refreshes.
func (s *Synchronizer) Checkout(ctx context.Context, branch string) error {
	if err := s.gitc.Checkout(ctx, s.repoPath, branch); err != nil {
		s.emitError(err)
		return err
	}
	if s.settings != nil {
		if err := s.settings.RecordCheckout(s.repoPath, branch, recentBranchLimit); err != nil {
			s.logger.WithError(err).Warn("Failed to record checkout")
		}
	}
	return s.RefreshStatus(ctx)
}

// currentBranch returns the checked-out branch from the snapshot, or nil when
// HEAD is not on a valid branch.
func (s *Synchronizer) currentBranch() *git.Branch {
	snap := s.store.Get(s.repoPath)
	if snap == nil || snap.Tip.Kind != git.TipValid {
		return nil
	}
	return snap.Tip.Branch
}

func (s *Synchronizer) refreshAfterNetwork(ctx context.Context) error {
	if err := s.RefreshStatus(ctx); err != nil {
		return err
	}
	return s.LoadHistory(ctx)
}

// OnProgress registers a listener for network operation progress.
func (s *Synchronizer) OnProgress(f netops.ProgressFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progressFns = append(s.progressFns, f)
}

func (s *Synchronizer) progressFunc() netops.ProgressFunc {
	return func(operation, phase string, fraction float64) {
		s.publish(func(snap *store.Snapshot) {
			if fraction >= 1 {
				snap.Progress = nil
				return
			}
			snap.Progress = &store.Progress{Operation: operation, Phase: phase, Fraction: fraction}
		})

		s.mu.Lock()
		listeners := make([]netops.ProgressFunc, len(s.progressFns))
		copy(listeners, s.progressFns)
		s.mu.Unlock()
		for _, f := range listeners {
			f(operation, phase, fraction)
		}
	}
}

// Push pushes the current branch. Returns true when the branch needs a
// publish flow instead (no remote configured).
func (s *Synchronizer) Push(ctx context.Context) (needsPublish bool, err error) {
	branch := s.currentBranch()
	if branch == nil {
		err := errors.DetachedHead(s.repoPath)
		s.emitError(err)
		return false, err
	}

	outcome, err := s.coord.Push(ctx, s.repoPath, *branch, s.refreshAfterNetwork, s.progressFunc())
	if err != nil {
		s.emitError(err)
		return false, err
	}
	return outcome.NeedsPublish, nil
}

// Pull integrates upstream commits, reconciling cached history against the
// merge base captured before the pull.
func (s *Synchronizer) Pull(ctx context.Context) error {
	branch := s.currentBranch()
	if branch == nil {
		err := errors.DetachedHead(s.repoPath)
		s.emitError(err)
		return err
	}

	reconcile := func(ctx context.Context, mergeBase string) error {
		_, err := s.history.Reconcile(ctx, s.gitc, s.repoPath, mergeBase)
		return err
	}
	_, err := s.coord.Pull(ctx, s.repoPath, *branch, reconcile, s.refreshAfterNetwork, s.progressFunc())
	if err != nil {
		s.emitError(err)
	}
	return err
}

// Fetch downloads from the repository's relevant remotes. Background fetches
// are throttled and their failures tagged accordingly.
func (s *Synchronizer) Fetch(ctx context.Context, background bool) error {
	remotes, err := s.gitc.Remotes(ctx, s.repoPath)
	if err != nil {
		s.emitError(err)
		return err
	}
	available := make(map[string]struct{}, len(remotes))
	for _, r := range remotes {
		available[r] = struct{}{}
	}

	// Priority order: the current branch's upstream remote, then the
	// conventional default, then a fork's source remote.
	var candidates []string
	if upstream, err := s.gitc.CurrentUpstreamRemote(ctx, s.repoPath); err == nil && upstream != "" {
		candidates = append(candidates, upstream)
	}
	for _, name := range []string{"origin", "upstream"} {
		if _, ok := available[name]; ok {
			candidates = append(candidates, name)
		}
	}

	currentBranch := ""
	if b := s.currentBranch(); b != nil {
		currentBranch = b.Name
	}

	opts := netops.FetchOptions{
		Remotes:       candidates,
		Background:    background,
		CurrentBranch: currentBranch,
	}
	outcome, err := s.coord.Fetch(ctx, s.repoPath, opts, s.refreshAfterNetwork, s.progressFunc())
	if err != nil {
		s.emitError(err)
		return err
	}
	if !outcome.Dropped {
		s.publish(func(snap *store.Snapshot) {
			if t, ok := s.coord.LastFetched(s.repoPath); ok {
				snap.LastFetched = t
			}
		})
	}
	return nil
}
