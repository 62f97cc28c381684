package sync

import (
	"context"
	stdsync "sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/reposync/config"
	"github.com/grovetools/reposync/errors"
	"github.com/grovetools/reposync/git"
	gh "github.com/grovetools/reposync/github"
	"github.com/grovetools/reposync/internal/sync/netops"
	"github.com/grovetools/reposync/internal/sync/store"
	"github.com/grovetools/reposync/logging"
	"github.com/grovetools/reposync/state"
)

// Manager owns one synchronizer per tracked repository plus the shared
// snapshot store and network coordinator.
type Manager struct {
	gitc     *git.Client
	cfg      *config.Config
	store    *store.Store
	settings *state.Store
	coord    *netops.Coordinator
	logger   *logrus.Entry

	mu    stdsync.Mutex
	syncs map[string]*Synchronizer
}

func NewManager(gitc *git.Client, cfg *config.Config, settings *state.Store) *Manager {
	return &Manager{
		gitc:     gitc,
		cfg:      cfg,
		store:    store.New(),
		settings: settings,
		coord:    netops.NewCoordinator(gitc, cfg),
		logger:   logging.NewLogger("manager"),
		syncs:    make(map[string]*Synchronizer),
	}
}

// Store returns the shared snapshot store for subscriptions.
func (m *Manager) Store() *store.Store { return m.store }

// Add starts tracking a repository and performs the initial status and
// history load.
func (m *Manager) Add(ctx context.Context, repoPath string) (*Synchronizer, error) {
	if !m.gitc.IsRepository(ctx, repoPath) {
		return nil, errors.RepoNotFound(repoPath)
	}

	m.mu.Lock()
	if s, ok := m.syncs[repoPath]; ok {
		m.mu.Unlock()
		return s, nil
	}
	s := New(repoPath, m.gitc, m.coord, m.cfg, m.store, m.settings)
	m.syncs[repoPath] = s
	m.mu.Unlock()

	if err := s.RefreshStatus(ctx); err != nil {
		return s, err
	}
	return s, s.LoadHistory(ctx)
}

// Get returns the synchronizer for a tracked repository.
func (m *Manager) Get(repoPath string) (*Synchronizer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.syncs[repoPath]
	return s, ok
}

// Paths returns the tracked repository paths.
func (m *Manager) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.syncs))
	for p := range m.syncs {
		paths = append(paths, p)
	}
	return paths
}

// Remove tears down a repository's synchronizer and drops its snapshot. Used
// both for explicit untracking and when the working directory disappears.
func (m *Manager) Remove(repoPath string) {
	m.mu.Lock()
	_, ok := m.syncs[repoPath]
	delete(m.syncs, repoPath)
	m.mu.Unlock()
	if !ok {
		return
	}
	m.store.Remove(repoPath)
	m.logger.WithField("repo", repoPath).Info("Stopped tracking repository")
}

// EnrichFromGitHub resolves the repository's origin against the GitHub API
// and applies the hosted default branch name. Non-GitHub remotes and API
// failures leave the repository on pure git truth.
func (m *Manager) EnrichFromGitHub(ctx context.Context, repoPath, token string) error {
	s, ok := m.Get(repoPath)
	if !ok {
		return errors.RepoNotFound(repoPath)
	}

	url, err := m.gitc.RemoteURL(ctx, repoPath, "origin")
	if err != nil {
		return err
	}
	owner, name, ok := gh.ParseRemoteURL(url)
	if !ok {
		return nil
	}

	meta, err := gh.GetRepoMetadata(ctx, gh.NewClient(token), owner, name)
	if err != nil {
		m.logger.WithError(err).Debug("GitHub metadata lookup failed")
		return nil
	}
	s.SetRemoteDefaultBranch(meta.DefaultBranch)
	return s.RefreshStatus(ctx)
}

// RunBackgroundFetch polls every tracked repository on the configured
// interval until the context is canceled. Individual failures are routed
// through each synchronizer's error handlers, never fatal to the loop.
func (m *Manager) RunBackgroundFetch(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.BackgroundFetchInterval.Std())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.mu.Lock()
			syncs := make([]*Synchronizer, 0, len(m.syncs))
			for _, s := range m.syncs {
				syncs = append(syncs, s)
			}
			m.mu.Unlock()

			for _, s := range syncs {
				if err := s.Fetch(ctx, true); err != nil {
					m.logger.WithError(err).WithField("repo", s.Path()).Debug("Background fetch failed")
				}
			}
		}
	}
}
