package sync

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	stdsync "sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/grovetools/reposync/logging"
)

// refreshDebounce batches bursts of filesystem events into one refresh.
const refreshDebounce = 500 * time.Millisecond

// Watcher observes tracked working directories. A change under a repository
// schedules a status refresh; the repository root disappearing tears the
// synchronizer down.
type Watcher struct {
	manager *Manager
	fs      *fsnotify.Watcher
	logger  *logrus.Entry

	mu     stdsync.Mutex
	timers map[string]*time.Timer
}

func NewWatcher(m *Manager) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		manager: m,
		fs:      fs,
		logger:  logging.NewLogger("watcher"),
		timers:  make(map[string]*time.Timer),
	}, nil
}

// Watch starts observing a repository's root and its .git directory. The
// .git watch catches ref updates made by other tools.
func (w *Watcher) Watch(repoPath string) error {
	if err := w.fs.Add(repoPath); err != nil {
		return err
	}
	return w.fs.Add(filepath.Join(repoPath, ".git"))
}

// Unwatch stops observing a repository.
func (w *Watcher) Unwatch(repoPath string) {
	_ = w.fs.Remove(repoPath)
	_ = w.fs.Remove(filepath.Join(repoPath, ".git"))
}

// Run processes events until the context is canceled.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Warn("Watcher error")
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	repoPath, ok := w.repoFor(event.Name)
	if !ok {
		return
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		if _, err := os.Stat(repoPath); os.IsNotExist(err) {
			w.logger.WithField("repo", repoPath).Info("Repository directory missing")
			w.Unwatch(repoPath)
			w.manager.Remove(repoPath)
			return
		}
	}

	w.scheduleRefresh(ctx, repoPath)
}

// repoFor maps an event path back to the tracked repository containing it.
func (w *Watcher) repoFor(path string) (string, bool) {
	for _, repoPath := range w.manager.Paths() {
		if path == repoPath || isUnder(path, repoPath) {
			return repoPath, true
		}
	}
	return "", false
}

func isUnder(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (w *Watcher) scheduleRefresh(ctx context.Context, repoPath string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[repoPath]; ok {
		t.Reset(refreshDebounce)
		return
	}
	w.timers[repoPath] = time.AfterFunc(refreshDebounce, func() {
		w.mu.Lock()
		delete(w.timers, repoPath)
		w.mu.Unlock()

		s, ok := w.manager.Get(repoPath)
		if !ok {
			return
		}
		if err := s.RefreshStatus(ctx); err != nil {
			w.logger.WithError(err).WithField("repo", repoPath).Debug("Watcher refresh failed")
		}
	})
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
