// Package store holds the in-memory snapshots of every synchronized
// repository. It is thread-safe and supports pub/sub for real-time updates.
package store

import (
	"sync"
	"time"

	"github.com/grovetools/reposync/git"
	"github.com/grovetools/reposync/internal/sync/selection"
)

// Progress reports the state of a long-running operation as a monotonic
// fraction in [0, 1].
type Progress struct {
	Operation   string  `json:"operation"`
	Phase       string  `json:"phase"`
	Fraction    float64 `json:"fraction"`
	Description string  `json:"description,omitempty"`
}

// WorkingDirectory is the change set plus its selection state. SelectedPath
// and Diff track which file's diff is displayed; a diff is only ever applied
// when SelectedPath still matches the file it was loaded for.
type WorkingDirectory struct {
	Files        []git.FileChange
	Selections   map[string]selection.DiffSelection
	SelectedPath string
	Diff         *git.FileDiff
}

// AggregateSelection derives the selection type across all files.
func (w WorkingDirectory) AggregateSelection() selection.Kind {
	sels := make([]selection.DiffSelection, 0, len(w.Files))
	for _, f := range w.Files {
		if s, ok := w.Selections[f.Path]; ok {
			sels = append(sels, s)
		}
	}
	return selection.Aggregate(sels)
}

// Snapshot is the complete published state of one repository. Updates always
// replace the whole snapshot; consumers never see a partially updated one.
type Snapshot struct {
	Tip              git.Tip
	Branches         []git.Branch
	DefaultBranch    *git.Branch
	RecentBranches   []git.Branch
	History          []string
	AheadBehind      *git.AheadBehind
	WorkingDirectory WorkingDirectory
	Progress         *Progress
	LastFetched      time.Time
}

// Update is one pub/sub event: the repository that changed and its new
// snapshot. A nil Snapshot means the repository was removed.
type Update struct {
	RepoPath string
	Snapshot *Snapshot
}

// Store maps repository paths to their current snapshots.
type Store struct {
	mu          sync.RWMutex
	snapshots   map[string]*Snapshot
	subscribers map[chan Update]struct{}
}

func New() *Store {
	return &Store{
		snapshots:   make(map[string]*Snapshot),
		subscribers: make(map[chan Update]struct{}),
	}
}

// Get returns a shallow copy of the repository's snapshot, or nil if the
// repository is not tracked.
func (s *Store) Get(repoPath string) *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[repoPath]
	if !ok {
		return nil
	}
	copied := *snap
	return &copied
}

// Paths returns the tracked repository paths.
func (s *Store) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.snapshots))
	for p := range s.snapshots {
		paths = append(paths, p)
	}
	return paths
}

// Apply replaces the repository's snapshot and notifies subscribers.
func (s *Store) Apply(repoPath string, snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[repoPath] = snap
	s.broadcast(Update{RepoPath: repoPath, Snapshot: snap})
}

// Remove drops the repository's snapshot and notifies subscribers with a nil
// snapshot.
func (s *Store) Remove(repoPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snapshots[repoPath]; !ok {
		return
	}
	delete(s.snapshots, repoPath)
	s.broadcast(Update{RepoPath: repoPath})
}

// Subscribe creates a new subscription channel for snapshot updates.
func (s *Store) Subscribe() chan Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Update, 100) // Buffered
	s.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (s *Store) Unsubscribe(ch chan Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscribers, ch)
	close(ch)
}

func (s *Store) broadcast(u Update) {
	for ch := range s.subscribers {
		select {
		case ch <- u:
		default:
			// Non-blocking send to prevent slow clients from stalling updates
		}
	}
}
