// Package state provides durable key-value storage for per-repository
// settings. It is read on synchronizer initialization and written on explicit
// setting changes; it is not involved in the hot path of status or history
// refresh.
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// RepositorySettings holds the per-repository preferences the UI can toggle.
type RepositorySettings struct {
	// ShowCoAuthoredBy controls whether commits record Co-Authored-By trailers.
	ShowCoAuthoredBy bool `yaml:"show_co_authored_by"`

	// ConfirmDiscard requires confirmation before discarding working
	// directory changes.
	ConfirmDiscard bool `yaml:"confirm_discard"`

	// RecentBranches is the checkout history, most recent first. Entries
	// referencing deleted branches are filtered at read time, not here.
	RecentBranches []string `yaml:"recent_branches,omitempty"`
}

// DefaultRepositorySettings returns the settings for a repository that has
// never been configured.
func DefaultRepositorySettings() RepositorySettings {
	return RepositorySettings{
		ShowCoAuthoredBy: true,
		ConfirmDiscard:   true,
	}
}

// Store persists settings for all known repositories in a single yaml file,
// keyed by working-directory path.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns ~/.reposync/settings.yml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".reposync", "settings.yml"), nil
}

func (s *Store) load() (map[string]RepositorySettings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]RepositorySettings), nil
		}
		return nil, fmt.Errorf("read settings file: %w", err)
	}

	var all map[string]RepositorySettings
	if err := yaml.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("parse settings file: %w", err)
	}
	if all == nil {
		all = make(map[string]RepositorySettings)
	}
	return all, nil
}

func (s *Store) save(all map[string]RepositorySettings) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	data, err := yaml.Marshal(all)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}

// Get retrieves settings for a repository, falling back to defaults.
func (s *Store) Get(repoPath string) (RepositorySettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return RepositorySettings{}, err
	}

	settings, ok := all[repoPath]
	if !ok {
		return DefaultRepositorySettings(), nil
	}
	return settings, nil
}

// Set stores settings for a repository.
func (s *Store) Set(repoPath string, settings RepositorySettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}

	all[repoPath] = settings
	return s.save(all)
}

// RecordCheckout prepends branch to the repository's checkout history,
// deduplicating and capping at limit entries.
func (s *Store) RecordCheckout(repoPath, branch string, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}

	settings, ok := all[repoPath]
	if !ok {
		settings = DefaultRepositorySettings()
	}

	recent := []string{branch}
	for _, b := range settings.RecentBranches {
		if b == branch {
			continue
		}
		recent = append(recent, b)
		if len(recent) >= limit {
			break
		}
	}
	settings.RecentBranches = recent

	all[repoPath] = settings
	return s.save(all)
}

// Delete removes a repository's settings, used when a repository becomes
// missing and its state is torn down.
func (s *Store) Delete(repoPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}

	delete(all, repoPath)
	return s.save(all)
}
