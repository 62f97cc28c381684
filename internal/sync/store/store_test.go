package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/reposync/git"
	"github.com/grovetools/reposync/internal/sync/selection"
)

func TestGetUntracked(t *testing.T) {
	s := New()
	assert.Nil(t, s.Get("/repo"))
}

func TestApplyAndGet(t *testing.T) {
	s := New()
	snap := &Snapshot{History: []string{"c1"}}
	s.Apply("/repo", snap)

	got := s.Get("/repo")
	require.NotNil(t, got)
	assert.Equal(t, []string{"c1"}, got.History)

	// Get returns a copy; mutating it must not affect the store.
	got.History = nil
	assert.Equal(t, []string{"c1"}, s.Get("/repo").History)
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	s := New()
	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	s.Apply("/repo", &Snapshot{})
	u := <-ch
	assert.Equal(t, "/repo", u.RepoPath)
	assert.NotNil(t, u.Snapshot)

	s.Remove("/repo")
	u = <-ch
	assert.Equal(t, "/repo", u.RepoPath)
	assert.Nil(t, u.Snapshot)
	assert.Nil(t, s.Get("/repo"))
}

func TestRemoveUntrackedDoesNotBroadcast(t *testing.T) {
	s := New()
	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	s.Remove("/missing")
	select {
	case u := <-ch:
		t.Fatalf("unexpected update for %s", u.RepoPath)
	default:
	}
}

func TestSlowSubscriberDoesNotBlockApply(t *testing.T) {
	s := New()
	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	// Fill the buffer well past capacity; Apply must never stall.
	for i := 0; i < 250; i++ {
		s.Apply("/repo", &Snapshot{})
	}
	assert.NotNil(t, s.Get("/repo"))
}

func TestAggregateSelection(t *testing.T) {
	wd := WorkingDirectory{
		Files: []git.FileChange{
			{Path: "a.txt", Status: git.StatusModified},
			{Path: "b.txt", Status: git.StatusModified},
		},
		Selections: map[string]selection.DiffSelection{
			"a.txt": selection.New(3, true),
			"b.txt": selection.New(3, false),
		},
	}
	assert.Equal(t, selection.Partial, wd.AggregateSelection())

	wd.Selections["b.txt"] = selection.New(3, true)
	assert.Equal(t, selection.All, wd.AggregateSelection())

	empty := WorkingDirectory{}
	assert.Equal(t, selection.All, empty.AggregateSelection())
}

func TestPaths(t *testing.T) {
	s := New()
	s.Apply("/a", &Snapshot{})
	s.Apply("/b", &Snapshot{})
	assert.ElementsMatch(t, []string{"/a", "/b"}, s.Paths())
}
