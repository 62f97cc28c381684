package history

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/reposync/errors"
)

// fakeSource returns canned SHA lists keyed by revision range.
type fakeSource struct {
	mu      sync.Mutex
	ranges  map[string][]string
	errs    map[string]error
	calls   []string
	block   chan struct{}
	release chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		ranges: make(map[string][]string),
		errs:   make(map[string]error),
	}
}

func (f *fakeSource) CommitSHAs(ctx context.Context, repoPath, revisionRange string, limit int) ([]string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, revisionRange)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		close(block)
		f.mu.Lock()
		f.block = nil
		f.mu.Unlock()
		<-f.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[revisionRange]; err != nil {
		return nil, err
	}
	shas := f.ranges[revisionRange]
	if limit > 0 && len(shas) > limit {
		shas = shas[:limit]
	}
	return shas, nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestLoadInitial(t *testing.T) {
	src := newFakeSource()
	src.ranges["HEAD"] = []string{"c3", "c2", "c1"}

	c := NewCache()
	changed, err := c.Load(context.Background(), src, "/repo", 100)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"c3", "c2", "c1"}, c.SHAs())
}

func TestLoadPrependsNewCommits(t *testing.T) {
	src := newFakeSource()
	src.ranges["HEAD"] = []string{"c3", "c2", "c1"}

	c := NewCache()
	_, err := c.Load(context.Background(), src, "/repo", 100)
	require.NoError(t, err)

	// Two new commits land; the old head c3 is still inside the fresh batch.
	src.ranges["HEAD"] = []string{"c5", "c4", "c3", "c2"}
	_, err = c.Load(context.Background(), src, "/repo", 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"c5", "c4", "c3", "c2", "c1"}, c.SHAs())
}

func TestLoadReplacesOnDivergence(t *testing.T) {
	src := newFakeSource()
	src.ranges["HEAD"] = []string{"c3", "c2", "c1"}

	c := NewCache()
	_, err := c.Load(context.Background(), src, "/repo", 100)
	require.NoError(t, err)

	// History rewritten: the old head is gone from the new window.
	src.ranges["HEAD"] = []string{"x2", "x1"}
	_, err = c.Load(context.Background(), src, "/repo", 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"x2", "x1"}, c.SHAs())
}

func TestLoadNextBatch(t *testing.T) {
	src := newFakeSource()
	src.ranges["HEAD"] = []string{"c6", "c5", "c4"}
	src.ranges["c4^"] = []string{"c3", "c2", "c1"}

	c := NewCache()
	_, err := c.Load(context.Background(), src, "/repo", 3)
	require.NoError(t, err)

	changed, err := c.LoadNextBatch(context.Background(), src, "/repo", 3)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"c6", "c5", "c4", "c3", "c2", "c1"}, c.SHAs())
}

func TestLoadNextBatchAtRootCommitIsExhausted(t *testing.T) {
	src := newFakeSource()
	src.ranges["HEAD"] = []string{"c2", "c1"}
	// c1 is the root commit, so "c1^" resolves to nothing.
	src.errs["c1^"] = errors.New(errors.ErrCodeNoSuchRef, "bad revision 'c1^'")

	c := NewCache()
	_, err := c.Load(context.Background(), src, "/repo", 100)
	require.NoError(t, err)

	changed, err := c.LoadNextBatch(context.Background(), src, "/repo", 100)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, []string{"c2", "c1"}, c.SHAs())
}

func TestLoadNextBatchSurfacesOtherErrors(t *testing.T) {
	src := newFakeSource()
	src.ranges["HEAD"] = []string{"c2", "c1"}
	src.errs["c1^"] = errors.New(errors.ErrCodeCommandFailed, "rev-list failed")

	c := NewCache()
	_, err := c.Load(context.Background(), src, "/repo", 100)
	require.NoError(t, err)

	_, err = c.LoadNextBatch(context.Background(), src, "/repo", 100)
	require.Error(t, err)
}

func TestLoadNextBatchOnEmptyCacheLoadsFromTip(t *testing.T) {
	src := newFakeSource()
	src.ranges["HEAD"] = []string{"c2", "c1"}

	c := NewCache()
	changed, err := c.LoadNextBatch(context.Background(), src, "/repo", 100)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"c2", "c1"}, c.SHAs())
}

func TestReconcileSplicesAboveMergeBase(t *testing.T) {
	src := newFakeSource()
	src.ranges["HEAD"] = []string{"local2", "local1", "base", "c1"}

	c := NewCache()
	_, err := c.Load(context.Background(), src, "/repo", 100)
	require.NoError(t, err)

	// After a pull, the commits above the merge base are different.
	src.ranges["base..HEAD"] = []string{"merge", "remote1", "local2", "local1"}
	changed, err := c.Reconcile(context.Background(), src, "/repo", "base")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"merge", "remote1", "local2", "local1", "base", "c1"}, c.SHAs())
}

func TestReconcileUnknownMergeBaseIsNoop(t *testing.T) {
	src := newFakeSource()
	src.ranges["HEAD"] = []string{"c2", "c1"}

	c := NewCache()
	_, err := c.Load(context.Background(), src, "/repo", 100)
	require.NoError(t, err)

	changed, err := c.Reconcile(context.Background(), src, "/repo", "unknown")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, []string{"c2", "c1"}, c.SHAs())

	changed, err = c.Reconcile(context.Background(), src, "/repo", "")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestLoadDropsDuplicateInFlightRequest(t *testing.T) {
	src := newFakeSource()
	src.ranges["HEAD"] = []string{"c1"}
	src.block = make(chan struct{})
	src.release = make(chan struct{})

	c := NewCache()
	done := make(chan error, 1)
	blocked := src.block
	go func() {
		_, err := c.Load(context.Background(), src, "/repo", 100)
		done <- err
	}()

	// Wait until the first load is inside the source call, then issue a
	// duplicate. It must return immediately without touching the source.
	<-blocked
	changed, err := c.Load(context.Background(), src, "/repo", 100)
	require.NoError(t, err)
	assert.False(t, changed)

	close(src.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, src.callCount())
	assert.Equal(t, []string{"c1"}, c.SHAs())
}

func TestClear(t *testing.T) {
	src := newFakeSource()
	src.ranges["HEAD"] = []string{"c1"}

	c := NewCache()
	_, err := c.Load(context.Background(), src, "/repo", 100)
	require.NoError(t, err)
	c.Clear()
	assert.Empty(t, c.SHAs())
}
