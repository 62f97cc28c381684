// Package history maintains the incrementally loaded commit graph for a
// repository. The cache holds an ordered list of SHAs, newest first, and is
// extended by pagination or spliced after the tip moves. Commit objects
// themselves live elsewhere; this cache only tracks ordering.
package history

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/reposync/errors"
	"github.com/grovetools/reposync/logging"
)

// Source supplies commit SHAs for a revision range. *git.Client satisfies it.
type Source interface {
	CommitSHAs(ctx context.Context, repoPath, revisionRange string, limit int) ([]string, error)
}

// Request keys for in-flight deduplication. A second request with the same
// key while the first is still running is dropped, not queued.
const (
	requestLoad      = "load"
	requestNextBatch = "next-batch"
	requestReconcile = "reconcile"
)

type Cache struct {
	mu       sync.Mutex
	shas     []string
	inFlight map[string]struct{}
	logger   *logrus.Entry
}

func NewCache() *Cache {
	return &Cache{
		inFlight: make(map[string]struct{}),
		logger:   logging.NewLogger("history"),
	}
}

// SHAs returns a copy of the cached ordering, newest first.
func (c *Cache) SHAs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.shas))
	copy(out, c.shas)
	return out
}

func (c *Cache) begin(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inFlight[key]; busy {
		return false
	}
	c.inFlight[key] = struct{}{}
	return true
}

func (c *Cache) end(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, key)
}

// Load fetches the newest batch of commits from the tip and merges it with
// the cached ordering. If the previously known tip appears in the fresh
// batch, only the commits newer than it are prepended; if it does not, the
// tip has diverged and the fresh batch replaces the cache wholesale. Returns
// false without error when an identical request is already in flight.
func (c *Cache) Load(ctx context.Context, src Source, repoPath string, batchSize int) (bool, error) {
	if !c.begin(requestLoad) {
		c.logger.Debug("History load already in flight, dropping request")
		return false, nil
	}
	defer c.end(requestLoad)

	fresh, err := src.CommitSHAs(ctx, repoPath, "HEAD", batchSize)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.shas = splice(c.shas, fresh)
	return true, nil
}

// LoadNextBatch extends the cache past its oldest known commit. On an empty
// cache it behaves like Load.
func (c *Cache) LoadNextBatch(ctx context.Context, src Source, repoPath string, batchSize int) (bool, error) {
	c.mu.Lock()
	empty := len(c.shas) == 0
	var oldest string
	if !empty {
		oldest = c.shas[len(c.shas)-1]
	}
	c.mu.Unlock()

	if empty {
		return c.Load(ctx, src, repoPath, batchSize)
	}

	if !c.begin(requestNextBatch) {
		c.logger.Debug("History pagination already in flight, dropping request")
		return false, nil
	}
	defer c.end(requestNextBatch)

	older, err := src.CommitSHAs(ctx, repoPath, oldest+"^", batchSize)
	if err != nil {
		// The oldest cached commit is the root; "<root>^" resolves to
		// nothing, which means there is no more history to page in.
		if errors.Is(err, errors.ErrCodeNoSuchRef) {
			return false, nil
		}
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Append only if the cache still ends where this request started.
	if len(c.shas) == 0 || c.shas[len(c.shas)-1] != oldest {
		return false, nil
	}
	c.shas = append(c.shas, older...)
	return true, nil
}

// Reconcile repairs the ordering after an operation rewrote history above a
// known merge base: everything newer than the merge base is refetched and
// spliced in before the cached remainder. A merge base that is not in the
// cache makes this a no-op; the next Load will rebuild from scratch.
func (c *Cache) Reconcile(ctx context.Context, src Source, repoPath, mergeBase string) (bool, error) {
	if mergeBase == "" {
		return false, nil
	}

	c.mu.Lock()
	idx := indexOf(c.shas, mergeBase)
	c.mu.Unlock()
	if idx < 0 {
		c.logger.WithField("merge_base", mergeBase).Debug("Merge base not cached, skipping reconcile")
		return false, nil
	}

	if !c.begin(requestReconcile) {
		return false, nil
	}
	defer c.end(requestReconcile)

	newer, err := src.CommitSHAs(ctx, repoPath, mergeBase+"..HEAD", 0)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	idx = indexOf(c.shas, mergeBase)
	if idx < 0 {
		return false, nil
	}
	merged := make([]string, 0, len(newer)+len(c.shas)-idx)
	merged = append(merged, newer...)
	merged = append(merged, c.shas[idx:]...)
	c.shas = merged
	return true, nil
}

// Clear drops the cached ordering, forcing the next Load to start over.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shas = nil
}

// splice merges a freshly loaded batch from the tip with the existing
// ordering. The batch always starts at the new tip, so if the old head is
// found in it, everything before that position is new.
func splice(existing, fresh []string) []string {
	if len(existing) == 0 {
		return fresh
	}
	idx := indexOf(fresh, existing[0])
	if idx < 0 {
		return fresh
	}
	merged := make([]string, 0, idx+len(existing))
	merged = append(merged, fresh[:idx]...)
	merged = append(merged, existing...)
	return merged
}

func indexOf(shas []string, sha string) int {
	for i, s := range shas {
		if s == sha {
			return i
		}
	}
	return -1
}
