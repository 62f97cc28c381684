// Package compare memoizes ahead/behind counts between commit pairs. Counts
// between two fixed SHAs never change, so entries live for the lifetime of
// the process and a hit skips the rev-list invocation entirely.
package compare

import (
	"context"
	"fmt"

	gocache "github.com/patrickmn/go-cache"

	"github.com/grovetools/reposync/git"
)

// CountFunc computes the ahead/behind counts for a SHA pair on a miss.
type CountFunc func(ctx context.Context) (*git.AheadBehind, error)

// Cache is safe for concurrent use.
type Cache struct {
	entries *gocache.Cache
}

func New() *Cache {
	return &Cache{
		entries: gocache.New(gocache.NoExpiration, 0),
	}
}

func key(from, to string) string {
	return fmt.Sprintf("%s..%s", from, to)
}

// Get returns the memoized counts for the pair, if present.
func (c *Cache) Get(from, to string) (*git.AheadBehind, bool) {
	v, ok := c.entries.Get(key(from, to))
	if !ok {
		return nil, false
	}
	counts := v.(git.AheadBehind)
	return &counts, true
}

// Insert records the counts for the pair.
func (c *Cache) Insert(from, to string, counts git.AheadBehind) {
	c.entries.Set(key(from, to), counts, gocache.NoExpiration)
}

// GetOrCompute returns the memoized counts, invoking compute on a miss and
// recording the result. Errors from compute are not cached.
func (c *Cache) GetOrCompute(ctx context.Context, from, to string, compute CountFunc) (*git.AheadBehind, error) {
	if counts, ok := c.Get(from, to); ok {
		return counts, nil
	}

	counts, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	c.Insert(from, to, *counts)
	return counts, nil
}
