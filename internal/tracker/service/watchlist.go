package service

import (
	"context"
	"slices"
	"sync"

	"github.com/tradelens/hts-tracker/internal/tracker/model"
)

// WatchlistCache keeps each user's tracked codes in memory once loaded from storage.
// Completed track and untrack operations update the cached list directly.
//
// Every change to a user's watchlist bumps a per-user generation. A load whose
// generation is stale by the time it returns read storage before that change and is
// not cached.
type WatchlistCache struct {
	mu          sync.Mutex
	lists       map[string][]model.TrackedCodeView
	generations map[string]uint64
}

func NewWatchlistCache() *WatchlistCache {
	return &WatchlistCache{
		lists:       make(map[string][]model.TrackedCodeView),
		generations: make(map[string]uint64),
	}
}

// Get returns a copy of the user's list, calling load on first access.
func (c *WatchlistCache) Get(ctx context.Context, userID string, load func(ctx context.Context) ([]model.TrackedCodeView, error)) ([]model.TrackedCodeView, error) {
	c.mu.Lock()
	list, ok := c.lists[userID]
	generation := c.generations[userID]
	c.mu.Unlock()
	if ok {
		return slices.Clone(list), nil
	}

	loaded, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if loaded == nil {
		loaded = []model.TrackedCodeView{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if current, ok := c.lists[userID]; ok {
		return slices.Clone(current), nil
	}
	if c.generations[userID] != generation {
		// changed while loading; the next Get reads storage again
		return loaded, nil
	}
	c.lists[userID] = loaded
	return slices.Clone(loaded), nil
}

// Add appends or replaces the entry for view.HSCode. Lists that were never loaded are
// read from storage on first access.
func (c *WatchlistCache) Add(userID string, view model.TrackedCodeView) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[userID]++

	list, ok := c.lists[userID]
	if !ok {
		return
	}
	list = slices.DeleteFunc(list, func(v model.TrackedCodeView) bool { return v.HSCode == view.HSCode })
	c.lists[userID] = append(list, view)
}

// Remove drops hsCode from the user's cached list.
func (c *WatchlistCache) Remove(userID, hsCode string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[userID]++

	list, ok := c.lists[userID]
	if !ok {
		return
	}
	c.lists[userID] = slices.DeleteFunc(list, func(v model.TrackedCodeView) bool { return v.HSCode == hsCode })
}

// Invalidate forgets the user's cached list, including any load in flight, so the
// next Get reads storage.
func (c *WatchlistCache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[userID]++
	delete(c.lists, userID)
}
