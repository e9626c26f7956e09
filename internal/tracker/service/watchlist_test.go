package service

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradelens/hts-tracker/internal/tracker/model"
)

// blockingLoader returns snapshot from its first call only after release is closed;
// later calls return current immediately.
type blockingLoader struct {
	started  chan struct{}
	release  chan struct{}
	calls    atomic.Int32
	snapshot []model.TrackedCodeView
	current  []model.TrackedCodeView
}

func newBlockingLoader(snapshot, current []model.TrackedCodeView) *blockingLoader {
	return &blockingLoader{
		started:  make(chan struct{}),
		release:  make(chan struct{}),
		snapshot: snapshot,
		current:  current,
	}
}

func (l *blockingLoader) load(context.Context) ([]model.TrackedCodeView, error) {
	if l.calls.Add(1) == 1 {
		close(l.started)
		<-l.release
		return l.snapshot, nil
	}
	return l.current, nil
}

// getDuring runs Get for a user whose first load is held open while change runs.
func getDuring(t *testing.T, cache *WatchlistCache, loader *blockingLoader, change func()) []model.TrackedCodeView {
	t.Helper()

	done := make(chan []model.TrackedCodeView)
	go func() {
		list, err := cache.Get(context.Background(), testUser, loader.load)
		assert.NoError(t, err)
		done <- list
	}()

	<-loader.started
	change()
	close(loader.release)
	return <-done
}

func TestWatchlistCache_AddDuringFirstLoadIsKept(t *testing.T) {
	cache := NewWatchlistCache()
	entry := model.TrackedCodeView{HSCode: testCode, Description: "horses", TradeType: model.TradeDirectionImport}
	loader := newBlockingLoader([]model.TrackedCodeView{}, []model.TrackedCodeView{entry})

	first := getDuring(t, cache, loader, func() { cache.Add(testUser, entry) })
	assert.Empty(t, first)

	list, err := cache.Get(context.Background(), testUser, loader.load)
	require.NoError(t, err)
	assert.Equal(t, []model.TrackedCodeView{entry}, list)
	assert.EqualValues(t, 2, loader.calls.Load())

	// now cached
	_, err = cache.Get(context.Background(), testUser, loader.load)
	require.NoError(t, err)
	assert.EqualValues(t, 2, loader.calls.Load())
}

func TestWatchlistCache_RemoveDuringFirstLoadIsKept(t *testing.T) {
	cache := NewWatchlistCache()
	entry := model.TrackedCodeView{HSCode: testCode}
	loader := newBlockingLoader([]model.TrackedCodeView{entry}, []model.TrackedCodeView{})

	getDuring(t, cache, loader, func() { cache.Remove(testUser, testCode) })

	list, err := cache.Get(context.Background(), testUser, loader.load)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestWatchlistCache_UpdatesLoadedList(t *testing.T) {
	cache := NewWatchlistCache()
	load := func(context.Context) ([]model.TrackedCodeView, error) {
		return []model.TrackedCodeView{{HSCode: "0202300010"}}, nil
	}

	_, err := cache.Get(context.Background(), testUser, load)
	require.NoError(t, err)

	cache.Add(testUser, model.TrackedCodeView{HSCode: testCode, Description: "old"})
	cache.Add(testUser, model.TrackedCodeView{HSCode: testCode, Description: "new"})
	cache.Remove(testUser, "0202300010")

	list, err := cache.Get(context.Background(), testUser, load)
	require.NoError(t, err)
	assert.Equal(t, []model.TrackedCodeView{{HSCode: testCode, Description: "new"}}, list)
}

func TestWatchlistCache_Invalidate(t *testing.T) {
	cache := NewWatchlistCache()
	calls := 0
	load := func(context.Context) ([]model.TrackedCodeView, error) {
		calls++
		return []model.TrackedCodeView{}, nil
	}

	_, err := cache.Get(context.Background(), testUser, load)
	require.NoError(t, err)
	cache.Invalidate(testUser)
	_, err = cache.Get(context.Background(), testUser, load)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}
