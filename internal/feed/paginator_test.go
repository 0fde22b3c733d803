package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ralph2001/marketplace/internal/models"
)

// sliceFetcher serves pages out of a fixed slice, recording every call.
type sliceFetcher struct {
	mu    sync.Mutex
	items []models.ListingSummary
	calls []Criteria
}

func makeSummaries(n int, prefix string) []models.ListingSummary {
	out := make([]models.ListingSummary, n)
	for i := range out {
		out[i] = models.ListingSummary{ID: fmt.Sprintf("%s-%03d", prefix, i), Title: prefix}
	}
	return out
}

func (f *sliceFetcher) fetch(ctx context.Context, c Criteria, offset, limit int) ([]models.ListingSummary, error) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	items := f.items
	f.mu.Unlock()

	if offset >= len(items) {
		return nil, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end], nil
}

func TestPaginator_LoadMoreAccumulatesPages(t *testing.T) {
	f := &sliceFetcher{items: makeSummaries(25, "all")}
	p := NewPaginator(f.fetch, 10, 0)

	p.LoadMore(context.Background())
	snap := p.Snapshot()
	assert.Len(t, snap.Items, 10)
	assert.False(t, snap.Exhausted)

	p.LoadMore(context.Background())
	p.LoadMore(context.Background())
	snap = p.Snapshot()
	assert.Len(t, snap.Items, 25)
	assert.False(t, snap.Exhausted, "a short page alone does not exhaust the feed")

	// The next request comes back empty and terminates the feed.
	p.LoadMore(context.Background())
	snap = p.Snapshot()
	assert.Len(t, snap.Items, 25)
	assert.True(t, snap.Exhausted)

	// further calls are no-ops
	p.LoadMore(context.Background())
	assert.Len(t, p.Snapshot().Items, 25)
}

func TestPaginator_EmptyPageExhausts(t *testing.T) {
	f := &sliceFetcher{items: makeSummaries(10, "all")}
	p := NewPaginator(f.fetch, 10, 0)

	p.LoadMore(context.Background())
	require.Len(t, p.Snapshot().Items, 10)
	assert.False(t, p.Snapshot().Exhausted, "a full page does not exhaust the feed")

	p.LoadMore(context.Background())
	snap := p.Snapshot()
	assert.Len(t, snap.Items, 10)
	assert.True(t, snap.Exhausted)
}

func TestPaginator_ConcurrentLoadMoreDeduplicates(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex

	fetch := func(ctx context.Context, c Criteria, offset, limit int) ([]models.ListingSummary, error) {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			close(started)
			<-release
		}
		return makeSummaries(limit, "x"), nil
	}
	p := NewPaginator(fetch, 10, 0)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.LoadMore(context.Background())
	}()
	<-started

	// While the first fetch is blocked, further LoadMore calls must not
	// issue a second fetch.
	p.LoadMore(context.Background())
	p.LoadMore(context.Background())
	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestPaginator_SetCriteriaResetsAndDiscardsStale(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	fetch := func(ctx context.Context, c Criteria, offset, limit int) ([]models.ListingSummary, error) {
		if c.CategorySlug == "" {
			close(started)
			<-release
			return makeSummaries(10, "stale"), nil
		}
		return makeSummaries(3, "fresh"), nil
	}
	p := NewPaginator(fetch, 10, 0)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.LoadMore(context.Background())
	}()
	<-started

	// Criteria change while the old fetch is in flight.
	p.SetCriteria(Criteria{CategorySlug: "electronics"})
	p.LoadMore(context.Background())
	close(release)
	wg.Wait()

	snap := p.Snapshot()
	require.Len(t, snap.Items, 3)
	for _, it := range snap.Items {
		assert.Equal(t, "fresh", it.Title, "stale page must not leak into the new feed")
	}
}

func TestPaginator_SetSameCriteriaIsNoop(t *testing.T) {
	f := &sliceFetcher{items: makeSummaries(5, "all")}
	p := NewPaginator(f.fetch, 10, 0)
	p.LoadMore(context.Background())
	require.Len(t, p.Snapshot().Items, 5)

	p.SetCriteria(Criteria{})
	assert.Len(t, p.Snapshot().Items, 5, "identical criteria must not reset the feed")
}

func TestPaginator_SearchDebounce(t *testing.T) {
	f := &sliceFetcher{items: makeSummaries(5, "all")}
	p := NewPaginator(f.fetch, 10, 30*time.Millisecond)

	p.SetSearch("l")
	p.SetSearch("la")
	p.SetSearch("lam")
	p.SetSearch("lamp")

	// Before the window elapses the criteria are unchanged.
	assert.Equal(t, "", p.Snapshot().Criteria.Search)

	require.Eventually(t, func() bool {
		return p.Snapshot().Criteria.Search == "lamp"
	}, time.Second, 5*time.Millisecond)
}

func TestPaginator_FetchErrorIsRetriable(t *testing.T) {
	var calls int
	fetch := func(ctx context.Context, c Criteria, offset, limit int) ([]models.ListingSummary, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("db down")
		}
		return makeSummaries(2, "ok"), nil
	}
	p := NewPaginator(fetch, 10, 0)

	p.LoadMore(context.Background())
	snap := p.Snapshot()
	assert.Error(t, snap.Err)
	assert.Empty(t, snap.Items)
	assert.False(t, snap.Exhausted, "an error must not mark the feed exhausted")

	p.LoadMore(context.Background())
	snap = p.Snapshot()
	assert.NoError(t, snap.Err)
	assert.Len(t, snap.Items, 2)
}
