package feed

import (
	"context"
	"sync"
	"time"

	"github.com/Ralph2001/marketplace/internal/models"
)

// Criteria selects which listings appear in a feed. The zero value means the
// unfiltered, newest-first feed.
type Criteria struct {
	CategorySlug string
	Search       string
}

// FetchFunc loads one page of listing summaries for the given criteria.
// Returning an empty page marks the feed as exhausted.
type FetchFunc func(ctx context.Context, c Criteria, offset, limit int) ([]models.ListingSummary, error)

// Paginator accumulates pages of a listing feed under changing criteria.
//
// It is level-triggered: LoadMore is safe to call repeatedly (for example on
// every scroll event); a load already in flight suppresses further fetches,
// and results that arrive for superseded criteria are discarded. Changing
// criteria resets accumulated pages and restarts from the first page.
type Paginator struct {
	fetch    FetchFunc
	pageSize int
	debounce time.Duration

	mu         sync.Mutex
	criteria   Criteria
	items      []models.ListingSummary
	pages      int
	exhausted  bool
	validating bool
	epoch      uint64
	lastErr    error

	searchTimer *time.Timer
}

// Snapshot is an immutable view of the feed state.
type Snapshot struct {
	Criteria   Criteria
	Items      []models.ListingSummary
	Pages      int
	Exhausted  bool
	Validating bool
	Err        error
}

// NewPaginator creates a paginator. debounce applies only to SetSearch.
func NewPaginator(fetch FetchFunc, pageSize int, debounce time.Duration) *Paginator {
	return &Paginator{
		fetch:    fetch,
		pageSize: pageSize,
		debounce: debounce,
	}
}

// Snapshot returns the current feed state. The items slice is copied so the
// caller can hold it across further mutations.
func (p *Paginator) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	items := make([]models.ListingSummary, len(p.items))
	copy(items, p.items)
	return Snapshot{
		Criteria:   p.criteria,
		Items:      items,
		Pages:      p.pages,
		Exhausted:  p.exhausted,
		Validating: p.validating,
		Err:        p.lastErr,
	}
}

// LoadMore fetches the next page and appends it to the feed. It is a no-op
// when the feed is exhausted or another fetch is already in flight, so
// callers can invoke it on every trigger without duplicating requests.
func (p *Paginator) LoadMore(ctx context.Context) {
	p.mu.Lock()
	if p.exhausted || p.validating {
		p.mu.Unlock()
		return
	}
	p.validating = true
	epoch := p.epoch
	criteria := p.criteria
	offset := p.pages * p.pageSize
	p.mu.Unlock()

	page, err := p.fetch(ctx, criteria, offset, p.pageSize)

	p.mu.Lock()
	defer p.mu.Unlock()

	// A criteria change since this fetch started makes the result stale.
	if epoch != p.epoch {
		return
	}
	p.validating = false
	if err != nil {
		p.lastErr = err
		return
	}
	p.lastErr = nil
	if len(page) == 0 {
		p.exhausted = true
		return
	}
	// A short page does not exhaust the feed; only an empty one does. New
	// listings can appear between requests, so the next window may be full.
	p.items = append(p.items, page...)
	p.pages++
}

// SetCriteria replaces the active criteria and resets the feed. In-flight
// fetches for the old criteria are invalidated. Setting identical criteria
// is a no-op.
func (p *Paginator) SetCriteria(c Criteria) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked(c)
}

func (p *Paginator) resetLocked(c Criteria) {
	if c == p.criteria {
		return
	}
	p.criteria = c
	p.items = nil
	p.pages = 0
	p.exhausted = false
	p.validating = false
	p.lastErr = nil
	p.epoch++
}

// SetSearch updates the search term after the debounce window. Successive
// calls within the window collapse into one criteria change, so a keystroke
// burst issues a single fresh query.
func (p *Paginator) SetSearch(term string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.searchTimer != nil {
		p.searchTimer.Stop()
	}
	if p.debounce <= 0 {
		c := p.criteria
		c.Search = term
		p.resetLocked(c)
		return
	}
	p.searchTimer = time.AfterFunc(p.debounce, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		c := p.criteria
		c.Search = term
		p.resetLocked(c)
	})
}
