package feed

import (
	"sync"

	"github.com/Ralph2001/marketplace/internal/models"
)

// ApplyInsert prepends a newly arrived message to an inbox view and keeps at
// most size entries. The existing order is preserved; only the tail is cut.
func ApplyInsert(items []models.Message, msg models.Message, size int) []models.Message {
	out := make([]models.Message, 0, size)
	out = append(out, msg)
	for _, m := range items {
		if len(out) == size {
			break
		}
		out = append(out, m)
	}
	return out
}

// Inbox is the live notification view for one seller: the most recent
// messages, capped at a fixed size. There is no read/unread tracking; the
// indicator is simply "the feed is non-empty".
type Inbox struct {
	mu    sync.Mutex
	size  int
	items []models.Message
}

func NewInbox(size int) *Inbox {
	return &Inbox{size: size}
}

// Seed replaces the inbox contents from a store query, newest first.
func (i *Inbox) Seed(items []models.Message) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(items) > i.size {
		items = items[:i.size]
	}
	i.items = append([]models.Message(nil), items...)
}

// Push applies a live insert: prepend and re-truncate to the cap.
func (i *Inbox) Push(msg models.Message) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.items = ApplyInsert(i.items, msg, i.size)
}

// Items returns a copy of the current view.
func (i *Inbox) Items() []models.Message {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]models.Message(nil), i.items...)
}

// HasNotifications reports whether the feed has anything to show.
func (i *Inbox) HasNotifications() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.items) > 0
}
