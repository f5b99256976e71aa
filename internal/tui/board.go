package tui

import (
	"sync"
	"time"

	"github.com/PabloGalante/vitalito/internal/domain"
	"github.com/PabloGalante/vitalito/internal/observability"
)

const maxNotices = 3

type boardItem struct {
	notice  domain.Notice
	expires time.Time
}

// Board collects transient notices from any goroutine and hands the live
// ones to the view. It implements domain.Notifier.
type Board struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	items []boardItem
}

func NewBoard(ttl time.Duration) *Board {
	if ttl <= 0 {
		ttl = 4 * time.Second
	}
	return &Board{ttl: ttl, now: time.Now}
}

func (b *Board) Notify(n domain.Notice) {
	observability.Logger().Debug("notice", "level", n.Level, "text", n.Text)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, boardItem{notice: n, expires: b.now().Add(b.ttl)})
	if len(b.items) > maxNotices {
		b.items = b.items[len(b.items)-maxNotices:]
	}
}

// Active drops expired notices and returns the rest, oldest first.
func (b *Board) Active() []domain.Notice {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	kept := b.items[:0]
	for _, it := range b.items {
		if now.Before(it.expires) {
			kept = append(kept, it)
		}
	}
	b.items = kept

	out := make([]domain.Notice, len(kept))
	for i, it := range kept {
		out[i] = it.notice
	}
	return out
}
