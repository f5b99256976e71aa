package draft

import (
	"context"
	"sync"

	"github.com/PabloGalante/vitalito/internal/domain"
	"github.com/PabloGalante/vitalito/internal/observability"
)

// persister writes the latest scheduled value to the store from a single
// goroutine. Values scheduled while a write is in flight are coalesced:
// only the most recent one is written next.
type persister struct {
	store domain.KeyValueStore
	key   string

	mu      sync.Mutex
	idle    *sync.Cond
	pending string
	dirty   bool
	writing bool
	closed  bool // no new values accepted
	stopped bool // writer goroutine has exited

	wake      chan struct{}
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func newPersister(store domain.KeyValueStore, key string) *persister {
	p := &persister{
		store: store,
		key:   key,
		wake:  make(chan struct{}, 1),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	p.idle = sync.NewCond(&p.mu)
	go p.run()
	return p
}

// schedule records value as the next one to write. It never blocks on I/O.
func (p *persister) schedule(value string) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.pending = value
	p.dirty = true
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// flush blocks until every scheduled value has been written.
func (p *persister) flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for (p.dirty || p.writing) && !p.stopped {
		p.idle.Wait()
	}
}

// close writes whatever is still pending and stops the writer goroutine.
// Values scheduled once close has started are dropped.
func (p *persister) close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		close(p.quit)
	})
	<-p.done
}

func (p *persister) run() {
	defer close(p.done)
	for {
		select {
		case <-p.wake:
			p.drain()
		case <-p.quit:
			p.drain()
			p.mu.Lock()
			p.stopped = true
			p.idle.Broadcast()
			p.mu.Unlock()
			return
		}
	}
}

func (p *persister) drain() {
	for {
		p.mu.Lock()
		if !p.dirty {
			p.writing = false
			p.idle.Broadcast()
			p.mu.Unlock()
			return
		}
		value := p.pending
		p.dirty = false
		p.writing = true
		p.mu.Unlock()

		if err := p.store.Set(context.Background(), p.key, value); err != nil {
			observability.WithFields("key", p.key).Warn("failed to persist draft", "error", err)
		}
	}
}
