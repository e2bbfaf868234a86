package identity

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Identity is the authenticated principal cart and order operations act for.
type Identity struct {
	ID    uuid.UUID
	Email string
}

// Listener receives identity transitions. A nil identity means signed out.
type Listener func(ctx context.Context, current *Identity)

// Provider holds the current identity, if any, and notifies subscribers when
// it changes. Transitions are delivered synchronously, exactly once per
// change, in the order they occur.
type Provider struct {
	// dispatchMu serializes transitions so listeners observe them in order.
	// mu alone guards state so listeners may call Current without deadlock.
	dispatchMu sync.Mutex
	mu         sync.Mutex

	current   *Identity
	listeners map[int]Listener
	nextID    int
}

// NewProvider constructs a provider with no current identity.
func NewProvider() *Provider {
	return &Provider{listeners: map[int]Listener{}}
}

// Current returns a copy of the current identity, or nil when signed out.
func (p *Provider) Current() *Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	id := *p.current
	return &id
}

// Subscribe registers a listener for future transitions and returns an
// unsubscribe function. The listener is not invoked with the current value.
func (p *Provider) Subscribe(fn Listener) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}

// SignIn sets the current identity and notifies listeners. Signing in as the
// identity that is already current is a no-op.
func (p *Provider) SignIn(ctx context.Context, id Identity) {
	p.dispatchMu.Lock()
	defer p.dispatchMu.Unlock()

	p.mu.Lock()
	if p.current != nil && p.current.ID == id.ID {
		p.mu.Unlock()
		return
	}
	next := id
	p.current = &next
	listeners := p.snapshotLocked()
	p.mu.Unlock()

	notify := next
	for _, fn := range listeners {
		fn(ctx, &notify)
	}
}

// SignOut clears the current identity and notifies listeners. A no-op when
// already signed out.
func (p *Provider) SignOut(ctx context.Context) {
	p.dispatchMu.Lock()
	defer p.dispatchMu.Unlock()

	p.mu.Lock()
	if p.current == nil {
		p.mu.Unlock()
		return
	}
	p.current = nil
	listeners := p.snapshotLocked()
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(ctx, nil)
	}
}

func (p *Provider) snapshotLocked() []Listener {
	out := make([]Listener, 0, len(p.listeners))
	for i := 0; i < p.nextID; i++ {
		if fn, ok := p.listeners[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}
