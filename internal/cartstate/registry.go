package cartstate

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rohanjoseph/freshbasket-backend/internal/identity"
	"github.com/rohanjoseph/freshbasket-backend/pkg/errors"
	"github.com/rohanjoseph/freshbasket-backend/pkg/logger"
)

// Session pairs one principal's identity provider with the cart manager
// subscribed to it.
type Session struct {
	Provider *identity.Provider
	Manager  *Manager
}

// Registry hands out one Session per signed-in principal so every request
// for a user flows through the same cart projection.
type Registry struct {
	store Store
	logg  *logger.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewRegistry builds an empty registry over the shared cart store.
func NewRegistry(store Store, logg *logger.Logger) (*Registry, error) {
	if store == nil {
		return nil, errors.New(errors.CodeInternal, "cart store is required")
	}
	if logg == nil {
		return nil, errors.New(errors.CodeInternal, "logger is required")
	}
	return &Registry{
		store:    store,
		logg:     logg,
		sessions: map[uuid.UUID]*Session{},
	}, nil
}

// Session returns the principal's session, creating and signing it in on
// first use. Creation triggers the initial cart fetch.
func (r *Registry) Session(ctx context.Context, ident identity.Identity) (*Session, error) {
	if ident.ID == uuid.Nil {
		return nil, errors.New(errors.CodeNotAuthenticated, "identity is required")
	}

	r.mu.Lock()
	if existing, ok := r.sessions[ident.ID]; ok {
		r.mu.Unlock()
		return existing, nil
	}

	provider := identity.NewProvider()
	manager, err := NewManager(r.store, provider, r.logg)
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}
	session := &Session{Provider: provider, Manager: manager}
	r.sessions[ident.ID] = session
	r.mu.Unlock()

	provider.SignIn(ctx, ident)
	return session, nil
}

// SignOut tears down the principal's session, clearing its local projection
// without touching remote state.
func (r *Registry) SignOut(ctx context.Context, userID uuid.UUID) {
	r.mu.Lock()
	session, ok := r.sessions[userID]
	if ok {
		delete(r.sessions, userID)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	session.Provider.SignOut(ctx)
	session.Manager.Close()
}

// Close detaches every session. Used on shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = map[uuid.UUID]*Session{}
	r.mu.Unlock()

	for _, s := range sessions {
		s.Manager.Close()
	}
}
