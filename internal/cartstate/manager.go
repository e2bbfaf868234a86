package cartstate

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rohanjoseph/freshbasket-backend/internal/identity"
	"github.com/rohanjoseph/freshbasket-backend/pkg/db/models"
	"github.com/rohanjoseph/freshbasket-backend/pkg/errors"
	"github.com/rohanjoseph/freshbasket-backend/pkg/logger"
)

// Store is the remote cart collection the manager synchronizes against.
// Delete on an already-removed line must be a success no-op.
type Store interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	Insert(ctx context.Context, item *models.CartItem) error
	UpdateQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) error
	Delete(ctx context.Context, userID, lineID uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

// Manager owns the in-memory projection of one session's cart, synchronized
// against the remote line collection keyed by the current identity.
//
// Local state changes only after a remote write is confirmed, so the
// projection never runs ahead of the store. Identity changes supersede any
// in-flight fetch via generation tagging, and quantity writes carry a
// per-line sequence so a slow response cannot clobber a newer one.
type Manager struct {
	store    Store
	provider *identity.Provider
	logg     *logger.Logger

	mu         sync.Mutex
	items      []models.CartItem
	loading    bool
	generation uint64
	lineSeq    map[uuid.UUID]uint64
	nextSeq    uint64

	fetches     sync.WaitGroup
	unsubscribe func()
}

// NewManager builds a manager subscribed to the provider's identity
// transitions. Call Close to detach it.
func NewManager(store Store, provider *identity.Provider, logg *logger.Logger) (*Manager, error) {
	if store == nil {
		return nil, errors.New(errors.CodeInternal, "cart store is required")
	}
	if provider == nil {
		return nil, errors.New(errors.CodeInternal, "identity provider is required")
	}
	if logg == nil {
		return nil, errors.New(errors.CodeInternal, "logger is required")
	}

	m := &Manager{
		store:    store,
		provider: provider,
		logg:     logg,
		lineSeq:  map[uuid.UUID]uint64{},
	}
	m.unsubscribe = provider.Subscribe(m.onIdentityChange)
	return m, nil
}

// Close detaches the manager from the provider and waits for in-flight
// synchronizations to finish.
func (m *Manager) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.fetches.Wait()
}

func (m *Manager) onIdentityChange(ctx context.Context, current *identity.Identity) {
	m.mu.Lock()
	m.generation++
	gen := m.generation

	if current == nil {
		// Sign-out clears synchronously, no remote round trip.
		m.items = nil
		m.loading = false
		m.lineSeq = map[uuid.UUID]uint64{}
		m.mu.Unlock()
		return
	}

	m.loading = true
	userID := current.ID
	m.mu.Unlock()

	m.fetches.Add(1)
	go func() {
		defer m.fetches.Done()
		m.fetch(context.WithoutCancel(ctx), gen, userID)
	}()
}

// fetch applies the listed lines only while gen is still the newest
// generation, so a slow fetch for a prior identity never clobbers the
// current one.
func (m *Manager) fetch(ctx context.Context, gen uint64, userID uuid.UUID) {
	items, err := m.store.ListByUser(ctx, userID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		return
	}
	m.loading = false
	if err != nil {
		// Stale-but-safe: keep the prior projection on read failure.
		m.logg.Error(ctx, "cart fetch failed, keeping prior items", err)
		return
	}
	m.items = items
	m.lineSeq = map[uuid.UUID]uint64{}
}

// resync replaces the projection from the store, discarding the result if the
// identity changed while the list was in flight.
func (m *Manager) resync(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	gen := m.generation
	m.mu.Unlock()

	items, err := m.store.ListByUser(ctx, userID)
	if err != nil {
		return errors.Wrap(errors.CodeRemoteRead, err, "listing cart lines")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		return nil
	}
	m.items = items
	m.lineSeq = map[uuid.UUID]uint64{}
	return nil
}

// Add puts quantity units of the product in the cart. An existing line for
// the same product is increased instead of duplicated.
func (m *Manager) Add(ctx context.Context, productID uuid.UUID, quantity int) error {
	current := m.provider.Current()
	if current == nil {
		return errors.New(errors.CodeNotAuthenticated, "sign in to modify the cart")
	}
	if quantity <= 0 {
		quantity = 1
	}

	m.mu.Lock()
	var existing *models.CartItem
	for i := range m.items {
		if m.items[i].ProductID == productID {
			line := m.items[i]
			existing = &line
			break
		}
	}
	m.mu.Unlock()

	if existing != nil {
		return m.SetQuantity(ctx, existing.ID, existing.Quantity+quantity)
	}

	item := &models.CartItem{
		UserID:    current.ID,
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := m.store.Insert(ctx, item); err != nil {
		return errors.Wrap(errors.CodeRemoteWrite, err, "inserting cart line")
	}

	// Full resync so the joined product snapshot is present and a concurrent
	// add for the same product cannot leave a duplicate line locally.
	return m.resync(ctx, current.ID)
}

// SetQuantity updates a line's quantity. Zero or negative removes the line.
func (m *Manager) SetQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error {
	current := m.provider.Current()
	if current == nil {
		return errors.New(errors.CodeNotAuthenticated, "sign in to modify the cart")
	}
	if quantity <= 0 {
		return m.Remove(ctx, lineID)
	}

	m.mu.Lock()
	known := false
	for i := range m.items {
		if m.items[i].ID == lineID {
			known = true
			break
		}
	}
	gen := m.generation
	m.nextSeq++
	seq := m.nextSeq
	m.mu.Unlock()

	// Only lines in this identity's projection may be touched; a foreign or
	// stale line id never reaches the store.
	if !known {
		return errors.New(errors.CodeNotFound, "cart line not found")
	}

	if err := m.store.UpdateQuantity(ctx, current.ID, lineID, quantity); err != nil {
		return errors.Wrap(errors.CodeRemoteWrite, err, "updating cart line quantity")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation || seq <= m.lineSeq[lineID] {
		// Superseded by an identity change or a newer write on this line.
		return nil
	}
	m.lineSeq[lineID] = seq
	for i := range m.items {
		if m.items[i].ID == lineID {
			m.items[i].Quantity = quantity
			m.items[i].UpdatedAt = time.Now().UTC()
			break
		}
	}
	return nil
}

// Remove deletes a line. Removing an already-removed line succeeds.
func (m *Manager) Remove(ctx context.Context, lineID uuid.UUID) error {
	current := m.provider.Current()
	if current == nil {
		return errors.New(errors.CodeNotAuthenticated, "sign in to modify the cart")
	}

	m.mu.Lock()
	gen := m.generation
	m.nextSeq++
	seq := m.nextSeq
	m.mu.Unlock()

	if err := m.store.Delete(ctx, current.ID, lineID); err != nil {
		return errors.Wrap(errors.CodeRemoteWrite, err, "deleting cart line")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation || seq <= m.lineSeq[lineID] {
		return nil
	}
	m.lineSeq[lineID] = seq
	for i := range m.items {
		if m.items[i].ID == lineID {
			m.items = append(m.items[:i], m.items[i+1:]...)
			break
		}
	}
	return nil
}

// Clear deletes every line for the current identity. A no-op when signed out.
// Checkout calls this only after the order rows are durably recorded.
func (m *Manager) Clear(ctx context.Context) error {
	current := m.provider.Current()
	if current == nil {
		return nil
	}

	m.mu.Lock()
	gen := m.generation
	m.mu.Unlock()

	if err := m.store.DeleteByUser(ctx, current.ID); err != nil {
		return errors.Wrap(errors.CodeRemoteWrite, err, "clearing cart")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		return nil
	}
	m.items = nil
	m.lineSeq = map[uuid.UUID]uint64{}
	return nil
}

// Items returns a copy of the current lines.
func (m *Manager) Items() []models.CartItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.CartItem, len(m.items))
	copy(out, m.items)
	return out
}

// Loading reports whether an identity-change synchronization is outstanding.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// Total recomputes the cart total in cents from the current lines.
func (m *Manager) Total() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for i := range m.items {
		if m.items[i].Product == nil {
			continue
		}
		total += int64(m.items[i].Product.PriceCents) * int64(m.items[i].Quantity)
	}
	return total
}

// Count recomputes the summed quantity across lines.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for i := range m.items {
		count += m.items[i].Quantity
	}
	return count
}

// Wait blocks until in-flight identity-change fetches complete.
func (m *Manager) Wait() {
	m.fetches.Wait()
}
