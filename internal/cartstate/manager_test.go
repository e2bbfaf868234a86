package cartstate

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rohanjoseph/freshbasket-backend/internal/identity"
	"github.com/rohanjoseph/freshbasket-backend/pkg/db/models"
	pkgerrors "github.com/rohanjoseph/freshbasket-backend/pkg/errors"
	"github.com/rohanjoseph/freshbasket-backend/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCartStore struct {
	mu       sync.Mutex
	lines    map[uuid.UUID]*models.CartItem
	products map[uuid.UUID]*models.Product

	listByUser     func(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	insert         func(ctx context.Context, item *models.CartItem) error
	updateQuantity func(ctx context.Context, userID, lineID uuid.UUID, quantity int) error
	deleteLine     func(ctx context.Context, userID, lineID uuid.UUID) error
	deleteByUser   func(ctx context.Context, userID uuid.UUID) error
}

func newStubCartStore() *stubCartStore {
	return &stubCartStore{
		lines:    map[uuid.UUID]*models.CartItem{},
		products: map[uuid.UUID]*models.Product{},
	}
}

func (s *stubCartStore) addProduct(priceCents int) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.products[id] = &models.Product{ID: id, Name: fmt.Sprintf("product-%s", id), PriceCents: priceCents}
	return id
}

func (s *stubCartStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	if s.listByUser != nil {
		return s.listByUser(ctx, userID)
	}
	return s.listLocked(userID), nil
}

func (s *stubCartStore) listLocked(userID uuid.UUID) []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CartItem
	for _, line := range s.lines {
		if line.UserID != userID {
			continue
		}
		copied := *line
		copied.Product = s.products[line.ProductID]
		out = append(out, copied)
	}
	return out
}

func (s *stubCartStore) Insert(ctx context.Context, item *models.CartItem) error {
	if s.insert != nil {
		return s.insert(ctx, item)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	copied := *item
	s.lines[item.ID] = &copied
	return nil
}

func (s *stubCartStore) UpdateQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) error {
	if s.updateQuantity != nil {
		return s.updateQuantity(ctx, userID, lineID, quantity)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if line, ok := s.lines[lineID]; ok && line.UserID == userID {
		line.Quantity = quantity
	}
	return nil
}

func (s *stubCartStore) Delete(ctx context.Context, userID, lineID uuid.UUID) error {
	if s.deleteLine != nil {
		return s.deleteLine(ctx, userID, lineID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if line, ok := s.lines[lineID]; ok && line.UserID == userID {
		delete(s.lines, lineID)
	}
	return nil
}

func (s *stubCartStore) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	if s.deleteByUser != nil {
		return s.deleteByUser(ctx, userID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, line := range s.lines {
		if line.UserID == userID {
			delete(s.lines, id)
		}
	}
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func newTestManager(t *testing.T, store Store) (*Manager, *identity.Provider) {
	t.Helper()
	provider := identity.NewProvider()
	manager, err := NewManager(store, provider, testLogger())
	require.NoError(t, err)
	t.Cleanup(manager.Close)
	return manager, provider
}

func signIn(t *testing.T, manager *Manager, provider *identity.Provider) identity.Identity {
	t.Helper()
	user := identity.Identity{ID: uuid.New(), Email: "shopper@example.com"}
	provider.SignIn(context.Background(), user)
	manager.Wait()
	return user
}

func TestManagerRequiresIdentity(t *testing.T) {
	t.Parallel()

	manager, _ := newTestManager(t, newStubCartStore())

	err := manager.Add(context.Background(), uuid.New(), 1)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotAuthenticated))

	err = manager.SetQuantity(context.Background(), uuid.New(), 2)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotAuthenticated))

	err = manager.Remove(context.Background(), uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotAuthenticated))

	// Clear with no identity is a documented no-op.
	assert.NoError(t, manager.Clear(context.Background()))
}

func TestManagerAddMergesDuplicateProduct(t *testing.T) {
	t.Parallel()

	store := newStubCartStore()
	productID := store.addProduct(1000)
	manager, provider := newTestManager(t, store)
	signIn(t, manager, provider)

	ctx := context.Background()
	require.NoError(t, manager.Add(ctx, productID, 1))
	require.NoError(t, manager.Add(ctx, productID, 2))

	items := manager.Items()
	require.Len(t, items, 1)
	assert.Equal(t, productID, items[0].ProductID)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, 3, manager.Count())
	assert.Equal(t, int64(3000), manager.Total())
}

func TestManagerSetQuantityZeroRemovesLine(t *testing.T) {
	t.Parallel()

	store := newStubCartStore()
	productA := store.addProduct(500)
	productB := store.addProduct(700)
	manager, provider := newTestManager(t, store)
	signIn(t, manager, provider)

	ctx := context.Background()
	require.NoError(t, manager.Add(ctx, productA, 2))
	require.NoError(t, manager.Add(ctx, productB, 1))

	var lineA uuid.UUID
	for _, item := range manager.Items() {
		if item.ProductID == productA {
			lineA = item.ID
		}
	}
	require.NotEqual(t, uuid.Nil, lineA)

	require.NoError(t, manager.SetQuantity(ctx, lineA, 0))
	items := manager.Items()
	require.Len(t, items, 1)
	assert.Equal(t, productB, items[0].ProductID)

	// Negative quantities behave identically.
	require.NoError(t, manager.SetQuantity(ctx, items[0].ID, -5))
	assert.Empty(t, manager.Items())
	assert.Equal(t, 0, manager.Count())
	assert.Equal(t, int64(0), manager.Total())
}

func TestManagerSetQuantityRejectsForeignLine(t *testing.T) {
	t.Parallel()

	store := newStubCartStore()
	productID := store.addProduct(1000)

	// Another user's line exists in the store but not in this identity's
	// projection. SetQuantity must refuse it before any write is issued.
	other := identity.Identity{ID: uuid.New(), Email: "other@example.com"}
	foreign := models.CartItem{UserID: other.ID, ProductID: productID, Quantity: 2}
	require.NoError(t, store.Insert(context.Background(), &foreign))

	manager, provider := newTestManager(t, store)
	signIn(t, manager, provider)

	writes := 0
	store.updateQuantity = func(context.Context, uuid.UUID, uuid.UUID, int) error {
		writes++
		return nil
	}

	err := manager.SetQuantity(context.Background(), foreign.ID, 9)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
	assert.Equal(t, 0, writes, "foreign line id must never reach the store")
	assert.Equal(t, 2, store.lines[foreign.ID].Quantity)
}

func TestManagerWritesCarryOwningUser(t *testing.T) {
	t.Parallel()

	store := newStubCartStore()
	productID := store.addProduct(1000)
	manager, provider := newTestManager(t, store)
	user := signIn(t, manager, provider)

	ctx := context.Background()
	require.NoError(t, manager.Add(ctx, productID, 2))
	lineID := manager.Items()[0].ID

	var updateUser, deleteUser uuid.UUID
	store.updateQuantity = func(_ context.Context, userID, _ uuid.UUID, _ int) error {
		updateUser = userID
		return nil
	}
	store.deleteLine = func(_ context.Context, userID, _ uuid.UUID) error {
		deleteUser = userID
		return nil
	}

	require.NoError(t, manager.SetQuantity(ctx, lineID, 5))
	assert.Equal(t, user.ID, updateUser)

	require.NoError(t, manager.Remove(ctx, lineID))
	assert.Equal(t, user.ID, deleteUser)
}

func TestManagerEndToEndTotals(t *testing.T) {
	t.Parallel()

	store := newStubCartStore()
	productID := store.addProduct(1000)
	manager, provider := newTestManager(t, store)
	signIn(t, manager, provider)

	ctx := context.Background()
	require.NoError(t, manager.Add(ctx, productID, 2))
	require.Len(t, manager.Items(), 1)
	assert.Equal(t, int64(2000), manager.Total())
	assert.Equal(t, 2, manager.Count())

	require.NoError(t, manager.Add(ctx, productID, 1))
	assert.Equal(t, int64(3000), manager.Total())
	assert.Equal(t, 3, manager.Count())

	require.NoError(t, manager.Remove(ctx, manager.Items()[0].ID))
	assert.Empty(t, manager.Items())
	assert.Equal(t, int64(0), manager.Total())
}

func TestManagerFailedWritePreservesState(t *testing.T) {
	t.Parallel()

	store := newStubCartStore()
	productID := store.addProduct(1000)
	manager, provider := newTestManager(t, store)
	signIn(t, manager, provider)

	ctx := context.Background()
	require.NoError(t, manager.Add(ctx, productID, 2))
	before := manager.Items()

	store.updateQuantity = func(context.Context, uuid.UUID, uuid.UUID, int) error {
		return fmt.Errorf("connection reset")
	}
	err := manager.SetQuantity(ctx, before[0].ID, 5)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeRemoteWrite))
	assert.Equal(t, before, manager.Items())

	store.deleteLine = func(context.Context, uuid.UUID, uuid.UUID) error {
		return fmt.Errorf("connection reset")
	}
	err = manager.Remove(ctx, before[0].ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeRemoteWrite))
	assert.Equal(t, before, manager.Items())

	store.deleteByUser = func(context.Context, uuid.UUID) error {
		return fmt.Errorf("connection reset")
	}
	err = manager.Clear(ctx)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeRemoteWrite))
	assert.Equal(t, before, manager.Items())
}

func TestManagerFailedAddLeavesStateUnchanged(t *testing.T) {
	t.Parallel()

	store := newStubCartStore()
	productID := store.addProduct(1000)
	manager, provider := newTestManager(t, store)
	signIn(t, manager, provider)

	store.insert = func(context.Context, *models.CartItem) error {
		return fmt.Errorf("unique constraint violated")
	}
	err := manager.Add(context.Background(), productID, 1)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeRemoteWrite))
	assert.Empty(t, manager.Items())
}

func TestManagerFailedFetchKeepsPriorItems(t *testing.T) {
	t.Parallel()

	store := newStubCartStore()
	productID := store.addProduct(1000)
	manager, provider := newTestManager(t, store)
	user := signIn(t, manager, provider)

	ctx := context.Background()
	require.NoError(t, manager.Add(ctx, productID, 2))

	store.listByUser = func(context.Context, uuid.UUID) ([]models.CartItem, error) {
		return nil, fmt.Errorf("read timeout")
	}
	// Force a refetch by bouncing identity away and back.
	provider.SignOut(ctx)
	provider.SignIn(ctx, user)
	manager.Wait()

	// Sign-out cleared items synchronously; the failed refetch then kept
	// that state rather than inventing one.
	assert.Empty(t, manager.Items())
	assert.False(t, manager.Loading())
}

func TestManagerIdentitySwitchDiscardsStaleFetch(t *testing.T) {
	t.Parallel()

	store := newStubCartStore()
	userA := identity.Identity{ID: uuid.New(), Email: "a@example.com"}
	userB := identity.Identity{ID: uuid.New(), Email: "b@example.com"}

	productA := store.addProduct(1000)
	productB := store.addProduct(2000)
	require.NoError(t, store.Insert(context.Background(), &models.CartItem{UserID: userA.ID, ProductID: productA, Quantity: 1}))
	require.NoError(t, store.Insert(context.Background(), &models.CartItem{UserID: userB.ID, ProductID: productB, Quantity: 2}))

	gate := make(chan struct{})
	store.listByUser = func(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
		if userID == userA.ID {
			// Simulate a slow fetch that resolves after the identity switch.
			<-gate
		}
		return store.listLocked(userID), nil
	}

	manager, provider := newTestManager(t, store)
	ctx := context.Background()
	provider.SignIn(ctx, userA)
	provider.SignOut(ctx)
	provider.SignIn(ctx, userB)
	close(gate)
	manager.Wait()

	items := manager.Items()
	require.Len(t, items, 1)
	assert.Equal(t, productB, items[0].ProductID)
	assert.Equal(t, userB.ID, items[0].UserID)
}

func TestManagerSignOutClearsSynchronously(t *testing.T) {
	t.Parallel()

	store := newStubCartStore()
	productID := store.addProduct(1000)
	manager, provider := newTestManager(t, store)
	signIn(t, manager, provider)

	ctx := context.Background()
	require.NoError(t, manager.Add(ctx, productID, 1))
	require.NotEmpty(t, manager.Items())

	lists := 0
	store.listByUser = func(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
		lists++
		return store.listLocked(userID), nil
	}

	provider.SignOut(ctx)
	assert.Empty(t, manager.Items())
	assert.Equal(t, 0, lists, "sign-out must not issue a remote fetch")
}

func TestManagerStaleQuantityResponseIgnored(t *testing.T) {
	t.Parallel()

	store := newStubCartStore()
	productID := store.addProduct(1000)
	manager, provider := newTestManager(t, store)
	signIn(t, manager, provider)

	ctx := context.Background()
	require.NoError(t, manager.Add(ctx, productID, 1))
	lineID := manager.Items()[0].ID

	// First write stalls until the second completes, inverting completion
	// order. The slow response must not overwrite the newer quantity.
	firstStarted := make(chan struct{})
	release := make(chan struct{})
	calls := 0
	store.updateQuantity = func(ctx context.Context, userID, id uuid.UUID, quantity int) error {
		calls++
		if calls == 1 {
			close(firstStarted)
			<-release
		}
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- manager.SetQuantity(ctx, lineID, 5)
	}()
	<-firstStarted

	require.NoError(t, manager.SetQuantity(ctx, lineID, 9))
	close(release)
	require.NoError(t, <-done)

	items := manager.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 9, items[0].Quantity)
}

func TestManagerClearEmptiesProjection(t *testing.T) {
	t.Parallel()

	store := newStubCartStore()
	productID := store.addProduct(1500)
	manager, provider := newTestManager(t, store)
	user := signIn(t, manager, provider)

	ctx := context.Background()
	require.NoError(t, manager.Add(ctx, productID, 4))
	require.NoError(t, manager.Clear(ctx))

	assert.Empty(t, manager.Items())
	assert.Equal(t, int64(0), manager.Total())
	assert.Empty(t, store.listLocked(user.ID))
}
