package checkout

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/rohanjoseph/freshbasket-backend/internal/orders"
	"github.com/rohanjoseph/freshbasket-backend/internal/profiles"
	"github.com/rohanjoseph/freshbasket-backend/pkg/db/models"
	"github.com/rohanjoseph/freshbasket-backend/pkg/enums"
	pkgerrors "github.com/rohanjoseph/freshbasket-backend/pkg/errors"
	"github.com/rohanjoseph/freshbasket-backend/pkg/logger"
	"github.com/rohanjoseph/freshbasket-backend/pkg/pagination"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubTxRunner struct {
	err error
}

func (s *stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s.err != nil {
		return s.err
	}
	return fn(nil)
}

type stubOrderRepo struct {
	order *models.Order
	items []models.OrderItem

	createOrder      func(ctx context.Context, order *models.Order) error
	createOrderItems func(ctx context.Context, items []models.OrderItem) error
}

func (s *stubOrderRepo) WithTx(tx *gorm.DB) orders.Repository { return s }

func (s *stubOrderRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	if s.createOrder != nil {
		return s.createOrder(ctx, order)
	}
	s.order = order
	return nil
}

func (s *stubOrderRepo) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if s.createOrderItems != nil {
		return s.createOrderItems(ctx, items)
	}
	s.items = items
	return nil
}

func (s *stubOrderRepo) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, *pagination.Cursor, error) {
	return nil, nil, nil
}

func (s *stubOrderRepo) FindByID(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

type stubProfileRepo struct {
	upserted *models.Profile
	upsert   func(ctx context.Context, profile *models.Profile) error
}

func (s *stubProfileRepo) WithTx(tx *gorm.DB) profiles.Repository { return s }

func (s *stubProfileRepo) Upsert(ctx context.Context, profile *models.Profile) error {
	if s.upsert != nil {
		return s.upsert(ctx, profile)
	}
	s.upserted = profile
	return nil
}

func (s *stubProfileRepo) FindByID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	return nil, gorm.ErrRecordNotFound
}

type stubCart struct {
	items   []models.CartItem
	cleared int
	clear   func(ctx context.Context) error
}

func (s *stubCart) Items() []models.CartItem { return s.items }

func (s *stubCart) Clear(ctx context.Context) error {
	if s.clear != nil {
		return s.clear(ctx)
	}
	s.cleared++
	s.items = nil
	return nil
}

func cartWithLines(prices ...int) *stubCart {
	cart := &stubCart{}
	userID := uuid.New()
	for _, price := range prices {
		productID := uuid.New()
		cart.items = append(cart.items, models.CartItem{
			ID:        uuid.New(),
			UserID:    userID,
			ProductID: productID,
			Quantity:  2,
			Product:   &models.Product{ID: productID, Name: "Organic Tomatoes", PriceCents: price},
		})
	}
	return cart
}

func validRequest() PlaceOrderRequest {
	return PlaceOrderRequest{
		Email:           "shopper@example.com",
		FullName:        "Rohan Joseph",
		ShippingAddress: "12 MG Road, Bengaluru",
		City:            "Bengaluru",
		State:           "Karnataka",
		Pincode:         "560001",
		PaymentMethod:   enums.PaymentMethodCOD,
	}
}

func newTestService(t *testing.T, tx TxRunner, orderRepo *stubOrderRepo, profileRepo *stubProfileRepo) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		TxRunner:    tx,
		OrderRepo:   orderRepo,
		ProfileRepo: profileRepo,
		Logger:      logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard}),
	})
	require.NoError(t, err)
	return svc
}

var orderNumberRe = regexp.MustCompile(`^ORD-\d{13}-\d{3}$`)

func TestPlaceOrderPersistsAndClears(t *testing.T) {
	t.Parallel()

	orderRepo := &stubOrderRepo{}
	profileRepo := &stubProfileRepo{}
	cart := cartWithLines(5000, 12000)
	svc := newTestService(t, &stubTxRunner{}, orderRepo, profileRepo)

	receipt, err := svc.PlaceOrder(context.Background(), uuid.New(), cart, validRequest())
	require.NoError(t, err)

	assert.Regexp(t, orderNumberRe, receipt.OrderNumber)
	assert.Equal(t, enums.OrderStatusPending, receipt.Status)
	assert.Equal(t, 2*5000+2*12000, receipt.TotalCents)

	require.NotNil(t, orderRepo.order)
	assert.Equal(t, receipt.OrderNumber, orderRepo.order.OrderNumber)

	require.Len(t, orderRepo.items, 2)
	// Line prices are frozen copies of the product price at order time.
	assert.Equal(t, 5000, orderRepo.items[0].PriceCents)
	assert.Equal(t, 12000, orderRepo.items[1].PriceCents)

	require.NotNil(t, profileRepo.upserted)
	require.NotNil(t, profileRepo.upserted.Address)
	assert.Equal(t, "12 MG Road, Bengaluru", *profileRepo.upserted.Address)

	assert.Equal(t, 1, cart.cleared)
	assert.Empty(t, cart.items)
}

func TestPlaceOrderTotalMatchesFrozenLines(t *testing.T) {
	t.Parallel()

	orderRepo := &stubOrderRepo{}
	cart := cartWithLines(5000, 12000, 799)
	svc := newTestService(t, &stubTxRunner{}, orderRepo, &stubProfileRepo{})

	receipt, err := svc.PlaceOrder(context.Background(), uuid.New(), cart, validRequest())
	require.NoError(t, err)

	// The receipt total is derived from the same snapshot the persisted
	// lines were frozen from, so the two can never disagree even when the
	// cart keeps mutating during checkout.
	var sum int
	for _, item := range orderRepo.items {
		sum += item.PriceCents * item.Quantity
	}
	assert.Equal(t, sum, receipt.TotalCents)
	assert.Equal(t, sum, orderRepo.order.TotalCents)
}

func TestPlaceOrderEmptyCartRejected(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubTxRunner{}, &stubOrderRepo{}, &stubProfileRepo{})

	_, err := svc.PlaceOrder(context.Background(), uuid.New(), &stubCart{}, validRequest())
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestPlaceOrderLineWriteFailureKeepsCart(t *testing.T) {
	t.Parallel()

	orderRepo := &stubOrderRepo{
		createOrderItems: func(context.Context, []models.OrderItem) error {
			return fmt.Errorf("disk full")
		},
	}
	cart := cartWithLines(5000)
	before := cart.Items()
	svc := newTestService(t, &stubTxRunner{}, orderRepo, &stubProfileRepo{})

	_, err := svc.PlaceOrder(context.Background(), uuid.New(), cart, validRequest())
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeRemoteWrite))

	// Clear must never run when any persistence step fails.
	assert.Equal(t, 0, cart.cleared)
	assert.Equal(t, before, cart.Items())
}

func TestPlaceOrderProfileUpsertFailureKeepsCart(t *testing.T) {
	t.Parallel()

	profileRepo := &stubProfileRepo{
		upsert: func(context.Context, *models.Profile) error {
			return fmt.Errorf("constraint violation")
		},
	}
	cart := cartWithLines(5000)
	svc := newTestService(t, &stubTxRunner{}, &stubOrderRepo{}, profileRepo)

	_, err := svc.PlaceOrder(context.Background(), uuid.New(), cart, validRequest())
	require.Error(t, err)
	assert.Equal(t, 0, cart.cleared)
}

func TestPlaceOrderClearFailureStillSucceeds(t *testing.T) {
	t.Parallel()

	cart := cartWithLines(5000)
	cart.clear = func(context.Context) error { return fmt.Errorf("timeout") }
	svc := newTestService(t, &stubTxRunner{}, &stubOrderRepo{}, &stubProfileRepo{})

	receipt, err := svc.PlaceOrder(context.Background(), uuid.New(), cart, validRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, receipt.OrderNumber)
}

func TestPlaceOrderValidation(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubTxRunner{}, &stubOrderRepo{}, &stubProfileRepo{})
	cart := cartWithLines(5000)

	req := validRequest()
	req.ShippingAddress = "  "
	_, err := svc.PlaceOrder(context.Background(), uuid.New(), cart, req)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	req = validRequest()
	req.PaymentMethod = "barter"
	_, err = svc.PlaceOrder(context.Background(), uuid.New(), cart, req)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.PlaceOrder(context.Background(), uuid.Nil, cart, validRequest())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotAuthenticated))
}
