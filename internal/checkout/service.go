package checkout

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rohanjoseph/freshbasket-backend/internal/orders"
	"github.com/rohanjoseph/freshbasket-backend/internal/profiles"
	"github.com/rohanjoseph/freshbasket-backend/pkg/db/models"
	"github.com/rohanjoseph/freshbasket-backend/pkg/enums"
	"github.com/rohanjoseph/freshbasket-backend/pkg/errors"
	"github.com/rohanjoseph/freshbasket-backend/pkg/logger"
	"gorm.io/gorm"
)

// CartAccess is the slice of the cart manager checkout needs: the current
// lines and the post-commit clearing operation. The order total is derived
// from the one Items snapshot, never read from the manager separately.
type CartAccess interface {
	Items() []models.CartItem
	Clear(ctx context.Context) error
}

// TxRunner executes fn inside one database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service places orders. The order, its frozen lines, and the profile upsert
// commit atomically; the cart is cleared only after that commit succeeds, so
// a failed checkout always leaves the cart intact for retry.
type Service interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, cart CartAccess, req PlaceOrderRequest) (*Receipt, error)
}

type service struct {
	tx       TxRunner
	orders   orders.Repository
	profiles profiles.Repository
	logg     *logger.Logger
}

// ServiceParams bundles the dependencies required to build a checkout service.
type ServiceParams struct {
	TxRunner    TxRunner
	OrderRepo   orders.Repository
	ProfileRepo profiles.Repository
	Logger      *logger.Logger
}

// NewService constructs a checkout service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	if params.OrderRepo == nil {
		return nil, fmt.Errorf("orders repository is required")
	}
	if params.ProfileRepo == nil {
		return nil, fmt.Errorf("profiles repository is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		tx:       params.TxRunner,
		orders:   params.OrderRepo,
		profiles: params.ProfileRepo,
		logg:     params.Logger,
	}, nil
}

func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID, cart CartAccess, req PlaceOrderRequest) (*Receipt, error) {
	if userID == uuid.Nil {
		return nil, errors.New(errors.CodeNotAuthenticated, "identity is required")
	}
	if cart == nil {
		return nil, errors.New(errors.CodeInternal, "cart access is required")
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	lines := cart.Items()
	if len(lines) == 0 {
		return nil, errors.New(errors.CodeValidation, "cart is empty")
	}

	orderNumber, err := newOrderNumber()
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "generating order number")
	}

	orderID := uuid.New()
	items := make([]models.OrderItem, 0, len(lines))
	var total int64
	for _, line := range lines {
		if line.Product == nil {
			return nil, errors.New(errors.CodeInternal, "cart line is missing its product snapshot")
		}
		productID := line.ProductID
		items = append(items, models.OrderItem{
			ID:        uuid.New(),
			OrderID:   orderID,
			ProductID: &productID,
			Quantity:  line.Quantity,
			// Price frozen at order time so later catalog changes don't
			// rewrite history.
			PriceCents: line.Product.PriceCents,
		})
		// The total comes from the same snapshot the frozen lines do, so
		// concurrent cart writes cannot make it disagree with them.
		total += int64(line.Product.PriceCents) * int64(line.Quantity)
	}

	order := &models.Order{
		ID:              orderID,
		UserID:          userID,
		OrderNumber:     orderNumber,
		Status:          enums.OrderStatusPending,
		TotalCents:      int(total),
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
	}
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		order.Notes = &notes
	}

	profile := req.toProfile(userID)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.orders.WithTx(tx).CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("creating order: %w", err)
		}
		if err := s.orders.WithTx(tx).CreateOrderItems(ctx, items); err != nil {
			return fmt.Errorf("creating order items: %w", err)
		}
		if err := s.profiles.WithTx(tx).Upsert(ctx, profile); err != nil {
			return fmt.Errorf("saving profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodeRemoteWrite, err, "placing order")
	}

	// The order is durable once the transaction commits. A clear failure
	// leaves stale cart rows behind but must not fail the checkout.
	if err := cart.Clear(ctx); err != nil {
		s.logg.Error(ctx, "clearing cart after checkout", err)
	}

	return &Receipt{
		OrderID:     order.ID,
		OrderNumber: orderNumber,
		Status:      order.Status,
		TotalCents:  order.TotalCents,
	}, nil
}

// newOrderNumber builds a human-readable reference: a millisecond timestamp
// plus a short random suffix for same-millisecond uniqueness.
func newOrderNumber() (string, error) {
	suffix, err := rand.Int(rand.Reader, big.NewInt(1000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ORD-%d-%03d", time.Now().UnixMilli(), suffix.Int64()), nil
}
