package orders

import (
	"context"
	stdErrors "errors"

	"github.com/google/uuid"
	"github.com/rohanjoseph/freshbasket-backend/pkg/errors"
	"github.com/rohanjoseph/freshbasket-backend/pkg/pagination"
	"gorm.io/gorm"
)

type service struct {
	repo Repository
}

// NewService builds the order-history service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, errors.New(errors.CodeInternal, "orders repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) History(ctx context.Context, userID uuid.UUID, params pagination.Params) (*HistoryPage, error) {
	if userID == uuid.Nil {
		return nil, errors.New(errors.CodeNotAuthenticated, "identity is required")
	}

	orders, next, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, errors.Wrap(errors.CodeRemoteRead, err, "listing orders")
	}

	page := &HistoryPage{Orders: make([]OrderDTO, 0, len(orders))}
	for _, order := range orders {
		page.Orders = append(page.Orders, toOrderDTO(order))
	}
	if next != nil {
		encoded := pagination.EncodeCursor(*next)
		page.NextCursor = &encoded
	}
	return page, nil
}

func (s *service) Detail(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, errors.New(errors.CodeNotAuthenticated, "identity is required")
	}
	if orderID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "order id is required")
	}

	order, err := s.repo.FindByID(ctx, userID, orderID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "order not found")
		}
		return nil, errors.Wrap(errors.CodeRemoteRead, err, "loading order")
	}

	dto := toOrderDTO(*order)
	return &dto, nil
}
