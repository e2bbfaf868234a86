package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/rohanjoseph/freshbasket-backend/pkg/db/models"
	"github.com/rohanjoseph/freshbasket-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository persists orders and their frozen line snapshots.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, *pagination.Cursor, error)
	FindByID(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
}

// Service is the order-history surface exposed to controllers.
type Service interface {
	History(ctx context.Context, userID uuid.UUID, params pagination.Params) (*HistoryPage, error)
	Detail(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
}
