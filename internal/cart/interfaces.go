package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/rohanjoseph/freshbasket-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists cart lines. One line per (user, product) pair.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	Insert(ctx context.Context, item *models.CartItem) error
	UpdateQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) error
	Delete(ctx context.Context, userID, lineID uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}
