package profiles

import (
	"context"

	"github.com/google/uuid"
	"github.com/rohanjoseph/freshbasket-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists the per-user contact/shipping profile.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, profile *models.Profile) error
	FindByID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

// Service is the profile surface exposed to controllers.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
}
