package products

import (
	"context"

	"github.com/google/uuid"
	"github.com/rohanjoseph/freshbasket-backend/pkg/db/models"
	"github.com/rohanjoseph/freshbasket-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository reads the product and category catalog. All writes happen out
// of band (seeding, admin tooling); the storefront never mutates the catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	List(ctx context.Context, params pagination.Params, filters Filters) ([]models.Product, *pagination.Cursor, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	FindCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
}

// Service is the catalog surface exposed to controllers.
type Service interface {
	Browse(ctx context.Context, req BrowseRequest) (*BrowsePage, error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Categories(ctx context.Context) ([]CategoryDTO, error)
}

// Filters narrows catalog listings.
type Filters struct {
	CategoryID    *uuid.UUID
	Search        string
	FeaturedOnly  bool
	AvailableOnly bool
}
