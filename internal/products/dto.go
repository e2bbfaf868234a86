package products

import (
	"github.com/google/uuid"
	"github.com/rohanjoseph/freshbasket-backend/pkg/db/models"
	"github.com/shopspring/decimal"
)

// ProductDTO is the catalog row as served to clients. Monetary amounts are
// rendered as decimal strings, converted from the stored cent values.
type ProductDTO struct {
	ID            uuid.UUID        `json:"id"`
	CategoryID    *uuid.UUID       `json:"category_id,omitempty"`
	Name          string           `json:"name"`
	Description   *string          `json:"description,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	ImageURL      *string          `json:"image_url,omitempty"`
	Stock         int              `json:"stock"`
	Unit          string           `json:"unit"`
	Rating        float64          `json:"rating"`
	ReviewCount   int              `json:"review_count"`
	IsFeatured    bool             `json:"is_featured"`
	IsAvailable   bool             `json:"is_available"`
}

// CategoryDTO is the category row as served to clients.
type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
}

// BrowseRequest carries the catalog listing inputs.
type BrowseRequest struct {
	CategorySlug  string
	Search        string
	FeaturedOnly  bool
	AvailableOnly bool
	Limit         int
	Cursor        string
}

// BrowsePage is one page of catalog results plus the next cursor, if any.
type BrowsePage struct {
	Products   []ProductDTO `json:"products"`
	NextCursor *string      `json:"next_cursor,omitempty"`
}

// PriceFromCents converts a stored cent amount to a display decimal.
func PriceFromCents(cents int) decimal.Decimal {
	return decimal.New(int64(cents), -2)
}

func toProductDTO(product models.Product) ProductDTO {
	dto := ProductDTO{
		ID:          product.ID,
		CategoryID:  product.CategoryID,
		Name:        product.Name,
		Description: product.Description,
		Price:       PriceFromCents(product.PriceCents),
		ImageURL:    product.ImageURL,
		Stock:       product.Stock,
		Unit:        product.Unit,
		Rating:      product.Rating,
		ReviewCount: product.ReviewCount,
		IsFeatured:  product.IsFeatured,
		IsAvailable: product.IsAvailable,
	}
	if product.OriginalPriceCents != nil {
		original := PriceFromCents(*product.OriginalPriceCents)
		dto.OriginalPrice = &original
	}
	return dto
}

func toCategoryDTO(category models.Category) CategoryDTO {
	return CategoryDTO{
		ID:          category.ID,
		Name:        category.Name,
		Slug:        category.Slug,
		Description: category.Description,
		ImageURL:    category.ImageURL,
	}
}
