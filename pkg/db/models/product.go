package models

import (
	"time"

	"github.com/google/uuid"
)

// Product represents the canonical catalog listing. Cart and order code
// treats it as read-only: snapshots are joined in, never written through.
type Product struct {
	ID                 uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID         *uuid.UUID `gorm:"column:category_id;type:uuid"`
	Name               string     `gorm:"column:name;not null"`
	Description        *string    `gorm:"column:description"`
	PriceCents         int        `gorm:"column:price_cents;not null"`
	OriginalPriceCents *int       `gorm:"column:original_price_cents"`
	ImageURL           *string    `gorm:"column:image_url"`
	Stock              int        `gorm:"column:stock;not null;default:0"`
	Unit               string     `gorm:"column:unit;not null;default:'unit'"`
	Rating             float64    `gorm:"column:rating;type:numeric(3,2);not null;default:0"`
	ReviewCount        int        `gorm:"column:review_count;not null;default:0"`
	IsFeatured         bool       `gorm:"column:is_featured;not null;default:false"`
	IsAvailable        bool       `gorm:"column:is_available;not null;default:true"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
