package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem freezes one cart line at the moment the order was placed.
// PriceCents is copied from the product at order time and never re-read,
// so historical totals survive later price changes. ProductID is nullable
// so the snapshot outlives catalog deletions.
type OrderItem struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID  *uuid.UUID `gorm:"column:product_id;type:uuid"`
	Quantity   int        `gorm:"column:quantity;not null"`
	PriceCents int        `gorm:"column:price_cents;not null"`
	Product    *Product   `gorm:"foreignKey:ProductID"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
}
