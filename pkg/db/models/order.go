package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rohanjoseph/freshbasket-backend/pkg/enums"
)

// Order captures a placed order plus the shipping and payment metadata
// submitted at checkout.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	OrderNumber     string              `gorm:"column:order_number;not null;uniqueIndex"`
	Status          enums.OrderStatus   `gorm:"column:status;not null;default:'pending'"`
	TotalCents      int                 `gorm:"column:total_cents;not null"`
	ShippingAddress string              `gorm:"column:shipping_address;not null"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;not null;default:'cod'"`
	Notes           *string             `gorm:"column:notes"`
	Items           []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
