package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile holds the contact and shipping details captured at checkout.
// The primary key doubles as the owning user id, so the row is upserted
// rather than appended.
type Profile struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Email     string    `gorm:"column:email;not null"`
	FullName  *string   `gorm:"column:full_name"`
	Phone     *string   `gorm:"column:phone"`
	Address   *string   `gorm:"column:address"`
	City      *string   `gorm:"column:city"`
	State     *string   `gorm:"column:state"`
	Pincode   *string   `gorm:"column:pincode"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
