package checkout

import (
	"strings"

	"github.com/google/uuid"
	"github.com/rohanjoseph/freshbasket-backend/pkg/db/models"
	"github.com/rohanjoseph/freshbasket-backend/pkg/enums"
	"github.com/rohanjoseph/freshbasket-backend/pkg/errors"
)

// PlaceOrderRequest carries the shipping and payment details submitted at
// checkout.
type PlaceOrderRequest struct {
	Email           string              `json:"email" validate:"required,email"`
	FullName        string              `json:"full_name" validate:"required,max=120"`
	Phone           string              `json:"phone" validate:"omitempty,max=20"`
	ShippingAddress string              `json:"shipping_address" validate:"required"`
	City            string              `json:"city" validate:"omitempty,max=80"`
	State           string              `json:"state" validate:"omitempty,max=80"`
	Pincode         string              `json:"pincode" validate:"omitempty,max=10"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method" validate:"required"`
	Notes           string              `json:"notes" validate:"omitempty,max=500"`
}

func (r PlaceOrderRequest) validate() error {
	if strings.TrimSpace(r.ShippingAddress) == "" {
		return errors.New(errors.CodeValidation, "shipping address is required")
	}
	if strings.TrimSpace(r.Email) == "" {
		return errors.New(errors.CodeValidation, "email is required")
	}
	if !r.PaymentMethod.IsValid() {
		return errors.New(errors.CodeValidation, "invalid payment method")
	}
	return nil
}

func (r PlaceOrderRequest) toProfile(userID uuid.UUID) *models.Profile {
	profile := &models.Profile{
		ID:    userID,
		Email: strings.TrimSpace(r.Email),
	}
	setIfPresent := func(dst **string, value string) {
		if v := strings.TrimSpace(value); v != "" {
			*dst = &v
		}
	}
	setIfPresent(&profile.FullName, r.FullName)
	setIfPresent(&profile.Phone, r.Phone)
	setIfPresent(&profile.Address, r.ShippingAddress)
	setIfPresent(&profile.City, r.City)
	setIfPresent(&profile.State, r.State)
	setIfPresent(&profile.Pincode, r.Pincode)
	return profile
}

// Receipt confirms a placed order.
type Receipt struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	Status      enums.OrderStatus `json:"status"`
	TotalCents  int               `json:"total_cents"`
}
