package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rohanjoseph/freshbasket-backend/api/responses"
	"github.com/rohanjoseph/freshbasket-backend/api/validators"
	profilesvc "github.com/rohanjoseph/freshbasket-backend/internal/profiles"
	"github.com/rohanjoseph/freshbasket-backend/pkg/db/models"
	pkgerrors "github.com/rohanjoseph/freshbasket-backend/pkg/errors"
	"github.com/rohanjoseph/freshbasket-backend/pkg/logger"
)

type profileResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  *string   `json:"full_name,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Address   *string   `json:"address,omitempty"`
	City      *string   `json:"city,omitempty"`
	State     *string   `json:"state,omitempty"`
	Pincode   *string   `json:"pincode,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newProfileResponse(profile *models.Profile) profileResponse {
	return profileResponse{
		ID:        profile.ID,
		Email:     profile.Email,
		FullName:  profile.FullName,
		Phone:     profile.Phone,
		Address:   profile.Address,
		City:      profile.City,
		State:     profile.State,
		Pincode:   profile.Pincode,
		UpdatedAt: profile.UpdatedAt,
	}
}

// ProfileGet returns the caller's shipping profile.
func ProfileGet(svc profilesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "profile service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.Get(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProfileResponse(profile))
	}
}

type updateProfileRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"omitempty,max=120"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
	Address  string `json:"address" validate:"omitempty,max=500"`
	City     string `json:"city" validate:"omitempty,max=80"`
	State    string `json:"state" validate:"omitempty,max=80"`
	Pincode  string `json:"pincode" validate:"omitempty,max=10"`
}

func (r updateProfileRequest) toProfile(userID uuid.UUID) *models.Profile {
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
	setIfPresent(&profile.Address, r.Address)
	setIfPresent(&profile.City, r.City)
	setIfPresent(&profile.State, r.State)
	setIfPresent(&profile.Pincode, r.Pincode)
	return profile
}

// ProfileUpdate upserts the caller's shipping profile.
func ProfileUpdate(svc profilesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "profile service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateProfileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile := body.toProfile(userID)
		if err := svc.Update(r.Context(), profile); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProfileResponse(profile))
	}
}
