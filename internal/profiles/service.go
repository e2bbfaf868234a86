package profiles

import (
	"context"
	stdErrors "errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rohanjoseph/freshbasket-backend/pkg/db/models"
	"github.com/rohanjoseph/freshbasket-backend/pkg/errors"
	"gorm.io/gorm"
)

type service struct {
	repo Repository
}

// NewService builds the profile service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, errors.New(errors.CodeInternal, "profiles repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	if userID == uuid.Nil {
		return nil, errors.New(errors.CodeNotAuthenticated, "identity is required")
	}

	profile, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "profile not found")
		}
		return nil, errors.Wrap(errors.CodeRemoteRead, err, "loading profile")
	}
	return profile, nil
}

func (s *service) Update(ctx context.Context, profile *models.Profile) error {
	if profile == nil || profile.ID == uuid.Nil {
		return errors.New(errors.CodeNotAuthenticated, "identity is required")
	}
	if strings.TrimSpace(profile.Email) == "" {
		return errors.New(errors.CodeValidation, "email is required")
	}

	if err := s.repo.Upsert(ctx, profile); err != nil {
		return errors.Wrap(errors.CodeRemoteWrite, err, "saving profile")
	}
	return nil
}
