package products

import (
	"context"
	"strings"

	stdErrors "errors"

	"github.com/google/uuid"
	"github.com/rohanjoseph/freshbasket-backend/pkg/errors"
	"github.com/rohanjoseph/freshbasket-backend/pkg/pagination"
	"gorm.io/gorm"
)

type service struct {
	repo Repository
}

// NewService builds the catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, errors.New(errors.CodeInternal, "products repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Browse(ctx context.Context, req BrowseRequest) (*BrowsePage, error) {
	filters := Filters{
		Search:        strings.TrimSpace(req.Search),
		FeaturedOnly:  req.FeaturedOnly,
		AvailableOnly: req.AvailableOnly,
	}

	if slug := strings.TrimSpace(req.CategorySlug); slug != "" {
		category, err := s.repo.FindCategoryBySlug(ctx, slug)
		if err != nil {
			if stdErrors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.New(errors.CodeNotFound, "category not found")
			}
			return nil, errors.Wrap(errors.CodeRemoteRead, err, "loading category")
		}
		filters.CategoryID = &category.ID
	}

	items, next, err := s.repo.List(ctx, pagination.Params{Limit: req.Limit, Cursor: req.Cursor}, filters)
	if err != nil {
		return nil, errors.Wrap(errors.CodeRemoteRead, err, "listing products")
	}

	page := &BrowsePage{Products: make([]ProductDTO, 0, len(items))}
	for _, item := range items {
		page.Products = append(page.Products, toProductDTO(item))
	}
	if next != nil {
		encoded := pagination.EncodeCursor(*next)
		page.NextCursor = &encoded
	}
	return page, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	if id == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "product id is required")
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "product not found")
		}
		return nil, errors.Wrap(errors.CodeRemoteRead, err, "loading product")
	}

	dto := toProductDTO(*product)
	return &dto, nil
}

func (s *service) Categories(ctx context.Context) ([]CategoryDTO, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.CodeRemoteRead, err, "listing categories")
	}

	out := make([]CategoryDTO, 0, len(categories))
	for _, category := range categories {
		out = append(out, toCategoryDTO(category))
	}
	return out, nil
}
