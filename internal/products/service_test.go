package products

import (
	"context"
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/rohanjoseph/freshbasket-backend/pkg/db/models"
	pkgerrors "github.com/rohanjoseph/freshbasket-backend/pkg/errors"
	"github.com/rohanjoseph/freshbasket-backend/pkg/pagination"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubCatalogRepo struct {
	products   []models.Product
	categories []models.Category

	list               func(ctx context.Context, params pagination.Params, filters Filters) ([]models.Product, *pagination.Cursor, error)
	findByID           func(ctx context.Context, id uuid.UUID) (*models.Product, error)
	findCategoryBySlug func(ctx context.Context, slug string) (*models.Category, error)
}

func (s *stubCatalogRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubCatalogRepo) List(ctx context.Context, params pagination.Params, filters Filters) ([]models.Product, *pagination.Cursor, error) {
	if s.list != nil {
		return s.list(ctx, params, filters)
	}
	return s.products, nil, nil
}

func (s *stubCatalogRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if s.findByID != nil {
		return s.findByID(ctx, id)
	}
	for i := range s.products {
		if s.products[i].ID == id {
			return &s.products[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCatalogRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.categories, nil
}

func (s *stubCatalogRepo) FindCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	if s.findCategoryBySlug != nil {
		return s.findCategoryBySlug(ctx, slug)
	}
	for i := range s.categories {
		if s.categories[i].Slug == slug {
			return &s.categories[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func fakeProduct(priceCents int) models.Product {
	return models.Product{
		ID:          uuid.New(),
		Name:        gofakeit.ProductName(),
		PriceCents:  priceCents,
		Stock:       gofakeit.Number(1, 100),
		Unit:        "kg",
		IsAvailable: true,
	}
}

func TestServiceBrowseMapsPricesToDecimal(t *testing.T) {
	t.Parallel()

	repo := &stubCatalogRepo{products: []models.Product{fakeProduct(24950)}}
	svc, err := NewService(repo)
	require.NoError(t, err)

	page, err := svc.Browse(context.Background(), BrowseRequest{})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.True(t, page.Products[0].Price.Equal(decimal.RequireFromString("249.50")))
	assert.Nil(t, page.NextCursor)
}

func TestServiceBrowseResolvesCategorySlug(t *testing.T) {
	t.Parallel()

	category := models.Category{ID: uuid.New(), Name: "Fruits", Slug: "fruits"}
	var captured Filters
	repo := &stubCatalogRepo{
		categories: []models.Category{category},
		list: func(_ context.Context, _ pagination.Params, filters Filters) ([]models.Product, *pagination.Cursor, error) {
			captured = filters
			return nil, nil, nil
		},
	}
	svc, err := NewService(repo)
	require.NoError(t, err)

	_, err = svc.Browse(context.Background(), BrowseRequest{CategorySlug: "fruits"})
	require.NoError(t, err)
	require.NotNil(t, captured.CategoryID)
	assert.Equal(t, category.ID, *captured.CategoryID)
}

func TestServiceBrowseUnknownCategoryIsNotFound(t *testing.T) {
	t.Parallel()

	svc, err := NewService(&stubCatalogRepo{})
	require.NoError(t, err)

	_, err = svc.Browse(context.Background(), BrowseRequest{CategorySlug: "nope"})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestServiceBrowseEncodesNextCursor(t *testing.T) {
	t.Parallel()

	next := pagination.Cursor{CreatedAt: gofakeit.Date(), ID: uuid.New()}
	repo := &stubCatalogRepo{
		list: func(context.Context, pagination.Params, Filters) ([]models.Product, *pagination.Cursor, error) {
			return []models.Product{fakeProduct(100)}, &next, nil
		},
	}
	svc, err := NewService(repo)
	require.NoError(t, err)

	page, err := svc.Browse(context.Background(), BrowseRequest{Limit: 1})
	require.NoError(t, err)
	require.NotNil(t, page.NextCursor)

	decoded, err := pagination.ParseCursor(*page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, next.ID, decoded.ID)
}

func TestServiceGetNotFound(t *testing.T) {
	t.Parallel()

	svc, err := NewService(&stubCatalogRepo{})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestServiceGetReadFailure(t *testing.T) {
	t.Parallel()

	repo := &stubCatalogRepo{
		findByID: func(context.Context, uuid.UUID) (*models.Product, error) {
			return nil, fmt.Errorf("connection refused")
		},
	}
	svc, err := NewService(repo)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeRemoteRead))
}

func TestServiceCategories(t *testing.T) {
	t.Parallel()

	repo := &stubCatalogRepo{categories: []models.Category{
		{ID: uuid.New(), Name: "Dairy", Slug: "dairy"},
		{ID: uuid.New(), Name: "Fruits", Slug: "fruits"},
	}}
	svc, err := NewService(repo)
	require.NoError(t, err)

	categories, err := svc.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "dairy", categories[0].Slug)
}
