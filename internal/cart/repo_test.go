package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rohanjoseph/freshbasket-backend/pkg/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:cartrepo?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  category_id TEXT,
  name TEXT NOT NULL,
  description TEXT,
  price_cents INTEGER NOT NULL,
  original_price_cents INTEGER,
  image_url TEXT,
  stock INTEGER NOT NULL DEFAULT 0,
  unit TEXT NOT NULL DEFAULT 'unit',
  rating REAL NOT NULL DEFAULT 0,
  review_count INTEGER NOT NULL DEFAULT 0,
  is_featured INTEGER NOT NULL DEFAULT 0,
  is_available INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	cartItems := `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (user_id, product_id)
);`

	require.NoError(t, db.Exec(products).Error)
	require.NoError(t, db.Exec(cartItems).Error)

	t.Cleanup(func() {
		db.Exec("DELETE FROM cart_items")
		db.Exec("DELETE FROM products")
	})

	return db
}

func seedProduct(t *testing.T, db *gorm.DB, priceCents int) models.Product {
	t.Helper()
	product := models.Product{
		ID:         uuid.New(),
		Name:       "Alphonso Mangoes",
		PriceCents: priceCents,
		Stock:      50,
		Unit:       "kg",
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func seedCartLine(t *testing.T, db *gorm.DB, userID, productID uuid.UUID, quantity int) models.CartItem {
	t.Helper()
	line := models.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}
	require.NoError(t, db.Create(&line).Error)
	return line
}

func TestRepositoryListByUserJoinsProduct(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	product := seedProduct(t, db, 24900)
	seedCartLine(t, db, userID, product.ID, 3)
	seedCartLine(t, db, uuid.New(), product.ID, 1) // someone else's line

	items, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	require.NotNil(t, items[0].Product)
	assert.Equal(t, 24900, items[0].Product.PriceCents)
	assert.Equal(t, "kg", items[0].Product.Unit)
}

func TestRepositoryInsertAndUpdateQuantity(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	product := seedProduct(t, db, 5000)

	line := models.CartItem{ID: uuid.New(), UserID: userID, ProductID: product.ID, Quantity: 2}
	require.NoError(t, repo.Insert(ctx, &line))

	require.NoError(t, repo.UpdateQuantity(ctx, userID, line.ID, 7))

	items, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 7, items[0].Quantity)
}

func TestRepositoryUpdateQuantityScopedToOwner(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := uuid.New()
	intruder := uuid.New()
	product := seedProduct(t, db, 5000)
	line := seedCartLine(t, db, owner, product.ID, 2)

	err := repo.UpdateQuantity(ctx, intruder, line.ID, 99)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	items, listErr := repo.ListByUser(ctx, owner)
	require.NoError(t, listErr)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestRepositoryDeleteScopedToOwner(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := uuid.New()
	intruder := uuid.New()
	product := seedProduct(t, db, 5000)
	line := seedCartLine(t, db, owner, product.ID, 2)

	// Another user's id with a real line id must not touch the row.
	require.NoError(t, repo.Delete(ctx, intruder, line.ID))

	items, err := repo.ListByUser(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestRepositoryInsertRejectsDuplicateUserProduct(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	product := seedProduct(t, db, 5000)
	seedCartLine(t, db, userID, product.ID, 1)

	dup := models.CartItem{ID: uuid.New(), UserID: userID, ProductID: product.ID, Quantity: 1}
	assert.Error(t, repo.Insert(ctx, &dup))
}

func TestRepositoryDeleteIsIdempotent(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	product := seedProduct(t, db, 5000)
	line := seedCartLine(t, db, userID, product.ID, 2)

	require.NoError(t, repo.Delete(ctx, userID, line.ID))
	// Deleting an already-removed line is success, not an error.
	require.NoError(t, repo.Delete(ctx, userID, line.ID))

	items, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRepositoryDeleteByUserClearsOnlyThatUser(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	otherID := uuid.New()
	productA := seedProduct(t, db, 5000)
	productB := seedProduct(t, db, 9000)
	seedCartLine(t, db, userID, productA.ID, 2)
	seedCartLine(t, db, userID, productB.ID, 1)
	seedCartLine(t, db, otherID, productA.ID, 4)

	require.NoError(t, repo.DeleteByUser(ctx, userID))

	mine, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, mine)

	theirs, err := repo.ListByUser(ctx, otherID)
	require.NoError(t, err)
	assert.Len(t, theirs, 1)
}
