package database

import (
	"path/filepath"
	"testing"

	"atelier/model"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func insertProduct(t *testing.T, db *sqlx.DB, in *model.ProductInput) int64 {
	t.Helper()
	tx, err := db.Beginx()
	require.NoError(t, err)
	defer tx.Rollback()
	id, err := UpsertProductInTx(tx, in)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	return id
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, Migrate(db))
}

func TestUpsertProduct_InsertUpdateAndConflict(t *testing.T) {
	db := newTestDB(t)

	id := insertProduct(t, db, &model.ProductInput{
		SKU: "SKU00001", Slug: "body-renda", Name: "Body Renda", PriceCents: 12990, IsActive: true,
		Sizes:  []model.ProductSize{{Size: "M", Stock: 3}, {Size: "P", Stock: 1}},
		Images: []model.ProductImage{{URL: "/media/a.jpg"}, {URL: "/media/b.jpg"}},
	})

	p, err := GetProductBySlug(db, "body-renda")
	require.NoError(t, err)
	assert.Equal(t, id, p.ID)
	assert.Len(t, p.Sizes, 2)
	require.Len(t, p.Images, 2)
	assert.Equal(t, "/media/a.jpg", p.Images[0].URL)

	// Nil sizes leave the stored sizes untouched.
	insertProduct(t, db, &model.ProductInput{ID: id, SKU: "SKU00001", Slug: "body-renda", Name: "Body Renda II", PriceCents: 9990, IsActive: true})
	p, err = GetProductByID(db, id)
	require.NoError(t, err)
	assert.Equal(t, "Body Renda II", p.Name)
	assert.Len(t, p.Sizes, 2)

	tx, err := db.Beginx()
	require.NoError(t, err)
	defer tx.Rollback()
	_, err = UpsertProductInTx(tx, &model.ProductInput{SKU: "SKU00001", Slug: "other", Name: "Dup", PriceCents: 1})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestGetProduct_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := GetProductBySlug(db, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListProducts_Filters(t *testing.T) {
	db := newTestDB(t)
	colID, err := UpsertCollection(db, &model.CollectionInput{Slug: "noite", Name: "Noite", IsActive: true})
	require.NoError(t, err)

	insertProduct(t, db, &model.ProductInput{SKU: "A", Slug: "a", Name: "Camisola", Category: "sleepwear", CollectionID: &colID, PriceCents: 300, IsActive: true, IsFeatured: true})
	insertProduct(t, db, &model.ProductInput{SKU: "B", Slug: "b", Name: "Sutiã", Category: "bras", PriceCents: 100, IsActive: true})
	insertProduct(t, db, &model.ProductInput{SKU: "C", Slug: "c", Name: "Oculto", Category: "bras", PriceCents: 200, IsActive: false})

	all, err := ListProducts(db, model.ProductFilters{Sort: "price_asc"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].Slug)

	hidden, err := ListProducts(db, model.ProductFilters{IncludeHidden: true})
	require.NoError(t, err)
	assert.Len(t, hidden, 3)

	byCol, err := ListProducts(db, model.ProductFilters{CollectionSlug: "noite"})
	require.NoError(t, err)
	require.Len(t, byCol, 1)
	assert.Equal(t, "noite", byCol[0].CollectionSlug)

	featured, err := ListProducts(db, model.ProductFilters{FeaturedOnly: true})
	require.NoError(t, err)
	assert.Len(t, featured, 1)

	search, err := ListProducts(db, model.ProductFilters{Search: "camis"})
	require.NoError(t, err)
	assert.Len(t, search, 1)

	cats, err := ListCategories(db)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"bras", "sleepwear"}, cats)
}

func TestStockDecrementAndRestore(t *testing.T) {
	db := newTestDB(t)
	id := insertProduct(t, db, &model.ProductInput{SKU: "S", Slug: "s", Name: "S", PriceCents: 100, IsActive: true,
		Sizes: []model.ProductSize{{Size: "M", Stock: 2}}})

	tx, err := db.Beginx()
	require.NoError(t, err)
	defer tx.Rollback()

	require.NoError(t, DecrementStockInTx(tx, id, "M", 2))
	assert.ErrorIs(t, DecrementStockInTx(tx, id, "M", 1), ErrInsufficientStock)
	assert.ErrorIs(t, DecrementStockInTx(tx, id, "G", 1), ErrNotFound)

	require.NoError(t, RestoreStockInTx(tx, id, "M", 1))
	require.NoError(t, RestoreStockInTx(tx, 9999, "M", 1))

	var stock int
	require.NoError(t, tx.Get(&stock, `SELECT stock FROM product_sizes WHERE product_id = ? AND size = 'M'`, id))
	assert.Equal(t, 1, stock)
}

func TestUpdatePricesInTx(t *testing.T) {
	db := newTestDB(t)
	id := insertProduct(t, db, &model.ProductInput{SKU: "SKU1", Slug: "p1", Name: "P1", PriceCents: 100, IsActive: true})

	tx, err := db.Beginx()
	require.NoError(t, err)
	defer tx.Rollback()

	compareAt := int64(300)
	require.NoError(t, UpdatePricesInTx(tx, []model.PriceUpdate{{SKU: "SKU1", PriceCents: 250, CompareAtCents: &compareAt}}))
	p, err := GetProductByID(tx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 250, p.PriceCents)
	assert.EqualValues(t, 300, p.CompareAtCents)

	// Without a compare-at price the stored one is kept.
	require.NoError(t, UpdatePricesInTx(tx, []model.PriceUpdate{{ProductID: id, PriceCents: 199}}))
	p, err = GetProductByID(tx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 199, p.PriceCents)
	assert.EqualValues(t, 300, p.CompareAtCents)

	assert.ErrorIs(t, UpdatePricesInTx(tx, []model.PriceUpdate{{SKU: "NOPE", PriceCents: 1}}), ErrNotFound)
	assert.Error(t, UpdatePricesInTx(tx, []model.PriceUpdate{{ProductID: id, PriceCents: -1}}))
}

func TestSequence(t *testing.T) {
	db := newTestDB(t)
	tx, err := db.Beginx()
	require.NoError(t, err)
	defer tx.Rollback()

	code, err := NextSequenceInTx(tx, OrderNumberSequence)
	require.NoError(t, err)
	assert.Equal(t, "PED000001", code)

	_, err = tx.Exec(`INSERT INTO products (sku, slug, name, price_cents, created_at, updated_at) VALUES ('SKU00042', 'x', 'x', 1, '', '')`)
	require.NoError(t, err)
	require.NoError(t, InitializeSequenceFromMax(tx, SKUSequence))
	code, err = NextSequenceInTx(tx, SKUSequence)
	require.NoError(t, err)
	assert.Equal(t, "SKU00043", code)

	// Never lowers an existing counter.
	require.NoError(t, InitializeSequenceFromMax(tx, OrderNumberSequence))
	code, err = NextSequenceInTx(tx, OrderNumberSequence)
	require.NoError(t, err)
	assert.Equal(t, "PED000002", code)
}

func TestOrderStatusTransitions(t *testing.T) {
	db := newTestDB(t)
	pid := insertProduct(t, db, &model.ProductInput{SKU: "S", Slug: "s", Name: "Body", PriceCents: 5000, IsActive: true,
		Sizes: []model.ProductSize{{Size: "P", Stock: 1}}})

	tx, err := db.Beginx()
	require.NoError(t, err)
	o := &model.Order{
		ID: "order-1", OrderNumber: "PED000001", CustomerName: "Ana", TotalCents: 10000,
		Items: []model.OrderItem{{ProductID: pid, SKU: "S", ProductName: "Body", Size: "P", Quantity: 2, UnitPriceCents: 5000}},
	}
	require.NoError(t, InsertOrderInTx(tx, o))
	require.NoError(t, tx.Commit())

	got, err := GetOrderByNumber(db, "PED000001")
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, got.Status)
	require.Len(t, got.Items, 1)

	tx, err = db.Beginx()
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = UpdateOrderStatusInTx(tx, "order-1", model.OrderDelivered)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	updated, err := UpdateOrderStatusInTx(tx, "order-1", model.OrderCanceled)
	require.NoError(t, err)
	assert.Equal(t, model.OrderCanceled, updated.Status)

	var stock int
	require.NoError(t, tx.Get(&stock, `SELECT stock FROM product_sizes WHERE product_id = ? AND size = 'P'`, pid))
	assert.Equal(t, 3, stock)

	_, err = UpdateOrderStatusInTx(tx, "order-1", model.OrderConfirmed)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	_, err = UpdateOrderStatusInTx(tx, "missing", model.OrderConfirmed)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCartAndFavorites(t *testing.T) {
	db := newTestDB(t)
	pid := insertProduct(t, db, &model.ProductInput{SKU: "S", Slug: "s", Name: "S", PriceCents: 100, IsActive: true})

	require.NoError(t, SetCartItemQuantity(db, "tok", pid, "M", 2))
	require.NoError(t, SetCartItemQuantity(db, "tok", pid, "M", 5))
	require.NoError(t, SetCartItemQuantity(db, "tok", pid, "G", 1))
	items, err := GetCartItems(db, "tok")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 5, items[0].Quantity)

	require.NoError(t, SetCartItemQuantity(db, "tok", pid, "G", 0))
	items, err = GetCartItems(db, "tok")
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, ClearCart(db, "tok"))
	items, err = GetCartItems(db, "tok")
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, AddFavorite(db, "tok", pid))
	require.NoError(t, AddFavorite(db, "tok", pid))
	set, err := GetFavoriteSet(db, "tok")
	require.NoError(t, err)
	assert.True(t, set[pid])
	require.NoError(t, RemoveFavorite(db, "tok", pid))
	ids, err := GetFavoriteIDs(db, "tok")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestContent(t *testing.T) {
	db := newTestDB(t)
	tx, err := db.Beginx()
	require.NoError(t, err)
	require.NoError(t, UpsertContentInTx(tx, map[string]string{"hero_title": "Nova coleção", "hero_subtitle": "Renda"}))
	require.NoError(t, tx.Commit())

	m, err := GetContentMap(db)
	require.NoError(t, err)
	assert.Equal(t, "Nova coleção", m["hero_title"])

	require.NoError(t, DeleteContent(db, "hero_title"))
	assert.ErrorIs(t, DeleteContent(db, "hero_title"), ErrNotFound)
}
