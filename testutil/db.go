// Package testutil provides a migrated SQLite database and catalog fixtures
// for package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"atelier/database"
	"atelier/model"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// NewDB opens a fresh migrated database in a temp dir. It is closed when the
// test ends.
func NewDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "atelier_test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

// SeedProduct inserts an active product with the given sizes and returns
// its id.
func SeedProduct(t *testing.T, db *sqlx.DB, sku, name string, priceCents int64, stock map[string]int) int64 {
	t.Helper()
	in := &model.ProductInput{
		SKU:        sku,
		Slug:       sku,
		Name:       name,
		PriceCents: priceCents,
		IsActive:   true,
		Sizes:      []model.ProductSize{},
		Images:     []model.ProductImage{{URL: "/media/" + sku + ".jpg", Alt: name}},
	}
	for size, n := range stock {
		in.Sizes = append(in.Sizes, model.ProductSize{Size: size, Stock: n})
	}

	tx, err := db.Beginx()
	require.NoError(t, err)
	defer tx.Rollback()
	id, err := database.UpsertProductInTx(tx, in)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	return id
}

// Stock reads the current stock of one size.
func Stock(t *testing.T, db *sqlx.DB, productID int64, size string) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, `SELECT stock FROM product_sizes WHERE product_id = ? AND size = ?`, productID, size))
	return n
}
