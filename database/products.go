package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"atelier/model"

	"github.com/jmoiron/sqlx"
)

const productColumns = `
	p.id, p.sku, p.slug, p.name, p.description, p.category, p.collection_id,
	COALESCE(c.slug, '') AS collection_slug,
	p.price_cents, p.compare_at_cents, p.is_featured, p.is_new, p.is_active,
	p.created_at, p.updated_at`

const productFrom = `
	FROM products p
	LEFT JOIN collections c ON c.id = p.collection_id`

var productSorts = map[string]string{
	"price_asc":  "p.price_cents ASC, p.id ASC",
	"price_desc": "p.price_cents DESC, p.id ASC",
	"name":       "p.name COLLATE NOCASE ASC, p.id ASC",
	"newest":     "p.created_at DESC, p.id DESC",
}

func ListProducts(dbtx DBTX, f model.ProductFilters) ([]model.Product, error) {
	query := `SELECT ` + productColumns + productFrom
	conditions := []string{}
	args := []interface{}{}

	if !f.IncludeHidden {
		conditions = append(conditions, "p.is_active = 1")
	}
	if f.CollectionSlug != "" {
		conditions = append(conditions, "c.slug = ?")
		args = append(args, f.CollectionSlug)
	}
	if f.Category != "" {
		conditions = append(conditions, "p.category = ?")
		args = append(args, f.Category)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + s + "%"
		conditions = append(conditions, "(p.name LIKE ? OR p.description LIKE ? OR p.sku LIKE ?)")
		args = append(args, like, like, like)
	}
	if f.FeaturedOnly {
		conditions = append(conditions, "p.is_featured = 1")
	}
	if f.NewOnly {
		conditions = append(conditions, "p.is_new = 1")
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	order, ok := productSorts[f.Sort]
	if !ok {
		order = productSorts["newest"]
	}
	query += " ORDER BY " + order

	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	var products []model.Product
	if err := dbtx.Select(&products, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select products: %w", err)
	}
	if products == nil {
		products = []model.Product{}
	}
	if err := attachProductDetails(dbtx, products); err != nil {
		return nil, err
	}
	return products, nil
}

func getProduct(dbtx DBTX, where string, arg interface{}) (*model.Product, error) {
	var p model.Product
	err := dbtx.Get(&p, `SELECT `+productColumns+productFrom+` WHERE `+where, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	products := []model.Product{p}
	if err := attachProductDetails(dbtx, products); err != nil {
		return nil, err
	}
	return &products[0], nil
}

func GetProductByID(dbtx DBTX, id int64) (*model.Product, error) {
	p, err := getProduct(dbtx, "p.id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product by id %d: %w", id, err)
	}
	return p, nil
}

func GetProductBySlug(dbtx DBTX, slug string) (*model.Product, error) {
	p, err := getProduct(dbtx, "p.slug = ?", slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get product by slug %s: %w", slug, err)
	}
	return p, nil
}

func GetProductBySKU(dbtx DBTX, sku string) (*model.Product, error) {
	p, err := getProduct(dbtx, "p.sku = ?", sku)
	if err != nil {
		return nil, fmt.Errorf("failed to get product by sku %s: %w", sku, err)
	}
	return p, nil
}

// GetProductsByIDsMap loads the given products (active or not) keyed by id.
func GetProductsByIDsMap(dbtx DBTX, ids []int64) (map[int64]*model.Product, error) {
	result := make(map[int64]*model.Product)
	if len(ids) == 0 {
		return result, nil
	}
	query, args, err := sqlx.In(`SELECT `+productColumns+productFrom+` WHERE p.id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to create IN query for GetProductsByIDsMap: %w", err)
	}
	var products []model.Product
	if err := dbtx.Select(&products, dbtx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to select products by ids: %w", err)
	}
	if err := attachProductDetails(dbtx, products); err != nil {
		return nil, err
	}
	for i := range products {
		result[products[i].ID] = &products[i]
	}
	return result, nil
}

func attachProductDetails(dbtx DBTX, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]int64, len(products))
	index := make(map[int64]int, len(products))
	for i, p := range products {
		ids[i] = p.ID
		index[p.ID] = i
		products[i].Sizes = []model.ProductSize{}
		products[i].Images = []model.ProductImage{}
	}

	query, args, err := sqlx.In(`SELECT product_id, size, stock FROM product_sizes WHERE product_id IN (?)`, ids)
	if err != nil {
		return fmt.Errorf("failed to create IN query for sizes: %w", err)
	}
	var sizes []model.ProductSize
	if err := dbtx.Select(&sizes, dbtx.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to select product sizes: %w", err)
	}
	for _, s := range sizes {
		i := index[s.ProductID]
		products[i].Sizes = append(products[i].Sizes, s)
	}

	query, args, err = sqlx.In(`
		SELECT id, product_id, storage_key, url, alt, position
		FROM product_images WHERE product_id IN (?)
		ORDER BY position, id`, ids)
	if err != nil {
		return fmt.Errorf("failed to create IN query for images: %w", err)
	}
	var images []model.ProductImage
	if err := dbtx.Select(&images, dbtx.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to select product images: %w", err)
	}
	for _, img := range images {
		i := index[img.ProductID]
		products[i].Images = append(products[i].Images, img)
	}
	return nil
}

// UpsertProductInTx inserts a product when in.ID is zero and updates it
// otherwise. Sizes and images are replaced only when the input carries them.
func UpsertProductInTx(tx *sqlx.Tx, in *model.ProductInput) (int64, error) {
	ts := now()
	id := in.ID

	if id == 0 {
		const q = `
			INSERT INTO products (
				sku, slug, name, description, category, collection_id,
				price_cents, compare_at_cents, is_featured, is_new, is_active,
				created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		res, err := tx.Exec(q,
			in.SKU, in.Slug, in.Name, in.Description, in.Category, in.CollectionID,
			in.PriceCents, in.CompareAtCents, boolToInt(in.IsFeatured), boolToInt(in.IsNew), boolToInt(in.IsActive),
			ts, ts,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return 0, fmt.Errorf("product sku %s or slug %s: %w", in.SKU, in.Slug, ErrConflict)
			}
			return 0, fmt.Errorf("failed to insert product %s: %w", in.Name, err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to get new product id: %w", err)
		}
	} else {
		const q = `
			UPDATE products SET
				sku = ?, slug = ?, name = ?, description = ?, category = ?, collection_id = ?,
				price_cents = ?, compare_at_cents = ?, is_featured = ?, is_new = ?, is_active = ?,
				updated_at = ?
			WHERE id = ?`
		res, err := tx.Exec(q,
			in.SKU, in.Slug, in.Name, in.Description, in.Category, in.CollectionID,
			in.PriceCents, in.CompareAtCents, boolToInt(in.IsFeatured), boolToInt(in.IsNew), boolToInt(in.IsActive),
			ts, id,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return 0, fmt.Errorf("product sku %s or slug %s: %w", in.SKU, in.Slug, ErrConflict)
			}
			return 0, fmt.Errorf("failed to update product id %d: %w", id, err)
		}
		if err := checkAffected(res, fmt.Sprintf("product id %d", id)); err != nil {
			return 0, err
		}
	}

	if in.Sizes != nil {
		if err := replaceSizesInTx(tx, id, in.Sizes); err != nil {
			return 0, err
		}
	}
	if in.Images != nil {
		if err := replaceImagesInTx(tx, id, in.Images); err != nil {
			return 0, err
		}
	}
	return id, nil
}

func replaceSizesInTx(tx *sqlx.Tx, productID int64, sizes []model.ProductSize) error {
	if _, err := tx.Exec(`DELETE FROM product_sizes WHERE product_id = ?`, productID); err != nil {
		return fmt.Errorf("failed to clear sizes for product %d: %w", productID, err)
	}
	stmt, err := tx.Prepare(`INSERT INTO product_sizes (product_id, size, stock) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare size insert statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range sizes {
		if _, err := stmt.Exec(productID, s.Size, s.Stock); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("size %s listed twice for product %d: %w", s.Size, productID, ErrConflict)
			}
			return fmt.Errorf("failed to insert size %s for product %d: %w", s.Size, productID, err)
		}
	}
	return nil
}

func replaceImagesInTx(tx *sqlx.Tx, productID int64, images []model.ProductImage) error {
	if _, err := tx.Exec(`DELETE FROM product_images WHERE product_id = ?`, productID); err != nil {
		return fmt.Errorf("failed to clear images for product %d: %w", productID, err)
	}
	for i, img := range images {
		if _, err := tx.Exec(
			`INSERT INTO product_images (product_id, storage_key, url, alt, position) VALUES (?, ?, ?, ?, ?)`,
			productID, img.StorageKey, img.URL, img.Alt, i,
		); err != nil {
			return fmt.Errorf("failed to insert image for product %d: %w", productID, err)
		}
	}
	return nil
}

// AppendProductImage adds an image after the product's existing ones.
func AppendProductImage(dbtx DBTX, img model.ProductImage) (int64, error) {
	const q = `
		INSERT INTO product_images (product_id, storage_key, url, alt, position)
		SELECT ?, ?, ?, ?, COALESCE(MAX(position) + 1, 0) FROM product_images WHERE product_id = ?`
	res, err := dbtx.Exec(q, img.ProductID, img.StorageKey, img.URL, img.Alt, img.ProductID)
	if err != nil {
		return 0, fmt.Errorf("failed to append image for product %d: %w", img.ProductID, err)
	}
	return res.LastInsertId()
}

func GetProductImage(dbtx DBTX, id int64) (*model.ProductImage, error) {
	var img model.ProductImage
	err := dbtx.Get(&img, `SELECT id, product_id, storage_key, url, alt, position FROM product_images WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product image %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product image %d: %w", id, err)
	}
	return &img, nil
}

func DeleteProductImage(dbtx DBTX, id int64) error {
	res, err := dbtx.Exec(`DELETE FROM product_images WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product image %d: %w", id, err)
	}
	return checkAffected(res, fmt.Sprintf("product image %d", id))
}

func DeleteProduct(dbtx DBTX, id int64) error {
	res, err := dbtx.Exec(`DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product with id %d: %w", id, err)
	}
	return checkAffected(res, fmt.Sprintf("product id %d", id))
}

// SetProductFlags updates the active and featured flags; nil leaves a flag as is.
func SetProductFlags(dbtx DBTX, id int64, active, featured *bool) error {
	sets := []string{"updated_at = ?"}
	args := []interface{}{now()}
	if active != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, boolToInt(*active))
	}
	if featured != nil {
		sets = append(sets, "is_featured = ?")
		args = append(args, boolToInt(*featured))
	}
	args = append(args, id)
	res, err := dbtx.Exec(`UPDATE products SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("failed to set flags for product %d: %w", id, err)
	}
	return checkAffected(res, fmt.Sprintf("product id %d", id))
}

func ListCategories(dbtx DBTX) ([]string, error) {
	var categories []string
	err := dbtx.Select(&categories, `
		SELECT DISTINCT category FROM products
		WHERE is_active = 1 AND category != ''
		ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to select categories: %w", err)
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

// UpdatePricesInTx applies price updates by product id, or by SKU when the id
// is zero. The compare-at price changes only when the update carries one.
func UpdatePricesInTx(tx *sqlx.Tx, updates []model.PriceUpdate) error {
	ts := now()
	for _, u := range updates {
		if u.PriceCents < 0 || (u.CompareAtCents != nil && *u.CompareAtCents < 0) {
			return fmt.Errorf("negative price for product %d (%s)", u.ProductID, u.SKU)
		}
		set := `price_cents = ?, updated_at = ?`
		args := []interface{}{u.PriceCents, ts}
		if u.CompareAtCents != nil {
			set += `, compare_at_cents = ?`
			args = append(args, *u.CompareAtCents)
		}
		where := `id = ?`
		if u.ProductID != 0 {
			args = append(args, u.ProductID)
		} else {
			where = `sku = ?`
			args = append(args, u.SKU)
		}
		res, err := tx.Exec(`UPDATE products SET `+set+` WHERE `+where, args...)
		if err != nil {
			return fmt.Errorf("UpdatePricesInTx failed for product %d (%s): %w", u.ProductID, u.SKU, err)
		}
		if err := checkAffected(res, fmt.Sprintf("product %d (%s)", u.ProductID, u.SKU)); err != nil {
			return err
		}
	}
	return nil
}

// DecrementStockInTx takes qty units of a size out of stock.
func DecrementStockInTx(tx *sqlx.Tx, productID int64, size string, qty int) error {
	res, err := tx.Exec(`
		UPDATE product_sizes SET stock = stock - ?
		WHERE product_id = ? AND size = ? AND stock >= ?`,
		qty, productID, size, qty)
	if err != nil {
		return fmt.Errorf("failed to decrement stock for product %d size %s: %w", productID, size, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for stock decrement: %w", err)
	}
	if n > 0 {
		return nil
	}

	var exists int
	err = tx.Get(&exists, `SELECT 1 FROM product_sizes WHERE product_id = ? AND size = ?`, productID, size)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("product %d size %s: %w", productID, size, ErrNotFound)
		}
		return fmt.Errorf("failed to check size for product %d: %w", productID, err)
	}
	return fmt.Errorf("product %d size %s: %w", productID, size, ErrInsufficientStock)
}

// RestoreStockInTx puts qty units of a size back. Products deleted since the
// order was placed are skipped.
func RestoreStockInTx(tx *sqlx.Tx, productID int64, size string, qty int) error {
	const q = `
		INSERT INTO product_sizes (product_id, size, stock)
		SELECT ?, ?, ? WHERE EXISTS (SELECT 1 FROM products WHERE id = ?)
		ON CONFLICT(product_id, size) DO UPDATE SET stock = stock + excluded.stock`
	if _, err := tx.Exec(q, productID, size, qty, productID); err != nil {
		return fmt.Errorf("failed to restore stock for product %d size %s: %w", productID, size, err)
	}
	return nil
}
