package database

import (
	"fmt"

	"atelier/model"
)

func GetCartItems(dbtx DBTX, token string) ([]model.CartItem, error) {
	var items []model.CartItem
	err := dbtx.Select(&items, `
		SELECT cart_token, product_id, size, quantity, added_at
		FROM cart_items WHERE cart_token = ?
		ORDER BY added_at, rowid`, token)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart items: %w", err)
	}
	if items == nil {
		items = []model.CartItem{}
	}
	return items, nil
}

// SetCartItemQuantity stores the quantity of one cart line. A quantity of
// zero or less deletes the line.
func SetCartItemQuantity(dbtx DBTX, token string, productID int64, size string, qty int) error {
	if qty <= 0 {
		_, err := dbtx.Exec(`DELETE FROM cart_items WHERE cart_token = ? AND product_id = ? AND size = ?`, token, productID, size)
		if err != nil {
			return fmt.Errorf("failed to delete cart item %d/%s: %w", productID, size, err)
		}
		return nil
	}
	const q = `
		INSERT INTO cart_items (cart_token, product_id, size, quantity, added_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(cart_token, product_id, size) DO UPDATE SET quantity = excluded.quantity`
	if _, err := dbtx.Exec(q, token, productID, size, qty, now()); err != nil {
		return fmt.Errorf("failed to set cart item %d/%s: %w", productID, size, err)
	}
	return nil
}

func ClearCart(dbtx DBTX, token string) error {
	if _, err := dbtx.Exec(`DELETE FROM cart_items WHERE cart_token = ?`, token); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func AddFavorite(dbtx DBTX, token string, productID int64) error {
	_, err := dbtx.Exec(`INSERT OR IGNORE INTO favorites (cart_token, product_id, added_at) VALUES (?, ?, ?)`, token, productID, now())
	if err != nil {
		return fmt.Errorf("failed to add favorite %d: %w", productID, err)
	}
	return nil
}

func RemoveFavorite(dbtx DBTX, token string, productID int64) error {
	if _, err := dbtx.Exec(`DELETE FROM favorites WHERE cart_token = ? AND product_id = ?`, token, productID); err != nil {
		return fmt.Errorf("failed to remove favorite %d: %w", productID, err)
	}
	return nil
}

func GetFavoriteIDs(dbtx DBTX, token string) ([]int64, error) {
	var ids []int64
	if err := dbtx.Select(&ids, `SELECT product_id FROM favorites WHERE cart_token = ? ORDER BY added_at DESC, rowid DESC`, token); err != nil {
		return nil, fmt.Errorf("failed to get favorites: %w", err)
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}

// GetFavoriteSet is GetFavoriteIDs as a lookup set.
func GetFavoriteSet(dbtx DBTX, token string) (map[int64]bool, error) {
	ids, err := GetFavoriteIDs(dbtx, token)
	if err != nil {
		return nil, err
	}
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
