package database

import (
	"database/sql"
	"errors"
	"fmt"

	"atelier/model"

	"github.com/jmoiron/sqlx"
)

const orderColumns = `id, order_number, customer_name, customer_phone, notes, status, total_cents, whatsapp_url, created_at, updated_at`

// InsertOrderInTx stores the order and its items. CreatedAt and UpdatedAt are
// filled when empty.
func InsertOrderInTx(tx *sqlx.Tx, o *model.Order) error {
	if o.CreatedAt == "" {
		o.CreatedAt = now()
	}
	if o.UpdatedAt == "" {
		o.UpdatedAt = o.CreatedAt
	}
	if o.Status == "" {
		o.Status = model.OrderPending
	}

	const q = `
		INSERT INTO orders (` + orderColumns + `)
		VALUES (:id, :order_number, :customer_name, :customer_phone, :notes, :status, :total_cents, :whatsapp_url, :created_at, :updated_at)`
	if _, err := tx.NamedExec(q, o); err != nil {
		return fmt.Errorf("failed to insert order %s: %w", o.OrderNumber, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO order_items (order_id, product_id, sku, product_name, size, quantity, unit_price_cents)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare order item insert statement: %w", err)
	}
	defer stmt.Close()

	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID
		res, err := stmt.Exec(item.OrderID, item.ProductID, item.SKU, item.ProductName, item.Size, item.Quantity, item.UnitPriceCents)
		if err != nil {
			return fmt.Errorf("failed to execute order item insert for product %d: %w", item.ProductID, err)
		}
		if item.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get order item id: %w", err)
		}
	}
	return nil
}

// SetOrderWhatsAppURL records the deep link generated for the order.
func SetOrderWhatsAppURL(dbtx DBTX, id, url string) error {
	res, err := dbtx.Exec(`UPDATE orders SET whatsapp_url = ? WHERE id = ?`, url, id)
	if err != nil {
		return fmt.Errorf("failed to set whatsapp url for order %s: %w", id, err)
	}
	return checkAffected(res, "order "+id)
}

func ListOrders(dbtx DBTX, status model.OrderStatus, limit int) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, order_number DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var orders []model.Order
	if err := dbtx.Select(&orders, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query orders list: %w", err)
	}
	if orders == nil {
		orders = []model.Order{}
	}
	if err := attachOrderItems(dbtx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func attachOrderItems(dbtx DBTX, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
		orders[i].Items = []model.OrderItem{}
	}
	query, args, err := sqlx.In(`
		SELECT id, order_id, product_id, sku, product_name, size, quantity, unit_price_cents
		FROM order_items WHERE order_id IN (?) ORDER BY id`, ids)
	if err != nil {
		return fmt.Errorf("failed to create IN query for order items: %w", err)
	}
	var items []model.OrderItem
	if err := dbtx.Select(&items, dbtx.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to select order items: %w", err)
	}
	for _, item := range items {
		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}
	return nil
}

func getOrder(dbtx DBTX, where string, arg interface{}) (*model.Order, error) {
	var o model.Order
	if err := dbtx.Get(&o, `SELECT `+orderColumns+` FROM orders WHERE `+where, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	orders := []model.Order{o}
	if err := attachOrderItems(dbtx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func GetOrder(dbtx DBTX, id string) (*model.Order, error) {
	o, err := getOrder(dbtx, "id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}
	return o, nil
}

func GetOrderByNumber(dbtx DBTX, number string) (*model.Order, error) {
	o, err := getOrder(dbtx, "order_number = ?", number)
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", number, err)
	}
	return o, nil
}

// UpdateOrderStatusInTx moves an order to next. Canceling puts the ordered
// quantities back into stock.
func UpdateOrderStatusInTx(tx *sqlx.Tx, id string, next model.OrderStatus) (*model.Order, error) {
	o, err := GetOrder(tx, id)
	if err != nil {
		return nil, err
	}
	if o.Status == next {
		return o, nil
	}
	if !o.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("order %s from %s to %s: %w", o.OrderNumber, o.Status, next, ErrInvalidStatusTransition)
	}

	if next == model.OrderCanceled {
		for _, item := range o.Items {
			if err := RestoreStockInTx(tx, item.ProductID, item.Size, item.Quantity); err != nil {
				return nil, err
			}
		}
	}

	o.Status = next
	o.UpdatedAt = now()
	if _, err := tx.Exec(`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`, o.Status, o.UpdatedAt, o.ID); err != nil {
		return nil, fmt.Errorf("failed to update status for order %s: %w", o.OrderNumber, err)
	}
	return o, nil
}

func DeleteOrderInTx(tx *sqlx.Tx, id string) error {
	res, err := tx.Exec(`DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order %s: %w", id, err)
	}
	return checkAffected(res, "order "+id)
}
