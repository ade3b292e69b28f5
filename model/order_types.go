package model

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCanceled  OrderStatus = "canceled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderShipped, OrderDelivered, OrderCanceled:
		return true
	}
	return false
}

// Order is an order placed through the WhatsApp checkout.
type Order struct {
	ID            string      `db:"id" json:"id"`
	OrderNumber   string      `db:"order_number" json:"orderNumber"`
	CustomerName  string      `db:"customer_name" json:"customerName"`
	CustomerPhone string      `db:"customer_phone" json:"customerPhone"`
	Notes         string      `db:"notes" json:"notes"`
	Status        OrderStatus `db:"status" json:"status"`
	TotalCents    int64       `db:"total_cents" json:"totalCents"`
	WhatsAppURL   string      `db:"whatsapp_url" json:"whatsappUrl"`
	CreatedAt     string      `db:"created_at" json:"createdAt"`
	UpdatedAt     string      `db:"updated_at" json:"updatedAt"`

	Items []OrderItem `db:"-" json:"items"`
}

type OrderItem struct {
	ID             int64  `db:"id" json:"id"`
	OrderID        string `db:"order_id" json:"-"`
	ProductID      int64  `db:"product_id" json:"productId"`
	SKU            string `db:"sku" json:"sku"`
	ProductName    string `db:"product_name" json:"productName"`
	Size           string `db:"size" json:"size"`
	Quantity       int    `db:"quantity" json:"quantity"`
	UnitPriceCents int64  `db:"unit_price_cents" json:"unitPriceCents"`
}

func (i OrderItem) SubtotalCents() int64 {
	return i.UnitPriceCents * int64(i.Quantity)
}

// CanTransitionTo reports whether an order in s may move to next.
// Delivered and canceled orders are final.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderPending:
		return next == OrderConfirmed || next == OrderCanceled
	case OrderConfirmed:
		return next == OrderShipped || next == OrderCanceled
	case OrderShipped:
		return next == OrderDelivered
	}
	return false
}
