// Package cart holds the shopping bag: a list of lines keyed by product and
// size, plus the HTTP handlers that persist it per visitor.
package cart

import "errors"

var ErrInvalidQuantity = errors.New("quantity must be greater than zero")

// Key identifies a cart line. The same product in two sizes is two lines.
type Key struct {
	ProductID int64
	Size      string
}

type Item struct {
	ProductID      int64  `json:"productId"`
	Size           string `json:"size"`
	Quantity       int    `json:"quantity"`
	SKU            string `json:"sku"`
	Slug           string `json:"slug"`
	Name           string `json:"name"`
	ImageURL       string `json:"imageUrl,omitempty"`
	UnitPriceCents int64  `json:"unitPriceCents"`
}

func (i Item) Key() Key {
	return Key{ProductID: i.ProductID, Size: i.Size}
}

func (i Item) SubtotalCents() int64 {
	return i.UnitPriceCents * int64(i.Quantity)
}

// Cart keeps lines in insertion order.
type Cart struct {
	items []Item
}

func New() *Cart {
	return &Cart{}
}

func (c *Cart) indexOf(k Key) int {
	for i, it := range c.items {
		if it.Key() == k {
			return i
		}
	}
	return -1
}

// Add appends item, or increments the quantity of the line with the same
// key. A zero quantity means one unit.
func (c *Cart) Add(item Item) error {
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	if item.Quantity < 0 {
		return ErrInvalidQuantity
	}
	if i := c.indexOf(item.Key()); i >= 0 {
		c.items[i].Quantity += item.Quantity
		return nil
	}
	c.items = append(c.items, item)
	return nil
}

// Remove drops a line and reports whether it was present.
func (c *Cart) Remove(productID int64, size string) bool {
	i := c.indexOf(Key{ProductID: productID, Size: size})
	if i < 0 {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return true
}

// SetQuantity overwrites the quantity of an existing line. Zero or less
// removes it. It reports whether the line existed.
func (c *Cart) SetQuantity(productID int64, size string, qty int) bool {
	i := c.indexOf(Key{ProductID: productID, Size: size})
	if i < 0 {
		return false
	}
	if qty <= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
		return true
	}
	c.items[i].Quantity = qty
	return true
}

func (c *Cart) Get(productID int64, size string) (Item, bool) {
	i := c.indexOf(Key{ProductID: productID, Size: size})
	if i < 0 {
		return Item{}, false
	}
	return c.items[i], true
}

// Items returns a copy of the lines.
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Total() int64 {
	var total int64
	for _, it := range c.items {
		total += it.SubtotalCents()
	}
	return total
}

// Count is the number of units, not lines.
func (c *Cart) Count() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) Len() int {
	return len(c.items)
}

func (c *Cart) Clear() {
	c.items = nil
}
