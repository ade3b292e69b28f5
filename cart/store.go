package cart

import (
	"fmt"

	"atelier/database"
	"atelier/model"
)

// Loaded is a cart priced from the product table together with the current
// stock of every line.
type Loaded struct {
	*Cart
	Stock map[Key]int
}

// Load rebuilds the visitor's cart from storage. Lines whose product was
// deleted or hidden are dropped.
func Load(dbtx database.DBTX, token string) (*Loaded, error) {
	out := &Loaded{Cart: New(), Stock: map[Key]int{}}
	if token == "" {
		return out, nil
	}

	rows, err := database.GetCartItems(dbtx, token)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return out, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ProductID)
	}
	products, err := database.GetProductsByIDsMap(dbtx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart products: %w", err)
	}

	for _, row := range rows {
		p, ok := products[row.ProductID]
		if !ok || !p.IsActive {
			continue
		}
		item := ItemFromProduct(p, row.Size, row.Quantity)
		if err := out.Add(item); err != nil {
			return nil, err
		}
		out.Stock[item.Key()] = stockOf(p, row.Size)
	}
	return out, nil
}

// ItemFromProduct builds a cart line priced from p.
func ItemFromProduct(p *model.Product, size string, qty int) Item {
	item := Item{
		ProductID:      p.ID,
		Size:           size,
		Quantity:       qty,
		SKU:            p.SKU,
		Slug:           p.Slug,
		Name:           p.Name,
		UnitPriceCents: p.PriceCents,
	}
	if len(p.Images) > 0 {
		item.ImageURL = p.Images[0].URL
	}
	return item
}

func stockOf(p *model.Product, size string) int {
	for _, s := range p.Sizes {
		if s.Size == size {
			return s.Stock
		}
	}
	return 0
}

func hasSize(p *model.Product, size string) bool {
	for _, s := range p.Sizes {
		if s.Size == size {
			return true
		}
	}
	return false
}
