package mappers

import (
	"atelier/model"
	"atelier/sizes"
)

// ToProductView prepares a product for display with the running config's
// money format.
func ToProductView(p *model.Product) model.ProductView {
	return ToProductViewWith(p, DefaultFormatter())
}

func ToProductViewWith(p *model.Product, f MoneyFormatter) model.ProductView {
	if p == nil {
		return model.ProductView{}
	}

	view := model.ProductView{
		Product:        *p,
		FormattedPrice: f.Format(p.PriceCents),
		SizeViews:      make([]model.SizeView, 0, len(p.Sizes)),
	}
	if p.CompareAtCents > p.PriceCents && p.CompareAtCents > 0 {
		view.FormattedCompareAt = f.Format(p.CompareAtCents)
		view.DiscountPercent = int((p.CompareAtCents - p.PriceCents) * 100 / p.CompareAtCents)
	}
	if len(p.Images) > 0 {
		view.CoverImage = p.Images[0].URL
	}

	stock := make(map[string]int, len(p.Sizes))
	codes := make([]string, 0, len(p.Sizes))
	for _, s := range p.Sizes {
		stock[s.Size] = s.Stock
		codes = append(codes, s.Size)
	}
	sizes.Sort(codes)
	for _, code := range codes {
		n := stock[code]
		view.SizeViews = append(view.SizeViews, model.SizeView{
			Size:      code,
			Label:     sizes.ResolveLabel(code),
			Stock:     n,
			Available: n > 0,
		})
		if n > 0 {
			view.InStock = true
		}
	}
	return view
}

// ToProductViews converts a list, marking favorites when the set is given.
func ToProductViews(products []model.Product, favorites map[int64]bool) []model.ProductView {
	f := DefaultFormatter()
	views := make([]model.ProductView, 0, len(products))
	for i := range products {
		v := ToProductViewWith(&products[i], f)
		v.IsFavorite = favorites[products[i].ID]
		views = append(views, v)
	}
	return views
}
