package mappers

import (
	"testing"

	"atelier/model"

	"github.com/stretchr/testify/assert"
)

func TestToProductViewWith(t *testing.T) {
	p := &model.Product{
		ID:             7,
		Name:           "Conjunto Renda",
		PriceCents:     15000,
		CompareAtCents: 20000,
		Sizes: []model.ProductSize{
			{Size: "G", Stock: 0},
			{Size: "P", Stock: 2},
			{Size: "U", Stock: 0},
		},
		Images: []model.ProductImage{{URL: "/media/a.jpg"}, {URL: "/media/b.jpg"}},
	}

	v := ToProductViewWith(p, NewMoneyFormatter("BRL", "pt-BR"))

	assert.Equal(t, 25, v.DiscountPercent)
	assert.True(t, v.InStock)
	assert.Equal(t, "/media/a.jpg", v.CoverImage)
	assert.Equal(t, "R$ 150,00", v.FormattedPrice)
	assert.Equal(t, "R$ 200,00", v.FormattedCompareAt)

	assert.Len(t, v.SizeViews, 3)
	assert.Equal(t, "P", v.SizeViews[0].Size)
	assert.True(t, v.SizeViews[0].Available)
	assert.Equal(t, "G", v.SizeViews[1].Size)
	assert.Equal(t, "Tamanho único", v.SizeViews[2].Label)
}

func TestToProductViewWith_NoDiscountWhenCompareAtLower(t *testing.T) {
	p := &model.Product{PriceCents: 5000, CompareAtCents: 4000}
	v := ToProductViewWith(p, NewMoneyFormatter("BRL", "pt-BR"))
	assert.Zero(t, v.DiscountPercent)
	assert.Empty(t, v.FormattedCompareAt)
	assert.False(t, v.InStock)
}

func TestDiscountRoundsDown(t *testing.T) {
	p := &model.Product{PriceCents: 6990, CompareAtCents: 9990}
	v := ToProductViewWith(p, NewMoneyFormatter("BRL", "pt-BR"))
	assert.Equal(t, 30, v.DiscountPercent)
}

func TestNewMoneyFormatter_FallsBack(t *testing.T) {
	f := NewMoneyFormatter("???", "not a locale")
	assert.NotEmpty(t, f.Format(1990))
}

func TestToProductViewWith_Nil(t *testing.T) {
	assert.Equal(t, model.ProductView{}, ToProductViewWith(nil, NewMoneyFormatter("BRL", "pt-BR")))
}
