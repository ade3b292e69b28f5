package checkout

import (
	"net/url"
	"strings"
	"testing"

	"atelier/mappers"
	"atelier/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLink(t *testing.T) {
	link, err := Link("+55 (11) 99999-0000", "Olá! Pedido PED000001 & mais")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(link, "https://wa.me/5511999990000?text="))
	assert.NotContains(t, link, "+")
	assert.Contains(t, link, "%20")

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "Olá! Pedido PED000001 & mais", u.Query().Get("text"))
}

func TestLink_NoNumber(t *testing.T) {
	_, err := Link(" - ", "x")
	assert.ErrorIs(t, err, ErrNoWhatsAppNumber)
}

func TestBuildMessage(t *testing.T) {
	o := &model.Order{
		OrderNumber:  "PED000007",
		CustomerName: "Bia",
		Notes:        "Presente, por favor",
		TotalCents:   35970,
		Items: []model.OrderItem{
			{ProductName: "Sutiã Renda", Size: "M", Quantity: 2, UnitPriceCents: 12990},
			{ProductName: "Calcinha", Size: "U", Quantity: 1, UnitPriceCents: 9990},
		},
	}
	msg := BuildMessage(o, "Atelier", "Olá!", mappers.NewMoneyFormatter("BRL", "pt-BR"))

	lines := strings.Split(msg, "\n")
	assert.Equal(t, "Olá!", lines[0])
	assert.Contains(t, msg, "Pedido PED000007")
	assert.Contains(t, msg, "• 2x Sutiã Renda (Tam. M) — ")
	assert.Contains(t, msg, "• 1x Calcinha (Tam. Tamanho único) — ")
	assert.Contains(t, msg, "Nome: Bia")
	assert.Contains(t, msg, "Observações: Presente, por favor")
	assert.NotContains(t, msg, "Telefone:")
}
