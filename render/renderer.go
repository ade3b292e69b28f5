package render

import (
	"fmt"
	"html"
	"strings"

	"atelier/mappers"
	"atelier/model"
	"atelier/sizes"
)

var statusLabels = map[model.OrderStatus]string{
	model.OrderPending:   "Pendente",
	model.OrderConfirmed: "Confirmado",
	model.OrderShipped:   "Enviado",
	model.OrderDelivered: "Entregue",
	model.OrderCanceled:  "Cancelado",
}

// StatusLabel returns the display name for an order status.
func StatusLabel(s model.OrderStatus) string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

func esc(s string) string {
	return html.EscapeString(s)
}

// RenderOrderTableHTML builds the thead and tbody of the back-office order
// list. Every value coming from customers is escaped.
func RenderOrderTableHTML(orders []model.Order, f mappers.MoneyFormatter) string {
	var sb strings.Builder

	sb.WriteString(`<thead><tr>`)
	sb.WriteString(`<th class="col-number">Pedido</th>`)
	sb.WriteString(`<th class="col-date">Data</th>`)
	sb.WriteString(`<th class="col-customer">Cliente</th>`)
	sb.WriteString(`<th class="col-phone">Telefone</th>`)
	sb.WriteString(`<th class="col-items">Itens</th>`)
	sb.WriteString(`<th class="col-total">Total</th>`)
	sb.WriteString(`<th class="col-status">Status</th>`)
	sb.WriteString(`</tr></thead>`)

	sb.WriteString(`<tbody>`)
	if len(orders) == 0 {
		sb.WriteString(`<tr><td colspan="7">Nenhum pedido encontrado.</td></tr>`)
	}
	for _, o := range orders {
		count := 0
		for _, it := range o.Items {
			count += it.Quantity
		}
		sb.WriteString(fmt.Sprintf(`<tr data-order-id="%s">`, esc(o.ID)))
		sb.WriteString(fmt.Sprintf(`<td class="col-number">%s</td>`, esc(o.OrderNumber)))
		sb.WriteString(fmt.Sprintf(`<td class="center col-date">%s</td>`, esc(shortDate(o.CreatedAt))))
		sb.WriteString(fmt.Sprintf(`<td class="col-customer">%s</td>`, esc(o.CustomerName)))
		sb.WriteString(fmt.Sprintf(`<td class="col-phone">%s</td>`, esc(o.CustomerPhone)))
		sb.WriteString(fmt.Sprintf(`<td class="right col-items">%d</td>`, count))
		sb.WriteString(fmt.Sprintf(`<td class="right col-total">%s</td>`, esc(f.Format(o.TotalCents))))
		sb.WriteString(fmt.Sprintf(`<td class="center col-status status-%s">%s</td>`, esc(string(o.Status)), esc(StatusLabel(o.Status))))
		sb.WriteString(`</tr>`)
	}
	sb.WriteString(`</tbody>`)

	return sb.String()
}

// RenderOrderSlipHTML builds a standalone printable packing slip.
func RenderOrderSlipHTML(storeName string, o *model.Order, f mappers.MoneyFormatter) string {
	var sb strings.Builder

	sb.WriteString(`<!DOCTYPE html><html lang="pt-BR"><head><meta charset="utf-8">`)
	sb.WriteString(fmt.Sprintf(`<title>%s %s</title>`, esc(storeName), esc(o.OrderNumber)))
	sb.WriteString(`<style>
body { font-family: Georgia, serif; margin: 32px; color: #2b2024; }
h1 { font-weight: normal; letter-spacing: .08em; }
table { width: 100%; border-collapse: collapse; margin-top: 16px; }
th, td { border-bottom: 1px solid #e4d6da; padding: 6px 4px; text-align: left; }
.right { text-align: right; }
.total { font-weight: bold; }
</style></head><body>`)

	sb.WriteString(fmt.Sprintf(`<h1>%s</h1>`, esc(storeName)))
	sb.WriteString(fmt.Sprintf(`<p>Pedido <strong>%s</strong> &middot; %s &middot; %s</p>`,
		esc(o.OrderNumber), esc(shortDate(o.CreatedAt)), esc(StatusLabel(o.Status))))
	sb.WriteString(fmt.Sprintf(`<p>Cliente: %s`, esc(o.CustomerName)))
	if o.CustomerPhone != "" {
		sb.WriteString(fmt.Sprintf(` &middot; %s`, esc(o.CustomerPhone)))
	}
	sb.WriteString(`</p>`)
	if o.Notes != "" {
		sb.WriteString(fmt.Sprintf(`<p>Observações: %s</p>`, esc(o.Notes)))
	}

	sb.WriteString(`<table><thead><tr><th>SKU</th><th>Produto</th><th>Tamanho</th>`)
	sb.WriteString(`<th class="right">Qtd.</th><th class="right">Unitário</th><th class="right">Subtotal</th></tr></thead><tbody>`)
	for _, it := range o.Items {
		sb.WriteString(`<tr>`)
		sb.WriteString(fmt.Sprintf(`<td>%s</td>`, esc(it.SKU)))
		sb.WriteString(fmt.Sprintf(`<td>%s</td>`, esc(it.ProductName)))
		sb.WriteString(fmt.Sprintf(`<td>%s</td>`, esc(sizes.ResolveLabel(it.Size))))
		sb.WriteString(fmt.Sprintf(`<td class="right">%d</td>`, it.Quantity))
		sb.WriteString(fmt.Sprintf(`<td class="right">%s</td>`, esc(f.Format(it.UnitPriceCents))))
		sb.WriteString(fmt.Sprintf(`<td class="right">%s</td>`, esc(f.Format(it.SubtotalCents()))))
		sb.WriteString(`</tr>`)
	}
	sb.WriteString(fmt.Sprintf(`<tr class="total"><td colspan="5" class="right">Total</td><td class="right">%s</td></tr>`,
		esc(f.Format(o.TotalCents))))
	sb.WriteString(`</tbody></table></body></html>`)

	return sb.String()
}

// shortDate keeps the YYYY-MM-DD part of an RFC3339 timestamp.
func shortDate(ts string) string {
	if len(ts) >= 10 {
		return ts[:10]
	}
	return ts
}
