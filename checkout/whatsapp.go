package checkout

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"atelier/mappers"
	"atelier/model"
	"atelier/sizes"
)

var ErrNoWhatsAppNumber = errors.New("whatsapp number is not configured")

// BuildMessage writes the text the customer sends to the store.
func BuildMessage(o *model.Order, storeName, greeting string, f mappers.MoneyFormatter) string {
	var sb strings.Builder

	if greeting != "" {
		sb.WriteString(greeting)
		sb.WriteString("\n\n")
	}
	if storeName != "" {
		sb.WriteString(fmt.Sprintf("*%s* · Pedido %s\n\n", storeName, o.OrderNumber))
	} else {
		sb.WriteString(fmt.Sprintf("Pedido %s\n\n", o.OrderNumber))
	}

	for _, it := range o.Items {
		sb.WriteString(fmt.Sprintf("• %dx %s (Tam. %s) — %s\n",
			it.Quantity, it.ProductName, sizes.ResolveLabel(it.Size), f.Format(it.SubtotalCents())))
	}
	sb.WriteString(fmt.Sprintf("\n*Total: %s*\n", f.Format(o.TotalCents)))

	sb.WriteString(fmt.Sprintf("\nNome: %s", o.CustomerName))
	if o.CustomerPhone != "" {
		sb.WriteString(fmt.Sprintf("\nTelefone: %s", o.CustomerPhone))
	}
	if notes := strings.TrimSpace(o.Notes); notes != "" {
		sb.WriteString(fmt.Sprintf("\nObservações: %s", notes))
	}
	return sb.String()
}

// Link builds the wa.me deep link for number with message prefilled.
func Link(number, message string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, number)
	if digits == "" {
		return "", ErrNoWhatsAppNumber
	}
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://wa.me/" + digits + "?text=" + text, nil
}
