package mappers

import (
	"atelier/config"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MoneyFormatter renders cents in a currency for a locale.
type MoneyFormatter struct {
	unit    currency.Unit
	printer *message.Printer
}

// NewMoneyFormatter falls back to BRL and pt-BR when code or locale do not
// parse.
func NewMoneyFormatter(code, locale string) MoneyFormatter {
	unit, err := currency.ParseISO(code)
	if err != nil {
		unit = currency.BRL
	}
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.BrazilianPortuguese
	}
	return MoneyFormatter{unit: unit, printer: message.NewPrinter(tag)}
}

func (f MoneyFormatter) Format(cents int64) string {
	return f.printer.Sprint(currency.Symbol(f.unit.Amount(float64(cents) / 100)))
}

// DefaultFormatter uses the currency and locale of the running config.
func DefaultFormatter() MoneyFormatter {
	cfg := config.GetConfig()
	return NewMoneyFormatter(cfg.Currency, cfg.Locale)
}
