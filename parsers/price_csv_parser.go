package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"atelier/model"
)

// ParsePriceCSV reads sku,price[,compare_at_price] rows into price updates
// keyed by SKU. A missing or empty compare_at_price leaves it unchanged.
func ParsePriceCSV(r io.Reader, encoding string) ([]model.PriceUpdate, error) {
	decoded, err := DecodeReader(r, encoding)
	if err != nil {
		return nil, err
	}
	reader := csv.NewReader(decoded)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("CSV file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	colIndex, err := getColIndex(header, []string{"sku", "price"})
	if err != nil {
		return nil, err
	}

	var updates []model.PriceUpdate
	line := 1
	for {
		line++
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		get := func(key string) string {
			if idx, ok := colIndex[key]; ok && idx < len(rec) {
				return strings.TrimSpace(rec[idx])
			}
			return ""
		}

		sku := get("sku")
		if sku == "" {
			continue
		}
		u := model.PriceUpdate{SKU: sku}
		if u.PriceCents, err = ParsePrice(get("price")); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if v := get("compare_at_price"); v != "" {
			compareAt, err := ParsePrice(v)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			u.CompareAtCents = &compareAt
		}
		updates = append(updates, u)
	}
	return updates, nil
}
