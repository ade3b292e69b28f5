package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"atelier/model"

	"go.uber.org/zap"
)

// ProductRow is one line of a catalog import CSV.
type ProductRow struct {
	Line           int
	SKU            string
	Slug           string
	Name           string
	Description    string
	Category       string
	Collection     string
	PriceCents     int64
	CompareAtCents int64
	Sizes          []model.ProductSize
	Images         []string
	Featured       bool
	New            bool
	Active         bool

	// Columns holds the lower-cased header names present in the file.
	Columns map[string]bool
}

// Has reports whether the file carried column col. Absent columns leave an
// existing product's value untouched.
func (r ProductRow) Has(col string) bool {
	return r.Columns[col]
}

// ParseProductCSV reads a header-indexed catalog CSV. name and price are
// required; sku, slug, description, category, collection, compare_at_price,
// sizes, images, featured, new and active are optional; rows with an empty name are skipped, rows with a bad price or
// size list fail the whole file.
func ParseProductCSV(r io.Reader, encoding string) ([]ProductRow, error) {
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

	colIndex, err := getColIndex(header, []string{"name", "price"})
	if err != nil {
		return nil, err
	}

	columns := make(map[string]bool, len(colIndex))
	for col := range colIndex {
		columns[col] = true
	}

	var rows []ProductRow
	line := 1
	for {
		line++
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			zap.S().Warnf("Product CSV line %d read error (skipping): %v", line, err)
			continue
		}

		get := func(key string) string {
			if idx, ok := colIndex[key]; ok && idx < len(rec) {
				return strings.TrimSpace(rec[idx])
			}
			return ""
		}

		name := get("name")
		if name == "" {
			zap.S().Warnf("Product CSV line %d has no name (skipping)", line)
			continue
		}

		row := ProductRow{
			Line:        line,
			SKU:         get("sku"),
			Slug:        get("slug"),
			Name:        name,
			Description: get("description"),
			Category:    get("category"),
			Collection:  get("collection"),
			Featured:    ParseBool(get("featured")),
			New:         ParseBool(get("new")),
			Active:      !columns["active"] || ParseBool(get("active")),
			Columns:     columns,
		}

		if row.PriceCents, err = ParsePrice(get("price")); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if v := get("compare_at_price"); v != "" {
			if row.CompareAtCents, err = ParsePrice(v); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
		if row.Sizes, err = ParseSizes(get("sizes")); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if v := get("images"); v != "" {
			for _, u := range strings.Split(v, "|") {
				if u = strings.TrimSpace(u); u != "" {
					row.Images = append(row.Images, u)
				}
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseSizes reads "P:3|M:5|G" into sizes with stock. A size without a
// count has zero stock.
func ParseSizes(s string) ([]model.ProductSize, error) {
	sizes := []model.ProductSize{}
	if strings.TrimSpace(s) == "" {
		return sizes, nil
	}
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ';' })
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		code, qty, hasQty := strings.Cut(f, ":")
		ps := model.ProductSize{Size: strings.ToUpper(strings.TrimSpace(code))}
		if ps.Size == "" {
			return nil, fmt.Errorf("empty size in %q", s)
		}
		if hasQty {
			n, err := strconv.Atoi(strings.TrimSpace(qty))
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid stock %q for size %s", qty, ps.Size)
			}
			ps.Stock = n
		}
		sizes = append(sizes, ps)
	}
	return sizes, nil
}
