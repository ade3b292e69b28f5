package pricing

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"atelier/database"
	"atelier/model"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// formatDecimal renders cents as a plain "89.90" for spreadsheets.
func formatDecimal(cents int64) string {
	return strconv.FormatInt(cents/100, 10) + "." + fmt.Sprintf("%02d", cents%100)
}

// ExportHandler serves GET /api/admin/pricing/export, a CSV of every product
// that the import endpoint accepts back.
func ExportHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := database.ListProducts(db, model.ProductFilters{IncludeHidden: true, Sort: "name"})
		if err != nil {
			writeJsonError(w, "Failed to get products for export", http.StatusInternalServerError)
			return
		}

		fileName := fmt.Sprintf("precos_%s.csv", time.Now().Format("20060102_150405"))
		fileName = url.PathEscape(fileName)

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''"+fileName)
		w.Write([]byte{0xEF, 0xBB, 0xBF})

		csvWriter := csv.NewWriter(w)
		defer csvWriter.Flush()

		headers := []string{"sku", "name", "price", "compare_at_price"}
		if err := csvWriter.Write(headers); err != nil {
			zap.S().Warnf("Failed to write CSV header: %v", err)
		}

		for _, p := range products {
			compareAt := ""
			if p.CompareAtCents > 0 {
				compareAt = formatDecimal(p.CompareAtCents)
			}
			record := []string{p.SKU, p.Name, formatDecimal(p.PriceCents), compareAt}
			if err := csvWriter.Write(record); err != nil {
				zap.S().Warnf("Failed to write product row to CSV (SKU: %s): %v", p.SKU, err)
			}
		}
	}
}
