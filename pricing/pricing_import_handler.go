package pricing

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"atelier/database"
	"atelier/model"
	"atelier/parsers"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type ImportResult struct {
	Updated     int      `json:"updated"`
	UnknownSKUs []string `json:"unknownSkus"`
}

// ApplyImportInTx updates prices by SKU. SKUs that match no product are
// collected instead of failing the import.
func ApplyImportInTx(tx *sqlx.Tx, updates []model.PriceUpdate) (*ImportResult, error) {
	res := &ImportResult{UnknownSKUs: []string{}}
	for _, u := range updates {
		u.ProductID = 0
		err := database.UpdatePricesInTx(tx, []model.PriceUpdate{u})
		if errors.Is(err, database.ErrNotFound) {
			res.UnknownSKUs = append(res.UnknownSKUs, u.SKU)
			continue
		}
		if err != nil {
			return nil, err
		}
		res.Updated++
	}
	return res, nil
}

// ImportHandler serves POST /api/admin/pricing/import (multipart "file",
// optional "encoding").
func ImportHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			writeJsonError(w, "File upload error", http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeJsonError(w, "Nenhum arquivo enviado.", http.StatusBadRequest)
			return
		}
		defer file.Close()

		updates, err := parsers.ParsePriceCSV(file, r.FormValue("encoding"))
		if err != nil {
			writeJsonError(w, fmt.Sprintf("Arquivo '%s' inválido: %v", header.Filename, err), http.StatusBadRequest)
			return
		}

		tx, err := db.Beginx()
		if err != nil {
			writeJsonError(w, "Failed to start transaction", http.StatusInternalServerError)
			return
		}
		defer tx.Rollback()

		result, err := ApplyImportInTx(tx, updates)
		if err != nil {
			writeJsonError(w, "Failed to update prices: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if err := tx.Commit(); err != nil {
			writeJsonError(w, "Failed to commit transaction", http.StatusInternalServerError)
			return
		}
		if len(result.UnknownSKUs) > 0 {
			zap.S().Warnf("Price import %s: %d unknown SKUs", header.Filename, len(result.UnknownSKUs))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}
