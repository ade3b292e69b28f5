package loader

import (
	"encoding/json"
	"fmt"
	"net/http"

	"atelier/parsers"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// ImportProductsHandler serves POST /api/admin/products/import with a
// catalog CSV in the "file" field and an optional "encoding".
func ImportProductsHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			writeJSONError(w, "File upload error", http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSONError(w, "Nenhum arquivo enviado.", http.StatusBadRequest)
			return
		}
		defer file.Close()

		zap.S().Infof("HTTP request received: importing catalog %s", header.Filename)
		rows, err := parsers.ParseProductCSV(file, r.FormValue("encoding"))
		if err != nil {
			writeJSONError(w, fmt.Sprintf("Arquivo '%s' inválido: %v", header.Filename, err), http.StatusBadRequest)
			return
		}

		result, err := ImportProducts(db, rows)
		if err != nil {
			zap.S().Errorf("Catalog import failed: %v", err)
			writeJSONError(w, "Falha na importação: "+err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": fmt.Sprintf("%d produtos criados, %d atualizados.", result.Created, result.Updated),
			"created": result.Created,
			"updated": result.Updated,
		})
	}
}
