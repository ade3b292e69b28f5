package automation

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"atelier/config"
	"atelier/database"
	"atelier/mappers"
	"atelier/render"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// pdfRenderer is swapped in tests.
var pdfRenderer = RenderPDF

// OrderSlipPDFHandler serves GET /api/admin/orders/{id}/slip.pdf.
func OrderSlipPDFHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		order, err := database.GetOrder(db, id)
		if errors.Is(err, database.ErrNotFound) {
			writeJSONError(w, "Pedido não encontrado.", http.StatusNotFound)
			return
		}
		if err != nil {
			writeJSONError(w, "Falha ao carregar o pedido: "+err.Error(), http.StatusInternalServerError)
			return
		}

		cfg := config.GetConfig()
		html := render.RenderOrderSlipHTML(cfg.StoreName, order, mappers.DefaultFormatter())

		pdf, err := pdfRenderer(r.Context(), html)
		if errors.Is(err, ErrBrowserUnavailable) {
			zap.S().Warnf("PDF slip for %s unavailable: %v", order.OrderNumber, err)
			writeJSONError(w, "Geração de PDF indisponível neste servidor.", http.StatusServiceUnavailable)
			return
		}
		if err != nil {
			zap.S().Errorf("PDF slip for %s failed: %v", order.OrderNumber, err)
			writeJSONError(w, "Falha ao gerar o PDF: "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s.pdf"`, order.OrderNumber))
		w.Write(pdf)
	}
}
