package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"atelier/checkout"
	"atelier/config"
	"atelier/database"
	"atelier/mappers"
	"atelier/model"
	"atelier/render"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const defaultOrderLimit = 200

func orderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeJSONError(w, "Pedido não encontrado.", http.StatusNotFound)
	case errors.Is(err, database.ErrInvalidStatusTransition):
		writeJSONError(w, "Transição de status não permitida: "+err.Error(), http.StatusConflict)
	default:
		zap.S().Errorf("Admin order operation failed: %v", err)
		writeJSONError(w, "Falha ao processar o pedido: "+err.Error(), http.StatusInternalServerError)
	}
}

// ListOrdersHandler serves GET /api/admin/orders?status=&limit= with the
// rendered table alongside the data.
func ListOrdersHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := model.OrderStatus(r.URL.Query().Get("status"))
		if status != "" && !status.Valid() {
			writeJSONError(w, "Status inválido.", http.StatusBadRequest)
			return
		}
		limit := defaultOrderLimit
		if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
			limit = n
		}

		orders, err := database.ListOrders(db, status, limit)
		if err != nil {
			orderError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"orders":    orders,
			"tableHTML": render.RenderOrderTableHTML(orders, mappers.DefaultFormatter()),
		})
	}
}

// GetOrderHandler accepts either the order id or its number (PED000123).
func GetOrderHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref := mux.Vars(r)["id"]
		var order *model.Order
		var err error
		if strings.HasPrefix(strings.ToUpper(ref), database.OrderNumberSequence.Prefix) {
			order, err = database.GetOrderByNumber(db, strings.ToUpper(ref))
		} else {
			order, err = database.GetOrder(db, ref)
		}
		if err != nil {
			orderError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, order)
	}
}

// UpdateOrderStatusHandler serves PATCH /api/admin/orders/{id}/status.
func UpdateOrderStatusHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Status model.OrderStatus `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "Requisição inválida.", http.StatusBadRequest)
			return
		}
		if !req.Status.Valid() {
			writeJSONError(w, "Status inválido.", http.StatusBadRequest)
			return
		}

		tx, err := db.Beginx()
		if err != nil {
			orderError(w, fmt.Errorf("failed to start transaction: %w", err))
			return
		}
		defer tx.Rollback()

		order, err := database.UpdateOrderStatusInTx(tx, mux.Vars(r)["id"], req.Status)
		if err != nil {
			orderError(w, err)
			return
		}
		if err := tx.Commit(); err != nil {
			orderError(w, fmt.Errorf("failed to commit transaction: %w", err))
			return
		}
		zap.S().Infof("Order %s is now %s", order.OrderNumber, order.Status)
		writeJSON(w, http.StatusOK, order)
	}
}

// DeleteOrderHandler removes an order. Stock of open orders is restored
// first.
func DeleteOrderHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		tx, err := db.Beginx()
		if err != nil {
			orderError(w, fmt.Errorf("failed to start transaction: %w", err))
			return
		}
		defer tx.Rollback()

		order, err := database.GetOrder(tx, id)
		if err != nil {
			orderError(w, err)
			return
		}
		if order.Status == model.OrderPending || order.Status == model.OrderConfirmed {
			for _, it := range order.Items {
				if err := database.RestoreStockInTx(tx, it.ProductID, it.Size, it.Quantity); err != nil {
					orderError(w, err)
					return
				}
			}
		}
		if err := database.DeleteOrderInTx(tx, id); err != nil {
			orderError(w, err)
			return
		}
		if err := tx.Commit(); err != nil {
			orderError(w, fmt.Errorf("failed to commit transaction: %w", err))
			return
		}
		zap.S().Infof("Order %s deleted", order.OrderNumber)
		writeJSON(w, http.StatusOK, map[string]string{"message": "Pedido excluído."})
	}
}

// OrderSlipHandler serves the printable packing slip as HTML.
func OrderSlipHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := database.GetOrder(db, mux.Vars(r)["id"])
		if err != nil {
			orderError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(render.RenderOrderSlipHTML(config.GetConfig().StoreName, order, mappers.DefaultFormatter())))
	}
}

// RefreshWhatsAppLinkHandler serves POST /api/admin/orders/{id}/whatsapp.
func RefreshWhatsAppLinkHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := checkout.RefreshLink(db, config.GetConfig(), mux.Vars(r)["id"])
		if errors.Is(err, checkout.ErrNoWhatsAppNumber) {
			writeJSONError(w, "Número de WhatsApp não configurado.", http.StatusServiceUnavailable)
			return
		}
		if err != nil {
			orderError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"whatsappUrl": order.WhatsAppURL})
	}
}
