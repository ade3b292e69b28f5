package checkout

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"atelier/cart"
	"atelier/config"
	"atelier/database"
	"atelier/mappers"
	"atelier/model"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrOutOfStock      = errors.New("out of stock")
	ErrMissingCustomer = errors.New("customer name is required")
)

type Request struct {
	CustomerName  string `json:"customerName"`
	CustomerPhone string `json:"customerPhone"`
	Notes         string `json:"notes"`
}

type Response struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	TotalCents  int64  `json:"totalCents"`
	Total       string `json:"total"`
	WhatsAppURL string `json:"whatsappUrl"`
}

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// PlaceOrder turns the visitor's cart into a pending order. Prices are read
// from the product table, stock is taken and the cart is emptied in the same
// transaction.
func PlaceOrder(db *sqlx.DB, cfg config.Config, token string, req Request) (*model.Order, error) {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	if req.CustomerName == "" {
		return nil, ErrMissingCustomer
	}
	if _, err := Link(cfg.WhatsAppNumber, ""); err != nil {
		return nil, err
	}

	tx, err := db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	loaded, err := cart.Load(tx, token)
	if err != nil {
		return nil, err
	}
	if loaded.Len() == 0 {
		return nil, ErrEmptyCart
	}

	order := &model.Order{
		ID:            uuid.NewString(),
		CustomerName:  req.CustomerName,
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		Notes:         strings.TrimSpace(req.Notes),
		Status:        model.OrderPending,
		TotalCents:    loaded.Total(),
	}
	for _, it := range loaded.Items() {
		if err := database.DecrementStockInTx(tx, it.ProductID, it.Size, it.Quantity); err != nil {
			if errors.Is(err, database.ErrInsufficientStock) || errors.Is(err, database.ErrNotFound) {
				return nil, fmt.Errorf("%s (%s): %w", it.Name, it.Size, ErrOutOfStock)
			}
			return nil, err
		}
		order.Items = append(order.Items, model.OrderItem{
			ProductID:      it.ProductID,
			SKU:            it.SKU,
			ProductName:    it.Name,
			Size:           it.Size,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
		})
	}

	order.OrderNumber, err = database.NextSequenceInTx(tx, database.OrderNumberSequence)
	if err != nil {
		return nil, err
	}

	msg := BuildMessage(order, cfg.StoreName, cfg.OrderGreeting, mappers.NewMoneyFormatter(cfg.Currency, cfg.Locale))
	order.WhatsAppURL, err = Link(cfg.WhatsAppNumber, msg)
	if err != nil {
		return nil, err
	}

	if err := database.InsertOrderInTx(tx, order); err != nil {
		return nil, err
	}
	if err := database.ClearCart(tx, token); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	zap.S().Infof("Order %s placed: %d lines, %d cents", order.OrderNumber, len(order.Items), order.TotalCents)
	return order, nil
}

// CheckoutHandler serves POST /api/checkout.
func CheckoutHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "Requisição inválida.", http.StatusBadRequest)
			return
		}

		cfg := config.GetConfig()
		order, err := PlaceOrder(db, cfg, cart.PeekToken(r), req)
		switch {
		case errors.Is(err, ErrMissingCustomer):
			writeJSONError(w, "Informe seu nome para finalizar o pedido.", http.StatusBadRequest)
			return
		case errors.Is(err, ErrEmptyCart):
			writeJSONError(w, "Sua sacola está vazia.", http.StatusBadRequest)
			return
		case errors.Is(err, ErrOutOfStock):
			writeJSONError(w, "Estoque insuficiente: "+err.Error(), http.StatusConflict)
			return
		case errors.Is(err, ErrNoWhatsAppNumber):
			zap.S().Error("Checkout attempted without a configured WhatsApp number")
			writeJSONError(w, "Checkout indisponível no momento.", http.StatusServiceUnavailable)
			return
		case err != nil:
			zap.S().Errorf("Checkout failed: %v", err)
			writeJSONError(w, "Falha ao registrar o pedido.", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Response{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			TotalCents:  order.TotalCents,
			Total:       mappers.NewMoneyFormatter(cfg.Currency, cfg.Locale).Format(order.TotalCents),
			WhatsAppURL: order.WhatsAppURL,
		})
	}
}

// RefreshLink rebuilds an order's WhatsApp link from the current store
// settings, for when the number or greeting changed after the order was placed.
func RefreshLink(dbtx database.DBTX, cfg config.Config, orderID string) (*model.Order, error) {
	order, err := database.GetOrder(dbtx, orderID)
	if err != nil {
		return nil, err
	}
	msg := BuildMessage(order, cfg.StoreName, cfg.OrderGreeting, mappers.NewMoneyFormatter(cfg.Currency, cfg.Locale))
	link, err := Link(cfg.WhatsAppNumber, msg)
	if err != nil {
		return nil, err
	}
	if err := database.SetOrderWhatsAppURL(dbtx, order.ID, link); err != nil {
		return nil, err
	}
	order.WhatsAppURL = link
	return order, nil
}
