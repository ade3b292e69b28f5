package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"atelier/database"
	"atelier/mappers"
	"atelier/sizes"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type LineView struct {
	Item
	SizeLabel         string `json:"sizeLabel"`
	FormattedPrice    string `json:"formattedPrice"`
	SubtotalCents     int64  `json:"subtotalCents"`
	FormattedSubtotal string `json:"formattedSubtotal"`
	Stock             int    `json:"stock"`
	Available         bool   `json:"available"`
}

type View struct {
	Items          []LineView `json:"items"`
	Count          int        `json:"count"`
	TotalCents     int64      `json:"totalCents"`
	FormattedTotal string     `json:"formattedTotal"`
}

type itemRequest struct {
	ProductID int64  `json:"productId"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// ToView formats a loaded cart for the storefront.
func ToView(l *Loaded) View {
	f := mappers.DefaultFormatter()
	view := View{
		Items:          make([]LineView, 0, l.Len()),
		Count:          l.Count(),
		TotalCents:     l.Total(),
		FormattedTotal: f.Format(l.Total()),
	}
	for _, it := range l.Items() {
		stock := l.Stock[it.Key()]
		view.Items = append(view.Items, LineView{
			Item:              it,
			SizeLabel:         sizes.ResolveLabel(it.Size),
			FormattedPrice:    f.Format(it.UnitPriceCents),
			SubtotalCents:     it.SubtotalCents(),
			FormattedSubtotal: f.Format(it.SubtotalCents()),
			Stock:             stock,
			Available:         stock >= it.Quantity,
		})
	}
	return view
}

func respondWithCart(w http.ResponseWriter, db *sqlx.DB, token string) {
	loaded, err := Load(db, token)
	if err != nil {
		writeJSONError(w, "Falha ao carregar a sacola: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ToView(loaded))
}

func decodeItemRequest(w http.ResponseWriter, r *http.Request) (itemRequest, bool) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Requisição inválida.", http.StatusBadRequest)
		return req, false
	}
	req.Size = strings.ToUpper(strings.TrimSpace(req.Size))
	if req.ProductID <= 0 || req.Size == "" {
		writeJSONError(w, "Produto e tamanho são obrigatórios.", http.StatusBadRequest)
		return req, false
	}
	return req, true
}

// GetCartHandler serves GET /api/cart.
func GetCartHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithCart(w, db, PeekToken(r))
	}
}

// AddItemHandler serves POST /api/cart/items. Adding a line that already
// exists increments its quantity.
func AddItemHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeItemRequest(w, r)
		if !ok {
			return
		}
		if req.Quantity < 0 {
			writeJSONError(w, ErrInvalidQuantity.Error(), http.StatusBadRequest)
			return
		}

		p, err := database.GetProductByID(db, req.ProductID)
		if err != nil && !errors.Is(err, database.ErrNotFound) {
			writeJSONError(w, "Falha ao carregar o produto: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if err != nil || !p.IsActive {
			writeJSONError(w, "Produto indisponível.", http.StatusBadRequest)
			return
		}
		if !hasSize(p, req.Size) {
			writeJSONError(w, "Tamanho indisponível para este produto.", http.StatusBadRequest)
			return
		}

		token := EnsureToken(w, r)
		loaded, err := Load(db, token)
		if err != nil {
			writeJSONError(w, "Falha ao carregar a sacola: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if err := loaded.Add(ItemFromProduct(p, req.Size, req.Quantity)); err != nil {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		line, _ := loaded.Get(p.ID, req.Size)
		if err := database.SetCartItemQuantity(db, token, p.ID, req.Size, line.Quantity); err != nil {
			writeJSONError(w, "Falha ao salvar a sacola: "+err.Error(), http.StatusInternalServerError)
			return
		}
		zap.S().Debugf("Cart %s: %s %s now x%d", token, p.SKU, req.Size, line.Quantity)

		respondWithCart(w, db, token)
	}
}

// UpdateItemHandler serves PUT /api/cart/items. A quantity of zero removes
// the line.
func UpdateItemHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeItemRequest(w, r)
		if !ok {
			return
		}
		token := PeekToken(r)
		loaded, err := Load(db, token)
		if err != nil {
			writeJSONError(w, "Falha ao carregar a sacola: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if !loaded.SetQuantity(req.ProductID, req.Size, req.Quantity) {
			writeJSONError(w, "Item não está na sacola.", http.StatusNotFound)
			return
		}
		if err := database.SetCartItemQuantity(db, token, req.ProductID, req.Size, req.Quantity); err != nil {
			writeJSONError(w, "Falha ao salvar a sacola: "+err.Error(), http.StatusInternalServerError)
			return
		}
		respondWithCart(w, db, token)
	}
}

func writeCart(w http.ResponseWriter, loaded *Loaded) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ToView(loaded))
}

// RemoveItemHandler serves DELETE /api/cart/items. A line that is not in the
// cart is a 404, as for PUT.
func RemoveItemHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeItemRequest(w, r)
		if !ok {
			return
		}
		token := PeekToken(r)
		loaded, err := Load(db, token)
		if err != nil {
			writeJSONError(w, "Falha ao carregar a sacola: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if !loaded.Remove(req.ProductID, req.Size) {
			writeJSONError(w, "Item não está na sacola.", http.StatusNotFound)
			return
		}
		if err := database.SetCartItemQuantity(db, token, req.ProductID, req.Size, 0); err != nil {
			writeJSONError(w, "Falha ao salvar a sacola: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeCart(w, loaded)
	}
}

// ClearCartHandler serves DELETE /api/cart.
func ClearCartHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := PeekToken(r)
		loaded, err := Load(db, token)
		if err != nil {
			writeJSONError(w, "Falha ao carregar a sacola: "+err.Error(), http.StatusInternalServerError)
			return
		}
		loaded.Clear()
		if token != "" {
			if err := database.ClearCart(db, token); err != nil {
				writeJSONError(w, "Falha ao limpar a sacola: "+err.Error(), http.StatusInternalServerError)
				return
			}
		}
		writeCart(w, loaded)
	}
}
