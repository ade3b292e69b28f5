package pricing

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"

	"atelier/database"
	"atelier/model"
	"atelier/parsers"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

func writeJsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// priceRow is one line of the bulk editor. Prices are decimal amounts in
// the store currency, e.g. 89.9.
type priceRow struct {
	ProductID      int64       `json:"productId"`
	SKU            string      `json:"sku"`
	Price          json.Number `json:"price"`
	CompareAtPrice json.Number `json:"compareAtPrice"`
}

// centsFromNumber converts a JSON decimal amount to cents, rounding half up.
// Spreadsheet separators do not apply here: "12.345" is twelve and change.
func centsFromNumber(n json.Number) (int64, error) {
	r, ok := new(big.Rat).SetString(n.String())
	if !ok {
		return 0, fmt.Errorf("%w: %q", parsers.ErrInvalidPrice, n.String())
	}
	if r.Sign() < 0 {
		return 0, fmt.Errorf("%w: negative value %s", parsers.ErrInvalidPrice, n.String())
	}
	r.Mul(r, big.NewRat(100, 1))
	r.Add(r, big.NewRat(1, 2))
	cents := new(big.Int).Quo(r.Num(), r.Denom())
	if !cents.IsInt64() {
		return 0, fmt.Errorf("%w: %s is out of range", parsers.ErrInvalidPrice, n.String())
	}
	return cents.Int64(), nil
}

// toUpdate leaves the compare-at price alone when the row omits it.
func (p priceRow) toUpdate() (model.PriceUpdate, error) {
	u := model.PriceUpdate{ProductID: p.ProductID, SKU: p.SKU}
	if u.ProductID == 0 && u.SKU == "" {
		return u, errors.New("productId or sku is required")
	}
	var err error
	if u.PriceCents, err = centsFromNumber(p.Price); err != nil {
		return u, err
	}
	if p.CompareAtPrice != "" {
		compareAt, err := centsFromNumber(p.CompareAtPrice)
		if err != nil {
			return u, err
		}
		u.CompareAtCents = &compareAt
	}
	return u, nil
}

// BulkUpdateHandler applies every price in one transaction. Any bad row
// rejects the whole batch.
func BulkUpdateHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload []priceRow
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJsonError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}

		updates := make([]model.PriceUpdate, 0, len(payload))
		for i, row := range payload {
			u, err := row.toUpdate()
			if err != nil {
				writeJsonError(w, fmt.Sprintf("Linha %d: %v", i+1, err), http.StatusBadRequest)
				return
			}
			updates = append(updates, u)
		}

		tx, err := db.Beginx()
		if err != nil {
			writeJsonError(w, "Failed to start transaction", http.StatusInternalServerError)
			return
		}
		defer tx.Rollback()

		if err := database.UpdatePricesInTx(tx, updates); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				writeJsonError(w, "Produto não encontrado: "+err.Error(), http.StatusNotFound)
				return
			}
			writeJsonError(w, "Failed to update prices: "+err.Error(), http.StatusInternalServerError)
			return
		}

		if err := tx.Commit(); err != nil {
			writeJsonError(w, "Failed to commit transaction", http.StatusInternalServerError)
			return
		}
		zap.S().Infof("Bulk price update applied to %d products", len(updates))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"message": fmt.Sprintf("%d preços atualizados.", len(updates)),
		})
	}
}
