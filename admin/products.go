package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"atelier/catalog"
	"atelier/database"
	"atelier/mappers"
	"atelier/model"
	"atelier/sizes"
	"atelier/storage"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

var ErrInvalidProduct = errors.New("invalid product")

// NormalizeProduct trims the input, derives the slug and checks prices and
// sizes.
func NormalizeProduct(in *model.ProductInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.SKU = strings.ToUpper(strings.TrimSpace(in.SKU))
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if in.PriceCents < 0 || in.CompareAtCents < 0 {
		return fmt.Errorf("%w: prices must not be negative", ErrInvalidProduct)
	}
	in.Slug = catalog.Slugify(in.Slug)
	if in.Slug == "" {
		in.Slug = catalog.Slugify(in.Name)
	}
	if in.Slug == "" {
		return fmt.Errorf("%w: cannot derive a slug from %q", ErrInvalidProduct, in.Name)
	}

	seen := make(map[string]bool, len(in.Sizes))
	for i := range in.Sizes {
		s := &in.Sizes[i]
		s.Size = strings.ToUpper(strings.TrimSpace(s.Size))
		if !sizes.Valid(s.Size) {
			return fmt.Errorf("%w: unknown size %q", ErrInvalidProduct, s.Size)
		}
		if seen[s.Size] {
			return fmt.Errorf("%w: size %s listed twice", ErrInvalidProduct, s.Size)
		}
		if s.Stock < 0 {
			return fmt.Errorf("%w: negative stock for size %s", ErrInvalidProduct, s.Size)
		}
		seen[s.Size] = true
	}
	return nil
}

// SaveProductInTx normalizes in, allocates a SKU when empty and stores it.
func SaveProductInTx(tx *sqlx.Tx, in *model.ProductInput) (int64, error) {
	if err := NormalizeProduct(in); err != nil {
		return 0, err
	}
	if in.SKU == "" {
		sku, err := database.NextSequenceInTx(tx, database.SKUSequence)
		if err != nil {
			return 0, err
		}
		in.SKU = sku
	}
	return database.UpsertProductInTx(tx, in)
}

func productError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidProduct):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, database.ErrConflict):
		writeJSONError(w, "SKU ou slug já utilizado por outro produto.", http.StatusConflict)
	case errors.Is(err, database.ErrNotFound):
		writeJSONError(w, "Produto não encontrado.", http.StatusNotFound)
	default:
		zap.S().Errorf("Admin product operation failed: %v", err)
		writeJSONError(w, "Falha ao processar o produto: "+err.Error(), http.StatusInternalServerError)
	}
}

// ListProductsHandler serves GET /api/admin/products, hidden products
// included.
func ListProductsHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := catalog.FiltersFromQuery(r)
		f.IncludeHidden = true
		products, err := database.ListProducts(db, f)
		if err != nil {
			productError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, mappers.ToProductViews(products, nil))
	}
}

func GetProductHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idVar(r)
		if !ok {
			writeJSONError(w, "ID inválido.", http.StatusBadRequest)
			return
		}
		p, err := database.GetProductByID(db, id)
		if err != nil {
			productError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, mappers.ToProductView(p))
	}
}

// SaveProductHandler serves POST /api/admin/products and
// PUT /api/admin/products/{id}.
func SaveProductHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input model.ProductInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			writeJSONError(w, "Requisição inválida.", http.StatusBadRequest)
			return
		}
		status := http.StatusCreated
		input.ID = 0
		if _, present := mux.Vars(r)["id"]; present {
			id, ok := idVar(r)
			if !ok {
				writeJSONError(w, "ID inválido.", http.StatusBadRequest)
				return
			}
			input.ID = id
			status = http.StatusOK
		}

		tx, err := db.Beginx()
		if err != nil {
			productError(w, fmt.Errorf("failed to start transaction: %w", err))
			return
		}
		defer tx.Rollback()

		id, err := SaveProductInTx(tx, &input)
		if err != nil {
			productError(w, err)
			return
		}
		p, err := database.GetProductByID(tx, id)
		if err != nil {
			productError(w, err)
			return
		}
		if err := tx.Commit(); err != nil {
			productError(w, fmt.Errorf("failed to commit transaction: %w", err))
			return
		}

		zap.S().Infof("Product %s (%s) saved", p.SKU, p.Slug)
		writeJSON(w, status, mappers.ToProductView(p))
	}
}

// DeleteProductHandler removes the product and its stored images.
func DeleteProductHandler(db *sqlx.DB, store storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idVar(r)
		if !ok {
			writeJSONError(w, "ID inválido.", http.StatusBadRequest)
			return
		}
		p, err := database.GetProductByID(db, id)
		if err != nil {
			productError(w, err)
			return
		}
		if err := database.DeleteProduct(db, id); err != nil {
			productError(w, err)
			return
		}
		for _, img := range p.Images {
			if img.StorageKey == "" {
				continue
			}
			if err := store.Delete(r.Context(), img.StorageKey); err != nil {
				zap.S().Warnf("Failed to delete media %s of product %s: %v", img.StorageKey, p.SKU, err)
			}
		}
		zap.S().Infof("Product %s deleted", p.SKU)
		writeJSON(w, http.StatusOK, map[string]string{"message": "Produto excluído."})
	}
}

// SetProductFlagsHandler serves PATCH /api/admin/products/{id}/flags.
func SetProductFlagsHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idVar(r)
		if !ok {
			writeJSONError(w, "ID inválido.", http.StatusBadRequest)
			return
		}
		var req struct {
			IsActive   *bool `json:"isActive"`
			IsFeatured *bool `json:"isFeatured"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "Requisição inválida.", http.StatusBadRequest)
			return
		}
		if err := database.SetProductFlags(db, id, req.IsActive, req.IsFeatured); err != nil {
			productError(w, err)
			return
		}
		p, err := database.GetProductByID(db, id)
		if err != nil {
			productError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, mappers.ToProductView(p))
	}
}
