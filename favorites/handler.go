package favorites

import (
	"encoding/json"
	"errors"
	"net/http"

	"atelier/cart"
	"atelier/database"
	"atelier/mappers"

	"github.com/jmoiron/sqlx"
)

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// ListFavoritesHandler serves GET /api/favorites. Hidden products are left
// out.
func ListFavoritesHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		token := cart.PeekToken(r)
		if token == "" {
			w.Write([]byte("[]\n"))
			return
		}

		ids, err := database.GetFavoriteIDs(db, token)
		if err != nil {
			writeJSONError(w, "Falha ao carregar favoritos: "+err.Error(), http.StatusInternalServerError)
			return
		}
		byID, err := database.GetProductsByIDsMap(db, ids)
		if err != nil {
			writeJSONError(w, "Falha ao carregar favoritos: "+err.Error(), http.StatusInternalServerError)
			return
		}

		f := mappers.DefaultFormatter()
		views := make([]interface{}, 0, len(ids))
		for _, id := range ids {
			p, ok := byID[id]
			if !ok || !p.IsActive {
				continue
			}
			v := mappers.ToProductViewWith(p, f)
			v.IsFavorite = true
			views = append(views, v)
		}
		json.NewEncoder(w).Encode(views)
	}
}

// ToggleFavoriteHandler serves POST /api/favorites {productId} and returns
// the new state.
func ToggleFavoriteHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ProductID int64 `json:"productId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID <= 0 {
			writeJSONError(w, "Requisição inválida.", http.StatusBadRequest)
			return
		}

		p, err := database.GetProductByID(db, req.ProductID)
		if errors.Is(err, database.ErrNotFound) || (err == nil && !p.IsActive) {
			writeJSONError(w, "Produto não encontrado.", http.StatusNotFound)
			return
		}
		if err != nil {
			writeJSONError(w, "Falha ao carregar o produto: "+err.Error(), http.StatusInternalServerError)
			return
		}

		token := cart.EnsureToken(w, r)
		set, err := database.GetFavoriteSet(db, token)
		if err != nil {
			writeJSONError(w, "Falha ao carregar favoritos: "+err.Error(), http.StatusInternalServerError)
			return
		}

		favorite := !set[p.ID]
		if favorite {
			err = database.AddFavorite(db, token, p.ID)
		} else {
			err = database.RemoveFavorite(db, token, p.ID)
		}
		if err != nil {
			writeJSONError(w, "Falha ao salvar favorito: "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"productId": p.ID,
			"favorite":  favorite,
		})
	}
}
