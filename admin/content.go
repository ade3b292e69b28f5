package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"atelier/database"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
)

// Keys the storefront homepage reads. Other keys are stored as well.
var HomepageKeys = []string{"hero_title", "hero_subtitle", "hero_cta", "about_title", "about_text", "banner_text"}

var contentKeyPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

func GetContentHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		content, err := database.GetContentMap(db)
		if err != nil {
			writeJSONError(w, "Falha ao carregar conteúdo: "+err.Error(), http.StatusInternalServerError)
			return
		}
		for _, k := range HomepageKeys {
			if _, ok := content[k]; !ok {
				content[k] = ""
			}
		}
		writeJSON(w, http.StatusOK, content)
	}
}

// SaveContentHandler serves PUT /api/admin/content with a key/value map.
func SaveContentHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var values map[string]string
		if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
			writeJSONError(w, "Requisição inválida.", http.StatusBadRequest)
			return
		}
		for k := range values {
			if !contentKeyPattern.MatchString(k) {
				writeJSONError(w, fmt.Sprintf("Chave inválida: %q", k), http.StatusBadRequest)
				return
			}
		}

		tx, err := db.Beginx()
		if err != nil {
			writeJSONError(w, "Failed to start transaction", http.StatusInternalServerError)
			return
		}
		defer tx.Rollback()

		if err := database.UpsertContentInTx(tx, values); err != nil {
			writeJSONError(w, "Falha ao salvar conteúdo: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if err := tx.Commit(); err != nil {
			writeJSONError(w, "Failed to commit transaction", http.StatusInternalServerError)
			return
		}

		content, err := database.GetContentMap(db)
		if err != nil {
			writeJSONError(w, "Falha ao carregar conteúdo: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, content)
	}
}

func DeleteContentHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := mux.Vars(r)["key"]
		err := database.DeleteContent(db, key)
		if errors.Is(err, database.ErrNotFound) {
			writeJSONError(w, "Conteúdo não encontrado.", http.StatusNotFound)
			return
		}
		if err != nil {
			writeJSONError(w, "Falha ao excluir conteúdo: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Conteúdo excluído."})
	}
}
