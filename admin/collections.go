package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"atelier/catalog"
	"atelier/database"
	"atelier/model"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

func collectionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrConflict):
		writeJSONError(w, "Já existe uma coleção com este slug.", http.StatusConflict)
	case errors.Is(err, database.ErrNotFound):
		writeJSONError(w, "Coleção não encontrada.", http.StatusNotFound)
	default:
		zap.S().Errorf("Admin collection operation failed: %v", err)
		writeJSONError(w, "Falha ao processar a coleção: "+err.Error(), http.StatusInternalServerError)
	}
}

func ListCollectionsHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		collections, err := database.ListCollections(db, true)
		if err != nil {
			collectionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, collections)
	}
}

// SaveCollectionHandler serves POST /api/admin/collections and
// PUT /api/admin/collections/{id}.
func SaveCollectionHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input model.CollectionInput
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

		input.Name = strings.TrimSpace(input.Name)
		if input.Name == "" {
			writeJSONError(w, "O nome da coleção é obrigatório.", http.StatusBadRequest)
			return
		}
		input.Slug = catalog.Slugify(input.Slug)
		if input.Slug == "" {
			input.Slug = catalog.Slugify(input.Name)
		}

		id, err := database.UpsertCollection(db, &input)
		if err != nil {
			collectionError(w, err)
			return
		}
		c, err := database.GetCollectionByID(db, id)
		if err != nil {
			collectionError(w, err)
			return
		}
		writeJSON(w, status, c)
	}
}

// DeleteCollectionHandler removes a collection. Its products stay, detached.
func DeleteCollectionHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idVar(r)
		if !ok {
			writeJSONError(w, "ID inválido.", http.StatusBadRequest)
			return
		}
		if err := database.DeleteCollection(db, id); err != nil {
			collectionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Coleção excluída."})
	}
}
