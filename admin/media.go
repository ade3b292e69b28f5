package admin

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"atelier/database"
	"atelier/model"
	"atelier/storage"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const MaxUploadBytes = 10 << 20

// maxUploadBody leaves room for the multipart envelope and form fields.
const maxUploadBody = MaxUploadBytes + 1<<20

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// UploadMediaHandler serves POST /api/admin/media (multipart: file,
// productId, alt). With a productId the upload becomes the product's next
// image.
func UploadMediaHandler(db *sqlx.DB, store storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > maxUploadBody {
			writeJSONError(w, "Arquivo excede 10 MB.", http.StatusRequestEntityTooLarge)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
		if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeJSONError(w, "Arquivo excede 10 MB.", http.StatusRequestEntityTooLarge)
				return
			}
			writeJSONError(w, "Formulário inválido: "+err.Error(), http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSONError(w, "Nenhum arquivo enviado.", http.StatusBadRequest)
			return
		}
		defer file.Close()
		if header.Size > MaxUploadBytes {
			writeJSONError(w, "Arquivo excede 10 MB.", http.StatusRequestEntityTooLarge)
			return
		}

		var productID int64
		if raw := r.FormValue("productId"); raw != "" {
			productID, err = strconv.ParseInt(raw, 10, 64)
			if err != nil || productID <= 0 {
				writeJSONError(w, "productId inválido.", http.StatusBadRequest)
				return
			}
			if _, err := database.GetProductByID(db, productID); err != nil {
				if errors.Is(err, database.ErrNotFound) {
					writeJSONError(w, "Produto não encontrado.", http.StatusNotFound)
					return
				}
				writeJSONError(w, "Falha ao carregar o produto: "+err.Error(), http.StatusInternalServerError)
				return
			}
		}

		sniff := make([]byte, 512)
		n, err := io.ReadFull(file, sniff)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			writeJSONError(w, "Falha ao ler o arquivo.", http.StatusBadRequest)
			return
		}
		sniff = sniff[:n]
		contentType := http.DetectContentType(sniff)
		ext, ok := allowedImageTypes[contentType]
		if !ok {
			writeJSONError(w, fmt.Sprintf("Tipo de arquivo não suportado: %s", contentType), http.StatusUnsupportedMediaType)
			return
		}

		prefix := "uploads"
		if productID != 0 {
			prefix = fmt.Sprintf("products/%d", productID)
		}
		key := prefix + "/" + uuid.NewString() + ext

		url, err := store.Put(r.Context(), key, io.MultiReader(bytes.NewReader(sniff), file), contentType)
		if err != nil {
			zap.S().Errorf("Failed to store upload %s: %v", key, err)
			writeJSONError(w, "Falha ao salvar o arquivo.", http.StatusInternalServerError)
			return
		}

		media := model.Media{Key: key, URL: url, ContentType: contentType, Size: header.Size}
		if productID != 0 {
			media.ImageID, err = database.AppendProductImage(db, model.ProductImage{
				ProductID:  productID,
				StorageKey: key,
				URL:        url,
				Alt:        r.FormValue("alt"),
			})
			if err != nil {
				if delErr := store.Delete(r.Context(), key); delErr != nil {
					zap.S().Warnf("Failed to remove orphaned upload %s: %v", key, delErr)
				}
				writeJSONError(w, "Falha ao vincular a imagem: "+err.Error(), http.StatusInternalServerError)
				return
			}
		}

		zap.S().Infof("Uploaded %s (%s, %d bytes)", key, contentType, header.Size)
		writeJSON(w, http.StatusCreated, media)
	}
}

// DeleteProductImageHandler serves DELETE /api/admin/media/images/{id}: the
// image row and its stored object are both removed.
func DeleteProductImageHandler(db *sqlx.DB, store storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idVar(r)
		if !ok {
			writeJSONError(w, "ID inválido.", http.StatusBadRequest)
			return
		}
		img, err := database.GetProductImage(db, id)
		if errors.Is(err, database.ErrNotFound) {
			writeJSONError(w, "Imagem não encontrada.", http.StatusNotFound)
			return
		}
		if err != nil {
			writeJSONError(w, "Falha ao carregar a imagem: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if err := database.DeleteProductImage(db, id); err != nil {
			writeJSONError(w, "Falha ao excluir a imagem: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if img.StorageKey != "" {
			if err := store.Delete(r.Context(), img.StorageKey); err != nil {
				zap.S().Warnf("Failed to delete media %s: %v", img.StorageKey, err)
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Imagem excluída."})
	}
}

// DeleteMediaHandler serves DELETE /api/admin/media?key= for uploads not
// attached to a product.
func DeleteMediaHandler(store storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := store.Delete(r.Context(), r.URL.Query().Get("key"))
		if errors.Is(err, storage.ErrInvalidKey) {
			writeJSONError(w, "Chave inválida.", http.StatusBadRequest)
			return
		}
		if err != nil {
			writeJSONError(w, "Falha ao excluir o arquivo: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Arquivo excluído."})
	}
}
