package favorites

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"atelier/cart"
	"atelier/model"
	"atelier/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleAndList(t *testing.T) {
	db := testutil.NewDB(t)
	id := testutil.SeedProduct(t, db, "SKU00001", "Body Renda", 12990, map[string]int{"M": 1})
	body := `{"productId":` + strconv.FormatInt(id, 10) + `}`

	rec := httptest.NewRecorder()
	ToggleFavoriteHandler(db)(rec, httptest.NewRequest(http.MethodPost, "/api/favorites", bytes.NewBufferString(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"favorite":true`)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == cart.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	req := httptest.NewRequest(http.MethodGet, "/api/favorites", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	ListFavoritesHandler(db)(rec, req)
	var views []model.ProductView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&views))
	require.Len(t, views, 1)
	assert.True(t, views[0].IsFavorite)

	req = httptest.NewRequest(http.MethodPost, "/api/favorites", bytes.NewBufferString(body))
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	ToggleFavoriteHandler(db)(rec, req)
	assert.Contains(t, rec.Body.String(), `"favorite":false`)
}

func TestToggle_UnknownProduct(t *testing.T) {
	db := testutil.NewDB(t)
	rec := httptest.NewRecorder()
	ToggleFavoriteHandler(db)(rec, httptest.NewRequest(http.MethodPost, "/api/favorites", bytes.NewBufferString(`{"productId":42}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestList_NoCookie(t *testing.T) {
	db := testutil.NewDB(t)
	rec := httptest.NewRecorder()
	ListFavoritesHandler(db)(rec, httptest.NewRequest(http.MethodGet, "/api/favorites", nil))
	assert.JSONEq(t, `[]`, rec.Body.String())
}
