package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"atelier/database"
	"atelier/model"
	"atelier/testutil"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCatalog(t *testing.T) *sqlx.DB {
	t.Helper()
	db := testutil.NewDB(t)
	colID, err := database.UpsertCollection(db, &model.CollectionInput{Slug: "noite", Name: "Noite", IsActive: true})
	require.NoError(t, err)

	tx, err := db.Beginx()
	require.NoError(t, err)
	defer tx.Rollback()
	for i, name := range []string{"Body Renda", "Camisola Seda", "Robe Cetim", "Baby Doll", "Corset", "Sutiã Tule"} {
		_, err := database.UpsertProductInTx(tx, &model.ProductInput{
			SKU: "SKU0000" + string(rune('1'+i)), Slug: Slugify(name), Name: name,
			CollectionID: &colID, PriceCents: int64(10000 + i*1000), IsActive: true,
			IsFeatured: i == 0, IsNew: i == 1,
			Sizes: []model.ProductSize{{Size: "M", Stock: i}},
		})
		require.NoError(t, err)
	}
	_, err = database.UpsertProductInTx(tx, &model.ProductInput{SKU: "SKU00099", Slug: "oculto", Name: "Oculto", PriceCents: 1, IsActive: false})
	require.NoError(t, err)
	require.NoError(t, database.UpsertContentInTx(tx, map[string]string{"hero_title": "Nova coleção"}))
	require.NoError(t, tx.Commit())
	return db
}

func TestGetProductHandler(t *testing.T) {
	db := seedCatalog(t)

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/products/body-renda", nil), map[string]string{"slug": "body-renda"})
	rec := httptest.NewRecorder()
	GetProductHandler(db)(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Product model.ProductView   `json:"product"`
		Related []model.ProductView `json:"related"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Body Renda", resp.Product.Name)
	assert.False(t, resp.Product.InStock)
	assert.Len(t, resp.Related, 4)
	for _, r := range resp.Related {
		assert.NotEqual(t, resp.Product.ID, r.ID)
	}
}

func TestGetProductHandler_HiddenIsNotFound(t *testing.T) {
	db := seedCatalog(t)
	for _, slug := range []string{"oculto", "missing"} {
		req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/products/"+slug, nil), map[string]string{"slug": slug})
		rec := httptest.NewRecorder()
		GetProductHandler(db)(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code, slug)
	}
}

func TestListProductsHandler(t *testing.T) {
	db := seedCatalog(t)
	rec := httptest.NewRecorder()
	ListProductsHandler(db)(rec, httptest.NewRequest(http.MethodGet, "/api/products?sort=price_desc&limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var views []model.ProductView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&views))
	require.Len(t, views, 2)
	assert.Equal(t, "Sutiã Tule", views[0].Name)
	assert.NotEmpty(t, views[0].FormattedPrice)
}

func TestGetCollectionHandler(t *testing.T) {
	db := seedCatalog(t)
	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/collections/noite", nil), map[string]string{"slug": "noite"})
	rec := httptest.NewRecorder()
	GetCollectionHandler(db)(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Collection model.Collection    `json:"collection"`
		Products   []model.ProductView `json:"products"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Noite", resp.Collection.Name)
	assert.Len(t, resp.Products, 6)
}

func TestListCategoriesHandler(t *testing.T) {
	db := testutil.NewDB(t)
	tx, err := db.Beginx()
	require.NoError(t, err)
	defer tx.Rollback()
	products := []model.ProductInput{
		{SKU: "SKU00001", Slug: "body", Name: "Body", Category: "Lingerie", PriceCents: 100, IsActive: true},
		{SKU: "SKU00002", Slug: "camisola", Name: "Camisola", Category: "Camisolas", PriceCents: 100, IsActive: true},
		{SKU: "SKU00003", Slug: "sutia", Name: "Sutiã", Category: "Lingerie", PriceCents: 100, IsActive: true},
		{SKU: "SKU00004", Slug: "robe", Name: "Robe", Category: "Robes", PriceCents: 100, IsActive: false},
		{SKU: "SKU00005", Slug: "meia", Name: "Meia", PriceCents: 100, IsActive: true},
	}
	for i := range products {
		_, err := database.UpsertProductInTx(tx, &products[i])
		require.NoError(t, err)
	}
	require.NoError(t, tx.Commit())

	rec := httptest.NewRecorder()
	ListCategoriesHandler(db)(rec, httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var got []string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, []string{"Camisolas", "Lingerie"}, got)

	empty := testutil.NewDB(t)
	rec = httptest.NewRecorder()
	ListCategoriesHandler(empty)(rec, httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHomeHandler(t *testing.T) {
	db := seedCatalog(t)
	rec := httptest.NewRecorder()
	HomeHandler(db)(rec, httptest.NewRequest(http.MethodGet, "/api/home", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var home Home
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&home))
	assert.Equal(t, "Nova coleção", home.Content["hero_title"])
	require.Len(t, home.Featured, 1)
	assert.Equal(t, "Body Renda", home.Featured[0].Name)
	require.Len(t, home.NewArrivals, 1)
	assert.Len(t, home.Collections, 1)
}

func TestFiltersFromQuery_CapsLimit(t *testing.T) {
	f := FiltersFromQuery(httptest.NewRequest(http.MethodGet, "/api/products?limit=5000&offset=-3&featured=1", nil))
	assert.Equal(t, maxPageSize, f.Limit)
	assert.Zero(t, f.Offset)
	assert.True(t, f.FeaturedOnly)
	assert.False(t, f.IncludeHidden)
}
