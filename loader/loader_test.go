package loader

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"atelier/database"
	"atelier/model"
	"atelier/parsers"
	"atelier/testutil"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
collections:
  - slug: noite
    name: Noite
    sortOrder: 1
products:
  - name: Body Renda Preto
    category: Bodies
    collection: noite
    price: "129,90"
    compareAtPrice: "159,90"
    featured: true
    sizes:
      - {size: p, stock: 2}
      - {size: M, stock: 4}
    images:
      - /media/body.jpg
  - sku: SKU00042
    name: Robe Cetim
    collection: Verão
    price: "199"
    active: false
content:
  hero_title: Nova coleção
`

func TestInitDatabase_SequencesFollowExistingCodes(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedProduct(t, db, "SKU00007", "Body", 100, nil)

	require.NoError(t, InitDatabase(db))

	tx, err := db.Beginx()
	require.NoError(t, err)
	defer tx.Rollback()
	next, err := database.NextSequenceInTx(tx, database.SKUSequence)
	require.NoError(t, err)
	assert.Equal(t, "SKU00008", next)
}

func TestLoadSeed(t *testing.T) {
	db := testutil.NewDB(t)

	res, err := LoadSeed(db, strings.NewReader(seedYAML))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 0, res.Updated)

	body, err := database.GetProductBySlug(db, "body-renda-preto")
	require.NoError(t, err)
	assert.Equal(t, "SKU00001", body.SKU)
	assert.EqualValues(t, 12990, body.PriceCents)
	assert.EqualValues(t, 15990, body.CompareAtCents)
	assert.Equal(t, "bodies", body.Category)
	assert.Equal(t, "noite", body.CollectionSlug)
	assert.True(t, body.IsFeatured)
	require.Len(t, body.Sizes, 2)
	require.Len(t, body.Images, 1)

	robe, err := database.GetProductBySKU(db, "SKU00042")
	require.NoError(t, err)
	assert.False(t, robe.IsActive)
	assert.Equal(t, "verao", robe.CollectionSlug)

	content, err := database.GetContentMap(db)
	require.NoError(t, err)
	assert.Equal(t, "Nova coleção", content["hero_title"])

	// Loading the same seed again updates in place.
	res, err = LoadSeed(db, strings.NewReader(seedYAML))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 2, res.Updated)
}

func TestLoadSeed_InvalidPriceRollsBack(t *testing.T) {
	db := testutil.NewDB(t)
	bad := `
collections:
  - {slug: noite, name: Noite}
products:
  - {name: Body, price: "abc"}
`
	_, err := LoadSeed(db, strings.NewReader(bad))
	require.Error(t, err)

	cols, err := database.ListCollections(db, true)
	require.NoError(t, err)
	assert.Empty(t, cols)
}

func TestLoadSeed_UnknownFieldFails(t *testing.T) {
	db := testutil.NewDB(t)
	_, err := LoadSeed(db, strings.NewReader("produtos: []\n"))
	assert.Error(t, err)
}

func TestImportProducts_KeepsSizesWhenColumnEmpty(t *testing.T) {
	db := testutil.NewDB(t)
	id := testutil.SeedProduct(t, db, "SKU00001", "Body", 100, map[string]int{"M": 5})

	res, err := ImportProducts(db, []parsers.ProductRow{
		{Line: 2, SKU: "sku00001", Name: "Body Renda", PriceCents: 8990, Sizes: []model.ProductSize{}},
		{Line: 3, Name: "Camisola", PriceCents: 15990, Sizes: []model.ProductSize{{Size: "G", Stock: 1}}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Updated)

	p, err := database.GetProductByID(db, id)
	require.NoError(t, err)
	assert.Equal(t, "Body Renda", p.Name)
	assert.EqualValues(t, 8990, p.PriceCents)
	assert.Equal(t, 5, testutil.Stock(t, db, id, "M"))
	require.Len(t, p.Images, 1)
}

func importCSV(t *testing.T, db *sqlx.DB, data string) *ImportResult {
	t.Helper()
	rows, err := parsers.ParseProductCSV(strings.NewReader(data), "")
	require.NoError(t, err)
	res, err := ImportProducts(db, rows)
	require.NoError(t, err)
	return res
}

func TestImportProducts_PartialColumnsKeepStoredValues(t *testing.T) {
	db := testutil.NewDB(t)
	importCSV(t, db, "sku,name,price,description,category,collection,featured,new,compare_at_price,sizes\n"+
		"SKU00001,Body,\"129,90\",Renda francesa,Bodies,Noir,sim,sim,\"159,90\",M:3\n")

	p, err := database.GetProductBySKU(db, "SKU00001")
	require.NoError(t, err)
	hidden := false
	require.NoError(t, database.SetProductFlags(db, p.ID, &hidden, nil))

	res := importCSV(t, db, "sku,name,price\nSKU00001,Body Renda,\"119,90\"\n")
	assert.Equal(t, 1, res.Updated)

	p, err = database.GetProductBySKU(db, "SKU00001")
	require.NoError(t, err)
	assert.Equal(t, "Body Renda", p.Name)
	assert.EqualValues(t, 11990, p.PriceCents)
	assert.Equal(t, "Renda francesa", p.Description)
	assert.Equal(t, "bodies", p.Category)
	assert.Equal(t, "noir", p.CollectionSlug)
	assert.True(t, p.IsFeatured)
	assert.True(t, p.IsNew)
	assert.False(t, p.IsActive)
	assert.EqualValues(t, 15990, p.CompareAtCents)
	assert.Equal(t, 3, testutil.Stock(t, db, p.ID, "M"))

	// Present columns still apply, blank cells included.
	importCSV(t, db, "sku,name,price,description,collection,active\nSKU00001,Body Renda,\"119,90\",,,sim\n")
	p, err = database.GetProductBySKU(db, "SKU00001")
	require.NoError(t, err)
	assert.Empty(t, p.Description)
	assert.Empty(t, p.CollectionSlug)
	assert.True(t, p.IsActive)
	assert.Equal(t, "bodies", p.Category)
}

func TestImportProducts_InvalidSizeFailsWholeImport(t *testing.T) {
	db := testutil.NewDB(t)
	_, err := ImportProducts(db, []parsers.ProductRow{
		{Line: 2, Name: "Body", PriceCents: 100},
		{Line: 3, Name: "Robe", PriceCents: 100, Sizes: []model.ProductSize{{Size: "ZZ"}}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")

	products, err := database.ListProducts(db, model.ProductFilters{IncludeHidden: true})
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestImportProductsHandler(t *testing.T) {
	db := testutil.NewDB(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "catalogo.csv")
	require.NoError(t, err)
	fw.Write([]byte("sku,name,price,sizes,collection\n,Body Renda,\"129,90\",P:1|M:2,Noite\n"))
	require.NoError(t, mw.WriteField("encoding", "utf-8"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/products/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	ImportProductsHandler(db)(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 1, resp["created"])

	p, err := database.GetProductBySlug(db, "body-renda")
	require.NoError(t, err)
	assert.Equal(t, "noite", p.CollectionSlug)
	assert.Equal(t, 2, testutil.Stock(t, db, p.ID, "M"))
}

func TestImportProductsHandler_MissingFile(t *testing.T) {
	db := testutil.NewDB(t)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/products/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	ImportProductsHandler(db)(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
