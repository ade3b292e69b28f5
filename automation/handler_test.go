package automation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"atelier/database"
	"atelier/model"
	"atelier/testutil"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubRenderer(t *testing.T, fn func(ctx context.Context, html string) ([]byte, error)) {
	t.Helper()
	old := pdfRenderer
	pdfRenderer = fn
	t.Cleanup(func() { pdfRenderer = old })
}

func insertOrder(t *testing.T, db *sqlx.DB) string {
	t.Helper()
	pid := testutil.SeedProduct(t, db, "SKU00001", "Body <Renda>", 12990, map[string]int{"M": 2})
	tx, err := db.Beginx()
	require.NoError(t, err)
	defer tx.Rollback()
	o := &model.Order{
		ID: "ord-1", OrderNumber: "PED000001", CustomerName: "Ana", TotalCents: 12990,
		Items: []model.OrderItem{{ProductID: pid, SKU: "SKU00001", ProductName: "Body <Renda>", Size: "M", Quantity: 1, UnitPriceCents: 12990}},
	}
	require.NoError(t, database.InsertOrderInTx(tx, o))
	require.NoError(t, tx.Commit())
	return o.ID
}

func slipRequest(id string) *http.Request {
	return mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": id})
}

func TestOrderSlipPDFHandler(t *testing.T) {
	db := testutil.NewDB(t)
	id := insertOrder(t, db)

	var gotHTML string
	stubRenderer(t, func(ctx context.Context, html string) ([]byte, error) {
		gotHTML = html
		return []byte("%PDF-1.4 fake"), nil
	})

	rec := httptest.NewRecorder()
	OrderSlipPDFHandler(db)(rec, slipRequest(id))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "PED000001.pdf")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))

	assert.Contains(t, gotHTML, "PED000001")
	assert.Contains(t, gotHTML, "Body &lt;Renda&gt;")
}

func TestOrderSlipPDFHandler_Errors(t *testing.T) {
	db := testutil.NewDB(t)
	id := insertOrder(t, db)

	rec := httptest.NewRecorder()
	OrderSlipPDFHandler(db)(rec, slipRequest("missing"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	stubRenderer(t, func(ctx context.Context, html string) ([]byte, error) {
		return nil, ErrBrowserUnavailable
	})
	rec = httptest.NewRecorder()
	OrderSlipPDFHandler(db)(rec, slipRequest(id))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	stubRenderer(t, func(ctx context.Context, html string) ([]byte, error) {
		return nil, errors.New("print failed")
	})
	rec = httptest.NewRecorder()
	OrderSlipPDFHandler(db)(rec, slipRequest(id))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
