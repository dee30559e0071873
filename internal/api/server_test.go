package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luca-finance/luca/internal/categorize"
	"github.com/luca-finance/luca/internal/importer"
	"github.com/luca-finance/luca/internal/ingest"
	"github.com/luca-finance/luca/internal/model"
	"github.com/luca-finance/luca/internal/store"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	reg := importer.DefaultRegistry()
	svc, err := ingest.New(reg, store.NewLocalStore(t.TempDir()), nil, ingest.Options{UserID: "me"})
	require.NoError(t, err)
	return NewRouter(svc, reg, categorize.Default(), zerolog.Nop())
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) (T, string) {
	t.Helper()
	var env struct {
		Data  T      `json:"data"`
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env.Data, env.Error
}

func uploadRequest(t *testing.T, names ...string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join("..", "..", "testdata", name))
		if err != nil {
			data = []byte("%PDF-1.4")
		}
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := do(newTestRouter(t), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUploadAndQuery(t *testing.T) {
	h := newTestRouter(t)

	rec := do(h, uploadRequest(t, "caixabank.csv", "revolut_consolidated.csv", "extracto.pdf"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	results, _ := decode[[]uploadResult](t, rec)
	require.Len(t, results, 3)
	byFile := map[string]uploadResult{}
	for _, r := range results {
		byFile[r.File] = r
	}
	assert.Equal(t, 5, byFile["caixabank.csv"].Attempted)
	assert.Equal(t, "caixabank", byFile["caixabank.csv"].Source)
	assert.Equal(t, "revolut", byFile["revolut_consolidated.csv"].Source)
	assert.Contains(t, byFile["extracto.pdf"].Error, "not supported")

	rec = do(h, httptest.NewRequest(http.MethodGet, "/api/v1/transactions?limit=3", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	txns, _ := decode[[]model.Transaction](t, rec)
	require.Len(t, txns, 3)
	assert.Equal(t, "BIZUM RECIBIDO", txns[0].Concept)

	rec = do(h, httptest.NewRequest(http.MethodGet, "/api/v1/transactions?category=subscriptions", nil))
	txns, _ = decode[[]model.Transaction](t, rec)
	assert.Len(t, txns, 2)

	rec = do(h, httptest.NewRequest(http.MethodGet, "/api/v1/transactions?type=income&from=2025-03-01&to=2025-03-31", nil))
	txns, _ = decode[[]model.Transaction](t, rec)
	assert.Len(t, txns, 2)

	rec = do(h, httptest.NewRequest(http.MethodGet, "/api/v1/summary", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	sum, _ := decode[model.FinancialSummary](t, rec)
	assert.Equal(t, 10, sum.TransactionCount)
	assert.Equal(t, "Viajes", sum.TopExpenseCategory)

	rec = do(h, httptest.NewRequest(http.MethodGet, "/api/v1/breakdown/monthly", nil))
	months, _ := decode[[]model.MonthlyBreakdown](t, rec)
	require.NotEmpty(t, months)
	assert.Equal(t, "2024-09", months[0].Month)
	assert.Equal(t, "Sep 2024", months[0].Label)

	rec = do(h, httptest.NewRequest(http.MethodGet, "/api/v1/breakdown/categories?type=income", nil))
	cats, _ := decode[[]model.CategoryBreakdown](t, rec)
	require.NotEmpty(t, cats)
	assert.Equal(t, model.CategoryIncome, cats[0].Category)

	rec = do(h, httptest.NewRequest(http.MethodGet, "/api/v1/top-expenses?limit=1", nil))
	top, _ := decode[[]model.Transaction](t, rec)
	require.Len(t, top, 1)
	assert.Equal(t, "Hotel Madrid", top[0].Concept)

	rec = do(h, httptest.NewRequest(http.MethodGet, "/api/v1/recurring", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	subs, _ := decode[[]map[string]any](t, rec)
	require.Len(t, subs, 1)
	assert.Equal(t, "Spotify", subs[0]["name"])
	assert.EqualValues(t, 2, subs[0]["occurrences"])
}

func TestUpload_NoFiles(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := do(newTestRouter(t), req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	_, msg := decode[any](t, rec)
	assert.Equal(t, "no files uploaded", msg)
}

func TestTransactions_BadParams(t *testing.T) {
	h := newTestRouter(t)
	for _, q := range []string{"type=refunds", "category=groceries", "from=01/03/2025", "limit=-1"} {
		rec := do(h, httptest.NewRequest(http.MethodGet, "/api/v1/transactions?"+q, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestTransactions_EmptyLedger(t *testing.T) {
	rec := do(newTestRouter(t), httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}

func TestParse(t *testing.T) {
	h := newTestRouter(t)

	body := `{"filename":"movimientos.csv","content":"Concepto;Fecha;Importe;Saldo\nMercadona Barcelona;01/03/2025;-45,30;1200,00\n"}`
	rec := do(h, httptest.NewRequest(http.MethodPost, "/api/v1/parse", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	txns, _ := decode[[]model.Transaction](t, rec)
	require.Len(t, txns, 1)
	assert.Equal(t, model.CategorySupermarket, txns[0].Category)
	assert.Equal(t, "-45.3", txns[0].Amount.String())

	rec = do(h, httptest.NewRequest(http.MethodPost, "/api/v1/parse", strings.NewReader(`{"filename":"a.pdf","content":""}`)))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = do(h, httptest.NewRequest(http.MethodPost, "/api/v1/parse", strings.NewReader(`{"filename":"a.csv","content":"x"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())

	rec = do(h, httptest.NewRequest(http.MethodPost, "/api/v1/parse", strings.NewReader(`{"content":"x"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// The ledger is untouched.
	rec = do(h, httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil))
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}

func TestCategorize(t *testing.T) {
	h := newTestRouter(t)

	tests := []struct {
		body string
		want model.Category
	}{
		{`{"description":"BIZUM DE ANA","amount":25}`, model.CategoryTransfers},
		{`{"description":"NOMINA","amount":"1500.00"}`, model.CategoryIncome},
		{`{"description":"Spotify","amount":-9.99}`, model.CategorySubscriptions},
		{`{"description":"Unknown shop","amount":-1}`, model.CategoryOther},
	}
	for _, tt := range tests {
		rec := do(h, httptest.NewRequest(http.MethodPost, "/api/v1/categorize", strings.NewReader(tt.body)))
		require.Equal(t, http.StatusOK, rec.Code)
		got, _ := decode[categorizeResponse](t, rec)
		assert.Equal(t, tt.want, got.Category, tt.body)
		assert.Equal(t, tt.want.Label(), got.Label)
	}

	rec := do(h, httptest.NewRequest(http.MethodPost, "/api/v1/categorize", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
