package httpapi

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyasuto/mond/internal/app/apptest"
	"github.com/nyasuto/mond/internal/domain"
)

const testToken = "test-token"

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func newTestServer(t *testing.T, seed bool) http.Handler {
	t.Helper()
	a := apptest.New(t)
	if seed {
		apptest.Seed(t, a)
	}
	return New(Config{
		APIToken: testToken,
		Log:      zerolog.Nop(),
		Reports:  a.Reports,
		Market:   a.Market,
		DB:       a.DB,
	}).Handler()
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, false)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	down := New(Config{Log: zerolog.Nop(), DB: fakePinger{err: errors.New("closed")}}).Handler()
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAPI_RequiresToken(t *testing.T) {
	h := newTestServer(t, true)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/2024-01-02", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDailyReport(t *testing.T) {
	h := newTestServer(t, true)

	rec := get(t, h, "/api/reports/2024-01-02")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "620400", body["portfolio_total_jpy"])
	assert.Equal(t, true, body["consistent"])
	assert.Len(t, body["attribution"], 3)

	rec = get(t, h, "/api/reports/2024-13-40")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistory(t *testing.T) {
	h := newTestServer(t, true)

	rec := get(t, h, "/api/history?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body["attribution_history"], 2)
	assert.Len(t, body["portfolio_totals"], 2)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/history?start=2024-01-02&end=2024-01-01").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/history?limit=-1").Code)
}

func TestHistory_EmptyStoreIsNotFound(t *testing.T) {
	h := newTestServer(t, false)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/history").Code)
}

func TestExport(t *testing.T) {
	h := newTestServer(t, true)

	tests := []struct {
		view   string
		header []string
		rows   int
	}{
		{"valuation", []string{"date", "ticker", "ccy", "qty", "price_ccy", "fx_rate", "value_jpy"}, 2},
		{"attribution", []string{"date", "prev_date", "ticker", "delta_total", "delta_price", "delta_fx", "delta_cross", "flow"}, 3},
		{"portfolio_total", []string{"date", "total_value_jpy"}, 1},
		{"currency_exposure", []string{"date", "ccy", "value_jpy"}, 2},
		{"valuation_enriched", []string{"date", "ticker", "value_jpy", "portfolio_value_jpy", "weight"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.view, func(t *testing.T) {
			rec := get(t, h, fmt.Sprintf("/api/export/%s.csv?date=2024-01-02", tt.view))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Header().Get("Content-Disposition"), tt.view+"_2024-01-02.csv")

			records, err := csv.NewReader(rec.Body).ReadAll()
			require.NoError(t, err)
			require.Len(t, records, tt.rows+1)
			assert.Equal(t, tt.header, records[0])
		})
	}

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/export/positions.csv?date=2024-01-02").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/export/valuation.csv").Code)
}

func newMarketServer(t *testing.T) http.Handler {
	t.Helper()
	a := apptest.New(t)
	apptest.Seed(t, a)
	apptest.SeedMarket(t, a)
	return New(Config{APIToken: testToken, Log: zerolog.Nop(), Reports: a.Reports, Market: a.Market, DB: a.DB}).Handler()
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestTickerAttribution(t *testing.T) {
	h := newTestServer(t, true)

	body := decode(t, get(t, h, "/api/attribution/VTI?date=2024-01-02"))
	assert.Equal(t, "14000", body["delta_price"])
	assert.Equal(t, "60900", body["flow"])
	assert.NotNil(t, body["weight"])

	assert.Equal(t, http.StatusUnprocessableEntity, get(t, h, "/api/attribution/VTI?date=2024-01-01").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/attribution/AGG?date=2024-01-02").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/attribution/VTI").Code)
}

func TestMarketKeys(t *testing.T) {
	h := newMarketServer(t)

	body := decode(t, get(t, h, "/api/market/keys"))
	assert.Equal(t, []any{"1306.T", "VTI"}, body["tickers"])
	assert.Equal(t, []any{"EURJPY", "USDJPY"}, body["pairs"])
}

func TestPrices(t *testing.T) {
	h := newMarketServer(t)

	body := decode(t, get(t, h, "/api/prices?tickers=VTI&start=2024-01-01&end=2024-01-02"))
	assert.Equal(t, []any{
		map[string]any{"date": "2024-01-01", "ticker": "VTI", "close": "200"},
		map[string]any{"date": "2024-01-02", "ticker": "VTI", "close": "210"},
	}, body["prices"])

	all := decode(t, get(t, h, "/api/prices?start=2024-01-01&end=2024-01-03"))
	assert.Len(t, all["prices"], 5)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/prices?tickers=VTI").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/prices?start=2024-01-03&end=2024-01-01").Code)
}

func TestFx(t *testing.T) {
	h := newMarketServer(t)

	body := decode(t, get(t, h, "/api/fx?pairs=usdjpy&start=2024-01-01&end=2024-01-03"))
	assert.Equal(t, []any{
		map[string]any{"date": "2024-01-01", "pair": "USDJPY", "rate": "140"},
		map[string]any{"date": "2024-01-02", "pair": "USDJPY", "rate": "145"},
	}, body["fx_rates"])

	all := decode(t, get(t, h, "/api/fx?start=2024-01-02&end=2024-01-02"))
	assert.Len(t, all["fx_rates"], 2)
}

func TestSnapshots(t *testing.T) {
	h := newTestServer(t, true)

	body := decode(t, get(t, h, "/api/snapshots"))
	rows := body["snapshots"].([]any)
	require.Len(t, rows, 4)
	assert.Equal(t, map[string]any{"date": "2024-01-02", "ticker": "1306.T", "qty": "100", "price_ccy": "2550"}, rows[0])

	limited := decode(t, get(t, h, "/api/snapshots?limit=1"))
	assert.Len(t, limited["snapshots"], 1)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/snapshots?limit=-2").Code)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusOf(fmt.Errorf("x: %w", domain.ErrInvalidInput)))
	assert.Equal(t, http.StatusNotFound, statusOf(fmt.Errorf("x: %w", domain.ErrNotFound)))
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(&domain.MissingReferenceError{Tickers: []string{"X"}}))
	assert.Equal(t, http.StatusInternalServerError, statusOf(&domain.ReconciliationError{}))
}
