package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bebeku/farm/internal/domain/models"
	"github.com/bebeku/farm/internal/repository/memory"
	"github.com/bebeku/farm/internal/service/aggregation"
	"github.com/bebeku/farm/internal/service/records"
)

var apiNow = time.Date(2026, 6, 15, 3, 0, 0, 0, time.UTC)

func newFarmAPI(t *testing.T) (*gin.Engine, *records.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := memory.New()
	clock := func() time.Time { return apiNow }
	rec := records.NewService(store, nil, records.WithClock(clock))
	agg := aggregation.NewService(store, aggregation.DefaultPolicy(), nil,
		aggregation.WithClock(clock), aggregation.WithLocation(time.UTC))

	r := gin.New()
	NewFarmHandler(agg, rec, nil).Register(r.Group("/api"))
	return r, rec
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.NotFound("batch", "x"), http.StatusNotFound},
		{models.InvalidField("amount", "must be greater than 0"), http.StatusBadRequest},
		{models.ErrBarnHasActiveBatches, http.StatusConflict},
		{models.ErrConflict, http.StatusConflict},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestBarnLifecycle(t *testing.T) {
	r, rec := newFarmAPI(t)

	w := doJSON(t, r, http.MethodPost, "/api/barns", records.BarnInput{Name: "Kandang A", Capacity: 1000})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var barn models.Barn
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &barn))
	assert.Equal(t, "K-001", barn.Code)

	_, err := rec.CreateBatch(context.Background(), records.BatchInput{StartDate: apiNow, InitialPopulation: 500, BarnID: &barn.ID})
	require.NoError(t, err)

	w = doJSON(t, r, http.MethodGet, "/api/barns/"+barn.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"capacity_used":50`)

	w = doJSON(t, r, http.MethodDelete, "/api/barns/"+barn.ID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), models.CodePrecondition)

	w = doJSON(t, r, http.MethodPost, "/api/barns", map[string]any{"name": "Kandang B"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBatchRecordsByCode(t *testing.T) {
	r, rec := newFarmAPI(t)
	batch, err := rec.CreateBatch(context.Background(), records.BatchInput{StartDate: apiNow.AddDate(0, 0, -7), InitialPopulation: 1000})
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodPost, "/api/batches/"+batch.Code+"/daily-records", map[string]any{
		"record_date":     apiNow,
		"mortality_count": 8,
		"feed_morning_kg": 30,
		"feed_evening_kg": 25,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var res records.DailyRecordResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 992, res.CurrentPopulation)
	assert.True(t, res.MortalityAlert)

	w = doJSON(t, r, http.MethodGet, "/api/batches/"+batch.Code, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail models.BatchDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, batch.ID, detail.ID)
	assert.Equal(t, 8, detail.Stats.TotalDeaths)

	w = doJSON(t, r, http.MethodGet, "/api/batches/B-1999-001", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/batches/"+batch.ID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestFinanceSummaryRange(t *testing.T) {
	r, rec := newFarmAPI(t)
	ctx := context.Background()
	_, err := rec.AddFinanceRecord(ctx, records.FinanceInput{Type: models.FinanceIncome, Category: "telur", Amount: 200_000, TransactionDate: apiNow})
	require.NoError(t, err)
	_, err = rec.AddFinanceRecord(ctx, records.FinanceInput{Type: models.FinanceExpense, Category: "pakan", Amount: 50_000, TransactionDate: apiNow.AddDate(0, 0, -10)})
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodGet, "/api/finance/summary?from=2026-06-15&to=2026-06-15", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var summary models.FinanceSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 200_000.0, summary.Income)
	assert.Equal(t, 0.0, summary.Expense)

	w = doJSON(t, r, http.MethodGet, "/api/finance/summary?from=15-06-2026", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDashboardEndpoints(t *testing.T) {
	r, _ := newFarmAPI(t)
	for _, path := range []string{"/api/dashboard/stats", "/api/dashboard/alerts", "/api/dashboard/activity?limit=5", "/api/feeds"} {
		w := doJSON(t, r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
	w := doJSON(t, r, http.MethodGet, "/api/dashboard/activity?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFeedMovement(t *testing.T) {
	r, _ := newFarmAPI(t)

	w := doJSON(t, r, http.MethodPost, "/api/feeds", map[string]any{"name": "Starter", "type": "starter", "opening_stock_kg": 500})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var feed models.FeedInventory
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &feed))

	w = doJSON(t, r, http.MethodPost, "/api/feeds/"+feed.ID+"/movements", map[string]any{"type": "out", "quantity_kg": 120, "date": apiNow})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"current_stock_kg":380`)
}
