package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/bebeku/farm/internal/repository/memory"
	"github.com/bebeku/farm/internal/server/handlers"
	"github.com/bebeku/farm/internal/service/aggregation"
	"github.com/bebeku/farm/internal/service/records"
)

func newEngine(t *testing.T, logger *zap.Logger) http.Handler {
	t.Helper()
	store := memory.New()
	farm := handlers.NewFarmHandler(
		aggregation.NewService(store, aggregation.DefaultPolicy(), nil),
		records.NewService(store, nil),
		nil,
	)
	return New(Handlers{Farm: farm, Chat: handlers.NewChatHandler(nil, nil)}, prometheus.NewRegistry(), logger)
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthAndMetrics(t *testing.T) {
	r := newEngine(t, nil)

	w := get(r, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	require.Equal(t, http.StatusOK, get(r, "/api/batches").Code)

	w = get(r, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `bebeku_http_requests_total{method="GET",route="/api/batches",status="200"} 1`)
	assert.Contains(t, string(body), "bebeku_http_request_duration_seconds_bucket")
}

func TestRequestLogLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := newEngine(t, zap.New(core))

	get(r, "/healthz")
	get(r, "/api/barns/missing")
	chat := httptest.NewRecorder()
	r.ServeHTTP(chat, httptest.NewRequest(http.MethodPost, "/api/chat", nil))
	assert.Equal(t, http.StatusServiceUnavailable, chat.Code)

	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
}

func TestWebhookRoutesOnlyWhenEnabled(t *testing.T) {
	r := newEngine(t, nil)
	assert.Equal(t, http.StatusNotFound, get(r, "/webhook").Code)
}
