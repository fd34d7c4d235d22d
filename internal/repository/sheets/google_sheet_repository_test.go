package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/bebeku/farm/internal/domain/models"
)

type fakeRepo struct {
	rows    [][]interface{}
	written [][]interface{}
	readErr error
}

func (f *fakeRepo) WriteRow(_ context.Context, _ string, values []interface{}) error {
	f.written = append(f.written, values)
	f.rows = append(f.rows, values)
	return nil
}

func (f *fakeRepo) ReadRange(context.Context, string) ([][]interface{}, error) {
	return f.rows, f.readErr
}

func sampleReport() models.DailyReport {
	return models.DailyReport{
		ID:            "r1",
		Date:          "2026-06-15",
		ActiveBatches: 2,
		Population:    1900,
		Mortality:     3,
		EggsCollected: 840,
		Income:        1_500_000,
		Expenses:      400_000,
		Profit:        1_100_000,
		CreatedAt:     time.Date(2026, 6, 15, 20, 0, 0, 0, time.UTC),
	}
}

func TestReportSinkAppendsOncePerDate(t *testing.T) {
	repo := &fakeRepo{}
	sink := NewReportSink(repo, nil)

	written, err := sink.AppendReport(context.Background(), sampleReport())
	require.NoError(t, err)
	assert.True(t, written)
	require.Len(t, repo.written, 2)
	assert.Equal(t, ReportHeader, repo.written[0])
	assert.Equal(t, "2026-06-15", repo.written[1][0])
	assert.Equal(t, 1_100_000.0, repo.written[1][8])

	written, err = sink.AppendReport(context.Background(), sampleReport())
	require.NoError(t, err)
	assert.False(t, written)
	assert.Len(t, repo.written, 2)
}

func TestReportSinkPropagatesReadErrors(t *testing.T) {
	repo := &fakeRepo{readErr: errors.New("quota")}
	_, err := NewReportSink(repo, nil).AppendReport(context.Background(), sampleReport())
	assert.EqualError(t, err, "quota")
	assert.Empty(t, repo.written)
}

func TestGoogleSheetRepositoryTalksToValuesAPI(t *testing.T) {
	var appended []interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/v4/spreadsheets/sheet-1/values/"):
			_, _ = w.Write([]byte(`{"range":"Laporan!A1:A2","values":[["Tanggal"],["2026-06-14"]]}`))
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
			assert.Equal(t, "USER_ENTERED", r.URL.Query().Get("valueInputOption"))
			var body struct {
				Values [][]interface{} `json:"values"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Len(t, body.Values, 1)
			appended = body.Values[0]
			_, _ = w.Write([]byte(`{}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	repo, err := New(context.Background(), "sheet-1", nil,
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	written, err := NewReportSink(repo, nil).AppendReport(context.Background(), sampleReport())
	require.NoError(t, err)
	assert.True(t, written)
	require.NotEmpty(t, appended)
	assert.Equal(t, "2026-06-15", appended[0])
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), "", nil, option.WithoutAuthentication())
	assert.Error(t, err)
}
