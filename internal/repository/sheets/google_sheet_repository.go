package sheets

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/bebeku/farm/internal/config"
	"github.com/bebeku/farm/internal/domain/models"
)

// Sheet ranges used by the daily report export.
const (
	ReportRange     = "Laporan!A:L"
	reportDateRange = "Laporan!A:A"
)

// ReportHeader is the column layout of the report sheet.
var ReportHeader = []interface{}{
	"Tanggal", "Batch Aktif", "Populasi", "Mati", "Telur", "Pakan (kg)",
	"Pemasukan", "Pengeluaran", "Laba", "Stok Rendah", "Peringatan", "Dibuat",
}

// Repository defines the persistence operations supported by the Google Sheets adapter.
type Repository interface {
	WriteRow(ctx context.Context, sheetRange string, values []interface{}) error
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
}

// GoogleSheetRepository implements the Repository interface using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository from a
// service account credentials file.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	return New(ctx, cfg.SpreadsheetID, logger,
		option.WithCredentialsFile(cfg.CredentialsPath),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	)
}

// New builds a repository with explicit client options.
func New(ctx context.Context, spreadsheetID string, logger *zap.Logger, opts ...option.ClientOption) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id must not be empty")
	}

	service, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: spreadsheetID,
		logger:        logger.Named("sheets"),
	}, nil
}

// WriteRow appends the provided values to the supplied sheet range.
func (r *GoogleSheetRepository) WriteRow(ctx context.Context, sheetRange string, values []interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}

	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append row into range %s: %w", sheetRange, err)
	}

	r.logger.Debug("row appended to sheet", zap.String("range", sheetRange))
	return nil
}

// ReadRange fetches a rectangular data range from the spreadsheet.
func (r *GoogleSheetRepository) ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	if sheetRange == "" {
		return nil, fmt.Errorf("sheetRange must not be empty")
	}

	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
	}

	return resp.Values, nil
}

// ReportSink exports daily reports as rows of the report sheet.
type ReportSink struct {
	repo   Repository
	logger *zap.Logger
}

// NewReportSink wraps a repository.
func NewReportSink(repo Repository, logger *zap.Logger) *ReportSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportSink{repo: repo, logger: logger}
}

// AppendReport writes one row per report date. It writes the header when
// the sheet is empty and returns false when the date already has a row.
func (s *ReportSink) AppendReport(ctx context.Context, report models.DailyReport) (bool, error) {
	rows, err := s.repo.ReadRange(ctx, reportDateRange)
	if err != nil {
		return false, err
	}
	for _, row := range rows {
		if len(row) > 0 && strings.TrimSpace(fmt.Sprint(row[0])) == report.Date {
			s.logger.Debug("report already exported", zap.String("date", report.Date))
			return false, nil
		}
	}
	if len(rows) == 0 {
		if err := s.repo.WriteRow(ctx, ReportRange, ReportHeader); err != nil {
			return false, err
		}
	}
	if err := s.repo.WriteRow(ctx, ReportRange, ReportRow(report)); err != nil {
		return false, err
	}
	return true, nil
}

// ReportRow flattens a report in ReportHeader order.
func ReportRow(r models.DailyReport) []interface{} {
	return []interface{}{
		r.Date,
		r.ActiveBatches,
		r.Population,
		r.Mortality,
		r.EggsCollected,
		r.FeedConsumedKg,
		r.Income,
		r.Expenses,
		r.Profit,
		r.LowStockCount,
		r.AlertCount,
		r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
