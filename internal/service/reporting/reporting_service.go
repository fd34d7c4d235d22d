package reporting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bebeku/farm/internal/domain/kpi"
	"github.com/bebeku/farm/internal/domain/models"
	"github.com/bebeku/farm/internal/service/commands"
)

// Source supplies the figures a daily report is built from.
type Source interface {
	DaySummary(ctx context.Context) (models.DaySummary, error)
	Alerts(ctx context.Context) ([]models.Alert, error)
	Now() time.Time
}

// Archive persists finished reports.
type Archive interface {
	SaveDailyReport(ctx context.Context, report models.DailyReport) error
}

// Exporter mirrors reports to an external sheet.
type Exporter interface {
	AppendReport(ctx context.Context, report models.DailyReport) (bool, error)
}

// Notifier delivers the digest text to the farm group.
type Notifier interface {
	Notify(ctx context.Context, body string) error
}

// Option customises a Service.
type Option func(*Service)

// WithExporter enables the sheet export.
func WithExporter(e Exporter) Option {
	return func(s *Service) { s.exporter = e }
}

// WithNotifier enables the WhatsApp digest.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithIDGenerator overrides report id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// Service builds the end-of-day report and fans it out.
type Service struct {
	source   Source
	archive  Archive
	exporter Exporter
	notifier Notifier
	logger   *zap.Logger
	newID    func() string
}

// NewService creates a reporting service.
func NewService(source Source, archive Archive, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		source:  source,
		archive: archive,
		logger:  logger,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BuildDailyReport snapshots today's farm figures.
func (s *Service) BuildDailyReport(ctx context.Context) (models.DailyReport, []models.Alert, error) {
	day, err := s.source.DaySummary(ctx)
	if err != nil {
		return models.DailyReport{}, nil, fmt.Errorf("summarize day: %w", err)
	}
	alerts, err := s.source.Alerts(ctx)
	if err != nil {
		return models.DailyReport{}, nil, fmt.Errorf("collect alerts: %w", err)
	}

	profit, _ := decimal.NewFromFloat(day.Income).Sub(decimal.NewFromFloat(day.Expense)).Float64()
	report := models.DailyReport{
		ID:             s.newID(),
		Date:           day.Date,
		ActiveBatches:  day.ActiveBatches,
		Population:     day.Population,
		Mortality:      day.Mortality,
		EggsCollected:  day.Eggs,
		FeedConsumedKg: day.FeedConsumedKg,
		Income:         day.Income,
		Expenses:       day.Expense,
		Profit:         profit,
		LowStockCount:  day.LowStockCount,
		AlertCount:     len(alerts),
		CreatedAt:      s.source.Now().UTC(),
	}
	return report, alerts, nil
}

// Run builds, archives, exports and announces today's report. The archive
// write must succeed; export and notification failures are logged and
// returned together after both were attempted.
func (s *Service) Run(ctx context.Context) (models.DailyReport, error) {
	report, alerts, err := s.BuildDailyReport(ctx)
	if err != nil {
		return models.DailyReport{}, err
	}
	if err := s.archive.SaveDailyReport(ctx, report); err != nil {
		return report, fmt.Errorf("save daily report: %w", err)
	}
	s.logger.Info("daily report saved",
		zap.String("date", report.Date),
		zap.Int("alerts", report.AlertCount),
	)

	var errs []error
	if s.exporter != nil {
		written, err := s.exporter.AppendReport(ctx, report)
		switch {
		case err != nil:
			s.logger.Error("daily report export failed", zap.Error(err))
			errs = append(errs, fmt.Errorf("export daily report: %w", err))
		case !written:
			s.logger.Info("daily report already exported", zap.String("date", report.Date))
		}
	}
	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, Digest(report, alerts)); err != nil {
			s.logger.Error("daily digest delivery failed", zap.Error(err))
			errs = append(errs, fmt.Errorf("notify daily digest: %w", err))
		}
	}
	return report, errors.Join(errs...)
}

// Digest renders the report as a WhatsApp message.
func Digest(r models.DailyReport, alerts []models.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Laporan Harian %s*\n", r.Date)
	fmt.Fprintf(&b, "Batch aktif: %d\n", r.ActiveBatches)
	fmt.Fprintf(&b, "Populasi: %s ekor\n", kpi.FormatNumber(r.Population))
	fmt.Fprintf(&b, "Kematian hari ini: %s ekor\n", kpi.FormatNumber(r.Mortality))
	fmt.Fprintf(&b, "Telur: %s butir\n", kpi.FormatNumber(r.EggsCollected))
	fmt.Fprintf(&b, "Pakan: %s kg\n", kpi.FormatQty(r.FeedConsumedKg))
	fmt.Fprintf(&b, "Pemasukan: %s\n", kpi.FormatRupiah(r.Income))
	fmt.Fprintf(&b, "Pengeluaran: %s\n", kpi.FormatRupiah(r.Expenses))
	fmt.Fprintf(&b, "Laba: %s\n", kpi.FormatRupiah(r.Profit))
	if r.LowStockCount > 0 {
		fmt.Fprintf(&b, "Stok pakan menipis: %d jenis\n", r.LowStockCount)
	}
	b.WriteString("\n")
	b.WriteString(commands.FormatAlerts(alerts))
	return b.String()
}
