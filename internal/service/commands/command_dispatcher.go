package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/bebeku/farm/internal/domain/kpi"
	"github.com/bebeku/farm/internal/domain/models"
	"github.com/bebeku/farm/internal/service/records"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ErrUnsupportedCommand indicates we do not yet support the requested command.
var ErrUnsupportedCommand = errors.New("unsupported command")

// Recorder is the write side the dispatcher books records through.
type Recorder interface {
	AddDailyRecord(ctx context.Context, in records.DailyRecordInput) (*records.DailyRecordResult, error)
	AddEggRecord(ctx context.Context, in records.EggInput) (*models.EggRecord, error)
	AddWeightRecord(ctx context.Context, in records.WeightInput) (*models.WeightRecord, error)
	AddFinanceRecord(ctx context.Context, in records.FinanceInput) (*models.FinanceRecord, error)
}

// Reader is the read side used to resolve batches and answer status queries.
type Reader interface {
	ResolveBatch(ctx context.Context, ref string) (*models.Batch, error)
	DashboardStats(ctx context.Context) (models.DashboardStats, error)
	Alerts(ctx context.Context) ([]models.Alert, error)
}

// Dispatcher executes parsed worker commands.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	recorder Recorder
	reader   Reader
	logger   *zap.Logger
}

var _ Dispatcher = (*Service)(nil)

// NewService constructs a command dispatcher.
func NewService(recorder Recorder, reader Reader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		recorder: recorder,
		reader:   reader,
		logger:   logger,
	}
}

// HandleCommand books or answers one command and returns the reply text.
// Malformed arguments return an error wrapping ErrInvalidArguments whose text
// is the usage hint.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	args := rawArgs(cmd)
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Strings("args", args))

	switch cmd.Type {
	case models.CommandDaily:
		return s.daily(ctx, args)
	case models.CommandEggs:
		return s.eggs(ctx, args)
	case models.CommandWeight:
		return s.weight(ctx, args)
	case models.CommandIncome:
		return s.finance(ctx, models.FinanceIncome, args, cmd.Type)
	case models.CommandExpense:
		return s.finance(ctx, models.FinanceExpense, args, cmd.Type)
	case models.CommandStatus:
		return s.status(ctx)
	case models.CommandAlerts:
		return s.alerts(ctx)
	case models.CommandHelp:
		return HelpText(), nil
	default:
		return "", ErrUnsupportedCommand
	}
}

// /harian <batch> <mati> <pakan_pagi> <pakan_sore> [penyebab...]
func (s *Service) daily(ctx context.Context, args []string) (string, error) {
	if len(args) < 4 {
		return "", invalid(models.CommandDaily)
	}
	deaths, err1 := strconv.Atoi(args[1])
	morning, err2 := parseQty(args[2])
	evening, err3 := parseQty(args[3])
	if err := errors.Join(err1, err2, err3); err != nil {
		return "", invalid(models.CommandDaily)
	}

	batch, err := s.reader.ResolveBatch(ctx, args[0])
	if err != nil {
		return "", err
	}
	res, err := s.recorder.AddDailyRecord(ctx, records.DailyRecordInput{
		BatchID:        batch.ID,
		MortalityCount: deaths,
		MortalityCause: strings.Join(args[4:], " "),
		FeedMorningKg:  morning,
		FeedEveningKg:  evening,
	})
	if err != nil {
		return "", err
	}

	reply := fmt.Sprintf("Data harian %s tersimpan: %d ekor mati, pakan %s kg. Populasi sekarang %s ekor.",
		batch.Code, deaths, kpi.FormatQty(kpi.TotalFeed(morning, evening)), kpi.FormatNumber(res.CurrentPopulation))
	if res.MortalityAlert {
		reply += "\nPERHATIAN: kematian hari ini di atas ambang harian, segera periksa kandang."
	}
	return reply, nil
}

// /telur <batch> <total> [baik rusak kecil]
func (s *Service) eggs(ctx context.Context, args []string) (string, error) {
	if len(args) < 2 {
		return "", invalid(models.CommandEggs)
	}
	counts := make([]int, 0, 4)
	for _, a := range args[1:min(len(args), 5)] {
		n, err := strconv.Atoi(a)
		if err != nil {
			return "", invalid(models.CommandEggs)
		}
		counts = append(counts, n)
	}

	in := records.EggInput{TotalEggs: counts[0]}
	if len(counts) > 1 {
		in.GoodEggs = &counts[1]
	}
	if len(counts) > 2 {
		in.DamagedEggs = counts[2]
	}
	if len(counts) > 3 {
		in.SmallEggs = counts[3]
	}

	batch, err := s.reader.ResolveBatch(ctx, args[0])
	if err != nil {
		return "", err
	}
	in.BatchID = batch.ID
	rec, err := s.recorder.AddEggRecord(ctx, in)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Produksi telur %s tersimpan: %s butir (baik %s, rusak %s, kecil %s).",
		batch.Code, kpi.FormatNumber(rec.TotalEggs), kpi.FormatNumber(rec.GoodEggs),
		kpi.FormatNumber(rec.DamagedEggs), kpi.FormatNumber(rec.SmallEggs)), nil
}

// /timbang <batch> <gram> [sampel]
func (s *Service) weight(ctx context.Context, args []string) (string, error) {
	if len(args) < 2 {
		return "", invalid(models.CommandWeight)
	}
	grams, err := parseQty(args[1])
	if err != nil {
		return "", invalid(models.CommandWeight)
	}
	sample := 0
	if len(args) > 2 {
		if sample, err = strconv.Atoi(args[2]); err != nil {
			return "", invalid(models.CommandWeight)
		}
	}

	batch, err := s.reader.ResolveBatch(ctx, args[0])
	if err != nil {
		return "", err
	}
	rec, err := s.recorder.AddWeightRecord(ctx, records.WeightInput{BatchID: batch.ID, AverageWeightGr: grams, SampleSize: sample})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Penimbangan %s tersimpan: rata-rata %s g dari %d sampel, umur %d hari.",
		batch.Code, kpi.FormatQty(rec.AverageWeightGr), rec.SampleSize, rec.BirdAgeDays), nil
}

// /masuk|/keluar <jumlah> <kategori> [batch]
func (s *Service) finance(ctx context.Context, typ models.FinanceType, args []string, cmd models.CommandType) (string, error) {
	if len(args) < 2 {
		return "", invalid(cmd)
	}
	amount, err := ParseAmount(args[0])
	if err != nil {
		return "", invalid(cmd)
	}

	in := records.FinanceInput{Type: typ, Category: strings.ToLower(args[1]), Amount: amount}
	label := "Pengeluaran"
	if typ == models.FinanceIncome {
		label = "Pemasukan"
	}
	suffix := ""
	if len(args) > 2 {
		batch, err := s.reader.ResolveBatch(ctx, args[2])
		if err != nil {
			return "", err
		}
		in.BatchID = &batch.ID
		suffix = " untuk " + batch.Code
	}

	rec, err := s.recorder.AddFinanceRecord(ctx, in)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s %s tercatat%s.", label, rec.Category, kpi.FormatRupiah(rec.Amount), suffix), nil
}

func (s *Service) status(ctx context.Context) (string, error) {
	stats, err := s.reader.DashboardStats(ctx)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("Status peternakan\n")
	fmt.Fprintf(&b, "Batch aktif: %d\n", stats.ActiveBatches)
	fmt.Fprintf(&b, "Populasi: %s dari %s ekor (mortalitas %s%%)\n",
		kpi.FormatNumber(stats.TotalActivePopulation), kpi.FormatNumber(stats.TotalInitialPopulation), kpi.FormatQty(stats.MortalityRate))
	fmt.Fprintf(&b, "Mati hari ini: %d ekor\n", stats.TodayMortality)
	fmt.Fprintf(&b, "Telur hari ini: %s butir\n", kpi.FormatNumber(stats.TodayEggs))
	fmt.Fprintf(&b, "Pakan stok rendah: %d\n", stats.LowStockCount)
	fmt.Fprintf(&b, "Bulan ini: masuk %s, keluar %s, laba %s",
		kpi.FormatRupiah(stats.MonthIncome), kpi.FormatRupiah(stats.MonthExpense), kpi.FormatRupiah(stats.MonthProfit))
	return b.String(), nil
}

func (s *Service) alerts(ctx context.Context) (string, error) {
	alerts, err := s.reader.Alerts(ctx)
	if err != nil {
		return "", err
	}
	return FormatAlerts(alerts), nil
}

// FormatAlerts renders alerts one per line, highest severity first.
func FormatAlerts(alerts []models.Alert) string {
	if len(alerts) == 0 {
		return "Tidak ada peringatan."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d peringatan:", len(alerts))
	for _, a := range alerts {
		fmt.Fprintf(&b, "\n[%s] %s", severityLabel(a.Severity), a.Message)
	}
	return b.String()
}

func severityLabel(s models.Severity) string {
	switch s {
	case models.SeverityHigh:
		return "TINGGI"
	case models.SeverityMedium:
		return "SEDANG"
	default:
		return "RENDAH"
	}
}

// rawArgs returns the arguments with their original casing.
func rawArgs(cmd models.Command) []string {
	fields := strings.Fields(cmd.Raw)
	if len(fields) <= 1 {
		return nil
	}
	return fields[1:]
}

// parseQty accepts a decimal comma as well as a decimal point.
func parseQty(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, err
	}
	return v, nil
}

// ParseAmount reads a rupiah amount: dots are thousand separators, a comma
// is the decimal mark, and the suffixes rb and jt scale by 1e3 and 1e6.
func ParseAmount(s string) (float64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "rp")
	scale := 1.0
	switch {
	case strings.HasSuffix(s, "jt"):
		scale, s = 1e6, strings.TrimSuffix(s, "jt")
	case strings.HasSuffix(s, "rb"):
		scale, s = 1e3, strings.TrimSuffix(s, "rb")
	case strings.HasSuffix(s, "k"):
		scale, s = 1e3, strings.TrimSuffix(s, "k")
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return kpi.Round(v*scale, 0), nil
}
