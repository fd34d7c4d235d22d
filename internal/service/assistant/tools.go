package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/bebeku/farm/internal/domain/kpi"
	"github.com/bebeku/farm/internal/domain/models"
	"github.com/bebeku/farm/internal/service/aggregation"
	"github.com/bebeku/farm/internal/service/records"
)

const recentRecordsShown = 7

// FarmTools binds the assistant tools to the farm services.
type FarmTools struct {
	agg *aggregation.Service
	rec *records.Service
}

// NewFarmTools wires the read and write services used by the tools.
func NewFarmTools(agg *aggregation.Service, rec *records.Service) *FarmTools {
	return &FarmTools{agg: agg, rec: rec}
}

// Registry returns a registry holding every farm tool.
func (f *FarmTools) Registry() *ToolRegistry {
	r := NewToolRegistry()
	f.Register(r)
	return r
}

// Register adds the read tools followed by the write tools.
func (f *FarmTools) Register(r *ToolRegistry) {
	r.Register(ToolDefinition{
		Name:        "getDashboardSummary",
		Description: "Mendapatkan ringkasan dashboard peternakan: jumlah batch aktif, total populasi, mortalitas hari ini, produksi telur hari ini, ringkasan keuangan bulanan, dan jumlah peringatan stok rendah. Gunakan ketika user bertanya tentang kondisi peternakan secara umum.",
		InputSchema: schemaFor[noArgs](),
		Handler:     typed(f.dashboardSummary),
	})
	r.Register(ToolDefinition{
		Name:        "getBatchList",
		Description: "Mendapatkan daftar batch peternakan (aktif maupun selesai). Gunakan ketika user bertanya tentang batch, daftar batch, atau status batch.",
		InputSchema: schemaFor[batchListArgs](),
		Handler:     typed(f.batchList),
	})
	r.Register(ToolDefinition{
		Name:        "getBatchDetail",
		Description: "Mendapatkan detail lengkap batch tertentu termasuk statistik mortalitas, FCR, dan data historis. Terima kode batch (misal B-2026-001) atau ID batch.",
		InputSchema: schemaFor[batchRefArgs](),
		Handler:     typed(f.batchDetail),
	})
	r.Register(ToolDefinition{
		Name:        "getBarnList",
		Description: "Mendapatkan daftar semua kandang beserta kapasitas dan keterisiannya.",
		InputSchema: schemaFor[noArgs](),
		Handler:     typed(f.barnList),
	})
	r.Register(ToolDefinition{
		Name:        "getFinanceSummary",
		Description: "Mendapatkan ringkasan keuangan: total pemasukan, pengeluaran, saldo, dan rincian per kategori. Bisa difilter per batch.",
		InputSchema: schemaFor[optionalBatchArgs](),
		Handler:     typed(f.financeSummary),
	})
	r.Register(ToolDefinition{
		Name:        "getEggProduction",
		Description: "Mendapatkan data produksi telur: total, telur baik, rusak, kecil, persentase, dan produksi hari ini. Bisa difilter per batch.",
		InputSchema: schemaFor[optionalBatchArgs](),
		Handler:     typed(f.eggProduction),
	})
	r.Register(ToolDefinition{
		Name:        "getFeedStock",
		Description: "Mendapatkan data stok pakan: inventori, stok saat ini, peringatan stok rendah, dan ringkasan konsumsi.",
		InputSchema: schemaFor[noArgs](),
		Handler:     typed(f.feedStock),
	})
	r.Register(ToolDefinition{
		Name:        "getAlerts",
		Description: "Mendapatkan semua peringatan aktif: mortalitas tinggi, stok pakan rendah, batch siap panen.",
		InputSchema: schemaFor[noArgs](),
		Handler:     typed(f.alerts),
	})
	r.Register(ToolDefinition{
		Name:        "getRecentActivity",
		Description: "Mendapatkan aktivitas terbaru: pencatatan harian, penimbangan, transaksi keuangan.",
		InputSchema: schemaFor[recentActivityArgs](),
		Handler:     typed(f.recentActivity),
	})

	r.Register(ToolDefinition{
		Name:        "addEggRecord",
		Description: "Mencatat produksi telur hari ini untuk sebuah batch. Jika batch tidak disebutkan, tanyakan atau tampilkan daftar batch aktif.",
		InputSchema: schemaFor[eggRecordArgs](),
		Write:       true,
		Handler:     typed(f.addEggRecord),
	})
	r.Register(ToolDefinition{
		Name:        "addDailyRecord",
		Description: "Mencatat data harian batch: kematian dan pemberian pakan pagi dan sore.",
		InputSchema: schemaFor[dailyRecordArgs](),
		Write:       true,
		Handler:     typed(f.addDailyRecord),
	})
	r.Register(ToolDefinition{
		Name:        "addFinanceRecord",
		Description: "Mencatat transaksi keuangan: pemasukan (income) atau pengeluaran (expense) dalam Rupiah.",
		InputSchema: schemaFor[financeRecordArgs](),
		Write:       true,
		Handler:     typed(f.addFinanceRecord),
	})
	r.Register(ToolDefinition{
		Name:        "addFeedStock",
		Description: "Menambah stok pakan yang sudah ada (feedId) atau membuat inventori pakan baru (name, type).",
		InputSchema: schemaFor[feedStockArgs](),
		Write:       true,
		Handler:     typed(f.addFeedStock),
	})
	r.Register(ToolDefinition{
		Name:        "addBatch",
		Description: "Membuat batch baru yang dimulai hari ini.",
		InputSchema: schemaFor[batchArgs](),
		Write:       true,
		Handler:     typed(f.addBatch),
	})
	r.Register(ToolDefinition{
		Name:        "addBarn",
		Description: "Membuat kandang baru.",
		InputSchema: schemaFor[barnArgs](),
		Write:       true,
		Handler:     typed(f.addBarn),
	})
	r.Register(ToolDefinition{
		Name:        "addWeightRecord",
		Description: "Mencatat hasil penimbangan sampel bebek. Umur dihitung dari tanggal mulai batch jika tidak diisi.",
		InputSchema: schemaFor[weightRecordArgs](),
		Write:       true,
		Handler:     typed(f.addWeightRecord),
	})
}

type noArgs struct{}

type batchListArgs struct {
	ActiveOnly bool `json:"activeOnly,omitempty" jsonschema_description:"Jika true, hanya tampilkan batch aktif"`
}

type batchRefArgs struct {
	BatchID string `json:"batchId" jsonschema_description:"ID atau kode batch"`
}

type optionalBatchArgs struct {
	BatchID string `json:"batchId,omitempty" jsonschema_description:"Opsional: ID atau kode batch"`
}

type recentActivityArgs struct {
	Limit int `json:"limit,omitempty" jsonschema_description:"Jumlah aktivitas yang ditampilkan, default 10"`
}

type eggRecordArgs struct {
	BatchID     string `json:"batchId" jsonschema_description:"ID atau kode batch"`
	TotalEggs   int    `json:"totalEggs" jsonschema_description:"Total jumlah telur"`
	GoodEggs    *int   `json:"goodEggs,omitempty" jsonschema_description:"Jumlah telur baik, default sama dengan total"`
	DamagedEggs int    `json:"damagedEggs,omitempty" jsonschema_description:"Jumlah telur rusak/pecah"`
	SmallEggs   int    `json:"smallEggs,omitempty" jsonschema_description:"Jumlah telur kecil"`
	Notes       string `json:"notes,omitempty" jsonschema_description:"Catatan tambahan"`
}

type dailyRecordArgs struct {
	BatchID        string  `json:"batchId" jsonschema_description:"ID atau kode batch"`
	MortalityCount int     `json:"mortalityCount" jsonschema_description:"Jumlah kematian hari ini"`
	MortalityCause string  `json:"mortalityCause,omitempty" jsonschema_description:"Penyebab kematian jika diketahui"`
	FeedMorningKg  float64 `json:"feedMorningKg" jsonschema_description:"Pakan pagi dalam kg"`
	FeedEveningKg  float64 `json:"feedEveningKg" jsonschema_description:"Pakan sore dalam kg"`
	FeedType       string  `json:"feedType,omitempty" jsonschema_description:"Jenis pakan"`
	Notes          string  `json:"notes,omitempty" jsonschema_description:"Catatan tambahan"`
}

type financeRecordArgs struct {
	Type        string  `json:"type" jsonschema:"enum=income,enum=expense" jsonschema_description:"income (pemasukan) atau expense (pengeluaran)"`
	Category    string  `json:"category" jsonschema_description:"Kategori: pakan, obat, doc, tenaga_kerja, listrik, penjualan_bebek, penjualan_telur, lainnya"`
	Amount      float64 `json:"amount" jsonschema_description:"Jumlah uang dalam Rupiah"`
	Description string  `json:"description,omitempty" jsonschema_description:"Deskripsi transaksi"`
	BatchID     string  `json:"batchId,omitempty" jsonschema_description:"Opsional: ID atau kode batch terkait"`
}

type feedStockArgs struct {
	FeedID     string  `json:"feedId,omitempty" jsonschema_description:"ID pakan yang sudah ada; kosongkan untuk membuat inventori baru"`
	Name       string  `json:"name,omitempty" jsonschema_description:"Nama pakan (untuk inventori baru)"`
	Type       string  `json:"type,omitempty" jsonschema:"enum=starter,enum=grower,enum=finisher,enum=layer" jsonschema_description:"Tipe pakan (untuk inventori baru)"`
	QuantityKg float64 `json:"quantityKg" jsonschema_description:"Jumlah pakan dalam kg"`
	Notes      string  `json:"notes,omitempty" jsonschema_description:"Catatan tambahan"`
}

type batchArgs struct {
	Name              string `json:"name,omitempty" jsonschema_description:"Nama batch"`
	InitialPopulation int    `json:"initialPopulation" jsonschema_description:"Populasi awal (ekor)"`
	BarnID            string `json:"barnId,omitempty" jsonschema_description:"ID atau kode kandang"`
	TargetHarvestAge  int    `json:"targetHarvestAge,omitempty" jsonschema_description:"Target umur panen dalam hari, default 45"`
	Notes             string `json:"notes,omitempty" jsonschema_description:"Catatan tambahan"`
}

type barnArgs struct {
	Name        string `json:"name" jsonschema_description:"Nama kandang"`
	Capacity    int    `json:"capacity" jsonschema_description:"Kapasitas kandang (ekor)"`
	Location    string `json:"location,omitempty" jsonschema_description:"Lokasi kandang"`
	Description string `json:"description,omitempty" jsonschema_description:"Deskripsi kandang"`
}

type weightRecordArgs struct {
	BatchID         string  `json:"batchId" jsonschema_description:"ID atau kode batch"`
	AverageWeightGr float64 `json:"averageWeightGr" jsonschema_description:"Berat rata-rata dalam gram"`
	SampleSize      int     `json:"sampleSize,omitempty" jsonschema_description:"Jumlah sampel, default 10"`
	BirdAgeDays     *int    `json:"birdAgeDays,omitempty" jsonschema_description:"Umur bebek dalam hari"`
	Notes           string  `json:"notes,omitempty" jsonschema_description:"Catatan tambahan"`
}

type alertView struct {
	Severity models.Severity `json:"severity"`
	Message  string          `json:"message"`
}

func (f *FarmTools) dashboardSummary(ctx context.Context, _ noArgs) (any, error) {
	stats, err := f.agg.DashboardStats(ctx)
	if err != nil {
		return nil, err
	}
	alerts, err := f.agg.Alerts(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]alertView, 0, len(alerts))
	for _, a := range alerts {
		views = append(views, alertView{Severity: a.Severity, Message: a.Message})
	}
	return struct {
		models.DashboardStats
		Alerts     []alertView `json:"alerts"`
		AlertCount int         `json:"alert_count"`
	}{stats, views, len(views)}, nil
}

func (f *FarmTools) batchList(ctx context.Context, args batchListArgs) (any, error) {
	var status models.BatchStatus
	if args.ActiveOnly {
		status = models.BatchActive
	}
	return f.agg.ListBatches(ctx, status)
}

func (f *FarmTools) batchDetail(ctx context.Context, args batchRefArgs) (any, error) {
	batch, err := f.resolveBatch(ctx, args.BatchID)
	if err != nil {
		return nil, err
	}
	detail, err := f.agg.BatchDetail(ctx, batch.ID)
	if err != nil {
		return nil, err
	}
	return struct {
		models.Batch
		Barn                *models.Barn         `json:"barn,omitempty"`
		Stats               models.BatchStats    `json:"stats"`
		RecentDailyRecords  []models.DailyRecord `json:"recent_daily_records"`
		RecentEggRecords    []models.EggRecord   `json:"recent_egg_records"`
		TotalFinanceRecords int                  `json:"total_finance_records"`
	}{
		Batch:               detail.Batch,
		Barn:                detail.Barn,
		Stats:               detail.Stats,
		RecentDailyRecords:  head(detail.DailyRecords, recentRecordsShown),
		RecentEggRecords:    head(detail.EggRecords, recentRecordsShown),
		TotalFinanceRecords: len(detail.FinanceRecords),
	}, nil
}

func (f *FarmTools) barnList(ctx context.Context, _ noArgs) (any, error) {
	barns, err := f.agg.ListBarns(ctx)
	if err != nil {
		return nil, err
	}
	type barnView struct {
		models.Barn
		Stats models.BarnStats `json:"stats"`
	}
	out := make([]barnView, 0, len(barns))
	for _, b := range barns {
		detail, err := f.agg.BarnDetail(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, barnView{Barn: b, Stats: detail.Stats})
	}
	return out, nil
}

func (f *FarmTools) financeSummary(ctx context.Context, args optionalBatchArgs) (any, error) {
	batchID, err := f.optionalBatch(ctx, args.BatchID)
	if err != nil {
		return nil, err
	}
	return f.agg.FinanceSummary(ctx, aggregation.RangeQuery{BatchID: batchID})
}

func (f *FarmTools) eggProduction(ctx context.Context, args optionalBatchArgs) (any, error) {
	batchID, err := f.optionalBatch(ctx, args.BatchID)
	if err != nil {
		return nil, err
	}
	overall, err := f.agg.EggSummary(ctx, aggregation.RangeQuery{BatchID: batchID})
	if err != nil {
		return nil, err
	}
	total, today, err := f.agg.TodayEggs(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"overall": overall,
		"today":   map[string]int{"total_eggs": total, "record_count": len(today)},
	}, nil
}

func (f *FarmTools) feedStock(ctx context.Context, _ noArgs) (any, error) {
	return f.agg.FeedStock(ctx)
}

func (f *FarmTools) alerts(ctx context.Context, _ noArgs) (any, error) {
	alerts, err := f.agg.Alerts(ctx)
	if err != nil {
		return nil, err
	}
	high, medium := 0, 0
	for _, a := range alerts {
		switch a.Severity {
		case models.SeverityHigh:
			high++
		case models.SeverityMedium:
			medium++
		}
	}
	return map[string]any{
		"alerts":          alerts,
		"total_alerts":    len(alerts),
		"high_priority":   high,
		"medium_priority": medium,
	}, nil
}

func (f *FarmTools) recentActivity(ctx context.Context, args recentActivityArgs) (any, error) {
	return f.agg.RecentActivity(ctx, args.Limit)
}

func (f *FarmTools) addEggRecord(ctx context.Context, args eggRecordArgs) (any, error) {
	batch, err := f.resolveBatch(ctx, args.BatchID)
	if err != nil {
		return nil, err
	}
	rec, err := f.rec.AddEggRecord(ctx, records.EggInput{
		BatchID:     batch.ID,
		TotalEggs:   args.TotalEggs,
		GoodEggs:    args.GoodEggs,
		DamagedEggs: args.DamagedEggs,
		SmallEggs:   args.SmallEggs,
		Notes:       args.Notes,
	})
	if err != nil {
		return nil, err
	}
	return written(rec.ID, fmt.Sprintf("Berhasil mencatat %s telur untuk %s", kpi.FormatNumber(rec.TotalEggs), batch.Code)), nil
}

func (f *FarmTools) addDailyRecord(ctx context.Context, args dailyRecordArgs) (any, error) {
	batch, err := f.resolveBatch(ctx, args.BatchID)
	if err != nil {
		return nil, err
	}
	res, err := f.rec.AddDailyRecord(ctx, records.DailyRecordInput{
		BatchID:        batch.ID,
		MortalityCount: args.MortalityCount,
		MortalityCause: args.MortalityCause,
		FeedMorningKg:  args.FeedMorningKg,
		FeedEveningKg:  args.FeedEveningKg,
		FeedType:       args.FeedType,
		Notes:          args.Notes,
	})
	if err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("Berhasil mencatat: %d mortalitas, pakan %skg (pagi) + %skg (sore). Populasi sekarang %s ekor.",
		args.MortalityCount, kpi.FormatQty(args.FeedMorningKg), kpi.FormatQty(args.FeedEveningKg), kpi.FormatNumber(res.CurrentPopulation))
	out := written(res.Record.ID, msg)
	out["mortality_alert"] = res.MortalityAlert
	return out, nil
}

func (f *FarmTools) addFinanceRecord(ctx context.Context, args financeRecordArgs) (any, error) {
	in := records.FinanceInput{
		Type:        models.FinanceType(strings.ToLower(args.Type)),
		Category:    args.Category,
		Amount:      args.Amount,
		Description: args.Description,
	}
	if args.BatchID != "" {
		batch, err := f.resolveBatch(ctx, args.BatchID)
		if err != nil {
			return nil, err
		}
		in.BatchID = &batch.ID
	}
	rec, err := f.rec.AddFinanceRecord(ctx, in)
	if err != nil {
		return nil, err
	}
	label := "Pengeluaran"
	if rec.Type == models.FinanceIncome {
		label = "Pemasukan"
	}
	return written(rec.ID, fmt.Sprintf("Berhasil mencatat %s: %s - %s", label, rec.Category, kpi.FormatRupiah(rec.Amount))), nil
}

func (f *FarmTools) addFeedStock(ctx context.Context, args feedStockArgs) (any, error) {
	if args.FeedID != "" {
		mv, feed, err := f.rec.AddStockMovement(ctx, records.MovementInput{
			FeedID:     args.FeedID,
			Type:       models.MovementIn,
			QuantityKg: args.QuantityKg,
			Notes:      args.Notes,
		})
		if err != nil {
			return nil, err
		}
		return written(mv.ID, fmt.Sprintf("Berhasil menambah %skg stok %s, stok sekarang %skg",
			kpi.FormatQty(args.QuantityKg), feed.Name, kpi.FormatQty(feed.CurrentStockKg))), nil
	}

	name := args.Name
	if name == "" {
		name = "Pakan Baru"
	}
	feedType := models.FeedType(strings.ToLower(args.Type))
	if feedType == "" {
		feedType = models.FeedStarter
	}
	feed, err := f.rec.CreateFeed(ctx, records.FeedInput{
		Name:           name,
		Type:           feedType,
		OpeningStockKg: args.QuantityKg,
		Notes:          args.Notes,
	})
	if err != nil {
		return nil, err
	}
	return written(feed.ID, fmt.Sprintf("Berhasil membuat inventori pakan baru: %s (%skg)", feed.Name, kpi.FormatQty(feed.CurrentStockKg))), nil
}

func (f *FarmTools) addBatch(ctx context.Context, args batchArgs) (any, error) {
	in := records.BatchInput{
		Name:              args.Name,
		StartDate:         f.agg.Now(),
		InitialPopulation: args.InitialPopulation,
		TargetHarvestAge:  args.TargetHarvestAge,
		Notes:             args.Notes,
	}
	if args.BarnID != "" {
		barn, err := f.resolveBarn(ctx, args.BarnID)
		if err != nil {
			return nil, err
		}
		in.BarnID = &barn.ID
	}
	batch, err := f.rec.CreateBatch(ctx, in)
	if err != nil {
		return nil, err
	}
	out := written(batch.ID, fmt.Sprintf("Berhasil membuat batch %s dengan %s ekor", batch.Code, kpi.FormatNumber(batch.InitialPopulation)))
	out["code"] = batch.Code
	return out, nil
}

func (f *FarmTools) addBarn(ctx context.Context, args barnArgs) (any, error) {
	barn, err := f.rec.CreateBarn(ctx, records.BarnInput{
		Name:        args.Name,
		Capacity:    args.Capacity,
		Location:    args.Location,
		Description: args.Description,
	})
	if err != nil {
		return nil, err
	}
	out := written(barn.ID, fmt.Sprintf("Berhasil membuat kandang %s (%s) kapasitas %s ekor", barn.Code, barn.Name, kpi.FormatNumber(barn.Capacity)))
	out["code"] = barn.Code
	return out, nil
}

func (f *FarmTools) addWeightRecord(ctx context.Context, args weightRecordArgs) (any, error) {
	batch, err := f.resolveBatch(ctx, args.BatchID)
	if err != nil {
		return nil, err
	}
	rec, err := f.rec.AddWeightRecord(ctx, records.WeightInput{
		BatchID:         batch.ID,
		AverageWeightGr: args.AverageWeightGr,
		SampleSize:      args.SampleSize,
		BirdAgeDays:     args.BirdAgeDays,
		Notes:           args.Notes,
	})
	if err != nil {
		return nil, err
	}
	return written(rec.ID, fmt.Sprintf("Berhasil mencatat berat rata-rata %sg (%d sampel, umur %d hari)",
		kpi.FormatQty(rec.AverageWeightGr), rec.SampleSize, rec.BirdAgeDays)), nil
}

func (f *FarmTools) resolveBatch(ctx context.Context, ref string) (*models.Batch, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, models.InvalidField("batchId", "is required")
	}
	batch, err := f.agg.ResolveBatch(ctx, ref)
	if models.IsNotFound(err) {
		return nil, models.NotFound("batch", ref)
	}
	return batch, err
}

func (f *FarmTools) optionalBatch(ctx context.Context, ref string) (string, error) {
	if strings.TrimSpace(ref) == "" {
		return "", nil
	}
	batch, err := f.resolveBatch(ctx, ref)
	if err != nil {
		return "", err
	}
	return batch.ID, nil
}

func (f *FarmTools) resolveBarn(ctx context.Context, ref string) (*models.Barn, error) {
	barns, err := f.agg.ListBarns(ctx)
	if err != nil {
		return nil, err
	}
	for i := range barns {
		if barns[i].ID == ref || strings.EqualFold(barns[i].Code, ref) {
			return &barns[i], nil
		}
	}
	return nil, models.NotFound("barn", ref)
}

func written(id, message string) map[string]any {
	return map[string]any{"success": true, "id": id, "message": message}
}

func head[T any](rows []T, n int) []T {
	if len(rows) > n {
		return rows[:n]
	}
	return rows
}
