package aggregation

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/bebeku/farm/internal/domain/kpi"
	"github.com/bebeku/farm/internal/domain/models"
)

// FarmSnapshot is the raw input of the farm-level views. Record slices may
// hold more than the relevant window; the builders filter them.
type FarmSnapshot struct {
	Batches []models.Batch
	Daily   []models.DailyRecord
	Eggs    []models.EggRecord
	Finance []models.FinanceRecord
	Feeds   []models.FeedInventory
}

func activeOnly(batches []models.Batch) []models.Batch {
	out := make([]models.Batch, 0, len(batches))
	for _, b := range batches {
		if b.Status == models.BatchActive {
			out = append(out, b)
		}
	}
	return out
}

// BuildDashboardStats computes the farm snapshot for now. Today's sums use the
// half-open day window in loc; month finance covers [first of month, now].
func BuildDashboardStats(snap FarmSnapshot, now time.Time, loc *time.Location) models.DashboardStats {
	var out models.DashboardStats

	for _, b := range activeOnly(snap.Batches) {
		out.ActiveBatches++
		out.TotalActivePopulation += b.CurrentPopulation
		out.TotalInitialPopulation += b.InitialPopulation
	}
	out.MortalityRate = kpi.MortalityRate(out.TotalInitialPopulation-out.TotalActivePopulation, out.TotalInitialPopulation)

	dayStart, dayEnd := DayWindow(now, loc)
	for _, r := range snap.Daily {
		if inWindow(r.RecordDate, dayStart, dayEnd) {
			out.TodayMortality += r.MortalityCount
		}
	}
	for _, r := range snap.Eggs {
		if inWindow(r.RecordDate, dayStart, dayEnd) {
			out.TodayEggs += r.TotalEggs
		}
	}
	for _, f := range snap.Feeds {
		if f.LowStock() {
			out.LowStockCount++
		}
	}

	monthStart := MonthStart(now, loc)
	var month ledger
	for _, r := range snap.Finance {
		if !r.TransactionDate.Before(monthStart) && !r.TransactionDate.After(now) {
			month.add(r)
		}
	}
	out.MonthIncome = month.Income()
	out.MonthExpense = month.Expense()
	out.MonthProfit = month.Profit()

	return out
}

// SummarizeDay totals the day containing now, for the daily report.
func SummarizeDay(snap FarmSnapshot, now time.Time, loc *time.Location) models.DaySummary {
	dayStart, dayEnd := DayWindow(now, loc)
	out := models.DaySummary{Date: dayStart.Format(dateLayout)}

	for _, b := range activeOnly(snap.Batches) {
		out.ActiveBatches++
		out.Population += b.CurrentPopulation
	}
	feed := 0.0
	for _, r := range snap.Daily {
		if inWindow(r.RecordDate, dayStart, dayEnd) {
			out.Mortality += r.MortalityCount
			feed += r.FeedMorningKg + r.FeedEveningKg
		}
	}
	out.FeedConsumedKg = kpi.Round(feed, 2)
	for _, r := range snap.Eggs {
		if inWindow(r.RecordDate, dayStart, dayEnd) {
			out.Eggs += r.TotalEggs
		}
	}
	var day ledger
	for _, r := range snap.Finance {
		if inWindow(r.TransactionDate, dayStart, dayEnd) {
			day.add(r)
		}
	}
	out.Income = day.Income()
	out.Expense = day.Expense()
	for _, f := range snap.Feeds {
		if f.LowStock() {
			out.LowStockCount++
		}
	}
	return out
}

// GenerateAlerts evaluates the cumulative mortality, feed stock and harvest
// policies. deaths maps batch id to its total recorded deaths. Alerts come in
// evaluation order: mortality, then feed stock, then harvest.
func GenerateAlerts(batches []models.Batch, deaths map[string]int, feeds []models.FeedInventory, policy Policy, now time.Time) []models.Alert {
	active := activeOnly(batches)
	alerts := []models.Alert{}

	for _, b := range active {
		if b.InitialPopulation <= 0 {
			continue
		}
		rate := float64(deaths[b.ID]) * 100 / float64(b.InitialPopulation)
		if rate <= policy.MortalityMediumPct {
			continue
		}
		severity := models.SeverityMedium
		if rate > policy.MortalityHighPct {
			severity = models.SeverityHigh
		}
		alerts = append(alerts, models.Alert{
			Type:     models.AlertMortality,
			Severity: severity,
			Message:  fmt.Sprintf("Mortalitas tinggi pada %s: %.1f%%", b.Code, rate),
			BatchID:  b.ID,
		})
	}

	for _, f := range feeds {
		if !f.LowStock() {
			continue
		}
		severity := models.SeverityMedium
		if f.CurrentStockKg == 0 {
			severity = models.SeverityHigh
		}
		alerts = append(alerts, models.Alert{
			Type:     models.AlertFeedStock,
			Severity: severity,
			Message:  fmt.Sprintf("Stok pakan %s rendah: %skg", f.Name, kpi.FormatQty(f.CurrentStockKg)),
			FeedID:   f.ID,
		})
	}

	for _, b := range active {
		age := kpi.BirdAgeDays(b.StartDate, now)
		if age < b.TargetHarvestAge-policy.HarvestLeadDays {
			continue
		}
		severity := models.SeverityLow
		if age >= b.TargetHarvestAge {
			severity = models.SeverityHigh
		}
		alerts = append(alerts, models.Alert{
			Type:     models.AlertHarvest,
			Severity: severity,
			Message:  fmt.Sprintf("%s siap panen (umur %d hari)", b.Code, age),
			BatchID:  b.ID,
		})
	}

	return alerts
}

// MergeRecentActivity merges the newest daily, weight and finance records into
// one feed of at most limit entries, newest first. Each source is cut to its
// own newest limit entries before the merge; every member of the overall top
// limit is in its source's top limit, so the result is exact.
func MergeRecentActivity(daily []models.DailyRecord, weights []models.WeightRecord, finance []models.FinanceRecord, batches map[string]models.Batch, limit int) []models.Activity {
	if limit <= 0 {
		return []models.Activity{}
	}

	name := func(batchID, fallback string) string {
		b, ok := batches[batchID]
		switch {
		case !ok:
			return fallback
		case b.Name != "":
			return b.Name
		case b.Code != "":
			return b.Code
		default:
			return fallback
		}
	}

	var out []models.Activity
	for _, r := range newest(daily, func(r models.DailyRecord) time.Time { return r.CreatedAt }, limit) {
		out = append(out, models.Activity{
			ID:          r.ID,
			Type:        models.ActivityDaily,
			Description: fmt.Sprintf("Pencatatan harian: %d mortalitas, %skg pakan", r.MortalityCount, kpi.FormatQty(r.FeedMorningKg+r.FeedEveningKg)),
			BatchName:   name(r.BatchID, "Unknown"),
			Date:        r.CreatedAt,
		})
	}
	for _, r := range newest(weights, func(r models.WeightRecord) time.Time { return r.CreatedAt }, limit) {
		out = append(out, models.Activity{
			ID:          r.ID,
			Type:        models.ActivityWeight,
			Description: fmt.Sprintf("Timbang: %sg (%d ekor)", kpi.FormatQty(r.AverageWeightGr), r.SampleSize),
			BatchName:   name(r.BatchID, "Unknown"),
			Date:        r.CreatedAt,
		})
	}
	for _, r := range newest(finance, func(r models.FinanceRecord) time.Time { return r.CreatedAt }, limit) {
		label := "Pengeluaran"
		if r.Type == models.FinanceIncome {
			label = "Pemasukan"
		}
		out = append(out, models.Activity{
			ID:          r.ID,
			Type:        models.ActivityFinance,
			Description: fmt.Sprintf("%s: %s - %s", label, r.Category, kpi.FormatRupiah(r.Amount)),
			BatchName:   name(r.BatchRef(), "Umum"),
			Date:        r.CreatedAt,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if len(out) > limit {
		out = out[:limit]
	}
	return nonNil(out)
}

func newest[T any](rows []T, created func(T) time.Time, limit int) []T {
	sorted := slices.Clone(rows)
	sort.SliceStable(sorted, func(i, j int) bool { return created(sorted[i]).After(created(sorted[j])) })
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
