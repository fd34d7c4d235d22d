package aggregation

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bebeku/farm/internal/domain/kpi"
	"github.com/bebeku/farm/internal/domain/models"
)

// SummarizeFinance totals the given transactions, grouped by (type, category)
// in first-seen order.
func SummarizeFinance(records []models.FinanceRecord) models.FinanceSummary {
	type key struct {
		typ      models.FinanceType
		category string
	}
	var (
		order  []key
		totals = map[key]decimal.Decimal{}
		money  ledger
	)
	for _, r := range records {
		money.add(r)
		k := key{r.Type, r.Category}
		if _, seen := totals[k]; !seen {
			order = append(order, k)
		}
		totals[k] = totals[k].Add(decimal.NewFromFloat(r.Amount))
	}

	byCategory := make([]models.CategoryTotal, 0, len(order))
	for _, k := range order {
		byCategory = append(byCategory, models.CategoryTotal{Type: k.typ, Category: k.category, Amount: totals[k].InexactFloat64()})
	}
	return models.FinanceSummary{
		Income:       money.Income(),
		Expense:      money.Expense(),
		Balance:      money.Profit(),
		ByCategory:   byCategory,
		TotalRecords: len(records),
	}
}

// SummarizeBatchFinance splits one batch's transactions into the conventional
// cost buckets.
func SummarizeBatchFinance(records []models.FinanceRecord) models.BatchFinance {
	var doc, feed, medicine, labor, other decimal.Decimal
	for _, r := range records {
		if r.Type != models.FinanceExpense {
			continue
		}
		amount := decimal.NewFromFloat(r.Amount)
		switch r.Category {
		case models.CategoryDOC:
			doc = doc.Add(amount)
		case models.CategoryFeed:
			feed = feed.Add(amount)
		case models.CategoryMedicine:
			medicine = medicine.Add(amount)
		case models.CategoryLabor:
			labor = labor.Add(amount)
		default:
			other = other.Add(amount)
		}
	}
	money := tally(records)
	return models.BatchFinance{
		DOCCost:      doc.InexactFloat64(),
		FeedCost:     feed.InexactFloat64(),
		MedicineCost: medicine.InexactFloat64(),
		LaborCost:    labor.InexactFloat64(),
		OtherCosts:   other.InexactFloat64(),
		TotalExpense: money.Expense(),
		TotalIncome:  money.Income(),
		Profit:       money.Profit(),
	}
}

// SummarizeEggs totals egg records with per-date buckets in loc, oldest first.
func SummarizeEggs(records []models.EggRecord, loc *time.Location) models.EggSummary {
	var out models.EggSummary
	days := map[string]*models.EggDay{}
	for _, r := range records {
		out.TotalEggs += r.TotalEggs
		out.GoodEggs += r.GoodEggs
		out.DamagedEggs += r.DamagedEggs
		out.SmallEggs += r.SmallEggs

		date := r.RecordDate.In(loc).Format(dateLayout)
		day, ok := days[date]
		if !ok {
			day = &models.EggDay{Date: date}
			days[date] = day
		}
		day.TotalEggs += r.TotalEggs
		day.GoodEggs += r.GoodEggs
		day.DamagedEggs += r.DamagedEggs
		day.SmallEggs += r.SmallEggs
	}
	if out.TotalEggs > 0 {
		out.GoodRate = kpi.Round(float64(out.GoodEggs)/float64(out.TotalEggs)*100, 2)
		out.DamagedRate = kpi.Round(float64(out.DamagedEggs)/float64(out.TotalEggs)*100, 2)
	}

	out.ByDate = make([]models.EggDay, 0, len(days))
	for _, d := range days {
		out.ByDate = append(out.ByDate, *d)
	}
	sort.Slice(out.ByDate, func(i, j int) bool { return out.ByDate[i].Date < out.ByDate[j].Date })
	return out
}

// LowStock returns the feeds at or below their alert threshold.
func LowStock(feeds []models.FeedInventory) []models.FeedInventory {
	out := []models.FeedInventory{}
	for _, f := range feeds {
		if f.LowStock() {
			out = append(out, f)
		}
	}
	return out
}

// SummarizeFeedConsumption totals "out" movements per feed name.
func SummarizeFeedConsumption(feeds []models.FeedInventory, movements []models.FeedStockMovement) models.FeedConsumptionSummary {
	names := make(map[string]string, len(feeds))
	for _, f := range feeds {
		names[f.ID] = f.Name
	}

	total := 0.0
	byFeed := map[string]float64{}
	for _, m := range movements {
		if m.Type != models.MovementOut {
			continue
		}
		total += m.QuantityKg
		name, ok := names[m.FeedID]
		if !ok {
			name = "Unknown"
		}
		byFeed[name] = kpi.Round(byFeed[name]+m.QuantityKg, 3)
	}
	return models.FeedConsumptionSummary{
		TotalConsumption: kpi.Round(total, 2),
		ByFeed:           byFeed,
		LowStock:         LowStock(feeds),
	}
}

// BuildFeedStockReport combines inventory, low stock and consumption.
func BuildFeedStockReport(feeds []models.FeedInventory, movements []models.FeedStockMovement) models.FeedStockReport {
	return models.FeedStockReport{
		Inventory:   nonNil(feeds),
		LowStock:    LowStock(feeds),
		Consumption: SummarizeFeedConsumption(feeds, movements),
	}
}

// BuildBarnStats reports occupancy of a barn from the batches it houses.
func BuildBarnStats(barn models.Barn, batches []models.Batch) models.BarnStats {
	out := models.BarnStats{TotalBatches: len(batches)}
	for _, b := range activeOnly(batches) {
		out.ActiveBatches++
		out.TotalPopulation += b.CurrentPopulation
	}
	if barn.Capacity > 0 {
		out.CapacityUsed = kpi.Round(float64(out.TotalPopulation)/float64(barn.Capacity)*100, 1)
	}
	return out
}

// BuildBarnPerformance averages cumulative mortality of the barn's completed
// batches. FCR is not tracked per barn and stays 0.
func BuildBarnPerformance(batches []models.Batch) models.BarnPerformance {
	out := models.BarnPerformance{TotalBatches: len(batches)}
	sum := 0.0
	for _, b := range batches {
		if b.Status != models.BatchCompleted {
			continue
		}
		out.CompletedBatches++
		if b.InitialPopulation > 0 {
			sum += float64(b.InitialPopulation-b.CurrentPopulation) / float64(b.InitialPopulation) * 100
		}
	}
	if out.CompletedBatches > 0 {
		out.AvgMortalityRate = kpi.Round(sum/float64(out.CompletedBatches), 2)
	}
	return out
}
