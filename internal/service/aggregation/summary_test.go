package aggregation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bebeku/farm/internal/domain/models"
)

func TestSummarizeFinance(t *testing.T) {
	records := []models.FinanceRecord{
		{Type: models.FinanceExpense, Category: "pakan", Amount: 100_000},
		{Type: models.FinanceIncome, Category: "penjualan_telur", Amount: 450_000},
		{Type: models.FinanceExpense, Category: "pakan", Amount: 50_000},
		{Type: models.FinanceExpense, Category: "obat", Amount: 25_000},
	}

	got := SummarizeFinance(records)

	assert.Equal(t, 450_000.0, got.Income)
	assert.Equal(t, 175_000.0, got.Expense)
	assert.Equal(t, 275_000.0, got.Balance)
	assert.Equal(t, 4, got.TotalRecords)
	assert.Equal(t, []models.CategoryTotal{
		{Type: models.FinanceExpense, Category: "pakan", Amount: 150_000},
		{Type: models.FinanceIncome, Category: "penjualan_telur", Amount: 450_000},
		{Type: models.FinanceExpense, Category: "obat", Amount: 25_000},
	}, got.ByCategory)
}

func TestSummarizeBatchFinance(t *testing.T) {
	got := SummarizeBatchFinance([]models.FinanceRecord{
		{Type: models.FinanceExpense, Category: models.CategoryDOC, Amount: 5_000_000},
		{Type: models.FinanceExpense, Category: models.CategoryFeed, Amount: 3_000_000},
		{Type: models.FinanceExpense, Category: models.CategoryMedicine, Amount: 200_000},
		{Type: models.FinanceExpense, Category: models.CategoryLabor, Amount: 800_000},
		{Type: models.FinanceExpense, Category: models.CategoryPower, Amount: 150_000},
		{Type: models.FinanceIncome, Category: models.CategoryDuckSales, Amount: 12_000_000},
	})

	assert.Equal(t, models.BatchFinance{
		DOCCost:      5_000_000,
		FeedCost:     3_000_000,
		MedicineCost: 200_000,
		LaborCost:    800_000,
		OtherCosts:   150_000,
		TotalExpense: 9_150_000,
		TotalIncome:  12_000_000,
		Profit:       2_850_000,
	}, got)
}

func TestSummarizeEggs(t *testing.T) {
	d1 := time.Date(2026, 6, 14, 6, 0, 0, 0, wib)
	d2 := time.Date(2026, 6, 15, 6, 0, 0, 0, wib)

	got := SummarizeEggs([]models.EggRecord{
		{RecordDate: d2, TotalEggs: 100, GoodEggs: 90, DamagedEggs: 6, SmallEggs: 4},
		{RecordDate: d1, TotalEggs: 200, GoodEggs: 190, DamagedEggs: 4, SmallEggs: 6},
		{RecordDate: d2.Add(time.Hour), TotalEggs: 3, GoodEggs: 3},
	}, wib)

	assert.Equal(t, 303, got.TotalEggs)
	assert.Equal(t, 283, got.GoodEggs)
	assert.Equal(t, 93.4, got.GoodRate)
	assert.Equal(t, 3.3, got.DamagedRate)
	require.Len(t, got.ByDate, 2)
	assert.Equal(t, "2026-06-14", got.ByDate[0].Date)
	assert.Equal(t, 103, got.ByDate[1].TotalEggs)

	empty := SummarizeEggs(nil, wib)
	assert.Zero(t, empty.GoodRate)
	assert.NotNil(t, empty.ByDate)
}

func TestSummarizeFeedConsumption(t *testing.T) {
	feeds := []models.FeedInventory{
		{ID: "f1", Name: "Starter", CurrentStockKg: 20, MinStockAlert: 100},
		{ID: "f2", Name: "Grower", CurrentStockKg: 800, MinStockAlert: 100},
	}
	moves := []models.FeedStockMovement{
		{FeedID: "f1", Type: models.MovementOut, QuantityKg: 30},
		{FeedID: "f1", Type: models.MovementIn, QuantityKg: 500},
		{FeedID: "f2", Type: models.MovementOut, QuantityKg: 12.5},
		{FeedID: "f1", Type: models.MovementOut, QuantityKg: 20},
	}

	got := SummarizeFeedConsumption(feeds, moves)

	assert.Equal(t, 62.5, got.TotalConsumption)
	assert.Equal(t, map[string]float64{"Starter": 50, "Grower": 12.5}, got.ByFeed)
	require.Len(t, got.LowStock, 1)
	assert.Equal(t, "f1", got.LowStock[0].ID)
}

func TestBarnViews(t *testing.T) {
	barn := models.Barn{ID: "k1", Capacity: 3000}
	batches := []models.Batch{
		{Status: models.BatchActive, InitialPopulation: 1000, CurrentPopulation: 990},
		{Status: models.BatchCompleted, InitialPopulation: 1000, CurrentPopulation: 950},
		{Status: models.BatchCompleted, InitialPopulation: 500, CurrentPopulation: 480},
		{Status: models.BatchCancelled, InitialPopulation: 100, CurrentPopulation: 0},
	}

	stats := BuildBarnStats(barn, batches)
	assert.Equal(t, models.BarnStats{TotalBatches: 4, ActiveBatches: 1, TotalPopulation: 990, CapacityUsed: 33}, stats)

	perf := BuildBarnPerformance(batches)
	assert.Equal(t, models.BarnPerformance{AvgMortalityRate: 4.5, TotalBatches: 4, CompletedBatches: 2}, perf)

	assert.Zero(t, BuildBarnStats(models.Barn{}, batches).CapacityUsed)
	assert.Equal(t, models.BarnPerformance{TotalBatches: 0}, BuildBarnPerformance(nil))
}
