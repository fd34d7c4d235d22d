package aggregation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bebeku/farm/internal/domain/models"
)

func sampleBatch() (models.Batch, BatchRecords) {
	start := now.AddDate(0, 0, -30)
	day := func(n int) time.Time { return start.AddDate(0, 0, n) }

	batch := models.Batch{
		ID: "b1", Code: "B-2026-001", StartDate: start,
		InitialPopulation: 1000, CurrentPopulation: 990, TargetHarvestAge: 45,
		Status: models.BatchActive,
	}
	recs := BatchRecords{
		Daily: []models.DailyRecord{
			{ID: "d1", BatchID: "b1", RecordDate: day(1), MortalityCount: 6, FeedMorningKg: 1000, FeedEveningKg: 450},
			{ID: "d2", BatchID: "b1", RecordDate: day(2), MortalityCount: 4, FeedMorningKg: 1000, FeedEveningKg: 450},
		},
		Weights: []models.WeightRecord{
			{ID: "w1", BatchID: "b1", RecordDate: day(10), BirdAgeDays: 10, AverageWeightGr: 500},
			{ID: "w3", BatchID: "b1", RecordDate: day(28), BirdAgeDays: 28, AverageWeightGr: 1500},
			{ID: "w2", BatchID: "b1", RecordDate: day(20), BirdAgeDays: 30, AverageWeightGr: 1600},
		},
		Eggs: []models.EggRecord{{ID: "e1", BatchID: "b1", TotalEggs: 99}},
		Finance: []models.FinanceRecord{
			{ID: "f1", Type: models.FinanceExpense, Category: models.CategoryDOC, Amount: 5_000_000},
			{ID: "f2", Type: models.FinanceExpense, Category: models.CategoryFeed, Amount: 9_850_000},
			{ID: "f3", Type: models.FinanceIncome, Category: models.CategoryDuckSales, Amount: 30_000_000},
		},
	}
	return batch, recs
}

func TestBuildBatchStats(t *testing.T) {
	batch, recs := sampleBatch()

	stats := BuildBatchStats(batch, recs, DefaultPolicy(), now)

	assert.Equal(t, 10, stats.TotalDeaths)
	assert.Equal(t, 1.0, stats.MortalityRate)
	assert.Equal(t, 30, stats.BirdAge)
	assert.Equal(t, 990, stats.CurrentPopulation)
	assert.Equal(t, 15, stats.DaysUntilHarvest)

	// Latest by record date is the 1500 g weighing, not the oldest bird age.
	assert.Equal(t, 1500.0, stats.LatestWeightGr)
	assert.Equal(t, 2900.0, stats.TotalFeedKg)
	assert.Equal(t, 1445.0, stats.TotalWeightGainKg)
	assert.Equal(t, 2.01, stats.FCR)

	// ADG follows bird age: (1600-500)/(30-10).
	assert.Equal(t, 55.0, stats.ADG)

	assert.Equal(t, 99, stats.TotalEggs)
	assert.Equal(t, 10.0, stats.EggProductionRate)
	assert.Equal(t, 14_850_000.0, stats.TotalExpense)
	assert.Equal(t, 30_000_000.0, stats.TotalIncome)
	assert.Equal(t, 15_000.0, stats.CostPerBird)
	assert.Equal(t, 10_000.0, stats.CostPerKg)
}

func TestBuildBatchStatsRoundsFeedPerDay(t *testing.T) {
	batch, recs := sampleBatch()
	recs.Daily = []models.DailyRecord{
		{ID: "d1", BatchID: "b1", FeedMorningKg: 1.004, FeedEveningKg: 1.004},
		{ID: "d2", BatchID: "b1", FeedMorningKg: 1.004, FeedEveningKg: 1.004},
		{ID: "d3", BatchID: "b1", FeedMorningKg: 1.004, FeedEveningKg: 1.004},
	}

	stats := BuildBatchStats(batch, recs, DefaultPolicy(), now)
	assert.Equal(t, 6.03, stats.TotalFeedKg)
}

func TestBuildBatchStatsWithoutWeights(t *testing.T) {
	batch, recs := sampleBatch()
	recs.Weights = nil

	stats := BuildBatchStats(batch, recs, DefaultPolicy(), now)

	assert.Zero(t, stats.FCR)
	assert.Zero(t, stats.TotalFeedKg)
	assert.Zero(t, stats.ADG)
	assert.Zero(t, stats.CostPerKg)
	assert.Equal(t, 10, stats.TotalDeaths)
}

func TestBuildBatchStatsUsesDOCOverride(t *testing.T) {
	batch, recs := sampleBatch()
	doc := 50.0
	batch.DOCWeightGr = &doc

	stats := BuildBatchStats(batch, recs, DefaultPolicy(), now)

	assert.Equal(t, 1435.0, stats.TotalWeightGainKg)
	assert.Equal(t, 2.02, stats.FCR)
}

func TestBuildBatchStatsIsIdempotent(t *testing.T) {
	batch, recs := sampleBatch()

	first := BuildBatchStats(batch, recs, DefaultPolicy(), now)
	second := BuildBatchStats(batch, recs, DefaultPolicy(), now)

	assert.Equal(t, first, second)
	assert.Equal(t, "w1", recs.Weights[0].ID, "inputs are not reordered")
}

func TestBuildBatchStatsEmpty(t *testing.T) {
	stats := BuildBatchStats(models.Batch{StartDate: now}, BatchRecords{}, DefaultPolicy(), now)
	assert.Equal(t, models.BatchStats{}, stats)
}

func TestWeightSeries(t *testing.T) {
	_, recs := sampleBatch()

	series := WeightSeries(recs.Weights, wib)
	require.Len(t, series, 3)
	assert.Equal(t, []int{10, 28, 30}, []int{series[0].Age, series[1].Age, series[2].Age})
	assert.Equal(t, "2026-05-26", series[0].Date)
}

func TestBuildBatchOverview(t *testing.T) {
	overview := BuildBatchOverview([]models.Batch{
		{Status: models.BatchActive, InitialPopulation: 1000, CurrentPopulation: 950},
		{Status: models.BatchActive, InitialPopulation: 1000, CurrentPopulation: 1000},
		{Status: models.BatchCompleted, InitialPopulation: 500, CurrentPopulation: 100},
	})

	assert.Equal(t, models.BatchOverview{
		TotalBatches:          3,
		ActiveBatches:         2,
		TotalActivePopulation: 1950,
		TotalDeaths:           50,
		MortalityRate:         2.5,
	}, overview)
}

func TestSumFeedConsumption(t *testing.T) {
	got := SumFeedConsumption([]models.DailyRecord{
		{FeedMorningKg: 10.1, FeedEveningKg: 5},
		{FeedMorningKg: 0.2, FeedEveningKg: 0.1},
	})
	assert.Equal(t, 10.3, got.TotalMorningFeed)
	assert.Equal(t, 5.1, got.TotalEveningFeed)
	assert.Equal(t, 15.4, got.TotalFeed)
}
