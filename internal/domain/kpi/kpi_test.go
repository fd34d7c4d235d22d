package kpi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFeedConversionRatio(t *testing.T) {
	t.Run("divides feed by gain", func(t *testing.T) {
		assert.Equal(t, 1.67, FeedConversionRatio(500, 300))
	})

	t.Run("guards zero and negative gain", func(t *testing.T) {
		assert.Equal(t, 0.0, FeedConversionRatio(100, 0))
		assert.Equal(t, 0.0, FeedConversionRatio(100, -5))
		assert.Equal(t, 0.0, FeedConversionRatio(0, 0))
	})
}

func TestMortalityRate(t *testing.T) {
	assert.Equal(t, 6.0, MortalityRate(60, 1000))
	assert.Equal(t, 33.33, MortalityRate(1, 3))
	assert.Equal(t, 0.0, MortalityRate(5, 0))
	assert.Equal(t, 0.0, MortalityRate(5, -10))

	t.Run("monotonic in deaths", func(t *testing.T) {
		prev := -1.0
		for deaths := 0; deaths <= 997; deaths++ {
			rate := MortalityRate(deaths, 997)
			assert.GreaterOrEqual(t, rate, prev)
			prev = rate
		}
	})
}

func TestDailyMortalityRate(t *testing.T) {
	assert.Equal(t, 0.5, DailyMortalityRate(5, 1000))
	assert.Equal(t, 0.0, DailyMortalityRate(5, 0))
}

func TestBirdAgeDays(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, BirdAgeDays(start, start.Add(23*time.Hour)))
	assert.Equal(t, 1, BirdAgeDays(start, start.Add(24*time.Hour)))
	assert.Equal(t, 42, BirdAgeDays(start, start.AddDate(0, 0, 42).Add(time.Hour)))
	assert.Equal(t, -1, BirdAgeDays(start, start.Add(-time.Hour)))
}

func TestAverageDailyGain(t *testing.T) {
	t.Run("single record yields zero", func(t *testing.T) {
		assert.Equal(t, 0.0, AverageDailyGain([]WeightSample{{AgeDays: 1, WeightGr: 50}}))
	})

	t.Run("uses first and last by age", func(t *testing.T) {
		samples := []WeightSample{
			{AgeDays: 10, WeightGr: 500},
			{AgeDays: 5, WeightGr: 900},
			{AgeDays: 1, WeightGr: 50},
		}
		assert.Equal(t, 50.0, AverageDailyGain(samples))
		assert.Equal(t, 10, samples[0].AgeDays, "input must not be reordered")
	})

	t.Run("no age span yields zero", func(t *testing.T) {
		assert.Equal(t, 0.0, AverageDailyGain([]WeightSample{{AgeDays: 7, WeightGr: 100}, {AgeDays: 7, WeightGr: 200}}))
	})
}

func TestCostHelpers(t *testing.T) {
	assert.Equal(t, 33333.0, CostPerKg(100000, 3))
	assert.Equal(t, 0.0, CostPerKg(100000, 0))
	assert.Equal(t, 1667.0, CostPerBird(5000, 3))
	assert.Equal(t, 0.0, CostPerBird(5000, 0))
}

func TestEggProductionRate(t *testing.T) {
	assert.Equal(t, 75.0, EggProductionRate(750, 1000))
	assert.Equal(t, 0.0, EggProductionRate(750, 0))
}

func TestIsMortalityAlert(t *testing.T) {
	assert.False(t, IsMortalityAlert(5, 1000, DefaultDailyMortalityThresholdPct), "exactly at threshold is not an alert")
	assert.True(t, IsMortalityAlert(6, 1000, DefaultDailyMortalityThresholdPct))
	assert.True(t, IsMortalityAlert(2, 100, 1))
	assert.False(t, IsMortalityAlert(3, 0, DefaultDailyMortalityThresholdPct))
}

func TestDaysUntilHarvest(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 45, DaysUntilHarvest(start, 45, start))
	assert.Equal(t, 3, DaysUntilHarvest(start, 45, start.AddDate(0, 0, 42)))
	assert.Equal(t, 0, DaysUntilHarvest(start, 45, start.AddDate(0, 0, 60)))
}

func TestBatchFCR(t *testing.T) {
	// 1000 birds at 40 g, 10 deaths, survivors average 1500 g.
	got := BatchFCR(2900, 10, 1000, 1500, DefaultDOCWeightGr)

	assert.InDelta(t, 1445.0, got.TotalWeightGainKg, 1e-9)
	assert.Equal(t, 2.01, got.FCR)
	assert.Equal(t, 2900.0, got.TotalFeedKg)

	t.Run("weight loss gives zero fcr", func(t *testing.T) {
		assert.Equal(t, 0.0, BatchFCR(100, 0, 1000, 30, DefaultDOCWeightGr).FCR)
	})

	t.Run("baseline weight is a parameter", func(t *testing.T) {
		got := BatchFCR(100, 0, 100, 1000, 50)
		assert.InDelta(t, 95.0, got.TotalWeightGainKg, 1e-9)
	})
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "Rp 1.500.000", FormatRupiah(1500000))
	assert.Equal(t, "12.5", FormatQty(12.5))
	assert.Equal(t, "0", FormatQty(0))
}
