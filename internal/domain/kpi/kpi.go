// Package kpi holds the pure numeric helpers behind every batch and farm metric.
// Functions never fail: a zero or negative denominator yields 0.
package kpi

import (
	"math"
	"sort"
	"time"
)

const (
	// DefaultDOCWeightGr is the assumed day-old duckling weight used as the
	// weight-gain baseline when a batch does not override it.
	DefaultDOCWeightGr = 40.0

	// DefaultDailyMortalityThresholdPct is the daily-rate guard used by IsMortalityAlert.
	DefaultDailyMortalityThresholdPct = 0.5
)

// Round rounds x to the given number of decimal places.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// FeedConversionRatio is kilograms of feed per kilogram of live-weight gain.
func FeedConversionRatio(totalFeedKg, totalWeightGainKg float64) float64 {
	if totalWeightGainKg <= 0 {
		return 0
	}
	return Round(totalFeedKg/totalWeightGainKg, 2)
}

// MortalityRate is cumulative deaths as a percentage of the initial population.
func MortalityRate(totalDeaths, initialPopulation int) float64 {
	if initialPopulation <= 0 {
		return 0
	}
	return Round(float64(totalDeaths)/float64(initialPopulation)*100, 2)
}

// DailyMortalityRate is one day's deaths as a percentage of the current population.
func DailyMortalityRate(dailyDeaths, currentPopulation int) float64 {
	if currentPopulation <= 0 {
		return 0
	}
	return Round(float64(dailyDeaths)/float64(currentPopulation)*100, 2)
}

// BirdAgeDays is the number of whole days elapsed since start.
func BirdAgeDays(start, now time.Time) int {
	return int(math.Floor(float64(now.Sub(start)) / float64(24*time.Hour)))
}

// WeightSample is one averaged weighing at a known bird age.
type WeightSample struct {
	AgeDays  int
	WeightGr float64
}

// AverageDailyGain is grams gained per day between the youngest and oldest sample.
func AverageDailyGain(samples []WeightSample) float64 {
	if len(samples) < 2 {
		return 0
	}

	ordered := make([]WeightSample, len(samples))
	copy(ordered, samples)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].AgeDays < ordered[j].AgeDays })

	first, last := ordered[0], ordered[len(ordered)-1]
	days := last.AgeDays - first.AgeDays
	if days <= 0 {
		return 0
	}
	return Round((last.WeightGr-first.WeightGr)/float64(days), 2)
}

// CostPerKg is total cost per kilogram of live weight, in whole currency units.
func CostPerKg(totalCost, totalWeightKg float64) float64 {
	if totalWeightKg <= 0 {
		return 0
	}
	return math.Round(totalCost / totalWeightKg)
}

// CostPerBird is total cost per living bird, in whole currency units.
func CostPerBird(totalCost float64, population int) float64 {
	if population <= 0 {
		return 0
	}
	return math.Round(totalCost / float64(population))
}

// EggProductionRate is eggs per bird as a percentage.
func EggProductionRate(totalEggs, population int) float64 {
	if population <= 0 {
		return 0
	}
	return Round(float64(totalEggs)/float64(population)*100, 2)
}

// IsMortalityAlert is the real-time guard: true when the daily mortality rate
// strictly exceeds thresholdPct. It is independent of the cumulative alert policy.
func IsMortalityAlert(dailyDeaths, currentPopulation int, thresholdPct float64) bool {
	return DailyMortalityRate(dailyDeaths, currentPopulation) > thresholdPct
}

// DaysUntilHarvest is the remaining days to the target age, never negative.
func DaysUntilHarvest(start time.Time, targetHarvestAge int, now time.Time) int {
	return max(0, targetHarvestAge-BirdAgeDays(start, now))
}

// TotalFeed is the day's morning plus evening feed.
func TotalFeed(morningKg, eveningKg float64) float64 {
	return Round(morningKg+eveningKg, 2)
}

// FCRResult carries the batch FCR and its inputs.
type FCRResult struct {
	FCR               float64
	TotalFeedKg       float64
	TotalWeightGainKg float64
}

// BatchFCR estimates batch FCR from total feed, deaths and the latest average
// weight. Survivors are initialPopulation minus totalDeaths; the baseline is
// every initial bird at docWeightGr.
func BatchFCR(totalFeedKg float64, totalDeaths, initialPopulation int, latestWeightGr, docWeightGr float64) FCRResult {
	survivors := initialPopulation - totalDeaths
	initialKg := float64(initialPopulation) * docWeightGr / 1000
	currentKg := float64(survivors) * latestWeightGr / 1000
	gain := currentKg - initialKg

	return FCRResult{
		FCR:               FeedConversionRatio(totalFeedKg, gain),
		TotalFeedKg:       totalFeedKg,
		TotalWeightGainKg: gain,
	}
}
