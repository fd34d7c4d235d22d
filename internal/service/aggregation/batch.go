package aggregation

import (
	"slices"
	"sort"
	"time"

	"github.com/bebeku/farm/internal/domain/kpi"
	"github.com/bebeku/farm/internal/domain/models"
)

// BatchRecords is every record owned by one batch.
type BatchRecords struct {
	Daily   []models.DailyRecord
	Weights []models.WeightRecord
	Eggs    []models.EggRecord
	Finance []models.FinanceRecord
}

// BuildBatchStats computes the metric view of a batch. Missing data yields
// zeroed metrics.
func BuildBatchStats(batch models.Batch, recs BatchRecords, policy Policy, now time.Time) models.BatchStats {
	deaths := 0
	for _, r := range recs.Daily {
		deaths += r.MortalityCount
	}
	population := max(0, batch.InitialPopulation-deaths)

	stats := models.BatchStats{
		TotalDeaths:       deaths,
		MortalityRate:     kpi.MortalityRate(deaths, batch.InitialPopulation),
		BirdAge:           kpi.BirdAgeDays(batch.StartDate, now),
		CurrentPopulation: population,
		DaysUntilHarvest:  kpi.DaysUntilHarvest(batch.StartDate, batch.TargetHarvestAge, now),
		ADG:               kpi.AverageDailyGain(weightSamples(recs.Weights)),
	}

	if latest, ok := latestWeight(recs.Weights); ok {
		feed := 0.0
		for _, r := range recs.Daily {
			feed += kpi.TotalFeed(r.FeedMorningKg, r.FeedEveningKg)
		}
		fcr := kpi.BatchFCR(kpi.Round(feed, 2), deaths, batch.InitialPopulation, latest.AverageWeightGr, docWeight(batch, policy))
		stats.FCR = fcr.FCR
		stats.TotalFeedKg = fcr.TotalFeedKg
		stats.TotalWeightGainKg = kpi.Round(fcr.TotalWeightGainKg, 2)
		stats.LatestWeightGr = latest.AverageWeightGr
	}

	for _, r := range recs.Eggs {
		stats.TotalEggs += r.TotalEggs
	}
	stats.EggProductionRate = kpi.EggProductionRate(stats.TotalEggs, population)

	money := tally(recs.Finance)
	stats.TotalIncome = money.Income()
	stats.TotalExpense = money.Expense()
	stats.CostPerBird = kpi.CostPerBird(stats.TotalExpense, population)
	stats.CostPerKg = kpi.CostPerKg(stats.TotalExpense, float64(population)*stats.LatestWeightGr/1000)

	return stats
}

// BuildBatchDetail merges a batch with its barn, records and stats.
func BuildBatchDetail(batch models.Batch, barn *models.Barn, recs BatchRecords, policy Policy, now time.Time) models.BatchDetail {
	return models.BatchDetail{
		Batch:          batch,
		Barn:           barn,
		DailyRecords:   nonNil(recs.Daily),
		WeightRecords:  nonNil(recs.Weights),
		EggRecords:     nonNil(recs.Eggs),
		FinanceRecords: nonNil(recs.Finance),
		Stats:          BuildBatchStats(batch, recs, policy, now),
	}
}

// BuildBatchOverview summarises all batches; population figures cover active ones.
func BuildBatchOverview(batches []models.Batch) models.BatchOverview {
	var out models.BatchOverview
	initial := 0
	out.TotalBatches = len(batches)
	for _, b := range batches {
		if b.Status != models.BatchActive {
			continue
		}
		out.ActiveBatches++
		out.TotalActivePopulation += b.CurrentPopulation
		initial += b.InitialPopulation
	}
	out.TotalDeaths = initial - out.TotalActivePopulation
	out.MortalityRate = kpi.MortalityRate(out.TotalDeaths, initial)
	return out
}

// WeightSeries is the growth curve ordered by bird age.
func WeightSeries(weights []models.WeightRecord, loc *time.Location) []models.WeightPoint {
	sorted := slices.Clone(weights)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].BirdAgeDays < sorted[j].BirdAgeDays })

	out := make([]models.WeightPoint, 0, len(sorted))
	for _, w := range sorted {
		out = append(out, models.WeightPoint{
			Age:    w.BirdAgeDays,
			Weight: w.AverageWeightGr,
			Date:   w.RecordDate.In(loc).Format(dateLayout),
		})
	}
	return out
}

// SumFeedConsumption totals morning and evening feed of the given records.
func SumFeedConsumption(daily []models.DailyRecord) models.FeedConsumption {
	var morning, evening float64
	for _, r := range daily {
		morning += r.FeedMorningKg
		evening += r.FeedEveningKg
	}
	return models.FeedConsumption{
		TotalMorningFeed: kpi.Round(morning, 2),
		TotalEveningFeed: kpi.Round(evening, 2),
		TotalFeed:        kpi.Round(morning+evening, 2),
		Records:          nonNil(daily),
	}
}

// latestWeight picks the most recent weighing by record date, then creation.
func latestWeight(weights []models.WeightRecord) (models.WeightRecord, bool) {
	if len(weights) == 0 {
		return models.WeightRecord{}, false
	}
	latest := weights[0]
	for _, w := range weights[1:] {
		if w.RecordDate.After(latest.RecordDate) ||
			(w.RecordDate.Equal(latest.RecordDate) && w.CreatedAt.After(latest.CreatedAt)) {
			latest = w
		}
	}
	return latest, true
}

func weightSamples(weights []models.WeightRecord) []kpi.WeightSample {
	out := make([]kpi.WeightSample, 0, len(weights))
	for _, w := range weights {
		out = append(out, kpi.WeightSample{AgeDays: w.BirdAgeDays, WeightGr: w.AverageWeightGr})
	}
	return out
}

func docWeight(batch models.Batch, policy Policy) float64 {
	switch {
	case batch.DOCWeightGr != nil && *batch.DOCWeightGr > 0:
		return *batch.DOCWeightGr
	case policy.DOCWeightGr > 0:
		return policy.DOCWeightGr
	default:
		return kpi.DefaultDOCWeightGr
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
