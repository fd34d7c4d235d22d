package aggregation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bebeku/farm/internal/domain/kpi"
	"github.com/bebeku/farm/internal/domain/models"
	"github.com/bebeku/farm/internal/repository"
)

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone that day and month windows are cut in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// Service loads records from the store and runs the pure builders over them.
type Service struct {
	store  repository.Store
	policy Policy
	logger *zap.Logger
	now    func() time.Time
	loc    *time.Location
}

// NewService constructs the read side.
func NewService(store repository.Store, policy Policy, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:  store,
		policy: policy,
		logger: logger,
		now:    time.Now,
		loc:    time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the zone the service cuts days in.
func (s *Service) Location() *time.Location { return s.loc }

// Now returns the service clock reading.
func (s *Service) Now() time.Time { return s.now() }

// DashboardStats returns the farm snapshot.
func (s *Service) DashboardStats(ctx context.Context) (models.DashboardStats, error) {
	now := s.now()
	snap, err := s.loadSnapshot(ctx, MonthStart(now, s.loc), now)
	if err != nil {
		return models.DashboardStats{}, fmt.Errorf("load dashboard: %w", err)
	}
	return BuildDashboardStats(snap, now, s.loc), nil
}

// DaySummary totals today for the daily report.
func (s *Service) DaySummary(ctx context.Context) (models.DaySummary, error) {
	now := s.now()
	start, _ := DayWindow(now, s.loc)
	snap, err := s.loadSnapshot(ctx, start, now)
	if err != nil {
		return models.DaySummary{}, fmt.Errorf("load day summary: %w", err)
	}
	return SummarizeDay(snap, now, s.loc), nil
}

// loadSnapshot reads active batches, feeds, today's daily and egg records and
// the finance records dated from financeFrom up to the end of today.
func (s *Service) loadSnapshot(ctx context.Context, financeFrom, now time.Time) (FarmSnapshot, error) {
	var snap FarmSnapshot
	dayStart, dayEnd := DayWindow(now, s.loc)
	today := repository.RecordFilter{From: dayStart, To: dayEnd}

	err := s.store.View(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		if snap.Batches, err = tx.ListBatches(ctx, repository.BatchFilter{Status: models.BatchActive}); err != nil {
			return err
		}
		if snap.Daily, err = tx.ListDailyRecords(ctx, today); err != nil {
			return err
		}
		if snap.Eggs, err = tx.ListEggRecords(ctx, today); err != nil {
			return err
		}
		if snap.Feeds, err = tx.ListFeeds(ctx); err != nil {
			return err
		}
		snap.Finance, err = tx.ListFinanceRecords(ctx, repository.RecordFilter{From: financeFrom, To: dayEnd})
		return err
	})
	return snap, err
}

// Alerts recomputes every alert.
func (s *Service) Alerts(ctx context.Context) ([]models.Alert, error) {
	var (
		active []models.Batch
		feeds  []models.FeedInventory
		deaths map[string]int
	)
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		if active, err = tx.ListBatches(ctx, repository.BatchFilter{Status: models.BatchActive}); err != nil {
			return fmt.Errorf("list active batches: %w", err)
		}
		deaths = make(map[string]int, len(active))
		for _, b := range active {
			daily, err := tx.ListDailyRecords(ctx, repository.RecordFilter{BatchID: b.ID})
			if err != nil {
				return fmt.Errorf("list daily records: %w", err)
			}
			for _, r := range daily {
				deaths[b.ID] += r.MortalityCount
			}
		}
		if feeds, err = tx.ListFeeds(ctx); err != nil {
			return fmt.Errorf("list feeds: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return GenerateAlerts(active, deaths, feeds, s.policy, s.now()), nil
}

// RecentActivity returns the newest limit entries across daily, weight and
// finance records. limit <= 0 uses the policy default.
func (s *Service) RecentActivity(ctx context.Context, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = s.policy.RecentActivityLimit
	}
	filter := repository.RecordFilter{Order: repository.OrderByCreated, Limit: limit}

	var (
		daily   []models.DailyRecord
		weights []models.WeightRecord
		finance []models.FinanceRecord
	)
	batches := map[string]models.Batch{}
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		if daily, err = tx.ListDailyRecords(ctx, filter); err != nil {
			return fmt.Errorf("list daily records: %w", err)
		}
		if weights, err = tx.ListWeightRecords(ctx, filter); err != nil {
			return fmt.Errorf("list weight records: %w", err)
		}
		if finance, err = tx.ListFinanceRecords(ctx, filter); err != nil {
			return fmt.Errorf("list finance records: %w", err)
		}

		ids := make([]string, 0, len(daily)+len(weights)+len(finance))
		for _, r := range daily {
			ids = append(ids, r.BatchID)
		}
		for _, r := range weights {
			ids = append(ids, r.BatchID)
		}
		for _, r := range finance {
			ids = append(ids, r.BatchRef())
		}
		for _, id := range ids {
			if _, ok := batches[id]; ok || id == "" {
				continue
			}
			b, err := tx.GetBatch(ctx, id)
			if err != nil {
				if models.IsNotFound(err) {
					continue
				}
				return err
			}
			batches[id] = *b
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return MergeRecentActivity(daily, weights, finance, batches, limit), nil
}

// ListBatches lists batches, optionally by status.
func (s *Service) ListBatches(ctx context.Context, status models.BatchStatus) ([]models.Batch, error) {
	batches, err := s.store.ListBatches(ctx, repository.BatchFilter{Status: status})
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return nonNil(batches), nil
}

// BatchOverview summarises all batches.
func (s *Service) BatchOverview(ctx context.Context) (models.BatchOverview, error) {
	batches, err := s.store.ListBatches(ctx, repository.BatchFilter{})
	if err != nil {
		return models.BatchOverview{}, fmt.Errorf("list batches: %w", err)
	}
	return BuildBatchOverview(batches), nil
}

// BatchDetail loads a batch with its records and stats.
func (s *Service) BatchDetail(ctx context.Context, id string) (*models.BatchDetail, error) {
	return s.detail(ctx, func(ctx context.Context, tx repository.Store) (*models.Batch, error) {
		return tx.GetBatch(ctx, id)
	})
}

// BatchDetailByCode resolves a batch by its code, ignoring case.
func (s *Service) BatchDetailByCode(ctx context.Context, code string) (*models.BatchDetail, error) {
	return s.detail(ctx, func(ctx context.Context, tx repository.Store) (*models.Batch, error) {
		return tx.GetBatchByCode(ctx, code)
	})
}

// ResolveBatch finds a batch by id, falling back to its code.
func (s *Service) ResolveBatch(ctx context.Context, ref string) (*models.Batch, error) {
	batch, err := s.store.GetBatch(ctx, ref)
	if err == nil || !models.IsNotFound(err) {
		return batch, err
	}
	return s.store.GetBatchByCode(ctx, ref)
}

// detail loads the batch found by get, its barn and its records in one view.
func (s *Service) detail(ctx context.Context, get func(context.Context, repository.Store) (*models.Batch, error)) (*models.BatchDetail, error) {
	var (
		batch *models.Batch
		barn  *models.Barn
		recs  BatchRecords
	)
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		if batch, err = get(ctx, tx); err != nil {
			return err
		}
		if recs, err = batchRecords(ctx, tx, batch.ID); err != nil {
			return err
		}
		if batch.BarnID != nil {
			if barn, err = tx.GetBarn(ctx, *batch.BarnID); err != nil && !models.IsNotFound(err) {
				return fmt.Errorf("get barn: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	detail := BuildBatchDetail(*batch, barn, recs, s.policy, s.now())
	return &detail, nil
}

// BatchStats computes the metric view of one batch.
func (s *Service) BatchStats(ctx context.Context, id string) (models.BatchStats, error) {
	var (
		batch *models.Batch
		recs  BatchRecords
	)
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		if batch, err = tx.GetBatch(ctx, id); err != nil {
			return err
		}
		recs, err = batchRecords(ctx, tx, id)
		return err
	})
	if err != nil {
		return models.BatchStats{}, err
	}
	return BuildBatchStats(*batch, recs, s.policy, s.now()), nil
}

func batchRecords(ctx context.Context, tx repository.Store, batchID string) (BatchRecords, error) {
	var (
		recs BatchRecords
		err  error
	)
	filter := repository.RecordFilter{BatchID: batchID}
	if recs.Daily, err = tx.ListDailyRecords(ctx, filter); err != nil {
		return recs, fmt.Errorf("list daily records: %w", err)
	}
	if recs.Weights, err = tx.ListWeightRecords(ctx, filter); err != nil {
		return recs, fmt.Errorf("list weight records: %w", err)
	}
	if recs.Eggs, err = tx.ListEggRecords(ctx, filter); err != nil {
		return recs, fmt.Errorf("list egg records: %w", err)
	}
	if recs.Finance, err = tx.ListFinanceRecords(ctx, filter); err != nil {
		return recs, fmt.Errorf("list finance records: %w", err)
	}
	return recs, nil
}

// DailyRecords lists a batch's daily records, newest date first.
func (s *Service) DailyRecords(ctx context.Context, batchID string) ([]models.DailyRecord, error) {
	var out []models.DailyRecord
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := tx.GetBatch(ctx, batchID); err != nil {
			return err
		}
		var err error
		if out, err = tx.ListDailyRecords(ctx, repository.RecordFilter{BatchID: batchID}); err != nil {
			return fmt.Errorf("list daily records: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

// WeightRecords lists a batch's weighings, newest date first.
func (s *Service) WeightRecords(ctx context.Context, batchID string) ([]models.WeightRecord, error) {
	var out []models.WeightRecord
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := tx.GetBatch(ctx, batchID); err != nil {
			return err
		}
		var err error
		if out, err = tx.ListWeightRecords(ctx, repository.RecordFilter{BatchID: batchID}); err != nil {
			return fmt.Errorf("list weight records: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

// EggRecords lists egg records, optionally for one batch.
func (s *Service) EggRecords(ctx context.Context, batchID string) ([]models.EggRecord, error) {
	out, err := s.store.ListEggRecords(ctx, repository.RecordFilter{BatchID: batchID})
	if err != nil {
		return nil, fmt.Errorf("list egg records: %w", err)
	}
	return nonNil(out), nil
}

// FinanceRecords lists transactions, optionally for one batch.
func (s *Service) FinanceRecords(ctx context.Context, batchID string) ([]models.FinanceRecord, error) {
	out, err := s.store.ListFinanceRecords(ctx, repository.RecordFilter{BatchID: batchID})
	if err != nil {
		return nil, fmt.Errorf("list finance records: %w", err)
	}
	return nonNil(out), nil
}

// WeightSeries returns the batch growth curve ordered by age.
func (s *Service) WeightSeries(ctx context.Context, batchID string) ([]models.WeightPoint, error) {
	weights, err := s.WeightRecords(ctx, batchID)
	if err != nil {
		return nil, err
	}
	return WeightSeries(weights, s.loc), nil
}

// LatestWeight returns the most recent weighing of a batch.
func (s *Service) LatestWeight(ctx context.Context, batchID string) (*models.WeightRecord, error) {
	weights, err := s.WeightRecords(ctx, batchID)
	if err != nil {
		return nil, err
	}
	latest, ok := latestWeight(weights)
	if !ok {
		return nil, models.NotFound("weight record for batch", batchID)
	}
	return &latest, nil
}

// ADG returns the batch average daily gain in grams.
func (s *Service) ADG(ctx context.Context, batchID string) (float64, error) {
	weights, err := s.WeightRecords(ctx, batchID)
	if err != nil {
		return 0, err
	}
	return kpi.AverageDailyGain(weightSamples(weights)), nil
}

// FeedConsumption totals a batch's feeding between from and to, both inclusive.
func (s *Service) FeedConsumption(ctx context.Context, batchID string, from, to time.Time) (models.FeedConsumption, error) {
	daily, err := s.store.ListDailyRecords(ctx, repository.RecordFilter{BatchID: batchID, From: from, To: throughInclusive(to)})
	if err != nil {
		return models.FeedConsumption{}, fmt.Errorf("list daily records: %w", err)
	}
	return SumFeedConsumption(daily), nil
}

// TodayMortality sums deaths recorded today.
func (s *Service) TodayMortality(ctx context.Context) (int, []models.DailyRecord, error) {
	start, end := DayWindow(s.now(), s.loc)
	daily, err := s.store.ListDailyRecords(ctx, repository.RecordFilter{From: start, To: end})
	if err != nil {
		return 0, nil, fmt.Errorf("list daily records: %w", err)
	}
	total := 0
	for _, r := range daily {
		total += r.MortalityCount
	}
	return total, nonNil(daily), nil
}

// TodayEggs sums eggs collected today.
func (s *Service) TodayEggs(ctx context.Context) (int, []models.EggRecord, error) {
	start, end := DayWindow(s.now(), s.loc)
	eggs, err := s.store.ListEggRecords(ctx, repository.RecordFilter{From: start, To: end})
	if err != nil {
		return 0, nil, fmt.Errorf("list egg records: %w", err)
	}
	total := 0
	for _, r := range eggs {
		total += r.TotalEggs
	}
	return total, nonNil(eggs), nil
}

// RangeQuery narrows summaries. From and To are inclusive; zero is unbounded.
type RangeQuery struct {
	BatchID string
	From    time.Time
	To      time.Time
}

func (q RangeQuery) filter() repository.RecordFilter {
	return repository.RecordFilter{BatchID: q.BatchID, From: q.From, To: throughInclusive(q.To)}
}

// FinanceSummary totals transactions matching q.
func (s *Service) FinanceSummary(ctx context.Context, q RangeQuery) (models.FinanceSummary, error) {
	records, err := s.store.ListFinanceRecords(ctx, q.filter())
	if err != nil {
		return models.FinanceSummary{}, fmt.Errorf("list finance records: %w", err)
	}
	return SummarizeFinance(records), nil
}

// BatchFinance splits one batch's transactions into cost buckets.
func (s *Service) BatchFinance(ctx context.Context, batchID string) (models.BatchFinance, error) {
	records, err := s.store.ListFinanceRecords(ctx, repository.RecordFilter{BatchID: batchID})
	if err != nil {
		return models.BatchFinance{}, fmt.Errorf("list finance records: %w", err)
	}
	return SummarizeBatchFinance(records), nil
}

// EggSummary totals egg production matching q.
func (s *Service) EggSummary(ctx context.Context, q RangeQuery) (models.EggSummary, error) {
	records, err := s.store.ListEggRecords(ctx, q.filter())
	if err != nil {
		return models.EggSummary{}, fmt.Errorf("list egg records: %w", err)
	}
	return SummarizeEggs(records, s.loc), nil
}

// FeedStock reports inventory, low stock and consumption.
func (s *Service) FeedStock(ctx context.Context) (models.FeedStockReport, error) {
	var (
		feeds []models.FeedInventory
		outs  []models.FeedStockMovement
	)
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		if feeds, err = tx.ListFeeds(ctx); err != nil {
			return fmt.Errorf("list feeds: %w", err)
		}
		if outs, err = tx.ListStockMovements(ctx, repository.MovementFilter{Type: models.MovementOut}); err != nil {
			return fmt.Errorf("list stock movements: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.FeedStockReport{}, err
	}
	return BuildFeedStockReport(feeds, outs), nil
}

// FeedDetail returns a feed item with its movement history.
func (s *Service) FeedDetail(ctx context.Context, id string) (*models.FeedDetail, error) {
	var (
		feed  *models.FeedInventory
		moves []models.FeedStockMovement
	)
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		if feed, err = tx.GetFeed(ctx, id); err != nil {
			return err
		}
		if moves, err = tx.ListStockMovements(ctx, repository.MovementFilter{FeedID: id}); err != nil {
			return fmt.Errorf("list stock movements: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &models.FeedDetail{FeedInventory: *feed, Movements: nonNil(moves)}, nil
}

// ListBarns lists every barn.
func (s *Service) ListBarns(ctx context.Context) ([]models.Barn, error) {
	barns, err := s.store.ListBarns(ctx)
	if err != nil {
		return nil, fmt.Errorf("list barns: %w", err)
	}
	return nonNil(barns), nil
}

// BarnDetail returns a barn with its batches and occupancy.
func (s *Service) BarnDetail(ctx context.Context, id string) (*models.BarnDetail, error) {
	var (
		barn    *models.Barn
		batches []models.Batch
	)
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		if barn, err = tx.GetBarn(ctx, id); err != nil {
			return err
		}
		if batches, err = tx.ListBatches(ctx, repository.BatchFilter{BarnID: id}); err != nil {
			return fmt.Errorf("list batches: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &models.BarnDetail{Barn: *barn, Batches: nonNil(batches), Stats: BuildBarnStats(*barn, batches)}, nil
}

// BarnPerformance averages outcomes of the barn's completed batches.
func (s *Service) BarnPerformance(ctx context.Context, id string) (models.BarnPerformance, error) {
	var batches []models.Batch
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := tx.GetBarn(ctx, id); err != nil {
			return err
		}
		var err error
		if batches, err = tx.ListBatches(ctx, repository.BatchFilter{BarnID: id}); err != nil {
			return fmt.Errorf("list batches: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.BarnPerformance{}, err
	}
	return BuildBarnPerformance(batches), nil
}
