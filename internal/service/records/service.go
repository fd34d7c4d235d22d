// Package records applies writes to farm records and keeps the denormalized
// batch population and feed stock consistent with them.
package records

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
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

// WithDailyMortalityThreshold sets the daily-rate guard in percent.
func WithDailyMortalityThreshold(pct float64) Option {
	return func(s *Service) { s.dailyThresholdPct = pct }
}

// WithLocation sets the farm zone used for batch code years and bird ages.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithIDGenerator overrides how entity ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// Service owns every farm write. Each write and its recomputation run in one
// store transaction.
type Service struct {
	store             repository.Store
	logger            *zap.Logger
	now               func() time.Time
	newID             func() string
	loc               *time.Location
	dailyThresholdPct float64
}

// NewService constructs the record mutators.
func NewService(store repository.Store, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:             store,
		logger:            logger,
		now:               time.Now,
		newID:             uuid.NewString,
		loc:               time.Local,
		dailyThresholdPct: kpi.DefaultDailyMortalityThresholdPct,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// stamp returns the current time in UTC, the form every store persists.
func (s *Service) stamp() time.Time {
	return s.now().UTC()
}

// dateOrNow normalises a business date, defaulting to now.
func (s *Service) dateOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return s.stamp()
	}
	return t.UTC()
}

// ageOn is the number of farm-local calendar days from start to date.
func (s *Service) ageOn(start, date time.Time) int {
	midnight := func(t time.Time) time.Time {
		y, m, d := t.In(s.loc).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return max(0, kpi.BirdAgeDays(midnight(start), midnight(date)))
}

// recomputePopulation rescans every daily record of the batch and stores
// initialPopulation minus total deaths, floored at 0.
func recomputePopulation(ctx context.Context, tx repository.Store, batchID string) (*models.Batch, error) {
	batch, err := tx.GetBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	daily, err := tx.ListDailyRecords(ctx, repository.RecordFilter{BatchID: batchID})
	if err != nil {
		return nil, fmt.Errorf("list daily records: %w", err)
	}

	deaths := 0
	for _, rec := range daily {
		deaths += rec.MortalityCount
	}
	population := max(0, batch.InitialPopulation-deaths)
	if population == batch.CurrentPopulation {
		return batch, nil
	}

	batch.CurrentPopulation = population
	if err := tx.UpdateBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("update batch population: %w", err)
	}
	return batch, nil
}

func nonNegative(field string, v float64) error {
	if v < 0 {
		return models.InvalidField(field, "must not be negative")
	}
	return nil
}
