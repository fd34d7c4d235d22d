package records

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bebeku/farm/internal/domain/kpi"
	"github.com/bebeku/farm/internal/domain/models"
	"github.com/bebeku/farm/internal/repository"
)

// DailyRecordInput holds one day of mortality and feeding.
type DailyRecordInput struct {
	BatchID        string    `json:"batch_id"`
	RecordDate     time.Time `json:"record_date"`
	MortalityCount int       `json:"mortality_count"`
	MortalityCause string    `json:"mortality_cause,omitempty"`
	FeedMorningKg  float64   `json:"feed_morning_kg"`
	FeedEveningKg  float64   `json:"feed_evening_kg"`
	FeedType       string    `json:"feed_type,omitempty"`
	Notes          string    `json:"notes,omitempty"`
}

func (in DailyRecordInput) validate() error {
	if in.MortalityCount < 0 {
		return models.InvalidField("mortality_count", "must not be negative")
	}
	if err := nonNegative("feed_morning_kg", in.FeedMorningKg); err != nil {
		return err
	}
	return nonNegative("feed_evening_kg", in.FeedEveningKg)
}

// DailyRecordResult is the stored record with the batch population it left behind.
type DailyRecordResult struct {
	Record            models.DailyRecord `json:"record"`
	CurrentPopulation int                `json:"current_population"`
	// MortalityAlert is true when the day's deaths exceed the daily-rate
	// threshold of the population the day started with.
	MortalityAlert bool `json:"mortality_alert"`
}

// AddDailyRecord appends a daily record and recomputes the batch population.
func (s *Service) AddDailyRecord(ctx context.Context, in DailyRecordInput) (*DailyRecordResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var result DailyRecordResult
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		before, err := tx.GetBatch(ctx, in.BatchID)
		if err != nil {
			return err
		}

		now := s.stamp()
		rec := models.DailyRecord{
			ID:             s.newID(),
			BatchID:        before.ID,
			RecordDate:     s.dateOrNow(in.RecordDate),
			MortalityCount: in.MortalityCount,
			MortalityCause: in.MortalityCause,
			FeedMorningKg:  in.FeedMorningKg,
			FeedEveningKg:  in.FeedEveningKg,
			FeedType:       in.FeedType,
			Notes:          in.Notes,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.CreateDailyRecord(ctx, &rec); err != nil {
			return err
		}

		after, err := recomputePopulation(ctx, tx, before.ID)
		if err != nil {
			return err
		}
		result = DailyRecordResult{
			Record:            rec,
			CurrentPopulation: after.CurrentPopulation,
			MortalityAlert:    kpi.IsMortalityAlert(in.MortalityCount, before.CurrentPopulation, s.dailyThresholdPct),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("add daily record: %w", err)
	}

	s.logger.Info("daily record added",
		zap.String("record_id", result.Record.ID),
		zap.String("batch_id", result.Record.BatchID),
		zap.Int("mortality", result.Record.MortalityCount),
		zap.Int("population", result.CurrentPopulation),
	)
	if result.MortalityAlert {
		s.logger.Warn("daily mortality above threshold",
			zap.String("batch_id", result.Record.BatchID),
			zap.Int("mortality", result.Record.MortalityCount),
			zap.Float64("threshold_pct", s.dailyThresholdPct),
		)
	}
	return &result, nil
}

// UpdateDailyRecord rewrites a daily record and recomputes its batch. The
// owning batch cannot change.
func (s *Service) UpdateDailyRecord(ctx context.Context, id string, in DailyRecordInput) (*DailyRecordResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var result DailyRecordResult
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		rec, err := tx.GetDailyRecord(ctx, id)
		if err != nil {
			return err
		}
		if !in.RecordDate.IsZero() {
			rec.RecordDate = in.RecordDate.UTC()
		}
		rec.MortalityCount = in.MortalityCount
		rec.MortalityCause = in.MortalityCause
		rec.FeedMorningKg = in.FeedMorningKg
		rec.FeedEveningKg = in.FeedEveningKg
		rec.FeedType = in.FeedType
		rec.Notes = in.Notes
		rec.UpdatedAt = s.stamp()
		if err := tx.UpdateDailyRecord(ctx, rec); err != nil {
			return err
		}

		batch, err := recomputePopulation(ctx, tx, rec.BatchID)
		if err != nil {
			return err
		}
		result = DailyRecordResult{Record: *rec, CurrentPopulation: batch.CurrentPopulation}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update daily record: %w", err)
	}

	s.logger.Info("daily record updated", zap.String("record_id", id), zap.Int("population", result.CurrentPopulation))
	return &result, nil
}

// DeleteDailyRecord removes a daily record and recomputes its batch.
func (s *Service) DeleteDailyRecord(ctx context.Context, id string) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		rec, err := tx.GetDailyRecord(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteDailyRecord(ctx, id); err != nil {
			return err
		}
		_, err = recomputePopulation(ctx, tx, rec.BatchID)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete daily record: %w", err)
	}

	s.logger.Info("daily record deleted", zap.String("record_id", id))
	return nil
}
