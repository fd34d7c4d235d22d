package records

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bebeku/farm/internal/domain/models"
	"github.com/bebeku/farm/internal/repository"
)

const defaultSampleSize = 10

// WeightInput is one weighing session.
type WeightInput struct {
	BatchID         string    `json:"batch_id"`
	RecordDate      time.Time `json:"record_date"`
	AverageWeightGr float64   `json:"average_weight_gr"`
	SampleSize      int       `json:"sample_size,omitempty"`
	BirdAgeDays     *int      `json:"bird_age_days,omitempty"`
	Notes           string    `json:"notes,omitempty"`
}

func (in *WeightInput) validate() error {
	if in.AverageWeightGr <= 0 {
		return models.InvalidField("average_weight_gr", "must be greater than 0")
	}
	if in.SampleSize < 0 {
		return models.InvalidField("sample_size", "must be at least 1")
	}
	if in.SampleSize == 0 {
		in.SampleSize = defaultSampleSize
	}
	if in.BirdAgeDays != nil && *in.BirdAgeDays < 0 {
		return models.InvalidField("bird_age_days", "must not be negative")
	}
	return nil
}

// AddWeightRecord stores a weighing. The bird age defaults to the batch age on
// the record date.
func (s *Service) AddWeightRecord(ctx context.Context, in WeightInput) (*models.WeightRecord, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var rec models.WeightRecord
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		batch, err := tx.GetBatch(ctx, in.BatchID)
		if err != nil {
			return err
		}
		date := s.dateOrNow(in.RecordDate)
		age := s.ageOn(batch.StartDate, date)
		if in.BirdAgeDays != nil {
			age = *in.BirdAgeDays
		}
		rec = models.WeightRecord{
			ID:              s.newID(),
			BatchID:         batch.ID,
			RecordDate:      date,
			AverageWeightGr: in.AverageWeightGr,
			SampleSize:      in.SampleSize,
			BirdAgeDays:     age,
			Notes:           in.Notes,
			CreatedAt:       s.stamp(),
		}
		return tx.CreateWeightRecord(ctx, &rec)
	})
	if err != nil {
		return nil, fmt.Errorf("add weight record: %w", err)
	}

	s.logger.Info("weight record added", zap.String("record_id", rec.ID), zap.String("batch_id", rec.BatchID), zap.Float64("average_weight_gr", rec.AverageWeightGr))
	return &rec, nil
}

// UpdateWeightRecord rewrites a weighing.
func (s *Service) UpdateWeightRecord(ctx context.Context, id string, in WeightInput) (*models.WeightRecord, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var rec *models.WeightRecord
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		if rec, err = tx.GetWeightRecord(ctx, id); err != nil {
			return err
		}
		if !in.RecordDate.IsZero() {
			rec.RecordDate = in.RecordDate.UTC()
		}
		if in.BirdAgeDays != nil {
			rec.BirdAgeDays = *in.BirdAgeDays
		}
		rec.AverageWeightGr = in.AverageWeightGr
		rec.SampleSize = in.SampleSize
		rec.Notes = in.Notes
		return tx.UpdateWeightRecord(ctx, rec)
	})
	if err != nil {
		return nil, fmt.Errorf("update weight record: %w", err)
	}
	return rec, nil
}

// DeleteWeightRecord removes a weighing.
func (s *Service) DeleteWeightRecord(ctx context.Context, id string) error {
	if err := s.store.DeleteWeightRecord(ctx, id); err != nil {
		return fmt.Errorf("delete weight record: %w", err)
	}
	s.logger.Info("weight record deleted", zap.String("record_id", id))
	return nil
}

// EggInput is one egg collection. GoodEggs defaults to TotalEggs; the parts
// are not required to add up to the total.
type EggInput struct {
	BatchID     string    `json:"batch_id"`
	RecordDate  time.Time `json:"record_date"`
	TotalEggs   int       `json:"total_eggs"`
	GoodEggs    *int      `json:"good_eggs,omitempty"`
	DamagedEggs int       `json:"damaged_eggs,omitempty"`
	SmallEggs   int       `json:"small_eggs,omitempty"`
	Notes       string    `json:"notes,omitempty"`
}

func (in EggInput) validate() error {
	if in.TotalEggs < 0 {
		return models.InvalidField("total_eggs", "must not be negative")
	}
	if in.GoodEggs != nil && *in.GoodEggs < 0 {
		return models.InvalidField("good_eggs", "must not be negative")
	}
	if in.DamagedEggs < 0 {
		return models.InvalidField("damaged_eggs", "must not be negative")
	}
	if in.SmallEggs < 0 {
		return models.InvalidField("small_eggs", "must not be negative")
	}
	return nil
}

func (in EggInput) good() int {
	if in.GoodEggs == nil {
		return in.TotalEggs
	}
	return *in.GoodEggs
}

// AddEggRecord stores an egg collection.
func (s *Service) AddEggRecord(ctx context.Context, in EggInput) (*models.EggRecord, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var rec models.EggRecord
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		batch, err := tx.GetBatch(ctx, in.BatchID)
		if err != nil {
			return err
		}
		rec = models.EggRecord{
			ID:          s.newID(),
			BatchID:     batch.ID,
			RecordDate:  s.dateOrNow(in.RecordDate),
			TotalEggs:   in.TotalEggs,
			GoodEggs:    in.good(),
			DamagedEggs: in.DamagedEggs,
			SmallEggs:   in.SmallEggs,
			Notes:       in.Notes,
			CreatedAt:   s.stamp(),
		}
		return tx.CreateEggRecord(ctx, &rec)
	})
	if err != nil {
		return nil, fmt.Errorf("add egg record: %w", err)
	}

	s.logger.Info("egg record added", zap.String("record_id", rec.ID), zap.String("batch_id", rec.BatchID), zap.Int("total_eggs", rec.TotalEggs))
	return &rec, nil
}

// UpdateEggRecord rewrites an egg collection.
func (s *Service) UpdateEggRecord(ctx context.Context, id string, in EggInput) (*models.EggRecord, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var rec *models.EggRecord
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		if rec, err = tx.GetEggRecord(ctx, id); err != nil {
			return err
		}
		if !in.RecordDate.IsZero() {
			rec.RecordDate = in.RecordDate.UTC()
		}
		rec.TotalEggs = in.TotalEggs
		rec.GoodEggs = in.good()
		rec.DamagedEggs = in.DamagedEggs
		rec.SmallEggs = in.SmallEggs
		rec.Notes = in.Notes
		return tx.UpdateEggRecord(ctx, rec)
	})
	if err != nil {
		return nil, fmt.Errorf("update egg record: %w", err)
	}
	return rec, nil
}

// DeleteEggRecord removes an egg collection.
func (s *Service) DeleteEggRecord(ctx context.Context, id string) error {
	if err := s.store.DeleteEggRecord(ctx, id); err != nil {
		return fmt.Errorf("delete egg record: %w", err)
	}
	s.logger.Info("egg record deleted", zap.String("record_id", id))
	return nil
}

// FinanceInput is an income or expense transaction. BatchID is optional.
type FinanceInput struct {
	BatchID         *string            `json:"batch_id,omitempty"`
	TransactionDate time.Time          `json:"transaction_date"`
	Type            models.FinanceType `json:"type"`
	Category        string             `json:"category"`
	Amount          float64            `json:"amount"`
	Description     string             `json:"description,omitempty"`
}

func (in FinanceInput) validate() error {
	if !in.Type.Valid() {
		return models.InvalidField("type", "must be income or expense")
	}
	if strings.TrimSpace(in.Category) == "" {
		return models.InvalidField("category", "is required")
	}
	return nonNegative("amount", in.Amount)
}

func checkBatchRef(ctx context.Context, tx repository.Store, batchID *string) (*string, error) {
	if batchID == nil || *batchID == "" {
		return nil, nil
	}
	if _, err := tx.GetBatch(ctx, *batchID); err != nil {
		return nil, err
	}
	return batchID, nil
}

// AddFinanceRecord stores a transaction.
func (s *Service) AddFinanceRecord(ctx context.Context, in FinanceInput) (*models.FinanceRecord, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var rec models.FinanceRecord
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		batchID, err := checkBatchRef(ctx, tx, in.BatchID)
		if err != nil {
			return err
		}
		rec = models.FinanceRecord{
			ID:              s.newID(),
			BatchID:         batchID,
			TransactionDate: s.dateOrNow(in.TransactionDate),
			Type:            in.Type,
			Category:        strings.TrimSpace(in.Category),
			Amount:          in.Amount,
			Description:     in.Description,
			CreatedAt:       s.stamp(),
		}
		return tx.CreateFinanceRecord(ctx, &rec)
	})
	if err != nil {
		return nil, fmt.Errorf("add finance record: %w", err)
	}

	s.logger.Info("finance record added", zap.String("record_id", rec.ID), zap.String("type", string(rec.Type)), zap.String("category", rec.Category), zap.Float64("amount", rec.Amount))
	return &rec, nil
}

// UpdateFinanceRecord rewrites a transaction.
func (s *Service) UpdateFinanceRecord(ctx context.Context, id string, in FinanceInput) (*models.FinanceRecord, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var rec *models.FinanceRecord
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		if rec, err = tx.GetFinanceRecord(ctx, id); err != nil {
			return err
		}
		if rec.BatchID, err = checkBatchRef(ctx, tx, in.BatchID); err != nil {
			return err
		}
		if !in.TransactionDate.IsZero() {
			rec.TransactionDate = in.TransactionDate.UTC()
		}
		rec.Type = in.Type
		rec.Category = strings.TrimSpace(in.Category)
		rec.Amount = in.Amount
		rec.Description = in.Description
		return tx.UpdateFinanceRecord(ctx, rec)
	})
	if err != nil {
		return nil, fmt.Errorf("update finance record: %w", err)
	}
	return rec, nil
}

// DeleteFinanceRecord removes a transaction.
func (s *Service) DeleteFinanceRecord(ctx context.Context, id string) error {
	if err := s.store.DeleteFinanceRecord(ctx, id); err != nil {
		return fmt.Errorf("delete finance record: %w", err)
	}
	s.logger.Info("finance record deleted", zap.String("record_id", id))
	return nil
}
