package records

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bebeku/farm/internal/domain/models"
	"github.com/bebeku/farm/internal/repository"
)

// BatchInput creates a batch.
type BatchInput struct {
	Name              string    `json:"name,omitempty"`
	StartDate         time.Time `json:"start_date"`
	InitialPopulation int       `json:"initial_population"`
	TargetHarvestAge  int       `json:"target_harvest_age,omitempty"`
	DOCWeightGr       *float64  `json:"doc_weight_gr,omitempty"`
	BarnID            *string   `json:"barn_id,omitempty"`
	Notes             string    `json:"notes,omitempty"`
}

// BatchUpdate edits a batch; nil fields are left alone. The initial
// population cannot change after creation.
type BatchUpdate struct {
	Name             *string             `json:"name,omitempty"`
	StartDate        *time.Time          `json:"start_date,omitempty"`
	TargetHarvestAge *int                `json:"target_harvest_age,omitempty"`
	DOCWeightGr      *float64            `json:"doc_weight_gr,omitempty"`
	BarnID           *string             `json:"barn_id,omitempty"`
	Status           *models.BatchStatus `json:"status,omitempty"`
	Notes            *string             `json:"notes,omitempty"`
}

// CloseBatchInput records the harvest of a batch.
type CloseBatchInput struct {
	HarvestDate        *time.Time `json:"harvest_date,omitempty"`
	HarvestWeightTotal *float64   `json:"harvest_weight_total,omitempty"`
}

// CreateBatch starts a batch under the next B-YYYY-NNN code of the current year.
func (s *Service) CreateBatch(ctx context.Context, in BatchInput) (*models.Batch, error) {
	if in.InitialPopulation <= 0 {
		return nil, models.InvalidField("initial_population", "must be greater than 0")
	}
	if in.TargetHarvestAge < 0 {
		return nil, models.InvalidField("target_harvest_age", "must not be negative")
	}
	if in.TargetHarvestAge == 0 {
		in.TargetHarvestAge = models.DefaultTargetHarvestAge
	}
	if in.DOCWeightGr != nil && *in.DOCWeightGr <= 0 {
		return nil, models.InvalidField("doc_weight_gr", "must be greater than 0")
	}

	var batch models.Batch
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if in.BarnID != nil && *in.BarnID != "" {
			if _, err := tx.GetBarn(ctx, *in.BarnID); err != nil {
				return err
			}
		} else {
			in.BarnID = nil
		}

		now := s.stamp()
		prefix := fmt.Sprintf("B-%d-", s.now().In(s.loc).Year())
		existing, err := tx.ListBatches(ctx, repository.BatchFilter{CodePrefix: prefix})
		if err != nil {
			return fmt.Errorf("list batches: %w", err)
		}
		seq := 0
		for _, b := range existing {
			seq = max(seq, codeSequence(b.Code, prefix))
		}

		batch = models.Batch{
			ID:                s.newID(),
			Code:              fmt.Sprintf("%s%03d", prefix, seq+1),
			Name:              in.Name,
			StartDate:         s.dateOrNow(in.StartDate),
			InitialPopulation: in.InitialPopulation,
			CurrentPopulation: in.InitialPopulation,
			TargetHarvestAge:  in.TargetHarvestAge,
			DOCWeightGr:       in.DOCWeightGr,
			BarnID:            in.BarnID,
			Status:            models.BatchActive,
			Notes:             in.Notes,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		return tx.CreateBatch(ctx, &batch)
	})
	if err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}

	s.logger.Info("batch created", zap.String("batch_id", batch.ID), zap.String("code", batch.Code), zap.Int("population", batch.InitialPopulation))
	return &batch, nil
}

// UpdateBatch applies the non-nil fields of in.
func (s *Service) UpdateBatch(ctx context.Context, id string, in BatchUpdate) (*models.Batch, error) {
	if in.TargetHarvestAge != nil && *in.TargetHarvestAge <= 0 {
		return nil, models.InvalidField("target_harvest_age", "must be greater than 0")
	}
	if in.DOCWeightGr != nil && *in.DOCWeightGr <= 0 {
		return nil, models.InvalidField("doc_weight_gr", "must be greater than 0")
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, models.InvalidField("status", "must be active, completed or cancelled")
	}

	var batch *models.Batch
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		if batch, err = tx.GetBatch(ctx, id); err != nil {
			return err
		}
		if in.BarnID != nil {
			if *in.BarnID == "" {
				batch.BarnID = nil
			} else {
				if _, err := tx.GetBarn(ctx, *in.BarnID); err != nil {
					return err
				}
				batch.BarnID = in.BarnID
			}
		}
		if in.Name != nil {
			batch.Name = *in.Name
		}
		if in.StartDate != nil {
			batch.StartDate = in.StartDate.UTC()
		}
		if in.TargetHarvestAge != nil {
			batch.TargetHarvestAge = *in.TargetHarvestAge
		}
		if in.DOCWeightGr != nil {
			batch.DOCWeightGr = in.DOCWeightGr
		}
		if in.Status != nil {
			batch.Status = *in.Status
		}
		if in.Notes != nil {
			batch.Notes = *in.Notes
		}
		batch.UpdatedAt = s.stamp()
		return tx.UpdateBatch(ctx, batch)
	})
	if err != nil {
		return nil, fmt.Errorf("update batch: %w", err)
	}
	return batch, nil
}

// CloseBatch marks an active batch completed with its harvest data.
func (s *Service) CloseBatch(ctx context.Context, id string, in CloseBatchInput) (*models.Batch, error) {
	if in.HarvestWeightTotal != nil && *in.HarvestWeightTotal < 0 {
		return nil, models.InvalidField("harvest_weight_total", "must not be negative")
	}

	var batch *models.Batch
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		if batch, err = tx.GetBatch(ctx, id); err != nil {
			return err
		}
		if batch.Status != models.BatchActive {
			return models.ErrBatchNotActive
		}
		harvest := s.stamp()
		if in.HarvestDate != nil {
			harvest = in.HarvestDate.UTC()
		}
		batch.Status = models.BatchCompleted
		batch.HarvestDate = &harvest
		batch.HarvestWeightTotal = in.HarvestWeightTotal
		batch.UpdatedAt = s.stamp()
		return tx.UpdateBatch(ctx, batch)
	})
	if err != nil {
		return nil, fmt.Errorf("close batch: %w", err)
	}

	s.logger.Info("batch closed", zap.String("batch_id", batch.ID), zap.Int("population", batch.CurrentPopulation))
	return batch, nil
}

// DeleteBatch removes a batch that owns no daily, weight or egg records.
// Finance records keep their batch reference.
func (s *Service) DeleteBatch(ctx context.Context, id string) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := tx.GetBatch(ctx, id); err != nil {
			return err
		}
		probe := repository.RecordFilter{BatchID: id, Limit: 1}
		daily, err := tx.ListDailyRecords(ctx, probe)
		if err != nil {
			return fmt.Errorf("list daily records: %w", err)
		}
		weights, err := tx.ListWeightRecords(ctx, probe)
		if err != nil {
			return fmt.Errorf("list weight records: %w", err)
		}
		eggs, err := tx.ListEggRecords(ctx, probe)
		if err != nil {
			return fmt.Errorf("list egg records: %w", err)
		}
		if len(daily)+len(weights)+len(eggs) > 0 {
			return models.ErrBatchHasRecords
		}
		return tx.DeleteBatch(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}

	s.logger.Info("batch deleted", zap.String("batch_id", id))
	return nil
}
