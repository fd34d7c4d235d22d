package records

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/bebeku/farm/internal/domain/models"
	"github.com/bebeku/farm/internal/repository"
)

// BarnInput holds the editable barn fields.
type BarnInput struct {
	Name        string            `json:"name"`
	Capacity    int               `json:"capacity"`
	Location    string            `json:"location,omitempty"`
	Description string            `json:"description,omitempty"`
	Status      models.BarnStatus `json:"status,omitempty"`
}

func (in *BarnInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return models.InvalidField("name", "is required")
	}
	if in.Capacity <= 0 {
		return models.InvalidField("capacity", "must be greater than 0")
	}
	if in.Status == "" {
		in.Status = models.BarnActive
	}
	if !in.Status.Valid() {
		return models.InvalidField("status", "must be active, inactive or maintenance")
	}
	return nil
}

// CreateBarn registers a barn under the next K-NNN code.
func (s *Service) CreateBarn(ctx context.Context, in BarnInput) (*models.Barn, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var barn models.Barn
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		barns, err := tx.ListBarns(ctx)
		if err != nil {
			return fmt.Errorf("list barns: %w", err)
		}
		seq := 0
		for _, b := range barns {
			seq = max(seq, codeSequence(b.Code, "K-"))
		}

		now := s.stamp()
		barn = models.Barn{
			ID:          s.newID(),
			Code:        fmt.Sprintf("K-%03d", seq+1),
			Name:        strings.TrimSpace(in.Name),
			Capacity:    in.Capacity,
			Location:    in.Location,
			Description: in.Description,
			Status:      in.Status,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return tx.CreateBarn(ctx, &barn)
	})
	if err != nil {
		return nil, fmt.Errorf("create barn: %w", err)
	}

	s.logger.Info("barn created", zap.String("barn_id", barn.ID), zap.String("code", barn.Code))
	return &barn, nil
}

// UpdateBarn replaces the editable fields; the code never changes.
func (s *Service) UpdateBarn(ctx context.Context, id string, in BarnInput) (*models.Barn, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var barn *models.Barn
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		if barn, err = tx.GetBarn(ctx, id); err != nil {
			return err
		}
		barn.Name = strings.TrimSpace(in.Name)
		barn.Capacity = in.Capacity
		barn.Location = in.Location
		barn.Description = in.Description
		barn.Status = in.Status
		barn.UpdatedAt = s.stamp()
		return tx.UpdateBarn(ctx, barn)
	})
	if err != nil {
		return nil, fmt.Errorf("update barn: %w", err)
	}
	return barn, nil
}

// DeleteBarn removes a barn that houses no active batch.
func (s *Service) DeleteBarn(ctx context.Context, id string) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := tx.GetBarn(ctx, id); err != nil {
			return err
		}
		active, err := tx.ListBatches(ctx, repository.BatchFilter{BarnID: id, Status: models.BatchActive})
		if err != nil {
			return fmt.Errorf("list batches: %w", err)
		}
		if len(active) > 0 {
			return models.ErrBarnHasActiveBatches
		}
		return tx.DeleteBarn(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete barn: %w", err)
	}

	s.logger.Info("barn deleted", zap.String("barn_id", id))
	return nil
}

// codeSequence extracts NNN from codes like K-007 or B-2026-012 given their
// prefix; unparsable codes count as 0.
func codeSequence(code, prefix string) int {
	if !strings.HasPrefix(code, prefix) {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimPrefix(code, prefix))
	if err != nil {
		return 0
	}
	return n
}
