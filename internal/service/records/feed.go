package records

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bebeku/farm/internal/domain/kpi"
	"github.com/bebeku/farm/internal/domain/models"
	"github.com/bebeku/farm/internal/repository"
)

// FeedInput describes a feed item. OpeningStockKg is only read on creation.
type FeedInput struct {
	Name           string          `json:"name"`
	Type           models.FeedType `json:"type"`
	ProteinContent string          `json:"protein_content,omitempty"`
	OpeningStockKg float64         `json:"opening_stock_kg,omitempty"`
	MinStockAlert  *float64        `json:"min_stock_alert,omitempty"`
	UnitPrice      *float64        `json:"unit_price,omitempty"`
	Supplier       string          `json:"supplier,omitempty"`
	Notes          string          `json:"notes,omitempty"`
}

func (in FeedInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return models.InvalidField("name", "is required")
	}
	if !in.Type.Valid() {
		return models.InvalidField("type", "must be starter, grower, finisher or layer")
	}
	if err := nonNegative("opening_stock_kg", in.OpeningStockKg); err != nil {
		return err
	}
	if in.MinStockAlert != nil {
		if err := nonNegative("min_stock_alert", *in.MinStockAlert); err != nil {
			return err
		}
	}
	if in.UnitPrice != nil {
		return nonNegative("unit_price", *in.UnitPrice)
	}
	return nil
}

func (in FeedInput) minStock() float64 {
	if in.MinStockAlert == nil {
		return models.DefaultMinStockAlertKg
	}
	return *in.MinStockAlert
}

// CreateFeed registers a feed item with zero stock and books any opening
// stock as an "in" movement.
func (s *Service) CreateFeed(ctx context.Context, in FeedInput) (*models.FeedInventory, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var feed *models.FeedInventory
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		now := s.stamp()
		created := models.FeedInventory{
			ID:             s.newID(),
			Name:           strings.TrimSpace(in.Name),
			Type:           in.Type,
			ProteinContent: in.ProteinContent,
			MinStockAlert:  in.minStock(),
			UnitPrice:      in.UnitPrice,
			Supplier:       in.Supplier,
			Notes:          in.Notes,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.CreateFeed(ctx, &created); err != nil {
			return err
		}
		feed = &created
		if in.OpeningStockKg == 0 {
			return nil
		}

		var err error
		_, feed, err = s.applyMovement(ctx, tx, MovementInput{
			FeedID:     created.ID,
			Type:       models.MovementIn,
			QuantityKg: in.OpeningStockKg,
			Date:       now,
			Notes:      "Stok awal",
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create feed: %w", err)
	}

	s.logger.Info("feed created", zap.String("feed_id", feed.ID), zap.Float64("stock_kg", feed.CurrentStockKg))
	return feed, nil
}

// UpdateFeed edits feed metadata. A nil MinStockAlert or UnitPrice keeps the
// stored value. Stock only changes through movements.
func (s *Service) UpdateFeed(ctx context.Context, id string, in FeedInput) (*models.FeedInventory, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var feed *models.FeedInventory
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		if feed, err = tx.GetFeed(ctx, id); err != nil {
			return err
		}
		feed.Name = strings.TrimSpace(in.Name)
		feed.Type = in.Type
		feed.ProteinContent = in.ProteinContent
		if in.MinStockAlert != nil {
			feed.MinStockAlert = *in.MinStockAlert
		}
		if in.UnitPrice != nil {
			feed.UnitPrice = in.UnitPrice
		}
		feed.Supplier = in.Supplier
		feed.Notes = in.Notes
		feed.UpdatedAt = s.stamp()
		return tx.UpdateFeed(ctx, feed)
	})
	if err != nil {
		return nil, fmt.Errorf("update feed: %w", err)
	}
	return feed, nil
}

// DeleteFeed removes a feed item and its movement history.
func (s *Service) DeleteFeed(ctx context.Context, id string) error {
	if err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		return tx.DeleteFeed(ctx, id)
	}); err != nil {
		return fmt.Errorf("delete feed: %w", err)
	}
	s.logger.Info("feed deleted", zap.String("feed_id", id))
	return nil
}

// MovementInput is a feed purchase (in) or consumption (out).
type MovementInput struct {
	FeedID     string              `json:"feed_id"`
	Type       models.MovementType `json:"type"`
	QuantityKg float64             `json:"quantity_kg"`
	Date       time.Time           `json:"date"`
	BatchID    *string             `json:"batch_id,omitempty"`
	Notes      string              `json:"notes,omitempty"`
}

func (in MovementInput) validate() error {
	if !in.Type.Valid() {
		return models.InvalidField("type", "must be in or out")
	}
	if in.QuantityKg <= 0 {
		return models.InvalidField("quantity_kg", "must be greater than 0")
	}
	return nil
}

// AddStockMovement books a movement and applies it to the feed stock.
// Outgoing quantities beyond the stock clamp it to 0.
func (s *Service) AddStockMovement(ctx context.Context, in MovementInput) (*models.FeedStockMovement, *models.FeedInventory, error) {
	if err := in.validate(); err != nil {
		return nil, nil, err
	}

	var (
		mv   *models.FeedStockMovement
		feed *models.FeedInventory
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		mv, feed, err = s.applyMovement(ctx, tx, in)
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("add stock movement: %w", err)
	}

	s.logger.Info("stock movement added",
		zap.String("feed_id", feed.ID),
		zap.String("type", string(mv.Type)),
		zap.Float64("quantity_kg", mv.QuantityKg),
		zap.Float64("stock_kg", feed.CurrentStockKg),
	)
	return mv, feed, nil
}

func (s *Service) applyMovement(ctx context.Context, tx repository.Store, in MovementInput) (*models.FeedStockMovement, *models.FeedInventory, error) {
	if err := in.validate(); err != nil {
		return nil, nil, err
	}
	feed, err := tx.GetFeed(ctx, in.FeedID)
	if err != nil {
		return nil, nil, err
	}
	batchID, err := checkBatchRef(ctx, tx, in.BatchID)
	if err != nil {
		return nil, nil, err
	}

	mv := models.FeedStockMovement{
		ID:         s.newID(),
		FeedID:     feed.ID,
		Type:       in.Type,
		QuantityKg: in.QuantityKg,
		Date:       s.dateOrNow(in.Date),
		BatchID:    batchID,
		Notes:      in.Notes,
		CreatedAt:  s.stamp(),
	}
	if err := tx.CreateStockMovement(ctx, &mv); err != nil {
		return nil, nil, err
	}

	delta := mv.QuantityKg
	if mv.Type == models.MovementOut {
		delta = -delta
	}
	feed.CurrentStockKg = max(0, kpi.Round(feed.CurrentStockKg+delta, 3))
	feed.UpdatedAt = s.stamp()
	if err := tx.UpdateFeed(ctx, feed); err != nil {
		return nil, nil, err
	}
	return &mv, feed, nil
}
