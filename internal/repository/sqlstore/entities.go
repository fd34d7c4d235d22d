package sqlstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/bebeku/farm/internal/domain/models"
	"github.com/bebeku/farm/internal/repository"
)

const (
	colRecordDate      = "record_date"
	colTransactionDate = "transaction_date"
)

func (s *Store) CreateBarn(ctx context.Context, barn *models.Barn) error {
	return create(ctx, s.db, "barn", barn.Code, barn)
}

func (s *Store) UpdateBarn(ctx context.Context, barn *models.Barn) error {
	return update(ctx, s.db, "barn", barn.ID, barn)
}

func (s *Store) DeleteBarn(ctx context.Context, id string) error {
	return remove[models.Barn](ctx, s.db, "barn", id)
}

func (s *Store) GetBarn(ctx context.Context, id string) (*models.Barn, error) {
	return get[models.Barn](ctx, s.db, "barn", id)
}

func (s *Store) ListBarns(ctx context.Context) ([]models.Barn, error) {
	var out []models.Barn
	if err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list barns: %w", err)
	}
	return out, nil
}

func (s *Store) CreateBatch(ctx context.Context, batch *models.Batch) error {
	return create(ctx, s.db, "batch", batch.Code, batch)
}

func (s *Store) UpdateBatch(ctx context.Context, batch *models.Batch) error {
	return update(ctx, s.db, "batch", batch.ID, batch)
}

func (s *Store) DeleteBatch(ctx context.Context, id string) error {
	return remove[models.Batch](ctx, s.db, "batch", id)
}

func (s *Store) GetBatch(ctx context.Context, id string) (*models.Batch, error) {
	return get[models.Batch](ctx, s.db, "batch", id)
}

func (s *Store) GetBatchByCode(ctx context.Context, code string) (*models.Batch, error) {
	var b models.Batch
	if err := s.db.WithContext(ctx).Where("LOWER(code) = LOWER(?)", code).First(&b).Error; err != nil {
		return nil, translate(err, "batch", code)
	}
	return &b, nil
}

func (s *Store) ListBatches(ctx context.Context, f repository.BatchFilter) ([]models.Batch, error) {
	q := s.db.WithContext(ctx).Model(&models.Batch{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.BarnID != "" {
		q = q.Where("barn_id = ?", f.BarnID)
	}
	if f.CodePrefix != "" {
		q = q.Where("code LIKE ?", f.CodePrefix+"%")
	}

	var out []models.Batch
	if err := q.Order("created_at DESC").Order("id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return out, nil
}

func (s *Store) CreateDailyRecord(ctx context.Context, rec *models.DailyRecord) error {
	return create(ctx, s.db, "daily record", rec.ID, rec)
}

func (s *Store) UpdateDailyRecord(ctx context.Context, rec *models.DailyRecord) error {
	return update(ctx, s.db, "daily record", rec.ID, rec)
}

func (s *Store) DeleteDailyRecord(ctx context.Context, id string) error {
	return remove[models.DailyRecord](ctx, s.db, "daily record", id)
}

func (s *Store) GetDailyRecord(ctx context.Context, id string) (*models.DailyRecord, error) {
	return get[models.DailyRecord](ctx, s.db, "daily record", id)
}

func (s *Store) ListDailyRecords(ctx context.Context, f repository.RecordFilter) ([]models.DailyRecord, error) {
	return listRecords[models.DailyRecord](ctx, s.db, colRecordDate, f)
}

func (s *Store) CreateWeightRecord(ctx context.Context, rec *models.WeightRecord) error {
	return create(ctx, s.db, "weight record", rec.ID, rec)
}

func (s *Store) UpdateWeightRecord(ctx context.Context, rec *models.WeightRecord) error {
	return update(ctx, s.db, "weight record", rec.ID, rec)
}

func (s *Store) DeleteWeightRecord(ctx context.Context, id string) error {
	return remove[models.WeightRecord](ctx, s.db, "weight record", id)
}

func (s *Store) GetWeightRecord(ctx context.Context, id string) (*models.WeightRecord, error) {
	return get[models.WeightRecord](ctx, s.db, "weight record", id)
}

func (s *Store) ListWeightRecords(ctx context.Context, f repository.RecordFilter) ([]models.WeightRecord, error) {
	return listRecords[models.WeightRecord](ctx, s.db, colRecordDate, f)
}

func (s *Store) CreateEggRecord(ctx context.Context, rec *models.EggRecord) error {
	return create(ctx, s.db, "egg record", rec.ID, rec)
}

func (s *Store) UpdateEggRecord(ctx context.Context, rec *models.EggRecord) error {
	return update(ctx, s.db, "egg record", rec.ID, rec)
}

func (s *Store) DeleteEggRecord(ctx context.Context, id string) error {
	return remove[models.EggRecord](ctx, s.db, "egg record", id)
}

func (s *Store) GetEggRecord(ctx context.Context, id string) (*models.EggRecord, error) {
	return get[models.EggRecord](ctx, s.db, "egg record", id)
}

func (s *Store) ListEggRecords(ctx context.Context, f repository.RecordFilter) ([]models.EggRecord, error) {
	return listRecords[models.EggRecord](ctx, s.db, colRecordDate, f)
}

func (s *Store) CreateFinanceRecord(ctx context.Context, rec *models.FinanceRecord) error {
	return create(ctx, s.db, "finance record", rec.ID, rec)
}

func (s *Store) UpdateFinanceRecord(ctx context.Context, rec *models.FinanceRecord) error {
	return update(ctx, s.db, "finance record", rec.ID, rec)
}

func (s *Store) DeleteFinanceRecord(ctx context.Context, id string) error {
	return remove[models.FinanceRecord](ctx, s.db, "finance record", id)
}

func (s *Store) GetFinanceRecord(ctx context.Context, id string) (*models.FinanceRecord, error) {
	return get[models.FinanceRecord](ctx, s.db, "finance record", id)
}

func (s *Store) ListFinanceRecords(ctx context.Context, f repository.RecordFilter) ([]models.FinanceRecord, error) {
	return listRecords[models.FinanceRecord](ctx, s.db, colTransactionDate, f)
}

func (s *Store) CreateFeed(ctx context.Context, feed *models.FeedInventory) error {
	return create(ctx, s.db, "feed", feed.ID, feed)
}

func (s *Store) UpdateFeed(ctx context.Context, feed *models.FeedInventory) error {
	return update(ctx, s.db, "feed", feed.ID, feed)
}

func (s *Store) DeleteFeed(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("feed_id = ?", id).Delete(&models.FeedStockMovement{}).Error; err != nil {
			return fmt.Errorf("delete movements of feed %s: %w", id, err)
		}
		return remove[models.FeedInventory](ctx, tx, "feed", id)
	})
}

func (s *Store) GetFeed(ctx context.Context, id string) (*models.FeedInventory, error) {
	return get[models.FeedInventory](ctx, s.db, "feed", id)
}

func (s *Store) ListFeeds(ctx context.Context) ([]models.FeedInventory, error) {
	var out []models.FeedInventory
	if err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list feeds: %w", err)
	}
	return out, nil
}

func (s *Store) CreateStockMovement(ctx context.Context, mv *models.FeedStockMovement) error {
	if _, err := s.GetFeed(ctx, mv.FeedID); err != nil {
		return err
	}
	return create(ctx, s.db, "stock movement", mv.ID, mv)
}

func (s *Store) ListStockMovements(ctx context.Context, f repository.MovementFilter) ([]models.FeedStockMovement, error) {
	q := s.db.WithContext(ctx).Model(&models.FeedStockMovement{})
	if f.FeedID != "" {
		q = q.Where("feed_id = ?", f.FeedID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}

	var out []models.FeedStockMovement
	if err := q.Order("date DESC").Order("created_at DESC").Order("id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	return out, nil
}

func (s *Store) SaveDailyReport(ctx context.Context, report models.DailyReport) error {
	return create(ctx, s.db, "daily report", report.Date, &report)
}
