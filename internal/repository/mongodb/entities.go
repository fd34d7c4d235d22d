package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bebeku/farm/internal/domain/models"
	"github.com/bebeku/farm/internal/repository"
)

func (s *Store) CreateBarn(ctx context.Context, barn *models.Barn) error {
	return insert(ctx, s.db.Collection(collBarns), "barn", barn.Code, barn)
}

func (s *Store) UpdateBarn(ctx context.Context, barn *models.Barn) error {
	return replace(ctx, s.db.Collection(collBarns), "barn", barn.ID, barn)
}

func (s *Store) DeleteBarn(ctx context.Context, id string) error {
	return remove(ctx, s.db.Collection(collBarns), "barn", id)
}

func (s *Store) GetBarn(ctx context.Context, id string) (*models.Barn, error) {
	return findOne[models.Barn](ctx, s.db.Collection(collBarns), "barn", id, bson.M{"_id": id})
}

func (s *Store) ListBarns(ctx context.Context) ([]models.Barn, error) {
	return findAll[models.Barn](ctx, s.db.Collection(collBarns), bson.D{}, newestCreated())
}

func (s *Store) CreateBatch(ctx context.Context, batch *models.Batch) error {
	return insert(ctx, s.db.Collection(collBatches), "batch", batch.Code, batch)
}

func (s *Store) UpdateBatch(ctx context.Context, batch *models.Batch) error {
	return replace(ctx, s.db.Collection(collBatches), "batch", batch.ID, batch)
}

func (s *Store) DeleteBatch(ctx context.Context, id string) error {
	return remove(ctx, s.db.Collection(collBatches), "batch", id)
}

func (s *Store) GetBatch(ctx context.Context, id string) (*models.Batch, error) {
	return findOne[models.Batch](ctx, s.db.Collection(collBatches), "batch", id, bson.M{"_id": id})
}

func (s *Store) GetBatchByCode(ctx context.Context, code string) (*models.Batch, error) {
	opts := options.FindOne().SetCollation(&options.Collation{Locale: "en", Strength: 2})
	return findOne[models.Batch](ctx, s.db.Collection(collBatches), "batch", code, bson.M{"code": code}, opts)
}

func (s *Store) ListBatches(ctx context.Context, f repository.BatchFilter) ([]models.Batch, error) {
	return findAll[models.Batch](ctx, s.db.Collection(collBatches), batchQuery(f), newestCreated())
}

func (s *Store) CreateDailyRecord(ctx context.Context, rec *models.DailyRecord) error {
	return insert(ctx, s.db.Collection(collDaily), "daily record", rec.ID, rec)
}

func (s *Store) UpdateDailyRecord(ctx context.Context, rec *models.DailyRecord) error {
	return replace(ctx, s.db.Collection(collDaily), "daily record", rec.ID, rec)
}

func (s *Store) DeleteDailyRecord(ctx context.Context, id string) error {
	return remove(ctx, s.db.Collection(collDaily), "daily record", id)
}

func (s *Store) GetDailyRecord(ctx context.Context, id string) (*models.DailyRecord, error) {
	return findOne[models.DailyRecord](ctx, s.db.Collection(collDaily), "daily record", id, bson.M{"_id": id})
}

func (s *Store) ListDailyRecords(ctx context.Context, f repository.RecordFilter) ([]models.DailyRecord, error) {
	filter, opts := recordQuery("record_date", f)
	return findAll[models.DailyRecord](ctx, s.db.Collection(collDaily), filter, opts)
}

func (s *Store) CreateWeightRecord(ctx context.Context, rec *models.WeightRecord) error {
	return insert(ctx, s.db.Collection(collWeights), "weight record", rec.ID, rec)
}

func (s *Store) UpdateWeightRecord(ctx context.Context, rec *models.WeightRecord) error {
	return replace(ctx, s.db.Collection(collWeights), "weight record", rec.ID, rec)
}

func (s *Store) DeleteWeightRecord(ctx context.Context, id string) error {
	return remove(ctx, s.db.Collection(collWeights), "weight record", id)
}

func (s *Store) GetWeightRecord(ctx context.Context, id string) (*models.WeightRecord, error) {
	return findOne[models.WeightRecord](ctx, s.db.Collection(collWeights), "weight record", id, bson.M{"_id": id})
}

func (s *Store) ListWeightRecords(ctx context.Context, f repository.RecordFilter) ([]models.WeightRecord, error) {
	filter, opts := recordQuery("record_date", f)
	return findAll[models.WeightRecord](ctx, s.db.Collection(collWeights), filter, opts)
}

func (s *Store) CreateEggRecord(ctx context.Context, rec *models.EggRecord) error {
	return insert(ctx, s.db.Collection(collEggs), "egg record", rec.ID, rec)
}

func (s *Store) UpdateEggRecord(ctx context.Context, rec *models.EggRecord) error {
	return replace(ctx, s.db.Collection(collEggs), "egg record", rec.ID, rec)
}

func (s *Store) DeleteEggRecord(ctx context.Context, id string) error {
	return remove(ctx, s.db.Collection(collEggs), "egg record", id)
}

func (s *Store) GetEggRecord(ctx context.Context, id string) (*models.EggRecord, error) {
	return findOne[models.EggRecord](ctx, s.db.Collection(collEggs), "egg record", id, bson.M{"_id": id})
}

func (s *Store) ListEggRecords(ctx context.Context, f repository.RecordFilter) ([]models.EggRecord, error) {
	filter, opts := recordQuery("record_date", f)
	return findAll[models.EggRecord](ctx, s.db.Collection(collEggs), filter, opts)
}

func (s *Store) CreateFinanceRecord(ctx context.Context, rec *models.FinanceRecord) error {
	return insert(ctx, s.db.Collection(collFinance), "finance record", rec.ID, rec)
}

func (s *Store) UpdateFinanceRecord(ctx context.Context, rec *models.FinanceRecord) error {
	return replace(ctx, s.db.Collection(collFinance), "finance record", rec.ID, rec)
}

func (s *Store) DeleteFinanceRecord(ctx context.Context, id string) error {
	return remove(ctx, s.db.Collection(collFinance), "finance record", id)
}

func (s *Store) GetFinanceRecord(ctx context.Context, id string) (*models.FinanceRecord, error) {
	return findOne[models.FinanceRecord](ctx, s.db.Collection(collFinance), "finance record", id, bson.M{"_id": id})
}

func (s *Store) ListFinanceRecords(ctx context.Context, f repository.RecordFilter) ([]models.FinanceRecord, error) {
	filter, opts := recordQuery("transaction_date", f)
	return findAll[models.FinanceRecord](ctx, s.db.Collection(collFinance), filter, opts)
}

func (s *Store) CreateFeed(ctx context.Context, feed *models.FeedInventory) error {
	return insert(ctx, s.db.Collection(collFeeds), "feed", feed.ID, feed)
}

func (s *Store) UpdateFeed(ctx context.Context, feed *models.FeedInventory) error {
	return replace(ctx, s.db.Collection(collFeeds), "feed", feed.ID, feed)
}

func (s *Store) DeleteFeed(ctx context.Context, id string) error {
	if err := remove(ctx, s.db.Collection(collFeeds), "feed", id); err != nil {
		return err
	}
	if _, err := s.db.Collection(collMovements).DeleteMany(ctx, bson.M{"feed_id": id}); err != nil {
		return fmt.Errorf("delete movements of feed %s: %w", id, err)
	}
	return nil
}

func (s *Store) GetFeed(ctx context.Context, id string) (*models.FeedInventory, error) {
	return findOne[models.FeedInventory](ctx, s.db.Collection(collFeeds), "feed", id, bson.M{"_id": id})
}

func (s *Store) ListFeeds(ctx context.Context) ([]models.FeedInventory, error) {
	return findAll[models.FeedInventory](ctx, s.db.Collection(collFeeds), bson.D{}, newestCreated())
}

func (s *Store) CreateStockMovement(ctx context.Context, mv *models.FeedStockMovement) error {
	if _, err := s.GetFeed(ctx, mv.FeedID); err != nil {
		return err
	}
	return insert(ctx, s.db.Collection(collMovements), "stock movement", mv.ID, mv)
}

func (s *Store) ListStockMovements(ctx context.Context, f repository.MovementFilter) ([]models.FeedStockMovement, error) {
	filter := bson.D{}
	if f.FeedID != "" {
		filter = append(filter, bson.E{Key: "feed_id", Value: f.FeedID})
	}
	if f.Type != "" {
		filter = append(filter, bson.E{Key: "type", Value: f.Type})
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	return findAll[models.FeedStockMovement](ctx, s.db.Collection(collMovements), filter, opts)
}

// SaveDailyReport saves a daily report to the database.
func (s *Store) SaveDailyReport(ctx context.Context, report models.DailyReport) error {
	collection := s.db.Collection(collReports)
	if _, err := collection.InsertOne(ctx, report); err != nil {
		return fmt.Errorf("failed to insert daily report: %w", err)
	}
	return nil
}
