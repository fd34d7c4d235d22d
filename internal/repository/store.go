// Package repository defines the storage contract every driver (memory, gorm, mongodb) satisfies.
package repository

import (
	"context"
	"time"

	"github.com/bebeku/farm/internal/domain/models"
)

// Order selects how record lists are sorted. All orders are newest first.
type Order int

const (
	// OrderByDate sorts by the record's business date (record/transaction/movement date).
	OrderByDate Order = iota
	// OrderByCreated sorts by insertion time.
	OrderByCreated
)

// RecordFilter narrows batch-scoped record lists. From is inclusive and To is
// exclusive, both on the record's business date; zero values are unbounded.
type RecordFilter struct {
	BatchID string
	From    time.Time
	To      time.Time
	Limit   int
	Order   Order
}

// Matches reports whether a record with the given batch and date passes the filter.
func (f RecordFilter) Matches(batchID string, date time.Time) bool {
	if f.BatchID != "" && f.BatchID != batchID {
		return false
	}
	if !f.From.IsZero() && date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !date.Before(f.To) {
		return false
	}
	return true
}

// BatchFilter narrows batch lists.
type BatchFilter struct {
	Status     models.BatchStatus
	BarnID     string
	CodePrefix string
}

// MovementFilter narrows stock movement lists.
type MovementFilter struct {
	FeedID string
	Type   models.MovementType
}

// Store is the keyed-record store the services run on. Lists of batches, barns
// and feed are newest-created first.
type Store interface {
	CreateBarn(ctx context.Context, barn *models.Barn) error
	UpdateBarn(ctx context.Context, barn *models.Barn) error
	DeleteBarn(ctx context.Context, id string) error
	GetBarn(ctx context.Context, id string) (*models.Barn, error)
	ListBarns(ctx context.Context) ([]models.Barn, error)

	CreateBatch(ctx context.Context, batch *models.Batch) error
	UpdateBatch(ctx context.Context, batch *models.Batch) error
	DeleteBatch(ctx context.Context, id string) error
	GetBatch(ctx context.Context, id string) (*models.Batch, error)
	GetBatchByCode(ctx context.Context, code string) (*models.Batch, error)
	ListBatches(ctx context.Context, filter BatchFilter) ([]models.Batch, error)

	CreateDailyRecord(ctx context.Context, rec *models.DailyRecord) error
	UpdateDailyRecord(ctx context.Context, rec *models.DailyRecord) error
	DeleteDailyRecord(ctx context.Context, id string) error
	GetDailyRecord(ctx context.Context, id string) (*models.DailyRecord, error)
	ListDailyRecords(ctx context.Context, filter RecordFilter) ([]models.DailyRecord, error)

	CreateWeightRecord(ctx context.Context, rec *models.WeightRecord) error
	UpdateWeightRecord(ctx context.Context, rec *models.WeightRecord) error
	DeleteWeightRecord(ctx context.Context, id string) error
	GetWeightRecord(ctx context.Context, id string) (*models.WeightRecord, error)
	ListWeightRecords(ctx context.Context, filter RecordFilter) ([]models.WeightRecord, error)

	CreateEggRecord(ctx context.Context, rec *models.EggRecord) error
	UpdateEggRecord(ctx context.Context, rec *models.EggRecord) error
	DeleteEggRecord(ctx context.Context, id string) error
	GetEggRecord(ctx context.Context, id string) (*models.EggRecord, error)
	ListEggRecords(ctx context.Context, filter RecordFilter) ([]models.EggRecord, error)

	CreateFinanceRecord(ctx context.Context, rec *models.FinanceRecord) error
	UpdateFinanceRecord(ctx context.Context, rec *models.FinanceRecord) error
	DeleteFinanceRecord(ctx context.Context, id string) error
	GetFinanceRecord(ctx context.Context, id string) (*models.FinanceRecord, error)
	ListFinanceRecords(ctx context.Context, filter RecordFilter) ([]models.FinanceRecord, error)

	CreateFeed(ctx context.Context, feed *models.FeedInventory) error
	UpdateFeed(ctx context.Context, feed *models.FeedInventory) error
	// DeleteFeed removes the feed and its movements.
	DeleteFeed(ctx context.Context, id string) error
	GetFeed(ctx context.Context, id string) (*models.FeedInventory, error)
	ListFeeds(ctx context.Context) ([]models.FeedInventory, error)

	CreateStockMovement(ctx context.Context, mv *models.FeedStockMovement) error
	ListStockMovements(ctx context.Context, filter MovementFilter) ([]models.FeedStockMovement, error)

	SaveDailyReport(ctx context.Context, report models.DailyReport) error

	// WithinTx runs fn against a transactional view of the store. Writes made
	// through tx become visible to other readers together, or not at all.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	// View runs fn against one consistent read of the store. Reads through tx
	// never observe a writer's transaction half applied.
	View(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	Close(ctx context.Context) error
}
