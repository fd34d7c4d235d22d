// Package sqlstore is the gorm-backed Store for sqlite and postgres.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/bebeku/farm/internal/domain/models"
	"github.com/bebeku/farm/internal/repository"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	maxTxAttempts = 3
)

// Store implements repository.Store on gorm.
type Store struct {
	db     *gorm.DB
	driver string
	logger *zap.Logger
	inTx   bool
}

var _ repository.Store = (*Store)(nil)

// Open connects with the named driver and migrates the schema.
func Open(ctx context.Context, driver, dsn string, logger *zap.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	if driver == DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("access sqlite pool: %w", err)
		}
		// sqlite allows one writer; a single connection also keeps ":memory:" databases shared.
		sqlDB.SetMaxOpenConns(1)
	}

	return New(ctx, db, driver, logger)
}

// New wraps an existing gorm handle and migrates the schema.
func New(ctx context.Context, db *gorm.DB, driver string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := db.WithContext(ctx).AutoMigrate(
		&models.Barn{},
		&models.Batch{},
		&models.DailyRecord{},
		&models.WeightRecord{},
		&models.EggRecord{},
		&models.FinanceRecord{},
		&models.FeedInventory{},
		&models.FeedStockMovement{},
		&models.DailyReport{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &Store{db: db, driver: driver, logger: logger}, nil
}

// WithinTx runs fn inside a database transaction. Postgres transactions are
// serializable and retried on serialization failures.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}

	var opts []*sql.TxOptions
	if s.driver == DriverPostgres {
		opts = append(opts, &sql.TxOptions{Isolation: sql.LevelSerializable})
	}

	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(ctx, &Store{db: tx, driver: s.driver, logger: s.logger, inTx: true})
		}, opts...)
		if !isSerializationFailure(err) {
			return err
		}
		s.logger.Debug("retrying serialization failure", zap.Int("attempt", attempt), zap.Error(err))
	}
	return err
}

// View runs fn inside a read-only transaction. Postgres reads come from one
// repeatable-read snapshot; sqlite transactions are serializable already.
func (s *Store) View(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}

	var opts []*sql.TxOptions
	if s.driver == DriverPostgres {
		opts = append(opts, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &Store{db: tx, driver: s.driver, logger: s.logger, inTx: true})
	}, opts...)
}

// Close releases the connection pool.
func (s *Store) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("access sql pool: %w", err)
	}
	return sqlDB.Close()
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}

func translate(err error, entity, key string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.NotFound(entity, key)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return models.NewDomainError(models.CodeConflict, fmt.Sprintf("%s %s already exists", entity, key))
	default:
		return fmt.Errorf("%s %s: %w", entity, key, err)
	}
}

func create[T any](ctx context.Context, db *gorm.DB, entity, id string, v *T) error {
	return translate(db.WithContext(ctx).Create(v).Error, entity, id)
}

func update[T any](ctx context.Context, db *gorm.DB, entity, id string, v *T) error {
	res := db.WithContext(ctx).Model(v).Select("*").Where("id = ?", id).Updates(v)
	if res.Error != nil {
		return translate(res.Error, entity, id)
	}
	if res.RowsAffected == 0 {
		return models.NotFound(entity, id)
	}
	return nil
}

func remove[T any](ctx context.Context, db *gorm.DB, entity, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return translate(res.Error, entity, id)
	}
	if res.RowsAffected == 0 {
		return models.NotFound(entity, id)
	}
	return nil
}

func get[T any](ctx context.Context, db *gorm.DB, entity, id string) (*T, error) {
	var v T
	if err := db.WithContext(ctx).Where("id = ?", id).First(&v).Error; err != nil {
		return nil, translate(err, entity, id)
	}
	return &v, nil
}

func listRecords[T any](ctx context.Context, db *gorm.DB, dateColumn string, f repository.RecordFilter) ([]T, error) {
	q := db.WithContext(ctx).Model(new(T))
	if f.BatchID != "" {
		q = q.Where("batch_id = ?", f.BatchID)
	}
	if !f.From.IsZero() {
		q = q.Where(dateColumn+" >= ?", f.From.UTC())
	}
	if !f.To.IsZero() {
		q = q.Where(dateColumn+" < ?", f.To.UTC())
	}
	if f.Order == repository.OrderByDate {
		q = q.Order(dateColumn + " DESC")
	}
	q = q.Order("created_at DESC").Order("id DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var out []T
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", dateColumn, err)
	}
	return out, nil
}
