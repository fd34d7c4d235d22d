package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bebeku/farm/internal/domain/models"
	"github.com/bebeku/farm/internal/repository"
)

var day0 = time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	s, err := New(context.Background(), db, DriverSQLite, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func newBatch(id, code string) *models.Batch {
	return &models.Batch{
		ID: id, Code: code, Name: "Batch " + code, StartDate: day0,
		InitialPopulation: 100, CurrentPopulation: 100, TargetHarvestAge: 45,
		Status: models.BatchActive, CreatedAt: day0,
	}
}

func TestBatchCRUD(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	require.NoError(t, s.CreateBatch(ctx, newBatch("b1", "B-2026-001")))

	got, err := s.GetBatchByCode(ctx, "b-2026-001")
	require.NoError(t, err)
	assert.Equal(t, "b1", got.ID)
	assert.True(t, got.StartDate.Equal(day0))

	got.CurrentPopulation = 0
	got.Status = models.BatchCompleted
	require.NoError(t, s.UpdateBatch(ctx, got))

	got, err = s.GetBatch(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentPopulation, "zero values are written")
	assert.Equal(t, models.BatchCompleted, got.Status)

	err = s.CreateBatch(ctx, newBatch("b2", "B-2026-001"))
	assert.ErrorIs(t, err, models.ErrConflict)

	assert.ErrorIs(t, s.UpdateBatch(ctx, newBatch("missing", "B-2026-009")), models.ErrNotFound)

	require.NoError(t, s.DeleteBatch(ctx, "b1"))
	_, err = s.GetBatch(ctx, "b1")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, s.DeleteBatch(ctx, "b1"), models.ErrNotFound)
}

func TestListBatchesFilters(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	barn := "barn-1"

	first := newBatch("b1", "B-2025-004")
	second := newBatch("b2", "B-2026-001")
	second.BarnID = &barn
	second.CreatedAt = day0.Add(time.Hour)
	require.NoError(t, s.CreateBatch(ctx, first))
	require.NoError(t, s.CreateBatch(ctx, second))

	all, err := s.ListBatches(ctx, repository.BatchFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b2", all[0].ID, "newest first")

	inBarn, err := s.ListBatches(ctx, repository.BatchFilter{BarnID: barn})
	require.NoError(t, err)
	require.Len(t, inBarn, 1)
	assert.Equal(t, "b2", inBarn[0].ID)

	thisYear, err := s.ListBatches(ctx, repository.BatchFilter{CodePrefix: "B-2026-"})
	require.NoError(t, err)
	require.Len(t, thisYear, 1)
}

func TestListDailyRecordsWindow(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	jakarta := time.FixedZone("WIB", 7*3600)
	for i, d := range []time.Time{day0, day0.Add(24 * time.Hour), day0.Add(48 * time.Hour)} {
		require.NoError(t, s.CreateDailyRecord(ctx, &models.DailyRecord{
			ID: string(rune('a' + i)), BatchID: "b1", RecordDate: d, MortalityCount: i,
			CreatedAt: day0.Add(time.Duration(3-i) * time.Hour),
		}))
	}

	// Bounds in another zone still compare by instant.
	rows, err := s.ListDailyRecords(ctx, repository.RecordFilter{
		BatchID: "b1",
		From:    day0.In(jakarta),
		To:      day0.Add(48 * time.Hour).In(jakarta),
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[0].ID)
	assert.Equal(t, "a", rows[1].ID)

	byCreated, err := s.ListDailyRecords(ctx, repository.RecordFilter{Order: repository.OrderByCreated, Limit: 1})
	require.NoError(t, err)
	require.Len(t, byCreated, 1)
	assert.Equal(t, "a", byCreated[0].ID)
}

func TestWithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		require.NoError(t, tx.CreateBatch(ctx, newBatch("b1", "B-2026-001")))
		_, err := tx.GetBatch(ctx, "b1")
		require.NoError(t, err, "writes are visible inside the transaction")
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.GetBatch(ctx, "b1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		return tx.CreateBatch(ctx, newBatch("b1", "B-2026-001"))
	}))
	_, err = s.GetBatch(ctx, "b1")
	assert.NoError(t, err)
}

func TestViewReadsInsideTransaction(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	require.NoError(t, s.CreateBatch(ctx, newBatch("b1", "B-2026-001")))
	boom := errors.New("boom")

	var code string
	err := s.View(ctx, func(ctx context.Context, tx repository.Store) error {
		b, err := tx.GetBatch(ctx, "b1")
		if err != nil {
			return err
		}
		code = b.Code
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "B-2026-001", code)

	err = s.View(ctx, func(context.Context, repository.Store) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestFeedMovements(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	err := s.CreateStockMovement(ctx, &models.FeedStockMovement{ID: "m0", FeedID: "nope", Type: models.MovementIn, QuantityKg: 1, Date: day0})
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, s.CreateFeed(ctx, &models.FeedInventory{
		ID: "f1", Name: "Starter", Type: models.FeedStarter, CurrentStockKg: 50, MinStockAlert: 100, CreatedAt: day0,
	}))
	require.NoError(t, s.CreateStockMovement(ctx, &models.FeedStockMovement{ID: "m1", FeedID: "f1", Type: models.MovementIn, QuantityKg: 50, Date: day0}))
	require.NoError(t, s.CreateStockMovement(ctx, &models.FeedStockMovement{ID: "m2", FeedID: "f1", Type: models.MovementOut, QuantityKg: 5, Date: day0.Add(time.Hour)}))

	outs, err := s.ListStockMovements(ctx, repository.MovementFilter{FeedID: "f1", Type: models.MovementOut})
	require.NoError(t, err)
	require.Len(t, outs, 1)
	assert.Equal(t, "m2", outs[0].ID)

	require.NoError(t, s.DeleteFeed(ctx, "f1"))
	all, err := s.ListStockMovements(ctx, repository.MovementFilter{FeedID: "f1"})
	require.NoError(t, err)
	assert.Empty(t, all)
}
