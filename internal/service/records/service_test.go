package records

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/bebeku/farm/internal/domain/models"
	"github.com/bebeku/farm/internal/repository"
	"github.com/bebeku/farm/internal/repository/memory"
	"github.com/bebeku/farm/internal/repository/sqlstore"
)

var fixedNow = time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)

type storeFactory struct {
	name string
	open func(t *testing.T) repository.Store
}

var drivers = []storeFactory{
	{name: "memory", open: func(*testing.T) repository.Store { return memory.New() }},
	{name: "sqlite", open: func(t *testing.T) repository.Store {
		s, err := sqlstore.Open(context.Background(), sqlstore.DriverSQLite, ":memory:", nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close(context.Background()) })
		return s
	}},
}

func newTestService(store repository.Store, logger *zap.Logger) *Service {
	return NewService(store, logger, WithClock(func() time.Time { return fixedNow }))
}

func mustBatch(t *testing.T, svc *Service, population int) *models.Batch {
	t.Helper()
	batch, err := svc.CreateBatch(context.Background(), BatchInput{
		StartDate:         fixedNow.AddDate(0, 0, -20),
		InitialPopulation: population,
	})
	require.NoError(t, err)
	return batch
}

func TestDailyRecordsConvergePopulation(t *testing.T) {
	for _, d := range drivers {
		t.Run(d.name, func(t *testing.T) {
			ctx := context.Background()
			store := d.open(t)
			svc := newTestService(store, nil)
			batch := mustBatch(t, svc, 1000)

			add := func(deaths int) string {
				res, err := svc.AddDailyRecord(ctx, DailyRecordInput{BatchID: batch.ID, MortalityCount: deaths, FeedMorningKg: 10})
				require.NoError(t, err)
				return res.Record.ID
			}

			add(5)
			corrected := add(4)
			mistaken := add(9)
			add(2)

			_, err := svc.UpdateDailyRecord(ctx, corrected, DailyRecordInput{MortalityCount: 3, FeedMorningKg: 10})
			require.NoError(t, err)
			require.NoError(t, svc.DeleteDailyRecord(ctx, mistaken))

			got, err := store.GetBatch(ctx, batch.ID)
			require.NoError(t, err)
			assert.Equal(t, 992, got.CurrentPopulation)
			assert.Equal(t, 1000, got.InitialPopulation)
		})
	}
}

func TestPopulationClampsAtZero(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newTestService(store, nil)
	batch := mustBatch(t, svc, 10)

	res, err := svc.AddDailyRecord(ctx, DailyRecordInput{BatchID: batch.ID, MortalityCount: 50})
	require.NoError(t, err)
	assert.Equal(t, 0, res.CurrentPopulation)
}

func TestDailyMortalityGuard(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.WarnLevel)
	svc := newTestService(memory.New(), zap.New(core))
	batch := mustBatch(t, svc, 1000)

	res, err := svc.AddDailyRecord(ctx, DailyRecordInput{BatchID: batch.ID, MortalityCount: 5})
	require.NoError(t, err)
	assert.False(t, res.MortalityAlert, "0.5% does not exceed the threshold")

	res, err = svc.AddDailyRecord(ctx, DailyRecordInput{BatchID: batch.ID, MortalityCount: 6})
	require.NoError(t, err)
	assert.True(t, res.MortalityAlert)
	assert.Equal(t, 989, res.CurrentPopulation)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "daily mortality above threshold", logs.All()[0].Message)
}

func TestRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.New(), nil)
	batch := mustBatch(t, svc, 100)

	tests := []struct {
		name string
		call func() error
	}{
		{"negative mortality", func() error {
			_, err := svc.AddDailyRecord(ctx, DailyRecordInput{BatchID: batch.ID, MortalityCount: -1})
			return err
		}},
		{"negative feed", func() error {
			_, err := svc.AddDailyRecord(ctx, DailyRecordInput{BatchID: batch.ID, FeedEveningKg: -0.5})
			return err
		}},
		{"zero population", func() error {
			_, err := svc.CreateBatch(ctx, BatchInput{InitialPopulation: 0})
			return err
		}},
		{"negative amount", func() error {
			_, err := svc.AddFinanceRecord(ctx, FinanceInput{Type: models.FinanceExpense, Category: "pakan", Amount: -1})
			return err
		}},
		{"unknown finance type", func() error {
			_, err := svc.AddFinanceRecord(ctx, FinanceInput{Type: "gift", Category: "pakan", Amount: 1})
			return err
		}},
		{"zero movement", func() error {
			_, _, err := svc.AddStockMovement(ctx, MovementInput{FeedID: "f", Type: models.MovementOut})
			return err
		}},
		{"zero barn capacity", func() error {
			_, err := svc.CreateBarn(ctx, BarnInput{Name: "Kandang A"})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), models.ErrInvalidInput)
		})
	}
}

func TestDailyRecordNeedsBatch(t *testing.T) {
	svc := newTestService(memory.New(), nil)
	_, err := svc.AddDailyRecord(context.Background(), DailyRecordInput{BatchID: "missing"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestBatchCodes(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	now := fixedNow
	svc := NewService(store, nil, WithClock(func() time.Time { return now }))

	first := mustBatch(t, svc, 100)
	second := mustBatch(t, svc, 100)
	assert.Equal(t, "B-2026-001", first.Code)
	assert.Equal(t, "B-2026-002", second.Code)
	assert.Equal(t, 45, second.TargetHarvestAge)
	assert.Equal(t, 100, second.CurrentPopulation)

	now = time.Date(2027, 1, 2, 0, 0, 0, 0, time.UTC)
	third, err := svc.CreateBatch(ctx, BatchInput{InitialPopulation: 50})
	require.NoError(t, err)
	assert.Equal(t, "B-2027-001", third.Code)
}

func TestBarnLifecycle(t *testing.T) {
	for _, d := range drivers {
		t.Run(d.name, func(t *testing.T) {
			ctx := context.Background()
			svc := newTestService(d.open(t), nil)

			barn, err := svc.CreateBarn(ctx, BarnInput{Name: "Kandang A", Capacity: 500})
			require.NoError(t, err)
			assert.Equal(t, "K-001", barn.Code)
			assert.Equal(t, models.BarnActive, barn.Status)

			next, err := svc.CreateBarn(ctx, BarnInput{Name: "Kandang B", Capacity: 300})
			require.NoError(t, err)
			assert.Equal(t, "K-002", next.Code)

			batch, err := svc.CreateBatch(ctx, BatchInput{InitialPopulation: 200, BarnID: &barn.ID})
			require.NoError(t, err)

			err = svc.DeleteBarn(ctx, barn.ID)
			assert.ErrorIs(t, err, models.ErrPrecondition)
			assert.ErrorIs(t, err, models.ErrBarnHasActiveBatches)

			weight := 320.5
			closed, err := svc.CloseBatch(ctx, batch.ID, CloseBatchInput{HarvestWeightTotal: &weight})
			require.NoError(t, err)
			assert.Equal(t, models.BatchCompleted, closed.Status)
			require.NotNil(t, closed.HarvestDate)

			_, err = svc.CloseBatch(ctx, batch.ID, CloseBatchInput{})
			assert.ErrorIs(t, err, models.ErrBatchNotActive)

			require.NoError(t, svc.DeleteBarn(ctx, barn.ID))
		})
	}
}

func TestCreateBatchChecksBarn(t *testing.T) {
	svc := newTestService(memory.New(), nil)
	missing := "nope"
	_, err := svc.CreateBatch(context.Background(), BatchInput{InitialPopulation: 10, BarnID: &missing})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDeleteBatchWithRecords(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.New(), nil)
	batch := mustBatch(t, svc, 100)

	egg, err := svc.AddEggRecord(ctx, EggInput{BatchID: batch.ID, TotalEggs: 80})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteBatch(ctx, batch.ID), models.ErrBatchHasRecords)

	require.NoError(t, svc.DeleteEggRecord(ctx, egg.ID))
	require.NoError(t, svc.DeleteBatch(ctx, batch.ID))
}

func TestWeightRecordDefaults(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.New(), nil)
	batch := mustBatch(t, svc, 100)

	rec, err := svc.AddWeightRecord(ctx, WeightInput{BatchID: batch.ID, AverageWeightGr: 850})
	require.NoError(t, err)
	assert.Equal(t, 20, rec.BirdAgeDays)
	assert.Equal(t, 10, rec.SampleSize)

	age := 18
	rec, err = svc.AddWeightRecord(ctx, WeightInput{BatchID: batch.ID, AverageWeightGr: 800, SampleSize: 25, BirdAgeDays: &age})
	require.NoError(t, err)
	assert.Equal(t, 18, rec.BirdAgeDays)
	assert.Equal(t, 25, rec.SampleSize)
}

func TestEggRecordKeepsPartsAsGiven(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.New(), nil)
	batch := mustBatch(t, svc, 100)

	rec, err := svc.AddEggRecord(ctx, EggInput{BatchID: batch.ID, TotalEggs: 90})
	require.NoError(t, err)
	assert.Equal(t, 90, rec.GoodEggs)

	good := 70
	rec, err = svc.AddEggRecord(ctx, EggInput{BatchID: batch.ID, TotalEggs: 90, GoodEggs: &good, DamagedEggs: 5})
	require.NoError(t, err)
	assert.Equal(t, 70, rec.GoodEggs, "parts need not add up to the total")
}

func TestFeedStock(t *testing.T) {
	for _, d := range drivers {
		t.Run(d.name, func(t *testing.T) {
			ctx := context.Background()
			store := d.open(t)
			svc := newTestService(store, nil)

			feed, err := svc.CreateFeed(ctx, FeedInput{Name: "Starter 511", Type: models.FeedStarter, OpeningStockKg: 500})
			require.NoError(t, err)
			assert.Equal(t, 500.0, feed.CurrentStockKg)
			assert.Equal(t, models.DefaultMinStockAlertKg, feed.MinStockAlert)

			moves, err := store.ListStockMovements(ctx, repository.MovementFilter{FeedID: feed.ID})
			require.NoError(t, err)
			require.Len(t, moves, 1)
			assert.Equal(t, models.MovementIn, moves[0].Type)
			assert.Equal(t, 500.0, moves[0].QuantityKg)

			_, feed, err = svc.AddStockMovement(ctx, MovementInput{FeedID: feed.ID, Type: models.MovementOut, QuantityKg: 490})
			require.NoError(t, err)
			assert.Equal(t, 10.0, feed.CurrentStockKg)

			_, feed, err = svc.AddStockMovement(ctx, MovementInput{FeedID: feed.ID, Type: models.MovementOut, QuantityKg: 50})
			require.NoError(t, err)
			assert.Equal(t, 0.0, feed.CurrentStockKg, "stock never goes negative")

			updated, err := svc.UpdateFeed(ctx, feed.ID, FeedInput{Name: "Starter 511", Type: models.FeedStarter, OpeningStockKg: 9999})
			require.NoError(t, err)
			assert.Equal(t, 0.0, updated.CurrentStockKg, "metadata edits leave stock alone")

			require.NoError(t, svc.DeleteFeed(ctx, feed.ID))
			_, err = store.GetFeed(ctx, feed.ID)
			assert.ErrorIs(t, err, models.ErrNotFound)
		})
	}
}

func TestBatchCodeAndAgeFollowFarmZone(t *testing.T) {
	ctx := context.Background()
	wib := time.FixedZone("WIB", 7*3600)
	// 2027-01-01 03:00 at the farm
	newYear := time.Date(2026, 12, 31, 20, 0, 0, 0, time.UTC)
	svc := NewService(memory.New(), nil, WithClock(func() time.Time { return newYear }), WithLocation(wib))

	batch, err := svc.CreateBatch(ctx, BatchInput{StartDate: time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC), InitialPopulation: 300})
	require.NoError(t, err)
	assert.Equal(t, "B-2027-001", batch.Code)

	rec, err := svc.AddWeightRecord(ctx, WeightInput{BatchID: batch.ID, AverageWeightGr: 400})
	require.NoError(t, err)
	assert.Equal(t, 7, rec.BirdAgeDays)

	utc := NewService(memory.New(), nil, WithClock(func() time.Time { return newYear }), WithLocation(time.UTC))
	batch, err = utc.CreateBatch(ctx, BatchInput{InitialPopulation: 300})
	require.NoError(t, err)
	assert.Equal(t, "B-2026-001", batch.Code)
}

func TestUpdateFeedKeepsOmittedThresholdAndPrice(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.New(), nil)
	minStock, price := 250.0, 8_500.0
	feed, err := svc.CreateFeed(ctx, FeedInput{Name: "Grower", Type: models.FeedGrower, MinStockAlert: &minStock, UnitPrice: &price})
	require.NoError(t, err)

	updated, err := svc.UpdateFeed(ctx, feed.ID, FeedInput{Name: "Grower 512", Type: models.FeedGrower})
	require.NoError(t, err)
	assert.Equal(t, "Grower 512", updated.Name)
	assert.Equal(t, 250.0, updated.MinStockAlert)
	require.NotNil(t, updated.UnitPrice)
	assert.Equal(t, 8_500.0, *updated.UnitPrice)

	zero := 0.0
	updated, err = svc.UpdateFeed(ctx, feed.ID, FeedInput{Name: "Grower 512", Type: models.FeedGrower, MinStockAlert: &zero})
	require.NoError(t, err)
	assert.Equal(t, 0.0, updated.MinStockAlert)
	require.NotNil(t, updated.UnitPrice)
}
