package aggregation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bebeku/farm/internal/domain/models"
	"github.com/bebeku/farm/internal/repository/memory"
	"github.com/bebeku/farm/internal/service/records"
)

func TestServiceReadsThroughStore(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	clock := func() time.Time { return now }
	writer := records.NewService(store, nil, records.WithClock(clock))
	reader := NewService(store, DefaultPolicy(), nil, WithClock(clock), WithLocation(wib))

	barn, err := writer.CreateBarn(ctx, records.BarnInput{Name: "Kandang A", Capacity: 2000})
	require.NoError(t, err)
	batch, err := writer.CreateBatch(ctx, records.BatchInput{
		Name: "Batch Juni", StartDate: now.AddDate(0, 0, -43), InitialPopulation: 1000, BarnID: &barn.ID,
	})
	require.NoError(t, err)

	_, err = writer.AddDailyRecord(ctx, records.DailyRecordInput{BatchID: batch.ID, RecordDate: now, MortalityCount: 60, FeedMorningKg: 40, FeedEveningKg: 35})
	require.NoError(t, err)
	_, err = writer.AddDailyRecord(ctx, records.DailyRecordInput{BatchID: batch.ID, RecordDate: now.AddDate(0, 0, -1), MortalityCount: 5})
	require.NoError(t, err)
	_, err = writer.AddEggRecord(ctx, records.EggInput{BatchID: batch.ID, RecordDate: now, TotalEggs: 120})
	require.NoError(t, err)
	_, err = writer.AddFinanceRecord(ctx, records.FinanceInput{Type: models.FinanceExpense, Category: "pakan", Amount: 300_000, TransactionDate: now.Add(-time.Hour)})
	require.NoError(t, err)

	t.Run("dashboard", func(t *testing.T) {
		stats, err := reader.DashboardStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.ActiveBatches)
		assert.Equal(t, 935, stats.TotalActivePopulation)
		assert.Equal(t, 60, stats.TodayMortality)
		assert.Equal(t, 120, stats.TodayEggs)
		assert.Equal(t, 300_000.0, stats.MonthExpense)
		assert.Equal(t, -300_000.0, stats.MonthProfit)
	})

	t.Run("alerts", func(t *testing.T) {
		alerts, err := reader.Alerts(ctx)
		require.NoError(t, err)
		require.Len(t, alerts, 2)
		assert.Equal(t, models.AlertMortality, alerts[0].Type)
		assert.Equal(t, models.SeverityMedium, alerts[0].Severity)
		assert.Equal(t, models.AlertHarvest, alerts[1].Type)
		assert.Equal(t, models.SeverityLow, alerts[1].Severity)
	})

	t.Run("batch detail by code", func(t *testing.T) {
		detail, err := reader.BatchDetailByCode(ctx, "b-2026-001")
		require.NoError(t, err)
		assert.Equal(t, batch.ID, detail.ID)
		require.NotNil(t, detail.Barn)
		assert.Equal(t, "K-001", detail.Barn.Code)
		assert.Len(t, detail.DailyRecords, 2)
		assert.Equal(t, 65, detail.Stats.TotalDeaths)
		assert.Equal(t, 43, detail.Stats.BirdAge)
	})

	t.Run("resolve batch by id or code", func(t *testing.T) {
		byID, err := reader.ResolveBatch(ctx, batch.ID)
		require.NoError(t, err)
		byCode, err := reader.ResolveBatch(ctx, "B-2026-001")
		require.NoError(t, err)
		assert.Equal(t, byID.ID, byCode.ID)

		_, err = reader.ResolveBatch(ctx, "B-1999-001")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("recent activity", func(t *testing.T) {
		feed, err := reader.RecentActivity(ctx, 0)
		require.NoError(t, err)
		require.Len(t, feed, 3)
		for _, a := range feed {
			if a.Type == models.ActivityFinance {
				assert.Equal(t, "Umum", a.BatchName)
			} else {
				assert.Equal(t, "Batch Juni", a.BatchName)
			}
		}
	})

	t.Run("barn detail", func(t *testing.T) {
		detail, err := reader.BarnDetail(ctx, barn.ID)
		require.NoError(t, err)
		assert.Equal(t, 935, detail.Stats.TotalPopulation)
		assert.Equal(t, 46.8, detail.Stats.CapacityUsed)
	})

	t.Run("missing batch", func(t *testing.T) {
		_, err := reader.BatchDetail(ctx, "nope")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestBatchDetailIsConsistentUnderWrites(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	writer := records.NewService(store, nil)
	reader := NewService(store, DefaultPolicy(), nil, WithLocation(wib))

	batch, err := writer.CreateBatch(ctx, records.BatchInput{InitialPopulation: 1000})
	require.NoError(t, err)

	const writes = 300
	var wg sync.WaitGroup
	wg.Add(1)
	done := make(chan struct{})
	go func() {
		defer wg.Done()
		defer close(done)
		for i := 0; i < writes; i++ {
			if _, err := writer.AddDailyRecord(ctx, records.DailyRecordInput{BatchID: batch.ID, MortalityCount: 1}); err != nil {
				t.Error(err)
				return
			}
		}
	}()

	reads := 0
	for {
		select {
		case <-done:
			wg.Wait()
			detail, err := reader.BatchDetail(ctx, batch.ID)
			require.NoError(t, err)
			assert.Equal(t, 1000-writes, detail.CurrentPopulation)
			assert.Len(t, detail.DailyRecords, writes)
			t.Logf("consistent reads: %d", reads)
			return
		default:
		}
		detail, err := reader.BatchDetail(ctx, batch.ID)
		require.NoError(t, err)
		require.Equal(t, detail.InitialPopulation-len(detail.DailyRecords), detail.CurrentPopulation,
			"population and daily records read from different commits")
		reads++
	}
}
