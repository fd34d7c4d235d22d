// Package memory is an in-process Store. Writers are serialized; a transaction
// works on a cloned snapshot that replaces the live state only on success.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bebeku/farm/internal/domain/models"
	"github.com/bebeku/farm/internal/repository"
)

// Store implements repository.Store in memory.
type Store struct {
	txMu  *sync.Mutex
	mu    *sync.RWMutex
	state *state
	inTx  bool
}

var _ repository.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{txMu: &sync.Mutex{}, mu: &sync.RWMutex{}, state: newState()}
}

func (s *Store) read(fn func(st *state) error) error {
	if s.inTx {
		return fn(s.state)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.state)
}

func (s *Store) write(fn func(st *state) error) error {
	if s.inTx {
		return fn(s.state)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

// WithinTx runs fn on a snapshot and publishes it atomically when fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()

	tx := &Store{state: snapshot, inTx: true}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.mu.Lock()
	s.state = snapshot
	s.mu.Unlock()
	return nil
}

// View runs fn on a clone of the committed state. Writes through tx are dropped.
func (s *Store) View(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	return fn(ctx, &Store{state: snapshot, inTx: true})
}

// Close is a no-op.
func (s *Store) Close(context.Context) error { return nil }

func get[T any](rows map[string]T, entity, id string, cp func(T) T) (*T, error) {
	v, ok := rows[id]
	if !ok {
		return nil, models.NotFound(entity, id)
	}
	out := cp(v)
	return &out, nil
}

func insert[T any](rows map[string]T, entity, id string, v T, cp func(T) T) error {
	if id == "" {
		return models.InvalidField(entity+" id", "must not be empty")
	}
	if _, ok := rows[id]; ok {
		return models.NewDomainError(models.CodeConflict, fmt.Sprintf("%s %s already exists", entity, id))
	}
	rows[id] = cp(v)
	return nil
}

func replace[T any](rows map[string]T, entity, id string, v T, cp func(T) T) error {
	if _, ok := rows[id]; !ok {
		return models.NotFound(entity, id)
	}
	rows[id] = cp(v)
	return nil
}

func remove[T any](rows map[string]T, entity, id string) error {
	if _, ok := rows[id]; !ok {
		return models.NotFound(entity, id)
	}
	delete(rows, id)
	return nil
}

func codeTaken[T any](rows map[string]T, code, selfID string, key func(T) (string, string)) bool {
	for _, row := range rows {
		id, c := key(row)
		if id != selfID && strings.EqualFold(c, code) {
			return true
		}
	}
	return false
}

func barnCode(b models.Barn) (string, string)   { return b.ID, b.Code }
func batchCode(b models.Batch) (string, string) { return b.ID, b.Code }

func (s *Store) CreateBarn(_ context.Context, barn *models.Barn) error {
	return s.write(func(st *state) error {
		if codeTaken(st.barns, barn.Code, barn.ID, barnCode) {
			return models.NewDomainError(models.CodeConflict, "barn code "+barn.Code+" already exists")
		}
		return insert(st.barns, "barn", barn.ID, *barn, identity[models.Barn])
	})
}

func (s *Store) UpdateBarn(_ context.Context, barn *models.Barn) error {
	return s.write(func(st *state) error {
		if codeTaken(st.barns, barn.Code, barn.ID, barnCode) {
			return models.NewDomainError(models.CodeConflict, "barn code "+barn.Code+" already exists")
		}
		return replace(st.barns, "barn", barn.ID, *barn, identity[models.Barn])
	})
}

func (s *Store) DeleteBarn(_ context.Context, id string) error {
	return s.write(func(st *state) error {
		return remove(st.barns, "barn", id)
	})
}

func (s *Store) GetBarn(_ context.Context, id string) (out *models.Barn, err error) {
	err = s.read(func(st *state) error {
		out, err = get(st.barns, "barn", id, identity[models.Barn])
		return err
	})
	return out, err
}

func (s *Store) ListBarns(context.Context) (out []models.Barn, err error) {
	err = s.read(func(st *state) error {
		out = newestFirst(st.barns, func(b models.Barn) (string, time.Time) { return b.ID, b.CreatedAt }, nil, identity[models.Barn])
		return nil
	})
	return out, err
}

func (s *Store) CreateBatch(_ context.Context, batch *models.Batch) error {
	return s.write(func(st *state) error {
		if codeTaken(st.batches, batch.Code, batch.ID, batchCode) {
			return models.NewDomainError(models.CodeConflict, "batch code "+batch.Code+" already exists")
		}
		return insert(st.batches, "batch", batch.ID, *batch, cloneBatch)
	})
}

func (s *Store) UpdateBatch(_ context.Context, batch *models.Batch) error {
	return s.write(func(st *state) error {
		if codeTaken(st.batches, batch.Code, batch.ID, batchCode) {
			return models.NewDomainError(models.CodeConflict, "batch code "+batch.Code+" already exists")
		}
		return replace(st.batches, "batch", batch.ID, *batch, cloneBatch)
	})
}

func (s *Store) DeleteBatch(_ context.Context, id string) error {
	return s.write(func(st *state) error {
		return remove(st.batches, "batch", id)
	})
}

func (s *Store) GetBatch(_ context.Context, id string) (out *models.Batch, err error) {
	err = s.read(func(st *state) error {
		out, err = get(st.batches, "batch", id, cloneBatch)
		return err
	})
	return out, err
}

func (s *Store) GetBatchByCode(_ context.Context, code string) (out *models.Batch, err error) {
	err = s.read(func(st *state) error {
		for _, b := range st.batches {
			if strings.EqualFold(b.Code, code) {
				v := cloneBatch(b)
				out = &v
				return nil
			}
		}
		return models.NotFound("batch", code)
	})
	return out, err
}

func (s *Store) ListBatches(_ context.Context, f repository.BatchFilter) (out []models.Batch, err error) {
	keep := func(b models.Batch) bool {
		if f.Status != "" && b.Status != f.Status {
			return false
		}
		if f.BarnID != "" && (b.BarnID == nil || *b.BarnID != f.BarnID) {
			return false
		}
		return f.CodePrefix == "" || strings.HasPrefix(b.Code, f.CodePrefix)
	}
	err = s.read(func(st *state) error {
		out = newestFirst(st.batches, func(b models.Batch) (string, time.Time) { return b.ID, b.CreatedAt }, keep, cloneBatch)
		return nil
	})
	return out, err
}

func dailyKeys(r models.DailyRecord) (string, string, time.Time, time.Time) {
	return r.ID, r.BatchID, r.RecordDate, r.CreatedAt
}

func (s *Store) CreateDailyRecord(_ context.Context, rec *models.DailyRecord) error {
	return s.write(func(st *state) error {
		return insert(st.daily, "daily record", rec.ID, *rec, identity[models.DailyRecord])
	})
}

func (s *Store) UpdateDailyRecord(_ context.Context, rec *models.DailyRecord) error {
	return s.write(func(st *state) error {
		return replace(st.daily, "daily record", rec.ID, *rec, identity[models.DailyRecord])
	})
}

func (s *Store) DeleteDailyRecord(_ context.Context, id string) error {
	return s.write(func(st *state) error {
		return remove(st.daily, "daily record", id)
	})
}

func (s *Store) GetDailyRecord(_ context.Context, id string) (out *models.DailyRecord, err error) {
	err = s.read(func(st *state) error {
		out, err = get(st.daily, "daily record", id, identity[models.DailyRecord])
		return err
	})
	return out, err
}

func (s *Store) ListDailyRecords(_ context.Context, f repository.RecordFilter) (out []models.DailyRecord, err error) {
	err = s.read(func(st *state) error {
		out = listRecords(st.daily, f, dailyKeys, identity[models.DailyRecord])
		return nil
	})
	return out, err
}

func weightKeys(r models.WeightRecord) (string, string, time.Time, time.Time) {
	return r.ID, r.BatchID, r.RecordDate, r.CreatedAt
}

func (s *Store) CreateWeightRecord(_ context.Context, rec *models.WeightRecord) error {
	return s.write(func(st *state) error {
		return insert(st.weights, "weight record", rec.ID, *rec, identity[models.WeightRecord])
	})
}

func (s *Store) UpdateWeightRecord(_ context.Context, rec *models.WeightRecord) error {
	return s.write(func(st *state) error {
		return replace(st.weights, "weight record", rec.ID, *rec, identity[models.WeightRecord])
	})
}

func (s *Store) DeleteWeightRecord(_ context.Context, id string) error {
	return s.write(func(st *state) error {
		return remove(st.weights, "weight record", id)
	})
}

func (s *Store) GetWeightRecord(_ context.Context, id string) (out *models.WeightRecord, err error) {
	err = s.read(func(st *state) error {
		out, err = get(st.weights, "weight record", id, identity[models.WeightRecord])
		return err
	})
	return out, err
}

func (s *Store) ListWeightRecords(_ context.Context, f repository.RecordFilter) (out []models.WeightRecord, err error) {
	err = s.read(func(st *state) error {
		out = listRecords(st.weights, f, weightKeys, identity[models.WeightRecord])
		return nil
	})
	return out, err
}

func eggKeys(r models.EggRecord) (string, string, time.Time, time.Time) {
	return r.ID, r.BatchID, r.RecordDate, r.CreatedAt
}

func (s *Store) CreateEggRecord(_ context.Context, rec *models.EggRecord) error {
	return s.write(func(st *state) error {
		return insert(st.eggs, "egg record", rec.ID, *rec, identity[models.EggRecord])
	})
}

func (s *Store) UpdateEggRecord(_ context.Context, rec *models.EggRecord) error {
	return s.write(func(st *state) error {
		return replace(st.eggs, "egg record", rec.ID, *rec, identity[models.EggRecord])
	})
}

func (s *Store) DeleteEggRecord(_ context.Context, id string) error {
	return s.write(func(st *state) error {
		return remove(st.eggs, "egg record", id)
	})
}

func (s *Store) GetEggRecord(_ context.Context, id string) (out *models.EggRecord, err error) {
	err = s.read(func(st *state) error {
		out, err = get(st.eggs, "egg record", id, identity[models.EggRecord])
		return err
	})
	return out, err
}

func (s *Store) ListEggRecords(_ context.Context, f repository.RecordFilter) (out []models.EggRecord, err error) {
	err = s.read(func(st *state) error {
		out = listRecords(st.eggs, f, eggKeys, identity[models.EggRecord])
		return nil
	})
	return out, err
}

func financeKeys(r models.FinanceRecord) (string, string, time.Time, time.Time) {
	return r.ID, r.BatchRef(), r.TransactionDate, r.CreatedAt
}

func (s *Store) CreateFinanceRecord(_ context.Context, rec *models.FinanceRecord) error {
	return s.write(func(st *state) error {
		return insert(st.finance, "finance record", rec.ID, *rec, cloneFinance)
	})
}

func (s *Store) UpdateFinanceRecord(_ context.Context, rec *models.FinanceRecord) error {
	return s.write(func(st *state) error {
		return replace(st.finance, "finance record", rec.ID, *rec, cloneFinance)
	})
}

func (s *Store) DeleteFinanceRecord(_ context.Context, id string) error {
	return s.write(func(st *state) error {
		return remove(st.finance, "finance record", id)
	})
}

func (s *Store) GetFinanceRecord(_ context.Context, id string) (out *models.FinanceRecord, err error) {
	err = s.read(func(st *state) error {
		out, err = get(st.finance, "finance record", id, cloneFinance)
		return err
	})
	return out, err
}

func (s *Store) ListFinanceRecords(_ context.Context, f repository.RecordFilter) (out []models.FinanceRecord, err error) {
	err = s.read(func(st *state) error {
		out = listRecords(st.finance, f, financeKeys, cloneFinance)
		return nil
	})
	return out, err
}

func (s *Store) CreateFeed(_ context.Context, feed *models.FeedInventory) error {
	return s.write(func(st *state) error {
		return insert(st.feeds, "feed", feed.ID, *feed, cloneFeed)
	})
}

func (s *Store) UpdateFeed(_ context.Context, feed *models.FeedInventory) error {
	return s.write(func(st *state) error {
		return replace(st.feeds, "feed", feed.ID, *feed, cloneFeed)
	})
}

func (s *Store) DeleteFeed(_ context.Context, id string) error {
	return s.write(func(st *state) error {
		if err := remove(st.feeds, "feed", id); err != nil {
			return err
		}
		for mid, mv := range st.movements {
			if mv.FeedID == id {
				delete(st.movements, mid)
			}
		}
		return nil
	})
}

func (s *Store) GetFeed(_ context.Context, id string) (out *models.FeedInventory, err error) {
	err = s.read(func(st *state) error {
		out, err = get(st.feeds, "feed", id, cloneFeed)
		return err
	})
	return out, err
}

func (s *Store) ListFeeds(context.Context) (out []models.FeedInventory, err error) {
	err = s.read(func(st *state) error {
		out = newestFirst(st.feeds, func(f models.FeedInventory) (string, time.Time) { return f.ID, f.CreatedAt }, nil, cloneFeed)
		return nil
	})
	return out, err
}

func (s *Store) CreateStockMovement(_ context.Context, mv *models.FeedStockMovement) error {
	return s.write(func(st *state) error {
		if _, ok := st.feeds[mv.FeedID]; !ok {
			return models.NotFound("feed", mv.FeedID)
		}
		return insert(st.movements, "stock movement", mv.ID, *mv, cloneMovement)
	})
}

func (s *Store) ListStockMovements(_ context.Context, f repository.MovementFilter) (out []models.FeedStockMovement, err error) {
	keep := func(m models.FeedStockMovement) bool {
		if f.FeedID != "" && m.FeedID != f.FeedID {
			return false
		}
		return f.Type == "" || m.Type == f.Type
	}
	err = s.read(func(st *state) error {
		out = newestFirst(st.movements, func(m models.FeedStockMovement) (string, time.Time) { return m.ID, m.Date }, keep, cloneMovement)
		return nil
	})
	return out, err
}

func (s *Store) SaveDailyReport(_ context.Context, report models.DailyReport) error {
	return s.write(func(st *state) error {
		st.reports = append(st.reports, report)
		return nil
	})
}

// Reports returns the archived daily reports in insertion order.
func (s *Store) Reports() []models.DailyReport {
	var out []models.DailyReport
	_ = s.read(func(st *state) error {
		out = append(out, st.reports...)
		return nil
	})
	return out
}
