package memory

import (
	"maps"
	"sort"
	"time"

	"github.com/bebeku/farm/internal/domain/models"
	"github.com/bebeku/farm/internal/repository"
)

type state struct {
	barns     map[string]models.Barn
	batches   map[string]models.Batch
	daily     map[string]models.DailyRecord
	weights   map[string]models.WeightRecord
	eggs      map[string]models.EggRecord
	finance   map[string]models.FinanceRecord
	feeds     map[string]models.FeedInventory
	movements map[string]models.FeedStockMovement
	reports   []models.DailyReport
}

func newState() *state {
	return &state{
		barns:     map[string]models.Barn{},
		batches:   map[string]models.Batch{},
		daily:     map[string]models.DailyRecord{},
		weights:   map[string]models.WeightRecord{},
		eggs:      map[string]models.EggRecord{},
		finance:   map[string]models.FinanceRecord{},
		feeds:     map[string]models.FeedInventory{},
		movements: map[string]models.FeedStockMovement{},
	}
}

// clone copies every table; entity values are copied on the way in and out,
// so sharing them between snapshots is safe.
func (s *state) clone() *state {
	return &state{
		barns:     maps.Clone(s.barns),
		batches:   maps.Clone(s.batches),
		daily:     maps.Clone(s.daily),
		weights:   maps.Clone(s.weights),
		eggs:      maps.Clone(s.eggs),
		finance:   maps.Clone(s.finance),
		feeds:     maps.Clone(s.feeds),
		movements: maps.Clone(s.movements),
		reports:   append([]models.DailyReport(nil), s.reports...),
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneBatch(b models.Batch) models.Batch {
	b.DOCWeightGr = clonePtr(b.DOCWeightGr)
	b.BarnID = clonePtr(b.BarnID)
	b.HarvestDate = clonePtr(b.HarvestDate)
	b.HarvestWeightTotal = clonePtr(b.HarvestWeightTotal)
	return b
}

func cloneFinance(f models.FinanceRecord) models.FinanceRecord {
	f.BatchID = clonePtr(f.BatchID)
	return f
}

func cloneFeed(f models.FeedInventory) models.FeedInventory {
	f.UnitPrice = clonePtr(f.UnitPrice)
	return f
}

func cloneMovement(m models.FeedStockMovement) models.FeedStockMovement {
	m.BatchID = clonePtr(m.BatchID)
	return m
}

func identity[T any](v T) T { return v }

// recordKeys extracts the fields record lists filter and sort on.
type recordKeys[T any] func(T) (id, batchID string, date, created time.Time)

func listRecords[T any](rows map[string]T, f repository.RecordFilter, keys recordKeys[T], cp func(T) T) []T {
	type keyed struct {
		row     T
		id      string
		date    time.Time
		created time.Time
	}

	matched := make([]keyed, 0, len(rows))
	for _, row := range rows {
		id, batchID, date, created := keys(row)
		if !f.Matches(batchID, date) {
			continue
		}
		matched = append(matched, keyed{row: row, id: id, date: date, created: created})
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if f.Order == repository.OrderByDate && !a.date.Equal(b.date) {
			return a.date.After(b.date)
		}
		if !a.created.Equal(b.created) {
			return a.created.After(b.created)
		}
		return a.id > b.id
	})

	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}

	out := make([]T, 0, len(matched))
	for _, k := range matched {
		out = append(out, cp(k.row))
	}
	return out
}

func newestFirst[T any](rows map[string]T, key func(T) (string, time.Time), keep func(T) bool, cp func(T) T) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if keep != nil && !keep(row) {
			continue
		}
		out = append(out, cp(row))
	}
	sort.Slice(out, func(i, j int) bool {
		idA, a := key(out[i])
		idB, b := key(out[j])
		if !a.Equal(b) {
			return a.After(b)
		}
		return idA > idB
	})
	return out
}
