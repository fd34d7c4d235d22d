package aggregation

import (
	"github.com/shopspring/decimal"

	"github.com/bebeku/farm/internal/domain/models"
)

// ledger accumulates rupiah amounts without float drift.
type ledger struct {
	income  decimal.Decimal
	expense decimal.Decimal
}

func (l *ledger) add(rec models.FinanceRecord) {
	amount := decimal.NewFromFloat(rec.Amount)
	switch rec.Type {
	case models.FinanceIncome:
		l.income = l.income.Add(amount)
	case models.FinanceExpense:
		l.expense = l.expense.Add(amount)
	}
}

func (l ledger) Income() float64  { return l.income.InexactFloat64() }
func (l ledger) Expense() float64 { return l.expense.InexactFloat64() }
func (l ledger) Profit() float64  { return l.income.Sub(l.expense).InexactFloat64() }

func tally(records []models.FinanceRecord) ledger {
	var l ledger
	for _, rec := range records {
		l.add(rec)
	}
	return l
}
