package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-categorizer/internal/domain"
)

type bucket struct {
	label           string
	income, expense decimal.Decimal
}

// trend buckets income and expense by keyOf, ordered by key.
func trend(txs []*domain.Transaction, keep func(time.Time) bool, keyOf func(time.Time) (int, string)) []TrendPoint {
	buckets := make(map[int]*bucket)
	for _, tx := range txs {
		d := day(tx.Date)
		if keep != nil && !keep(d) {
			continue
		}
		if tx.Type != domain.TypeIncome && tx.Type != domain.TypeExpense {
			continue
		}
		k, label := keyOf(d)
		b, ok := buckets[k]
		if !ok {
			b = &bucket{label: label}
			buckets[k] = b
		}
		if tx.Type == domain.TypeIncome {
			b.income = b.income.Add(tx.Amount)
		} else {
			b.expense = b.expense.Add(tx.Amount.Abs())
		}
	}

	keys := make([]int, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := make([]TrendPoint, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		out = append(out, TrendPoint{Label: b.label, Income: b.income, Expense: b.expense})
	}
	return out
}

// MonthlyTrend buckets by calendar month, labeled "MM.YY".
func MonthlyTrend(txs []*domain.Transaction) []TrendPoint {
	return trend(txs, nil, func(d time.Time) (int, string) {
		return d.Year()*100 + int(d.Month()), fmt.Sprintf("%02d.%02d", int(d.Month()), d.Year()%100)
	})
}

// WeeklyTrend buckets by ISO week, labeled "WNN.YY".
func WeeklyTrend(txs []*domain.Transaction) []TrendPoint {
	return trend(txs, nil, func(d time.Time) (int, string) {
		y, w := d.ISOWeek()
		return y*100 + w, fmt.Sprintf("W%02d.%02d", w, y%100)
	})
}

// DailyTrend buckets by day, labeled "DD.MM". With days > 0 only the days
// since today minus days are included.
func DailyTrend(txs []*domain.Transaction, days int, today time.Time) []TrendPoint {
	var keep func(time.Time) bool
	if days > 0 {
		cutoff := day(today).AddDate(0, 0, -days)
		keep = func(d time.Time) bool { return !d.Before(cutoff) }
	}
	return trend(txs, keep, func(d time.Time) (int, string) {
		return d.Year()*10000 + int(d.Month())*100 + d.Day(), d.Format("02.01")
	})
}
