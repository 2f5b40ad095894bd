package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-categorizer/internal/domain"
)

const quickTop = 5

// OpSummary is a compact view of one transaction.
type OpSummary struct {
	Date   time.Time       `json:"date"`
	Title  string          `json:"title"`
	Amount decimal.Decimal `json:"amount"`
}

// Delta compares a period with the one before it.
type Delta struct {
	Expense decimal.Decimal `json:"expense"`
	Income  decimal.Decimal `json:"income"`
}

// Answers is the one-screen summary of a period.
type Answers struct {
	TopExpenses        []OpSummary     `json:"top_expenses"`
	TopIncomes         []OpSummary     `json:"top_incomes"`
	Balance            Totals          `json:"balance"`
	TopExpenseCategory *CategoryAmount `json:"top_expense_category"`
	TopIncomeCategory  *CategoryAmount `json:"top_income_category"`
	Delta              *Delta          `json:"delta"`
}

func topByAmount(txs []*domain.Transaction, typ domain.TransactionType) []OpSummary {
	var picked []*domain.Transaction
	for _, tx := range txs {
		if tx.Type == typ {
			picked = append(picked, tx)
		}
	}
	sort.SliceStable(picked, func(i, j int) bool {
		return picked[i].Amount.Abs().GreaterThan(picked[j].Amount.Abs())
	})
	if len(picked) > quickTop {
		picked = picked[:quickTop]
	}

	out := make([]OpSummary, 0, len(picked))
	for _, tx := range picked {
		title := tx.Description
		if title == "" {
			title = tx.Merchant
		}
		if title == "" {
			title = "операция"
		}
		out = append(out, OpSummary{Date: tx.Date, Title: title, Amount: tx.Amount.Abs()})
	}
	return out
}

func topCategory(txs []*domain.Transaction, typ domain.TransactionType) *CategoryAmount {
	top := BreakdownByLeaf(txs, 1, typ)
	if len(top) == 0 {
		return nil
	}
	return &top[0]
}

// QuickAnswers summarizes selected, a period [start, end] drawn from all.
// When both bounds are set, the delta compares with the preceding period of
// equal length, transfers excluded.
func QuickAnswers(all, selected []*domain.Transaction, start, end time.Time) Answers {
	a := Answers{
		TopExpenses:        topByAmount(selected, domain.TypeExpense),
		TopIncomes:         topByAmount(selected, domain.TypeIncome),
		Balance:            ComputeTotals(selected),
		TopExpenseCategory: topCategory(selected, domain.TypeExpense),
		TopIncomeCategory:  topCategory(selected, domain.TypeIncome),
	}
	if start.IsZero() || end.IsZero() {
		return a
	}

	start, end = day(start), day(end)
	length := int(end.Sub(start).Hours()/24) + 1
	prevEnd := start.AddDate(0, 0, -1)
	prevStart := prevEnd.AddDate(0, 0, -length+1)
	prev := ComputeTotals(Filter(all, FilterOptions{Start: prevStart, End: prevEnd, ExcludeTransfers: true}))

	a.Delta = &Delta{
		Expense: a.Balance.Expense.Sub(prev.Expense),
		Income:  a.Balance.Income.Sub(prev.Income),
	}
	return a
}
