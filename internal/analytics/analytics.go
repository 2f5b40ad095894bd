// Package analytics aggregates categorized transactions for reporting.
// All sums are exact decimals; expenses contribute negative values to signed
// breakdowns and positive values to expense totals.
package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-categorizer/internal/domain"
	"github.com/dvloznov/finance-categorizer/internal/features"
	"github.com/dvloznov/finance-categorizer/internal/taxonomy"
)

// FilterOptions selects transactions. Zero dates leave that side open; both
// bounds are inclusive calendar days.
type FilterOptions struct {
	Start            time.Time
	End              time.Time
	ExcludeTransfers bool
	TransfersOnly    bool
}

// Totals sums income and expense.
type Totals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// CategoryAmount is one row of a category breakdown.
type CategoryAmount struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// GroupNode is a group with its largest leaves.
type GroupNode struct {
	CategoryAmount
	Children []CategoryAmount `json:"children"`
}

// TrendPoint is one time bucket.
type TrendPoint struct {
	Label   string          `json:"label"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// MerchantAmount is one row of a merchant breakdown.
type MerchantAmount struct {
	Merchant string          `json:"merchant"`
	Amount   decimal.Decimal `json:"amount"`
}

// DatasetRow is one labeled training example.
type DatasetRow struct {
	Text         string          `json:"text"`
	Merchant     string          `json:"merchant"`
	BankCategory string          `json:"bank_category"`
	MCC          string          `json:"mcc,omitempty"`
	AmountAbs    decimal.Decimal `json:"amount_abs"`
	Bank         string          `json:"bank"`
	Label        string          `json:"label"`
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Filter returns the transactions matching opts, in input order.
func Filter(txs []*domain.Transaction, opts FilterOptions) []*domain.Transaction {
	var out []*domain.Transaction
	for _, tx := range txs {
		d := day(tx.Date)
		if !opts.Start.IsZero() && d.Before(day(opts.Start)) {
			continue
		}
		if !opts.End.IsZero() && d.After(day(opts.End)) {
			continue
		}
		service := taxonomy.IsService(tx.CategoryID)
		if opts.TransfersOnly && !service {
			continue
		}
		if opts.ExcludeTransfers && service {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// signed is the amount for income and minus the absolute amount otherwise.
func signed(tx *domain.Transaction) decimal.Decimal {
	if tx.Type == domain.TypeIncome {
		return tx.Amount
	}
	return tx.Amount.Abs().Neg()
}

// ComputeTotals sums income and expense. Transfers count toward neither.
func ComputeTotals(txs []*domain.Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		switch tx.Type {
		case domain.TypeIncome:
			t.Income = t.Income.Add(tx.Amount)
		case domain.TypeExpense:
			t.Expense = t.Expense.Add(tx.Amount.Abs())
		}
	}
	t.Net = t.Income.Sub(t.Expense)
	return t
}

// sums accumulates per-key totals and remembers first-seen key order.
type sums struct {
	order  []string
	totals map[string]decimal.Decimal
}

func newSums() *sums { return &sums{totals: make(map[string]decimal.Decimal)} }

func (s *sums) add(key string, v decimal.Decimal) {
	cur, ok := s.totals[key]
	if !ok {
		s.order = append(s.order, key)
	}
	s.totals[key] = cur.Add(v)
}

func (s *sums) categories() []CategoryAmount {
	out := make([]CategoryAmount, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, CategoryAmount{ID: id, Name: taxonomy.Name(id), Amount: s.totals[id]})
	}
	return out
}

func groupOf(categoryID string) string {
	if g, ok := taxonomy.ResolveGroup(categoryID); ok {
		return g
	}
	return taxonomy.GroupUnknown
}

func leafOf(categoryID string) string {
	if categoryID == "" {
		return taxonomy.Unknown
	}
	return categoryID
}

// BreakdownByGroup sums signed values per group, most negative first.
func BreakdownByGroup(txs []*domain.Transaction) []CategoryAmount {
	s := newSums()
	for _, tx := range txs {
		s.add(groupOf(tx.CategoryID), signed(tx))
	}
	out := s.categories()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount.LessThan(out[j].Amount) })
	return out
}

// BreakdownByLeaf sums signed values per leaf, largest magnitude first.
// An empty typ includes every type; limit <= 0 means no limit.
func BreakdownByLeaf(txs []*domain.Transaction, limit int, typ domain.TransactionType) []CategoryAmount {
	s := newSums()
	for _, tx := range txs {
		if typ != "" && tx.Type != typ {
			continue
		}
		s.add(leafOf(tx.CategoryID), signed(tx))
	}
	out := s.categories()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount.Abs().GreaterThan(out[j].Amount.Abs()) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// TravelBreakdown sums signed values per travel leaf.
func TravelBreakdown(txs []*domain.Transaction) []CategoryAmount {
	s := newSums()
	for _, tx := range txs {
		if taxonomy.IsTravel(tx.CategoryID) {
			s.add(tx.CategoryID, signed(tx))
		}
	}
	return s.categories()
}

// ServiceTotals sums signed values per service leaf.
func ServiceTotals(txs []*domain.Transaction) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if taxonomy.IsService(tx.CategoryID) {
			out[tx.CategoryID] = out[tx.CategoryID].Add(signed(tx))
		}
	}
	return out
}

// UnknownTransactions returns the transactions still needing a label.
func UnknownTransactions(txs []*domain.Transaction) []*domain.Transaction {
	var out []*domain.Transaction
	for _, tx := range txs {
		if tx.CategoryID == "" || tx.CategoryID == taxonomy.Unknown {
			out = append(out, tx)
		}
	}
	return out
}

// MLDataset exports every categorized transaction as a labeled example.
func MLDataset(txs []*domain.Transaction) []DatasetRow {
	var out []DatasetRow
	for _, tx := range txs {
		if tx.CategoryID == "" {
			continue
		}
		out = append(out, DatasetRow{
			Text:         features.Normalize(tx.Description),
			Merchant:     features.Normalize(tx.Merchant),
			BankCategory: features.Normalize(tx.BankCategory),
			MCC:          tx.MCC,
			AmountAbs:    tx.Amount.Abs(),
			Bank:         tx.Bank,
			Label:        tx.CategoryID,
		})
	}
	return out
}

func sortedDesc(s *sums) []CategoryAmount {
	out := s.categories()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount.GreaterThan(out[j].Amount) })
	return out
}

// GroupHierarchy returns expense groups by spend, each with its top
// perGroupLimit leaves.
func GroupHierarchy(txs []*domain.Transaction, perGroupLimit int) []GroupNode {
	groups := newSums()
	children := make(map[string]*sums)
	for _, tx := range txs {
		if tx.Type != domain.TypeExpense {
			continue
		}
		g := groupOf(tx.CategoryID)
		amount := tx.Amount.Abs()
		groups.add(g, amount)
		if children[g] == nil {
			children[g] = newSums()
		}
		children[g].add(leafOf(tx.CategoryID), amount)
	}

	var out []GroupNode
	for _, g := range sortedDesc(groups) {
		leaves := sortedDesc(children[g.ID])
		if perGroupLimit > 0 && len(leaves) > perGroupLimit {
			leaves = leaves[:perGroupLimit]
		}
		out = append(out, GroupNode{CategoryAmount: g, Children: leaves})
	}
	return out
}

const unknownMerchant = "unknown_merchant"

// MerchantBreakdown sums absolute amounts per normalized merchant within one
// leaf, largest first.
func MerchantBreakdown(txs []*domain.Transaction, leafID string, limit int, typ domain.TransactionType) []MerchantAmount {
	s := newSums()
	for _, tx := range txs {
		if typ != "" && tx.Type != typ {
			continue
		}
		if tx.CategoryID != leafID {
			continue
		}
		m := features.Normalize(tx.Merchant)
		if m == "" {
			m = unknownMerchant
		}
		s.add(m, tx.Amount.Abs())
	}

	var out []MerchantAmount
	for _, c := range sortedDesc(s) {
		out = append(out, MerchantAmount{Merchant: c.ID, Amount: c.Amount})
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
