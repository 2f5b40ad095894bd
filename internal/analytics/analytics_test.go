package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-categorizer/internal/domain"
	"github.com/dvloznov/finance-categorizer/internal/taxonomy"
)

func date(d int) time.Time { return time.Date(2025, time.January, d, 0, 0, 0, 0, time.UTC) }

func tx(id string, d int, amount int64, typ domain.TransactionType, category, desc, merchant string) *domain.Transaction {
	return &domain.Transaction{
		ID:          id,
		Bank:        "alfa",
		Date:        date(d),
		Amount:      decimal.NewFromInt(amount),
		Currency:    "RUB",
		Type:        typ,
		Description: desc,
		Merchant:    merchant,
		CategoryID:  category,
	}
}

func fixture() []*domain.Transaction {
	return []*domain.Transaction{
		tx("1", 1, -100, domain.TypeExpense, taxonomy.Groceries, "Pyaterochka 123", "Pyaterochka"),
		tx("2", 2, -50, domain.TypeExpense, "base_transport_taxi", "Yandex Taxi", "YANDEX.TAXI"),
		tx("3", 3, 1000, domain.TypeIncome, taxonomy.IncomeSalary, "Salary", ""),
		tx("4", 4, -300, domain.TypeExpense, "base_travel_hotels", "Hotel Booking", "Booking.com"),
		tx("5", 5, -200, domain.TypeTransfer, taxonomy.TransferOut, "Transfer to card", ""),
		tx("6", 6, -20, domain.TypeExpense, taxonomy.Unknown, "", ""),
	}
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Equal(t, want, got.String())
}

func ids(rows []CategoryAmount) []string {
	var out []string
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	all := fixture()

	got := Filter(all, FilterOptions{Start: date(2), ExcludeTransfers: true})
	require.Len(t, got, 4)
	assert.Equal(t, "2", got[0].ID)

	got = Filter(all, FilterOptions{TransfersOnly: true})
	require.Len(t, got, 1)
	assert.Equal(t, "5", got[0].ID)

	got = Filter(all, FilterOptions{Start: date(3), End: date(4)})
	assert.Len(t, got, 2)

	assert.Len(t, Filter(all, FilterOptions{}), len(all))
}

func TestComputeTotals(t *testing.T) {
	all := fixture()

	totals := ComputeTotals(all)
	assertAmount(t, "1000", totals.Income)
	assertAmount(t, "470", totals.Expense)
	assertAmount(t, "530", totals.Net)

	filtered := ComputeTotals(Filter(all, FilterOptions{Start: date(2), ExcludeTransfers: true}))
	assertAmount(t, "370", filtered.Expense)

	empty := ComputeTotals(nil)
	assertAmount(t, "0", empty.Net)
}

func TestBreakdownByGroup(t *testing.T) {
	got := BreakdownByGroup(fixture())

	assert.Equal(t, []string{
		"sys_travel", taxonomy.GroupTransfers, "sys_shopping", "sys_transport", taxonomy.GroupUnknown, "sys_income",
	}, ids(got))
	assertAmount(t, "-300", got[0].Amount)
	assert.Equal(t, "Travel", got[0].Name)
	assertAmount(t, "1000", got[len(got)-1].Amount)
}

func TestBreakdownByGroup_UncategorizedIsUnknown(t *testing.T) {
	got := BreakdownByGroup([]*domain.Transaction{tx("1", 1, -5, domain.TypeExpense, "", "x", "")})
	require.Len(t, got, 1)
	assert.Equal(t, taxonomy.GroupUnknown, got[0].ID)
}

func TestBreakdownByLeaf(t *testing.T) {
	all := fixture()

	got := BreakdownByLeaf(all, 0, "")
	assert.Equal(t, []string{
		taxonomy.IncomeSalary, "base_travel_hotels", taxonomy.TransferOut, taxonomy.Groceries, "base_transport_taxi", taxonomy.Unknown,
	}, ids(got))

	expenses := BreakdownByLeaf(all, 2, domain.TypeExpense)
	assert.Equal(t, []string{"base_travel_hotels", taxonomy.Groceries}, ids(expenses))
	assert.Equal(t, "Hotels", expenses[0].Name)

	uncategorized := BreakdownByLeaf([]*domain.Transaction{tx("1", 1, -5, domain.TypeExpense, "", "x", "")}, 0, "")
	assert.Equal(t, []string{taxonomy.Unknown}, ids(uncategorized))
}

func TestTravelAndServiceTotals(t *testing.T) {
	all := fixture()

	travel := TravelBreakdown(all)
	require.Len(t, travel, 1)
	assert.Equal(t, "base_travel_hotels", travel[0].ID)
	assertAmount(t, "-300", travel[0].Amount)

	service := ServiceTotals(all)
	require.Len(t, service, 1)
	assertAmount(t, "-200", service[taxonomy.TransferOut])
}

func TestTrends(t *testing.T) {
	all := fixture()

	monthly := MonthlyTrend(all)
	require.Len(t, monthly, 1)
	assert.Equal(t, "01.25", monthly[0].Label)
	assertAmount(t, "1000", monthly[0].Income)
	assertAmount(t, "470", monthly[0].Expense)

	weekly := WeeklyTrend(all)
	require.Len(t, weekly, 2)
	assert.Equal(t, "W01.25", weekly[0].Label)
	assertAmount(t, "450", weekly[0].Expense)
	assert.Equal(t, "W02.25", weekly[1].Label)
	assertAmount(t, "20", weekly[1].Expense)

	daily := DailyTrend(all, 3, date(6))
	var labels []string
	for _, p := range daily {
		labels = append(labels, p.Label)
	}
	assert.Equal(t, []string{"03.01", "04.01", "06.01"}, labels)

	assert.Len(t, DailyTrend(all, 0, date(6)), 5)
}

func TestMonthlyTrend_SortedAcrossYears(t *testing.T) {
	txs := []*domain.Transaction{
		{Date: time.Date(2025, time.February, 3, 0, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(-1), Type: domain.TypeExpense},
		{Date: time.Date(2024, time.December, 30, 0, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(-2), Type: domain.TypeExpense},
	}

	got := MonthlyTrend(txs)
	require.Len(t, got, 2)
	assert.Equal(t, "12.24", got[0].Label)
	assert.Equal(t, "02.25", got[1].Label)
}

func TestUnknownTransactions(t *testing.T) {
	txs := append(fixture(), tx("7", 7, -1, domain.TypeExpense, "", "new", ""))

	got := UnknownTransactions(txs)
	require.Len(t, got, 2)
	assert.Equal(t, "6", got[0].ID)
	assert.Equal(t, "7", got[1].ID)
}

func TestMLDataset(t *testing.T) {
	txs := append(fixture(), tx("7", 7, -1, domain.TypeExpense, "", "new", ""))

	rows := MLDataset(txs)
	require.Len(t, rows, 6)
	assert.Equal(t, "pyaterochka 123", rows[0].Text)
	assert.Equal(t, "pyaterochka", rows[0].Merchant)
	assertAmount(t, "100", rows[0].AmountAbs)
	assert.Equal(t, taxonomy.Groceries, rows[0].Label)
	assert.Equal(t, "alfa", rows[0].Bank)
}

func TestGroupHierarchy(t *testing.T) {
	all := append(fixture(), tx("7", 7, -30, domain.TypeExpense, "base_shopping_pharmacy", "Apteka", ""))

	got := GroupHierarchy(all, 1)
	require.NotEmpty(t, got)
	assert.Equal(t, "sys_travel", got[0].ID)
	assertAmount(t, "300", got[0].Amount)

	shopping := got[1]
	assert.Equal(t, "sys_shopping", shopping.ID)
	assertAmount(t, "130", shopping.Amount)
	require.Len(t, shopping.Children, 1)
	assert.Equal(t, taxonomy.Groceries, shopping.Children[0].ID)

	for _, g := range got {
		assert.NotEqual(t, "sys_income", g.ID)
		assert.NotEqual(t, taxonomy.GroupTransfers, g.ID)
	}
}

func TestMerchantBreakdown(t *testing.T) {
	all := append(fixture(),
		tx("7", 7, -40, domain.TypeExpense, taxonomy.Groceries, "", "PYATEROCHKA"),
		tx("8", 8, -500, domain.TypeExpense, taxonomy.Groceries, "", "Lenta"),
		tx("9", 9, -5, domain.TypeExpense, taxonomy.Groceries, "", ""),
	)

	got := MerchantBreakdown(all, taxonomy.Groceries, 0, domain.TypeExpense)
	require.Len(t, got, 3)
	assert.Equal(t, "lenta", got[0].Merchant)
	assert.Equal(t, "pyaterochka", got[1].Merchant)
	assertAmount(t, "140", got[1].Amount)
	assert.Equal(t, unknownMerchant, got[2].Merchant)

	assert.Len(t, MerchantBreakdown(all, taxonomy.Groceries, 1, ""), 1)
	assert.Empty(t, MerchantBreakdown(all, taxonomy.Groceries, 0, domain.TypeIncome))
}

func TestQuickAnswers(t *testing.T) {
	all := fixture()
	selected := Filter(all, FilterOptions{Start: date(4), End: date(6), ExcludeTransfers: true})

	a := QuickAnswers(all, selected, date(4), date(6))

	require.Len(t, a.TopExpenses, 2)
	assert.Equal(t, "Hotel Booking", a.TopExpenses[0].Title)
	assertAmount(t, "300", a.TopExpenses[0].Amount)
	assert.Equal(t, "операция", a.TopExpenses[1].Title)
	assert.Empty(t, a.TopIncomes)

	assertAmount(t, "320", a.Balance.Expense)
	require.NotNil(t, a.TopExpenseCategory)
	assert.Equal(t, "base_travel_hotels", a.TopExpenseCategory.ID)
	assert.Nil(t, a.TopIncomeCategory)

	require.NotNil(t, a.Delta)
	assertAmount(t, "170", a.Delta.Expense)
	assertAmount(t, "-1000", a.Delta.Income)
}

func TestQuickAnswers_OpenPeriodHasNoDelta(t *testing.T) {
	all := fixture()

	a := QuickAnswers(all, all, date(1), time.Time{})

	assert.Nil(t, a.Delta)
	require.Len(t, a.TopIncomes, 1)
	assert.Equal(t, "Salary", a.TopIncomes[0].Title)
}

func TestQuickAnswers_TopIsCapped(t *testing.T) {
	var txs []*domain.Transaction
	for i := 1; i <= 8; i++ {
		txs = append(txs, tx("x", i, int64(-i), domain.TypeExpense, taxonomy.Groceries, "", "Shop"))
	}

	a := QuickAnswers(txs, txs, time.Time{}, time.Time{})

	require.Len(t, a.TopExpenses, quickTop)
	assertAmount(t, "8", a.TopExpenses[0].Amount)
	assert.Equal(t, "Shop", a.TopExpenses[0].Title)
}
