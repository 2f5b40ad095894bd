package importer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-categorizer/internal/domain"
	"github.com/dvloznov/finance-categorizer/internal/taxonomy"
)

const alfaCSV = "\ufeffoperationDate,amount,type,accountName,accountNumber,comment,merchant,currency,mcc,category\n" +
	"01.11.2024,\"1 234,50\",Расход,Текущий,40817,Покупка,PYATEROCHKA,rur,5411,Супермаркеты\n" +
	"02.11.2024,5000,Пополнение,Текущий,40817,,,,,Пополнения\n" +
	"not-a-date,1,Расход,,,,,,,\n" +
	",1,Расход,,,,,,,\n" +
	"03.11.2024,100000,income,,,,Employer,,,\n"

const tinkoffCSV = "Дата операции;Сумма операции;Номер карты;Валюта операции;Описание;MCC;Категория\n" +
	"01.11.2024 12:30:00;-480,00;*1234;RUB;Yandex Go;4121;Такси\n" +
	"02.11.2024 09:00:00;1500,00;;;Кэшбэк;;Бонусы\n" +
	"02.11.2024;1;;;broken;;\n"

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAlfaParser(t *testing.T) {
	parsed, err := (&AlfaParser{}).Parse(strings.NewReader(alfaCSV))
	require.NoError(t, err)
	require.Len(t, parsed.Records, 3)
	assert.Equal(t, 2, parsed.Skipped)

	purchase := parsed.Records[0]
	assert.Equal(t, "Текущий", purchase.AccountName)
	assert.Equal(t, "40817", purchase.AccountNumber)
	tx := purchase.Transaction
	assert.Equal(t, "alfa", tx.Bank)
	assert.Equal(t, time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC), tx.Date)
	assert.True(t, d("-1234.50").Equal(tx.Amount), tx.Amount.String())
	assert.Equal(t, domain.TypeExpense, tx.Type)
	assert.Equal(t, "RUR", tx.Currency)
	assert.Equal(t, "Покупка", tx.Description)
	assert.Equal(t, "PYATEROCHKA", tx.Merchant)
	assert.Equal(t, "5411", tx.MCC)
	assert.Equal(t, "Супермаркеты", tx.BankCategory)

	topup := parsed.Records[1].Transaction
	assert.Equal(t, domain.TypeTransfer, topup.Type)
	assert.True(t, d("5000").Equal(topup.Amount))

	income := parsed.Records[2]
	assert.Equal(t, domain.TypeIncome, income.Transaction.Type)
	assert.Equal(t, "Employer", income.Transaction.Description)
	assert.Equal(t, alfaDefaultAccount, income.AccountName)
}

func TestAlfaType(t *testing.T) {
	tests := map[string]domain.TransactionType{
		"Пополнение":      domain.TypeTransfer,
		"автопополнение":  domain.TypeTransfer,
		"Transfer in":     domain.TypeTransfer,
		"income":          domain.TypeIncome,
		"Расход":          domain.TypeExpense,
		"":                domain.TypeExpense,
	}
	for raw, want := range tests {
		assert.Equal(t, want, alfaType(raw), raw)
	}
}

func TestTinkoffParser(t *testing.T) {
	parsed, err := (&TinkoffParser{}).Parse(strings.NewReader(tinkoffCSV))
	require.NoError(t, err)
	require.Len(t, parsed.Records, 2)
	assert.Equal(t, 1, parsed.Skipped)

	taxi := parsed.Records[0]
	assert.Equal(t, "*1234", taxi.AccountNumber)
	assert.Equal(t, time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC), taxi.Transaction.Date)
	assert.True(t, d("-480").Equal(taxi.Transaction.Amount))
	assert.Equal(t, domain.TypeExpense, taxi.Transaction.Type)
	assert.Equal(t, "Yandex Go", taxi.Transaction.Description)
	assert.Equal(t, "Yandex Go", taxi.Transaction.Merchant)
	assert.Equal(t, "4121", taxi.Transaction.MCC)

	bonus := parsed.Records[1]
	assert.Equal(t, tinkoffAccountName, bonus.AccountNumber)
	assert.Equal(t, "RUB", bonus.Transaction.Currency)
	assert.Equal(t, domain.TypeIncome, bonus.Transaction.Type)
}

func TestParser_EmptyInput(t *testing.T) {
	parsed, err := (&TinkoffParser{}).Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, parsed.Records)
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{"alfa", "tinkoff"}, r.Formats())
	assert.IsType(t, &AlfaParser{}, r.Get("ALFA"))
	assert.Nil(t, r.Get("sber"))
	assert.Panics(t, func() { r.Register(&AlfaParser{}) })
}

// MockCategorizer is a mock implementation of Categorizer.
type MockCategorizer struct {
	CategorizeFunc func(ctx context.Context, tx *domain.Transaction) (string, bool)
	Seen           []*domain.Transaction
}

func (m *MockCategorizer) Categorize(ctx context.Context, tx *domain.Transaction) (string, bool) {
	m.Seen = append(m.Seen, tx)
	if m.CategorizeFunc != nil {
		return m.CategorizeFunc(ctx, tx)
	}
	tx.SetCategory(taxonomy.Groceries, domain.SourceMapping)
	return taxonomy.Groceries, true
}

func newTestService(vault *domain.Vault, cat Categorizer) *Service {
	s := NewService(nil, vault, cat)
	n := 0
	s.newID = func() string {
		n++
		return "id-" + string(rune('0'+n))
	}
	s.now = func() time.Time { return time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC) }
	return s
}

func TestService_Import(t *testing.T) {
	vault := domain.NewVault()
	cat := &MockCategorizer{}
	s := newTestService(vault, cat)

	res, err := s.Import(context.Background(), "alfa", strings.NewReader(alfaCSV), "alfa.csv")
	require.NoError(t, err)

	assert.Equal(t, domain.Batch{
		ID:         "id-1",
		Filename:   "alfa.csv",
		Bank:       "alfa",
		ImportedAt: time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC),
		Count:      3,
	}, res.Batch)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 3, res.Categorized)

	txs := vault.Transactions()
	require.Len(t, txs, 3)
	for _, tx := range txs {
		assert.Equal(t, "id-1", tx.BatchID)
		assert.NotEmpty(t, tx.ID)
	}
	assert.Equal(t, "alfa:40817", txs[0].AccountID)
	assert.Equal(t, "alfa:"+alfaDefaultAccount, txs[2].AccountID)
	assert.Len(t, vault.Accounts(), 2)
	assert.Equal(t, []domain.Batch{res.Batch}, vault.Batches())

	// the categorizer saw the expense and the income, not the transfer
	require.Len(t, cat.Seen, 2)
	assert.Same(t, txs[0], cat.Seen[0])
	assert.Same(t, txs[2], cat.Seen[1])
}

func TestService_TransferBookedAsTopUp(t *testing.T) {
	vault := domain.NewVault()
	cat := &MockCategorizer{}
	s := newTestService(vault, cat)

	_, err := s.Import(context.Background(), "alfa", strings.NewReader(alfaCSV), "alfa.csv")
	require.NoError(t, err)

	transfer := vault.Transactions()[1]
	assert.Equal(t, domain.TypeTransfer, transfer.Type)
	assert.Equal(t, taxonomy.TopUp, transfer.CategoryID)
	assert.Equal(t, domain.SourceImport, transfer.CategorizationSource)
	for _, seen := range cat.Seen {
		assert.NotSame(t, transfer, seen)
	}
}

func TestService_UncategorizedCount(t *testing.T) {
	cat := &MockCategorizer{CategorizeFunc: func(_ context.Context, tx *domain.Transaction) (string, bool) {
		tx.SetCategory("", domain.SourceUnknown)
		return "", false
	}}
	s := newTestService(domain.NewVault(), cat)

	res, err := s.Import(context.Background(), "tinkoff", strings.NewReader(tinkoffCSV), "t.csv")
	require.NoError(t, err)
	assert.Zero(t, res.Categorized)
	assert.Equal(t, 2, res.Batch.Count)
}

func TestService_UnknownFormat(t *testing.T) {
	s := newTestService(domain.NewVault(), &MockCategorizer{})
	_, err := s.Import(context.Background(), "sber", strings.NewReader(""), "x.csv")
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestService_ParseError(t *testing.T) {
	vault := domain.NewVault()
	s := newTestService(vault, &MockCategorizer{})

	_, err := s.Import(context.Background(), "alfa", iotest.ErrReader(errors.New("disk gone")), "x.csv")
	assert.Error(t, err)
	assert.Empty(t, vault.Transactions())
	assert.Empty(t, vault.Batches())
}
