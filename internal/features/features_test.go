package features

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/dvloznov/finance-categorizer/internal/domain"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"lowercase", "OZON", "ozon"},
		{"punctuation", "Yandex*5399.Market", "yandex 5399 market"},
		{"yo folded", "Зачислён КЭШБЭК", "зачислен кэшбэк"},
		{"whitespace collapsed", "  a \t\n b  ", "a b"},
		{"nbsp", "a\u00a0b", "a b"},
		{"underscore kept", "wb_ru", "wb_ru"},
		{"only punctuation", "!!!", ""},
		{"digits kept", "MCC 5411", "mcc 5411"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"", "Salary for November", "ПЕРЕВОД между своими счетами!",
		"Ёлка — 1 234,50 ₽", "  wb.ru/\tOZON  ", "a  b", "ёЁёЁ",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestExtract(t *testing.T) {
	tx := &domain.Transaction{
		Bank:         "Tinkoff",
		Amount:       decimal.RequireFromString("-120.50"),
		Description:  "Покупка. OZON",
		Merchant:     "OZON.ru",
		MCC:          " 5399 ",
		BankCategory: "Маркетплейсы",
	}

	b := Extract(tx)

	assert.Equal(t, "покупка ozon ozon ru маркетплейсы", b.Text)
	assert.Equal(t, "маркетплейсы", b.BankCategoryNorm)
	assert.Equal(t, "ozon ru", b.MerchantNorm)
	assert.Equal(t, "5399", b.MCC)
	assert.True(t, b.AmountAbs.Equal(decimal.RequireFromString("120.50")))
	assert.Equal(t, "tinkoff", b.Bank)
}

func TestExtract_AbsentFields(t *testing.T) {
	b := Extract(&domain.Transaction{})

	assert.Empty(t, b.Text)
	assert.Empty(t, b.BankCategoryNorm)
	assert.Empty(t, b.MerchantNorm)
	assert.Empty(t, b.MCC)
	assert.True(t, b.AmountAbs.IsZero())
}

func TestClassifierText(t *testing.T) {
	b := Bundle{Text: "lenta", BankCategoryNorm: "супермаркеты", Bank: "alfa", MCC: "5411"}
	assert.Equal(t, "lenta супермаркеты alfa 5411", b.ClassifierText())
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 234,50", "1234.5"},
		{"-99.90", "-99.9"},
		{"1 000", "1000"},
		{"", "0"},
		{"abc", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAmount(tt.input).String())
		})
	}
}
