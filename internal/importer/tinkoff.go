package importer

import (
	"io"
	"strings"
	"time"

	"github.com/dvloznov/finance-categorizer/internal/domain"
	"github.com/dvloznov/finance-categorizer/internal/features"
)

// TinkoffParser parses Tinkoff semicolon-separated exports.
type TinkoffParser struct{}

const (
	tinkoffBank            = "tinkoff"
	tinkoffDateFormat      = "02.01.2006 15:04:05"
	tinkoffDefaultCurrency = "RUB"
	tinkoffAccountName     = "Tinkoff"

	tinkoffColDate     = "Дата операции"
	tinkoffColAmount   = "Сумма операции"
	tinkoffColCard     = "Номер карты"
	tinkoffColCurrency = "Валюта операции"
	tinkoffColDesc     = "Описание"
	tinkoffColMCC      = "MCC"
	tinkoffColCategory = "Категория"
)

// Format returns the parser name.
func (p *TinkoffParser) Format() string { return tinkoffBank }

// Bank returns the bank tag written on parsed transactions.
func (p *TinkoffParser) Bank() string { return tinkoffBank }

// Parse reads a Tinkoff CSV. Amounts are already signed; the sign decides
// between income and expense.
func (p *TinkoffParser) Parse(r io.Reader) (Parsed, error) {
	t, err := readTable(r, ';')
	if err != nil {
		return Parsed{}, err
	}

	var out Parsed
	for _, row := range t.rows {
		date, err := time.Parse(tinkoffDateFormat, t.get(row, tinkoffColDate))
		if err != nil {
			out.Skipped++
			continue
		}

		amount := features.ParseAmount(t.get(row, tinkoffColAmount))
		typ := domain.TypeIncome
		if amount.IsNegative() {
			typ = domain.TypeExpense
		}

		card := t.get(row, tinkoffColCard)
		if card == "" {
			card = tinkoffAccountName
		}
		currency := strings.ToUpper(t.get(row, tinkoffColCurrency))
		if currency == "" {
			currency = tinkoffDefaultCurrency
		}
		desc := t.get(row, tinkoffColDesc)

		out.Records = append(out.Records, Record{
			AccountName:   tinkoffAccountName,
			AccountNumber: card,
			Transaction: domain.Transaction{
				Bank:         tinkoffBank,
				Date:         dayOf(date),
				Amount:       amount,
				Currency:     currency,
				Type:         typ,
				Description:  desc,
				Merchant:     desc,
				MCC:          t.get(row, tinkoffColMCC),
				BankCategory: t.get(row, tinkoffColCategory),
			},
		})
	}
	return out, nil
}
