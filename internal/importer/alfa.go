package importer

import (
	"io"
	"strings"
	"time"

	"github.com/dvloznov/finance-categorizer/internal/domain"
	"github.com/dvloznov/finance-categorizer/internal/features"
)

// AlfaParser parses Alfa-Bank comma-separated exports.
type AlfaParser struct{}

const (
	alfaBank            = "alfa"
	alfaDateFormat      = "02.01.2006"
	alfaDefaultCurrency = "RUR"
	alfaDefaultAccount  = "Счёт"
)

// Format returns the parser name.
func (p *AlfaParser) Format() string { return alfaBank }

// Bank returns the bank tag written on parsed transactions.
func (p *AlfaParser) Bank() string { return alfaBank }

// alfaType maps the export's free-form type column. Amounts in the file are
// unsigned; expenses are negated.
func alfaType(raw string) domain.TransactionType {
	raw = strings.ToLower(raw)
	switch {
	case strings.HasPrefix(raw, "попол"), strings.Contains(raw, "пополн"), strings.Contains(raw, "transfer"):
		return domain.TypeTransfer
	case strings.HasPrefix(raw, "income"):
		return domain.TypeIncome
	default:
		return domain.TypeExpense
	}
}

// Parse reads an Alfa CSV. Rows without a valid operation date are skipped.
func (p *AlfaParser) Parse(r io.Reader) (Parsed, error) {
	t, err := readTable(r, ',')
	if err != nil {
		return Parsed{}, err
	}

	var out Parsed
	for _, row := range t.rows {
		date, err := time.Parse(alfaDateFormat, t.get(row, "operationDate"))
		if err != nil {
			out.Skipped++
			continue
		}

		typ := alfaType(t.get(row, "type"))
		amount := features.ParseAmount(t.get(row, "amount"))
		if typ == domain.TypeExpense {
			amount = amount.Neg()
		}

		merchant := t.get(row, "merchant")
		description := t.get(row, "comment")
		if description == "" {
			description = merchant
		}
		currency := strings.ToUpper(t.get(row, "currency"))
		if currency == "" {
			currency = alfaDefaultCurrency
		}
		name := t.get(row, "accountName")
		if name == "" {
			name = alfaDefaultAccount
		}

		out.Records = append(out.Records, Record{
			AccountName:   name,
			AccountNumber: t.get(row, "accountNumber"),
			Transaction: domain.Transaction{
				Bank:         alfaBank,
				Date:         dayOf(date),
				Amount:       amount,
				Currency:     currency,
				Type:         typ,
				Description:  description,
				Merchant:     merchant,
				MCC:          t.get(row, "mcc"),
				BankCategory: t.get(row, "category"),
			},
		})
	}
	return out, nil
}
