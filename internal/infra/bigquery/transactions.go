package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/dvloznov/finance-categorizer/internal/domain"
	"github.com/dvloznov/finance-categorizer/internal/features"
	"github.com/dvloznov/finance-categorizer/internal/taxonomy"
)

// TransactionRow is one categorized transaction in the warehouse table.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	AccountID     string `bigquery:"account_id"`
	Bank          string `bigquery:"bank"`
	BatchID       string `bigquery:"batch_id"`

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED

	Amount   *big.Rat `bigquery:"amount"`   // REQUIRED NUMERIC
	Currency string   `bigquery:"currency"` // REQUIRED
	Type     string   `bigquery:"type"`     // INCOME | EXPENSE | TRANSFER

	RawDescription        string              `bigquery:"raw_description"`
	NormalizedDescription bigquery.NullString `bigquery:"normalized_description"`
	Merchant              bigquery.NullString `bigquery:"merchant"`
	MCC                   bigquery.NullString `bigquery:"mcc"`
	BankCategory          bigquery.NullString `bigquery:"bank_category"`

	CategoryID           string              `bigquery:"category_id"` // REQUIRED
	CategoryName         string              `bigquery:"category_name"`
	GroupID              bigquery.NullString `bigquery:"group_id"`
	GroupName            bigquery.NullString `bigquery:"group_name"`
	CategorizationSource string              `bigquery:"categorization_source"`

	ExportedTS time.Time `bigquery:"exported_ts"` // REQUIRED
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

// NewTransactionRow converts a categorized transaction.
func NewTransactionRow(tx *domain.Transaction, exportedAt time.Time) *TransactionRow {
	row := &TransactionRow{
		TransactionID:         tx.ID,
		AccountID:             tx.AccountID,
		Bank:                  tx.Bank,
		BatchID:               tx.BatchID,
		TransactionDate:       civil.DateOf(tx.Date),
		Amount:                tx.Amount.Rat(),
		Currency:              tx.Currency,
		Type:                  string(tx.Type),
		RawDescription:        tx.Description,
		NormalizedDescription: nullString(features.Normalize(tx.Description)),
		Merchant:              nullString(tx.Merchant),
		MCC:                   nullString(tx.MCC),
		BankCategory:          nullString(tx.BankCategory),
		CategoryID:            tx.CategoryID,
		CategoryName:          taxonomy.Name(tx.CategoryID),
		CategorizationSource:  tx.CategorizationSource,
		ExportedTS:            exportedAt,
	}
	if group, ok := taxonomy.ResolveGroup(tx.CategoryID); ok {
		row.GroupID = nullString(group)
		row.GroupName = nullString(taxonomy.Name(group))
	}
	return row
}
