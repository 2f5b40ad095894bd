package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of money movement reported by the bank.
type TransactionType string

const (
	TypeIncome   TransactionType = "INCOME"
	TypeExpense  TransactionType = "EXPENSE"
	TypeTransfer TransactionType = "TRANSFER"
)

// Valid reports whether t is one of the known types.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeTransfer:
		return true
	}
	return false
}

// Categorization source tags. Rule sources are free-form labels prefixed with "rule".
const (
	SourceMapping  = "mapping"
	SourceMLModel  = "ml_model"
	SourceMLStub   = "ml_stub"
	SourceLLM      = "llm"
	SourceFallback = "fallback_stub"
	SourceUnknown  = "unknown"
	SourceImport   = "import"
)

// Transaction represents one normalized bank-export record.
// Optional text fields use the empty string for "absent".
// Only the categorization pipeline and the import step write CategoryID and
// CategorizationSource; every other field is fixed once the record is built.
type Transaction struct {
	ID           string          `json:"id"`
	AccountID    string          `json:"account_id"`
	Bank         string          `json:"bank"`
	Date         time.Time       `json:"date"`
	Amount       decimal.Decimal `json:"amount"` // IN = positive, OUT = negative
	Currency     string          `json:"currency"`
	Type         TransactionType `json:"type"`
	Description  string          `json:"description"`
	Merchant     string          `json:"merchant,omitempty"`
	MCC          string          `json:"mcc,omitempty"`
	BankCategory string          `json:"bank_category,omitempty"`

	CategoryID           string `json:"category_id,omitempty"`
	CategorizationSource string `json:"categorization_source,omitempty"`
	BatchID              string `json:"source_file_id,omitempty"`
}

// SetCategory records the outcome of a categorization stage.
func (t *Transaction) SetCategory(categoryID, source string) {
	t.CategoryID = categoryID
	t.CategorizationSource = source
}

// ClearCategory resets both categorization-result fields.
func (t *Transaction) ClearCategory() {
	t.CategoryID = ""
	t.CategorizationSource = ""
}

// IsCategorized reports whether a category has been assigned.
func (t *Transaction) IsCategorized() bool {
	return t.CategoryID != ""
}
