// Package storage persists the transaction vault as a single JSON snapshot
// held by a pluggable backend.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-categorizer/internal/domain"
	"github.com/dvloznov/finance-categorizer/internal/logger"
)

// ErrNoSnapshot is returned by backends that hold no snapshot yet.
var ErrNoSnapshot = errors.New("no snapshot stored")

const dateLayout = "2006-01-02"

// Backend stores and retrieves the encoded snapshot.
type Backend interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

// Snapshot is the persisted form of the vault.
type Snapshot struct {
	UploadedBatches []domain.Batch            `json:"uploaded_files"`
	Accounts        map[string]domain.Account `json:"accounts"`
	Transactions    []transactionRecord       `json:"operations"`
}

// transactionRecord keeps amounts as strings and dates as ISO days so the
// file stays exact and readable.
type transactionRecord struct {
	ID                   string `json:"id"`
	AccountID            string `json:"account_id"`
	Bank                 string `json:"bank"`
	Date                 string `json:"date"`
	Amount               string `json:"amount"`
	Currency             string `json:"currency"`
	Type                 string `json:"type"`
	Description          string `json:"description"`
	Merchant             string `json:"merchant,omitempty"`
	MCC                  string `json:"mcc,omitempty"`
	BankCategory         string `json:"bank_category,omitempty"`
	CategoryID           string `json:"category_id,omitempty"`
	CategorizationSource string `json:"categorization_source,omitempty"`
	SourceFileID         string `json:"source_file_id,omitempty"`
}

func toRecord(tx *domain.Transaction) transactionRecord {
	return transactionRecord{
		ID:                   tx.ID,
		AccountID:            tx.AccountID,
		Bank:                 tx.Bank,
		Date:                 tx.Date.Format(dateLayout),
		Amount:               tx.Amount.String(),
		Currency:             tx.Currency,
		Type:                 string(tx.Type),
		Description:          tx.Description,
		Merchant:             tx.Merchant,
		MCC:                  tx.MCC,
		BankCategory:         tx.BankCategory,
		CategoryID:           tx.CategoryID,
		CategorizationSource: tx.CategorizationSource,
		SourceFileID:         tx.BatchID,
	}
}

func (r transactionRecord) toTransaction() (*domain.Transaction, error) {
	date, err := time.Parse(dateLayout, r.Date)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: date: %w", r.ID, err)
	}
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: amount: %w", r.ID, err)
	}
	typ := domain.TransactionType(r.Type)
	if !typ.Valid() {
		return nil, fmt.Errorf("transaction %s: unknown type %q", r.ID, r.Type)
	}

	return &domain.Transaction{
		ID:                   r.ID,
		AccountID:            r.AccountID,
		Bank:                 r.Bank,
		Date:                 date,
		Amount:               amount,
		Currency:             r.Currency,
		Type:                 typ,
		Description:          r.Description,
		Merchant:             r.Merchant,
		MCC:                  r.MCC,
		BankCategory:         r.BankCategory,
		CategoryID:           r.CategoryID,
		CategorizationSource: r.CategorizationSource,
		BatchID:              r.SourceFileID,
	}, nil
}

// Encode serializes the vault content.
func Encode(v *domain.Vault) ([]byte, error) {
	txs := v.Transactions()
	snap := Snapshot{
		UploadedBatches: v.Batches(),
		Accounts:        v.Accounts(),
		Transactions:    make([]transactionRecord, 0, len(txs)),
	}
	for _, tx := range txs {
		snap.Transactions = append(snap.Transactions, toRecord(tx))
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("Encode: marshal snapshot: %w", err)
	}
	return data, nil
}

// Decode replaces the vault content with the snapshot in data. The vault is
// left untouched when data is invalid.
func Decode(data []byte, v *domain.Vault) error {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("Decode: unmarshal snapshot: %w", err)
	}

	txs := make([]*domain.Transaction, 0, len(snap.Transactions))
	for _, r := range snap.Transactions {
		tx, err := r.toTransaction()
		if err != nil {
			return fmt.Errorf("Decode: %w", err)
		}
		txs = append(txs, tx)
	}

	v.Restore(txs, snap.Accounts, snap.UploadedBatches)
	return nil
}

// Save writes the vault to the backend.
func Save(ctx context.Context, b Backend, v *domain.Vault) error {
	data, err := Encode(v)
	if err != nil {
		return err
	}
	if err := b.Write(ctx, data); err != nil {
		return fmt.Errorf("Save: write snapshot: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Int("transactions", len(v.Transactions())).
		Int("bytes", len(data)).
		Msg("Snapshot saved")
	return nil
}

// Load restores the vault from the backend. It returns ErrNoSnapshot
// (wrapped) when the backend is empty.
func Load(ctx context.Context, b Backend, v *domain.Vault) error {
	data, err := b.Read(ctx)
	if err != nil {
		return fmt.Errorf("Load: read snapshot: %w", err)
	}
	if err := Decode(data, v); err != nil {
		return fmt.Errorf("Load: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Int("transactions", len(v.Transactions())).
		Msg("Snapshot loaded")
	return nil
}
