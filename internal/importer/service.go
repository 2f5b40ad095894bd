package importer

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/finance-categorizer/internal/domain"
	"github.com/dvloznov/finance-categorizer/internal/logger"
	"github.com/dvloznov/finance-categorizer/internal/taxonomy"
)

// Categorizer assigns a category to one transaction in place.
type Categorizer interface {
	Categorize(ctx context.Context, tx *domain.Transaction) (string, bool)
}

// Result summarizes one import.
type Result struct {
	Batch       domain.Batch
	Skipped     int
	Categorized int
}

// Service imports export files into a vault.
type Service struct {
	registry    *Registry
	vault       *domain.Vault
	categorizer Categorizer
	now         func() time.Time
	newID       func() string
}

// NewService creates an import service. A nil registry uses DefaultRegistry.
func NewService(registry *Registry, vault *domain.Vault, categorizer Categorizer) *Service {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Service{
		registry:    registry,
		vault:       vault,
		categorizer: categorizer,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Import parses r with the parser registered for format, stores the rows as a
// new batch and categorizes them. TRANSFER rows are booked as top-ups
// directly and never reach the categorizer.
func (s *Service) Import(ctx context.Context, format string, r io.Reader, filename string) (Result, error) {
	log := logger.FromContext(ctx)

	parser := s.registry.Get(format)
	if parser == nil {
		return Result{}, fmt.Errorf("Import: %w: %q", ErrUnknownFormat, format)
	}

	parsed, err := parser.Parse(r)
	if err != nil {
		return Result{}, fmt.Errorf("Import: parse %s file: %w", parser.Format(), err)
	}

	batch := domain.Batch{
		ID:         s.newID(),
		Filename:   filename,
		Bank:       parser.Bank(),
		ImportedAt: s.now().UTC(),
		Count:      len(parsed.Records),
	}
	res := Result{Batch: batch, Skipped: parsed.Skipped}

	txs := make([]*domain.Transaction, 0, len(parsed.Records))
	for _, rec := range parsed.Records {
		tx := rec.Transaction
		tx.ID = s.newID()
		tx.AccountID = s.vault.EnsureAccount(tx.Bank, rec.AccountName, rec.AccountNumber)
		tx.BatchID = batch.ID
		txs = append(txs, &tx)
	}
	s.vault.Add(txs...)
	s.vault.AddBatch(batch)

	for _, tx := range txs {
		if tx.Type == domain.TypeTransfer {
			if !tx.IsCategorized() {
				tx.SetCategory(taxonomy.TopUp, domain.SourceImport)
			}
			res.Categorized++
			continue
		}
		if _, ok := s.categorizer.Categorize(ctx, tx); ok {
			res.Categorized++
		}
	}

	log.Info().
		Str("batch_id", batch.ID).
		Str("format", parser.Format()).
		Str("filename", filename).
		Int("imported", batch.Count).
		Int("skipped", res.Skipped).
		Int("categorized", res.Categorized).
		Msg("Import finished")
	return res, nil
}
