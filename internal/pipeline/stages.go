package pipeline

import (
	"context"

	"github.com/dvloznov/finance-categorizer/internal/domain"
	"github.com/dvloznov/finance-categorizer/internal/features"
	"github.com/dvloznov/finance-categorizer/internal/mapping"
	"github.com/dvloznov/finance-categorizer/internal/rules"
	"github.com/dvloznov/finance-categorizer/internal/taxonomy"
)

// Stage is one layer of the categorization decision. Stages run in order and
// the first one that answers wins.
type Stage interface {
	Name() string
	Categorize(ctx context.Context, tx *domain.Transaction, f features.Bundle) (categoryID, source string, ok bool)
}

// RuleStage applies the ordered rule table.
type RuleStage struct {
	engine *rules.Engine
}

func (s *RuleStage) Name() string { return "rules" }

func (s *RuleStage) Categorize(_ context.Context, tx *domain.Transaction, f features.Bundle) (string, string, bool) {
	res, ok := s.engine.Apply(tx, f)
	if !ok {
		return "", "", false
	}
	return res.CategoryID, res.Source, true
}

// MappingStage looks the bank-supplied category up in the mapping table and
// counts the labels it cannot map.
type MappingStage struct {
	table *mapping.Table
	diag  *Diagnostics
}

func (s *MappingStage) Name() string { return "mapping" }

func (s *MappingStage) Categorize(_ context.Context, tx *domain.Transaction, f features.Bundle) (string, string, bool) {
	if id, ok := s.table.Lookup(tx.Bank, f.BankCategoryNorm); ok {
		return id, domain.SourceMapping, true
	}
	if f.BankCategoryNorm != "" {
		s.diag.recordUnmapped(f.Bank, f.BankCategoryNorm)
	}
	return "", "", false
}

// ClassifierStage asks the trained classifier, or the heuristic stub while
// no trained classifier is available.
type ClassifierStage struct {
	classifier Classifier
}

func (s *ClassifierStage) Name() string { return "classifier" }

func (s *ClassifierStage) Categorize(_ context.Context, tx *domain.Transaction, f features.Bundle) (string, string, bool) {
	if s.classifier != nil && s.classifier.IsReady() {
		id, ok := s.classifier.Predict(tx)
		if !ok || !taxonomy.IsLeaf(id) {
			return "", "", false
		}
		return id, domain.SourceMLModel, true
	}
	if id, ok := Heuristic(f); ok {
		return id, domain.SourceMLStub, true
	}
	return "", "", false
}

// ExternalStage asks the external model when one is configured.
type ExternalStage struct {
	model ExternalModel
}

func (s *ExternalStage) Name() string { return "external" }

func (s *ExternalStage) Categorize(ctx context.Context, tx *domain.Transaction, _ features.Bundle) (string, string, bool) {
	if s.model == nil || !s.model.IsReady() {
		return "", "", false
	}
	id, ok := s.model.Predict(ctx, tx)
	if !ok || !taxonomy.IsLeaf(id) {
		return "", "", false
	}
	return id, domain.SourceLLM, true
}

// FallbackStage always answers: expenses become "needs labelling", anything
// else becomes "other income".
type FallbackStage struct{}

func (s *FallbackStage) Name() string { return "fallback" }

func (s *FallbackStage) Categorize(_ context.Context, tx *domain.Transaction, _ features.Bundle) (string, string, bool) {
	if tx.Type == domain.TypeExpense {
		return taxonomy.Unknown, domain.SourceFallback, true
	}
	return taxonomy.IncomeOther, domain.SourceFallback, true
}
