// Package pipeline assigns a taxonomy leaf to each transaction by running the
// categorization stages in strict precedence: rules, mapping table,
// classifier (or heuristic), external model, fallback.
package pipeline

import (
	"context"

	"github.com/dvloznov/finance-categorizer/internal/domain"
	"github.com/dvloznov/finance-categorizer/internal/features"
	"github.com/dvloznov/finance-categorizer/internal/logger"
	"github.com/dvloznov/finance-categorizer/internal/mapping"
	"github.com/dvloznov/finance-categorizer/internal/rules"
	"github.com/dvloznov/finance-categorizer/internal/taxonomy"
)

// Pipeline executes its stages in order for each transaction.
type Pipeline struct {
	stages []Stage
	diag   *Diagnostics
}

type options struct {
	rules        *rules.Engine
	table        *mapping.Table
	classifier   Classifier
	external     ExternalModel
	skipFallback bool
}

// Option customizes a Pipeline.
type Option func(*options)

// WithRules replaces the default rule engine.
func WithRules(e *rules.Engine) Option { return func(o *options) { o.rules = e } }

// WithMapping replaces the built-in mapping table.
func WithMapping(t *mapping.Table) Option { return func(o *options) { o.table = t } }

// WithClassifier sets the statistical classifier.
func WithClassifier(c Classifier) Option { return func(o *options) { o.classifier = c } }

// WithExternalModel sets the external model.
func WithExternalModel(m ExternalModel) Option { return func(o *options) { o.external = m } }

// WithoutFallback drops the fallback stage so unresolved transactions stay
// uncategorized and are counted as unknown.
func WithoutFallback() Option { return func(o *options) { o.skipFallback = true } }

// New creates the standard categorization pipeline.
func New(opts ...Option) *Pipeline {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rules == nil {
		o.rules = rules.NewEngine(nil)
	}
	if o.table == nil {
		o.table = mapping.Default()
	}

	diag := NewDiagnostics()
	stages := []Stage{
		&RuleStage{engine: o.rules},
		&MappingStage{table: o.table, diag: diag},
		&ClassifierStage{classifier: o.classifier},
		&ExternalStage{model: o.external},
	}
	if !o.skipFallback {
		stages = append(stages, &FallbackStage{})
	}
	return &Pipeline{stages: stages, diag: diag}
}

// Diagnostics returns the collector owned by this pipeline.
func (p *Pipeline) Diagnostics() *Diagnostics { return p.diag }

// Categorize runs the stages on tx and records the result on it. It returns
// the assigned leaf, or false when every stage declined; in that case the
// category is cleared and the source is set to "unknown".
func (p *Pipeline) Categorize(ctx context.Context, tx *domain.Transaction) (string, bool) {
	log := logger.FromContext(ctx)
	f := features.Extract(tx)

	for _, stage := range p.stages {
		id, source, ok := stage.Categorize(ctx, tx, f)
		if !ok {
			continue
		}
		tx.SetCategory(id, source)
		log.Debug().
			Str("transaction_id", tx.ID).
			Str("category_id", id).
			Str("source", source).
			Str("stage", stage.Name()).
			Msg("Transaction categorized")
		return id, true
	}

	tx.SetCategory("", domain.SourceUnknown)
	p.diag.recordUnknown(f.BankCategoryNorm)
	log.Debug().Str("transaction_id", tx.ID).Msg("Transaction left uncategorized")
	return "", false
}

// CategorizeAll categorizes every transaction and returns how many received
// a category.
func (p *Pipeline) CategorizeAll(ctx context.Context, txs []*domain.Transaction) int {
	n := 0
	for _, tx := range txs {
		if _, ok := p.Categorize(ctx, tx); ok {
			n++
		}
	}
	return n
}

// NeedsReclassification reports whether tx is unresolved: no category, or
// the generic "needs labelling" leaf.
func NeedsReclassification(tx *domain.Transaction) bool {
	return tx.CategoryID == "" || tx.CategoryID == taxonomy.Unknown
}

// ReclassifyUnknown gives unresolved transactions a fresh pass and leaves
// every other transaction untouched. It returns how many were re-run.
func (p *Pipeline) ReclassifyUnknown(ctx context.Context, txs []*domain.Transaction) int {
	n := 0
	for _, tx := range txs {
		if !NeedsReclassification(tx) {
			continue
		}
		tx.ClearCategory()
		p.Categorize(ctx, tx)
		n++
	}
	log := logger.FromContext(ctx)
	log.Info().Int("reclassified", n).Int("total", len(txs)).Msg("Reclassified unresolved transactions")
	return n
}

// UnmappedSummary returns the most frequent unmapped bank categories.
func (p *Pipeline) UnmappedSummary(limit int) []UnmappedEntry {
	return p.diag.Unmapped(limit)
}

// UnknownSummary returns the unknown-transaction counts.
func (p *Pipeline) UnknownSummary() []UnknownEntry {
	return p.diag.Unknown()
}

// ResetDiagnostics clears both diagnostic counters.
func (p *Pipeline) ResetDiagnostics() {
	p.diag.Reset()
}
