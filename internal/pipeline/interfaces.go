package pipeline

import (
	"context"

	"github.com/dvloznov/finance-categorizer/internal/domain"
)

// Classifier is the trainable statistical stage. A classifier that is not
// ready is skipped in favor of the built-in heuristic.
type Classifier interface {
	IsReady() bool
	Predict(tx *domain.Transaction) (string, bool)
}

// ExternalModel is the remote model stage. It must never block past its own
// timeout and reports failures as no answer.
type ExternalModel interface {
	IsReady() bool
	Predict(ctx context.Context, tx *domain.Transaction) (string, bool)
}
