// Package classifier is the trainable statistical stage of the pipeline: a
// TF-IDF naive Bayes model over the transaction's classifier text.
package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jbrukh/bayesian"
	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-categorizer/internal/domain"
	"github.com/dvloznov/finance-categorizer/internal/features"
	"github.com/dvloznov/finance-categorizer/internal/taxonomy"
)

// ErrNotTrained is returned by Save on a model that has not been fitted.
var ErrNotTrained = errors.New("classifier: model is not trained")

// minClasses is the smallest label set the model can separate.
const minClasses = 2

// Metrics holds hold-out evaluation results.
type Metrics struct {
	Accuracy    float64 `json:"accuracy"`
	F1Macro     float64 `json:"f1_macro"`
	TestSamples int     `json:"test_samples"`
}

// TrainingStatus describes the current model.
type TrainingStatus struct {
	Trained   bool      `json:"trained"`
	Samples   int       `json:"samples"`
	Classes   []string  `json:"classes"`
	Metrics   *Metrics  `json:"metrics,omitempty"`
	TrainedAt time.Time `json:"trained_at,omitempty"`
}

type sample struct {
	terms []string
	label string
}

// Model is safe for concurrent use.
type Model struct {
	mu      sync.RWMutex
	cl      *bayesian.Classifier
	classes map[string]bool
	status  TrainingStatus
	logger  zerolog.Logger
	now     func() time.Time
}

// New returns an untrained model.
func New(logger zerolog.Logger) *Model {
	return &Model{logger: logger, now: time.Now}
}

// Trainable reports whether tx carries a label the model should learn from.
// Service movements and the generic unknown leaf are excluded.
func Trainable(tx *domain.Transaction) bool {
	id := tx.CategoryID
	return id != "" && id != taxonomy.Unknown && !taxonomy.IsService(id) && taxonomy.IsLeaf(id)
}

func terms(tx *domain.Transaction) []string {
	return strings.Fields(features.Extract(tx).ClassifierText())
}

func collect(txs []*domain.Transaction) []sample {
	var out []sample
	for _, tx := range txs {
		if !Trainable(tx) {
			continue
		}
		t := terms(tx)
		if len(t) == 0 {
			continue
		}
		out = append(out, sample{terms: t, label: tx.CategoryID})
	}
	return out
}

func labels(samples []sample) []string {
	seen := make(map[string]bool)
	for _, s := range samples {
		seen[s.label] = true
	}
	out := make([]string, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

func train(samples []sample, classes []string) *bayesian.Classifier {
	bc := make([]bayesian.Class, len(classes))
	for i, c := range classes {
		bc[i] = bayesian.Class(c)
	}
	cl := bayesian.NewClassifierTfIdf(bc...)
	for _, s := range samples {
		cl.Learn(s.terms, bayesian.Class(s.label))
	}
	cl.ConvertTermsFreqToTfIdf()
	return cl
}

func predict(cl *bayesian.Classifier, t []string) string {
	_, inx, _ := cl.LogScores(t)
	return string(cl.Classes[inx])
}

// Fit trains a new model from the labeled transactions and replaces the
// current one. With fewer than two usable classes the model becomes untrained.
func (m *Model) Fit(txs []*domain.Transaction) TrainingStatus {
	samples := collect(txs)
	classes := labels(samples)

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(classes) < minClasses {
		m.cl = nil
		m.classes = nil
		m.status = TrainingStatus{Samples: len(samples), Classes: classes}
		m.logger.Info().Int("samples", len(samples)).Int("classes", len(classes)).Msg("Not enough classes to train classifier")
		return m.status
	}

	metrics := evaluate(samples)
	m.cl = train(samples, classes)
	m.classes = make(map[string]bool, len(classes))
	for _, c := range classes {
		m.classes[c] = true
	}
	m.status = TrainingStatus{
		Trained:   true,
		Samples:   len(samples),
		Classes:   classes,
		Metrics:   metrics,
		TrainedAt: m.now().UTC(),
	}

	ev := m.logger.Info().Int("samples", len(samples)).Int("classes", len(classes))
	if metrics != nil {
		ev = ev.Float64("accuracy", metrics.Accuracy).Float64("f1_macro", metrics.F1Macro)
	}
	ev.Msg("Classifier trained")
	return m.status
}

// IsReady reports whether Predict can return answers.
func (m *Model) IsReady() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cl != nil
}

// Predict returns the most likely class for tx. The answer is always one of
// the classes seen during training.
func (m *Model) Predict(tx *domain.Transaction) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cl == nil {
		return "", false
	}
	t := terms(tx)
	if len(t) == 0 {
		return "", false
	}
	label := predict(m.cl, t)
	if !m.classes[label] {
		return "", false
	}
	return label, true
}

// Status returns a copy of the current training status.
func (m *Model) Status() TrainingStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := m.status
	st.Classes = append([]string(nil), m.status.Classes...)
	if m.status.Metrics != nil {
		mc := *m.status.Metrics
		st.Metrics = &mc
	}
	return st
}

func metaPath(path string) string { return path + ".json" }

// Save writes the model to path and its status to path + ".json".
func (m *Model) Save(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cl == nil {
		return ErrNotTrained
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("Save: create model file: %w", err)
	}
	if err := m.cl.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("Save: encode model: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("Save: close model file: %w", err)
	}

	meta, err := json.MarshalIndent(m.status, "", "  ")
	if err != nil {
		return fmt.Errorf("Save: encode status: %w", err)
	}
	if err := os.WriteFile(metaPath(path), meta, 0o644); err != nil {
		return fmt.Errorf("Save: write status: %w", err)
	}
	return nil
}

// Load replaces the model with the one stored at path. A missing file is not
// an error: Load reports false and leaves the model unchanged.
func (m *Model) Load(path string) (bool, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("Load: open model file: %w", err)
	}
	defer f.Close()

	cl, err := bayesian.NewClassifierFromReader(f)
	if err != nil {
		return false, fmt.Errorf("Load: decode model: %w", err)
	}

	var status TrainingStatus
	if meta, err := os.ReadFile(metaPath(path)); err == nil {
		if err := json.Unmarshal(meta, &status); err != nil {
			return false, fmt.Errorf("Load: decode status: %w", err)
		}
	}

	classes := make(map[string]bool, len(cl.Classes))
	status.Classes = status.Classes[:0]
	for _, c := range cl.Classes {
		if !taxonomy.IsLeaf(string(c)) {
			return false, fmt.Errorf("Load: model class %q is not a leaf category", c)
		}
		classes[string(c)] = true
		status.Classes = append(status.Classes, string(c))
	}
	status.Trained = true

	m.mu.Lock()
	m.cl = cl
	m.classes = classes
	m.status = status
	m.mu.Unlock()

	m.logger.Info().Str("path", path).Int("classes", len(classes)).Msg("Classifier loaded")
	return true, nil
}
