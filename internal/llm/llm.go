// Package llm is the external-model categorization stage. It asks a chat
// model for one leaf category id and caches successful answers.
package llm

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-categorizer/internal/domain"
	"github.com/dvloznov/finance-categorizer/internal/features"
)

const (
	DefaultTimeout   = 12 * time.Second
	DefaultCacheTTL  = time.Hour
	DefaultMaxTokens = 20
)

// Message is one turn of a chat request.
type Message struct {
	Role    string // RoleUser or RoleAssistant
	Content string
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Request is a provider-neutral chat completion request.
type Request struct {
	Model       string
	System      string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Completer sends a chat request to a model provider and returns the text of
// the first answer.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Config holds the categorizer settings.
type Config struct {
	Model    string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Status is the operator-facing view of the categorizer.
type Status struct {
	Ready     bool   `json:"ready"`
	Model     string `json:"model,omitempty"`
	CacheSize int    `json:"cache_size"`
}

type cacheKey struct {
	merchant, bankCategory, mcc, text, bank string
}

type cacheEntry struct {
	categoryID string
	storedAt   time.Time
}

// Categorizer is safe for concurrent use.
type Categorizer struct {
	completer Completer
	cfg       Config
	logger    zerolog.Logger
	now       func() time.Time

	mu    sync.Mutex
	cache map[cacheKey]cacheEntry
}

// New returns a categorizer. A nil completer yields one that is never ready.
func New(completer Completer, cfg Config, logger zerolog.Logger) *Categorizer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	return &Categorizer{
		completer: completer,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		cache:     make(map[cacheKey]cacheEntry),
	}
}

// IsReady reports whether a transport and a model are configured.
// Transports refuse construction without an endpoint and a credential.
func (c *Categorizer) IsReady() bool {
	return c != nil && c.completer != nil && c.cfg.Model != ""
}

// Status returns readiness, model id and the number of cached answers.
func (c *Categorizer) Status() Status {
	if c == nil {
		return Status{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{Ready: c.IsReady(), Model: c.cfg.Model, CacheSize: len(c.cache)}
}

// Predict asks the model for the category of tx. Transport failures,
// timeouts and answers outside the leaf set all yield no answer.
func (c *Categorizer) Predict(ctx context.Context, tx *domain.Transaction) (string, bool) {
	if !c.IsReady() {
		return "", false
	}

	f := features.Extract(tx)
	key := cacheKey{
		merchant:     f.MerchantNorm,
		bankCategory: f.BankCategoryNorm,
		mcc:          f.MCC,
		text:         f.Text,
		bank:         f.Bank,
	}
	if id, ok := c.lookup(key); ok {
		return id, true
	}

	req, err := buildRequest(c.cfg.Model, tx, f)
	if err != nil {
		c.logger.Warn().Err(err).Str("transaction_id", tx.ID).Msg("Failed to build model request")
		return "", false
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	answer, err := c.completer.Complete(callCtx, req)
	if err != nil {
		c.logger.Warn().Err(err).Str("transaction_id", tx.ID).Msg("Model request failed")
		return "", false
	}

	id, ok := ParseAnswer(answer)
	if !ok {
		c.logger.Debug().Str("transaction_id", tx.ID).Str("answer", answer).Msg("Model answer has no allowed category")
		return "", false
	}
	c.store(key, id)
	return id, true
}

func (c *Categorizer) lookup(key cacheKey) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.cache[key]
	if !ok {
		return "", false
	}
	if c.now().Sub(e.storedAt) > c.cfg.CacheTTL {
		delete(c.cache, key)
		return "", false
	}
	return e.categoryID, true
}

func (c *Categorizer) store(key cacheKey, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = cacheEntry{categoryID: id, storedAt: c.now()}
}
