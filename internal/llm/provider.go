package llm

import (
	"context"
	"fmt"
	"net/http"
)

// Provider names accepted by NewCompleter.
const (
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// ProviderConfig selects and configures a transport.
type ProviderConfig struct {
	Provider string
	URL      string
	APIKey   string
}

// NewCompleter builds the transport named by cfg.Provider. It returns a nil
// Completer and no error when no API key is configured, which leaves the
// categorizer not ready.
func NewCompleter(ctx context.Context, cfg ProviderConfig, client *http.Client) (Completer, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}
	var (
		c   Completer
		err error
	)
	switch cfg.Provider {
	case "", ProviderOpenAI:
		url := cfg.URL
		if url == "" {
			url = DefaultOpenAIURL
		}
		c, err = NewOpenAI(url, cfg.APIKey, client)
	case ProviderGemini:
		c, err = NewGemini(ctx, cfg.APIKey, cfg.URL)
	case ProviderAnthropic:
		c, err = NewAnthropic(cfg.APIKey, cfg.URL)
	default:
		return nil, fmt.Errorf("NewCompleter: unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}
