package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// DefaultOpenAIURL is the chat-completions endpoint used when none is configured.
const DefaultOpenAIURL = "https://api.openai.com/v1/chat/completions"

// OpenAI talks to any OpenAI-compatible chat-completions endpoint.
type OpenAI struct {
	url    string
	apiKey string
	client *http.Client
}

// NewOpenAI returns a transport for url. Both url and apiKey are required.
// A nil client uses http.DefaultClient.
func NewOpenAI(url, apiKey string, client *http.Client) (*OpenAI, error) {
	if url == "" || apiKey == "" {
		return nil, errors.New("NewOpenAI: endpoint and API key are required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &OpenAI{url: url, apiKey: apiKey, client: client}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete posts req and returns the first choice's content. Structured
// (object) content is returned as its JSON text.
func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	body := chatRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Messages:    make([]chatMessage, 0, len(req.Messages)+1),
	}
	if req.System != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("OpenAI.Complete: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("OpenAI.Complete: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("OpenAI.Complete: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("OpenAI.Complete: unexpected status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("OpenAI.Complete: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("OpenAI.Complete: response has no choices")
	}

	content := out.Choices[0].Message.Content
	var text string
	if err := json.Unmarshal(content, &text); err == nil {
		return text, nil
	}
	return string(content), nil
}
