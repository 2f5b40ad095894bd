package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dvloznov/finance-categorizer/internal/domain"
	"github.com/dvloznov/finance-categorizer/internal/features"
	"github.com/dvloznov/finance-categorizer/internal/taxonomy"
)

const systemPrompt = "You classify bank operations into one category id. " +
	"Respond ONLY with JSON like {\"category_id\": \"base_transport_taxi\"}. " +
	"Use one of the allowed category ids provided by the user."

type example struct {
	Description  string      `json:"description"`
	Merchant     string      `json:"merchant"`
	BankCategory string      `json:"bank_category"`
	MCC          string      `json:"mcc"`
	Amount       json.Number `json:"amount"`
	Bank         string      `json:"bank"`
}

type userPayload struct {
	example
	NormalizedText     string   `json:"normalized_text"`
	AllowedCategoryIDs []string `json:"allowed_category_ids"`
}

type answer struct {
	CategoryID string `json:"category_id,omitempty"`
	Category   string `json:"category,omitempty"`
}

var fewShots = []struct {
	in  example
	out string
}{
	{example{"Lenta supermarket purchase", "Lenta", "supermarket", "5411", "-1543.2", "tinkoff"}, taxonomy.Groceries},
	{example{"Yandex Go taxi ride", "Yandex Taxi", "taxi", "4121", "-480", "alfa"}, "base_transport_taxi"},
	{example{"Apteka Izhevsk", "Apteka 36-6", "pharmacy", "5122", "-920.5", "tinkoff"}, "base_shopping_pharmacy"},
}

var allowedIDs = taxonomy.LeafIDs()

func buildRequest(model string, tx *domain.Transaction, f features.Bundle) (Request, error) {
	req := Request{
		Model:       model,
		System:      systemPrompt,
		Temperature: 0,
		MaxTokens:   DefaultMaxTokens,
	}

	for _, shot := range fewShots {
		in, err := json.Marshal(shot.in)
		if err != nil {
			return Request{}, fmt.Errorf("buildRequest: encode example: %w", err)
		}
		out, err := json.Marshal(answer{CategoryID: shot.out})
		if err != nil {
			return Request{}, fmt.Errorf("buildRequest: encode example answer: %w", err)
		}
		req.Messages = append(req.Messages,
			Message{Role: RoleUser, Content: string(in)},
			Message{Role: RoleAssistant, Content: string(out)},
		)
	}

	payload := userPayload{
		example: example{
			Description:  tx.Description,
			Merchant:     tx.Merchant,
			BankCategory: tx.BankCategory,
			MCC:          tx.MCC,
			Amount:       json.Number(tx.Amount.String()),
			Bank:         tx.Bank,
		},
		NormalizedText:     f.Text,
		AllowedCategoryIDs: allowedIDs,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Request{}, fmt.Errorf("buildRequest: encode payload: %w", err)
	}
	req.Messages = append(req.Messages, Message{Role: RoleUser, Content: string(body)})
	return req, nil
}

// ParseAnswer extracts a leaf category id from a model answer. A JSON object
// with "category_id" or "category" is preferred; otherwise the first allowed
// id found in the text is used. Anything else is no answer.
func ParseAnswer(text string) (string, bool) {
	var a answer
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &a); err == nil {
		candidate := a.CategoryID
		if candidate == "" {
			candidate = a.Category
		}
		if taxonomy.IsLeaf(candidate) {
			return candidate, true
		}
	}

	for _, id := range allowedIDs {
		if strings.Contains(text, id) {
			return id, true
		}
	}
	return "", false
}
