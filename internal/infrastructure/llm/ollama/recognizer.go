package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kirillkom/eco-invoice-tracker/internal/core/domain"
)

// EntityRecognizer extracts labelled entities from item descriptions with a local model.
type EntityRecognizer struct {
	client *Client
}

func NewEntityRecognizer(client *Client) *EntityRecognizer {
	return &EntityRecognizer{client: client}
}

func (r *EntityRecognizer) RecognizeEntities(ctx context.Context, text string) ([]domain.Entity, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	raw, err := r.client.generateJSON(ctx, buildEntityPrompt(text))
	if err != nil {
		return nil, err
	}
	return parseEntities(raw)
}

func parseEntities(raw string) ([]domain.Entity, error) {
	var payload struct {
		Entities []domain.Entity `json:"entities"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &payload); err != nil {
		return nil, fmt.Errorf("parse entities json: %w", err)
	}

	out := make([]domain.Entity, 0, len(payload.Entities))
	for _, ent := range payload.Entities {
		text := strings.TrimSpace(ent.Text)
		label := strings.ToUpper(strings.TrimSpace(ent.Label))
		if text == "" || label == "" {
			continue
		}
		out = append(out, domain.Entity{Text: text, Label: label})
	}
	return out, nil
}
