package impact

import (
	"context"
	"log/slog"
	"strings"

	"github.com/kirillkom/eco-invoice-tracker/internal/core/domain"
	"github.com/kirillkom/eco-invoice-tracker/internal/core/ports"
)

// Entity labels whose text is searched when no keyword matches the full description.
var fallbackEntityLabels = map[string]struct{}{
	"PRODUCT": {},
	"ORG":     {},
	"MISC":    {},
}

// MaterialClassifier maps item descriptions to material ids.
// Keyword hits on the full description always beat entity-scoped hits.
type MaterialClassifier struct {
	rules      []domain.KeywordRule
	recognizer ports.EntityRecognizer
}

// NewMaterialClassifier builds a classifier over the table's rules. A nil recognizer
// disables the entity fallback.
func NewMaterialClassifier(table *domain.MaterialTable, recognizer ports.EntityRecognizer) *MaterialClassifier {
	if recognizer == nil {
		recognizer = NoEntities{}
	}
	return &MaterialClassifier{
		rules:      table.Rules(),
		recognizer: recognizer,
	}
}

func (c *MaterialClassifier) Classify(ctx context.Context, description string) string {
	if material, ok := c.matchKeywords(description); ok {
		return material
	}

	entities, err := c.recognizer.RecognizeEntities(ctx, description)
	if err != nil {
		slog.Warn("entity_recognition_failed", "description", description, "error", err)
		return domain.UnknownMaterial
	}
	for _, ent := range entities {
		if _, ok := fallbackEntityLabels[strings.ToUpper(ent.Label)]; !ok {
			continue
		}
		if material, ok := c.matchKeywords(ent.Text); ok {
			return material
		}
	}
	return domain.UnknownMaterial
}

func (c *MaterialClassifier) matchKeywords(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Material, true
			}
		}
	}
	return "", false
}

// NoEntities is an EntityRecognizer that never finds anything.
type NoEntities struct{}

func (NoEntities) RecognizeEntities(context.Context, string) ([]domain.Entity, error) {
	return nil, nil
}
