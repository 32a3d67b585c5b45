package impact

import (
	"context"
	"strings"

	"github.com/kirillkom/eco-invoice-tracker/internal/core/domain"
	"github.com/kirillkom/eco-invoice-tracker/internal/core/ports"
)

const errNoText = "could not extract text from invoice"

// Processor runs metadata extraction, item extraction, classification and
// impact scoring over one invoice text.
type Processor struct {
	metadata   *MetadataExtractor
	items      *ItemExtractor
	classifier *MaterialClassifier
	calculator *ImpactCalculator
	ranker     *AlternativeRanker
}

func NewProcessor(table *domain.MaterialTable, recognizer ports.EntityRecognizer) *Processor {
	classifier := NewMaterialClassifier(table, recognizer)
	return &Processor{
		metadata:   NewMetadataExtractor(),
		items:      NewItemExtractor(),
		classifier: classifier,
		calculator: NewImpactCalculator(table, classifier),
		ranker:     NewAlternativeRanker(table),
	}
}

func (p *Processor) Process(ctx context.Context, text string) domain.ProcessingResult {
	if strings.TrimSpace(text) == "" {
		return domain.FailedResult(errNoText)
	}

	metadata := p.metadata.Extract(text)
	extracted := p.items.Extract(text)

	items := make([]domain.LineItem, 0, len(extracted))
	for _, item := range extracted {
		items = append(items, p.calculator.ComputeItemImpact(ctx, item))
	}
	invoiceImpact := p.calculator.ComputeInvoiceImpact(items)

	return domain.ProcessingResult{
		Status:   domain.ProcessingSuccess,
		Metadata: &metadata,
		Items:    items,
		Impact:   &invoiceImpact,
	}
}

func (p *Processor) Classify(ctx context.Context, description string) string {
	return p.classifier.Classify(ctx, description)
}

func (p *Processor) Alternatives(material string) []domain.AlternativeSuggestion {
	return p.ranker.Alternatives(material)
}
