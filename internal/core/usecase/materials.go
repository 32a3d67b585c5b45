package usecase

import (
	"context"

	"github.com/kirillkom/eco-invoice-tracker/internal/core/domain"
	"github.com/kirillkom/eco-invoice-tracker/internal/core/impact"
)

// MaterialUseCase serves the material table and synchronous analysis without persistence.
type MaterialUseCase struct {
	table     *domain.MaterialTable
	processor *impact.Processor
}

func NewMaterialUseCase(table *domain.MaterialTable, processor *impact.Processor) *MaterialUseCase {
	return &MaterialUseCase{table: table, processor: processor}
}

func (uc *MaterialUseCase) Materials() []domain.MaterialProfile {
	return uc.table.Profiles()
}

func (uc *MaterialUseCase) Alternatives(material string) []domain.AlternativeSuggestion {
	return uc.processor.Alternatives(material)
}

func (uc *MaterialUseCase) Classify(ctx context.Context, description string) string {
	return uc.processor.Classify(ctx, description)
}

func (uc *MaterialUseCase) Analyze(ctx context.Context, text string) domain.ProcessingResult {
	return uc.processor.Process(ctx, text)
}
