package impact

import (
	"sort"

	"github.com/kirillkom/eco-invoice-tracker/internal/core/domain"
)

const maxAlternatives = 5

// AlternativeRanker suggests materials with a strictly better sustainability rating.
type AlternativeRanker struct {
	table *domain.MaterialTable
}

func NewAlternativeRanker(table *domain.MaterialTable) *AlternativeRanker {
	return &AlternativeRanker{table: table}
}

// Alternatives orders candidates by improvement, highest first, then by material id.
func (r *AlternativeRanker) Alternatives(material string) []domain.AlternativeSuggestion {
	current, ok := r.table.Profile(material)
	if !ok {
		return []domain.AlternativeSuggestion{}
	}

	out := make([]domain.AlternativeSuggestion, 0)
	for _, candidate := range r.table.Profiles() {
		if candidate.Material == current.Material || candidate.SustainabilityRating <= current.SustainabilityRating {
			continue
		}
		out = append(out, domain.AlternativeSuggestion{
			Material:             candidate.Material,
			SustainabilityRating: candidate.SustainabilityRating,
			Improvement:          candidate.SustainabilityRating - current.SustainabilityRating,
			CarbonFactor:         candidate.CarbonFactor,
			WaterFactor:          candidate.WaterFactor,
			EnergyFactor:         candidate.EnergyFactor,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Improvement != out[j].Improvement {
			return out[i].Improvement > out[j].Improvement
		}
		return out[i].Material < out[j].Material
	})
	if len(out) > maxAlternatives {
		out = out[:maxAlternatives]
	}
	return out
}
