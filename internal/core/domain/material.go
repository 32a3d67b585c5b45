package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// UnknownMaterial is returned by classification when no rule matches.
const UnknownMaterial = "unknown"

// NeutralSustainabilityRating is used for items whose material has no profile.
const NeutralSustainabilityRating = 5

type MaterialProfile struct {
	Material             string          `json:"material"`
	CarbonFactor         decimal.Decimal `json:"carbon_factor"`
	WaterFactor          decimal.Decimal `json:"water_factor"`
	EnergyFactor         decimal.Decimal `json:"energy_factor"`
	SustainabilityRating int             `json:"sustainability_rating"`
}

// KeywordRule maps a material to the substrings that identify it.
// Rules are evaluated in slice order, so specific materials must precede generic ones.
type KeywordRule struct {
	Material string   `json:"material"`
	Keywords []string `json:"keywords"`
}

// MaterialTable is the read-only set of material profiles and classification rules.
// It is safe for concurrent use once built.
type MaterialTable struct {
	profiles map[string]MaterialProfile
	ordered  []MaterialProfile
	rules    []KeywordRule
}

func NewMaterialTable(profiles []MaterialProfile, rules []KeywordRule) (*MaterialTable, error) {
	if len(profiles) == 0 {
		return nil, WrapError(ErrInvalidInput, "build material table", fmt.Errorf("no material profiles"))
	}

	byID := make(map[string]MaterialProfile, len(profiles))
	for _, p := range profiles {
		id := strings.TrimSpace(p.Material)
		if id == "" {
			return nil, WrapError(ErrInvalidInput, "build material table", fmt.Errorf("profile without material id"))
		}
		if id == UnknownMaterial {
			return nil, WrapError(ErrInvalidInput, "build material table", fmt.Errorf("%q is reserved", UnknownMaterial))
		}
		if _, dup := byID[id]; dup {
			return nil, WrapError(ErrInvalidInput, "build material table", fmt.Errorf("duplicate material %q", id))
		}
		if p.SustainabilityRating < 1 || p.SustainabilityRating > 10 {
			return nil, WrapError(ErrInvalidInput, "build material table",
				fmt.Errorf("material %q: rating %d outside [1,10]", id, p.SustainabilityRating))
		}
		if p.CarbonFactor.IsNegative() || p.WaterFactor.IsNegative() || p.EnergyFactor.IsNegative() {
			return nil, WrapError(ErrInvalidInput, "build material table", fmt.Errorf("material %q: negative factor", id))
		}
		p.Material = id
		byID[id] = p
	}

	normalized := make([]KeywordRule, 0, len(rules))
	for _, rule := range rules {
		if _, ok := byID[rule.Material]; !ok {
			return nil, WrapError(ErrInvalidInput, "build material table",
				fmt.Errorf("keyword rule references unknown material %q", rule.Material))
		}
		keywords := make([]string, 0, len(rule.Keywords))
		for _, kw := range rule.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				keywords = append(keywords, kw)
			}
		}
		normalized = append(normalized, KeywordRule{Material: rule.Material, Keywords: keywords})
	}

	ordered := make([]MaterialProfile, 0, len(byID))
	for _, p := range byID {
		ordered = append(ordered, p)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Material < ordered[j].Material })

	return &MaterialTable{
		profiles: byID,
		ordered:  ordered,
		rules:    normalized,
	}, nil
}

func (t *MaterialTable) Profile(material string) (MaterialProfile, bool) {
	p, ok := t.profiles[material]
	return p, ok
}

// Profiles returns every profile ordered by material id.
func (t *MaterialTable) Profiles() []MaterialProfile {
	out := make([]MaterialProfile, len(t.ordered))
	copy(out, t.ordered)
	return out
}

// Rules returns the keyword rules in priority order.
func (t *MaterialTable) Rules() []KeywordRule {
	out := make([]KeywordRule, len(t.rules))
	for i, r := range t.rules {
		out[i] = KeywordRule{Material: r.Material, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}

// RatingOf returns the sustainability rating, or the neutral rating for unknown materials.
func (t *MaterialTable) RatingOf(material string) int {
	if p, ok := t.profiles[material]; ok {
		return p.SustainabilityRating
	}
	return NeutralSustainabilityRating
}

type AlternativeSuggestion struct {
	Material             string          `json:"material"`
	SustainabilityRating int             `json:"sustainability_rating"`
	Improvement          int             `json:"improvement"`
	CarbonFactor         decimal.Decimal `json:"carbon_factor"`
	WaterFactor          decimal.Decimal `json:"water_factor"`
	EnergyFactor         decimal.Decimal `json:"energy_factor"`
}

// Entity is a span produced by an entity recognizer.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}
