// Package materials loads the material profile table from YAML.
package materials

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/kirillkom/eco-invoice-tracker/internal/core/domain"
)

//go:embed default_materials.yaml
var defaultMaterials []byte

type fileFormat struct {
	Profiles []profileRecord `yaml:"profiles"`
	Keywords []keywordRecord `yaml:"keywords"`
}

// Factors decode through decimal's TextUnmarshaler, so YAML numbers keep their literal digits.
type profileRecord struct {
	Material             string          `yaml:"material"`
	CarbonFactor         decimal.Decimal `yaml:"carbon_factor"`
	WaterFactor          decimal.Decimal `yaml:"water_factor"`
	EnergyFactor         decimal.Decimal `yaml:"energy_factor"`
	SustainabilityRating int             `yaml:"sustainability_rating"`
}

type keywordRecord struct {
	Material string   `yaml:"material"`
	Keywords []string `yaml:"keywords"`
}

// Default returns the built-in table.
func Default() (*domain.MaterialTable, error) {
	return Parse(defaultMaterials)
}

// Load reads the table from path, or returns the built-in table when path is empty.
func Load(path string) (*domain.MaterialTable, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read materials file: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*domain.MaterialTable, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var file fileFormat
	if err := dec.Decode(&file); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "decode materials yaml", err)
	}

	profiles := make([]domain.MaterialProfile, 0, len(file.Profiles))
	for _, rec := range file.Profiles {
		profiles = append(profiles, domain.MaterialProfile{
			Material:             rec.Material,
			CarbonFactor:         rec.CarbonFactor,
			WaterFactor:          rec.WaterFactor,
			EnergyFactor:         rec.EnergyFactor,
			SustainabilityRating: rec.SustainabilityRating,
		})
	}
	rules := make([]domain.KeywordRule, 0, len(file.Keywords))
	for _, rec := range file.Keywords {
		rules = append(rules, domain.KeywordRule{Material: rec.Material, Keywords: rec.Keywords})
	}

	return domain.NewMaterialTable(profiles, rules)
}

// MustDefault is Default for tests and static wiring; it panics on a broken embedded file.
func MustDefault() *domain.MaterialTable {
	table, err := Default()
	if err != nil {
		panic(err)
	}
	return table
}
