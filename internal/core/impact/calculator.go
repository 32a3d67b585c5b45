package impact

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/kirillkom/eco-invoice-tracker/internal/core/domain"
)

// ImpactCalculator enriches items with their material and footprints.
type ImpactCalculator struct {
	table      *domain.MaterialTable
	classifier *MaterialClassifier
}

func NewImpactCalculator(table *domain.MaterialTable, classifier *MaterialClassifier) *ImpactCalculator {
	return &ImpactCalculator{table: table, classifier: classifier}
}

// ComputeItemImpact classifies the item and multiplies its weight by the material factors.
// Weight defaults to quantity (1 kg per unit). Materials without a profile get zero impact.
func (c *ImpactCalculator) ComputeItemImpact(ctx context.Context, item domain.LineItem) domain.LineItem {
	out := item
	out.MaterialType = c.classifier.Classify(ctx, item.Description)

	weight := item.Quantity
	if item.WeightKg != nil {
		weight = *item.WeightKg
	}
	out.WeightKg = &weight

	out.CarbonFootprintKg = decimal.Zero
	out.WaterFootprintL = decimal.Zero
	out.EnergyFootprintKWh = decimal.Zero

	profile, ok := c.table.Profile(out.MaterialType)
	if !ok {
		return out
	}
	out.CarbonFootprintKg = weight.Mul(profile.CarbonFactor)
	out.WaterFootprintL = weight.Mul(profile.WaterFactor)
	out.EnergyFootprintKWh = weight.Mul(profile.EnergyFactor)
	return out
}

// ComputeInvoiceImpact sums the footprints of already enriched items and scores them.
func (c *ImpactCalculator) ComputeInvoiceImpact(items []domain.LineItem) domain.InvoiceImpact {
	totals := domain.InvoiceImpact{
		TotalCarbonFootprintKg:  decimal.Zero,
		TotalWaterFootprintL:    decimal.Zero,
		TotalEnergyFootprintKWh: decimal.Zero,
	}
	for _, item := range items {
		totals.TotalCarbonFootprintKg = totals.TotalCarbonFootprintKg.Add(item.CarbonFootprintKg)
		totals.TotalWaterFootprintL = totals.TotalWaterFootprintL.Add(item.WaterFootprintL)
		totals.TotalEnergyFootprintKWh = totals.TotalEnergyFootprintKWh.Add(item.EnergyFootprintKWh)
	}
	totals.SustainabilityScore = Score(c.table, items)
	return totals
}

// Score is the weight-weighted mean of item sustainability ratings.
// Items without a profile count as neutral and items without a weight count as 1 kg.
// An empty list or zero total weight scores 0.
func Score(table *domain.MaterialTable, items []domain.LineItem) float64 {
	if len(items) == 0 {
		return 0
	}

	weighted := decimal.Zero
	totalWeight := decimal.Zero
	for _, item := range items {
		weight := decimal.NewFromInt(1)
		if item.WeightKg != nil {
			weight = *item.WeightKg
		}
		rating := decimal.NewFromInt(int64(table.RatingOf(item.MaterialType)))
		weighted = weighted.Add(rating.Mul(weight))
		totalWeight = totalWeight.Add(weight)
	}
	if !totalWeight.IsPositive() {
		return 0
	}
	return weighted.Div(totalWeight).InexactFloat64()
}
