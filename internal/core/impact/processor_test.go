package impact

import (
	"context"
	"testing"

	"github.com/kirillkom/eco-invoice-tracker/internal/core/domain"
	"github.com/kirillkom/eco-invoice-tracker/internal/infrastructure/materials"
)

func TestProcessEndToEnd(t *testing.T) {
	text := "Invoice #INV001\nFrom: Acme Supplies\nDate: 01/15/2024\n\nPlastic Bottles  10  2.50  25.00\n\nTotal: $25.00\n"
	result := NewProcessor(materials.MustDefault(), nil).Process(context.Background(), text)

	if !result.Succeeded() {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Error != "" {
		t.Fatalf("success must not carry an error, got %q", result.Error)
	}
	if result.Metadata == nil || result.Metadata.InvoiceNumber != "INV001" || result.Metadata.SupplierName != "Acme Supplies" {
		t.Fatalf("unexpected metadata: %+v", result.Metadata)
	}
	if result.Metadata.TotalAmount == nil || !result.Metadata.TotalAmount.Equal(dec("25.00")) {
		t.Fatalf("unexpected total: %v", result.Metadata.TotalAmount)
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected 1 item, got %+v", result.Items)
	}
	item := result.Items[0]
	if item.MaterialType != "plastic" || !item.CarbonFootprintKg.Equal(dec("25")) {
		t.Fatalf("unexpected item: %+v", item)
	}
	if result.Impact == nil || !result.Impact.TotalCarbonFootprintKg.Equal(dec("25")) || result.Impact.SustainabilityScore != 3 {
		t.Fatalf("unexpected impact: %+v", result.Impact)
	}
}

func TestProcessWithoutItemsSucceeds(t *testing.T) {
	result := NewProcessor(materials.MustDefault(), nil).Process(context.Background(), "Invoice #42\nThank you")
	if !result.Succeeded() {
		t.Fatalf("expected success, got %+v", result)
	}
	if len(result.Items) != 0 || result.Impact.SustainabilityScore != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

func TestProcessEmptyTextFails(t *testing.T) {
	for _, text := range []string{"", "   \n\t"} {
		result := NewProcessor(materials.MustDefault(), nil).Process(context.Background(), text)
		if result.Status != domain.ProcessingFailed || result.Error == "" {
			t.Fatalf("expected failure for %q, got %+v", text, result)
		}
		if result.Metadata != nil || result.Items != nil || result.Impact != nil {
			t.Fatalf("failed result must not carry data: %+v", result)
		}
	}
}
