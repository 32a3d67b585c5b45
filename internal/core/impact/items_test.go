package impact

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestItemExtractParsesStructuredLines(t *testing.T) {
	text := "Header line\nPlastic Bottles  10  2.50  25.00\nRecycled paper box 3 $4.00 $12.00\nTotal: $37.00\n"
	items := NewItemExtractor().Extract(text)

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d: %+v", len(items), items)
	}

	first := items[0]
	if first.Description != "Plastic Bottles" {
		t.Fatalf("unexpected description %q", first.Description)
	}
	if !first.Quantity.Equal(decimal.NewFromInt(10)) ||
		!first.UnitPrice.Equal(decimal.RequireFromString("2.50")) ||
		!first.TotalPrice.Equal(decimal.RequireFromString("25.00")) {
		t.Fatalf("unexpected amounts: %+v", first)
	}
	if first.WeightKg != nil {
		t.Fatalf("extractor must not set weight, got %s", first.WeightKg)
	}

	second := items[1]
	if second.Description != "Recycled paper box" || !second.UnitPrice.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("unexpected second item: %+v", second)
	}
}

func TestItemExtractSkipsNonMatchingLines(t *testing.T) {
	text := "Subtotal 25.00\nInvoice #123\n2024-01-01\nQty Price Total"
	items := NewItemExtractor().Extract(text)
	if len(items) != 0 {
		t.Fatalf("expected no items, got %+v", items)
	}
	if items == nil {
		t.Fatalf("expected empty slice, got nil")
	}
}

func TestItemExtractAcceptsFractionalQuantity(t *testing.T) {
	items := NewItemExtractor().Extract("Glass jars 2.5 $1.20 $3.00")
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if !items[0].Quantity.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("unexpected quantity %s", items[0].Quantity)
	}
}
