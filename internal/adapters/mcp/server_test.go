package mcpadapter

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/eco-invoice-tracker/internal/core/domain"
	"github.com/kirillkom/eco-invoice-tracker/internal/core/impact"
	"github.com/kirillkom/eco-invoice-tracker/internal/core/usecase"
	"github.com/kirillkom/eco-invoice-tracker/internal/infrastructure/materials"
)

func newTestTools() *Tools {
	table := materials.MustDefault()
	return NewTools(usecase.NewMaterialUseCase(table, impact.NewProcessor(table, nil)))
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatalf("empty tool result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func TestAnalyzeInvoiceText(t *testing.T) {
	tools := newTestTools()

	result, err := tools.analyzeInvoiceText(context.Background(), callRequest(toolAnalyzeInvoiceText, map[string]any{
		"text": "Invoice #INV001\nFrom: Acme Supplies\nPlastic Bottles 10 2.50 25.00",
	}))
	if err != nil {
		t.Fatalf("analyzeInvoiceText() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}

	var got domain.ProcessingResult
	if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if got.Status != domain.ProcessingSuccess || got.Metadata.InvoiceNumber != "INV001" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if len(got.Items) != 1 || got.Items[0].MaterialType != "plastic" {
		t.Fatalf("unexpected items: %+v", got.Items)
	}
}

func TestAnalyzeInvoiceTextErrors(t *testing.T) {
	tools := newTestTools()

	for name, args := range map[string]map[string]any{
		"missing": {},
		"blank":   {"text": "  "},
	} {
		result, err := tools.analyzeInvoiceText(context.Background(), callRequest(toolAnalyzeInvoiceText, args))
		if err != nil {
			t.Fatalf("%s: unexpected protocol error %v", name, err)
		}
		if !result.IsError {
			t.Fatalf("%s: expected tool error result", name)
		}
	}
}

func TestClassifyMaterial(t *testing.T) {
	tools := newTestTools()

	result, err := tools.classifyMaterial(context.Background(), callRequest(toolClassifyMaterial, map[string]any{
		"description": "Organic cotton t-shirt",
	}))
	if err != nil || result.IsError {
		t.Fatalf("classifyMaterial() = %+v, %v", result, err)
	}

	var got map[string]string
	if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if got["material"] != "organic_cotton" {
		t.Fatalf("expected organic_cotton, got %+v", got)
	}
}

func TestMaterialAlternatives(t *testing.T) {
	tools := newTestTools()

	result, err := tools.materialAlternatives(context.Background(), callRequest(toolMaterialAlternative, map[string]any{
		"material": " PLASTIC ",
	}))
	if err != nil || result.IsError {
		t.Fatalf("materialAlternatives() = %+v, %v", result, err)
	}

	var got struct {
		Material     string                         `json:"material"`
		Alternatives []domain.AlternativeSuggestion `json:"alternatives"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if got.Material != "plastic" || len(got.Alternatives) != 5 || got.Alternatives[0].Improvement != 6 {
		t.Fatalf("unexpected alternatives: %+v", got)
	}
}

func TestNewServerRegistersTools(t *testing.T) {
	table := materials.MustDefault()
	s := NewServer(usecase.NewMaterialUseCase(table, impact.NewProcessor(table, nil)), "test")

	tools := s.ListTools()
	for _, name := range []string{toolAnalyzeInvoiceText, toolClassifyMaterial, toolMaterialAlternative, toolListMaterials} {
		if _, ok := tools[name]; !ok {
			t.Fatalf("tool %q not registered", name)
		}
	}
}
