package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/eco-invoice-tracker/internal/core/ports"
)

const serverName = "eco-invoice-tracker"

const (
	toolAnalyzeInvoiceText  = "analyze_invoice_text"
	toolClassifyMaterial    = "classify_material"
	toolMaterialAlternative = "material_alternatives"
	toolListMaterials       = "list_materials"
)

// Tools exposes the impact engine to MCP clients. Nothing is persisted.
type Tools struct {
	materials ports.MaterialService
}

func NewTools(materials ports.MaterialService) *Tools {
	return &Tools{materials: materials}
}

// NewServer registers every tool on a fresh MCP server.
func NewServer(materials ports.MaterialService, version string) *server.MCPServer {
	s := server.NewMCPServer(serverName, version, server.WithToolCapabilities(false))
	NewTools(materials).Register(s)
	return s
}

func (t *Tools) Register(s *server.MCPServer) {
	s.AddTool(mcp.NewTool(toolAnalyzeInvoiceText,
		mcp.WithDescription("Extract metadata and line items from invoice text and compute carbon, water and energy footprints with a sustainability score."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Plain invoice text, one line item per line.")),
	), t.analyzeInvoiceText)

	s.AddTool(mcp.NewTool(toolClassifyMaterial,
		mcp.WithDescription("Classify a product description into a material id, or \"unknown\"."),
		mcp.WithString("description", mcp.Required(), mcp.Description("Line item description, e.g. \"Plastic Bottles\".")),
	), t.classifyMaterial)

	s.AddTool(mcp.NewTool(toolMaterialAlternative,
		mcp.WithDescription("List materials with a better sustainability rating, best improvement first."),
		mcp.WithString("material", mcp.Required(), mcp.Description("Material id, e.g. \"plastic\".")),
	), t.materialAlternatives)

	s.AddTool(mcp.NewTool(toolListMaterials,
		mcp.WithDescription("List known materials with their impact factors and ratings."),
	), t.listMaterials)
}

func (t *Tools) analyzeInvoiceText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := t.materials.Analyze(ctx, text)
	slog.Info("mcp_tool_called", "tool", toolAnalyzeInvoiceText, "status", result.Status, "items", len(result.Items))
	if !result.Succeeded() {
		return mcp.NewToolResultError(result.Error), nil
	}
	return jsonResult(result)
}

func (t *Tools) classifyMaterial(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	description, err := req.RequireString("description")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if strings.TrimSpace(description) == "" {
		return mcp.NewToolResultError("description must not be empty"), nil
	}

	material := t.materials.Classify(ctx, description)
	slog.Info("mcp_tool_called", "tool", toolClassifyMaterial, "material", material)
	return jsonResult(map[string]string{
		"description": description,
		"material":    material,
	})
}

func (t *Tools) materialAlternatives(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	material, err := req.RequireString("material")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	material = strings.ToLower(strings.TrimSpace(material))

	alternatives := t.materials.Alternatives(material)
	slog.Info("mcp_tool_called", "tool", toolMaterialAlternative, "material", material, "alternatives", len(alternatives))
	return jsonResult(map[string]any{
		"material":     material,
		"alternatives": alternatives,
	})
}

func (t *Tools) listMaterials(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{"materials": t.materials.Materials()})
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}
