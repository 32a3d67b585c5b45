package neo4j

import (
	"context"
	"fmt"
	"strconv"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/kirillkom/eco-invoice-tracker/internal/core/domain"
)

const projectInvoiceCypher = `
MERGE (inv:Invoice {id: $id})
SET inv.owner_id = $owner_id,
    inv.invoice_number = $invoice_number,
    inv.supplier_name = $supplier_name,
    inv.total_carbon_kg = $total_carbon_kg,
    inv.total_water_l = $total_water_l,
    inv.total_energy_kwh = $total_energy_kwh,
    inv.sustainability_score = $sustainability_score
WITH inv
OPTIONAL MATCH (inv)-[:CONTAINS]->(stale:LineItem)
DETACH DELETE stale
WITH DISTINCT inv
UNWIND $items AS item
MERGE (li:LineItem {id: item.id})
SET li.description = item.description,
    li.quantity = item.quantity,
    li.weight_kg = item.weight_kg,
    li.carbon_kg = item.carbon_kg,
    li.water_l = item.water_l,
    li.energy_kwh = item.energy_kwh
MERGE (m:Material {id: item.material})
MERGE (inv)-[:CONTAINS]->(li)
MERGE (li)-[:MADE_OF]->(m)
`

const syncMaterialsCypher = `
UNWIND $materials AS mat
MERGE (m:Material {id: mat.id})
SET m.sustainability_rating = mat.rating,
    m.carbon_factor = mat.carbon_factor,
    m.water_factor = mat.water_factor,
    m.energy_factor = mat.energy_factor
WITH m, mat
UNWIND mat.better AS alt
MERGE (a:Material {id: alt.id})
MERGE (a)-[r:BETTER_THAN]->(m)
SET r.improvement = alt.improvement
`

// Graph projects processed invoices into Neo4j as
// (Invoice)-[:CONTAINS]->(LineItem)-[:MADE_OF]->(Material) and keeps
// (Material)-[:BETTER_THAN]->(Material) edges in sync with the material table.
type Graph struct {
	driver   neo4j.DriverWithContext
	database string
}

func New(ctx context.Context, uri, user, password, database string) (*Graph, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, domain.WrapError(domain.ErrTemporary, "neo4j connect", err)
	}
	return &Graph{driver: driver, database: database}, nil
}

func (g *Graph) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}

func (g *Graph) ProjectInvoice(ctx context.Context, invoice *domain.Invoice) error {
	if _, err := g.execute(ctx, projectInvoiceCypher, invoiceParams(invoice)); err != nil {
		return fmt.Errorf("project invoice %s: %w", invoice.ID, err)
	}
	return nil
}

// SyncMaterials upserts every material node and its BETTER_THAN edges.
func (g *Graph) SyncMaterials(
	ctx context.Context,
	profiles []domain.MaterialProfile,
	alternatives func(material string) []domain.AlternativeSuggestion,
) error {
	if _, err := g.execute(ctx, syncMaterialsCypher, materialParams(profiles, alternatives)); err != nil {
		return fmt.Errorf("sync materials: %w", err)
	}
	return nil
}

func (g *Graph) execute(ctx context.Context, cypher string, params map[string]any) (*neo4j.EagerResult, error) {
	opts := []neo4j.ExecuteQueryConfigurationOption{}
	if g.database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(g.database))
	}
	return neo4j.ExecuteQuery(ctx, g.driver, cypher, params, neo4j.EagerResultTransformer, opts...)
}

func invoiceParams(invoice *domain.Invoice) map[string]any {
	params := map[string]any{
		"id":                   invoice.ID,
		"owner_id":             invoice.OwnerID,
		"invoice_number":       invoice.Metadata.InvoiceNumber,
		"supplier_name":        invoice.Metadata.SupplierName,
		"total_carbon_kg":      0.0,
		"total_water_l":        0.0,
		"total_energy_kwh":     0.0,
		"sustainability_score": 0.0,
	}
	if invoice.Impact != nil {
		params["total_carbon_kg"] = invoice.Impact.TotalCarbonFootprintKg.InexactFloat64()
		params["total_water_l"] = invoice.Impact.TotalWaterFootprintL.InexactFloat64()
		params["total_energy_kwh"] = invoice.Impact.TotalEnergyFootprintKWh.InexactFloat64()
		params["sustainability_score"] = invoice.Impact.SustainabilityScore
	}

	items := make([]map[string]any, 0, len(invoice.Items))
	for i, item := range invoice.Items {
		id := item.ID
		if id == "" {
			id = invoice.ID + ":" + strconv.Itoa(i)
		}
		var weight any
		if item.WeightKg != nil {
			weight = item.WeightKg.InexactFloat64()
		}
		material := item.MaterialType
		if material == "" {
			material = domain.UnknownMaterial
		}
		items = append(items, map[string]any{
			"id":          id,
			"description": item.Description,
			"quantity":    item.Quantity.InexactFloat64(),
			"weight_kg":   weight,
			"material":    material,
			"carbon_kg":   item.CarbonFootprintKg.InexactFloat64(),
			"water_l":     item.WaterFootprintL.InexactFloat64(),
			"energy_kwh":  item.EnergyFootprintKWh.InexactFloat64(),
		})
	}
	params["items"] = items
	return params
}

func materialParams(
	profiles []domain.MaterialProfile,
	alternatives func(material string) []domain.AlternativeSuggestion,
) map[string]any {
	materials := make([]map[string]any, 0, len(profiles))
	for _, p := range profiles {
		better := make([]map[string]any, 0)
		if alternatives != nil {
			for _, alt := range alternatives(p.Material) {
				better = append(better, map[string]any{
					"id":          alt.Material,
					"improvement": alt.Improvement,
				})
			}
		}
		materials = append(materials, map[string]any{
			"id":            p.Material,
			"rating":        p.SustainabilityRating,
			"carbon_factor": p.CarbonFactor.InexactFloat64(),
			"water_factor":  p.WaterFactor.InexactFloat64(),
			"energy_factor": p.EnergyFactor.InexactFloat64(),
			"better":        better,
		})
	}
	return map[string]any{"materials": materials}
}
