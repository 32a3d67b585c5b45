package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	StatusUploaded   InvoiceStatus = "uploaded"
	StatusProcessing InvoiceStatus = "processing"
	StatusProcessed  InvoiceStatus = "processed"
	StatusFailed     InvoiceStatus = "failed"
)

type Invoice struct {
	ID          string            `json:"id"`
	OwnerID     string            `json:"owner_id"`
	Filename    string            `json:"filename"`
	MimeType    string            `json:"mime_type"`
	SizeBytes   int64             `json:"size_bytes"`
	StoragePath string            `json:"storage_path"`
	Status      InvoiceStatus     `json:"status"`
	Metadata    ExtractedMetadata `json:"metadata"`
	Impact      *InvoiceImpact    `json:"impact,omitempty"`
	Items       []LineItem        `json:"items,omitempty"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	ProcessedAt *time.Time        `json:"processed_at,omitempty"`
}

// ExtractedMetadata holds header fields found in invoice text. Every field is optional.
// Dates are the matched substrings, not parsed calendar dates.
type ExtractedMetadata struct {
	InvoiceNumber string           `json:"invoice_number,omitempty"`
	InvoiceDate   string           `json:"invoice_date,omitempty"`
	DueDate       string           `json:"due_date,omitempty"`
	TotalAmount   *decimal.Decimal `json:"total_amount,omitempty"`
	SupplierName  string           `json:"supplier_name,omitempty"`
}

type LineItem struct {
	ID          string          `json:"id,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`

	// WeightKg is nil until declared by the caller or defaulted during impact calculation.
	WeightKg           *decimal.Decimal `json:"weight_kg,omitempty"`
	MaterialType       string           `json:"material_type,omitempty"`
	CarbonFootprintKg  decimal.Decimal  `json:"carbon_footprint_kg"`
	WaterFootprintL    decimal.Decimal  `json:"water_footprint_l"`
	EnergyFootprintKWh decimal.Decimal  `json:"energy_footprint_kwh"`
}

type InvoiceImpact struct {
	TotalCarbonFootprintKg  decimal.Decimal `json:"total_carbon_footprint_kg"`
	TotalWaterFootprintL    decimal.Decimal `json:"total_water_footprint_l"`
	TotalEnergyFootprintKWh decimal.Decimal `json:"total_energy_footprint_kwh"`
	SustainabilityScore     float64         `json:"sustainability_score"`
}

type ProcessingStatus string

const (
	ProcessingSuccess ProcessingStatus = "success"
	ProcessingFailed  ProcessingStatus = "failed"
)

// ProcessingResult is either a success carrying metadata, items and impact,
// or a failure carrying only Error.
type ProcessingResult struct {
	Status   ProcessingStatus   `json:"status"`
	Metadata *ExtractedMetadata `json:"metadata,omitempty"`
	Items    []LineItem         `json:"items,omitempty"`
	Impact   *InvoiceImpact     `json:"impact,omitempty"`
	Error    string             `json:"error,omitempty"`
}

func (r ProcessingResult) Succeeded() bool {
	return r.Status == ProcessingSuccess
}

// MarshalJSON emits exactly one shape: success always carries metadata, items (possibly
// empty) and impact; failure carries only the error.
func (r ProcessingResult) MarshalJSON() ([]byte, error) {
	if !r.Succeeded() {
		return json.Marshal(struct {
			Status ProcessingStatus `json:"status"`
			Error  string           `json:"error"`
		}{Status: r.Status, Error: r.Error})
	}

	items := r.Items
	if items == nil {
		items = []LineItem{}
	}
	metadata := r.Metadata
	if metadata == nil {
		metadata = &ExtractedMetadata{}
	}
	return json.Marshal(struct {
		Status   ProcessingStatus   `json:"status"`
		Metadata *ExtractedMetadata `json:"metadata"`
		Items    []LineItem         `json:"items"`
		Impact   *InvoiceImpact     `json:"impact"`
	}{Status: r.Status, Metadata: metadata, Items: items, Impact: r.Impact})
}

func FailedResult(message string) ProcessingResult {
	return ProcessingResult{Status: ProcessingFailed, Error: message}
}

type MaterialBreakdown struct {
	Material       string          `json:"material_type"`
	TotalCarbonKg  decimal.Decimal `json:"total_carbon"`
	TotalWaterL    decimal.Decimal `json:"total_water"`
	TotalEnergyKWh decimal.Decimal `json:"total_energy"`
	TotalQuantity  decimal.Decimal `json:"count"`
}

type InvoiceStatistics struct {
	TotalInvoices     int                 `json:"total_invoices"`
	ProcessedInvoices int                 `json:"processed_invoices"`
	ProcessingRate    float64             `json:"processing_rate"`
	TotalCarbonKg     decimal.Decimal     `json:"total_carbon_kg"`
	TotalWaterL       decimal.Decimal     `json:"total_water_l"`
	TotalEnergyKWh    decimal.Decimal     `json:"total_energy_kwh"`
	MaterialBreakdown []MaterialBreakdown `json:"material_breakdown"`
}
