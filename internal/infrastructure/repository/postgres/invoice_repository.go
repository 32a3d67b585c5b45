package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kirillkom/eco-invoice-tracker/internal/core/domain"
)

type InvoiceRepository struct {
	db *sql.DB
}

func NewInvoiceRepository(db *sql.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) EnsureSchema(ctx context.Context) error {
	return EnsureSchema(ctx, r.db)
}

func (r *InvoiceRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const invoiceColumns = `id, owner_id, filename, mime_type, size_bytes, storage_path, status, error_message,
	invoice_number, invoice_date, due_date, total_amount, supplier_name,
	total_carbon_kg, total_water_l, total_energy_kwh, sustainability_score,
	created_at, updated_at, processed_at`

const itemColumns = `id, description, quantity, unit_price, total_price, weight_kg, material_type,
	carbon_footprint_kg, water_footprint_l, energy_footprint_kwh`

func (r *InvoiceRepository) Create(ctx context.Context, invoice *domain.Invoice) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO invoices (
	id, owner_id, filename, mime_type, size_bytes, storage_path, status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		invoice.ID, invoice.OwnerID, invoice.Filename, invoice.MimeType, invoice.SizeBytes,
		invoice.StoragePath, string(invoice.Status), invoice.Error, invoice.CreatedAt, invoice.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// GetByID loads the invoice together with its line items.
func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	invoice, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrInvoiceNotFound, "get invoice", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan invoice: %w", err)
	}

	items, err := r.loadItems(ctx, id)
	if err != nil {
		return nil, err
	}
	invoice.Items = items
	return invoice, nil
}

// ListByOwner returns the newest invoices first, without line items.
func (r *InvoiceRepository) ListByOwner(ctx context.Context, ownerID string, limit int) ([]domain.Invoice, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+invoiceColumns+`
FROM invoices
WHERE owner_id = $1
ORDER BY created_at DESC
LIMIT $2
`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Invoice, 0, limit)
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, *invoice)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoices: %w", err)
	}
	return out, nil
}

func (r *InvoiceRepository) UpdateStatus(ctx context.Context, id string, status domain.InvoiceStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE invoices
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	return requireRow(res, "update invoice status", id)
}

// SaveResult stores extracted metadata, impact totals and replaces the line items,
// marking the invoice processed in the same transaction.
func (r *InvoiceRepository) SaveResult(ctx context.Context, id string, result domain.ProcessingResult) error {
	if !result.Succeeded() || result.Metadata == nil || result.Impact == nil {
		return domain.WrapError(domain.ErrInvalidInput, "save invoice result", errors.New("result is not a complete success"))
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin result tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	meta := result.Metadata
	res, err := tx.ExecContext(ctx, `
UPDATE invoices
SET status = $2, error_message = '',
	invoice_number = $3, invoice_date = $4, due_date = $5, total_amount = $6, supplier_name = $7,
	total_carbon_kg = $8, total_water_l = $9, total_energy_kwh = $10, sustainability_score = $11,
	processed_at = $12, updated_at = $12
WHERE id = $1
`,
		id, string(domain.StatusProcessed),
		meta.InvoiceNumber, meta.InvoiceDate, meta.DueDate, nullDecimal(meta.TotalAmount), meta.SupplierName,
		result.Impact.TotalCarbonFootprintKg, result.Impact.TotalWaterFootprintL, result.Impact.TotalEnergyFootprintKWh,
		result.Impact.SustainabilityScore, now,
	)
	if err != nil {
		return fmt.Errorf("update invoice result: %w", err)
	}
	if err := requireRow(res, "save invoice result", id); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, id); err != nil {
		return fmt.Errorf("clear invoice items: %w", err)
	}
	for i, item := range result.Items {
		itemID := item.ID
		if itemID == "" {
			itemID = uuid.NewString()
		}
		_, err := tx.ExecContext(ctx, `
INSERT INTO invoice_items (
	id, invoice_id, position, description, quantity, unit_price, total_price, weight_kg, material_type,
	carbon_footprint_kg, water_footprint_l, energy_footprint_kwh
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`,
			itemID, id, i, item.Description, item.Quantity, item.UnitPrice, item.TotalPrice,
			nullDecimal(item.WeightKg), item.MaterialType,
			item.CarbonFootprintKg, item.WaterFootprintL, item.EnergyFootprintKWh,
		)
		if err != nil {
			return fmt.Errorf("insert invoice item %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit result tx: %w", err)
	}
	return nil
}

// Delete removes the invoice; its items go with it through ON DELETE CASCADE.
func (r *InvoiceRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	return requireRow(res, "delete invoice", id)
}

// Statistics aggregates counts over all of the owner's invoices and footprints over
// processed ones only. ProcessingRate is left to the caller.
func (r *InvoiceRepository) Statistics(ctx context.Context, ownerID string) (*domain.InvoiceStatistics, error) {
	stats := &domain.InvoiceStatistics{MaterialBreakdown: []domain.MaterialBreakdown{}}

	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'processed')
FROM invoices
WHERE owner_id = $1
`, ownerID).Scan(&stats.TotalInvoices, &stats.ProcessedInvoices)
	if err != nil {
		return nil, fmt.Errorf("count invoices: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
SELECT COALESCE(SUM(i.carbon_footprint_kg), 0), COALESCE(SUM(i.water_footprint_l), 0), COALESCE(SUM(i.energy_footprint_kwh), 0)
FROM invoice_items i
JOIN invoices v ON v.id = i.invoice_id
WHERE v.owner_id = $1 AND v.status = 'processed'
`, ownerID).Scan(&stats.TotalCarbonKg, &stats.TotalWaterL, &stats.TotalEnergyKWh)
	if err != nil {
		return nil, fmt.Errorf("sum invoice impact: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT i.material_type, SUM(i.carbon_footprint_kg), SUM(i.water_footprint_l), SUM(i.energy_footprint_kwh), SUM(i.quantity)
FROM invoice_items i
JOIN invoices v ON v.id = i.invoice_id
WHERE v.owner_id = $1 AND v.status = 'processed'
GROUP BY i.material_type
ORDER BY i.material_type
`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("material breakdown: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b domain.MaterialBreakdown
		if err := rows.Scan(&b.Material, &b.TotalCarbonKg, &b.TotalWaterL, &b.TotalEnergyKWh, &b.TotalQuantity); err != nil {
			return nil, fmt.Errorf("scan material breakdown: %w", err)
		}
		stats.MaterialBreakdown = append(stats.MaterialBreakdown, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate material breakdown: %w", err)
	}
	return stats, nil
}

func (r *InvoiceRepository) loadItems(ctx context.Context, invoiceID string) ([]domain.LineItem, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+itemColumns+`
FROM invoice_items
WHERE invoice_id = $1
ORDER BY position
`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("query invoice items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.LineItem, 0)
	for rows.Next() {
		var item domain.LineItem
		var weight decimal.NullDecimal
		if err := rows.Scan(
			&item.ID, &item.Description, &item.Quantity, &item.UnitPrice, &item.TotalPrice, &weight,
			&item.MaterialType, &item.CarbonFootprintKg, &item.WaterFootprintL, &item.EnergyFootprintKWh,
		); err != nil {
			return nil, fmt.Errorf("scan invoice item: %w", err)
		}
		if weight.Valid {
			w := weight.Decimal
			item.WeightKg = &w
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoice items: %w", err)
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*domain.Invoice, error) {
	var (
		invoice     domain.Invoice
		status      string
		total       decimal.NullDecimal
		carbon      decimal.NullDecimal
		water       decimal.NullDecimal
		energy      decimal.NullDecimal
		score       sql.NullFloat64
		processedAt sql.NullTime
	)
	err := row.Scan(
		&invoice.ID, &invoice.OwnerID, &invoice.Filename, &invoice.MimeType, &invoice.SizeBytes,
		&invoice.StoragePath, &status, &invoice.Error,
		&invoice.Metadata.InvoiceNumber, &invoice.Metadata.InvoiceDate, &invoice.Metadata.DueDate, &total,
		&invoice.Metadata.SupplierName,
		&carbon, &water, &energy, &score,
		&invoice.CreatedAt, &invoice.UpdatedAt, &processedAt,
	)
	if err != nil {
		return nil, err
	}

	invoice.Status = domain.InvoiceStatus(status)
	if total.Valid {
		amount := total.Decimal
		invoice.Metadata.TotalAmount = &amount
	}
	if carbon.Valid {
		invoice.Impact = &domain.InvoiceImpact{
			TotalCarbonFootprintKg:  carbon.Decimal,
			TotalWaterFootprintL:    water.Decimal,
			TotalEnergyFootprintKWh: energy.Decimal,
			SustainabilityScore:     score.Float64,
		}
	}
	if processedAt.Valid {
		t := processedAt.Time
		invoice.ProcessedAt = &t
	}
	return &invoice, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func requireRow(res sql.Result, op, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrInvoiceNotFound, op, fmt.Errorf("id=%s", id))
	}
	return nil
}
