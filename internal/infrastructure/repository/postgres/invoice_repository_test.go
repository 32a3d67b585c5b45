package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"

	"github.com/kirillkom/eco-invoice-tracker/internal/core/domain"
)

var invoiceRowColumns = []string{
	"id", "owner_id", "filename", "mime_type", "size_bytes", "storage_path", "status", "error_message",
	"invoice_number", "invoice_date", "due_date", "total_amount", "supplier_name",
	"total_carbon_kg", "total_water_l", "total_energy_kwh", "sustainability_score",
	"created_at", "updated_at", "processed_at",
}

var itemRowColumns = []string{
	"id", "description", "quantity", "unit_price", "total_price", "weight_kg", "material_type",
	"carbon_footprint_kg", "water_footprint_l", "energy_footprint_kwh",
}

func newRepoWithMock(t *testing.T) (*InvoiceRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return NewInvoiceRepository(db), mock, func() { _ = db.Close() }
}

func successResult() domain.ProcessingResult {
	total := decimal.RequireFromString("25.00")
	weight := decimal.NewFromInt(10)
	return domain.ProcessingResult{
		Status:   domain.ProcessingSuccess,
		Metadata: &domain.ExtractedMetadata{InvoiceNumber: "INV1", TotalAmount: &total},
		Items: []domain.LineItem{{
			Description:        "Plastic Bottles",
			Quantity:           decimal.NewFromInt(10),
			UnitPrice:          decimal.RequireFromString("2.50"),
			TotalPrice:         total,
			WeightKg:           &weight,
			MaterialType:       "plastic",
			CarbonFootprintKg:  decimal.NewFromInt(25),
			WaterFootprintL:    decimal.NewFromInt(1000),
			EnergyFootprintKWh: decimal.NewFromInt(150),
		}},
		Impact: &domain.InvoiceImpact{
			TotalCarbonFootprintKg:  decimal.NewFromInt(25),
			TotalWaterFootprintL:    decimal.NewFromInt(1000),
			TotalEnergyFootprintKWh: decimal.NewFromInt(150),
			SustainabilityScore:     3,
		},
	}
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("FROM invoices WHERE id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDLoadsItems(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectQuery("FROM invoices WHERE id").
		WithArgs("inv-1").
		WillReturnRows(sqlmock.NewRows(invoiceRowColumns).AddRow(
			"inv-1", "u-1", "a.txt", "text/plain", int64(42), "inv-1_a.txt", "processed", "",
			"INV1", "01/15/2024", "", "25.00", "Acme",
			"25", "1000", "150", 3.0,
			now, now, now,
		))
	mock.ExpectQuery("FROM invoice_items").
		WithArgs("inv-1").
		WillReturnRows(sqlmock.NewRows(itemRowColumns).AddRow(
			"item-1", "Plastic Bottles", "10", "2.50", "25.00", "10", "plastic", "25", "1000", "150",
		).AddRow(
			"item-2", "Mystery", "1", "1.00", "1.00", nil, "unknown", "0", "0", "0",
		))

	invoice, err := repo.GetByID(context.Background(), "inv-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if invoice.Status != domain.StatusProcessed || invoice.ProcessedAt == nil {
		t.Fatalf("unexpected invoice: %+v", invoice)
	}
	if invoice.Metadata.TotalAmount == nil || !invoice.Metadata.TotalAmount.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("unexpected total amount: %v", invoice.Metadata.TotalAmount)
	}
	if invoice.Impact == nil || invoice.Impact.SustainabilityScore != 3 {
		t.Fatalf("unexpected impact: %+v", invoice.Impact)
	}
	if len(invoice.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(invoice.Items))
	}
	if invoice.Items[0].WeightKg == nil || invoice.Items[1].WeightKg != nil {
		t.Fatalf("unexpected item weights: %+v", invoice.Items)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDUnprocessedHasNoImpact(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectQuery("FROM invoices WHERE id").
		WithArgs("inv-2").
		WillReturnRows(sqlmock.NewRows(invoiceRowColumns).AddRow(
			"inv-2", "u-1", "a.txt", "text/plain", int64(1), "inv-2_a.txt", "uploaded", "",
			"", "", "", nil, "",
			nil, nil, nil, nil,
			now, now, nil,
		))
	mock.ExpectQuery("FROM invoice_items").
		WithArgs("inv-2").
		WillReturnRows(sqlmock.NewRows(itemRowColumns))

	invoice, err := repo.GetByID(context.Background(), "inv-2")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if invoice.Impact != nil || invoice.Metadata.TotalAmount != nil || invoice.ProcessedAt != nil {
		t.Fatalf("expected empty processing fields, got %+v", invoice)
	}
	if invoice.Items == nil || len(invoice.Items) != 0 {
		t.Fatalf("expected empty items slice, got %#v", invoice.Items)
	}
}

func TestListByOwner(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectQuery("WHERE owner_id").
		WithArgs("u-1", 10).
		WillReturnRows(sqlmock.NewRows(invoiceRowColumns).AddRow(
			"inv-1", "u-1", "a.txt", "text/plain", int64(1), "inv-1_a.txt", "failed", "could not extract text from invoice",
			"", "", "", nil, "",
			nil, nil, nil, nil,
			now, now, nil,
		))

	invoices, err := repo.ListByOwner(context.Background(), "u-1", 10)
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if len(invoices) != 1 || invoices[0].Error == "" {
		t.Fatalf("unexpected invoices: %+v", invoices)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateStatusReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE invoices").
		WithArgs("missing", string(domain.StatusProcessing), "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", domain.StatusProcessing, "")
	if !domain.IsKind(err, domain.ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveResultReplacesItemsInTransaction(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE invoices").
		WithArgs(
			"inv-1", string(domain.StatusProcessed), "INV1", "", "", sqlmock.AnyArg(), "",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), 3.0, sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM invoice_items").
		WithArgs("inv-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO invoice_items").
		WithArgs(
			sqlmock.AnyArg(), "inv-1", 0, "Plastic Bottles", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), "plastic", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.SaveResult(context.Background(), "inv-1", successResult()); err != nil {
		t.Fatalf("SaveResult() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveResultRollsBackWhenInvoiceMissing(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE invoices").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.SaveResult(context.Background(), "missing", successResult())
	if !domain.IsKind(err, domain.ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveResultRejectsFailedResult(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	err := repo.SaveResult(context.Background(), "inv-1", domain.FailedResult("boom"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("DELETE FROM invoices").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "missing"); !domain.IsKind(err, domain.ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}
}

func TestStatistics(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"total", "processed"}).AddRow(int64(4), int64(3)))
	mock.ExpectQuery("COALESCE").
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"carbon", "water", "energy"}).AddRow("27.5", "1100", "160"))
	mock.ExpectQuery("GROUP BY i.material_type").
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"material_type", "carbon", "water", "energy", "count"}).
			AddRow("glass", "2.5", "100", "10", "5").
			AddRow("plastic", "25", "1000", "150", "10"))

	stats, err := repo.Statistics(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("Statistics() error = %v", err)
	}
	if stats.TotalInvoices != 4 || stats.ProcessedInvoices != 3 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if !stats.TotalCarbonKg.Equal(decimal.RequireFromString("27.5")) {
		t.Fatalf("unexpected carbon total %s", stats.TotalCarbonKg)
	}
	if len(stats.MaterialBreakdown) != 2 || stats.MaterialBreakdown[1].Material != "plastic" ||
		!stats.MaterialBreakdown[1].TotalQuantity.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected breakdown: %+v", stats.MaterialBreakdown)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
