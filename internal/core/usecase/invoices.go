package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kirillkom/eco-invoice-tracker/internal/core/domain"
	"github.com/kirillkom/eco-invoice-tracker/internal/core/ports"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type InvoiceQueryUseCase struct {
	repo    ports.InvoiceRepository
	storage ports.ObjectStorage
}

func NewInvoiceQueryUseCase(repo ports.InvoiceRepository, storage ports.ObjectStorage) *InvoiceQueryUseCase {
	return &InvoiceQueryUseCase{repo: repo, storage: storage}
}

func (uc *InvoiceQueryUseCase) Get(ctx context.Context, ownerID, invoiceID string) (*domain.Invoice, error) {
	return ownedInvoice(ctx, uc.repo, ownerID, invoiceID)
}

func (uc *InvoiceQueryUseCase) List(ctx context.Context, ownerID string, limit int) ([]domain.Invoice, error) {
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}
	invoices, err := uc.repo.ListByOwner(ctx, normalizeOwner(ownerID), limit)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, nil
}

// Delete removes the invoice record and its stored file. A missing file is only logged.
func (uc *InvoiceQueryUseCase) Delete(ctx context.Context, ownerID, invoiceID string) error {
	invoice, err := ownedInvoice(ctx, uc.repo, ownerID, invoiceID)
	if err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, invoice.ID); err != nil {
		return fmt.Errorf("delete invoice record: %w", err)
	}
	if err := uc.storage.Delete(ctx, invoice.StoragePath); err != nil {
		slog.Warn("storage_cleanup_failed", "invoice_id", invoice.ID, "key", invoice.StoragePath, "error", err)
	}
	return nil
}

func (uc *InvoiceQueryUseCase) Statistics(ctx context.Context, ownerID string) (*domain.InvoiceStatistics, error) {
	stats, err := uc.repo.Statistics(ctx, normalizeOwner(ownerID))
	if err != nil {
		return nil, fmt.Errorf("invoice statistics: %w", err)
	}
	stats.ProcessingRate = 0
	if stats.TotalInvoices > 0 {
		stats.ProcessingRate = float64(stats.ProcessedInvoices) / float64(stats.TotalInvoices) * 100
	}
	if stats.MaterialBreakdown == nil {
		stats.MaterialBreakdown = []domain.MaterialBreakdown{}
	}
	return stats, nil
}

// ownedInvoice hides invoices of other owners behind ErrInvoiceNotFound.
func ownedInvoice(ctx context.Context, repo ports.InvoiceRepository, ownerID, invoiceID string) (*domain.Invoice, error) {
	invoice, err := repo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.OwnerID != normalizeOwner(ownerID) {
		return nil, domain.WrapError(domain.ErrInvoiceNotFound, "get invoice", errors.New("invoice belongs to another owner"))
	}
	return invoice, nil
}
