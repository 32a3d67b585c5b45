package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/eco-invoice-tracker/internal/core/domain"
	"github.com/kirillkom/eco-invoice-tracker/internal/core/ports"
)

type ReprocessInvoiceUseCase struct {
	repo  ports.InvoiceRepository
	queue ports.MessageQueue
}

func NewReprocessInvoiceUseCase(repo ports.InvoiceRepository, queue ports.MessageQueue) *ReprocessInvoiceUseCase {
	return &ReprocessInvoiceUseCase{repo: repo, queue: queue}
}

// Reprocess re-queues a failed invoice. Invoices in any other status are rejected with ErrConflict.
func (uc *ReprocessInvoiceUseCase) Reprocess(ctx context.Context, ownerID, invoiceID string) (*domain.Invoice, error) {
	invoice, err := ownedInvoice(ctx, uc.repo, ownerID, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status != domain.StatusFailed {
		return nil, domain.WrapError(domain.ErrConflict, "reprocess invoice",
			fmt.Errorf("invoice is %s, only failed invoices can be reprocessed", invoice.Status))
	}

	if err := uc.repo.UpdateStatus(ctx, invoice.ID, domain.StatusUploaded, ""); err != nil {
		return nil, fmt.Errorf("reset invoice status: %w", err)
	}
	if err := publishOrFail(ctx, uc.repo, uc.queue, invoice.ID); err != nil {
		return nil, err
	}

	invoice.Status = domain.StatusUploaded
	invoice.Error = ""
	return invoice, nil
}
