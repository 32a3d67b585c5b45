package ports

import (
	"context"
	"io"

	"github.com/kirillkom/eco-invoice-tracker/internal/core/domain"
)

// InvoiceUploader is the inbound contract for invoice upload orchestration.
type InvoiceUploader interface {
	Upload(ctx context.Context, ownerID, filename, mimeType string, body io.Reader) (*domain.Invoice, error)
}

// InvoiceProcessor is the inbound contract for asynchronous invoice processing.
type InvoiceProcessor interface {
	ProcessByID(ctx context.Context, invoiceID string) error
}

// InvoiceReprocessor re-queues invoices whose processing failed.
type InvoiceReprocessor interface {
	Reprocess(ctx context.Context, ownerID, invoiceID string) (*domain.Invoice, error)
}

// InvoiceService is the inbound read/delete model for invoices.
type InvoiceService interface {
	Get(ctx context.Context, ownerID, invoiceID string) (*domain.Invoice, error)
	List(ctx context.Context, ownerID string, limit int) ([]domain.Invoice, error)
	Delete(ctx context.Context, ownerID, invoiceID string) error
	Statistics(ctx context.Context, ownerID string) (*domain.InvoiceStatistics, error)
}

// MaterialService exposes the material table, alternative ranking and
// synchronous text analysis.
type MaterialService interface {
	Materials() []domain.MaterialProfile
	Alternatives(material string) []domain.AlternativeSuggestion
	Classify(ctx context.Context, description string) string
	Analyze(ctx context.Context, text string) domain.ProcessingResult
}
