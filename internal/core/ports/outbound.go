package ports

import (
	"context"
	"io"

	"github.com/kirillkom/eco-invoice-tracker/internal/core/domain"
)

// InvoiceRepository persists invoice state and processing results.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *domain.Invoice) error
	GetByID(ctx context.Context, id string) (*domain.Invoice, error)
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]domain.Invoice, error)
	UpdateStatus(ctx context.Context, id string, status domain.InvoiceStatus, errMessage string) error
	SaveResult(ctx context.Context, id string, result domain.ProcessingResult) error
	Delete(ctx context.Context, id string) error
	Statistics(ctx context.Context, ownerID string) (*domain.InvoiceStatistics, error)
}

// ObjectStorage stores uploaded invoice files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// MessageQueue publishes/consumes invoice processing events.
type MessageQueue interface {
	PublishInvoiceUploaded(ctx context.Context, invoiceID string) error
	SubscribeInvoiceUploaded(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor turns a stored invoice file into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, invoice *domain.Invoice) (string, error)
}

// EntityRecognizer finds typed entity spans in free text.
type EntityRecognizer interface {
	RecognizeEntities(ctx context.Context, text string) ([]domain.Entity, error)
}

// TextAnalyzer runs the extraction and impact pipeline over invoice text.
type TextAnalyzer interface {
	Process(ctx context.Context, text string) domain.ProcessingResult
}

// ImpactGraph projects processed invoices into a graph store.
type ImpactGraph interface {
	ProjectInvoice(ctx context.Context, invoice *domain.Invoice) error
}
