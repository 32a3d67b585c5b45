package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/eco-invoice-tracker/internal/core/domain"
	"github.com/kirillkom/eco-invoice-tracker/internal/core/ports"
)

type UploadInvoiceUseCase struct {
	repo    ports.InvoiceRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewUploadInvoiceUseCase(
	repo ports.InvoiceRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *UploadInvoiceUseCase {
	return &UploadInvoiceUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
	}
}

func (uc *UploadInvoiceUseCase) Upload(
	ctx context.Context,
	ownerID, filename, mimeType string,
	body io.Reader,
) (*domain.Invoice, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload invoice", errors.New("filename is required"))
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	size, err := uc.storage.Save(ctx, storageKey, body)
	if err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}
	if size == 0 {
		uc.discard(ctx, storageKey)
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload invoice", errors.New("empty file"))
	}

	invoice := &domain.Invoice{
		ID:          id,
		OwnerID:     normalizeOwner(ownerID),
		Filename:    filename,
		MimeType:    mimeType,
		SizeBytes:   size,
		StoragePath: storageKey,
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.repo.Create(ctx, invoice); err != nil {
		uc.discard(ctx, storageKey)
		return nil, fmt.Errorf("create invoice record: %w", err)
	}

	if err := publishOrFail(ctx, uc.repo, uc.queue, invoice.ID); err != nil {
		return nil, err
	}

	return invoice, nil
}

// publishOrFail queues the invoice for processing. When publishing fails the invoice is
// marked failed so Reprocess can pick it up instead of leaving it uploaded with no event.
func publishOrFail(ctx context.Context, repo ports.InvoiceRepository, queue ports.MessageQueue, invoiceID string) error {
	publishErr := queue.PublishInvoiceUploaded(ctx, invoiceID)
	if publishErr == nil {
		return nil
	}
	publishErr = fmt.Errorf("publish processing event: %w", publishErr)

	if err := repo.UpdateStatus(ctx, invoiceID, domain.StatusFailed, publishErr.Error()); err != nil {
		slog.Error("invoice_mark_failed_failed", "invoice_id", invoiceID, "error", err)
	}
	return publishErr
}

func (uc *UploadInvoiceUseCase) discard(ctx context.Context, key string) {
	if err := uc.storage.Delete(ctx, key); err != nil {
		slog.Warn("storage_cleanup_failed", "key", key, "error", err)
	}
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "invoice.bin"
	}
	return base
}

const anonymousOwner = "anonymous"

func normalizeOwner(ownerID string) string {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return anonymousOwner
	}
	return ownerID
}
