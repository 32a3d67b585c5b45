package plaintext

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/eco-invoice-tracker/internal/core/domain"
	"github.com/kirillkom/eco-invoice-tracker/internal/core/ports"
)

type Extractor struct {
	storage ports.ObjectStorage
}

func NewExtractor(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

// Extract returns the stored file as text with CRLF line endings normalized.
func (e *Extractor) Extract(ctx context.Context, invoice *domain.Invoice) (string, error) {
	reader, err := e.storage.Open(ctx, invoice.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open source invoice: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read source invoice: %w", err)
	}

	if !utf8.Valid(raw) {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract plain text",
			fmt.Errorf("file is not UTF-8 text: %s", invoice.Filename))
	}

	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	return strings.TrimSpace(text), nil
}
