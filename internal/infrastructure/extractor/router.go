package extractor

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/kirillkom/eco-invoice-tracker/internal/core/domain"
	"github.com/kirillkom/eco-invoice-tracker/internal/core/ports"
)

const (
	KindText        = "text"
	KindCSV         = "csv"
	KindSpreadsheet = "spreadsheet"
)

var mimeKinds = map[string]string{
	"text/plain":      KindText,
	"text/csv":        KindCSV,
	"application/csv": KindCSV,

	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": KindSpreadsheet,
}

var extensionKinds = map[string]string{
	".txt":  KindText,
	".text": KindText,
	".csv":  KindCSV,
	".xlsx": KindSpreadsheet,
}

// Router dispatches to a TextExtractor by MIME type, falling back to the file extension.
type Router struct {
	byKind map[string]ports.TextExtractor
}

func NewRouter(byKind map[string]ports.TextExtractor) *Router {
	return &Router{byKind: byKind}
}

func (r *Router) Extract(ctx context.Context, invoice *domain.Invoice) (string, error) {
	kind := DetectKind(invoice.MimeType, invoice.Filename)
	extractor, ok := r.byKind[kind]
	if !ok {
		return "", domain.WrapError(domain.ErrInvalidInput, "route extractor",
			fmt.Errorf("unsupported file type %q (%s)", invoice.MimeType, invoice.Filename))
	}
	return extractor.Extract(ctx, invoice)
}

// Supports reports whether an upload with this MIME type and filename can be processed.
func (r *Router) Supports(mimeType, filename string) bool {
	_, ok := r.byKind[DetectKind(mimeType, filename)]
	return ok
}

// Kind returns the extractor kind for an upload, or "" when it is unsupported.
func (r *Router) Kind(mimeType, filename string) string {
	kind := DetectKind(mimeType, filename)
	if _, ok := r.byKind[kind]; !ok {
		return ""
	}
	return kind
}

// DetectKind returns the extractor kind, or "" when neither MIME type nor extension is known.
func DetectKind(mimeType, filename string) string {
	if mediaType, _, err := mime.ParseMediaType(mimeType); err == nil {
		if kind, ok := mimeKinds[strings.ToLower(mediaType)]; ok {
			return kind
		}
	}
	return extensionKinds[strings.ToLower(filepath.Ext(filename))]
}
