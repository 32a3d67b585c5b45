package plaintext

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/kirillkom/eco-invoice-tracker/internal/core/domain"
)

type storageFake struct {
	body string
	err  error
}

func (f *storageFake) Save(context.Context, string, io.Reader) (int64, error) { return 0, nil }

func (f *storageFake) Open(context.Context, string) (io.ReadCloser, error) {
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.body)), nil
}

func (f *storageFake) Delete(context.Context, string) error { return nil }

func TestExtractNormalizesLineEndings(t *testing.T) {
	e := NewExtractor(&storageFake{body: "  Invoice #1\r\nGlass jar 2 1.00 2.00\r\n"})
	text, err := e.Extract(context.Background(), &domain.Invoice{StoragePath: "k", Filename: "a.txt"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "Invoice #1\nGlass jar 2 1.00 2.00" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestExtractRejectsBinary(t *testing.T) {
	e := NewExtractor(&storageFake{body: string([]byte{0xff, 0xfe, 0x00})})
	_, err := e.Extract(context.Background(), &domain.Invoice{StoragePath: "k", Filename: "a.bin"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestExtractOpenError(t *testing.T) {
	e := NewExtractor(&storageFake{err: errors.New("missing")})
	if _, err := e.Extract(context.Background(), &domain.Invoice{StoragePath: "k"}); err == nil {
		t.Fatalf("expected error")
	}
}
