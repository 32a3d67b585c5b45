package localfs

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/kirillkom/eco-invoice-tracker/internal/core/domain"
)

func TestStorageRoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	n, err := s.Save(ctx, "inv-1_a.txt", strings.NewReader("Invoice #1"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if n != int64(len("Invoice #1")) {
		t.Fatalf("expected %d bytes, got %d", len("Invoice #1"), n)
	}

	r, err := s.Open(ctx, "inv-1_a.txt")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	raw, _ := io.ReadAll(r)
	r.Close()
	if string(raw) != "Invoice #1" {
		t.Fatalf("unexpected content %q", raw)
	}

	if err := s.Delete(ctx, "inv-1_a.txt"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Open(ctx, "inv-1_a.txt"); err == nil {
		t.Fatalf("expected open error after delete")
	}
	if err := s.Delete(ctx, "inv-1_a.txt"); err != nil {
		t.Fatalf("second Delete() error = %v", err)
	}
}

func TestStorageRejectsTraversal(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for _, key := range []string{"", "../escape.txt", "nested/file.txt", ".hidden"} {
		if _, err := s.Save(context.Background(), key, strings.NewReader("x")); !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("key %q: expected ErrInvalidInput, got %v", key, err)
		}
	}
}
