package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/kirillkom/eco-invoice-tracker/internal/core/domain"
)

func TestInvoiceGetHidesOtherOwners(t *testing.T) {
	repo := &invoiceRepoFake{invoice: &domain.Invoice{ID: "inv-1", OwnerID: "owner-a"}}
	uc := NewInvoiceQueryUseCase(repo, &storageFake{})

	if _, err := uc.Get(context.Background(), "owner-a", "inv-1"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if _, err := uc.Get(context.Background(), "owner-b", "inv-1"); !domain.IsKind(err, domain.ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}
}

func TestInvoiceListClampsLimit(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{in: 0, want: defaultListLimit},
		{in: -3, want: defaultListLimit},
		{in: 10, want: 10},
		{in: 5000, want: maxListLimit},
	}
	for _, tt := range tests {
		repo := &invoiceRepoFake{}
		if _, err := NewInvoiceQueryUseCase(repo, &storageFake{}).List(context.Background(), "", tt.in); err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if repo.listLimit != tt.want {
			t.Fatalf("limit %d: got %d, want %d", tt.in, repo.listLimit, tt.want)
		}
		if repo.listOwner != "anonymous" {
			t.Fatalf("expected anonymous owner, got %q", repo.listOwner)
		}
	}
}

func TestInvoiceDeleteRemovesRecordAndFile(t *testing.T) {
	repo := &invoiceRepoFake{invoice: &domain.Invoice{ID: "inv-1", OwnerID: "u", StoragePath: "inv-1_a.txt"}}
	storage := &storageFake{deleteErr: errors.New("already gone")}
	uc := NewInvoiceQueryUseCase(repo, storage)

	if err := uc.Delete(context.Background(), "u", "inv-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if repo.deletedID != "inv-1" || storage.deletedKey != "inv-1_a.txt" {
		t.Fatalf("expected record and file removal, got id=%q key=%q", repo.deletedID, storage.deletedKey)
	}
}

func TestInvoiceDeleteOtherOwner(t *testing.T) {
	repo := &invoiceRepoFake{invoice: &domain.Invoice{ID: "inv-1", OwnerID: "u"}}
	err := NewInvoiceQueryUseCase(repo, &storageFake{}).Delete(context.Background(), "someone-else", "inv-1")
	if !domain.IsKind(err, domain.ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}
	if repo.deletedID != "" {
		t.Fatalf("must not delete foreign invoice")
	}
}

func TestInvoiceStatisticsRate(t *testing.T) {
	repo := &invoiceRepoFake{stats: &domain.InvoiceStatistics{
		TotalInvoices:     4,
		ProcessedInvoices: 3,
		TotalCarbonKg:     decimal.NewFromInt(12),
	}}
	stats, err := NewInvoiceQueryUseCase(repo, &storageFake{}).Statistics(context.Background(), "u")
	if err != nil {
		t.Fatalf("Statistics() error = %v", err)
	}
	if stats.ProcessingRate != 75 {
		t.Fatalf("expected rate 75, got %v", stats.ProcessingRate)
	}
	if stats.MaterialBreakdown == nil {
		t.Fatalf("expected non-nil breakdown")
	}
}

func TestInvoiceStatisticsEmpty(t *testing.T) {
	repo := &invoiceRepoFake{stats: &domain.InvoiceStatistics{}}
	stats, err := NewInvoiceQueryUseCase(repo, &storageFake{}).Statistics(context.Background(), "u")
	if err != nil {
		t.Fatalf("Statistics() error = %v", err)
	}
	if stats.ProcessingRate != 0 {
		t.Fatalf("expected rate 0, got %v", stats.ProcessingRate)
	}
}
