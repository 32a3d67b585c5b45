package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/eco-invoice-tracker/internal/core/domain"
)

func TestReprocessFailedInvoice(t *testing.T) {
	repo := &invoiceRepoFake{invoice: &domain.Invoice{ID: "inv-1", OwnerID: "u", Status: domain.StatusFailed, Error: "boom"}}
	queue := &queueFake{}
	uc := NewReprocessInvoiceUseCase(repo, queue)

	invoice, err := uc.Reprocess(context.Background(), "u", "inv-1")
	if err != nil {
		t.Fatalf("Reprocess() error = %v", err)
	}
	if invoice.Status != domain.StatusUploaded || invoice.Error != "" {
		t.Fatalf("unexpected invoice: %+v", invoice)
	}
	if len(repo.statusCalls) != 1 || repo.statusCalls[0].status != domain.StatusUploaded || repo.statusCalls[0].errMsg != "" {
		t.Fatalf("unexpected status calls: %+v", repo.statusCalls)
	}
	if len(queue.published) != 1 || queue.published[0] != "inv-1" {
		t.Fatalf("expected republish, got %v", queue.published)
	}
}

func TestReprocessRejectsNonFailed(t *testing.T) {
	for _, status := range []domain.InvoiceStatus{domain.StatusUploaded, domain.StatusProcessing, domain.StatusProcessed} {
		repo := &invoiceRepoFake{invoice: &domain.Invoice{ID: "inv-1", OwnerID: "u", Status: status}}
		queue := &queueFake{}
		_, err := NewReprocessInvoiceUseCase(repo, queue).Reprocess(context.Background(), "u", "inv-1")
		if !domain.IsKind(err, domain.ErrConflict) {
			t.Fatalf("status %s: expected ErrConflict, got %v", status, err)
		}
		if len(queue.published) != 0 {
			t.Fatalf("status %s: must not republish", status)
		}
	}
}

func TestReprocessOtherOwner(t *testing.T) {
	repo := &invoiceRepoFake{invoice: &domain.Invoice{ID: "inv-1", OwnerID: "owner-a", Status: domain.StatusFailed}}
	_, err := NewReprocessInvoiceUseCase(repo, &queueFake{}).Reprocess(context.Background(), "owner-b", "inv-1")
	if !domain.IsKind(err, domain.ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}
}

func TestReprocessQueueErrorMarksInvoiceFailedAgain(t *testing.T) {
	repo := &invoiceRepoFake{invoice: &domain.Invoice{ID: "inv-1", OwnerID: "u", Status: domain.StatusFailed, Error: "boom"}}
	queue := &queueFake{err: errors.New("nats down")}

	if _, err := NewReprocessInvoiceUseCase(repo, queue).Reprocess(context.Background(), "u", "inv-1"); err == nil {
		t.Fatalf("expected publish error")
	}

	if len(repo.statusCalls) != 2 {
		t.Fatalf("expected reset then failed status, got %+v", repo.statusCalls)
	}
	if repo.statusCalls[0].status != domain.StatusUploaded {
		t.Fatalf("expected reset to uploaded first, got %+v", repo.statusCalls[0])
	}
	last := repo.statusCalls[1]
	if last.status != domain.StatusFailed || !strings.Contains(last.errMsg, "publish processing event") {
		t.Fatalf("expected failed status with publish error, got %+v", last)
	}
}
