package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/eco-invoice-tracker/internal/core/domain"
	"github.com/kirillkom/eco-invoice-tracker/internal/core/ports"
)

// ProcessObserver is notified after every processing attempt that produced a result.
type ProcessObserver func(invoice *domain.Invoice, result domain.ProcessingResult)

type ProcessInvoiceUseCase struct {
	repo      ports.InvoiceRepository
	extractor ports.TextExtractor
	analyzer  ports.TextAnalyzer
	graph     ports.ImpactGraph
	observer  ProcessObserver
}

// NewProcessInvoiceUseCase wires the processing pipeline. graph may be nil.
func NewProcessInvoiceUseCase(
	repo ports.InvoiceRepository,
	extractor ports.TextExtractor,
	analyzer ports.TextAnalyzer,
	graph ports.ImpactGraph,
) *ProcessInvoiceUseCase {
	return &ProcessInvoiceUseCase{
		repo:      repo,
		extractor: extractor,
		analyzer:  analyzer,
		graph:     graph,
	}
}

func (uc *ProcessInvoiceUseCase) SetObserver(observer ProcessObserver) {
	uc.observer = observer
}

func (uc *ProcessInvoiceUseCase) ProcessByID(ctx context.Context, invoiceID string) error {
	if err := uc.markStatus(ctx, invoiceID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	invoice, err := uc.loadInvoice(ctx, invoiceID)
	if err != nil {
		return uc.fail(ctx, invoiceID, err)
	}

	text, err := uc.extractText(ctx, invoice)
	if err != nil {
		return uc.fail(ctx, invoiceID, err)
	}

	started := time.Now()
	result := uc.analyzer.Process(ctx, text)
	uc.notify(invoice, result)

	if !result.Succeeded() {
		if err := uc.markStatus(ctx, invoiceID, domain.StatusFailed, result.Error); err != nil {
			return fmt.Errorf("set status=failed: %w", err)
		}
		slog.Info("invoice_processed", "invoice_id", invoiceID, "status", result.Status, "error", result.Error)
		return nil
	}

	if err := uc.repo.SaveResult(ctx, invoiceID, result); err != nil {
		return uc.fail(ctx, invoiceID, fmt.Errorf("save processing result: %w", err))
	}

	slog.Info("invoice_processed",
		"invoice_id", invoiceID,
		"status", result.Status,
		"items", len(result.Items),
		"carbon_kg", result.Impact.TotalCarbonFootprintKg.String(),
		"score", result.Impact.SustainabilityScore,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	uc.project(ctx, applyResult(invoice, result))
	return nil
}

func (uc *ProcessInvoiceUseCase) loadInvoice(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	invoice, err := uc.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("fetch invoice by id: %w", err)
	}
	return invoice, nil
}

func (uc *ProcessInvoiceUseCase) extractText(ctx context.Context, invoice *domain.Invoice) (string, error) {
	text, err := uc.extractor.Extract(ctx, invoice)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	return text, nil
}

func (uc *ProcessInvoiceUseCase) project(ctx context.Context, invoice *domain.Invoice) {
	if uc.graph == nil {
		return
	}
	if err := uc.graph.ProjectInvoice(ctx, invoice); err != nil {
		slog.Warn("impact_graph_projection_failed", "invoice_id", invoice.ID, "error", err)
	}
}

func (uc *ProcessInvoiceUseCase) notify(invoice *domain.Invoice, result domain.ProcessingResult) {
	if uc.observer != nil {
		uc.observer(invoice, result)
	}
}

func (uc *ProcessInvoiceUseCase) markStatus(ctx context.Context, invoiceID string, status domain.InvoiceStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, invoiceID, status, errMessage)
}

func (uc *ProcessInvoiceUseCase) fail(ctx context.Context, invoiceID string, processErr error) error {
	if failErr := uc.markStatus(ctx, invoiceID, domain.StatusFailed, processErr.Error()); failErr != nil {
		return fmt.Errorf("%w; mark failed status: %v", processErr, failErr)
	}
	return processErr
}

func applyResult(invoice *domain.Invoice, result domain.ProcessingResult) *domain.Invoice {
	out := *invoice
	if result.Metadata != nil {
		out.Metadata = *result.Metadata
	}
	out.Items = result.Items
	out.Impact = result.Impact
	out.Status = domain.StatusProcessed
	out.Error = ""
	return &out
}
