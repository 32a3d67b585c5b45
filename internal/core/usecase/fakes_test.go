package usecase

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/kirillkom/eco-invoice-tracker/internal/core/domain"
)

type statusCall struct {
	status domain.InvoiceStatus
	errMsg string
}

type invoiceRepoFake struct {
	invoice     *domain.Invoice
	created     *domain.Invoice
	createErr   error
	getErr      error
	saveErr     error
	statusErr   error
	deleteErr   error
	statusCalls []statusCall
	saved       *domain.ProcessingResult
	deletedID   string
	listOwner   string
	listLimit   int
	stats       *domain.InvoiceStatistics
}

func (f *invoiceRepoFake) Create(_ context.Context, invoice *domain.Invoice) error {
	if f.createErr != nil {
		return f.createErr
	}
	copyInvoice := *invoice
	f.created = &copyInvoice
	return nil
}

func (f *invoiceRepoFake) GetByID(context.Context, string) (*domain.Invoice, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.invoice == nil {
		return nil, domain.ErrInvoiceNotFound
	}
	copyInvoice := *f.invoice
	return &copyInvoice, nil
}

func (f *invoiceRepoFake) ListByOwner(_ context.Context, ownerID string, limit int) ([]domain.Invoice, error) {
	f.listOwner = ownerID
	f.listLimit = limit
	if f.invoice == nil {
		return []domain.Invoice{}, nil
	}
	return []domain.Invoice{*f.invoice}, nil
}

func (f *invoiceRepoFake) UpdateStatus(_ context.Context, _ string, status domain.InvoiceStatus, errMessage string) error {
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	return f.statusErr
}

func (f *invoiceRepoFake) SaveResult(_ context.Context, _ string, result domain.ProcessingResult) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = &result
	return nil
}

func (f *invoiceRepoFake) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedID = id
	return nil
}

func (f *invoiceRepoFake) Statistics(context.Context, string) (*domain.InvoiceStatistics, error) {
	if f.stats == nil {
		return nil, errors.New("not implemented")
	}
	copyStats := *f.stats
	return &copyStats, nil
}

type storageFake struct {
	savedKey   string
	savedBody  string
	deletedKey string
	saveErr    error
	deleteErr  error
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) (int64, error) {
	if f.saveErr != nil {
		return 0, f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return 0, err
	}
	f.savedKey = key
	f.savedBody = string(raw)
	return int64(len(raw)), nil
}

func (f *storageFake) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(f.savedBody)), nil
}

func (f *storageFake) Delete(_ context.Context, key string) error {
	f.deletedKey = key
	return f.deleteErr
}

type queueFake struct {
	published []string
	err       error
}

func (f *queueFake) PublishInvoiceUploaded(_ context.Context, invoiceID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, invoiceID)
	return nil
}

func (f *queueFake) SubscribeInvoiceUploaded(context.Context, func(context.Context, string) error) error {
	return errors.New("not implemented")
}
