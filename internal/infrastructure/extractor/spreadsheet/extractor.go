package spreadsheet

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/eco-invoice-tracker/internal/core/domain"
	"github.com/kirillkom/eco-invoice-tracker/internal/core/ports"
)

// Extractor flattens tabular invoices into text, one line per non-empty row,
// cells joined by single spaces so line item rows read as "<description> <qty> <price> <total>".
type Extractor struct {
	storage ports.ObjectStorage
}

func NewExtractor(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

// Extract reads an .xlsx workbook, walking every sheet in workbook order.
func (e *Extractor) Extract(ctx context.Context, invoice *domain.Invoice) (string, error) {
	reader, err := e.storage.Open(ctx, invoice.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open source invoice: %w", err)
	}
	defer reader.Close()

	book, err := excelize.OpenReader(reader)
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "open workbook", err)
	}
	defer book.Close()

	var lines []string
	for _, sheet := range book.GetSheetList() {
		rows, err := book.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		lines = appendRows(lines, rows)
	}
	return strings.Join(lines, "\n"), nil
}

// CSVExtractor handles comma separated exports with the same row flattening.
type CSVExtractor struct {
	storage ports.ObjectStorage
}

func NewCSVExtractor(storage ports.ObjectStorage) *CSVExtractor {
	return &CSVExtractor{storage: storage}
}

func (e *CSVExtractor) Extract(ctx context.Context, invoice *domain.Invoice) (string, error) {
	reader, err := e.storage.Open(ctx, invoice.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open source invoice: %w", err)
	}
	defer reader.Close()

	r := csv.NewReader(reader)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", domain.WrapError(domain.ErrInvalidInput, "parse csv", err)
		}
		rows = append(rows, record)
	}
	return strings.Join(appendRows(nil, rows), "\n"), nil
}

func appendRows(lines []string, rows [][]string) []string {
	for _, row := range rows {
		cells := make([]string, 0, len(row))
		for _, cell := range row {
			if cell = strings.TrimSpace(cell); cell != "" {
				cells = append(cells, cell)
			}
		}
		if len(cells) > 0 {
			lines = append(lines, strings.Join(cells, " "))
		}
	}
	return lines
}
