package impact

import (
	"regexp"
	"strings"

	"github.com/kirillkom/eco-invoice-tracker/internal/core/domain"
)

// Patterns are tried in order; the first one that matches wins for its field.
var (
	invoiceNumberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)invoice\s*#?\s*(\w+)`),
		regexp.MustCompile(`(?i)invoice\s*number\s*:?\s*(\w+)`),
		regexp.MustCompile(`#\s*(\w+)`),
	}
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`),
		regexp.MustCompile(`\d{4}-\d{2}-\d{2}`),
	}
	totalAmountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)total\s*:?\s*\$?(\d+\.?\d*)`),
		regexp.MustCompile(`(?i)amount\s*due\s*:?\s*\$?(\d+\.?\d*)`),
		regexp.MustCompile(`(?i)grand\s*total\s*:?\s*\$?(\d+\.?\d*)`),
	}
	supplierPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)from\s*:?\s*([^\n]+)`),
		regexp.MustCompile(`(?i)supplier\s*:?\s*([^\n]+)`),
		regexp.MustCompile(`(?i)vendor\s*:?\s*([^\n]+)`),
	}
)

// MetadataExtractor pulls header fields out of invoice text.
type MetadataExtractor struct{}

func NewMetadataExtractor() *MetadataExtractor {
	return &MetadataExtractor{}
}

// Extract never fails: fields without a matching pattern stay empty.
func (e *MetadataExtractor) Extract(text string) domain.ExtractedMetadata {
	var meta domain.ExtractedMetadata

	meta.InvoiceNumber = firstSubmatch(invoiceNumberPatterns, text)

	dates := collectDates(text)
	if len(dates) > 0 {
		meta.InvoiceDate = dates[0]
	}
	if len(dates) > 1 {
		meta.DueDate = dates[1]
	}

	if raw := firstSubmatch(totalAmountPatterns, text); raw != "" {
		if amount, err := parseAmount(raw); err == nil {
			meta.TotalAmount = &amount
		}
	}

	meta.SupplierName = strings.TrimSpace(firstSubmatch(supplierPatterns, text))
	return meta
}

func firstSubmatch(patterns []*regexp.Regexp, text string) string {
	for _, pattern := range patterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

// collectDates returns every match of the first date shape, then every match of the second.
func collectDates(text string) []string {
	var dates []string
	for _, pattern := range datePatterns {
		dates = append(dates, pattern.FindAllString(text, -1)...)
	}
	return dates
}
