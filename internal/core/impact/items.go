package impact

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kirillkom/eco-invoice-tracker/internal/core/domain"
)

// itemLinePattern matches "<description> <qty> <unit price> <total>", amounts optionally prefixed with $.
// Wrapped descriptions and other column orders are not recognized.
var itemLinePattern = regexp.MustCompile(`([^0-9]+)\s+(\d+\.?\d*)\s+\$?(\d+\.?\d*)\s+\$?(\d+\.?\d*)`)

// ItemExtractor splits invoice text into candidate line items.
type ItemExtractor struct{}

func NewItemExtractor() *ItemExtractor {
	return &ItemExtractor{}
}

func (e *ItemExtractor) Extract(text string) []domain.LineItem {
	items := make([]domain.LineItem, 0)
	for _, line := range strings.Split(text, "\n") {
		item, ok := parseItemLine(line)
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return items
}

func parseItemLine(line string) (domain.LineItem, bool) {
	m := itemLinePattern.FindStringSubmatch(line)
	if m == nil {
		return domain.LineItem{}, false
	}

	quantity, err := parseAmount(m[2])
	if err != nil {
		return domain.LineItem{}, false
	}
	unitPrice, err := parseAmount(m[3])
	if err != nil {
		return domain.LineItem{}, false
	}
	totalPrice, err := parseAmount(m[4])
	if err != nil {
		return domain.LineItem{}, false
	}

	return domain.LineItem{
		Description: strings.TrimSpace(m[1]),
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		TotalPrice:  totalPrice,
	}, true
}

func parseAmount(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSuffix(raw, "."))
}
