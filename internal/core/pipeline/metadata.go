package pipeline

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kirillkom/docket-compliance/internal/core/domain"
)

const (
	DocumentTypeDeliveryDocket = "delivery_docket"
	DocumentTypeInvoice        = "invoice"
	DocumentTypeReceipt        = "receipt"
	DocumentTypeUnknown        = "unknown"

	LanguageEnglish = "en"
	LanguageUnknown = "unknown"
)

var (
	wordPattern        = regexp.MustCompile(`[a-z]+`)
	commonEnglishWords = map[string]bool{
		"the": true, "and": true, "of": true, "to": true, "for": true, "with": true,
		"delivery": true, "docket": true, "total": true, "date": true, "invoice": true,
		"received": true, "signed": true, "temperature": true, "supplier": true, "qty": true,
	}
)

// DetectDocumentType guesses the document kind from its text.
func DetectDocumentType(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "delivery docket"), strings.Contains(lower, "delivery note"):
		return DocumentTypeDeliveryDocket
	case strings.Contains(lower, "invoice"):
		return DocumentTypeInvoice
	case strings.Contains(lower, "receipt"):
		return DocumentTypeReceipt
	default:
		return DocumentTypeUnknown
	}
}

// DetectLanguage reports English when more than two common English words appear.
func DetectLanguage(text string) string {
	hits := 0
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if commonEnglishWords[w] {
			hits++
			if hits > 2 {
				return LanguageEnglish
			}
		}
	}
	return LanguageUnknown
}

// EstimatedValue sums line totals in decimal and rounds to cents.
func EstimatedValue(items []domain.LineItem) float64 {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(decimal.NewFromFloat(item.TotalPrice))
	}
	return total.Round(2).InexactFloat64()
}
