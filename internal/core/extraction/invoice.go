package extraction

import (
	"regexp"
	"strings"

	"github.com/kirillkom/docket-compliance/internal/core/domain"
)

const invoicePatternConfidence = 0.7

// Labels are case-insensitive; the reference itself must be upper-case
// alphanumeric on the same line and contain a digit.
var invoicePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i:invoice|docket|ref|order)[ \t]*(?i:no\.?|number|num)?[ \t:#.]*([A-Z0-9][A-Z0-9-]{2,19})\b`),
	regexp.MustCompile(`\bINV[ \t:#-]*([A-Z0-9][A-Z0-9-]{2,19})\b`),
	regexp.MustCompile(`#([A-Z0-9-]{4,15})\b`),
}

var hasDigit = regexp.MustCompile(`\d`)

// InvoiceNumber returns nil when no reference number is present.
func (e *Extractor) InvoiceNumber(text string, entities []domain.Entity) *domain.InvoiceNumberField {
	if ent, ok := findEntity(entities, "invoice_number", "docket_number"); ok && ent.Confidence >= strongEntityConfidence {
		if value := strings.TrimSpace(ent.MentionText); value != "" {
			return &domain.InvoiceNumberField{
				Value:            value,
				Confidence:       domain.ClampConfidence(ent.Confidence),
				BoundingBox:      ent.BoundingBox,
				ExtractionMethod: domain.MethodEntityRecognition,
			}
		}
	}

	for _, re := range invoicePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			value := strings.Trim(m[1], "-")
			if len(value) >= 3 && hasDigit.MatchString(value) {
				return &domain.InvoiceNumberField{
					Value:            value,
					Confidence:       invoicePatternConfidence,
					ExtractionMethod: domain.MethodPatternMatching,
				}
			}
		}
	}
	return nil
}
