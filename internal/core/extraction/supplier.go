package extraction

import (
	"regexp"
	"strings"

	"github.com/kirillkom/docket-compliance/internal/core/domain"
)

const (
	supplierPatternConfidence = 0.7
	supplierMissingConfidence = 0.1
	// UnknownSupplier is reported when nothing resembling a supplier was found.
	UnknownSupplier = "Unknown Supplier"
)

var (
	supplierHeaderPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)delivery[ \t]+(?:docket|note|receipt)[ \t]*[\r\n]+[ \t]*([^\r\n]+)`),
		regexp.MustCompile(`(?im)^[ \t]*invoice[ \t]*[\r\n]+[ \t]*([^\r\n]+)`),
		regexp.MustCompile(`(?im)^[ \t]*from[ \t:]*[\r\n]+[ \t]*([^\r\n]+)`),
	}
	supplierLabelPattern    = regexp.MustCompile(`(?im)\b(?:supplier|vendor|from|company|delivered[ \t]+by)[ \t]*:[ \t]*([^\r\n]+)`)
	supplierBusinessPattern = regexp.MustCompile(`(?m)^[ \t]*([A-Z][A-Za-z &'-]{2,40}\b(?:Ltd|Limited|Inc|Corp|Company|Co\.?|Pty(?:[ \t]+Ltd)?))[ \t]*$`)

	businessIndicator = regexp.MustCompile(`(?i)\b(?:Ltd|Limited|Inc|Corp|Corporation|Company|Co\.|Pty|LLC|Group|Enterprises|Trading|Supply|Wholesale|Distribution)\b`)
	titleCaseName     = regexp.MustCompile(`^[A-Z][a-z]+(?:\s+[A-Z][a-z]+)+$`)

	numericOnly      = regexp.MustCompile(`^\d+$`)
	dateLike         = regexp.MustCompile(`^\d{1,2}[/-]\d{1,2}[/-]\d{2,4}$`)
	reservedWord     = regexp.MustCompile(`(?i)^(?:date|time|temp|temperature|delivery|docket|invoice|total|price|qty|quantity|item|description|page|of|and|the|for|with|from|to|at|on|in)$`)
	temperatureOnly  = regexp.MustCompile(`(?i)^-?\d+(?:\.\d+)?\s*°\s*[CF]$`)
	priceLeading     = regexp.MustCompile(`^\$\d+`)
	letterPattern    = regexp.MustCompile(`[A-Za-z]`)
	invalidNameChars = regexp.MustCompile(`[^\w\s&.,'-]`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
	edgePunctuation  = regexp.MustCompile(`^[^\w]+|[^\w.]+$`)

	genericSupplierNames = []string{
		"food service co", "delivery company", "transport ltd", "logistics inc",
		"general trading", "supply company", "distribution co",
	}
)

// Supplier finds the supplier name: a confident provider entity first, then
// header, label, business-suffix and top-of-page heuristics.
func (e *Extractor) Supplier(text string, entities []domain.Entity) domain.SupplierField {
	if ent, ok := supplierEntity(entities); ok && ent.Confidence >= strongEntityConfidence {
		if name := CleanSupplierName(ent.MentionText); name != "" {
			return domain.SupplierField{
				Value:            name,
				Confidence:       domain.ClampConfidence(ent.Confidence),
				BoundingBox:      ent.BoundingBox,
				ExtractionMethod: domain.MethodEntityRecognition,
			}
		}
	}

	if name, ok := supplierFromText(text); ok {
		return domain.SupplierField{
			Value:            name,
			Confidence:       supplierPatternConfidence,
			ExtractionMethod: domain.MethodPatternMatching,
		}
	}

	return domain.SupplierField{
		Value:            UnknownSupplier,
		Confidence:       supplierMissingConfidence,
		ExtractionMethod: domain.MethodFallback,
	}
}

func supplierEntity(entities []domain.Entity) (domain.Entity, bool) {
	if ent, ok := findEntity(entities, "supplier_name", "company_name", "vendor_name"); ok {
		return ent, true
	}
	for _, ent := range entities {
		if isLikelySupplierName(ent.MentionText) {
			return ent, true
		}
	}
	return domain.Entity{}, false
}

func supplierFromText(text string) (string, bool) {
	for _, re := range supplierHeaderPatterns {
		if m := re.FindStringSubmatch(text); m != nil && IsValidSupplierName(m[1]) {
			return CleanSupplierName(m[1]), true
		}
	}

	for _, m := range supplierLabelPattern.FindAllStringSubmatch(text, -1) {
		if IsValidSupplierName(m[1]) && !isGenericSupplierName(m[1]) {
			return CleanSupplierName(m[1]), true
		}
	}

	for _, m := range supplierBusinessPattern.FindAllStringSubmatch(text, -1) {
		if IsValidSupplierName(m[1]) && !isGenericSupplierName(m[1]) {
			return CleanSupplierName(m[1]), true
		}
	}

	lines := splitLines(text)
	for i := 0; i < len(lines) && i < 5; i++ {
		line := strings.TrimSpace(lines[i])
		if len(line) > 5 && IsValidSupplierName(line) && isLikelySupplierName(line) {
			return CleanSupplierName(line), true
		}
	}
	return "", false
}

// IsValidSupplierName rejects values that are clearly not a business name.
func IsValidSupplierName(name string) bool {
	name = strings.TrimSpace(name)
	if len(name) < 3 || len(name) > 100 {
		return false
	}
	if !letterPattern.MatchString(name) {
		return false
	}
	switch {
	case numericOnly.MatchString(name),
		dateLike.MatchString(name),
		reservedWord.MatchString(name),
		temperatureOnly.MatchString(name),
		priceLeading.MatchString(name):
		return false
	}
	return true
}

func isLikelySupplierName(text string) bool {
	text = strings.TrimSpace(text)
	if len(text) < 3 {
		return false
	}
	return businessIndicator.MatchString(text) || titleCaseName.MatchString(text)
}

func isGenericSupplierName(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, generic := range genericSupplierNames {
		if strings.Contains(lower, generic) || strings.Contains(generic, lower) {
			return true
		}
	}
	return false
}

// CleanSupplierName strips characters that do not belong in a business name
// and collapses whitespace.
func CleanSupplierName(name string) string {
	name = invalidNameChars.ReplaceAllString(name, "")
	name = whitespaceRun.ReplaceAllString(name, " ")
	name = edgePunctuation.ReplaceAllString(strings.TrimSpace(name), "")
	return strings.TrimSpace(name)
}
