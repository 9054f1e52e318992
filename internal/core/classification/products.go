package classification

import (
	"regexp"
	"strings"

	"github.com/kirillkom/docket-compliance/internal/core/domain"
)

var (
	numericLinePattern  = regexp.MustCompile(`^[0-9\s$.\-]+$`)
	summaryLinePattern  = regexp.MustCompile(`(?i)^(total|subtotal|tax|gst|delivery|freight)`)
	hasWordPattern      = regexp.MustCompile(`[a-zA-Z]{3,}`)
	unitSizeNoise       = regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*(?:kg|g|gm|ml|l|lt|ltr|pk|pack|box|case|ctn|x)\b`)
	priceNoise          = regexp.MustCompile(`\$?\d+(?:[.,]\d+)*`)
	nonLetterNoise      = regexp.MustCompile(`[^a-z\s]+`)
	marketingAdjectives = map[string]bool{
		"fresh": true, "premium": true, "organic": true, "free": true, "range": true,
		"large": true, "small": true, "medium": true, "extra": true, "select": true,
		"choice": true, "quality": true, "new": true, "value": true, "bulk": true,
		"natural": true, "classic": true, "original": true, "finest": true,
	}
)

// ClassifyProducts classifies each line item, or candidate product lines split
// out of the raw text when no line items were extracted.
func (e *Engine) ClassifyProducts(text string, items []domain.LineItem) domain.ProductClassification {
	names := make([]string, 0, len(items))
	for _, item := range items {
		if name := strings.TrimSpace(item.Description); name != "" {
			names = append(names, name)
		}
	}
	if len(items) == 0 {
		names = CandidateProductLines(text)
	}

	out := domain.NewEmptyClassification()
	var total float64
	for _, name := range names {
		res := e.Classify(name)
		out.Add(domain.ClassifiedProduct{
			Name:                   name,
			Category:               res.Category,
			Confidence:             res.Confidence,
			TemperatureRequirement: e.Requirement(res.Category),
			RiskLevel:              e.RiskLevel(res.Category, res.Confidence),
		})
		total += res.Confidence
	}
	if out.Summary.TotalProducts > 0 {
		out.Summary.Confidence = domain.RoundTo(total/float64(out.Summary.TotalProducts), 2)
	}
	return out
}

// CandidateProductLines splits document text into lines that may name a product.
func CandidateProductLines(text string) []string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) < 3 {
			continue
		}
		if numericLinePattern.MatchString(line) || summaryLinePattern.MatchString(line) {
			continue
		}
		if !hasWordPattern.MatchString(line) {
			continue
		}
		out = append(out, line)
	}
	return out
}

// CountDistinctProducts estimates how many different products a docket lists.
// Names are reduced to their core words, so "Fresh Milk 2L" and "milk 1l" count once.
func CountDistinctProducts(items []domain.LineItem) int {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		key := productKey(item.Description)
		if key == "" {
			continue
		}
		seen[key] = struct{}{}
	}
	return len(seen)
}

func productKey(name string) string {
	s := strings.ToLower(name)
	s = unitSizeNoise.ReplaceAllString(s, " ")
	s = priceNoise.ReplaceAllString(s, " ")
	s = nonLetterNoise.ReplaceAllString(s, " ")

	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if marketingAdjectives[w] || len(w) < 2 {
			continue
		}
		if len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") {
			w = strings.TrimSuffix(w, "s")
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}
