package extraction

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kirillkom/docket-compliance/internal/core/domain"
)

const lineItemPatternConfidence = 0.6

// maxAmount bounds quantities and prices read from a docket. Larger values
// are OCR noise and would not survive float conversion.
var maxAmount = decimal.New(1, 12)

const pricePattern = `(\$[ \t]*\d[\d,]*(?:\.\d{1,2})?|\d[\d,]*\.\d{2})`

var (
	lineQtyFirst  = regexp.MustCompile(`^(\d+(?:\.\d+)?)[ \t]*(?i:x|@|ea|pcs?|ctn|cs)?[ \t]+(.+?)[ \t]+` + pricePattern + `$`)
	lineDescQty   = regexp.MustCompile(`^(.+?)[ \t]+(\d+(?:\.\d+)?)[ \t]*(?i:x|@|ea|each|pcs?|units?|ctn|cs)?[ \t]+` + pricePattern + `$`)
	lineDescPrice = regexp.MustCompile(`^(.+?)[ \t]+` + pricePattern + `$`)

	lineHeader      = regexp.MustCompile(`(?i)^(?:qty|quantity|item|description|price|total|subtotal|sub-total|gst|tax|freight|delivery|balance|amount)\b`)
	lineNumericOnly = regexp.MustCompile(`^[0-9\s$.,/\-]+$`)
	lineTemperature = regexp.MustCompile(`(?i)\btemp|°|º`)
	lineHasWord     = regexp.MustCompile(`[A-Za-z]{2,}`)
	unitSizePattern = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?[ \t]*(?:kg|g|ml|l|ltr|pack|pk|box|case|ctn))\b`)
	skuPattern      = regexp.MustCompile(`\b([A-Z0-9-]{4,15})\b`)
	hasLetter       = regexp.MustCompile(`[A-Z]`)
)

// LineItems reads product rows. Structured provider rows are preferred; the
// text fallback is a best-effort row parser.
func (e *Extractor) LineItems(text string, entities []domain.Entity) []domain.LineItem {
	if items := e.lineItemsFromEntities(entities); len(items) > 0 {
		return items
	}
	return lineItemsFromText(text)
}

func (e *Extractor) lineItemsFromEntities(entities []domain.Entity) []domain.LineItem {
	items := make([]domain.LineItem, 0)
	for _, ent := range entities {
		if !strings.EqualFold(ent.Type, "line_item") || len(ent.Properties) == 0 || ent.Confidence < e.entityThreshold {
			continue
		}
		item := domain.LineItem{
			Quantity:        1,
			ProductCategory: domain.CategoryUnclassified,
			Confidence:      domain.ClampConfidence(ent.Confidence),
			BoundingBox:     ent.BoundingBox,
		}
		for _, prop := range ent.Properties {
			value := strings.TrimSpace(prop.MentionText)
			switch strings.TrimPrefix(strings.ToLower(prop.Type), "line_item/") {
			case "description":
				item.Description = value
			case "quantity":
				if q, ok := parseAmount(value); ok && q > 0 {
					item.Quantity = q
				}
			case "unit_price":
				if p, ok := parseAmount(value); ok {
					item.UnitPrice = p
				}
			case "amount":
				if p, ok := parseAmount(value); ok {
					item.TotalPrice = p
				}
			case "product_code":
				item.SKU = value
			case "unit":
				item.UnitSize = value
			}
		}
		if item.Description == "" {
			continue
		}
		if item.UnitSize == "" {
			item.UnitSize = extractUnitSize(item.Description)
		}
		fillPrices(&item)
		items = append(items, item)
	}
	return items
}

func lineItemsFromText(text string) []domain.LineItem {
	items := make([]domain.LineItem, 0)
	for _, line := range splitLines(text) {
		line = strings.TrimSpace(line)
		if skipLine(line) {
			continue
		}
		item, ok := parseLine(line)
		if !ok || !lineHasWord.MatchString(item.Description) {
			continue
		}
		items = append(items, item)
	}
	return items
}

func skipLine(line string) bool {
	if len(line) < 5 {
		return true
	}
	return lineHeader.MatchString(line) || lineNumericOnly.MatchString(line) || lineTemperature.MatchString(line)
}

func parseLine(line string) (domain.LineItem, bool) {
	var description, qty, price string
	if m := lineQtyFirst.FindStringSubmatch(line); m != nil {
		qty, description, price = m[1], m[2], m[3]
	} else if m := lineDescQty.FindStringSubmatch(line); m != nil {
		description, qty, price = m[1], m[2], m[3]
	} else if m := lineDescPrice.FindStringSubmatch(line); m != nil {
		description, price = m[1], m[2]
	} else {
		return domain.LineItem{}, false
	}

	item := domain.LineItem{
		Description:     strings.TrimSpace(description),
		Quantity:        1,
		UnitSize:        extractUnitSize(description),
		SKU:             extractSKU(description),
		ProductCategory: domain.CategoryUnclassified,
		Confidence:      lineItemPatternConfidence,
	}
	if q, ok := parseAmount(qty); ok && q > 0 {
		item.Quantity = q
	}
	if p, ok := parseAmount(price); ok {
		item.TotalPrice = p
	}
	fillPrices(&item)
	return item, true
}

// fillPrices derives whichever of unit and total price is missing.
func fillPrices(item *domain.LineItem) {
	qty := decimal.NewFromFloat(item.Quantity)
	switch {
	case item.TotalPrice == 0 && item.UnitPrice > 0:
		item.TotalPrice = decimal.NewFromFloat(item.UnitPrice).Mul(qty).Round(2).InexactFloat64()
	case item.UnitPrice == 0 && item.TotalPrice > 0 && item.Quantity > 0:
		item.UnitPrice = decimal.NewFromFloat(item.TotalPrice).Div(qty).Round(2).InexactFloat64()
	}
}

func parseAmount(raw string) (float64, bool) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "", "\t", "").Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil || d.Abs().GreaterThan(maxAmount) {
		return 0, false
	}
	return d.InexactFloat64(), true
}

func extractUnitSize(description string) string {
	if m := unitSizePattern.FindStringSubmatch(description); m != nil {
		return strings.Join(strings.Fields(m[1]), "")
	}
	return ""
}

// extractSKU picks an upper-case code that mixes letters and digits.
func extractSKU(description string) string {
	for _, m := range skuPattern.FindAllStringSubmatch(description, -1) {
		code := m[1]
		if hasDigit.MatchString(code) && hasLetter.MatchString(code) {
			return code
		}
	}
	return ""
}
