package extraction

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/docket-compliance/internal/core/domain"
)

const (
	temperaturePatternConfidence = 0.6
	temperatureEntityDefault     = 0.8
	temperatureContextRadius     = 50
	// GeneralDeliveryContext marks a reading that could not be tied to a place in the text.
	GeneralDeliveryContext = "general delivery"
)

// Patterns are listed from most to least specific. A later pattern never
// re-reports a number already captured by an earlier one.
var temperaturePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\btemp(?:erature)?\.?[ \t]*[:=]?[ \t]*(-?\d+(?:\.\d+)?)[ \t]*(?:°|º|deg(?:rees)?)?[ \t]*([cf])\b`),
	regexp.MustCompile(`(?i)(-?\d+(?:\.\d+)?)[ \t]*(?:°|º)[ \t]*([cf])?`),
	regexp.MustCompile(`(?i)\btemperature[ \t]*[:=]?[ \t]*(-?\d+(?:\.\d+)?)()`),
}

var (
	entityNumber = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	entityUnit   = regexp.MustCompile(`(?i)\d[ \t]*(?:°|º|deg(?:rees)?)?[ \t]*([cf])\b`)
)

// Temperatures collects every temperature reading on the docket. Provider
// entities win; text patterns are used only when no entity qualified.
func (e *Extractor) Temperatures(text string, entities []domain.Entity) []domain.TemperatureReading {
	readings := e.temperaturesFromEntities(text, entities)
	if len(readings) > 0 {
		return readings
	}
	return temperaturesFromText(text)
}

func (e *Extractor) temperaturesFromEntities(text string, entities []domain.Entity) []domain.TemperatureReading {
	readings := make([]domain.TemperatureReading, 0)
	for _, ent := range entities {
		if !strings.EqualFold(ent.Type, "temperature") && !strings.Contains(ent.MentionText, "°") {
			continue
		}
		confidence := ent.Confidence
		if confidence == 0 {
			confidence = temperatureEntityDefault
		}
		if confidence < e.entityThreshold {
			continue
		}
		raw := entityNumber.FindString(ent.MentionText)
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		unit := domain.UnitCelsius
		if m := entityUnit.FindStringSubmatch(ent.MentionText); m != nil && strings.EqualFold(m[1], "f") {
			unit = domain.UnitFahrenheit
		}

		context := GeneralDeliveryContext
		if idx := strings.Index(text, ent.MentionText); ent.MentionText != "" && idx >= 0 {
			context = contextAround(text, idx, idx+len(ent.MentionText))
		}

		readings = append(readings, newReading(value, unit, context, domain.ClampConfidence(confidence), ent.BoundingBox))
	}
	return readings
}

func temperaturesFromText(text string) []domain.TemperatureReading {
	readings := make([]domain.TemperatureReading, 0)
	var taken [][2]int
	for _, re := range temperaturePatterns {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			numStart, numEnd := loc[2], loc[3]
			if overlapsAny(taken, numStart, numEnd) {
				continue
			}
			value, err := strconv.ParseFloat(text[numStart:numEnd], 64)
			if err != nil {
				continue
			}
			unit := domain.UnitCelsius
			if len(loc) > 5 && loc[4] >= 0 && strings.EqualFold(text[loc[4]:loc[5]], "f") {
				unit = domain.UnitFahrenheit
			}
			taken = append(taken, [2]int{numStart, numEnd})
			readings = append(readings, newReading(value, unit, contextAround(text, loc[0], loc[1]), temperaturePatternConfidence, nil))
		}
	}
	return readings
}

func newReading(value float64, unit domain.TemperatureUnit, context string, confidence float64, box *domain.BoundingBox) domain.TemperatureReading {
	r := domain.TemperatureReading{
		Value:          value,
		Unit:           unit,
		ProductContext: context,
		BoundingBox:    box,
		Confidence:     confidence,
		RiskLevel:      domain.RiskMedium,
	}
	r.ComplianceStatus = InitialComplianceStatus(r.Celsius())
	return r
}

// InitialComplianceStatus grades a reading before any product context is known.
func InitialComplianceStatus(celsius float64) domain.ComplianceStatus {
	switch {
	case celsius < -20 || celsius > 40:
		return domain.ComplianceFail
	case celsius < -15 || celsius > 30:
		return domain.ComplianceWarning
	default:
		return domain.CompliancePass
	}
}

func overlapsAny(spans [][2]int, start, end int) bool {
	for _, s := range spans {
		if start < s[1] && s[0] < end {
			return true
		}
	}
	return false
}

// contextAround returns up to temperatureContextRadius bytes either side of a
// match, cut on rune boundaries and with whitespace collapsed.
func contextAround(text string, start, end int) string {
	from := max(0, start-temperatureContextRadius)
	for from > 0 && !utf8.RuneStart(text[from]) {
		from--
	}
	to := min(len(text), end+temperatureContextRadius)
	for to < len(text) && !utf8.RuneStart(text[to]) {
		to++
	}
	return strings.Join(strings.Fields(text[from:to]), " ")
}
