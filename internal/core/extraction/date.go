package extraction

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/docket-compliance/internal/core/domain"
)

const (
	datePatternConfidence = 0.8
	dateMissingConfidence = 0.1
)

type datePattern struct {
	re     *regexp.Regexp
	format string
	parse  func(m []string) (time.Time, bool)
}

var datePatterns = []datePattern{
	{
		re:     regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`),
		format: domain.DateFormatDMY,
		parse:  parseDayFirst,
	},
	{
		re:     regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`),
		format: domain.DateFormatISO,
		parse: func(m []string) (time.Time, bool) {
			return civilDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
		},
	},
	{
		re:     regexp.MustCompile(`\b(\d{1,2})-(\d{1,2})-(\d{4})\b`),
		format: domain.DateFormatDMY,
		parse:  parseDayFirst,
	},
	{
		re:     regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?[ \t]+(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?,?[ \t]+(\d{4})\b`),
		format: domain.DateFormatOther,
		parse: func(m []string) (time.Time, bool) {
			return civilDate(atoi(m[3]), monthIndex(m[2]), atoi(m[1]))
		},
	},
}

var entityDateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"2 Jan 2006",
	"2 January 2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// DeliveryDate finds the delivery date and normalizes it to an ISO UTC timestamp.
// Numeric dates are read day-first.
func (e *Extractor) DeliveryDate(text string, entities []domain.Entity) domain.DeliveryDateField {
	if ent, ok := findEntity(entities, "delivery_date", "date"); ok && ent.Confidence >= strongEntityConfidence {
		if ts, format, ok := ParseDate(ent.MentionText); ok {
			return domain.DeliveryDateField{
				Value:            ts.Format(domain.ISOTimestampLayout),
				Confidence:       domain.ClampConfidence(ent.Confidence),
				BoundingBox:      ent.BoundingBox,
				Format:           format,
				ExtractionMethod: domain.MethodEntityRecognition,
			}
		}
	}

	if ts, format, ok := ParseDate(text); ok {
		return domain.DeliveryDateField{
			Value:            ts.Format(domain.ISOTimestampLayout),
			Confidence:       datePatternConfidence,
			Format:           format,
			ExtractionMethod: domain.MethodPatternMatching,
		}
	}

	return domain.DeliveryDateField{
		Value:            e.now().UTC().Format(domain.ISOTimestampLayout),
		Confidence:       dateMissingConfidence,
		Format:           domain.DateFormatOther,
		ExtractionMethod: domain.MethodFallback,
	}
}

// ParseDate returns the first recognizable date in s together with the format it was written in.
func ParseDate(s string) (time.Time, string, bool) {
	for _, p := range datePatterns {
		for _, m := range p.re.FindAllStringSubmatch(s, -1) {
			if ts, ok := p.parse(m); ok {
				return ts, p.format, true
			}
		}
	}

	trimmed := strings.TrimSpace(s)
	for _, layout := range entityDateLayouts {
		if ts, err := time.Parse(layout, trimmed); err == nil {
			return ts.UTC(), domain.DateFormatOther, true
		}
	}
	return time.Time{}, "", false
}

// parseDayFirst reads D/M/Y and retries as M/D/Y when the month is out of range.
func parseDayFirst(m []string) (time.Time, bool) {
	day, month, year := atoi(m[1]), atoi(m[2]), atoi(m[3])
	if ts, ok := civilDate(year, month, day); ok {
		return ts, true
	}
	return civilDate(year, day, month)
}

func civilDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 || year < 1900 {
		return time.Time{}, false
	}
	ts := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if ts.Day() != day {
		return time.Time{}, false
	}
	return ts, true
}

func monthIndex(name string) int {
	switch strings.ToLower(name)[:3] {
	case "jan":
		return 1
	case "feb":
		return 2
	case "mar":
		return 3
	case "apr":
		return 4
	case "may":
		return 5
	case "jun":
		return 6
	case "jul":
		return 7
	case "aug":
		return 8
	case "sep":
		return 9
	case "oct":
		return 10
	case "nov":
		return 11
	case "dec":
		return 12
	}
	return 0
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}
