package validation

import (
	"regexp"
	"strings"
	"time"

	"github.com/kirillkom/docket-compliance/internal/core/classification"
	"github.com/kirillkom/docket-compliance/internal/core/domain"
	"github.com/kirillkom/docket-compliance/internal/core/extraction"
)

// Weights of the overall document confidence. They sum to 1 and are never
// renormalized, so a missing component lowers the score.
const (
	weightSupplier       = 0.25
	weightDeliveryDate   = 0.15
	weightTemperature    = 0.25
	weightClassification = 0.15
	weightExtraction     = 0.10
	weightCompliance     = 0.10
)

var (
	companySuffix = regexp.MustCompile(`(?i)\b(?:ltd|limited|inc|incorporated|corp|corporation|co\.?|company|pty|llc|plc|gmbh|group)\b\.?`)
	placeholders  = map[string]bool{
		"test": true, "demo": true, "sample": true, "unknown": true, "n/a": true, "na": true,
		"unknown supplier": true, "supplier not found": true, "processing failed": true,
	}
	defaultExpectedRange = domain.TemperatureRequirement{Min: -18, Max: 8, Unit: domain.UnitCelsius}
)

// ProductCategorizer assigns a temperature category to a product description.
type ProductCategorizer interface {
	Classify(description string) classification.Result
}

type Input struct {
	Supplier       domain.SupplierField
	DeliveryDate   domain.DeliveryDateField
	Temperatures   []domain.TemperatureReading
	LineItems      []domain.LineItem
	Classification domain.ProductClassification
	Compliance     domain.ComplianceAnalysis
}

// Breakdown records each weighted component for diagnostics.
type Breakdown struct {
	Supplier       float64 `json:"supplier"`
	DeliveryDate   float64 `json:"deliveryDate"`
	Temperature    float64 `json:"temperature"`
	Classification float64 `json:"classification"`
	Extraction     float64 `json:"extraction"`
	Compliance     float64 `json:"compliance"`
}

type Output struct {
	Supplier          domain.SupplierField
	DeliveryDate      domain.DeliveryDateField
	Temperatures      []domain.TemperatureReading
	LineItems         []domain.LineItem
	OverallConfidence float64
	Breakdown         Breakdown
}

type Option func(*Scorer)

func WithClock(now func() time.Time) Option {
	return func(s *Scorer) {
		if now != nil {
			s.now = now
		}
	}
}

// Scorer re-scores extracted fields with business plausibility rules.
type Scorer struct {
	categorizer ProductCategorizer
	now         func() time.Time
}

func NewScorer(categorizer ProductCategorizer, opts ...Option) *Scorer {
	s := &Scorer{categorizer: categorizer, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scorer) Validate(in Input) Output {
	supplier := s.validateSupplier(in.Supplier)
	date := s.validateDeliveryDate(in.DeliveryDate)
	temps := s.validateTemperatures(in.Temperatures, in.Classification)
	items := s.validateLineItems(in.LineItems)

	b := Breakdown{
		Supplier:       supplier.Confidence,
		DeliveryDate:   date.Confidence,
		Temperature:    meanConfidence(temps),
		Classification: domain.ClampConfidence(in.Classification.Summary.Confidence),
		Extraction:     extractionQuality(supplier, date, temps, items),
		Compliance:     complianceScore(in.Compliance, len(temps)),
	}
	overall := weightSupplier*b.Supplier +
		weightDeliveryDate*b.DeliveryDate +
		weightTemperature*b.Temperature +
		weightClassification*b.Classification +
		weightExtraction*b.Extraction +
		weightCompliance*b.Compliance

	return Output{
		Supplier:          supplier,
		DeliveryDate:      date,
		Temperatures:      temps,
		LineItems:         items,
		OverallConfidence: domain.RoundConfidence(overall),
		Breakdown:         b,
	}
}

func (s *Scorer) validateSupplier(in domain.SupplierField) domain.SupplierField {
	out := in
	confidence := in.Confidence
	if companySuffix.MatchString(in.Value) {
		confidence += 0.15
	}
	if n := len(strings.TrimSpace(in.Value)); n >= 3 && n <= 100 {
		confidence += 0.05
	}
	if placeholders[strings.ToLower(strings.TrimSpace(in.Value))] {
		confidence -= 0.3
	}
	if cleaned := extraction.CleanSupplierName(in.Value); cleaned != "" {
		out.Value = cleaned
	}
	out.Confidence = domain.RoundConfidence(confidence)
	return out
}

func (s *Scorer) validateDeliveryDate(in domain.DeliveryDateField) domain.DeliveryDateField {
	out := in
	confidence := in.Confidence

	ts, err := time.Parse(domain.ISOTimestampLayout, in.Value)
	if err != nil {
		ts, err = time.Parse(time.RFC3339, in.Value)
	}
	if err != nil {
		confidence -= 0.3
	} else {
		now := s.now().UTC()
		switch {
		case !ts.Before(now.AddDate(0, 0, -3)) && !ts.After(now.AddDate(0, 0, 7)):
			confidence += 0.2
		case !ts.Before(now.AddDate(0, 0, -30)) && ts.Before(now):
			confidence += 0.1
		default:
			confidence -= 0.3
		}
	}
	out.Confidence = domain.RoundConfidence(confidence)
	return out
}

func (s *Scorer) validateTemperatures(in []domain.TemperatureReading, cls domain.ProductClassification) []domain.TemperatureReading {
	expected := ExpectedRange(cls)
	out := make([]domain.TemperatureReading, len(in))
	for i, r := range in {
		confidence := r.Confidence
		if physicallyPlausible(r) {
			confidence += 0.1
		} else {
			confidence -= 0.4
		}
		if expected.Contains(r.Celsius()) {
			confidence += 0.2
		}
		out[i] = r
		out[i].Confidence = domain.RoundConfidence(confidence)
	}
	return out
}

func (s *Scorer) validateLineItems(in []domain.LineItem) []domain.LineItem {
	out := make([]domain.LineItem, len(in))
	for i, item := range in {
		confidence := item.Confidence
		if len(strings.TrimSpace(item.Description)) > 2 {
			confidence += 0.1
		}
		if item.Quantity > 0 && item.Quantity < 10000 {
			confidence += 0.05
		}
		if item.TotalPrice >= 0 && item.TotalPrice < 100000 {
			confidence += 0.05
		}
		out[i] = item
		out[i].Confidence = domain.RoundConfidence(confidence)
		if s.categorizer != nil {
			out[i].ProductCategory = s.categorizer.Classify(item.Description).Category
		}
	}
	return out
}

// ExpectedRange is the envelope of the storage ranges of every classified
// product, or a generic cold-chain range when nothing was classified.
func ExpectedRange(cls domain.ProductClassification) domain.TemperatureRequirement {
	var out domain.TemperatureRequirement
	found := false
	for _, category := range domain.ClassifiedCategories {
		for _, p := range cls.Bucket(category) {
			req := p.TemperatureRequirement
			if !found {
				out = domain.TemperatureRequirement{Min: req.Min, Max: req.Max, Unit: domain.UnitCelsius}
				found = true
				continue
			}
			out.Min = min(out.Min, req.Min)
			out.Max = max(out.Max, req.Max)
		}
	}
	if !found {
		return defaultExpectedRange
	}
	return out
}

func physicallyPlausible(r domain.TemperatureReading) bool {
	if r.Unit == domain.UnitFahrenheit {
		return r.Value >= -22 && r.Value <= 122
	}
	return r.Value >= -30 && r.Value <= 50
}

func meanConfidence(readings []domain.TemperatureReading) float64 {
	if len(readings) == 0 {
		return 0
	}
	var sum float64
	for _, r := range readings {
		sum += r.Confidence
	}
	return sum / float64(len(readings))
}

func extractionQuality(supplier domain.SupplierField, date domain.DeliveryDateField, temps []domain.TemperatureReading, items []domain.LineItem) float64 {
	quality := 0.5
	if supplier.Confidence > 0.8 {
		quality += 0.1
	}
	if supplier.ExtractionMethod == domain.MethodEntityRecognition {
		quality += 0.05
	}
	if date.Confidence > 0.8 {
		quality += 0.1
	}
	if date.Format != domain.DateFormatOther {
		quality += 0.05
	}
	if len(temps) > 0 {
		quality += 0.1
	}
	if len(temps) >= 2 {
		quality += 0.05
	}
	if len(items) > 0 {
		quality += 0.1
	}
	if len(items) >= 3 {
		quality += 0.05
	}
	return min(1.0, quality)
}

func complianceScore(analysis domain.ComplianceAnalysis, readings int) float64 {
	if readings == 0 {
		return 0
	}
	switch analysis.OverallCompliance {
	case domain.OverallCompliant:
		return 1.0
	case domain.OverallWarning:
		return 0.7
	case domain.OverallViolation:
		return 0.3
	default:
		return 0
	}
}
