package validation

import (
	"testing"
	"time"

	"github.com/kirillkom/docket-compliance/internal/core/classification"
	"github.com/kirillkom/docket-compliance/internal/core/domain"
)

type categorizerFake struct {
	category domain.ProductCategory
	calls    int
}

func (f *categorizerFake) Classify(string) classification.Result {
	f.calls++
	return classification.Result{Category: f.category, Confidence: 0.9}
}

func testNow() time.Time {
	return time.Date(2025, 8, 13, 9, 30, 0, 0, time.UTC)
}

func newTestScorer() *Scorer {
	return NewScorer(&categorizerFake{category: domain.CategoryChilled}, WithClock(testNow))
}

func TestValidateSupplierSuffixBoost(t *testing.T) {
	s := newTestScorer()

	got := s.validateSupplier(domain.SupplierField{Value: "Fresh Foods Ltd", Confidence: 0.7})
	if got.Confidence != 0.9 {
		t.Fatalf("expected 0.7 + 0.15 + 0.05 = 0.9, got %.3f", got.Confidence)
	}

	plain := s.validateSupplier(domain.SupplierField{Value: "Fresh Foods", Confidence: 0.7})
	if plain.Confidence >= got.Confidence {
		t.Fatalf("suffix must not lower confidence: %.3f vs %.3f", plain.Confidence, got.Confidence)
	}
}

func TestValidateSupplierSuffixNeverDecreases(t *testing.T) {
	s := newTestScorer()

	names := []string{"test", "Unknown", "ab", "Harbour Seafoods", "Z"}
	for _, base := range []float64{0, 0.1, 0.5, 0.7, 0.95} {
		for _, name := range names {
			without := s.validateSupplier(domain.SupplierField{Value: name, Confidence: base})
			with := s.validateSupplier(domain.SupplierField{Value: name + " Ltd", Confidence: base})
			if with.Confidence < without.Confidence {
				t.Fatalf("%q base %.2f: with suffix %.3f < without %.3f", name, base, with.Confidence, without.Confidence)
			}
		}
	}
}

func TestValidateSupplierPlaceholder(t *testing.T) {
	got := newTestScorer().validateSupplier(domain.SupplierField{Value: "Unknown Supplier", Confidence: 0.1})
	if got.Confidence != 0 {
		t.Fatalf("expected clamped 0 for placeholder, got %.3f", got.Confidence)
	}
}

func TestValidateDeliveryDateWindows(t *testing.T) {
	s := newTestScorer()

	cases := []struct {
		value string
		want  float64
	}{
		{"2025-08-12T00:00:00.000Z", 1.0},
		{"2025-08-19T00:00:00.000Z", 1.0},
		{"2025-07-25T00:00:00.000Z", 0.9},
		{"2024-01-01T00:00:00.000Z", 0.5},
		{"2025-09-30T00:00:00.000Z", 0.5},
		{"not a date", 0.5},
	}
	for _, tc := range cases {
		got := s.validateDeliveryDate(domain.DeliveryDateField{Value: tc.value, Confidence: 0.8})
		if got.Confidence != tc.want {
			t.Fatalf("validateDeliveryDate(%s) = %.3f, want %.3f", tc.value, got.Confidence, tc.want)
		}
	}
}

func TestValidateTemperatures(t *testing.T) {
	cls := domain.NewEmptyClassification()
	cls.Add(domain.ClassifiedProduct{
		Name: "Milk", Category: domain.CategoryChilled,
		TemperatureRequirement: domain.TemperatureRequirement{Min: 0, Max: 5, Critical: true},
	})

	in := []domain.TemperatureReading{
		{Value: 3.2, Unit: domain.UnitCelsius, Confidence: 0.6},
		{Value: 12, Unit: domain.UnitCelsius, Confidence: 0.6},
		{Value: 80, Unit: domain.UnitCelsius, Confidence: 0.6},
		{Value: 38, Unit: domain.UnitFahrenheit, Confidence: 0.6},
	}
	got := newTestScorer().validateTemperatures(in, cls)

	want := []float64{0.9, 0.7, 0.2, 0.9}
	for i, w := range want {
		if got[i].Confidence != w {
			t.Fatalf("reading %d confidence = %.3f, want %.3f", i, got[i].Confidence, w)
		}
	}
	if in[0].Confidence != 0.6 {
		t.Fatalf("input readings must not be mutated")
	}
}

func TestExpectedRangeEnvelope(t *testing.T) {
	cls := domain.NewEmptyClassification()
	if got := ExpectedRange(cls); got.Min != -18 || got.Max != 8 {
		t.Fatalf("expected default range, got %+v", got)
	}

	cls.Add(domain.ClassifiedProduct{Category: domain.CategoryFrozen, TemperatureRequirement: domain.TemperatureRequirement{Min: -25, Max: -15}})
	cls.Add(domain.ClassifiedProduct{Category: domain.CategoryChilled, TemperatureRequirement: domain.TemperatureRequirement{Min: 0, Max: 5}})
	if got := ExpectedRange(cls); got.Min != -25 || got.Max != 5 {
		t.Fatalf("expected envelope -25..5, got %+v", got)
	}
}

func TestValidateLineItemsUsesCategorizer(t *testing.T) {
	fake := &categorizerFake{category: domain.CategoryFrozen}
	s := NewScorer(fake, WithClock(testNow))

	got := s.validateLineItems([]domain.LineItem{
		{Description: "Frozen Peas", Quantity: 2, TotalPrice: 10, Confidence: 0.6},
		{Description: "x", Quantity: 0, TotalPrice: -1, Confidence: 0.6},
	})

	if got[0].Confidence != 0.8 || got[0].ProductCategory != domain.CategoryFrozen {
		t.Fatalf("unexpected first item: %+v", got[0])
	}
	if got[1].Confidence != 0.6 {
		t.Fatalf("expected no boosts for implausible item, got %.3f", got[1].Confidence)
	}
	if fake.calls != 2 {
		t.Fatalf("expected categorizer per item, got %d calls", fake.calls)
	}
}

func TestValidateOverallWeightedSum(t *testing.T) {
	s := newTestScorer()

	cls := domain.NewEmptyClassification()
	cls.Summary.Confidence = 0.9
	out := s.Validate(Input{
		Supplier:       domain.SupplierField{Value: "Fresh Foods Ltd", Confidence: 0.7, ExtractionMethod: domain.MethodPatternMatching},
		DeliveryDate:   domain.DeliveryDateField{Value: "2025-08-12T00:00:00.000Z", Confidence: 0.8, Format: domain.DateFormatDMY},
		Classification: cls,
		Compliance:     domain.ComplianceAnalysis{OverallCompliance: domain.OverallCompliant},
	})

	// No temperatures: the temperature and compliance terms contribute nothing.
	// supplier 0.9, date 1.0, classification 0.9, extraction 0.5+0.1+0.1+0.05 = 0.75
	want := 0.25*0.9 + 0.15*1.0 + 0.15*0.9 + 0.10*0.75
	if diff := out.OverallConfidence - domain.RoundTo(want, 3); diff > 0.0005 || diff < -0.0005 {
		t.Fatalf("overall = %.3f, want %.3f", out.OverallConfidence, want)
	}
	if out.Breakdown.Temperature != 0 || out.Breakdown.Compliance != 0 {
		t.Fatalf("expected absent components to be zero, got %+v", out.Breakdown)
	}
}
