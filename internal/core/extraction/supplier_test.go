package extraction

import (
	"testing"

	"github.com/kirillkom/docket-compliance/internal/core/domain"
)

func TestSupplierFromHeader(t *testing.T) {
	got := NewExtractor().Supplier("DELIVERY DOCKET\nFresh Foods Ltd\n12/08/2025\n", nil)

	if got.Value != "Fresh Foods Ltd" {
		t.Fatalf("expected Fresh Foods Ltd, got %q", got.Value)
	}
	if got.Confidence != supplierPatternConfidence || got.ExtractionMethod != domain.MethodPatternMatching {
		t.Fatalf("unexpected confidence/method: %.2f/%s", got.Confidence, got.ExtractionMethod)
	}
}

func TestSupplierPrefersConfidentEntity(t *testing.T) {
	entities := []domain.Entity{{Type: "supplier_name", MentionText: "  Bidfood NZ!! ", Confidence: 0.93}}

	got := NewExtractor().Supplier("DELIVERY DOCKET\nFresh Foods Ltd\n", entities)

	if got.Value != "Bidfood NZ" {
		t.Fatalf("expected cleaned entity value, got %q", got.Value)
	}
	if got.Confidence != 0.93 || got.ExtractionMethod != domain.MethodEntityRecognition {
		t.Fatalf("unexpected confidence/method: %.2f/%s", got.Confidence, got.ExtractionMethod)
	}
}

func TestSupplierIgnoresWeakEntity(t *testing.T) {
	entities := []domain.Entity{{Type: "supplier_name", MentionText: "Bidfood", Confidence: 0.5}}

	got := NewExtractor().Supplier("Supplier: Gilmours Wholesale\n", entities)

	if got.Value != "Gilmours Wholesale" || got.ExtractionMethod != domain.MethodPatternMatching {
		t.Fatalf("expected label match, got %+v", got)
	}
}

func TestSupplierBusinessSuffixLine(t *testing.T) {
	text := "Docket 4471\nPage 1 of 2\nSouthern Meats Limited\nItems follow"

	got := NewExtractor().Supplier(text, nil)
	if got.Value != "Southern Meats Limited" {
		t.Fatalf("expected suffix line, got %q", got.Value)
	}
}

func TestSupplierNotFound(t *testing.T) {
	got := NewExtractor().Supplier("12/08/2025\n$45.00\n", nil)

	if got.Value != UnknownSupplier || got.Confidence != supplierMissingConfidence {
		t.Fatalf("expected unknown supplier fallback, got %+v", got)
	}
}

func TestIsValidSupplierName(t *testing.T) {
	cases := map[string]bool{
		"Fresh Foods Ltd": true,
		"12345":           false,
		"12/08/2025":      false,
		"Invoice":         false,
		"-18°C":           false,
		"$45.00":          false,
		"ab":              false,
	}
	for name, want := range cases {
		if got := IsValidSupplierName(name); got != want {
			t.Fatalf("IsValidSupplierName(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestCleanSupplierName(t *testing.T) {
	if got := CleanSupplierName("  **Smith & Sons  Co.** "); got != "Smith & Sons Co." {
		t.Fatalf("CleanSupplierName() = %q", got)
	}
}
