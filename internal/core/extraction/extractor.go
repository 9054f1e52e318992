package extraction

import (
	"strings"
	"time"

	"github.com/kirillkom/docket-compliance/internal/core/domain"
)

const (
	// strongEntityConfidence is the provider confidence above which supplier,
	// date and invoice entities are taken as-is.
	strongEntityConfidence = 0.8
	// DefaultEntityThreshold applies to signature and temperature entities.
	DefaultEntityThreshold = 0.5
)

// Fields is the typed output of the enhancement stage.
type Fields struct {
	Supplier         domain.SupplierField
	DeliveryDate     domain.DeliveryDateField
	HandwrittenNotes domain.HandwrittenNotes
	InvoiceNumber    *domain.InvoiceNumberField
	Temperatures     []domain.TemperatureReading
	LineItems        []domain.LineItem
}

type Option func(*Extractor)

// WithEntityThreshold sets the minimum provider confidence for signature and temperature entities.
func WithEntityThreshold(threshold float64) Option {
	return func(e *Extractor) {
		if threshold > 0 && threshold <= 1 {
			e.entityThreshold = threshold
		}
	}
}

// WithClock overrides the time source used when no delivery date is found.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		if now != nil {
			e.now = now
		}
	}
}

// Extractor turns OCR text and provider entities into typed docket fields.
// Every extractor prefers confident entities and falls back to text patterns.
type Extractor struct {
	entityThreshold float64
	now             func() time.Time
}

func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		entityThreshold: DefaultEntityThreshold,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Extractor) Extract(text string, entities []domain.Entity) Fields {
	return Fields{
		Supplier:         e.Supplier(text, entities),
		DeliveryDate:     e.DeliveryDate(text, entities),
		HandwrittenNotes: e.Signature(text, entities),
		InvoiceNumber:    e.InvoiceNumber(text, entities),
		Temperatures:     e.Temperatures(text, entities),
		LineItems:        e.LineItems(text, entities),
	}
}

func findEntity(entities []domain.Entity, types ...string) (domain.Entity, bool) {
	for _, ent := range entities {
		for _, typ := range types {
			if strings.EqualFold(ent.Type, typ) {
				return ent, true
			}
		}
	}
	return domain.Entity{}, false
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(strings.ReplaceAll(text, "\r", "\n"), "\n")
}
