package pipeline

import (
	"time"

	"github.com/kirillkom/docket-compliance/internal/core/domain"
)

const (
	emergencySupplier = "Processing Failed"
	emergencyRawText  = "Document processing failed"
)

// emergency builds the record returned when the stage loop itself fails.
func (p *Pipeline) emergency(cause error, started time.Time) *domain.DocumentAIExtraction {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	p.logger.Error("emergency_fallback", "error", msg)
	p.observer.EmergencyFallback()

	now := p.now()
	return &domain.DocumentAIExtraction{
		Supplier: domain.SupplierField{
			Value:            emergencySupplier,
			ExtractionMethod: domain.MethodEmergencyFallback,
		},
		DeliveryDate: domain.DeliveryDateField{
			Value:            now.UTC().Format(domain.ISOTimestampLayout),
			Format:           domain.DateFormatOther,
			ExtractionMethod: domain.MethodEmergencyFallback,
		},
		HandwrittenNotes: domain.HandwrittenNotes{
			SignedBy:         emergencySupplier,
			ExtractionMethod: domain.MethodEmergencyFallback,
		},
		TemperatureData: domain.TemperatureData{
			Readings:          []domain.TemperatureReading{},
			OverallCompliance: domain.OverallUnknown,
			Analysis: domain.ComplianceAnalysis{
				OverallCompliance: domain.OverallUnknown,
				Violations:        []domain.ComplianceViolation{},
			},
		},
		LineItems: []domain.LineItem{},
		Analysis: domain.ExtractionAnalysis{
			ProductClassification: domain.NewEmptyClassification(),
			ProcessingTime:        now.Sub(started).Milliseconds(),
		},
		RawText: emergencyRawText,
		ProcessingMetadata: domain.ProcessingMetadata{
			DocumentType:      DocumentTypeUnknown,
			Language:          LanguageUnknown,
			ProcessingStages:  []string{domain.MethodEmergencyFallback},
			AIModelVersion:    p.modelVersion,
			FallbackMode:      true,
			EmergencyFallback: true,
			ProcessingNotes:   "Emergency fallback due to complete processing failure: " + msg,
			ErrorDetails:      msg,
		},
	}
}
