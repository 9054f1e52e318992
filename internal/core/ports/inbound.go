package ports

import (
	"context"
	"io"

	"github.com/kirillkom/docket-compliance/internal/core/domain"
)

// DocketIngestor is the inbound contract for docket upload orchestration.
type DocketIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Docket, error)
}

// DocketReader is the inbound read model for docket state and extraction results.
type DocketReader interface {
	GetByID(ctx context.Context, id string) (*domain.Docket, error)
	GetExtraction(ctx context.Context, id string) (*domain.DocumentAIExtraction, error)
}

// DocketProcessor is the inbound contract for asynchronous docket processing.
type DocketProcessor interface {
	ProcessByID(ctx context.Context, docketID string) error
}

// DocumentExtractor runs the full extraction pipeline on one document.
// It always returns a populated record.
type DocumentExtractor interface {
	Process(ctx context.Context, input domain.DocumentInput) *domain.DocumentAIExtraction
}

// ComplianceReporter renders processed dockets as a spreadsheet and returns the row count.
type ComplianceReporter interface {
	WriteComplianceReport(ctx context.Context, w io.Writer, limit int) (int, error)
}
