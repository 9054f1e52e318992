package ports

import (
	"context"
	"io"

	"github.com/kirillkom/docket-compliance/internal/core/domain"
)

// DocketRepository persists docket state and the final extraction record.
type DocketRepository interface {
	Create(ctx context.Context, docket *domain.Docket) error
	GetByID(ctx context.Context, id string) (*domain.Docket, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocketStatus, errMessage string) error
	SaveExtraction(ctx context.Context, id string, extraction *domain.DocumentAIExtraction) error
	GetExtraction(ctx context.Context, id string) (*domain.DocumentAIExtraction, error)
	ListProcessed(ctx context.Context, limit int) ([]domain.Docket, error)
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes upload events.
type MessageQueue interface {
	PublishDocketUploaded(ctx context.Context, docketID string) error
	SubscribeDocketUploaded(ctx context.Context, handler func(context.Context, string) error) error
}

// DocumentAIProvider is the external document-understanding service.
type DocumentAIProvider interface {
	AnalyzeLayout(ctx context.Context, input domain.DocumentInput) (domain.DocumentLayout, error)
	ExtractEntities(ctx context.Context, input domain.DocumentInput) (domain.OCRDocument, error)
}

// TextRecognizer produces plain text locally when the provider is unavailable.
type TextRecognizer interface {
	RecognizeText(ctx context.Context, input domain.DocumentInput) (string, error)
}

// ReportWriter renders docket summaries into a report format.
type ReportWriter interface {
	Write(w io.Writer, dockets []domain.Docket) error
}
