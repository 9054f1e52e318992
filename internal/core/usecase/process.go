package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/kirillkom/docket-compliance/internal/core/domain"
	"github.com/kirillkom/docket-compliance/internal/core/ports"
)

// DefaultReviewThreshold is the overall confidence below which a docket is
// routed to manual review.
const DefaultReviewThreshold = 0.6

type ProcessDocketUseCase struct {
	repo            ports.DocketRepository
	storage         ports.ObjectStorage
	extractor       ports.DocumentExtractor
	reviewThreshold float64
	logger          *slog.Logger
}

func NewProcessDocketUseCase(
	repo ports.DocketRepository,
	storage ports.ObjectStorage,
	extractor ports.DocumentExtractor,
	reviewThreshold float64,
	logger *slog.Logger,
) *ProcessDocketUseCase {
	if reviewThreshold <= 0 || reviewThreshold > 1 {
		reviewThreshold = DefaultReviewThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessDocketUseCase{
		repo:            repo,
		storage:         storage,
		extractor:       extractor,
		reviewThreshold: reviewThreshold,
		logger:          logger,
	}
}

func (uc *ProcessDocketUseCase) ProcessByID(ctx context.Context, docketID string) error {
	_, err := uc.Process(ctx, docketID)
	return err
}

// Process runs extraction for one docket and returns the status it was left in.
func (uc *ProcessDocketUseCase) Process(ctx context.Context, docketID string) (domain.DocketStatus, error) {
	if err := uc.repo.UpdateStatus(ctx, docketID, domain.StatusProcessing, ""); err != nil {
		return "", fmt.Errorf("set status=processing: %w", err)
	}

	docket, input, err := uc.load(ctx, docketID)
	if err != nil {
		return uc.fail(ctx, docketID, err)
	}

	extraction := uc.extractor.Process(ctx, input)
	if err := uc.repo.SaveExtraction(ctx, docket.ID, extraction); err != nil {
		return uc.fail(ctx, docketID, fmt.Errorf("save extraction: %w", err))
	}

	status, message := uc.decideStatus(extraction)
	if err := uc.repo.UpdateStatus(ctx, docketID, status, message); err != nil {
		return "", fmt.Errorf("set status=%s: %w", status, err)
	}

	uc.logger.Info("docket_processed",
		"docket_id", docketID,
		"status", status,
		"overall_confidence", extraction.Analysis.OverallConfidence,
		"compliance", extraction.TemperatureData.OverallCompliance,
		"fallback_mode", extraction.ProcessingMetadata.FallbackMode,
	)
	return status, nil
}

func (uc *ProcessDocketUseCase) load(ctx context.Context, docketID string) (*domain.Docket, domain.DocumentInput, error) {
	docket, err := uc.repo.GetByID(ctx, docketID)
	if err != nil {
		return nil, domain.DocumentInput{}, fmt.Errorf("fetch docket by id: %w", err)
	}

	reader, err := uc.storage.Open(ctx, docket.StoragePath)
	if err != nil {
		return nil, domain.DocumentInput{}, fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, domain.DocumentInput{}, fmt.Errorf("read source document: %w", err)
	}
	return docket, domain.DocumentInput{
		Content:  content,
		MimeType: docket.MimeType,
		Filename: docket.Filename,
	}, nil
}

// decideStatus maps an extraction onto the docket lifecycle. Emergency records
// fail; low confidence, degraded runs and temperature violations need review.
func (uc *ProcessDocketUseCase) decideStatus(ext *domain.DocumentAIExtraction) (domain.DocketStatus, string) {
	meta := ext.ProcessingMetadata
	switch {
	case meta.EmergencyFallback:
		return domain.StatusFailed, meta.ErrorDetails
	case ext.TemperatureData.OverallCompliance == domain.OverallViolation:
		return domain.StatusReview, "temperature violation"
	case meta.FallbackMode:
		return domain.StatusReview, meta.ProcessingNotes
	case ext.Analysis.OverallConfidence < uc.reviewThreshold:
		return domain.StatusReview, fmt.Sprintf("overall confidence %.3f below %.2f", ext.Analysis.OverallConfidence, uc.reviewThreshold)
	default:
		return domain.StatusReady, ""
	}
}

func (uc *ProcessDocketUseCase) fail(ctx context.Context, docketID string, processErr error) (domain.DocketStatus, error) {
	if failErr := uc.repo.UpdateStatus(ctx, docketID, domain.StatusFailed, processErr.Error()); failErr != nil {
		return "", fmt.Errorf("%w; mark failed status: %v", processErr, failErr)
	}
	return domain.StatusFailed, processErr
}
