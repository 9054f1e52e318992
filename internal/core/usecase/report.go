package usecase

import (
	"context"
	"fmt"
	"io"

	"github.com/kirillkom/docket-compliance/internal/core/ports"
)

const DefaultReportLimit = 200

type ReportUseCase struct {
	repo   ports.DocketRepository
	writer ports.ReportWriter
}

func NewReportUseCase(repo ports.DocketRepository, writer ports.ReportWriter) *ReportUseCase {
	return &ReportUseCase{repo: repo, writer: writer}
}

// WriteComplianceReport writes the most recent processed dockets and returns
// how many rows were written.
func (uc *ReportUseCase) WriteComplianceReport(ctx context.Context, w io.Writer, limit int) (int, error) {
	if limit <= 0 {
		limit = DefaultReportLimit
	}
	dockets, err := uc.repo.ListProcessed(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list processed dockets: %w", err)
	}
	if err := uc.writer.Write(w, dockets); err != nil {
		return 0, fmt.Errorf("write compliance report: %w", err)
	}
	return len(dockets), nil
}
