package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/docket-compliance/internal/core/domain"
	"github.com/kirillkom/docket-compliance/internal/core/ports"
)

type DocketQueryUseCase struct {
	repo ports.DocketRepository
}

func NewDocketQueryUseCase(repo ports.DocketRepository) *DocketQueryUseCase {
	return &DocketQueryUseCase{repo: repo}
}

func (uc *DocketQueryUseCase) GetByID(ctx context.Context, id string) (*domain.Docket, error) {
	docket, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get docket: %w", err)
	}
	return docket, nil
}

func (uc *DocketQueryUseCase) GetExtraction(ctx context.Context, id string) (*domain.DocumentAIExtraction, error) {
	ext, err := uc.repo.GetExtraction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get extraction: %w", err)
	}
	return ext, nil
}
