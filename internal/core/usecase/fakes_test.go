package usecase

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/kirillkom/docket-compliance/internal/core/domain"
)

type statusCall struct {
	status domain.DocketStatus
	errMsg string
}

type docketRepoFake struct {
	created       *domain.Docket
	docket        *domain.Docket
	createErr     error
	getErr        error
	saveErr       error
	statusErr     error
	failStatusErr error
	listErr       error
	statusCalls   []statusCall
	saved         *domain.DocumentAIExtraction
	listed        []domain.Docket
	listLimit     int
}

func (f *docketRepoFake) Create(_ context.Context, d *domain.Docket) error {
	if f.createErr != nil {
		return f.createErr
	}
	copyDocket := *d
	f.created = &copyDocket
	return nil
}

func (f *docketRepoFake) GetByID(context.Context, string) (*domain.Docket, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.docket == nil {
		return nil, domain.WrapError(domain.ErrDocketNotFound, "get docket", errors.New("missing"))
	}
	copyDocket := *f.docket
	return &copyDocket, nil
}

func (f *docketRepoFake) UpdateStatus(_ context.Context, _ string, status domain.DocketStatus, errMessage string) error {
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	if status == domain.StatusFailed && f.failStatusErr != nil {
		return f.failStatusErr
	}
	return f.statusErr
}

func (f *docketRepoFake) SaveExtraction(_ context.Context, _ string, ext *domain.DocumentAIExtraction) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = ext
	return nil
}

func (f *docketRepoFake) GetExtraction(context.Context, string) (*domain.DocumentAIExtraction, error) {
	if f.saved == nil {
		return nil, domain.WrapError(domain.ErrDocketNotFound, "get extraction", errors.New("missing"))
	}
	return f.saved, nil
}

func (f *docketRepoFake) ListProcessed(_ context.Context, limit int) ([]domain.Docket, error) {
	f.listLimit = limit
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listed, nil
}

type storageFake struct {
	savedKey  string
	savedBody string
	content   string
	saveErr   error
	openErr   error
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.savedKey = key
	f.savedBody = string(raw)
	return nil
}

func (f *storageFake) Open(context.Context, string) (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return io.NopCloser(strings.NewReader(f.content)), nil
}

type queueFake struct {
	docketID string
	err      error
}

func (f *queueFake) PublishDocketUploaded(_ context.Context, docketID string) error {
	if f.err != nil {
		return f.err
	}
	f.docketID = docketID
	return nil
}

func (f *queueFake) SubscribeDocketUploaded(context.Context, func(context.Context, string) error) error {
	return errors.New("not implemented")
}
