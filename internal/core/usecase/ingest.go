package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/docket-compliance/internal/core/domain"
	"github.com/kirillkom/docket-compliance/internal/core/ports"
)

const DefaultMaxUploadBytes int64 = 20 << 20

var supportedMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/tiff":      true,
	"image/webp":      true,
	"application/pdf": true,
	"text/plain":      true,
}

// SupportedMimeType reports whether uploads of this type can be processed.
func SupportedMimeType(mimeType string) bool {
	return supportedMimeTypes[normalizeMimeType(mimeType)]
}

func normalizeMimeType(mimeType string) string {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if mt == "image/jpg" {
		mt = "image/jpeg"
	}
	return mt
}

type IngestDocketUseCase struct {
	repo     ports.DocketRepository
	storage  ports.ObjectStorage
	queue    ports.MessageQueue
	maxBytes int64
	now      func() time.Time
}

func NewIngestDocketUseCase(
	repo ports.DocketRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
	maxBytes int64,
) *IngestDocketUseCase {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &IngestDocketUseCase{
		repo:     repo,
		storage:  storage,
		queue:    queue,
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

func (uc *IngestDocketUseCase) Upload(
	ctx context.Context,
	filename, mimeType string,
	body io.Reader,
) (*domain.Docket, error) {
	mt := normalizeMimeType(mimeType)
	if !supportedMimeTypes[mt] {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload docket", fmt.Errorf("unsupported mime type %q", mimeType))
	}

	data, err := io.ReadAll(io.LimitReader(body, uc.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	switch {
	case len(data) == 0:
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload docket", errors.New("empty file"))
	case int64(len(data)) > uc.maxBytes:
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload docket", fmt.Errorf("file exceeds %d bytes", uc.maxBytes))
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := uc.now().UTC()

	if err := uc.storage.Save(ctx, storageKey, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	docket := &domain.Docket{
		ID:          id,
		Filename:    filename,
		MimeType:    mt,
		StoragePath: storageKey,
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.repo.Create(ctx, docket); err != nil {
		return nil, fmt.Errorf("create docket metadata: %w", err)
	}

	if err := uc.queue.PublishDocketUploaded(ctx, docket.ID); err != nil {
		return nil, fmt.Errorf("publish upload event: %w", err)
	}

	return docket, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == ".." {
		return "docket.bin"
	}
	return base
}
