//go:build !tesseract

package localocr

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/docket-compliance/internal/core/domain"
)

func TestImageRecognizerUnavailableWithoutTag(t *testing.T) {
	_, err := New("eng").RecognizeText(context.Background(), domain.DocumentInput{MimeType: "image/jpeg", Content: []byte{0xff, 0xd8}})
	if !errors.Is(err, ErrImageOCRUnavailable) {
		t.Fatalf("expected ErrImageOCRUnavailable, got %v", err)
	}
}
