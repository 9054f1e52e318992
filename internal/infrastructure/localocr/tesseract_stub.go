//go:build !tesseract

package localocr

import (
	"context"
	"errors"

	"github.com/kirillkom/docket-compliance/internal/core/domain"
)

// ErrImageOCRUnavailable is returned for images when the binary was built
// without the tesseract tag.
var ErrImageOCRUnavailable = errors.New("image ocr not compiled in; build with -tags tesseract")

type unavailableImageRecognizer struct{}

func NewImageRecognizer(string) *unavailableImageRecognizer {
	return &unavailableImageRecognizer{}
}

func (unavailableImageRecognizer) RecognizeText(context.Context, domain.DocumentInput) (string, error) {
	return "", ErrImageOCRUnavailable
}
