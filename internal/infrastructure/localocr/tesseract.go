//go:build tesseract

package localocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/kirillkom/docket-compliance/internal/core/domain"
)

// Tesseract runs the local Tesseract engine over image bytes.
type Tesseract struct {
	language string
}

func NewImageRecognizer(language string) *Tesseract {
	if strings.TrimSpace(language) == "" {
		language = "eng"
	}
	return &Tesseract{language: language}
}

func (t *Tesseract) RecognizeText(ctx context.Context, input domain.DocumentInput) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.language); err != nil {
		return "", fmt.Errorf("tesseract language: %w", err)
	}
	if err := client.SetImageFromBytes(input.Content); err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "tesseract image", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract ocr: %w", err)
	}
	return strings.TrimSpace(text), nil
}
