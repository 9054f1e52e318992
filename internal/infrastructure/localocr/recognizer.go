package localocr

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/docket-compliance/internal/core/domain"
	"github.com/kirillkom/docket-compliance/internal/core/ports"
)

// Recognizer picks a local text source by mime type: embedded PDF text, UTF-8
// text as-is, and images through the image engine when one is compiled in.
type Recognizer struct {
	pdf   ports.TextRecognizer
	image ports.TextRecognizer
}

func New(language string) *Recognizer {
	return &Recognizer{
		pdf:   NewPDFText(),
		image: NewImageRecognizer(language),
	}
}

func (r *Recognizer) RecognizeText(ctx context.Context, input domain.DocumentInput) (string, error) {
	mime := strings.ToLower(strings.TrimSpace(input.MimeType))
	switch {
	case mime == "application/pdf" || bytes.HasPrefix(input.Content, []byte("%PDF-")):
		return r.pdf.RecognizeText(ctx, input)
	case strings.HasPrefix(mime, "text/"):
		if !utf8.Valid(input.Content) {
			return "", domain.WrapError(domain.ErrInvalidInput, "recognize text", fmt.Errorf("%s is not valid utf-8", input.Filename))
		}
		return strings.TrimSpace(string(input.Content)), nil
	case strings.HasPrefix(mime, "image/") || mime == "":
		return r.image.RecognizeText(ctx, input)
	default:
		return "", domain.WrapError(domain.ErrInvalidInput, "recognize text", fmt.Errorf("unsupported mime type %q", input.MimeType))
	}
}
