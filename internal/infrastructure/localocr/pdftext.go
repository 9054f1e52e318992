package localocr

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/docket-compliance/internal/core/domain"
)

const maxPDFTextBytes = 4 << 20

// PDFText reads the embedded text layer of digital PDFs. Scanned PDFs have
// no text layer and yield an empty string.
type PDFText struct{}

func NewPDFText() *PDFText {
	return &PDFText{}
}

// RecognizeText recovers parser panics, which the pdf reader raises on some
// damaged files.
func (p *PDFText) RecognizeText(ctx context.Context, input domain.DocumentInput) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", domain.WrapError(domain.ErrInvalidInput, "read pdf", fmt.Errorf("panic: %v", r))
		}
	}()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	reader, err := pdf.NewReader(bytes.NewReader(input.Content), int64(len(input.Content)))
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "open pdf", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("read pdf page %d: %w", i, err)
		}
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				words = append(words, word.S)
			}
			b.WriteString(strings.Join(words, " "))
			b.WriteByte('\n')
		}
		if b.Len() > maxPDFTextBytes {
			break
		}
	}
	text = b.String()
	if len(text) > maxPDFTextBytes {
		text = text[:maxPDFTextBytes]
	}
	return strings.TrimSpace(text), nil
}
