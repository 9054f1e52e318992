package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kirillkom/docket-compliance/internal/config"
	"github.com/kirillkom/docket-compliance/internal/core/domain"
)

type ingestSuccessFake struct {
	gotMimeType string
}

func (f *ingestSuccessFake) Upload(_ context.Context, filename, mimeType string, body io.Reader) (*domain.Docket, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", io.EOF)
	}
	f.gotMimeType = mimeType

	now := time.Now().UTC()
	return &domain.Docket{
		ID:          "docket-1",
		Filename:    filename,
		MimeType:    mimeType,
		StoragePath: "docket-1_file.txt",
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

type extractorFake struct {
	gotInput domain.DocumentInput
}

func (f *extractorFake) Process(_ context.Context, input domain.DocumentInput) *domain.DocumentAIExtraction {
	f.gotInput = input
	return &domain.DocumentAIExtraction{
		Supplier:  domain.SupplierField{Value: "Fresh Foods Ltd", Confidence: 0.9, ExtractionMethod: domain.MethodPatternMatching},
		LineItems: []domain.LineItem{},
		RawText:   string(input.Content),
		ProcessingMetadata: domain.ProcessingMetadata{
			ProcessingStages: []string{"ingest"},
		},
	}
}

func multipartBody(t *testing.T, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	var (
		part io.Writer
		err  error
	)
	if contentType == "" {
		part, err = writer.CreateFormFile("file", filename)
	} else {
		header := make(map[string][]string)
		header["Content-Disposition"] = []string{`form-data; name="file"; filename="` + filename + `"`}
		header["Content-Type"] = []string{contentType}
		part, err = writer.CreatePart(header)
	}
	if err != nil {
		t.Fatalf("create multipart part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return &body, writer.FormDataContentType()
}

func TestHealthzEndpoint(t *testing.T) {
	handler := NewRouter(config.Config{}, &ingestSuccessFake{}, readerFake{}, nil, nil).Handler()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}
}

func TestUploadDocketSuccess(t *testing.T) {
	ingest := &ingestSuccessFake{}
	handler := NewRouter(config.Config{}, ingest, readerFake{}, nil, nil).Handler()

	body, contentType := multipartBody(t, "docket.jpg", "image/jpeg", []byte("jpeg-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/v1/dockets", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", res.Code, res.Body.String())
	}
	var docketResp map[string]any
	if err := json.NewDecoder(res.Body).Decode(&docketResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if docketResp["id"] != "docket-1" || docketResp["status"] != "uploaded" {
		t.Fatalf("unexpected response: %+v", docketResp)
	}
	if ingest.gotMimeType != "image/jpeg" {
		t.Fatalf("expected explicit part type image/jpeg, got %q", ingest.gotMimeType)
	}
}

func TestUploadDocketSniffsGenericContentType(t *testing.T) {
	ingest := &ingestSuccessFake{}
	handler := NewRouter(config.Config{}, ingest, readerFake{}, nil, nil).Handler()

	body, contentType := multipartBody(t, "docket", "", []byte("%PDF-1.4 fake pdf body"))
	req := httptest.NewRequest(http.MethodPost, "/v1/dockets", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", res.Code)
	}
	if ingest.gotMimeType != "application/pdf" {
		t.Fatalf("expected sniffed application/pdf, got %q", ingest.gotMimeType)
	}
}

func TestUploadDocketMissingMultipartField(t *testing.T) {
	handler := NewRouter(config.Config{}, &ingestSuccessFake{}, readerFake{}, nil, nil).Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/dockets", bytes.NewBufferString("plain-text"))
	req.Header.Set("Content-Type", "text/plain")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestUploadDocketRejectsOversizedBody(t *testing.T) {
	handler := NewRouter(config.Config{MaxUploadBytes: 16}, &ingestSuccessFake{}, readerFake{}, nil, nil).Handler()

	body, contentType := multipartBody(t, "big.txt", "text/plain", bytes.Repeat([]byte("x"), multipartOverhead+64))
	req := httptest.NewRequest(http.MethodPost, "/v1/dockets", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", res.Code)
	}
}

func TestExtractRunsPipelineInline(t *testing.T) {
	extractor := &extractorFake{}
	handler := NewRouter(config.Config{}, nil, readerFake{}, extractor, nil).Handler()

	body, contentType := multipartBody(t, "docket.txt", "text/plain", []byte("Supplier: Fresh Foods Ltd"))
	req := httptest.NewRequest(http.MethodPost, "/v1/extract", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if extractor.gotInput.MimeType != "text/plain" || extractor.gotInput.Filename != "docket.txt" {
		t.Fatalf("unexpected pipeline input: %+v", extractor.gotInput)
	}
	var ext domain.DocumentAIExtraction
	if err := json.NewDecoder(res.Body).Decode(&ext); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if ext.Supplier.Value != "Fresh Foods Ltd" || ext.RawText != "Supplier: Fresh Foods Ltd" {
		t.Fatalf("unexpected extraction: %+v", ext)
	}
}
