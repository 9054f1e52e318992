package documentai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/docket-compliance/internal/core/domain"
	"github.com/kirillkom/docket-compliance/internal/infrastructure/resilience"
)

const (
	defaultMimeType = "image/jpeg"

	layoutConfidenceWithPages = 0.9
	layoutConfidenceNoPages   = 0.7
)

// entityFieldMask lists the docket fields requested from the entity pass.
var entityFieldMask = []string{
	"supplier_name",
	"delivery_date",
	"invoice_number",
	"line_items",
	"temperatures",
	"signatures",
	"totals",
	"tax_information",
}

// Client talks to a Document AI style REST processor.
type Client struct {
	baseURL    string
	processor  string
	token      string
	httpClient *http.Client
	executor   *resilience.Executor
	validator  *responseValidator
}

type Options struct {
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, processor, token string) (*Client, error) {
	return NewWithOptions(baseURL, processor, token, Options{})
}

func NewWithOptions(baseURL, processor, token string, options Options) (*Client, error) {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	validator, err := newResponseValidator()
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		processor:  strings.Trim(processor, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
		validator:  validator,
	}, nil
}

type rawDocument struct {
	Content  string `json:"content"`
	MimeType string `json:"mimeType"`
}

type processorConfig struct {
	EnableNativeStructureExtraction bool `json:"enableNativeStructureExtraction"`
	EnableFormExtraction            bool `json:"enableFormExtraction"`
	EnableTableExtraction           bool `json:"enableTableExtraction"`
}

type fieldMask struct {
	Paths []string `json:"paths"`
}

type processRequest struct {
	RawDocument             rawDocument      `json:"rawDocument"`
	DocumentProcessorConfig *processorConfig `json:"documentProcessorConfig,omitempty"`
	FieldMask               *fieldMask       `json:"fieldMask,omitempty"`
}

// AnalyzeLayout runs the structure pass and summarizes the first page.
func (c *Client) AnalyzeLayout(ctx context.Context, input domain.DocumentInput) (domain.DocumentLayout, error) {
	req := processRequest{
		RawDocument: encodeDocument(input),
		DocumentProcessorConfig: &processorConfig{
			EnableNativeStructureExtraction: true,
			EnableFormExtraction:            true,
			EnableTableExtraction:           true,
		},
	}

	var resp processResponse
	if err := c.process(ctx, req, &resp, "layout"); err != nil {
		return domain.DocumentLayout{}, err
	}

	layout := domain.DocumentLayout{
		PageCount:  len(resp.Document.Pages),
		Confidence: layoutConfidenceNoPages,
	}
	if len(resp.Document.Pages) > 0 {
		first := resp.Document.Pages[0]
		layout.Tables = len(first.Tables)
		layout.FormFields = len(first.FormFields)
		layout.Paragraphs = len(first.Paragraphs)
		if first.PageNumber > 0 {
			layout.Confidence = layoutConfidenceWithPages
		}
	}
	return layout, nil
}

// ExtractEntities runs the entity pass and returns the document text and typed entities.
func (c *Client) ExtractEntities(ctx context.Context, input domain.DocumentInput) (domain.OCRDocument, error) {
	req := processRequest{
		RawDocument: encodeDocument(input),
		FieldMask:   &fieldMask{Paths: entityFieldMask},
	}

	var resp processResponse
	if err := c.process(ctx, req, &resp, "entities"); err != nil {
		return domain.OCRDocument{}, err
	}

	entities := make([]domain.Entity, 0, len(resp.Document.Entities))
	for _, ent := range resp.Document.Entities {
		entities = append(entities, ent.toDomain())
	}
	return domain.OCRDocument{
		Text:      resp.Document.Text,
		Entities:  entities,
		PageCount: len(resp.Document.Pages),
	}, nil
}

func (c *Client) process(ctx context.Context, req processRequest, out *processResponse, operation string) error {
	path := fmt.Sprintf("/v1/%s:process", c.processor)
	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, path, req, out, operation)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "documentai."+operation, call, classifyDocumentAIError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapProviderError("documentai "+operation, err)
	}
	return nil
}

func encodeDocument(input domain.DocumentInput) rawDocument {
	mime := strings.TrimSpace(input.MimeType)
	if mime == "" {
		mime = defaultMimeType
	}
	return rawDocument{
		Content:  base64.StdEncoding.EncodeToString(input.Content),
		MimeType: mime,
	}
}
