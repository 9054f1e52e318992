package documentai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kirillkom/docket-compliance/internal/core/domain"
	"github.com/kirillkom/docket-compliance/internal/infrastructure/resilience"
)

const entityResponse = `{
  "document": {
    "text": "DELIVERY DOCKET\nFresh Foods Ltd",
    "pages": [{"pageNumber": 1}],
    "entities": [
      {
        "type": "supplier_name",
        "mentionText": "Fresh Foods Ltd",
        "confidence": 0.93,
        "pageAnchor": {"pageRefs": [{"boundingPoly": {"normalizedVertices": [{"x": 0.1, "y": 0.2}, {"x": 0.5, "y": 0.2}]}}]}
      },
      {
        "type": "line_item",
        "mentionText": "Chicken Breast 5kg $45.00",
        "confidence": 0.8,
        "properties": [{"type": "line_item/description", "mentionText": "Chicken Breast 5kg", "confidence": 0.8}]
      }
    ]
  }
}`

func TestExtractEntitiesSendsFieldMaskAndMapsEntities(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/projects/p/processors/x:process" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("unexpected authorization header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(entityResponse))
	}))
	defer server.Close()

	client, err := New(server.URL+"/", "projects/p/processors/x", "secret")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	doc, err := client.ExtractEntities(context.Background(), domain.DocumentInput{Content: []byte("img")})
	if err != nil {
		t.Fatalf("ExtractEntities() error = %v", err)
	}

	raw, _ := payload["rawDocument"].(map[string]any)
	if raw["content"] != base64.StdEncoding.EncodeToString([]byte("img")) || raw["mimeType"] != defaultMimeType {
		t.Fatalf("unexpected raw document %+v", raw)
	}
	mask, _ := payload["fieldMask"].(map[string]any)
	if paths, _ := mask["paths"].([]any); len(paths) != len(entityFieldMask) {
		t.Fatalf("unexpected field mask %+v", mask)
	}

	if doc.PageCount != 1 || !strings.Contains(doc.Text, "Fresh Foods Ltd") {
		t.Fatalf("unexpected document %+v", doc)
	}
	if len(doc.Entities) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(doc.Entities))
	}
	supplier := doc.Entities[0]
	if supplier.Type != "supplier_name" || supplier.Confidence != 0.93 {
		t.Fatalf("unexpected supplier entity %+v", supplier)
	}
	if supplier.BoundingBox == nil || len(supplier.BoundingBox.Vertices) != 2 || supplier.BoundingBox.Vertices[1].X != 0.5 {
		t.Fatalf("unexpected bounding box %+v", supplier.BoundingBox)
	}
	if len(doc.Entities[1].Properties) != 1 || doc.Entities[1].Properties[0].MentionText != "Chicken Breast 5kg" {
		t.Fatalf("unexpected line item properties %+v", doc.Entities[1].Properties)
	}
}

func TestAnalyzeLayoutSummarizesFirstPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if _, ok := payload["documentProcessorConfig"]; !ok {
			t.Fatalf("expected processor config in layout request")
		}
		_, _ = w.Write([]byte(`{"document":{"pages":[{"pageNumber":1,"tables":[{}],"formFields":[{},{}],"paragraphs":[{},{},{}]},{"pageNumber":2}]}}`))
	}))
	defer server.Close()

	client, err := New(server.URL, "proc", "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	layout, err := client.AnalyzeLayout(context.Background(), domain.DocumentInput{Content: []byte("x"), MimeType: "application/pdf"})
	if err != nil {
		t.Fatalf("AnalyzeLayout() error = %v", err)
	}
	if layout.PageCount != 2 || layout.Tables != 1 || layout.FormFields != 2 || layout.Paragraphs != 3 {
		t.Fatalf("unexpected layout %+v", layout)
	}
	if layout.Confidence != layoutConfidenceWithPages {
		t.Fatalf("expected confidence %.1f, got %.1f", layoutConfidenceWithPages, layout.Confidence)
	}
}

func TestProcessRejectsMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"document":{"entities":[{"confidence":"high"}]}}`))
	}))
	defer server.Close()

	client, err := New(server.URL, "proc", "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, err = client.ExtractEntities(context.Background(), domain.DocumentInput{})
	if !domain.IsKind(err, domain.ErrMalformedResponse) {
		t.Fatalf("expected malformed response error, got %v", err)
	}
}

func TestProcessMissingDocumentIsMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"nope"}`))
	}))
	defer server.Close()

	client, err := New(server.URL, "proc", "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := client.AnalyzeLayout(context.Background(), domain.DocumentInput{}); !domain.IsKind(err, domain.ErrMalformedResponse) {
		t.Fatalf("expected malformed response error, got %v", err)
	}
}

func TestProcessRetriesServiceUnavailable(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(entityResponse))
	}))
	defer server.Close()

	exec := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
	})
	client, err := NewWithOptions(server.URL, "proc", "", Options{ResilienceExecutor: exec})
	if err != nil {
		t.Fatalf("NewWithOptions() error = %v", err)
	}
	if _, err := client.ExtractEntities(context.Background(), domain.DocumentInput{}); err != nil {
		t.Fatalf("ExtractEntities() error = %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
}

func TestProcessClassifiesHTTPErrors(t *testing.T) {
	cases := []struct {
		status int
		kind   error
	}{
		{http.StatusBadGateway, domain.ErrTemporary},
		{http.StatusUnauthorized, domain.ErrProviderUnavailable},
	}
	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "processor says no", tc.status)
		}))

		client, err := New(server.URL, "proc", "")
		if err != nil {
			server.Close()
			t.Fatalf("New() error = %v", err)
		}
		_, err = client.ExtractEntities(context.Background(), domain.DocumentInput{})
		server.Close()

		if !domain.IsKind(err, tc.kind) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.kind, err)
		}
		if !strings.Contains(err.Error(), "processor says no") {
			t.Fatalf("expected response body in error, got %v", err)
		}
	}
}
