package httpadapter

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kirillkom/docket-compliance/internal/config"
)

func decodeAccessLog(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode access log %q: %v", buf.String(), err)
	}
	return entry
}

func TestAccessLogCarriesUploadedDocketID(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	handler := NewRouter(config.Config{}, &ingestSuccessFake{}, readerFake{}, nil, nil, WithLogger(logger)).Handler()

	body, contentType := multipartBody(t, "docket.pdf", "application/pdf", []byte("%PDF-1.4 docket"))
	req := httptest.NewRequest(http.MethodPost, "/v1/dockets", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", res.Code)
	}
	entry := decodeAccessLog(t, &logs)
	if entry["msg"] != "http_request" || entry["docket_id"] != "docket-1" || entry["mime_type"] != "application/pdf" {
		t.Fatalf("unexpected access log entry %v", entry)
	}
}

func TestAccessLogCarriesPathDocketID(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	handler := NewRouter(config.Config{}, nil, readerFake{}, nil, nil, WithLogger(logger)).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/dockets/docket-9/extraction", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entry := decodeAccessLog(t, &logs)
	if entry["docket_id"] != "docket-9" || entry["level"] != "INFO" {
		t.Fatalf("unexpected access log entry %v", entry)
	}
}
