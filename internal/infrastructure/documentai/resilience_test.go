package documentai

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/kirillkom/docket-compliance/internal/core/domain"
)

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"7", 7 * time.Second},
		{"-3", 0},
		{"soon", 0},
		{now.Add(90 * time.Second).Format(http.TimeFormat), 90 * time.Second},
		{now.Add(-time.Minute).Format(http.TimeFormat), 0},
	}
	for _, tc := range cases {
		if got := parseRetryAfter(tc.in, now); got != tc.want {
			t.Fatalf("parseRetryAfter(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestClassifyDocumentAIError(t *testing.T) {
	throttled := &HTTPStatusError{StatusCode: http.StatusTooManyRequests, RetryAfter: 2 * time.Second}
	got := classifyDocumentAIError(throttled)
	if !got.Retryable || got.RecordFailure || got.RetryAfter != 2*time.Second {
		t.Fatalf("throttled: got %+v", got)
	}

	got = classifyDocumentAIError(&HTTPStatusError{StatusCode: http.StatusServiceUnavailable})
	if !got.Retryable || !got.RecordFailure {
		t.Fatalf("unavailable: got %+v", got)
	}

	got = classifyDocumentAIError(&HTTPStatusError{StatusCode: http.StatusForbidden})
	if got.Retryable || got.RecordFailure {
		t.Fatalf("forbidden: got %+v", got)
	}

	got = classifyDocumentAIError(domain.WrapError(domain.ErrMalformedResponse, "documentai process", errors.New("bad json")))
	if got.Retryable || !got.RecordFailure {
		t.Fatalf("malformed: got %+v", got)
	}

	got = classifyDocumentAIError(context.DeadlineExceeded)
	if got.Retryable || got.RecordFailure {
		t.Fatalf("deadline: got %+v", got)
	}
}

func TestWrapProviderErrorKinds(t *testing.T) {
	if err := wrapProviderError("documentai process", &HTTPStatusError{StatusCode: http.StatusTooManyRequests}); !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary for 429, got %v", err)
	}
	if err := wrapProviderError("documentai process", &HTTPStatusError{StatusCode: http.StatusNotFound}); !domain.IsKind(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected provider unavailable for 404, got %v", err)
	}
	if err := wrapProviderError("documentai process", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
