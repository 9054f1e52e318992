package config

import (
	"testing"
	"time"
)

func TestLoadIncludesPipelineDefaults(t *testing.T) {
	t.Setenv("NATS_SUBJECT", "")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("ENTITY_CONFIDENCE_THRESHOLD", "")
	t.Setenv("REVIEW_CONFIDENCE_THRESHOLD", "")
	t.Setenv("DOCUMENTAI_TIMEOUT", "")
	t.Setenv("AI_MODEL_VERSION", "")

	cfg := Load()
	if cfg.NATSSubject != "dockets.uploaded" {
		t.Fatalf("expected default subject dockets.uploaded, got %q", cfg.NATSSubject)
	}
	if cfg.StorageBackend != "local" {
		t.Fatalf("expected default storage backend local, got %q", cfg.StorageBackend)
	}
	if cfg.EntityConfidenceThreshold != 0.5 {
		t.Fatalf("expected default entity threshold 0.5, got %v", cfg.EntityConfidenceThreshold)
	}
	if cfg.ReviewConfidenceThreshold != 0.6 {
		t.Fatalf("expected default review threshold 0.6, got %v", cfg.ReviewConfidenceThreshold)
	}
	if cfg.DocumentAITimeout != 30*time.Second {
		t.Fatalf("expected default documentai timeout 30s, got %s", cfg.DocumentAITimeout)
	}
	if cfg.AIModelVersion != "document-ai-enhanced-v1.2" {
		t.Fatalf("unexpected default model version %q", cfg.AIModelVersion)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "S3")
	t.Setenv("S3_USE_SSL", "true")
	t.Setenv("WORKER_CONCURRENCY", "8")
	t.Setenv("ENTITY_CONFIDENCE_THRESHOLD", "0.55")
	t.Setenv("DOCUMENTAI_TIMEOUT", "5s")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")

	cfg := Load()
	if cfg.StorageBackend != "s3" {
		t.Fatalf("expected storage backend s3, got %q", cfg.StorageBackend)
	}
	if !cfg.S3UseSSL {
		t.Fatalf("expected S3 SSL enabled")
	}
	if cfg.WorkerConcurrency != 8 {
		t.Fatalf("expected worker concurrency 8, got %d", cfg.WorkerConcurrency)
	}
	if cfg.EntityConfidenceThreshold != 0.55 {
		t.Fatalf("expected entity threshold 0.55, got %v", cfg.EntityConfidenceThreshold)
	}
	if cfg.DocumentAITimeout != 5*time.Second {
		t.Fatalf("expected documentai timeout 5s, got %s", cfg.DocumentAITimeout)
	}
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("expected rate limit 2.5, got %v", cfg.APIRateLimitRPS)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("WORKER_CONCURRENCY", "many")
	t.Setenv("REVIEW_CONFIDENCE_THRESHOLD", "high")
	t.Setenv("WORKER_PROCESS_TIMEOUT", "-1m")

	cfg := Load()
	if cfg.WorkerConcurrency != 2 {
		t.Fatalf("expected fallback concurrency 2, got %d", cfg.WorkerConcurrency)
	}
	if cfg.ReviewConfidenceThreshold != 0.6 {
		t.Fatalf("expected fallback review threshold 0.6, got %v", cfg.ReviewConfidenceThreshold)
	}
	if cfg.WorkerProcessTimeout != 5*time.Minute {
		t.Fatalf("expected fallback process timeout 5m, got %s", cfg.WorkerProcessTimeout)
	}
}
