package config

import (
	"testing"
	"time"

	"github.com/graphmind/graphmind/pkg/graph"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "DEBUG", "LOG_FORMAT", "AI_ADAPTER", "AI_CHAT_KEY",
		"AI_PARALLEL_REQ", "AI_MAX_RETRIES", "AI_RETRY_BACKOFF_MS", "CHUNK_MAX_TOKENS", "EXTRACTION_SERVICE_URL",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("port = %q", cfg.Port)
	}
	if cfg.AIAdapter != "openai" {
		t.Fatalf("adapter = %q", cfg.AIAdapter)
	}
	if cfg.ChunkMaxTokens != graph.DefaultMaxTokens {
		t.Fatalf("chunk tokens = %d", cfg.ChunkMaxTokens)
	}
	if cfg.RetryBackoff != 500*time.Millisecond {
		t.Fatalf("retry backoff = %v", cfg.RetryBackoff)
	}
	if got := cfg.NewGraphClient(nil).RetryBackoff(); got != 500*time.Millisecond {
		t.Fatalf("graph client retry backoff = %v", got)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DEBUG", "true")
	t.Setenv("AI_PARALLEL_REQ", "8")
	t.Setenv("CHUNK_MAX_TOKENS", "500")
	t.Setenv("AI_RETRY_BACKOFF_MS", "50")

	cfg := Load()
	if cfg.Port != "9000" || !cfg.Debug || cfg.ParallelReq != 8 || cfg.ChunkMaxTokens != 500 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if got := cfg.NewGraphClient(nil).MaxTokens(); got != 500 {
		t.Fatalf("graph client max tokens = %d", got)
	}
	if cfg.RetryBackoff != 50*time.Millisecond {
		t.Fatalf("retry backoff = %v", cfg.RetryBackoff)
	}
}

func TestNewAIClientWithoutKey(t *testing.T) {
	cfg := Config{AIAdapter: "openai"}
	client, err := cfg.NewAIClient()
	if err != nil {
		t.Fatalf("NewAIClient: %v", err)
	}
	if client != nil {
		t.Fatalf("client = %#v, want nil interface", client)
	}

	ex, ok := cfg.NewExtractor(client).(*graph.AIExtractor)
	if !ok {
		t.Fatal("expected model extractor")
	}
	if ex.Configured() {
		t.Fatal("extractor without key must not be configured")
	}
}

func TestNewExtractorPrefersService(t *testing.T) {
	cfg := Config{ExtractionServiceURL: "http://localhost:3000/api/extract-entities"}
	if _, ok := cfg.NewExtractor(nil).(*graph.HTTPExtractor); !ok {
		t.Fatal("expected HTTP extractor")
	}
}
