package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	originalEnv := os.Environ()
	defer func() {
		os.Clearenv()
		for _, env := range originalEnv {
			for i, c := range env {
				if c == '=' {
					os.Setenv(env[:i], env[i+1:])
					break
				}
			}
		}
	}()

	os.Clearenv()

	cfg := Load()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"Port", cfg.Port, 8080},
		{"LogLevel", cfg.LogLevel, "info"},
		{"ChunkSize", cfg.ChunkSize, 800},
		{"ChunkOverlap", cfg.ChunkOverlap, 100},
		{"SmallDocTokens", cfg.SmallDocTokens, 5000},
		{"MediumDocTokens", cfg.MediumDocTokens, 15000},
		{"SummaryMaxChars", cfg.SummaryMaxChars, 20000},
		{"SummaryMaxSlices", cfg.SummaryMaxSlices, 3},
		{"IndexBackend", cfg.IndexBackend, "fs"},
		{"Retriever", cfg.Retriever, "vector"},
		{"TopK", cfg.TopK, 5},
		{"RelatedMax", cfg.RelatedMax, 7},
		{"CacheProvider", cfg.CacheProvider, "noop"},
		{"QueueProvider", cfg.QueueProvider, "none"},
		{"LLMProvider", cfg.LLMProvider, "openai"},
		{"LLMModel", cfg.LLMModel, "gpt-4o-mini"},
		{"EmbeddingModel", cfg.EmbeddingModel, "text-embedding-3-small"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("expected %s=%v, got %v", tt.name, tt.expected, tt.got)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	originalChunk := os.Getenv("CHUNK_SIZE")
	originalRetriever := os.Getenv("RETRIEVER")
	defer func() {
		os.Setenv("CHUNK_SIZE", originalChunk)
		os.Setenv("RETRIEVER", originalRetriever)
	}()

	os.Setenv("CHUNK_SIZE", "1200")
	os.Setenv("RETRIEVER", "lexical")

	cfg := Load()

	if cfg.ChunkSize != 1200 {
		t.Errorf("expected chunk size 1200, got %d", cfg.ChunkSize)
	}
	if cfg.Retriever != "lexical" {
		t.Errorf("expected retriever 'lexical', got %s", cfg.Retriever)
	}
}
