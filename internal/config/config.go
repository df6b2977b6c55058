package config

import (
	"log/slog"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration. Every pipeline tunable lives here so
// call sites never bake in their own constants.
type Config struct {
	// Server
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Upload limits
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"26214400"` // 25MB in bytes

	// Chunking (characters; ~4 characters per token)
	ChunkSize    int `env:"CHUNK_SIZE" envDefault:"800"`
	ChunkOverlap int `env:"CHUNK_OVERLAP" envDefault:"100"`

	// Size classification thresholds (tokens)
	SmallDocTokens  int `env:"SMALL_DOC_TOKENS" envDefault:"5000"`
	MediumDocTokens int `env:"MEDIUM_DOC_TOKENS" envDefault:"15000"`

	// Summarization
	SummaryMaxChars  int `env:"SUMMARY_MAX_CHARS" envDefault:"20000"` // single-call ceiling, ~5000 tokens
	SummaryMaxSlices int `env:"SUMMARY_MAX_SLICES" envDefault:"3"`

	// Index & retrieval
	IndexRoot    string `env:"INDEX_ROOT" envDefault:"data/index"`
	IndexBackend string `env:"INDEX_BACKEND" envDefault:"fs"` // "fs" (per-document files) or "postgres"
	Retriever    string `env:"RETRIEVER" envDefault:"vector"` // "vector" (embeddings) or "lexical" (keyword overlap)
	TopK         int    `env:"TOP_K" envDefault:"5"`
	DBURL        string `env:"DB_URL"`

	// Related work
	RelatedMax     int  `env:"RELATED_MAX" envDefault:"7"`
	RelatedUseLLM  bool `env:"RELATED_USE_LLM" envDefault:"false"`
	SourceTimeoutS int  `env:"SOURCE_TIMEOUT_S" envDefault:"10"`

	// Cache
	CacheProvider string `env:"CACHE_PROVIDER" envDefault:"noop"` // "redis" or "noop"
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	CacheTTL      int    `env:"CACHE_TTL" envDefault:"3600"` // seconds

	// Queue (async ingestion)
	QueueProvider string `env:"QUEUE_PROVIDER" envDefault:"none"` // "nats" or "none"
	QueueURL      string `env:"QUEUE_URL"`

	// LLM & Embeddings
	LLMProvider    string `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIKey      string `env:"OPENAI_API_KEY"`
	LLMModel       string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	EmbeddingModel string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}
