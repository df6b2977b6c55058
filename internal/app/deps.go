// Package app assembles runtime dependencies from configuration. Both
// binaries build the same Deps and pick the pieces they need.
package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/openai/openai-go/v3"

	"paperqa/internal/answer"
	"paperqa/internal/cache"
	"paperqa/internal/chunker"
	"paperqa/internal/config"
	"paperqa/internal/embeddings"
	"paperqa/internal/index"
	"paperqa/internal/llm"
	"paperqa/internal/logger"
	"paperqa/internal/papers"
	"paperqa/internal/pipeline"
	"paperqa/internal/queue"
	"paperqa/internal/summarize"
	"paperqa/internal/tokens"
)

// Deps bundles common runtime dependencies for the binaries.
type Deps struct {
	Config   config.Config
	Log      *slog.Logger
	Pipeline *pipeline.Pipeline
	Cache    cache.Cache
	Queue    queue.Queue // nil when QUEUE_PROVIDER=none
}

// Build loads env, config, and the full pipeline.
func Build() (Deps, error) {
	// A .env file is a development convenience, not a requirement.
	if err := godotenv.Load(); err != nil {
		slog.Default().Debug("no .env file loaded", "err", err)
	}
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	llmClient, err := buildLLM(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize LLM: %w", err)
	}
	embedder, err := buildEmbedder(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	store, err := buildStore(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize index store: %w", err)
	}
	indexer, retriever, usesVectors, err := buildStrategy(cfg, store, embedder)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize retrieval strategy: %w", err)
	}

	c, err := buildCache(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize cache: %w", err)
	}
	q, err := buildQueue(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize queue: %w", err)
	}

	params := pipeline.Params{
		Log:          log,
		ChunkOptions: chunker.Options{Size: cfg.ChunkSize, Overlap: cfg.ChunkOverlap},
		Thresholds:   tokens.Thresholds{Small: cfg.SmallDocTokens, Medium: cfg.MediumDocTokens},
		Summarizer:   summarize.New(llmClient, log, summarize.Options{MaxChars: cfg.SummaryMaxChars, MaxSlices: cfg.SummaryMaxSlices}),
		Indexer:      indexer,
		Retriever:    retriever,
		Store:        store,
		Answerer:     answer.New(llmClient, log),
		Finder:       buildFinder(cfg, log, llmClient, embedder),
		Cache:        c,
		CacheTTL:     time.Duration(cfg.CacheTTL) * time.Second,
		TopK:         cfg.TopK,
	}
	if usesVectors {
		params.Embedder = embedder
	}

	return Deps{
		Config:   cfg,
		Log:      log,
		Pipeline: pipeline.New(params),
		Cache:    c,
		Queue:    q,
	}, nil
}

func buildStore(cfg config.Config, log *slog.Logger) (index.Store, error) {
	switch cfg.IndexBackend {
	case "postgres":
		if cfg.DBURL == "" {
			return nil, fmt.Errorf("DB_URL is required when INDEX_BACKEND=postgres")
		}
		db, err := index.NewPostgres(cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres: %w", err)
		}
		log.Info("using Postgres index store")
		return db, nil
	case "fs":
		st, err := index.NewFSStore(cfg.IndexRoot)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize filesystem store: %w", err)
		}
		log.Info("using filesystem index store", "root", cfg.IndexRoot)
		return st, nil
	default:
		return nil, fmt.Errorf("invalid INDEX_BACKEND: %s (valid options: fs, postgres)", cfg.IndexBackend)
	}
}

func buildStrategy(cfg config.Config, store index.Store, embedder embeddings.Embedder) (index.Indexer, index.Retriever, bool, error) {
	switch cfg.Retriever {
	case "vector":
		s := index.NewVectorStrategy(store, embedder, cfg.EmbeddingModel)
		return s, s, true, nil
	case "lexical":
		s := index.NewLexicalStrategy(store)
		return s, s, false, nil
	default:
		return nil, nil, false, fmt.Errorf("invalid RETRIEVER: %s (valid options: vector, lexical)", cfg.Retriever)
	}
}

func buildCache(cfg config.Config, log *slog.Logger) (cache.Cache, error) {
	switch cfg.CacheProvider {
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR is required when CACHE_PROVIDER=redis")
		}
		c, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Info("using Redis answer cache", "addr", cfg.RedisAddr)
		return c, nil
	case "noop":
		return cache.NewNoOpCache(), nil
	default:
		return nil, fmt.Errorf("invalid CACHE_PROVIDER: %s (valid options: redis, noop)", cfg.CacheProvider)
	}
}

func buildQueue(cfg config.Config, log *slog.Logger) (queue.Queue, error) {
	switch cfg.QueueProvider {
	case "nats":
		if cfg.QueueURL == "" {
			return nil, fmt.Errorf("QUEUE_URL is required when QUEUE_PROVIDER=nats")
		}
		nc, err := nats.Connect(cfg.QueueURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		log.Info("using NATS queue")
		return queue.NewNATS(log, nc), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("invalid QUEUE_PROVIDER: %s (valid options: nats, none)", cfg.QueueProvider)
	}
}

func buildLLM(cfg config.Config, log *slog.Logger) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
		client, err := llm.NewOpenAIClient(cfg.OpenAIKey, openai.ChatModel(cfg.LLMModel))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
		}
		log.Info("using OpenAI LLM client", "model", cfg.LLMModel)
		return client, nil
	default:
		return nil, fmt.Errorf("invalid LLM_PROVIDER: %s (valid option: openai)", cfg.LLMProvider)
	}
}

func buildEmbedder(cfg config.Config, log *slog.Logger) (embeddings.Embedder, error) {
	switch cfg.LLMProvider {
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
		embedder, err := embeddings.NewOpenAIEmbedder(cfg.OpenAIKey, openai.EmbeddingModel(cfg.EmbeddingModel))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI embedder: %w", err)
		}
		log.Info("using OpenAI embedder", "model", cfg.EmbeddingModel)
		return embedder, nil
	default:
		return nil, fmt.Errorf("invalid LLM_PROVIDER: %s (valid option: openai)", cfg.LLMProvider)
	}
}

func buildFinder(cfg config.Config, log *slog.Logger, llmClient llm.Client, embedder embeddings.Embedder) *papers.Finder {
	timeout := time.Duration(cfg.SourceTimeoutS) * time.Second
	sources := []papers.Source{
		papers.NewArxivSource(timeout),
		papers.NewSemanticScholarSource(timeout),
	}
	if cfg.RelatedUseLLM {
		sources = append(sources, papers.NewLLMSource(llmClient))
	}
	return papers.NewFinder(sources, embedder, log, cfg.RelatedMax)
}
