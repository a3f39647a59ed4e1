package app

import (
	"context"
	"fmt"

	"github.com/yungbote/openlearn-backend/internal/platform/bus"
	"github.com/yungbote/openlearn-backend/internal/platform/llm"
	"github.com/yungbote/openlearn-backend/internal/platform/logger"
	"github.com/yungbote/openlearn-backend/internal/platform/objectstore"
	"github.com/yungbote/openlearn-backend/internal/platform/qdrant"
	"github.com/yungbote/openlearn-backend/internal/platform/retrieval"
	"github.com/yungbote/openlearn-backend/internal/platform/wikipedia"
	"github.com/yungbote/openlearn-backend/internal/services"
)

type Clients struct {
	LLM       llm.Client
	Enricher  services.Enricher
	Retriever services.Retriever
	Store     objectstore.Store
	// Publisher is left nil when NATS is not configured.
	Publisher bus.Publisher

	bus   *bus.Bus
	cache *wikipedia.RedisCache
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	llmClient, err := newLLMClient(log, cfg.LLM)
	if err != nil {
		return Clients{}, fmt.Errorf("init llm client: %w", err)
	}
	out.LLM = llmClient

	// Wikipedia, cached in Redis when configured
	wiki := wikipedia.NewClient(log, wikipedia.Config{Language: cfg.WikipediaLanguage})
	out.Enricher = wiki
	if cfg.RedisURL != "" {
		cache, err := wikipedia.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable; enrichment runs uncached", "error", err.Error())
		} else {
			out.cache = cache
			out.Enricher = wikipedia.NewCachedClient(log, wiki, cache, cfg.EnrichmentCacheTTL)
		}
	}

	// Retrieval
	out.Retriever = retrieval.Nop{}
	if cfg.QdrantURL != "" {
		r, err := qdrant.NewRetriever(ctx, log, qdrant.Config{
			URL:        cfg.QdrantURL,
			Collection: cfg.QdrantCollection,
			APIKey:     cfg.QdrantAPIKey,
		})
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init qdrant retriever: %w", err)
		}
		out.Retriever = r
	} else {
		log.Warn("QDRANT_URL not set; answers are generated without retrieved context")
	}

	// Object storage
	switch cfg.Storage.Backend {
	case objectstore.BackendS3:
		s3, err := objectstore.NewS3(ctx, cfg.Storage.S3)
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init s3 store: %w", err)
		}
		out.Store = s3
	default:
		local, err := objectstore.NewLocal(cfg.Storage.BasePath)
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init local store: %w", err)
		}
		out.Store = local
	}

	// Messaging
	if cfg.NATSURL != "" {
		b, err := bus.New(cfg.NATSURL)
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("connect nats: %w", err)
		}
		if err := b.EnsureStream(cfg.NATSStream, bus.SubjectMaterialUploaded); err != nil {
			b.Close()
			out.Close()
			return Clients{}, fmt.Errorf("ensure stream %s: %w", cfg.NATSStream, err)
		}
		out.bus = b
		out.Publisher = b
	}

	return out, nil
}

func newLLMClient(log *logger.Logger, cfg LLMConfig) (llm.Client, error) {
	switch cfg.Provider {
	case llm.ProviderOpenAI:
		return llm.NewHosted(log, llm.HostedConfig{
			Provider: llm.ProviderOpenAI,
			APIKey:   cfg.OpenAIAPIKey,
			Model:    cfg.OpenAIModel,
			BaseURL:  cfg.OpenAIBaseURL,
		})
	case llm.ProviderAnthropic:
		return llm.NewHosted(log, llm.HostedConfig{
			Provider: llm.ProviderAnthropic,
			APIKey:   cfg.AnthropicAPIKey,
			Model:    cfg.AnthropicModel,
		})
	case llm.ProviderGemini:
		return llm.NewGemini(log, llm.HostedConfig{
			Provider: llm.ProviderGemini,
			APIKey:   cfg.GeminiAPIKey,
			Model:    cfg.GeminiModel,
			BaseURL:  cfg.GeminiBaseURL,
		})
	default:
		return llm.NewOllama(log, llm.OllamaConfig{
			BaseURL: cfg.OllamaBaseURL,
			Model:   cfg.OllamaModel,
			Timeout: cfg.Timeout,
		}), nil
	}
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.bus != nil {
		c.bus.Close()
	}
	if c.cache != nil {
		_ = c.cache.Close()
	}
}
