package llm

import (
	"context"
	"errors"
	"fmt"
	neturl "net/url"
	"strings"
	"time"

	anthropicclient "github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"
	jetai "go.jetify.com/ai"
	jetapi "go.jetify.com/ai/api"
	jetanthropic "go.jetify.com/ai/provider/anthropic"
	jetopenai "go.jetify.com/ai/provider/openai"

	"github.com/yungbote/openlearn-backend/internal/observability"
	"github.com/yungbote/openlearn-backend/internal/platform/logger"
)

const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	defaultOpenAIModel     = "gpt-4o-mini"
	defaultAnthropicModel  = "claude-haiku-4-5-20251001"
	defaultMaxOutputTokens = 1024
)

type HostedConfig struct {
	Provider        string
	APIKey          string
	Model           string
	BaseURL         string
	MaxOutputTokens int
}

type hostedClient struct {
	log       *logger.Logger
	provider  string
	model     jetapi.LanguageModel
	maxTokens int
}

// NewHosted builds a client for a hosted provider (openai or anthropic).
func NewHosted(log *logger.Logger, cfg HostedConfig) (Client, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	model, err := buildLanguageModel(provider, cfg)
	if err != nil {
		return nil, err
	}
	maxTokens := cfg.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxOutputTokens
	}
	return &hostedClient{
		log:       log.With("client", "HostedLLMClient", "provider", provider),
		provider:  provider,
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

func (c *hostedClient) Chat(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	resp, err := jetai.GenerateText(
		ctx,
		[]jetapi.Message{&jetapi.UserMessage{Content: jetapi.ContentFromText(prompt)}},
		jetai.WithModel(c.model),
		jetai.WithMaxOutputTokens(c.maxTokens),
	)
	if err != nil {
		observability.Current().ObserveLLMRequest(c.provider, "chat", "error", time.Since(start))
		c.log.Warn("LLM request failed", "error", err.Error(), "duration_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("%s chat: %w", c.provider, err)
	}
	text, err := extractText(resp)
	if err != nil {
		observability.Current().ObserveLLMRequest(c.provider, "chat", "empty", time.Since(start))
		return "", err
	}
	observability.Current().ObserveLLMRequest(c.provider, "chat", "ok", time.Since(start))
	return text, nil
}

func (c *hostedClient) ChatWithFollowups(ctx context.Context, prompt string) (string, []string, error) {
	return chatWithFollowups(ctx, c.Chat, prompt)
}

func extractText(resp *jetapi.Response) (string, error) {
	if resp == nil {
		return "", ErrEmptyCompletion
	}
	var full strings.Builder
	for _, block := range resp.Content {
		textBlock, ok := block.(*jetapi.TextBlock)
		if !ok || textBlock.Text == "" {
			continue
		}
		full.WriteString(textBlock.Text)
	}
	text := strings.TrimSpace(full.String())
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

func buildLanguageModel(provider string, cfg HostedConfig) (jetapi.LanguageModel, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("llm: api key is empty")
	}
	modelID := strings.TrimSpace(cfg.Model)
	endpoint := strings.TrimSpace(cfg.BaseURL)

	switch provider {
	case ProviderAnthropic:
		if modelID == "" {
			modelID = defaultAnthropicModel
		}
		opts := []anthropicoption.RequestOption{
			anthropicoption.WithAPIKey(apiKey),
			anthropicoption.WithMaxRetries(2),
		}
		if endpoint != "" {
			opts = append(opts, anthropicoption.WithBaseURL(strings.TrimRight(endpoint, "/")))
		}
		client := anthropicclient.NewClient(opts...)
		return jetanthropic.NewLanguageModel(modelID, jetanthropic.WithClient(client)), nil
	case ProviderOpenAI:
		if modelID == "" {
			modelID = defaultOpenAIModel
		}
		opts := []openaioption.RequestOption{
			openaioption.WithAPIKey(apiKey),
			openaioption.WithMaxRetries(2),
		}
		if normalized := normalizeOpenAIBaseURL(endpoint); normalized != "" {
			opts = append(opts, openaioption.WithBaseURL(normalized))
		}
		client := openaiclient.NewClient(opts...)
		return jetopenai.NewLanguageModel(modelID, jetopenai.WithClient(client)), nil
	default:
		return nil, fmt.Errorf("llm: unsupported hosted provider %q", provider)
	}
}

// normalizeOpenAIBaseURL makes sure an explicit base URL ends in /v1.
func normalizeOpenAIBaseURL(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		return ""
	}
	parsed, err := neturl.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return strings.TrimRight(base, "/")
	}
	path := strings.TrimRight(parsed.Path, "/")
	if !strings.HasSuffix(path, "/v1") {
		path += "/v1"
	}
	parsed.Path = path
	return strings.TrimRight(parsed.String(), "/")
}
