package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"

	"github.com/yungbote/openlearn-backend/internal/observability"
	"github.com/yungbote/openlearn-backend/internal/platform/logger"
)

const (
	ProviderGemini = "gemini"

	defaultGeminiModel   = "gemini-2.0-flash"
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
)

// geminiClient talks to Gemini through its OpenAI-compatible chat
// completions endpoint.
type geminiClient struct {
	log       *logger.Logger
	client    openaiclient.Client
	model     string
	maxTokens int
}

func NewGemini(log *logger.Logger, cfg HostedConfig) (Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("llm: api key is empty")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultGeminiModel
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultGeminiBaseURL
	}
	maxTokens := cfg.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxOutputTokens
	}
	client := openaiclient.NewClient(
		openaioption.WithAPIKey(apiKey),
		openaioption.WithBaseURL(strings.TrimRight(base, "/")+"/"),
		openaioption.WithMaxRetries(2),
	)
	return &geminiClient{
		log:       log.With("client", "GeminiClient"),
		client:    client,
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

func (c *geminiClient) Chat(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, openaiclient.ChatCompletionNewParams{
		Model:     c.model,
		Messages:  []openaiclient.ChatCompletionMessageParamUnion{openaiclient.UserMessage(prompt)},
		MaxTokens: openaiclient.Int(int64(c.maxTokens)),
	})
	if err != nil {
		observability.Current().ObserveLLMRequest(ProviderGemini, "chat", "error", time.Since(start))
		c.log.Warn("LLM request failed", "error", err.Error(), "duration_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("gemini chat: %w", err)
	}
	var text string
	if len(resp.Choices) > 0 {
		text = strings.TrimSpace(resp.Choices[0].Message.Content)
	}
	if text == "" {
		observability.Current().ObserveLLMRequest(ProviderGemini, "chat", "empty", time.Since(start))
		return "", ErrEmptyCompletion
	}
	observability.Current().ObserveLLMRequest(ProviderGemini, "chat", "ok", time.Since(start))
	return text, nil
}

func (c *geminiClient) ChatWithFollowups(ctx context.Context, prompt string) (string, []string, error) {
	return chatWithFollowups(ctx, c.Chat, prompt)
}
