package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/openlearn-backend/internal/observability"
	"github.com/yungbote/openlearn-backend/internal/platform/httpx"
	"github.com/yungbote/openlearn-backend/internal/platform/logger"
)

const (
	defaultOllamaBaseURL = "http://ollama:11434"
	defaultOllamaModel   = "llama3"
	defaultTimeout       = 120 * time.Second
)

type OllamaConfig struct {
	BaseURL    string
	Model      string
	MaxRetries int
	Timeout    time.Duration
	HTTPClient *http.Client
}

type ollamaClient struct {
	log        *logger.Logger
	baseURL    string
	model      string
	maxRetries int
	httpClient *http.Client
}

func NewOllama(log *logger.Logger, cfg OllamaConfig) Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultOllamaModel
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &ollamaClient{
		log:        log.With("client", "OllamaClient"),
		baseURL:    baseURL,
		model:      model,
		maxRetries: retries,
		httpClient: hc,
	}
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
}

func (c *ollamaClient) Chat(ctx context.Context, prompt string) (string, error) {
	req := ollamaChatRequest{
		Model:    c.model,
		Messages: []ollamaMessage{{Role: "user", Content: prompt}},
	}
	var out ollamaChatResponse
	if err := c.do(ctx, "/api/chat", req, &out); err != nil {
		return "", err
	}
	text := strings.TrimSpace(out.Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

func (c *ollamaClient) ChatWithFollowups(ctx context.Context, prompt string) (string, []string, error) {
	return chatWithFollowups(ctx, c.Chat, prompt)
}

func (c *ollamaClient) do(ctx context.Context, path string, body any, out any) error {
	backoff := 1 * time.Second
	start := time.Now()

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, path, body)
		if err == nil {
			observability.Current().ObserveLLMRequest("ollama", "chat", statusLabel(resp, nil), time.Since(start))
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("ollama decode error: %w", uErr)
			}
			return nil
		}

		if !httpx.IsRetryableError(err) || attempt == c.maxRetries {
			observability.Current().ObserveLLMRequest("ollama", "chat", statusLabel(resp, err), time.Since(start))
			return err
		}

		sleepFor := httpx.RetryAfterDuration(resp, backoff, 10*time.Second)
		sleepFor = httpx.JitterSleep(sleepFor)

		c.log.Warn("Ollama request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		if err := httpx.Sleep(ctx, sleepFor); err != nil {
			return err
		}
		backoff *= 2
	}

	return fmt.Errorf("unreachable retry loop")
}

func (c *ollamaClient) doOnce(ctx context.Context, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &httpx.StatusError{Service: "ollama", StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func statusLabel(resp *http.Response, err error) string {
	if resp != nil {
		return strconv.Itoa(resp.StatusCode)
	}
	if err != nil {
		return "error"
	}
	return "ok"
}
