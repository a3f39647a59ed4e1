package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/yungbote/openlearn-backend/internal/platform/httpx"
	"github.com/yungbote/openlearn-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestOllamaChat(t *testing.T) {
	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path: want=/api/chat got=%s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"model":"llama3","message":{"role":"assistant","content":" Hello there "}}`))
	}))
	defer srv.Close()

	c := NewOllama(testLogger(t), OllamaConfig{BaseURL: srv.URL + "/", Model: "llama3"})
	text, err := c.Chat(context.Background(), "hi")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if text != "Hello there" {
		t.Fatalf("text: want=%q got=%q", "Hello there", text)
	}
	if got.Model != "llama3" || got.Stream || len(got.Messages) != 1 || got.Messages[0].Role != "user" || got.Messages[0].Content != "hi" {
		t.Fatalf("request: got=%+v", got)
	}
}

func TestOllamaChatWithFollowups(t *testing.T) {
	var prompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		prompt = req.Messages[0].Content
		body, _ := json.Marshal(map[string]any{
			"message": map[string]any{
				"role":    "assistant",
				"content": `{"answer":"Use the chain rule.","followups":["What is a derivative?"]}`,
			},
		})
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	c := NewOllama(testLogger(t), OllamaConfig{BaseURL: srv.URL})
	answer, followups, err := c.ChatWithFollowups(context.Background(), "Question: how?")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if !strings.HasPrefix(prompt, "Question: how?") || !strings.HasSuffix(prompt, FollowupInstruction) {
		t.Fatalf("prompt missing followup instruction: %q", prompt)
	}
	if answer != "Use the chain rule." {
		t.Fatalf("answer: got=%q", answer)
	}
	if len(followups) != 1 || followups[0] != "What is a derivative?" {
		t.Fatalf("followups: got=%v", followups)
	}
}

func TestOllamaErrors(t *testing.T) {
	t.Run("client error is not retried", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			http.Error(w, "model not found", http.StatusNotFound)
		}))
		defer srv.Close()

		c := NewOllama(testLogger(t), OllamaConfig{BaseURL: srv.URL, MaxRetries: 3})
		_, err := c.Chat(context.Background(), "hi")
		var se *httpx.StatusError
		if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
			t.Fatalf("want 404 StatusError, got=%v", err)
		}
		if calls.Load() != 1 {
			t.Fatalf("calls: want=1 got=%d", calls.Load())
		}
	})

	t.Run("server error without retries", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		c := NewOllama(testLogger(t), OllamaConfig{BaseURL: srv.URL})
		if _, err := c.Chat(context.Background(), "hi"); err == nil {
			t.Fatalf("want error for 503")
		}
	})

	t.Run("empty completion", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"   "}}`))
		}))
		defer srv.Close()

		c := NewOllama(testLogger(t), OllamaConfig{BaseURL: srv.URL})
		if _, err := c.Chat(context.Background(), "hi"); !errors.Is(err, ErrEmptyCompletion) {
			t.Fatalf("want ErrEmptyCompletion got=%v", err)
		}
	})

	t.Run("unreachable host", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		c := NewOllama(testLogger(t), OllamaConfig{BaseURL: url})
		if _, err := c.Chat(context.Background(), "hi"); err == nil {
			t.Fatalf("want transport error")
		}
	})
}

func TestNewHostedRejectsMissingKey(t *testing.T) {
	if _, err := NewHosted(testLogger(t), HostedConfig{Provider: ProviderOpenAI}); err == nil {
		t.Fatalf("want error for empty api key")
	}
	if _, err := NewHosted(testLogger(t), HostedConfig{Provider: "bard", APIKey: "k"}); err == nil {
		t.Fatalf("want error for unknown provider")
	}
}
