package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func geminiServer(t *testing.T, status int, content string, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/openai/chat/completions" {
			t.Errorf("path: got=%s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer g-key" {
			t.Errorf("authorization: got=%q", auth)
		}
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"bad request"}}`))
			return
		}
		body, _ := json.Marshal(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gemini-2.0-flash",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGeminiChat(t *testing.T) {
	var seen map[string]any
	srv := geminiServer(t, http.StatusOK, " Vectors first ", &seen)
	c, err := NewGemini(testLogger(t), HostedConfig{APIKey: "g-key", BaseURL: srv.URL + "/v1beta/openai"})
	if err != nil {
		t.Fatalf("NewGemini: %v", err)
	}
	text, err := c.Chat(context.Background(), "hi")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if text != "Vectors first" {
		t.Fatalf("text: want=%q got=%q", "Vectors first", text)
	}
	if seen["model"] != defaultGeminiModel {
		t.Fatalf("model: want=%s got=%v", defaultGeminiModel, seen["model"])
	}
	msgs, _ := seen["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("messages: got=%v", seen["messages"])
	}
}

func TestGeminiEmptyCompletion(t *testing.T) {
	srv := geminiServer(t, http.StatusOK, "   ", nil)
	c, err := NewGemini(testLogger(t), HostedConfig{APIKey: "g-key", BaseURL: srv.URL + "/v1beta/openai/"})
	if err != nil {
		t.Fatalf("NewGemini: %v", err)
	}
	if _, err := c.Chat(context.Background(), "hi"); !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("want ErrEmptyCompletion got=%v", err)
	}
}

func TestGeminiRequestError(t *testing.T) {
	srv := geminiServer(t, http.StatusBadRequest, "", nil)
	c, err := NewGemini(testLogger(t), HostedConfig{APIKey: "g-key", BaseURL: srv.URL + "/v1beta/openai"})
	if err != nil {
		t.Fatalf("NewGemini: %v", err)
	}
	_, err = c.Chat(context.Background(), "hi")
	if err == nil || errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("want transport error got=%v", err)
	}
}

func TestNewGeminiRequiresKey(t *testing.T) {
	if _, err := NewGemini(testLogger(t), HostedConfig{}); err == nil {
		t.Fatalf("want error for missing key")
	}
}
