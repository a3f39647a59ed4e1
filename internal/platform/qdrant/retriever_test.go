package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/yungbote/openlearn-backend/internal/platform/logger"
)

func TestRetrieverSearchRequestShapeAndRanking(t *testing.T) {
	var captured map[string]any
	r := newTestRetriever(t, func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodPost || req.URL.Path != "/collections/openlearn_chunks/points/scroll" {
			t.Fatalf("unexpected request: %s %s", req.Method, req.URL.Path)
		}
		if err := json.NewDecoder(req.Body).Decode(&captured); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return okResponse(t, map[string]any{
			"points": []any{
				map[string]any{"id": 7, "payload": map[string]any{"content": "Eigen values only."}},
				map[string]any{"id": "b1c3", "payload": map[string]any{"chunk_id": "c-2", "content": "The eigen vectors of a matrix with eigen values.", "page": 4}},
				map[string]any{"id": 9, "payload": map[string]any{"content": "   "}},
				map[string]any{"id": 10, "payload": map[string]any{"chunk_id": "c-3", "content": "Unrelated text."}},
			},
			"next_page_offset": nil,
		}), nil
	})

	topic := int64(3)
	chunks, err := r.Search(context.Background(), "eigen vectors?", 12, &topic, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if got := captured["limit"]; got != float64(8) {
		t.Fatalf("limit: want=8 got=%v", got)
	}
	if captured["with_payload"] != true {
		t.Fatalf("with_payload: want=true got=%v", captured["with_payload"])
	}
	filter, _ := captured["filter"].(map[string]any)
	must, _ := filter["must"].([]any)
	if len(must) != 2 {
		t.Fatalf("must: want=2 conditions got=%v", must)
	}
	if key := must[0].(map[string]any)["key"]; key != "material_id" {
		t.Fatalf("must[0] key: want=material_id got=%v", key)
	}
	if v := must[1].(map[string]any)["match"].(map[string]any)["value"]; v != float64(3) {
		t.Fatalf("topic match: want=3 got=%v", v)
	}
	should, _ := filter["should"].([]any)
	if len(should) != 2 {
		t.Fatalf("should: want=2 term conditions got=%v", should)
	}
	if text := should[0].(map[string]any)["match"].(map[string]any)["text"]; text != "eigen" {
		t.Fatalf("should[0] text: want=eigen got=%v", text)
	}

	if len(chunks) != 2 {
		t.Fatalf("chunks: want=2 got=%d (%+v)", len(chunks), chunks)
	}
	if chunks[0].ChunkID != "c-2" || chunks[0].Page == nil || *chunks[0].Page != 4 || chunks[0].Score != 1 {
		t.Fatalf("best chunk: got=%+v", chunks[0])
	}
	if chunks[1].ChunkID != "7" || chunks[1].Page != nil {
		t.Fatalf("second chunk: got=%+v", chunks[1])
	}
}

func TestRetrieverSearchWithoutTopicOrTerms(t *testing.T) {
	var captured map[string]any
	r := newTestRetriever(t, func(req *http.Request) (*http.Response, error) {
		_ = json.NewDecoder(req.Body).Decode(&captured)
		return okResponse(t, map[string]any{"points": []any{}}), nil
	})
	chunks, err := r.Search(context.Background(), "a is", 5, nil, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("chunks: want none got=%v", chunks)
	}
	filter := captured["filter"].(map[string]any)
	if _, ok := filter["should"]; ok {
		t.Fatalf("should must be omitted without terms: %v", filter)
	}
	if must := filter["must"].([]any); len(must) != 1 {
		t.Fatalf("must: want only material condition got=%v", must)
	}
}

func TestRetrieverSearchErrors(t *testing.T) {
	r := newTestRetriever(t, func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Header:     make(http.Header),
			Body:       io.NopCloser(bytes.NewReader([]byte(`{"status":{"error":"Not found: Collection"}}`))),
		}, nil
	})
	_, err := r.Search(context.Background(), "matrix", 1, nil, 5)
	var opErr *OperationError
	if !errors.As(err, &opErr) || opErr.Code != OperationErrorQueryFailed || opErr.StatusCode != http.StatusNotFound {
		t.Fatalf("want query_failed 404, got=%v", err)
	}

	if _, err := r.Search(context.Background(), "matrix", 0, nil, 5); err == nil {
		t.Fatalf("want validation error for material id 0")
	}
}

func TestRetrieverEnvelopeStatusError(t *testing.T) {
	r := newTestRetriever(t, func(req *http.Request) (*http.Response, error) {
		raw := []byte(`{"result":null,"status":{"error":"bad filter"},"time":0.1}`)
		return &http.Response{StatusCode: http.StatusOK, Header: make(http.Header), Body: io.NopCloser(bytes.NewReader(raw))}, nil
	})
	err := r.EnsureTextIndex(context.Background())
	var opErr *OperationError
	if !errors.As(err, &opErr) || opErr.Message != "bad filter" {
		t.Fatalf("want envelope status error, got=%v", err)
	}
}

func TestClassifyHTTPCallErrorTimeout(t *testing.T) {
	err := classifyHTTPCallError("search", "failed", context.DeadlineExceeded)
	var opErr *OperationError
	if !errors.As(err, &opErr) || opErr.Code != OperationErrorTimeout {
		t.Fatalf("want timeout code, got=%v", err)
	}
}

func TestClassifyHTTPCallErrorTransport(t *testing.T) {
	err := classifyHTTPCallError("search", "failed", errors.New("connection refused"))
	var opErr *OperationError
	if !errors.As(err, &opErr) || opErr.Code != OperationErrorTransportFailed {
		t.Fatalf("want transport code, got=%v", err)
	}
}

func newTestRetriever(t *testing.T, roundTrip func(*http.Request) (*http.Response, error)) *Retriever {
	t.Helper()
	return &Retriever{
		log:     newTestLogger(t),
		cfg:     Config{URL: "http://qdrant.local", Collection: DefaultCollection},
		baseURL: "http://qdrant.local",
		http:    &http.Client{Transport: roundTripFunc(roundTrip)},
	}
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func okResponse(t *testing.T, result any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"result": result,
		"status": "ok",
		"time":   0.001,
	})
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     make(http.Header),
		Body:       io.NopCloser(bytes.NewReader(raw)),
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
