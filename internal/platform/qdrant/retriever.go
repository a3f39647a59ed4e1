package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/yungbote/openlearn-backend/internal/platform/ctxutil"
	"github.com/yungbote/openlearn-backend/internal/platform/logger"
	"github.com/yungbote/openlearn-backend/internal/platform/retrieval"
)

const (
	payloadMaterialID = "material_id"
	payloadTopicID    = "topic_id"
	payloadChunkID    = "chunk_id"
	payloadContent    = "content"
	payloadPage       = "page"

	candidateFactor   = 4
	maxErrorBodyBytes = 1024
)

// Retriever runs keyword searches over chunk payloads stored in a Qdrant
// collection. Candidates come from a filtered scroll and are ranked by term
// overlap with the query.
type Retriever struct {
	log     *logger.Logger
	cfg     Config
	baseURL string
	http    *http.Client
}

type qdrantEnvelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
	Time   float64         `json:"time"`
}

type scrollPoint struct {
	ID      json.RawMessage `json:"id"`
	Payload chunkPayload    `json:"payload"`
}

type chunkPayload struct {
	ChunkID *string  `json:"chunk_id"`
	Content string   `json:"content"`
	Page    *float64 `json:"page"`
}

type scrollResult struct {
	Points []scrollPoint `json:"points"`
}

func NewRetriever(ctx context.Context, log *logger.Logger, cfg Config) (*Retriever, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	r := &Retriever{
		log:     log.With("service", "QdrantRetriever"),
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
	if err := r.verifyReady(ctx); err != nil {
		return nil, err
	}
	if err := r.EnsureTextIndex(ctx); err != nil {
		r.log.Warn("qdrant text index not ensured", "collection", cfg.Collection, "error", err.Error())
	}
	log.Info("Qdrant retriever selected", "url", r.baseURL, "collection", cfg.Collection)
	return r, nil
}

// Search returns at most k chunks of the material, best match first.
func (r *Retriever) Search(ctx context.Context, query string, materialID int64, topicID *int64, k int) ([]retrieval.Chunk, error) {
	const op = "search"
	if materialID <= 0 {
		return nil, opErr(op, OperationErrorValidation, "material id must be positive", nil)
	}
	if k <= 0 {
		return []retrieval.Chunk{}, nil
	}

	terms := retrieval.Terms(query)
	body := map[string]any{
		"filter":       chunkFilter(materialID, topicID, terms),
		"limit":        k * candidateFactor,
		"with_payload": true,
		"with_vector":  false,
	}
	var result scrollResult
	if err := r.doJSON(ctx, op, http.MethodPost, r.collectionPath("/points/scroll"), body, &result); err != nil {
		return nil, err
	}

	chunks := make([]retrieval.Chunk, 0, len(result.Points))
	for _, p := range result.Points {
		content := strings.TrimSpace(p.Payload.Content)
		if content == "" {
			continue
		}
		c := retrieval.Chunk{
			ChunkID: decodePointID(p.ID),
			Content: content,
			Score:   retrieval.Overlap(terms, content),
		}
		if p.Payload.ChunkID != nil && strings.TrimSpace(*p.Payload.ChunkID) != "" {
			c.ChunkID = strings.TrimSpace(*p.Payload.ChunkID)
		}
		if p.Payload.Page != nil {
			page := int(*p.Payload.Page)
			c.Page = &page
		}
		chunks = append(chunks, c)
	}
	sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].Score > chunks[j].Score })
	if len(chunks) > k {
		chunks = chunks[:k]
	}
	return chunks, nil
}

// EnsureTextIndex creates a full-text payload index on chunk content. Qdrant
// treats an existing identical index as a no-op.
func (r *Retriever) EnsureTextIndex(ctx context.Context) error {
	body := map[string]any{
		"field_name": payloadContent,
		"field_schema": map[string]any{
			"type":      "text",
			"tokenizer": "word",
			"lowercase": true,
		},
	}
	return r.doJSON(ctx, "ensure_text_index", http.MethodPut, r.collectionPath("/index"), body, nil)
}

func (r *Retriever) verifyReady(ctx context.Context) error {
	const op = "bootstrap_verify"

	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), http.MethodGet, r.baseURL+"/readyz", nil)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build ready request failed", err)
	}
	r.authorize(req)
	resp, err := r.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "qdrant ready check failed", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("qdrant ready check returned status=%d", resp.StatusCode),
		}
	}
	return r.doJSON(ctx, op, http.MethodGet, r.collectionPath(""), nil, nil)
}

func (r *Retriever) authorize(req *http.Request) {
	if key := strings.TrimSpace(r.cfg.APIKey); key != "" {
		req.Header.Set("api-key", key)
	}
}

func (r *Retriever) doJSON(ctx context.Context, op, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return opErr(op, OperationErrorEncodeFailed, "encode request failed", err)
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, r.baseURL+path, body)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")
	r.authorize(req)

	resp, err := r.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "qdrant request failed", err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<22))
	if readErr != nil {
		return opErr(op, OperationErrorDecodeFailed, "read response failed", readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("qdrant http status=%d body=%q", resp.StatusCode, truncateBody(raw)),
		}
	}

	var envelope qdrantEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant envelope failed", err)
	}
	if statusErr := parseEnvelopeStatus(envelope.Status); statusErr != "" {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    statusErr,
		}
	}

	if out == nil || len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant result failed", err)
	}
	return nil
}

func classifyHTTPCallError(op, message string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	return opErr(op, OperationErrorTransportFailed, message, err)
}

func parseEnvelopeStatus(raw json.RawMessage) string {
	status := strings.TrimSpace(string(raw))
	if status == "" || status == "null" {
		return ""
	}

	var statusString string
	if err := json.Unmarshal(raw, &statusString); err == nil {
		if strings.EqualFold(statusString, "ok") {
			return ""
		}
		return fmt.Sprintf("qdrant status=%q", statusString)
	}

	var statusObject struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &statusObject); err == nil && strings.TrimSpace(statusObject.Error) != "" {
		return strings.TrimSpace(statusObject.Error)
	}
	return fmt.Sprintf("qdrant status=%s", status)
}

func truncateBody(raw []byte) string {
	if len(raw) <= maxErrorBodyBytes {
		return string(raw)
	}
	return string(raw[:maxErrorBodyBytes]) + "..."
}

func (r *Retriever) collectionPath(suffix string) string {
	return "/collections/" + r.cfg.Collection + suffix
}

// decodePointID renders a uuid or integer point id as a string.
func decodePointID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n uint64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatUint(n, 10)
	}
	return strings.TrimSpace(string(raw))
}
