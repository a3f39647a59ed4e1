package services

import (
	"context"
	"strings"
	"sync"

	"github.com/yungbote/openlearn-backend/internal/platform/retrieval"
	"github.com/yungbote/openlearn-backend/internal/platform/wikipedia"
)

type fakeLLM struct {
	mu        sync.Mutex
	reply     string
	answer    string
	followups []string
	err       error
	prompts   []string
}

func (f *fakeLLM) Chat(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeLLM) ChatWithFollowups(_ context.Context, prompt string) (string, []string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", nil, f.err
	}
	return f.answer, f.followups, nil
}

type fakeSynthesizer struct {
	suggestions []Suggestion
	err         error
}

func (f *fakeSynthesizer) GenerateTree(context.Context, string, *string, []MaterialDescriptor) ([]Suggestion, error) {
	return f.suggestions, f.err
}

type fakeEnricher struct {
	mu        sync.Mutex
	calls     map[string]int
	summaries map[string]wikipedia.Summary
}

func newFakeEnricher() *fakeEnricher {
	return &fakeEnricher{calls: map[string]int{}, summaries: map[string]wikipedia.Summary{}}
}

func (f *fakeEnricher) FetchSummary(_ context.Context, topic string) wikipedia.Summary {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[strings.ToLower(topic)]++
	return f.summaries[topic]
}

func (f *fakeEnricher) callCount(topic string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[strings.ToLower(topic)]
}

type fakeRetriever struct {
	chunks     []retrieval.Chunk
	err        error
	calls      int
	query      string
	materialID int64
	topicID    *int64
	k          int
}

func (f *fakeRetriever) Search(_ context.Context, query string, materialID int64, topicID *int64, k int) ([]retrieval.Chunk, error) {
	f.calls++
	f.query, f.materialID, f.topicID, f.k = query, materialID, topicID, k
	return f.chunks, f.err
}

func strPtr(s string) *string { return &s }
