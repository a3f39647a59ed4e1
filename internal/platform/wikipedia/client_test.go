package wikipedia

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

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

func summaryServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		switch r.URL.EscapedPath() {
		case "/Linear%20algebra":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"title":"Linear algebra","extract":"Linear algebra is the branch of mathematics concerning linear equations.","content_urls":{"desktop":{"page":"https://en.wikipedia.org/wiki/Linear_algebra"}}}`))
		case "/Broken":
			_, _ = w.Write([]byte(`{not json`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"type":"not_found"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchSummary(t *testing.T) {
	srv := summaryServer(t, nil)
	c := NewClient(testLogger(t), Config{BaseURL: srv.URL})

	got := c.FetchSummary(context.Background(), "Linear algebra")
	if got.Extract == "" || got.URL != "https://en.wikipedia.org/wiki/Linear_algebra" {
		t.Fatalf("summary: got=%+v", got)
	}

	for _, topic := range []string{"Nope", "Broken", "", "   "} {
		if s := c.FetchSummary(context.Background(), topic); !s.Empty() {
			t.Fatalf("topic %q: want empty got=%+v", topic, s)
		}
	}
}

func TestFetchSummaryUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	c := NewClient(testLogger(t), Config{BaseURL: base})
	if s := c.FetchSummary(context.Background(), "Vectors"); !s.Empty() {
		t.Fatalf("want empty summary, got=%+v", s)
	}
}

func TestDefaultBaseURL(t *testing.T) {
	c := NewClient(testLogger(t), Config{Language: "DE"})
	if c.baseURL != "https://de.wikipedia.org/api/rest_v1/page/summary/" {
		t.Fatalf("base url: got=%s", c.baseURL)
	}
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return b, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func TestCachedClient(t *testing.T) {
	var calls atomic.Int32
	srv := summaryServer(t, &calls)
	cache := newMemCache()
	c := NewCachedClient(testLogger(t), NewClient(testLogger(t), Config{BaseURL: srv.URL}), cache, time.Hour)

	first := c.FetchSummary(context.Background(), "Linear algebra")
	second := c.FetchSummary(context.Background(), "Linear algebra")
	if first != second || first.Empty() {
		t.Fatalf("cached summary mismatch: first=%+v second=%+v", first, second)
	}
	if calls.Load() != 1 {
		t.Fatalf("upstream calls: want=1 got=%d", calls.Load())
	}
	key := CacheKey("en", "Linear algebra")
	if cache.ttls[key] != time.Hour {
		t.Fatalf("ttl: want=1h got=%v", cache.ttls[key])
	}

	c.FetchSummary(context.Background(), "Missing")
	c.FetchSummary(context.Background(), "Missing")
	if calls.Load() != 3 {
		t.Fatalf("empty summaries must not be cached: calls=%d", calls.Load())
	}
}
