package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yungbote/openlearn-backend/internal/observability"
	"github.com/yungbote/openlearn-backend/internal/platform/httpx"
	"github.com/yungbote/openlearn-backend/internal/platform/logger"
)

const (
	defaultLanguage = "en"
	defaultTimeout  = 10 * time.Second
	userAgent       = "openlearn-backend/1.0 (enrichment)"
)

// Summary is the short description of a topic. Empty fields mean none.
type Summary struct {
	Extract string `json:"extract,omitempty"`
	URL     string `json:"url,omitempty"`
}

func (s Summary) Empty() bool { return s.Extract == "" && s.URL == "" }

type Config struct {
	Language string
	// BaseURL overrides https://<lang>.wikipedia.org/api/rest_v1/page/summary/.
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type Client struct {
	log        *logger.Logger
	baseURL    string
	language   string
	httpClient *http.Client
}

func NewClient(log *logger.Logger, cfg Config) *Client {
	lang := strings.ToLower(strings.TrimSpace(cfg.Language))
	if lang == "" {
		lang = defaultLanguage
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = fmt.Sprintf("https://%s.wikipedia.org/api/rest_v1/page/summary/", lang)
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		log:        log.With("client", "WikipediaClient"),
		baseURL:    base,
		language:   lang,
		httpClient: hc,
	}
}

func (c *Client) Language() string { return c.language }

type summaryResponse struct {
	Extract     string `json:"extract"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// FetchSummary never fails; lookup problems yield an empty Summary.
func (c *Client) FetchSummary(ctx context.Context, topic string) Summary {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Summary{}
	}
	s, err := c.fetch(ctx, topic)
	if err != nil {
		observability.Current().IncEnrichment("error")
		c.log.Debug("wikipedia lookup failed", "topic", topic, "error", err.Error())
		return Summary{}
	}
	if s.Empty() {
		observability.Current().IncEnrichment("miss")
	} else {
		observability.Current().IncEnrichment("hit")
	}
	return s
}

func (c *Client) fetch(ctx context.Context, topic string) (Summary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+url.PathEscape(topic), nil)
	if err != nil {
		return Summary{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Summary{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Summary{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Summary{}, &httpx.StatusError{Service: "wikipedia", StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out summaryResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Summary{}, fmt.Errorf("wikipedia decode: %w", err)
	}
	return Summary{
		Extract: strings.TrimSpace(out.Extract),
		URL:     strings.TrimSpace(out.ContentURLs.Desktop.Page),
	}, nil
}
