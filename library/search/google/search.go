// Package google provides access to the Google Programmable Search API.
package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"

	appLog "github.com/Laisky/agent-search-tools/library/log"
)

const (
	defaultEndpoint    = "https://www.googleapis.com/customsearch/v1"
	httpRequestTimeout = 10 * time.Second
	// logBodyLimit caps the number of response bytes logged for debugging.
	logBodyLimit = 4096
)

// Option configures the SearchEngine instance.
type Option func(*SearchEngine)

// WithHTTPClient overrides the HTTP client used to reach the Custom Search API.
func WithHTTPClient(client *http.Client) Option {
	return func(engine *SearchEngine) {
		if client != nil {
			engine.client = client
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger logSDK.Logger) Option {
	return func(engine *SearchEngine) {
		if logger != nil {
			engine.logger = logger
		}
	}
}

// WithEndpoint overrides the Custom Search endpoint, primarily for testing.
func WithEndpoint(endpoint string) Option {
	return func(engine *SearchEngine) {
		trimmed := strings.TrimSpace(endpoint)
		if trimmed != "" {
			engine.endpoint = trimmed
		}
	}
}

// SearchEngine queries the Google Programmable Search API.
type SearchEngine struct {
	apiKey   string
	cx       string
	endpoint string
	client   *http.Client
	logger   logSDK.Logger
}

// NewSearchEngine instantiates a Programmable Search client with the given credentials.
func NewSearchEngine(apiKey, cx string, opts ...Option) *SearchEngine {
	engine := &SearchEngine{
		apiKey:   strings.TrimSpace(apiKey),
		cx:       strings.TrimSpace(cx),
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: httpRequestTimeout},
		logger:   appLog.Logger.Named("google_search"),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(engine)
		}
	}

	return engine
}

// CustomSearchResponse models the JSON payload returned by the Custom Search API.
type CustomSearchResponse struct {
	Kind              string             `json:"kind"`
	SearchInformation *SearchInformation `json:"searchInformation,omitempty"`
	Items             []SearchResultItem `json:"items"`
}

// SearchInformation provides aggregate stats about a query.
type SearchInformation struct {
	SearchTime            float64 `json:"searchTime"`
	FormattedSearchTime   string  `json:"formattedSearchTime"`
	TotalResults          string  `json:"totalResults"`
	FormattedTotalResults string  `json:"formattedTotalResults"`
}

// SearchResultItem represents a single search result item.
type SearchResultItem struct {
	Kind        string   `json:"kind"`
	Title       string   `json:"title"`
	HTMLTitle   string   `json:"htmlTitle"`
	Link        string   `json:"link"`
	DisplayLink string   `json:"displayLink"`
	Snippet     string   `json:"snippet"`
	HTMLSnippet string   `json:"htmlSnippet"`
	Pagemap     *Pagemap `json:"pagemap,omitempty"`
}

// Pagemap carries the structured-data annotations attached to a result.
type Pagemap struct {
	CSEThumbnail []CSEThumbnail `json:"cse_thumbnail,omitempty"`
}

// CSEThumbnail is a preview image reported by the Custom Search engine.
// Width and height are decimal strings, as returned by the API.
type CSEThumbnail struct {
	Src    string `json:"src"`
	Width  string `json:"width"`
	Height string `json:"height"`
}

// Search executes a Google Programmable Search query and returns the parsed response.
func (se *SearchEngine) Search(ctx context.Context, query string) (*CustomSearchResponse, error) {
	if se.apiKey == "" {
		return nil, errors.New("google api key is not configured")
	}
	if se.cx == "" {
		return nil, errors.New("google search engine id (cx) is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, se.endpoint, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "create request to `%s`", se.endpoint)
	}

	params := req.URL.Query()
	params.Set("key", se.apiKey)
	params.Set("cx", se.cx)
	params.Set("q", query)
	req.URL.RawQuery = params.Encode()

	logger := se.logger
	if logger == nil {
		logger = appLog.Logger.Named("google_search")
	}

	// The request URL carries the API key; never log it verbatim.
	logger.Debug("outgoing http request",
		zap.String("method", req.Method),
		zap.String("url", redactKeyParam(req.URL)),
		zap.String("query", query),
	)

	startAt := time.Now()
	resp, err := se.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response body")
	}

	truncatedBody, truncated := truncateForLog(body, logBodyLimit)
	logger.Debug("incoming http response",
		zap.String("method", req.Method),
		zap.String("url", redactKeyParam(req.URL)),
		zap.Int("status", resp.StatusCode),
		zap.String("body", truncatedBody),
		zap.Bool("body_truncated", truncated),
		zap.Duration("cost", time.Since(startAt)),
		zap.String("query", query),
	)

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("google search returned status %d: %s", resp.StatusCode, truncatedBody)
	}

	result := new(CustomSearchResponse)
	if err := json.Unmarshal(body, result); err != nil {
		return nil, errors.Wrap(err, "unmarshal JSON response")
	}

	if len(result.Items) == 0 {
		logger.Warn("google search returned no results",
			zap.String("query", query),
			zap.Int("status", resp.StatusCode),
		)
	}

	return result, nil
}

// redactKeyParam replaces the `key` query parameter value so that request
// URLs can be logged without exposing the credential.
func redactKeyParam(u *url.URL) string {
	if u == nil {
		return ""
	}

	cloned := *u
	params := cloned.Query()
	if params.Get("key") != "" {
		params.Set("key", "REDACTED")
	}
	cloned.RawQuery = params.Encode()
	return cloned.String()
}

func truncateForLog(body []byte, limit int) (string, bool) {
	if len(body) <= limit {
		return string(body), false
	}
	return string(body[:limit]), true
}
