// Package gong provides access to the Gong call-recording API: keyword call
// search with cursor pagination, per-call transcript retrieval, and bounded
// rate-limit retries.
package gong

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"

	appLog "github.com/Laisky/agent-search-tools/library/log"
)

const (
	// DefaultBaseURL is the regional Gong API endpoint used when none is configured.
	DefaultBaseURL = "https://us-13359.api.gong.io"
	// DefaultLimit caps the number of calls returned when the caller does not supply one.
	DefaultLimit = 10
	// NoTranscriptSentinel replaces the transcript snippet when the transcript
	// cannot be fetched for a call.
	NoTranscriptSentinel = "No transcript available"

	defaultMaxRetries  = 3
	defaultRetryAfter  = time.Second
	httpRequestTimeout = 30 * time.Second
	snippetLimit       = 200
	// logBodyLimit caps the number of response bytes logged for debugging.
	logBodyLimit = 4096
)

// ErrNoCredentials reports that neither an access key pair nor a bearer token
// is configured. It is returned before any network call is made.
var ErrNoCredentials = errors.New("gong credentials are not configured: set access key and secret, or a bearer token")

// StatusError reports a non-success response from the Gong API, including a
// 429 that survived the retry budget.
type StatusError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("gong returned status %d: %s", e.StatusCode, e.Body)
}

// Credentials holds the two supported authentication modes. Exactly one mode
// is active: the key pair takes precedence over the bearer token.
type Credentials struct {
	AccessKey       string
	AccessKeySecret string
	BearerToken     string
}

// AuthorizationHeader selects the active credential mode and renders the
// Authorization header value. It returns ErrNoCredentials when neither mode
// is configured.
func (c Credentials) AuthorizationHeader() (string, error) {
	key := strings.TrimSpace(c.AccessKey)
	secret := strings.TrimSpace(c.AccessKeySecret)
	if key != "" && secret != "" {
		token := base64.StdEncoding.EncodeToString([]byte(key + ":" + secret))
		return "Basic " + token, nil
	}

	if bearer := strings.TrimSpace(c.BearerToken); bearer != "" {
		return "Bearer " + bearer, nil
	}

	return "", ErrNoCredentials
}

// Option configures the Client instance.
type Option func(*Client)

// WithBaseURL overrides the regional API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(client *Client) {
		trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
		if trimmed != "" {
			client.baseURL = trimmed
		}
	}
}

// WithHTTPClient overrides the HTTP client used to reach the Gong API.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(client *Client) {
		if httpClient != nil {
			client.client = httpClient
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger logSDK.Logger) Option {
	return func(client *Client) {
		if logger != nil {
			client.logger = logger
		}
	}
}

// WithMaxRetries adjusts how many additional attempts a rate-limited request
// is granted. The cap applies uniformly to the initial search, every
// pagination page, and every transcript fetch.
func WithMaxRetries(retries int) Option {
	return func(client *Client) {
		if retries >= 0 {
			client.maxRetries = retries
		}
	}
}

// WithSleeper replaces the backoff sleep function, primarily for testing.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(client *Client) {
		if sleep != nil {
			client.sleep = sleep
		}
	}
}

// Client calls the Gong API. It is stateless across invocations; every
// Search call carries its own cursor and retry bookkeeping.
type Client struct {
	creds      Credentials
	baseURL    string
	client     *http.Client
	logger     logSDK.Logger
	maxRetries int
	sleep      func(time.Duration)
}

// NewClient constructs a Gong API client with the provided credentials.
func NewClient(creds Credentials, opts ...Option) *Client {
	client := &Client{
		creds:      creds,
		baseURL:    DefaultBaseURL,
		client:     &http.Client{Timeout: httpRequestTimeout},
		logger:     appLog.Logger.Named("gong_search"),
		maxRetries: defaultMaxRetries,
		sleep:      time.Sleep,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client
}

// Query describes one call-search invocation. FromDate and ToDate must already
// be normalized ISO-8601 timestamps (see NormalizeDate); empty values are
// omitted from the request. Limit must be non-negative; callers supply the
// default when the input leaves it unset.
type Query struct {
	Keywords    string
	FromDate    string
	ToDate      string
	Limit       int
	WorkspaceID string
}

// Party identifies a call participant.
type Party struct {
	Name string `json:"name"`
}

// Call holds the metadata of a single call returned by the search endpoint.
type Call struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Started         string  `json:"started"`
	DurationSeconds int     `json:"durationSeconds"`
	Parties         []Party `json:"parties"`
	URL             string  `json:"url"`
	Context         string  `json:"context,omitempty"`
}

// CallResult pairs a call with its transcript snippet.
type CallResult struct {
	Call
	Snippet string
}

var dateOnlyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// NormalizeDate rewrites a user-supplied date into the ISO-8601 timestamp
// shape expected by the Gong API. A value that already carries a time and
// zone marker passes through unchanged, a bare YYYY-MM-DD date is expanded to
// midnight UTC, and anything else yields an empty string. The function is
// idempotent over its own output.
func NormalizeDate(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	if idx := strings.Index(trimmed, "T"); idx >= 0 {
		rest := trimmed[idx+1:]
		if strings.ContainsAny(rest, "Zz+") || strings.Contains(rest, "-") {
			return trimmed
		}
		return ""
	}

	if dateOnlyPattern.MatchString(trimmed) {
		return trimmed + "T00:00:00Z"
	}

	return ""
}

type searchRequest struct {
	Filter searchFilter `json:"filter"`
	Limit  int          `json:"limit,omitempty"`
	Cursor string       `json:"cursor,omitempty"`
}

type searchFilter struct {
	Keywords    string     `json:"keywords"`
	DateRange   *dateRange `json:"dateRange,omitempty"`
	WorkspaceID string     `json:"workspaceId,omitempty"`
}

type dateRange struct {
	FromDateTime string `json:"fromDateTime,omitempty"`
	ToDateTime   string `json:"toDateTime,omitempty"`
}

type searchResponse struct {
	Calls   []Call `json:"calls"`
	Records struct {
		Cursor string `json:"cursor"`
	} `json:"records"`
}

type transcriptResponse struct {
	Transcript []transcriptSegment `json:"transcript"`
}

type transcriptSegment struct {
	SpeakerName string `json:"speakerName"`
	Text        string `json:"text"`
}

// Search runs the full call-search sequence: credential selection, cursor
// pagination up to the query limit, and one transcript fetch per retained
// call. A transcript fetch that fails only degrades that record to the
// sentinel snippet; any other failure aborts the whole invocation.
func (c *Client) Search(ctx context.Context, q Query) ([]CallResult, error) {
	authHeader, err := c.creds.AuthorizationHeader()
	if err != nil {
		return nil, err
	}

	keywords := strings.TrimSpace(q.Keywords)
	if keywords == "" {
		return nil, errors.New("keywords cannot be empty")
	}
	if q.Limit < 0 {
		return nil, errors.Errorf("limit cannot be negative, got %d", q.Limit)
	}

	logger := c.logger
	if logger == nil {
		logger = appLog.Logger.Named("gong_search")
	}

	if q.Limit == 0 {
		return []CallResult{}, nil
	}

	calls, err := c.collectCalls(ctx, logger, q, keywords, authHeader)
	if err != nil {
		return nil, err
	}

	results := make([]CallResult, 0, len(calls))
	for _, call := range calls {
		snippet := c.transcriptSnippet(ctx, logger, call.ID, authHeader)
		results = append(results, CallResult{Call: call, Snippet: snippet})
	}

	return results, nil
}

// collectCalls pages through the search endpoint until the cursor runs out or
// enough calls are accumulated, then truncates to the query limit.
func (c *Client) collectCalls(ctx context.Context, logger logSDK.Logger, q Query, keywords, authHeader string) ([]Call, error) {
	filter := searchFilter{
		Keywords:    keywords,
		WorkspaceID: strings.TrimSpace(q.WorkspaceID),
	}
	if q.FromDate != "" || q.ToDate != "" {
		filter.DateRange = &dateRange{
			FromDateTime: q.FromDate,
			ToDateTime:   q.ToDate,
		}
	}

	var collected []Call
	cursor := ""
	page := 0

	for {
		payload := searchRequest{
			Filter: filter,
			Limit:  q.Limit,
			Cursor: cursor,
		}

		body, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "marshal search request")
		}

		status, respBody, err := c.doWithRetry(ctx, logger, func() (*http.Request, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost,
				c.baseURL+"/v2/calls/search", bytes.NewReader(body))
			if err != nil {
				return nil, errors.Wrap(err, "create search request")
			}
			req.Header.Set("Authorization", authHeader)
			req.Header.Set("Content-Type", "application/json")
			return req, nil
		})
		if err != nil {
			return nil, err
		}
		if status < http.StatusOK || status >= http.StatusMultipleChoices {
			truncated, _ := truncateForLog(respBody, logBodyLimit)
			return nil, &StatusError{StatusCode: status, Body: truncated}
		}

		var parsed searchResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return nil, errors.Wrap(err, "unmarshal search response")
		}

		collected = append(collected, parsed.Calls...)
		cursor = parsed.Records.Cursor
		page++

		logger.Debug("gong search page fetched",
			zap.Int("page", page),
			zap.Int("calls", len(parsed.Calls)),
			zap.Int("collected", len(collected)),
			zap.Bool("has_cursor", cursor != ""),
		)

		if cursor == "" || len(collected) >= q.Limit {
			break
		}
	}

	if len(collected) > q.Limit {
		collected = collected[:q.Limit]
	}

	return collected, nil
}

// transcriptSnippet fetches and assembles the transcript for one call. Any
// failure degrades to the sentinel snippet instead of failing the invocation,
// since transcripts are best-effort per call.
func (c *Client) transcriptSnippet(ctx context.Context, logger logSDK.Logger, callID, authHeader string) string {
	status, body, err := c.doWithRetry(ctx, logger, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			c.baseURL+"/v2/calls/"+callID+"/transcript", nil)
		if err != nil {
			return nil, errors.Wrap(err, "create transcript request")
		}
		req.Header.Set("Authorization", authHeader)
		return req, nil
	})
	if err != nil {
		logger.Warn("gong transcript fetch failed",
			zap.String("call_id", callID), zap.Error(err))
		return NoTranscriptSentinel
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		logger.Warn("gong transcript fetch returned non-success status",
			zap.String("call_id", callID), zap.Int("status", status))
		return NoTranscriptSentinel
	}

	var parsed transcriptResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		logger.Warn("gong transcript response malformed",
			zap.String("call_id", callID), zap.Error(err))
		return NoTranscriptSentinel
	}

	joined := joinTranscript(parsed.Transcript)
	if joined == "" {
		return NoTranscriptSentinel
	}

	return truncateSnippet(joined)
}

// doWithRetry issues the request, retrying on HTTP 429 up to the configured
// cap while honouring the Retry-After hint. After the budget is spent the
// last response is returned as-is so its status surfaces to the caller.
func (c *Client) doWithRetry(ctx context.Context, logger logSDK.Logger, newRequest func() (*http.Request, error)) (int, []byte, error) {
	for attempt := 0; ; attempt++ {
		req, err := newRequest()
		if err != nil {
			return 0, nil, err
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return 0, nil, errors.Wrap(err, "send request")
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return 0, nil, errors.Wrap(err, "read response body")
		}

		if resp.StatusCode != http.StatusTooManyRequests || attempt >= c.maxRetries {
			return resp.StatusCode, body, nil
		}

		delay := retryAfter(resp.Header)
		logger.Warn("gong rate limited, backing off",
			zap.String("url", req.URL.Path),
			zap.Duration("retry_after", delay),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", c.maxRetries),
		)
		c.sleep(delay)
	}
}

// retryAfter reads the Retry-After hint in seconds, defaulting to one second
// when absent or malformed.
func retryAfter(header http.Header) time.Duration {
	raw := strings.TrimSpace(header.Get("Retry-After"))
	if raw == "" {
		return defaultRetryAfter
	}

	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return defaultRetryAfter
	}

	return time.Duration(seconds) * time.Second
}

// joinTranscript renders transcript segments as "speaker: text" lines.
// Segments with empty text are skipped and a missing speaker defaults to
// "Unknown".
func joinTranscript(segments []transcriptSegment) string {
	lines := make([]string, 0, len(segments))
	for _, segment := range segments {
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}

		speaker := strings.TrimSpace(segment.SpeakerName)
		if speaker == "" {
			speaker = "Unknown"
		}

		lines = append(lines, speaker+": "+text)
	}

	return strings.Join(lines, "\n")
}

// truncateSnippet caps the snippet at snippetLimit characters, appending an
// ellipsis when truncation occurred.
func truncateSnippet(s string) string {
	runes := []rune(s)
	if len(runes) <= snippetLimit {
		return s
	}

	return string(runes[:snippetLimit]) + "..."
}

func truncateForLog(body []byte, limit int) (string, bool) {
	if len(body) <= limit {
		return string(body), false
	}
	return string(body[:limit]), true
}
