package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// DefaultTavilyEndpoint is the Tavily search API.
const DefaultTavilyEndpoint = "https://api.tavily.com/search"

// Tavily queries the Tavily search API.
type Tavily struct {
	apiKey   string
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// TavilyOption configures a Tavily client.
type TavilyOption func(*Tavily)

// WithEndpoint overrides the API URL.
func WithEndpoint(endpoint string) TavilyOption {
	return func(t *Tavily) {
		t.endpoint = endpoint
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) TavilyOption {
	return func(t *Tavily) {
		if client != nil {
			t.client = client
		}
	}
}

// WithRateLimit caps outgoing requests. A non-positive rate disables the cap.
func WithRateLimit(requestsPerSecond float64, burst int) TavilyOption {
	return func(t *Tavily) {
		t.limiter = newLimiter(requestsPerSecond, burst)
	}
}

func newLimiter(requestsPerSecond float64, burst int) *rate.Limiter {
	if requestsPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// NewTavily creates a client authenticated with apiKey.
func NewTavily(apiKey string, opts ...TavilyOption) *Tavily {
	t := &Tavily{
		apiKey:   apiKey,
		endpoint: DefaultTavilyEndpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
		limiter:  newLimiter(1, 1),
		logger:   slog.Default().With("component", "tavily"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type tavilyRequest struct {
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type tavilyResponse struct {
	Results []Result `json:"results"`
}

// Search posts query to Tavily and returns up to maxResults hits.
func (t *Tavily) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if maxResults < 1 {
		maxResults = 1
	}
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(tavilyRequest{Query: query, MaxResults: maxResults, SearchDepth: "basic"})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	t.logger.Debug("searching", "query", query, "max_results", maxResults)
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrSearchFailed, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var decoded tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", ErrSearchFailed, err)
	}
	if len(decoded.Results) > maxResults {
		decoded.Results = decoded.Results[:maxResults]
	}
	return decoded.Results, nil
}
