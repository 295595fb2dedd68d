package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/github-sensor/internal/core/ports/driven"
	"github.com/custodia-labs/github-sensor/internal/logger"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultBaseURL is the public GitHub REST API endpoint.
	DefaultBaseURL = "https://api.github.com"

	// DefaultPerPage is the page size requested from list endpoints.
	DefaultPerPage = 50

	// DefaultMaxPages is the hard cap on pages fetched per backfill sweep.
	// It bounds the cost of a sweep against very active repositories; items
	// beyond the cap are picked up by a later sweep once the cursor advances.
	DefaultMaxPages = 10

	// apiVersion is sent in the X-GitHub-Api-Version header.
	apiVersion = "2022-11-28"

	acceptHeader = "application/vnd.github+json"
)

// ClientConfig holds the tunable parameters of the API client.
// Zero values fall back to the package defaults.
type ClientConfig struct {
	BaseURL  string
	PerPage  int
	MaxPages int
}

// Client performs conditional, paginated, rate-limited requests against
// the GitHub REST API.
type Client struct {
	cfg           ClientConfig
	tokenProvider driven.TokenProvider
	rateLimiter   *RateLimiter

	mu   sync.Mutex
	http *http.Client
}

// NewClient creates a new GitHub API client with a token provider.
func NewClient(cfg ClientConfig, tokenProvider driven.TokenProvider) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = DefaultPerPage
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	return &Client{
		cfg:           cfg,
		tokenProvider: tokenProvider,
		rateLimiter:   NewRateLimiter(),
	}
}

// ensureClient initializes the HTTP client if not already done.
// This is called lazily so we can get the token when needed.
func (c *Client) ensureClient(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.http != nil {
		return nil
	}

	token, err := c.tokenProvider.GetToken(ctx)
	if err != nil {
		return fmt.Errorf("get token: %w", err)
	}

	if token == "" {
		logger.Warn("No API token configured, using unauthenticated requests (60/hour limit)")
		c.http = &http.Client{Timeout: DefaultTimeout}
		return nil
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(context.Background(), ts)
	tc.Timeout = DefaultTimeout
	c.http = tc

	return nil
}

// get performs a single rate-limited GET. When priorETag is non-empty it
// is attached as If-None-Match. The caller owns the response body.
func (c *Client) get(ctx context.Context, path string, params url.Values, priorETag string) (*http.Response, error) {
	if err := c.ensureClient(ctx); err != nil {
		return nil, err
	}

	reqURL := c.cfg.BaseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if priorETag != "" {
		req.Header.Set("If-None-Match", priorETag)
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", reqURL, err)
	}

	if rlErr := c.rateLimiter.CheckRateLimit(resp); rlErr != nil {
		drainBody(resp)
		return nil, rlErr
	}

	return resp, nil
}

// fetchObject fetches a single JSON object resource conditionally.
// On 304 it returns (nil, priorETag, true, nil).
func (c *Client) fetchObject(ctx context.Context, path, priorETag string) (map[string]any, string, bool, error) {
	resp, err := c.get(ctx, path, nil, priorETag)
	if err != nil {
		return nil, "", false, err
	}
	defer drainBody(resp)

	if resp.StatusCode == http.StatusNotModified {
		return nil, priorETag, true, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", false, responseError(resp)
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, "", false, fmt.Errorf("decode %s: %w", path, err)
	}

	return payload, responseETag(resp, priorETag), false, nil
}

// fetchList fetches a paginated JSON array resource. Only the first page
// is conditional; a 304 on it short-circuits the whole fetch. Pagination
// stops on an empty page, a short page, a Link header with no "next"
// relation, or the page cap. A failure on any page fails the whole fetch
// with no partial results.
func (c *Client) fetchList(ctx context.Context, path string, params url.Values, priorETag string) ([]json.RawMessage, string, bool, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("per_page", strconv.Itoa(c.cfg.PerPage))

	var (
		all  []json.RawMessage
		etag = priorETag
	)

	for page := 1; page <= c.cfg.MaxPages; page++ {
		params.Set("page", strconv.Itoa(page))

		conditional := ""
		if page == 1 {
			conditional = priorETag
		}

		resp, err := c.get(ctx, path, params, conditional)
		if err != nil {
			return nil, "", false, err
		}

		if page == 1 && resp.StatusCode == http.StatusNotModified {
			drainBody(resp)
			return nil, priorETag, true, nil
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			err := responseError(resp)
			drainBody(resp)
			return nil, "", false, err
		}
		if page == 1 {
			etag = responseETag(resp, priorETag)
		}

		var items []json.RawMessage
		decodeErr := json.NewDecoder(resp.Body).Decode(&items)
		link := resp.Header.Get("Link")
		drainBody(resp)
		if decodeErr != nil {
			return nil, "", false, fmt.Errorf("decode %s page %d: %w", path, page, decodeErr)
		}

		if len(items) == 0 {
			break
		}
		all = append(all, items...)

		if len(items) < c.cfg.PerPage {
			break
		}
		if link != "" && !HasNextPage(link) {
			break
		}
	}

	return all, etag, false, nil
}

// responseETag returns the ETag from the response, keeping the prior
// value when the server omitted the header.
func responseETag(resp *http.Response, prior string) string {
	if etag := resp.Header.Get("ETag"); etag != "" {
		return etag
	}
	return prior
}

// responseError converts a non-2xx response into a FetchError, folding
// in the start of the body as the message.
func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	message := http.StatusText(resp.StatusCode)
	var ghErr struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &ghErr) == nil && ghErr.Message != "" {
		message = ghErr.Message
	}

	reqURL := ""
	if resp.Request != nil && resp.Request.URL != nil {
		reqURL = resp.Request.URL.String()
	}

	return &FetchError{
		StatusCode: resp.StatusCode,
		Message:    message,
		URL:        reqURL,
	}
}

// drainBody discards and closes the response body so the underlying
// connection can be reused.
func drainBody(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
