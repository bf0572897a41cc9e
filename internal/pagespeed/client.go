package pagespeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/shyim/pagespeed-cwv/internal/models"
)

const DefaultEndpoint = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"

// APIError represents a non-2xx response from the PageSpeed API.
type APIError struct {
	StatusCode int
	Body       string // first 512 bytes
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

type Option func(*Client)

func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		endpoint: DefaultEndpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout:   120 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch runs one performance audit for site with the given strategy.
// Every failure is returned as an error; Fetch never panics on bad input.
func (c *Client) Fetch(ctx context.Context, site string, strategy models.Strategy) (*models.PageSpeedResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(site, strategy), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyStr := string(body)
		if len(bodyStr) > 512 {
			bodyStr = bodyStr[:512]
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Body: bodyStr}
	}

	var out models.PageSpeedResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

func (c *Client) requestURL(site string, strategy models.Strategy) string {
	params := url.Values{}
	params.Set("url", NormalizeURL(site))
	params.Set("strategy", string(strategy))
	params.Set("category", "performance")
	params.Set("key", c.apiKey)

	sep := "?"
	if strings.Contains(c.endpoint, "?") {
		sep = "&"
	}
	return c.endpoint + sep + params.Encode()
}

// NormalizeURL prefixes a bare host with https://.
func NormalizeURL(site string) string {
	if strings.HasPrefix(site, "http") {
		return site
	}
	return "https://" + site
}
