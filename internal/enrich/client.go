package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	defaultEndpoint   = "https://devapi.enformion.com/PersonSearch"
	defaultSearchType = "Person"
	maxResponseBytes  = 4 << 20
)

// Query keys one people-search lookup.
type Query struct {
	FirstName string
	LastName  string
	Address   string
}

// Client performs people-search lookups and returns the raw JSON document.
type Client interface {
	Search(ctx context.Context, q Query) ([]byte, error)
}

// SearchFunc adapts a function to the Client interface.
type SearchFunc func(ctx context.Context, q Query) ([]byte, error)

func (f SearchFunc) Search(ctx context.Context, q Query) ([]byte, error) { return f(ctx, q) }

// ClientConfig holds the static request settings of the people-search API.
type ClientConfig struct {
	Endpoint       string
	APName         string
	APPassword     string
	SearchType     string
	Timeout        time.Duration
	RequestsPerSec float64
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithLimiter overrides the outbound rate limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *httpClient) {
		c.limiter = l
	}
}

type httpClient struct {
	cfg     ClientConfig
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a people-search API client.
func NewClient(cfg ClientConfig, opts ...Option) Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.SearchType == "" {
		cfg.SearchType = defaultSearchType
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSec > 0 {
		limit = rate.Limit(cfg.RequestsPerSec)
	}
	c := &httpClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type searchRequest struct {
	FirstName string        `json:"FirstName,omitempty"`
	LastName  string        `json:"LastName"`
	Address   searchAddress `json:"Address"`
}

type searchAddress struct {
	AddressLine2 string `json:"addressLine2"`
}

func (c *httpClient) Search(ctx context.Context, q Query) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "enrich: rate limit wait")
	}

	body, err := json.Marshal(searchRequest{
		FirstName: q.FirstName,
		LastName:  q.LastName,
		Address:   searchAddress{AddressLine2: q.Address},
	})
	if err != nil {
		return nil, eris.Wrap(err, "enrich: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "enrich: create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("galaxy-ap-name", c.cfg.APName)
	req.Header.Set("galaxy-ap-password", c.cfg.APPassword)
	req.Header.Set("galaxy-search-type", c.cfg.SearchType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "enrich: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, eris.Wrap(err, "enrich: read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, eris.Errorf("enrich: unexpected status %d: %s", resp.StatusCode, clip(string(respBody), 256))
	}
	return respBody, nil
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
