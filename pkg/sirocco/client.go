// Package sirocco is a client for the Sirocco Energy national forecasting API.
//
// Every operation validates its parameters, builds the endpoint URL with an
// ordered query string, performs a single GET and returns the decoded JSON
// body untouched. Failures come back as *Error values; nothing is retried
// and nothing is cached.
package sirocco

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/LuisTellezSirocco/sirocco-api-national/pkg/httpclient"
)

const (
	// APIVersion is the API version segment embedded in every endpoint URL.
	APIVersion = "v1.1"
	// DefaultBaseURL is the national API root.
	DefaultBaseURL = "https://api.sirocco.energy/national"
	// PlaceholderToken is sent when no personal token has been configured.
	PlaceholderToken = "your_personal_token_here"
	// DefaultTimezone is used when a call does not name one.
	DefaultTimezone = "UTC"
)

// Config is the static configuration shared by every call made through a Client.
type Config struct {
	BaseURL string
	Version string
	Token   string
}

// Client issues requests against the Sirocco API. It holds no mutable state
// and is safe for concurrent use.
type Client struct {
	cfg  Config
	http httpclient.Client
	log  Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default resty-backed transport.
func WithHTTPClient(c httpclient.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithLogger attaches a logger for request/response debug lines.
func WithLogger(log Logger) Option {
	return func(cl *Client) {
		cl.log = ensureLogger(log)
	}
}

// WithTimeout installs a resty transport with the given request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(cl *Client) {
		cl.http = httpclient.NewRestyClient(timeout)
	}
}

// New builds a Client, filling in defaults for empty config fields.
func New(cfg Config, opts ...Option) *Client {
	cfg = normalizeConfig(cfg)
	c := &Client{
		cfg:  cfg,
		http: httpclient.NewRestyClient(0),
		log:  noopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Config returns the normalized configuration the client was built with.
func (c *Client) Config() Config { return c.cfg }

func normalizeConfig(cfg Config) Config {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.Version = strings.Trim(strings.TrimSpace(cfg.Version), "/")
	if cfg.Version == "" {
		cfg.Version = APIVersion
	}
	cfg.Token = strings.TrimSpace(cfg.Token)
	if cfg.Token == "" {
		cfg.Token = PlaceholderToken
	}
	return cfg
}

// endpointURL renders <base>/<endpoint>/<version>/ plus the query, if any.
func (c *Client) endpointURL(endpoint string, q query) string {
	return c.cfg.BaseURL + "/" + endpoint + "/" + c.cfg.Version + "/" + q.encode()
}

// fetch is the single dispatch path behind every public operation.
func (c *Client) fetch(ctx context.Context, endpoint string, q query, authenticated bool) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	target := c.endpointURL(endpoint, q)

	headers := map[string]string{"Accept": "application/json"}
	if authenticated {
		headers["Authorization"] = c.cfg.Token
	}

	c.log.DebugObj("sirocco request", "sirocco_request", map[string]any{
		"endpoint": endpoint,
		"url":      target,
	})

	start := time.Now()
	resp, err := c.http.Get(ctx, target, headers)
	elapsed := time.Since(start)
	if err != nil {
		c.log.WarnObj("sirocco request failed", "sirocco_error", map[string]any{
			"endpoint":   endpoint,
			"elapsed_ms": elapsed.Milliseconds(),
			"error":      err.Error(),
		})
		return nil, transportError(err)
	}

	c.log.DebugObj("sirocco response", "sirocco_response", map[string]any{
		"endpoint":    endpoint,
		"status_code": resp.StatusCode(),
		"elapsed_ms":  elapsed.Milliseconds(),
	})

	if resp.StatusCode() != http.StatusOK {
		return nil, statusError(resp.StatusCode())
	}

	payload, err := decodePayload(resp.Body())
	if err != nil {
		return nil, transportError(err)
	}
	return payload, nil
}
