// Package client talks to the fxratemanager HTTP API.
package client

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bher20/fxratemanager/internal/rates"
)

// RatesPath is the snapshot endpoint relative to the backend base URL.
const RatesPath = "/api/rates"

// Client fetches rate snapshots from a backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	maxRetries   int
	retryBackoff time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a client for the backend at baseURL. Failed fetches are
// not retried by default; the polling cadence is the retry.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:       slog.Default(),
		retryBackoff: 250 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// BaseURL returns the backend base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchSnapshot performs GET {base}/api/rates. Every failure is returned as
// a *FetchError.
func (c *Client) FetchSnapshot(ctx context.Context) (*rates.Snapshot, error) {
	var snap rates.Snapshot
	if err := c.get(ctx, RatesPath, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
