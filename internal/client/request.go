package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"
)

const maxBodyBytes = 4 << 20

// FetchError is the single failure kind of a snapshot fetch: a transport
// error, a timeout, a non-2xx status, or a body that does not decode.
// StatusCode is zero when no response was received.
type FetchError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether repeating the request could succeed.
func (e *FetchError) IsRetryable() bool {
	if errors.Is(e.Err, context.Canceled) {
		return false
	}
	return e.StatusCode == 0 || e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// doRequest performs a single GET and returns the body and status of a 2xx
// response.
func (c *Client) doRequest(ctx context.Context, path string) ([]byte, int, error) {
	fullURL := c.baseURL + path
	fail := func(status int, err error) error {
		return &FetchError{Op: "GET", URL: fullURL, StatusCode: status, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, 0, fail(0, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fail(0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fail(resp.StatusCode, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, fail(resp.StatusCode, errors.New(http.StatusText(resp.StatusCode)))
	}

	return body, resp.StatusCode, nil
}

// doWithRetry performs a request with exponential backoff retry.
func (c *Client) doWithRetry(ctx context.Context, path string) ([]byte, int, error) {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			jitter := backoff/2 + time.Duration(rand.Int63n(int64(backoff)+1))
			c.logger.Debug("retrying request",
				"attempt", attempt,
				"backoff", jitter,
				"path", path,
			)

			select {
			case <-ctx.Done():
				return nil, 0, &FetchError{Op: "GET", URL: c.baseURL + path, Err: ctx.Err()}
			case <-time.After(jitter):
			}

			backoff *= 2
		}

		body, status, err := c.doRequest(ctx, path)
		if err == nil {
			return body, status, nil
		}
		lastErr = err

		var fe *FetchError
		if !errors.As(err, &fe) || !fe.IsRetryable() {
			return nil, status, err
		}
	}

	return nil, 0, lastErr
}

// get performs a GET request and decodes the JSON body into result.
func (c *Client) get(ctx context.Context, path string, result any) error {
	body, status, err := c.doWithRetry(ctx, path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, result); err != nil {
		return &FetchError{Op: "GET", URL: c.baseURL + path, StatusCode: status, Err: fmt.Errorf("decode response: %w", err)}
	}

	return nil
}
