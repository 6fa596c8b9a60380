package bureaus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const (
	// DefaultReferenceURL returns TRY-based cross rates.
	DefaultReferenceURL = "https://api.exchangerate-api.com/v4/latest/TRY"
	// DefaultGoldSpotURL returns the USD spot price of one troy ounce.
	DefaultGoldSpotURL = "https://api.gold-api.com/price/XAU"

	// FallbackGoldUSD is used for local gold pricing when the spot feed is down.
	FallbackGoldUSD = 2650.0

	maxBodyBytes = 2 << 20
)

// ReferenceClient fetches mid-market reference data shared by the
// synthetic bureaus. Results are cached for ttl so that one collection
// hits each upstream at most once.
type ReferenceClient struct {
	httpClient *http.Client
	ratesURL   string
	goldURL    string
	ttl        time.Duration
	now        func() time.Time

	mu      sync.Mutex
	rates   map[string]float64
	ratesAt time.Time
	gold    float64
	goldAt  time.Time
}

// ReferenceOption configures a ReferenceClient.
type ReferenceOption func(*ReferenceClient)

// WithReferenceURLs overrides the upstream endpoints. Empty values keep the defaults.
func WithReferenceURLs(ratesURL, goldURL string) ReferenceOption {
	return func(c *ReferenceClient) {
		if ratesURL != "" {
			c.ratesURL = ratesURL
		}
		if goldURL != "" {
			c.goldURL = goldURL
		}
	}
}

// WithReferenceTTL sets how long fetched reference data is reused.
func WithReferenceTTL(d time.Duration) ReferenceOption {
	return func(c *ReferenceClient) {
		c.ttl = d
	}
}

// NewReferenceClient creates a ReferenceClient.
func NewReferenceClient(hc *http.Client, opts ...ReferenceOption) *ReferenceClient {
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	c := &ReferenceClient{
		httpClient: hc,
		ratesURL:   DefaultReferenceURL,
		goldURL:    DefaultGoldSpotURL,
		ttl:        30 * time.Second,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TRYRates returns how many TRY one unit of each currency costs.
func (c *ReferenceClient) TRYRates(ctx context.Context) (map[string]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rates != nil && c.now().Sub(c.ratesAt) < c.ttl {
		return c.rates, nil
	}

	var body struct {
		Base  string             `json:"base"`
		Rates map[string]float64 `json:"rates"`
	}
	if err := c.getJSON(ctx, c.ratesURL, &body); err != nil {
		return nil, fmt.Errorf("reference rates: %w", err)
	}
	if len(body.Rates) == 0 {
		return nil, fmt.Errorf("reference rates: empty rates object")
	}

	// The feed is quoted per TRY; invert to TRY per unit.
	out := make(map[string]float64, len(body.Rates))
	for code, v := range body.Rates {
		if v > 0 {
			out[code] = 1 / v
		}
	}
	c.rates = out
	c.ratesAt = c.now()
	return out, nil
}

// GoldSpotUSD returns the USD price of one troy ounce of gold.
func (c *ReferenceClient) GoldSpotUSD(ctx context.Context) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gold > 0 && c.now().Sub(c.goldAt) < c.ttl {
		return c.gold, nil
	}

	var body struct {
		Price float64 `json:"price"`
	}
	if err := c.getJSON(ctx, c.goldURL, &body); err != nil {
		return 0, fmt.Errorf("gold spot: %w", err)
	}
	if body.Price <= 0 {
		return 0, fmt.Errorf("gold spot: non-positive price %v", body.Price)
	}
	c.gold = body.Price
	c.goldAt = c.now()
	return body.Price, nil
}

func (c *ReferenceClient) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
