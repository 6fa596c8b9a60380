package bureaus

import (
	"context"
	"net/http"
	"time"

	"github.com/bher20/fxratemanager/pkg/providers"
)

// Quote is one bureau's buy/sell price for a currency.
type Quote struct {
	Buy  float64 `json:"buy" yaml:"buy"`
	Sell float64 `json:"sell" yaml:"sell"`
}

// Bureau is the interface that all rate-quoting bureaus must implement.
type Bureau interface {
	providers.Provider

	// FetchQuotes returns the bureau's current quotes keyed by currency code.
	// Currencies the bureau does not quote are simply absent.
	FetchQuotes(ctx context.Context) (map[string]Quote, error)
}

// Descriptor configures a bureau instance. Kind selects the implementation.
type Descriptor struct {
	Key     string           `json:"key" yaml:"key"`
	Name    string           `json:"name" yaml:"name"`
	URL     string           `json:"url" yaml:"url"`
	Group   providers.Group  `json:"group" yaml:"group"`
	Kind    string           `json:"kind" yaml:"kind"`
	Spread  float64          `json:"spread,omitempty" yaml:"spread,omitempty"`
	Premium float64          `json:"premium,omitempty" yaml:"premium,omitempty"`
	Quotes  map[string]Quote `json:"quotes,omitempty" yaml:"quotes,omitempty"`
}

// Env carries the shared collaborators handed to every bureau factory.
type Env struct {
	HTTPClient *http.Client
	Reference  *ReferenceClient
}

// base implements providers.Provider from a Descriptor.
type base struct {
	d Descriptor
}

func (b base) Key() string { return b.d.Key }
func (b base) Name() string { return b.d.Name }
func (b base) Group() providers.Group { return b.d.Group }
func (b base) LandingURL() string { return b.d.URL }
func (b base) Descriptor() Descriptor { return b.d }
func (b base) String() string { return b.d.Key + " (" + b.d.Kind + ")" }

const defaultTimeout = 15 * time.Second

func httpClient(env Env) *http.Client {
	if env.HTTPClient != nil {
		return env.HTTPClient
	}
	return &http.Client{Timeout: defaultTimeout}
}
