package rates

import (
	"crypto/tls"
	"net/http"
	"time"
)

// userAgent is sent to bureau sites, several of which reject Go's default.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

type uaTransport struct {
	next http.RoundTripper
}

func (t uaTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if r.Header.Get("User-Agent") == "" {
		r = r.Clone(r.Context())
		r.Header.Set("User-Agent", userAgent)
		r.Header.Set("Accept-Language", "tr-TR,tr;q=0.9,en;q=0.8")
	}
	return t.next.RoundTrip(r)
}

// NewHTTPClient creates the client used to reach bureau sites and the
// reference feeds. Set skipTLSVerify for bureaus with broken certificate
// chains.
func NewHTTPClient(timeout time.Duration, skipTLSVerify bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if skipTLSVerify {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: uaTransport{next: transport},
	}
}

// DefaultHTTPClient returns a bureau client with a 15s timeout.
func DefaultHTTPClient() *http.Client {
	return NewHTTPClient(15*time.Second, false)
}
