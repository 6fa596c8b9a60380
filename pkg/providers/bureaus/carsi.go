package bureaus

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/bher20/fxratemanager/pkg/providers"
	"github.com/bher20/fxratemanager/pkg/providers/shared"
)

// KindCarsiHTML scrapes the Çarşı Döviz landing page.
const KindCarsiHTML = "carsi-html"

var (
	tagRe   = regexp.MustCompile(`(?s)<script.*?</script>|<style.*?</style>|<[^>]+>`)
	spaceRe = regexp.MustCompile(`\s+`)
	rowRes  = map[string]*regexp.Regexp{}
)

func init() {
	for _, code := range append(append([]string{}, fxCodes...), "XAU") {
		rowRes[code] = regexp.MustCompile(`\b` + code + `\b[^0-9]*?([0-9][0-9.]*,[0-9]+)\s+([0-9][0-9.]*,[0-9]+)`)
	}
	Register(KindCarsiHTML, func(d Descriptor, env Env) (Bureau, error) {
		if d.URL == "" {
			return nil, fmt.Errorf("carsi-html requires a url")
		}
		return &carsiBureau{base: base{d: d}, client: httpClient(env)}, nil
	})
}

type carsiBureau struct {
	base
	client *http.Client
}

func (b *carsiBureau) FetchQuotes(ctx context.Context) (map[string]Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.d.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", b.d.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", b.d.URL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", b.d.URL, err)
	}
	return ParseCarsiHTML(string(body))
}

// ParseCarsiHTML extracts buy/sell rows from the Çarşı Döviz page. A row is
// the currency code followed by two Turkish-formatted prices.
func ParseCarsiHTML(html string) (map[string]Quote, error) {
	text := tagRe.ReplaceAllString(html, " ")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = spaceRe.ReplaceAllString(text, " ")

	out := make(map[string]Quote)
	for code, re := range rowRes {
		buy, sell, ok := shared.ParseFirstPair(re, text)
		if !ok || buy <= 0 || sell <= 0 {
			continue
		}
		out[code] = Quote{Buy: buy, Sell: sell}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("carsi: %w", providers.ErrParseFailed)
	}
	return out, nil
}
