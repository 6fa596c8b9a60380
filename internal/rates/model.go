package rates

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bher20/fxratemanager/pkg/providers"
)

// Currency is one of the fixed set of quoted codes.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	CHF Currency = "CHF"
	// XAU is gold. In the fx group it is priced in TRY; in the gold-ounce
	// group it is one troy ounce priced in USD.
	XAU Currency = "XAU"
)

// Currencies lists the quoted currencies in display order.
var Currencies = []Currency{USD, EUR, GBP, CHF, XAU}

// ParseCurrency returns the Currency for a code, case-insensitively.
func ParseCurrency(code string) (Currency, bool) {
	c := Currency(strings.ToUpper(strings.TrimSpace(code)))
	for _, k := range Currencies {
		if k == c {
			return c, true
		}
	}
	return "", false
}

// Decimals is the number of decimal places used when displaying c.
func (c Currency) Decimals() int {
	if c == XAU {
		return 2
	}
	return 4
}

// Status is the outcome of one bureau fetch.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// QuotePair is a bureau's price for one currency. Buy is what the bureau
// pays the customer (Alış); Sell is what the customer pays (Satış).
type QuotePair struct {
	Currency Currency `json:"currency,omitempty"`
	Buy      float64  `json:"buy"`
	Sell     float64  `json:"sell"`
}

// SourceQuote is one bureau's report within a snapshot.
type SourceQuote struct {
	Source       string                 `json:"source"`
	URL          string                 `json:"url,omitempty"`
	Group        providers.Group        `json:"group,omitempty"`
	Status       Status                 `json:"status"`
	Rates        map[Currency]QuotePair `json:"rates"`
	LastUpdated  *Timestamp             `json:"last_updated,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
}

// Quote returns the pair for c when the source succeeded and quotes it.
func (s SourceQuote) Quote(c Currency) (QuotePair, bool) {
	if s.Status == StatusError {
		return QuotePair{}, false
	}
	q, ok := s.Rates[c]
	return q, ok
}

// Snapshot is the full response of one poll. Source order is significant.
type Snapshot struct {
	ID        string        `json:"id,omitempty"`
	Timestamp Timestamp     `json:"timestamp"`
	Sources   []SourceQuote `json:"sources"`
}

// Timestamp decodes ISO-8601 strings and epoch values (as numbers or
// strings, in seconds or milliseconds) and always encodes as RFC 3339.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 or epoch string. Zone-less ISO values
// are taken as UTC.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, fmt.Errorf("empty timestamp")
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fromEpoch(f), nil
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// fromEpoch treats values beyond the year 33658 in seconds as milliseconds.
func fromEpoch(f float64) Timestamp {
	if math.Abs(f) >= 1e12 {
		ms := int64(f)
		return Timestamp{Time: time.UnixMilli(ms).UTC()}
	}
	sec, frac := math.Modf(f)
	return Timestamp{Time: time.Unix(int64(sec), int64(frac*1e9)).UTC()}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseTimestamp(s)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	*t = fromEpoch(f)
	return nil
}
