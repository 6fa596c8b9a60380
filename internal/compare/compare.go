// Package compare derives the comparison views of a rate snapshot: the best
// buy and sell per currency, which cells to highlight, and the
// Istanbul/London gold-ounce spread.
//
// Everything here is a pure function of the snapshot; calling it twice on
// the same input yields the same result.
package compare

import (
	"math"

	"github.com/bher20/fxratemanager/internal/rates"
	"github.com/bher20/fxratemanager/pkg/providers"
)

// Side selects which price of a quote is compared.
type Side string

const (
	// Buy picks the lowest bureau buy price.
	Buy Side = "buy"
	// Sell picks the highest bureau sell price.
	Sell Side = "sell"
)

// Best is the winning source for a currency and side.
type Best struct {
	Source string  `json:"source"`
	Index  int     `json:"index"`
	Rate   float64 `json:"rate"`
}

// Matcher decides whether a cell's rate equals the winning rate.
type Matcher interface {
	Match(a, b float64) bool
}

// ExactMatch compares rates bit for bit.
type ExactMatch struct{}

func (ExactMatch) Match(a, b float64) bool { return a == b }

// ToleranceMatch treats rates within Epsilon of each other as equal.
type ToleranceMatch struct {
	Epsilon float64
}

func (m ToleranceMatch) Match(a, b float64) bool { return math.Abs(a-b) <= m.Epsilon }

// MatcherFor returns ExactMatch for a non-positive epsilon and a
// ToleranceMatch otherwise.
func MatcherFor(epsilon float64) Matcher {
	if epsilon > 0 {
		return ToleranceMatch{Epsilon: epsilon}
	}
	return ExactMatch{}
}

// Comparator computes best rates and spreads. The zero value is not usable;
// call New.
type Comparator struct {
	matcher Matcher
}

// Option configures a Comparator.
type Option func(*Comparator)

// WithMatcher sets the highlight matching strategy.
func WithMatcher(m Matcher) Option {
	return func(c *Comparator) {
		if m != nil {
			c.matcher = m
		}
	}
}

// New returns a Comparator using exact matching unless overridden.
func New(opts ...Option) *Comparator {
	c := &Comparator{matcher: ExactMatch{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Matcher returns the highlight matching strategy in use.
func (c *Comparator) Matcher() Matcher {
	return c.matcher
}

// BestRate returns the winner for cur and side among the snapshot's fx
// sources. Gold-ounce sources are excluded: their XAU is priced per ounce
// in USD and is not comparable with the fx group's XAU.
func (c *Comparator) BestRate(snap rates.Snapshot, cur rates.Currency, side Side) (Best, bool) {
	fx, _ := Partition(snap)
	return BestAmong(fx, cur, side)
}

// BestAmong scans sources in order and returns the minimum buy or maximum
// sell for cur. Sources that errored or lack cur are skipped. On ties the
// earliest source wins. ok is false when no source quotes cur.
func BestAmong(sources []rates.SourceQuote, cur rates.Currency, side Side) (best Best, ok bool) {
	for i, s := range sources {
		q, has := s.Quote(cur)
		if !has {
			continue
		}
		v := q.Buy
		if side == Sell {
			v = q.Sell
		}
		if !ok || better(side, v, best.Rate) {
			best = Best{Source: s.Source, Index: i, Rate: v}
			ok = true
		}
	}
	return best, ok
}

// better reports whether v strictly beats cur for side.
func better(side Side, v, cur float64) bool {
	if side == Sell {
		return v > cur
	}
	return v < cur
}

// IsBest reports whether a cell showing rate for source should be
// highlighted against the computed winner.
func (c *Comparator) IsBest(best Best, ok bool, source string, rate float64) bool {
	if !ok {
		return false
	}
	return source == best.Source && c.matcher.Match(rate, best.Rate)
}

// Partition splits a snapshot into its fx and gold-ounce sources. When any
// source carries a group tag the tags decide; otherwise positions 4-5 are
// gold-ounce and every other position is fx.
func Partition(snap rates.Snapshot) (fx, gold []rates.SourceQuote) {
	if tagged(snap.Sources) {
		for _, s := range snap.Sources {
			if s.Group == providers.GroupGoldOunce {
				gold = append(gold, s)
			} else {
				fx = append(fx, s)
			}
		}
		return fx, gold
	}

	for i, s := range snap.Sources {
		if i == 4 || i == 5 {
			gold = append(gold, s)
		} else {
			fx = append(fx, s)
		}
	}
	return fx, gold
}

func tagged(sources []rates.SourceQuote) bool {
	for _, s := range sources {
		if s.Group != "" {
			return true
		}
	}
	return false
}
