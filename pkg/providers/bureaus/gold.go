package bureaus

import (
	"context"
	"fmt"
)

const (
	// KindGoldSpot quotes the international spot price around a small spread.
	KindGoldSpot = "gold-spot"
	// KindGoldPremium quotes spot plus a local market premium.
	KindGoldPremium = "gold-premium"
)

func init() {
	Register(KindGoldSpot, newGoldBureau)
	Register(KindGoldPremium, newGoldBureau)
}

// goldBureau quotes only XAU, in USD per troy ounce.
type goldBureau struct {
	base
	ref *ReferenceClient
}

func newGoldBureau(d Descriptor, env Env) (Bureau, error) {
	if d.Spread < 0 || d.Spread >= 1 {
		return nil, fmt.Errorf("spread %v out of range [0,1)", d.Spread)
	}
	if d.Kind == KindGoldSpot {
		d.Premium = 0
	}
	ref := env.Reference
	if ref == nil {
		ref = NewReferenceClient(httpClient(env))
	}
	return &goldBureau{base: base{d: d}, ref: ref}, nil
}

func (b *goldBureau) FetchQuotes(ctx context.Context) (map[string]Quote, error) {
	spot, err := b.ref.GoldSpotUSD(ctx)
	if err != nil {
		return nil, err
	}
	mid := spot * (1 + b.d.Premium)
	return map[string]Quote{"XAU": widen(mid, b.d.Spread, 2)}, nil
}
