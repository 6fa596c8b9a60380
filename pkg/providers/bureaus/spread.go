package bureaus

import (
	"context"
	"fmt"
	"log"

	"github.com/bher20/fxratemanager/pkg/providers/shared"
)

// KindReferenceSpread quotes the reference mid rate widened by a fixed spread.
const KindReferenceSpread = "reference-spread"

// fxCodes are the non-gold currencies quoted against TRY.
var fxCodes = []string{"USD", "EUR", "GBP", "CHF"}

func init() {
	Register(KindReferenceSpread, newSpreadBureau)
}

type spreadBureau struct {
	base
	ref *ReferenceClient
}

func newSpreadBureau(d Descriptor, env Env) (Bureau, error) {
	if d.Spread < 0 || d.Spread >= 1 {
		return nil, fmt.Errorf("spread %v out of range [0,1)", d.Spread)
	}
	ref := env.Reference
	if ref == nil {
		ref = NewReferenceClient(httpClient(env))
	}
	return &spreadBureau{base: base{d: d}, ref: ref}, nil
}

func (b *spreadBureau) FetchQuotes(ctx context.Context) (map[string]Quote, error) {
	mids, err := b.ref.TRYRates(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]Quote, len(fxCodes)+1)
	for _, code := range fxCodes {
		mid := mids[code]
		if mid <= 0 {
			continue
		}
		out[code] = widen(mid, b.d.Spread, 4)
	}

	// Local gold: TRY per troy ounce.
	if usd := mids["USD"]; usd > 0 {
		spot, err := b.ref.GoldSpotUSD(ctx)
		if err != nil {
			log.Printf("bureaus: %s: gold spot unavailable, using fallback: %v", b.d.Key, err)
			spot = FallbackGoldUSD
		}
		out["XAU"] = widen(spot*usd, b.d.Spread, 2)
	}
	return out, nil
}

// widen applies a symmetric spread around mid and rounds both sides.
func widen(mid, spread float64, places int) Quote {
	return Quote{
		Buy:  shared.Round(mid*(1-spread), places),
		Sell: shared.Round(mid*(1+spread), places),
	}
}
