package compare

import "github.com/bher20/fxratemanager/internal/rates"

// OunceScale multiplies the per-ounce USD sell difference into the
// "TRY" figure shown beside it. It is a flat scale factor, not a USD/TRY
// rate, so SellDiffScaled is not a currency conversion.
const OunceScale = 31.99

// GoldSpread compares the Istanbul and London gold-ounce quotes.
type GoldSpread struct {
	Istanbul       string          `json:"istanbul_source"`
	London         string          `json:"london_source"`
	IstanbulQuote  rates.QuotePair `json:"istanbul"`
	LondonQuote    rates.QuotePair `json:"london"`
	SellDiff       float64         `json:"sell_diff"`
	SellDiffPct    float64         `json:"sell_diff_percent"`
	SellDiffScaled float64         `json:"sell_diff_try"`
}

// GoldSpread computes the spread between the first two gold-ounce sources,
// Istanbul then London. ok is false, and the whole section has no data,
// when either source is missing or lacks an XAU quote.
func (c *Comparator) GoldSpread(snap rates.Snapshot) (GoldSpread, bool) {
	_, gold := Partition(snap)
	if len(gold) < 2 {
		return GoldSpread{}, false
	}
	ist, lon := gold[0], gold[1]

	iq, ok := ist.Quote(rates.XAU)
	if !ok {
		return GoldSpread{}, false
	}
	lq, ok := lon.Quote(rates.XAU)
	if !ok || lq.Sell == 0 {
		return GoldSpread{}, false
	}

	diff := iq.Sell - lq.Sell
	return GoldSpread{
		Istanbul:       ist.Source,
		London:         lon.Source,
		IstanbulQuote:  iq,
		LondonQuote:    lq,
		SellDiff:       diff,
		SellDiffPct:    diff / lq.Sell * 100,
		SellDiffScaled: diff * OunceScale,
	}, true
}
