package compare

import "github.com/bher20/fxratemanager/internal/rates"

// Cell is one source/currency intersection of the comparison table.
type Cell struct {
	Buy      *float64 `json:"buy"`
	Sell     *float64 `json:"sell"`
	BuyText  string   `json:"buy_text"`
	SellText string   `json:"sell_text"`
	BestBuy  bool     `json:"best_buy"`
	BestSell bool     `json:"best_sell"`
}

// Row is one fx source of the comparison table.
type Row struct {
	Source string                  `json:"source"`
	URL    string                  `json:"url,omitempty"`
	Status rates.Status            `json:"status"`
	Error  string                  `json:"error,omitempty"`
	Cells  map[rates.Currency]Cell `json:"cells"`
}

// Winner holds the best buy and sell for one currency.
type Winner struct {
	Currency rates.Currency `json:"currency"`
	Buy      *Best          `json:"buy"`
	Sell     *Best          `json:"sell"`
	BuyText  string         `json:"buy_text"`
	SellText string         `json:"sell_text"`
}

// GoldView is the gold-ounce section with display strings.
type GoldView struct {
	GoldSpread
	IstanbulBuyText  string `json:"istanbul_buy_text"`
	IstanbulSellText string `json:"istanbul_sell_text"`
	LondonBuyText    string `json:"london_buy_text"`
	LondonSellText   string `json:"london_sell_text"`
	SellDiffText     string `json:"sell_diff_text"`
	SellDiffPctText  string `json:"sell_diff_percent_text"`
	SellDiffTRYText  string `json:"sell_diff_try_text"`
}

// View is everything a presentation layer needs to render one snapshot.
type View struct {
	SnapshotID string           `json:"snapshot_id,omitempty"`
	Timestamp  rates.Timestamp  `json:"timestamp"`
	Currencies []rates.Currency `json:"currencies"`
	Rows       []Row            `json:"rows"`
	Best       []Winner         `json:"best"`
	Gold       *GoldView        `json:"gold"`
	GoldStatus string           `json:"gold_status"`
}

// Compare builds the full comparison view of snap.
func (c *Comparator) Compare(snap rates.Snapshot) View {
	fx, _ := Partition(snap)

	v := View{
		SnapshotID: snap.ID,
		Timestamp:  snap.Timestamp,
		Currencies: rates.Currencies,
		Rows:       make([]Row, 0, len(fx)),
		Best:       make([]Winner, 0, len(rates.Currencies)),
	}

	type pair struct {
		buy, sell     Best
		okBuy, okSell bool
	}
	winners := make(map[rates.Currency]pair, len(rates.Currencies))
	for _, cur := range rates.Currencies {
		var p pair
		p.buy, p.okBuy = BestAmong(fx, cur, Buy)
		p.sell, p.okSell = BestAmong(fx, cur, Sell)
		winners[cur] = p

		w := Winner{Currency: cur, BuyText: NoData, SellText: NoData}
		if p.okBuy {
			b := p.buy
			w.Buy = &b
			w.BuyText = FormatRate(cur, b.Rate)
		}
		if p.okSell {
			s := p.sell
			w.Sell = &s
			w.SellText = FormatRate(cur, s.Rate)
		}
		v.Best = append(v.Best, w)
	}

	for _, s := range fx {
		row := Row{
			Source: s.Source,
			URL:    s.URL,
			Status: s.Status,
			Error:  s.ErrorMessage,
			Cells:  make(map[rates.Currency]Cell, len(rates.Currencies)),
		}
		for _, cur := range rates.Currencies {
			cell := Cell{BuyText: Placeholder, SellText: Placeholder}
			if q, ok := s.Quote(cur); ok {
				buy, sell := q.Buy, q.Sell
				p := winners[cur]
				cell = Cell{
					Buy:      &buy,
					Sell:     &sell,
					BuyText:  FormatRate(cur, buy),
					SellText: FormatRate(cur, sell),
					BestBuy:  c.IsBest(p.buy, p.okBuy, s.Source, buy),
					BestSell: c.IsBest(p.sell, p.okSell, s.Source, sell),
				}
			}
			row.Cells[cur] = cell
		}
		v.Rows = append(v.Rows, row)
	}

	v.GoldStatus = NoData
	if g, ok := c.GoldSpread(snap); ok {
		v.Gold = &GoldView{
			GoldSpread:       g,
			IstanbulBuyText:  FormatRate(rates.XAU, g.IstanbulQuote.Buy),
			IstanbulSellText: FormatRate(rates.XAU, g.IstanbulQuote.Sell),
			LondonBuyText:    FormatRate(rates.XAU, g.LondonQuote.Buy),
			LondonSellText:   FormatRate(rates.XAU, g.LondonQuote.Sell),
			SellDiffText:     FormatSigned(g.SellDiff, 2),
			SellDiffPctText:  FormatPercent(g.SellDiffPct),
			SellDiffTRYText:  FormatSigned(g.SellDiffScaled, 2),
		}
		v.GoldStatus = "ok"
	}
	return v
}
