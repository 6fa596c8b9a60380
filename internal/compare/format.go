package compare

import (
	"strconv"

	"github.com/bher20/fxratemanager/internal/rates"
)

const (
	// NoData is shown when a best rate or the gold section cannot be computed.
	NoData = "no data"
	// Placeholder is shown in a cell whose source does not quote the currency.
	Placeholder = "-"
)

// FormatRate renders v with 4 decimals, or 2 for XAU.
func FormatRate(cur rates.Currency, v float64) string {
	return strconv.FormatFloat(v, 'f', cur.Decimals(), 64)
}

// FormatSigned renders v with an explicit '+' when positive.
func FormatSigned(v float64, places int) string {
	s := strconv.FormatFloat(v, 'f', places, 64)
	if v > 0 {
		return "+" + s
	}
	return s
}

// FormatPercent renders a signed percentage with 3 decimals.
func FormatPercent(v float64) string {
	return FormatSigned(v, 3) + "%"
}
