package compare

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/bher20/fxratemanager/internal/rates"
)

// Render writes v as a plain-text table. Best cells are marked with '*'.
func Render(w io.Writer, v View) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	header := []string{"SOURCE", ""}
	for _, cur := range v.Currencies {
		header = append(header, string(cur))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, row := range v.Rows {
		if row.Status == rates.StatusError {
			fmt.Fprintf(tw, "%s (error)\t\t%s\n", row.Source, row.Error)
			continue
		}
		buy := []string{row.Source, "buy"}
		sell := []string{"", "sell"}
		for _, cur := range v.Currencies {
			c := row.Cells[cur]
			buy = append(buy, mark(c.BuyText, c.BestBuy))
			sell = append(sell, mark(c.SellText, c.BestSell))
		}
		fmt.Fprintln(tw, strings.Join(buy, "\t"))
		fmt.Fprintln(tw, strings.Join(sell, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	if v.Gold == nil {
		fmt.Fprintf(w, "Gold ounce (USD): %s\n", NoData)
	} else {
		g := v.Gold
		fmt.Fprintf(w, "Gold ounce (USD): %s %s / %s   %s %s / %s\n",
			g.Istanbul, g.IstanbulBuyText, g.IstanbulSellText,
			g.London, g.LondonBuyText, g.LondonSellText)
		fmt.Fprintf(w, "Spread: %s (%s)  TRY: %s\n", g.SellDiffText, g.SellDiffPctText, g.SellDiffTRYText)
	}

	if !v.Timestamp.IsZero() {
		_, err := fmt.Fprintf(w, "Last updated: %s\n", v.Timestamp.Local().Format(time.DateTime))
		return err
	}
	return nil
}

func mark(text string, best bool) string {
	if best {
		return text + " *"
	}
	return text
}
