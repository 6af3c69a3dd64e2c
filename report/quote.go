package report

import (
	"fmt"
	"io"
	"math/big"
	"text/tabwriter"

	"github.com/0xDualCube/univ2-mev/dex/uniswap"
	"github.com/0xDualCube/univ2-mev/market"
	"github.com/0xDualCube/univ2-mev/types"
)

// QuoteRow is one venue's price for a fixed trade size
type QuoteRow struct {
	Venue string
	// SellOut is the quote asset received for selling the fixed other amount.
	SellOut *big.Int
	// BuyIn is the quote asset needed to buy the fixed other amount.
	BuyIn *big.Int
	Err   error
}

// QuoteTable prices a fixed amount of the other asset on every venue, both
// selling it and buying it
func QuoteTable(snap *market.Snapshot, amountOther *big.Int) []QuoteRow {
	rows := make([]QuoteRow, 0, snap.Len())
	for _, venue := range snap.Venues() {
		pool, _ := snap.Pool(venue)
		row := QuoteRow{Venue: venue}

		in, out := pool.Reserves(types.OtherToQuote)
		row.SellOut, row.Err = uniswap.GetAmountOut(amountOther, in, out, pool.Fee)
		if row.Err == nil {
			in, out = pool.Reserves(types.QuoteToOther)
			row.BuyIn, row.Err = uniswap.GetAmountIn(amountOther, in, out, pool.Fee)
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteQuoteTable prints rows as an aligned table
func WriteQuoteTable(w io.Writer, rows []QuoteRow, amountOther *big.Int, units Units) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	size := fmt.Sprintf("%s %s", ToDecimal(amountOther, units.OtherDecimals), units.OtherSymbol)
	fmt.Fprintf(tw, "VENUE\tSELL %s\tBUY %s\n", size, size)
	for _, row := range rows {
		if row.Err != nil {
			fmt.Fprintf(tw, "%s\terror: %v\t\n", row.Venue, row.Err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s %s\t%s %s\n", row.Venue,
			ToDecimal(row.SellOut, units.QuoteDecimals).StringFixed(4), units.QuoteSymbol,
			ToDecimal(row.BuyIn, units.QuoteDecimals).StringFixed(4), units.QuoteSymbol)
	}
	return tw.Flush()
}
