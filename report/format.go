package report

import (
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/0xDualCube/univ2-mev/types"
)

// Units carries token symbols and decimals for display. Amounts are only
// converted to decimals for output; all decisions use the integer values.
type Units struct {
	QuoteSymbol   string
	OtherSymbol   string
	QuoteDecimals int32
	OtherDecimals int32
}

// input returns the symbol and decimals of the asset sold in direction d
func (u Units) input(d types.Direction) (string, int32) {
	if d == types.QuoteToOther {
		return u.QuoteSymbol, u.QuoteDecimals
	}
	return u.OtherSymbol, u.OtherDecimals
}

// Amount renders a base-unit amount of the asset sold in direction d
func (u Units) Amount(x *big.Int, d types.Direction) string {
	symbol, decimals := u.input(d)
	return fmt.Sprintf("%s %s", ToDecimal(x, decimals).String(), symbol)
}

// ToDecimal scales a base-unit amount down by decimals
func ToDecimal(x *big.Int, decimals int32) decimal.Decimal {
	if x == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(x, -decimals)
}

// Record is the serialised form of one evaluation
type Record struct {
	Timestamp   time.Time         `json:"timestamp"`
	Block       uint64            `json:"block"`
	Direction   string            `json:"direction"`
	AmountIn    string            `json:"amount_in"`
	AmountMid   string            `json:"amount_mid"`
	AmountBack  string            `json:"amount_back"`
	GrossProfit string            `json:"gross_profit"`
	PerSwapCost string            `json:"per_swap_cost"`
	SwapCount   int               `json:"swap_count"`
	NetProfit   string            `json:"net_profit"`
	Profitable  bool              `json:"profitable"`
	Forward     map[string]string `json:"forward"`
	Reverse     map[string]string `json:"reverse"`
	Display     string            `json:"display"`
	Fingerprint string            `json:"fingerprint"`
}

// NewRecord flattens result for sinks
func NewRecord(result *types.ArbitrageResult, units Units, now time.Time) Record {
	d := result.PlanForward.Direction
	return Record{
		Timestamp:   now.UTC(),
		Block:       result.BlockNumber,
		Direction:   d.String(),
		AmountIn:    result.AmountIn.String(),
		AmountMid:   result.PlanForward.AmountOut.String(),
		AmountBack:  result.AmountBack.String(),
		GrossProfit: result.GrossProfit.String(),
		PerSwapCost: result.PerSwapCost.String(),
		SwapCount:   result.SwapCount,
		NetProfit:   result.NetProfit.String(),
		Profitable:  result.Profitable(),
		Forward:     allocations(result.PlanForward),
		Reverse:     allocations(result.PlanReverse),
		Display:     units.Amount(result.NetProfit, d),
		Fingerprint: fmt.Sprintf("%016x", result.Fingerprint()),
	}
}

func allocations(plan *types.AllocationPlan) map[string]string {
	out := make(map[string]string, len(plan.Allocations))
	for venue, amount := range plan.Allocations {
		out[venue] = amount.String()
	}
	return out
}

// FormatResult renders a result as a short multi-line report
func FormatResult(result *types.ArbitrageResult, units Units) string {
	fwd := result.PlanForward.Direction
	rev := fwd.Reverse()

	var b strings.Builder
	fmt.Fprintf(&b, "block %d  %s round trip\n", result.BlockNumber, fwd)
	fmt.Fprintf(&b, "  in:    %s\n", units.Amount(result.AmountIn, fwd))
	fmt.Fprintf(&b, "  mid:   %s\n", units.Amount(result.PlanForward.AmountOut, rev))
	writePlan(&b, "forward", result.PlanForward, units)
	writePlan(&b, "reverse", result.PlanReverse, units)
	fmt.Fprintf(&b, "  back:  %s\n", units.Amount(result.AmountBack, fwd))
	fmt.Fprintf(&b, "  gross: %s\n", units.Amount(result.GrossProfit, fwd))
	fmt.Fprintf(&b, "  cost:  %d swaps x %s\n", result.SwapCount, units.Amount(result.PerSwapCost, fwd))
	fmt.Fprintf(&b, "  net:   %s", units.Amount(result.NetProfit, fwd))
	if result.Profitable() {
		b.WriteString("  (opportunity)")
	}
	b.WriteString("\n")
	return b.String()
}

func writePlan(b *strings.Builder, label string, plan *types.AllocationPlan, units Units) {
	fmt.Fprintf(b, "  %s:\n", label)
	venues := plan.ActiveVenues()
	if len(venues) == 0 {
		b.WriteString("    (none)\n")
		return
	}
	sort.Strings(venues)
	total := decimal.NewFromBigInt(plan.AmountIn, 0)
	for _, venue := range venues {
		amount := plan.Allocations[venue]
		share := decimal.Zero
		if !total.IsZero() {
			share = decimal.NewFromBigInt(amount, 2).Div(total)
		}
		fmt.Fprintf(b, "    %-12s %s (%s%%)\n", venue, units.Amount(amount, plan.Direction), share.StringFixed(2))
	}
}
