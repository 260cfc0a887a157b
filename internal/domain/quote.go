package domain

import (
	"github.com/shopspring/decimal"
)

// InterTokenInfo describes the pass-through hop of a 2-pool swap.
type InterTokenInfo struct {
	TokenName    string `json:"tokenName"`
	OutputAmount uint64 `json:"outputAmount"`
	MinAmountOut uint64 `json:"minAmountOut"`
	IsStableSwap bool   `json:"isStableSwap"`
}

// HopQuote is the priced view of one pool inside a quote.
type HopQuote struct {
	Path      string `json:"path"`
	Pool      string `json:"pool"`
	InToken   string `json:"inToken"`
	OutToken  string `json:"outToken"`
	AmountIn  uint64 `json:"amountIn"`
	AmountOut uint64 `json:"amountOut"`
	Fee       uint64 `json:"fee"`
	Curve     string `json:"curve"`
}

// SwapQuote is everything a transaction builder needs to swap along Pair
// without re-deriving any pricing.
type SwapQuote struct {
	Pair     PoolsPair       `json:"-"`
	Mode     SwapMode        `json:"swapMode"`
	Source   string          `json:"source"`
	Dest     string          `json:"destination"`
	Slippage decimal.Decimal `json:"slippage"`

	AmountIn     uint64 `json:"amountIn"`
	AmountOut    uint64 `json:"amountOut"`
	MinAmountOut uint64 `json:"minAmountOut"`
	MaxAmountIn  uint64 `json:"maxAmountIn"`
	// MinReceiveAmountIn is the input whose slippage-reduced output still
	// covers MinAmountOut. Only set for ExactOut.
	MinReceiveAmountIn uint64 `json:"minReceiveAmountIn,omitempty"`

	LiquidityProviderFees []uint64        `json:"liquidityProviderFees"`
	PriceImpact           decimal.Decimal `json:"priceImpact"`
	Intermediary          *InterTokenInfo `json:"intermediary,omitempty"`
	Hops                  []HopQuote      `json:"hops"`
}

// TotalFees sums the per-hop liquidity provider fees. Fees on different hops
// are denominated in different tokens, so this is only meaningful for display.
func (q *SwapQuote) TotalFees() uint64 {
	var total uint64
	for _, f := range q.LiquidityProviderFees {
		total += f
	}
	return total
}
