package router

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/orca-swap-router/internal/domain"
	"github.com/hxuan190/orca-swap-router/internal/metrics"
	"github.com/hxuan190/orca-swap-router/internal/services/amm"
)

// Exchange prices a trade through an oriented, balance-filled pool pair by
// chaining the single-pool pricer across its legs. Any failing hop fails the
// whole chain.
type Exchange struct {
	pair domain.PoolsPair
}

func NewExchange(pair domain.PoolsPair) (Exchange, error) {
	if len(pair) == 0 || len(pair) > 2 {
		return Exchange{}, fmt.Errorf("%w: %d pools", domain.ErrInvalidRouteShape, len(pair))
	}
	return Exchange{pair: pair}, nil
}

func (e Exchange) Pair() domain.PoolsPair {
	return e.pair
}

func (e Exchange) last() domain.Pool {
	return e.pair[len(e.pair)-1]
}

// OutputAmount feeds each pool's output into the next.
func (e Exchange) OutputAmount(in uint64) (uint64, error) {
	amount := in
	for _, pool := range e.pair {
		out, err := amm.OutputAmount(pool, amount)
		if err != nil {
			return 0, err
		}
		amount = out
	}
	return amount, nil
}

// InputAmount walks the pools backwards, last pool first, to find the input
// that yields at least out.
func (e Exchange) InputAmount(out uint64) (uint64, error) {
	amount := out
	for i := len(e.pair) - 1; i >= 0; i-- {
		in, err := amm.InputAmount(e.pair[i], amount)
		if err != nil {
			return 0, err
		}
		amount = in
	}
	return amount, nil
}

// InputAmountForMinimumReceive is the input whose slippage-reduced output
// still covers minOut. Slippage applies once, at the destination leg.
func (e Exchange) InputAmountForMinimumReceive(minOut uint64, slippage decimal.Decimal) (uint64, error) {
	amount, err := amm.InputAmountForMinimumReceive(e.last(), minOut, slippage)
	if err != nil {
		return 0, err
	}
	for i := len(e.pair) - 2; i >= 0; i-- {
		in, err := amm.InputAmount(e.pair[i], amount)
		if err != nil {
			return 0, err
		}
		amount = in
	}
	return amount, nil
}

// MinimumAmountOut chains raw outputs up to the last leg, where slippage
// applies once.
func (e Exchange) MinimumAmountOut(in uint64, slippage decimal.Decimal) (uint64, error) {
	amount := in
	for _, pool := range e.pair[:len(e.pair)-1] {
		out, err := amm.OutputAmount(pool, amount)
		if err != nil {
			return 0, err
		}
		amount = out
	}
	return amm.MinimumAmountOut(e.last(), amount, slippage)
}

// MaximumAmountIn is the chained input for out raised by slippage.
func (e Exchange) MaximumAmountIn(out uint64, slippage decimal.Decimal) (uint64, error) {
	in, err := e.InputAmount(out)
	if err != nil {
		return 0, err
	}
	return amm.ApplySlippageUp(in, slippage)
}

// IntermediaryToken describes the pass-through hop of a 2-pool pair. It
// returns nil for direct swaps.
func (e Exchange) IntermediaryToken(in uint64, slippage decimal.Decimal) (*domain.InterTokenInfo, error) {
	name, ok := e.pair.Intermediary()
	if !ok {
		return nil, nil
	}
	out, err := amm.OutputAmount(e.pair[0], in)
	if err != nil {
		return nil, err
	}
	minOut, err := amm.ApplySlippageDown(out, slippage)
	if err != nil {
		return nil, err
	}
	return &domain.InterTokenInfo{
		TokenName:    name,
		OutputAmount: out,
		MinAmountOut: minOut,
		IsStableSwap: e.pair[1].IsStable(),
	}, nil
}

// LiquidityProviderFees returns the fee withheld at each hop. Later hops are
// charged on the previous hop's minimum output, the worst case the trader
// can see.
func (e Exchange) LiquidityProviderFees(in uint64, slippage decimal.Decimal) ([]uint64, error) {
	fees := make([]uint64, 0, len(e.pair))
	amount := in
	for i, pool := range e.pair {
		fee, err := amm.CalculatingFees(pool, amount)
		if err != nil {
			return nil, err
		}
		fees = append(fees, fee)
		if i == len(e.pair)-1 {
			break
		}
		amount, err = amm.MinimumAmountOut(pool, amount, slippage)
		if err != nil {
			return nil, err
		}
	}
	return fees, nil
}

// BaseOutputAmount chains the fee-adjusted marginal price across every leg.
func (e Exchange) BaseOutputAmount(in uint64) (uint64, error) {
	amount := in
	for _, pool := range e.pair {
		out, err := amm.BaseOutputAmount(pool, amount)
		if err != nil {
			return 0, err
		}
		amount = out
	}
	return amount, nil
}

// PriceImpact compares out against the chained base output, in percent. A
// negative value means the reserves and the reference disagree; it is logged
// and returned as is.
func (e Exchange) PriceImpact(in, out uint64) (decimal.Decimal, error) {
	base, err := e.BaseOutputAmount(in)
	if err != nil {
		return decimal.Zero, err
	}
	impact, err := amm.PriceImpact(base, out)
	if err != nil {
		return decimal.Zero, err
	}
	if impact.IsNegative() {
		metrics.NegativePriceImpact.Inc()
		log.Warn().
			Strs("pools", e.pair.Paths()).
			Uint64("in", in).
			Uint64("out", out).
			Uint64("base", base).
			Str("impact", impact.String()).
			Msg("[exchange] output above fee-adjusted base, reserves may be inconsistent")
	}
	return impact, nil
}
