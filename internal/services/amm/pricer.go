// Package amm prices swaps through a single oriented pool: leg A is the
// source, leg B the destination. Amounts are smallest units.
package amm

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/hxuan190/orca-swap-router/internal/domain"
)

// inputAfterFee returns floor(in*(den-num)/den).
func inputAfterFee(fee domain.Fee, in uint64) (uint64, error) {
	if fee.IsZero() {
		return in, nil
	}
	if fee.Numerator > fee.Denominator {
		return 0, fmt.Errorf("%w: fee %s above 100%%", domain.ErrOverflow, fee)
	}
	return MulDiv(in, fee.Denominator-fee.Numerator, fee.Denominator)
}

// inputBeforeFee returns the smallest in with inputAfterFee(in) >= after.
func inputBeforeFee(fee domain.Fee, after uint64) (uint64, error) {
	if fee.IsZero() || after == 0 {
		return after, nil
	}
	if fee.Numerator >= fee.Denominator {
		return 0, fmt.Errorf("%w: fee %s leaves nothing to swap", domain.ErrOverflow, fee)
	}
	return MulDivCeil(after, fee.Denominator, fee.Denominator-fee.Numerator)
}

// OutputAmount is the destination amount received for in, fee applied first.
func OutputAmount(pool domain.Pool, in uint64) (uint64, error) {
	reserveA, reserveB, err := pool.Reserves()
	if err != nil {
		return 0, err
	}
	after, err := inputAfterFee(pool.Fee(), in)
	if err != nil {
		return 0, err
	}
	return CurveFor(pool).SwapOut(after, reserveA, reserveB)
}

// InputAmount is the smallest input whose OutputAmount is at least out.
func InputAmount(pool domain.Pool, out uint64) (uint64, error) {
	reserveA, reserveB, err := pool.Reserves()
	if err != nil {
		return 0, err
	}
	if out >= reserveB {
		return 0, fmt.Errorf("%w: %d requested, %d %s in reserve",
			domain.ErrInsufficientLiquidity, out, reserveB, pool.B.TokenName)
	}
	after, err := CurveFor(pool).SwapIn(out, reserveA, reserveB)
	if err != nil {
		return 0, err
	}
	return inputBeforeFee(pool.Fee(), after)
}

// CalculatingFees is the part of in withheld before the invariant applies.
func CalculatingFees(pool domain.Pool, in uint64) (uint64, error) {
	after, err := inputAfterFee(pool.Fee(), in)
	if err != nil {
		return 0, err
	}
	return in - after, nil
}

// BaseOutputAmount is the fee-adjusted output at the current marginal price,
// the reference point for price impact.
func BaseOutputAmount(pool domain.Pool, in uint64) (uint64, error) {
	reserveA, reserveB, err := pool.Reserves()
	if err != nil {
		return 0, err
	}
	after, err := inputAfterFee(pool.Fee(), in)
	if err != nil {
		return 0, err
	}
	return CurveFor(pool).SpotOut(after, reserveA, reserveB)
}

// MinimumAmountOut is OutputAmount reduced by slippage, floored.
func MinimumAmountOut(pool domain.Pool, in uint64, slippage decimal.Decimal) (uint64, error) {
	out, err := OutputAmount(pool, in)
	if err != nil {
		return 0, err
	}
	return ApplySlippageDown(out, slippage)
}

// MaximumAmountIn is InputAmount increased by slippage, rounded up.
func MaximumAmountIn(pool domain.Pool, out uint64, slippage decimal.Decimal) (uint64, error) {
	in, err := InputAmount(pool, out)
	if err != nil {
		return 0, err
	}
	return ApplySlippageUp(in, slippage)
}

// InputAmountForMinimumReceive finds the input whose raw output, once reduced
// by slippage, still covers minOut.
func InputAmountForMinimumReceive(pool domain.Pool, minOut uint64, slippage decimal.Decimal) (uint64, error) {
	raw, err := GrossUpForSlippage(minOut, slippage)
	if err != nil {
		return 0, err
	}
	return InputAmount(pool, raw)
}

// slippageRat splits slippage into num/den, requiring 0 <= s < 1.
func slippageRat(slippage decimal.Decimal) (*big.Int, *big.Int, error) {
	if slippage.IsNegative() || slippage.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, nil, domain.ErrInvalidSlippage
	}
	r := slippage.Rat()
	return r.Num(), r.Denom(), nil
}

// ApplySlippageDown returns floor(amount*(1-s)).
func ApplySlippageDown(amount uint64, slippage decimal.Decimal) (uint64, error) {
	num, den, err := slippageRat(slippage)
	if err != nil {
		return 0, err
	}
	return scaleRat(amount, new(big.Int).Sub(den, num), den, false)
}

// ApplySlippageUp returns ceil(amount*(1+s)).
func ApplySlippageUp(amount uint64, slippage decimal.Decimal) (uint64, error) {
	num, den, err := slippageRat(slippage)
	if err != nil {
		return 0, err
	}
	return scaleRat(amount, new(big.Int).Add(den, num), den, true)
}

// GrossUpForSlippage returns ceil(amount/(1-s)), the smallest raw amount
// whose slippage-reduced value is at least amount.
func GrossUpForSlippage(amount uint64, slippage decimal.Decimal) (uint64, error) {
	num, den, err := slippageRat(slippage)
	if err != nil {
		return 0, err
	}
	return scaleRat(amount, den, new(big.Int).Sub(den, num), true)
}

// PriceImpact returns (base-out)/base*100. A negative result means out beat
// the fee-adjusted reference.
func PriceImpact(base, out uint64) (decimal.Decimal, error) {
	if base == 0 {
		return decimal.Zero, fmt.Errorf("%w: zero base output", domain.ErrInsufficientLiquidity)
	}
	b := decimal.NewFromUint64(base)
	diff := b.Sub(decimal.NewFromUint64(out))
	return diff.Mul(decimal.NewFromBigInt(bigHundred, 0)).Div(b), nil
}
