package amm

import (
	"github.com/holiman/uint256"

	"github.com/hxuan190/orca-swap-router/internal/domain"
)

// ConstantProduct is the x*y=k invariant.
type ConstantProduct struct{}

// SwapOut computes reserveOut - floor(reserveIn*reserveOut / (reserveIn+in)).
// Flooring the new destination reserve rounds the output up by at most one
// unit, so dust trades can pay slightly more than the spot reference and show
// a negative price impact.
func (ConstantProduct) SwapOut(in, reserveIn, reserveOut uint64) (uint64, error) {
	if reserveIn == 0 || reserveOut == 0 {
		return 0, domain.ErrInsufficientLiquidity
	}

	k := GetU256()
	denom := GetU256()
	defer func() {
		PutU256(k)
		PutU256(denom)
	}()

	k.SetUint64(reserveIn)
	denom.SetUint64(reserveOut)
	k.Mul(k, denom)

	denom.SetUint64(reserveIn)
	denom.Add(denom, uint256.NewInt(in))
	k.Div(k, denom)

	// k/denom <= reserveOut, so this is a uint64
	out := reserveOut - k.Uint64()
	if out >= reserveOut {
		return 0, domain.ErrInsufficientLiquidity
	}
	return out, nil
}

// SwapIn inverts SwapOut exactly: floor(k/(reserveIn+x)) <= reserveOut-out
// holds iff reserveIn+x > floor(k/(reserveOut-out+1)).
func (ConstantProduct) SwapIn(out, reserveIn, reserveOut uint64) (uint64, error) {
	if reserveIn == 0 || reserveOut == 0 || out >= reserveOut {
		return 0, domain.ErrInsufficientLiquidity
	}
	if out == 0 {
		return 0, nil
	}

	k := GetU256()
	temp := GetU256()
	defer func() {
		PutU256(k)
		PutU256(temp)
	}()

	k.SetUint64(reserveIn)
	temp.SetUint64(reserveOut)
	k.Mul(k, temp)

	temp.SetUint64(reserveOut - out + 1)
	k.Div(k, temp)
	k.Add(k, u256One)

	temp.SetUint64(reserveIn)
	if k.Cmp(temp) <= 0 {
		return 0, nil
	}
	k.Sub(k, temp)
	if !k.IsUint64() {
		return 0, domain.ErrOverflow
	}
	return k.Uint64(), nil
}

// SpotOut computes floor(in*reserveOut/reserveIn).
func (ConstantProduct) SpotOut(in, reserveIn, reserveOut uint64) (uint64, error) {
	if reserveIn == 0 || reserveOut == 0 {
		return 0, domain.ErrInsufficientLiquidity
	}
	return MulDiv(in, reserveOut, reserveIn)
}
