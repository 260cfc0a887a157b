package amm

import "github.com/hxuan190/orca-swap-router/internal/domain"

// Curve prices after-fee amounts against a pool's reserves. reserveIn and
// reserveOut are the source and destination reserves in trade direction.
type Curve interface {
	// SwapOut returns the destination amount received for in.
	SwapOut(in, reserveIn, reserveOut uint64) (uint64, error)
	// SwapIn returns the smallest in for which SwapOut(in) >= out.
	SwapIn(out, reserveIn, reserveOut uint64) (uint64, error)
	// SpotOut prices in at the marginal rate of the current reserves.
	SpotOut(in, reserveIn, reserveOut uint64) (uint64, error)
}

// CurveFor selects the invariant governing the pool.
func CurveFor(pool domain.Pool) Curve {
	if pool.IsStable() {
		amp := pool.Amp
		if amp == 0 {
			amp = domain.DefaultAmp
		}
		return StableSwap{Amp: amp}
	}
	return ConstantProduct{}
}
