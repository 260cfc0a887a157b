package amm

import (
	"math"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/hxuan190/orca-swap-router/internal/domain"
)

const (
	stableCoins      = 2
	stableIterations = 32
)

// StableSwap is the two-coin amplified invariant used by the SPL token-swap
// stable curve. The leverage is Amp*N.
type StableSwap struct {
	Amp uint64
}

func (s StableSwap) leverage() (*uint256.Int, error) {
	if s.Amp == 0 || s.Amp > math.MaxUint64/stableCoins {
		return nil, domain.ErrOverflow
	}
	return uint256.NewInt(s.Amp * stableCoins), nil
}

// calculateStep runs one Newton round for D:
// (L*S + Dp*n) * D / ((L-1)*D + (n+1)*Dp)
func calculateStep(d, leverage, sum, dProduct *uint256.Int) (*uint256.Int, error) {
	leverageMul, err := mulChecked(leverage, sum)
	if err != nil {
		return nil, err
	}
	dpMul, err := mulChecked(dProduct, u256Two)
	if err != nil {
		return nil, err
	}
	lVal, err := addChecked(leverageMul, dpMul)
	if err != nil {
		return nil, err
	}
	if lVal, err = mulChecked(lVal, d); err != nil {
		return nil, err
	}

	leverageSub, err := mulChecked(d, new(uint256.Int).Sub(leverage, u256One))
	if err != nil {
		return nil, err
	}
	nSum, err := mulChecked(dProduct, uint256.NewInt(stableCoins+1))
	if err != nil {
		return nil, err
	}
	rVal, err := addChecked(leverageSub, nSum)
	if err != nil {
		return nil, err
	}
	if rVal.IsZero() {
		return nil, domain.ErrOverflow
	}
	return new(uint256.Int).Div(lVal, rVal), nil
}

// computeD solves the invariant for D at the given reserves.
func computeD(leverage *uint256.Int, amountA, amountB uint64) (*uint256.Int, error) {
	a := uint256.NewInt(amountA)
	b := uint256.NewInt(amountB)
	sum := new(uint256.Int).Add(a, b)
	if sum.IsZero() {
		return sum, nil
	}

	aTimesCoins := new(uint256.Int).Mul(a, u256Two)
	aTimesCoins.Add(aTimesCoins, u256One)
	bTimesCoins := new(uint256.Int).Mul(b, u256Two)
	bTimesCoins.Add(bTimesCoins, u256One)

	d := new(uint256.Int).Set(sum)
	for i := 0; i < stableIterations; i++ {
		dProduct, err := mulChecked(d, d)
		if err != nil {
			return nil, err
		}
		dProduct.Div(dProduct, aTimesCoins)
		if dProduct, err = mulChecked(dProduct, d); err != nil {
			return nil, err
		}
		dProduct.Div(dProduct, bTimesCoins)

		prev := d
		if d, err = calculateStep(prev, leverage, sum, dProduct); err != nil {
			return nil, err
		}
		if d.Eq(prev) {
			break
		}
	}
	return d, nil
}

// computeNewDestination solves y^2 + b*y = c for the destination reserve
// after the source reserve moves to newSource.
func computeNewDestination(leverage *uint256.Int, newSource uint64, d *uint256.Int) (*uint256.Int, error) {
	x := uint256.NewInt(newSource)
	if x.IsZero() {
		return nil, domain.ErrInsufficientLiquidity
	}

	// c = D^3 / (n^2 * x * L)
	c, err := mulChecked(d, d)
	if err != nil {
		return nil, err
	}
	if c, err = mulChecked(c, d); err != nil {
		return nil, err
	}
	cDen, err := mulChecked(x, u256Four)
	if err != nil {
		return nil, err
	}
	if cDen, err = mulChecked(cDen, leverage); err != nil {
		return nil, err
	}
	c.Div(c, cDen)

	// b = x + D/L
	b, err := addChecked(x, new(uint256.Int).Div(d, leverage))
	if err != nil {
		return nil, err
	}

	y := new(uint256.Int).Set(d)
	for i := 0; i < stableIterations; i++ {
		num, err := mulChecked(y, y)
		if err != nil {
			return nil, err
		}
		if num, err = addChecked(num, c); err != nil {
			return nil, err
		}
		den, err := mulChecked(y, u256Two)
		if err != nil {
			return nil, err
		}
		if den, err = addChecked(den, b); err != nil {
			return nil, err
		}
		if den.Cmp(d) <= 0 {
			return nil, domain.ErrOverflow
		}
		den.Sub(den, d)

		prev := y
		y = new(uint256.Int).Div(num, den)
		if y.Eq(prev) {
			break
		}
	}
	return y, nil
}

func (s StableSwap) swapOutWithD(in, reserveIn, reserveOut uint64, leverage, d *uint256.Int) (uint64, error) {
	if in == 0 {
		return 0, nil
	}
	if in > math.MaxUint64-reserveIn {
		return 0, domain.ErrOverflow
	}
	newDest, err := computeNewDestination(leverage, reserveIn+in, d)
	if err != nil {
		return 0, err
	}
	dest := uint256.NewInt(reserveOut)
	if newDest.Cmp(dest) >= 0 {
		return 0, nil
	}
	out := new(uint256.Int).Sub(dest, newDest).Uint64()
	if out >= reserveOut {
		return 0, domain.ErrInsufficientLiquidity
	}
	return out, nil
}

func (s StableSwap) SwapOut(in, reserveIn, reserveOut uint64) (uint64, error) {
	if reserveIn == 0 || reserveOut == 0 {
		return 0, domain.ErrInsufficientLiquidity
	}
	leverage, err := s.leverage()
	if err != nil {
		return 0, err
	}
	d, err := computeD(leverage, reserveIn, reserveOut)
	if err != nil {
		return 0, err
	}
	return s.swapOutWithD(in, reserveIn, reserveOut, leverage, d)
}

// SwapIn searches for the smallest input reaching out. The invariant has no
// closed-form inverse that rounds consistently with SwapOut.
func (s StableSwap) SwapIn(out, reserveIn, reserveOut uint64) (uint64, error) {
	if reserveIn == 0 || reserveOut == 0 || out >= reserveOut {
		return 0, domain.ErrInsufficientLiquidity
	}
	if out == 0 {
		return 0, nil
	}
	leverage, err := s.leverage()
	if err != nil {
		return 0, err
	}
	d, err := computeD(leverage, reserveIn, reserveOut)
	if err != nil {
		return 0, err
	}

	reaches := func(in uint64) (bool, error) {
		got, err := s.swapOutWithD(in, reserveIn, reserveOut, leverage, d)
		if err != nil {
			return false, err
		}
		return got >= out, nil
	}

	lo, hi := uint64(0), uint64(1)
	for {
		ok, err := reaches(hi)
		if err != nil {
			return 0, err
		}
		if ok {
			break
		}
		lo = hi
		if hi > (math.MaxUint64-reserveIn)/2 {
			return 0, domain.ErrOverflow
		}
		hi *= 2
	}

	// invariant: reaches(lo) is false or lo == 0, reaches(hi) is true
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		ok, err := reaches(mid)
		if err != nil {
			return 0, err
		}
		if ok {
			hi = mid
		} else {
			lo = mid
		}
	}
	return hi, nil
}

// SpotOut prices in at dy/dx of L(x+y) + D = L*D + D^3/(4xy):
// in * (4L x^2 y^2 + D^3 y) / (4L x^2 y^2 + D^3 x)
func (s StableSwap) SpotOut(in, reserveIn, reserveOut uint64) (uint64, error) {
	if reserveIn == 0 || reserveOut == 0 {
		return 0, domain.ErrInsufficientLiquidity
	}
	leverage, err := s.leverage()
	if err != nil {
		return 0, err
	}
	d, err := computeD(leverage, reserveIn, reserveOut)
	if err != nil {
		return 0, err
	}

	x := new(big.Int).SetUint64(reserveIn)
	y := new(big.Int).SetUint64(reserveOut)
	d3 := d.ToBig()
	d3.Exp(d3, big.NewInt(3), nil)

	xy := new(big.Int).Mul(x, y)
	common := new(big.Int).Mul(xy, xy)
	common.Mul(common, leverage.ToBig())
	common.Lsh(common, 2)

	num := new(big.Int).Mul(d3, y)
	num.Add(num, common)
	den := new(big.Int).Mul(d3, x)
	den.Add(den, common)

	num.Mul(num, new(big.Int).SetUint64(in))
	num.Quo(num, den)
	if !num.IsUint64() {
		return 0, domain.ErrOverflow
	}
	return num.Uint64(), nil
}
