package amm

import (
	"math/big"
	"sync"

	"github.com/holiman/uint256"

	"github.com/hxuan190/orca-swap-router/internal/domain"
)

var (
	u256One  = uint256.NewInt(1)
	u256Two  = uint256.NewInt(2)
	u256Four = uint256.NewInt(4)

	bigHundred = big.NewInt(100)
)

var uint256Pool = sync.Pool{
	New: func() interface{} {
		return new(uint256.Int)
	},
}

// GetU256 gets a zeroed uint256.Int from the pool
func GetU256() *uint256.Int {
	return uint256Pool.Get().(*uint256.Int)
}

// PutU256 returns a uint256.Int to the pool
func PutU256(v *uint256.Int) {
	v.Clear()
	uint256Pool.Put(v)
}

// MulDiv computes floor(a*b/c) with a 256-bit intermediate.
func MulDiv(a, b, c uint64) (uint64, error) {
	if c == 0 {
		return 0, domain.ErrOverflow
	}
	result := GetU256()
	temp := GetU256()
	defer func() {
		PutU256(result)
		PutU256(temp)
	}()

	result.SetUint64(a)
	temp.SetUint64(b)
	result.Mul(result, temp)
	temp.SetUint64(c)
	result.Div(result, temp)

	if !result.IsUint64() {
		return 0, domain.ErrOverflow
	}
	return result.Uint64(), nil
}

// MulDivCeil computes ceil(a*b/c) with a 256-bit intermediate.
func MulDivCeil(a, b, c uint64) (uint64, error) {
	if c == 0 {
		return 0, domain.ErrOverflow
	}
	result := GetU256()
	temp := GetU256()
	rem := GetU256()
	defer func() {
		PutU256(result)
		PutU256(temp)
		PutU256(rem)
	}()

	result.SetUint64(a)
	temp.SetUint64(b)
	result.Mul(result, temp)
	temp.SetUint64(c)
	result.DivMod(result, temp, rem)
	if !rem.IsZero() {
		result.Add(result, u256One)
	}

	if !result.IsUint64() {
		return 0, domain.ErrOverflow
	}
	return result.Uint64(), nil
}

// ceilDiv returns ceil(a/b) for b > 0.
func ceilDiv(a, b *uint256.Int) *uint256.Int {
	q, r := new(uint256.Int), new(uint256.Int)
	q.DivMod(a, b, r)
	if !r.IsZero() {
		q.Add(q, u256One)
	}
	return q
}

// mulChecked returns a*b or ErrOverflow when the product leaves 256 bits.
func mulChecked(a, b *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, domain.ErrOverflow
	}
	return z, nil
}

func addChecked(a, b *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, domain.ErrOverflow
	}
	return z, nil
}

// scaleRat computes amount*num/den, rounded up or down, as a uint64.
func scaleRat(amount uint64, num, den *big.Int, roundUp bool) (uint64, error) {
	if den.Sign() <= 0 {
		return 0, domain.ErrOverflow
	}
	q, r := new(big.Int), new(big.Int)
	q.Mul(new(big.Int).SetUint64(amount), num)
	q.QuoRem(q, den, r)
	if roundUp && r.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	if !q.IsUint64() {
		return 0, domain.ErrOverflow
	}
	return q.Uint64(), nil
}
