package domain

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

type CurveType uint8

const (
	CurveConstantProduct CurveType = iota
	CurveStableSwap
)

// DefaultAmp is the amplification coefficient used for stable pools whose
// catalog entry does not carry one.
const DefaultAmp uint64 = 100

func (c CurveType) String() string {
	switch c {
	case CurveConstantProduct:
		return "ConstantProduct"
	case CurveStableSwap:
		return "Stable"
	default:
		return "UNKNOWN"
	}
}

// TokenBalance is a reserve balance in smallest units.
type TokenBalance struct {
	Amount   uint64 `json:"amount"`
	Decimals uint8  `json:"decimals"`
}

// Fee is an exact rational fee rate applied to the input amount.
type Fee struct {
	Numerator   uint64 `json:"numerator"`
	Denominator uint64 `json:"denominator"`
}

func (f Fee) IsZero() bool {
	return f.Numerator == 0 || f.Denominator == 0
}

// Add returns f + o. A zero denominator counts as a zero rate.
func (f Fee) Add(o Fee) Fee {
	switch {
	case f.IsZero():
		return o
	case o.IsZero():
		return f
	case f.Denominator == o.Denominator:
		return Fee{Numerator: f.Numerator + o.Numerator, Denominator: f.Denominator}
	default:
		return Fee{
			Numerator:   f.Numerator*o.Denominator + o.Numerator*f.Denominator,
			Denominator: f.Denominator * o.Denominator,
		}
	}
}

func (f Fee) String() string {
	if f.IsZero() {
		return "0"
	}
	return fmt.Sprintf("%d/%d", f.Numerator, f.Denominator)
}

// Leg is one side of a two-asset pool.
type Leg struct {
	TokenName string           `json:"tokenName"`
	Mint      solana.PublicKey `json:"mint"`
	Account   solana.PublicKey `json:"account"`
	Balance   *TokenBalance    `json:"balance,omitempty"`
}

// Pool is one on-chain token-swap pool. Values are copied freely: orientation
// and balance fill return new values instead of mutating catalog entries.
type Pool struct {
	Path           string           `json:"path"`
	Account        solana.PublicKey `json:"account"`
	Authority      solana.PublicKey `json:"authority"`
	PoolTokenMint  solana.PublicKey `json:"poolTokenMint"`
	FeeAccount     solana.PublicKey `json:"feeAccount"`
	ProgramID      solana.PublicKey `json:"programId"`
	ProgramVersion uint8            `json:"programVersion"`
	Nonce          uint8            `json:"nonce"`

	A Leg `json:"tokenA"`
	B Leg `json:"tokenB"`

	TradeFee      Fee `json:"tradeFee"`
	OwnerTradeFee Fee `json:"ownerTradeFee"`

	Curve      CurveType `json:"curve"`
	Amp        uint64    `json:"amp"`
	Deprecated bool      `json:"deprecated"`
}

// FixedTokenName strips variant annotations from a path-derived token name,
// e.g. "SOL[aquafarm]" -> "SOL".
func FixedTokenName(name string) string {
	if i := strings.IndexByte(name, '['); i >= 0 {
		return name[:i]
	}
	return name
}

// Reversed returns a copy of the pool with legs A and B swapped.
func (p Pool) Reversed() Pool {
	p.A, p.B = p.B, p.A
	return p
}

func (p Pool) IsStable() bool {
	return p.Curve == CurveStableSwap
}

// Fee is the total rate withheld from the input: trade fee plus owner fee.
func (p Pool) Fee() Fee {
	return p.TradeFee.Add(p.OwnerTradeFee)
}

// Contains reports whether either leg carries the token, ignoring annotations.
func (p Pool) Contains(token string) bool {
	t := FixedTokenName(token)
	return FixedTokenName(p.A.TokenName) == t || FixedTokenName(p.B.TokenName) == t
}

func (p Pool) HasBalances() bool {
	return p.A.Balance != nil && p.B.Balance != nil
}

func (p Pool) ReserveA() (uint64, error) {
	if p.A.Balance == nil {
		return 0, fmt.Errorf("%w: %s leg %s", ErrBalanceNotLoaded, p.Path, p.A.TokenName)
	}
	return p.A.Balance.Amount, nil
}

func (p Pool) ReserveB() (uint64, error) {
	if p.B.Balance == nil {
		return 0, fmt.Errorf("%w: %s leg %s", ErrBalanceNotLoaded, p.Path, p.B.TokenName)
	}
	return p.B.Balance.Amount, nil
}

// Reserves returns both reserves or ErrBalanceNotLoaded.
func (p Pool) Reserves() (uint64, uint64, error) {
	a, err := p.ReserveA()
	if err != nil {
		return 0, 0, err
	}
	b, err := p.ReserveB()
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

// WithBalances returns a copy with both leg balances attached.
func (p Pool) WithBalances(a, b TokenBalance) Pool {
	p.A.Balance = &a
	p.B.Balance = &b
	return p
}

// Accounts returns the two reserve accounts in leg order.
func (p Pool) Accounts() [2]solana.PublicKey {
	return [2]solana.PublicKey{p.A.Account, p.B.Account}
}
