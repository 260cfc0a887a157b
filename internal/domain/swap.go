package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type SwapMode string

const (
	SwapModeExactIn  SwapMode = "ExactIn"
	SwapModeExactOut SwapMode = "ExactOut"
)

func ParseSwapMode(s string) (SwapMode, error) {
	switch SwapMode(s) {
	case SwapModeExactIn, "":
		return SwapModeExactIn, nil
	case SwapModeExactOut:
		return SwapModeExactOut, nil
	default:
		return "", fmt.Errorf("invalid swap mode %q", s)
	}
}

// QuoteRequest asks for the best route between two tokens. Tokens are catalog
// names; callers holding mints resolve them through the catalog first.
type QuoteRequest struct {
	InputToken  string
	OutputToken string

	// Amount is the exact input for ExactIn, the desired output for ExactOut.
	Amount uint64

	Mode SwapMode

	Slippage decimal.Decimal
}

// SlippageFromBps converts basis points to a fraction. Range checks are left
// to Validate.
func SlippageFromBps(bps int) decimal.Decimal {
	return decimal.New(int64(bps), -4)
}

func (r *QuoteRequest) Validate() error {
	if r.InputToken == "" || r.OutputToken == "" {
		return fmt.Errorf("%w: empty token", ErrUnknownPathOrToken)
	}
	if FixedTokenName(r.InputToken) == FixedTokenName(r.OutputToken) {
		return fmt.Errorf("%w: input and output are both %s", ErrInvalidAmount, r.InputToken)
	}
	if r.Amount == 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	if r.Slippage.IsNegative() || r.Slippage.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return ErrInvalidSlippage
	}
	return nil
}
