package domain

import "errors"

var (
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrOverflow              = errors.New("arithmetic overflow")
	ErrUnknownPathOrToken    = errors.New("unknown path or token")
	ErrInvalidRouteShape     = errors.New("invalid route shape")
	ErrNoRouteFound          = errors.New("no route found")
	ErrBalanceNotLoaded      = errors.New("reserve balance not loaded")
	ErrInvalidSlippage       = errors.New("slippage must be in [0, 1)")
	ErrInvalidAmount         = errors.New("invalid amount")
)
