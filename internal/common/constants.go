// Package common contains constants and process setup shared across services
package common

import (
	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/orca-swap-router/internal/domain"
)

// Orca mainnet programs. A programIds document may override any of them.
var (
	TokenSwapProgramID      = solana.MustPublicKeyFromBase58("DjVE6JNiYqPL2QXyCUUh8rNjHrbz9hXHNYt99MQ59qw1")
	TokenSwapV2ProgramID    = solana.MustPublicKeyFromBase58("9W959DqEETiGZocYWCQPaJ6sBmUzgfxXfqGeTEdp3aQP")
	SerumTokenSwapProgramID = solana.MustPublicKeyFromBase58("SwaPpA9LAaLfeLi3a68M4DjnLqgtticKg6CnyNwgAC8")
	AquafarmProgramID       = solana.MustPublicKeyFromBase58("82yxjeMsvaURa4MbZZ7WZZHfobirZYkH1zF8fmeGtyaQ")
	TokenProgramID          = solana.TokenProgramID
)

func DefaultProgramIDs() domain.ProgramIDs {
	return domain.ProgramIDs{
		SerumTokenSwap: SerumTokenSwapProgramID,
		TokenSwapV2:    TokenSwapV2ProgramID,
		TokenSwap:      TokenSwapProgramID,
		Token:          TokenProgramID,
		Aquafarm:       AquafarmProgramID,
	}
}
