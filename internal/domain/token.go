package domain

import "github.com/gagliardetto/solana-go"

type TokenInfo struct {
	Name       string           `json:"name"`
	Mint       solana.PublicKey `json:"mint"`
	Decimals   uint8            `json:"decimals"`
	FetchPrice bool             `json:"fetchPrice"`
	PoolToken  bool             `json:"poolToken"`
}

// ProgramIDs are the swap programs referenced by the catalog.
type ProgramIDs struct {
	SerumTokenSwap solana.PublicKey `json:"serumTokenSwap"`
	TokenSwapV2    solana.PublicKey `json:"tokenSwapV2"`
	TokenSwap      solana.PublicKey `json:"tokenSwap"`
	Token          solana.PublicKey `json:"token"`
	Aquafarm       solana.PublicKey `json:"aquafarm"`
}
