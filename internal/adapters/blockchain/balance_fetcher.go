// Package blockchain reads pool reserve balances from a Solana RPC node.
package blockchain

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/orca-swap-router/internal/domain"
	"github.com/hxuan190/orca-swap-router/internal/metrics"
)

const maxAccountsPerRequest = 100

var ErrAccountNotFound = errors.New("token account not found")

// BalanceFetcher queries SPL token account balances. Single lookups use
// getTokenAccountBalance; batch lookups decode raw token accounts and need
// the decimals of each account registered beforehand.
type BalanceFetcher struct {
	client     *rpc.Client
	commitment rpc.CommitmentType

	mu       sync.RWMutex
	decimals map[solana.PublicKey]uint8
}

func NewBalanceFetcher(client *rpc.Client, commitment rpc.CommitmentType) *BalanceFetcher {
	if commitment == "" {
		commitment = rpc.CommitmentConfirmed
	}
	return &BalanceFetcher{
		client:     client,
		commitment: commitment,
		decimals:   make(map[solana.PublicKey]uint8),
	}
}

// RegisterDecimals records the decimals of reserve accounts for batch decoding.
func (f *BalanceFetcher) RegisterDecimals(decimals map[solana.PublicKey]uint8) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for account, d := range decimals {
		f.decimals[account] = d
	}
}

func (f *BalanceFetcher) GetReserveBalance(ctx context.Context, account solana.PublicKey) (domain.TokenBalance, error) {
	start := time.Now()
	res, err := f.client.GetTokenAccountBalance(ctx, account, f.commitment)
	metrics.BalanceFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.BalanceFetches.WithLabelValues("error").Inc()
		return domain.TokenBalance{}, fmt.Errorf("get token account balance %s: %w", account, err)
	}
	if res == nil || res.Value == nil {
		metrics.BalanceFetches.WithLabelValues("not_found").Inc()
		return domain.TokenBalance{}, fmt.Errorf("%w: %s", ErrAccountNotFound, account)
	}

	amount, err := strconv.ParseUint(res.Value.Amount, 10, 64)
	if err != nil {
		metrics.BalanceFetches.WithLabelValues("error").Inc()
		return domain.TokenBalance{}, fmt.Errorf("parse balance of %s: %w", account, err)
	}
	metrics.BalanceFetches.WithLabelValues("ok").Inc()
	return domain.TokenBalance{Amount: amount, Decimals: res.Value.Decimals}, nil
}

// GetReserveBalances fetches many accounts with getMultipleAccounts. Accounts
// that are missing, undecodable or without registered decimals are left out
// of the result.
func (f *BalanceFetcher) GetReserveBalances(ctx context.Context, accounts []solana.PublicKey) (map[solana.PublicKey]domain.TokenBalance, error) {
	out := make(map[solana.PublicKey]domain.TokenBalance, len(accounts))
	for i := 0; i < len(accounts); i += maxAccountsPerRequest {
		end := min(i+maxAccountsPerRequest, len(accounts))
		chunk := accounts[i:end]

		start := time.Now()
		res, err := f.client.GetMultipleAccountsWithOpts(ctx, chunk, &rpc.GetMultipleAccountsOpts{
			Commitment: f.commitment,
		})
		metrics.BalanceFetchDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.BalanceFetches.WithLabelValues("error").Add(float64(len(chunk)))
			return out, fmt.Errorf("get multiple accounts: %w", err)
		}
		if res == nil {
			continue
		}

		f.mu.RLock()
		for j, info := range res.Value {
			if j >= len(chunk) {
				break
			}
			account := chunk[j]
			if info == nil {
				metrics.BalanceFetches.WithLabelValues("not_found").Inc()
				continue
			}
			decimals, ok := f.decimals[account]
			if !ok {
				log.Debug().Str("account", account.String()).Msg("[balanceFetcher] no decimals registered, skipping")
				continue
			}
			var acc token.Account
			if err := bin.NewBinDecoder(info.Data.GetBinary()).Decode(&acc); err != nil {
				metrics.BalanceFetches.WithLabelValues("error").Inc()
				log.Warn().Str("account", account.String()).Err(err).Msg("[balanceFetcher] failed to decode token account")
				continue
			}
			out[account] = domain.TokenBalance{Amount: acc.Amount, Decimals: decimals}
			metrics.BalanceFetches.WithLabelValues("ok").Inc()
		}
		f.mu.RUnlock()
	}
	return out, nil
}
