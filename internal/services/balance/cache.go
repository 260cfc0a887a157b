// Package balance caches pool reserve balances for the lifetime of the
// process. Entries are best-effort: a caller about to build a transaction
// should Refresh or Invalidate the accounts it prices against.
package balance

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/hxuan190/orca-swap-router/internal/domain"
	"github.com/hxuan190/orca-swap-router/internal/metrics"
)

const DefaultFetchTimeout = 10 * time.Second

// Fetcher reads one reserve account balance from chain.
type Fetcher interface {
	GetReserveBalance(ctx context.Context, account solana.PublicKey) (domain.TokenBalance, error)
}

// BatchFetcher is implemented by fetchers that can read many accounts in one
// round trip. Accounts missing from the result were not found.
type BatchFetcher interface {
	GetReserveBalances(ctx context.Context, accounts []solana.PublicKey) (map[solana.PublicKey]domain.TokenBalance, error)
}

type Cache struct {
	balances     *shardedBalanceMap
	fetcher      Fetcher
	group        singleflight.Group
	fetchTimeout time.Duration
}

func NewCache(fetcher Fetcher, fetchTimeout time.Duration) *Cache {
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}
	return &Cache{
		balances:     newShardedBalanceMap(),
		fetcher:      fetcher,
		fetchTimeout: fetchTimeout,
	}
}

func (c *Cache) Get(account solana.PublicKey) (domain.TokenBalance, bool) {
	return c.balances.Get(account)
}

func (c *Cache) Set(account solana.PublicKey, bal domain.TokenBalance) {
	c.balances.Set(account, bal)
	metrics.BalanceCacheSize.Set(float64(c.balances.Len()))
}

// Invalidate drops the given accounts so the next access refetches them.
// Fetches already in flight for them neither fill the cache nor serve later
// callers.
func (c *Cache) Invalidate(accounts ...solana.PublicKey) {
	for _, account := range accounts {
		c.balances.Delete(account)
	}
	metrics.BalanceCacheSize.Set(float64(c.balances.Len()))
}

func (c *Cache) Clear() {
	c.balances.Clear()
	metrics.BalanceCacheSize.Set(0)
}

func (c *Cache) Len() int {
	return c.balances.Len()
}

// GetOrFetch returns the cached balance or fetches it. Concurrent misses on
// one account share a single fetch. The fetch is detached from ctx: when ctx
// ends first the caller gets ctx.Err() while the fetch still fills the cache.
func (c *Cache) GetOrFetch(ctx context.Context, account solana.PublicKey) (domain.TokenBalance, error) {
	if bal, ok := c.balances.Get(account); ok {
		metrics.BalanceCacheHits.Inc()
		return bal, nil
	}
	metrics.BalanceCacheMisses.Inc()
	return c.fetch(ctx, account)
}

// Refresh bypasses the cached value and any fetch already in flight, and
// stores a fresh reading.
func (c *Cache) Refresh(ctx context.Context, account solana.PublicKey) (domain.TokenBalance, error) {
	c.Invalidate(account)
	return c.fetch(ctx, account)
}

// flightKey scopes a shared fetch to one generation of the account.
func flightKey(account solana.PublicKey, gen uint64) string {
	return account.String() + "#" + strconv.FormatUint(gen, 10)
}

func (c *Cache) fetch(ctx context.Context, account solana.PublicKey) (domain.TokenBalance, error) {
	if err := ctx.Err(); err != nil {
		return domain.TokenBalance{}, err
	}

	gen := c.balances.Generation(account)
	key := flightKey(account, gen)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()

		bal, err := c.fetcher.GetReserveBalance(fctx, account)
		if err != nil {
			return nil, fmt.Errorf("fetch reserve balance %s: %w", account, err)
		}
		if c.balances.SetIfGeneration(account, bal, gen) {
			metrics.BalanceCacheSize.Set(float64(c.balances.Len()))
		} else {
			log.Debug().Str("account", account.String()).Msg("[balanceCache] dropped reading invalidated during fetch")
		}
		return bal, nil
	})

	select {
	case <-ctx.Done():
		return domain.TokenBalance{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.TokenBalance{}, res.Err
		}
		return res.Val.(domain.TokenBalance), nil
	}
}

// Warm loads every uncached account, in one round trip when the fetcher
// supports batching. Individual failures are logged and left uncached.
func (c *Cache) Warm(ctx context.Context, accounts []solana.PublicKey) (int, error) {
	missing := make([]solana.PublicKey, 0, len(accounts))
	gens := make(map[solana.PublicKey]uint64, len(accounts))
	for _, account := range accounts {
		if _, ok := c.balances.Get(account); !ok {
			missing = append(missing, account)
			gens[account] = c.balances.Generation(account)
		}
	}
	if len(missing) == 0 {
		return 0, nil
	}

	if batch, ok := c.fetcher.(BatchFetcher); ok {
		found, err := batch.GetReserveBalances(ctx, missing)
		if err != nil {
			return 0, fmt.Errorf("batch fetch reserve balances: %w", err)
		}
		for account, bal := range found {
			c.balances.SetIfGeneration(account, bal, gens[account])
		}
		metrics.BalanceCacheSize.Set(float64(c.balances.Len()))
		if len(found) < len(missing) {
			log.Warn().Int("requested", len(missing)).Int("found", len(found)).Msg("[balanceCache] some reserve accounts were not found")
		}
		return len(found), nil
	}

	loaded := 0
	for _, account := range missing {
		if _, err := c.fetch(ctx, account); err != nil {
			if ctx.Err() != nil {
				return loaded, ctx.Err()
			}
			log.Warn().Err(err).Str("account", account.String()).Msg("[balanceCache] failed to warm reserve balance")
			continue
		}
		loaded++
	}
	return loaded, nil
}
