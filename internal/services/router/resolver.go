// Package router turns the static route topology into oriented,
// balance-filled pool pairs and picks the best one for a trade.
package router

import (
	"context"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hxuan190/orca-swap-router/internal/domain"
	"github.com/hxuan190/orca-swap-router/internal/metrics"
)

const maxConcurrentFetches = 16

// PoolCatalog is the static topology the resolver reads.
type PoolCatalog interface {
	Pool(path string) (domain.Pool, bool)
	Routes(source, destination string) []domain.Route
}

// BalanceSource provides reserve balances, usually a balance.Cache.
type BalanceSource interface {
	GetOrFetch(ctx context.Context, account solana.PublicKey) (domain.TokenBalance, error)
}

type Resolver struct {
	catalog  PoolCatalog
	balances BalanceSource
}

func NewResolver(catalog PoolCatalog, balances BalanceSource) *Resolver {
	return &Resolver{catalog: catalog, balances: balances}
}

// Candidates resolves and orients every route between source and destination
// without touching balances. Routes naming unknown pools or failing to connect
// the two tokens are left out.
func (r *Resolver) Candidates(source, destination string) []domain.PoolsPair {
	routes := r.catalog.Routes(source, destination)
	out := make([]domain.PoolsPair, 0, len(routes))
	for _, route := range routes {
		pools := make([]domain.Pool, 0, len(route))
		for _, path := range route {
			pool, ok := r.catalog.Pool(path)
			if !ok {
				metrics.CandidatesDropped.WithLabelValues("unknown_path").Inc()
				log.Debug().Str("path", path).Msg("[routeResolver] unknown pool path, dropping")
				continue
			}
			pools = append(pools, withPathCurve(pool, path))
		}
		if len(pools) == 0 {
			continue
		}

		pair := Orient(pools, source, destination)
		if err := pair.Validate(source, destination); err != nil {
			metrics.CandidatesDropped.WithLabelValues("shape").Inc()
			log.Debug().Strs("route", route).Err(err).Msg("[routeResolver] route does not connect, dropping")
			continue
		}
		out = append(out, pair)
	}
	return out
}

// Resolve returns the candidates between source and destination with every
// leg's reserve balance attached. Balances are fetched concurrently, once per
// distinct account. A candidate whose balances cannot be read is dropped; an
// empty result is not an error. A cancelled ctx returns ctx.Err().
func (r *Resolver) Resolve(ctx context.Context, source, destination string) ([]domain.PoolsPair, error) {
	start := time.Now()
	defer func() { metrics.ResolveDuration.Observe(time.Since(start).Seconds()) }()

	candidates := r.Candidates(source, destination)
	if len(candidates) == 0 {
		metrics.CandidatesResolved.Observe(0)
		return nil, ctx.Err()
	}

	balances, err := r.fetchBalances(ctx, candidates)
	if err != nil {
		return nil, err
	}

	out := make([]domain.PoolsPair, 0, len(candidates))
	for _, pair := range candidates {
		filled, ok := fillBalances(pair, balances)
		if !ok {
			metrics.CandidatesDropped.WithLabelValues("balance").Inc()
			continue
		}
		out = append(out, filled)
	}
	metrics.CandidatesResolved.Observe(float64(len(out)))
	return out, nil
}

func (r *Resolver) fetchBalances(ctx context.Context, candidates []domain.PoolsPair) (map[solana.PublicKey]domain.TokenBalance, error) {
	seen := make(map[solana.PublicKey]struct{})
	accounts := make([]solana.PublicKey, 0, len(candidates)*4)
	for _, pair := range candidates {
		for _, pool := range pair {
			for _, account := range pool.Accounts() {
				if _, ok := seen[account]; ok {
					continue
				}
				seen[account] = struct{}{}
				accounts = append(accounts, account)
			}
		}
	}

	var (
		mu  sync.Mutex
		out = make(map[solana.PublicKey]domain.TokenBalance, len(accounts))
		g   errgroup.Group
	)
	g.SetLimit(maxConcurrentFetches)
	for _, account := range accounts {
		g.Go(func() error {
			bal, err := r.balances.GetOrFetch(ctx, account)
			if err != nil {
				log.Warn().Str("account", account.String()).Err(err).Msg("[routeResolver] failed to read reserve balance")
				return nil
			}
			mu.Lock()
			out[account] = bal
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	// fetches that finished after cancellation still fill the cache, but the
	// request itself is abandoned
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func fillBalances(pair domain.PoolsPair, balances map[solana.PublicKey]domain.TokenBalance) (domain.PoolsPair, bool) {
	filled := make(domain.PoolsPair, len(pair))
	for i, pool := range pair {
		a, okA := balances[pool.A.Account]
		b, okB := balances[pool.B.Account]
		if !okA || !okB {
			return nil, false
		}
		filled[i] = pool.WithBalances(a, b)
	}
	return filled, true
}

// withPathCurve selects the stable curve for pools reached through a
// "[stable]" path even when the catalog entry says otherwise.
func withPathCurve(pool domain.Pool, path string) domain.Pool {
	if !domain.IsStablePath(path) || pool.IsStable() {
		return pool
	}
	pool.Curve = domain.CurveStableSwap
	if pool.Amp == 0 {
		pool.Amp = domain.DefaultAmp
	}
	return pool
}

// Orient puts the pools of one route in trade direction: the pool holding the
// source first, then each pool flipped so legs run source to destination.
func Orient(pools []domain.Pool, source, destination string) domain.PoolsPair {
	src, dst := domain.FixedTokenName(source), domain.FixedTokenName(destination)
	switch len(pools) {
	case 1:
		return domain.PoolsPair{orientFrom(pools[0], src)}
	case 2:
		first, second := Reorder(pools[0], pools[1], src, dst)
		return domain.PoolsPair{orientFrom(first, src), orientTo(second, dst)}
	default:
		out := make(domain.PoolsPair, len(pools))
		copy(out, pools)
		return out
	}
}

// Reorder returns the two pools with the one holding the source first. When
// both or neither hold it, the order that ends at the destination wins, and
// the catalog order is kept otherwise.
func Reorder(p0, p1 domain.Pool, source, destination string) (domain.Pool, domain.Pool) {
	c0, c1 := p0.Contains(source), p1.Contains(source)
	switch {
	case c0 && !c1:
		return p0, p1
	case c1 && !c0:
		return p1, p0
	case p0.Contains(destination) && !p1.Contains(destination):
		return p1, p0
	default:
		return p0, p1
	}
}

func orientFrom(pool domain.Pool, token string) domain.Pool {
	if domain.FixedTokenName(pool.A.TokenName) != token {
		return pool.Reversed()
	}
	return pool
}

func orientTo(pool domain.Pool, token string) domain.Pool {
	if domain.FixedTokenName(pool.B.TokenName) != token {
		return pool.Reversed()
	}
	return pool
}
