package aggregator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/orca-swap-router/internal/adapters/orca"
	"github.com/hxuan190/orca-swap-router/internal/config"
	"github.com/hxuan190/orca-swap-router/internal/domain"
	"github.com/hxuan190/orca-swap-router/internal/services/market"
	"github.com/hxuan190/orca-swap-router/internal/services/router"
)

const fixtures = "../adapters/orca/testdata"

var reserves = map[string][2]uint64{
	"BTC/ETH":                    {1014000, 16914000},
	"BTC/SOL[aquafarm]":          {18448748, 7218011507888},
	"ETH/SOL":                    {30000000, 700000000000},
	"ETH/SOL[aquafarm]":          {234567890, 5123456789012},
	"SOCN/SOL[stable][aquafarm]": {20097450122295, 27474561069286},
}

type poolFetcher struct {
	mu       sync.Mutex
	balances map[solana.PublicKey]domain.TokenBalance
	fail     bool
}

func (f *poolFetcher) GetReserveBalance(_ context.Context, account solana.PublicKey) (domain.TokenBalance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return domain.TokenBalance{}, errors.New("rpc unavailable")
	}
	bal, ok := f.balances[account]
	if !ok {
		return domain.TokenBalance{}, errors.New("account not found")
	}
	return bal, nil
}

func newTestService(t *testing.T) (*Service, *poolFetcher) {
	t.Helper()
	fetcher := &poolFetcher{balances: map[solana.PublicKey]domain.TokenBalance{}}
	m := market.NewService(orca.NewLoader(fixtures, "mainnet"), nil, fetcher, time.Second)
	require.NoError(t, m.Load(context.Background()))

	for _, pool := range m.Catalog().Pools() {
		r, ok := reserves[pool.Path]
		require.True(t, ok, pool.Path)
		fetcher.balances[pool.A.Account] = domain.TokenBalance{Amount: r[0], Decimals: 6}
		fetcher.balances[pool.B.Account] = domain.TokenBalance{Amount: r[1], Decimals: 9}
	}

	svc := NewService(m, &config.RoutingConfig{DefaultSlippageBps: 50, MaxSlippageBps: 5000})
	return svc, fetcher
}

func exactIn(from, to string, amount uint64) domain.QuoteRequest {
	return domain.QuoteRequest{
		InputToken:  from,
		OutputToken: to,
		Amount:      amount,
		Mode:        domain.SwapModeExactIn,
		Slippage:    decimal.RequireFromString("0.005"),
	}
}

func requireHopsChain(t *testing.T, q *domain.SwapQuote) {
	t.Helper()
	require.Len(t, q.Hops, len(q.Pair))
	require.Len(t, q.LiquidityProviderFees, len(q.Pair))
	require.Equal(t, q.AmountIn, q.Hops[0].AmountIn)
	require.Equal(t, q.AmountOut, q.Hops[len(q.Hops)-1].AmountOut)
	require.Equal(t, q.Source, q.Hops[0].InToken)
	require.Equal(t, q.Dest, q.Hops[len(q.Hops)-1].OutToken)
	for i := 1; i < len(q.Hops); i++ {
		require.Equal(t, q.Hops[i-1].AmountOut, q.Hops[i].AmountIn)
		require.Equal(t, q.Hops[i-1].OutToken, q.Hops[i].InToken)
	}
}

func TestQuoteExactInPicksBestCandidate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	q, err := svc.Quote(ctx, exactIn("BTC", "ETH", 100000))
	require.NoError(t, err)
	require.Equal(t, "BTC", q.Source)
	require.Equal(t, "ETH", q.Dest)
	require.Equal(t, uint64(100000), q.AmountIn)
	require.Less(t, q.MinAmountOut, q.AmountOut)
	requireHopsChain(t, q)

	c := svc.marketSvc.Catalog()
	candidates, err := router.NewResolver(c, svc.marketSvc.Balances()).Resolve(ctx, "BTC", "ETH")
	require.NoError(t, err)
	require.Len(t, candidates, 3, "the USDC route names unknown pools")
	for _, pair := range candidates {
		e, err := router.NewExchange(pair)
		require.NoError(t, err)
		out, err := e.OutputAmount(100000)
		require.NoError(t, err)
		require.LessOrEqual(t, out, q.AmountOut)
	}
}

func TestQuoteAcceptsMints(t *testing.T) {
	svc, _ := newTestService(t)

	byName, err := svc.Quote(context.Background(), exactIn("BTC", "SOL", 5000))
	require.NoError(t, err)
	byMint, err := svc.Quote(context.Background(), exactIn(
		"9n4nbM75f5Ui33ZbPYXn59EwSgE8CGsHtAeTH5YFeJ9E",
		"So11111111111111111111111111111111111111112",
		5000,
	))
	require.NoError(t, err)
	require.Equal(t, byName.AmountOut, byMint.AmountOut)
	require.Equal(t, "SOL", byMint.Dest)
	require.Nil(t, byMint.Intermediary)
}

func TestQuoteThroughStablePool(t *testing.T) {
	svc, _ := newTestService(t)

	q, err := svc.Quote(context.Background(), exactIn("BTC", "SOCN", 100000))
	require.NoError(t, err)
	require.Equal(t, []string{"BTC/SOL[aquafarm]", "SOCN/SOL[stable][aquafarm]"}, q.Pair.Paths())
	requireHopsChain(t, q)
	require.Equal(t, "Stable", q.Hops[1].Curve)

	require.NotNil(t, q.Intermediary)
	require.Equal(t, "SOL", q.Intermediary.TokenName)
	require.Equal(t, q.Hops[0].AmountOut, q.Intermediary.OutputAmount)
	require.True(t, q.Intermediary.IsStableSwap)

	reverse, err := svc.Quote(context.Background(), exactIn("SOCN", "BTC", 1000000000))
	require.NoError(t, err)
	require.Equal(t, []string{"SOCN/SOL[stable][aquafarm]", "BTC/SOL[aquafarm]"}, reverse.Pair.Paths())
	require.Equal(t, "SOCN", reverse.Hops[0].InToken)
	require.Equal(t, "BTC", reverse.Hops[1].OutToken)
	require.False(t, reverse.Intermediary.IsStableSwap)
}

func TestQuoteExactOut(t *testing.T) {
	svc, _ := newTestService(t)

	req := exactIn("ETH", "SOL", 100000000000)
	req.Mode = domain.SwapModeExactOut
	q, err := svc.Quote(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, domain.SwapModeExactOut, q.Mode)
	require.GreaterOrEqual(t, q.AmountOut, req.Amount)
	require.Equal(t, req.Amount, q.MinAmountOut)
	require.Greater(t, q.MaxAmountIn, q.AmountIn)
	requireHopsChain(t, q)

	e, err := router.NewExchange(q.Pair)
	require.NoError(t, err)
	maxIn, err := e.MaximumAmountIn(req.Amount, q.Slippage)
	require.NoError(t, err)
	require.Equal(t, maxIn, q.MaxAmountIn)

	minReceiveIn, err := e.InputAmountForMinimumReceive(req.Amount, q.Slippage)
	require.NoError(t, err)
	require.Equal(t, minReceiveIn, q.MinReceiveAmountIn)
	require.GreaterOrEqual(t, q.MinReceiveAmountIn, q.AmountIn)

	minOut, err := e.MinimumAmountOut(q.MinReceiveAmountIn, q.Slippage)
	require.NoError(t, err)
	require.GreaterOrEqual(t, minOut, req.Amount)
}

func TestQuoteErrors(t *testing.T) {
	svc, fetcher := newTestService(t)
	ctx := context.Background()

	_, err := svc.Quote(ctx, exactIn("BTC", "DOGE", 100))
	require.ErrorIs(t, err, domain.ErrUnknownPathOrToken)

	_, err = svc.Quote(ctx, exactIn("BTC", "ETH", 0))
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.Quote(ctx, exactIn("SOL", "So11111111111111111111111111111111111111112", 100))
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	req := exactIn("BTC", "ETH", 100)
	req.Mode = domain.SwapModeExactOut
	req.Amount = 1 << 60
	_, err = svc.Quote(ctx, req)
	require.ErrorIs(t, err, domain.ErrNoRouteFound)

	fetcher.mu.Lock()
	fetcher.fail = true
	fetcher.mu.Unlock()
	_, err = svc.Quote(ctx, exactIn("ETH", "SOCN", 100))
	require.ErrorIs(t, err, domain.ErrNoRouteFound)
}

func TestRefreshPairInvalidatesRouteAccounts(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Quote(context.Background(), exactIn("BTC", "SOL", 5000))
	require.NoError(t, err)
	require.Equal(t, 2, svc.marketSvc.Balances().Len())

	n, err := svc.RefreshPair("SOL", "BTC")
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Zero(t, svc.marketSvc.Balances().Len())

	_, err = svc.RefreshPair("SOL", "DOGE")
	require.ErrorIs(t, err, domain.ErrUnknownPathOrToken)
}

func TestCatalogQueries(t *testing.T) {
	svc, _ := newTestService(t)

	stats, err := svc.Stats()
	require.NoError(t, err)
	require.Equal(t, 5, stats.Pools)
	require.Equal(t, 4, stats.Tokens)
	require.Equal(t, "mainnet", stats.Network)
	require.Equal(t, "0.005", stats.DefaultSlippage)

	dests, err := svc.Destinations("SOCN")
	require.NoError(t, err)
	require.Equal(t, []string{"BTC", "ETH", "SOL"}, dests)

	pool, err := svc.Pool("BTC/ETH")
	require.NoError(t, err)
	require.False(t, pool.HasBalances())

	_, err = svc.Quote(context.Background(), exactIn("BTC", "ETH", 1000))
	require.NoError(t, err)
	pool, err = svc.Pool("BTC/ETH")
	require.NoError(t, err)
	require.True(t, pool.HasBalances())

	_, err = svc.Pool("BTC/USDC[aquafarm]")
	require.ErrorIs(t, err, domain.ErrUnknownPathOrToken)
}

func TestSlippageFromBps(t *testing.T) {
	svc, _ := newTestService(t)

	s, err := svc.SlippageFromBps(100)
	require.NoError(t, err)
	require.Equal(t, "0.01", s.String())

	_, err = svc.SlippageFromBps(6000)
	require.ErrorIs(t, err, domain.ErrInvalidSlippage)

	_, err = svc.SlippageFromBps(65586)
	require.ErrorIs(t, err, domain.ErrInvalidSlippage)
}

func TestQuoteBeforeCatalogLoad(t *testing.T) {
	m := market.NewService(orca.NewLoader(fixtures, "mainnet"), nil, &poolFetcher{}, time.Second)
	svc := NewService(m, &config.RoutingConfig{DefaultSlippageBps: 50, MaxSlippageBps: 5000})

	_, err := svc.Quote(context.Background(), exactIn("BTC", "ETH", 100))
	require.ErrorIs(t, err, ErrCatalogNotLoaded)
}
