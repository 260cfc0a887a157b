package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/orca-swap-router/internal/config"
	"github.com/hxuan190/orca-swap-router/internal/domain"
	"github.com/hxuan190/orca-swap-router/internal/metrics"
	"github.com/hxuan190/orca-swap-router/internal/services"
	"github.com/hxuan190/orca-swap-router/internal/services/amm"
	"github.com/hxuan190/orca-swap-router/internal/services/market"
	"github.com/hxuan190/orca-swap-router/internal/services/router"
)

const AGGREGATOR_SERVICE = "aggregator-service"

var (
	// Error aliases
	ErrNoRouteFound          = domain.ErrNoRouteFound
	ErrInsufficientLiquidity = domain.ErrInsufficientLiquidity
	ErrUnknownToken          = domain.ErrUnknownPathOrToken
	ErrCatalogNotLoaded      = market.ErrCatalogNotLoaded
)

// Stats summarizes the loaded catalog and the balance cache.
type Stats struct {
	Network         string `json:"network"`
	Pools           int    `json:"pools"`
	Routes          int    `json:"routes"`
	Tokens          int    `json:"tokens"`
	CachedBalances  int    `json:"cachedBalances"`
	DefaultSlippage string `json:"defaultSlippage"`
}

// Service answers quotes by resolving candidates from the catalog, pricing
// them and assembling everything a transaction builder needs.
type Service struct {
	container.BaseDIInstance
	logger *services.ServiceLogger

	marketSvc *market.Service
	routing   *config.RoutingConfig
}

// NewService builds the aggregator outside the container.
func NewService(marketSvc *market.Service, routing *config.RoutingConfig) *Service {
	svc := &Service{marketSvc: marketSvc, routing: routing}
	svc.logger = services.NewServiceLogger(svc)
	return svc
}

func (svc *Service) ID() string {
	return AGGREGATOR_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.logger = services.NewServiceLogger(svc)
	svc.routing = c.GetConfig(config.ROUTING_CONFIG_KEY).(*config.RoutingConfig)
	svc.marketSvc = c.Instance(market.ServiceName).(*market.Service)
	return nil
}

func (svc *Service) Start() error {
	return svc.marketSvc.Start()
}

func (svc *Service) Stop() error {
	return nil
}

func (svc *Service) catalog() (*market.Catalog, error) {
	c := svc.marketSvc.Catalog()
	if c == nil {
		return nil, ErrCatalogNotLoaded
	}
	return c, nil
}

// DefaultSlippage is the tolerance applied when a request carries none.
func (svc *Service) DefaultSlippage() decimal.Decimal {
	return domain.SlippageFromBps(svc.routing.DefaultSlippageBps)
}

func (svc *Service) DefaultSlippageBps() int {
	return svc.routing.DefaultSlippageBps
}

// SlippageFromBps converts a requested tolerance, rejecting values above the
// configured maximum.
func (svc *Service) SlippageFromBps(bps int) (decimal.Decimal, error) {
	if bps < 0 || bps > svc.routing.MaxSlippageBps {
		return decimal.Zero, fmt.Errorf("%w: %d bps, max %d", domain.ErrInvalidSlippage, bps, svc.routing.MaxSlippageBps)
	}
	return domain.SlippageFromBps(bps), nil
}

// ResolveToken maps a token name or mint address to its catalog name.
func (svc *Service) ResolveToken(nameOrMint string) (string, error) {
	c, err := svc.catalog()
	if err != nil {
		return "", err
	}
	if t, ok := c.Token(nameOrMint); ok {
		return t.Name, nil
	}
	if mint, err := solana.PublicKeyFromBase58(nameOrMint); err == nil {
		if name, ok := c.TokenName(mint); ok {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownToken, nameOrMint)
}

// Quote prices req along the best route. The returned quote carries the
// oriented, balance-filled pools it was computed on.
func (svc *Service) Quote(ctx context.Context, req domain.QuoteRequest) (*domain.SwapQuote, error) {
	start := time.Now()
	if req.Mode == "" {
		req.Mode = domain.SwapModeExactIn
	}
	mode := string(req.Mode)

	quote, err := svc.quote(ctx, req)
	metrics.QuoteDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.QuoteRequests.WithLabelValues(mode, quoteStatus(err)).Inc()
		return nil, err
	}
	metrics.QuoteRequests.WithLabelValues(mode, "ok").Inc()
	metrics.QuoteHops.Observe(float64(len(quote.Hops)))

	impact := amm.ClassifyImpact(quote.PriceImpact)
	metrics.PriceImpact.WithLabelValues(string(impact.Level)).Observe(float64(impact.Bps))

	svc.logger.Debug().
		Str("from", quote.Source).
		Str("to", quote.Dest).
		Str("mode", mode).
		Strs("route", quote.Pair.Paths()).
		Uint64("in", quote.AmountIn).
		Uint64("out", quote.AmountOut).
		Dur("took", time.Since(start)).
		Msg("[aggregatorService] quote")
	return quote, nil
}

func quoteStatus(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoRouteFound):
		return "no_route"
	case errors.Is(err, domain.ErrUnknownPathOrToken):
		return "unknown_token"
	case errors.Is(err, domain.ErrOverflow):
		return "overflow"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}

func (svc *Service) quote(ctx context.Context, req domain.QuoteRequest) (*domain.SwapQuote, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	source, err := svc.ResolveToken(req.InputToken)
	if err != nil {
		return nil, err
	}
	dest, err := svc.ResolveToken(req.OutputToken)
	if err != nil {
		return nil, err
	}
	if source == dest {
		return nil, fmt.Errorf("%w: input and output are both %s", domain.ErrInvalidAmount, source)
	}

	c, err := svc.catalog()
	if err != nil {
		return nil, err
	}
	candidates, err := router.NewResolver(c, svc.marketSvc.Balances()).Resolve(ctx, source, dest)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrNoRouteFound, source, dest)
	}

	switch req.Mode {
	case domain.SwapModeExactIn:
		return svc.quoteExactIn(ctx, source, dest, req, candidates)
	case domain.SwapModeExactOut:
		return svc.quoteExactOut(ctx, source, dest, req, candidates)
	default:
		return nil, fmt.Errorf("unsupported swap mode %q", req.Mode)
	}
}

func (svc *Service) quoteExactIn(ctx context.Context, source, dest string, req domain.QuoteRequest, candidates []domain.PoolsPair) (*domain.SwapQuote, error) {
	sel, err := router.FindBestForInputAmount(ctx, req.Amount, candidates)
	if err != nil {
		return nil, err
	}
	e, err := router.NewExchange(sel.Pair)
	if err != nil {
		return nil, err
	}
	minOut, err := e.MinimumAmountOut(req.Amount, req.Slippage)
	if err != nil {
		return nil, err
	}

	quote := &domain.SwapQuote{
		Pair:         sel.Pair,
		Mode:         req.Mode,
		Source:       source,
		Dest:         dest,
		Slippage:     req.Slippage,
		AmountIn:     req.Amount,
		AmountOut:    sel.Amount,
		MinAmountOut: minOut,
		MaxAmountIn:  req.Amount,
	}
	if err := fillDetails(quote, e); err != nil {
		return nil, err
	}
	return quote, nil
}

// quoteExactOut finds the cheapest input producing at least req.Amount. The
// minimum out is the requested amount. The maximum in adds slippage on top of
// the quoted input, and the minimum-receive input is sized so the output
// still covers req.Amount after slippage.
func (svc *Service) quoteExactOut(ctx context.Context, source, dest string, req domain.QuoteRequest, candidates []domain.PoolsPair) (*domain.SwapQuote, error) {
	sel, err := router.FindBestForEstimatedAmount(ctx, req.Amount, candidates)
	if err != nil {
		return nil, err
	}
	e, err := router.NewExchange(sel.Pair)
	if err != nil {
		return nil, err
	}
	out, err := e.OutputAmount(sel.Amount)
	if err != nil {
		return nil, err
	}
	maxIn, err := e.MaximumAmountIn(req.Amount, req.Slippage)
	if err != nil {
		return nil, err
	}
	minReceiveIn, err := e.InputAmountForMinimumReceive(req.Amount, req.Slippage)
	if err != nil {
		return nil, err
	}

	quote := &domain.SwapQuote{
		Pair:         sel.Pair,
		Mode:         req.Mode,
		Source:       source,
		Dest:         dest,
		Slippage:     req.Slippage,
		AmountIn:     sel.Amount,
		AmountOut:    out,
		MinAmountOut: req.Amount,
		MaxAmountIn:  maxIn,

		MinReceiveAmountIn: minReceiveIn,
	}
	if err := fillDetails(quote, e); err != nil {
		return nil, err
	}
	return quote, nil
}

// fillDetails adds fees, price impact, the intermediary hop and per-hop
// amounts for quote.AmountIn.
func fillDetails(quote *domain.SwapQuote, e router.Exchange) error {
	var err error
	if quote.LiquidityProviderFees, err = e.LiquidityProviderFees(quote.AmountIn, quote.Slippage); err != nil {
		return err
	}
	if quote.PriceImpact, err = e.PriceImpact(quote.AmountIn, quote.AmountOut); err != nil {
		return err
	}
	if quote.Intermediary, err = e.IntermediaryToken(quote.AmountIn, quote.Slippage); err != nil {
		return err
	}

	quote.Hops = make([]domain.HopQuote, 0, len(quote.Pair))
	amount := quote.AmountIn
	for _, pool := range quote.Pair {
		out, err := amm.OutputAmount(pool, amount)
		if err != nil {
			return err
		}
		fee, err := amm.CalculatingFees(pool, amount)
		if err != nil {
			return err
		}
		quote.Hops = append(quote.Hops, domain.HopQuote{
			Path:      pool.Path,
			Pool:      pool.Account.String(),
			InToken:   domain.FixedTokenName(pool.A.TokenName),
			OutToken:  domain.FixedTokenName(pool.B.TokenName),
			AmountIn:  amount,
			AmountOut: out,
			Fee:       fee,
			Curve:     pool.Curve.String(),
		})
		amount = out
	}
	return nil
}

// RefreshPair drops the cached balances of every pool that can route between
// two tokens, so the next quote prices against fresh reserves.
func (svc *Service) RefreshPair(from, to string) (int, error) {
	source, err := svc.ResolveToken(from)
	if err != nil {
		return 0, err
	}
	dest, err := svc.ResolveToken(to)
	if err != nil {
		return 0, err
	}
	c, err := svc.catalog()
	if err != nil {
		return 0, err
	}

	seen := make(map[solana.PublicKey]struct{})
	accounts := make([]solana.PublicKey, 0)
	for _, pair := range router.NewResolver(c, svc.marketSvc.Balances()).Candidates(source, dest) {
		for _, pool := range pair {
			for _, account := range pool.Accounts() {
				if _, ok := seen[account]; !ok {
					seen[account] = struct{}{}
					accounts = append(accounts, account)
				}
			}
		}
	}
	if len(accounts) > 0 {
		svc.marketSvc.InvalidateBalances(accounts...)
	}
	return len(accounts), nil
}

// InvalidateBalances drops the given reserve accounts from the balance cache,
// or the whole cache when none are given.
func (svc *Service) InvalidateBalances(accounts ...solana.PublicKey) {
	svc.marketSvc.InvalidateBalances(accounts...)
}

func (svc *Service) Stats() (Stats, error) {
	c, err := svc.catalog()
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Network:         c.Network(),
		Pools:           c.PoolCount(),
		Routes:          c.RouteCount(),
		Tokens:          c.TokenCount(),
		CachedBalances:  svc.marketSvc.Balances().Len(),
		DefaultSlippage: svc.DefaultSlippage().String(),
	}, nil
}

func (svc *Service) Pools() ([]domain.Pool, error) {
	c, err := svc.catalog()
	if err != nil {
		return nil, err
	}
	return c.Pools(), nil
}

// Pool returns a catalog pool with whatever reserve balances are cached.
func (svc *Service) Pool(path string) (domain.Pool, error) {
	c, err := svc.catalog()
	if err != nil {
		return domain.Pool{}, err
	}
	pool, ok := c.Pool(path)
	if !ok {
		return domain.Pool{}, fmt.Errorf("%w: %s", domain.ErrUnknownPathOrToken, path)
	}
	balances := svc.marketSvc.Balances()
	if a, ok := balances.Get(pool.A.Account); ok {
		pool.A.Balance = &a
	}
	if b, ok := balances.Get(pool.B.Account); ok {
		pool.B.Balance = &b
	}
	return pool, nil
}

func (svc *Service) Tokens() ([]domain.TokenInfo, error) {
	c, err := svc.catalog()
	if err != nil {
		return nil, err
	}
	return c.Tokens(), nil
}

// Destinations lists the tokens reachable from a token name or mint.
func (svc *Service) Destinations(from string) ([]string, error) {
	source, err := svc.ResolveToken(from)
	if err != nil {
		return nil, err
	}
	c, err := svc.catalog()
	if err != nil {
		return nil, err
	}
	return c.PossibleDestinations(source), nil
}
