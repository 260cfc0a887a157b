package market

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/orca-swap-router/internal/adapters/blockchain"
	"github.com/hxuan190/orca-swap-router/internal/adapters/orca"
	"github.com/hxuan190/orca-swap-router/internal/adapters/persistence"
	"github.com/hxuan190/orca-swap-router/internal/config"
	"github.com/hxuan190/orca-swap-router/internal/domain"
	"github.com/hxuan190/orca-swap-router/internal/metrics"
	"github.com/hxuan190/orca-swap-router/internal/services"
	"github.com/hxuan190/orca-swap-router/internal/services/balance"
)

const (
	ServiceName = "MarketService"

	sourceRemote   = "remote"
	sourceSnapshot = "snapshot"

	loadTimeout = 30 * time.Second
)

var ErrCatalogNotLoaded = errors.New("catalog not loaded")

// decimalsRegistrar is implemented by fetchers that decode raw token accounts.
type decimalsRegistrar interface {
	RegisterDecimals(map[solana.PublicKey]uint8)
}

// Service owns the pool catalog and the reserve balance cache.
type Service struct {
	container.BaseDIInstance
	logger *services.ServiceLogger

	loader   *orca.Loader
	storage  *persistence.Storage
	fetcher  balance.Fetcher
	balances *balance.Cache
	prefetch bool

	catalog atomic.Pointer[Catalog]
}

// NewService builds a market service outside the container. storage may be nil.
func NewService(loader *orca.Loader, storage *persistence.Storage, fetcher balance.Fetcher, fetchTimeout time.Duration) *Service {
	svc := &Service{
		loader:   loader,
		storage:  storage,
		fetcher:  fetcher,
		balances: balance.NewCache(fetcher, fetchTimeout),
	}
	svc.logger = services.NewServiceLogger(svc)
	return svc
}

func (svc *Service) ID() string {
	return ServiceName
}

func (svc *Service) Configure(c container.IContainer) error {
	rpcConfig := c.GetConfig(config.RPC_CONFIG_KEY).(*config.RPCConfig)
	catalogConfig := c.GetConfig(config.CATALOG_CONFIG_KEY).(*config.CatalogConfig)
	svc.logger = services.NewServiceLogger(svc).With("network", catalogConfig.Network)

	svc.fetcher = blockchain.NewBalanceFetcher(rpc.New(rpcConfig.RPCUrl), rpcConfig.Commitment)
	svc.balances = balance.NewCache(svc.fetcher, rpcConfig.FetchTimeout)
	svc.loader = orca.NewLoader(catalogConfig.Source, catalogConfig.Network)
	svc.prefetch = catalogConfig.PrefetchBalances

	if catalogConfig.SnapshotEnabled {
		storage, err := persistence.NewStorage(catalogConfig.SnapshotPath)
		if err != nil {
			return err
		}
		svc.storage = storage
	}
	return nil
}

// Start loads the catalog once; later calls are no-ops.
func (svc *Service) Start() error {
	if svc.catalog.Load() != nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	if err := svc.Load(ctx); err != nil {
		return err
	}
	if svc.prefetch {
		go svc.warmBalances()
	}
	return nil
}

func (svc *Service) Stop() error {
	if svc.storage != nil {
		return svc.storage.Close()
	}
	return nil
}

// Load reads the catalog from its source and swaps it in. When the source is
// unreachable or undecodable the last snapshot is used instead.
func (svc *Service) Load(ctx context.Context) error {
	data, err := svc.loadRemote(ctx)
	if err != nil {
		metrics.CatalogLoads.WithLabelValues(sourceRemote, "error").Inc()
		if svc.storage == nil {
			return fmt.Errorf("load catalog from %s: %w", svc.loader.Source(), err)
		}
		svc.logger.Warn().Err(err).Str("source", svc.loader.Source()).Msg("[MarketService] catalog source failed, using snapshot")

		data, err = svc.loadSnapshot()
		if err != nil {
			metrics.CatalogLoads.WithLabelValues(sourceSnapshot, "error").Inc()
			return fmt.Errorf("load catalog snapshot: %w", err)
		}
		metrics.CatalogLoads.WithLabelValues(sourceSnapshot, "ok").Inc()
	} else {
		metrics.CatalogLoads.WithLabelValues(sourceRemote, "ok").Inc()
	}

	svc.setCatalog(NewCatalog(data))
	return nil
}

func (svc *Service) loadRemote(ctx context.Context) (*domain.CatalogData, error) {
	raw, err := svc.loader.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	data, err := orca.Decode(svc.loader.Network(), raw)
	if err != nil {
		return nil, err
	}
	if svc.storage != nil {
		if err := svc.storage.SaveSnapshot(svc.loader.Network(), svc.loader.Source(), raw); err != nil {
			svc.logger.Error().Err(err).Msg("[MarketService] failed to save catalog snapshot")
		}
	}
	return data, nil
}

func (svc *Service) loadSnapshot() (*domain.CatalogData, error) {
	raw, err := svc.storage.LoadSnapshot(svc.loader.Network())
	if err != nil {
		return nil, err
	}
	return orca.Decode(svc.loader.Network(), raw)
}

func (svc *Service) setCatalog(c *Catalog) {
	svc.catalog.Store(c)
	if r, ok := svc.fetcher.(decimalsRegistrar); ok {
		r.RegisterDecimals(c.Decimals())
	}

	metrics.PoolCount.Set(float64(c.PoolCount()))
	metrics.RouteCount.Set(float64(c.RouteCount()))
	metrics.TokenCount.Set(float64(c.TokenCount()))

	svc.logger.Info().
		Str("network", c.Network()).
		Int("pools", c.PoolCount()).
		Int("routes", c.RouteCount()).
		Int("tokens", c.TokenCount()).
		Msg("[MarketService] catalog loaded")
}

func (svc *Service) warmBalances() {
	c := svc.catalog.Load()
	if c == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	start := time.Now()
	n, err := svc.balances.Warm(ctx, c.ReserveAccounts())
	if err != nil {
		svc.logger.Warn().Err(err).Int("warmed", n).Msg("[MarketService] balance prefetch incomplete")
		return
	}
	svc.logger.Info().Int("warmed", n).Dur("took", time.Since(start)).Msg("[MarketService] balance prefetch done")
}

// Catalog returns the current catalog, or nil before the first load.
func (svc *Service) Catalog() *Catalog {
	return svc.catalog.Load()
}

func (svc *Service) Balances() *balance.Cache {
	return svc.balances
}

// InvalidateBalances drops cached reserve balances. With no accounts the whole
// cache is cleared.
func (svc *Service) InvalidateBalances(accounts ...solana.PublicKey) {
	if len(accounts) == 0 {
		svc.balances.Clear()
		return
	}
	svc.balances.Invalidate(accounts...)
}
