package http

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/orca-swap-router/internal/aggregator"
	"github.com/hxuan190/orca-swap-router/internal/domain"
	"github.com/hxuan190/orca-swap-router/internal/http/httputil"
)

type PoolHandler struct {
	aggregatorSvc *aggregator.Service
}

func NewPoolHandler(aggregatorSvc *aggregator.Service) *PoolHandler {
	return &PoolHandler{aggregatorSvc: aggregatorSvc}
}

// Pool paths contain a slash, so single-pool lookup takes the path as a query
// parameter rather than a route segment.
func (h *PoolHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/stats", h.getStats)
	pub.GET("/list", h.listPools)
	pub.GET("/get", h.getPool)
}

func (h *PoolHandler) Root() string {
	return "/pools"
}

func (h *PoolHandler) getStats(c *gin.Context) {
	stats, err := h.aggregatorSvc.Stats()
	if err != nil {
		handleServiceError(c, err)
		return
	}
	httputil.HandleSuccess(c, stats)
}

type PoolInfo struct {
	Path       string `json:"path"`
	Address    string `json:"address"`
	TokenA     string `json:"tokenA"`
	TokenB     string `json:"tokenB"`
	TokenMintA string `json:"tokenMintA"`
	TokenMintB string `json:"tokenMintB"`
	Curve      string `json:"curve"`
	Fee        string `json:"fee"`
	Deprecated bool   `json:"deprecated"`
}

type PoolListResponse struct {
	Pools []PoolInfo `json:"pools"`
	Total int        `json:"total"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
	Pages int        `json:"pages"`
}

func poolInfo(p domain.Pool) PoolInfo {
	return PoolInfo{
		Path:       p.Path,
		Address:    p.Account.String(),
		TokenA:     p.A.TokenName,
		TokenB:     p.B.TokenName,
		TokenMintA: p.A.Mint.String(),
		TokenMintB: p.B.Mint.String(),
		Curve:      p.Curve.String(),
		Fee:        p.Fee().String(),
		Deprecated: p.Deprecated,
	}
}

func (h *PoolHandler) listPools(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}

	all, err := h.aggregatorSvc.Pools()
	if err != nil {
		handleServiceError(c, err)
		return
	}
	total := len(all)

	pages := (total + limit - 1) / limit
	offset := min((page-1)*limit, total)
	end := min(offset+limit, total)

	pools := make([]PoolInfo, 0, end-offset)
	for _, p := range all[offset:end] {
		pools = append(pools, poolInfo(p))
	}

	httputil.HandleSuccess(c, PoolListResponse{
		Pools: pools,
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: pages,
	})
}

type PoolDetailResponse struct {
	PoolInfo
	ProgramID      string `json:"programId"`
	ProgramVersion uint8  `json:"programVersion"`
	Authority      string `json:"authority"`
	PoolTokenMint  string `json:"poolTokenMint"`
	FeeAccount     string `json:"feeAccount"`
	TokenVaultA    string `json:"tokenVaultA"`
	TokenVaultB    string `json:"tokenVaultB"`
	TradeFee       string `json:"tradeFee"`
	OwnerTradeFee  string `json:"ownerTradeFee"`
	Amp            uint64 `json:"amp,omitempty"`

	// Reserves are only present once the balances have been fetched.
	ReserveA *string `json:"reserveA,omitempty"`
	ReserveB *string `json:"reserveB,omitempty"`
}

func reserve(b *domain.TokenBalance) *string {
	if b == nil {
		return nil
	}
	s := strconv.FormatUint(b.Amount, 10)
	return &s
}

func (h *PoolHandler) getPool(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		httputil.HandleBadRequest(c, "path is required")
		return
	}
	pool, err := h.aggregatorSvc.Pool(path)
	if errors.Is(err, domain.ErrUnknownPathOrToken) {
		httputil.HandleNotFound(c, "pool not found: "+path)
		return
	}
	if err != nil {
		handleServiceError(c, err)
		return
	}

	resp := PoolDetailResponse{
		PoolInfo:       poolInfo(pool),
		ProgramID:      pool.ProgramID.String(),
		ProgramVersion: pool.ProgramVersion,
		Authority:      pool.Authority.String(),
		PoolTokenMint:  pool.PoolTokenMint.String(),
		FeeAccount:     pool.FeeAccount.String(),
		TokenVaultA:    pool.A.Account.String(),
		TokenVaultB:    pool.B.Account.String(),
		TradeFee:       pool.TradeFee.String(),
		OwnerTradeFee:  pool.OwnerTradeFee.String(),
		ReserveA:       reserve(pool.A.Balance),
		ReserveB:       reserve(pool.B.Balance),
	}
	if pool.IsStable() {
		resp.Amp = pool.Amp
	}
	httputil.HandleSuccess(c, resp)
}
