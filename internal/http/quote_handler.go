package http

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/orca-swap-router/internal/aggregator"
	"github.com/hxuan190/orca-swap-router/internal/domain"
	"github.com/hxuan190/orca-swap-router/internal/http/httputil"
	"github.com/hxuan190/orca-swap-router/internal/services/amm"
)

const quoteTimeout = 15 * time.Second

type QuoteHandler struct {
	aggregatorSvc *aggregator.Service
}

func NewQuoteHandler(aggregatorSvc *aggregator.Service) *QuoteHandler {
	return &QuoteHandler{aggregatorSvc: aggregatorSvc}
}

func (h *QuoteHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.getQuote)
}

func (h *QuoteHandler) Root() string {
	return "/quote"
}

// QuoteRequest carries the query parameters of GET /quote. Tokens may be
// catalog names ("SOL") or mint addresses.
type QuoteRequest struct {
	From string `form:"from" binding:"required"`
	To   string `form:"to" binding:"required"`

	// Amount in smallest units: the exact input for ExactIn, the desired
	// output for ExactOut.
	Amount string `form:"amount" binding:"required"`

	SwapMode    string `form:"swapMode"`
	SlippageBps *int   `form:"slippageBps"`
}

// RouteInfo describes a single hop of the quoted route.
type RouteInfo struct {
	Path        string `json:"path"`
	PoolAddress string `json:"poolAddress"`
	ProgramID   string `json:"programId"`
	Curve       string `json:"curve"`
	InputToken  string `json:"inputToken"`
	OutputToken string `json:"outputToken"`
	InputMint   string `json:"inputMint"`
	OutputMint  string `json:"outputMint"`
	AmountIn    string `json:"amountIn"`
	AmountOut   string `json:"amountOut"`
	Fee         string `json:"fee"`
}

type IntermediaryInfo struct {
	Token        string `json:"token"`
	AmountOut    string `json:"amountOut"`
	MinAmountOut string `json:"minAmountOut"`
	IsStableSwap bool   `json:"isStableSwap"`
}

type QuoteResponse struct {
	InputToken  string `json:"inputToken"`
	OutputToken string `json:"outputToken"`
	InputMint   string `json:"inputMint"`
	OutputMint  string `json:"outputMint"`
	SwapMode    string `json:"swapMode"`

	AmountIn     string `json:"amountIn"`
	AmountOut    string `json:"amountOut"`
	MinAmountOut string `json:"minAmountOut"`
	MaxAmountIn  string `json:"maxAmountIn"`
	// MinReceiveAmountIn is only set for ExactOut.
	MinReceiveAmountIn string `json:"minReceiveAmountIn,omitempty"`

	// OtherAmountThreshold is minAmountOut for ExactIn and maxAmountIn for
	// ExactOut.
	OtherAmountThreshold string `json:"otherAmountThreshold"`
	SlippageBps          int    `json:"slippageBps"`

	PriceImpactPercent  string `json:"priceImpactPercent"`
	PriceImpactBps      uint16 `json:"priceImpactBps"`
	PriceImpactSeverity string `json:"priceImpactSeverity"`
	PriceImpactWarning  string `json:"priceImpactWarning,omitempty"`

	LiquidityProviderFees []string          `json:"liquidityProviderFees"`
	Intermediary          *IntermediaryInfo `json:"intermediary,omitempty"`
	Routes                []RouteInfo       `json:"routes"`
	RoutePath             []string          `json:"routePath"`
	HopCount              int               `json:"hopCount"`
}

func (h *QuoteHandler) parseQuoteRequest(c *gin.Context) (domain.QuoteRequest, int, bool) {
	var req QuoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.HandleBadRequest(c, "invalid query parameters: "+err.Error())
		return domain.QuoteRequest{}, 0, false
	}

	amount, err := strconv.ParseUint(req.Amount, 10, 64)
	if err != nil || amount == 0 {
		httputil.HandleBadRequest(c, "invalid amount: must be a positive integer below 2^64")
		return domain.QuoteRequest{}, 0, false
	}

	mode, err := domain.ParseSwapMode(req.SwapMode)
	if err != nil {
		httputil.HandleBadRequest(c, "invalid swapMode: must be ExactIn or ExactOut")
		return domain.QuoteRequest{}, 0, false
	}

	bps := h.aggregatorSvc.DefaultSlippageBps()
	if req.SlippageBps != nil {
		bps = *req.SlippageBps
	}
	slippage, err := h.aggregatorSvc.SlippageFromBps(bps)
	if err != nil {
		httputil.HandleBadRequest(c, err.Error())
		return domain.QuoteRequest{}, 0, false
	}

	return domain.QuoteRequest{
		InputToken:  req.From,
		OutputToken: req.To,
		Amount:      amount,
		Mode:        mode,
		Slippage:    slippage,
	}, bps, true
}

func buildQuoteResponse(q *domain.SwapQuote, slippageBps int) QuoteResponse {
	impact := amm.ClassifyImpact(q.PriceImpact)

	resp := QuoteResponse{
		InputToken:          q.Source,
		OutputToken:         q.Dest,
		SwapMode:            string(q.Mode),
		AmountIn:            strconv.FormatUint(q.AmountIn, 10),
		AmountOut:           strconv.FormatUint(q.AmountOut, 10),
		MinAmountOut:        strconv.FormatUint(q.MinAmountOut, 10),
		MaxAmountIn:         strconv.FormatUint(q.MaxAmountIn, 10),
		SlippageBps:         slippageBps,
		PriceImpactPercent:  q.PriceImpact.StringFixed(4),
		PriceImpactBps:      impact.Bps,
		PriceImpactSeverity: string(impact.Level),
		PriceImpactWarning:  impact.Warning,
		RoutePath:           q.Pair.TokenPath(),
		HopCount:            len(q.Hops),
	}
	if q.Mode == domain.SwapModeExactOut {
		resp.OtherAmountThreshold = resp.MaxAmountIn
		resp.MinReceiveAmountIn = strconv.FormatUint(q.MinReceiveAmountIn, 10)
	} else {
		resp.OtherAmountThreshold = resp.MinAmountOut
	}

	resp.LiquidityProviderFees = make([]string, 0, len(q.LiquidityProviderFees))
	for _, fee := range q.LiquidityProviderFees {
		resp.LiquidityProviderFees = append(resp.LiquidityProviderFees, strconv.FormatUint(fee, 10))
	}

	resp.Routes = make([]RouteInfo, 0, len(q.Hops))
	for i, hop := range q.Hops {
		pool := q.Pair[i]
		resp.Routes = append(resp.Routes, RouteInfo{
			Path:        hop.Path,
			PoolAddress: hop.Pool,
			ProgramID:   pool.ProgramID.String(),
			Curve:       hop.Curve,
			InputToken:  hop.InToken,
			OutputToken: hop.OutToken,
			InputMint:   pool.A.Mint.String(),
			OutputMint:  pool.B.Mint.String(),
			AmountIn:    strconv.FormatUint(hop.AmountIn, 10),
			AmountOut:   strconv.FormatUint(hop.AmountOut, 10),
			Fee:         strconv.FormatUint(hop.Fee, 10),
		})
	}
	if len(resp.Routes) > 0 {
		resp.InputMint = resp.Routes[0].InputMint
		resp.OutputMint = resp.Routes[len(resp.Routes)-1].OutputMint
	}

	if q.Intermediary != nil {
		resp.Intermediary = &IntermediaryInfo{
			Token:        q.Intermediary.TokenName,
			AmountOut:    strconv.FormatUint(q.Intermediary.OutputAmount, 10),
			MinAmountOut: strconv.FormatUint(q.Intermediary.MinAmountOut, 10),
			IsStableSwap: q.Intermediary.IsStableSwap,
		}
	}
	return resp
}

func (h *QuoteHandler) getQuote(c *gin.Context) {
	req, bps, ok := h.parseQuoteRequest(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), quoteTimeout)
	defer cancel()

	quote, err := h.aggregatorSvc.Quote(ctx, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	httputil.HandleSuccess(c, buildQuoteResponse(quote, bps))
}
