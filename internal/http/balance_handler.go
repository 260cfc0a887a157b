package http

import (
	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/orca-swap-router/internal/aggregator"
	"github.com/hxuan190/orca-swap-router/internal/http/httputil"
)

// BalanceHandler exposes reserve cache maintenance on the admin group.
type BalanceHandler struct {
	aggregatorSvc *aggregator.Service
}

func NewBalanceHandler(aggregatorSvc *aggregator.Service) *BalanceHandler {
	return &BalanceHandler{aggregatorSvc: aggregatorSvc}
}

func (h *BalanceHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	admin.POST("/invalidate", h.invalidate)
}

func (h *BalanceHandler) Root() string {
	return "/balances"
}

// InvalidateRequest selects what to drop. A token pair drops every reserve on
// its routes; explicit accounts drop just those; an empty body clears the
// cache.
type InvalidateRequest struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Accounts []string `json:"accounts"`
}

type InvalidateResponse struct {
	Invalidated int  `json:"invalidated"`
	Cleared     bool `json:"cleared"`
}

func (h *BalanceHandler) invalidate(c *gin.Context) {
	var req InvalidateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.HandleBadRequest(c, "invalid body: "+err.Error())
			return
		}
	}

	switch {
	case req.From != "" || req.To != "":
		if req.From == "" || req.To == "" {
			httputil.HandleBadRequest(c, "from and to must be given together")
			return
		}
		n, err := h.aggregatorSvc.RefreshPair(req.From, req.To)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		httputil.HandleSuccess(c, InvalidateResponse{Invalidated: n})

	case len(req.Accounts) > 0:
		accounts := make([]solana.PublicKey, 0, len(req.Accounts))
		for _, a := range req.Accounts {
			pk, err := solana.PublicKeyFromBase58(a)
			if err != nil {
				httputil.HandleBadRequest(c, "invalid account "+a)
				return
			}
			accounts = append(accounts, pk)
		}
		h.aggregatorSvc.InvalidateBalances(accounts...)
		httputil.HandleSuccess(c, InvalidateResponse{Invalidated: len(accounts)})

	default:
		h.aggregatorSvc.InvalidateBalances()
		httputil.HandleSuccess(c, InvalidateResponse{Cleared: true})
	}
}
