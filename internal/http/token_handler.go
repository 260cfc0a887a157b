package http

import (
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/orca-swap-router/internal/aggregator"
	"github.com/hxuan190/orca-swap-router/internal/http/httputil"
)

type TokenHandler struct {
	aggregatorSvc *aggregator.Service
}

func NewTokenHandler(aggregatorSvc *aggregator.Service) *TokenHandler {
	return &TokenHandler{aggregatorSvc: aggregatorSvc}
}

func (h *TokenHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.listTokens)
	pub.GET("/:token/destinations", h.getDestinations)
}

func (h *TokenHandler) Root() string {
	return "/tokens"
}

type TokenInfo struct {
	Name     string `json:"name"`
	Mint     string `json:"mint"`
	Decimals uint8  `json:"decimals"`
}

type DestinationsResponse struct {
	Token        string   `json:"token"`
	Destinations []string `json:"destinations"`
}

func (h *TokenHandler) listTokens(c *gin.Context) {
	tokens, err := h.aggregatorSvc.Tokens()
	if err != nil {
		handleServiceError(c, err)
		return
	}
	out := make([]TokenInfo, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, TokenInfo{Name: t.Name, Mint: t.Mint.String(), Decimals: t.Decimals})
	}
	httputil.HandleSuccess(c, out)
}

func (h *TokenHandler) getDestinations(c *gin.Context) {
	token := c.Param("token")
	name, err := h.aggregatorSvc.ResolveToken(token)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	dests, err := h.aggregatorSvc.Destinations(name)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	httputil.HandleSuccess(c, DestinationsResponse{Token: name, Destinations: dests})
}
