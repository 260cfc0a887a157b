package http

import (
	"context"
	"errors"
	"fmt"
	gohttp "net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/orca-swap-router/internal/aggregator"
	"github.com/hxuan190/orca-swap-router/internal/config"
	"github.com/hxuan190/orca-swap-router/internal/domain"
	"github.com/hxuan190/orca-swap-router/internal/http/httputil"
	"github.com/hxuan190/orca-swap-router/internal/http/middlewares"
)

const (
	API_VERSION  = "v1"
	HTTP_SERVICE = "http-service"
)

type HTTPService struct {
	container.BaseDIInstance

	aggregatorSvc *aggregator.Service
	rateLimiter   *middlewares.RateLimiter
	server        *gohttp.Server
	conf          *config.GeneralConfig

	handlers []httputil.IHttpHandler
}

// NewHTTPService wires the handlers outside the container.
func NewHTTPService(aggregatorSvc *aggregator.Service, conf *config.GeneralConfig) *HTTPService {
	svc := &HTTPService{conf: conf}
	svc.init(aggregatorSvc)
	return svc
}

func (svc *HTTPService) ID() string {
	return HTTP_SERVICE
}

func (svc *HTTPService) init(aggregatorSvc *aggregator.Service) {
	svc.aggregatorSvc = aggregatorSvc
	svc.rateLimiter = middlewares.NewRateLimiter(svc.conf.RateLimit, svc.conf.RateBurst)
	svc.handlers = []httputil.IHttpHandler{
		NewQuoteHandler(aggregatorSvc),
		NewPoolHandler(aggregatorSvc),
		NewTokenHandler(aggregatorSvc),
		NewBalanceHandler(aggregatorSvc),
	}
}

// Router builds the gin engine with every route mounted.
func (svc *HTTPService) Router() *gin.Engine {
	if svc.conf.Env == config.ProdEnv {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	corsConf := cors.DefaultConfig()
	corsConf.AllowAllOrigins = true
	r.Use(cors.New(corsConf))

	r.Use(middlewares.MetricsMiddleware())
	r.Use(svc.rateLimiter.RateLimitMiddleware())

	r.GET("/health", func(c *gin.Context) {
		if _, err := svc.aggregatorSvc.Stats(); err != nil {
			c.JSON(gohttp.StatusServiceUnavailable, gin.H{"status": "loading"})
			return
		}
		c.JSON(gohttp.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("api")
	pub := api.Group(API_VERSION)
	priv := api.Group(API_VERSION)
	admin := api.Group(fmt.Sprintf("%s/admin", API_VERSION))

	svc.setupHandlers(pub, priv, admin)
	return r
}

func (svc *HTTPService) Start() error {
	svc.server = &gohttp.Server{
		Addr:              svc.conf.HTTPHost + ":" + svc.conf.HTTPPort,
		Handler:           svc.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info().Str("host", svc.conf.HTTPHost).Str("port", svc.conf.HTTPPort).Msg("http server started")

	if err := svc.server.ListenAndServe(); err != nil && !errors.Is(err, gohttp.ErrServerClosed) {
		return err
	}
	return nil
}

func (svc *HTTPService) Configure(c container.IContainer) error {
	svc.conf = c.GetConfig(config.GENERAL_CONFIG_KEY).(*config.GeneralConfig)
	if svc.conf == nil {
		return errors.New("invalid server config")
	}
	svc.init(c.Instance(aggregator.AGGREGATOR_SERVICE).(*aggregator.Service))
	return nil
}

func (svc *HTTPService) Stop() error {
	if svc.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := svc.server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("failed to stop http server")
		return err
	}
	log.Info().Msg("http server stopped gracefully")
	return nil
}

func (svc *HTTPService) setupHandlers(
	rootPub *gin.RouterGroup,
	rootPriv *gin.RouterGroup,
	rootAdmin *gin.RouterGroup,
) {
	for _, h := range svc.handlers {
		pub := rootPub.Group(h.Root())
		priv := rootPriv.Group(h.Root())
		admin := rootAdmin.Group(h.Root())
		h.SetRoutes(pub, priv, admin)
	}
}

// handleServiceError maps routing errors onto HTTP statuses.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrInvalidSlippage):
		httputil.HandleBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrUnknownPathOrToken):
		httputil.HandleError(c, gohttp.StatusBadRequest, "UNKNOWN_TOKEN", err.Error())
	case errors.Is(err, domain.ErrNoRouteFound), errors.Is(err, domain.ErrInsufficientLiquidity):
		httputil.HandleError(c, gohttp.StatusNotFound, "NO_ROUTE", err.Error())
	case errors.Is(err, domain.ErrOverflow):
		httputil.HandleError(c, gohttp.StatusUnprocessableEntity, "OVERFLOW", err.Error())
	case errors.Is(err, aggregator.ErrCatalogNotLoaded):
		httputil.HandleError(c, gohttp.StatusServiceUnavailable, "CATALOG_NOT_LOADED", err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		httputil.HandleError(c, gohttp.StatusGatewayTimeout, "TIMEOUT", err.Error())
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("[http] request failed")
		httputil.HandleInternalError(c, err.Error())
	}
}
