// Package server wires the HTTP surface of the billing engine.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/frontdesk/platform/internal/billingcycle"
	"github.com/frontdesk/platform/internal/clock"
	"github.com/frontdesk/platform/internal/config"
	"github.com/frontdesk/platform/internal/observability/logger"
	"github.com/frontdesk/platform/internal/observability/metrics"
	overagedomain "github.com/frontdesk/platform/internal/overage/domain"
	"github.com/frontdesk/platform/internal/pricing"
	successfeedomain "github.com/frontdesk/platform/internal/successfee/domain"
	tenantdomain "github.com/frontdesk/platform/internal/tenant/domain"
	"github.com/frontdesk/platform/internal/tier"
	"github.com/frontdesk/platform/internal/token"
	usagedomain "github.com/frontdesk/platform/internal/usage/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log         *zap.Logger
	Config      config.Config
	Tokens      *token.Service
	Tenants     tenantdomain.Service
	Usage       usagedomain.Service
	Overage     overagedomain.Service
	SuccessFees successfeedomain.Service
	Engine      *pricing.Engine
	Catalog     *tier.Catalog
	Scheduler   *billingcycle.Scheduler
	Metrics     *metrics.Metrics
	Clock       clock.Clock
}

// NewRouter assembles the full route table.
func NewRouter(p Params) *gin.Engine {
	if p.Config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		logger.GinMiddleware(),
		metrics.GinMiddleware(p.Metrics),
		ErrorMiddleware(),
	)

	auth := &authHandler{tokens: p.Tokens}
	tenants := &tenantHandler{tenants: p.Tenants}
	usage := &usageHandler{usage: p.Usage, clock: p.Clock}
	priced := &pricingHandler{engine: p.Engine, catalog: p.Catalog, tenants: p.Tenants}
	billing := &billingHandler{overage: p.Overage, fees: p.SuccessFees}
	internal := &internalHandler{scheduler: p.Scheduler}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": p.Config.AppName, "version": p.Config.AppVersion})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(p.Metrics.Registry, promhttp.HandlerOpts{})))

	router.POST("/v1/auth/refresh", auth.refresh)

	v1 := router.Group("/v1", AuthRequired(p.Tokens))
	{
		v1.GET("/tenants/:id", tenants.get)

		v1.POST("/usage/events", usage.record)
		v1.GET("/usage/summary", usage.summary)
		v1.GET("/usage/events", usage.listEvents)

		v1.GET("/pricing/tiers", priced.listTiers)
		v1.GET("/pricing/tiers/:name", priced.getTier)

		v1.GET("/overage/reports", billing.listOverageReports)
		v1.GET("/success-fees", billing.listFees)
	}

	owner := router.Group("/v1", AuthRequired(p.Tokens), OwnerRequired())
	{
		owner.GET("/tenants", tenants.list)
		owner.POST("/tenants", tenants.create)
		owner.PATCH("/tenants/:id/status", tenants.updateStatus)
		owner.PATCH("/tenants/:id/tier", tenants.updateTier)

		owner.POST("/success-fees", billing.computeFee)
		owner.POST("/success-fees/:id/invoice", billing.markInvoiced)
	}

	ops := router.Group("/internal", SharedSecretRequired(p.Config.SchedulerSecret))
	{
		ops.POST("/cycles/reset", internal.resetCycle)
		ops.POST("/tokens", auth.mint)
	}

	return router
}

// Run serves the router under the fx lifecycle with graceful shutdown.
func Run(lc fx.Lifecycle, log *zap.Logger, cfg config.Config, router *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

var Module = fx.Module("server",
	fx.Provide(NewRouter),
)
