package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/giftlane/promos/internal/config"
	obslogger "github.com/giftlane/promos/internal/observability/logger"
	obsmetrics "github.com/giftlane/promos/internal/observability/metrics"
	promotiondomain "github.com/giftlane/promos/internal/promotion/domain"
	"github.com/giftlane/promos/internal/ratelimit"
	shippingfeedomain "github.com/giftlane/promos/internal/shippingfee/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, httpMetrics *obsmetrics.HTTPMetrics, registry *prometheus.Registry) *gin.Engine {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           cfg.IsDevelopment(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	return r
}

type Server struct {
	engine         *gin.Engine
	cfg            config.Config
	log            *zap.Logger
	promotionSvc   promotiondomain.Service
	shippingFeeSvc shippingfeedomain.Service
	promoLimiter   *ratelimit.PromoLimiter
	promoMetrics   *obsmetrics.PromotionMetrics
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	Log            *zap.Logger
	PromotionSvc   promotiondomain.Service
	ShippingFeeSvc shippingfeedomain.Service
	PromoLimiter   *ratelimit.PromoLimiter      `optional:"true"`
	PromoMetrics   *obsmetrics.PromotionMetrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		log:            p.Log.Named("http.server"),
		promotionSvc:   p.PromotionSvc,
		shippingFeeSvc: p.ShippingFeeSvc,
		promoLimiter:   p.PromoLimiter,
		promoMetrics:   p.PromoMetrics,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) RegisterRoutes() {
	api := s.engine.Group("/api/v1")

	// -------- Promotions --------
	api.GET("/promotions", s.ListPromotions)
	api.POST("/promotions", s.CreatePromotion)
	api.GET("/promotions/:id", s.GetPromotionByID)
	api.PATCH("/promotions/:id", s.UpdatePromotion)
	api.DELETE("/promotions/:id", s.DeletePromotion)

	// Checkout-facing: validate previews, redeem consumes a usage slot.
	api.POST("/promotions/validate", s.PromoRateLimit(rateLimitEndpointValidate), s.ValidatePromotion)
	api.POST("/promotions/redeem", s.PromoRateLimit(rateLimitEndpointRedeem), s.RedeemPromotion)

	// -------- Shipping fees --------
	api.GET("/shipping-fees", s.ListShippingFees)
	api.POST("/shipping-fees", s.CreateShippingFee)
	api.GET("/shipping-fees/:id", s.GetShippingFeeByID)
	api.PATCH("/shipping-fees/:id", s.UpdateShippingFee)
	api.DELETE("/shipping-fees/:id", s.DeleteShippingFee)
	api.GET("/shipping-quote", s.QuoteShippingFee)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
