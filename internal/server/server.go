package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ultracivic/backend/internal/config"
	"github.com/ultracivic/backend/internal/kyc"
	"github.com/ultracivic/backend/internal/magiclink"
	magiclinkdomain "github.com/ultracivic/backend/internal/magiclink/domain"
	obsmetrics "github.com/ultracivic/backend/internal/observability/metrics"
	"github.com/ultracivic/backend/internal/order"
	orderdomain "github.com/ultracivic/backend/internal/order/domain"
	"github.com/ultracivic/backend/internal/payment"
	paymentdomain "github.com/ultracivic/backend/internal/payment/domain"
	"github.com/ultracivic/backend/internal/providers/email"
	"github.com/ultracivic/backend/internal/ratelimit"
	"github.com/ultracivic/backend/internal/session"
	sessiondomain "github.com/ultracivic/backend/internal/session/domain"
	"github.com/ultracivic/backend/internal/user"
	"github.com/ultracivic/backend/internal/webhook"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	user.Module,
	magiclink.Module,
	session.Module,
	order.Module,
	payment.Module,
	kyc.Module,
	webhook.Module,
	ratelimit.Module,
	email.Module,
	obsmetrics.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
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

type Server struct {
	engine           *gin.Engine
	log              *zap.Logger
	cfg              config.Config
	cookies          *session.Manager
	magicLinkSvc     magiclinkdomain.Service
	sessionSvc       sessiondomain.Service
	orderSvc         orderdomain.Service
	paymentSvc       paymentdomain.Service
	kycSvc           kyc.Service
	webhookGateway   *webhook.Gateway
	emailProvider    email.Provider
	magicLinkLimiter *ratelimit.MagicLinkLimiter
	metrics          *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin              *gin.Engine
	Log              *zap.Logger
	Cfg              config.Config
	Cookies          *session.Manager
	MagicLinkSvc     magiclinkdomain.Service
	SessionSvc       sessiondomain.Service
	OrderSvc         orderdomain.Service
	PaymentSvc       paymentdomain.Service
	KYCSvc           kyc.Service
	WebhookGateway   *webhook.Gateway
	EmailProvider    email.Provider
	MagicLinkLimiter *ratelimit.MagicLinkLimiter `optional:"true"`
	Metrics          *obsmetrics.Metrics         `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:           p.Gin,
		log:              p.Log.Named("http"),
		cfg:              p.Cfg,
		cookies:          p.Cookies,
		magicLinkSvc:     p.MagicLinkSvc,
		sessionSvc:       p.SessionSvc,
		orderSvc:         p.OrderSvc,
		paymentSvc:       p.PaymentSvc,
		kycSvc:           p.KYCSvc,
		webhookGateway:   p.WebhookGateway,
		emailProvider:    p.EmailProvider,
		magicLinkLimiter: p.MagicLinkLimiter,
		metrics:          p.Metrics,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func registerRoutes(s *Server) {
	s.RegisterRoutes()
}

func (s *Server) RegisterRoutes() {
	auth := s.engine.Group("/auth")
	auth.POST("/magic-link/request", s.RequestMagicLink)
	auth.GET("/magic-link/redeem", s.RedeemMagicLink)
	auth.POST("/logout", s.Logout)

	s.engine.GET("/me", s.AuthRequired(), s.Me)

	orders := s.engine.Group("/orders", s.AuthRequired())
	orders.POST("", s.CreateOrder)
	orders.GET("", s.ListOrders)
	orders.GET("/:id", s.GetOrder)
	orders.POST("/:id/payment-intent", s.CreatePaymentIntent)

	kycGroup := s.engine.Group("/kyc")
	kycGroup.POST("/start", s.AuthRequired(), s.StartKYC)
	kycGroup.GET("/verified-only", s.AuthRequired(), s.VerifiedRequired(), s.VerifiedOnly)

	s.engine.POST("/webhooks/stripe", s.HandleStripeWebhook)
}
