package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/forumhub/phone-verification/internal/config"
	"github.com/forumhub/phone-verification/internal/gateway"
	"github.com/forumhub/phone-verification/internal/handlers"
	"github.com/forumhub/phone-verification/internal/logging"
	"github.com/forumhub/phone-verification/internal/middleware"
	"github.com/forumhub/phone-verification/internal/models"
	"github.com/forumhub/phone-verification/internal/observability"
	"github.com/forumhub/phone-verification/internal/services"
	"github.com/forumhub/phone-verification/internal/store"
	"github.com/forumhub/phone-verification/internal/userdir"
	"github.com/forumhub/phone-verification/internal/utils/httpclient"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Phone Verification API
// @version         1.0
// @description     Phone number verification service for forum accounts: one-time codes delivered by voice call, phone-to-user uniqueness, per-IP rate limiting and an admin surface.

// @host      localhost:8080
// @BasePath  /v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @tag.name verification
// @tag.description Code issuance and validation

// @tag.name registration
// @tag.description Registration gating

// @tag.name profile
// @tag.description Per-user phone management

// @tag.name admin
// @tag.description Administrative operations

// @tag.name health
// @tag.description Health check operations

func main() {
	if err := logging.InitLogger(); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	if err := config.LoadConfig(); err != nil {
		logging.Logger.Fatal("failed to load config", zap.Error(err))
	}

	observability.InitTracer()
	defer observability.ShutdownTracer()

	config.InitRedis()

	cfg := config.AppConfig
	st := store.NewRedisStore(config.Redis)
	users := userdir.NewStoreDirectory(st)

	policy := services.VerificationPolicy{
		CodeExpiry:    cfg.CodeExpiry,
		RecordTTL:     cfg.VerificationRecTTL,
		MaxAttempts:   cfg.MaxAttempts,
		BlockDuration: cfg.BlockDuration,
	}
	codes := services.NewVerificationStore(st, policy, logging.Logger)
	rateLimiter := services.NewIPRateLimiter(st, cfg.MaxRequestsPerIP, cfg.IPRateLimitWindow, logging.Logger)
	registry := services.NewPhoneRegistry(st, users, logging.Logger)
	verified := services.NewVerifiedPhoneCache(st, cfg.VerifiedPhoneTTL)
	settings := services.NewSettingsService(st, cfg)

	pool := httpclient.NewPool(10)
	defer pool.Close()
	var deliverer gateway.Deliverer = gateway.NewVoiceGateway(
		func(ctx context.Context) (models.GatewaySettings, error) {
			return settings.Get(ctx)
		},
		cfg.SiteTitle,
		pool,
		logging.Logger,
	)

	service := services.NewVerificationService(
		codes, rateLimiter, registry, verified, settings,
		deliverer, users, logging.Logger, cfg.Environment,
	)
	h := handlers.NewHandler(service, users, cfg, logging.Logger, func(ctx context.Context) error {
		return config.Redis.Ping(ctx).Err()
	})

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RequestTracker(),
		cors.Default(),
	)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		v1.GET("/health", h.HealthCheck)

		pv := v1.Group("/phone-verification")
		{
			pv.POST("/send-code", h.SendCode)
			pv.POST("/verify-code", h.VerifyCode)
			pv.POST("/initiate-call", h.InitiateCall)
			pv.POST("/check-status", h.CheckStatus)
			pv.POST("/check-registration", h.CheckRegistration)
			pv.POST("/complete-registration", h.CompleteRegistration)
			pv.GET("/can-post", middleware.AuthMiddleware(), h.CanPost)
		}

		user := v1.Group("/user", middleware.AuthMiddleware())
		{
			user.GET("/:userslug/phone", h.GetUserPhone)
			user.POST("/:userslug/phone", h.UpdateUserPhone)
			user.POST("/:userslug/phone/visibility", h.SetPhoneVisibility)
			user.POST("/:userslug/phone/verify", h.VerifyOwnPhone)
		}

		admin := v1.Group("/admin/phone-verification", middleware.AuthMiddleware(), middleware.RequireAdmin())
		{
			admin.GET("/users", h.ListUsers)
			admin.GET("/search", h.SearchByPhone)
			admin.GET("/user/:uid", h.GetUserPhoneAdmin)
			admin.POST("/user/:uid/force-bind", h.ForceBindPhone)
			admin.POST("/user/:uid/force-verify", h.ForceVerifyPhone)
			admin.POST("/user/:uid/force-unverify", h.ForceUnverifyPhone)
			admin.DELETE("/user/:uid/phone", h.DeleteUserPhone)
			admin.GET("/settings", h.GetSettings)
			admin.POST("/settings", h.SaveSettings)
			admin.POST("/test-call", h.TestCall)
		}
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logging.Logger.Info("starting server",
			zap.Int("port", cfg.Port),
			zap.String("environment", cfg.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Logger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logging.Logger.Info("server exited")
}
