// HTTP server wiring the risk analyzer and payment orchestrator.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/OmarElhagagy/tailored-sub002/internal/config"
	"github.com/OmarElhagagy/tailored-sub002/internal/gateway"
	"github.com/OmarElhagagy/tailored-sub002/internal/handler"
	"github.com/OmarElhagagy/tailored-sub002/internal/repository"
	"github.com/OmarElhagagy/tailored-sub002/internal/risk"
	"github.com/OmarElhagagy/tailored-sub002/internal/service"
	"github.com/OmarElhagagy/tailored-sub002/internal/telemetry"
	"github.com/OmarElhagagy/tailored-sub002/pkg/database"
	"github.com/OmarElhagagy/tailored-sub002/pkg/logger"
	redisclient "github.com/OmarElhagagy/tailored-sub002/pkg/redis"
)

func main() {
	// Initialize logger
	log := logger.NewLogger("payments")
	defer log.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}

	// Initialize database
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize Redis
	redisClient := redisclient.NewRedisClient(cfg.RedisURL)
	defer redisClient.Close()

	tracker := telemetry.NewTracker(log, prometheus.DefaultRegisterer)

	// Blacklist entries live in Redis so they survive restarts and are
	// shared across instances.
	blacklist := repository.NewRedisBlacklist(redisClient)

	analyzerOpts := []risk.AnalyzerOption{}
	var reviews handler.ReviewQueue
	if cfg.MongoURL != "" {
		mongoClient, err := mongo.Connect(context.Background(), mongooptions.Client().ApplyURI(cfg.MongoURL))
		if err != nil {
			log.Fatal("failed to connect to mongo", zap.Error(err))
		}
		defer mongoClient.Disconnect(context.Background())
		assessments := repository.NewAssessmentRepository(mongoClient, cfg.MongoDB)
		analyzerOpts = append(analyzerOpts, risk.WithAuditStore(assessments))
		reviews = assessments
	}

	analyzer := risk.NewAnalyzer(risk.DefaultConfig(), blacklist, tracker, log, analyzerOpts...)

	// Only providers with configured credentials join the registry; the
	// registry therefore doubles as the supported-gateway set.
	registry := gateway.NewRegistry()
	if cfg.StripeSecretKey != "" {
		registry.Register(gateway.NewStripeGateway(cfg.StripeSecretKey))
	}
	if cfg.PaystackSecretKey != "" {
		registry.Register(gateway.NewPaystackGateway(cfg.PaystackSecretKey))
	}
	if cfg.FlutterwaveSecretKey != "" {
		registry.Register(gateway.NewFlutterwaveGateway(cfg.FlutterwaveSecretKey))
	}
	if cfg.RazorpayKeyID != "" && cfg.RazorpayKeySecret != "" {
		registry.Register(gateway.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret))
	}
	if cfg.XenditAPIKey != "" {
		registry.Register(gateway.NewXenditGateway(cfg.XenditAPIKey))
	}
	log.Info("configured payment gateways", zap.Strings("gateways", registry.Names()))

	paymentRepo := repository.NewPaymentRepository(db.DB)
	paymentService := service.NewPaymentService(registry, paymentRepo, redisClient, tracker, log)

	riskHandler := handler.NewRiskHandler(analyzer, blacklist, reviews, log)
	paymentHandler := handler.NewPaymentHandler(paymentService, analyzer, log)

	router := setupRouter(riskHandler, paymentHandler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}

func setupRouter(riskHandler *handler.RiskHandler, paymentHandler *handler.PaymentHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// Health checks
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/risk/check", riskHandler.CheckRisk)
		v1.GET("/risk/reviews", riskHandler.ListReviews)
		v1.POST("/blacklist", riskHandler.AddBlacklistEntry)
		v1.POST("/tokens", paymentHandler.TokenizeCard)

		payments := v1.Group("/payments")
		{
			payments.POST("", paymentHandler.CreatePayment)
			payments.GET("/:id", paymentHandler.GetPayment)
			payments.POST("/:id/refunds", paymentHandler.CreateRefund)
			payments.POST("/:id/verify", paymentHandler.VerifyPayment)
		}
	}

	return router
}
