package internal

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tiktip/pkg/config"
	"tiktip/pkg/database"
	"tiktip/pkg/jwt"
	"tiktip/pkg/logger"
	"tiktip/pkg/middleware"
	"tiktip/pkg/payment"
	"tiktip/pkg/queue"
	"tiktip/pkg/validation"
	ledgerHTTP "tiktip/services/ledger/internal/controller/http"
	"tiktip/services/ledger/internal/notifier"
	"tiktip/services/ledger/internal/repo/persistent"
	"tiktip/services/ledger/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "tiktip/services/ledger/docs" // Swagger docs
)

// Services bundles everything the router needs.
type Services struct {
	Ledger     usecase.LedgerUseCase
	Payments   usecase.PaymentUseCase
	Withdrawal usecase.WithdrawalUseCase
	Reconcile  usecase.ReconcileUseCase
	Provider   *payment.BreakerProvider
	JWT        *jwt.Service
	Redis      *redis.Client
}

// NewProvider selects the payment gateway and wraps it in a circuit breaker.
func NewProvider(cfg *config.Config, log *logger.Logger) *payment.BreakerProvider {
	var inner payment.Provider
	switch cfg.PaymentProvider {
	case "paystack":
		inner = payment.NewPaystackProvider(cfg.PaystackBaseURL, cfg.PaystackSecretKey, cfg.PaymentTimeout)
	default:
		log.Warn("Using stub payment provider; payments are not real")
		inner = payment.NewStubProvider()
	}
	return payment.NewBreakerProvider(inner, payment.DefaultBreakerSettings(cfg.PaymentProvider), log)
}

// NewPublisher builds the notifier fan-out from NOTIFIER_BACKENDS. Backends
// whose client is unavailable are skipped.
func NewPublisher(cfg *config.Config, redisClient *redis.Client, queueClient *queue.Client, log *logger.Logger) notifier.Publisher {
	var pubs notifier.Multi
	for _, backend := range cfg.NotifierBackends {
		switch strings.ToLower(backend) {
		case "redis":
			if redisClient == nil {
				log.Warn("[NOTIFIER] redis backend requested but redis is unavailable")
				continue
			}
			pubs = append(pubs, notifier.NewRedisPublisher(redisClient))
		case "rabbitmq", "amqp":
			if queueClient == nil {
				log.Warn("[NOTIFIER] rabbitmq backend requested but rabbitmq is unavailable")
				continue
			}
			pubs = append(pubs, notifier.NewQueuePublisher(queueClient))
		case "none", "noop":
		default:
			log.Warn("[NOTIFIER] unknown backend %q ignored", backend)
		}
	}
	if len(pubs) == 0 {
		return notifier.NoOp{}
	}
	return pubs
}

func NewServices(cfg *config.Config, log *logger.Logger, db *gorm.DB, redisClient *redis.Client, queueClient *queue.Client) *Services {
	// Initialize repositories
	ledgerRepo := persistent.NewLedgerRepository(db)

	provider := NewProvider(cfg, log)
	dispatcher := notifier.NewDispatcher(NewPublisher(cfg, redisClient, queueClient, log), cfg.NotifyPublishBudget, log)

	// Initialize use cases
	ledgerUseCase := usecase.NewLedgerUseCase(ledgerRepo, dispatcher, log)
	paymentUseCase := usecase.NewPaymentUseCase(ledgerRepo, provider, dispatcher, usecase.PaymentConfig{
		Currency:          cfg.PaymentCurrency,
		CallbackURL:       cfg.PaymentCallbackURL,
		IdempotencyKeyMin: cfg.IdempotencyKeyMin,
	}, log)

	return &Services{
		Ledger:     ledgerUseCase,
		Payments:   paymentUseCase,
		Withdrawal: usecase.NewWithdrawalUseCase(ledgerUseCase, ledgerRepo, dispatcher, log),
		Reconcile:  usecase.NewReconcileUseCase(ledgerRepo, log),
		Provider:   provider,
		JWT:        jwt.NewService(cfg.JWTSecret),
		Redis:      redisClient,
	}
}

func NewRouter(cfg *config.Config, log *logger.Logger, svc *Services) *gin.Engine {
	// Initialize HTTP handlers
	tipHandler := ledgerHTTP.NewTipHandler(svc.Ledger, svc.Payments, log)
	webhookHandler := ledgerHTTP.NewWebhookHandler(svc.Payments, cfg.PaystackSecretKey, log)
	creatorHandler := ledgerHTTP.NewCreatorHandler(svc.Ledger, svc.Withdrawal, log)
	adminHandler := ledgerHTTP.NewAdminHandler(svc.Ledger, svc.Withdrawal, svc.Reconcile, log)
	liveHandler := ledgerHTTP.NewLiveHandler(svc.Redis, svc.JWT, log)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", ledgerHTTP.IdempotencyKeyHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		state := "closed"
		if svc.Provider != nil {
			state = svc.Provider.State()
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "payment_provider": state})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")

	// Public tipping page
	api.GET("/creators/:username", tipHandler.GetCreatorProfile)
	api.POST("/tips/initiate", tipHandler.InitiateTip)
	api.GET("/tips/verify/:reference", tipHandler.VerifyTip)

	// Signed by the gateway
	api.POST("/webhooks/paystack", webhookHandler.Paystack)

	// The websocket authenticates itself so browsers can pass ?token=
	api.GET("/me/ws", liveHandler.HandleWebSocket)

	me := api.Group("/me")
	me.Use(middleware.AuthMiddleware(svc.JWT), middleware.RequireRole(jwt.RoleCreator))
	{
		me.GET("/earnings", creatorHandler.GetEarnings)
		me.GET("/transactions", creatorHandler.ListTransactions)
		me.POST("/withdrawals", creatorHandler.RequestWithdrawal)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(svc.JWT), middleware.RequireRole(jwt.RoleAdmin))
	{
		admin.POST("/creators", adminHandler.CreateCreator)
		admin.GET("/creators/:id/reconcile", adminHandler.CheckBalances)
		admin.POST("/creators/:id/reconcile", adminHandler.RepairBalances)
		admin.GET("/withdrawals/pending", adminHandler.ListPendingWithdrawals)
		admin.POST("/withdrawals/:id/approve", adminHandler.ApproveWithdrawal)
		admin.POST("/withdrawals/:id/decline", adminHandler.DeclineWithdrawal)
	}

	return r
}

func Run(cfg *config.Config, log *logger.Logger, db *gorm.DB, redisClient *redis.Client, queueClient *queue.Client) {
	if err := validation.Register(cfg.IdempotencyKeyMin); err != nil {
		log.Fatalf("Failed to register validators: %v", err)
	}

	svc := NewServices(cfg, log, db, redisClient, queueClient)
	r := NewRouter(cfg, log, svc)

	// Create HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("Ledger service starting on port %s (payment provider: %s)", cfg.ServerPort, cfg.PaymentProvider)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down ledger service...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// Drain requests before closing their dependencies
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing Redis: %v", err)
		}
	}

	if queueClient != nil {
		if err := queueClient.Close(); err != nil {
			log.Error("Error closing RabbitMQ: %v", err)
		}
	}

	if err := database.Close(db); err != nil {
		log.Error("Error closing database: %v", err)
	}

	log.Info("Ledger service exited")
}
