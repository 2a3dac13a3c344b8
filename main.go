package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"craftory-backend/config"
	"craftory-backend/controllers"
	"craftory-backend/database"
	"craftory-backend/gateway"
	"craftory-backend/kafka"
	"craftory-backend/logger"
	"craftory-backend/models"
	"craftory-backend/repository"
	"craftory-backend/routes"
	"craftory-backend/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	logger.Initialize(cfg.Environment)
	defer logger.Log.Sync()

	if err := database.Connect(cfg); err != nil {
		logger.Log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	if err := database.DB.AutoMigrate(
		&models.User{},
		&models.Booking{},
		&models.DIYOrder{},
		&models.OrderItem{},
		&models.Payment{},
	); err != nil {
		logger.Log.Fatal("failed to migrate models", zap.Error(err))
	}

	redisClient := database.NewRedisClient(cfg.RedisURL)

	mongoDB, err := database.ConnectMongo(cfg.MongoURI)
	if err != nil {
		logger.Log.Warn("mongo unavailable, payload audit disabled", zap.Error(err))
	}
	defer database.CloseMongo()

	var gw gateway.PaymentGateway
	if cfg.GatewayConfigured() {
		switch cfg.PaymentProvider {
		case "stripe":
			gw = gateway.NewStripeProvider(cfg.StripeSecretKey, cfg.StripeWebhookKey)
		default:
			gw = gateway.NewRazorpayProvider(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayWebhookSecret)
		}
		logger.Log.Info("payment gateway ready", zap.String("provider", gw.Name()))
	} else {
		logger.Log.Warn("payment gateway credentials missing, checkout disabled",
			zap.String("provider", cfg.PaymentProvider))
	}

	var producer *kafka.PaymentEventProducer
	if cfg.KafkaBrokers != "" {
		producer = kafka.NewPaymentEventProducer(strings.Split(cfg.KafkaBrokers, ","), cfg.KafkaTopic, logger.Log)
		defer producer.Close()
	}

	bookingRepo := repository.NewGormBookingRepo(database.DB)
	orderRepo := repository.NewGormOrderRepo(database.DB)
	paymentRepo := repository.NewGormPaymentRepo(database.DB)
	userRepo := repository.NewGormUserRepo(database.DB)

	tokens := services.NewTokenService(cfg.JWTSecret)
	otps := services.NewOTPStore(redisClient)
	mailer := services.NewSMTPSender(cfg, logger.Log)
	audit := services.NewAuditStore(mongoDB, logger.Log)

	slots := services.NewSlotService(bookingRepo)
	checkout := services.NewCheckoutService(bookingRepo, orderRepo, slots, gw, cfg.Currency, cfg.PublicBaseURL, logger.Log)
	reconciler := services.NewReconcileService(bookingRepo, orderRepo, paymentRepo, gw, producer, audit, logger.Log)
	refunds := services.NewRefundService(bookingRepo, paymentRepo, gw, producer, logger.Log)
	auth := services.NewAuthService(userRepo, tokens, otps, mailer, logger.Log)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestLogger())

	routes.RegisterRoutes(r, routes.Controllers{
		Auth:    controllers.NewAuthController(auth),
		Booking: controllers.NewBookingController(checkout, slots, refunds),
		Order:   controllers.NewOrderController(checkout),
		Payment: controllers.NewPaymentController(reconciler),
		Admin:   controllers.NewAdminController(bookingRepo, orderRepo),
	}, tokens)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("forced shutdown", zap.Error(err))
	}
}
