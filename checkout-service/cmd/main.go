package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/checkout"
	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/clients"
	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/config"
	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/coupon"
	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/gateway"
	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/handlers"
	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/lifecycle"
	"github.com/chiragjeevanani/quickcomm-sub000/checkout-service/internal/pricing"
	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/messaging"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()
	logger.Info("checkout service starting",
		zap.String("port", cfg.Port),
		zap.String("gateway_mode", string(cfg.PaymentGatewayMode)))

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, coupon list will not be cached", zap.Error(err))
	}
	cancel()

	cartClient := clients.NewCartClient(cfg.CartServiceURL, cfg.RequestTimeout, logger)
	couponClient := clients.NewCouponClient(cfg.CouponServiceURL, cfg.RequestTimeout, logger)
	addressClient := clients.NewAddressClient(cfg.AddressServiceURL, cfg.RequestTimeout, logger)
	orderClient := clients.NewOrderClient(cfg.OrderServiceURL, cfg.RequestTimeout, logger)
	profileClient := clients.NewProfileClient(cfg.ProfileServiceURL, cfg.RequestTimeout, logger)

	catalog := coupon.NewCachedCatalog(couponClient, redisClient, cfg.CouponCacheTTL, logger)
	couponValidator := coupon.NewValidator(catalog, couponClient, logger)

	payments := gateway.NewMockGateway(
		cfg.PaymentFailureRate,
		cfg.PaymentDelay,
		cfg.PaymentGatewayMode == config.GatewayModeAuto,
		cfg.PaymentCheckoutBaseURL,
		logger.Named("gateway"),
	)

	var publisher lifecycle.EventPublisher
	rabbitClient := messaging.NewRabbitMQClient(messaging.NewRabbitMQConfig(), logger)
	if err := rabbitClient.Connect(); err != nil {
		logger.Warn("rabbitmq unavailable, checkout events will not be published", zap.Error(err))
	} else {
		defer rabbitClient.Close()
		publisher = messaging.NewPublisher(rabbitClient, logger)
	}

	orchestrator := checkout.NewOrchestrator(checkout.Dependencies{
		Cart:      cartClient,
		Addresses: addressClient,
		Profiles:  profileClient,
		Orders:    orderClient,
		Coupons:   couponValidator,
		Gateway:   payments,
		Callbacks: payments,
		Publisher: publisher,
		Pricing: pricing.Config{
			FlatDeliveryFee:  cfg.FlatDeliveryFee,
			GiftPackagingFee: cfg.GiftPackagingFee,
		},
		Currency:       cfg.Currency,
		SessionTimeout: cfg.PaymentSessionTimeout,
		IdleTimeout:    cfg.SessionIdleTimeout,
		Logger:         logger,
	})
	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go orchestrator.RunJanitor(janitorCtx, time.Minute)

	checkoutHandler := handlers.NewCheckoutHandler(orchestrator, logger)

	app := setupFiberApp(logger)
	setupRoutes(app, checkoutHandler)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("checkout service shutting down")
		stopJanitor()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatal("server start error", zap.Error(err))
	}
}

func setupFiberApp(logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Checkout Service v1.0",
		ErrorHandler: errorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${method} ${path} - ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-ID,X-User-ID",
	}))

	return app
}

func setupRoutes(app *fiber.App, checkoutHandler *handlers.CheckoutHandler) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/v1")
	checkoutHandler.RegisterRoutes(api)

	app.Use("*", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Route not found",
		})
	})
}

func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}

		logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))

		return c.Status(code).JSON(fiber.Map{
			"success": false,
			"message": message,
		})
	}
}
