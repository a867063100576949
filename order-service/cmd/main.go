package main

import (
	"errors"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/chiragjeevanani/quickcomm-sub000/order-service/internal/handlers"
	"github.com/chiragjeevanani/quickcomm-sub000/order-service/internal/repository"
	"github.com/chiragjeevanani/quickcomm-sub000/order-service/internal/service"
	"github.com/chiragjeevanani/quickcomm-sub000/shared-domain/messaging"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("order service starting")

	creds := loadCredentials()
	repo, err := repository.NewPostgresRepository(creds)
	if err != nil {
		logger.Fatal("database connection error", zap.Error(err))
	}
	defer repo.Close()

	if err := repo.RunMigrations(creds); err != nil {
		logger.Fatal("database migration error", zap.Error(err))
	}

	rabbitClient := messaging.NewRabbitMQClient(messaging.NewRabbitMQConfig(), logger)
	if err := rabbitClient.Connect(); err != nil {
		logger.Fatal("rabbitmq connection error", zap.Error(err))
	}
	defer rabbitClient.Close()

	publisher := messaging.NewPublisher(rabbitClient, logger)
	consumer := messaging.NewConsumer(rabbitClient, "order-service-queue", "order-service", logger)

	orderService := service.NewOrderService(repo, publisher, logger)
	orderHandler := handlers.NewOrderHandler(orderService, logger)

	app := setupFiberApp(logger)
	setupRoutes(app, orderHandler)

	go func() {
		if err := orderHandler.StartConsuming(consumer); err != nil {
			logger.Error("rabbitmq consumption error", zap.Error(err))
		}
	}()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("order service shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
	}()

	port := getEnvOrDefault("PORT", "8001")
	logger.Info("order service listening", zap.String("port", port))
	if err := app.Listen(":" + port); err != nil {
		logger.Fatal("server start error", zap.Error(err))
	}
}

func loadCredentials() *repository.Credentials {
	port, err := strconv.Atoi(getEnvOrDefault("DB_PORT", "5432"))
	if err != nil {
		port = 5432
	}
	return &repository.Credentials{
		Host:              getEnvOrDefault("DB_HOST", "localhost"),
		Port:              port,
		User:              getEnvOrDefault("DB_USER", "postgres"),
		Password:          getEnvOrDefault("DB_PASSWORD", "postgres"),
		DBName:            getEnvOrDefault("DB_NAME", "order_db"),
		MigrationsDirPath: getEnvOrDefault("MIGRATIONS_PATH", "order-service/internal/repository/migrations"),
	}
}

func setupFiberApp(logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Order Service v1.0",
		ErrorHandler: errorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${method} ${path} - ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-ID",
	}))

	return app
}

func setupRoutes(app *fiber.App, orderHandler *handlers.OrderHandler) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	orderHandler.RegisterRoutes(app.Group("/api/v1"))

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

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
