package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/dabd2323/music-store/internal/notification"
	"github.com/dabd2323/music-store/internal/notification/email"
	"github.com/dabd2323/music-store/internal/payment"
	"github.com/dabd2323/music-store/internal/repository"
	"github.com/dabd2323/music-store/internal/service"
	transport "github.com/dabd2323/music-store/internal/transport/http"
	"github.com/dabd2323/music-store/internal/transport/http/handler"
	"github.com/dabd2323/music-store/pkg/config"
	"github.com/dabd2323/music-store/pkg/db"
	outboxRepository "github.com/dabd2323/music-store/pkg/outbox/repository"
	"github.com/dabd2323/music-store/pkg/outbox/worker"
	"github.com/dabd2323/music-store/pkg/utils"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	pkgkafka "github.com/dabd2323/music-store/pkg/kafka"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not found: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()

	tp, err := utils.InitTracer(ctx, "music-store")
	if err != nil {
		log.Fatalf("Failed to init trace: %v", err)
	}

	logger, err := config.NewLogger(config.LoggerConfig{
		Level: "info",
		Env:   cfg.Env,
	})
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	pool, err := db.NewPostgresDB(cfg.Postgres.URL)
	if err != nil {
		log.Fatalf("Error connecting to postgres: %v", err)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Printf("Error closing redis client: %v\n", err)
		}
	}()

	producer, err := pkgkafka.NewProducer(cfg.Kafka.Brokers)
	if err != nil {
		log.Fatalf("Error creating kafka producer: %v", err)
	}
	defer func() {
		if err := producer.Close(); err != nil {
			log.Printf("Error closing kafka producer: %v\n", err)
		}
	}()

	userRepo := repository.NewUserRepository(pool, logger)
	productRepo := repository.NewProductRepository(pool, logger)
	cartRepo := repository.NewCartRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	outboxRepo := outboxRepository.NewOutboxRepository(pool, logger)

	paymentClient := payment.NewClient(
		cfg.Payments.BaseURL,
		cfg.Payments.APIKey,
		cfg.Payments.Currency,
		cfg.Payments.Timeout,
	)
	paymentBreaker := utils.NewBreaker("PaymentProcessor", logger)

	pricing := service.NewPricingEngine()
	downloads := service.NewDownloadService(cfg.Auth.DownloadKey, orderRepo, logger)

	authService := service.NewAuthService(pool, logger, userRepo, outboxRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	catalogService := service.NewCachedCatalogService(
		service.NewCatalogService(pool, logger, productRepo),
		redisClient,
	)
	cartService := service.NewCartService(logger, cartRepo, productRepo, pricing)
	checkoutService := service.NewCheckoutService(
		pool,
		logger,
		cartRepo,
		productRepo,
		orderRepo,
		userRepo,
		outboxRepo,
		pricing,
		downloads,
		paymentClient,
		paymentBreaker,
	)
	adminService := service.NewAdminService(pool, logger, userRepo, productRepo, orderRepo, outboxRepo)

	outboxProcessor := worker.NewOutboxProcessor(pool, outboxRepo, producer, logger)
	go outboxProcessor.Start(ctx)

	sweeper := service.NewSweeper(orderRepo, checkoutService, logger, cfg.Checkout.SessionTTL, cfg.Checkout.SweepInterval)
	go sweeper.Start(ctx)

	emailSender := email.NewSMTPSender(logger)
	notificationService := notification.NewNotificationService(emailSender, userRepo, logger, pool)
	consumer := notification.NewConsumer(notificationService, logger)
	go consumer.Start(ctx, cfg.Kafka.Brokers)

	app := fiber.New()

	app.Use(otelfiber.Middleware())
	app.Use(cors.New())

	app.Use(limiter.New(limiter.Config{
		Max:        cfg.Limiter.Max,
		Expiration: cfg.Limiter.Expiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Try again later.",
			})
		},
	}))

	handlers := &transport.Handlers{
		Auth:     handler.NewAuthHandler(authService, logger),
		Catalog:  handler.NewCatalogHandler(catalogService, logger),
		Cart:     handler.NewCartHandler(cartService, logger),
		Checkout: handler.NewCheckoutHandler(checkoutService, downloads, logger),
		Webhook:  handler.NewWebhookHandler(checkoutService, logger),
		Admin:    handler.NewAdminHandler(adminService, catalogService, logger),
	}

	transport.RegisterRoutes(app, handlers, authService)

	logger.Info("Music store started!")

	go func() {
		log.Println("HTTP Service listening on: " + cfg.HTTP.Port)
		if err := app.Listen(cfg.HTTP.Port); err != nil {
			log.Fatalf("Error listening on HTTP port %v: %v\n", cfg.HTTP.Port, err)
		}
	}()

	<-ctx.Done()

	log.Println("Shutting down gracefully...")
	shutdownContext, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownContext); err != nil {
		log.Printf("Error shutting down HTTP app: %v\n", err)
	} else {
		log.Println("HTTP App stopped gracefully")
	}

	if err := tp.Shutdown(shutdownContext); err != nil {
		log.Printf("Error shutting down telemetry: %v\n", err)
	} else {
		log.Println("Telemetry stopped correctly")
	}
}
