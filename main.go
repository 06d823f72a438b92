package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"eshop/apperr"
	"eshop/auth"
	"eshop/config"
	"eshop/db"
	"eshop/events"
	"eshop/handlers"
	"eshop/mail"
	"eshop/metrics"
	"eshop/notify"
	"eshop/payment"
	"eshop/ratelimit"
	"eshop/routes"
	"eshop/services"
	"eshop/tracing"
	"eshop/uploads"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not found: %v\n", err)
	}

	cfg := config.MustLoad()

	zlog, err := config.NewLogger(config.LoggerConfig{Level: cfg.LogLevel, Env: cfg.Env})
	if err != nil {
		log.Fatalf("error creating logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.Init(ctx, cfg.Tracing, cfg.Env)
	if err != nil {
		zlog.Fatal("failed to init tracer", zap.Error(err))
	}

	conn, err := db.Open(cfg.Database, zlog)
	if err != nil {
		zlog.Fatal("failed to open database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(conn); err != nil {
			zlog.Warn("error closing database", zap.Error(err))
		}
	}()

	tokens := auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.ExpiresIn)
	mailer := mail.New(cfg.SMTP, zlog)
	hub := notify.NewHub(zlog)
	m := metrics.New()

	publishers := events.Multi{hub, m}
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			zlog.Fatal("error creating kafka producer", zap.Error(err))
		}
		defer func() { _ = kafka.Close() }()
		publishers = append(publishers, kafka)
	}

	urls := services.CheckoutURLs{Success: cfg.Stripe.SuccessURL, Cancel: cfg.Stripe.CancelURL}
	if urls.Success == "" {
		urls.Success = cfg.HTTP.BaseURL + "/api/orders"
	}
	if urls.Cancel == "" {
		urls.Cancel = cfg.HTTP.BaseURL + "/api/cart"
	}

	deps := routes.Deps{
		DB:        conn,
		Tokens:    tokens,
		Auth:      services.NewAuthService(conn, tokens, mailer, zlog),
		Carts:     services.NewCartService(conn),
		Orders:    services.NewOrderService(conn, payment.NewStripe(cfg.Stripe), publishers, mailer, urls, zlog),
		Reviews:   services.NewReviewService(conn),
		Addresses: services.NewAddressService(conn),
		Uploads:   uploads.NewStore(cfg.HTTP.UploadsDir, cfg.HTTP.BaseURL),
		Hub:       hub,
		Metrics:   m,
		Logger:    zlog,
	}

	// in-memory counters unless redis is configured
	var storage fiber.Storage
	if cfg.Redis.Addr != "" {
		redisStorage, err := ratelimit.NewRedisStorage(cfg.Redis)
		if err != nil {
			zlog.Fatal("error connecting to redis", zap.Error(err))
		}
		defer func() { _ = redisStorage.Close() }()
		storage = redisStorage
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: apperr.Handler(zlog),
		BodyLimit:    max(cfg.HTTP.BodyLimit, cfg.HTTP.UploadLimit),
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())
	app.Use(compress.New())
	app.Use(otelfiber.Middleware())
	app.Use(m.Middleware())
	app.Use("/api", ratelimit.New(cfg.Limiter, storage))
	app.Use("/api", handlers.LimitBody(cfg.HTTP.BodyLimit))

	routes.SetupRoutes(app, deps)

	go hub.Run(ctx)

	go func() {
		zlog.Info("http server listening", zap.String("addr", cfg.HTTP.Port))
		if err := app.Listen(cfg.HTTP.Port); err != nil {
			zlog.Fatal("error listening", zap.String("addr", cfg.HTTP.Port), zap.Error(err))
		}
	}()

	<-ctx.Done()

	zlog.Info("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zlog.Warn("error shutting down http app", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		zlog.Warn("error shutting down telemetry", zap.Error(err))
	}
}
