package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ferdian3456/kinfeed/internal/config"
	"github.com/ferdian3456/kinfeed/internal/delivery/http/middleware"
	"github.com/ferdian3456/kinfeed/internal/exception"
	"github.com/ferdian3456/kinfeed/internal/observability"
	traceMiddleware "github.com/ferdian3456/kinfeed/internal/middleware"
	"github.com/gofiber/contrib/otelfiber"
	gofiber "github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	zapLog "go.uber.org/zap"
)

func main() {
	time.Local = time.UTC

	zap := config.NewZap(os.Getenv("LOG_LEVEL"), false)
	koanf := config.NewKoanf(zap, ".env")

	otelShutdown, err := observability.Init(context.Background(), config.LoadObservabilityConfig(koanf), zap)
	if err != nil {
		zap.Fatal("failed to initialize tracing", zapLog.Error(err))
	}

	rds := config.NewRedisClient(koanf, zap)
	postgresql := config.NewPostgresqlPool(koanf, zap)
	minio := config.NewMinIO(koanf, zap)
	fiber := config.NewFiber(koanf, zap)

	fiber.Use(exception.Recovery(zap))
	fiber.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *gofiber.Ctx) bool {
		return c.Path() == "/api/health"
	})))
	fiber.Use(traceMiddleware.TraceLoggerMiddleware(zap))
	fiber.Use(middleware.SetupCORS(koanf.String("CORS_ALLOW_ORIGINS")))
	fiber.Use(middleware.SetupRateLimiter(zap))
	fiber.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	config.Server(&config.ServerConfig{
		Router:  fiber,
		DB:      postgresql,
		DBCache: rds,
		Log:     zap,
		Config:  koanf,
		MinIO:   minio,
	})

	GO_SERVER_PORT := koanf.String("GO_SERVER")

	zap.Info("Server is running on: " + GO_SERVER_PORT)

	go func() {
		err := fiber.Listen(GO_SERVER_PORT)
		if err != nil {
			zap.Fatal("error starting server", zapLog.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	zap.Info("got one of stop signals")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = fiber.ShutdownWithContext(ctx)
	if err != nil {
		zap.Warn("timeout, forced kill!", zapLog.Error(err))
		_ = zap.Sync()
		os.Exit(1)
	}

	postgresql.Close()
	_ = rds.Close()

	err = otelShutdown(ctx)
	if err != nil {
		zap.Warn("failed to flush traces", zapLog.Error(err))
	}

	zap.Info("server has shut down gracefully")
	_ = zap.Sync()
}
