package config

import (
	"time"

	"github.com/bytedance/sonic"
	"github.com/ferdian3456/kinfeed/internal/exception"
	"github.com/gofiber/fiber/v2"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

// NewFiber builds the app with sonic as JSON codec and the error envelope handler. Behind a
// reverse proxy set PROXY_HEADER (e.g. X-Forwarded-For) so the rate limiters see client ips.
func NewFiber(config *koanf.Koanf, log *zap.Logger) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               "kinfeed",
		BodyLimit:             64 * 1024,
		ReadBufferSize:        8192,
		IdleTimeout:           60 * time.Second,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		DisableStartupMessage: true,
		ProxyHeader:           config.String("PROXY_HEADER"),
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		ErrorHandler:          exception.ErrorHandler(log),
	})
}
