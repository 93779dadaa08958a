package middleware

import (
	"github.com/ferdian3456/kinfeed/internal/observability"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// TraceLoggerMiddleware stores a logger carrying trace_id and span_id so request logs can be joined with traces.
// It must run after otelfiber so the span is already in the user context.
func TraceLoggerMiddleware(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("logger", observability.WithContext(c.UserContext(), logger))

		return c.Next()
	}
}
