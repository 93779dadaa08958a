package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestTraceLoggerMiddleware_AddsTraceFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	tp := sdktrace.NewTracerProvider()

	app := fiber.New()
	app.Use(otelfiber.Middleware(otelfiber.WithTracerProvider(tp)))
	app.Use(TraceLoggerMiddleware(zap.New(core)))
	app.Get("/", func(c *fiber.Ctx) error {
		GetLoggerFromContext(c, zap.NewNop()).Info("handled")
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].ContextMap()["trace_id"])
	assert.NotEmpty(t, entries[0].ContextMap()["span_id"])
}

func TestGetLoggerFromContext_Fallback(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	fallback := zap.New(core)

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		GetLoggerFromContext(c, fallback).Info("fallback")
		return c.SendStatus(fiber.StatusOK)
	})

	_, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 1, logs.Len())
}
