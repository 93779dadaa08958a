package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ferdian3456/kinfeed/internal/repository"
	"github.com/ferdian3456/kinfeed/internal/usecase"
	"github.com/ferdian3456/kinfeed/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/knadh/koanf/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "middleware-test-secret"

func newProtectedApp(t *testing.T) (*fiber.App, *usecase.UserUsecase) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	k := koanf.New(".")
	require.NoError(t, k.Set("JWT_SECRET_KEY", testSecret))

	log := zap.NewNop()
	userUsecase := usecase.NewUserUsecase(repository.NewUserRepository(log, nil, rdb, nil), log, k)

	app := fiber.New()
	auth := NewAuthMiddleware(log, k, userUsecase)
	app.Get("/me", auth.ProtectedRoute(), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("userId").(uuid.UUID).String())
	})

	return app, userUsecase
}

func TestProtectedRoute(t *testing.T) {
	app, userUsecase := newProtectedApp(t)
	userId := uuid.New()

	token, err := util.GenerateAccessToken(userId, testSecret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(fiber.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(fiber.MethodGet, "/me", nil)
	req.Header.Set("Authorization", util.BearerPrefix+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.NoError(t, userUsecase.Logout(context.Background(), token))

	req = httptest.NewRequest(fiber.MethodGet, "/me", nil)
	req.Header.Set("Authorization", util.BearerPrefix+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestWriteRateLimiter_SkipsReads(t *testing.T) {
	app := fiber.New()
	app.Use(SetupWriteRateLimiter(zap.NewNop(), 1))
	app.All("/", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodPost, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}
