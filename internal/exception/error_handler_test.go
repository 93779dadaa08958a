package exception

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/ferdian3456/kinfeed/internal/constant"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func decodeErrorCode(t *testing.T, body io.Reader) string {
	t.Helper()

	raw, err := io.ReadAll(body)
	require.NoError(t, err)

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, sonic.Unmarshal(raw, &envelope))

	return envelope.Error.Code
}

func TestRecovery(t *testing.T) {
	app := fiber.New()
	app.Use(Recovery(zap.NewNop()))
	app.Get("/panic", func(c *fiber.Ctx) error {
		panic("boom")
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/panic", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, constant.ERR_INTERNAL_SERVER_ERROR_CODE, decodeErrorCode(t, resp.Body))
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
	app.Get("/upgrade", func(c *fiber.Ctx) error {
		return fiber.ErrUpgradeRequired
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, constant.ERR_NOT_FOUND_ERROR, decodeErrorCode(t, resp.Body))

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/upgrade", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
	assert.Equal(t, constant.ERR_VALIDATION_CODE, decodeErrorCode(t, resp.Body))
}
