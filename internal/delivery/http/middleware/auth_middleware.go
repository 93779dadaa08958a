package middleware

import (
	"errors"

	"github.com/ferdian3456/kinfeed/internal/middleware"
	"github.com/ferdian3456/kinfeed/internal/model"
	"github.com/ferdian3456/kinfeed/internal/usecase"
	"github.com/ferdian3456/kinfeed/internal/util"

	"github.com/gofiber/fiber/v2"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

type AuthMiddleware struct {
	Log         *zap.Logger
	Config      *koanf.Koanf
	UserUsecase *usecase.UserUsecase
}

func NewAuthMiddleware(zap *zap.Logger, koanf *koanf.Koanf, userUsecase *usecase.UserUsecase) *AuthMiddleware {
	return &AuthMiddleware{
		Log:         zap,
		Config:      koanf,
		UserUsecase: userUsecase,
	}
}

// ProtectedRoute stores "userId" and "accessToken" in Locals for the handlers behind it. The
// websocket upgrade reads them too, so the stream is authenticated by the same header.
func (authMiddleware *AuthMiddleware) ProtectedRoute() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		userId, tokenString, err := authMiddleware.UserUsecase.Authenticate(ctx.UserContext(), ctx.Get(fiber.HeaderAuthorization))
		if err != nil {
			var validationErr *model.ValidationError
			if errors.As(err, &validationErr) {
				return util.SendErrorResponseUnauthorized(ctx, validationErr)
			}

			return util.SendErrorResponseInternalServer(ctx, authMiddleware.Log, err)
		}

		ctx.Locals("userId", userId)
		ctx.Locals("accessToken", tokenString)

		middleware.GetLoggerFromContext(ctx, authMiddleware.Log).Debug("authenticated request", zap.String("userId", userId.String()))

		return ctx.Next()
	}
}
