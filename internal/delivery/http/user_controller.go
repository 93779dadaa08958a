package http

import (
	"github.com/ferdian3456/kinfeed/internal/usecase"
	"github.com/ferdian3456/kinfeed/internal/util"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

type UserController struct {
	UserUsecase *usecase.UserUsecase
	Log         *zap.Logger
	Config      *koanf.Koanf
}

func NewUserController(userUsecase *usecase.UserUsecase, zap *zap.Logger, koanf *koanf.Koanf) *UserController {
	return &UserController{
		UserUsecase: userUsecase,
		Log:         zap,
		Config:      koanf,
	}
}

func (controller UserController) GetUserInfo(ctx *fiber.Ctx) error {
	userId := ctx.Locals("userId").(uuid.UUID)

	response, err := controller.UserUsecase.GetUserInfo(ctx.UserContext(), userId)
	if err != nil {
		return util.SendUsecaseError(ctx, controller.Log, err)
	}

	return util.SendSuccessResponseWithData(ctx, response)
}

func (controller UserController) Logout(ctx *fiber.Ctx) error {
	accessToken := ctx.Locals("accessToken").(string)

	err := controller.UserUsecase.Logout(ctx.UserContext(), accessToken)
	if err != nil {
		return util.SendErrorResponseInternalServer(ctx, controller.Log, err)
	}

	return util.SendSuccessResponseNoData(ctx)
}
