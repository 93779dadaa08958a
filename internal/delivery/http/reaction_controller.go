package http

import (
	"github.com/ferdian3456/kinfeed/internal/model"
	"github.com/ferdian3456/kinfeed/internal/usecase"
	"github.com/ferdian3456/kinfeed/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReactionController struct {
	ReactionUsecase *usecase.ReactionUsecase
	Log             *zap.Logger
}

func NewReactionController(reactionUsecase *usecase.ReactionUsecase, zap *zap.Logger) *ReactionController {
	return &ReactionController{
		ReactionUsecase: reactionUsecase,
		Log:             zap,
	}
}

func (controller *ReactionController) GetReactions(ctx *fiber.Ctx) error {
	userId := ctx.Locals("userId").(uuid.UUID)

	response, err := controller.ReactionUsecase.GetReactions(ctx.UserContext(), ctx.Params("postId"), userId)
	if err != nil {
		return util.SendUsecaseError(ctx, controller.Log, err)
	}

	return util.SendSuccessResponseWithData(ctx, response)
}

func (controller *ReactionController) CreateReaction(ctx *fiber.Ctx) error {
	userId := ctx.Locals("userId").(uuid.UUID)

	var payload model.PostReactionRequest
	err := util.ReadRequestBody(ctx, &payload)
	if err != nil {
		return util.SendErrorResponse(ctx, err)
	}

	response, err := controller.ReactionUsecase.CreateReaction(ctx.UserContext(), ctx.Params("postId"), userId, payload)
	if err != nil {
		return util.SendUsecaseError(ctx, controller.Log, err)
	}

	return util.SendCreatedResponseWithData(ctx, response)
}

func (controller *ReactionController) ReplaceReaction(ctx *fiber.Ctx) error {
	userId := ctx.Locals("userId").(uuid.UUID)

	var payload model.PostReactionRequest
	err := util.ReadRequestBody(ctx, &payload)
	if err != nil {
		return util.SendErrorResponse(ctx, err)
	}

	response, err := controller.ReactionUsecase.ReplaceReaction(ctx.UserContext(), ctx.Params("postId"), ctx.Params("reactionId"), userId, payload)
	if err != nil {
		return util.SendUsecaseError(ctx, controller.Log, err)
	}

	return util.SendSuccessResponseWithData(ctx, response)
}

func (controller *ReactionController) DeleteReaction(ctx *fiber.Ctx) error {
	userId := ctx.Locals("userId").(uuid.UUID)

	err := controller.ReactionUsecase.DeleteReaction(ctx.UserContext(), ctx.Params("postId"), ctx.Params("reactionId"), userId)
	if err != nil {
		return util.SendUsecaseError(ctx, controller.Log, err)
	}

	return util.SendSuccessResponseNoData(ctx)
}
