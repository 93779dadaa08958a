package http

import (
	"github.com/ferdian3456/kinfeed/internal/constant"
	"github.com/ferdian3456/kinfeed/internal/model"
	"github.com/ferdian3456/kinfeed/internal/usecase"
	"github.com/ferdian3456/kinfeed/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

type CommentController struct {
	CommentUsecase *usecase.CommentUsecase
	Log            *zap.Logger
	Config         *koanf.Koanf
}

func NewCommentController(commentUsecase *usecase.CommentUsecase, zap *zap.Logger, koanf *koanf.Koanf) *CommentController {
	return &CommentController{
		CommentUsecase: commentUsecase,
		Log:            zap,
		Config:         koanf,
	}
}

func (controller *CommentController) GetComments(ctx *fiber.Ctx) error {
	postIdParam := ctx.Params("postId")
	limit := ctx.QueryInt("limit", constant.DEFAULT_LIMIT)
	cursor := ctx.Query("cursor", "")

	response, err := controller.CommentUsecase.GetComments(ctx.UserContext(), postIdParam, limit, cursor)
	if err != nil {
		return util.SendUsecaseError(ctx, controller.Log, err)
	}

	return util.SendSuccessResponseWithData(ctx, response)
}

func (controller *CommentController) CreateComment(ctx *fiber.Ctx) error {
	userId := ctx.Locals("userId").(uuid.UUID)
	postIdParam := ctx.Params("postId")

	var payload model.PostCommentCreateRequest
	err := util.ReadRequestBody(ctx, &payload)
	if err != nil {
		return util.SendErrorResponse(ctx, err)
	}

	response, err := controller.CommentUsecase.CreateComment(ctx.UserContext(), postIdParam, userId, payload)
	if err != nil {
		return util.SendUsecaseError(ctx, controller.Log, err)
	}

	return util.SendCreatedResponseWithData(ctx, response)
}

func (controller *CommentController) UpdateComment(ctx *fiber.Ctx) error {
	userId := ctx.Locals("userId").(uuid.UUID)
	postIdParam := ctx.Params("postId")
	commentIdParam := ctx.Params("commentId")

	var payload model.PostCommentUpdateRequest
	err := util.ReadRequestBody(ctx, &payload)
	if err != nil {
		return util.SendErrorResponse(ctx, err)
	}

	response, err := controller.CommentUsecase.UpdateComment(ctx.UserContext(), postIdParam, commentIdParam, userId, payload)
	if err != nil {
		return util.SendUsecaseError(ctx, controller.Log, err)
	}

	return util.SendSuccessResponseWithData(ctx, response)
}

func (controller *CommentController) DeleteComment(ctx *fiber.Ctx) error {
	userId := ctx.Locals("userId").(uuid.UUID)
	postIdParam := ctx.Params("postId")
	commentIdParam := ctx.Params("commentId")

	err := controller.CommentUsecase.DeleteComment(ctx.UserContext(), postIdParam, commentIdParam, userId)
	if err != nil {
		return util.SendUsecaseError(ctx, controller.Log, err)
	}

	return util.SendSuccessResponseNoData(ctx)
}

func (controller *CommentController) LikeComment(ctx *fiber.Ctx) error {
	userId := ctx.Locals("userId").(uuid.UUID)

	err := controller.CommentUsecase.LikeComment(ctx.UserContext(), ctx.Params("postId"), ctx.Params("commentId"), userId)
	if err != nil {
		return util.SendUsecaseError(ctx, controller.Log, err)
	}

	return util.SendSuccessResponseNoData(ctx)
}

func (controller *CommentController) UnlikeComment(ctx *fiber.Ctx) error {
	userId := ctx.Locals("userId").(uuid.UUID)

	err := controller.CommentUsecase.UnlikeComment(ctx.UserContext(), ctx.Params("postId"), ctx.Params("commentId"), userId)
	if err != nil {
		return util.SendUsecaseError(ctx, controller.Log, err)
	}

	return util.SendSuccessResponseNoData(ctx)
}
