package util

import (
	"errors"

	"github.com/ferdian3456/kinfeed/internal/constant"
	"github.com/ferdian3456/kinfeed/internal/middleware"
	"github.com/ferdian3456/kinfeed/internal/model"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func ReadRequestBody(ctx *fiber.Ctx, result interface{}) error {
	err := ctx.BodyParser(result)
	if err != nil {
		return &model.ValidationError{
			Code:    constant.ERR_INVALID_REQUEST_BODY_ERROR_CODE,
			Message: constant.ERR_INVALID_REQUEST_BODY_MESSAGE,
			Param:   "body",
		}
	}
	return nil
}

func SendSuccessResponseNoData(ctx *fiber.Ctx) error {
	err := ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "OK",
	})
	if err != nil {
		return err
	}
	return nil
}

func SendSuccessResponseWithData(ctx *fiber.Ctx, data interface{}) error {
	err := ctx.Status(fiber.StatusOK).JSON(data)
	if err != nil {
		return err
	}

	return nil
}

func SendCreatedResponseWithData(ctx *fiber.Ctx, data interface{}) error {
	err := ctx.Status(fiber.StatusCreated).JSON(data)
	if err != nil {
		return err
	}

	return nil
}

func SendErrorResponse(ctx *fiber.Ctx, error error) error {
	err := ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": error,
	})
	if err != nil {
		return err
	}

	return nil
}

func SendErrorResponseNotFound(ctx *fiber.Ctx, error error) error {
	err := ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": error,
	})
	if err != nil {
		return err
	}

	return nil
}

func SendErrorResponseConflict(ctx *fiber.Ctx, error error) error {
	err := ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
		"error": error,
	})
	if err != nil {
		return err
	}

	return nil
}

func SendErrorResponseUnauthorized(ctx *fiber.Ctx, error error) error {
	err := ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": error,
	})
	if err != nil {
		return err
	}

	return nil
}

func SendErrorResponseInternalServer(ctx *fiber.Ctx, log *zap.Logger, error error) error {
	log = middleware.GetLoggerFromContext(ctx, log)
	log.Error("internal server error occured", zap.Error(error))
	err := ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    constant.ERR_INTERNAL_SERVER_ERROR_CODE,
			"message": constant.ERR_INTENRAL_SERVER_ERROR_MESSAGE,
		},
	})

	if err != nil {
		return err
	}

	return nil
}

// SendUsecaseError picks the status from the code of a *model.ValidationError.
// Anything else is answered as an internal server error.
func SendUsecaseError(ctx *fiber.Ctx, log *zap.Logger, err error) error {
	var validationErr *model.ValidationError
	if !errors.As(err, &validationErr) {
		return SendErrorResponseInternalServer(ctx, log, err)
	}

	switch validationErr.Code {
	case constant.ERR_NOT_FOUND_ERROR:
		return SendErrorResponseNotFound(ctx, validationErr)
	case constant.ERR_REACTION_CONFLICT:
		return SendErrorResponseConflict(ctx, validationErr)
	case constant.ERR_UNATHORIZED_ERROR:
		return SendErrorResponseUnauthorized(ctx, validationErr)
	default:
		return SendErrorResponse(ctx, validationErr)
	}
}
