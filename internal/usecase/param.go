package usecase

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ferdian3456/kinfeed/internal/constant"
	"github.com/ferdian3456/kinfeed/internal/model"
	"github.com/google/uuid"
)

func parseIdParam(value string, param string, label string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, model.NewValidationError(constant.ERR_VALIDATION_CODE, fmt.Sprintf("Invalid %s id", label), param)
	}

	return id, nil
}

// validateCommentContent returns the trimmed content.
func validateCommentContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", model.NewValidationError(constant.ERR_VALIDATION_CODE, "Content is required", "content")
	}

	if utf8.RuneCountInString(trimmed) > constant.MAX_COMMENT_LENGTH {
		return "", model.NewValidationError(constant.ERR_VALIDATION_CODE,
			fmt.Sprintf("Content must be at most %d characters", constant.MAX_COMMENT_LENGTH), "content")
	}

	return trimmed, nil
}

func validateLimit(limit int) error {
	if limit < 1 {
		return model.NewValidationError(constant.ERR_VALIDATION_CODE, "Limit must be greater or equal than 1", "limit")
	} else if limit > constant.MAX_LIMIT {
		return model.NewValidationError(constant.ERR_VALIDATION_CODE, fmt.Sprintf("Limit is exceeded max limit: %d", constant.MAX_LIMIT), "limit")
	}

	return nil
}

func postNotFound() error {
	return model.NewValidationError(constant.ERR_NOT_FOUND_ERROR, "Post not found", "postId")
}
