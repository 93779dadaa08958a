package feed

import (
	"errors"

	"github.com/ferdian3456/kinfeed/internal/constant"
	"github.com/ferdian3456/kinfeed/internal/model"
)

var (
	ErrCommentNotFound  = errors.New("comment not found")
	ErrReactionConflict = errors.New("reaction conflict")
	ErrNetworkFailure   = errors.New("network failure")
	ErrBusy             = errors.New("another operation is in progress")
	ErrStaleResponse    = errors.New("response ignored, view is no longer current")
)

func newValidationError(message string, param string) *model.ValidationError {
	return model.NewValidationError(constant.ERR_VALIDATION_CODE, message, param)
}

// NeedsResync reports whether err means the local view diverged from the server
// and the caller should refetch instead of retrying.
func NeedsResync(err error) bool {
	return errors.Is(err, ErrCommentNotFound) || errors.Is(err, ErrReactionConflict)
}

func IsValidation(err error) bool {
	var validationErr *model.ValidationError
	return errors.As(err, &validationErr)
}
