package util

import (
	"encoding/base64"

	"github.com/bytedance/sonic"
	"github.com/ferdian3456/kinfeed/internal/constant"
	"github.com/ferdian3456/kinfeed/internal/model"
)

func EncodeCommentCursor(cursor model.PostCommentCursor) (string, error) {
	b, err := sonic.Marshal(cursor)
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DecodeCommentCursor returns the zero cursor for an empty string.
func DecodeCommentCursor(value string) (model.PostCommentCursor, error) {
	var cursor model.PostCommentCursor
	if value == "" {
		return cursor, nil
	}

	invalid := &model.ValidationError{
		Code:    constant.ERR_VALIDATION_CODE,
		Message: "Invalid cursor",
		Param:   "cursor",
	}

	b, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return cursor, invalid
	}

	err = sonic.Unmarshal(b, &cursor)
	if err != nil {
		return cursor, invalid
	}

	return cursor, nil
}
