package usecase

import (
	"errors"
	"testing"

	"github.com/ferdian3456/kinfeed/internal/constant"
	"github.com/ferdian3456/kinfeed/internal/feed"
	"github.com/ferdian3456/kinfeed/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryFromCounts(t *testing.T) {
	summary, total := summaryFromCounts(map[int16]int{
		int16(feed.ReactionLike.Code()):  3,
		int16(feed.ReactionAngry.Code()): 1,
		42:                               7,
		int16(feed.ReactionSad.Code()):   0,
	})

	assert.Equal(t, map[string]int{"like": 3, "angry": 1}, summary)
	assert.Equal(t, 4, total)
}

func TestParseReactionKind(t *testing.T) {
	kind, err := parseReactionKind("LOVE")
	require.NoError(t, err)
	assert.Equal(t, feed.ReactionLove, kind)

	_, err = parseReactionKind("meh")
	var validationErr *model.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, constant.ERR_VALIDATION_CODE, validationErr.Code)
	assert.Equal(t, "kind", validationErr.Param)
}
