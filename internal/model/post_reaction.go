package model

import (
	"time"

	"github.com/google/uuid"
)

type PostReaction struct {
	Id             uuid.UUID
	PostId         uuid.UUID
	UserId         uuid.UUID
	Kind           int16
	CreateDatetime time.Time
	UpdateDatetime time.Time
}

// PostReactionRequest accepts the kind by name in any casing or by numeric code.
type PostReactionRequest struct {
	Kind string `json:"kind"`
}

type PostReactionIdResponse struct {
	Id uuid.UUID `json:"id"`
}

type PostReactionSummaryResponse struct {
	Summary        map[string]int `json:"summary"`
	Total          int            `json:"total"`
	UserReaction   *string        `json:"userReaction"`
	UserReactionId *uuid.UUID     `json:"userReactionId"`
}
