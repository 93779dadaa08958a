package model

import (
	"time"

	"github.com/google/uuid"
)

type PostComment struct {
	Id             uuid.UUID
	PostId         uuid.UUID
	AuthorId       uuid.UUID
	ParentId       *uuid.UUID
	Content        string
	Edited         bool
	CreateDatetime time.Time
	UpdateDatetime time.Time
	CreateUserId   uuid.UUID
	UpdateUserId   uuid.UUID
}

type PostCommentLike struct {
	CommentId      uuid.UUID
	UserId         uuid.UUID
	CreateDatetime time.Time
	UpdateDatetime time.Time
	CreateUserId   uuid.UUID
	UpdateUserId   uuid.UUID
}

type PostCommentCreateRequest struct {
	Content  string  `json:"content"`
	ParentId *string `json:"parentId"`
}

type PostCommentUpdateRequest struct {
	Content string `json:"content"`
}

type PostCommentResponse struct {
	Id             uuid.UUID             `json:"id"`
	PostId         uuid.UUID             `json:"postId"`
	ParentId       *uuid.UUID            `json:"parentId"`
	Author         CommentAuthorResponse `json:"author"`
	Content        string                `json:"content"`
	Edited         bool                  `json:"edited"`
	ReactionCount  int                   `json:"reactionCount"`
	CreateDatetime time.Time             `json:"createDatetime"`
	UpdateDatetime time.Time             `json:"updateDatetime"`
	Replies        []PostCommentResponse `json:"replies"`
}

type PostCommentEditResponse struct {
	EditedAt time.Time `json:"editedAt"`
}

type PostCommentCursor struct {
	Id             uuid.UUID `json:"id"`
	CreateDatetime time.Time `json:"createDatetime"`
}

type PageResponse struct {
	NextCursor string `json:"nextCursor"`
}

type PostCommentListResponse struct {
	Data          []PostCommentResponse `json:"data"`
	TotalComments int                   `json:"totalComments"`
	Page          PageResponse          `json:"page"`
}
