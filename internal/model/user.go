package model

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type CommentAuthorResponse struct {
	Id        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Fullname  string    `json:"fullname"`
	AvatarUrl *string   `json:"avatarUrl"`
}

type UserResponse struct {
	Id             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	Fullname       string    `json:"fullname"`
	AvatarUrl      *string   `json:"avatarUrl"`
	CreateDatetime time.Time `json:"createDatetime"`
	UpdateDatetime time.Time `json:"updateDatetime"`
}

// Claims is the payload of an access token. The subject of every request is UserId.
type Claims struct {
	UserId uuid.UUID `json:"userId"`
	jwt.RegisteredClaims
}
