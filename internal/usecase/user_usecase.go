package usecase

import (
	"context"
	"time"

	"github.com/ferdian3456/kinfeed/internal/constant"
	"github.com/ferdian3456/kinfeed/internal/model"
	"github.com/ferdian3456/kinfeed/internal/repository"
	"github.com/ferdian3456/kinfeed/internal/util"
	"github.com/google/uuid"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

type UserUsecase struct {
	UserRepository *repository.UserRepository
	Log            *zap.Logger
	Config         *koanf.Koanf
}

func NewUserUsecase(userRepository *repository.UserRepository, zap *zap.Logger, koanf *koanf.Koanf) *UserUsecase {
	return &UserUsecase{
		UserRepository: userRepository,
		Log:            zap,
		Config:         koanf,
	}
}

func (usecase *UserUsecase) GetUserInfo(ctx context.Context, userId uuid.UUID) (model.UserResponse, error) {
	user, err := usecase.UserRepository.GetUserInfo(ctx, userId, usecase.Config.String("MINIO_BUCKET_NAME"))
	if err != nil {
		return user, err
	}

	return user, nil
}

// Authenticate resolves the Authorization header to the acting user. Tokens revoked by Logout
// are rejected until they would have expired anyway.
func (usecase *UserUsecase) Authenticate(ctx context.Context, authorization string) (uuid.UUID, string, error) {
	tokenString, userId, err := util.ValidateAccessToken(authorization, usecase.Log, usecase.Config.String("JWT_SECRET_KEY"))
	if err != nil {
		return uuid.Nil, "", err
	}

	revoked, err := usecase.UserRepository.IsAccessTokenRevoked(ctx, util.HashToken(tokenString))
	if err != nil {
		return uuid.Nil, "", err
	}

	if revoked {
		return uuid.Nil, "", model.NewValidationError(constant.ERR_UNATHORIZED_ERROR, "Authentication token has been revoked", "accessToken")
	}

	return userId, tokenString, nil
}

func (usecase *UserUsecase) Logout(ctx context.Context, tokenString string) error {
	expiresAt, err := util.TokenExpiresAt(tokenString)
	if err != nil {
		return err
	}

	err = usecase.UserRepository.RevokeAccessToken(ctx, util.HashToken(tokenString), time.Until(expiresAt))
	if err != nil {
		return err
	}

	usecase.Log.Debug("access token revoked", zap.Time("expiresAt", expiresAt))

	return nil
}
