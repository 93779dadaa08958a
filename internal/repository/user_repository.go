package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ferdian3456/kinfeed/internal/constant"
	"github.com/ferdian3456/kinfeed/internal/model"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type UserRepository struct {
	Log      *zap.Logger
	DB       *pgxpool.Pool
	DBCache  *redis.Client
	DBObject *minio.Client
}

func NewUserRepository(zap *zap.Logger, db *pgxpool.Pool, dbCache *redis.Client, minio *minio.Client) *UserRepository {
	return &UserRepository{
		Log:      zap,
		DB:       db,
		DBCache:  dbCache,
		DBObject: minio,
	}
}

// Postgresql
func (repository *UserRepository) GetUserInfo(ctx context.Context, id uuid.UUID, bucketName string) (model.UserResponse, error) {
	query := `SELECT id, username, fullname, avatar_object_key, create_datetime, update_datetime
			FROM users
			WHERE id = $1
			LIMIT 1`

	user := model.UserResponse{}
	var avatarObjectKey *string
	err := repository.DB.QueryRow(ctx, query, id).Scan(&user.Id, &user.Username, &user.Fullname, &avatarObjectKey, &user.CreateDatetime, &user.UpdateDatetime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user, &model.ValidationError{
				Code:    constant.ERR_NOT_FOUND_ERROR,
				Message: "User not found",
				Param:   "userId",
			}
		}
		return user, err
	}

	user.AvatarUrl = presignAvatar(ctx, repository.Log, repository.DBObject, bucketName, avatarObjectKey)

	return user, nil
}

// Redis - Cache
func revokedTokenKey(tokenHash string) string {
	return fmt.Sprintf("auth:revokedAccessToken:%s", tokenHash)
}

func (repository *UserRepository) RevokeAccessToken(ctx context.Context, tokenHash string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	err := repository.DBCache.Set(ctx, revokedTokenKey(tokenHash), 1, ttl).Err()
	if err != nil {
		return err
	}

	return nil
}

func (repository *UserRepository) IsAccessTokenRevoked(ctx context.Context, tokenHash string) (bool, error) {
	count, err := repository.DBCache.Exists(ctx, revokedTokenKey(tokenHash)).Result()
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
