package repository

import (
	"context"
	"net/url"

	"github.com/ferdian3456/kinfeed/internal/constant"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// presignAvatar returns nil when there is no avatar or the URL cannot be signed,
// a missing avatar never fails the request.
func presignAvatar(ctx context.Context, log *zap.Logger, client *minio.Client, bucketName string, objectKey *string) *string {
	if objectKey == nil || *objectKey == "" || client == nil {
		return nil
	}

	presigned, err := client.PresignedGetObject(ctx, bucketName, *objectKey, constant.AVATAR_URL_EXPIRY, url.Values{})
	if err != nil {
		log.Warn("failed to presign avatar url", zap.String("objectKey", *objectKey), zap.Error(err))
		return nil
	}

	avatarUrl := presigned.String()
	return &avatarUrl
}
