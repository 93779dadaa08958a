package config

import (
	"context"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

const minioSetupTimeout = 10 * time.Second

// NewMinIO connects to the object store holding user avatars and makes sure MINIO_BUCKET_NAME exists.
func NewMinIO(config *koanf.Koanf, log *zap.Logger) *minio.Client {
	client, err := minio.New(config.String("MINIO_URL"), &minio.Options{
		Creds:  credentials.NewStaticV4(config.String("MINIO_USER"), config.String("MINIO_PASSWORD"), ""),
		Secure: config.Bool("MINIO_SECURE"),
		Region: config.String("MINIO_LOCATION"),
	})
	if err != nil {
		log.Fatal("failed to initialize minio client", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), minioSetupTimeout)
	defer cancel()

	bucketName := config.String("MINIO_BUCKET_NAME")
	created, err := ensureBucket(ctx, client, bucketName, config.String("MINIO_LOCATION"))
	if err != nil {
		log.Fatal("failed to prepare avatar bucket", zap.String("bucket", bucketName), zap.Error(err))
	}

	log.Info("avatar bucket ready", zap.String("bucket", bucketName), zap.Bool("created", created))

	return client
}

func ensureBucket(ctx context.Context, client *minio.Client, bucketName string, location string) (bool, error) {
	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return false, err
	}

	if exists {
		return false, nil
	}

	err = client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: location})
	if err != nil {
		// another replica may have created it in the meantime
		exists, existsErr := client.BucketExists(ctx, bucketName)
		if existsErr == nil && exists {
			return false, nil
		}

		return false, err
	}

	return true, nil
}
