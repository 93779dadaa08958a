package setup

import (
	"context"
	"testing"

	"github.com/ferdian3456/kinfeed/internal/config"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/knadh/koanf/v2"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	JWTSecretKey = "test-secret-key-for-jwt-token-generation"
	BucketName   = "kinfeed-test"
)

type TestApp struct {
	App     *fiber.App
	DB      *pgxpool.Pool
	DBCache *redis.Client
	MinIO   *minio.Client
	Config  *koanf.Koanf
}

// SetupTestApp wires the application the same way cmd/main.go does, against the test containers.
func SetupTestApp(t *testing.T, infra *TestInfra) *TestApp {
	t.Helper()

	ctx := context.Background()

	testConfig := koanf.New(".")
	require.NoError(t, testConfig.Set("JWT_SECRET_KEY", JWTSecretKey))
	require.NoError(t, testConfig.Set("MINIO_BUCKET_NAME", BucketName))
	require.NoError(t, testConfig.Set("FEED_MAX_REPLY_DEPTH", 2))
	require.NoError(t, testConfig.Set("WRITE_RATE_LIMIT", 1000))

	dbPool, err := pgxpool.New(ctx, infra.PgURL)
	require.NoError(t, err, "failed to connect to test db")
	t.Cleanup(dbPool.Close)

	redisClient := redis.NewClient(&redis.Options{Addr: infra.RedisURL})
	require.NoError(t, redisClient.Ping(ctx).Err(), "failed to connect to test redis")
	t.Cleanup(func() { _ = redisClient.Close() })

	minioClient, err := minio.New(infra.MinioURL, &minio.Options{
		Creds:  credentials.NewStaticV4(minioUser, minioPassword, ""),
		Secure: false,
	})
	require.NoError(t, err, "failed to create minio client")

	exists, err := minioClient.BucketExists(ctx, BucketName)
	require.NoError(t, err, "failed to check minio bucket")
	if !exists {
		require.NoError(t, minioClient.MakeBucket(ctx, BucketName, minio.MakeBucketOptions{}))
	}

	log := zaptest.NewLogger(t)
	app := config.NewFiber(testConfig, log)

	config.Server(&config.ServerConfig{
		Router:  app,
		DB:      dbPool,
		DBCache: redisClient,
		Log:     log,
		Config:  testConfig,
		MinIO:   minioClient,
	})

	return &TestApp{
		App:     app,
		DB:      dbPool,
		DBCache: redisClient,
		MinIO:   minioClient,
		Config:  testConfig,
	}
}

// StartTestEnv starts the containers, migrates and wires the app. Everything is torn down
// through t.Cleanup.
func StartTestEnv(t *testing.T) *TestApp {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	infra, err := StartInfra(ctx, t)
	t.Cleanup(func() { _ = infra.Terminate(context.Background(), t) })
	require.NoError(t, err, "infrastructure should start successfully")

	require.NoError(t, RunMigration(infra.PgURL, t), "migrations should apply")

	return SetupTestApp(t, infra)
}
