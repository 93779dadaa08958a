package setup

import (
	"context"
	"fmt"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	minioUser     = "minioadmin"
	minioPassword = "minioadmin"
)

type TestInfra struct {
	Postgres *postgres.PostgresContainer
	Redis    *redis.RedisContainer
	MinIO    testcontainers.Container

	PgURL    string
	RedisURL string
	MinioURL string
}

// StartInfra starts postgres, redis and minio. Callers terminate it with Terminate even when
// StartInfra fails halfway, the containers already started are kept on the returned value.
func StartInfra(ctx context.Context, t *testing.T) (*TestInfra, error) {
	infra := &TestInfra{}

	t.Log("Starting PostgreSQL container...")
	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("kinfeed_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		),
	)
	if err != nil {
		return infra, fmt.Errorf("failed to start postgres: %w", err)
	}
	infra.Postgres = pgContainer

	infra.PgURL, err = pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return infra, fmt.Errorf("failed to get postgres connection string: %w", err)
	}

	t.Log("Starting Redis container...")
	redisContainer, err := redis.Run(ctx,
		"redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections"),
		),
	)
	if err != nil {
		return infra, fmt.Errorf("failed to start redis: %w", err)
	}
	infra.Redis = redisContainer

	redisHost, err := redisContainer.Host(ctx)
	if err != nil {
		return infra, fmt.Errorf("failed to get redis host: %w", err)
	}

	redisPort, err := redisContainer.MappedPort(ctx, "6379")
	if err != nil {
		return infra, fmt.Errorf("failed to get redis port: %w", err)
	}
	infra.RedisURL = fmt.Sprintf("%s:%s", redisHost, redisPort.Port())

	t.Log("Starting MinIO container...")
	minioContainer, err := testcontainers.GenericContainer(ctx,
		testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image: "minio/minio:latest",
				Cmd:   []string{"server", "/data"},
				Env: map[string]string{
					"MINIO_ROOT_USER":     minioUser,
					"MINIO_ROOT_PASSWORD": minioPassword,
				},
				ExposedPorts: []string{"9000/tcp"},
				WaitingFor:   wait.ForListeningPort("9000/tcp"),
			},
			Started: true,
		},
	)
	if err != nil {
		return infra, fmt.Errorf("failed to start minio: %w", err)
	}
	infra.MinIO = minioContainer

	minioHost, err := minioContainer.Host(ctx)
	if err != nil {
		return infra, fmt.Errorf("failed to get minio host: %w", err)
	}

	minioPort, err := minioContainer.MappedPort(ctx, "9000")
	if err != nil {
		return infra, fmt.Errorf("failed to get minio port: %w", err)
	}
	infra.MinioURL = fmt.Sprintf("%s:%s", minioHost, minioPort.Port())

	t.Logf("Infrastructure ready: postgres=%s redis=%s minio=%s", infra.PgURL, infra.RedisURL, infra.MinioURL)

	return infra, nil
}

func (infra *TestInfra) Terminate(ctx context.Context, t *testing.T) error {
	t.Log("Terminating test infrastructure...")

	containers := []testcontainers.Container{}
	if infra.Postgres != nil {
		containers = append(containers, infra.Postgres)
	}
	if infra.Redis != nil {
		containers = append(containers, infra.Redis)
	}
	if infra.MinIO != nil {
		containers = append(containers, infra.MinIO)
	}

	for _, container := range containers {
		if err := container.Terminate(ctx); err != nil {
			return fmt.Errorf("failed to terminate container: %w", err)
		}
	}

	return nil
}
