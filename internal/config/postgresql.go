package config

import (
	"context"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

const (
	defaultPostgresMaxConns = 20
	defaultPostgresMinConns = 5
)

// NewPostgresqlPool opens the pool behind comments, likes and reactions. Every query is traced
// through otelpgx, so statements show up as child spans of the request.
func NewPostgresqlPool(config *koanf.Koanf, log *zap.Logger) *pgxpool.Pool {
	pgxConfig, err := pgxpool.ParseConfig(config.String("POSTGRES_URL"))
	if err != nil {
		log.Fatal("failed to parse postgresql url", zap.Error(err))
	}

	pgxConfig.MaxConns = int32(intOr(config.Int("POSTGRES_MAX_CONNS"), defaultPostgresMaxConns))
	pgxConfig.MinConns = int32(intOr(config.Int("POSTGRES_MIN_CONNS"), defaultPostgresMinConns))
	pgxConfig.MaxConnLifetime = 30 * time.Minute
	pgxConfig.MaxConnIdleTime = 5 * time.Minute
	pgxConfig.HealthCheckPeriod = time.Minute
	pgxConfig.ConnConfig.Tracer = otelpgx.NewTracer(otelpgx.WithTrimSQLInSpanName())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, pgxConfig)
	if err != nil {
		log.Fatal("failed to create pgx pool", zap.Error(err))
	}

	err = pool.Ping(ctx)
	if err != nil {
		log.Fatal("failed to ping postgresql", zap.Error(err))
	}

	log.Info("connected to postgresql", zap.Int32("maxConns", pgxConfig.MaxConns))

	return pool
}

func intOr(value int, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}
