package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type PostRepository struct {
	Log *zap.Logger
	DB  *pgxpool.Pool
}

func NewPostRepository(zap *zap.Logger, db *pgxpool.Pool) *PostRepository {
	return &PostRepository{
		Log: zap,
		DB:  db,
	}
}

func (repository *PostRepository) CheckPostExists(ctx context.Context, postId uuid.UUID) (int, error) {
	query := "SELECT 1 FROM posts WHERE id = $1"

	var exists int
	err := repository.DB.QueryRow(ctx, query, postId).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return exists, nil
		}

		return exists, err
	}

	return exists, nil
}
