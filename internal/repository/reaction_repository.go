package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ferdian3456/kinfeed/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var ErrReactionExists = errors.New("user already reacted to this post")

const uniqueViolationCode = "23505"

type ReactionRepository struct {
	Log *zap.Logger
	DB  *pgxpool.Pool
}

func NewReactionRepository(zap *zap.Logger, db *pgxpool.Pool) *ReactionRepository {
	return &ReactionRepository{
		Log: zap,
		DB:  db,
	}
}

// GetUserReaction returns nil when the user has not reacted to the post.
func (repository *ReactionRepository) GetUserReaction(ctx context.Context, postId uuid.UUID, userId uuid.UUID) (*model.PostReaction, error) {
	query := `SELECT id, post_id, user_id, kind, create_datetime, update_datetime
			FROM post_reactions
			WHERE post_id = $1 AND user_id = $2`

	reaction := model.PostReaction{}
	err := repository.DB.QueryRow(ctx, query, postId, userId).Scan(&reaction.Id, &reaction.PostId, &reaction.UserId, &reaction.Kind, &reaction.CreateDatetime, &reaction.UpdateDatetime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return &reaction, nil
}

func (repository *ReactionRepository) CheckReactionOwnership(ctx context.Context, reactionId uuid.UUID, postId uuid.UUID, userId uuid.UUID) (int, error) {
	query := "SELECT 1 FROM post_reactions WHERE id = $1 AND post_id = $2 AND user_id = $3"

	var exists int
	err := repository.DB.QueryRow(ctx, query, reactionId, postId, userId).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return exists, nil
		}

		return exists, err
	}

	return exists, nil
}

func (repository *ReactionRepository) CreateReaction(ctx context.Context, reaction model.PostReaction) error {
	query := `INSERT INTO post_reactions (id, post_id, user_id, kind, create_datetime, update_datetime)
			VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := repository.DB.Exec(ctx, query, reaction.Id, reaction.PostId, reaction.UserId, reaction.Kind, reaction.CreateDatetime, reaction.UpdateDatetime)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ErrReactionExists
		}
		return err
	}

	return nil
}

// UpdateReactionKind returns false when the reaction no longer exists.
func (repository *ReactionRepository) UpdateReactionKind(ctx context.Context, reactionId uuid.UUID, kind int16, updateDatetime time.Time) (bool, error) {
	query := "UPDATE post_reactions SET kind = $1, update_datetime = $2 WHERE id = $3"

	tag, err := repository.DB.Exec(ctx, query, kind, updateDatetime, reactionId)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

func (repository *ReactionRepository) DeleteReaction(ctx context.Context, reactionId uuid.UUID) (bool, error) {
	query := "DELETE FROM post_reactions WHERE id = $1"

	tag, err := repository.DB.Exec(ctx, query, reactionId)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

// GetReactionCounts returns the number of reactions per kind code, kinds with no reactions are absent.
func (repository *ReactionRepository) GetReactionCounts(ctx context.Context, postId uuid.UUID) (map[int16]int, error) {
	query := "SELECT kind, COUNT(*) FROM post_reactions WHERE post_id = $1 GROUP BY kind"

	rows, err := repository.DB.Query(ctx, query, postId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[int16]int{}
	for rows.Next() {
		var kind int16
		var count int
		err := rows.Scan(&kind, &count)
		if err != nil {
			return nil, err
		}
		counts[kind] = count
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}
