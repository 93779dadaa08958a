package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ferdian3456/kinfeed/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

type CommentRepository struct {
	Log      *zap.Logger
	DB       *pgxpool.Pool
	DBObject *minio.Client
}

func NewCommentRepository(zap *zap.Logger, db *pgxpool.Pool, minio *minio.Client) *CommentRepository {
	return &CommentRepository{
		Log:      zap,
		DB:       db,
		DBObject: minio,
	}
}

const commentColumns = `c.id, c.post_id, c.parent_id, c.content, c.edited, c.create_datetime, c.update_datetime,
	u.id, u.username, u.fullname, u.avatar_object_key,
	(SELECT COUNT(*) FROM post_comment_likes l WHERE l.comment_id = c.id)`

func (repository *CommentRepository) scanComments(ctx context.Context, rows pgx.Rows, bucketName string) ([]model.PostCommentResponse, error) {
	defer rows.Close()

	comments := []model.PostCommentResponse{}
	for rows.Next() {
		var comment model.PostCommentResponse
		var avatarObjectKey *string
		err := rows.Scan(&comment.Id, &comment.PostId, &comment.ParentId, &comment.Content, &comment.Edited, &comment.CreateDatetime, &comment.UpdateDatetime,
			&comment.Author.Id, &comment.Author.Username, &comment.Author.Fullname, &avatarObjectKey, &comment.ReactionCount)
		if err != nil {
			return nil, err
		}

		comment.Author.AvatarUrl = presignAvatar(ctx, repository.Log, repository.DBObject, bucketName, avatarObjectKey)
		comment.Replies = []model.PostCommentResponse{}
		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return comments, nil
}

func (repository *CommentRepository) CheckCommentExists(ctx context.Context, commentId uuid.UUID, postId uuid.UUID) (int, error) {
	query := "SELECT 1 FROM post_comments WHERE id = $1 AND post_id = $2"

	var exists int
	err := repository.DB.QueryRow(ctx, query, commentId, postId).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return exists, nil
		}

		return exists, err
	}

	return exists, nil
}

// GetCommentDepth returns 0 for a root comment and counts one per ancestor above it.
func (repository *CommentRepository) GetCommentDepth(ctx context.Context, commentId uuid.UUID, postId uuid.UUID) (int, error) {
	query := `WITH RECURSIVE ancestors AS (
				SELECT id, parent_id, 0 AS depth FROM post_comments WHERE id = $1 AND post_id = $2
				UNION ALL
				SELECT c.id, c.parent_id, a.depth + 1 FROM post_comments c JOIN ancestors a ON c.id = a.parent_id
			)
			SELECT COALESCE(MAX(depth), 0) FROM ancestors`

	var depth int
	err := repository.DB.QueryRow(ctx, query, commentId, postId).Scan(&depth)
	if err != nil {
		return 0, err
	}

	return depth, nil
}

func (repository *CommentRepository) CreateComment(ctx context.Context, tx pgx.Tx, comment model.PostComment) error {
	query := `INSERT INTO post_comments (id, post_id, author_id, parent_id, content, edited, create_datetime, update_datetime, create_user_id, update_user_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := tx.Exec(ctx, query, comment.Id, comment.PostId, comment.AuthorId, comment.ParentId, comment.Content, comment.Edited, comment.CreateDatetime, comment.UpdateDatetime, comment.CreateUserId, comment.UpdateUserId)
	if err != nil {
		return err
	}

	return nil
}

func (repository *CommentRepository) GetComment(ctx context.Context, commentId uuid.UUID, bucketName string) (model.PostCommentResponse, error) {
	query := `SELECT ` + commentColumns + `
			FROM post_comments c
			JOIN users u ON u.id = c.author_id
			WHERE c.id = $1`

	rows, err := repository.DB.Query(ctx, query, commentId)
	if err != nil {
		return model.PostCommentResponse{}, err
	}

	comments, err := repository.scanComments(ctx, rows, bucketName)
	if err != nil {
		return model.PostCommentResponse{}, err
	}

	if len(comments) == 0 {
		return model.PostCommentResponse{}, pgx.ErrNoRows
	}

	return comments[0], nil
}

// GetRootComments pages root comments oldest first, so new roots land at the end of the thread.
func (repository *CommentRepository) GetRootComments(ctx context.Context, limit int, postId uuid.UUID, cursor *model.PostCommentCursor, bucketName string) ([]model.PostCommentResponse, error) {
	var rows pgx.Rows
	var err error

	if cursor.Id != uuid.Nil && !cursor.CreateDatetime.IsZero() {
		queryWithCursor := `SELECT ` + commentColumns + `
			FROM post_comments c
			JOIN users u ON u.id = c.author_id
			WHERE c.post_id = $1 AND c.parent_id IS NULL
			AND (c.create_datetime > $2 OR (c.create_datetime = $2 AND c.id > $3))
			ORDER BY c.create_datetime ASC, c.id ASC
			LIMIT $4`
		rows, err = repository.DB.Query(ctx, queryWithCursor, postId, cursor.CreateDatetime, cursor.Id, limit)
	} else {
		query := `SELECT ` + commentColumns + `
			FROM post_comments c
			JOIN users u ON u.id = c.author_id
			WHERE c.post_id = $1 AND c.parent_id IS NULL
			ORDER BY c.create_datetime ASC, c.id ASC
			LIMIT $2`
		rows, err = repository.DB.Query(ctx, query, postId, limit)
	}

	if err != nil {
		return nil, err
	}

	return repository.scanComments(ctx, rows, bucketName)
}

// GetReplies returns every descendant of the given roots as a flat list ordered by creation.
func (repository *CommentRepository) GetReplies(ctx context.Context, postId uuid.UUID, rootIds []uuid.UUID, bucketName string) ([]model.PostCommentResponse, error) {
	if len(rootIds) == 0 {
		return []model.PostCommentResponse{}, nil
	}

	query := `WITH RECURSIVE thread AS (
				SELECT id FROM post_comments WHERE post_id = $1 AND parent_id = ANY($2)
				UNION ALL
				SELECT c.id FROM post_comments c JOIN thread t ON c.parent_id = t.id
			)
			SELECT ` + commentColumns + `
			FROM post_comments c
			JOIN thread t ON t.id = c.id
			JOIN users u ON u.id = c.author_id
			ORDER BY c.create_datetime ASC, c.id ASC`

	rows, err := repository.DB.Query(ctx, query, postId, rootIds)
	if err != nil {
		return nil, err
	}

	return repository.scanComments(ctx, rows, bucketName)
}

func (repository *CommentRepository) CountComments(ctx context.Context, postId uuid.UUID) (int, error) {
	query := "SELECT COUNT(*) FROM post_comments WHERE post_id = $1"

	var total int
	err := repository.DB.QueryRow(ctx, query, postId).Scan(&total)
	if err != nil {
		return 0, err
	}

	return total, nil
}

func (repository *CommentRepository) CheckCommentOwnership(ctx context.Context, commentId uuid.UUID, userId uuid.UUID) (int, error) {
	query := "SELECT 1 FROM post_comments WHERE id = $1 AND author_id = $2"

	var exists int
	err := repository.DB.QueryRow(ctx, query, commentId, userId).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return exists, nil
		}

		return exists, err
	}

	return exists, nil
}

func (repository *CommentRepository) UpdateCommentContent(ctx context.Context, commentId uuid.UUID, content string, updateUserId uuid.UUID, updateDatetime time.Time) error {
	query := "UPDATE post_comments SET content = $1, edited = TRUE, update_user_id = $2, update_datetime = $3 WHERE id = $4"

	_, err := repository.DB.Exec(ctx, query, content, updateUserId, updateDatetime, commentId)
	if err != nil {
		return err
	}

	return nil
}

// DeleteComment relies on the parent_id cascade to remove the whole subtree.
func (repository *CommentRepository) DeleteComment(ctx context.Context, commentId uuid.UUID) error {
	query := "DELETE FROM post_comments WHERE id = $1"

	_, err := repository.DB.Exec(ctx, query, commentId)
	if err != nil {
		return err
	}

	return nil
}

func (repository *CommentRepository) CheckCommentLike(ctx context.Context, commentId uuid.UUID, userId uuid.UUID) (int, error) {
	query := "SELECT 1 FROM post_comment_likes WHERE comment_id = $1 AND user_id = $2"

	var exists int
	err := repository.DB.QueryRow(ctx, query, commentId, userId).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return exists, nil
		}

		return exists, err
	}

	return exists, nil
}

func (repository *CommentRepository) CreateCommentLike(ctx context.Context, like model.PostCommentLike) error {
	query := `INSERT INTO post_comment_likes (comment_id, user_id, create_datetime, update_datetime, create_user_id, update_user_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (comment_id, user_id) DO NOTHING`

	_, err := repository.DB.Exec(ctx, query, like.CommentId, like.UserId, like.CreateDatetime, like.UpdateDatetime, like.CreateUserId, like.UpdateUserId)
	if err != nil {
		return err
	}

	return nil
}

func (repository *CommentRepository) DeleteCommentLike(ctx context.Context, commentId uuid.UUID, userId uuid.UUID) error {
	query := "DELETE FROM post_comment_likes WHERE comment_id = $1 AND user_id = $2"

	_, err := repository.DB.Exec(ctx, query, commentId, userId)
	if err != nil {
		return err
	}

	return nil
}
