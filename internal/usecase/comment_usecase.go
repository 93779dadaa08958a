package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/ferdian3456/kinfeed/internal/constant"
	"github.com/ferdian3456/kinfeed/internal/model"
	"github.com/ferdian3456/kinfeed/internal/repository"
	"github.com/ferdian3456/kinfeed/internal/util"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

type CommentUsecase struct {
	PostRepository    *repository.PostRepository
	CommentRepository *repository.CommentRepository
	EventRepository   *repository.EventRepository
	DB                *pgxpool.Pool
	Log               *zap.Logger
	Config            *koanf.Koanf
}

func NewCommentUsecase(postRepository *repository.PostRepository, commentRepository *repository.CommentRepository, eventRepository *repository.EventRepository, db *pgxpool.Pool, zap *zap.Logger, koanf *koanf.Koanf) *CommentUsecase {
	return &CommentUsecase{
		PostRepository:    postRepository,
		CommentRepository: commentRepository,
		EventRepository:   eventRepository,
		DB:                db,
		Log:               zap,
		Config:            koanf,
	}
}

func (usecase *CommentUsecase) maxDepth() int {
	depth := usecase.Config.Int("FEED_MAX_REPLY_DEPTH")
	if depth <= 0 {
		return constant.MAX_COMMENT_DEPTH
	}
	return depth
}

func (usecase *CommentUsecase) checkPost(ctx context.Context, postIdParam string) (uuid.UUID, error) {
	postId, err := parseIdParam(postIdParam, "postId", "post")
	if err != nil {
		return uuid.Nil, err
	}

	exists, err := usecase.PostRepository.CheckPostExists(ctx, postId)
	if err != nil {
		return uuid.Nil, err
	}

	if exists != 1 {
		return uuid.Nil, postNotFound()
	}

	return postId, nil
}

func (usecase *CommentUsecase) checkComment(ctx context.Context, postId uuid.UUID, commentIdParam string) (uuid.UUID, error) {
	commentId, err := parseIdParam(commentIdParam, "commentId", "comment")
	if err != nil {
		return uuid.Nil, err
	}

	exists, err := usecase.CommentRepository.CheckCommentExists(ctx, commentId, postId)
	if err != nil {
		return uuid.Nil, err
	}

	if exists != 1 {
		return uuid.Nil, &model.ValidationError{
			Code:    constant.ERR_NOT_FOUND_ERROR,
			Message: "Comment not found",
			Param:   "commentId",
		}
	}

	return commentId, nil
}

func (usecase *CommentUsecase) publish(ctx context.Context, event model.FeedEvent) {
	err := usecase.EventRepository.Publish(ctx, event)
	if err != nil {
		usecase.Log.Warn("failed to publish feed event", zap.String("type", event.Type), zap.String("postId", event.PostId), zap.Error(err))
	}
}

// publishCommentChange reloads a comment after its content or like count changed and pushes it
// as comment.edited, which carries both.
func (usecase *CommentUsecase) publishCommentChange(ctx context.Context, postId uuid.UUID, commentId uuid.UUID) {
	comment, err := usecase.CommentRepository.GetComment(ctx, commentId, usecase.Config.String("MINIO_BUCKET_NAME"))
	if err != nil {
		usecase.Log.Warn("failed to load changed comment for event", zap.String("commentId", commentId.String()), zap.Error(err))
		return
	}

	usecase.publish(ctx, model.FeedEvent{
		Type:      model.EventCommentEdited,
		PostId:    postId.String(),
		CommentId: commentId.String(),
		Comment:   &comment,
	})
}

func (usecase *CommentUsecase) GetComments(ctx context.Context, postIdParam string, limit int, cursor string) (model.PostCommentListResponse, error) {
	response := model.PostCommentListResponse{}

	err := validateLimit(limit)
	if err != nil {
		return response, err
	}

	commentCursor, err := util.DecodeCommentCursor(cursor)
	if err != nil {
		return response, err
	}

	postId, err := usecase.checkPost(ctx, postIdParam)
	if err != nil {
		return response, err
	}

	bucketName := usecase.Config.String("MINIO_BUCKET_NAME")

	roots, err := usecase.CommentRepository.GetRootComments(ctx, limit+1, postId, &commentCursor, bucketName)
	if err != nil {
		return response, err
	}

	if len(roots) > limit {
		roots = roots[:limit]

		last := roots[limit-1]
		response.Page.NextCursor, err = util.EncodeCommentCursor(model.PostCommentCursor{
			Id:             last.Id,
			CreateDatetime: last.CreateDatetime,
		})
		if err != nil {
			return response, err
		}
	}

	rootIds := make([]uuid.UUID, 0, len(roots))
	for _, root := range roots {
		rootIds = append(rootIds, root.Id)
	}

	replies, err := usecase.CommentRepository.GetReplies(ctx, postId, rootIds, bucketName)
	if err != nil {
		return response, err
	}

	response.TotalComments, err = usecase.CommentRepository.CountComments(ctx, postId)
	if err != nil {
		return response, err
	}

	response.Data = buildCommentTree(roots, replies)

	return response, nil
}

func (usecase *CommentUsecase) CreateComment(ctx context.Context, postIdParam string, userId uuid.UUID, payload model.PostCommentCreateRequest) (model.PostCommentResponse, error) {
	response := model.PostCommentResponse{}

	content, err := validateCommentContent(payload.Content)
	if err != nil {
		return response, err
	}

	postId, err := usecase.checkPost(ctx, postIdParam)
	if err != nil {
		return response, err
	}

	var parentId *uuid.UUID
	if payload.ParentId != nil && *payload.ParentId != "" {
		id, err := parseIdParam(*payload.ParentId, "parentId", "parent comment")
		if err != nil {
			return response, err
		}

		exists, err := usecase.CommentRepository.CheckCommentExists(ctx, id, postId)
		if err != nil {
			return response, err
		}

		if exists != 1 {
			return response, &model.ValidationError{
				Code:    constant.ERR_NOT_FOUND_ERROR,
				Message: "Parent comment not found",
				Param:   "parentId",
			}
		}

		depth, err := usecase.CommentRepository.GetCommentDepth(ctx, id, postId)
		if err != nil {
			return response, err
		}

		if depth+1 > usecase.maxDepth() {
			return response, &model.ValidationError{
				Code:    constant.ERR_VALIDATION_CODE,
				Message: fmt.Sprintf("Replies are limited to %d levels", usecase.maxDepth()),
				Param:   "parentId",
			}
		}

		parentId = &id
	}

	now := time.Now().UTC()

	comment := model.PostComment{
		Id:             uuid.New(),
		PostId:         postId,
		AuthorId:       userId,
		ParentId:       parentId,
		Content:        content,
		CreateDatetime: now,
		UpdateDatetime: now,
		CreateUserId:   userId,
		UpdateUserId:   userId,
	}

	commited := false

	tx, err := usecase.DB.Begin(ctx)
	if err != nil {
		return response, err
	}

	defer func() {
		if !commited {
			_ = tx.Rollback(ctx)
		}
	}()

	err = usecase.CommentRepository.CreateComment(ctx, tx, comment)
	if err != nil {
		return response, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		return response, err
	}

	commited = true

	response, err = usecase.CommentRepository.GetComment(ctx, comment.Id, usecase.Config.String("MINIO_BUCKET_NAME"))
	if err != nil {
		return response, err
	}

	usecase.publish(ctx, model.FeedEvent{
		Type:      model.EventCommentCreated,
		PostId:    postId.String(),
		CommentId: response.Id.String(),
		Comment:   &response,
	})

	return response, nil
}

func (usecase *CommentUsecase) UpdateComment(ctx context.Context, postIdParam string, commentIdParam string, userId uuid.UUID, payload model.PostCommentUpdateRequest) (model.PostCommentEditResponse, error) {
	response := model.PostCommentEditResponse{}

	content, err := validateCommentContent(payload.Content)
	if err != nil {
		return response, err
	}

	postId, err := usecase.checkPost(ctx, postIdParam)
	if err != nil {
		return response, err
	}

	commentId, err := usecase.checkComment(ctx, postId, commentIdParam)
	if err != nil {
		return response, err
	}

	ownerExists, err := usecase.CommentRepository.CheckCommentOwnership(ctx, commentId, userId)
	if err != nil {
		return response, err
	}

	if ownerExists != 1 {
		return response, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "You are not the author of this comment",
			Param:   "commentId",
		}
	}

	now := time.Now().UTC()

	err = usecase.CommentRepository.UpdateCommentContent(ctx, commentId, content, userId, now)
	if err != nil {
		return response, err
	}

	response.EditedAt = now
	usecase.publishCommentChange(ctx, postId, commentId)

	return response, nil
}

func (usecase *CommentUsecase) DeleteComment(ctx context.Context, postIdParam string, commentIdParam string, userId uuid.UUID) error {
	postId, err := usecase.checkPost(ctx, postIdParam)
	if err != nil {
		return err
	}

	commentId, err := usecase.checkComment(ctx, postId, commentIdParam)
	if err != nil {
		return err
	}

	ownerExists, err := usecase.CommentRepository.CheckCommentOwnership(ctx, commentId, userId)
	if err != nil {
		return err
	}

	if ownerExists != 1 {
		return &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "You are not the author of this comment",
			Param:   "commentId",
		}
	}

	err = usecase.CommentRepository.DeleteComment(ctx, commentId)
	if err != nil {
		return err
	}

	usecase.publish(ctx, model.FeedEvent{
		Type:      model.EventCommentDeleted,
		PostId:    postId.String(),
		CommentId: commentId.String(),
	})

	return nil
}

func (usecase *CommentUsecase) LikeComment(ctx context.Context, postIdParam string, commentIdParam string, userId uuid.UUID) error {
	postId, err := usecase.checkPost(ctx, postIdParam)
	if err != nil {
		return err
	}

	commentId, err := usecase.checkComment(ctx, postId, commentIdParam)
	if err != nil {
		return err
	}

	likeExists, err := usecase.CommentRepository.CheckCommentLike(ctx, commentId, userId)
	if err != nil {
		return err
	}

	if likeExists == 1 {
		return &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "You already liked this comment",
			Param:   "commentId",
		}
	}

	now := time.Now().UTC()

	err = usecase.CommentRepository.CreateCommentLike(ctx, model.PostCommentLike{
		CommentId:      commentId,
		UserId:         userId,
		CreateDatetime: now,
		UpdateDatetime: now,
		CreateUserId:   userId,
		UpdateUserId:   userId,
	})
	if err != nil {
		return err
	}

	usecase.publishCommentChange(ctx, postId, commentId)

	return nil
}

func (usecase *CommentUsecase) UnlikeComment(ctx context.Context, postIdParam string, commentIdParam string, userId uuid.UUID) error {
	postId, err := usecase.checkPost(ctx, postIdParam)
	if err != nil {
		return err
	}

	commentId, err := usecase.checkComment(ctx, postId, commentIdParam)
	if err != nil {
		return err
	}

	likeExists, err := usecase.CommentRepository.CheckCommentLike(ctx, commentId, userId)
	if err != nil {
		return err
	}

	if likeExists != 1 {
		return &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "You haven't liked this comment yet",
			Param:   "commentId",
		}
	}

	err = usecase.CommentRepository.DeleteCommentLike(ctx, commentId, userId)
	if err != nil {
		return err
	}

	usecase.publishCommentChange(ctx, postId, commentId)

	return nil
}

// buildCommentTree nests replies under their parents. Replies must be ordered by creation so
// siblings keep that order, and a reply whose parent is not among roots or replies is dropped.
func buildCommentTree(roots []model.PostCommentResponse, replies []model.PostCommentResponse) []model.PostCommentResponse {
	children := map[uuid.UUID][]model.PostCommentResponse{}
	for _, reply := range replies {
		if reply.ParentId == nil {
			continue
		}
		children[*reply.ParentId] = append(children[*reply.ParentId], reply)
	}

	var attach func(comment model.PostCommentResponse) model.PostCommentResponse
	attach = func(comment model.PostCommentResponse) model.PostCommentResponse {
		kids := children[comment.Id]
		comment.Replies = make([]model.PostCommentResponse, 0, len(kids))
		for _, kid := range kids {
			comment.Replies = append(comment.Replies, attach(kid))
		}
		return comment
	}

	tree := make([]model.PostCommentResponse, 0, len(roots))
	for _, root := range roots {
		tree = append(tree, attach(root))
	}

	return tree
}
