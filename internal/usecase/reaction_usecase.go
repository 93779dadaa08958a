package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/ferdian3456/kinfeed/internal/constant"
	"github.com/ferdian3456/kinfeed/internal/feed"
	"github.com/ferdian3456/kinfeed/internal/model"
	"github.com/ferdian3456/kinfeed/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReactionUsecase struct {
	PostRepository     *repository.PostRepository
	ReactionRepository *repository.ReactionRepository
	ReactionCache      *repository.ReactionCache
	EventRepository    *repository.EventRepository
	Log                *zap.Logger
}

func NewReactionUsecase(postRepository *repository.PostRepository, reactionRepository *repository.ReactionRepository, reactionCache *repository.ReactionCache, eventRepository *repository.EventRepository, zap *zap.Logger) *ReactionUsecase {
	return &ReactionUsecase{
		PostRepository:     postRepository,
		ReactionRepository: reactionRepository,
		ReactionCache:      reactionCache,
		EventRepository:    eventRepository,
		Log:                zap,
	}
}

func reactionConflict(message string) error {
	return &model.ValidationError{
		Code:    constant.ERR_REACTION_CONFLICT,
		Message: message,
		Param:   "reactionId",
	}
}

func parseReactionKind(value string) (feed.ReactionKind, error) {
	kind, err := feed.ParseReactionKind(value)
	if err != nil {
		return 0, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Unknown reaction kind",
			Param:   "kind",
		}
	}

	return kind, nil
}

// summaryFromCounts converts per-code counts into wire keys and drops codes that are not a known kind.
func summaryFromCounts(counts map[int16]int) (map[string]int, int) {
	summary := map[string]int{}
	total := 0
	for code, count := range counts {
		kind, err := feed.ReactionKindFromCode(int(code))
		if err != nil || count <= 0 {
			continue
		}
		summary[kind.Key()] = count
		total += count
	}

	return summary, total
}

func (usecase *ReactionUsecase) checkPost(ctx context.Context, postIdParam string) (uuid.UUID, error) {
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

func (usecase *ReactionUsecase) checkOwnedReaction(ctx context.Context, postId uuid.UUID, reactionIdParam string, userId uuid.UUID) (uuid.UUID, error) {
	reactionId, err := parseIdParam(reactionIdParam, "reactionId", "reaction")
	if err != nil {
		return uuid.Nil, err
	}

	exists, err := usecase.ReactionRepository.CheckReactionOwnership(ctx, reactionId, postId, userId)
	if err != nil {
		return uuid.Nil, err
	}

	if exists != 1 {
		return uuid.Nil, reactionConflict("Reaction no longer exists")
	}

	return reactionId, nil
}

func (usecase *ReactionUsecase) countSummary(postId uuid.UUID) repository.SummaryLoader {
	return func(ctx context.Context) (map[string]int, int, error) {
		counts, err := usecase.ReactionRepository.GetReactionCounts(ctx, postId)
		if err != nil {
			return nil, 0, err
		}

		summary, total := summaryFromCounts(counts)
		return summary, total, nil
	}
}

func (usecase *ReactionUsecase) summary(ctx context.Context, postId uuid.UUID) (map[string]int, int, error) {
	summary, total, found, err := usecase.ReactionCache.GetSummary(ctx, postId)
	if err != nil {
		usecase.Log.Warn("failed to read reaction summary cache", zap.String("postId", postId.String()), zap.Error(err))
	} else if found {
		return summary, total, nil
	}

	return usecase.ReactionCache.FillSummary(ctx, postId, usecase.countSummary(postId))
}

// refreshSummary runs after a committed change: it invalidates the cache, recounts from the
// database and pushes the counts with the change version, so watchers can discard counts
// from an older change that arrive late. Failures here never fail the triggering request.
func (usecase *ReactionUsecase) refreshSummary(ctx context.Context, postId uuid.UUID) {
	version, err := usecase.ReactionCache.InvalidateSummary(ctx, postId)
	if err != nil {
		usecase.Log.Warn("failed to invalidate reaction summary cache", zap.String("postId", postId.String()), zap.Error(err))
	}

	summary, total, err := usecase.countSummary(postId)(ctx)
	if err != nil {
		usecase.Log.Warn("failed to recount reactions", zap.String("postId", postId.String()), zap.Error(err))
		return
	}

	err = usecase.EventRepository.Publish(ctx, model.FeedEvent{
		Type:    model.EventReactionSummary,
		PostId:  postId.String(),
		Summary: summary,
		Total:   total,
		Version: version,
	})
	if err != nil {
		usecase.Log.Warn("failed to publish feed event", zap.String("type", model.EventReactionSummary), zap.String("postId", postId.String()), zap.Error(err))
	}
}

func (usecase *ReactionUsecase) GetReactions(ctx context.Context, postIdParam string, userId uuid.UUID) (model.PostReactionSummaryResponse, error) {
	response := model.PostReactionSummaryResponse{}

	postId, err := usecase.checkPost(ctx, postIdParam)
	if err != nil {
		return response, err
	}

	response.Summary, response.Total, err = usecase.summary(ctx, postId)
	if err != nil {
		return response, err
	}

	reaction, err := usecase.ReactionRepository.GetUserReaction(ctx, postId, userId)
	if err != nil {
		return response, err
	}

	if reaction != nil {
		kind, err := feed.ReactionKindFromCode(int(reaction.Kind))
		if err != nil {
			return response, err
		}

		key := kind.Key()
		response.UserReaction = &key
		response.UserReactionId = &reaction.Id
	}

	return response, nil
}

func (usecase *ReactionUsecase) CreateReaction(ctx context.Context, postIdParam string, userId uuid.UUID, payload model.PostReactionRequest) (model.PostReactionIdResponse, error) {
	response := model.PostReactionIdResponse{}

	kind, err := parseReactionKind(payload.Kind)
	if err != nil {
		return response, err
	}

	postId, err := usecase.checkPost(ctx, postIdParam)
	if err != nil {
		return response, err
	}

	now := time.Now().UTC()

	reaction := model.PostReaction{
		Id:             uuid.New(),
		PostId:         postId,
		UserId:         userId,
		Kind:           int16(kind.Code()),
		CreateDatetime: now,
		UpdateDatetime: now,
	}

	err = usecase.ReactionRepository.CreateReaction(ctx, reaction)
	if err != nil {
		if errors.Is(err, repository.ErrReactionExists) {
			return response, &model.ValidationError{
				Code:    constant.ERR_REACTION_CONFLICT,
				Message: "You already reacted to this post",
				Param:   "postId",
			}
		}
		return response, err
	}

	usecase.refreshSummary(ctx, postId)

	response.Id = reaction.Id
	return response, nil
}

// ReplaceReaction changes the kind in place, the reaction keeps its id.
func (usecase *ReactionUsecase) ReplaceReaction(ctx context.Context, postIdParam string, reactionIdParam string, userId uuid.UUID, payload model.PostReactionRequest) (model.PostReactionIdResponse, error) {
	response := model.PostReactionIdResponse{}

	kind, err := parseReactionKind(payload.Kind)
	if err != nil {
		return response, err
	}

	postId, err := usecase.checkPost(ctx, postIdParam)
	if err != nil {
		return response, err
	}

	reactionId, err := usecase.checkOwnedReaction(ctx, postId, reactionIdParam, userId)
	if err != nil {
		return response, err
	}

	updated, err := usecase.ReactionRepository.UpdateReactionKind(ctx, reactionId, int16(kind.Code()), time.Now().UTC())
	if err != nil {
		return response, err
	}

	if !updated {
		return response, reactionConflict("Reaction no longer exists")
	}

	usecase.refreshSummary(ctx, postId)

	response.Id = reactionId
	return response, nil
}

func (usecase *ReactionUsecase) DeleteReaction(ctx context.Context, postIdParam string, reactionIdParam string, userId uuid.UUID) error {
	postId, err := usecase.checkPost(ctx, postIdParam)
	if err != nil {
		return err
	}

	reactionId, err := usecase.checkOwnedReaction(ctx, postId, reactionIdParam, userId)
	if err != nil {
		return err
	}

	deleted, err := usecase.ReactionRepository.DeleteReaction(ctx, reactionId)
	if err != nil {
		return err
	}

	if !deleted {
		return reactionConflict("Reaction no longer exists")
	}

	usecase.refreshSummary(ctx, postId)

	return nil
}
