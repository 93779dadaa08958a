package usecase

import (
	"context"

	"github.com/ferdian3456/kinfeed/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type EventUsecase struct {
	PostRepository  *repository.PostRepository
	EventRepository *repository.EventRepository
	Log             *zap.Logger
}

func NewEventUsecase(postRepository *repository.PostRepository, eventRepository *repository.EventRepository, zap *zap.Logger) *EventUsecase {
	return &EventUsecase{
		PostRepository:  postRepository,
		EventRepository: eventRepository,
		Log:             zap,
	}
}

func (usecase *EventUsecase) CheckPost(ctx context.Context, postIdParam string) (uuid.UUID, error) {
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

func (usecase *EventUsecase) Subscribe(ctx context.Context, postId uuid.UUID) (*redis.PubSub, error) {
	return usecase.EventRepository.Subscribe(ctx, postId.String())
}
