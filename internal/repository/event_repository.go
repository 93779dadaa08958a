package repository

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/ferdian3456/kinfeed/internal/constant"
	"github.com/ferdian3456/kinfeed/internal/model"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// EventRepository fans feed events out over redis pub/sub so every API instance can push them to its sockets.
type EventRepository struct {
	Log     *zap.Logger
	DBCache *redis.Client
}

func NewEventRepository(zap *zap.Logger, dbCache *redis.Client) *EventRepository {
	return &EventRepository{
		Log:     zap,
		DBCache: dbCache,
	}
}

func PostEventChannel(postId string) string {
	return constant.POST_EVENT_CHANNEL_PREFIX + postId
}

func (repository *EventRepository) Publish(ctx context.Context, event model.FeedEvent) error {
	payload, err := sonic.Marshal(event)
	if err != nil {
		return err
	}

	err = repository.DBCache.Publish(ctx, PostEventChannel(event.PostId), payload).Err()
	if err != nil {
		return err
	}

	return nil
}

// Subscribe waits for the subscription to be confirmed before returning, so no event published
// afterwards is missed. The caller must close the returned PubSub.
func (repository *EventRepository) Subscribe(ctx context.Context, postId string) (*redis.PubSub, error) {
	pubsub := repository.DBCache.Subscribe(ctx, PostEventChannel(postId))

	_, err := pubsub.Receive(ctx)
	if err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	return pubsub, nil
}

func DecodeEvent(payload string) (model.FeedEvent, error) {
	event := model.FeedEvent{}
	err := sonic.UnmarshalString(payload, &event)
	if err != nil {
		return event, err
	}

	return event, nil
}
