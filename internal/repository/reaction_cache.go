package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ferdian3456/kinfeed/internal/constant"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const reactionTotalField = "total"

type ReactionCache struct {
	Log     *zap.Logger
	DBCache *redis.Client
}

func NewReactionCache(zap *zap.Logger, dbCache *redis.Client) *ReactionCache {
	return &ReactionCache{
		Log:     zap,
		DBCache: dbCache,
	}
}

// SummaryLoader counts the reactions of a post straight from the database.
type SummaryLoader func(ctx context.Context) (map[string]int, int, error)

func reactionSummaryKey(postId uuid.UUID) string {
	return constant.REACTION_SUMMARY_KEY_PREFIX + postId.String()
}

func reactionVersionKey(postId uuid.UUID) string {
	return constant.REACTION_VERSION_KEY_PREFIX + postId.String()
}

// GetSummary reports found=false on a cache miss.
func (cache *ReactionCache) GetSummary(ctx context.Context, postId uuid.UUID) (map[string]int, int, bool, error) {
	values, err := cache.DBCache.HGetAll(ctx, reactionSummaryKey(postId)).Result()
	if err != nil {
		return nil, 0, false, err
	}

	if len(values) == 0 {
		return nil, 0, false, nil
	}

	summary := map[string]int{}
	total := 0
	for field, value := range values {
		count, err := strconv.Atoi(value)
		if err != nil {
			return nil, 0, false, fmt.Errorf("reaction cache field %q: %w", field, err)
		}

		if field == reactionTotalField {
			total = count
			continue
		}
		summary[field] = count
	}

	return summary, total, true, nil
}

func writeSummary(ctx context.Context, pipe redis.Pipeliner, key string, summary map[string]int, total int) {
	fields := make(map[string]interface{}, len(summary)+1)
	for kind, count := range summary {
		fields[kind] = count
	}
	fields[reactionTotalField] = total

	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, constant.REACTION_SUMMARY_TTL)
}

// FillSummary counts with load and caches the result, unless InvalidateSummary ran
// while load was counting: those counts may predate the change and are returned uncached.
func (cache *ReactionCache) FillSummary(ctx context.Context, postId uuid.UUID, load SummaryLoader) (map[string]int, int, error) {
	var (
		summary map[string]int
		total   int
		loadErr error
		loaded  bool
	)

	err := cache.DBCache.Watch(ctx, func(tx *redis.Tx) error {
		summary, total, loadErr = load(ctx)
		if loadErr != nil {
			return loadErr
		}
		loaded = true

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			writeSummary(ctx, pipe, reactionSummaryKey(postId), summary, total)
			return nil
		})
		return err
	}, reactionVersionKey(postId))

	switch {
	case loadErr != nil:
		return nil, 0, loadErr
	case err == nil:
		return summary, total, nil
	case errors.Is(err, redis.TxFailedErr):
		cache.Log.Debug("reaction summary changed while counting, not cached", zap.String("postId", postId.String()))
		return summary, total, nil
	}

	cache.Log.Warn("failed to fill reaction summary cache", zap.String("postId", postId.String()), zap.Error(err))
	if loaded {
		return summary, total, nil
	}

	return load(ctx)
}

// InvalidateSummary drops the cached summary and returns the new change version of the
// post. Call it after the change is committed and count afterwards.
func (cache *ReactionCache) InvalidateSummary(ctx context.Context, postId uuid.UUID) (int64, error) {
	var version *redis.IntCmd
	_, err := cache.DBCache.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, reactionSummaryKey(postId))
		version = pipe.Incr(ctx, reactionVersionKey(postId))
		return nil
	})
	if err != nil {
		return 0, err
	}

	return version.Val(), nil
}
