// Package feed holds the client-side cache of a post feed: the comment tree of
// each open post and the current user's reaction state, both kept in step with
// the remote API through optimistic updates.
package feed

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultRequestTimeout   = 10 * time.Second
	DefaultMaxReplyDepth    = 2
	DefaultMaxContentLength = 2000
)

type Config struct {
	UserId           string
	UserName         string
	UserAvatarUrl    string
	MaxReplyDepth    int
	MaxContentLength int
	RequestTimeout   time.Duration
	BusyPolicy       BusyPolicy
}

type Feed struct {
	Comments  *CommentSync
	Reactions *Reconciler
	Log       *zap.Logger
}

func New(commentAPI CommentAPI, reactionAPI ReactionAPI, log *zap.Logger, config Config) *Feed {
	comments := NewCommentSync(commentAPI, NewCommentStore(), log, CommentSyncConfig{
		AuthorId:         config.UserId,
		AuthorName:       config.UserName,
		AuthorAvatarUrl:  config.UserAvatarUrl,
		MaxReplyDepth:    config.MaxReplyDepth,
		MaxContentLength: config.MaxContentLength,
		RequestTimeout:   config.RequestTimeout,
		BusyPolicy:       config.BusyPolicy,
	})

	reactions := NewReconciler(reactionAPI, log, ReconcilerConfig{
		UserId:         config.UserId,
		RequestTimeout: config.RequestTimeout,
		BusyPolicy:     config.BusyPolicy,
	})

	return &Feed{
		Comments:  comments,
		Reactions: reactions,
		Log:       log,
	}
}

// Open loads the comment tree and reaction state of a post.
func (feed *Feed) Open(ctx context.Context, postId string) (PostThread, ReactionState, error) {
	thread, err := feed.Comments.Load(ctx, postId)
	if err != nil {
		return PostThread{}, ReactionState{}, err
	}

	state, err := feed.Reactions.Resync(ctx, postId)
	if err != nil {
		return thread, ReactionState{}, err
	}

	return thread, state, nil
}

func (feed *Feed) Close(postId string) {
	feed.Comments.Detach(postId)
	feed.Reactions.Detach(postId)
}

func (feed *Feed) ApplyEvent(event Event) error {
	if event.Type == EventReactionSummary {
		if !feed.Reactions.ApplySummary(event.PostId, event.Version, event.Summary, event.Total) {
			feed.Log.Debug("reaction summary not applied", zap.String("postId", event.PostId), zap.Int64("version", event.Version))
		}
		return nil
	}

	return feed.Comments.applyRemote(event)
}
