package feed

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

type EventType string

const (
	EventCommentCreated  EventType = "comment.created"
	EventCommentEdited   EventType = "comment.edited"
	EventCommentDeleted  EventType = "comment.deleted"
	EventReactionSummary EventType = "reaction.summary"
)

// Event is a change made by any client, pushed by the server. Version grows with
// every reaction change of the post; zero means unversioned.
type Event struct {
	Type      EventType
	PostId    string
	CommentId string
	Comment   Comment
	Summary   map[ReactionKind]int
	Total     int
	Version   int64
}

// applyRemote folds a server-pushed comment change into the store. Applying
// the same event twice leaves the tree as after the first time. Events for a
// post that is neither loaded nor loading are dropped.
func (commentSync *CommentSync) applyRemote(event Event) error {
	switch event.Type {
	case EventCommentCreated, EventCommentEdited, EventCommentDeleted:
	default:
		return fmt.Errorf("unsupported comment event %q", event.Type)
	}

	commentSync.mu.Lock()
	defer commentSync.mu.Unlock()

	buffer, loading := commentSync.loading[event.PostId]
	if loading {
		buffer.events = append(buffer.events, event)
	}

	if !commentSync.store.Has(event.PostId) {
		if !loading {
			commentSync.log.Debug("dropping event for post that is not open",
				zap.String("postId", event.PostId), zap.String("type", string(event.Type)))
		}
		return nil
	}

	err := commentSync.applyLocked(event)
	if err != nil && loading && errors.Is(err, ErrCommentNotFound) {
		// the page being fetched decides, the event is replayed onto it
		return nil
	}

	return err
}

// applyLocked must be called with commentSync.mu held.
func (commentSync *CommentSync) applyLocked(event Event) error {
	postId := event.PostId

	switch event.Type {
	case EventCommentCreated:
		if _, exists := commentSync.store.Find(postId, event.Comment.Id); exists {
			return nil
		}
		if event.Comment.ParentId == "" {
			commentSync.store.InsertRoot(postId, event.Comment)
			return nil
		}
		return commentSync.store.InsertReply(postId, event.Comment.ParentId, event.Comment)

	case EventCommentEdited:
		comment := event.Comment
		return commentSync.store.UpdateById(postId, comment.Id, CommentPatch{
			Content:       &comment.Content,
			EditedAt:      comment.EditedAt,
			ReactionCount: &comment.ReactionCount,
		})

	case EventCommentDeleted:
		commentSync.store.RemoveById(postId, event.CommentId)
		return nil
	}

	return fmt.Errorf("unsupported comment event %q", event.Type)
}
