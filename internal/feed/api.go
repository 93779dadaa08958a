package feed

import (
	"context"
	"time"
)

type CommentDraft struct {
	AuthorId string
	ParentId string
	Content  string
}

type CommentPage struct {
	Comments      []Comment
	TotalComments int
	NextCursor    string
}

// CommentAPI is the remote side of the comment tree. Implementations return
// ErrCommentNotFound, ErrNetworkFailure or a *model.ValidationError.
type CommentAPI interface {
	CreateComment(ctx context.Context, postId string, draft CommentDraft) (Comment, error)
	EditComment(ctx context.Context, postId string, commentId string, content string) (time.Time, error)
	DeleteComment(ctx context.Context, postId string, commentId string) error
	ListComments(ctx context.Context, postId string, cursor string) (CommentPage, error)
}

// ReactionAPI is the remote side of the reaction state. The server derives the
// acting user from the session, userId is passed for backends that do not.
type ReactionAPI interface {
	CreateReaction(ctx context.Context, postId string, userId string, kind ReactionKind) (string, error)
	DeleteReaction(ctx context.Context, postId string, reactionId string) error
	ReactionSummary(ctx context.Context, postId string) (ReactionState, error)
}

// ReactionReplacer is implemented by backends that can swap the kind of an
// existing reaction in one call.
type ReactionReplacer interface {
	ReplaceReaction(ctx context.Context, postId string, reactionId string, kind ReactionKind) (string, error)
}
