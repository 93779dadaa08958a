package model

const (
	EventCommentCreated  = "comment.created"
	EventCommentEdited   = "comment.edited"
	EventCommentDeleted  = "comment.deleted"
	EventReactionSummary = "reaction.summary"
)

// FeedEvent is pushed to every client watching a post. Version orders the reaction
// summaries of one post and is zero when unknown.
type FeedEvent struct {
	Type      string               `json:"type"`
	PostId    string               `json:"postId"`
	CommentId string               `json:"commentId,omitempty"`
	Comment   *PostCommentResponse `json:"comment,omitempty"`
	Summary   map[string]int       `json:"summary,omitempty"`
	Total     int                  `json:"total"`
	Version   int64                `json:"version,omitempty"`
}
