package client

import (
	"fmt"

	"github.com/ferdian3456/kinfeed/internal/feed"
	"github.com/ferdian3456/kinfeed/internal/model"
)

func commentFromResponse(response model.PostCommentResponse) feed.Comment {
	comment := feed.Comment{
		Id:            response.Id.String(),
		AuthorId:      response.Author.Id.String(),
		AuthorName:    response.Author.Fullname,
		Content:       response.Content,
		CreatedAt:     response.CreateDatetime,
		ReactionCount: response.ReactionCount,
	}

	if comment.AuthorName == "" {
		comment.AuthorName = response.Author.Username
	}
	if response.ParentId != nil {
		comment.ParentId = response.ParentId.String()
	}
	if response.Author.AvatarUrl != nil {
		comment.AuthorAvatarUrl = *response.Author.AvatarUrl
	}
	if response.Edited {
		editedAt := response.UpdateDatetime
		comment.EditedAt = &editedAt
	}

	if len(response.Replies) > 0 {
		comment.Replies = make([]feed.Comment, 0, len(response.Replies))
		for _, reply := range response.Replies {
			comment.Replies = append(comment.Replies, commentFromResponse(reply))
		}
	}

	return comment
}

// summaryFromWire parses the kind keys at the boundary. Unknown kinds are reported, not dropped silently.
func summaryFromWire(wire map[string]int) (map[feed.ReactionKind]int, error) {
	summary := make(map[feed.ReactionKind]int, len(wire))
	for key, count := range wire {
		kind, err := feed.ParseReactionKind(key)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			summary[kind] += count
		}
	}

	return summary, nil
}

func reactionStateFromResponse(response model.PostReactionSummaryResponse) (feed.ReactionState, error) {
	summary, err := summaryFromWire(response.Summary)
	if err != nil {
		return feed.ReactionState{}, err
	}

	state := feed.ReactionState{
		Summary: summary,
		Total:   response.Total,
	}

	if response.UserReaction != nil && response.UserReactionId != nil {
		kind, err := feed.ParseReactionKind(*response.UserReaction)
		if err != nil {
			return feed.ReactionState{}, err
		}
		state.UserReaction = &kind
		state.UserReactionId = response.UserReactionId.String()
	}

	return state, nil
}

func eventFromWire(wire model.FeedEvent) (feed.Event, error) {
	event := feed.Event{
		Type:      feed.EventType(wire.Type),
		PostId:    wire.PostId,
		CommentId: wire.CommentId,
		Total:     wire.Total,
		Version:   wire.Version,
	}

	switch event.Type {
	case feed.EventCommentCreated, feed.EventCommentEdited:
		if wire.Comment == nil {
			return event, fmt.Errorf("%s event without comment", wire.Type)
		}
		event.Comment = commentFromResponse(*wire.Comment)
		if event.CommentId == "" {
			event.CommentId = event.Comment.Id
		}
	case feed.EventReactionSummary:
		summary, err := summaryFromWire(wire.Summary)
		if err != nil {
			return event, err
		}
		event.Summary = summary
	}

	return event, nil
}
