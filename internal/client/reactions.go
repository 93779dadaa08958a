package client

import (
	"context"

	"github.com/ferdian3456/kinfeed/internal/feed"
	"github.com/ferdian3456/kinfeed/internal/model"
	"github.com/gofiber/fiber/v2"
)

// CreateReaction ignores userId, the server takes the user from the access token.
func (client *Client) CreateReaction(ctx context.Context, postId string, userId string, kind feed.ReactionKind) (string, error) {
	response := model.PostReactionIdResponse{}
	err := client.do(ctx, fiber.MethodPost, postPath(postId, "reactions"), nil, model.PostReactionRequest{Kind: kind.Key()}, &response)
	if err != nil {
		return "", err
	}

	return response.Id.String(), nil
}

func (client *Client) ReplaceReaction(ctx context.Context, postId string, reactionId string, kind feed.ReactionKind) (string, error) {
	response := model.PostReactionIdResponse{}
	err := client.do(ctx, fiber.MethodPut, postPath(postId, "reactions", reactionId), nil, model.PostReactionRequest{Kind: kind.Key()}, &response)
	if err != nil {
		return "", err
	}

	return response.Id.String(), nil
}

func (client *Client) DeleteReaction(ctx context.Context, postId string, reactionId string) error {
	return client.do(ctx, fiber.MethodDelete, postPath(postId, "reactions", reactionId), nil, nil, nil)
}

func (client *Client) ReactionSummary(ctx context.Context, postId string) (feed.ReactionState, error) {
	response := model.PostReactionSummaryResponse{}
	err := client.do(ctx, fiber.MethodGet, postPath(postId, "reactions"), nil, nil, &response)
	if err != nil {
		return feed.ReactionState{}, err
	}

	return reactionStateFromResponse(response)
}

var (
	_ feed.CommentAPI       = (*Client)(nil)
	_ feed.ReactionAPI      = (*Client)(nil)
	_ feed.ReactionReplacer = (*Client)(nil)
)
