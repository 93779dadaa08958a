package client

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/ferdian3456/kinfeed/internal/feed"
	"github.com/ferdian3456/kinfeed/internal/model"
	"github.com/gofiber/fiber/v2"
)

func (client *Client) ListComments(ctx context.Context, postId string, cursor string) (feed.CommentPage, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(client.PageSize))
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	response := model.PostCommentListResponse{}
	err := client.do(ctx, fiber.MethodGet, postPath(postId, "comments"), query, nil, &response)
	if err != nil {
		return feed.CommentPage{}, err
	}

	page := feed.CommentPage{
		Comments:      make([]feed.Comment, 0, len(response.Data)),
		TotalComments: response.TotalComments,
		NextCursor:    response.Page.NextCursor,
	}
	for _, comment := range response.Data {
		page.Comments = append(page.Comments, commentFromResponse(comment))
	}

	return page, nil
}

func (client *Client) CreateComment(ctx context.Context, postId string, draft feed.CommentDraft) (feed.Comment, error) {
	request := model.PostCommentCreateRequest{Content: draft.Content}
	if draft.ParentId != "" {
		parentId := draft.ParentId
		request.ParentId = &parentId
	}

	response := model.PostCommentResponse{}
	err := client.do(ctx, fiber.MethodPost, postPath(postId, "comments"), nil, request, &response)
	if err != nil {
		return feed.Comment{}, err
	}

	return commentFromResponse(response), nil
}

func (client *Client) EditComment(ctx context.Context, postId string, commentId string, content string) (time.Time, error) {
	response := model.PostCommentEditResponse{}
	err := client.do(ctx, fiber.MethodPut, postPath(postId, "comments", commentId), nil, model.PostCommentUpdateRequest{Content: content}, &response)
	if err != nil {
		return time.Time{}, err
	}

	return response.EditedAt, nil
}

func (client *Client) DeleteComment(ctx context.Context, postId string, commentId string) error {
	return client.do(ctx, fiber.MethodDelete, postPath(postId, "comments", commentId), nil, nil, nil)
}

func (client *Client) LikeComment(ctx context.Context, postId string, commentId string) error {
	return client.do(ctx, fiber.MethodPost, postPath(postId, "comments", commentId, "likes"), nil, nil, nil)
}

func (client *Client) UnlikeComment(ctx context.Context, postId string, commentId string) error {
	return client.do(ctx, fiber.MethodDelete, postPath(postId, "comments", commentId, "likes"), nil, nil, nil)
}
