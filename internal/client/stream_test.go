package client

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ferdian3456/kinfeed/internal/feed"
	"github.com/ferdian3456/kinfeed/internal/model"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream_DeliversDecodedEvents(t *testing.T) {
	commentId := uuid.New()
	authorId := uuid.New()

	client := startServer(t, func(app *fiber.App) {
		app.Get("/api/posts/:postId/events", websocket.New(func(conn *websocket.Conn) {
			assert.Equal(t, "Bearer "+testToken, conn.Headers("Authorization"))

			messages := []interface{}{
				model.FeedEvent{Type: model.EventReactionSummary, PostId: "p1", Summary: map[string]int{"haha": 2}, Total: 2, Version: 4},
				"not an event",
				model.FeedEvent{Type: model.EventCommentCreated, PostId: "p1"},
				model.FeedEvent{Type: model.EventCommentCreated, PostId: "p1", Comment: &model.PostCommentResponse{
					Id:      commentId,
					Author:  model.CommentAuthorResponse{Id: authorId, Username: "eko"},
					Content: "live",
				}},
			}
			for _, message := range messages {
				payload, err := sonic.Marshal(message)
				if err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
					return
				}
			}

			// Hold the connection until the client leaves.
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var mu sync.Mutex
	var events []feed.Event
	handle := func(event feed.Event) error {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, event)
		if len(events) == 2 {
			cancel()
		}
		return nil
	}

	err := NewStream(client).Run(ctx, "p1", handle)
	assert.ErrorIs(t, err, context.Canceled)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 2)

	assert.Equal(t, feed.EventReactionSummary, events[0].Type)
	assert.Equal(t, map[feed.ReactionKind]int{feed.ReactionHaha: 2}, events[0].Summary)
	assert.Equal(t, 2, events[0].Total)
	assert.Equal(t, int64(4), events[0].Version)

	assert.Equal(t, feed.EventCommentCreated, events[1].Type)
	assert.Equal(t, commentId.String(), events[1].CommentId)
	assert.Equal(t, "live", events[1].Comment.Content)
	assert.Equal(t, "eko", events[1].Comment.AuthorName)
}

func TestStream_HandshakeRejected(t *testing.T) {
	client := startServer(t, func(app *fiber.App) {
		app.Get("/api/posts/:postId/events", func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusNotFound)
		})
	})

	err := NewStream(client).Run(context.Background(), "p1", func(feed.Event) error { return nil })
	assert.ErrorIs(t, err, feed.ErrNetworkFailure)
}

func TestStreamURL(t *testing.T) {
	stream := NewStream(New(Config{BaseURL: "https://feed.example.com/"}, nil))
	assert.Equal(t, "wss://feed.example.com/api/posts/p%201/events", stream.url("p 1"))

	stream = NewStream(New(Config{BaseURL: "http://127.0.0.1:8080"}, nil))
	assert.Equal(t, "ws://127.0.0.1:8080/api/posts/p1/events", stream.url("p1"))
}

func TestEventFromWire(t *testing.T) {
	event, err := eventFromWire(model.FeedEvent{Type: model.EventCommentDeleted, PostId: "p", CommentId: "c"})
	require.NoError(t, err)
	assert.Equal(t, feed.EventCommentDeleted, event.Type)
	assert.Equal(t, "c", event.CommentId)

	_, err = eventFromWire(model.FeedEvent{Type: model.EventCommentEdited, PostId: "p"})
	assert.Error(t, err)

	_, err = eventFromWire(model.FeedEvent{Type: model.EventReactionSummary, PostId: "p", Summary: map[string]int{"nope": 1}})
	assert.ErrorIs(t, err, feed.ErrUnknownReactionKind)
}
