package integration

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/ferdian3456/kinfeed/internal/client"
	"github.com/ferdian3456/kinfeed/internal/feed"
	"github.com/ferdian3456/kinfeed/tests/integration/setup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func listen(t *testing.T, env *setup.TestApp) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		_ = env.App.Listener(ln)
	}()
	t.Cleanup(func() { _ = env.App.Shutdown() })

	return "http://" + ln.Addr().String()
}

// TestFeedSync drives two clients against the running server. Changes made through one feed
// reach the other through the event stream.
func TestFeedSync(t *testing.T) {
	env := setup.StartTestEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	setup.TruncateAllTables(t, env.DB, ctx)
	dinaId := setup.SeedUser(t, env.DB, "dina")
	ekoId := setup.SeedUser(t, env.DB, "eko")
	postId := setup.SeedPost(t, env.DB, dinaId).String()

	baseURL := listen(t, env)
	log := zaptest.NewLogger(t)

	newFeed := func(token string, name string) (*feed.Feed, *client.Client) {
		api := client.New(client.Config{BaseURL: baseURL, AccessToken: token, Timeout: 5 * time.Second, PageSize: 20}, log)
		me, err := api.Me(ctx)
		require.NoError(t, err)
		assert.Equal(t, name, me.Username)

		return feed.New(api, api, log, feed.Config{UserId: me.Id.String(), UserName: me.Username}), api
	}

	dina, dinaAPI := newFeed(setup.AccessToken(t, dinaId), "dina")
	eko, ekoAPI := newFeed(setup.AccessToken(t, ekoId), "eko")

	_, _, err := dina.Open(ctx, postId)
	require.NoError(t, err)
	_, _, err = eko.Open(ctx, postId)
	require.NoError(t, err)

	events := make(chan feed.Event, 16)
	go func() {
		_ = client.NewStream(ekoAPI).Run(ctx, postId, func(event feed.Event) error {
			if err := eko.ApplyEvent(event); err != nil {
				return err
			}
			events <- event
			return nil
		})
	}()

	awaitEvent := func(eventType feed.EventType) feed.Event {
		t.Helper()
		for {
			select {
			case event := <-events:
				if event.Type == eventType {
					return event
				}
			case <-time.After(10 * time.Second):
				require.FailNow(t, "no event received", "waiting for %s", eventType)
			}
		}
	}

	// The stream subscribes after the handshake completes.
	time.Sleep(500 * time.Millisecond)

	root, err := dina.Comments.Submit(ctx, postId, "hello from dina")
	require.NoError(t, err)
	assert.False(t, feed.IsTempId(root.Id))

	created := awaitEvent(feed.EventCommentCreated)
	assert.Equal(t, root.Id, created.Comment.Id)

	thread, _ := eko.Comments.Store().Snapshot(postId)
	require.Len(t, thread.Comments, 1)
	assert.Equal(t, "hello from dina", thread.Comments[0].Content)

	reply, err := eko.Comments.Reply(ctx, postId, root.Id, "hi dina")
	require.NoError(t, err)
	awaitEvent(feed.EventCommentCreated)

	thread, _ = eko.Comments.Store().Snapshot(postId)
	require.Len(t, thread.Comments[0].Replies, 1, "own reply and its echo collapse into one node")
	assert.Equal(t, reply.Id, thread.Comments[0].Replies[0].Id)

	_, err = dina.Comments.Edit(ctx, postId, root.Id, "hello again")
	require.NoError(t, err)
	awaitEvent(feed.EventCommentEdited)

	thread, _ = eko.Comments.Store().Snapshot(postId)
	assert.Equal(t, "hello again", thread.Comments[0].Content)
	assert.True(t, thread.Comments[0].Edited())

	state, err := dina.Reactions.React(ctx, postId, feed.ReactionLove)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Total)

	summary := awaitEvent(feed.EventReactionSummary)
	assert.Equal(t, 1, summary.Total)
	assert.Positive(t, summary.Version)
	assert.Equal(t, 1, eko.Reactions.State(postId).Summary[feed.ReactionLove])

	state, err = dina.Reactions.React(ctx, postId, feed.ReactionWow)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Total)
	require.NotNil(t, state.UserReaction)
	assert.Equal(t, feed.ReactionWow, *state.UserReaction)

	require.NoError(t, dinaAPI.LikeComment(ctx, postId, root.Id))
	liked := awaitEvent(feed.EventCommentEdited)
	assert.Equal(t, 1, liked.Comment.ReactionCount)

	thread, _ = eko.Comments.Store().Snapshot(postId)
	assert.Equal(t, 1, thread.Comments[0].ReactionCount)
	assert.Equal(t, "hello again", thread.Comments[0].Content)

	require.NoError(t, dina.Comments.Delete(ctx, postId, root.Id))
	awaitEvent(feed.EventCommentDeleted)

	thread, _ = eko.Comments.Store().Snapshot(postId)
	assert.Empty(t, thread.Comments)
}
