package integration

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/ferdian3456/kinfeed/internal/constant"
	"github.com/ferdian3456/kinfeed/internal/model"
	"github.com/ferdian3456/kinfeed/tests/integration/setup"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reactionsURL(postId uuid.UUID) string {
	return fmt.Sprintf("/api/posts/%s/reactions", postId)
}

func reactionSummary(t *testing.T, env *setup.TestApp, postId uuid.UUID, token string) model.PostReactionSummaryResponse {
	t.Helper()

	var summary model.PostReactionSummaryResponse
	status := setup.Call(t, env.App, http.MethodGet, reactionsURL(postId), nil, token, &summary)
	require.Equal(t, http.StatusOK, status)

	return summary
}

func TestPostReactions(t *testing.T) {
	env := setup.StartTestEnv(t)
	ctx := context.Background()

	t.Run("create, replace and delete", func(t *testing.T) {
		setup.TruncateAllTables(t, env.DB, ctx)
		userId := setup.SeedUser(t, env.DB, "dina")
		otherId := setup.SeedUser(t, env.DB, "eko")
		postId := setup.SeedPost(t, env.DB, userId)
		token := setup.AccessToken(t, userId)
		otherToken := setup.AccessToken(t, otherId)

		summary := reactionSummary(t, env, postId, token)
		assert.Equal(t, 0, summary.Total)
		assert.Empty(t, summary.Summary)
		assert.Nil(t, summary.UserReaction)

		var created model.PostReactionIdResponse
		status := setup.Call(t, env.App, http.MethodPost, reactionsURL(postId), map[string]string{"kind": "Like"}, token, &created)
		require.Equal(t, http.StatusCreated, status)

		status = setup.Call(t, env.App, http.MethodPost, reactionsURL(postId), map[string]string{"kind": "wow"}, otherToken, nil)
		require.Equal(t, http.StatusCreated, status)

		summary = reactionSummary(t, env, postId, token)
		assert.Equal(t, 2, summary.Total)
		assert.Equal(t, map[string]int{"like": 1, "wow": 1}, summary.Summary)
		require.NotNil(t, summary.UserReaction)
		assert.Equal(t, "like", *summary.UserReaction)
		require.NotNil(t, summary.UserReactionId)
		assert.Equal(t, created.Id, *summary.UserReactionId)

		var errResp setup.ErrorEnvelope
		status = setup.Call(t, env.App, http.MethodPost, reactionsURL(postId), map[string]string{"kind": "love"}, token, &errResp)
		assert.Equal(t, http.StatusConflict, status, "a user holds one reaction per post")
		assert.Equal(t, "REACTION_CONFLICT", errResp.Error.Code)

		reactionURL := fmt.Sprintf("%s/%s", reactionsURL(postId), created.Id)

		var replaced model.PostReactionIdResponse
		status = setup.Call(t, env.App, http.MethodPut, reactionURL, map[string]string{"kind": "LOVE"}, token, &replaced)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, created.Id, replaced.Id)

		summary = reactionSummary(t, env, postId, token)
		assert.Equal(t, 2, summary.Total)
		assert.Equal(t, map[string]int{"love": 1, "wow": 1}, summary.Summary)

		status = setup.Call(t, env.App, http.MethodDelete, reactionURL, nil, otherToken, nil)
		assert.Equal(t, http.StatusConflict, status, "only the owner removes a reaction")

		status = setup.Call(t, env.App, http.MethodDelete, reactionURL, nil, token, nil)
		require.Equal(t, http.StatusOK, status)

		summary = reactionSummary(t, env, postId, token)
		assert.Equal(t, 1, summary.Total)
		assert.Nil(t, summary.UserReaction)

		status = setup.Call(t, env.App, http.MethodDelete, reactionURL, nil, token, nil)
		assert.Equal(t, http.StatusConflict, status)
	})

	t.Run("unknown kind is rejected", func(t *testing.T) {
		setup.TruncateAllTables(t, env.DB, ctx)
		userId := setup.SeedUser(t, env.DB, "fani")
		postId := setup.SeedPost(t, env.DB, userId)
		token := setup.AccessToken(t, userId)

		var errResp setup.ErrorEnvelope
		status := setup.Call(t, env.App, http.MethodPost, reactionsURL(postId), map[string]string{"kind": "meh"}, token, &errResp)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "kind", errResp.Error.Param)
	})

	t.Run("summary is cached and refreshed on change", func(t *testing.T) {
		setup.TruncateAllTables(t, env.DB, ctx)
		require.NoError(t, env.DBCache.FlushAll(ctx).Err())
		userId := setup.SeedUser(t, env.DB, "gita")
		postId := setup.SeedPost(t, env.DB, userId)
		token := setup.AccessToken(t, userId)

		reactionSummary(t, env, postId, token)
		exists, err := env.DBCache.Exists(ctx, constant.REACTION_SUMMARY_KEY_PREFIX+postId.String()).Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), exists)

		status := setup.Call(t, env.App, http.MethodPost, reactionsURL(postId), map[string]string{"kind": "haha"}, token, nil)
		require.Equal(t, http.StatusCreated, status)

		summary := reactionSummary(t, env, postId, token)
		assert.Equal(t, 1, summary.Total)
		assert.Equal(t, map[string]int{"haha": 1}, summary.Summary)
	})

	t.Run("concurrent writers and readers leave the cached summary exact", func(t *testing.T) {
		setup.TruncateAllTables(t, env.DB, ctx)
		require.NoError(t, env.DBCache.FlushAll(ctx).Err())
		authorId := setup.SeedUser(t, env.DB, "hana")
		postId := setup.SeedPost(t, env.DB, authorId)

		const writers = 8
		tokens := make([]string, writers)
		for i := range tokens {
			tokens[i] = setup.AccessToken(t, setup.SeedUser(t, env.DB, fmt.Sprintf("writer%d", i)))
		}
		readerToken := setup.AccessToken(t, authorId)

		statuses := make(chan int, writers*2)
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(2)
			go func(token string) {
				defer wg.Done()
				resp, err := env.App.Test(setup.CreateAuthRequest(http.MethodPost, reactionsURL(postId), []byte(`{"kind":"love"}`), token), -1)
				if err != nil {
					statuses <- 0
					return
				}
				resp.Body.Close()
				statuses <- resp.StatusCode
			}(tokens[i])
			go func() {
				defer wg.Done()
				resp, err := env.App.Test(setup.CreateAuthRequest(http.MethodGet, reactionsURL(postId), nil, readerToken), -1)
				if err != nil {
					statuses <- 0
					return
				}
				resp.Body.Close()
				statuses <- resp.StatusCode
			}()
		}
		wg.Wait()
		close(statuses)

		for status := range statuses {
			assert.Contains(t, []int{http.StatusOK, http.StatusCreated}, status)
		}

		summary := reactionSummary(t, env, postId, readerToken)
		assert.Equal(t, writers, summary.Total)
		assert.Equal(t, map[string]int{"love": writers}, summary.Summary)

		version, err := env.DBCache.Get(ctx, constant.REACTION_VERSION_KEY_PREFIX+postId.String()).Int64()
		require.NoError(t, err)
		assert.Equal(t, int64(writers), version)
	})
}
