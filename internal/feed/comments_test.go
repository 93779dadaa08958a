package feed

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSync(t *testing.T, api *commentAPIStub) *CommentSync {
	t.Helper()

	commentSync := NewCommentSync(api, NewCommentStore(), zap.NewNop(), CommentSyncConfig{
		AuthorId:       "user-1",
		AuthorName:     "Tester",
		RequestTimeout: time.Second,
	})

	_, err := commentSync.Load(context.Background(), "p1")
	require.NoError(t, err)

	return commentSync
}

func snapshot(t *testing.T, commentSync *CommentSync) PostThread {
	t.Helper()

	thread, ok := commentSync.Store().Snapshot("p1")
	require.True(t, ok)
	return thread
}

func TestLoad_PutsThread(t *testing.T) {
	api := noopCommentAPI()
	commentSync := newTestSync(t, api)

	thread := snapshot(t, commentSync)
	assert.Equal(t, 6, thread.TotalComments)
	assert.Equal(t, []string{"a", "b"}, ids(thread.Comments))
}

func TestSubmit_ReplacesTempIdWithServerComment(t *testing.T) {
	api := noopCommentAPI()
	commentSync := newTestSync(t, api)

	created, err := commentSync.Submit(context.Background(), "p1", "  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "srv-hello", created.Id)

	thread := snapshot(t, commentSync)
	assert.Equal(t, []string{"a", "b", "srv-hello"}, ids(thread.Comments))
	assert.Equal(t, 7, thread.TotalComments)
	assert.Equal(t, 0, commentSync.InFlight("p1"))
}

func TestSubmit_ShowsOptimisticCommentThenRollsBack(t *testing.T) {
	g := newGate()
	api := noopCommentAPI()
	api.createFn = func(ctx context.Context, _ string, _ CommentDraft) (Comment, error) {
		if err := g.wait(ctx); err != nil {
			return Comment{}, err
		}
		return Comment{}, ErrNetworkFailure
	}
	commentSync := newTestSync(t, api)
	before := snapshot(t, commentSync)

	done := make(chan error, 1)
	go func() {
		_, err := commentSync.Submit(context.Background(), "p1", "draft")
		done <- err
	}()
	<-g.entered

	during := snapshot(t, commentSync)
	require.Len(t, during.Comments, 3)
	optimistic := during.Comments[2]
	assert.True(t, IsTempId(optimistic.Id))
	assert.Equal(t, "draft", optimistic.Content)
	assert.Equal(t, "Tester", optimistic.AuthorName)
	assert.Equal(t, 7, during.TotalComments)
	assert.Equal(t, 1, commentSync.InFlight("p1"))

	close(g.open)
	assert.ErrorIs(t, <-done, ErrNetworkFailure)
	assert.Equal(t, before, snapshot(t, commentSync))
}

func TestSubmit_InvalidContentDoesNotTouchTree(t *testing.T) {
	api := noopCommentAPI()
	commentSync := newTestSync(t, api)
	before := snapshot(t, commentSync)
	calls := api.Calls()

	_, err := commentSync.Submit(context.Background(), "p1", "   ")
	assert.True(t, IsValidation(err))

	_, err = commentSync.Submit(context.Background(), "p1", strings.Repeat("x", DefaultMaxContentLength+1))
	assert.True(t, IsValidation(err))

	assert.Equal(t, before, snapshot(t, commentSync))
	assert.Equal(t, calls, api.Calls())
}

func TestReply_InsertsUnderNestedParent(t *testing.T) {
	api := noopCommentAPI()
	commentSync := newTestSync(t, api)

	created, err := commentSync.Reply(context.Background(), "p1", "a1", "nested")
	require.NoError(t, err)
	assert.Equal(t, "a1", created.ParentId)

	thread := snapshot(t, commentSync)
	a1, ok := FindById(thread.Comments, "a1")
	require.True(t, ok)
	assert.Equal(t, []string{"a1x", "srv-nested"}, ids(a1.Replies))
	assert.Equal(t, 7, thread.TotalComments)
}

func TestReply_Rejections(t *testing.T) {
	api := noopCommentAPI()
	commentSync := newTestSync(t, api)
	before := snapshot(t, commentSync)
	calls := api.Calls()

	_, err := commentSync.Reply(context.Background(), "p1", "a1x", "too deep")
	assert.True(t, IsValidation(err))
	assert.False(t, commentSync.CanReply("p1", "a1x"))
	assert.True(t, commentSync.CanReply("p1", "a1"))

	_, err = commentSync.Reply(context.Background(), "p1", NewTempId(), "on a draft")
	assert.True(t, IsValidation(err))

	_, err = commentSync.Reply(context.Background(), "p1", "missing", "hi")
	assert.ErrorIs(t, err, ErrCommentNotFound)

	assert.Equal(t, before, snapshot(t, commentSync))
	assert.Equal(t, calls, api.Calls())
}

func TestSubmit_EventBeforeResponseKeepsOneCopy(t *testing.T) {
	g := newGate()
	api := noopCommentAPI()
	api.createFn = func(ctx context.Context, _ string, draft CommentDraft) (Comment, error) {
		if err := g.wait(ctx); err != nil {
			return Comment{}, err
		}
		return Comment{Id: "c-77", Content: draft.Content}, nil
	}
	commentSync := newTestSync(t, api)

	done := make(chan error, 1)
	go func() {
		_, err := commentSync.Submit(context.Background(), "p1", "race")
		done <- err
	}()
	<-g.entered

	event := Event{Type: EventCommentCreated, PostId: "p1", Comment: Comment{Id: "c-77", Content: "race"}}
	require.NoError(t, commentSync.applyRemote(event))
	require.NoError(t, commentSync.applyRemote(event))

	close(g.open)
	require.NoError(t, <-done)

	thread := snapshot(t, commentSync)
	assert.Equal(t, []string{"a", "b", "c-77"}, ids(thread.Comments))
	assert.Equal(t, 7, thread.TotalComments)
}

func TestEdit_ConfirmsAndRollsBack(t *testing.T) {
	confirmedAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	api := noopCommentAPI()
	commentSync := newTestSync(t, api)

	edited, err := commentSync.Edit(context.Background(), "p1", "a2", "changed")
	require.NoError(t, err)
	assert.Equal(t, "changed", edited.Content)
	require.NotNil(t, edited.EditedAt)
	assert.Equal(t, confirmedAt, *edited.EditedAt)
	assert.True(t, edited.Edited())

	before := snapshot(t, commentSync)
	api.editFn = func(_ context.Context, _, _, _ string) (time.Time, error) {
		return time.Time{}, ErrCommentNotFound
	}

	_, err = commentSync.Edit(context.Background(), "p1", "b1", "nope")
	assert.ErrorIs(t, err, ErrCommentNotFound)
	assert.True(t, NeedsResync(err))
	assert.Equal(t, before, snapshot(t, commentSync))

	_, err = commentSync.Edit(context.Background(), "p1", NewTempId(), "nope")
	assert.True(t, IsValidation(err))
}

func TestDelete_RemovesSubtree(t *testing.T) {
	api := noopCommentAPI()
	commentSync := newTestSync(t, api)

	require.NoError(t, commentSync.Delete(context.Background(), "p1", "a1"))

	thread := snapshot(t, commentSync)
	a, _ := FindById(thread.Comments, "a")
	assert.Equal(t, []string{"a2"}, ids(a.Replies))
	assert.Equal(t, 4, thread.TotalComments)

	calls := api.Calls()
	require.NoError(t, commentSync.Delete(context.Background(), "p1", "a1"))
	assert.Equal(t, calls, api.Calls())
}

func TestDelete_FailureRestoresPosition(t *testing.T) {
	api := noopCommentAPI()
	api.deleteFn = func(_ context.Context, _, _ string) error {
		return ErrNetworkFailure
	}
	commentSync := newTestSync(t, api)
	before := snapshot(t, commentSync)

	err := commentSync.Delete(context.Background(), "p1", "a1")
	assert.ErrorIs(t, err, ErrNetworkFailure)
	assert.Equal(t, before, snapshot(t, commentSync))
}

func TestDelete_AlreadyGoneOnServer(t *testing.T) {
	api := noopCommentAPI()
	api.deleteFn = func(_ context.Context, _, _ string) error {
		return ErrCommentNotFound
	}
	commentSync := newTestSync(t, api)

	require.NoError(t, commentSync.Delete(context.Background(), "p1", "b"))

	thread := snapshot(t, commentSync)
	assert.Equal(t, []string{"a"}, ids(thread.Comments))
	assert.Equal(t, 4, thread.TotalComments)
}

func TestDetach_DropsLateResponse(t *testing.T) {
	g := newGate()
	api := noopCommentAPI()
	api.createFn = func(ctx context.Context, _ string, _ CommentDraft) (Comment, error) {
		if err := g.wait(ctx); err != nil {
			return Comment{}, err
		}
		return Comment{Id: "late"}, nil
	}
	commentSync := newTestSync(t, api)

	done := make(chan error, 1)
	go func() {
		_, err := commentSync.Submit(context.Background(), "p1", "late")
		done <- err
	}()
	<-g.entered

	commentSync.Detach("p1")
	close(g.open)

	assert.ErrorIs(t, <-done, ErrStaleResponse)
	_, ok := commentSync.Store().Snapshot("p1")
	assert.False(t, ok)
	assert.Equal(t, 0, commentSync.InFlight("p1"))
}

func TestLoadMore_AppendsNextPage(t *testing.T) {
	api := noopCommentAPI()
	api.listFn = func(_ context.Context, _ string, cursor string) (CommentPage, error) {
		if cursor == "" {
			return CommentPage{Comments: []Comment{comment("a"), comment("b")}, TotalComments: 4, NextCursor: "next"}, nil
		}
		return CommentPage{Comments: []Comment{comment("b"), comment("c"), comment("d")}, TotalComments: 4}, nil
	}
	commentSync := newTestSync(t, api)

	thread, err := commentSync.LoadMore(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(thread.Comments))
	assert.Equal(t, "", thread.NextCursor)

	calls := api.Calls()
	_, err = commentSync.LoadMore(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, calls, api.Calls())
}

func TestApplyRemote(t *testing.T) {
	api := noopCommentAPI()
	commentSync := newTestSync(t, api)
	editedAt := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, commentSync.applyRemote(Event{
		Type:    EventCommentCreated,
		PostId:  "p1",
		Comment: Comment{Id: "b2", ParentId: "b", Content: "remote"},
	}))
	require.NoError(t, commentSync.applyRemote(Event{
		Type:    EventCommentEdited,
		PostId:  "p1",
		Comment: Comment{Id: "a", Content: "remote edit", EditedAt: &editedAt, ReactionCount: 3},
	}))
	require.NoError(t, commentSync.applyRemote(Event{Type: EventCommentDeleted, PostId: "p1", CommentId: "a1"}))
	require.NoError(t, commentSync.applyRemote(Event{Type: EventCommentDeleted, PostId: "p1", CommentId: "a1"}))

	thread := snapshot(t, commentSync)
	b, _ := FindById(thread.Comments, "b")
	assert.Equal(t, []string{"b1", "b2"}, ids(b.Replies))

	a, _ := FindById(thread.Comments, "a")
	assert.Equal(t, "remote edit", a.Content)
	assert.Equal(t, 3, a.ReactionCount)
	assert.Equal(t, []string{"a2"}, ids(a.Replies))
	assert.Equal(t, 5, thread.TotalComments)

	assert.Error(t, commentSync.applyRemote(Event{Type: "comment.pinned", PostId: "p1"}))
}

func TestResync_ReplaysEventsReceivedDuringRequest(t *testing.T) {
	api := noopCommentAPI()
	commentSync := newTestSync(t, api)

	g := newGate()
	api.listFn = func(ctx context.Context, _, _ string) (CommentPage, error) {
		if err := g.wait(ctx); err != nil {
			return CommentPage{}, err
		}
		return CommentPage{Comments: sampleTree(), TotalComments: 6}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := commentSync.Resync(context.Background(), "p1")
		done <- err
	}()
	<-g.entered

	require.NoError(t, commentSync.applyRemote(Event{Type: EventCommentDeleted, PostId: "p1", CommentId: "b"}))
	require.NoError(t, commentSync.applyRemote(Event{
		Type:    EventCommentCreated,
		PostId:  "p1",
		Comment: Comment{Id: "c9", Content: "late root"},
	}))
	require.NoError(t, commentSync.applyRemote(Event{
		Type:    EventCommentCreated,
		PostId:  "p1",
		Comment: Comment{Id: "c9r", ParentId: "c9", Content: "late reply"},
	}))

	close(g.open)
	require.NoError(t, <-done)

	thread := snapshot(t, commentSync)
	assert.Equal(t, []string{"a", "c9"}, ids(thread.Comments))
	c9, _ := FindById(thread.Comments, "c9")
	assert.Equal(t, []string{"c9r"}, ids(c9.Replies))
	assert.Equal(t, 6, thread.TotalComments)
}

func TestLoad_FirstLoadKeepsEventsFromTheWait(t *testing.T) {
	g := newGate()
	api := noopCommentAPI()
	api.listFn = func(ctx context.Context, _, _ string) (CommentPage, error) {
		if err := g.wait(ctx); err != nil {
			return CommentPage{}, err
		}
		return CommentPage{Comments: sampleTree(), TotalComments: 6}, nil
	}
	commentSync := NewCommentSync(api, NewCommentStore(), zap.NewNop(), CommentSyncConfig{RequestTimeout: time.Second})

	done := make(chan error, 1)
	go func() {
		_, err := commentSync.Load(context.Background(), "p1")
		done <- err
	}()
	<-g.entered

	require.NoError(t, commentSync.applyRemote(Event{
		Type:    EventCommentCreated,
		PostId:  "p1",
		Comment: Comment{Id: "b2", ParentId: "b", Content: "early reply"},
	}))
	_, ok := commentSync.store.Snapshot("p1")
	assert.False(t, ok)

	close(g.open)
	require.NoError(t, <-done)

	thread := snapshot(t, commentSync)
	b, _ := FindById(thread.Comments, "b")
	assert.Equal(t, []string{"b1", "b2"}, ids(b.Replies))
	assert.Equal(t, 7, thread.TotalComments)
}

func TestApplyRemote_DroppedAfterDetach(t *testing.T) {
	commentSync := newTestSync(t, noopCommentAPI())
	commentSync.Detach("p1")

	require.NoError(t, commentSync.applyRemote(Event{
		Type:    EventCommentCreated,
		PostId:  "p1",
		Comment: Comment{Id: "c1", Content: "too late"},
	}))
	require.NoError(t, commentSync.applyRemote(Event{Type: EventCommentDeleted, PostId: "p1", CommentId: "a"}))

	_, ok := commentSync.store.Snapshot("p1")
	assert.False(t, ok)
}
