package feed

import (
	"context"
	"sync"
	"time"
)

// commentAPIStub is a stub for CommentAPI.
type commentAPIStub struct {
	mu    sync.Mutex
	calls int

	createFn func(context.Context, string, CommentDraft) (Comment, error)
	editFn   func(context.Context, string, string, string) (time.Time, error)
	deleteFn func(context.Context, string, string) error
	listFn   func(context.Context, string, string) (CommentPage, error)
}

func (s *commentAPIStub) count() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *commentAPIStub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *commentAPIStub) CreateComment(ctx context.Context, postId string, draft CommentDraft) (Comment, error) {
	s.count()
	return s.createFn(ctx, postId, draft)
}
func (s *commentAPIStub) EditComment(ctx context.Context, postId, commentId, content string) (time.Time, error) {
	s.count()
	return s.editFn(ctx, postId, commentId, content)
}
func (s *commentAPIStub) DeleteComment(ctx context.Context, postId, commentId string) error {
	s.count()
	return s.deleteFn(ctx, postId, commentId)
}
func (s *commentAPIStub) ListComments(ctx context.Context, postId, cursor string) (CommentPage, error) {
	s.count()
	return s.listFn(ctx, postId, cursor)
}

func noopCommentAPI() *commentAPIStub {
	return &commentAPIStub{
		createFn: func(_ context.Context, _ string, draft CommentDraft) (Comment, error) {
			return Comment{Id: "srv-" + draft.Content, ParentId: draft.ParentId, AuthorId: draft.AuthorId, Content: draft.Content}, nil
		},
		editFn: func(_ context.Context, _, _, _ string) (time.Time, error) {
			return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), nil
		},
		deleteFn: func(_ context.Context, _, _ string) error { return nil },
		listFn: func(_ context.Context, _, _ string) (CommentPage, error) {
			return CommentPage{Comments: sampleTree(), TotalComments: 6}, nil
		},
	}
}

// reactionAPIStub is a stub for ReactionAPI.
type reactionAPIStub struct {
	mu      sync.Mutex
	creates []ReactionKind
	deletes []string

	createFn  func(context.Context, string, ReactionKind) (string, error)
	deleteFn  func(context.Context, string) error
	summaryFn func(context.Context, string) (ReactionState, error)
}

func (s *reactionAPIStub) CreateReaction(ctx context.Context, postId, _ string, kind ReactionKind) (string, error) {
	s.mu.Lock()
	s.creates = append(s.creates, kind)
	s.mu.Unlock()
	return s.createFn(ctx, postId, kind)
}
func (s *reactionAPIStub) DeleteReaction(ctx context.Context, postId, reactionId string) error {
	s.mu.Lock()
	s.deletes = append(s.deletes, reactionId)
	s.mu.Unlock()
	return s.deleteFn(ctx, reactionId)
}
func (s *reactionAPIStub) ReactionSummary(ctx context.Context, postId string) (ReactionState, error) {
	return s.summaryFn(ctx, postId)
}

func noopReactionAPI() *reactionAPIStub {
	return &reactionAPIStub{
		createFn: func(_ context.Context, _ string, kind ReactionKind) (string, error) {
			return "r-" + kind.Key(), nil
		},
		deleteFn: func(_ context.Context, _ string) error { return nil },
		summaryFn: func(_ context.Context, _ string) (ReactionState, error) {
			return ReactionState{Summary: map[ReactionKind]int{}}, nil
		},
	}
}

// replacingReactionAPIStub also implements ReactionReplacer.
type replacingReactionAPIStub struct {
	*reactionAPIStub
	replaceFn func(context.Context, string, ReactionKind) (string, error)
}

func (s *replacingReactionAPIStub) ReplaceReaction(ctx context.Context, _ string, reactionId string, kind ReactionKind) (string, error) {
	return s.replaceFn(ctx, reactionId, kind)
}

// gate blocks a stub call until the test opens it.
type gate struct {
	entered chan struct{}
	open    chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}, 8), open: make(chan struct{})}
}

func (g *gate) wait(ctx context.Context) error {
	g.entered <- struct{}{}
	select {
	case <-g.open:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
