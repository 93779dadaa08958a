package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

type CommentSyncConfig struct {
	AuthorId         string
	AuthorName       string
	AuthorAvatarUrl  string
	MaxReplyDepth    int
	MaxContentLength int
	RequestTimeout   time.Duration
	BusyPolicy       BusyPolicy
}

// CommentSync applies comment mutations to the local store optimistically and
// reconciles them with the CommentAPI.
type CommentSync struct {
	api    CommentAPI
	store  *CommentStore
	log    *zap.Logger
	config CommentSyncConfig
	guard  *KeyedGuard
	now    func() time.Time

	// mu orders response handling against Detach and Load.
	mu      sync.Mutex
	tracker *tracker

	// loading collects events for posts with a Load in flight, replayed onto the fetched page.
	loading map[string]*eventBuffer
}

type eventBuffer struct {
	loads  int
	events []Event
}

func NewCommentSync(api CommentAPI, store *CommentStore, log *zap.Logger, config CommentSyncConfig) *CommentSync {
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = DefaultRequestTimeout
	}
	if config.MaxReplyDepth <= 0 {
		config.MaxReplyDepth = DefaultMaxReplyDepth
	}
	if config.MaxContentLength <= 0 {
		config.MaxContentLength = DefaultMaxContentLength
	}

	return &CommentSync{
		api:     api,
		store:   store,
		log:     log,
		config:  config,
		guard:   NewKeyedGuard(),
		now:     func() time.Time { return time.Now().UTC() },
		tracker: newTracker(),
		loading: make(map[string]*eventBuffer),
	}
}

func commentKey(postId string, commentId string) string {
	return postId + "/" + commentId
}

func (commentSync *CommentSync) Store() *CommentStore {
	return commentSync.store
}

// CanReply reports whether a reply under commentId stays within the depth limit.
func (commentSync *CommentSync) CanReply(postId string, commentId string) bool {
	if IsTempId(commentId) {
		return false
	}

	depth, err := commentSync.store.Depth(postId, commentId)
	if err != nil {
		return false
	}

	return depth+1 <= commentSync.config.MaxReplyDepth
}

// Load replaces the thread of postId with a fresh first page. Events applied
// while the request is in flight are replayed onto the new page.
func (commentSync *CommentSync) Load(ctx context.Context, postId string) (PostThread, error) {
	commentSync.mu.Lock()
	op := commentSync.tracker.begin(postId, commentKey(postId, "load"))
	buffer := commentSync.startBuffering(postId)
	commentSync.mu.Unlock()

	requestCtx, cancel := context.WithTimeout(ctx, commentSync.config.RequestTimeout)
	defer cancel()

	page, err := commentSync.api.ListComments(requestCtx, postId, "")

	commentSync.mu.Lock()
	defer commentSync.mu.Unlock()
	defer commentSync.stopBuffering(postId, buffer)

	if !commentSync.tracker.current(op) {
		commentSync.tracker.finish(op, OpAbandoned)
		return PostThread{}, ErrStaleResponse
	}

	if err != nil {
		commentSync.tracker.finish(op, OpRolledBack)
		return PostThread{}, err
	}

	commentSync.tracker.finish(op, OpConfirmed)
	// Responses to anything issued before this snapshot are now outdated.
	commentSync.tracker.invalidate(postId)

	commentSync.store.Put(PostThread{
		PostId:        postId,
		TotalComments: page.TotalComments,
		Comments:      cloneTree(page.Comments),
		NextCursor:    page.NextCursor,
	})

	for _, event := range buffer.events {
		if err := commentSync.applyLocked(event); err != nil {
			commentSync.log.Debug("buffered event does not fit the loaded page",
				zap.String("postId", postId), zap.String("type", string(event.Type)), zap.Error(err))
		}
	}

	snapshot, _ := commentSync.store.Snapshot(postId)
	return snapshot, nil
}

// startBuffering must be called with commentSync.mu held.
func (commentSync *CommentSync) startBuffering(postId string) *eventBuffer {
	buffer, ok := commentSync.loading[postId]
	if !ok {
		buffer = &eventBuffer{}
		commentSync.loading[postId] = buffer
	}
	buffer.loads++

	return buffer
}

// stopBuffering must be called with commentSync.mu held.
func (commentSync *CommentSync) stopBuffering(postId string, buffer *eventBuffer) {
	buffer.loads--
	if buffer.loads <= 0 && commentSync.loading[postId] == buffer {
		delete(commentSync.loading, postId)
	}
}

func (commentSync *CommentSync) Resync(ctx context.Context, postId string) (PostThread, error) {
	return commentSync.Load(ctx, postId)
}

// LoadMore appends the next page of root comments. It is a no-op once the last page is loaded.
func (commentSync *CommentSync) LoadMore(ctx context.Context, postId string) (PostThread, error) {
	thread, _ := commentSync.store.Snapshot(postId)
	if thread.NextCursor == "" {
		return thread, nil
	}

	commentSync.mu.Lock()
	op := commentSync.tracker.begin(postId, commentKey(postId, "page"))
	commentSync.mu.Unlock()

	requestCtx, cancel := context.WithTimeout(ctx, commentSync.config.RequestTimeout)
	defer cancel()

	page, err := commentSync.api.ListComments(requestCtx, postId, thread.NextCursor)

	commentSync.mu.Lock()
	defer commentSync.mu.Unlock()

	if !commentSync.tracker.current(op) {
		commentSync.tracker.finish(op, OpAbandoned)
		return PostThread{}, ErrStaleResponse
	}

	if err != nil {
		commentSync.tracker.finish(op, OpRolledBack)
		return thread, err
	}

	commentSync.tracker.finish(op, OpConfirmed)
	commentSync.store.appendPage(postId, page)

	snapshot, _ := commentSync.store.Snapshot(postId)
	return snapshot, nil
}

// Submit adds a root comment.
func (commentSync *CommentSync) Submit(ctx context.Context, postId string, content string) (Comment, error) {
	content, err := commentSync.validateContent(content)
	if err != nil {
		return Comment{}, err
	}

	optimistic := commentSync.draft(content)
	key := commentKey(postId, optimistic.Id)

	release, err := commentSync.guard.enter(ctx, key, commentSync.config.BusyPolicy)
	if err != nil {
		return Comment{}, err
	}
	defer release()

	commentSync.mu.Lock()
	commentSync.store.InsertRoot(postId, optimistic)
	op := commentSync.tracker.begin(postId, key)
	commentSync.mu.Unlock()

	requestCtx, cancel := context.WithTimeout(ctx, commentSync.config.RequestTimeout)
	defer cancel()

	created, err := commentSync.api.CreateComment(requestCtx, postId, CommentDraft{
		AuthorId: commentSync.config.AuthorId,
		Content:  content,
	})

	return commentSync.settleInsert(op, optimistic.Id, created, err)
}

// Reply adds a reply under parentId, which may sit at any depth below the limit.
func (commentSync *CommentSync) Reply(ctx context.Context, postId string, parentId string, content string) (Comment, error) {
	content, err := commentSync.validateContent(content)
	if err != nil {
		return Comment{}, err
	}

	if IsTempId(parentId) {
		return Comment{}, newValidationError("Comment is not saved yet", "parentId")
	}

	depth, err := commentSync.store.Depth(postId, parentId)
	if err != nil {
		return Comment{}, err
	}

	if depth+1 > commentSync.config.MaxReplyDepth {
		return Comment{}, newValidationError(fmt.Sprintf("Replies are limited to %d levels", commentSync.config.MaxReplyDepth), "parentId")
	}

	key := commentKey(postId, parentId)
	release, err := commentSync.guard.enter(ctx, key, commentSync.config.BusyPolicy)
	if err != nil {
		return Comment{}, err
	}
	defer release()

	optimistic := commentSync.draft(content)

	commentSync.mu.Lock()
	err = commentSync.store.InsertReply(postId, parentId, optimistic)
	if err != nil {
		commentSync.mu.Unlock()
		return Comment{}, err
	}
	op := commentSync.tracker.begin(postId, key)
	commentSync.mu.Unlock()

	requestCtx, cancel := context.WithTimeout(ctx, commentSync.config.RequestTimeout)
	defer cancel()

	created, err := commentSync.api.CreateComment(requestCtx, postId, CommentDraft{
		AuthorId: commentSync.config.AuthorId,
		ParentId: parentId,
		Content:  content,
	})

	return commentSync.settleInsert(op, optimistic.Id, created, err)
}

func (commentSync *CommentSync) settleInsert(op *Pending, tempId string, created Comment, err error) (Comment, error) {
	commentSync.mu.Lock()
	defer commentSync.mu.Unlock()

	postId := op.PostId

	if !commentSync.tracker.current(op) {
		commentSync.tracker.finish(op, OpAbandoned)
		commentSync.log.Debug("dropping comment response for closed post", zap.String("postId", postId), zap.Uint64("requestId", op.RequestId))
		return Comment{}, ErrStaleResponse
	}

	if err != nil {
		commentSync.store.RemoveById(postId, tempId)
		commentSync.tracker.finish(op, OpRolledBack)
		commentSync.log.Warn("comment insert rolled back", zap.String("postId", postId), zap.Error(err))
		return Comment{}, err
	}

	commentSync.tracker.finish(op, OpConfirmed)

	// A realtime event may have delivered the server copy first.
	if _, exists := commentSync.store.Find(postId, created.Id); exists {
		commentSync.store.RemoveById(postId, tempId)
		return created, nil
	}

	err = commentSync.store.replaceId(postId, tempId, created)
	if err != nil {
		// The parent went away while the request was in flight.
		return created, err
	}

	return created, nil
}

func (commentSync *CommentSync) Edit(ctx context.Context, postId string, commentId string, content string) (Comment, error) {
	content, err := commentSync.validateContent(content)
	if err != nil {
		return Comment{}, err
	}

	if IsTempId(commentId) {
		return Comment{}, newValidationError("Comment is not saved yet", "commentId")
	}

	key := commentKey(postId, commentId)
	release, err := commentSync.guard.enter(ctx, key, commentSync.config.BusyPolicy)
	if err != nil {
		return Comment{}, err
	}
	defer release()

	commentSync.mu.Lock()
	previous, ok := commentSync.store.Find(postId, commentId)
	if !ok {
		commentSync.mu.Unlock()
		return Comment{}, fmt.Errorf("%w: %s", ErrCommentNotFound, commentId)
	}

	editedAt := commentSync.now()
	_ = commentSync.store.UpdateById(postId, commentId, CommentPatch{Content: &content, EditedAt: &editedAt})
	op := commentSync.tracker.begin(postId, key)
	commentSync.mu.Unlock()

	requestCtx, cancel := context.WithTimeout(ctx, commentSync.config.RequestTimeout)
	defer cancel()

	confirmedAt, err := commentSync.api.EditComment(requestCtx, postId, commentId, content)

	commentSync.mu.Lock()
	defer commentSync.mu.Unlock()

	if !commentSync.tracker.current(op) {
		commentSync.tracker.finish(op, OpAbandoned)
		return Comment{}, ErrStaleResponse
	}

	if err != nil {
		if restoreErr := commentSync.store.restore(postId, previous); restoreErr != nil {
			commentSync.log.Debug("edited comment disappeared before rollback", zap.String("commentId", commentId))
		}
		commentSync.tracker.finish(op, OpRolledBack)
		commentSync.log.Warn("comment edit rolled back", zap.String("commentId", commentId), zap.Error(err))
		return Comment{}, err
	}

	commentSync.tracker.finish(op, OpConfirmed)

	err = commentSync.store.UpdateById(postId, commentId, CommentPatch{EditedAt: &confirmedAt})
	if err != nil {
		return Comment{}, err
	}

	edited, _ := commentSync.store.Find(postId, commentId)
	return edited, nil
}

// Delete removes commentId and its replies. Deleting an unknown id is a no-op.
func (commentSync *CommentSync) Delete(ctx context.Context, postId string, commentId string) error {
	if IsTempId(commentId) {
		return newValidationError("Comment is not saved yet", "commentId")
	}

	key := commentKey(postId, commentId)
	release, err := commentSync.guard.enter(ctx, key, commentSync.config.BusyPolicy)
	if err != nil {
		return err
	}
	defer release()

	commentSync.mu.Lock()
	node, at, ok := commentSync.store.detach(postId, commentId)
	if !ok {
		commentSync.mu.Unlock()
		return nil
	}
	op := commentSync.tracker.begin(postId, key)
	commentSync.mu.Unlock()

	requestCtx, cancel := context.WithTimeout(ctx, commentSync.config.RequestTimeout)
	defer cancel()

	err = commentSync.api.DeleteComment(requestCtx, postId, commentId)

	commentSync.mu.Lock()
	defer commentSync.mu.Unlock()

	if !commentSync.tracker.current(op) {
		commentSync.tracker.finish(op, OpAbandoned)
		return ErrStaleResponse
	}

	if err == nil || errors.Is(err, ErrCommentNotFound) {
		commentSync.tracker.finish(op, OpConfirmed)
		return nil
	}

	if restoreErr := commentSync.store.reattach(postId, at, node); restoreErr != nil {
		commentSync.log.Warn("parent of deleted comment is gone, cannot restore", zap.String("commentId", commentId))
	}
	commentSync.tracker.finish(op, OpRolledBack)
	commentSync.log.Warn("comment delete rolled back", zap.String("commentId", commentId), zap.Error(err))

	return err
}

// Detach is called when the post view goes away. Outstanding requests still
// complete on the server but their responses no longer touch local state.
func (commentSync *CommentSync) Detach(postId string) {
	commentSync.mu.Lock()
	defer commentSync.mu.Unlock()

	commentSync.tracker.invalidate(postId)
	commentSync.store.Drop(postId)
	delete(commentSync.loading, postId)
}

func (commentSync *CommentSync) InFlight(postId string) int {
	commentSync.mu.Lock()
	defer commentSync.mu.Unlock()

	return commentSync.tracker.inFlight(postId)
}

func (commentSync *CommentSync) draft(content string) Comment {
	return Comment{
		Id:              NewTempId(),
		AuthorId:        commentSync.config.AuthorId,
		AuthorName:      commentSync.config.AuthorName,
		AuthorAvatarUrl: commentSync.config.AuthorAvatarUrl,
		Content:         content,
		CreatedAt:       commentSync.now(),
	}
}

func (commentSync *CommentSync) validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", newValidationError("Content is required", "content")
	}

	if utf8.RuneCountInString(content) > commentSync.config.MaxContentLength {
		return "", newValidationError(fmt.Sprintf("Content is limited to %d characters", commentSync.config.MaxContentLength), "content")
	}

	return content, nil
}
