package feed

import (
	"fmt"
	"sync"
)

type PostThread struct {
	PostId        string
	TotalComments int
	Comments      []Comment
	NextCursor    string
}

// CommentStore keeps one comment tree per post plus the collapsed flags used for rendering.
type CommentStore struct {
	mu        sync.RWMutex
	threads   map[string]PostThread
	collapsed map[string]bool
}

func NewCommentStore() *CommentStore {
	return &CommentStore{
		threads:   make(map[string]PostThread),
		collapsed: make(map[string]bool),
	}
}

// Snapshot returns a deep copy that callers may keep or modify freely.
func (store *CommentStore) Snapshot(postId string) (PostThread, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	thread, ok := store.threads[postId]
	if !ok {
		return PostThread{PostId: postId}, false
	}

	thread.Comments = cloneTree(thread.Comments)
	return thread, true
}

// Has reports whether a thread is held for postId.
func (store *CommentStore) Has(postId string) bool {
	store.mu.RLock()
	defer store.mu.RUnlock()

	_, ok := store.threads[postId]
	return ok
}

func (store *CommentStore) Put(thread PostThread) {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.threads[thread.PostId] = thread
}

func (store *CommentStore) Drop(postId string) {
	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.threads, postId)
}

func (store *CommentStore) Find(postId string, commentId string) (Comment, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	return FindById(store.threads[postId].Comments, commentId)
}

func (store *CommentStore) Depth(postId string, commentId string) (int, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	depth, ok := DepthOf(store.threads[postId].Comments, commentId)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrCommentNotFound, commentId)
	}

	return depth, nil
}

func (store *CommentStore) InsertRoot(postId string, comment Comment) {
	store.mu.Lock()
	defer store.mu.Unlock()

	thread := store.thread(postId)
	thread.Comments = InsertRoot(thread.Comments, comment)
	thread.TotalComments += 1 + CountNodes(comment.Replies)
	store.threads[postId] = thread
}

func (store *CommentStore) InsertReply(postId string, parentId string, reply Comment) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	thread := store.thread(postId)
	comments, err := InsertReply(thread.Comments, parentId, reply)
	if err != nil {
		return err
	}

	thread.Comments = comments
	thread.TotalComments += 1 + CountNodes(reply.Replies)
	store.threads[postId] = thread

	return nil
}

func (store *CommentStore) UpdateById(postId string, commentId string, patch CommentPatch) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	thread := store.thread(postId)
	comments, err := UpdateById(thread.Comments, commentId, patch)
	if err != nil {
		return err
	}

	thread.Comments = comments
	store.threads[postId] = thread

	return nil
}

// RemoveById reports the number of comments removed, zero when the id is unknown.
func (store *CommentStore) RemoveById(postId string, commentId string) int {
	store.mu.Lock()
	defer store.mu.Unlock()

	thread := store.thread(postId)
	comments, node, _, ok := detach(thread.Comments, commentId)
	if !ok {
		return 0
	}

	removed := 1 + CountNodes(node.Replies)
	thread.Comments = comments
	thread.TotalComments = max(thread.TotalComments-removed, 0)
	store.threads[postId] = thread

	return removed
}

func (store *CommentStore) ToggleCollapsed(commentId string) bool {
	store.mu.Lock()
	defer store.mu.Unlock()

	collapsed := !store.collapsed[commentId]
	if collapsed {
		store.collapsed[commentId] = true
	} else {
		delete(store.collapsed, commentId)
	}

	return collapsed
}

func (store *CommentStore) IsCollapsed(commentId string) bool {
	store.mu.RLock()
	defer store.mu.RUnlock()

	return store.collapsed[commentId]
}

func (store *CommentStore) replaceId(postId string, oldId string, comment Comment) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	thread := store.thread(postId)
	comments, err := ReplaceId(thread.Comments, oldId, comment)
	if err != nil {
		return err
	}

	thread.Comments = comments
	store.threads[postId] = thread

	return nil
}

// restore puts back the content and edit time of previous, leaving replies and counts as they are now.
func (store *CommentStore) restore(postId string, previous Comment) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	thread := store.thread(postId)
	comments, ok := mapById(thread.Comments, previous.Id, func(comment Comment) Comment {
		comment.Content = previous.Content
		comment.EditedAt = previous.EditedAt
		return comment
	})
	if !ok {
		return fmt.Errorf("%w: %s", ErrCommentNotFound, previous.Id)
	}

	thread.Comments = comments
	store.threads[postId] = thread

	return nil
}

func (store *CommentStore) detach(postId string, commentId string) (Comment, position, bool) {
	store.mu.Lock()
	defer store.mu.Unlock()

	thread := store.thread(postId)
	comments, node, at, ok := detach(thread.Comments, commentId)
	if !ok {
		return Comment{}, position{}, false
	}

	thread.Comments = comments
	thread.TotalComments = max(thread.TotalComments-1-CountNodes(node.Replies), 0)
	store.threads[postId] = thread

	return node, at, true
}

func (store *CommentStore) reattach(postId string, at position, node Comment) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	thread := store.thread(postId)
	comments, err := insertAt(thread.Comments, at, node)
	if err != nil {
		return err
	}

	thread.Comments = comments
	thread.TotalComments += 1 + CountNodes(node.Replies)
	store.threads[postId] = thread

	return nil
}

func (store *CommentStore) appendPage(postId string, page CommentPage) {
	store.mu.Lock()
	defer store.mu.Unlock()

	thread := store.thread(postId)
	comments := thread.Comments
	for _, comment := range page.Comments {
		if _, exists := FindById(comments, comment.Id); exists {
			continue
		}
		comments = InsertRoot(comments, comment)
	}

	thread.Comments = comments
	thread.TotalComments = page.TotalComments
	thread.NextCursor = page.NextCursor
	store.threads[postId] = thread
}

// thread must be called with store.mu held.
func (store *CommentStore) thread(postId string) PostThread {
	thread, ok := store.threads[postId]
	if !ok {
		thread = PostThread{PostId: postId}
	}
	return thread
}
