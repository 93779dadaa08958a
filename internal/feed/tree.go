package feed

import (
	"fmt"
	"time"
)

type Comment struct {
	Id              string
	ParentId        string
	AuthorId        string
	AuthorName      string
	AuthorAvatarUrl string
	Content         string
	CreatedAt       time.Time
	EditedAt        *time.Time
	ReactionCount   int
	Replies         []Comment
}

func (comment Comment) Edited() bool {
	return comment.EditedAt != nil
}

// CommentPatch holds the fields an edit may change. Nil fields are left untouched.
type CommentPatch struct {
	Content       *string
	EditedAt      *time.Time
	ReactionCount *int
}

func (patch CommentPatch) apply(comment Comment) Comment {
	if patch.Content != nil {
		comment.Content = *patch.Content
	}
	if patch.EditedAt != nil {
		editedAt := *patch.EditedAt
		comment.EditedAt = &editedAt
	}
	if patch.ReactionCount != nil {
		comment.ReactionCount = *patch.ReactionCount
	}
	return comment
}

// The functions below never modify their input. They return a new root slice
// in which only the nodes on the path to the target are rebuilt.

func InsertRoot(roots []Comment, comment Comment) []Comment {
	comment.ParentId = ""

	out := make([]Comment, len(roots), len(roots)+1)
	copy(out, roots)

	return append(out, comment)
}

func InsertReply(roots []Comment, parentId string, reply Comment) ([]Comment, error) {
	out, ok := mapById(roots, parentId, func(parent Comment) Comment {
		reply.ParentId = parent.Id
		replies := make([]Comment, len(parent.Replies), len(parent.Replies)+1)
		copy(replies, parent.Replies)
		parent.Replies = append(replies, reply)
		return parent
	})
	if !ok {
		return roots, fmt.Errorf("%w: %s", ErrCommentNotFound, parentId)
	}

	return out, nil
}

func UpdateById(roots []Comment, commentId string, patch CommentPatch) ([]Comment, error) {
	out, ok := mapById(roots, commentId, patch.apply)
	if !ok {
		return roots, fmt.Errorf("%w: %s", ErrCommentNotFound, commentId)
	}

	return out, nil
}

// RemoveById drops every node with commentId together with its subtree.
// The second result is false, and roots is returned as is, when nothing matched.
func RemoveById(roots []Comment, commentId string) ([]Comment, bool) {
	removed := false
	out := make([]Comment, 0, len(roots))

	for _, node := range roots {
		if node.Id == commentId {
			removed = true
			continue
		}

		if replies, ok := RemoveById(node.Replies, commentId); ok {
			node.Replies = replies
			removed = true
		}

		out = append(out, node)
	}

	if !removed {
		return roots, false
	}

	return out, true
}

// ReplaceId swaps the node with oldId for comment, keeping its position and replies.
func ReplaceId(roots []Comment, oldId string, comment Comment) ([]Comment, error) {
	out, ok := mapById(roots, oldId, func(existing Comment) Comment {
		comment.ParentId = existing.ParentId
		if len(comment.Replies) == 0 {
			comment.Replies = existing.Replies
		}
		return comment
	})
	if !ok {
		return roots, fmt.Errorf("%w: %s", ErrCommentNotFound, oldId)
	}

	return out, nil
}

func FindById(roots []Comment, commentId string) (Comment, bool) {
	for _, node := range roots {
		if node.Id == commentId {
			return node, true
		}
		if found, ok := FindById(node.Replies, commentId); ok {
			return found, true
		}
	}

	return Comment{}, false
}

// DepthOf returns 0 for a root comment, 1 for its replies, and so on.
func DepthOf(roots []Comment, commentId string) (int, bool) {
	for _, node := range roots {
		if node.Id == commentId {
			return 0, true
		}
		if depth, ok := DepthOf(node.Replies, commentId); ok {
			return depth + 1, true
		}
	}

	return 0, false
}

func CountNodes(roots []Comment) int {
	count := 0
	for _, node := range roots {
		count += 1 + CountNodes(node.Replies)
	}
	return count
}

func cloneTree(roots []Comment) []Comment {
	if roots == nil {
		return nil
	}

	out := make([]Comment, len(roots))
	for i, node := range roots {
		if node.EditedAt != nil {
			editedAt := *node.EditedAt
			node.EditedAt = &editedAt
		}
		node.Replies = cloneTree(node.Replies)
		out[i] = node
	}

	return out
}

func mapById(nodes []Comment, commentId string, fn func(Comment) Comment) ([]Comment, bool) {
	for i := range nodes {
		if nodes[i].Id == commentId {
			out := make([]Comment, len(nodes))
			copy(out, nodes)
			out[i] = fn(nodes[i])
			return out, true
		}

		if replies, ok := mapById(nodes[i].Replies, commentId, fn); ok {
			out := make([]Comment, len(nodes))
			copy(out, nodes)
			out[i].Replies = replies
			return out, true
		}
	}

	return nodes, false
}

// position records where a detached subtree lived so a rollback can put it back.
type position struct {
	ParentId string
	Index    int
}

func detach(roots []Comment, commentId string) ([]Comment, Comment, position, bool) {
	node, at, ok := locate(roots, "", commentId)
	if !ok {
		return roots, Comment{}, position{}, false
	}

	out, _ := RemoveById(roots, commentId)

	return out, node, at, true
}

func locate(nodes []Comment, parentId string, commentId string) (Comment, position, bool) {
	for i, node := range nodes {
		if node.Id == commentId {
			return node, position{ParentId: parentId, Index: i}, true
		}
		if found, at, ok := locate(node.Replies, node.Id, commentId); ok {
			return found, at, true
		}
	}

	return Comment{}, position{}, false
}

func insertAt(roots []Comment, at position, node Comment) ([]Comment, error) {
	if at.ParentId == "" {
		return spliceAt(roots, at.Index, node), nil
	}

	out, ok := mapById(roots, at.ParentId, func(parent Comment) Comment {
		parent.Replies = spliceAt(parent.Replies, at.Index, node)
		return parent
	})
	if !ok {
		return roots, fmt.Errorf("%w: %s", ErrCommentNotFound, at.ParentId)
	}

	return out, nil
}

func spliceAt(nodes []Comment, index int, node Comment) []Comment {
	if index < 0 {
		index = 0
	}
	if index > len(nodes) {
		index = len(nodes)
	}

	out := make([]Comment, 0, len(nodes)+1)
	out = append(out, nodes[:index]...)
	out = append(out, node)
	out = append(out, nodes[index:]...)

	return out
}
