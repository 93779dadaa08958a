package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/ferdian3456/kinfeed/internal/feed"
)

const (
	shortIdLength = 8
	timeLayout    = "2006-01-02 15:04"
)

func shortId(id string) string {
	if feed.IsTempId(id) {
		return "pending"
	}
	if len(id) > shortIdLength {
		return id[:shortIdLength]
	}
	return id
}

func renderReactions(w io.Writer, state feed.ReactionState) {
	summary := feed.Summarize(state)

	parts := make([]string, 0, len(summary.Top))
	for _, entry := range summary.Top {
		parts = append(parts, fmt.Sprintf("%s %d", entry.Kind.Glyph(), entry.Count))
	}

	line := "no reactions yet"
	if len(parts) > 0 {
		line = strings.Join(parts, "  ") + fmt.Sprintf("  · %d total", summary.Total)
	}
	if state.UserReaction != nil {
		line += fmt.Sprintf(" (you: %s)", state.UserReaction.Label())
	}

	fmt.Fprintf(w, "Reactions: %s\n", line)
}

// renderThread draws the post header, the reaction line and the comment tree. Collapsed comments
// show their own line and hide their replies.
func renderThread(w io.Writer, thread feed.PostThread, state feed.ReactionState, collapsed func(string) bool) {
	fmt.Fprintf(w, "Post %s · %d comments\n", thread.PostId, thread.TotalComments)
	renderReactions(w, state)
	fmt.Fprintln(w)

	if len(thread.Comments) == 0 {
		fmt.Fprintln(w, "  no comments yet")
	}
	for _, comment := range thread.Comments {
		renderComment(w, comment, 0, collapsed)
	}

	if thread.NextCursor != "" {
		fmt.Fprintln(w, "  … more comments, type \"more\"")
	}
}

func renderComment(w io.Writer, comment feed.Comment, depth int, collapsed func(string) bool) {
	indent := strings.Repeat("    ", depth)

	header := fmt.Sprintf("%s- [%s] %s · %s", indent, shortId(comment.Id), comment.AuthorName, comment.CreatedAt.Format(timeLayout))
	if comment.Edited() {
		header += " (edited)"
	}
	if comment.ReactionCount > 0 {
		header += fmt.Sprintf(" ♥ %d", comment.ReactionCount)
	}
	fmt.Fprintln(w, header)

	for _, line := range strings.Split(comment.Content, "\n") {
		fmt.Fprintf(w, "%s  %s\n", indent, line)
	}

	if len(comment.Replies) == 0 {
		return
	}

	if collapsed(comment.Id) {
		fmt.Fprintf(w, "%s  [+] %d hidden replies\n", indent, feed.CountNodes(comment.Replies))
		return
	}

	for _, reply := range comment.Replies {
		renderComment(w, reply, depth+1, collapsed)
	}
}
