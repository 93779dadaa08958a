package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ferdian3456/kinfeed/internal/feed"
	"github.com/ferdian3456/kinfeed/internal/model"
	"go.uber.org/zap"
)

const helpText = `commands:
  comment <text>            add a comment
  reply <id> <text>         reply to a comment
  edit <id> <text>          change your comment
  delete <id>               delete your comment and its replies
  react <kind>              like, love, haha, wow, sad, angry (same kind again removes it)
  collapse <id>             hide or show replies
  more                      load more comments
  resync                    reload from the server
  show                      redraw
  quit`

var (
	errUnknownCommand = errors.New("unknown command, type \"help\"")
	errUnknownId      = errors.New("no comment has that id")
	errAmbiguousId    = errors.New("id is ambiguous, type more characters")
)

type command struct {
	Name string
	Args []string
	Text string
}

// parseCommand splits "reply abcd1234 some text" into the name, the fixed arguments the command
// takes and the remaining free text.
func parseCommand(line string) (command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{}, nil
	}

	name := strings.ToLower(fields[0])
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))

	argCount := map[string]int{
		"comment": 0, "reply": 1, "edit": 1, "delete": 1, "react": 1, "collapse": 1,
		"more": 0, "resync": 0, "show": 0, "quit": 0, "exit": 0, "help": 0,
	}

	count, ok := argCount[name]
	if !ok {
		return command{}, errUnknownCommand
	}

	cmd := command{Name: name}
	for i := 0; i < count; i++ {
		parts := strings.SplitN(rest, " ", 2)
		if parts[0] == "" {
			return command{}, fmt.Errorf("%s needs %d argument(s)", name, count)
		}
		cmd.Args = append(cmd.Args, parts[0])
		rest = ""
		if len(parts) == 2 {
			rest = strings.TrimSpace(parts[1])
		}
	}
	cmd.Text = rest

	return cmd, nil
}

type session struct {
	Feed   *feed.Feed
	PostId string
	Out    io.Writer
	Log    *zap.Logger

	outMu sync.Mutex
}

func (session *session) render() {
	session.outMu.Lock()
	defer session.outMu.Unlock()

	thread, _ := session.Feed.Comments.Store().Snapshot(session.PostId)
	renderThread(session.Out, thread, session.Feed.Reactions.State(session.PostId), session.Feed.Comments.Store().IsCollapsed)
}

func (session *session) print(line string) {
	session.outMu.Lock()
	defer session.outMu.Unlock()

	fmt.Fprintln(session.Out, line)
}

// applyEvent folds a pushed change into the view and redraws. A reply to a comment that is not
// loaded yet triggers a resync.
func (session *session) applyEvent(ctx context.Context, event feed.Event) error {
	err := session.Feed.ApplyEvent(event)
	if errors.Is(err, feed.ErrCommentNotFound) {
		err = session.resync(ctx)
	}
	if err != nil {
		return err
	}

	session.render()
	return nil
}

// resolveId accepts a full comment id or a unique prefix of one, as shown by render. It only
// looks at the local view, a prefix nothing matches is a typo rather than a server change.
func (session *session) resolveId(prefix string) (string, error) {
	thread, _ := session.Feed.Comments.Store().Snapshot(session.PostId)

	var matches []string
	var walk func(comments []feed.Comment)
	walk = func(comments []feed.Comment) {
		for _, comment := range comments {
			if strings.HasPrefix(comment.Id, prefix) {
				matches = append(matches, comment.Id)
			}
			walk(comment.Replies)
		}
	}
	walk(thread.Comments)

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", errUnknownId, prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %s", errAmbiguousId, prefix)
	}
}

func (session *session) resync(ctx context.Context) error {
	_, err := session.Feed.Comments.Resync(ctx, session.PostId)
	if err != nil {
		return err
	}

	_, err = session.Feed.Reactions.Resync(ctx, session.PostId)
	return err
}

// run executes one command. It returns true when the session should end.
func (session *session) run(ctx context.Context, cmd command) (bool, error) {
	var err error

	switch cmd.Name {
	case "":
		return false, nil
	case "quit", "exit":
		return true, nil
	case "help":
		session.print(helpText)
		return false, nil
	case "show":
	case "comment":
		_, err = session.Feed.Comments.Submit(ctx, session.PostId, cmd.Text)
	case "reply":
		var parentId string
		parentId, err = session.resolveId(cmd.Args[0])
		if err == nil {
			_, err = session.Feed.Comments.Reply(ctx, session.PostId, parentId, cmd.Text)
		}
	case "edit":
		var commentId string
		commentId, err = session.resolveId(cmd.Args[0])
		if err == nil {
			_, err = session.Feed.Comments.Edit(ctx, session.PostId, commentId, cmd.Text)
		}
	case "delete":
		var commentId string
		commentId, err = session.resolveId(cmd.Args[0])
		if err == nil {
			err = session.Feed.Comments.Delete(ctx, session.PostId, commentId)
		}
	case "react":
		var kind feed.ReactionKind
		kind, err = feed.ParseReactionKind(cmd.Args[0])
		if err == nil {
			_, err = session.Feed.Reactions.React(ctx, session.PostId, kind)
		}
	case "collapse":
		var commentId string
		commentId, err = session.resolveId(cmd.Args[0])
		if err == nil {
			session.Feed.Comments.Store().ToggleCollapsed(commentId)
		}
	case "more":
		_, err = session.Feed.Comments.LoadMore(ctx, session.PostId)
	case "resync":
		err = session.resync(ctx)
	}

	if err != nil && feed.NeedsResync(err) {
		session.Log.Info("local view is out of date, resyncing", zap.Error(err))
		if resyncErr := session.resync(ctx); resyncErr != nil {
			session.Log.Warn("resync failed", zap.Error(resyncErr))
		}
	}

	session.render()

	return false, err
}

// describeError turns a failed command into the line shown to the user.
func describeError(err error) string {
	var validationErr *model.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return validationErr.Message
	case errors.Is(err, feed.ErrBusy):
		return "still working on your last change, try again"
	case errors.Is(err, feed.ErrNetworkFailure):
		return "could not reach the server, your change was undone"
	case errors.Is(err, feed.ErrReactionConflict), errors.Is(err, feed.ErrCommentNotFound):
		return "that changed on the server, the view was reloaded"
	case errors.Is(err, feed.ErrStaleResponse):
		return "the view was reloaded before the server answered"
	case errors.Is(err, errUnknownId):
		return "no comment starts with that id"
	case errors.Is(err, errAmbiguousId):
		return "more than one comment starts with that id, type more characters"
	case errors.Is(err, feed.ErrUnknownReactionKind):
		return "unknown reaction, use like, love, haha, wow, sad or angry"
	default:
		return err.Error()
	}
}
