package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ferdian3456/kinfeed/internal/client"
	"github.com/ferdian3456/kinfeed/internal/config"
	"github.com/ferdian3456/kinfeed/internal/feed"
	zapLog "go.uber.org/zap"
)

func main() {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "warn"
	}
	zap := config.NewZap(logLevel, true)
	defer func() { _ = zap.Sync() }()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: feedsync <postId>")
		os.Exit(2)
	}
	postId := os.Args[1]

	koanf := config.NewKoanf(zap, ".env")
	feedConfig, err := config.LoadFeedClientConfig(koanf)
	if err != nil {
		zap.Fatal("invalid feed configuration", zapLog.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.New(client.Config{
		BaseURL:     feedConfig.APIURL,
		AccessToken: feedConfig.AccessToken,
		Timeout:     feedConfig.RequestTimeout,
		PageSize:    feedConfig.PageSize,
	}, zap)

	me, err := api.Me(ctx)
	if err != nil {
		zap.Fatal("failed to load the current user", zapLog.Error(err))
	}

	userName := feedConfig.UserName
	if userName == "" {
		userName = me.Fullname
	}
	if userName == "" {
		userName = me.Username
	}
	avatarUrl := ""
	if me.AvatarUrl != nil {
		avatarUrl = *me.AvatarUrl
	}

	postFeed := feed.New(api, api, zap, feed.Config{
		UserId:         me.Id.String(),
		UserName:       userName,
		UserAvatarUrl:  avatarUrl,
		MaxReplyDepth:  feedConfig.MaxReplyDepth,
		RequestTimeout: feedConfig.RequestTimeout,
		BusyPolicy:     feedConfig.BusyPolicy,
	})

	_, _, err = postFeed.Open(ctx, postId)
	if err != nil {
		zap.Fatal("failed to open post", zapLog.String("postId", postId), zapLog.Error(err))
	}
	defer postFeed.Close(postId)

	session := &session{
		Feed:   postFeed,
		PostId: postId,
		Out:    os.Stdout,
		Log:    zap,
	}
	session.render()

	stream := client.NewStream(api)
	go func() {
		err := stream.Watch(ctx, postId, func(event feed.Event) error {
			return session.applyEvent(ctx, event)
		}, func() {
			if err := session.resync(ctx); err != nil {
				zap.Warn("resync after reconnect failed", zapLog.Error(err))
				return
			}
			session.render()
		})
		if err != nil && ctx.Err() == nil {
			zap.Warn("event stream stopped", zapLog.Error(err))
		}
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}

			cmd, err := parseCommand(line)
			if err != nil {
				session.print(err.Error())
				continue
			}

			quit, err := session.run(ctx, cmd)
			if err != nil {
				session.print(describeError(err))
			}
			if quit {
				return
			}
		}
	}
}
