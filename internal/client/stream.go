package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ferdian3456/kinfeed/internal/feed"
	"github.com/ferdian3456/kinfeed/internal/model"
	"github.com/ferdian3456/kinfeed/internal/util"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	streamMinBackoff = 500 * time.Millisecond
	streamMaxBackoff = 30 * time.Second
)

// Stream receives the realtime events of one post.
type Stream struct {
	Client *Client
	Dialer *websocket.Dialer
	Log    *zap.Logger
}

func NewStream(client *Client) *Stream {
	return &Stream{
		Client: client,
		Dialer: &websocket.Dialer{HandshakeTimeout: client.Timeout},
		Log:    client.Log,
	}
}

func (stream *Stream) url(postId string) string {
	base := stream.Client.BaseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}

	return base + postPath(postId, "events")
}

// Run delivers events to handle until ctx is done or the connection drops. Events that cannot be
// decoded are logged and skipped, an error from handle is logged and does not stop the stream.
func (stream *Stream) Run(ctx context.Context, postId string, handle func(feed.Event) error) error {
	header := http.Header{}
	if stream.Client.AccessToken != "" {
		header.Set("Authorization", util.BearerPrefix+stream.Client.AccessToken)
	}

	conn, resp, err := stream.Dialer.DialContext(ctx, stream.url(postId), header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("%w: event stream handshake status %d", feed.ErrNetworkFailure, resp.StatusCode)
		}
		return fmt.Errorf("%w: %v", feed.ErrNetworkFailure, err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-stop:
		}
	}()

	stream.Log.Debug("event stream connected", zap.String("postId", postId))

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("%w: %v", feed.ErrNetworkFailure, err)
		}

		wire := model.FeedEvent{}
		err = sonic.Unmarshal(payload, &wire)
		if err != nil {
			stream.Log.Warn("skipping malformed event", zap.String("postId", postId), zap.Error(err))
			continue
		}

		event, err := eventFromWire(wire)
		if err != nil {
			stream.Log.Warn("skipping unsupported event", zap.String("postId", postId), zap.String("type", wire.Type), zap.Error(err))
			continue
		}

		err = handle(event)
		if err != nil {
			stream.Log.Warn("failed to apply event", zap.String("postId", postId), zap.String("type", wire.Type), zap.Error(err))
		}
	}
}

// Watch keeps Run alive, reconnecting with exponential backoff. onReconnect runs after every
// dropped connection so the caller can resync what it missed.
func (stream *Stream) Watch(ctx context.Context, postId string, handle func(feed.Event) error, onReconnect func()) error {
	backoff := streamMinBackoff
	for {
		started := time.Now()
		err := stream.Run(ctx, postId, handle)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil && !errors.Is(err, feed.ErrNetworkFailure) {
			return err
		}

		if time.Since(started) > streamMaxBackoff {
			backoff = streamMinBackoff
		}

		stream.Log.Info("event stream dropped, reconnecting", zap.String("postId", postId), zap.Duration("backoff", backoff), zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > streamMaxBackoff {
			backoff = streamMaxBackoff
		}

		if onReconnect != nil {
			onReconnect()
		}
	}
}
