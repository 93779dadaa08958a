// Package client talks to the kinfeed REST and WebSocket API on behalf of the
// feed cache. It implements feed.CommentAPI, feed.ReactionAPI and
// feed.ReactionReplacer.
package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ferdian3456/kinfeed/internal/constant"
	"github.com/ferdian3456/kinfeed/internal/feed"
	"github.com/ferdian3456/kinfeed/internal/model"
	"github.com/ferdian3456/kinfeed/internal/util"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	DefaultTimeout  = 10 * time.Second
	DefaultPageSize = constant.DEFAULT_LIMIT
)

type Config struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
	PageSize    int
}

type Client struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
	PageSize    int
	Http        *fiber.Client
	Log         *zap.Logger
}

func New(config Config, log *zap.Logger) *Client {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.PageSize <= 0 {
		config.PageSize = DefaultPageSize
	}

	return &Client{
		BaseURL:     strings.TrimRight(config.BaseURL, "/"),
		AccessToken: config.AccessToken,
		Timeout:     config.Timeout,
		PageSize:    config.PageSize,
		Http: &fiber.Client{
			JSONEncoder: sonic.Marshal,
			JSONDecoder: sonic.Unmarshal,
		},
		Log: log,
	}
}

type result struct {
	status int
	body   []byte
	errs   []error
}

type errorEnvelope struct {
	Error model.ValidationError `json:"error"`
}

func postPath(postId string, parts ...string) string {
	path := "/api/posts/" + url.PathEscape(postId)
	for _, part := range parts {
		path += "/" + url.PathEscape(part)
	}
	return path
}

// do sends one request and decodes a 2xx body into out. The agent is not context aware, so the
// round-trip runs in its own goroutine bounded by the agent timeout while the caller waits on ctx.
func (client *Client) do(ctx context.Context, method string, path string, query url.Values, body interface{}, out interface{}) error {
	target := client.BaseURL + path

	var agent *fiber.Agent
	switch method {
	case fiber.MethodGet:
		agent = client.Http.Get(target)
	case fiber.MethodPost:
		agent = client.Http.Post(target)
	case fiber.MethodPut:
		agent = client.Http.Put(target)
	case fiber.MethodDelete:
		agent = client.Http.Delete(target)
	default:
		return fmt.Errorf("unsupported method %s", method)
	}

	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if client.AccessToken != "" {
		agent.Set(fiber.HeaderAuthorization, util.BearerPrefix+client.AccessToken)
	}
	if len(query) > 0 {
		agent.QueryString(query.Encode())
	}
	if body != nil {
		agent.JSON(body)
	}

	timeout := client.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return fmt.Errorf("%w: %v", feed.ErrNetworkFailure, context.DeadlineExceeded)
	}
	agent.Timeout(timeout)

	done := make(chan result, 1)
	go func() {
		status, respBody, errs := agent.Bytes()
		done <- result{status: status, body: respBody, errs: errs}
	}()

	var res result
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", feed.ErrNetworkFailure, ctx.Err())
	case res = <-done:
	}

	if len(res.errs) > 0 {
		client.Log.Debug("request failed", zap.String("method", method), zap.String("path", path), zap.Error(res.errs[0]))
		return fmt.Errorf("%w: %v", feed.ErrNetworkFailure, res.errs[0])
	}

	if res.status >= 200 && res.status < 300 {
		if out == nil || len(res.body) == 0 {
			return nil
		}

		err := sonic.Unmarshal(res.body, out)
		if err != nil {
			return fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
		return nil
	}

	return client.statusError(method, path, res.status, res.body)
}

func (client *Client) statusError(method string, path string, status int, body []byte) error {
	envelope := errorEnvelope{}
	_ = sonic.Unmarshal(body, &envelope)
	apiErr := envelope.Error
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("%s %s failed with status %d", method, path, status)
	}

	client.Log.Debug("request rejected", zap.String("method", method), zap.String("path", path), zap.Int("status", status), zap.String("code", apiErr.Code))

	switch {
	case status == fiber.StatusNotFound:
		return fmt.Errorf("%w: %s", feed.ErrCommentNotFound, apiErr.Message)
	case status == fiber.StatusConflict:
		return fmt.Errorf("%w: %s", feed.ErrReactionConflict, apiErr.Message)
	case status == fiber.StatusTooManyRequests || status >= fiber.StatusInternalServerError:
		return fmt.Errorf("%w: status %d", feed.ErrNetworkFailure, status)
	default:
		if apiErr.Code == "" {
			apiErr.Code = constant.ERR_VALIDATION_CODE
		}
		return &apiErr
	}
}

// Me returns the account behind the access token.
func (client *Client) Me(ctx context.Context) (model.UserResponse, error) {
	user := model.UserResponse{}
	err := client.do(ctx, fiber.MethodGet, "/api/users/me", nil, nil, &user)
	if err != nil {
		return user, err
	}

	return user, nil
}
