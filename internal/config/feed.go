package config

import (
	"errors"
	"time"

	"github.com/ferdian3456/kinfeed/internal/feed"
	"github.com/ferdian3456/kinfeed/internal/util"
	"github.com/google/uuid"
	"github.com/knadh/koanf/v2"
)

const defaultFeedAPIURL = "http://127.0.0.1:8080"

type FeedClientConfig struct {
	APIURL         string
	AccessToken    string
	UserId         string
	UserName       string
	RequestTimeout time.Duration
	MaxReplyDepth  int
	PageSize       int
	BusyPolicy     feed.BusyPolicy
}

// LoadFeedClientConfig reads the FEED_* keys. Without FEED_ACCESS_TOKEN a token is minted for
// FEED_USER_ID with JWT_SECRET_KEY, which only works against a server sharing that secret.
func LoadFeedClientConfig(config *koanf.Koanf) (FeedClientConfig, error) {
	feedConfig := FeedClientConfig{
		APIURL:         config.String("FEED_API_URL"),
		AccessToken:    config.String("FEED_ACCESS_TOKEN"),
		UserId:         config.String("FEED_USER_ID"),
		UserName:       config.String("FEED_USER_NAME"),
		RequestTimeout: config.Duration("FEED_REQUEST_TIMEOUT"),
		MaxReplyDepth:  config.Int("FEED_MAX_REPLY_DEPTH"),
		PageSize:       config.Int("FEED_PAGE_SIZE"),
		BusyPolicy:     feed.ParseBusyPolicy(config.String("FEED_BUSY_POLICY")),
	}

	if feedConfig.APIURL == "" {
		feedConfig.APIURL = defaultFeedAPIURL
	}
	if feedConfig.RequestTimeout <= 0 {
		feedConfig.RequestTimeout = feed.DefaultRequestTimeout
	}
	if feedConfig.MaxReplyDepth <= 0 {
		feedConfig.MaxReplyDepth = feed.DefaultMaxReplyDepth
	}

	if feedConfig.AccessToken != "" {
		return feedConfig, nil
	}

	secret := config.String("JWT_SECRET_KEY")
	if secret == "" || feedConfig.UserId == "" {
		return feedConfig, errors.New("FEED_ACCESS_TOKEN is required, or JWT_SECRET_KEY with FEED_USER_ID")
	}

	userId, err := uuid.Parse(feedConfig.UserId)
	if err != nil {
		return feedConfig, errors.New("FEED_USER_ID must be a uuid")
	}

	feedConfig.AccessToken, err = util.GenerateAccessToken(userId, secret, 24*time.Hour)
	if err != nil {
		return feedConfig, err
	}

	return feedConfig, nil
}
