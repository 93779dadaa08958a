package constant

import "time"

const (
	DEFAULT_LIMIT = 20
	MAX_LIMIT     = 100

	// MAX_COMMENT_DEPTH counts levels below a root comment.
	MAX_COMMENT_DEPTH  = 2
	MAX_COMMENT_LENGTH = 2000

	AVATAR_URL_EXPIRY = 1 * time.Hour

	REACTION_SUMMARY_KEY_PREFIX = "post:reactions:"
	REACTION_SUMMARY_TTL        = 10 * time.Minute
	// REACTION_VERSION_KEY_PREFIX counts reaction changes per post; the key has no expiry.
	REACTION_VERSION_KEY_PREFIX = "post:reactions:version:"
	POST_EVENT_CHANNEL_PREFIX   = "post:events:"
)
