package constant

const (
	ERR_VALIDATION_CODE                 = "VALIDATION_ERROR"
	ERR_INVALID_REQUEST_BODY_ERROR_CODE = "INVALID_REQUEST_BODY_ERROR"
	ERR_INTERNAL_SERVER_ERROR_CODE      = "INTERNAL_SERVER_ERROR"
	ERR_INTENRAL_SERVER_ERROR_MESSAGE   = "Something went wrong. If the problem persists, please contact support"
	ERR_INVALID_REQUEST_BODY_MESSAGE    = "The request is invalid or malformed"
	ERR_NOT_FOUND_ERROR                 = "NOT_FOUND_ERROR"
	ERR_UNATHORIZED_ERROR               = "UNAUTHORIZED_ERROR"
	ERR_REACTION_CONFLICT               = "REACTION_CONFLICT"
)
