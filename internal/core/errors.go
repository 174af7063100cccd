package core

// Error codes for protocol errors.
const (
	ErrCodeBadRequest          = "bad_request"
	ErrCodeInvalidMessage      = "invalid_message"
	ErrCodeUnsupportedProtocol = "unsupported_protocol"
	ErrCodeRateLimited         = "rate_limited"
)

// Login error reasons reported to the requester.
const (
	ReasonInvalidPassword = "invalid password"
	ReasonInvalidUsername = "invalid username"
	ReasonMissingPassword = "password is required"
	ReasonAlreadyLoggedIn = "already logged in"
	ReasonInternal        = "internal error"
)
