package herodb

import (
	stderrors "errors"
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCreds        = "invalid_credentials"
	TextCodeIdentityExists      = "identity_already_exists"
	TextCodeInvalidConfirmation = "invalid_confirmation_code"
	TextCodeMalformedResponse   = "malformed_response"
	TextCodeAuthorization       = "authorization_failed"
	TextCodeServiceError        = "service_error"
	TextCodeUnexpectedEnvelope  = "unexpected_envelope_shape"
	TextCodeTimeout             = "request_timeout"
	TextCodeInvalidTransition   = "invalid_auth_transition"
	TextCodeNoSession           = "no_active_session"
	TextCodeTokenExpired        = "token_expired"
	TextCodeTokenMalformed      = "token_malformed"
)

// ErrInvalidCredentials is returned when the identity provider rejects a
// username/password pair. The message is what the UI layer shows.
var ErrInvalidCredentials = errors.New("Username or password is incorrect", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrIdentityAlreadyExists is returned when registration hits a duplicate identity.
var ErrIdentityAlreadyExists = errors.New("User already exists", errors.CategoryConflict).
	WithTextCode(TextCodeIdentityExists).
	WithCode(errors.CodeConflict)

// ErrInvalidConfirmationCode is returned when the confirmation code does not match.
var ErrInvalidConfirmationCode = errors.New("Invalid verification code provided, please try again.", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidConfirmation).
	WithCode(errors.CodeBadRequest)

// ErrMalformedResponse is returned when a transport body cannot be parsed.
var ErrMalformedResponse = errors.New("malformed response from service", errors.CategoryOperation).
	WithTextCode(TextCodeMalformedResponse).
	WithCode(errors.CodeInternal)

// ErrAuthorization is returned on 401/403 transport statuses. When a session
// is live the caller's session is evicted before this error surfaces.
var ErrAuthorization = errors.New("not authorized", errors.CategoryAuth).
	WithTextCode(TextCodeAuthorization).
	WithCode(errors.CodeUnauthorized)

// ErrService is returned for any other non-success transport status or a
// resolver-level error; callers never see raw status codes.
var ErrService = errors.New("service request failed", errors.CategoryOperation).
	WithTextCode(TextCodeServiceError).
	WithCode(errors.CodeInternal)

// ErrUnexpectedEnvelope is returned when a response envelope does not carry
// exactly one result field named after the invoked operation.
var ErrUnexpectedEnvelope = errors.New("unexpected response envelope shape", errors.CategoryOperation).
	WithTextCode(TextCodeUnexpectedEnvelope).
	WithCode(errors.CodeInternal)

// ErrTimeout is returned when an outbound call exceeds its deadline.
var ErrTimeout = errors.New("request timed out", errors.CategoryOperation).
	WithTextCode(TextCodeTimeout).
	WithCode(errors.CodeInternal)

// ErrInvalidTransition is returned when a requested auth status change is not allowed.
var ErrInvalidTransition = errors.New("invalid auth state transition", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidTransition).
	WithCode(errors.CodeBadRequest)

// ErrNoSession is returned when an operation needs a live session and none exists.
var ErrNoSession = errors.New("no active session", errors.CategoryAuth).
	WithTextCode(TextCodeNoSession).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned by token validators for expired bearer tokens.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned by token validators for undecodable tokens.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// IsAuthorizationError reports whether err is the classified 401/403 error.
func IsAuthorizationError(err error) bool {
	return stderrors.Is(err, ErrAuthorization)
}

// IsTimeoutError reports whether err is the classified deadline error.
func IsTimeoutError(err error) bool {
	return stderrors.Is(err, ErrTimeout)
}

// IsTokenExpiredError will check for expired tokens, including legacy
// string-matched errors from jwt middleware.
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedTokenError will check for undecodable token errors.
func IsMalformedTokenError(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
