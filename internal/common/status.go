package common

import (
	"errors"
	"net/http"
)

// Status maps an error to the HTTP status and error code sent to clients.
// Unknown errors become a 500 without leaking their text. Code failures are
// kept vague on purpose: a missing entry and a wrong code look the same.
func Status(err error) (int, string) {
	switch {
	case errors.Is(err, ErrDuplicateEmail):
		return http.StatusConflict, "email_taken"
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, ErrWrongCurrentPassword):
		return http.StatusUnauthorized, "wrong_password"
	case errors.Is(err, ErrNotVerified):
		return http.StatusForbidden, "not_verified"
	case errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound, "user_not_found"
	case errors.Is(err, ErrEntryNotFound), errors.Is(err, ErrCodeIncorrect):
		return http.StatusBadRequest, "invalid_code"
	case errors.Is(err, ErrCodeExpired):
		return http.StatusGone, "code_expired"
	case errors.Is(err, ErrTooManyAttempts):
		return http.StatusTooManyRequests, "too_many_attempts"
	case errors.Is(err, ErrResendThrottled):
		return http.StatusTooManyRequests, "resend_throttled"
	case errors.Is(err, ErrTokenExpired):
		return http.StatusUnauthorized, "token_expired"
	case errors.Is(err, ErrTokenInvalid):
		return http.StatusUnauthorized, "token_invalid"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
