// Package common holds values shared by every layer of the app
package common

import "errors"

var (
	ErrDuplicateEmail       = errors.New("email already registered")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrNotVerified          = errors.New("account not verified")
	ErrWrongCurrentPassword = errors.New("current password is wrong")

	ErrEntryNotFound   = errors.New("verification entry not found")
	ErrCodeExpired     = errors.New("verification code expired")
	ErrCodeIncorrect   = errors.New("verification code incorrect")
	ErrTooManyAttempts = errors.New("too many verification attempts")
	ErrResendThrottled = errors.New("code resend throttled")

	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)
