package services

import "errors"

// Sentinel errors returned by services. Handlers map these to HTTP
// status codes with errors.Is.
var (
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrAccountInactive       = errors.New("account is inactive")
	ErrBadRequest            = errors.New("bad request")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrValidationFailed      = errors.New("validation failed")
	ErrInternal              = errors.New("internal error")
)
