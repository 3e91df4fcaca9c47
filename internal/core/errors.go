package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeUsernameTaken   = "username_taken"
	ErrCodeInvalidUsername = "invalid_username"
	ErrCodeEmptyMessage    = "empty_message"
	ErrCodeInvalidPrivate  = "invalid_private_message"
	ErrCodeRecipientGone   = "recipient_not_found"
	ErrCodeSelfMessage     = "self_message"
	ErrCodeBadRequest      = "bad_request"
	ErrCodeUnauthorized    = "unauthorized"
)

var (
	ErrUsernameTaken     = errors.New("username already taken")
	ErrRecipientNotFound = errors.New("recipient not found")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
