package common

import (
	"errors"
	"fmt"
	"strings"
)

var (

	// repository specific errors
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// service specific errors
	ErrorInternal        = errors.New("internal error")
	ErrorUnauthenticated = errors.New("unauthenticated")
	ErrorForbidden       = errors.New("forbidden")
	ErrorConflict        = errors.New("conflict")
	ErrorInvalidArgument = errors.New("invalid argument")

	// login errors
	ErrorInvalidCredentials = errors.New("incorrect username or password")
	ErrorNotVerified        = errors.New("user not verified")

	// token errors
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// chat errors, never returned to the caller of a chat turn
	ErrorAgentFailure = errors.New("agent failure")
)

// BatchAuthorizationError reports the ids of a batch request that were either
// missing or owned by someone else. It matches ErrorForbidden with errors.Is.
type BatchAuthorizationError struct {
	IDs []string
}

func (e *BatchAuthorizationError) Error() string {
	return fmt.Sprintf("some tasks were not found or you are not authorized to delete them: %s", strings.Join(e.IDs, ", "))
}

func (e *BatchAuthorizationError) Unwrap() error {
	return ErrorForbidden
}
