// Package server provides the HTTP REST API for the career coach service.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/career-coach/internal/generate"
	"github.com/jonathan/career-coach/internal/quota"
	"github.com/jonathan/career-coach/internal/retry"
	"github.com/jonathan/career-coach/internal/schemas"
)

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrUserNotFound indicates user was not found
type ErrUserNotFound struct {
	UserID uuid.UUID
}

func (e *ErrUserNotFound) Error() string {
	return fmt.Sprintf("user not found: %s", e.UserID)
}

// ErrPasswordMismatch indicates current password is incorrect
type ErrPasswordMismatch struct{}

func (e *ErrPasswordMismatch) Error() string {
	return "current password is incorrect"
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus maps a domain error to an HTTP status code.
func HTTPStatus(err error) int {
	var (
		emailExists *ErrEmailAlreadyExists
		notFound    *generate.NotFoundError
		userMissing *ErrUserNotFound
		validation  *ErrValidation
		malformed   *schemas.MalformedArtifactError
		exceeded    *quota.QuotaExceededError
		unavailable *retry.GenerationUnavailableError
	)
	switch {
	case errors.As(err, &emailExists):
		return http.StatusConflict
	case errors.As(err, new(*ErrInvalidCredentials)), errors.As(err, new(*ErrPasswordMismatch)):
		return http.StatusUnauthorized
	case errors.As(err, &userMissing), errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &exceeded):
		return http.StatusTooManyRequests
	// Checked before malformed: an exhausted retry loop wraps its last
	// attempt error, which may itself be a malformed-output error.
	case errors.As(err, &unavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &validation), errors.As(err, &malformed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
