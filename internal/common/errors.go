// Package common defines shared constants and sentinel errors used across
// the shop server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal         = errors.New("internal error")
	ErrorUnauthorized     = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccessDenied       = errors.New("access denied")

	// Validation errors.
	ErrValidation       = errors.New("validation error")
	ErrUnknownRole      = errors.New("unknown role")
	ErrSamePassword     = errors.New("new password must differ from the current one")
	ErrPasswordMismatch = errors.New("password confirmation does not match")

	// Token verification errors.
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenInvalidSignature = errors.New("token signature invalid")
	ErrTokenUnsupported      = errors.New("token unsupported")
	ErrTokenEmptyClaims      = errors.New("token claims empty")

	// Startup errors.
	ErrWeakSigningKey = errors.New("signing key is shorter than 512 bits")

	// Optional collaborators.
	ErrMediaUnavailable = errors.New("object storage is not configured")
)

// BearerPrefix is the Authorization header scheme accepted by the server.
const BearerPrefix = "Bearer "

// ValidationError carries a field -> message map for rejected input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error()
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError builds a ValidationError from field/message pairs.
func NewValidationError(pairs ...string) *ValidationError {
	f := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		f[pairs[i]] = pairs[i+1]
	}
	return &ValidationError{Fields: f}
}

// PublicError carries a message that is safe to return to clients while
// still matching its Kind with errors.Is.
type PublicError struct {
	Kind    error
	Message string
}

func (e *PublicError) Error() string { return e.Message }

func (e *PublicError) Unwrap() error { return e.Kind }

// Public wraps kind with a client-facing message.
func Public(kind error, message string) error {
	return &PublicError{Kind: kind, Message: message}
}
