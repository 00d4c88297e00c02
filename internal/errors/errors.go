package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

const (
	// Authentication
	ErrCodeNotAuthenticated ErrorCode = "NOT_AUTHENTICATED"
	ErrCodeInvalidCallback  ErrorCode = "INVALID_CALLBACK"
	ErrCodeAuthExchange     ErrorCode = "AUTH_EXCHANGE_FAILED"

	// Validation
	ErrCodeValidation       ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrCodeMissingRequired  ErrorCode = "MISSING_REQUIRED"
	ErrCodeInvalidSelection ErrorCode = "INVALID_SELECTION"

	// Resource
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// Playlist assembly
	ErrCodePlaylistCreate ErrorCode = "PLAYLIST_CREATE_FAILED"
	ErrCodeTrackAdd       ErrorCode = "TRACK_ADD_FAILED"

	// Provider
	ErrCodeProviderUnavailable   ErrorCode = "PROVIDER_UNAVAILABLE"
	ErrCodeProviderNotConfigured ErrorCode = "PROVIDER_NOT_CONFIGURED"
	ErrCodeUnsupported           ErrorCode = "UNSUPPORTED"
	ErrCodeExternal              ErrorCode = "EXTERNAL_SERVICE_ERROR"

	// Rate Limiting
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"

	// Internal
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	ErrCodeStore    ErrorCode = "STORE_ERROR"
)

// AppError is a structured error that can be returned to clients
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithCause adds a cause to the error
func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Common error constructors

func NotAuthenticated() *AppError {
	return New(ErrCodeNotAuthenticated, "Not authenticated")
}

func InvalidCallback() *AppError {
	return New(ErrCodeInvalidCallback, "Invalid callback")
}

func AuthExchange(cause error) *AppError {
	return Wrap(ErrCodeAuthExchange, "Failed to get access token", cause)
}

func InvalidSelection(min, max int) *AppError {
	return New(ErrCodeInvalidSelection, fmt.Sprintf("Playlist must have %d-%d tracks", min, max))
}

func PlaylistCreate(cause error) *AppError {
	return Wrap(ErrCodePlaylistCreate, "Failed to create playlist", cause)
}

func TrackAdd(cause error) *AppError {
	return Wrap(ErrCodeTrackAdd, "Failed to add tracks to playlist", cause)
}

func ProviderUnavailable(cause error) *AppError {
	return Wrap(ErrCodeProviderUnavailable, "Music provider unavailable", cause)
}

func ProviderNotConfigured(provider string) *AppError {
	return New(ErrCodeProviderNotConfigured, fmt.Sprintf("Provider %s is not configured", provider))
}

func External(service string, cause error) *AppError {
	return Wrap(ErrCodeExternal, fmt.Sprintf("External service error: %s", service), cause)
}

func Unsupported(message string) *AppError {
	return New(ErrCodeUnsupported, message)
}

func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

func ValidationError(message string) *AppError {
	return New(ErrCodeValidation, message)
}

func InvalidInput(field string, reason string) *AppError {
	return New(ErrCodeInvalidInput, fmt.Sprintf("Invalid %s: %s", field, reason))
}

func MissingRequired(message string) *AppError {
	return New(ErrCodeMissingRequired, message)
}

func RateLimitExceeded() *AppError {
	return New(ErrCodeRateLimitExceeded, "Rate limit exceeded")
}

func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

func Store(cause error) *AppError {
	return Wrap(ErrCodeStore, "Session store error", cause)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetCode returns the error code if the error is an AppError, otherwise returns ErrCodeInternal
func GetCode(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}
