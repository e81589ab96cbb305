// Package apperror defines the application's typed error taxonomy.
// Every recoverable condition the core can report is a distinct kind so the
// transport layer can always produce a specific status code and message
// instead of a bare "error".
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType enumerates the kinds of application errors.
type ErrorType int

const (
	// UnknownError is for unspecified errors
	UnknownError ErrorType = iota
	// DatabaseError represents an error originating from the storage layer
	DatabaseError
	// ConfigError represents an error in application configuration
	ConfigError
	// AuthError represents an authentication failure (invalid credentials or token)
	AuthError
	// NotFoundError represents a referenced entity that does not exist
	NotFoundError
	// ValidationError represents invalid input fields
	ValidationError
	// BadRequestError represents a generic malformed request
	BadRequestError
	// InternalError represents a generic internal failure
	InternalError
	// ConflictError represents a uniqueness violation, e.g. duplicate identity
	ConflictError
	// TagExhaustedError signals that no free discriminator tag remains for a display name
	TagExhaustedError
	// AlreadySelfError signals a friend request addressed to its own sender
	AlreadySelfError
	// DuplicateRequestError signals a friend request that already exists in the same direction
	DuplicateRequestError
	// AlreadyFriendsError signals a friend request between users who are already friends
	AlreadyFriendsError
	// NoSuchRequestError signals a response to a friend request that is not pending
	NoSuchRequestError
	// NotFriendsError signals a private message between users who are not friends
	NotFriendsError
	// EmptyBodyError signals a message with an empty or whitespace-only body
	EmptyBodyError
	// MalformedHandleError signals a handle missing the name#tag separator
	MalformedHandleError
)

// AppError is the error type returned by all core operations. It carries the
// kind, a user-facing message, and an optional wrapped cause.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error satisfies the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is / errors.As chains.
func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error kind to an HTTP status. The mapping is transport
// policy; the kinds themselves are the contract.
func (e *AppError) StatusCode() int {
	switch e.Type {
	case DatabaseError, ConfigError, InternalError:
		return http.StatusInternalServerError
	case AuthError:
		return http.StatusUnauthorized
	case NotFoundError, NoSuchRequestError:
		return http.StatusNotFound
	case ValidationError, BadRequestError, AlreadySelfError, EmptyBodyError, MalformedHandleError:
		return http.StatusBadRequest
	case ConflictError, TagExhaustedError, DuplicateRequestError, AlreadyFriendsError:
		return http.StatusConflict
	case NotFriendsError:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// NewAppError creates a new AppError of an arbitrary kind.
func NewAppError(errType ErrorType, message string, underlying error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     underlying,
	}
}

// NewDatabaseError creates a new DatabaseError
func NewDatabaseError(message string, underlying error) *AppError {
	return NewAppError(DatabaseError, message, underlying)
}

// NewConfigError creates a new ConfigError
func NewConfigError(message string, underlying error) *AppError {
	return NewAppError(ConfigError, message, underlying)
}

// NewAuthError creates a new AuthError
func NewAuthError(message string, underlying error) *AppError {
	return NewAppError(AuthError, message, underlying)
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(message string, underlying error) *AppError {
	return NewAppError(NotFoundError, message, underlying)
}

// NewValidationError creates a new ValidationError
func NewValidationError(message string, underlying error) *AppError {
	return NewAppError(ValidationError, message, underlying)
}

// NewBadRequestError creates a new BadRequestError
func NewBadRequestError(message string, underlying error) *AppError {
	return NewAppError(BadRequestError, message, underlying)
}

// NewInternalError creates a new InternalError
func NewInternalError(message string, underlying error) *AppError {
	return NewAppError(InternalError, message, underlying)
}

// NewConflictError creates a new ConflictError
func NewConflictError(message string, underlying error) *AppError {
	return NewAppError(ConflictError, message, underlying)
}

// NewTagExhaustedError creates a new TagExhaustedError
func NewTagExhaustedError(message string, underlying error) *AppError {
	return NewAppError(TagExhaustedError, message, underlying)
}

// NewAlreadySelfError creates a new AlreadySelfError
func NewAlreadySelfError(message string) *AppError {
	return NewAppError(AlreadySelfError, message, nil)
}

// NewDuplicateRequestError creates a new DuplicateRequestError
func NewDuplicateRequestError(message string) *AppError {
	return NewAppError(DuplicateRequestError, message, nil)
}

// NewAlreadyFriendsError creates a new AlreadyFriendsError
func NewAlreadyFriendsError(message string) *AppError {
	return NewAppError(AlreadyFriendsError, message, nil)
}

// NewNoSuchRequestError creates a new NoSuchRequestError
func NewNoSuchRequestError(message string) *AppError {
	return NewAppError(NoSuchRequestError, message, nil)
}

// NewNotFriendsError creates a new NotFriendsError
func NewNotFriendsError(message string) *AppError {
	return NewAppError(NotFriendsError, message, nil)
}

// NewEmptyBodyError creates a new EmptyBodyError
func NewEmptyBodyError(message string) *AppError {
	return NewAppError(EmptyBodyError, message, nil)
}

// NewMalformedHandleError creates a new MalformedHandleError
func NewMalformedHandleError(message string) *AppError {
	return NewAppError(MalformedHandleError, message, nil)
}

// ErrorResponse is the JSON error payload returned to API clients.
type ErrorResponse struct {
	Error string `json:"error" example:"A description of the error"`
}

// ToResponse converts an AppError to its client-facing representation. Only
// the message is exposed; wrapped causes stay server-side.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{Error: e.Message}
}

// FromError attempts to convert a generic error to an *AppError.
func FromError(err error) (*AppError, bool) {
	if err == nil {
		return nil, false
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsType reports whether err carries an AppError of the given kind anywhere
// in its chain.
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}

// IsNotFound checks if an error is a NotFound error
func IsNotFound(err error) bool {
	return IsType(err, NotFoundError)
}

// IsAuthError checks if an error is an AuthError
func IsAuthError(err error) bool {
	return IsType(err, AuthError)
}

// IsValidationError checks if an error is a Validation error
func IsValidationError(err error) bool {
	return IsType(err, ValidationError)
}

// IsConflictError checks if an error is a Conflict error
func IsConflictError(err error) bool {
	return IsType(err, ConflictError)
}

// IsNotFriends checks if an error is a NotFriends error
func IsNotFriends(err error) bool {
	return IsType(err, NotFriendsError)
}
