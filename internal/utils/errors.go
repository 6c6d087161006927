package utils

import "fmt"

type AppError struct {
	Code    string
	Message string
	Origin  error // Original error that caused this error, if any
}

func (appErr *AppError) Error() string {
	if appErr.Origin != nil {
		return appErr.Message + ": " + appErr.Origin.Error()
	}
	return appErr.Message
}

// Standard error codes for the application
const (
	// Resource errors
	ErrNotFound     = "NOT_FOUND"
	ErrDuplicate    = "DUPLICATE"
	ErrInvalidInput = "INVALID_INPUT"

	// Authentication/Authorization errors
	ErrUnauthorized   = "UNAUTHORIZED"
	ErrInvalidToken   = "INVALID_TOKEN"
	ErrSessionExpired = "SESSION_EXPIRED"

	// Remote identity service errors
	ErrAuthNetwork        = "AUTH_NETWORK"
	ErrAuthBadResponse    = "AUTH_BAD_RESPONSE"
	ErrInvalidCredentials = "INVALID_CREDENTIALS"
	ErrEmailNotConfirmed  = "EMAIL_NOT_CONFIRMED"

	// Content errors
	ErrPostNotFound    = "POST_NOT_FOUND"
	ErrCommentNotFound = "COMMENT_NOT_FOUND"
	ErrEmptyContent    = "EMPTY_CONTENT"
	ErrWriteRejected   = "WRITE_REJECTED"

	// Actor communication errors
	ErrActorTimeout    = "ACTOR_TIMEOUT"
	ErrMessageRejected = "MESSAGE_REJECTED"

	// Rate limiting
	ErrTooManyRequests = "TOO_MANY_REQUESTS"

	ErrDatabase = "DATABASE_ERROR"
)

// Error creation helper functions
func NewAppError(code string, message string, originalErr error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Origin:  originalErr,
	}
}

// Specific error creators for common cases
func NewPostNotFoundError(postID string) *AppError {
	return &AppError{
		Code:    ErrPostNotFound,
		Message: "Post not found: " + postID,
	}
}

func NewCommentNotFoundError(commentID string) *AppError {
	return &AppError{
		Code:    ErrCommentNotFound,
		Message: "Comment not found: " + commentID,
	}
}

func NewEmptyContentError(kind string) *AppError {
	return &AppError{
		Code:    ErrEmptyContent,
		Message: fmt.Sprintf("%s text is empty after trimming", kind),
	}
}

func NewUnauthorizedError(reason string) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "Unauthorized: " + reason,
	}
}

func NewActorTimeoutError(actorName string) *AppError {
	return &AppError{
		Code:    ErrActorTimeout,
		Message: "Actor communication timeout: " + actorName,
	}
}

// Helper method to check if an error is of a specific type
func IsErrorCode(err error, code string) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}

// Helper method to check if an error is related to authentication
func IsAuthError(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == ErrUnauthorized ||
			appErr.Code == ErrInvalidToken ||
			appErr.Code == ErrSessionExpired
	}
	return false
}

// AppErrorToHTTPStatus converts an AppError code to an HTTP status code.
func AppErrorToHTTPStatus(errorCode string) int {
	switch errorCode {
	case ErrNotFound, ErrPostNotFound, ErrCommentNotFound:
		return 404 // http.StatusNotFound
	case ErrInvalidInput, ErrEmptyContent, ErrInvalidCredentials:
		return 400 // http.StatusBadRequest
	case ErrUnauthorized, ErrInvalidToken, ErrSessionExpired:
		return 401 // http.StatusUnauthorized
	case ErrEmailNotConfirmed:
		return 403 // http.StatusForbidden
	case ErrDuplicate, ErrWriteRejected:
		return 409 // http.StatusConflict
	case ErrTooManyRequests:
		return 429 // http.StatusTooManyRequests
	case ErrAuthNetwork, ErrAuthBadResponse:
		return 502 // http.StatusBadGateway
	case ErrDatabase, ErrActorTimeout, ErrMessageRejected:
		return 500 // http.StatusInternalServerError
	default:
		return 500 // http.StatusInternalServerError for unknown errors
	}
}
